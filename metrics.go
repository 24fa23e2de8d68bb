// FILE: metrics.go
// Package main – Prometheus metrics for observability.
//
// Exposes the metrics the control loop and its components update each
// cycle:
//   • hft_signals_total{result}          – Signals admitted by the listener (result="admitted" only)
//   • hft_risk_rejections_total{reason}  – Risk Engine rejections by reason bucket
//   • hft_orders_total{mode,status}      – Entry orders submitted (mode: dry|live)
//   • hft_open_positions                 – Current open-position gauge
//   • hft_session_pnl_usd                – Session PnL gauge
//   • hft_ticks_total                    – Feed ticks processed
//   • hft_feed_latency_seconds           – Freshness of the latest tick, per health check
//
// Registered in init() and served by the HTTP handler started in main.go at
// /metrics (Prometheus text exposition format) — same wiring the teacher
// repo uses for its own bot_* metrics.
package main

import "github.com/prometheus/client_golang/prometheus"

var (
	mtxSignals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hft_signals_total",
			Help: "Signals processed by the listener, by result",
		},
		[]string{"result"}, // only "admitted" is recorded; stale or invalid signals are not counted
	)

	mtxRiskRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hft_risk_rejections_total",
			Help: "Risk Engine rejections, by reason bucket",
		},
		[]string{"reason"},
	)

	mtxOrders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hft_orders_total",
			Help: "Entry orders submitted, by mode and result status",
		},
		[]string{"mode", "status"},
	)

	mtxOpenPositions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hft_open_positions",
			Help: "Number of currently open positions",
		},
	)

	mtxSessionPnL = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hft_session_pnl_usd",
			Help: "Session PnL in USD: sum of unrealized PnL across open positions",
		},
	)

	mtxTicks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hft_ticks_total",
			Help: "Total ticker updates processed by the market data feed",
		},
	)

	mtxFeedLatency = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hft_feed_latency_seconds",
			Help: "Seconds since the freshest tick across all tracked symbols",
		},
	)

	mtxExitReasons = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hft_exit_reasons_total",
			Help: "Position closures, by reason",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(mtxSignals, mtxRiskRejections, mtxOrders)
	prometheus.MustRegister(mtxOpenPositions, mtxSessionPnL)
	prometheus.MustRegister(mtxTicks, mtxFeedLatency)
	prometheus.MustRegister(mtxExitReasons)
}
