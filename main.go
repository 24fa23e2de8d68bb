// FILE: main.go
// Package main – Program entrypoint and HTTP/metrics server.
//
// Boot sequence:
//   1) loadBotEnv()            – read .env (no shell exports required)
//   2) cfg := loadConfigFromEnv() – build runtime Config
//   3) wire signer/client/executor/risk/positions/listener/fills/feed
//   4) start /healthz and /metrics (Prometheus) on cfg.Port
//   5) run the control loop until SIGINT/SIGTERM
//
// Flags:
//   -mode <dry|live>    Override MODE from the environment
//   -cycle <dur>        Override the control-loop cycle period (e.g. 1ms)
//   -signal-file <path> Override SIGNAL_FILE
//   -fills-file <path>  Override FILLS_FILE
//
// Example:
//   go run . -mode dry -cycle 500ms
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	var modeFlag string
	var cycleFlag time.Duration
	var signalFileFlag string
	var fillsFileFlag string
	flag.StringVar(&modeFlag, "mode", "", "Override MODE (dry|live)")
	flag.DurationVar(&cycleFlag, "cycle", 0, "Override control-loop cycle duration")
	flag.StringVar(&signalFileFlag, "signal-file", "", "Override SIGNAL_FILE")
	flag.StringVar(&fillsFileFlag, "fills-file", "", "Override FILLS_FILE")
	flag.Parse()

	loadBotEnv()
	cfg := loadConfigFromEnv()
	if modeFlag != "" {
		cfg.Mode = Mode(modeFlag)
		if cfg.Mode != ModeLive {
			cfg.Mode = ModeDry
		}
	}
	if cycleFlag > 0 {
		cfg.CycleDuration = cycleFlag
	}
	if signalFileFlag != "" {
		cfg.SignalFile = signalFileFlag
	}
	if fillsFileFlag != "" {
		cfg.FillsFile = fillsFileFlag
	}

	logInfof("starting in %s mode: signal_file=%s fills_file=%s cycle=%s", cfg.Mode, cfg.SignalFile, cfg.FillsFile, cfg.CycleDuration)

	listener := NewSignalListener(cfg.SignalFile)
	risk := NewRiskEngine(cfg)
	positions := NewPositionManager()
	fills := NewFillsLog(cfg.FillsFile)
	feed := NewMarketDataFeed(cfg.OKXWSPublic, cfg.FeedSymbols)

	var client *ExchangeClient
	var executor *OrderExecutor
	if cfg.Mode == ModeLive {
		signer, err := NewAuthSigner(cfg.OKXAPIKey, cfg.OKXSecretKey, cfg.OKXPassphrase)
		if err != nil {
			log.Fatalf("config error: %v", err)
		}
		client = NewExchangeClient(cfg.OKXAPIBase, signer, cfg.ExecutionTimeout)
		executor = NewOrderExecutor(cfg, client)
	} else {
		executor = NewOrderExecutor(cfg, nil)
	}

	loop := NewControlLoop(cfg, listener, risk, executor, positions, feed, fills)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go feed.Run(ctx)
	go runMetricsSnapshotLoop(ctx, cfg, feed)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Port), Handler: mux}
	go func() {
		logInfof("serving /healthz and /metrics on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server: %v", err)
		}
	}()

	loop.Run(ctx)
	feed.Stop()

	shutdownCtx, c := context.WithTimeout(context.Background(), 2*time.Second)
	defer c()
	_ = srv.Shutdown(shutdownCtx)
}

// runMetricsSnapshotLoop periodically writes the {total_ticks,
// active_symbols, timestamp} snapshot (spec.md §6) independent of the
// control-loop cadence, since the feed runs on its own goroutine.
func runMetricsSnapshotLoop(ctx context.Context, cfg Config, feed *MarketDataFeed) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			total := feed.TotalTicks()
			symbols := feed.ActiveSymbols()
			if err := writeMetricsSnapshot(cfg.MetricsFile, total, symbols, now.Unix()); err != nil {
				logWarnf("metrics snapshot write failed: %v", err)
			}
			health := feed.Health(now)
			if health.LatencySeconds >= 0 {
				mtxFeedLatency.Set(health.LatencySeconds)
			}
		}
	}
}
