// FILE: risk_engine.go
// Package main – Pre-trade gate and session accounting (spec.md §4.3).
//
// RiskEngine is the sole owner of TradeHistory and LastTradeTimes. Checks run
// in a fixed order and the first failing check's reason is returned
// verbatim (tie-break rule, spec.md §4.3) — callers must not reorder the
// validate_trade steps without re-reading that rule.
package main

import (
	"fmt"
	"sync"
	"time"
)

// RiskEngine validates candidate trades against session-wide limits and
// tracks realized/unrealized PnL for drawdown accounting.
type RiskEngine struct {
	mu sync.Mutex

	minConfidence    float64
	maxDailyTrades   int
	perAssetDailyCap int
	maxDrawdownPct   float64
	cooldown         time.Duration
	maxPositionValue float64
	maxOpenPositions int

	dailyTrades    []TradeHistoryEntry
	lastTradeTimes map[string]time.Time
	sessionPnL     float64
}

// NewRiskEngine builds a RiskEngine from Config.
func NewRiskEngine(cfg Config) *RiskEngine {
	return &RiskEngine{
		minConfidence:    cfg.MinConfidence,
		maxDailyTrades:   cfg.MaxDailyTrades,
		perAssetDailyCap: cfg.PerAssetDailyCap,
		maxDrawdownPct:   cfg.MaxDrawdownPct,
		cooldown:         time.Duration(cfg.CooldownMinutes * float64(time.Minute)),
		maxPositionValue: cfg.MaxPositionValue,
		maxOpenPositions: cfg.MaxOpenPositions,
		lastTradeTimes:   make(map[string]time.Time),
	}
}

// ValidateTrade runs the pre-trade gate (spec.md §4.3 steps 1-9) and, on
// approval, records LastTradeTimes[asset] = now.
func (r *RiskEngine) ValidateTrade(now time.Time, asset string, entryPrice, quantity, confidence float64) RiskCheck {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pruneLocked(now)

	if confidence < r.minConfidence {
		return RiskCheck{Approved: false, Reason: fmt.Sprintf("Confidence %.3f below minimum %.2f", confidence, r.minConfidence), AdjustedConfidence: confidence}
	}
	if len(r.dailyTrades) >= r.maxDailyTrades {
		return RiskCheck{Approved: false, Reason: fmt.Sprintf("Daily trade limit %d exceeded", r.maxDailyTrades), AdjustedConfidence: confidence}
	}
	if r.sessionPnL < -r.maxDrawdownPct {
		return RiskCheck{Approved: false, Reason: fmt.Sprintf("Session drawdown %.1f%% exceeds limit %.1f%%", r.sessionPnL, r.maxDrawdownPct), AdjustedConfidence: confidence}
	}
	if last, ok := r.lastTradeTimes[asset]; ok {
		if elapsed := now.Sub(last); elapsed < r.cooldown {
			return RiskCheck{Approved: false, Reason: fmt.Sprintf("Cooldown active for %s", asset), AdjustedConfidence: confidence}
		}
	}
	positionValue := quantity * entryPrice
	if positionValue > r.maxPositionValue {
		return RiskCheck{Approved: false, Reason: fmt.Sprintf("Position value %.2f exceeds max %.2f", positionValue, r.maxPositionValue), AdjustedConfidence: confidence}
	}
	if r.countAssetTodayLocked(asset, now) >= r.perAssetDailyCap {
		return RiskCheck{Approved: false, Reason: fmt.Sprintf("Per-asset daily cap %d reached for %s", r.perAssetDailyCap, asset), AdjustedConfidence: confidence}
	}
	adjusted := confidence * volatilityFactor(asset)
	if adjusted < 0.7 {
		return RiskCheck{Approved: false, Reason: fmt.Sprintf("Volatility-adjusted confidence %.3f too low", adjusted), AdjustedConfidence: adjusted}
	}

	r.lastTradeTimes[asset] = now
	return RiskCheck{Approved: true, Reason: "risk checks passed", AdjustedConfidence: adjusted}
}

func (r *RiskEngine) countAssetTodayLocked(asset string, now time.Time) int {
	dayAgo := now.Add(-24 * time.Hour)
	count := 0
	for _, h := range r.dailyTrades {
		if h.Asset == asset && h.Timestamp.After(dayAgo) {
			count++
		}
	}
	return count
}

func (r *RiskEngine) pruneLocked(now time.Time) {
	dayAgo := now.Add(-24 * time.Hour)
	kept := r.dailyTrades[:0]
	for _, h := range r.dailyTrades {
		if h.Timestamp.After(dayAgo) {
			kept = append(kept, h)
		}
	}
	r.dailyTrades = kept

	hourAgo := now.Add(-time.Hour)
	for asset, ts := range r.lastTradeTimes {
		if ts.Before(hourAgo) {
			delete(r.lastTradeTimes, asset)
		}
	}
}

// RecordResult appends a realized PnL entry and updates session PnL
// (spec.md §4.3 record_result).
func (r *RiskEngine) RecordResult(now time.Time, asset string, pnl float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dailyTrades = append(r.dailyTrades, TradeHistoryEntry{Timestamp: now, Asset: asset, PnL: pnl})
	r.sessionPnL += pnl
}

// EvaluatePositions refreshes session PnL from the sum of unrealized PnLs and
// logs a warning for any position down more than 5% relative to entry. It is
// observational only: positions are never mutated here (spec.md §4.3).
func (r *RiskEngine) EvaluatePositions(positions []PositionView) {
	r.mu.Lock()
	var total float64
	for _, p := range positions {
		total += p.UnrealizedPnL
	}
	r.sessionPnL = total
	drawdownBreached := r.sessionPnL < -r.maxDrawdownPct
	r.mu.Unlock()

	if drawdownBreached {
		logWarnf("session drawdown exceeds limit: %.1f%%", r.sessionPnL)
	}
	for _, p := range positions {
		if p.EntryPrice <= 0 || p.Quantity <= 0 {
			continue
		}
		pnlPct := (p.UnrealizedPnL / (p.EntryPrice * p.Quantity)) * 100.0
		if pnlPct < -5.0 {
			logWarnf("large loss detected for %s: %.1f%%", p.Asset, pnlPct)
		}
	}
}

// RiskMetrics is a read-only snapshot of session accounting state. It is
// returned by Metrics() only; it is not written to the logs or exported as
// prometheus gauges.
type RiskMetrics struct {
	DailyTradeCount  int
	MaxDailyTrades   int
	SessionPnL       float64
	MaxDrawdownPct   float64
	ActiveCooldowns  int
}

// Metrics returns the current risk accounting snapshot.
func (r *RiskEngine) Metrics() RiskMetrics {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RiskMetrics{
		DailyTradeCount: len(r.dailyTrades),
		MaxDailyTrades:  r.maxDailyTrades,
		SessionPnL:      r.sessionPnL,
		MaxDrawdownPct:  r.maxDrawdownPct,
		ActiveCooldowns: len(r.lastTradeTimes),
	}
}

// SessionPnL returns the current session PnL (used by the control loop for
// status summaries).
func (r *RiskEngine) SessionPnL() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessionPnL
}
