// FILE: executor.go
// Package main – Bracketed short execution (spec.md §4.4).
//
// OrderExecutor builds the three-legged bracket (entry, stop-loss,
// take-profit ladder) and submits it against ExchangeClient in live mode, or
// synthesizes a plausible fill in dry mode. Client-order-ids make entry
// retries idempotent from the exchange's perspective (spec.md §4.4).
//
// TP ladder schedule: 0.985/0.975/0.965 off entry (not the 0.99/0.98/0.97
// variant also present in the retrieved source) — this is the schedule
// spec.md's own worked example is built from (see DESIGN.md Open Question
// (a)).
package main

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	defaultMinSize = 0.001
)

// OrderExecutor turns an admitted Signal into a Fill.
type OrderExecutor struct {
	cfg    Config
	client *ExchangeClient // nil in dry mode
}

// NewOrderExecutor builds an executor. client may be nil; it must be nil iff
// cfg.Mode == ModeDry.
func NewOrderExecutor(cfg Config, client *ExchangeClient) *OrderExecutor {
	return &OrderExecutor{cfg: cfg, client: client}
}

// ExecuteShort places (or simulates) the bracket for sig and returns the
// resulting Fill.
func (e *OrderExecutor) ExecuteShort(ctx context.Context, sig Signal, adjustedConfidence float64) (Fill, error) {
	start := time.Now()

	asset := sig.BestSignal.Asset
	entryPrice := sig.BestSignal.EntryPrice
	stopLoss := derefOr(sig.BestSignal.StopLoss, entryPrice*1.015)
	tp1 := derefOr(sig.BestSignal.TakeProfit1, entryPrice*0.985)
	tp2 := derefOr(sig.BestSignal.TakeProfit2, entryPrice*0.975)
	tp3 := derefOr(sig.BestSignal.TakeProfit3, entryPrice*0.965)

	if e.cfg.Mode == ModeDry {
		return e.executeDry(asset, entryPrice, stopLoss, tp1, tp2, tp3, adjustedConfidence, start), nil
	}
	return e.executeLive(ctx, asset, entryPrice, stopLoss, tp1, tp2, tp3, adjustedConfidence, start)
}

func derefOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

// executeDry short-circuits steps 2 onward of spec.md §4.4: no broker calls,
// a basis-point slippage model on entry, and a UUID order id.
func (e *OrderExecutor) executeDry(asset string, entryPrice, stopLoss, tp1, tp2, tp3, confidence float64, start time.Time) Fill {
	const slippageFactor = 1e-4
	actualEntry := entryPrice + entryPrice*slippageFactor

	balance := e.cfg.DryBalance
	quantity := positionSize(balance, e.cfg.RiskPct, actualEntry, e.cfg.MinSize)

	orderID := "sim_" + uuid.NewString()
	logInfof("dry-run intent: short %s qty=%.6f entry=%.2f sl=%.2f tp=[%.2f %.2f %.2f]", asset, quantity, actualEntry, stopLoss, tp1, tp2, tp3)

	return Fill{
		OrderID:         orderID,
		Asset:           asset,
		Side:            "sell",
		Quantity:        quantity,
		EntryPrice:      actualEntry,
		StopLoss:        stopLoss,
		TakeProfit1:     tp1,
		TakeProfit2:     tp2,
		TakeProfit3:     tp3,
		Status:          "simulated_fill",
		Timestamp:       start,
		Confidence:      confidence,
		ExecutionTimeUs: time.Since(start).Microseconds(),
	}
}

// positionSize implements spec.md §4.4 step 2:
// max(min_size, balance*risk_pct/entry_price).
func positionSize(balance, riskPct, entryPrice, minSize float64) float64 {
	if minSize <= 0 {
		minSize = defaultMinSize
	}
	size := balance * riskPct / entryPrice
	if size < minSize {
		return minSize
	}
	return size
}

const bracketSettleDwell = 200 * time.Millisecond

// executeLive implements spec.md §4.4 steps 2-6 against the live exchange.
func (e *OrderExecutor) executeLive(ctx context.Context, asset string, entryPrice, stopLoss, tp1, tp2, tp3, confidence float64, start time.Time) (Fill, error) {
	balance, err := e.client.GetBalance(ctx)
	if err != nil {
		return Fill{}, err
	}
	quantity := positionSize(balance, e.cfg.RiskPct, entryPrice, e.cfg.MinSize)
	instrument := asset + "-USDT"

	entryBody := map[string]any{
		"instId":  instrument,
		"tdMode":  "cross",
		"side":    "sell",
		"ordType": "market",
		"sz":      fmtQty(quantity),
		"clOrdId": "hft_short_" + shortUUID(),
	}
	entryOrderID, err := e.client.PlaceOrder(ctx, entryBody, true)
	if err != nil {
		return Fill{}, err
	}

	select {
	case <-ctx.Done():
		return Fill{}, ctx.Err()
	case <-time.After(bracketSettleDwell):
	}

	slTrigger := stopLoss
	slLimit := stopLoss * 1.001 // 0.1% offset from trigger, per spec.md §4.4 step 5
	slBody := map[string]any{
		"instId":      instrument,
		"tdMode":      "cross",
		"side":        "buy",
		"ordType":     "conditional",
		"sz":          fmtQty(quantity),
		"slTriggerPx": fmtQty(slTrigger),
		"slOrdPx":     fmtQty(slLimit),
		"clOrdId":     "sl_" + shortUUID(),
	}
	if _, err := e.client.PlaceOrder(ctx, slBody, false); err != nil {
		return Fill{}, &PartialExecution{EntryID: entryOrderID, FailedLeg: "stop_loss", Cause: err}
	}

	tpSizes := [3]float64{quantity * 0.5, quantity * 0.3, quantity * 0.2}
	tpPrices := [3]float64{tp1, tp2, tp3}
	for i := 0; i < 3; i++ {
		tpBody := map[string]any{
			"instId":  instrument,
			"tdMode":  "cross",
			"side":    "buy",
			"ordType": "limit",
			"sz":      fmtQty(tpSizes[i]),
			"px":      fmtQty(tpPrices[i]),
			"clOrdId": "tp" + itoa(i+1) + "_" + shortUUID(),
		}
		if _, err := e.client.PlaceOrder(ctx, tpBody, false); err != nil {
			return Fill{}, &PartialExecution{EntryID: entryOrderID, FailedLeg: "take_profit_" + itoa(i+1), Cause: err}
		}
	}

	return Fill{
		OrderID:         entryOrderID,
		Asset:           asset,
		Side:            "sell",
		Quantity:        quantity,
		EntryPrice:      entryPrice,
		StopLoss:        stopLoss,
		TakeProfit1:     tp1,
		TakeProfit2:     tp2,
		TakeProfit3:     tp3,
		Status:          "filled",
		Timestamp:       start,
		Confidence:      confidence,
		ExecutionTimeUs: time.Since(start).Microseconds(),
	}, nil
}

func shortUUID() string { return uuid.NewString() }

func fmtQty(f float64) string {
	return trimTrailingZeros(f)
}
