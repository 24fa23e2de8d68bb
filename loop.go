// FILE: loop.go
// Package main – Control loop: the synchronization and latency discipline of
// the system (spec.md §4.7, §5).
//
// One iteration: poll the listener, admit/risk/execute on a signal if one
// arrived, then unconditionally update and evaluate positions, periodically
// log a status summary, and sleep the remainder of the cycle budget. The
// loop is a single cooperative task, matching the teacher's runLive
// structure in live.go but replacing its MA-strategy tick with this
// system's admit->risk->execute->register sequence.
package main

import (
	"context"
	"time"
)

// ControlLoop wires every component together and drives the periodic tick.
type ControlLoop struct {
	cfg      Config
	listener *SignalListener
	risk     *RiskEngine
	executor *OrderExecutor
	positions *PositionManager
	feed     *MarketDataFeed
	fills    *FillsLog

	cycleCount int64
	dryWalk    map[string]float64 // dry-mode deterministic price simulator state
}

// NewControlLoop assembles the loop from its already-constructed components.
func NewControlLoop(cfg Config, listener *SignalListener, risk *RiskEngine, executor *OrderExecutor, positions *PositionManager, feed *MarketDataFeed, fills *FillsLog) *ControlLoop {
	return &ControlLoop{
		cfg:       cfg,
		listener:  listener,
		risk:      risk,
		executor:  executor,
		positions: positions,
		feed:      feed,
		fills:     fills,
		dryWalk:   make(map[string]float64),
	}
}

// Run drives iterations until ctx is cancelled. It uses a monotonic timer and
// saturating subtraction (time.Since floors at the elapsed duration; the
// sleep is simply skipped when an iteration overruns the cycle budget) so a
// missed cycle is never an error (spec.md §5).
func (c *ControlLoop) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		start := time.Now()
		c.tick(ctx, start)
		c.cycleCount++

		if c.cycleCount%int64(c.cfg.StatusEveryNCyc) == 0 {
			c.logStatus()
		}

		elapsed := time.Since(start)
		remaining := c.cfg.CycleDuration - elapsed
		if remaining > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(remaining):
			}
		}
	}
}

func (c *ControlLoop) tick(ctx context.Context, now time.Time) {
	sig, err := c.listener.Poll(now)
	if err != nil {
		// Poll never actually returns an error today, but keep the typed
		// path open so a future stricter listener can surface ValidationError.
		logWarnf("signal listener error: %v", err)
	}
	if sig != nil {
		c.handleSignal(ctx, now, *sig)
	}

	marks := c.currentMarks(now)
	closedNow := c.positions.UpdatePositions(now, marks)
	for _, closed := range closedNow {
		mtxExitReasons.WithLabelValues(closedReason(closed.Status)).Inc()
		c.risk.RecordResult(now, closed.Asset, closed.UnrealizedPnL)
	}

	c.risk.EvaluatePositions(c.positions.GetPositions())
	mtxOpenPositions.Set(float64(c.positions.OpenCount()))
	mtxSessionPnL.Set(c.risk.SessionPnL())
}

func closedReason(status string) string {
	const prefix = "closed_"
	if len(status) > len(prefix) && status[:len(prefix)] == prefix {
		return status[len(prefix):]
	}
	return status
}

func (c *ControlLoop) handleSignal(ctx context.Context, now time.Time, sig Signal) {
	asset := sig.BestSignal.Asset
	mtxSignals.WithLabelValues("admitted").Inc()

	if c.positions.HasPosition(asset) {
		logWarnf("signal for %s dropped: position already open", asset)
		return
	}

	// quantity used for the position-value check is computed against the
	// configured dry balance / risk_pct; the executor recomputes the same
	// figure against the live balance before submission, so the two can
	// diverge slightly in live mode without affecting correctness (the risk
	// gate is conservative by construction since balances rarely shrink
	// between the check and the live balance fetch).
	estQuantity := positionSize(c.cfg.DryBalance, c.cfg.RiskPct, sig.BestSignal.EntryPrice, c.cfg.MinSize)

	check := c.risk.ValidateTrade(now, asset, sig.BestSignal.EntryPrice, estQuantity, sig.Confidence)
	if !check.Approved {
		logWarnf("risk rejected %s: %s", asset, check.Reason)
		mtxRiskRejections.WithLabelValues(riskReasonBucket(check.Reason)).Inc()
		return
	}

	fill, err := c.executor.ExecuteShort(ctx, sig, check.AdjustedConfidence)
	if err != nil {
		c.handleExecutionError(now, sig, err)
		return
	}

	if err := c.positions.AddPosition(now, fill); err != nil {
		logErrorf("failed to register position for %s after fill %s: %v", asset, fill.OrderID, err)
		return
	}

	mtxOrders.WithLabelValues(string(c.cfg.Mode), fill.Status).Inc()
	c.appendFill(now, sig, fill)
}

func (c *ControlLoop) handleExecutionError(now time.Time, sig Signal, err error) {
	asset := sig.BestSignal.Asset
	var partial *PartialExecution
	if pe, ok := err.(*PartialExecution); ok {
		partial = pe
	}
	if partial != nil {
		// Entry filled but a bracket leg failed: register the unprotected
		// position anyway so later cycles can observe and close it
		// (spec.md §7).
		logErrorf("partial execution for %s: %v", asset, partial)
		fill := Fill{
			OrderID:    partial.EntryID,
			Asset:      asset,
			Side:       "sell",
			EntryPrice: sig.BestSignal.EntryPrice,
			Status:     "partial_execution",
			Timestamp:  now,
		}
		if addErr := c.positions.AddPosition(now, fill); addErr != nil {
			logErrorf("failed to register partial-execution position for %s: %v", asset, addErr)
		}
		mtxOrders.WithLabelValues(string(c.cfg.Mode), "partial_execution").Inc()
		return
	}
	logErrorf("execution failed for %s: %v", asset, err)
	mtxOrders.WithLabelValues(string(c.cfg.Mode), "failed").Inc()
}

func (c *ControlLoop) appendFill(now time.Time, sig Signal, fill Fill) {
	rec := FillRecord{
		Timestamp:       now.Unix(),
		Asset:           fill.Asset,
		Side:            fill.Side,
		EntryPrice:      fill.EntryPrice,
		Quantity:        fill.Quantity,
		Confidence:      fill.Confidence,
		Mode:            string(c.cfg.Mode),
		Status:          fill.Status,
		OrderID:         fill.OrderID,
		ExecutionTimeUs: fill.ExecutionTimeUs,
	}
	if sig.ProductionValidated != nil && *sig.ProductionValidated {
		v := true
		rec.Validated = &v
	}
	if err := c.fills.Append(rec); err != nil {
		logWarnf("fills log append failed: %v", err)
	}
}

// currentMarks pulls a price snapshot from the Feed; in dry mode, or for any
// symbol the Feed hasn't ticked yet, it falls back to a deterministic
// simulator keyed off the open position's entry price (spec.md §4.5 step 1).
func (c *ControlLoop) currentMarks(now time.Time) map[string]float64 {
	marks := make(map[string]float64)
	for _, pos := range c.positions.GetPositions() {
		if tick, ok := c.feed.Snapshot(pos.Asset); ok && c.cfg.Mode == ModeLive {
			marks[pos.Asset] = tick.Price
			continue
		}
		marks[pos.Asset] = c.simulatedPrice(pos.Asset, pos.EntryPrice)
	}
	return marks
}

// simulatedPrice is a deterministic walk: each call moves the asset's
// tracked price down by 2 bp of entry on even cycles and up by 1 bp of entry
// on odd cycles, so repeated runs with the same inputs produce
// the same sequence (spec.md: "a deterministic simulator in dry mode").
func (c *ControlLoop) simulatedPrice(asset string, entryPrice float64) float64 {
	cur, ok := c.dryWalk[asset]
	if !ok {
		cur = entryPrice
	}
	step := entryPrice * 0.0002
	if c.cycleCount%2 == 0 {
		cur -= step
	} else {
		cur += step * 0.5
	}
	c.dryWalk[asset] = cur
	return cur
}

func riskReasonBucket(reason string) string {
	switch {
	case containsFold(reason, "volatility-adjusted"):
		return "volatility_adjusted"
	case containsFold(reason, "confidence"):
		return "confidence"
	case containsFold(reason, "daily trade limit"):
		return "daily_cap"
	case containsFold(reason, "drawdown"):
		return "drawdown"
	case containsFold(reason, "cooldown"):
		return "cooldown"
	case containsFold(reason, "position value"):
		return "position_value"
	case containsFold(reason, "per-asset"):
		return "per_asset_cap"
	default:
		return "other"
	}
}

func (c *ControlLoop) logStatus() {
	logInfof("status: cycle=%d open_positions=%d session_pnl=%.2f total_pnl=%.2f",
		c.cycleCount, c.positions.OpenCount(), c.risk.SessionPnL(), c.positions.GetTotalPnL())
}
