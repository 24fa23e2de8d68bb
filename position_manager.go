// FILE: position_manager.go
// Package main – Position lifecycle ledger (spec.md §4.5).
//
// PositionManager exclusively owns Trade and TpLevel state. It is driven
// once per control-loop cycle by update_positions(); all mutation happens
// under a single mutex held for the duration of one pass so that readers
// (get_positions/has_position) never observe a torn update.
//
// Grounded on original_source/src/position_manager.rs
// (calculate_pnl_static / should_close_position_static /
// check_take_profit_levels_static / update_trailing_stop_static /
// close_position), translated from its single-threaded async form into a
// mutex-guarded synchronous one, matching this repo's single-task loop
// (spec.md §5).
package main

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// tpLadderRatios are the size ratios of the three take-profit rungs,
// decreasing in size (spec.md §3: sum(tp_levels.size) == quantity, ratios
// 0.5/0.3/0.2).
var tpLadderRatios = [3]float64{0.5, 0.3, 0.2}

// PositionManager is the in-memory ledger of open and closed trades.
type PositionManager struct {
	mu        sync.Mutex
	open      map[string]*Trade
	closed    []*Trade
	prices    map[string]float64
}

// NewPositionManager constructs an empty ledger.
func NewPositionManager() *PositionManager {
	return &PositionManager{
		open:   make(map[string]*Trade),
		closed: make([]*Trade, 0),
		prices: make(map[string]float64),
	}
}

// HasPosition reports whether an open trade exists for asset.
func (m *PositionManager) HasPosition(asset string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.open[asset]
	return ok
}

// AddPosition inserts a new open Trade built from a Fill. It rejects with
// LedgerConflict if a position already exists for the asset (spec.md §4.5,
// at-most-one-open-position-per-asset invariant).
func (m *PositionManager) AddPosition(now time.Time, fill Fill) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.open[fill.Asset]; ok {
		return &LedgerConflict{Asset: fill.Asset}
	}

	id := fill.OrderID
	if id == "" {
		id = uuid.NewString()
	}

	levels := buildTpLadder(fill.EntryPrice, fill.Quantity, fill.TakeProfit1, fill.TakeProfit2, fill.TakeProfit3)

	m.open[fill.Asset] = &Trade{
		ID:          id,
		Asset:       fill.Asset,
		Side:        "sell",
		EntryPrice:  fill.EntryPrice,
		Quantity:    fill.Quantity,
		StopLoss:    fill.StopLoss,
		TakeProfit:  fill.TakeProfit1,
		TpLevels:    levels,
		IsBreakeven: false,
		Status:      "open",
		CreatedAt:   now,
	}
	return nil
}

// buildTpLadder constructs the three TP rungs sorted by decreasing advantage
// for a short (strictly decreasing price), sizes proportioned 50/30/20% of
// quantity (spec.md §3). Explicit TP prices from the signal take precedence
// over the default schedule when provided.
func buildTpLadder(entryPrice, quantity float64, tp1, tp2, tp3 float64) []TpLevel {
	levels := []TpLevel{
		{Price: tp1, Size: quantity * tpLadderRatios[0]},
		{Price: tp2, Size: quantity * tpLadderRatios[1]},
		{Price: tp3, Size: quantity * tpLadderRatios[2]},
	}
	sort.SliceStable(levels, func(i, j int) bool { return levels[i].Price > levels[j].Price })
	return levels
}

// UpdatePositions is driven once per control-loop cycle (spec.md §4.5 step
// 2-3): refresh marks, recompute unrealized PnL, check the stop and the TP
// ladder, promote to breakeven, trail the stop, and close anything marked.
func (m *PositionManager) UpdatePositions(now time.Time, marks map[string]float64) []PositionView {
	m.mu.Lock()
	defer m.mu.Unlock()

	for symbol, px := range marks {
		m.prices[symbol] = px
	}

	var toClose []string
	for asset, trade := range m.open {
		current, ok := m.prices[asset]
		if !ok {
			continue
		}

		trade.UnrealizedPnL = (trade.EntryPrice - current) * trade.Quantity

		if current >= trade.StopLoss {
			toClose = append(toClose, asset)
			continue
		}

		tpHit := false
		for i := range trade.TpLevels {
			lvl := &trade.TpLevels[i]
			if !lvl.Filled && current <= lvl.Price {
				lvl.Filled = true
				tpHit = true
				logInfof("take profit hit for %s: %.2f (size %.6f)", asset, lvl.Price, lvl.Size)
			}
		}

		if tpHit && !trade.IsBreakeven && len(trade.TpLevels) > 0 && trade.TpLevels[0].Filled {
			trade.StopLoss = trade.EntryPrice
			trade.IsBreakeven = true
			logInfof("breakeven promotion for %s: stop_loss=%.2f", asset, trade.StopLoss)
		}

		if trade.IsBreakeven {
			profitDistance := trade.EntryPrice - current
			if profitDistance > 0 {
				trailing := current + profitDistance*0.5
				if trailing < trade.StopLoss {
					trade.StopLoss = trailing
				}
			}
		}
	}

	closedNow := make([]PositionView, 0, len(toClose))
	for _, asset := range toClose {
		m.closeLocked(asset, "stop_triggered")
		closedNow = append(closedNow, m.closed[len(m.closed)-1].view())
	}
	return closedNow
}

func (m *PositionManager) closeLocked(asset, reason string) {
	trade, ok := m.open[asset]
	if !ok {
		return
	}
	current, ok := m.prices[asset]
	if !ok {
		current = trade.EntryPrice
	}
	trade.UnrealizedPnL = (trade.EntryPrice - current) * trade.Quantity
	trade.Status = fmt.Sprintf("closed_%s", reason)
	delete(m.open, asset)
	m.closed = append(m.closed, trade)
	logInfof("position closed for %s (%s): pnl=%.2f", asset, reason, trade.UnrealizedPnL)
}

// ClosePosition force-closes an open position (e.g. for PartialExecution
// clean-up); it is a no-op if no position is open for asset.
func (m *PositionManager) ClosePosition(asset, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeLocked(asset, reason)
}

// GetPositions returns a flat snapshot of every open position.
func (m *PositionManager) GetPositions() []PositionView {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]PositionView, 0, len(m.open))
	for _, t := range m.open {
		out = append(out, t.view())
	}
	return out
}

// ClosedPositions returns a flat snapshot of every closed position recorded
// so far this session.
func (m *PositionManager) ClosedPositions() []PositionView {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]PositionView, 0, len(m.closed))
	for _, t := range m.closed {
		out = append(out, t.view())
	}
	return out
}

// GetTotalPnL sums unrealized PnL across open positions and realized PnL
// across closed positions (spec.md §4.5).
func (m *PositionManager) GetTotalPnL() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total float64
	for _, t := range m.open {
		total += t.UnrealizedPnL
	}
	for _, t := range m.closed {
		total += t.UnrealizedPnL
	}
	return total
}

// OpenCount returns the number of currently open positions.
func (m *PositionManager) OpenCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.open)
}
