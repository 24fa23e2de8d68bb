// FILE: types.go
// Package main – Core data model shared across components (spec.md §3).
//
// Ownership is single-writer per type: the Position Manager exclusively owns
// Trade/TpLevel, the Risk Engine exclusively owns TradeHistory/LastTradeTimes,
// the Feed exclusively owns TickData, and the Listener owns its own
// watermarks. Readers of Feed state get a copy (see feed.go); readers of
// Position state get a PositionView, never a pointer into the ledger.
package main

import "time"

// BestSignal is the nested instrument-level payload of a Signal.
type BestSignal struct {
	Asset       string   `json:"asset"`
	EntryPrice  float64  `json:"entry_price"`
	StopLoss    *float64 `json:"stop_loss,omitempty"`
	TakeProfit1 *float64 `json:"take_profit_1,omitempty"`
	TakeProfit2 *float64 `json:"take_profit_2,omitempty"`
	TakeProfit3 *float64 `json:"take_profit_3,omitempty"`
}

// Signal is the immutable payload the upstream strategy process writes to
// the signal inbox (spec.md §3, §6).
type Signal struct {
	Timestamp             float64     `json:"timestamp"`
	Confidence             float64    `json:"confidence"`
	ProductionValidated   *bool       `json:"production_validated,omitempty"`
	BestSignal            BestSignal  `json:"best_signal"`
}

// valid performs the structural validation spec.md §3 requires before a
// Signal may be admitted further downstream.
func (s *Signal) valid() bool {
	if s.Confidence < 0 || s.Confidence > 1 {
		return false
	}
	if s.BestSignal.Asset == "" {
		return false
	}
	if s.BestSignal.EntryPrice <= 0 {
		return false
	}
	return true
}

// TpLevel is one rung of the take-profit ladder.
type TpLevel struct {
	Price  float64 `json:"price"`
	Size   float64 `json:"size"`
	Filled bool    `json:"filled"`
}

// Trade is the Position Manager's in-memory record of one open or closed
// position. The exchange order id is the preferred stable id; a generated
// UUID is the fallback (spec.md §3).
type Trade struct {
	ID            string
	Asset         string
	Side          string // always "sell" in this system
	EntryPrice    float64
	Quantity      float64
	StopLoss      float64
	TakeProfit    float64 // summary: the fill's TakeProfit1, set at creation and not updated
	TpLevels      []TpLevel
	IsBreakeven   bool
	Status        string // "open" | "closed_<reason>"
	UnrealizedPnL float64
	CreatedAt     time.Time
}

// PositionView is a flat, read-only snapshot of a Trade. Callers never get a
// pointer into the ledger (spec.md §4.5).
type PositionView struct {
	ID            string
	Asset         string
	Side          string
	EntryPrice    float64
	Quantity      float64
	StopLoss      float64
	TakeProfit    float64
	TpLevels      []TpLevel
	IsBreakeven   bool
	Status        string
	UnrealizedPnL float64
	CreatedAt     time.Time
}

func (t *Trade) view() PositionView {
	levels := make([]TpLevel, len(t.TpLevels))
	copy(levels, t.TpLevels)
	return PositionView{
		ID:            t.ID,
		Asset:         t.Asset,
		Side:          t.Side,
		EntryPrice:    t.EntryPrice,
		Quantity:      t.Quantity,
		StopLoss:      t.StopLoss,
		TakeProfit:    t.TakeProfit,
		TpLevels:      levels,
		IsBreakeven:   t.IsBreakeven,
		Status:        t.Status,
		UnrealizedPnL: t.UnrealizedPnL,
		CreatedAt:     t.CreatedAt,
	}
}

// TradeHistoryEntry is an append-only risk-ledger record (spec.md §3).
type TradeHistoryEntry struct {
	Timestamp time.Time
	Asset     string
	PnL       float64
}

// TickData is the Feed's latest per-symbol snapshot (spec.md §3).
type TickData struct {
	Price     float64
	Volume    float64
	Timestamp time.Time
}

// Fill is the Order Executor's normalized result of a bracket submission
// (spec.md §4.4).
type Fill struct {
	OrderID      string
	Asset        string
	Side         string
	Quantity     float64
	EntryPrice   float64
	StopLoss     float64
	TakeProfit1  float64
	TakeProfit2  float64
	TakeProfit3  float64
	Status       string // "filled" | "simulated_fill" | "partial_execution"
	Timestamp    time.Time
	Confidence   float64
	ExecutionTimeUs int64
	Validated    bool
}

// FillRecord is the on-disk shape written to the fills audit log
// (spec.md §6); field names and case are part of the external contract.
type FillRecord struct {
	Timestamp       int64   `json:"timestamp"`
	Asset           string  `json:"asset"`
	Side            string  `json:"side"`
	EntryPrice      float64 `json:"entry_price"`
	Quantity        float64 `json:"quantity"`
	Confidence      float64 `json:"confidence"`
	Mode            string  `json:"mode"`
	Status          string  `json:"status"`
	OrderID         string  `json:"order_id"`
	ExecutionTimeUs int64   `json:"execution_time_us"`
	Validated       *bool   `json:"validated,omitempty"`
}

// RiskCheck is the Risk Engine's verdict on a candidate trade (spec.md §4.3).
type RiskCheck struct {
	Approved           bool
	Reason             string
	AdjustedConfidence float64
}
