// FILE: feed.go
// Package main – Market data feed (spec.md §4.6).
//
// MarketDataFeed owns a symbol -> TickData snapshot behind a single mutex,
// held only for the duration of a read-and-clone or a bulk update (spec.md
// §5). It runs as one long-lived background task; on any stream error it
// sleeps 5s and reconnects, with is_running as the sole stop condition.
//
// Uses github.com/gorilla/websocket (grounded on abdoElHodaky-tradSys,
// ajitpratap0-cryptofunk, poorman-SynapseStrike, ChoSanghyuk-blackholedex —
// all four import it directly for exchange/stream connections) since the
// teacher itself never talks to a streaming venue.
package main

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const feedReconnectDelay = 5 * time.Second

// FeedHealth is the derived freshness view spec.md §4.6 describes.
type FeedHealth struct {
	Status         string // "healthy" | "degraded"
	LastUpdate     time.Time
	LatencySeconds float64
}

// MarketDataFeed maintains the latest tick per symbol from a streaming
// ticker subscription.
type MarketDataFeed struct {
	wsURL   string
	symbols []string

	mu        sync.Mutex
	ticks     map[string]TickData
	isRunning bool

	totalTicks int64
}

// NewMarketDataFeed builds a feed for the given websocket endpoint and
// symbol list (spec.md §4.6: at minimum BTC/ETH/SOL-USDT).
func NewMarketDataFeed(wsURL string, symbols []string) *MarketDataFeed {
	return &MarketDataFeed{
		wsURL:     wsURL,
		symbols:   symbols,
		ticks:     make(map[string]TickData),
		isRunning: true,
	}
}

// Stop clears is_running, the sole condition the reconnect loop checks.
func (f *MarketDataFeed) Stop() {
	f.mu.Lock()
	f.isRunning = false
	f.mu.Unlock()
}

func (f *MarketDataFeed) running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.isRunning
}

// Run drives the subscribe/read/reconnect loop until ctx is done or Stop is
// called. It is meant to run as one background goroutine for the process
// lifetime (spec.md §5: "one long-lived background task runs the
// market-data stream").
func (f *MarketDataFeed) Run(ctx context.Context) {
	for f.running() {
		if ctx.Err() != nil {
			return
		}
		if err := f.runOnce(ctx); err != nil {
			logWarnf("market data stream error: %v; reconnecting in %s", err, feedReconnectDelay)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(feedReconnectDelay):
		}
	}
}

type subscribeArg struct {
	Channel string `json:"channel"`
	InstID  string `json:"instId"`
}

type subscribeEnvelope struct {
	Op   string         `json:"op"`
	Args []subscribeArg `json:"args"`
}

type tickerUpdate struct {
	Data []struct {
		InstID string `json:"instId"`
		Last   string `json:"last"`
		Vol24h string `json:"vol24h"`
	} `json:"data"`
}

func (f *MarketDataFeed) runOnce(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, f.wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	args := make([]subscribeArg, 0, len(f.symbols))
	for _, sym := range f.symbols {
		args = append(args, subscribeArg{Channel: "tickers", InstID: sym})
	}
	if err := conn.WriteJSON(subscribeEnvelope{Op: "subscribe", Args: args}); err != nil {
		return err
	}

	for f.running() {
		if ctx.Err() != nil {
			return nil
		}
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var upd tickerUpdate
		if err := json.Unmarshal(raw, &upd); err != nil {
			continue // malformed/control frame; not a stream error
		}
		f.applyUpdate(upd, time.Now())
	}
	return nil
}

func (f *MarketDataFeed) applyUpdate(upd tickerUpdate, now time.Time) {
	if len(upd.Data) == 0 {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range upd.Data {
		price := parseFloatOr(d.Last, 0)
		volume := parseFloatOr(d.Vol24h, 0)
		if price <= 0 {
			continue
		}
		symbol := stripUSDTSuffix(d.InstID)
		f.ticks[symbol] = TickData{Price: price, Volume: volume, Timestamp: now}
		f.totalTicks++
		mtxTicks.Inc()
	}
}

// Snapshot returns a copy of the current tick for symbol, if any.
func (f *MarketDataFeed) Snapshot(symbol string) (TickData, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.ticks[symbol]
	return t, ok
}

// SnapshotAll returns a copy of the entire tick map.
func (f *MarketDataFeed) SnapshotAll() map[string]TickData {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]TickData, len(f.ticks))
	for k, v := range f.ticks {
		out[k] = v
	}
	return out
}

// Health derives {status, last_update, latency_seconds} by comparing the
// freshest tick to now (spec.md §4.6: healthy if <30s, else degraded).
func (f *MarketDataFeed) Health(now time.Time) FeedHealth {
	f.mu.Lock()
	var freshest time.Time
	for _, t := range f.ticks {
		if t.Timestamp.After(freshest) {
			freshest = t.Timestamp
		}
	}
	f.mu.Unlock()

	if freshest.IsZero() {
		return FeedHealth{Status: "degraded", LastUpdate: freshest, LatencySeconds: -1}
	}
	latency := now.Sub(freshest).Seconds()
	status := "healthy"
	if latency >= 30 {
		status = "degraded"
	}
	return FeedHealth{Status: status, LastUpdate: freshest, LatencySeconds: latency}
}

// TotalTicks returns the running tick counter (for the metrics snapshot).
func (f *MarketDataFeed) TotalTicks() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.totalTicks
}

// ActiveSymbols returns the set of symbols with at least one tick.
func (f *MarketDataFeed) ActiveSymbols() map[string]struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]struct{}, len(f.ticks))
	for k := range f.ticks {
		out[k] = struct{}{}
	}
	return out
}

func stripUSDTSuffix(instID string) string {
	const suffix = "-USDT"
	if len(instID) > len(suffix) && instID[len(instID)-len(suffix):] == suffix {
		return instID[:len(instID)-len(suffix)]
	}
	return instID
}

func parseFloatOr(s string, def float64) float64 {
	v, err := parseFloatStrict(s)
	if err != nil {
		return def
	}
	return v
}
