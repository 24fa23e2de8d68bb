// FILE: signal_listener.go
// Package main – Signal inbox polling and admission filter (spec.md §4.2).
//
// SignalListener is the sole owner of the inbox file and its watermarks.
// Poll is O(1) on the common no-op case (file unchanged since last read):
// it checks mtime before touching the file contents at all. mtime is
// advisory only — a producer may rewrite the file in place with the same
// mtime granularity — so the payload timestamp is the authoritative
// dedup key.
package main

import (
	"encoding/json"
	"os"
	"time"
)

const signalFreshnessWindow = 15 * time.Second

// SignalListener polls a single JSON file for new, admissible signals.
type SignalListener struct {
	path              string
	lastMtime         time.Time
	lastSeenTimestamp float64
}

// NewSignalListener constructs a listener over the given inbox path.
func NewSignalListener(path string) *SignalListener {
	return &SignalListener{path: path}
}

// Poll returns the next admissible signal, or (nil, nil) if there is none.
// It never returns an I/O or parse error — those are treated as "no signal
// this cycle" per spec.md §4.2 step 3, since a torn or partially-written
// file is expected during the producer's atomic-write window.
func (l *SignalListener) Poll(now time.Time) (*Signal, error) {
	info, err := os.Stat(l.path)
	if err != nil {
		return nil, nil
	}
	mtime := info.ModTime()
	if !mtime.After(l.lastMtime) {
		return nil, nil
	}

	raw, err := os.ReadFile(l.path)
	if err != nil {
		return nil, nil
	}

	var sig Signal
	if err := json.Unmarshal(raw, &sig); err != nil {
		return nil, nil
	}

	// mtime is advisory; update it regardless of what follows so a
	// repeatedly-rewritten-but-stale file doesn't get re-read every cycle.
	l.lastMtime = mtime

	if !sig.valid() {
		return nil, nil
	}
	if sig.Timestamp <= l.lastSeenTimestamp {
		return nil, nil
	}
	age := now.Sub(time.Unix(int64(sig.Timestamp), 0))
	if age > signalFreshnessWindow {
		return nil, nil
	}

	l.lastSeenTimestamp = sig.Timestamp
	return &sig, nil
}
