package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSignalFile(t *testing.T, path string, sig Signal) {
	t.Helper()
	bs, err := json.Marshal(sig)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, bs, 0644))
}

func TestSignalListenerAdmitsFreshValidSignal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signal.json")
	now := time.Date(2026, 1, 1, 0, 0, 10, 0, time.UTC)
	writeSignalFile(t, path, Signal{
		Timestamp:  float64(now.Add(-2 * time.Second).Unix()),
		Confidence: 0.9,
		BestSignal: BestSignal{Asset: "BTC", EntryPrice: 50000},
	})

	l := NewSignalListener(path)
	sig, err := l.Poll(now)
	require.NoError(t, err)
	require.NotNil(t, sig)
	assert.Equal(t, "BTC", sig.BestSignal.Asset)
}

func TestSignalListenerRejectsStaleSignal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signal.json")
	now := time.Date(2026, 1, 1, 0, 1, 0, 0, time.UTC)
	writeSignalFile(t, path, Signal{
		Timestamp:  float64(now.Add(-16 * time.Second).Unix()),
		Confidence: 0.9,
		BestSignal: BestSignal{Asset: "BTC", EntryPrice: 50000},
	})

	l := NewSignalListener(path)
	sig, err := l.Poll(now)
	require.NoError(t, err)
	assert.Nil(t, sig)
}

func TestSignalListenerAcceptsAtFreshnessBoundary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signal.json")
	now := time.Date(2026, 1, 1, 0, 1, 0, 0, time.UTC)
	writeSignalFile(t, path, Signal{
		Timestamp:  float64(now.Add(-15 * time.Second).Unix()),
		Confidence: 0.9,
		BestSignal: BestSignal{Asset: "BTC", EntryPrice: 50000},
	})

	l := NewSignalListener(path)
	sig, err := l.Poll(now)
	require.NoError(t, err)
	assert.NotNil(t, sig)
}

func TestSignalListenerRejectsDuplicateTimestamp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signal.json")
	now := time.Date(2026, 1, 1, 0, 0, 10, 0, time.UTC)
	ts := float64(now.Add(-time.Second).Unix())
	writeSignalFile(t, path, Signal{
		Timestamp:  ts,
		Confidence: 0.9,
		BestSignal: BestSignal{Asset: "BTC", EntryPrice: 50000},
	})

	l := NewSignalListener(path)
	first, err := l.Poll(now)
	require.NoError(t, err)
	require.NotNil(t, first)

	// Rewrite with the same timestamp but bump the mtime: must still be
	// rejected as a duplicate since the payload timestamp is authoritative.
	time.Sleep(2 * time.Millisecond)
	writeSignalFile(t, path, Signal{
		Timestamp:  ts,
		Confidence: 0.9,
		BestSignal: BestSignal{Asset: "BTC", EntryPrice: 50000},
	})
	second, err := l.Poll(now.Add(time.Second))
	require.NoError(t, err)
	assert.Nil(t, second)
}

func TestSignalListenerRejectsInvalidStructure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signal.json")
	now := time.Date(2026, 1, 1, 0, 0, 10, 0, time.UTC)
	writeSignalFile(t, path, Signal{
		Timestamp:  float64(now.Unix()),
		Confidence: 1.5, // out of [0,1]
		BestSignal: BestSignal{Asset: "BTC", EntryPrice: 50000},
	})

	l := NewSignalListener(path)
	sig, err := l.Poll(now)
	require.NoError(t, err)
	assert.Nil(t, sig)
}

func TestSignalListenerMissingFileIsNotAnError(t *testing.T) {
	l := NewSignalListener(filepath.Join(t.TempDir(), "does-not-exist.json"))
	sig, err := l.Poll(time.Now())
	require.NoError(t, err)
	assert.Nil(t, sig)
}

func TestSignalListenerCorruptJSONIsNotAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signal.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	l := NewSignalListener(path)
	sig, err := l.Poll(time.Now())
	require.NoError(t, err)
	assert.Nil(t, sig)
}
