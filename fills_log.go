// FILE: fills_log.go
// Package main – Append-only fills audit log (spec.md §6).
//
// FillsLog maintains a bounded JSON array on disk: writes are atomic
// (temp-file + rename, same idiom as the teacher's saveStateFrom in
// trader.go) and the array is truncated — oldest 500 dropped in one
// rewrite — once it exceeds 1000 entries, so the file never grows without
// bound.
package main

import (
	"encoding/json"
	"os"
	"sync"
)

const (
	fillsLogMaxLen   = 1000
	fillsLogTrimTo   = 500 // oldest entries dropped in one rewrite past fillsLogMaxLen
)

// FillsLog is the sole writer of the fills audit file.
type FillsLog struct {
	mu   sync.Mutex
	path string
}

// NewFillsLog constructs a FillsLog over path. It does not read the
// existing file eagerly; Append loads-append-writes each call, which is
// acceptable at this log's bounded size and the system's order-of-seconds
// trade cadence.
func NewFillsLog(path string) *FillsLog {
	return &FillsLog{path: path}
}

// Append adds rec to the log, pruning to the oldest-500-dropped rule when
// the log exceeds 1000 entries. On any I/O error it returns IoError and
// leaves the on-disk file untouched (the temp file is discarded) — callers
// log and continue per spec.md §7.
func (f *FillsLog) Append(rec FillRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	records, err := f.readLocked()
	if err != nil {
		return err
	}

	records = append(records, rec)
	if len(records) > fillsLogMaxLen {
		records = records[fillsLogTrimTo:]
	}

	return f.writeLocked(records)
}

func (f *FillsLog) readLocked() ([]FillRecord, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []FillRecord{}, nil
		}
		return nil, &IoError{Op: "read fills log", Cause: err}
	}
	if len(raw) == 0 {
		return []FillRecord{}, nil
	}
	var records []FillRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		// A torn or corrupted file is recreated from [] rather than treated
		// as fatal (spec.md §7: "the next write will either succeed or the
		// file will be recreated from []").
		return []FillRecord{}, nil
	}
	return records, nil
}

func (f *FillsLog) writeLocked(records []FillRecord) error {
	bs, err := json.Marshal(records)
	if err != nil {
		return &IoError{Op: "marshal fills log", Cause: err}
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, bs, 0644); err != nil {
		_ = os.Remove(tmp)
		return &IoError{Op: "write fills log", Cause: err}
	}
	if err := os.Rename(tmp, f.path); err != nil {
		_ = os.Remove(tmp)
		return &IoError{Op: "rename fills log", Cause: err}
	}
	return nil
}

// Len returns the current number of entries on disk (used by tests).
func (f *FillsLog) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	records, err := f.readLocked()
	if err != nil {
		return 0
	}
	return len(records)
}
