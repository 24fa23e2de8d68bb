// FILE: logging.go
// Package main – Thin wrappers around the standard logger.
//
// Matches the bracketed-level convention already used throughout this
// codebase ("[INFO] ...", "[WARN] ...") rather than introducing a
// structured logging dependency for a handful of call sites.
package main

import "log"

func logInfof(format string, args ...any) {
	log.Printf("[INFO] "+format, args...)
}

func logWarnf(format string, args ...any) {
	log.Printf("[WARN] "+format, args...)
}

func logErrorf(format string, args ...any) {
	log.Printf("[ERROR] "+format, args...)
}
