// FILE: env.go
// Package main – Environment helpers and .env loading for the execution layer.
//
// This file provides:
//   1) Small helpers to read environment variables with sane defaults
//      (strings, ints, floats, bools).
//   2) loadBotEnv, a thin wrapper around godotenv that loads ./.env and ../.env
//      into the process environment without overriding anything already set.
//
// No component reads the environment after startup (see config.go); everything
// is captured into a Config value once, at boot.
package main

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// --------- Env helpers (used across files) ---------

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getEnvBool(key string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch v {
	case "1", "true", "y", "yes":
		return true
	case "0", "false", "n", "no":
		return false
	default:
		return def
	}
}

func getEnvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getEnvDuration(key string, def int) int {
	return getEnvInt(key, def)
}

// loadBotEnv loads ./.env and ../.env into the process environment. It never
// overrides a variable that is already set, and it's a no-op (not fatal) when
// neither file exists — the process is expected to run from real env vars in
// production.
func loadBotEnv() {
	for _, base := range []string{".", ".."} {
		_ = godotenv.Load(filepath.Join(base, ".env"))
	}
}
