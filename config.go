// FILE: config.go
// Package main – Runtime configuration model and loader.
//
// Config is the single source of truth for every tunable in the system. It is
// built once in main() from environment variables (see env.go), and each
// component's constructor receives either the Config value or the fields of
// it that component needs; no component reads the
// environment again after boot (design note in spec.md: replace global
// process flags with an explicit configuration struct passed at
// construction).
package main

import "time"

// Mode selects whether the executor submits real orders or synthesizes fills.
type Mode string

const (
	ModeDry  Mode = "dry"
	ModeLive Mode = "live"
)

// Config holds all runtime knobs for the execution layer.
type Config struct {
	Mode Mode

	// Exchange credentials (live mode only).
	OKXAPIKey     string
	OKXSecretKey  string
	OKXPassphrase string
	OKXTestnet    bool
	OKXAPIBase    string
	OKXWSPublic   string

	// File-based IPC contracts (spec.md §6).
	SignalFile  string
	FillsFile   string
	MetricsFile string

	// Risk Engine thresholds (spec.md §4.3).
	MinConfidence    float64
	MaxDailyTrades   int
	PerAssetDailyCap int
	MaxDrawdownPct   float64
	CooldownMinutes  float64
	MaxPositionValue float64
	MaxOpenPositions int

	// Order Executor (spec.md §4.4, §9).
	RiskPct          float64 // fraction of balance risked per trade
	MinSize          float64
	DryBalance       float64 // account balance used in dry mode
	ExecutionTimeout time.Duration

	// Control Loop cadence.
	CycleDuration   time.Duration
	StatusEveryNCyc int

	// Feed.
	FeedSymbols []string

	// Ops surface.
	Port int
}

// loadConfigFromEnv reads the process env (already hydrated by loadBotEnv())
// and returns a Config with sane defaults if keys are missing.
func loadConfigFromEnv() Config {
	mode := Mode(getEnv("MODE", string(ModeDry)))
	if mode != ModeLive {
		mode = ModeDry
	}
	testnet := getEnvBool("OKX_TESTNET", false)

	return Config{
		Mode: mode,

		OKXAPIKey:     getEnv("OKX_API_KEY", ""),
		OKXSecretKey:  getEnv("OKX_SECRET_KEY", ""),
		OKXPassphrase: getEnv("OKX_PASSPHRASE", ""),
		OKXTestnet:    testnet,
		OKXAPIBase:    getEnv("OKX_API_BASE", "https://www.okx.com"),
		OKXWSPublic:   getEnv("OKX_WS_PUBLIC", "wss://ws.okx.com:8443/ws/v5/public"),

		SignalFile:  getEnv("SIGNAL_FILE", "/tmp/signal.json"),
		FillsFile:   getEnv("FILLS_FILE", "/tmp/fills.json"),
		MetricsFile: getEnv("METRICS_FILE", "/tmp/rust_metrics.json"),

		MinConfidence:    getEnvFloat("MIN_CONFIDENCE", 0.75),
		MaxDailyTrades:   getEnvInt("MAX_DAILY_TRADES", 10),
		PerAssetDailyCap: getEnvInt("PER_ASSET_DAILY_CAP", 3),
		MaxDrawdownPct:   getEnvFloat("MAX_DRAWDOWN_PCT", 3.0),
		CooldownMinutes:  getEnvFloat("COOLDOWN_MINUTES", 15.0),
		MaxPositionValue: getEnvFloat("MAX_POSITION_VALUE", 20000.0),
		MaxOpenPositions: getEnvInt("MAX_OPEN_POSITIONS", 3),

		RiskPct:          getEnvFloat("RISK_PCT", 0.005),
		MinSize:          getEnvFloat("MIN_SIZE", 0.001),
		DryBalance:       getEnvFloat("DRY_BALANCE", 10000.0),
		ExecutionTimeout: time.Duration(getEnvInt("EXECUTION_TIMEOUT_MS", 3000)) * time.Millisecond,

		CycleDuration:   time.Duration(getEnvInt("CYCLE_MICROS", 1000)) * time.Microsecond,
		StatusEveryNCyc: getEnvInt("STATUS_EVERY_N_CYCLES", 60),

		FeedSymbols: []string{"BTC-USDT", "ETH-USDT", "SOL-USDT"},

		Port: getEnvInt("PORT", 8080),
	}
}

// volatilityFactor returns the per-asset confidence-adjustment factor used by
// the Risk Engine (spec.md §4.3).
func volatilityFactor(asset string) float64 {
	switch asset {
	case "BTC":
		return 0.95
	case "ETH":
		return 0.90
	case "SOL":
		return 0.85
	default:
		return 0.80
	}
}
