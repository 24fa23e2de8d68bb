package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dryExecutorConfig() Config {
	return Config{
		Mode:       ModeDry,
		RiskPct:    0.005,
		MinSize:    0.001,
		DryBalance: 10000,
	}
}

func TestExecuteShortDryModeAppliesSlippage(t *testing.T) {
	e := NewOrderExecutor(dryExecutorConfig(), nil)
	sig := Signal{
		Confidence: 0.9,
		BestSignal: BestSignal{Asset: "BTC", EntryPrice: 50000},
	}

	fill, err := e.ExecuteShort(context.Background(), sig, 0.85)
	require.NoError(t, err)
	assert.Equal(t, "simulated_fill", fill.Status)
	assert.Greater(t, fill.EntryPrice, 50000.0) // slippage nudges entry up for a short
	assert.InDelta(t, 50000*1.015, fill.StopLoss, 1e-6)
	assert.InDelta(t, 50000*0.985, fill.TakeProfit1, 1e-6)
	assert.InDelta(t, 50000*0.975, fill.TakeProfit2, 1e-6)
	assert.InDelta(t, 50000*0.965, fill.TakeProfit3, 1e-6)
}

func TestExecuteShortUsesExplicitSignalPrices(t *testing.T) {
	e := NewOrderExecutor(dryExecutorConfig(), nil)
	sl := 51000.0
	tp1 := 49000.0
	sig := Signal{
		Confidence: 0.9,
		BestSignal: BestSignal{Asset: "BTC", EntryPrice: 50000, StopLoss: &sl, TakeProfit1: &tp1},
	}

	fill, err := e.ExecuteShort(context.Background(), sig, 0.85)
	require.NoError(t, err)
	assert.InDelta(t, 51000, fill.StopLoss, 1e-9)
	assert.InDelta(t, 49000, fill.TakeProfit1, 1e-9)
}

func TestPositionSizeRespectsMinSize(t *testing.T) {
	size := positionSize(1000, 0.005, 50000, 0.001)
	// 1000*0.005/50000 = 0.0001, below min_size 0.001
	assert.InDelta(t, 0.001, size, 1e-9)
}

func TestPositionSizeUsesRiskPctWhenAboveMin(t *testing.T) {
	size := positionSize(100000, 0.005, 50000, 0.001)
	// 100000*0.005/50000 = 0.01, above min_size
	assert.InDelta(t, 0.01, size, 1e-9)
}

func TestExecuteShortRecordsExecutionTime(t *testing.T) {
	e := NewOrderExecutor(dryExecutorConfig(), nil)
	sig := Signal{Confidence: 0.9, BestSignal: BestSignal{Asset: "ETH", EntryPrice: 3000}}

	start := time.Now()
	fill, err := e.ExecuteShort(context.Background(), sig, 0.8)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, fill.ExecutionTimeUs, int64(0))
	assert.WithinDuration(t, start, fill.Timestamp, time.Second)
}
