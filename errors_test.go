package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExchangeUnreachableUnwraps(t *testing.T) {
	cause := fmt.Errorf("dial tcp: timeout")
	err := error(&ExchangeUnreachable{Cause: cause})

	var unreachable *ExchangeUnreachable
	require.True(t, errors.As(err, &unreachable))
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestPartialExecutionUnwraps(t *testing.T) {
	cause := &ExchangeRejected{Code: "51008", Body: "insufficient balance"}
	err := error(&PartialExecution{EntryID: "ord1", FailedLeg: "stop_loss", Cause: cause})

	var partial *PartialExecution
	require.True(t, errors.As(err, &partial))
	assert.Equal(t, "stop_loss", partial.FailedLeg)

	var rejected *ExchangeRejected
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, "51008", rejected.Code)
}

func TestLedgerConflictMessage(t *testing.T) {
	err := &LedgerConflict{Asset: "BTC"}
	assert.Contains(t, err.Error(), "BTC")
}
