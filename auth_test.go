package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAuthSignerRequiresAllCredentials(t *testing.T) {
	_, err := NewAuthSigner("", "secret", "pass")
	require.Error(t, err)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)

	_, err = NewAuthSigner("key", "", "pass")
	require.Error(t, err)

	_, err = NewAuthSigner("key", "secret", "")
	require.Error(t, err)

	signer, err := NewAuthSigner("key", "secret", "pass")
	require.NoError(t, err)
	require.NotNil(t, signer)
}

func TestSignedHeadersIncludesAllFields(t *testing.T) {
	signer, err := NewAuthSigner("mykey", "bXlzZWNyZXQ=", "mypass")
	require.NoError(t, err)

	headers, err := signer.SignedHeaders("GET", "/api/v5/account/balance", "")
	require.NoError(t, err)

	assert.Equal(t, "mykey", headers["OK-ACCESS-KEY"])
	assert.Equal(t, "mypass", headers["OK-ACCESS-PASSPHRASE"])
	assert.Equal(t, "application/json", headers["Content-Type"])
	assert.NotEmpty(t, headers["OK-ACCESS-SIGN"])
	assert.NotEmpty(t, headers["OK-ACCESS-TIMESTAMP"])
}

func TestSignDiffersByMessage(t *testing.T) {
	signer, err := NewAuthSigner("key", "c2VjcmV0", "pass")
	require.NoError(t, err)

	sigA, err := signer.sign("2026-01-01T00:00:00.000Z", "POST", "/api/v5/trade/order", `{"a":1}`)
	require.NoError(t, err)
	sigB, err := signer.sign("2026-01-01T00:00:00.000Z", "POST", "/api/v5/trade/order", `{"a":2}`)
	require.NoError(t, err)

	assert.NotEqual(t, sigA, sigB)
}

func TestSignNonBase64SecretFallsBackToRawBytes(t *testing.T) {
	signer, err := NewAuthSigner("key", "not-valid-base64!!!", "pass")
	require.NoError(t, err)

	sig, err := signer.sign("2026-01-01T00:00:00.000Z", "GET", "/x", "")
	require.NoError(t, err)
	assert.NotEmpty(t, sig)
}

func TestIsoTimestampMillisFormat(t *testing.T) {
	ts := isoTimestampMillis(time.Date(2026, 3, 5, 12, 30, 45, 123000000, time.UTC))
	assert.Equal(t, "2026-03-05T12:30:45.123Z", ts)
}
