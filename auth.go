// FILE: auth.go
// Package main – Exchange request signing (spec.md §4.1).
//
// AuthSigner is stateless after construction: given a method, path, and body
// it produces the timestamp and signature the exchange expects, plus the
// full header set. The same timestamp used to sign is the one sent, so
// callers must use the headers as a unit rather than re-deriving the
// timestamp separately.
package main

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"time"
)

// AuthSigner produces OKX-shaped signed headers (spec.md §6): access key,
// signature, timestamp, passphrase, and Content-Type.
type AuthSigner struct {
	apiKey     string
	secretKey  string // raw secret, base64-decoded at sign time
	passphrase string
}

// NewAuthSigner fails with ConfigError if any credential is empty.
func NewAuthSigner(apiKey, secretKey, passphrase string) (*AuthSigner, error) {
	if apiKey == "" || secretKey == "" || passphrase == "" {
		return nil, &ConfigError{Msg: "OKX credentials must be non-empty (OKX_API_KEY, OKX_SECRET_KEY, OKX_PASSPHRASE)"}
	}
	return &AuthSigner{apiKey: apiKey, secretKey: secretKey, passphrase: passphrase}, nil
}

// SignedHeaders returns the header set for one request. body must be "" for
// GET requests.
func (a *AuthSigner) SignedHeaders(method, path, body string) (map[string]string, error) {
	ts := isoTimestampMillis(time.Now().UTC())
	sig, err := a.sign(ts, method, path, body)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"OK-ACCESS-KEY":        a.apiKey,
		"OK-ACCESS-SIGN":       sig,
		"OK-ACCESS-TIMESTAMP":  ts,
		"OK-ACCESS-PASSPHRASE": a.passphrase,
		"Content-Type":         "application/json",
	}, nil
}

// sign computes Base64(HMAC-SHA256(Base64Decode(secret), ts||method||path||body)).
func (a *AuthSigner) sign(ts, method, path, body string) (string, error) {
	secretBytes, err := base64.StdEncoding.DecodeString(a.secretKey)
	if err != nil {
		// Not every exchange issues base64 secrets; fall back to using the
		// raw secret bytes rather than failing signing outright.
		secretBytes = []byte(a.secretKey)
	}
	message := ts + method + path + body
	mac := hmac.New(sha256.New, secretBytes)
	mac.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

// isoTimestampMillis formats t as ISO-8601 with millisecond precision and a
// trailing Z, the exact form OKX expects in OK-ACCESS-TIMESTAMP.
func isoTimestampMillis(t time.Time) string {
	return t.Format("2006-01-02T15:04:05.000Z")
}
