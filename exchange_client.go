// FILE: exchange_client.go
// Package main – Signed REST client for the exchange surface (spec.md §6).
//
// ExchangeClient wraps the handful of endpoints the Order Executor needs:
// POST /api/v5/trade/order and GET /api/v5/account/balance. Every order
// submission goes through a sony/gobreaker CircuitBreaker (grounded on
// abdoElHodaky-tradSys and ajitpratap0-cryptofunk, both of which wrap
// outbound exchange calls the same way) so five consecutive failed order
// calls trip the breaker instead of hammering a downed endpoint; the balance
// lookup does not go through the breaker. The entry-order submission on top
// of that applies its own bounded exponential backoff (spec.md §4.4).
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

// ExchangeClient is the thin signed-REST surface the Order Executor drives.
type ExchangeClient struct {
	base   string
	signer *AuthSigner
	hc     *http.Client
	cb     *gobreaker.CircuitBreaker
}

// NewExchangeClient builds a client against apiBase, signing every request
// with signer.
func NewExchangeClient(apiBase string, signer *AuthSigner, timeout time.Duration) *ExchangeClient {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "exchange",
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &ExchangeClient{
		base:   strings.TrimRight(apiBase, "/"),
		signer: signer,
		hc:     &http.Client{Timeout: timeout},
		cb:     cb,
	}
}

type okxOrderResponse struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Data []struct {
		OrdID string `json:"ordId"`
		SCode string `json:"sCode"`
		SMsg  string `json:"sMsg"`
	} `json:"data"`
}

// PlaceOrder submits a single order (entry, stop-loss conditional, or TP
// limit) and returns the exchange order id. It is the retried leg for entry
// orders (spec.md §4.4: bounded exponential backoff, base 100ms, cap 2s, max
// 3 attempts, retrying on 5xx and 429) and a single-shot call for bracket
// legs (which surface failure as PartialExecution instead).
func (c *ExchangeClient) PlaceOrder(ctx context.Context, body map[string]any, retry bool) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal order body: %w", err)
	}

	const path = "/api/v5/trade/order"
	attempts := 1
	if retry {
		attempts = 3
	}

	var lastErr error
	backoff := 100 * time.Millisecond
	const backoffCap = 2 * time.Second

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > backoffCap {
				backoff = backoffCap
			}
		}

		ordID, retryable, err := c.doPlaceOrder(ctx, path, string(payload))
		if err == nil {
			return ordID, nil
		}
		lastErr = err
		if !retryable {
			return "", err
		}
	}
	return "", lastErr
}

// doPlaceOrder issues one signed POST and classifies the outcome: the bool
// return is true when the failure is retryable (5xx, 429, or transport
// error), matching spec.md §4.4's retry policy.
func (c *ExchangeClient) doPlaceOrder(ctx context.Context, path, body string) (string, bool, error) {
	result, err := c.cb.Execute(func() (any, error) {
		headers, err := c.signer.SignedHeaders(http.MethodPost, path, body)
		if err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader([]byte(body)))
		if err != nil {
			return nil, err
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		res, err := c.hc.Do(req)
		if err != nil {
			return nil, &ExchangeUnreachable{Cause: err}
		}
		defer res.Body.Close()

		raw, _ := io.ReadAll(res.Body)

		if res.StatusCode == 429 || res.StatusCode >= 500 {
			return nil, &ExchangeUnreachable{Cause: fmt.Errorf("http %d: %s", res.StatusCode, string(raw))}
		}

		var parsed okxOrderResponse
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return nil, &MalformedExchangeResponse{Detail: fmt.Sprintf("non-JSON response: %v", err)}
		}
		if parsed.Code != "0" {
			return nil, &ExchangeRejected{Code: parsed.Code, Body: string(raw)}
		}
		if len(parsed.Data) == 0 || parsed.Data[0].OrdID == "" {
			return nil, &MalformedExchangeResponse{Detail: "missing data[0].ordId"}
		}
		return parsed.Data[0].OrdID, nil
	})
	if err != nil {
		var unreachable *ExchangeUnreachable
		retryable := false
		if asExchangeUnreachable(err, &unreachable) {
			retryable = true
		}
		return "", retryable, err
	}
	return result.(string), false, nil
}

func asExchangeUnreachable(err error, target **ExchangeUnreachable) bool {
	if u, ok := err.(*ExchangeUnreachable); ok {
		*target = u
		return true
	}
	return false
}

type okxBalanceResponse struct {
	Code string `json:"code"`
	Data []struct {
		Details []struct {
			Ccy string `json:"ccy"`
			Eq  string `json:"eq"`
		} `json:"details"`
	} `json:"data"`
}

// GetBalance fetches the USDT equity from GET /api/v5/account/balance
// (spec.md §6).
func (c *ExchangeClient) GetBalance(ctx context.Context) (float64, error) {
	const path = "/api/v5/account/balance"
	headers, err := c.signer.SignedHeaders(http.MethodGet, path, "")
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return 0, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	res, err := c.hc.Do(req)
	if err != nil {
		return 0, &ExchangeUnreachable{Cause: err}
	}
	defer res.Body.Close()
	raw, _ := io.ReadAll(res.Body)

	var parsed okxBalanceResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return 0, &MalformedExchangeResponse{Detail: fmt.Sprintf("non-JSON balance response: %v", err)}
	}
	if parsed.Code != "0" {
		return 0, &ExchangeRejected{Code: parsed.Code, Body: string(raw)}
	}
	for _, d := range parsed.Data {
		for _, det := range d.Details {
			if det.Ccy == "USDT" {
				v, err := strconv.ParseFloat(det.Eq, 64)
				if err != nil {
					return 0, &MalformedExchangeResponse{Detail: "non-numeric eq field"}
				}
				return v, nil
			}
		}
	}
	return 0, &MalformedExchangeResponse{Detail: "no USDT entry in balance details"}
}
