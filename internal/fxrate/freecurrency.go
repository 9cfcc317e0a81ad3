// Package fxrate fetches historical mid-market rates from freecurrencyapi.com.
package fxrate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var (
	ErrUpstreamStatus = errors.New("rate provider returned a non-OK status")
	ErrRateNotFound   = errors.New("rate not present in provider response")
)

type Client struct {
	baseURL    string
	apiKey     string
	quote      string
	httpClient *http.Client
}

// NewClient builds a client quoting every rate in quoteCurrency. apiKey must
// come from configuration; there is no built-in default.
func NewClient(baseURL, apiKey, quoteCurrency string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		quote:      strings.ToUpper(quoteCurrency),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type historicalResponse struct {
	Data map[string]map[string]decimal.Decimal `json:"data"`
}

// MidMarketRate returns how many units of the quote currency one unit of base
// bought on date. Each call goes to the provider; nothing is cached.
func (c *Client) MidMarketRate(ctx context.Context, base, date string) (decimal.Decimal, error) {
	q := url.Values{}
	q.Set("date", date)
	q.Set("base_currency", base)
	q.Set("currencies", c.quote)
	endpoint := c.baseURL + "/v1/historical?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("build rate request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("rate request: %w", err)
	}
	defer resp.Body.Close()

	log.Debug().
		Str("base", base).
		Str("quote", c.quote).
		Str("date", date).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("rate provider response")

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return decimal.Zero, fmt.Errorf("%w: %d", ErrUpstreamStatus, resp.StatusCode)
	}

	var body historicalResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, fmt.Errorf("decode rate response: %w", err)
	}

	rate, ok := body.Data[date][c.quote]
	if !ok || !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s->%s on %s", ErrRateNotFound, base, c.quote, date)
	}
	return rate, nil
}
