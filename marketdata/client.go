// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package marketdata fetches daily prices, technical indicators, company fundamentals and
// news sentiment from Alpha Vantage and aggregates them into weekly artifacts.
package marketdata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"

	"github.com/penny-vault/weekperf/common"
	"github.com/penny-vault/weekperf/observability/opentelemetry"
)

const (
	DefaultBaseURL           = "https://www.alphavantage.co/query"
	DefaultTimeout           = 30 * time.Second
	DefaultRequestsPerMinute = 5
	DefaultMaxAttempts       = 3
	DefaultRetryDelay        = 15 * time.Second
)

// Cache stores raw API responses keyed by request
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, val []byte) error
}

// Client is a rate limited Alpha Vantage client
type Client struct {
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	limiter     *rate.Limiter
	cache       Cache
	maxAttempts int
	retryDelay  time.Duration
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient replaces the underlying http client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRateLimit limits the client to requestsPerMinute; zero or less disables limiting
func WithRateLimit(requestsPerMinute int) ClientOption {
	return func(c *Client) {
		if requestsPerMinute <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1)
	}
}

// WithRetry sets the attempt count and the initial backoff delay
func WithRetry(maxAttempts int, baseDelay time.Duration) ClientOption {
	return func(c *Client) {
		c.maxAttempts = maxAttempts
		c.retryDelay = baseDelay
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithCache caches successful responses
func WithCache(cache Cache) ClientOption {
	return func(c *Client) {
		c.cache = cache
	}
}

// NewClient creates a new Alpha Vantage client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		maxAttempts: DefaultMaxAttempts,
		retryDelay:  DefaultRetryDelay,
	}
	WithRateLimit(DefaultRequestsPerMinute)(c)

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// response is the top level JSON object of every Alpha Vantage reply
type response map[string]json.RawMessage

// query performs a rate limited, retried and cached GET for function. The api key is
// never part of the cache key or span attributes.
func (c *Client) query(ctx context.Context, function, symbol string, params url.Values) (response, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "alphavantage.query")
	defer span.End()

	subLog := log.With().Str("Function", function).Str("Symbol", symbol).Logger()

	if params == nil {
		params = url.Values{}
	}
	params.Set("function", function)
	if symbol != "" && params.Get("tickers") == "" {
		params.Set("symbol", symbol)
	}

	encoded := params.Encode()
	span.SetAttributes(opentelemetry.RequestAttributes(function, symbol)...)
	span.SetAttributes(attribute.String("Query", encoded))

	key := common.CacheKey("alphavantage", encoded)
	if c.cache != nil {
		if body, err := c.cache.Get(ctx, key); err == nil {
			resp := response{}
			if err := json.Unmarshal(body, &resp); err == nil {
				subLog.Debug().Msg("serving response from cache")
				span.SetAttributes(attribute.Bool("CacheHit", true))
				return resp, nil
			}
		}
	}

	params.Set("apikey", c.apiKey)
	reqURL := fmt.Sprintf("%s?%s", c.baseURL, params.Encode())

	var resp response
	var body []byte
	attempt := 0
	err := retry(ctx, c.maxAttempts, c.retryDelay, func() error {
		attempt++
		var err error
		body, resp, err = c.do(ctx, reqURL, function, symbol)
		if err != nil {
			subLog.Warn().Err(err).Int("Attempt", attempt).Msg("alpha vantage request failed")
		}
		return err
	})
	if err != nil {
		opentelemetry.Fail(span, err, "alpha vantage request failed")
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, body); err != nil {
			subLog.Warn().Err(err).Msg("could not cache response")
		}
	}

	return resp, nil
}

// do executes one request and classifies the failure as temporary or permanent
func (c *Client) do(ctx context.Context, reqURL, function, symbol string) ([]byte, response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, permanent(fmt.Errorf("rate limit wait: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, nil, permanent(err)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil, permanent(ctx.Err())
		}
		return nil, nil, err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: httpResp.StatusCode, Function: function, Symbol: symbol}
		if apiErr.Temporary() {
			return nil, nil, apiErr
		}
		return nil, nil, permanent(apiErr)
	}

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, nil, err
	}

	resp := response{}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, nil, permanent(fmt.Errorf("could not unmarshal %s response: %w", function, err))
	}

	if len(resp) == 0 {
		return nil, nil, permanent(fmt.Errorf("%w: empty %s response for %s", ErrNoData, function, symbol))
	}

	for _, key := range []string{"Note", "Information"} {
		if raw, ok := resp[key]; ok {
			return nil, nil, fmt.Errorf("%w: %s", ErrRateLimited, message(raw))
		}
	}

	if raw, ok := resp["Error Message"]; ok {
		return nil, nil, permanent(fmt.Errorf("%w: %s", ErrAPIMessage, message(raw)))
	}

	return body, resp, nil
}

// section returns the named member of the response or ErrNoData
func (resp response) section(name string) (json.RawMessage, error) {
	raw, ok := resp[name]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return nil, fmt.Errorf("%w: missing %q", ErrNoData, name)
	}
	return raw, nil
}

func message(raw json.RawMessage) string {
	var msg string
	if err := json.Unmarshal(raw, &msg); err != nil {
		return string(raw)
	}
	return msg
}

// IsRetryable reports whether err came from a condition that clears with time
func IsRetryable(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Temporary()
}
