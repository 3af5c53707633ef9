// Package httpclient is the shared rate-limited HTTP client every upstream
// adapter builds on: a plain *http.Client plus a golang.org/x/time/rate
// limiter, configurable per upstream base URL, timeout, and rate limit so
// each upstream is throttled independently.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/relationgraph/core/internal/relerrors"
)

// Config describes one upstream endpoint's transport settings.
type Config struct {
	BaseURL       string
	BearerToken   string
	Timeout       time.Duration
	RateLimitPerS float64
	Burst         int
}

// Client is a rate-limited JSON HTTP client bound to one upstream.
type Client struct {
	base    string
	token   string
	http    *http.Client
	limiter *rate.Limiter
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	burst := cfg.Burst
	if burst == 0 {
		burst = 1
	}
	limit := rate.Limit(cfg.RateLimitPerS)
	if cfg.RateLimitPerS == 0 {
		limit = rate.Inf
	}
	return &Client{
		base:    cfg.BaseURL,
		token:   cfg.BearerToken,
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(limit, burst),
	}
}

// GetJSON issues a rate-limited GET against base+path and decodes the JSON
// body into out. Any query string must already be encoded into path. Each
// call makes a single attempt; failed requests are not retried.
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return relerrors.Timeout("rate limiter wait: %v", err)
		}
		return relerrors.UpstreamError(err, "rate limiter wait failed")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return relerrors.Internal("build request: %v", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return relerrors.Timeout("request to %s: %v", c.base, err)
		}
		return relerrors.UpstreamError(err, "request to %s failed", c.base)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return relerrors.UpstreamError(err, "reading response body from %s", c.base)
	}

	if resp.StatusCode == http.StatusNotFound {
		return relerrors.NotFound("%s returned 404", path)
	}
	if resp.StatusCode >= 400 {
		return relerrors.UpstreamError(fmt.Errorf("status %d: %s", resp.StatusCode, string(body)), "%s returned an error status", c.base)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return relerrors.ParseError(err, "decoding response from %s", c.base)
	}
	return nil
}

// PostJSON issues a rate-limited POST of body against base+path and decodes
// the JSON response into out, mirroring GetJSON's error-mapping rules. Used
// by graphstore/httpbackend for batched upserts.
func (c *Client) PostJSON(ctx context.Context, path string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return relerrors.Timeout("rate limiter wait: %v", err)
		}
		return relerrors.UpstreamError(err, "rate limiter wait failed")
	}

	encoded, err := json.Marshal(body)
	if err != nil {
		return relerrors.Internal("encode request body: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(encoded))
	if err != nil {
		return relerrors.Internal("build request: %v", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return relerrors.Timeout("request to %s: %v", c.base, err)
		}
		return relerrors.UpstreamError(err, "request to %s failed", c.base)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return relerrors.UpstreamError(err, "reading response body from %s", c.base)
	}

	if resp.StatusCode == http.StatusNotFound {
		return relerrors.NotFound("%s returned 404", path)
	}
	if resp.StatusCode >= 400 {
		return relerrors.UpstreamError(fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody)), "%s returned an error status", c.base)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return relerrors.ParseError(err, "decoding response from %s", c.base)
	}
	return nil
}
