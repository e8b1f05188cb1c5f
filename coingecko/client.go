// Package coingecko is a client of the CoinGecko public API: batched simple
// prices, market listings with sparklines, and coin search.
package coingecko

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// DefaultBaseURL is the CoinGecko public API endpoint.
const DefaultBaseURL = "https://api.coingecko.com/api/v3"

// Options configures a Client. Zero values select the defaults.
type Options struct {
	BaseURL       string
	APIKey        string        // demo API key, sent as x-cg-demo-api-key
	Timeout       time.Duration // per request, default 10s
	RatePerMinute int           // default 30, the public API limit
	BatchSize     int           // max ids per simple/price call, default 100
	SearchTTL     time.Duration // search responses cache, 0 disables it
	CacheDir      string        // default os.TempDir()
}

// Client queries the CoinGecko API. It is safe for concurrent use.
type Client struct {
	base      string
	apiKey    string
	batchSize int
	limiter   *rate.Limiter
	http      *http.Client
	search    *http.Client // like http, with a disk cache
}

// New returns a client configured by opts.
func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.RatePerMinute <= 0 {
		opts.RatePerMinute = 30
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}

	c := &Client{
		base:      strings.TrimSuffix(opts.BaseURL, "/"),
		apiKey:    opts.APIKey,
		batchSize: opts.BatchSize,
		limiter:   rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RatePerMinute)), 1),
		http:      &http.Client{Timeout: opts.Timeout, Transport: logged{http.DefaultTransport}},
	}
	c.search = c.http
	if opts.SearchTTL > 0 {
		c.search = &http.Client{
			Timeout:   opts.Timeout,
			Transport: &diskCache{base: c.http.Transport, ttl: opts.SearchTTL, dir: opts.CacheDir},
		}
	}
	return c
}

// logged logs every remote round trip.
type logged struct{ base http.RoundTripper }

func (l logged) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := l.base.RoundTrip(req)
	if err != nil {
		slog.Debug("http request failed", "method", req.Method, "host", req.URL.Host, "path", req.URL.Path, "error", err)
		return nil, err
	}
	slog.Debug("http request", "method", req.Method, "host", req.URL.Host, "path", req.URL.Path,
		"status", resp.StatusCode, "elapsed", time.Since(start))
	return resp, nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	return c.base + path + "?" + query.Encode()
}

// getJSON performs a rate limited GET request and unmarshals the JSON response
// into data.
func (c *Client) getJSON(ctx context.Context, client *http.Client, addr string, data any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.apiKey)
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cannot http GET %v%v: %v", resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return err
	}
	if err := json.Unmarshal(buf.Bytes(), data); err != nil {
		return fmt.Errorf("cannot decode %v%v response: %w", resp.Request.URL.Host, resp.Request.URL.Path, err)
	}
	return nil
}
