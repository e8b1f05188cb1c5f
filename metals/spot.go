package metals

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"
)

// DefaultBaseURL is the public spot price API.
const DefaultBaseURL = "https://api.gold-api.com"

// Spot quotes metal spot prices in USD per troy ounce. It implements
// portfolio.PriceSource.
type Spot struct {
	base   string
	path   string // JSONPath to the price in the response
	client *http.Client
}

// NewSpot returns a spot source querying base, "" for DefaultBaseURL.
func NewSpot(base string, timeout time.Duration) *Spot {
	if base == "" {
		base = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Spot{
		base:   strings.TrimSuffix(base, "/"),
		path:   "$.price",
		client: &http.Client{Timeout: timeout},
	}
}

// Prices returns the spot price of each symbol. The API has no batch
// endpoint, so there is one call per metal, any failure fails the whole call.
func (s *Spot) Prices(ctx context.Context, symbols []string, currency string) (map[string]decimal.Decimal, error) {
	if !strings.EqualFold(currency, "USD") {
		return nil, fmt.Errorf("metal spot prices are only quoted in USD, not %q", currency)
	}
	result := make(map[string]decimal.Decimal, len(symbols))
	for _, symbol := range symbols {
		m, ok := Lookup(symbol)
		if !ok {
			continue
		}
		p, err := s.latest(ctx, m.Symbol)
		if err != nil {
			return nil, err
		}
		result[symbol] = p
	}
	return result, nil
}

// latest returns the latest spot price of a symbol.
func (s *Spot) latest(ctx context.Context, symbol string) (decimal.Decimal, error) {
	// {"name":"Silver","price":31.2,"symbol":"XAG","updatedAt":"2025-03-01T12:00:00Z"}
	addr := s.base + "/price/" + symbol
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return decimal.Zero, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("error retrieving %q: %w", symbol, err)
	}
	defer resp.Body.Close()
	slog.Debug("http request", "method", req.Method, "host", req.URL.Host, "path", req.URL.Path, "status", resp.StatusCode)
	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("cannot http GET %v%v: %v", req.URL.Host, req.URL.Path, resp.Status)
	}

	var jobj any
	if err := json.NewDecoder(resp.Body).Decode(&jobj); err != nil {
		return decimal.Zero, fmt.Errorf("error decoding %q: %w", symbol, err)
	}
	jval, err := jsonpath.Get(s.path, jobj)
	if err != nil {
		return decimal.Zero, fmt.Errorf("error parsing %q: %q %w", symbol, s.path, err)
	}
	// jsonpath may return a list of one answer.
	if jlist, ok := jval.([]any); ok && len(jlist) > 0 {
		jval = jlist[0]
	}

	var val decimal.Decimal
	switch v := jval.(type) {
	case float64:
		val = decimal.NewFromFloat(v)
	case string:
		// sometimes the value is a string
		if val, err = decimal.NewFromString(strings.TrimSpace(v)); err != nil {
			return decimal.Zero, fmt.Errorf("cannot read price of %q: invalid string %q: %w", symbol, v, err)
		}
	default:
		return decimal.Zero, fmt.Errorf("cannot read price of %q: not a number %v", symbol, jval)
	}
	if !val.IsPositive() {
		return decimal.Zero, fmt.Errorf("no price for %q: got %v", symbol, val)
	}
	return val, nil
}
