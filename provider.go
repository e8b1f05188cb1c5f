package portfolio

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PriceSource quotes the current unit price of a set of identifiers in a
// currency. Identifiers missing from the result have no known price. An
// error means the whole result must be discarded.
type PriceSource interface {
	Prices(ctx context.Context, keys []string, currency string) (map[string]decimal.Decimal, error)
}

// PriceSourceFunc adapts a function into a PriceSource.
type PriceSourceFunc func(ctx context.Context, keys []string, currency string) (map[string]decimal.Decimal, error)

func (f PriceSourceFunc) Prices(ctx context.Context, keys []string, currency string) (map[string]decimal.Decimal, error) {
	return f(ctx, keys, currency)
}

// PriceUpdate is the result of a refresh for a single asset.
type PriceUpdate struct {
	ID    string
	Price decimal.Decimal
	At    time.Time
}

type route struct {
	name   string
	match  func(key string) bool
	source PriceSource
}

// SourceMux dispatches keys to the first registered source whose predicate
// matches, and to the fallback source otherwise. Each source is called at
// most once per Prices call.
type SourceMux struct {
	routes   []route
	fallback PriceSource
}

// NewSourceMux returns a mux that sends unmatched keys to fallback.
func NewSourceMux(fallback PriceSource) *SourceMux {
	return &SourceMux{fallback: fallback}
}

// Handle registers a source for the keys matching the predicate.
func (m *SourceMux) Handle(name string, match func(key string) bool, source PriceSource) *SourceMux {
	m.routes = append(m.routes, route{name: name, match: match, source: source})
	return m
}

// Prices implements PriceSource. It fails as a whole if any source fails.
func (m *SourceMux) Prices(ctx context.Context, keys []string, currency string) (map[string]decimal.Decimal, error) {
	batches := make([][]string, len(m.routes)+1) // last one is the fallback
	for _, key := range keys {
		i := len(m.routes)
		for j, r := range m.routes {
			if r.match(key) {
				i = j
				break
			}
		}
		batches[i] = append(batches[i], key)
	}

	result := make(map[string]decimal.Decimal, len(keys))
	for i, batch := range batches {
		if len(batch) == 0 {
			continue
		}
		name, source := "fallback", m.fallback
		if i < len(m.routes) {
			name, source = m.routes[i].name, m.routes[i].source
		}
		if source == nil {
			return nil, fmt.Errorf("no price source for %v", batch)
		}
		prices, err := source.Prices(ctx, batch, currency)
		if err != nil {
			return nil, fmt.Errorf("%s prices: %w", name, err)
		}
		for k, v := range prices {
			result[k] = v
		}
	}
	return result, nil
}
