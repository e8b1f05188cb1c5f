// Package pricesync refreshes the price of every held asset from a price
// source, at most once per cooldown period.
package pricesync

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	portfolio "github.com/swanie2000/swanies-portfolio-gemini-ver-sub000"
)

// DefaultCooldown is the minimum delay between two refresh attempts.
const DefaultCooldown = 60 * time.Second

// Store is the part of the local store the engine reads and writes.
type Store interface {
	All(ctx context.Context) ([]portfolio.Asset, error)
	UpdatePrices(ctx context.Context, updates []portfolio.PriceUpdate) (int, error)
}

// Status is the kind of outcome of a refresh.
type Status int

const (
	// Suppressed means the previous attempt is too recent, nothing was done.
	Suppressed Status = iota
	// Empty means there is no held asset, the source was not called.
	Empty
	// Failed means the prices could not be fetched or stored.
	Failed
	// Updated means prices were fetched and stored.
	Updated
)

func (s Status) String() string {
	switch s {
	case Suppressed:
		return "suppressed"
	case Empty:
		return "empty"
	case Failed:
		return "failed"
	case Updated:
		return "updated"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Outcome reports what a refresh did.
type Outcome struct {
	Status  Status
	Updated int // number of assets whose price was written
	Missing []string
	Err     error
}

func (o Outcome) String() string {
	switch o.Status {
	case Updated:
		return fmt.Sprintf("%d prices updated", o.Updated)
	case Failed:
		return fmt.Sprintf("refresh failed: %v", o.Err)
	case Empty:
		return "no asset to refresh"
	default:
		return "refresh skipped, prices were refreshed recently"
	}
}

// Engine refreshes asset prices. It is safe for concurrent use.
type Engine struct {
	store    Store
	source   portfolio.PriceSource
	currency string
	cooldown time.Duration
	now      func() time.Time

	mu          sync.Mutex
	lastAttempt time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithCurrency sets the currency prices are quoted in. Default is USD.
func WithCurrency(currency string) Option {
	return func(e *Engine) { e.currency = currency }
}

// WithCooldown sets the minimum delay between two attempts.
func WithCooldown(d time.Duration) Option {
	return func(e *Engine) { e.cooldown = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New returns an engine writing prices from source into store.
func New(store Store, source portfolio.PriceSource, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		source:   source,
		currency: "USD",
		cooldown: DefaultCooldown,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// gate reports whether an attempt may start now, and records it if so.
func (e *Engine) gate() (time.Time, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	now := e.now()
	if !e.lastAttempt.IsZero() && now.Sub(e.lastAttempt) < e.cooldown {
		return now, false
	}
	e.lastAttempt = now
	return now, true
}

// Refresh fetches the price of every held asset in a single source call and
// stores them. Assets missing from the response, or quoted a non positive
// price, keep their previous price.
// Failures are reported in the Outcome, the store is then left untouched.
func (e *Engine) Refresh(ctx context.Context) Outcome {
	now, ok := e.gate()
	if !ok {
		slog.Debug("price refresh suppressed", "cooldown", e.cooldown)
		return Outcome{Status: Suppressed}
	}

	assets, err := e.store.All(ctx)
	if err != nil {
		slog.Error("cannot read assets", "error", err)
		return Outcome{Status: Failed, Err: fmt.Errorf("cannot read assets: %w", err)}
	}
	if len(assets) == 0 {
		return Outcome{Status: Empty}
	}

	keys := make([]string, 0, len(assets))
	seen := make(map[string]bool, len(assets))
	for _, a := range assets {
		if k := a.PriceKey(); !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}

	quotes, err := e.source.Prices(ctx, keys, e.currency)
	if err != nil {
		slog.Warn("cannot fetch prices", "keys", len(keys), "error", err)
		return Outcome{Status: Failed, Err: fmt.Errorf("cannot fetch prices: %w", err)}
	}

	var outcome Outcome
	updates := make([]portfolio.PriceUpdate, 0, len(assets))
	for _, a := range assets {
		quote, ok := quotes[a.PriceKey()]
		if !ok || !quote.IsPositive() {
			outcome.Missing = append(outcome.Missing, a.ID)
			continue
		}
		p := a.PriceFrom(quote)
		if !p.IsPositive() {
			slog.Warn("ignoring non positive price", "id", a.ID, "quote", quote, "price", p)
			outcome.Missing = append(outcome.Missing, a.ID)
			continue
		}
		updates = append(updates, portfolio.PriceUpdate{ID: a.ID, Price: p, At: now})
	}

	n, err := e.store.UpdatePrices(ctx, updates)
	if err != nil {
		slog.Error("cannot store prices", "error", err)
		return Outcome{Status: Failed, Err: fmt.Errorf("cannot store prices: %w", err)}
	}
	outcome.Status = Updated
	outcome.Updated = n
	slog.Info("prices refreshed", "updated", n, "missing", len(outcome.Missing))
	return outcome
}

// Run refreshes immediately, then every period until ctx is done. Each
// outcome is passed to report, if not nil.
func (e *Engine) Run(ctx context.Context, every time.Duration, report func(Outcome)) error {
	if every <= 0 {
		return fmt.Errorf("invalid refresh period %v", every)
	}
	tick := func() {
		o := e.Refresh(ctx)
		if report != nil {
			report(o)
		}
	}
	tick()

	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			tick()
		}
	}
}
