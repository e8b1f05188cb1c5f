package pricesync

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	portfolio "github.com/swanie2000/swanies-portfolio-gemini-ver-sub000"
	"github.com/swanie2000/swanies-portfolio-gemini-ver-sub000/coingecko"
	"github.com/swanie2000/swanies-portfolio-gemini-ver-sub000/store"
)

// fakeSource returns fixed quotes and counts its calls.
type fakeSource struct {
	mu     sync.Mutex
	calls  int
	keys   [][]string
	quotes map[string]decimal.Decimal
	err    error
}

func (f *fakeSource) Prices(ctx context.Context, keys []string, currency string) (map[string]decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.keys = append(f.keys, keys)
	if f.err != nil {
		return nil, f.err
	}
	res := make(map[string]decimal.Decimal)
	for _, k := range keys {
		if q, ok := f.quotes[k]; ok {
			res[k] = q
		}
	}
	return res, nil
}

// fakeClock is a manually advanced clock.
type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time      { return c.t }
func (c *fakeClock) Add(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock { return &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)} }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func price(a portfolio.Asset) decimal.Decimal { return a.CurrentPrice }

func openStore(t *testing.T, assets ...portfolio.Asset) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "swan.db"))
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if len(assets) > 0 {
		if err := s.Upsert(context.Background(), assets...); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}
	}
	return s
}

func holding(id string, category portfolio.Category, p string) portfolio.Asset {
	return portfolio.Asset{
		ID:           id,
		Symbol:       id,
		Name:         id,
		AmountHeld:   portfolio.Q(1),
		CurrentPrice: dec(p),
		Category:     category,
	}
}

func byID(t *testing.T, s *store.Store) map[string]portfolio.Asset {
	t.Helper()
	all, err := s.All(context.Background())
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	res := make(map[string]portfolio.Asset)
	for _, a := range all {
		res[a.ID] = a
	}
	return res
}

func TestRefresh_UpdatesOnlyQuotedAssets(t *testing.T) {
	ctx := context.Background()
	s := openStore(t,
		holding("bitcoin", portfolio.Crypto, "60000"),
		holding("obscurecoin", portfolio.Crypto, "0.5"),
	)
	src := &fakeSource{quotes: map[string]decimal.Decimal{"bitcoin": dec("65000")}}
	clock := newClock()
	e := New(s, src, WithClock(clock.Now))

	got := e.Refresh(ctx)
	if got.Status != Updated || got.Updated != 1 || got.Err != nil {
		t.Fatalf("Refresh() = %+v, want 1 update", got)
	}

	assets := byID(t, s)
	if p := price(assets["bitcoin"]); !p.Equal(dec("65000")) {
		t.Errorf("bitcoin price = %v, want 65000", p)
	}
	if !assets["bitcoin"].LastUpdated.Equal(clock.Now()) {
		t.Errorf("bitcoin last updated = %v, want %v", assets["bitcoin"].LastUpdated, clock.Now())
	}
	if p := price(assets["obscurecoin"]); !p.Equal(dec("0.5")) {
		t.Errorf("obscurecoin price = %v, want unchanged 0.5", p)
	}
	if !assets["obscurecoin"].LastUpdated.IsZero() {
		t.Errorf("obscurecoin last updated = %v, want never", assets["obscurecoin"].LastUpdated)
	}
	if len(got.Missing) != 1 || got.Missing[0] != "obscurecoin" {
		t.Errorf("Refresh().Missing = %v, want [obscurecoin]", got.Missing)
	}
}

func TestRefresh_EmptyDoesNotCallSource(t *testing.T) {
	s := openStore(t)
	src := &fakeSource{}
	e := New(s, src)

	if got := e.Refresh(context.Background()); got.Status != Empty {
		t.Errorf("Refresh() status = %v, want %v", got.Status, Empty)
	}
	if src.calls != 0 {
		t.Errorf("source called %d times, want 0", src.calls)
	}
}

func TestRefresh_Cooldown(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, holding("bitcoin", portfolio.Crypto, "1"))
	src := &fakeSource{quotes: map[string]decimal.Decimal{"bitcoin": dec("2")}}
	clock := newClock()
	e := New(s, src, WithClock(clock.Now))

	tests := []struct {
		name    string
		advance time.Duration
		want    Status
		calls   int
	}{
		{"first", 0, Updated, 1},
		{"immediately after", 0, Suppressed, 1},
		{"within cooldown", 59 * time.Second, Suppressed, 1},
		{"after cooldown", time.Second, Updated, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock.Add(tt.advance)
			if got := e.Refresh(ctx); got.Status != tt.want {
				t.Errorf("Refresh() status = %v, want %v", got.Status, tt.want)
			}
			if src.calls != tt.calls {
				t.Errorf("source calls = %d, want %d", src.calls, tt.calls)
			}
		})
	}
}

func TestRefresh_ConcurrentCallsSingleFetch(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, holding("bitcoin", portfolio.Crypto, "1"))
	src := &fakeSource{quotes: map[string]decimal.Decimal{"bitcoin": dec("2")}}
	e := New(s, src)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.Refresh(ctx)
		}()
	}
	wg.Wait()
	if src.calls != 1 {
		t.Errorf("source calls = %d, want 1", src.calls)
	}
}

func TestRefresh_FailureLeavesPricesUnchanged(t *testing.T) {
	ctx := context.Background()
	s := openStore(t,
		holding("bitcoin", portfolio.Crypto, "60000"),
		holding("XAG", portfolio.Metal, "31"),
	)
	src := &fakeSource{err: errors.New("connection reset")}
	clock := newClock()
	e := New(s, src, WithClock(clock.Now))

	got := e.Refresh(ctx)
	if got.Status != Failed || got.Err == nil {
		t.Fatalf("Refresh() = %+v, want a failure", got)
	}
	assets := byID(t, s)
	if p := price(assets["bitcoin"]); !p.Equal(dec("60000")) {
		t.Errorf("bitcoin price = %v, want unchanged", p)
	}
	if p := price(assets["XAG"]); !p.Equal(dec("31")) {
		t.Errorf("XAG price = %v, want unchanged", p)
	}

	// a failed attempt still consumes the cooldown.
	src.err = nil
	if got := e.Refresh(ctx); got.Status != Suppressed {
		t.Errorf("Refresh() after failure status = %v, want %v", got.Status, Suppressed)
	}
}

func TestRefresh_InvalidQuotesLeavePricesUnchanged(t *testing.T) {
	ctx := context.Background()
	s := openStore(t,
		holding("bitcoin", portfolio.Crypto, "65000"),
		holding("ethereum", portfolio.Crypto, "3400"),
		holding("tether", portfolio.Crypto, "1"),
		holding("solana", portfolio.Crypto, "140"),
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"bitcoin":{"usd":null},"ethereum":{"usd":-5},"tether":{"usd":0},"solana":{"usd":150}}`))
	}))
	t.Cleanup(srv.Close)
	src := coingecko.New(coingecko.Options{BaseURL: srv.URL, RatePerMinute: 60000})
	e := New(s, src, WithClock(newClock().Now))

	got := e.Refresh(ctx)
	if got.Status != Updated || got.Updated != 1 {
		t.Fatalf("Refresh() = %+v, want 1 price updated", got)
	}
	sort.Strings(got.Missing)
	if diff := cmp.Diff([]string{"bitcoin", "ethereum", "tether"}, got.Missing); diff != "" {
		t.Errorf("Missing mismatch (-want +got):\n%s", diff)
	}

	want := map[string]string{"bitcoin": "65000", "ethereum": "3400", "tether": "1", "solana": "150"}
	for id, a := range byID(t, s) {
		if p := price(a); !p.Equal(dec(want[id])) {
			t.Errorf("%s price = %v, want %v", id, p, want[id])
		}
		if err := a.Validate(); err != nil {
			t.Errorf("stored asset is invalid: %v", err)
		}
	}
}

func TestRefresh_NonPositiveQuotesAreMissing(t *testing.T) {
	tests := []struct {
		name  string
		quote string
	}{
		{"zero", "0"},
		{"negative", "-1"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := openStore(t, holding("bitcoin", portfolio.Crypto, "60000"))
			e := New(s, &fakeSource{quotes: map[string]decimal.Decimal{"bitcoin": dec(tc.quote)}})

			got := e.Refresh(context.Background())
			if got.Status != Updated || got.Updated != 0 {
				t.Errorf("Refresh() = %+v, want nothing updated", got)
			}
			if diff := cmp.Diff([]string{"bitcoin"}, got.Missing); diff != "" {
				t.Errorf("Missing mismatch (-want +got):\n%s", diff)
			}
			if p := price(byID(t, s)["bitcoin"]); !p.Equal(dec("60000")) {
				t.Errorf("bitcoin price = %v, want unchanged", p)
			}
		})
	}
}

func TestRefresh_CustomMetalFromSpot(t *testing.T) {
	ctx := context.Background()
	eagle := portfolio.Asset{
		ID:         "custom-eagle",
		Symbol:     "EAGLE",
		Name:       "Silver Eagle",
		AmountHeld: portfolio.Q(10),
		Category:   portfolio.Metal,
		Weight:     dec("1"),
		Premium:    dec("4.5"),
		IsCustom:   true,
		BaseSymbol: "XAG",
	}
	s := openStore(t, eagle, holding("XAG", portfolio.Metal, "0"))
	src := &fakeSource{quotes: map[string]decimal.Decimal{"XAG": dec("30")}}
	e := New(s, src)

	if got := e.Refresh(ctx); got.Updated != 2 {
		t.Fatalf("Refresh() = %+v, want 2 updates", got)
	}
	if len(src.keys) != 1 || len(src.keys[0]) != 1 {
		t.Errorf("source keys = %v, want a single XAG key", src.keys)
	}
	assets := byID(t, s)
	if p := price(assets["custom-eagle"]); !p.Equal(dec("34.5")) {
		t.Errorf("custom-eagle price = %v, want 34.5", p)
	}
	if p := price(assets["XAG"]); !p.Equal(dec("30")) {
		t.Errorf("XAG price = %v, want 30", p)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	s := openStore(t, holding("bitcoin", portfolio.Crypto, "1"))
	src := &fakeSource{quotes: map[string]decimal.Decimal{"bitcoin": dec("2")}}
	e := New(s, src)

	ctx, cancel := context.WithCancel(context.Background())
	outcomes := make(chan Outcome, 1)
	done := make(chan error, 1)
	go func() {
		done <- e.Run(ctx, time.Hour, func(o Outcome) { outcomes <- o })
	}()

	if o := <-outcomes; o.Status != Updated {
		t.Errorf("first outcome = %v, want %v", o.Status, Updated)
	}
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}

func TestRun_InvalidPeriod(t *testing.T) {
	e := New(openStore(t), &fakeSource{})
	if err := e.Run(context.Background(), 0, nil); err == nil {
		t.Error("Run() expected an error for a zero period")
	}
}
