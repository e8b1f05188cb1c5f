package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
	portfolio "github.com/swanie2000/swanies-portfolio-gemini-ver-sub000"
	"github.com/swanie2000/swanies-portfolio-gemini-ver-sub000/store"
)

// fakeMarkets serves a tiny CoinGecko and gold-api.
func fakeMarkets(t *testing.T) {
	t.Helper()
	coins := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/coins/markets":
			if r.URL.Query().Get("ids") != "bitcoin" {
				w.Write([]byte(`[]`))
				return
			}
			w.Write([]byte(`[{"id":"bitcoin","symbol":"btc","name":"Bitcoin","current_price":50000}]`))
		case "/simple/price":
			w.Write([]byte(`{"bitcoin":{"usd":60000}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(coins.Close)

	spot := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/price/XAG":
			json.NewEncoder(w).Encode(map[string]any{"price": 30})
		case "/price/XAU":
			json.NewEncoder(w).Encode(map[string]any{"price": 2000})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(spot.Close)

	t.Setenv("SWAN_COINGECKO_URL", coins.URL)
	t.Setenv("SWAN_METALS_URL", spot.URL)
}

// setup points the commands to a fresh database and fake markets, it returns
// the database path.
func setup(t *testing.T) string {
	t.Helper()
	db := filepath.Join(t.TempDir(), "swan.db")
	t.Setenv("SWAN_DB", db)
	fakeMarkets(t)

	*configFile = ""
	*raw = true
	t.Cleanup(func() { *raw = false })
	return db
}

// run executes the command line args, and returns its exit status and outputs.
func run(t *testing.T, args ...string) (subcommands.ExitStatus, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	stdout, stderr = &out, &errOut
	t.Cleanup(func() { stdout, stderr = os.Stdout, os.Stderr })

	fs := flag.NewFlagSet("swan", flag.ContinueOnError)
	c := subcommands.NewCommander(fs, "swan")
	Register(c)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("invalid args %v: %v", args, err)
	}
	status := c.Execute(context.Background())
	return status, out.String(), errOut.String()
}

// assets reads the assets saved in db.
func assets(t *testing.T, db string) []portfolio.Asset {
	t.Helper()
	s, err := store.Open(db)
	if err != nil {
		t.Fatalf("store.Open() failed: %v", err)
	}
	defer s.Close()
	all, err := s.All(context.Background())
	if err != nil {
		t.Fatalf("All() failed: %v", err)
	}
	return all
}

func ids(assets []portfolio.Asset) []string {
	var ids []string
	for _, a := range assets {
		ids = append(ids, a.ID)
	}
	return ids
}

func TestAddRefreshHolding(t *testing.T) {
	db := setup(t)

	if status, _, errOut := run(t, "add", "-id", "bitcoin", "0.5"); status != subcommands.ExitSuccess {
		t.Fatalf("add -id bitcoin = %v: %s", status, errOut)
	}
	if status, _, errOut := run(t, "add", "-metal", "xag", "10"); status != subcommands.ExitSuccess {
		t.Fatalf("add -metal xag = %v: %s", status, errOut)
	}

	got := assets(t, db)
	if diff := cmp.Diff([]string{"bitcoin", "XAG"}, ids(got)); diff != "" {
		t.Fatalf("assets mismatch (-want +got):\n%s", diff)
	}
	if !got[0].CurrentPrice.Equal(decimal.NewFromInt(50000)) {
		t.Errorf("bitcoin price at add = %v, want 50000", got[0].CurrentPrice)
	}

	status, out, errOut := run(t, "refresh")
	if status != subcommands.ExitSuccess {
		t.Fatalf("refresh = %v: %s", status, errOut)
	}
	if !strings.Contains(out, "2 prices updated") {
		t.Errorf("refresh output = %q, want 2 prices updated", out)
	}
	got = assets(t, db)
	if !got[0].CurrentPrice.Equal(decimal.NewFromInt(60000)) {
		t.Errorf("bitcoin price = %v, want 60000", got[0].CurrentPrice)
	}
	if !got[1].CurrentPrice.Equal(decimal.NewFromInt(30)) {
		t.Errorf("silver price = %v, want 30", got[1].CurrentPrice)
	}

	status, out, _ = run(t, "holding")
	if status != subcommands.ExitSuccess {
		t.Fatalf("holding = %v", status)
	}
	for _, want := range []string{"# Portfolio", "Bitcoin", "Silver"} {
		if !strings.Contains(out, want) {
			t.Errorf("holding output does not contain %q:\n%s", want, out)
		}
	}
}

func TestAddErrors(t *testing.T) {
	setup(t)
	if status, _, _ := run(t, "add", "-metal", "XAU", "1"); status != subcommands.ExitSuccess {
		t.Fatalf("add -metal XAU = %v", status)
	}

	tests := []struct {
		name string
		args []string
	}{
		{"no source", []string{"add", "1"}},
		{"both sources", []string{"add", "-id", "bitcoin", "-metal", "XAU", "1"}},
		{"no amount", []string{"add", "-metal", "XAG"}},
		{"invalid amount", []string{"add", "-metal", "XAG", "lots"}},
		{"unknown metal", []string{"add", "-metal", "XCU", "1"}},
		{"unknown coin", []string{"add", "-id", "notacoin", "1"}},
		{"already held", []string{"add", "-metal", "xau", "2"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if status, _, _ := run(t, tc.args...); status != subcommands.ExitUsageError {
				t.Errorf("%v = %v, want %v", tc.args, status, subcommands.ExitUsageError)
			}
		})
	}
}

func TestAddCustom(t *testing.T) {
	db := setup(t)
	status, _, errOut := run(t, "add-custom", "-base", "XAG", "-weight", "1", "-premium", "4.5", "-name", "Silver Eagle", "2")
	if status != subcommands.ExitSuccess {
		t.Fatalf("add-custom = %v: %s", status, errOut)
	}
	if status, _, errOut := run(t, "refresh"); status != subcommands.ExitSuccess {
		t.Fatalf("refresh = %v: %s", status, errOut)
	}

	got := assets(t, db)
	if len(got) != 1 {
		t.Fatalf("got %d assets, want 1", len(got))
	}
	custom := got[0]
	if !custom.IsCustom || custom.BaseSymbol != "XAG" || !strings.HasPrefix(custom.ID, "custom-") {
		t.Errorf("unexpected custom asset %+v", custom)
	}
	if want := decimal.RequireFromString("34.5"); !custom.CurrentPrice.Equal(want) {
		t.Errorf("custom price = %v, want %v", custom.CurrentPrice, want)
	}
}

func TestAddCustom_Invalid(t *testing.T) {
	tests := []struct {
		name string
		cmd  addCustomCmd
	}{
		{"unknown base", addCustomCmd{base: "XCU", weight: "1", premium: "0", name: "Copper round"}},
		{"no name", addCustomCmd{base: "XAG", weight: "1", premium: "0"}},
		{"zero weight", addCustomCmd{base: "XAG", weight: "0", premium: "0", name: "Eagle"}},
		{"bad weight", addCustomCmd{base: "XAG", weight: "one", premium: "0", name: "Eagle"}},
		{"negative premium", addCustomCmd{base: "XAG", weight: "1", premium: "-1", name: "Eagle"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tc.cmd.asset(portfolio.Q(1), 0); err == nil {
				t.Errorf("asset() = nil error, want an error")
			}
		})
	}
}

func TestAmount(t *testing.T) {
	db := setup(t)
	run(t, "add", "-metal", "XAG", "10")

	if status, _, _ := run(t, "amount", "XAG", "abc"); status != subcommands.ExitUsageError {
		t.Errorf("amount XAG abc = %v, want %v", status, subcommands.ExitUsageError)
	}
	if got := assets(t, db)[0].AmountHeld; !got.Equal(portfolio.Q(10)) {
		t.Errorf("amount after invalid input = %v, want 10", got)
	}

	if status, _, _ := run(t, "amount", "XPT", "1"); status != subcommands.ExitUsageError {
		t.Errorf("amount of an unknown asset = %v, want %v", status, subcommands.ExitUsageError)
	}

	if status, _, errOut := run(t, "amount", "XAG", "12,5"); status != subcommands.ExitSuccess {
		t.Fatalf("amount XAG 12,5 = %v: %s", status, errOut)
	}
	if got := assets(t, db)[0].AmountHeld; !got.Equal(portfolio.Q(12.5)) {
		t.Errorf("amount = %v, want 12.5", got)
	}
}

func TestRemoveReorder(t *testing.T) {
	db := setup(t)
	for _, sym := range []string{"XAU", "XAG", "XPT", "XPD"} {
		run(t, "add", "-metal", sym, "1")
	}

	status, _, errOut := run(t, "reorder", "XPD", "nope", "XAG")
	if status != subcommands.ExitSuccess {
		t.Fatalf("reorder = %v: %s", status, errOut)
	}
	if !strings.Contains(errOut, `"nope"`) {
		t.Errorf("reorder does not warn about the unknown id: %q", errOut)
	}
	if diff := cmp.Diff([]string{"XPD", "XAG", "XAU", "XPT"}, ids(assets(t, db))); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}

	if status, _, _ := run(t, "rm", "XAG", "unknown"); status != subcommands.ExitSuccess {
		t.Fatalf("rm = %v", status)
	}
	if diff := cmp.Diff([]string{"XPD", "XAU", "XPT"}, ids(assets(t, db))); diff != "" {
		t.Errorf("assets after rm mismatch (-want +got):\n%s", diff)
	}
}

func TestSettings(t *testing.T) {
	db := setup(t)

	status, _, _ := run(t, "settings", "-set", "compact_view=true", "-set", "dark_mode=maybe")
	if status != subcommands.ExitUsageError {
		t.Fatalf("settings with an invalid value = %v, want %v", status, subcommands.ExitUsageError)
	}

	load := func() portfolio.Settings {
		s, err := store.Open(db)
		if err != nil {
			t.Fatal(err)
		}
		defer s.Close()
		settings, err := s.LoadSettings(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		return settings
	}
	if got := load(); got != portfolio.DefaultSettings() {
		t.Errorf("settings changed by an invalid command: %+v", got)
	}

	status, out, _ := run(t, "settings", "-set", "compact_view=true")
	if status != subcommands.ExitSuccess {
		t.Fatalf("settings -set compact_view=true = %v", status)
	}
	if !load().CompactView {
		t.Error("compact_view was not saved")
	}
	if !strings.Contains(out, "compact_view") {
		t.Errorf("settings output does not list compact_view:\n%s", out)
	}

	run(t, "settings", "-reset")
	if got := load(); got != portfolio.DefaultSettings() {
		t.Errorf("settings after reset = %+v, want defaults", got)
	}
}

func TestExportImport(t *testing.T) {
	db := setup(t)
	run(t, "add", "-metal", "XAU", "1")
	run(t, "add", "-metal", "XAG", "100")

	backup := filepath.Join(t.TempDir(), "backup.jsonl")
	if status, _, errOut := run(t, "export", "-o", backup); status != subcommands.ExitSuccess {
		t.Fatalf("export = %v: %s", status, errOut)
	}
	want := assets(t, db)

	restored := filepath.Join(t.TempDir(), "restored.db")
	t.Setenv("SWAN_DB", restored)
	status, out, errOut := run(t, "import", backup)
	if status != subcommands.ExitSuccess {
		t.Fatalf("import = %v: %s", status, errOut)
	}
	if !strings.Contains(out, "Imported 2 assets") {
		t.Errorf("import output = %q", out)
	}
	if diff := cmp.Diff(ids(want), ids(assets(t, restored))); diff != "" {
		t.Errorf("restored assets mismatch (-want +got):\n%s", diff)
	}

	bad := filepath.Join(t.TempDir(), "bad.jsonl")
	os.WriteFile(bad, []byte("{not json\n"), 0o644)
	if status, _, _ := run(t, "import", bad); status != subcommands.ExitUsageError {
		t.Errorf("import of an invalid file = %v, want %v", status, subcommands.ExitUsageError)
	}
}

func TestOrderedIDs(t *testing.T) {
	db := setup(t)
	for _, sym := range []string{"XAU", "XAG", "XPT"} {
		run(t, "add", "-metal", sym, "1")
	}
	s, err := store.Open(db)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	got, unknown, err := orderedIDs(context.Background(), s, []string{"XPT", "XPT", "gone"})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"XPT", "XAU", "XAG"}, got); diff != "" {
		t.Errorf("orderedIDs() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"gone"}, unknown); diff != "" {
		t.Errorf("unknown ids mismatch (-want +got):\n%s", diff)
	}
}

func TestCompletion(t *testing.T) {
	c := subcommands.NewCommander(flag.NewFlagSet("swan", flag.ContinueOnError), "swan")
	Register(c)
	got := Completion(c)
	for _, name := range []string{"add", "add-custom", "refresh", "watch", "settings", "import", "topic"} {
		if _, ok := got.Sub[name]; !ok {
			t.Errorf("Completion() has no %q subcommand", name)
		}
	}
	if _, ok := got.Sub["add"].Flags["metal"]; !ok {
		t.Error("Completion() has no -metal flag for add")
	}
}

func TestAssetIDsAreNormalized(t *testing.T) {
	db := setup(t)
	run(t, "add", "-metal", "xag", "1")
	run(t, "add", "-metal", "XAU", "1")
	run(t, "add", "-id", "Bitcoin", "1")

	if status, _, errOut := run(t, "amount", "xag", "2"); status != subcommands.ExitSuccess {
		t.Fatalf("amount xag 2 = %v: %s", status, errOut)
	}
	if status, _, errOut := run(t, "amount", "BITCOIN", "3"); status != subcommands.ExitSuccess {
		t.Fatalf("amount BITCOIN 3 = %v: %s", status, errOut)
	}
	if status, _, errOut := run(t, "reorder", "xau"); status != subcommands.ExitSuccess || errOut != "" {
		t.Fatalf("reorder xau = %v: %s", status, errOut)
	}

	got := assets(t, db)
	if diff := cmp.Diff([]string{"XAU", "XAG", "bitcoin"}, ids(got)); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if !got[1].AmountHeld.Equal(portfolio.Q(2)) || !got[2].AmountHeld.Equal(portfolio.Q(3)) {
		t.Errorf("amounts = %v, %v, want 2, 3", got[1].AmountHeld, got[2].AmountHeld)
	}

	if status, _, _ := run(t, "rm", "xau"); status != subcommands.ExitSuccess {
		t.Fatalf("rm xau = %v", status)
	}
	if diff := cmp.Diff([]string{"XAG", "bitcoin"}, ids(assets(t, db))); diff != "" {
		t.Errorf("assets after rm mismatch (-want +got):\n%s", diff)
	}
}

func TestAssetID(t *testing.T) {
	tests := []struct{ in, want string }{
		{"xag", "XAG"},
		{" Xpt ", "XPT"},
		{"Bitcoin", "bitcoin"},
		{"custom-0f8e", "custom-0f8e"},
	}
	for _, tc := range tests {
		if got := assetID(tc.in); got != tc.want {
			t.Errorf("assetID(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestWatchRejectsPeriodNotAboveCooldown(t *testing.T) {
	setup(t)
	for _, every := range []string{"30s", "60s"} {
		if status, _, _ := run(t, "watch", "-every", every); status != subcommands.ExitUsageError {
			t.Errorf("watch -every %s = %v, want %v", every, status, subcommands.ExitUsageError)
		}
	}
}
