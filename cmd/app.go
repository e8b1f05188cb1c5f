// Package cmd implements the CLI application to track a portfolio.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
	portfolio "github.com/swanie2000/swanies-portfolio-gemini-ver-sub000"
	"github.com/swanie2000/swanies-portfolio-gemini-ver-sub000/coingecko"
	"github.com/swanie2000/swanies-portfolio-gemini-ver-sub000/config"
	"github.com/swanie2000/swanies-portfolio-gemini-ver-sub000/metals"
	"github.com/swanie2000/swanies-portfolio-gemini-ver-sub000/pricesync"
	"github.com/swanie2000/swanies-portfolio-gemini-ver-sub000/store"
)

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var (
	configFile = flag.String("config", os.Getenv("SWAN_CONFIG"), "Path to the YAML configuration file")
	verbose    = flag.Bool("v", false, "Verbose logging")
	raw        = flag.Bool("raw", false, "Print plain markdown instead of rendering it")
)

// stdout and stderr are the command outputs.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// Register the subcommands.
func Register(c *subcommands.Commander) {
	c.Register(&addCmd{}, "assets")
	c.Register(&addCustomCmd{}, "assets")
	c.Register(&amountCmd{}, "assets")
	c.Register(&rmCmd{}, "assets")
	c.Register(&reorderCmd{}, "assets")

	c.Register(&holdingCmd{}, "portfolio")
	c.Register(&refreshCmd{}, "portfolio")
	c.Register(&watchCmd{}, "portfolio")

	c.Register(&searchCmd{}, "markets")
	c.Register(&marketsCmd{}, "markets")

	c.Register(&settingsCmd{}, "settings")
	c.Register(&exportCmd{}, "backup")
	c.Register(&importCmd{}, "backup")

	c.Register(&topicCmd{}, "help")
	c.Register(c.HelpCommand(), "help")
	c.Register(c.FlagsCommand(), "help")
	c.Register(c.CommandsCommand(), "help")
}

// app holds what commands share: configuration, store and settings.
type app struct {
	cfg      *config.Config
	store    *store.Store
	settings portfolio.Settings
}

// openApp loads the configuration, sets up logging and opens the store.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(*configFile, ".env")
	if err != nil {
		return nil, err
	}

	level, _ := cfg.LogLevel()
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, fmt.Errorf("cannot create database folder: %w", err)
	}
	s, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	settings, err := s.LoadSettings(ctx)
	if err != nil {
		s.Close()
		return nil, err
	}
	slog.Debug("store opened", "path", cfg.Database.Path)
	return &app{cfg: cfg, store: s, settings: settings}, nil
}

// mustOpenApp is openApp reporting errors the command way.
func mustOpenApp(ctx context.Context) (*app, subcommands.ExitStatus) {
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "Error opening portfolio: %v\n", err)
		return nil, subcommands.ExitFailure
	}
	return a, subcommands.ExitSuccess
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		slog.Warn("cannot close store", "error", err)
	}
}

func (a *app) coingecko() *coingecko.Client {
	return coingecko.New(coingecko.Options{
		BaseURL:       a.cfg.CoinGecko.URL,
		APIKey:        a.cfg.CoinGecko.APIKey,
		Timeout:       a.cfg.HTTPTimeout,
		RatePerMinute: a.cfg.CoinGecko.RatePerMinute,
		BatchSize:     a.cfg.CoinGecko.BatchSize,
		SearchTTL:     a.cfg.CoinGecko.SearchTTL,
	})
}

// source routes metal symbols to the spot source, everything else to
// CoinGecko.
func (a *app) source() portfolio.PriceSource {
	return portfolio.NewSourceMux(a.coingecko()).
		Handle("metals", metals.IsMetal, metals.NewSpot(a.cfg.Metals.URL, a.cfg.HTTPTimeout))
}

func (a *app) engine() *pricesync.Engine {
	return pricesync.New(a.store, a.source(),
		pricesync.WithCurrency(a.cfg.Currency),
		pricesync.WithCooldown(a.cfg.Cooldown),
	)
}

// printMarkdown renders doc for the terminal in the style of the dark mode setting.
func (a *app) printMarkdown(doc string) {
	style := "light"
	if a.settings.DarkMode {
		style = "dark"
	}
	printMarkdownStyle(doc, style)
}

func printMarkdownStyle(doc, style string) {
	if *raw {
		fmt.Fprint(stdout, doc)
		return
	}
	r, err := glamour.NewTermRenderer(glamour.WithStandardStyle(style), glamour.WithWordWrap(120))
	if err != nil {
		fmt.Fprint(stdout, doc)
		return
	}
	out, err := r.Render(doc)
	if err != nil {
		fmt.Fprint(stdout, doc)
		return
	}
	fmt.Fprint(stdout, out)
}

// usageError reports invalid user input.
func usageError(format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(stderr, "Error: "+format+"\n", args...)
	return subcommands.ExitUsageError
}

// failure reports an error the user cannot fix by changing the command.
func failure(format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(stderr, "Error "+format+"\n", args...)
	return subcommands.ExitFailure
}

// joinArgs returns the positional arguments as a single string.
func joinArgs(f *flag.FlagSet) string {
	return strings.TrimSpace(strings.Join(f.Args(), " "))
}
