package cmd

import (
	"context"
	"flag"

	"github.com/google/subcommands"
	"github.com/swanie2000/swanies-portfolio-gemini-ver-sub000/coingecko"
	"github.com/swanie2000/swanies-portfolio-gemini-ver-sub000/metals"
	"github.com/swanie2000/swanies-portfolio-gemini-ver-sub000/renderer"
)

// searchCmd holds the flags for the 'search' subcommand.
type searchCmd struct {
	metalsOnly bool
}

func (*searchCmd) Name() string     { return "search" }
func (*searchCmd) Synopsis() string { return "search crypto currencies and metals" }
func (*searchCmd) Usage() string {
	return `swan search [-metals] <query>

  Lists the coins and metals whose name or symbol contains the query, case
  insensitive.
`
}

func (c *searchCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.metalsOnly, "metals", false, "search metals only, without remote call")
}

func (c *searchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	query := joinArgs(f)
	if query == "" {
		return usageError("a search term is required")
	}

	a, status := mustOpenApp(ctx)
	if a == nil {
		return status
	}
	defer a.Close()

	var coins []coingecko.SearchResult
	if !c.metalsOnly {
		var err error
		if coins, err = a.coingecko().Search(ctx, query); err != nil {
			return failure("searching coins: %v", err)
		}
	}
	a.printMarkdown(renderer.SearchMarkdown(query, coins, metals.Search(query)))
	return subcommands.ExitSuccess
}

// marketsCmd holds the flags for the 'markets' subcommand.
type marketsCmd struct {
	n int
}

func (*marketsCmd) Name() string     { return "markets" }
func (*marketsCmd) Synopsis() string { return "list crypto markets with a 7 days trend" }
func (*marketsCmd) Usage() string {
	return `swan markets [-n <count>] [<id>...]

  Lists the top coins by market cap, or the given coins.
`
}

func (c *marketsCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.n, "n", 20, "number of coins to list")
}

func (c *marketsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.n <= 0 || c.n > 250 {
		return usageError("-n must be between 1 and 250")
	}
	a, status := mustOpenApp(ctx)
	if a == nil {
		return status
	}
	defer a.Close()

	coins, err := a.coingecko().Markets(ctx, coingecko.MarketsQuery{
		Currency: a.cfg.Currency,
		IDs:      f.Args(),
		PerPage:  c.n,
	})
	if err != nil {
		return failure("listing markets: %v", err)
	}
	a.printMarkdown(renderer.MarketsMarkdown(coins, a.cfg.Currency))
	return subcommands.ExitSuccess
}
