package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/google/subcommands"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	portfolio "github.com/swanie2000/swanies-portfolio-gemini-ver-sub000"
	"github.com/swanie2000/swanies-portfolio-gemini-ver-sub000/coingecko"
	"github.com/swanie2000/swanies-portfolio-gemini-ver-sub000/metals"
	"github.com/swanie2000/swanies-portfolio-gemini-ver-sub000/store"
)

// addCmd holds the flags for the 'add' subcommand.
type addCmd struct {
	id    string
	metal string
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "add a crypto currency or a metal to the portfolio" }
func (*addCmd) Usage() string {
	return `swan add -id <coingecko id> <amount>
swan add -metal <symbol> <amount>

  Adds a holding at the end of the portfolio. Crypto currencies are
  identified by their CoinGecko id, see 'swan search'.
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "CoinGecko id of the crypto currency, e.g. bitcoin")
	f.StringVar(&c.metal, "metal", "", "symbol of the metal: XAU, XAG, XPT or XPD")
}

func (c *addCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if (c.id == "") == (c.metal == "") {
		return usageError("exactly one of -id or -metal is required")
	}
	if f.NArg() != 1 {
		return usageError("the amount held is required")
	}
	amount, err := portfolio.ParseAmount(f.Arg(0))
	if err != nil {
		return usageError("%v", err)
	}

	var metal metals.Metal
	if c.metal != "" {
		var ok bool
		if metal, ok = metals.Lookup(c.metal); !ok {
			return usageError("unknown metal %q, see 'swan topic metals'", c.metal)
		}
	}

	a, status := mustOpenApp(ctx)
	if a == nil {
		return status
	}
	defer a.Close()

	id := strings.ToLower(strings.TrimSpace(c.id))
	if c.metal != "" {
		id = metal.Symbol
	}
	if _, err := a.store.Get(ctx, id); err == nil {
		return usageError("%q is already held, use 'swan amount %s <amount>'", id, id)
	} else if !errors.Is(err, store.ErrNotFound) {
		return failure("reading assets: %v", err)
	}

	order, err := a.store.NextDisplayOrder(ctx)
	if err != nil {
		return failure("reading assets: %v", err)
	}

	var asset portfolio.Asset
	if c.metal != "" {
		asset = metal.Asset(amount, order)
	} else {
		coin, err := a.coingecko().Coin(ctx, id)
		var unknown *coingecko.UnknownCoinError
		if errors.As(err, &unknown) {
			return usageError("%v, see 'swan search'", err)
		}
		if err != nil {
			return failure("fetching %q: %v", id, err)
		}
		asset = portfolio.Asset{
			ID:           coin.ID,
			Symbol:       strings.ToUpper(coin.Symbol),
			Name:         coin.Name,
			AmountHeld:   amount,
			CurrentPrice: coin.CurrentPrice,
			Category:     portfolio.Crypto,
			DisplayOrder: order,
			LastUpdated:  time.Now(),
		}
	}

	if err := a.store.Upsert(ctx, asset); err != nil {
		return failure("saving %q: %v", asset.ID, err)
	}
	fmt.Fprintf(stdout, "Added %s %s (%s)\n", asset.AmountHeld, asset.Name, asset.ID)
	return subcommands.ExitSuccess
}

// addCustomCmd holds the flags for the 'add-custom' subcommand.
type addCustomCmd struct {
	base    string
	weight  string
	premium string
	name    string
	symbol  string
}

func (*addCustomCmd) Name() string     { return "add-custom" }
func (*addCustomCmd) Synopsis() string { return "add a custom metal product, priced from spot" }
func (*addCustomCmd) Usage() string {
	return `swan add-custom -base <metal> -weight <oz> [-premium <price>] -name <name> <amount>

  Adds a coin or bar of a metal. Its unit price is spot * weight + premium,
  the weight in troy ounces.
`
}

func (c *addCustomCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.base, "base", "", "symbol of the metal the product is made of")
	f.StringVar(&c.weight, "weight", "1", "weight of one unit in troy ounces")
	f.StringVar(&c.premium, "premium", "0", "price of one unit over the spot price")
	f.StringVar(&c.name, "name", "", "name of the product")
	f.StringVar(&c.symbol, "symbol", "", "short name of the product, the base symbol by default")
}

// asset validates the flags and returns the custom asset.
func (c *addCustomCmd) asset(amount portfolio.Quantity, order int) (portfolio.Asset, error) {
	metal, ok := metals.Lookup(c.base)
	if !ok {
		return portfolio.Asset{}, fmt.Errorf("unknown base metal %q", c.base)
	}
	if strings.TrimSpace(c.name) == "" {
		return portfolio.Asset{}, errors.New("a name is required")
	}
	weight, err := decimal.NewFromString(c.weight)
	if err != nil || !weight.IsPositive() {
		return portfolio.Asset{}, fmt.Errorf("invalid weight %q, it must be a positive number", c.weight)
	}
	premium, err := portfolio.ParseAmount(c.premium)
	if err != nil {
		return portfolio.Asset{}, fmt.Errorf("invalid premium: %w", err)
	}
	symbol := c.symbol
	if symbol == "" {
		symbol = metal.Symbol
	}
	a := portfolio.Asset{
		ID:           "custom-" + uuid.NewString(),
		Symbol:       strings.ToUpper(symbol),
		Name:         strings.TrimSpace(c.name),
		AmountHeld:   amount,
		Category:     portfolio.Metal,
		DisplayOrder: order,
		Weight:       weight,
		Premium:      premium.Decimal(),
		IsCustom:     true,
		BaseSymbol:   metal.Symbol,
	}
	return a, a.Validate()
}

func (c *addCustomCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usageError("the amount held is required")
	}
	amount, err := portfolio.ParseAmount(f.Arg(0))
	if err != nil {
		return usageError("%v", err)
	}
	if _, err := c.asset(amount, 0); err != nil {
		return usageError("%v", err)
	}

	a, status := mustOpenApp(ctx)
	if a == nil {
		return status
	}
	defer a.Close()

	order, err := a.store.NextDisplayOrder(ctx)
	if err != nil {
		return failure("reading assets: %v", err)
	}
	asset, _ := c.asset(amount, order)
	if err := a.store.Upsert(ctx, asset); err != nil {
		return failure("saving %q: %v", asset.ID, err)
	}
	fmt.Fprintf(stdout, "Added %s %s (%s)\n", asset.AmountHeld, asset.Name, asset.ID)
	return subcommands.ExitSuccess
}
