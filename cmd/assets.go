package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"
	portfolio "github.com/swanie2000/swanies-portfolio-gemini-ver-sub000"
	"github.com/swanie2000/swanies-portfolio-gemini-ver-sub000/metals"
	"github.com/swanie2000/swanies-portfolio-gemini-ver-sub000/store"
)

// assetID normalizes an id entered by the user the way 'add' stores it:
// metal symbols in upper case, other ids in lower case.
func assetID(id string) string {
	id = strings.TrimSpace(id)
	if m, ok := metals.Lookup(id); ok {
		return m.Symbol
	}
	return strings.ToLower(id)
}

// assetIDs normalizes all ids.
func assetIDs(ids []string) []string {
	res := make([]string, 0, len(ids))
	for _, id := range ids {
		res = append(res, assetID(id))
	}
	return res
}

type amountCmd struct{}

func (*amountCmd) Name() string     { return "amount" }
func (*amountCmd) Synopsis() string { return "change the amount held of an asset" }
func (*amountCmd) Usage() string {
	return `swan amount <id> <amount>

  Sets the amount held of an asset. An invalid amount is rejected and the
  previous amount is kept.
`
}

func (*amountCmd) SetFlags(f *flag.FlagSet) {}

func (*amountCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 2 {
		return usageError("an asset id and an amount are required")
	}
	id := assetID(f.Arg(0))
	amount, err := portfolio.ParseAmount(f.Arg(1))
	if err != nil {
		return usageError("%v", err)
	}

	a, status := mustOpenApp(ctx)
	if a == nil {
		return status
	}
	defer a.Close()

	asset, err := a.store.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return usageError("%v", err)
	}
	if err != nil {
		return failure("reading assets: %v", err)
	}
	previous := asset.AmountHeld
	asset.AmountHeld = amount
	if err := a.store.Upsert(ctx, asset); err != nil {
		return failure("saving %q: %v", id, err)
	}
	fmt.Fprintf(stdout, "%s: %s -> %s\n", asset.Name, previous, amount)
	return subcommands.ExitSuccess
}

type rmCmd struct{}

func (*rmCmd) Name() string     { return "rm" }
func (*rmCmd) Synopsis() string { return "remove assets from the portfolio" }
func (*rmCmd) Usage() string {
	return `swan rm <id>...

  Removes the assets. Unknown ids are ignored.
`
}

func (*rmCmd) SetFlags(f *flag.FlagSet) {}

func (*rmCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		return usageError("at least one asset id is required")
	}
	a, status := mustOpenApp(ctx)
	if a == nil {
		return status
	}
	defer a.Close()

	var errs error
	for _, id := range assetIDs(f.Args()) {
		errs = errors.Join(errs, a.store.Delete(ctx, id))
	}
	if errs != nil {
		return failure("removing assets: %v", errs)
	}
	return subcommands.ExitSuccess
}

type reorderCmd struct{}

func (*reorderCmd) Name() string     { return "reorder" }
func (*reorderCmd) Synopsis() string { return "change the display order of assets" }
func (*reorderCmd) Usage() string {
	return `swan reorder <id>...

  Displays the listed assets first, in that order. Other assets keep their
  relative order after them.
`
}

func (*reorderCmd) SetFlags(f *flag.FlagSet) {}

func (*reorderCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		return usageError("at least one asset id is required")
	}
	a, status := mustOpenApp(ctx)
	if a == nil {
		return status
	}
	defer a.Close()

	ids, unknown, err := orderedIDs(ctx, a.store, assetIDs(f.Args()))
	if err != nil {
		return failure("reading assets: %v", err)
	}
	for _, id := range unknown {
		fmt.Fprintf(stderr, "Warning: unknown asset %q ignored\n", id)
	}
	if err := a.store.Reorder(ctx, ids...); err != nil {
		return failure("reordering assets: %v", err)
	}
	return subcommands.ExitSuccess
}

// orderedIDs returns the known ids first, then all the other assets in their
// current order.
func orderedIDs(ctx context.Context, s *store.Store, first []string) (ids, unknown []string, err error) {
	assets, err := s.All(ctx)
	if err != nil {
		return nil, nil, err
	}
	known := make(map[string]bool, len(assets))
	for _, asset := range assets {
		known[asset.ID] = true
	}
	listed := make(map[string]bool, len(first))
	for _, id := range first {
		if !known[id] {
			unknown = append(unknown, id)
			continue
		}
		if !listed[id] {
			listed[id] = true
			ids = append(ids, id)
		}
	}
	for _, asset := range assets {
		if !listed[asset.ID] {
			ids = append(ids, asset.ID)
		}
	}
	return ids, unknown, nil
}
