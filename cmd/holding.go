package cmd

import (
	"context"
	"flag"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/subcommands"
	portfolio "github.com/swanie2000/swanies-portfolio-gemini-ver-sub000"
	"github.com/swanie2000/swanies-portfolio-gemini-ver-sub000/pricesync"
	"github.com/swanie2000/swanies-portfolio-gemini-ver-sub000/renderer"
)

// holdingCmd holds the flags for the 'holding' subcommand.
type holdingCmd struct {
	update bool
}

func (*holdingCmd) Name() string     { return "holding" }
func (*holdingCmd) Synopsis() string { return "display the portfolio value" }
func (*holdingCmd) Usage() string {
	return `swan holding [-u]

  Displays the held assets, their value and the total value of the portfolio
  from the last known prices.
`
}

func (c *holdingCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.update, "u", false, "refresh prices before displaying the portfolio")
}

func (c *holdingCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, status := mustOpenApp(ctx)
	if a == nil {
		return status
	}
	defer a.Close()

	if c.update {
		if o := a.engine().Refresh(ctx); o.Status == pricesync.Failed {
			fmt.Fprintf(stderr, "Warning: %v, showing the last known prices\n", o)
		}
	}

	assets, err := a.store.All(ctx)
	if err != nil {
		return failure("reading assets: %v", err)
	}
	a.printHolding(assets)
	return subcommands.ExitSuccess
}

func (a *app) printHolding(assets []portfolio.Asset) {
	report := portfolio.NewHoldingReport(assets, a.cfg.Currency)
	a.printMarkdown(renderer.HoldingMarkdown(report, a.settings, time.Now()))
}

type refreshCmd struct{}

func (*refreshCmd) Name() string     { return "refresh" }
func (*refreshCmd) Synopsis() string { return "refresh the price of all held assets" }
func (*refreshCmd) Usage() string {
	return `swan refresh

  Fetches the latest price of every held asset. Refreshing again within the
  cooldown does nothing. On failure the previous prices are kept.
`
}

func (*refreshCmd) SetFlags(f *flag.FlagSet) {}

func (*refreshCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, status := mustOpenApp(ctx)
	if a == nil {
		return status
	}
	defer a.Close()

	o := a.engine().Refresh(ctx)
	if o.Status == pricesync.Failed {
		fmt.Fprintf(stderr, "Error: %v, prices are unchanged\n", o)
		return subcommands.ExitFailure
	}
	fmt.Fprintln(stdout, o)
	for _, id := range o.Missing {
		fmt.Fprintf(stderr, "Warning: no price for %q\n", id)
	}
	return subcommands.ExitSuccess
}

// watchCmd holds the flags for the 'watch' subcommand.
type watchCmd struct {
	every time.Duration
}

func (*watchCmd) Name() string     { return "watch" }
func (*watchCmd) Synopsis() string { return "refresh periodically and display the portfolio" }
func (*watchCmd) Usage() string {
	return `swan watch [-every <duration>]

  Refreshes prices periodically and displays the portfolio after every
  change, until interrupted.
`
}

func (c *watchCmd) SetFlags(f *flag.FlagSet) {
	f.DurationVar(&c.every, "every", 0, "refresh period, the configured watch interval by default")
}

func (c *watchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, status := mustOpenApp(ctx)
	if a == nil {
		return status
	}
	defer a.Close()

	every := c.every
	if every == 0 {
		every = a.cfg.WatchInterval
	}
	// ticks exactly one cooldown apart may land just inside it.
	if every <= a.cfg.Cooldown {
		return usageError("-every %v must be longer than the refresh cooldown %v", every, a.cfg.Cooldown)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	snapshots, cancel, err := a.store.Subscribe(ctx)
	if err != nil {
		return failure("reading assets: %v", err)
	}
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		a.engine().Run(ctx, every, func(o pricesync.Outcome) {
			if o.Status == pricesync.Failed {
				fmt.Fprintf(stderr, "Warning: %v\n", o)
			}
		})
	}()
	// the engine must be done with the store before it is closed.
	defer func() {
		stop()
		<-done
	}()

	for {
		select {
		case <-ctx.Done():
			return subcommands.ExitSuccess
		case assets, ok := <-snapshots:
			if !ok {
				return subcommands.ExitSuccess
			}
			a.printHolding(assets)
		}
	}
}
