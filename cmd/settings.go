package cmd

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"
	portfolio "github.com/swanie2000/swanies-portfolio-gemini-ver-sub000"
	"github.com/swanie2000/swanies-portfolio-gemini-ver-sub000/renderer"
)

// assignments collects repeated key=value flags.
type assignments []string

func (a *assignments) String() string { return strings.Join(*a, ",") }
func (a *assignments) Set(v string) error {
	if !strings.Contains(v, "=") {
		return fmt.Errorf("%q is not a key=value assignment", v)
	}
	*a = append(*a, v)
	return nil
}

// settingsCmd holds the flags for the 'settings' subcommand.
type settingsCmd struct {
	set   assignments
	reset bool
}

func (*settingsCmd) Name() string     { return "settings" }
func (*settingsCmd) Synopsis() string { return "show or change the display settings" }
func (*settingsCmd) Usage() string {
	return `swan settings [-set key=value]... [-reset]

  Shows the display settings, after changing them if requested. Settings are
  all validated before any is saved.
`
}

func (c *settingsCmd) SetFlags(f *flag.FlagSet) {
	f.Var(&c.set, "set", "change a setting, can be repeated, e.g. -set dark_mode=false")
	f.BoolVar(&c.reset, "reset", false, "restore the default settings")
}

func (c *settingsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, status := mustOpenApp(ctx)
	if a == nil {
		return status
	}
	defer a.Close()

	settings := a.settings
	if c.reset {
		settings = portfolio.DefaultSettings()
	}
	for _, kv := range c.set {
		key, value, _ := strings.Cut(kv, "=")
		if err := settings.Set(strings.TrimSpace(key), strings.TrimSpace(value)); err != nil {
			return usageError("%v", err)
		}
	}

	if c.reset || len(c.set) > 0 {
		if err := a.store.SaveSettings(ctx, settings); err != nil {
			return failure("saving settings: %v", err)
		}
		a.settings = settings
	}
	a.printMarkdown(renderer.SettingsMarkdown(a.settings))
	return subcommands.ExitSuccess
}
