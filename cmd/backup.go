package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"
	portfolio "github.com/swanie2000/swanies-portfolio-gemini-ver-sub000"
)

// exportCmd holds the flags for the 'export' subcommand.
type exportCmd struct {
	output string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "export all assets in JSONL format" }
func (*exportCmd) Usage() string {
	return `swan export [-o <file>]

  Writes all assets, one JSON object per line, see 'swan topic backup'.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "o", "", "output file, the standard output by default")
}

func (c *exportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, status := mustOpenApp(ctx)
	if a == nil {
		return status
	}
	defer a.Close()

	assets, err := a.store.All(ctx)
	if err != nil {
		return failure("reading assets: %v", err)
	}

	var w io.Writer = stdout
	if c.output != "" {
		file, err := os.Create(c.output)
		if err != nil {
			return failure("creating %q: %v", c.output, err)
		}
		defer file.Close()
		w = file
	}
	if err := portfolio.ExportAssets(w, assets); err != nil {
		return failure("exporting assets: %v", err)
	}
	return subcommands.ExitSuccess
}

type importCmd struct{}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import assets from a JSONL file" }
func (*importCmd) Usage() string {
	return `swan import <file>

  Reads assets written by 'swan export'. All assets are validated first,
  then saved in a single transaction, replacing assets with the same id.
`
}

func (*importCmd) SetFlags(f *flag.FlagSet) {}

func (*importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usageError("a file to import is required")
	}
	file, err := os.Open(f.Arg(0))
	if err != nil {
		return usageError("%v", err)
	}
	defer file.Close()

	assets, err := portfolio.ImportAssets(file)
	if err != nil {
		return usageError("invalid file %q: %v", f.Arg(0), err)
	}

	a, status := mustOpenApp(ctx)
	if a == nil {
		return status
	}
	defer a.Close()

	if err := a.store.Upsert(ctx, assets...); err != nil {
		return failure("saving assets: %v", err)
	}
	fmt.Fprintf(stdout, "Imported %d assets\n", len(assets))
	return subcommands.ExitSuccess
}
