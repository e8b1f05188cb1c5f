// Command swan tracks a portfolio of crypto currencies and precious metals.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"
	"github.com/swanie2000/swanies-portfolio-gemini-ver-sub000/cmd"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, "swan")
	cmd.Register(commander)

	// answers shell completion requests, then exits.
	cmd.Completion(commander).Complete("swan")

	flag.Parse()

	if name := flag.Arg(0); name != "" && !registered(commander, name) {
		if found, code := cmd.RunExtension(name, flag.Args()[1:]); found {
			os.Exit(code)
		}
	}
	os.Exit(int(commander.Execute(context.Background())))
}

func registered(c *subcommands.Commander, name string) bool {
	found := false
	c.VisitCommands(func(_ *subcommands.CommandGroup, command subcommands.Command) {
		if command.Name() == name {
			found = true
		}
	})
	return found
}
