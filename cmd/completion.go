package cmd

import (
	"flag"
	"strings"

	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
	portfolio "github.com/swanie2000/swanies-portfolio-gemini-ver-sub000"
	"github.com/swanie2000/swanies-portfolio-gemini-ver-sub000/docs"
	"github.com/swanie2000/swanies-portfolio-gemini-ver-sub000/metals"
)

// Completion describes the commands registered in c for shell completion.
func Completion(c *subcommands.Commander) *complete.Command {
	root := &complete.Command{
		Sub:   map[string]*complete.Command{},
		Flags: map[string]complete.Predictor{},
	}
	c.VisitAll(func(f *flag.Flag) {
		root.Flags[f.Name] = flagPredictor(f)
	})

	c.VisitCommands(func(_ *subcommands.CommandGroup, cmd subcommands.Command) {
		fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
		cmd.SetFlags(fs)
		sub := &complete.Command{Flags: map[string]complete.Predictor{}}
		fs.VisitAll(func(f *flag.Flag) {
			sub.Flags[f.Name] = flagPredictor(f)
		})
		sub.Args = argsPredictor(cmd.Name())
		root.Sub[cmd.Name()] = sub
	})
	return root
}

func flagPredictor(f *flag.Flag) complete.Predictor {
	if b, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
		return predict.Nothing
	}
	switch f.Name {
	case "config":
		return predict.Files("*.yaml")
	case "o":
		return predict.Files("*.jsonl")
	case "metal", "base":
		return predict.Set(metalSymbols())
	case "set":
		keys := make([]string, 0, len(portfolio.SettingKeys))
		for _, k := range portfolio.SettingKeys {
			keys = append(keys, k+"=")
		}
		return predict.Set(keys)
	}
	return predict.Something
}

func argsPredictor(name string) complete.Predictor {
	switch name {
	case "import":
		return predict.Files("*.jsonl")
	case "topic":
		topics, err := docs.GetAllTopics()
		if err != nil {
			return predict.Nothing
		}
		return predict.Set(append(topics, "readme"))
	}
	return predict.Nothing
}

func metalSymbols() []string {
	var symbols []string
	for _, m := range metals.All() {
		symbols = append(symbols, m.Symbol, strings.ToLower(m.Symbol))
	}
	return symbols
}
