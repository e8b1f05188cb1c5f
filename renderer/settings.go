package renderer

import (
	"bytes"
	"fmt"
	"strings"

	md "github.com/nao1215/markdown"
	portfolio "github.com/swanie2000/swanies-portfolio-gemini-ver-sub000"
	"github.com/swanie2000/swanies-portfolio-gemini-ver-sub000/coingecko"
	"github.com/swanie2000/swanies-portfolio-gemini-ver-sub000/metals"
)

// SettingsMarkdown renders the settings, marking the ones changed from the
// defaults.
func SettingsMarkdown(s portfolio.Settings) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Settings")
	current, defaults := s.Map(), portfolio.DefaultSettings().Map()
	table := md.TableSet{Header: []string{"Key", "Value", "Default"}}
	for _, key := range portfolio.SettingKeys {
		value := current[key]
		if value != defaults[key] {
			value = md.Bold(value)
		}
		table.Rows = append(table.Rows, []string{key, value, defaults[key]})
	}
	doc.Table(table)
	return doc.String()
}

// SearchMarkdown renders coin and metal search results.
func SearchMarkdown(query string, coins []coingecko.SearchResult, found []metals.Metal) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(fmt.Sprintf("Search %q", query))
	if len(coins) == 0 && len(found) == 0 {
		doc.PlainText("No match.")
		return doc.String()
	}
	if len(found) > 0 {
		doc.H2("Metals")
		table := md.TableSet{Header: []string{"Symbol", "Name"}}
		for _, m := range found {
			table.Rows = append(table.Rows, []string{m.Symbol, m.Name})
		}
		doc.Table(table)
	}
	if len(coins) > 0 {
		doc.H2("Coins")
		table := md.TableSet{Header: []string{"ID", "Symbol", "Name", "Rank"}}
		for _, c := range coins {
			rank := "-"
			if c.MarketCapRank > 0 {
				rank = fmt.Sprint(c.MarketCapRank)
			}
			table.Rows = append(table.Rows, []string{c.ID, strings.ToUpper(c.Symbol), c.Name, rank})
		}
		doc.Table(table)
	}
	return doc.String()
}
