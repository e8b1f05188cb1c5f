// Package metals lists the supported precious metals and quotes their spot
// price.
package metals

import (
	"strings"

	portfolio "github.com/swanie2000/swanies-portfolio-gemini-ver-sub000"
)

// Metal is a precious metal quoted per troy ounce.
type Metal struct {
	Name   string
	Symbol string
}

var all = []Metal{
	{Name: "Gold", Symbol: "XAU"},
	{Name: "Silver", Symbol: "XAG"},
	{Name: "Platinum", Symbol: "XPT"},
	{Name: "Palladium", Symbol: "XPD"},
}

// All returns the supported metals.
func All() []Metal {
	return append([]Metal(nil), all...)
}

// Search returns the metals whose name or symbol contains query, case
// insensitive. A blank query returns nothing.
func Search(query string) []Metal {
	var res []Metal
	for _, m := range all {
		if portfolio.Matches(query, m.Name, m.Symbol) {
			res = append(res, m)
		}
	}
	return res
}

// Lookup returns the metal of that symbol, case insensitive.
func Lookup(symbol string) (Metal, bool) {
	for _, m := range all {
		if strings.EqualFold(m.Symbol, strings.TrimSpace(symbol)) {
			return m, true
		}
	}
	return Metal{}, false
}

// IsMetal reports whether symbol is a supported metal.
func IsMetal(symbol string) bool {
	_, ok := Lookup(symbol)
	return ok
}

// Asset returns a new holding of that metal.
func (m Metal) Asset(amount portfolio.Quantity, order int) portfolio.Asset {
	return portfolio.Asset{
		ID:           m.Symbol,
		Symbol:       m.Symbol,
		Name:         m.Name,
		AmountHeld:   amount,
		Category:     portfolio.Metal,
		DisplayOrder: order,
	}
}
