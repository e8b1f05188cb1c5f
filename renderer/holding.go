package renderer

import (
	"bytes"
	"fmt"
	"time"

	md "github.com/nao1215/markdown"
	"github.com/shopspring/decimal"
	portfolio "github.com/swanie2000/swanies-portfolio-gemini-ver-sub000"
)

// HoldingMarkdown renders the portfolio table, the category subtotals and the
// total value. The compact view only shows the asset name and value.
func HoldingMarkdown(r *portfolio.HoldingReport, s portfolio.Settings, now time.Time) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Portfolio")
	if len(r.Lines) == 0 {
		doc.PlainText("No asset held yet, add one with `swan add`.")
		return doc.String()
	}
	doc.PlainText(fmt.Sprintf("Total Value: %s", md.Bold(r.Total.String())))
	doc.PlainText(fmt.Sprintf("Prices: %s", Staleness(r.Oldest, now)))

	doc.H2("Assets")
	table := md.TableSet{Header: []string{"Asset", "Value"}}
	if !s.CompactView {
		table.Header = []string{"Asset", "Symbol", "Amount", "Price", "Value", "Share"}
	}
	for _, l := range r.Lines {
		name := l.Asset.Name
		if l.Asset.IsCustom {
			name += fmt.Sprintf(" (%s oz %s)", l.Asset.Weight, l.Asset.BaseSymbol)
		}
		if s.CompactView {
			table.Rows = append(table.Rows, []string{name, l.Value.String()})
			continue
		}
		table.Rows = append(table.Rows, []string{
			name,
			l.Asset.Symbol,
			l.Asset.AmountHeld.String(),
			portfolio.M(l.Asset.CurrentPrice, r.Currency).String(),
			l.Value.String(),
			Percent(l.Share),
		})
	}
	doc.Table(table)

	if len(r.Categories) > 1 {
		doc.H2("By Category")
		cats := md.TableSet{Header: []string{"Category", "Assets", "Value", "Share"}}
		for _, c := range r.Categories {
			cats.Rows = append(cats.Rows, []string{
				string(c.Category),
				fmt.Sprint(c.Count),
				c.Value.String(),
				Percent(c.Share),
			})
		}
		doc.Table(cats)
	}
	return doc.String()
}

// Percent formats a ratio as a percentage.
func Percent(ratio decimal.Decimal) string {
	return ratio.Mul(decimal.NewFromInt(100)).StringFixed(1) + "%"
}

// Staleness describes how old the oldest price is.
func Staleness(oldest, now time.Time) string {
	if oldest.IsZero() {
		return "some prices were never refreshed, run `swan refresh`"
	}
	age := now.Sub(oldest).Round(time.Second)
	if age < time.Minute {
		return "up to date"
	}
	return fmt.Sprintf("refreshed %v ago", age)
}
