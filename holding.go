package portfolio

import (
	"time"

	"github.com/shopspring/decimal"
)

// HoldingReport is the aggregate view of the held assets.
type HoldingReport struct {
	Currency   string
	Lines      []HoldingLine
	Categories []CategoryTotal
	Total      Money
	// Oldest is the oldest price refresh time among the assets, zero if any
	// asset was never refreshed.
	Oldest time.Time
}

// HoldingLine represents the holding of a single asset.
type HoldingLine struct {
	Asset Asset
	Value Money
	Share decimal.Decimal // of the total value, in [0,1]
}

// CategoryTotal holds the subtotal of a category.
type CategoryTotal struct {
	Category Category
	Count    int
	Value    Money
	Share    decimal.Decimal
}

// NewHoldingReport computes the report for assets, in the given order.
func NewHoldingReport(assets []Asset, currency string) *HoldingReport {
	r := &HoldingReport{
		Currency: currency,
		Lines:    make([]HoldingLine, 0, len(assets)),
		Total:    M(0, currency),
	}

	subtotals := map[Category]*CategoryTotal{
		Crypto: {Category: Crypto, Value: M(0, currency)},
		Metal:  {Category: Metal, Value: M(0, currency)},
	}
	for i, a := range assets {
		value := a.Value(currency)
		r.Total = r.Total.Add(value)
		r.Lines = append(r.Lines, HoldingLine{Asset: a, Value: value})

		if st, ok := subtotals[a.Category]; ok {
			st.Count++
			st.Value = st.Value.Add(value)
		}

		if i == 0 || a.LastUpdated.Before(r.Oldest) {
			r.Oldest = a.LastUpdated
		}
	}

	for i := range r.Lines {
		r.Lines[i].Share = r.Lines[i].Value.Ratio(r.Total)
	}
	for _, c := range []Category{Crypto, Metal} {
		st := subtotals[c]
		if st.Count == 0 {
			continue
		}
		st.Share = st.Value.Ratio(r.Total)
		r.Categories = append(r.Categories, *st)
	}
	return r
}
