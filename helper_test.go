package portfolio

import (
	"time"

	"github.com/shopspring/decimal"
)

// USD is a helper for test to create usd money from const
func USD(v float64) Money { return M(v, "USD") }

// D is a helper for test to create decimals from const
func D(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

var refreshed = time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

func bitcoin(amount float64) Asset {
	return Asset{ID: "bitcoin", Symbol: "BTC", Name: "Bitcoin", AmountHeld: Q(amount), CurrentPrice: D(50000), Category: Crypto, LastUpdated: refreshed}
}

func silver(amount float64) Asset {
	return Asset{ID: "XAG", Symbol: "XAG", Name: "Silver", AmountHeld: Q(amount), CurrentPrice: D(30), Category: Metal, DisplayOrder: 1, LastUpdated: refreshed}
}

func eagle(amount float64) Asset {
	return Asset{ID: "custom-eagle", Symbol: "XAG", Name: "Silver Eagle", AmountHeld: Q(amount), CurrentPrice: D(34.5), Category: Metal, DisplayOrder: 2,
		IsCustom: true, BaseSymbol: "XAG", Weight: D(1), Premium: D(4.5)}
}
