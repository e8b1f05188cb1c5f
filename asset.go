package portfolio

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Category classifies an asset.
type Category string

const (
	Crypto Category = "CRYPTO"
	Metal  Category = "METAL"
)

// ParseCategory returns the category named by s, case insensitive.
func ParseCategory(s string) (Category, error) {
	switch c := Category(strings.ToUpper(strings.TrimSpace(s))); c {
	case Crypto, Metal:
		return c, nil
	default:
		return "", fmt.Errorf("unknown category %q, want %s or %s", s, Crypto, Metal)
	}
}

func (c Category) String() string { return string(c) }

// Asset is a holding tracked by the user: an amount of a crypto currency or a
// precious metal, and its last known unit price.
//
// Custom assets are user-defined metal products (coins, bars) that track the
// spot price of BaseSymbol: their unit price is spot*Weight + Premium.
type Asset struct {
	ID           string
	Symbol       string
	Name         string
	AmountHeld   Quantity
	CurrentPrice decimal.Decimal
	Category     Category
	DisplayOrder int
	LastUpdated  time.Time

	Weight     decimal.Decimal // troy ounces per unit
	Premium    decimal.Decimal // per unit, over spot
	IsCustom   bool
	BaseSymbol string
}

// Validate returns all the invariant violations of the asset joined together.
func (a Asset) Validate() error {
	var errs error
	if strings.TrimSpace(a.ID) == "" {
		errs = errors.Join(errs, errors.New("asset id is required"))
	}
	if _, err := ParseCategory(string(a.Category)); err != nil {
		errs = errors.Join(errs, fmt.Errorf("asset %q: %w", a.ID, err))
	}
	if a.AmountHeld.IsNegative() {
		errs = errors.Join(errs, fmt.Errorf("asset %q: amount held %v must not be negative", a.ID, a.AmountHeld))
	}
	if a.CurrentPrice.IsNegative() {
		errs = errors.Join(errs, fmt.Errorf("asset %q: price %v must not be negative", a.ID, a.CurrentPrice))
	}
	if a.IsCustom {
		if a.Category != Metal {
			errs = errors.Join(errs, fmt.Errorf("asset %q: custom assets must be metals", a.ID))
		}
		if a.BaseSymbol == "" {
			errs = errors.Join(errs, fmt.Errorf("asset %q: custom assets require a base symbol", a.ID))
		}
		if !a.Weight.IsPositive() {
			errs = errors.Join(errs, fmt.Errorf("asset %q: custom assets require a positive weight, got %v", a.ID, a.Weight))
		}
		if a.Premium.IsNegative() {
			errs = errors.Join(errs, fmt.Errorf("asset %q: premium %v must not be negative", a.ID, a.Premium))
		}
	}
	return errs
}

// PriceKey returns the identifier to ask price sources for.
func (a Asset) PriceKey() string {
	if a.IsCustom && a.BaseSymbol != "" {
		return a.BaseSymbol
	}
	return a.ID
}

// PriceFrom computes the asset unit price from the quoted price of its
// PriceKey.
func (a Asset) PriceFrom(quote decimal.Decimal) decimal.Decimal {
	if !a.IsCustom {
		return quote
	}
	return quote.Mul(a.Weight).Add(a.Premium)
}

// Value returns the market value of the holding.
func (a Asset) Value(currency string) Money {
	return M(a.CurrentPrice, currency).Mul(a.AmountHeld)
}

// MarshalJSON encodes the asset in a stable field order, custom fields only
// when the asset is custom.
func (a Asset) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("id", a.ID)
	w.Append("symbol", a.Symbol)
	w.Append("name", a.Name)
	w.Append("category", a.Category)
	w.Append("amount", a.AmountHeld)
	w.Append("price", a.CurrentPrice)
	w.Append("order", a.DisplayOrder)
	if !a.LastUpdated.IsZero() {
		w.Append("updated", a.LastUpdated.UTC().Format(time.RFC3339))
	}
	if a.IsCustom {
		w.Append("custom", true)
		w.Append("base", a.BaseSymbol)
		w.Append("weight", a.Weight)
		w.Append("premium", a.Premium)
	}
	return w.MarshalJSON()
}

// UnmarshalJSON decodes the format written by MarshalJSON.
func (a *Asset) UnmarshalJSON(data []byte) error {
	type jasset struct {
		ID       string          `json:"id"`
		Symbol   string          `json:"symbol"`
		Name     string          `json:"name"`
		Category string          `json:"category"`
		Amount   Quantity        `json:"amount"`
		Price    decimal.Decimal `json:"price"`
		Order    int             `json:"order"`
		Updated  string          `json:"updated"`
		Custom   bool            `json:"custom"`
		Base     string          `json:"base"`
		Weight   decimal.Decimal `json:"weight"`
		Premium  decimal.Decimal `json:"premium"`
	}
	var ja jasset
	if err := json.Unmarshal(data, &ja); err != nil {
		return err
	}
	category, err := ParseCategory(ja.Category)
	if err != nil {
		return err
	}
	var updated time.Time
	if ja.Updated != "" {
		if updated, err = time.Parse(time.RFC3339, ja.Updated); err != nil {
			return fmt.Errorf("asset %q: invalid update time: %w", ja.ID, err)
		}
	}
	*a = Asset{
		ID:           ja.ID,
		Symbol:       ja.Symbol,
		Name:         ja.Name,
		AmountHeld:   ja.Amount,
		CurrentPrice: ja.Price,
		Category:     category,
		DisplayOrder: ja.Order,
		LastUpdated:  updated,
		Weight:       ja.Weight,
		Premium:      ja.Premium,
		IsCustom:     ja.Custom,
		BaseSymbol:   ja.Base,
	}
	return nil
}
