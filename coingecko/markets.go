package coingecko

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// MarketCoin is an entry of the coins/markets endpoint.
type MarketCoin struct {
	ID                       string          `json:"id"`
	Symbol                   string          `json:"symbol"`
	Name                     string          `json:"name"`
	Image                    string          `json:"image"`
	CurrentPrice             decimal.Decimal `json:"current_price"`
	MarketCapRank            int             `json:"market_cap_rank"`
	PriceChangePercentage24h float64         `json:"price_change_percentage_24h"`
	SparklineIn7d            struct {
		Price []float64 `json:"price"`
	} `json:"sparkline_in_7d"`
}

// MarketsQuery selects the coins to list.
type MarketsQuery struct {
	Currency string   // default usd
	IDs      []string // all coins if empty
	PerPage  int      // default 20
}

// Markets lists coins ordered by market cap, with their 7 days sparkline.
func (c *Client) Markets(ctx context.Context, q MarketsQuery) ([]MarketCoin, error) {
	if q.Currency == "" {
		q.Currency = "usd"
	}
	if q.PerPage <= 0 {
		q.PerPage = 20
	}
	query := url.Values{
		"vs_currency":             {strings.ToLower(q.Currency)},
		"order":                   {"market_cap_desc"},
		"per_page":                {strconv.Itoa(q.PerPage)},
		"page":                    {"1"},
		"sparkline":               {"true"},
		"price_change_percentage": {"24h"},
	}
	if len(q.IDs) > 0 {
		query.Set("ids", strings.Join(q.IDs, ","))
	}

	coins := make([]MarketCoin, 0)
	if err := c.getJSON(ctx, c.http, c.endpoint("/coins/markets", query), &coins); err != nil {
		return nil, err
	}
	return coins, nil
}

// Coin returns the market entry of a single coin.
func (c *Client) Coin(ctx context.Context, id string) (MarketCoin, error) {
	coins, err := c.Markets(ctx, MarketsQuery{IDs: []string{id}, PerPage: 1})
	if err != nil {
		return MarketCoin{}, err
	}
	for _, coin := range coins {
		if coin.ID == id {
			return coin, nil
		}
	}
	return MarketCoin{}, &UnknownCoinError{ID: id}
}

// UnknownCoinError is returned when CoinGecko does not list a coin.
type UnknownCoinError struct{ ID string }

func (e *UnknownCoinError) Error() string { return "unknown coin " + strconv.Quote(e.ID) }
