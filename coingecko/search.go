package coingecko

import (
	"context"
	"net/url"
	"strings"

	portfolio "github.com/swanie2000/swanies-portfolio-gemini-ver-sub000"
)

// SearchResult is a coin returned by the search endpoint.
type SearchResult struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	MarketCapRank int    `json:"market_cap_rank"`
	Thumb         string `json:"thumb"`
}

// Search returns the coins whose name or symbol contains query, case
// insensitive. A blank query returns nothing without calling the API.
func (c *Client) Search(ctx context.Context, query string) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	var content struct {
		Coins []SearchResult `json:"coins"`
	}
	addr := c.endpoint("/search", url.Values{"query": {query}})
	if err := c.getJSON(ctx, c.search, addr, &content); err != nil {
		return nil, err
	}

	// the API also matches on ids and aliases.
	results := make([]SearchResult, 0, len(content.Coins))
	for _, coin := range content.Coins {
		if portfolio.Matches(query, coin.Name, coin.Symbol) {
			results = append(results, coin)
		}
	}
	return results, nil
}
