package coingecko

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

// Prices implements portfolio.PriceSource with the simple/price endpoint.
// Ids unknown to CoinGecko, or quoted null or a non positive price, are
// absent from the result. Ids are sent in
// batches of the configured size, any failed batch fails the whole call.
func (c *Client) Prices(ctx context.Context, ids []string, currency string) (map[string]decimal.Decimal, error) {
	vs := strings.ToLower(currency)
	result := make(map[string]decimal.Decimal, len(ids))
	for start := 0; start < len(ids); start += c.batchSize {
		batch := ids[start:min(start+c.batchSize, len(ids))]

		// {"bitcoin":{"usd":65000.12},"ethereum":{"usd":3400}}
		var content map[string]map[string]*decimal.Decimal
		addr := c.endpoint("/simple/price", url.Values{
			"ids":           {strings.Join(batch, ",")},
			"vs_currencies": {vs},
		})
		if err := c.getJSON(ctx, c.http, addr, &content); err != nil {
			return nil, err
		}
		for id, quotes := range content {
			p := quotes[vs]
			if p == nil || !p.IsPositive() {
				slog.Debug("ignoring coingecko quote", "id", id, "currency", vs)
				continue
			}
			result[id] = *p
		}
	}
	return result, nil
}
