package renderer

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	md "github.com/nao1215/markdown"
	portfolio "github.com/swanie2000/swanies-portfolio-gemini-ver-sub000"
	"github.com/swanie2000/swanies-portfolio-gemini-ver-sub000/coingecko"
)

// MarketsMarkdown renders the market listing with a 7 days sparkline.
func MarketsMarkdown(coins []coingecko.MarketCoin, currency string) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Markets")
	table := md.TableSet{Header: []string{"#", "Coin", "Price", "24h", "7d"}}
	for _, c := range coins {
		table.Rows = append(table.Rows, []string{
			fmt.Sprint(c.MarketCapRank),
			fmt.Sprintf("%s (%s) `%s`", c.Name, strings.ToUpper(c.Symbol), c.ID),
			portfolio.M(c.CurrentPrice, currency).String(),
			fmt.Sprintf("%+.2f%%", c.PriceChangePercentage24h),
			Sparkline(c.SparklineIn7d.Price, 24),
		})
	}
	doc.Table(table)
	return doc.String()
}

var ticks = []rune("▁▂▃▄▅▆▇█")

// Sparkline draws values with at most width block characters, each one the
// average of its bucket of values.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}
	if len(values) > width {
		buckets := make([]float64, width)
		for i := range buckets {
			lo, hi := i*len(values)/width, (i+1)*len(values)/width
			var sum float64
			for _, v := range values[lo:hi] {
				sum += v
			}
			buckets[i] = sum / float64(hi-lo)
		}
		values = buckets
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	var b strings.Builder
	for _, v := range values {
		i := 0
		if hi > lo {
			i = int((v - lo) / (hi - lo) * float64(len(ticks)-1))
		}
		b.WriteRune(ticks[i])
	}
	return b.String()
}
