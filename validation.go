package portfolio

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a user entered amount. It must be a non negative number,
// both '.' and ',' are accepted as decimal separator.
func ParseAmount(s string) (Quantity, error) {
	v := strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if v == "" {
		return Quantity{}, fmt.Errorf("amount is empty")
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return Quantity{}, fmt.Errorf("amount %q is not a number", s)
	}
	if d.IsNegative() {
		return Quantity{}, fmt.Errorf("amount %q must not be negative", s)
	}
	return Quantity{value: d}, nil
}

// ParseHexColor validates a color in the #RRGGBB or #AARRGGBB form, the
// leading '#' is optional. It returns the color normalized to upper case with
// a leading '#'.
func ParseHexColor(s string) (string, error) {
	v := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(v) != 6 && len(v) != 8 {
		return "", fmt.Errorf("color %q must be #RRGGBB or #AARRGGBB", s)
	}
	for _, r := range v {
		switch {
		case '0' <= r && r <= '9', 'a' <= r && r <= 'f', 'A' <= r && r <= 'F':
		default:
			return "", fmt.Errorf("color %q contains invalid hex digit %q", s, r)
		}
	}
	return "#" + strings.ToUpper(v), nil
}
