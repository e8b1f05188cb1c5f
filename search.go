package portfolio

import "strings"

// Matches reports whether query is a case insensitive substring of name or
// symbol. A blank query matches nothing.
func Matches(query, name, symbol string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return false
	}
	return strings.Contains(strings.ToLower(name), q) || strings.Contains(strings.ToLower(symbol), q)
}
