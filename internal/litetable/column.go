package litetable

import (
	"fmt"
	"strings"
)

// ParseColumn parses a column in family:qualifier form.
func ParseColumn(s string) (Column, error) {
	family, qualifier, ok := strings.Cut(s, ":")
	if !ok {
		return Column{}, fmt.Errorf("invalid column %q: expected family:qualifier", s)
	}
	if family == "" || qualifier == "" {
		return Column{}, fmt.Errorf("invalid column %q: family and qualifier are required", s)
	}
	if strings.ContainsAny(family, ": \t") || strings.ContainsAny(qualifier, " \t") {
		return Column{}, fmt.Errorf("invalid column %q: unexpected separator", s)
	}
	return Column{Family: family, Qualifier: qualifier}, nil
}
