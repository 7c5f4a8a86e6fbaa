// Package id shortens record ids for display and resolves the short forms
// users type back to full ids.
package id

import (
	"fmt"
	"strings"
)

// ShortLen is the number of characters Short keeps.
const ShortLen = 8

// Short returns the first ShortLen characters of id, without dashes.
func Short(id string) string {
	s := strings.ReplaceAll(id, "-", "")
	if len(s) > ShortLen {
		return s[:ShortLen]
	}
	return s
}

// Resolve returns the single id in ids that prefix identifies. Dashes in
// both are ignored and matching is case-insensitive. An exact match wins
// over prefix matches.
func Resolve(prefix string, ids []string) (string, error) {
	want := normalize(prefix)
	if want == "" {
		return "", fmt.Errorf("empty id")
	}

	var matches []string
	for _, id := range ids {
		n := normalize(id)
		if n == want {
			return id, nil
		}
		if strings.HasPrefix(n, want) {
			matches = append(matches, id)
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no record matches id %q", prefix)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("id %q is ambiguous: matches %d records", prefix, len(matches))
	}
}

func normalize(id string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(id), "-", ""))
}
