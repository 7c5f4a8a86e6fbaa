// Package filter narrows ledger entries for list views.
package filter

import (
	"sort"
	"strings"

	"github.com/finora-dev/finora/internal/model"
)

// All is the selector value meaning "no constraint".
const All = "all"

// Criteria are conjunctive predicates. Empty fields match everything.
type Criteria struct {
	// Text is matched case-insensitively as a substring of the description.
	Text string
	// SearchCategory extends Text matching to the category name.
	SearchCategory bool
	// Category must equal the entry's category exactly unless empty or All.
	Category string
	// Type must equal the entry's type unless empty or All.
	Type string
}

// Apply returns the entries matching every predicate in c, in their
// original order.
func Apply(entries []model.Transaction, c Criteria) []model.Transaction {
	text := strings.ToLower(strings.TrimSpace(c.Text))
	out := make([]model.Transaction, 0, len(entries))
	for _, e := range entries {
		if !matchText(e, text, c.SearchCategory) {
			continue
		}
		if !unconstrained(c.Category) && e.CategoryName() != c.Category {
			continue
		}
		if !unconstrained(c.Type) && string(e.Type) != c.Type {
			continue
		}
		out = append(out, e)
	}
	return out
}

func matchText(e model.Transaction, text string, withCategory bool) bool {
	if text == "" {
		return true
	}
	if strings.Contains(strings.ToLower(e.Description), text) {
		return true
	}
	return withCategory && strings.Contains(strings.ToLower(e.CategoryName()), text)
}

func unconstrained(v string) bool {
	return v == "" || strings.EqualFold(v, All)
}

// Categories returns the distinct categories present in entries, sorted.
func Categories(entries []model.Transaction) []string {
	seen := make(map[string]struct{})
	for _, e := range entries {
		seen[e.CategoryName()] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
