package replica

import (
	"sort"

	"github.com/finora-dev/finora/internal/model"
)

// Sort orders recs by date descending. Equal dates fall back to createdAt
// descending, then id. Records without a valid date sort last.
func Sort(recs []model.Transaction) {
	sort.Slice(recs, func(i, j int) bool {
		return before(recs[i], recs[j])
	})
}

func before(a, b model.Transaction) bool {
	da, aok := a.ParsedDate()
	db, bok := b.ParsedDate()
	if aok != bok {
		return aok
	}
	if aok && !da.Equal(db) {
		return da.After(db)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID < b.ID
}

// Sorted reports whether recs is in the order Sort produces.
func Sorted(recs []model.Transaction) bool {
	return sort.SliceIsSorted(recs, func(i, j int) bool {
		return before(recs[i], recs[j])
	})
}
