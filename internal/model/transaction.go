package model

import (
	"strings"
	"time"
)

// TransactionType classifies a ledger entry as money in or money out.
type TransactionType string

const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

// DateFormat is the ISO calendar date layout used for Transaction.Date.
const DateFormat = "2006-01-02"

// Entry holds the client-editable fields of a ledger entry.
type Entry struct {
	Description string
	Amount      string // stored as given; parse with aggregate.ParseAmount
	Type        TransactionType
	Category    string
	Date        string // "YYYY-MM-DD"
}

// Transaction is a persisted ledger entry as observed in a store snapshot.
type Transaction struct {
	ID      string
	OwnerID string
	Entry
	CreatedAt time.Time
}

// CategoryName returns the entry's category, or DefaultCategory when blank.
func (e Entry) CategoryName() string {
	if strings.TrimSpace(e.Category) == "" {
		return DefaultCategory
	}
	return e.Category
}

// ParsedDate parses Date. ok is false for blank or malformed dates.
func (e Entry) ParsedDate() (d time.Time, ok bool) {
	d, err := time.Parse(DateFormat, strings.TrimSpace(e.Date))
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Description *string
	Amount      *string
	Type        *TransactionType
	Category    *string
	Date        *string
}

// IsEmpty reports whether the patch sets no field.
func (p Patch) IsEmpty() bool {
	return p.Description == nil && p.Amount == nil && p.Type == nil && p.Category == nil && p.Date == nil
}

// Apply returns e with the patch's fields replaced.
func (p Patch) Apply(e Entry) Entry {
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Type != nil {
		e.Type = *p.Type
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	return e
}
