package importer

import (
	"io"

	"github.com/finora-dev/finora/internal/ledgercsv"
	"github.com/finora-dev/finora/internal/model"
)

// LedgerParser reads files in the format written by the export command.
// Ids and creation times in the file are ignored.
type LedgerParser struct{}

// Format returns the parser name.
func (p *LedgerParser) Format() string { return "finora" }

// Parse reads a ledger CSV export.
func (p *LedgerParser) Parse(r io.Reader) ([]model.Entry, error) {
	txns, err := ledgercsv.ReadTransactions(r)
	if err != nil {
		return nil, err
	}
	entries := make([]model.Entry, 0, len(txns))
	for _, t := range txns {
		entries = append(entries, t.Entry)
	}
	return entries, nil
}
