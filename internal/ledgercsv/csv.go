// Package ledgercsv reads and writes ledger transactions as CSV.
package ledgercsv

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/finora-dev/finora/internal/model"
)

// Header is the CSV header of a ledger export.
const Header = "id,date,type,category,description,amount,created_at"

const (
	numFields      = 7
	colID          = 0
	colDate        = 1
	colType        = 2
	colCategory    = 3
	colDescription = 4
	colAmount      = 5
	colCreatedAt   = 6
)

// ReadTransactions reads all rows after the header.
func ReadTransactions(r io.Reader) ([]model.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading ledger CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}
	if strings.Join(records[0], ",") != Header {
		return nil, fmt.Errorf("unexpected header %q", strings.Join(records[0], ","))
	}

	var txns []model.Transaction
	for i, rec := range records[1:] {
		txn, err := UnmarshalTransaction(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

// WriteTransactions writes the header and one row per transaction.
func WriteTransactions(w io.Writer, txns []model.Transaction) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, txn := range txns {
		if err := cw.Write(MarshalTransaction(txn)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalTransaction converts a transaction to a CSV row. Amounts are
// written as stored.
func MarshalTransaction(t model.Transaction) []string {
	row := make([]string, numFields)
	row[colID] = t.ID
	row[colDate] = t.Date
	row[colType] = string(t.Type)
	row[colCategory] = t.Category
	row[colDescription] = t.Description
	row[colAmount] = t.Amount
	if !t.CreatedAt.IsZero() {
		row[colCreatedAt] = t.CreatedAt.UTC().Format(time.RFC3339)
	}
	return row
}

// UnmarshalTransaction converts a CSV row to a transaction. id and
// created_at may be blank.
func UnmarshalTransaction(rec []string) (model.Transaction, error) {
	if len(rec) != numFields {
		return model.Transaction{}, fmt.Errorf("expected %d fields, got %d", numFields, len(rec))
	}

	typ := model.TransactionType(strings.ToLower(strings.TrimSpace(rec[colType])))
	if !typ.Valid() {
		return model.Transaction{}, fmt.Errorf("unknown type %q", rec[colType])
	}

	var created time.Time
	if s := strings.TrimSpace(rec[colCreatedAt]); s != "" {
		var err error
		created, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return model.Transaction{}, fmt.Errorf("parsing created_at %q: %w", s, err)
		}
	}

	return model.Transaction{
		ID: rec[colID],
		Entry: model.Entry{
			Description: rec[colDescription],
			Amount:      rec[colAmount],
			Type:        typ,
			Category:    rec[colCategory],
			Date:        rec[colDate],
		},
		CreatedAt: created,
	}, nil
}
