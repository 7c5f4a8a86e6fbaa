package importer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finora-dev/finora/internal/ledgercsv"
	"github.com/finora-dev/finora/internal/model"
)

const chaseStatement = `Details,Posting Date,Description,Amount,Type,Balance,Check or Slip #
DEBIT,01/03/2025,GITHUB *PRO SUBSCRIPTION,-4.00,ACH_DEBIT,5196.00,
DEBIT,01/06/2025,WHOLEFDS MKT 10234,-86.41,DEBIT_CARD,5109.59,
CREDIT,01/10/2025,ACME CONSULTING INVOICE 1042,3500.00,ACH_CREDIT,8609.59,
DEBIT,01/22/2025,"CITY WATER, SEWER",-61.2,ACH_DEBIT,8548.39,
`

func TestChaseParser_Parse(t *testing.T) {
	p := &ChaseParser{}
	entries, err := p.Parse(strings.NewReader(chaseStatement))
	require.NoError(t, err)
	require.Len(t, entries, 4)

	assert.Equal(t, model.Entry{
		Description: "GITHUB *PRO SUBSCRIPTION",
		Amount:      "4.00",
		Type:        model.TypeExpense,
		Date:        "2025-01-03",
	}, entries[0])

	assert.Equal(t, "ACME CONSULTING INVOICE 1042", entries[2].Description)
	assert.Equal(t, model.TypeIncome, entries[2].Type)
	assert.Equal(t, "3500.00", entries[2].Amount)

	assert.Equal(t, "CITY WATER, SEWER", entries[3].Description)
	assert.Equal(t, "61.20", entries[3].Amount)
	assert.Equal(t, "2025-01-22", entries[3].Date)
}

func TestChaseParser_EmptyFile(t *testing.T) {
	p := &ChaseParser{}
	entries, err := p.Parse(strings.NewReader("Details,Posting Date,Description,Amount,Type,Balance,Check or Slip #\n"))
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestChaseParser_BadDate(t *testing.T) {
	csv := "Details,Posting Date,Description,Amount,Type,Balance,Check or Slip #\nDEBIT,NOTADATE,desc,-4.00,ACH_DEBIT,100.00,\n"
	p := &ChaseParser{}
	_, err := p.Parse(strings.NewReader(csv))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "parsing date")
}

func TestChaseParser_BadAmount(t *testing.T) {
	csv := "Details,Posting Date,Description,Amount,Type,Balance,Check or Slip #\nDEBIT,01/03/2025,desc,NOTANUMBER,ACH_DEBIT,100.00,\n"
	p := &ChaseParser{}
	_, err := p.Parse(strings.NewReader(csv))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "parsing amount")
}

func TestLedgerParser_ReadsExport(t *testing.T) {
	var buf strings.Builder
	require.NoError(t, ledgercsv.WriteTransactions(&buf, []model.Transaction{{
		ID:    "a1",
		Entry: model.Entry{Description: "Rent", Amount: "900", Type: model.TypeExpense, Category: "Utilities", Date: "2025-02-01"},
	}}))

	p := &LedgerParser{}
	entries, err := p.Parse(strings.NewReader(buf.String()))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, model.Entry{Description: "Rent", Amount: "900", Type: model.TypeExpense, Category: "Utilities", Date: "2025-02-01"}, entries[0])
}

func TestRegistry_GetUnknown(t *testing.T) {
	r := NewRegistry()
	assert.Nil(t, r.Get("nonexistent"))
}

func TestRegistry_CaseInsensitive(t *testing.T) {
	r := NewRegistry()
	r.Register(&ChaseParser{})
	assert.NotNil(t, r.Get("Chase"))
	assert.NotNil(t, r.Get("CHASE"))
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	r := NewRegistry()
	r.Register(&ChaseParser{})
	assert.Panics(t, func() { r.Register(&ChaseParser{}) })
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.NotNil(t, r.Get("chase"))
	assert.NotNil(t, r.Get("finora"))
	assert.Equal(t, []string{"chase", "finora"}, r.Formats())
}

func TestScan_FindsCSVs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bank.csv"), []byte("data"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("data"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, processedDir), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, processedDir, "old.csv"), []byte("data"), 0o644))

	files, err := Scan(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "bank.csv", files[0].Name)
	assert.Equal(t, int64(4), files[0].Size)
}

func TestScan_MissingDir(t *testing.T) {
	files, err := Scan(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Nil(t, files)
}

func TestMarkProcessed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bank.csv"), []byte("data"), 0o644))

	require.NoError(t, MarkProcessed(dir, "bank.csv"))

	_, err := os.Stat(filepath.Join(dir, "bank.csv"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "processed", "bank.csv"))
	assert.NoError(t, err)
}

type fakeCreator struct {
	created []model.Entry
	failAt  int
}

func (f *fakeCreator) Create(_ context.Context, e model.Entry) (model.Transaction, error) {
	if len(f.created) == f.failAt {
		return model.Transaction{}, errors.New("store unavailable")
	}
	f.created = append(f.created, e)
	return model.Transaction{Entry: e}, nil
}

func TestImport_StopsAtFirstFailure(t *testing.T) {
	entries := []model.Entry{{Description: "a"}, {Description: "b"}, {Description: "c"}}

	ok := &fakeCreator{failAt: -1}
	n, err := Import(context.Background(), ok, entries)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	failing := &fakeCreator{failAt: 1}
	n, err = Import(context.Background(), failing, entries)
	assert.Equal(t, 1, n)
	assert.ErrorContains(t, err, "importing entry 2 (b)")
	assert.Len(t, failing.created, 1)
}
