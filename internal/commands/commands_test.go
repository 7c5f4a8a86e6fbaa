package commands_test

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finora-dev/finora/internal/commands"
	"github.com/finora-dev/finora/internal/config"
)

func runFinora(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := commands.NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// newLedger initializes a USD ledger for alice and returns its config path.
func newLedger(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	_, err := runFinora(t, "init", dir, "--uid", "alice", "--name", "Alice", "--currency", "usd")
	require.NoError(t, err)
	return filepath.Join(dir, config.FileName)
}

func addEntry(t *testing.T, cfgPath string, args ...string) string {
	t.Helper()
	out, err := runFinora(t, append([]string{"--config", cfgPath, "add"}, args...)...)
	require.NoError(t, err)
	fields := strings.Fields(out)
	require.GreaterOrEqual(t, len(fields), 2, "unexpected add output %q", out)
	return fields[1]
}

func TestInit_CreatesStructure(t *testing.T) {
	dir := t.TempDir()
	out, err := runFinora(t, "init", dir, "--uid", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "Initialized finora ledger for alice")

	for _, d := range []string{"import", filepath.Join("import", "processed")} {
		info, err := os.Stat(filepath.Join(dir, d))
		require.NoError(t, err, "directory %s should exist", d)
		assert.True(t, info.IsDir())
	}

	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	assert.Equal(t, "alice", cfg.Owner.UID)
	assert.Equal(t, "alice", cfg.Owner.DisplayName)
	assert.Equal(t, "INR", cfg.Currency)
	assert.Equal(t, config.DriverSQLite, cfg.Store.Driver)

	gitignore, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)
	assert.Contains(t, string(gitignore), "finora.db")
}

func TestInit_RefusesExisting(t *testing.T) {
	dir := t.TempDir()
	_, err := runFinora(t, "init", dir, "--uid", "alice")
	require.NoError(t, err)

	_, err = runFinora(t, "init", dir, "--uid", "alice")
	assert.ErrorContains(t, err, "already exists")
}

func TestInit_RejectsUnknownCurrency(t *testing.T) {
	_, err := runFinora(t, "init", t.TempDir(), "--uid", "alice", "--currency", "XYZ")
	assert.ErrorContains(t, err, "unknown currency")
}

func TestAddListSummary(t *testing.T) {
	cfg := newLedger(t)

	addEntry(t, cfg, "-t", "income", "-a", "1500", "-d", "Salary", "-c", "Salary", "--date", "2025-03-01")
	addEntry(t, cfg, "-t", "expense", "-a", "40", "-d", "Groceries", "-c", "Food", "--date", "2025-03-02")

	out, err := runFinora(t, "--config", cfg, "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.GreaterOrEqual(t, len(lines), 3)
	assert.Contains(t, lines[0], "DESCRIPTION")
	assert.Contains(t, lines[1], "Groceries", "newest first")
	assert.Contains(t, lines[2], "Salary")
	assert.Contains(t, out, "2 transactions")

	out, err = runFinora(t, "--config", cfg, "list", "-s", "groc")
	require.NoError(t, err)
	assert.Contains(t, out, "Groceries")
	assert.NotContains(t, out, "2025-03-01")

	out, err = runFinora(t, "--config", cfg, "summary")
	require.NoError(t, err)
	assert.Contains(t, out, "$1,500.00")
	assert.Contains(t, out, "$1,460.00")
	assert.Contains(t, out, "97.3%")
	assert.Contains(t, out, "Food")
}

func TestAdd_RejectsUnknownType(t *testing.T) {
	cfg := newLedger(t)
	_, err := runFinora(t, "--config", cfg, "add", "-t", "transfer", "-a", "10")
	assert.ErrorContains(t, err, "invalid entry")
}

func TestEditAndRemove(t *testing.T) {
	cfg := newLedger(t)
	short := addEntry(t, cfg, "-t", "expense", "-a", "12", "-d", "Lunch", "--date", "2025-03-02")

	out, err := runFinora(t, "--config", cfg, "edit", short, "-a", "15.5", "-c", "Food")
	require.NoError(t, err)
	assert.Contains(t, out, "Updated "+short)

	out, err = runFinora(t, "--config", cfg, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "$15.50")
	assert.Contains(t, out, "Food")

	out, err = runFinora(t, "--config", cfg, "rm", short)
	require.NoError(t, err)
	assert.Contains(t, out, "Removed "+short)

	out, err = runFinora(t, "--config", cfg, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No transactions found.")

	_, err = runFinora(t, "--config", cfg, "edit", short, "-a", "1")
	assert.ErrorContains(t, err, "no record matches")
}

func TestOwnerIsolation(t *testing.T) {
	cfg := newLedger(t)
	addEntry(t, cfg, "-t", "expense", "-a", "5", "-d", "Coffee")

	out, err := runFinora(t, "--config", cfg, "--owner", "bob", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No transactions found.")
}

func TestExportImport(t *testing.T) {
	cfg := newLedger(t)
	addEntry(t, cfg, "-t", "expense", "-a", "61.20", "-d", "City water, sewer", "-c", "Utilities", "--date", "2025-01-22")

	out, err := runFinora(t, "--config", cfg, "export")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "id,date,type,category,description,amount,created_at\n"))
	assert.Contains(t, out, `"City water, sewer"`)

	file := filepath.Join(t.TempDir(), "alice.csv")
	_, err = runFinora(t, "--config", cfg, "export", file)
	require.NoError(t, err)

	out, err = runFinora(t, "--config", cfg, "--owner", "bob", "import", file)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 1 transactions from alice.csv")

	out, err = runFinora(t, "--config", cfg, "--owner", "bob", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "City water, sewer")
}

func TestImport_ScansDirectory(t *testing.T) {
	cfg := newLedger(t)
	importDir := filepath.Join(filepath.Dir(cfg), "import")
	statement := "Details,Posting Date,Description,Amount,Type,Balance,Check or Slip #\n" +
		"DEBIT,01/06/2025,WHOLEFDS MKT 10234,-86.41,DEBIT_CARD,5109.59,\n" +
		"CREDIT,01/10/2025,ACME CONSULTING,3500.00,ACH_CREDIT,8609.59,\n"
	require.NoError(t, os.WriteFile(filepath.Join(importDir, "jan.csv"), []byte(statement), 0o644))

	out, err := runFinora(t, "--config", cfg, "import", "--format", "chase")
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 transactions from jan.csv")

	_, err = os.Stat(filepath.Join(importDir, "processed", "jan.csv"))
	assert.NoError(t, err)

	out, err = runFinora(t, "--config", cfg, "summary")
	require.NoError(t, err)
	assert.Contains(t, out, "$3,413.59")
}

func TestImport_UnknownFormat(t *testing.T) {
	cfg := newLedger(t)
	_, err := runFinora(t, "--config", cfg, "import", "--format", "qif")
	assert.ErrorContains(t, err, `unknown import format "qif" (available: chase, finora)`)
}

func TestNotifications(t *testing.T) {
	cfg := newLedger(t)
	addEntry(t, cfg, "-t", "income", "-a", "100", "-d", "Refund")

	out, err := runFinora(t, "--config", cfg, "notifications")
	require.NoError(t, err)
	assert.Contains(t, out, "Transaction Recorded: Successfully saved $100.00 for Refund")
	assert.Contains(t, out, "1 unread")

	_, err = runFinora(t, "--config", cfg, "notifications", "read")
	assert.Error(t, err)

	_, err = runFinora(t, "--config", cfg, "notifications", "read", "--all")
	require.NoError(t, err)
	out, err = runFinora(t, "--config", cfg, "notifications")
	require.NoError(t, err)
	assert.Contains(t, out, "0 unread")

	_, err = runFinora(t, "--config", cfg, "notifications", "clear")
	require.NoError(t, err)
	out, err = runFinora(t, "--config", cfg, "notifications")
	require.NoError(t, err)
	assert.Contains(t, out, "No notifications.")
}

func TestNotifications_Off(t *testing.T) {
	cfg := newLedger(t)

	out, err := runFinora(t, "--config", cfg, "notifications", "off")
	require.NoError(t, err)
	assert.Contains(t, out, "Notifications off")

	addEntry(t, cfg, "-t", "expense", "-a", "3", "-d", "Tea")

	out, err = runFinora(t, "--config", cfg, "notifications")
	require.NoError(t, err)
	assert.Contains(t, out, "No notifications.")
}

func TestCategories(t *testing.T) {
	cfg := newLedger(t)
	addEntry(t, cfg, "-t", "expense", "-a", "3", "-d", "Tea", "-c", "Drinks")

	out, err := runFinora(t, "--config", cfg, "categories")
	require.NoError(t, err)
	assert.Equal(t, "Drinks\n", out)
}

func TestExport_Snapshot(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	cfg := newLedger(t)
	addEntry(t, cfg, "-t", "expense", "-a", "9", "-d", "Parking")

	out, err := runFinora(t, "--config", cfg, "export", "--snapshot")
	require.NoError(t, err)
	assert.Contains(t, out, "Snapshot ")
	assert.Contains(t, out, "(1 transactions)")

	data, err := os.ReadFile(filepath.Join(filepath.Dir(cfg), "snapshots", "alice.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Parking")

	out, err = runFinora(t, "--config", cfg, "export", "--snapshot")
	require.NoError(t, err)
	assert.Contains(t, out, "Snapshot unchanged")
}
