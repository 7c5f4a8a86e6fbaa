package app

import (
	"bytes"
	"context"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finora-dev/finora/internal/config"
	"github.com/finora-dev/finora/internal/model"
	"github.com/finora-dev/finora/internal/mutation"
	"github.com/finora-dev/finora/internal/replica"
)

func openTestApp(t *testing.T, mutate func(*config.Config)) *App {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default("alice", "Alice")
	cfg.Currency = "USD"
	if mutate != nil {
		mutate(cfg)
	}
	path := filepath.Join(dir, config.FileName)
	require.NoError(t, config.Save(path, cfg))

	a, err := Open(path, Options{Logger: log.New(&bytes.Buffer{}, "", 0)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func waitFor(t *testing.T, a *App, cond func(replica.View) bool) replica.View {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	v, err := a.Engine.WaitFor(ctx, cond)
	require.NoError(t, err)
	return v
}

func TestApp_CreateRoundTrip(t *testing.T) {
	a := openTestApp(t, nil)
	ctx := context.Background()

	v, err := a.Ledger(ctx)
	require.NoError(t, err)
	assert.Empty(t, v.Entries)

	entry := model.Entry{Description: "Groceries", Amount: "42.10", Type: model.TypeExpense, Category: "Food", Date: "2025-04-02"}
	rec, err := a.Gateway.Create(ctx, entry)
	require.NoError(t, err)

	v = waitFor(t, a, func(v replica.View) bool { return len(v.Entries) == 1 })
	got := v.Entries[0]
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, "alice", got.OwnerID)
	assert.Equal(t, entry, got.Entry)
	assert.True(t, rec.CreatedAt.Equal(got.CreatedAt))

	inbox, err := a.Feed.LoadInbox()
	require.NoError(t, err)
	items := inbox.List()
	require.Len(t, items, 1)
	assert.Equal(t, "Transaction Recorded", items[0].Title)
	assert.Equal(t, "Successfully saved $42.10 for Groceries", items[0].Message)
}

func TestApp_ReplicaOrderedAndIsolated(t *testing.T) {
	a := openTestApp(t, nil)
	ctx := context.Background()
	_, err := a.Ledger(ctx)
	require.NoError(t, err)

	for _, d := range []string{"2025-01-05", "2025-03-01", "2025-02-10"} {
		_, err := a.Gateway.Create(ctx, model.Entry{Description: d, Amount: "1", Type: model.TypeExpense, Date: d})
		require.NoError(t, err)
	}
	v := waitFor(t, a, func(v replica.View) bool { return len(v.Entries) == 3 })
	assert.True(t, replica.Sorted(v.Entries))
	assert.Equal(t, "2025-03-01", v.Entries[0].Date)

	a.Gate.SignIn(model.Identity{UID: "bob"})
	v = waitFor(t, a, func(v replica.View) bool { return v.Owner != nil && v.Owner.UID == "bob" && v.Loaded })
	assert.Empty(t, v.Entries)

	_, err = a.Gateway.Create(ctx, model.Entry{Description: "Bob's", Amount: "5", Type: model.TypeIncome, Date: "2025-01-01"})
	require.NoError(t, err)
	v = waitFor(t, a, func(v replica.View) bool { return v.Owner.UID == "bob" && len(v.Entries) == 1 })
	assert.Equal(t, "bob", v.Entries[0].OwnerID)
}

func TestApp_SignedOutRejectsMutations(t *testing.T) {
	a := openTestApp(t, nil)
	a.Gate.SignOut()

	_, err := a.Gateway.Create(context.Background(), model.Entry{Amount: "1", Type: model.TypeExpense})
	assert.ErrorIs(t, err, mutation.ErrNoIdentity)

	v := waitFor(t, a, func(v replica.View) bool { return v.Owner == nil })
	assert.True(t, v.Loaded)
	assert.Empty(t, v.Entries)
}

func TestApp_UpdateUsesReplicaDescription(t *testing.T) {
	a := openTestApp(t, nil)
	ctx := context.Background()
	_, err := a.Ledger(ctx)
	require.NoError(t, err)

	rec, err := a.Gateway.Create(ctx, model.Entry{Description: "Rent", Amount: "900", Type: model.TypeExpense, Date: "2025-02-01"})
	require.NoError(t, err)
	waitFor(t, a, func(v replica.View) bool { return len(v.Entries) == 1 })

	amount := "950"
	require.NoError(t, a.Gateway.Update(ctx, rec.ID, model.Patch{Amount: &amount}))
	v := waitFor(t, a, func(v replica.View) bool { return len(v.Entries) == 1 && v.Entries[0].Amount == "950" })
	assert.Equal(t, "Rent", v.Entries[0].Description)

	require.NoError(t, a.Gateway.Remove(ctx, rec.ID))
	waitFor(t, a, func(v replica.View) bool { return len(v.Entries) == 0 })

	inbox, err := a.Feed.LoadInbox()
	require.NoError(t, err)
	items := inbox.List()
	require.Len(t, items, 3)
	assert.Equal(t, "Transaction Removed", items[0].Title)
	assert.Equal(t, "Successfully updated details for Rent", items[1].Message)
}

func TestApp_NotificationsDisabled(t *testing.T) {
	a := openTestApp(t, func(c *config.Config) { c.Notifications.Enabled = false })
	ctx := context.Background()

	_, err := a.Gateway.Create(ctx, model.Entry{Description: "Quiet", Amount: "1", Type: model.TypeExpense})
	require.NoError(t, err)

	_, err = os.Stat(a.Feed.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestApp_OwnerOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, config.FileName)
	require.NoError(t, config.Save(path, config.Default("alice", "Alice")))

	a, err := Open(path, Options{Owner: "carol", Logger: log.New(&bytes.Buffer{}, "", 0)})
	require.NoError(t, err)
	defer a.Close()

	v, err := a.Ledger(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "carol", v.Owner.UID)
}
