package pgstore

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/finora-dev/finora/internal/model"
	"github.com/finora-dev/finora/internal/store"
)

func TestParseConfig_Env(t *testing.T) {
	t.Setenv("POSTGRES_HOST", "db.internal")
	t.Setenv("POSTGRES_PORT", "6543")
	t.Setenv("POSTGRES_USER", "alice")
	t.Setenv("POSTGRES_DB_NAME", "finora_test")

	cfg, err := ParseConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, "db.internal", cfg.Host)
	assert.Equal(t, 6543, cfg.Port)
	assert.Equal(t, "alice", cfg.User)
	assert.Equal(t, "finora_test", cfg.DatabaseName)
	assert.Equal(t, "disable", cfg.SSLMode)
}

func TestParseConfig_FlagsWin(t *testing.T) {
	t.Setenv("POSTGRES_HOST", "from-env")

	cfg, err := ParseConfig([]string{"-host", "from-flag"})
	require.NoError(t, err)
	assert.Equal(t, "from-flag", cfg.Host)
}

func TestConfigDSN(t *testing.T) {
	cfg := &Config{Host: "localhost", Port: 5432, User: "alice", DatabaseName: "finora", SSLMode: "disable"}
	assert.Equal(t, "host=localhost port=5432 user=alice dbname=finora sslmode=disable", cfg.DSN())

	cfg.Password = "secret"
	assert.Contains(t, cfg.DSN(), "password=secret")
}

func TestStore(t *testing.T) {
	// load environment
	_ = godotenv.Load("../../../.env")
	if os.Getenv("POSTGRES_USER") == "" {
		t.Skip("POSTGRES_USER not set, skipping postgres store tests")
	}
	suite.Run(t, &Suite{Assertions: require.New(t)})
}

type Suite struct {
	suite.Suite
	*require.Assertions // default to require behavior

	store *Store
	ctx   context.Context
}

func (s *Suite) SetupSuite() {
	cfg, err := ParseConfig(nil)
	s.NoError(err)

	st, err := Open(cfg, log.New(os.Stderr, "pgstore-test: ", log.LstdFlags))
	s.NoError(err)
	s.store = st
	s.ctx = context.Background()
}

func (s *Suite) SetupTest() {
	s.store.db.MustExec("DELETE FROM ledger_entries")
}

func (s *Suite) TearDownSuite() {
	s.NoError(s.store.Close())
}

func (s *Suite) insert(owner, desc string) string {
	id, err := s.store.Insert(s.ctx, model.Transaction{
		OwnerID:   owner,
		Entry:     model.Entry{Description: desc, Amount: "10", Type: model.TypeExpense, Category: "Food", Date: "2025-04-01"},
		CreatedAt: time.Now().UTC(),
	})
	s.NoError(err)
	return id
}

func (s *Suite) awaitRecords(sub store.Subscription, n int) []model.Transaction {
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-sub.Events():
			s.True(ok)
			s.NoError(ev.Err)
			if len(ev.Records) == n {
				return ev.Records
			}
		case <-deadline:
			s.FailNow("timed out waiting for snapshot")
		}
	}
}

func (s *Suite) TestNotifyPushesSnapshot() {
	sub, err := s.store.Subscribe(s.ctx, "alice")
	s.NoError(err)
	defer sub.Close()
	s.awaitRecords(sub, 0)

	id := s.insert("alice", "Groceries")
	s.insert("bob", "Rent")

	recs := s.awaitRecords(sub, 1)
	s.Equal(id, recs[0].ID)
	s.Equal("alice", recs[0].OwnerID)
}

func (s *Suite) TestUpdateAndRemove() {
	id := s.insert("alice", "Lunch")

	desc := "Team lunch"
	s.NoError(s.store.Update(s.ctx, "alice", id, model.Patch{Description: &desc}))
	s.ErrorIs(s.store.Update(s.ctx, "bob", id, model.Patch{Description: &desc}), store.ErrNotFound)
	s.ErrorIs(s.store.Update(s.ctx, "alice", "not-a-uuid", model.Patch{}), store.ErrNotFound)

	recs, err := s.store.load(s.ctx, "alice")
	s.NoError(err)
	s.Len(recs, 1)
	s.Equal("Team lunch", recs[0].Description)

	s.NoError(s.store.Remove(s.ctx, "alice", id))
	s.NoError(s.store.Remove(s.ctx, "alice", id))
	s.NoError(s.store.Remove(s.ctx, "alice", "not-a-uuid"))

	recs, err = s.store.load(s.ctx, "alice")
	s.NoError(err)
	s.Empty(recs)
}
