// Package pgstore implements store.Store on PostgreSQL. Snapshots are pushed
// from LISTEN/NOTIFY, so writes made by any process reach every subscriber.
package pgstore

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/finora-dev/finora/internal/model"
	"github.com/finora-dev/finora/internal/store"
)

const (
	minReconnect = 10 * time.Second
	maxReconnect = time.Minute
	pingInterval = 90 * time.Second
)

type row struct {
	ID          string    `db:"id"`
	OwnerID     string    `db:"owner_id"`
	Description string    `db:"description"`
	Amount      string    `db:"amount"`
	Type        string    `db:"type"`
	Category    string    `db:"category"`
	Date        string    `db:"date"`
	CreatedAt   time.Time `db:"created_at"`
}

var _ store.Store = (*Store)(nil)

// Store is a PostgreSQL-backed ledger store.
type Store struct {
	db       *sqlx.DB
	listener *pq.Listener
	hub      *store.Hub
	logger   *log.Logger

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// Open connects to PostgreSQL, installs the schema and starts listening for
// ledger changes.
func Open(cfg *Config, logger *log.Logger) (*Store, error) {
	db, err := sqlx.Connect("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := setup(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	listener := pq.NewListener(cfg.DSN(), minReconnect, maxReconnect, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			logger.Printf("postgres listener event %d: %v", ev, err)
		}
	})
	if err := listener.Listen(notifyChannel); err != nil {
		_ = listener.Close()
		_ = db.Close()
		return nil, fmt.Errorf("listening on %s: %w", notifyChannel, err)
	}

	s := &Store{
		db:       db,
		listener: listener,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	s.hub = store.NewHub(s.load)
	go s.listen()
	return s, nil
}

func (s *Store) listen() {
	defer close(s.done)
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case n, ok := <-s.listener.Notify:
			if !ok {
				return
			}
			if n == nil {
				// Reconnected: notifications may have been lost in between.
				s.hub.PublishAll(context.Background())
				continue
			}
			s.hub.Publish(context.Background(), n.Extra)
		case <-ticker.C:
			go func() {
				if err := s.listener.Ping(); err != nil {
					s.logger.Printf("postgres listener ping: %v", err)
				}
			}()
		}
	}
}

// Subscribe opens a snapshot stream over ownerID's records.
func (s *Store) Subscribe(ctx context.Context, ownerID string) (store.Subscription, error) {
	return s.hub.Subscribe(ctx, ownerID)
}

// Insert stores rec and returns the id generated by the database.
func (s *Store) Insert(ctx context.Context, rec model.Transaction) (string, error) {
	var id string
	err := s.db.GetContext(ctx, &id,
		`INSERT INTO ledger_entries (owner_id, description, amount, type, category, date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		rec.OwnerID, rec.Description, rec.Amount, string(rec.Type), rec.Category, rec.Date, rec.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("inserting transaction: %w", err)
	}
	return id, nil
}

// Update writes the patched columns of ownerID's record id.
func (s *Store) Update(ctx context.Context, ownerID, id string, patch model.Patch) error {
	if _, err := uuid.Parse(id); err != nil {
		return store.ErrNotFound
	}

	params := map[string]interface{}{"id": id, "owner_id": ownerID}
	var set []string
	for col, v := range patchColumns(patch) {
		set = append(set, fmt.Sprintf("%s = :%s", col, col))
		params[col] = v
	}

	if len(set) == 0 {
		var n int
		err := s.db.GetContext(ctx, &n,
			"SELECT count(*) FROM ledger_entries WHERE id = $1 AND owner_id = $2", id, ownerID)
		if err != nil {
			return fmt.Errorf("looking up transaction %s: %w", id, err)
		}
		if n == 0 {
			return store.ErrNotFound
		}
		return nil
	}

	query := fmt.Sprintf("UPDATE ledger_entries SET %s WHERE id = :id AND owner_id = :owner_id",
		strings.Join(set, ", "))
	query, args, err := sqlx.Named(query, params)
	if err != nil {
		return err
	}
	query = s.db.Rebind(query)

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating transaction %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating transaction %s: %w", id, err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Remove deletes ownerID's record id. A missing id is not an error.
func (s *Store) Remove(ctx context.Context, ownerID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx, "DELETE FROM ledger_entries WHERE id = $1 AND owner_id = $2", id, ownerID)
	if err != nil {
		return fmt.Errorf("deleting transaction %s: %w", id, err)
	}
	return nil
}

// Close stops listening, terminates subscriptions and closes the pool.
func (s *Store) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.stop)
		<-s.done
		s.hub.Close()
		if lerr := s.listener.Close(); lerr != nil {
			err = lerr
		}
		if derr := s.db.Close(); derr != nil && err == nil {
			err = derr
		}
	})
	return err
}

func (s *Store) load(ctx context.Context, ownerID string) ([]model.Transaction, error) {
	var rows []row
	err := s.db.SelectContext(ctx, &rows,
		"SELECT * FROM ledger_entries WHERE owner_id = $1 ORDER BY created_at", ownerID)
	if err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}

	out := make([]model.Transaction, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.Transaction{
			ID:      r.ID,
			OwnerID: r.OwnerID,
			Entry: model.Entry{
				Description: r.Description,
				Amount:      r.Amount,
				Type:        model.TransactionType(r.Type),
				Category:    r.Category,
				Date:        r.Date,
			},
			CreatedAt: r.CreatedAt,
		})
	}
	return out, nil
}

func patchColumns(p model.Patch) map[string]interface{} {
	cols := make(map[string]interface{})
	if p.Description != nil {
		cols["description"] = *p.Description
	}
	if p.Amount != nil {
		cols["amount"] = *p.Amount
	}
	if p.Type != nil {
		cols["type"] = string(*p.Type)
	}
	if p.Category != nil {
		cols["category"] = *p.Category
	}
	if p.Date != nil {
		cols["date"] = *p.Date
	}
	return cols
}
