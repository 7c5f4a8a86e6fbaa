// Package sqlstore implements store.Store on SQLite through gorm.
package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/finora-dev/finora/internal/model"
	"github.com/finora-dev/finora/internal/store"
)

// record is the persisted row for a ledger entry.
type record struct {
	ID          string `gorm:"primaryKey"`
	OwnerID     string `gorm:"index;not null"`
	Description string
	Amount      string
	Type        string
	Category    string
	Date        string
	CreatedAt   time.Time
}

func (record) TableName() string { return "transactions" }

var _ store.Store = (*Store)(nil)

// Store is a SQLite-backed ledger store. Every committed write pushes a fresh
// snapshot to the writer's open subscriptions.
type Store struct {
	db  *gorm.DB
	hub *store.Hub
}

// Open opens (creating if needed) the SQLite database at path.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	// A single connection keeps writers from tripping over SQLITE_BUSY.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&record{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	s := &Store{db: db}
	s.hub = store.NewHub(s.load)
	return s, nil
}

// Subscribe opens a snapshot stream over ownerID's records.
func (s *Store) Subscribe(ctx context.Context, ownerID string) (store.Subscription, error) {
	return s.hub.Subscribe(ctx, ownerID)
}

// Insert stores rec under a fresh id and returns the id.
func (s *Store) Insert(ctx context.Context, rec model.Transaction) (string, error) {
	r := fromModel(rec)
	r.ID = uuid.NewString()
	if err := s.db.WithContext(ctx).Create(&r).Error; err != nil {
		return "", fmt.Errorf("failed to insert transaction: %w", err)
	}
	s.hub.Publish(ctx, rec.OwnerID)
	return r.ID, nil
}

// Update writes the patched columns of ownerID's record id.
func (s *Store) Update(ctx context.Context, ownerID, id string, patch model.Patch) error {
	cols := patchColumns(patch)
	q := s.db.WithContext(ctx).Model(&record{}).Where("id = ? AND owner_id = ?", id, ownerID)

	if len(cols) == 0 {
		var n int64
		if err := q.Count(&n).Error; err != nil {
			return fmt.Errorf("failed to look up transaction %s: %w", id, err)
		}
		if n == 0 {
			return store.ErrNotFound
		}
		return nil
	}

	res := q.Updates(cols)
	if res.Error != nil {
		return fmt.Errorf("failed to update transaction %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	s.hub.Publish(ctx, ownerID)
	return nil
}

// Remove deletes ownerID's record id. A missing id is not an error.
func (s *Store) Remove(ctx context.Context, ownerID, id string) error {
	res := s.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).Delete(&record{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete transaction %s: %w", id, res.Error)
	}
	if res.RowsAffected > 0 {
		s.hub.Publish(ctx, ownerID)
	}
	return nil
}

// Close terminates open subscriptions and closes the database.
func (s *Store) Close() error {
	s.hub.Close()
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) load(ctx context.Context, ownerID string) ([]model.Transaction, error) {
	var rows []record
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}

	out := make([]model.Transaction, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

func fromModel(t model.Transaction) record {
	return record{
		ID:          t.ID,
		OwnerID:     t.OwnerID,
		Description: t.Description,
		Amount:      t.Amount,
		Type:        string(t.Type),
		Category:    t.Category,
		Date:        t.Date,
		CreatedAt:   t.CreatedAt,
	}
}

func (r record) toModel() model.Transaction {
	return model.Transaction{
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
	}
}

func patchColumns(p model.Patch) map[string]any {
	cols := make(map[string]any)
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
