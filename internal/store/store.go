// Package store defines the remote ledger store contract shared by the sync
// engine and the mutation gateway, plus the snapshot fan-out used by the
// concrete backends.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/finora-dev/finora/internal/model"
)

var (
	// ErrNotFound is returned when an update targets a record the owner does not have.
	ErrNotFound = errors.New("record not found")
	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("store closed")
)

// Event is one push from a subscription: either a full snapshot of the
// owner's records or a terminal error. No events follow an error.
type Event struct {
	Records []model.Transaction
	Err     error
}

// Subscription is a live, owner-scoped stream of snapshots.
type Subscription interface {
	// Events delivers snapshots. Only the latest undelivered snapshot is
	// kept, so a slow reader never observes a stale one after a newer one.
	// The channel is closed after a terminal error or Close.
	Events() <-chan Event
	// Close releases the subscription. It is safe to call more than once.
	Close() error
}

// Store is a persistent collection of ledger records.
type Store interface {
	// Subscribe opens a snapshot stream of every record whose owner is ownerID.
	// The current snapshot is delivered immediately.
	Subscribe(ctx context.Context, ownerID string) (Subscription, error)
	// Insert stores rec and returns the id assigned to it.
	Insert(ctx context.Context, rec model.Transaction) (string, error)
	// Update replaces the patched fields of the owner's record id.
	Update(ctx context.Context, ownerID, id string, patch model.Patch) error
	// Remove deletes the owner's record id. Removing a missing id succeeds.
	Remove(ctx context.Context, ownerID, id string) error
	Close() error
}

// Error is a failure reported by the store for a read subscription or a write.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap returns err as an *Error for op. A nil err stays nil and an existing
// *Error is returned unchanged.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	return &Error{Op: op, Err: err}
}
