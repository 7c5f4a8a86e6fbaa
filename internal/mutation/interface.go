package mutation

import (
	"context"

	"github.com/finora-dev/finora/internal/model"
)

// Writer is the write side of the ledger store. store.Store satisfies it.
//
//go:generate mockgen -destination=mocks/mock_interface.go -source=interface.go
//go:generate mockgen -destination=mocks/mock_emitter.go -package=mock_mutation github.com/finora-dev/finora/internal/notify Emitter
type Writer interface {
	Insert(ctx context.Context, rec model.Transaction) (string, error)
	Update(ctx context.Context, ownerID, id string, patch model.Patch) error
	Remove(ctx context.Context, ownerID, id string) error
}

// IdentitySource reports the signed-in identity, or nil.
type IdentitySource interface {
	Current() *model.Identity
}
