// Package mutation issues ledger writes on behalf of the signed-in identity.
//
// The gateway never touches the local replica: a write becomes visible once
// the store pushes the next snapshot. Notifications are sent only after the
// store accepted the write.
package mutation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/finora-dev/finora/internal/model"
	"github.com/finora-dev/finora/internal/money"
	"github.com/finora-dev/finora/internal/notify"
	"github.com/finora-dev/finora/internal/store"
)

var (
	// ErrNoIdentity rejects a mutation attempted while nobody is signed in.
	ErrNoIdentity = errors.New("no identity signed in")
	// ErrInvalidEntry rejects an entry with an unknown type or a malformed date.
	ErrInvalidEntry = errors.New("invalid entry")
)

// Options tune a Gateway. Zero values select defaults.
type Options struct {
	// Currency formats amounts in notifications. Defaults to money.DefaultCurrency.
	Currency string
	Logger   *log.Logger
	// Now stamps createdAt and blank dates. Defaults to time.Now.
	Now func() time.Time
	// Lookup returns the record id as last seen, so an update that leaves the
	// description untouched can still name it.
	Lookup func(id string) (model.Transaction, bool)
}

// Gateway is the mutation gateway.
type Gateway struct {
	store    Writer
	ids      IdentitySource
	notifier notify.Emitter
	opts     Options
}

// NewGateway creates a Gateway writing to w as the identity ids reports.
func NewGateway(w Writer, ids IdentitySource, notifier notify.Emitter, opts Options) *Gateway {
	if opts.Currency == "" {
		opts.Currency = money.DefaultCurrency
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if notifier == nil {
		notifier = notify.Discard
	}
	return &Gateway{store: w, ids: ids, notifier: notifier, opts: opts}
}

// Create stores a new entry owned by the current identity and returns the
// record as written. A blank category becomes model.DefaultCategory and a
// blank date becomes today.
func (g *Gateway) Create(ctx context.Context, e model.Entry) (model.Transaction, error) {
	owner := g.ids.Current()
	if owner == nil {
		return model.Transaction{}, ErrNoIdentity
	}

	e, err := g.normalize(e)
	if err != nil {
		return model.Transaction{}, err
	}

	rec := model.Transaction{
		OwnerID:   owner.UID,
		Entry:     e,
		CreatedAt: g.opts.Now().UTC(),
	}
	id, err := g.store.Insert(ctx, rec)
	if err != nil {
		g.opts.Logger.Printf("creating transaction %q for %s: %v", e.Description, owner.UID, err)
		return model.Transaction{}, store.Wrap("insert", err)
	}
	rec.ID = id

	g.notifier.Receive("Transaction Recorded",
		fmt.Sprintf("Successfully saved %s for %s", money.FormatRaw(e.Amount, g.opts.Currency), e.Description),
		notify.Success)
	return rec, nil
}

// Update replaces the fields set in patch on the current identity's record id.
func (g *Gateway) Update(ctx context.Context, id string, patch model.Patch) error {
	owner := g.ids.Current()
	if owner == nil {
		return ErrNoIdentity
	}
	if err := validatePatch(&patch); err != nil {
		return err
	}

	if err := g.store.Update(ctx, owner.UID, id, patch); err != nil {
		g.opts.Logger.Printf("updating transaction %s for %s: %v", id, owner.UID, err)
		return store.Wrap("update", err)
	}

	g.notifier.Receive("Transaction Updated",
		fmt.Sprintf("Successfully updated details for %s", g.describe(id, patch)),
		notify.Info)
	return nil
}

// Remove deletes the current identity's record id. Removing a record that
// does not exist succeeds.
func (g *Gateway) Remove(ctx context.Context, id string) error {
	owner := g.ids.Current()
	if owner == nil {
		return ErrNoIdentity
	}

	if err := g.store.Remove(ctx, owner.UID, id); err != nil {
		g.opts.Logger.Printf("removing transaction %s for %s: %v", id, owner.UID, err)
		return store.Wrap("remove", err)
	}

	g.notifier.Receive("Transaction Removed", "Successfully deleted the transaction record.", notify.Warning)
	return nil
}

func (g *Gateway) normalize(e model.Entry) (model.Entry, error) {
	if !e.Type.Valid() {
		return e, fmt.Errorf("%w: type must be %q or %q, got %q", ErrInvalidEntry, model.TypeIncome, model.TypeExpense, e.Type)
	}
	e.Category = e.CategoryName()
	if strings.TrimSpace(e.Date) == "" {
		e.Date = g.opts.Now().Format(model.DateFormat)
	}
	if _, ok := e.ParsedDate(); !ok {
		return e, fmt.Errorf("%w: date %q is not YYYY-MM-DD", ErrInvalidEntry, e.Date)
	}
	e.Date = strings.TrimSpace(e.Date)
	return e, nil
}

func validatePatch(p *model.Patch) error {
	if p.Type != nil && !p.Type.Valid() {
		return fmt.Errorf("%w: type must be %q or %q, got %q", ErrInvalidEntry, model.TypeIncome, model.TypeExpense, *p.Type)
	}
	if p.Date != nil {
		if _, ok := (model.Entry{Date: *p.Date}).ParsedDate(); !ok {
			return fmt.Errorf("%w: date %q is not YYYY-MM-DD", ErrInvalidEntry, *p.Date)
		}
		d := strings.TrimSpace(*p.Date)
		p.Date = &d
	}
	if p.Category != nil && strings.TrimSpace(*p.Category) == "" {
		c := model.DefaultCategory
		p.Category = &c
	}
	return nil
}

func (g *Gateway) describe(id string, p model.Patch) string {
	if p.Description != nil {
		return *p.Description
	}
	if g.opts.Lookup != nil {
		if rec, ok := g.opts.Lookup(id); ok {
			return rec.Description
		}
	}
	return "transaction " + id
}
