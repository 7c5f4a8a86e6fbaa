// Package replica keeps a live, owner-scoped mirror of the ledger.
//
// An Engine holds at most one subscription at a time. Every snapshot pushed
// by the store replaces the replica wholesale, sorted newest date first.
// Switching identity releases the previous subscription before the next one
// is opened, so a snapshot addressed to a previous owner never reaches the
// replica.
package replica

import (
	"context"
	"log"
	"sync"
	"sync/atomic"

	"github.com/finora-dev/finora/internal/model"
	"github.com/finora-dev/finora/internal/store"
)

// Source opens owner-scoped snapshot subscriptions.
type Source interface {
	Subscribe(ctx context.Context, ownerID string) (store.Subscription, error)
}

// View is a point-in-time copy of the replica.
type View struct {
	// Owner is the identity the replica is attached to, nil when detached.
	Owner *model.Identity
	// Entries is sorted by date descending.
	Entries []model.Transaction
	// Loaded is false only between attaching and the first snapshot.
	Loaded bool
	// Err is the subscription failure that emptied the replica, if any.
	Err error
	// Version increases with every change.
	Version uint64
}

// Engine is the sync engine. The zero value is not usable; use NewEngine.
type Engine struct {
	src    Source
	logger *log.Logger

	// amu serializes Attach so teardown and setup never interleave.
	amu sync.Mutex

	mu      sync.Mutex
	active  *Handle
	owner   *model.Identity
	entries []model.Transaction
	loaded  bool
	err     error
	version uint64
	changed chan struct{}

	lmu       sync.Mutex
	listeners map[int]func(View)
	nextID    int
}

// NewEngine creates a detached Engine reading from src.
func NewEngine(src Source, logger *log.Logger) *Engine {
	return &Engine{
		src:       src,
		logger:    logger,
		loaded:    true,
		changed:   make(chan struct{}),
		listeners: make(map[int]func(View)),
	}
}

// Handle is one attachment of the engine to an identity.
type Handle struct {
	engine   *Engine
	owner    *model.Identity
	cancel   context.CancelFunc
	done     chan struct{}
	stopping atomic.Bool
	once     sync.Once
}

// Owner returns the identity the handle was attached with.
func (h *Handle) Owner() *model.Identity {
	return cloneIdentity(h.owner)
}

// Close terminates the subscription and waits for it to be released. If h is
// still the engine's active handle the replica is emptied. Close is safe to
// call more than once.
func (h *Handle) Close() {
	h.stop()
	h.engine.retire(h)
}

// stop cancels the pump and waits for it to exit.
func (h *Handle) stop() {
	h.once.Do(func() {
		h.stopping.Store(true)
		h.cancel()
		<-h.done
	})
}

// Attach tears down any existing subscription and, for a non-nil identity,
// subscribes to that owner's records. A nil identity leaves the replica empty
// and loaded. Subscription failures are logged and recorded in View.Err; the
// replica is left empty and loaded rather than returning an error.
func (e *Engine) Attach(ctx context.Context, id *model.Identity) *Handle {
	e.amu.Lock()
	defer e.amu.Unlock()

	e.mu.Lock()
	old := e.active
	e.mu.Unlock()
	if old != nil {
		old.stop()
	}

	pctx, cancel := context.WithCancel(ctx)
	h := &Handle{engine: e, owner: cloneIdentity(id), cancel: cancel, done: make(chan struct{})}

	if id == nil {
		close(h.done)
		e.install(h, true)
		return h
	}
	e.install(h, false)

	sub, err := e.src.Subscribe(pctx, id.UID)
	if err != nil {
		e.logger.Printf("subscribing to ledger of %s: %v", id.UID, err)
		close(h.done)
		e.fail(h, store.Wrap("subscribe", err))
		return h
	}

	go e.pump(pctx, h, sub)
	return h
}

// Detach releases the current subscription and empties the replica.
func (e *Engine) Detach() {
	e.Attach(context.Background(), nil).Close()
}

// IdentityWatcher streams identity transitions, starting with the current one.
type IdentityWatcher interface {
	Watch(ctx context.Context) <-chan *model.Identity
}

// Follow attaches the engine to every identity ids reports until ctx is done,
// then detaches.
func (e *Engine) Follow(ctx context.Context, ids IdentityWatcher) {
	var h *Handle
	for id := range ids.Watch(ctx) {
		h = e.Attach(ctx, id)
	}
	if h != nil {
		h.Close()
	}
}

func (e *Engine) pump(ctx context.Context, h *Handle, sub store.Subscription) {
	defer close(h.done)
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			if !h.stopping.Load() {
				e.retire(h)
			}
			return
		case ev, ok := <-sub.Events():
			if !ok {
				e.fail(h, store.Wrap("subscribe", store.ErrClosed))
				return
			}
			if ev.Err != nil {
				e.logger.Printf("ledger subscription for %s failed: %v", h.owner.UID, ev.Err)
				e.fail(h, store.Wrap("subscribe", ev.Err))
				return
			}
			e.apply(h, ev.Records)
		}
	}
}

// install makes h the active handle with an empty replica.
func (e *Engine) install(h *Handle, loaded bool) {
	e.mu.Lock()
	e.active = h
	e.owner = cloneIdentity(h.owner)
	e.entries = nil
	e.loaded = loaded
	e.err = nil
	e.commitLocked()
}

// apply replaces the replica with recs if h is still active.
func (e *Engine) apply(h *Handle, recs []model.Transaction) {
	owned := make([]model.Transaction, 0, len(recs))
	for _, r := range recs {
		if r.OwnerID != h.owner.UID {
			e.logger.Printf("dropping record %s owned by %q from snapshot for %s", r.ID, r.OwnerID, h.owner.UID)
			continue
		}
		owned = append(owned, r)
	}
	Sort(owned)

	e.mu.Lock()
	if e.active != h {
		e.mu.Unlock()
		return
	}
	e.entries = owned
	e.loaded = true
	e.err = nil
	e.commitLocked()
}

func (e *Engine) fail(h *Handle, err error) {
	e.mu.Lock()
	if e.active != h {
		e.mu.Unlock()
		return
	}
	e.entries = nil
	e.loaded = true
	e.err = err
	e.commitLocked()
}

// retire detaches the engine if h is still active.
func (e *Engine) retire(h *Handle) {
	e.mu.Lock()
	if e.active != h {
		e.mu.Unlock()
		return
	}
	e.active = nil
	e.owner = nil
	e.entries = nil
	e.loaded = true
	e.err = nil
	e.commitLocked()
}

// commitLocked publishes the current state. It must be called with mu held
// and releases it.
func (e *Engine) commitLocked() {
	e.version++
	close(e.changed)
	e.changed = make(chan struct{})
	v := e.viewLocked()
	e.mu.Unlock()

	e.lmu.Lock()
	fns := make([]func(View), 0, len(e.listeners))
	for _, fn := range e.listeners {
		fns = append(fns, fn)
	}
	e.lmu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

// View returns a copy of the replica.
func (e *Engine) View() View {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.viewLocked()
}

func (e *Engine) viewLocked() View {
	entries := make([]model.Transaction, len(e.entries))
	copy(entries, e.entries)
	return View{
		Owner:   cloneIdentity(e.owner),
		Entries: entries,
		Loaded:  e.loaded,
		Err:     e.err,
		Version: e.version,
	}
}

// WaitLoaded blocks until the replica is loaded or ctx is done.
func (e *Engine) WaitLoaded(ctx context.Context) (View, error) {
	return e.WaitFor(ctx, func(v View) bool { return v.Loaded })
}

// WaitFor blocks until cond holds for the replica or ctx is done.
func (e *Engine) WaitFor(ctx context.Context, cond func(View) bool) (View, error) {
	for {
		e.mu.Lock()
		v := e.viewLocked()
		changed := e.changed
		e.mu.Unlock()

		if cond(v) {
			return v, nil
		}
		select {
		case <-ctx.Done():
			return v, ctx.Err()
		case <-changed:
		}
	}
}

// OnChange registers fn to be called with every new view and returns a
// function that unregisters it. Callbacks run on the goroutine that changed
// the replica and must not call Attach or Detach. Views delivered from
// different goroutines may arrive out of order; compare Version.
func (e *Engine) OnChange(fn func(View)) func() {
	e.lmu.Lock()
	id := e.nextID
	e.nextID++
	e.listeners[id] = fn
	e.lmu.Unlock()

	return func() {
		e.lmu.Lock()
		delete(e.listeners, id)
		e.lmu.Unlock()
	}
}

func cloneIdentity(id *model.Identity) *model.Identity {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}
