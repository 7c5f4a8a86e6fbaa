// Package identity supplies the current ledger owner and signals transitions.
package identity

import (
	"context"
	"sync"

	"github.com/finora-dev/finora/internal/model"
)

// Gate holds the signed-in identity, or none.
type Gate struct {
	mu       sync.Mutex
	current  *model.Identity
	watchers map[*watcher]struct{}
}

type watcher struct {
	ch chan *model.Identity
}

// NewGate creates a Gate with initial as the current identity (nil for none).
func NewGate(initial *model.Identity) *Gate {
	return &Gate{current: clone(initial), watchers: make(map[*watcher]struct{})}
}

// Current returns a copy of the current identity, or nil.
func (g *Gate) Current() *model.Identity {
	g.mu.Lock()
	defer g.mu.Unlock()
	return clone(g.current)
}

// SignIn makes id the current identity.
func (g *Gate) SignIn(id model.Identity) {
	g.set(&id)
}

// SignOut clears the current identity.
func (g *Gate) SignOut() {
	g.set(nil)
}

func (g *Gate) set(id *model.Identity) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if model.SameIdentity(g.current, id) && (id == nil || *id == *g.current) {
		return
	}
	g.current = clone(id)
	for w := range g.watchers {
		w.send(clone(id))
	}
}

// Watch streams the current identity followed by every transition until ctx
// is done. Only the latest pending value is kept for a slow reader; the
// channel is closed when ctx is done.
func (g *Gate) Watch(ctx context.Context) <-chan *model.Identity {
	w := &watcher{ch: make(chan *model.Identity, 1)}

	g.mu.Lock()
	g.watchers[w] = struct{}{}
	w.send(clone(g.current))
	g.mu.Unlock()

	out := make(chan *model.Identity)
	go func() {
		defer close(out)
		defer func() {
			g.mu.Lock()
			delete(g.watchers, w)
			g.mu.Unlock()
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case id := <-w.ch:
				select {
				case out <- id:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// send must be called with the gate's mutex held.
func (w *watcher) send(id *model.Identity) {
	select {
	case <-w.ch:
	default:
	}
	w.ch <- id
}

func clone(id *model.Identity) *model.Identity {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}
