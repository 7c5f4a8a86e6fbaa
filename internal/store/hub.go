package store

import (
	"context"
	"sync"

	"github.com/finora-dev/finora/internal/model"
)

// Loader reads the full set of records owned by ownerID.
type Loader func(ctx context.Context, ownerID string) ([]model.Transaction, error)

// Hub tracks open subscriptions per owner and pushes full snapshots to them.
// Loads and deliveries are serialized, so every subscriber sees snapshots in
// the order the underlying reads happened.
type Hub struct {
	load Loader

	pubMu sync.Mutex // serializes load+deliver

	mu     sync.Mutex
	subs   map[string]map[*subscription]struct{}
	closed bool
}

// NewHub creates a Hub that reads snapshots with load.
func NewHub(load Loader) *Hub {
	return &Hub{load: load, subs: make(map[string]map[*subscription]struct{})}
}

// Subscribe registers a subscription for ownerID and delivers its first snapshot.
func (h *Hub) Subscribe(ctx context.Context, ownerID string) (Subscription, error) {
	sub := &subscription{hub: h, owner: ownerID, ch: make(chan Event, 1)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrClosed
	}
	if h.subs[ownerID] == nil {
		h.subs[ownerID] = make(map[*subscription]struct{})
	}
	h.subs[ownerID][sub] = struct{}{}
	h.mu.Unlock()

	h.pubMu.Lock()
	defer h.pubMu.Unlock()

	recs, err := h.load(ctx, ownerID)
	if err != nil {
		h.remove(sub)
		sub.shutdown()
		return nil, err
	}
	sub.deliver(Event{Records: recs})
	return sub, nil
}

// Publish reloads ownerID's records and pushes them to its subscribers.
// A failed load terminates those subscriptions with the error.
func (h *Hub) Publish(ctx context.Context, ownerID string) {
	h.pubMu.Lock()
	defer h.pubMu.Unlock()

	subs := h.snapshotSubs(ownerID)
	if len(subs) == 0 {
		return
	}

	// The write that triggered this publish may carry a short-lived context;
	// subscribers must not be torn down because the writer went away.
	recs, err := h.load(context.WithoutCancel(ctx), ownerID)
	if err != nil {
		for _, s := range subs {
			h.remove(s)
			s.deliver(Event{Err: err})
			s.shutdown()
		}
		return
	}
	for _, s := range subs {
		s.deliver(Event{Records: recs})
	}
}

// PublishAll republishes every owner with at least one subscriber.
func (h *Hub) PublishAll(ctx context.Context) {
	h.mu.Lock()
	owners := make([]string, 0, len(h.subs))
	for owner := range h.subs {
		owners = append(owners, owner)
	}
	h.mu.Unlock()

	for _, owner := range owners {
		h.Publish(ctx, owner)
	}
}

// Subscribers reports how many subscriptions are open for ownerID.
func (h *Hub) Subscribers(ownerID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[ownerID])
}

// Close terminates every subscription with ErrClosed.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	var all []*subscription
	for _, set := range h.subs {
		for s := range set {
			all = append(all, s)
		}
	}
	h.subs = make(map[string]map[*subscription]struct{})
	h.mu.Unlock()

	for _, s := range all {
		s.deliver(Event{Err: ErrClosed})
		s.shutdown()
	}
}

func (h *Hub) snapshotSubs(ownerID string) []*subscription {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs := make([]*subscription, 0, len(h.subs[ownerID]))
	for s := range h.subs[ownerID] {
		subs = append(subs, s)
	}
	return subs
}

func (h *Hub) remove(s *subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.subs[s.owner]
	delete(set, s)
	if len(set) == 0 {
		delete(h.subs, s.owner)
	}
}

type subscription struct {
	hub   *Hub
	owner string
	ch    chan Event

	mu     sync.Mutex
	closed bool
}

func (s *subscription) Events() <-chan Event { return s.ch }

func (s *subscription) Close() error {
	s.hub.remove(s)
	s.shutdown()
	return nil
}

// deliver replaces any pending event with ev. The channel has capacity one
// and deliver is the only sender, so the send never blocks.
func (s *subscription) deliver(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case <-s.ch:
	default:
	}
	s.ch <- ev
}

func (s *subscription) shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}
