package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finora-dev/finora/internal/model"
)

func recv(t *testing.T, ch <-chan *model.Identity) *model.Identity {
	t.Helper()
	select {
	case id, ok := <-ch:
		require.True(t, ok, "watch channel closed")
		return id
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for identity")
		return nil
	}
}

func TestGate_CurrentAndTransitions(t *testing.T) {
	g := NewGate(nil)
	assert.Nil(t, g.Current())

	g.SignIn(model.Identity{UID: "alice", DisplayName: "Alice"})
	require.NotNil(t, g.Current())
	assert.Equal(t, "alice", g.Current().UID)

	g.SignOut()
	assert.Nil(t, g.Current())
}

func TestGate_CurrentReturnsCopy(t *testing.T) {
	g := NewGate(&model.Identity{UID: "alice"})
	id := g.Current()
	id.UID = "mallory"
	assert.Equal(t, "alice", g.Current().UID)
}

func TestGate_WatchStartsWithCurrent(t *testing.T) {
	g := NewGate(&model.Identity{UID: "alice"})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := g.Watch(ctx)
	id := recv(t, ch)
	require.NotNil(t, id)
	assert.Equal(t, "alice", id.UID)
}

func TestGate_WatchSeesSignOut(t *testing.T) {
	g := NewGate(&model.Identity{UID: "alice"})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := g.Watch(ctx)
	recv(t, ch)

	g.SignOut()
	assert.Nil(t, recv(t, ch))

	g.SignIn(model.Identity{UID: "bob"})
	id := recv(t, ch)
	require.NotNil(t, id)
	assert.Equal(t, "bob", id.UID)
}

func TestGate_WatchClosesOnCancel(t *testing.T) {
	g := NewGate(nil)
	ctx, cancel := context.WithCancel(context.Background())
	ch := g.Watch(ctx)
	recv(t, ch)
	cancel()

	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func TestGate_RepeatedSignOutIsQuiet(t *testing.T) {
	g := NewGate(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := g.Watch(ctx)
	recv(t, ch)

	g.SignOut()
	g.SignOut()
	select {
	case id := <-ch:
		t.Fatalf("unexpected transition to %v", id)
	case <-time.After(50 * time.Millisecond):
	}
}
