package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/asafee03-dev/RN-PARTY-GAMES-sub001/internal/hub"
)

func newMemory(t *testing.T) *Memory {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return NewMemory(hub.NewHub(ctx, zap.NewNop()), zap.NewNop())
}

// recvEvent receives one subscription event with a timeout so tests never hang.
func recvEvent(t *testing.T, ch <-chan Event, within time.Duration) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(within):
		t.Fatalf("timed out waiting for event")
		return Event{} // unreachable
	}
}

func subscribeChan(st Store, collection, id string) (<-chan Event, Unsubscribe) {
	ch := make(chan Event, 8)
	unsub := st.Subscribe(collection, id, func(ev Event) { ch <- ev })
	return ch, unsub
}

func TestGetMissingReturnsNotFound(t *testing.T) {
	m := newMemory(t)
	_, err := m.Get(context.Background(), CollectionSessions, "NOPE")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateMissingReturnsNotFound(t *testing.T) {
	m := newMemory(t)
	err := m.Update(context.Background(), CollectionSessions, "NOPE", Document{"x": 1})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateMergesPartialFields(t *testing.T) {
	m := newMemory(t)
	ctx := context.Background()

	require.NoError(t, m.Create(ctx, CollectionSessions, "A1", Document{"status": "lobby", "turnCursor": 0}))
	require.NoError(t, m.Update(ctx, CollectionSessions, "A1", Document{"status": "playing"}))

	doc, err := m.Get(ctx, CollectionSessions, "A1")
	require.NoError(t, err)
	require.Equal(t, "playing", doc["status"], "updated field applied")
	require.Equal(t, 0, doc["turnCursor"], "untouched field survived the merge")
}

func TestGetReturnsIsolatedCopy(t *testing.T) {
	m := newMemory(t)
	ctx := context.Background()

	require.NoError(t, m.Create(ctx, CollectionSessions, "A1", Document{"list": []any{"a"}}))
	doc, err := m.Get(ctx, CollectionSessions, "A1")
	require.NoError(t, err)
	doc["list"].([]any)[0] = "mutated"

	fresh, err := m.Get(ctx, CollectionSessions, "A1")
	require.NoError(t, err)
	require.Equal(t, "a", fresh["list"].([]any)[0], "caller mutation must not leak into the store")
}

func TestSubscribeDeliversInitialSnapshotAndOwnWrites(t *testing.T) {
	m := newMemory(t)
	ctx := context.Background()
	require.NoError(t, m.Create(ctx, CollectionSessions, "A1", Document{"status": "lobby"}))

	ch, unsub := subscribeChan(m, CollectionSessions, "A1")
	defer unsub()

	first := recvEvent(t, ch, time.Second)
	require.Equal(t, "lobby", first.Doc["status"], "initial snapshot on subscribe")

	// The subscriber's own write comes back as a push; a client must not
	// assume its write is the next push it sees, but it does arrive.
	require.NoError(t, m.Update(ctx, CollectionSessions, "A1", Document{"status": "playing"}))
	next := recvEvent(t, ch, time.Second)
	require.Equal(t, "playing", next.Doc["status"])
}

func TestSubscribeDoesNotMissConcurrentWrite(t *testing.T) {
	m := newMemory(t)
	ctx := context.Background()
	require.NoError(t, m.Create(ctx, CollectionSessions, "A1", Document{"n": 0}))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = m.Update(ctx, CollectionSessions, "A1", Document{"n": 1})
	}()

	ch, unsub := subscribeChan(m, CollectionSessions, "A1")
	defer unsub()
	<-done

	// Whichever interleaving won, the subscriber converges on the committed
	// value: either the snapshot already carries it or a push follows.
	deadline := time.After(time.Second)
	for {
		select {
		case ev := <-ch:
			if n, _ := ev.Doc["n"].(int); n == 1 {
				return
			}
		case <-deadline:
			t.Fatalf("subscriber never saw the concurrent write")
		}
	}
}

func TestSubscribeDeliversDeletedSignal(t *testing.T) {
	m := newMemory(t)
	ctx := context.Background()
	require.NoError(t, m.Create(ctx, CollectionSessions, "A1", Document{"status": "lobby"}))

	ch, unsub := subscribeChan(m, CollectionSessions, "A1")
	defer unsub()
	_ = recvEvent(t, ch, time.Second) // initial snapshot

	require.NoError(t, m.Delete(ctx, CollectionSessions, "A1"))
	ev := recvEvent(t, ch, time.Second)
	require.True(t, ev.Deleted)
	require.Nil(t, ev.Doc)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	m := newMemory(t)
	ctx := context.Background()
	require.NoError(t, m.Create(ctx, CollectionSessions, "A1", Document{"n": 1}))

	ch, unsub := subscribeChan(m, CollectionSessions, "A1")
	_ = recvEvent(t, ch, time.Second)
	unsub()

	// Give the hub a moment to process the unsubscribe, then write.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, m.Update(ctx, CollectionSessions, "A1", Document{"n": 2}))

	select {
	case ev, ok := <-ch:
		if ok {
			t.Fatalf("expected no event after unsubscribe, got %+v", ev)
		}
	case <-time.After(200 * time.Millisecond):
		// good: nothing delivered
	}
}
