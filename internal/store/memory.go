package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/asafee03-dev/RN-PARTY-GAMES-sub001/internal/hub"
)

// Memory is the in-process Store. Writes take the mutex, commit to the map,
// then publish through the hub so subscribers see the committed document.
type Memory struct {
	mu   sync.RWMutex
	docs map[string]Document
	hub  *hub.Hub
	log  *zap.Logger
}

func NewMemory(h *hub.Hub, log *zap.Logger) *Memory {
	return &Memory{
		docs: make(map[string]Document),
		hub:  h,
		log:  log,
	}
}

func docKey(collection, id string) string { return collection + "/" + id }

func (m *Memory) Get(ctx context.Context, collection, id string) (Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[docKey(collection, id)]
	if !ok {
		return nil, ErrNotFound
	}
	return Clone(doc), nil
}

func (m *Memory) Create(ctx context.Context, collection, id string, doc Document) error {
	m.mu.Lock()
	committed := Clone(doc)
	m.docs[docKey(collection, id)] = committed
	m.mu.Unlock()

	m.publish(collection, id, committed, false)
	return nil
}

func (m *Memory) Update(ctx context.Context, collection, id string, fields Document) error {
	m.mu.Lock()
	key := docKey(collection, id)
	doc, ok := m.docs[key]
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	for k, v := range fields {
		doc[k] = cloneValue(v)
	}
	committed := Clone(doc)
	m.mu.Unlock()

	m.publish(collection, id, committed, false)
	return nil
}

func (m *Memory) Delete(ctx context.Context, collection, id string) error {
	m.mu.Lock()
	key := docKey(collection, id)
	_, ok := m.docs[key]
	delete(m.docs, key)
	m.mu.Unlock()

	if ok {
		m.publish(collection, id, nil, true)
	}
	return nil
}

func (m *Memory) Subscribe(collection, id string, fn SubscribeFunc) Unsubscribe {
	key := docKey(collection, id)
	subID := uuid.NewString()
	out := make(chan hub.Event, 8)

	go func() {
		for ev := range out {
			fn(Event{Collection: ev.Collection, ID: ev.ID, Doc: Document(ev.Doc), Deleted: ev.Deleted})
		}
	}()

	// Snapshot and registration happen under one lock hold: any write that
	// commits after the snapshot must wait for the write lock, so its publish
	// is enqueued behind this Subscribe and reaches the new subscriber.
	m.mu.RLock()
	var initial *hub.Event
	if doc, ok := m.docs[key]; ok {
		initial = &hub.Event{Collection: collection, ID: id, Doc: Clone(doc)}
	}
	m.hub.Inbox() <- hub.Subscribe{Key: key, SubID: subID, Outbox: out, Initial: initial}
	m.mu.RUnlock()

	return func() {
		m.hub.Inbox() <- hub.Unsubscribe{Key: key, SubID: subID}
	}
}

func (m *Memory) publish(collection, id string, doc Document, deleted bool) {
	m.hub.Inbox() <- hub.Publish{
		Key:   docKey(collection, id),
		Event: hub.Event{Collection: collection, ID: id, Doc: doc, Deleted: deleted},
	}
}
