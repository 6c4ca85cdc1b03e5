package store

import (
	"context"
	"errors"
)

// Collections used by the session service.
const CollectionSessions = "sessions"

var ErrNotFound = errors.New("document not found")

// Document is one persisted record. Values are restricted to what survives a
// JSON round trip (strings, float64/int numbers, bools, []any, map[string]any)
// so the memory and postgres implementations behave identically.
type Document map[string]any

// Event is one committed change pushed to subscribers. Doc is the full
// document after the write, nil when Deleted is set.
type Event struct {
	Collection string
	ID         string
	Doc        Document
	Deleted    bool
}

type SubscribeFunc func(Event)

type Unsubscribe func()

// Store is the session document store the protocol and API layers are built
// on. Updates are atomic per document but unconditional: there is no
// compare-and-swap, last write wins. Every committed write is pushed to all
// subscribers of that document, including the writer's own subscription.
type Store interface {
	// Get returns a copy of the document, or ErrNotFound.
	Get(ctx context.Context, collection, id string) (Document, error)

	// Create writes a whole new document. Overwrites an existing one.
	Create(ctx context.Context, collection, id string, doc Document) error

	// Update applies a partial merge of fields onto an existing document.
	// Returns ErrNotFound if the document does not exist.
	Update(ctx context.Context, collection, id string, fields Document) error

	// Delete removes the document and pushes a deleted event to subscribers.
	// Deleting an absent document is a no-op.
	Delete(ctx context.Context, collection, id string) error

	// Subscribe registers fn for every committed write to the document. If the
	// document currently exists, fn is invoked once immediately with it.
	Subscribe(collection, id string, fn SubscribeFunc) Unsubscribe
}

// Clone returns a copy of doc deep enough that callers may mutate nested maps
// and slices without aliasing store-held state.
func Clone(doc Document) Document {
	if doc == nil {
		return nil
	}
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = cloneValue(e)
		}
		return m
	case Document:
		return map[string]any(Clone(t))
	case []any:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = cloneValue(e)
		}
		return s
	default:
		return v
	}
}
