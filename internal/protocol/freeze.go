package protocol

import (
	"context"
	"fmt"

	"github.com/asafee03-dev/RN-PARTY-GAMES-sub001/internal/store"
)

// FreezeDeadlineValue captures the value on screen at the instant a countdown
// expired. The first client to persist the freeze wins; a client that finds
// the field already populated reuses that value instead of overwriting it.
// The returned string is the effective frozen value every client must score
// against.
func FreezeDeadlineValue(ctx context.Context, st store.Store, collection, id, field, value string) (string, error) {
	doc, err := st.Get(ctx, collection, id)
	if err != nil {
		return "", fmt.Errorf("freeze %s/%s: %w", collection, id, err)
	}
	if frozen, ok := doc[field].(string); ok && frozen != "" {
		return frozen, nil
	}

	if err := st.Update(ctx, collection, id, store.Document{field: value}); err != nil {
		return "", fmt.Errorf("freeze %s/%s: %w", collection, id, err)
	}

	// Re-read rather than trust our own write: if another client froze in the
	// window between read and update, last-write-wins decided, and whatever is
	// persisted now is the value everyone scores from.
	doc, err = st.Get(ctx, collection, id)
	if err != nil {
		return "", fmt.Errorf("freeze verify %s/%s: %w", collection, id, err)
	}
	if frozen, ok := doc[field].(string); ok && frozen != "" {
		return frozen, nil
	}
	return value, nil
}
