package protocol

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/asafee03-dev/RN-PARTY-GAMES-sub001/internal/session"
	"github.com/asafee03-dev/RN-PARTY-GAMES-sub001/internal/store"
)

var ErrJoinConflict = errors.New("join lost to concurrent writers")

// Joiner implements atomic join-with-verification on top of a store that has
// no compare-and-swap: read the document, splice the participant in locally,
// write the whole list back, then re-read and check the participant survived.
// A concurrent writer that clobbered the list shows up as a failed verify and
// the attempt is retried after a backoff.
type Joiner struct {
	Store  store.Store
	Clock  Clock
	Policy RetryPolicy
	Log    *zap.Logger
}

func NewJoiner(st store.Store, log *zap.Logger) *Joiner {
	return &Joiner{
		Store:  st,
		Clock:  SystemClock(),
		Policy: DefaultRetryPolicy(),
		Log:    log,
	}
}

// Join adds or updates p in the session's participant list. Joining with a
// participant that is already present in the expected shape is a no-op that
// still reports success, so superseded retries are harmless.
func (j *Joiner) Join(ctx context.Context, collection, id string, p session.Participant) error {
	for attempt := 1; attempt <= j.Policy.MaxAttempts; attempt++ {
		doc, err := j.Store.Get(ctx, collection, id)
		if err != nil {
			return fmt.Errorf("join %s/%s: %w", collection, id, err)
		}

		current := session.Participants(doc)
		if hasParticipant(current, p) {
			return nil
		}

		next := spliceParticipant(current, p)
		err = j.Store.Update(ctx, collection, id, store.Document{
			session.FieldParticipants: session.ParticipantsValue(next),
		})
		if err != nil {
			return fmt.Errorf("join %s/%s: %w", collection, id, err)
		}

		verified, err := j.Store.Get(ctx, collection, id)
		if err != nil {
			return fmt.Errorf("join verify %s/%s: %w", collection, id, err)
		}
		if hasParticipant(session.Participants(verified), p) {
			return nil
		}

		j.Log.Info("join verification failed, retrying",
			zap.String("session", id),
			zap.String("participant", p.ID),
			zap.Int("attempt", attempt))
		if attempt < j.Policy.MaxAttempts {
			if err := j.Clock.Sleep(ctx, j.Policy.Backoff(attempt)); err != nil {
				return err
			}
		}
	}
	return fmt.Errorf("join %s/%s after %d attempts: %w", collection, id, j.Policy.MaxAttempts, ErrJoinConflict)
}

func hasParticipant(ps []session.Participant, want session.Participant) bool {
	for _, p := range ps {
		if p.ID == want.ID && p.Name == want.Name && p.Team == want.Team {
			return true
		}
	}
	return false
}

// spliceParticipant replaces an entry with the same ID in place, otherwise
// appends, preserving join order for everyone else.
func spliceParticipant(ps []session.Participant, p session.Participant) []session.Participant {
	out := make([]session.Participant, len(ps))
	copy(out, ps)
	for i, e := range out {
		if e.ID == p.ID {
			out[i] = p
			return out
		}
	}
	return append(out, p)
}
