package protocol

import (
	"sync"

	"go.uber.org/zap"

	"github.com/asafee03-dev/RN-PARTY-GAMES-sub001/internal/session"
	"github.com/asafee03-dev/RN-PARTY-GAMES-sub001/internal/store"
)

// Guard inspects an incoming push against the locally held document and
// reports whether it is safe to accept. Guards protect invariants the store
// itself cannot: they never modify either document.
type Guard func(local, incoming store.Document) bool

// TurnCursorGuard rejects a push that would advance the turn cursor while the
// local round is still active and its summary has not been shown. A stale or
// reordered push must not skip a team's round out from under the player
// looking at it.
func TurnCursorGuard(local, incoming store.Document) bool {
	if !session.RoundActive(local) || session.SummaryShown(local) {
		return true
	}
	return session.GetTurnCursor(incoming) == session.GetTurnCursor(local)
}

// Reconciler holds one client's view of the session document and filters
// subscription pushes through its guards. Everything that passes is accepted
// as-is: the store is last-write-wins and the guards are the only local
// authority layered on top.
type Reconciler struct {
	mu      sync.Mutex
	current store.Document
	guards  []Guard
	log     *zap.Logger
}

func NewReconciler(initial store.Document, log *zap.Logger, guards ...Guard) *Reconciler {
	return &Reconciler{current: store.Clone(initial), guards: guards, log: log}
}

// Offer proposes a pushed document. It returns the view after reconciliation
// and whether the push was accepted; on rejection the previous local view is
// kept untouched.
func (r *Reconciler) Offer(incoming store.Document) (store.Document, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, guard := range r.guards {
		if !guard(r.current, incoming) {
			r.log.Warn("rejected unsafe push",
				zap.Int("localCursor", session.GetTurnCursor(r.current)),
				zap.Int("pushedCursor", session.GetTurnCursor(incoming)))
			return store.Clone(r.current), false
		}
	}

	r.current = store.Clone(incoming)
	return store.Clone(r.current), true
}

// Current returns the reconciled local view.
func (r *Reconciler) Current() store.Document {
	r.mu.Lock()
	defer r.mu.Unlock()
	return store.Clone(r.current)
}

// MarkSummaryShown records locally that the round summary reached the screen,
// which releases the turn-cursor guard for subsequent pushes.
func (r *Reconciler) MarkSummaryShown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return
	}
	r.current[session.FieldSummaryShown] = true
}
