package hub

import (
	"context"

	"go.uber.org/zap"
)

// Event mirrors a committed store write. The hub keeps its own copy of the
// type so store implementations can depend on the hub without a cycle.
type Event struct {
	Collection string
	ID         string
	Doc        map[string]any
	Deleted    bool
}

type Msg interface{ isHubMsg() }

type Subscribe struct {
	Key    string
	SubID  string
	Outbox chan Event // where this subscriber wants to receive events
	// Initial, when set, is delivered to this outbox as the first event.
	// Routing it through the actor keeps it ordered against Publishes.
	Initial *Event
}

type Unsubscribe struct {
	Key   string
	SubID string
}

type Publish struct {
	Key   string
	Event Event
}

type GetState struct {
	Key   string
	Reply chan View
}

type Shutdown struct{}

func (Subscribe) isHubMsg()   {}
func (Unsubscribe) isHubMsg() {}
func (Publish) isHubMsg()     {}
func (GetState) isHubMsg()    {}
func (Shutdown) isHubMsg()    {}

// View reflects hub internals for one key without data races. Test-only.
type View struct {
	NumSubscribers int
}

// Hub fans committed document writes out to per-document subscribers. It is a
// single-goroutine actor: all state lives in the loop, callers talk to it
// through the inbox.
type Hub struct {
	inbox  chan Msg
	subs   map[string]map[string]chan Event
	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(parent context.Context, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:  make(chan Msg, 64),
		subs:   make(map[string]map[string]chan Event),
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- Msg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case Subscribe:
				if h.subs[msg.Key] == nil {
					h.subs[msg.Key] = make(map[string]chan Event)
				}
				h.subs[msg.Key][msg.SubID] = msg.Outbox
				if msg.Initial != nil {
					select {
					case msg.Outbox <- *msg.Initial:
					default:
						h.log.Warn("dropping slow subscriber", zap.String("key", msg.Key), zap.String("sub", msg.SubID))
						close(msg.Outbox)
						delete(h.subs[msg.Key], msg.SubID)
					}
				}

			case Unsubscribe:
				if ch, ok := h.subs[msg.Key][msg.SubID]; ok {
					close(ch)
					delete(h.subs[msg.Key], msg.SubID)
				}

			case Publish:
				h.broadcast(msg.Key, msg.Event)

			case GetState:
				msg.Reply <- View{NumSubscribers: len(h.subs[msg.Key])}

			case Shutdown:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) broadcast(key string, ev Event) {
	for id, ch := range h.subs[key] {
		select {
		case ch <- ev:
			// ok
		default:
			// Subscriber is slow/full - drop them.
			h.log.Warn("dropping slow subscriber", zap.String("key", key), zap.String("sub", id))
			close(ch)
			delete(h.subs[key], id)
		}
	}
}

func (h *Hub) shutdown() {
	for key, subs := range h.subs {
		for id, ch := range subs {
			close(ch)
			delete(subs, id)
		}
		delete(h.subs, key)
	}
	h.cancel()
}
