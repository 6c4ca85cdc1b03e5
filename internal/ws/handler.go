package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/asafee03-dev/RN-PARTY-GAMES-sub001/internal/store"
	"github.com/asafee03-dev/RN-PARTY-GAMES-sub001/internal/types"
)

// Handler streams one session document to the client: a full snapshot on
// subscribe, then a push per committed write, including the client's own.
// Inbound messages are fire-and-forget partial updates; the ack is the push
// that comes back through the subscription.
func Handler(st store.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}

		if _, err := st.Get(r.Context(), store.CollectionSessions, code); errors.Is(err, store.ErrNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			// In dev ONLY, you can loosen origin checks:
			// OriginPatterns: []string{"http://localhost:*", "http://127.0.0.1:*"},
		})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()

		out := make(chan types.ServerMessage, 8)
		unsub := st.Subscribe(store.CollectionSessions, code, func(ev store.Event) {
			msg := types.ServerMessage{Type: "SessionSnapshot", Code: code, Doc: ev.Doc}
			if ev.Deleted {
				msg = types.ServerMessage{Type: "SessionDeleted", Code: code}
			}
			select {
			case out <- msg:
			case <-writeCtx.Done():
			}
		})
		defer unsub()

		// Writer goroutine
		go func() {
			for {
				select {
				case <-writeCtx.Done():
					return
				case msg := <-out:
					payload, _ := json.Marshal(msg)
					ctx, cancel := context.WithTimeout(writeCtx, 3*time.Second)
					_ = conn.Write(ctx, websocket.MessageText, payload)
					cancel()
					if msg.Type == "SessionDeleted" {
						writeCancel()
						return
					}
				}
			}
		}()

		// Reader loop
		for {
			ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
			_, data, err := conn.Read(ctx)
			cancel()
			if err != nil {
				// Treat clean close/going-away as normal:
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					return
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				_ = conn.Write(r.Context(), websocket.MessageText,
					[]byte(`{"type":"Error","error":"bad json"}`))
				continue
			}

			switch cm.Type {
			case "UpdateFields":
				if err := st.Update(r.Context(), store.CollectionSessions, code, cm.Fields); err != nil {
					if errors.Is(err, store.ErrNotFound) {
						return
					}
					log.Warn("update from websocket failed", zap.String("code", code), zap.Error(err))
				}
			default:
				_ = conn.Write(r.Context(), websocket.MessageText, []byte(`{"type":"Error","error":"unknown type"}`))
			}
		}
	}
}
