package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/asafee03-dev/RN-PARTY-GAMES-sub001/internal/session"
	"github.com/asafee03-dev/RN-PARTY-GAMES-sub001/internal/store"
)

type createSessionRequest struct {
	Game     string `json:"game"`
	HostName string `json:"host_name"`
}

type createSessionResponse struct {
	Code   string         `json:"code"`
	HostID string         `json:"host_id"`
	Doc    store.Document `json:"doc"`
}

var validGames = map[string]bool{
	session.GameWordRace: true,
	session.GameCodeGrid: true,
	session.GameSketch:   true,
	session.GameOutsider: true,
}

func CreateSession(st store.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createSessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if !validGames[req.Game] {
			http.Error(w, "unknown game", http.StatusBadRequest)
			return
		}
		if req.HostName == "" {
			http.Error(w, "missing host_name", http.StatusBadRequest)
			return
		}

		var code string
		for {
			c, err := session.NewCode()
			if err != nil {
				http.Error(w, "failed to generate code", http.StatusInternalServerError)
				return
			}
			if _, err := st.Get(r.Context(), store.CollectionSessions, c); errors.Is(err, store.ErrNotFound) {
				code = c
				break
			}
			log.Info("collision on code, regenerating", zap.String("code", c))
		}

		host := session.NewParticipant(req.HostName)
		doc := session.NewDocument(req.Game, host)
		if err := st.Create(r.Context(), store.CollectionSessions, code, doc); err != nil {
			log.Error("create session", zap.Error(err))
			http.Error(w, "failed to create session", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(createSessionResponse{Code: code, HostID: host.ID, Doc: doc})
	}
}

func GetSession(st store.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		doc, err := st.Get(r.Context(), store.CollectionSessions, code)
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		if err != nil {
			log.Error("get session", zap.String("code", code), zap.Error(err))
			http.Error(w, "failed to read session", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(doc)
	}
}

// PatchSession is the store's unconditional partial merge over HTTP. No
// compare-and-swap: last write wins, clients layer their own guards on top.
func PatchSession(st store.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		var fields store.Document
		if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if raw, ok := fields[session.FieldStatus]; ok {
			if s, ok := raw.(string); !ok || !session.Status(s).Valid() {
				http.Error(w, "bad status", http.StatusBadRequest)
				return
			}
		}
		err := st.Update(r.Context(), store.CollectionSessions, code, fields)
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		if err != nil {
			log.Error("patch session", zap.String("code", code), zap.Error(err))
			http.Error(w, "failed to update session", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func DeleteSession(st store.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		if err := st.Delete(r.Context(), store.CollectionSessions, code); err != nil {
			log.Error("delete session", zap.String("code", code), zap.Error(err))
			http.Error(w, "failed to delete session", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
