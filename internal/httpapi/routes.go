package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/asafee03-dev/RN-PARTY-GAMES-sub001/internal/store"
	"github.com/asafee03-dev/RN-PARTY-GAMES-sub001/internal/ws"
)

func SetupRoutes(st store.Store, cats Catalogs, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Public routes
	r.Post("/sessions", CreateSession(st, log))
	r.Get("/sessions/{code}", GetSession(st, log))
	r.Patch("/sessions/{code}", PatchSession(st, log))
	r.Delete("/sessions/{code}", DeleteSession(st, log))
	r.Get("/catalog/words", SampleWords(cats, log))
	r.Get("/catalog/location", PickLocation(cats, log))
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(st, log))
	return r
}
