package httpapi

import (
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/asafee03-dev/RN-PARTY-GAMES-sub001/internal/catalog"
)

// Catalogs holds the word and location lists served to clients when they
// seed a new round. Loaded once at startup.
type Catalogs struct {
	Words     *catalog.Words
	Locations *catalog.Locations
}

const maxWordSample = 100

// SampleWords returns n distinct words for a round deck. Defaults to 20.
func SampleWords(cats Catalogs, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n := 20
		if raw := r.URL.Query().Get("count"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 1 || parsed > maxWordSample {
				http.Error(w, "bad count", http.StatusBadRequest)
				return
			}
			n = parsed
		}

		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		words, err := cats.Words.Sample(rng, n)
		if errors.Is(err, catalog.ErrNotEnoughItems) {
			http.Error(w, "count exceeds catalog size", http.StatusBadRequest)
			return
		}
		if err != nil {
			log.Error("sample words", zap.Error(err))
			http.Error(w, "failed to sample words", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(words)
	}
}

// PickLocation returns one random location with its role list.
func PickLocation(cats Catalogs, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		loc := cats.Locations.Pick(rng)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(loc)
	}
}
