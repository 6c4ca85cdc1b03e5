package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/asafee03-dev/RN-PARTY-GAMES-sub001/internal/catalog"
	"github.com/asafee03-dev/RN-PARTY-GAMES-sub001/internal/hub"
	"github.com/asafee03-dev/RN-PARTY-GAMES-sub001/internal/session"
	"github.com/asafee03-dev/RN-PARTY-GAMES-sub001/internal/store"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	st := store.NewMemory(hub.NewHub(ctx, zap.NewNop()), zap.NewNop())
	words, err := catalog.NewWords([]string{"anchor", "balloon", "cactus", "dragon", "eclipse"})
	require.NoError(t, err)
	locations, err := catalog.NewLocations([]catalog.Location{
		{Name: "airport", Roles: []string{"pilot", "passenger"}},
	})
	require.NoError(t, err)
	srv := httptest.NewServer(SetupRoutes(st, Catalogs{Words: words, Locations: locations}, zap.NewNop()))
	t.Cleanup(srv.Close)
	return srv
}

func TestCreateAndFetchSession(t *testing.T) {
	srv := newTestServer(t)

	res, err := http.Post(srv.URL+"/sessions", "application/json",
		strings.NewReader(`{"game":"outsider","host_name":"ana"}`))
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusCreated, res.StatusCode)

	var created struct {
		Code   string         `json:"code"`
		HostID string         `json:"host_id"`
		Doc    store.Document `json:"doc"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&created))
	require.Len(t, created.Code, 6)
	require.NotEmpty(t, created.HostID)
	require.Equal(t, session.GameOutsider, created.Doc[session.FieldGame])

	got, err := http.Get(srv.URL + "/sessions/" + created.Code)
	require.NoError(t, err)
	defer got.Body.Close()
	require.Equal(t, http.StatusOK, got.StatusCode)

	var doc store.Document
	require.NoError(t, json.NewDecoder(got.Body).Decode(&doc))
	require.Equal(t, session.StatusLobby, session.GetStatus(doc))
	require.Contains(t, doc, session.FieldRoundStartedAt, "round-ephemeral fields start zeroed")
}

func TestCreateSessionRejectsUnknownGame(t *testing.T) {
	srv := newTestServer(t)
	res, err := http.Post(srv.URL+"/sessions", "application/json",
		strings.NewReader(`{"game":"chess","host_name":"ana"}`))
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestPatchSessionMergesFields(t *testing.T) {
	srv := newTestServer(t)

	res, err := http.Post(srv.URL+"/sessions", "application/json",
		strings.NewReader(`{"game":"sketch","host_name":"ana"}`))
	require.NoError(t, err)
	defer res.Body.Close()
	var created struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&created))

	req, err := http.NewRequest(http.MethodPatch, srv.URL+"/sessions/"+created.Code,
		strings.NewReader(`{"status":"playing"}`))
	require.NoError(t, err)
	patched, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer patched.Body.Close()
	require.Equal(t, http.StatusNoContent, patched.StatusCode)

	got, err := http.Get(srv.URL + "/sessions/" + created.Code)
	require.NoError(t, err)
	defer got.Body.Close()
	var doc store.Document
	require.NoError(t, json.NewDecoder(got.Body).Decode(&doc))
	require.Equal(t, session.StatusPlaying, session.GetStatus(doc))
	require.Equal(t, session.GameSketch, doc[session.FieldGame], "untouched fields survive the merge")
}

func TestPatchSessionValidatesStatus(t *testing.T) {
	srv := newTestServer(t)

	res, err := http.Post(srv.URL+"/sessions", "application/json",
		strings.NewReader(`{"game":"sketch","host_name":"ana"}`))
	require.NoError(t, err)
	defer res.Body.Close()
	var created struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&created))

	patch := func(body string) int {
		req, err := http.NewRequest(http.MethodPatch, srv.URL+"/sessions/"+created.Code,
			strings.NewReader(body))
		require.NoError(t, err)
		r, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer r.Body.Close()
		return r.StatusCode
	}

	require.Equal(t, http.StatusNoContent, patch(`{"status":"setup"}`))
	require.Equal(t, http.StatusBadRequest, patch(`{"status":"paused"}`))
	require.Equal(t, http.StatusBadRequest, patch(`{"status":7}`))

	got, err := http.Get(srv.URL + "/sessions/" + created.Code)
	require.NoError(t, err)
	defer got.Body.Close()
	var doc store.Document
	require.NoError(t, json.NewDecoder(got.Body).Decode(&doc))
	require.Equal(t, session.StatusSetup, session.GetStatus(doc), "rejected patches must not land")
}

func TestSampleWordsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	res, err := http.Get(srv.URL + "/catalog/words?count=3")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var words []string
	require.NoError(t, json.NewDecoder(res.Body).Decode(&words))
	require.Len(t, words, 3)
	seen := map[string]bool{}
	for _, w := range words {
		require.False(t, seen[w], "sampled words must be distinct")
		seen[w] = true
	}

	over, err := http.Get(srv.URL + "/catalog/words?count=50")
	require.NoError(t, err)
	defer over.Body.Close()
	require.Equal(t, http.StatusBadRequest, over.StatusCode)
}

func TestPickLocationEndpoint(t *testing.T) {
	srv := newTestServer(t)

	res, err := http.Get(srv.URL + "/catalog/location")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var loc catalog.Location
	require.NoError(t, json.NewDecoder(res.Body).Decode(&loc))
	require.Equal(t, "airport", loc.Name)
	require.NotEmpty(t, loc.Roles)
}

func TestGetMissingSessionIs404(t *testing.T) {
	srv := newTestServer(t)
	res, err := http.Get(srv.URL + "/sessions/ZZZZZZ")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusNotFound, res.StatusCode)
}
