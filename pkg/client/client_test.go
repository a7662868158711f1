package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"dwitter/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubServer serves a canned listing and scripted mutation outcomes while
// counting list fetches, so tests can tell cache hits from refetches.
type stubServer struct {
	listCalls  int
	pages      map[string]DweetPage // keyed by raw query string
	likeStatus int
	likeBody   string
}

func (s *stubServer) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/dweets", func(w http.ResponseWriter, r *http.Request) {
		s.listCalls++
		query := r.URL.Query()
		query.Del("page")
		page, ok := s.pages[query.Encode()]
		if !ok {
			page = DweetPage{Results: []models.DweetView{}, Page: 1}
		}
		json.NewEncoder(w).Encode(page)
	})

	mux.HandleFunc("/api/dweets/like/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(s.likeStatus)
		w.Write([]byte(s.likeBody))
	})

	mux.HandleFunc("/api/dweets/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			w.WriteHeader(s.likeStatus)
			w.Write([]byte(s.likeBody))
			return
		}
		http.NotFound(w, r)
	})

	return mux
}

func testView(id string) models.DweetView {
	return models.DweetView{
		ID:       id,
		Text:     "text of " + id,
		Likes:    []string{},
		Redweets: []string{},
	}
}

func TestLikeRollsBackCacheOnFailure(t *testing.T) {
	stub := &stubServer{
		pages: map[string]DweetPage{
			"": {Results: []models.DweetView{testView("x")}, Page: 1, TotalPages: 1, TotalResults: 1},
		},
		likeStatus: http.StatusBadRequest,
		likeBody:   `{"kind":"conflict","message":"user already likes a dweet"}`,
	}
	server := httptest.NewServer(stub.handler())
	defer server.Close()

	c := New(server.URL)
	c.SetAuth("token", "actor")

	page, err := c.ListDweets(Query{}, 1)
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	require.Equal(t, 1, stub.listCalls)

	_, err = c.Like("x")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "conflict", apiErr.Kind)

	// The failed mutation left no optimistic residue: the cached page is
	// back to the snapshot and still served without a refetch.
	page, err = c.ListDweets(Query{}, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, stub.listCalls)
	assert.Empty(t, page.Results[0].Likes)
}

func TestLikeInvalidatesOnlyAffectedKeys(t *testing.T) {
	stub := &stubServer{
		pages: map[string]DweetPage{
			"":             {Results: []models.DweetView{testView("x")}, Page: 1, TotalPages: 1, TotalResults: 1},
			"author=other": {Results: []models.DweetView{testView("y")}, Page: 1, TotalPages: 1, TotalResults: 1},
		},
		likeStatus: http.StatusOK,
		likeBody:   `{"dweet":{"id":"x","likes":["actor"],"redweets":[]}}`,
	}
	server := httptest.NewServer(stub.handler())
	defer server.Close()

	c := New(server.URL)
	c.SetAuth("token", "actor")

	_, err := c.ListDweets(Query{}, 1)
	require.NoError(t, err)
	_, err = c.ListDweets(Query{Author: "other"}, 1)
	require.NoError(t, err)
	require.Equal(t, 2, stub.listCalls)

	view, err := c.Like("x")
	require.NoError(t, err)
	assert.Equal(t, []string{"actor"}, view.Likes)

	// The listing holding x goes stale and refetches...
	_, err = c.ListDweets(Query{}, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, stub.listCalls)

	// ...while the unrelated author listing is still served from cache.
	_, err = c.ListDweets(Query{Author: "other"}, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, stub.listCalls)
}

func TestRemoveDweetOptimisticallyDropsAndRestores(t *testing.T) {
	stub := &stubServer{
		pages: map[string]DweetPage{
			"": {
				Results:      []models.DweetView{testView("x"), testView("y")},
				Page:         1,
				TotalPages:   1,
				TotalResults: 2,
			},
		},
		likeStatus: http.StatusForbidden,
		likeBody:   `{"kind":"forbidden","message":"only the author may change a dweet"}`,
	}
	server := httptest.NewServer(stub.handler())
	defer server.Close()

	c := New(server.URL)
	c.SetAuth("token", "actor")

	_, err := c.ListDweets(Query{}, 1)
	require.NoError(t, err)

	err = c.RemoveDweet("x")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "forbidden"))

	// Rollback put the dweet back into the cached listing
	page, err := c.ListDweets(Query{}, 1)
	require.NoError(t, err)
	require.Len(t, page.Results, 2)
	assert.Equal(t, 1, stub.listCalls)
}

func TestCacheNeverMixesOptimisticAndServerState(t *testing.T) {
	stub := &stubServer{
		pages: map[string]DweetPage{
			"": {Results: []models.DweetView{testView("x")}, Page: 1, TotalPages: 1, TotalResults: 1},
		},
		likeStatus: http.StatusOK,
		likeBody:   `{"dweet":{"id":"x","likes":["actor"],"redweets":[]}}`,
	}
	server := httptest.NewServer(stub.handler())
	defer server.Close()

	c := New(server.URL)
	c.SetAuth("token", "actor")

	_, err := c.ListDweets(Query{}, 1)
	require.NoError(t, err)

	_, err = c.Like("x")
	require.NoError(t, err)

	// After confirmation the entry is stale, not patched in place: the
	// next read goes to the server for its truth.
	calls := stub.listCalls
	_, err = c.ListDweets(Query{}, 1)
	require.NoError(t, err)
	assert.Equal(t, calls+1, stub.listCalls)
}
