package websearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("test-key",
		WithBaseURL(srv.URL),
		WithRateLimit(1000),
		WithCacheTTL(time.Minute),
	)
}

func TestSearchSuccess(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code":200,"data":[
			{"title":"Leh travel guide","url":"https://example.org/leh","description":"Complete guide"},
			{"title":"Ladakh itinerary","url":"https://example.org/ladakh","content":"7 days in Ladakh"},
			{"title":"Third","url":"https://example.org/3","description":"extra"}
		]}`))
	})

	results, err := c.Search(context.Background(), "Leh travel guide", 2)
	require.NoError(t, err)
	assert.Equal(t, "Bearer test-key", gotAuth)
	require.Len(t, results, 2, "results capped at maxResults")
	assert.Equal(t, "Leh travel guide", results[0].Title)
	assert.Equal(t, "Complete guide", results[0].Snippet)
	assert.Equal(t, "7 days in Ladakh", results[1].Snippet, "content used when description empty")
}

func TestSearchNoResults(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	})

	results, err := c.Search(context.Background(), "gibberish query", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchRetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"code":200,"data":[{"title":"ok","url":"https://example.org","description":"d"}]}`))
	}))
	t.Cleanup(srv.Close)

	c := NewClient("k", WithBaseURL(srv.URL), WithRateLimit(1000))

	results, err := c.Search(context.Background(), "retry me", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int32(2), calls.Load())
}

func TestSearchHardFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.Search(context.Background(), "q", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 401")
}

func TestSearchCachesResults(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"code":200,"data":[{"title":"cached","url":"https://example.org","description":"d"}]}`))
	})

	for i := 0; i < 3; i++ {
		results, err := c.Search(context.Background(), "same query", 5)
		require.NoError(t, err)
		require.Len(t, results, 1)
	}
	assert.Equal(t, int32(1), calls.Load(), "repeat queries served from cache")
}

func TestSearchContextCancel(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"code":200,"data":[]}`))
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := c.Search(ctx, "slow", 5)
	assert.Error(t, err)
}
