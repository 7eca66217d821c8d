package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/trip-planner/internal/config"
	"github.com/sells-group/trip-planner/internal/store"
	"github.com/sells-group/trip-planner/pkg/llm"
)

// scriptedClient returns canned responses in order.
type scriptedClient struct {
	mu        sync.Mutex
	responses []string
}

func (f *scriptedClient) Complete(_ context.Context, _ llm.Request) (*llm.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.responses) == 0 {
		return nil, eris.New("no scripted response left")
	}
	text := f.responses[0]
	f.responses = f.responses[1:]
	return &llm.Response{Blocks: []llm.ContentBlock{{Type: "text", Text: text}}}, nil
}

func (f *scriptedClient) CompleteStream(ctx context.Context, req llm.Request, onChunk func(string) error) (*llm.Response, error) {
	resp, err := f.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := onChunk(resp.Text()); err != nil {
		return nil, err
	}
	return resp, nil
}

func (f *scriptedClient) SupportsToolCalling() bool { return true }
func (f *scriptedClient) Model() string             { return "scripted" }

func newTestServer(t *testing.T, responses ...string) *server {
	t.Helper()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { st.Close() }) //nolint:errcheck

	client := &scriptedClient{responses: responses}
	env := &appEnv{
		cfg:        &config.Config{},
		store:      st,
		client:     client,
		fastClient: client,
	}
	return newServer(env)
}

func TestServeHealth(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.routes())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateSessionRequiresPrompt(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.routes())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/sessions", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateSessionRunsFirstTurn(t *testing.T) {
	srv := newTestServer(t,
		`{"origin": "Delhi", "destination": "Leh"}`,
		"Great! What month are you thinking, and what's your budget?",
	)
	ts := httptest.NewServer(srv.routes())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/sessions", "application/json",
		strings.NewReader(`{"prompt": "Plan a trip from Delhi to Leh"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var turn turnResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&turn))
	assert.NotEmpty(t, turn.SessionID)
	assert.Equal(t, "clarification", turn.Phase)
	assert.Contains(t, turn.Response, "What month")

	// The turn snapshot is persisted.
	sess, err := srv.env.store.GetSession(context.Background(), turn.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "Leh", sess.State.Destination)
	require.NotEmpty(t, sess.State.Messages)
}

func TestCreateSessionStreams(t *testing.T) {
	srv := newTestServer(t,
		`{"origin": "Delhi", "destination": "Leh"}`,
		"Streaming clarification question.",
	)
	ts := httptest.NewServer(srv.routes())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/sessions?stream=1", "application/json",
		strings.NewReader(`{"prompt": "Plan a trip from Delhi to Leh"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")

	var body strings.Builder
	buf := make([]byte, 4096)
	for {
		n, rerr := resp.Body.Read(buf)
		body.Write(buf[:n])
		if rerr != nil {
			break
		}
	}

	text := body.String()
	assert.Contains(t, text, "Streaming clarification question.")

	// Trailing metadata line is valid JSON.
	lines := strings.Split(strings.TrimSpace(text), "\n")
	var turn turnResponse
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &turn))
	assert.Equal(t, "clarification", turn.Phase)
	assert.NotEmpty(t, turn.SessionID)
}

func TestActionUnknownSession(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.routes())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/sessions/does-not-exist/clarify", "application/json",
		strings.NewReader(`{"answers": "June"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSessionLifecycle(t *testing.T) {
	srv := newTestServer(t,
		`{"origin": "Delhi", "destination": "Leh"}`,
		"What month works for you?",
	)
	ts := httptest.NewServer(srv.routes())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/sessions", "application/json",
		strings.NewReader(`{"prompt": "Plan a trip from Delhi to Leh"}`))
	require.NoError(t, err)
	var turn turnResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&turn))
	resp.Body.Close()

	// GET returns the persisted session.
	resp, err = http.Get(ts.URL + "/sessions/" + turn.SessionID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// List includes it.
	resp, err = http.Get(ts.URL + "/sessions")
	require.NoError(t, err)
	var sessions []store.Session
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&sessions))
	resp.Body.Close()
	require.Len(t, sessions, 1)

	// Delete, then GET is a 404.
	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/sessions/"+turn.SessionID, nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(ts.URL + "/sessions/" + turn.SessionID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestAgentRevivedFromSnapshot(t *testing.T) {
	srv := newTestServer(t,
		`{"origin": "Delhi", "destination": "Leh"}`,
		"What month works for you?",
	)
	ts := httptest.NewServer(srv.routes())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/sessions", "application/json",
		strings.NewReader(`{"prompt": "Plan a trip from Delhi to Leh"}`))
	require.NoError(t, err)
	var turn turnResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&turn))
	resp.Body.Close()

	// Simulate a restart: drop the in-memory agent.
	srv.mu.Lock()
	delete(srv.agents, turn.SessionID)
	srv.mu.Unlock()

	a, err := srv.agentFor(httptest.NewRequest(http.MethodGet, "/", nil), turn.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "Leh", a.State().Destination)
}
