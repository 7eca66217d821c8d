package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/trip-planner/internal/agent"
	"github.com/sells-group/trip-planner/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the planning API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		srv := newServer(env)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		httpSrv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           srv.routes(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			httpSrv.Shutdown(shutdownCtx) //nolint:errcheck
			srv.wait()
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// server holds the live agents for open sessions. State is snapshotted to
// the store after every turn, so a restarted server can resume a session
// even though the in-memory agent is gone.
type server struct {
	env *appEnv

	mu     sync.Mutex
	agents map[string]*agent.Agent
}

func newServer(env *appEnv) *server {
	return &server{env: env, agents: make(map[string]*agent.Agent)}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)
		r.Get("/", s.handleListSessions)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Get("/images", s.handleImages)
			r.Post("/clarify", s.handleAction(agent.ActionClarify))
			r.Post("/proceed", s.handleAction(agent.ActionProceed))
			r.Post("/assumptions", s.handleAction(agent.ActionAssumptions))
			r.Post("/refine", s.handleAction(agent.ActionRefine))
		})
	})

	return r
}

// wait blocks until background structuring on all live agents settles.
func (s *server) wait() {
	s.mu.Lock()
	agents := make([]*agent.Agent, 0, len(s.agents))
	for _, a := range s.agents {
		agents = append(agents, a)
	}
	s.mu.Unlock()

	var g errgroup.Group
	for _, a := range agents {
		g.Go(func() error {
			a.Wait()
			return nil
		})
	}
	g.Wait() //nolint:errcheck
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createSessionRequest struct {
	Prompt string `json:"prompt"`
	Vibe   string `json:"vibe,omitempty"`
}

type turnResponse struct {
	SessionID   string `json:"session_id"`
	Phase       string `json:"phase"`
	Response    string `json:"response"`
	HasHighRisk bool   `json:"has_high_risk,omitempty"`
}

func (s *server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Prompt == "" {
		writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	a := s.env.newAgent(req.Vibe, nil, nil)
	sess, err := s.env.store.CreateSession(r.Context(), a.State())
	if err != nil {
		zap.L().Error("create session failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not create session")
		return
	}

	s.mu.Lock()
	s.agents[sess.ID] = a
	s.mu.Unlock()

	s.runTurn(w, r, sess.ID, a, agent.ActionStart, agent.Payload{Prompt: req.Prompt})
}

func (s *server) handleAction(action agent.Action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		a, err := s.agentFor(r, id)
		if err != nil {
			if eris.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusNotFound, "session not found")
				return
			}
			zap.L().Error("load session failed", zap.String("session", id), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "could not load session")
			return
		}

		var payload agent.Payload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		s.runTurn(w, r, id, a, action, payload)
	}
}

// runTurn dispatches one turn, snapshots the session, and writes the
// response. With ?stream=1 the response body is chunked text followed by a
// trailing JSON metadata line.
func (s *server) runTurn(w http.ResponseWriter, r *http.Request, id string, a *agent.Agent, action agent.Action, payload agent.Payload) {
	streaming := r.URL.Query().Get("stream") == "1"

	var result *agent.Result
	var err error

	if streaming {
		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, "streaming unsupported")
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("X-Session-ID", id)

		result, err = a.DispatchStream(r.Context(), action, payload, func(chunk string) error {
			if _, werr := w.Write([]byte(chunk)); werr != nil {
				return werr
			}
			flusher.Flush()
			return nil
		})
	} else {
		result, err = a.Dispatch(r.Context(), action, payload)
	}

	if err != nil {
		zap.L().Error("turn failed",
			zap.String("session", id),
			zap.String("action", string(action)),
			zap.Error(err),
		)
		if !streaming {
			writeError(w, http.StatusInternalServerError, "turn failed")
		}
		return
	}

	if serr := s.env.store.SaveSession(r.Context(), id, a.State()); serr != nil {
		zap.L().Error("snapshot session failed", zap.String("session", id), zap.Error(serr))
	}

	resp := turnResponse{
		SessionID:   id,
		Phase:       string(result.Phase),
		Response:    result.Response,
		HasHighRisk: result.HasHighRisk,
	}
	if streaming {
		// Trailing metadata line after the streamed text.
		meta, _ := json.Marshal(resp)
		fmt.Fprintf(w, "\n\n%s\n", meta)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// agentFor returns the live agent for a session, reviving it from the
// stored snapshot when the server has restarted since the last turn.
func (s *server) agentFor(r *http.Request, id string) (*agent.Agent, error) {
	s.mu.Lock()
	a, ok := s.agents[id]
	s.mu.Unlock()
	if ok {
		return a, nil
	}

	sess, err := s.env.store.GetSession(r.Context(), id)
	if err != nil {
		return nil, err
	}

	a = s.env.newAgent(sess.State.Vibe, nil, nil)
	a.RestoreState(sess.State)

	s.mu.Lock()
	s.agents[id] = a
	s.mu.Unlock()
	return a, nil
}

func (s *server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, err := s.env.store.GetSession(r.Context(), id)
	if err != nil {
		if eris.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "could not load session")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.env.store.ListSessions(r.Context(), store.SessionFilter{})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not list sessions")
		return
	}
	if sessions == nil {
		sessions = []store.Session{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	if a, ok := s.agents[id]; ok {
		a.Wait()
		delete(s.agents, id)
	}
	s.mu.Unlock()

	if err := s.env.store.DeleteSession(r.Context(), id); err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleImages(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	a, err := s.agentFor(r, id)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	images := a.Images(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"images": images})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("write response failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
