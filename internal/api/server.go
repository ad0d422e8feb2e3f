package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/cardsync/internal/domain"
	"github.com/dvloznov/cardsync/internal/logger"
	"github.com/dvloznov/cardsync/internal/runlock"
)

// SyncRunner starts one run and returns its terminal result.
type SyncRunner interface {
	Run(ctx context.Context) domain.RunResult
}

// Server exposes the run trigger. The run lock rejects concurrent trigger
// attempts: a second browser session cannot coexist with a running one.
type Server struct {
	runner SyncRunner
	lock   *runlock.Lock
	log    zerolog.Logger

	mu   sync.Mutex
	last *domain.RunResult
}

// NewServer creates the trigger server around a runner and the process-wide
// run lock.
func NewServer(runner SyncRunner, lock *runlock.Lock, log zerolog.Logger) *Server {
	return &Server{runner: runner, lock: lock, log: log}
}

// Handler builds the routed and middleware-wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/sync", s.handleTrigger)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	var h http.Handler = mux
	h = RequestID(h)
	h = Recovery(s.log)(h)
	h = Logger(s.log)(h)
	return h
}

// handleTrigger starts a run in the background. 409 while one is active.
func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	if !s.lock.TryAcquire() {
		WriteError(w, http.StatusConflict, "a sync run is already in progress")
		return
	}

	go func() {
		defer s.lock.Release()

		ctx := logger.WithContext(context.Background(), s.log)
		result := s.runner.Run(ctx)

		s.mu.Lock()
		s.last = &result
		s.mu.Unlock()
	}()

	WriteJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

// handleStatus reports whether a run is active and the last terminal result.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	busy, since := s.lock.Busy()

	s.mu.Lock()
	last := s.last
	s.mu.Unlock()

	resp := map[string]any{"running": busy}
	if busy {
		resp["running_since"] = since.Format(time.RFC3339)
	}
	if last != nil {
		resp["last_result"] = last
	}
	WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
