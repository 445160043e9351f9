// Package httpapi serves the read-only admin API of a replay server.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/karishmathakrar/GreenGridPR/internal/metrics"
	"github.com/karishmathakrar/GreenGridPR/internal/replay"
	"github.com/karishmathakrar/GreenGridPR/internal/results"
)

// Server wires HTTP handlers to a replay buffer and, optionally, a results store.
type Server struct {
	buffer    *replay.PrioritizedBuffer
	store     results.Store
	collector *metrics.Collector
	logger    zerolog.Logger
}

// NewServer constructs a Server. store may be nil, in which case the run
// routes are not mounted.
func NewServer(buffer *replay.PrioritizedBuffer, store results.Store, logger zerolog.Logger) *Server {
	return &Server{
		buffer:    buffer,
		store:     store,
		collector: metrics.NewCollector(logger),
		logger:    logger,
	}
}

// Routes builds the HTTP router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(CorrelationID)
	r.Use(RequestLogger(s.logger, s.collector))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/buffer/stats", s.handleStats)
		r.Delete("/buffer", s.handleClear)
		r.Get("/buffer/priorities/{index}", s.handlePriority)
		if s.store != nil {
			r.Get("/runs/{runID}", s.handleGetRun)
			r.Get("/runs/{runID}/episodes", s.handleEpisodes)
		}
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.buffer.Stats())
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	dropped := s.buffer.Len()
	s.buffer.Clear()
	s.logger.Warn().Int("dropped", dropped).Msg("replay buffer cleared")
	s.writeJSON(w, http.StatusOK, map[string]int{"dropped": dropped})
}

type priorityResponse struct {
	Index    int     `json:"index"`
	Priority float64 `json:"priority"`
}

func (s *Server) handlePriority(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "index must be an integer")
		return
	}
	priority, err := s.buffer.ScaledPriority(index)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, priorityResponse{Index: index, Priority: priority})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.GetRun(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleEpisodes(w http.ResponseWriter, r *http.Request) {
	episodes, err := s.store.Episodes(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, episodes)
}

func (s *Server) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, replay.ErrIndexOutOfRange), errors.Is(err, results.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode response")
	}
}
