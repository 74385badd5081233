package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/aethm/statvec/logging"
)

// Server is the HTTP boundary around a Pipeline.
type Server struct {
	pipeline *Pipeline
	log      *logging.Logger
	httpSrv  *http.Server
}

// NewServer builds a Server from the config.
func NewServer(cfg *Config, log *logging.Logger) *Server {
	s := &Server{
		pipeline: NewPipeline(cfg, log),
		log:      log,
	}
	s.httpSrv = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
	}
	return s
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/vectorize", s.handleVectorize)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.Handle("/metrics", s.pipeline.Metrics().Handler())
	return mux
}

// ListenAndServe runs the HTTP server until Shutdown or failure.
func (s *Server) ListenAndServe() error {
	s.log.Infof("[Server] listening on %s", s.httpSrv.Addr)
	return s.httpSrv.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleVectorize triggers one fetch-vectorize-relay run.
func (s *Server) handleVectorize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody("method not allowed"))
		return
	}

	requestID := uuid.New().String()
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.pipeline.Metrics().RequestsTotal.WithLabelValues("bad_request").Inc()
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.URL == "" {
		s.pipeline.Metrics().RequestsTotal.WithLabelValues("bad_request").Inc()
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'url' in request body"))
		return
	}

	s.log.Infof("[Server] request %s: vectorize %s (job %s)", requestID, req.URL, req.JobID)

	result, err := s.pipeline.Run(r.Context(), req)
	if err != nil {
		switch {
		case IsNotFound(err):
			s.pipeline.Metrics().RequestsTotal.WithLabelValues("not_found").Inc()
			writeJSON(w, http.StatusBadRequest, errorBody("file not found: "+err.Error()))
		case errors.Is(err, ErrFetchFailed):
			s.pipeline.Metrics().RequestsTotal.WithLabelValues("fetch_failed").Inc()
			writeJSON(w, http.StatusBadRequest, errorBody("failed to fetch dataset: "+err.Error()))
		default:
			s.pipeline.Metrics().RequestsTotal.WithLabelValues("error").Inc()
			writeJSON(w, http.StatusInternalServerError, errorBody(err.Error()))
		}
		return
	}

	s.pipeline.Metrics().RequestsTotal.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusOK, result)
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
