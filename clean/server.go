package clean

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const maxRequestSize = 4 << 20

// Server exposes a Cleaner over HTTP:
//
//	GET  /health  -> {"status":"ok"}
//	POST /clean   {"text": "..."} -> {"text": "..."}
type Server struct {
	router  chi.Router
	cleaner Cleaner
	timeout time.Duration
	logger  *log.Logger
}

// NewServer creates the HTTP handler for cleaner. Each request is bounded
// by timeout when it is positive.
func NewServer(cleaner Cleaner, timeout time.Duration, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default().WithPrefix("serve")
	}
	s := &Server{
		cleaner: cleaner,
		timeout: timeout,
		logger:  logger,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)

	r.Get("/health", s.handleHealth)
	r.Post("/clean", s.handleClean)

	s.router = r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("Request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleClean(w http.ResponseWriter, r *http.Request) {
	var req Request
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestSize))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Error: "invalid request body"})
		return
	}

	ctx := r.Context()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	text, err := s.cleaner.Clean(ctx, req.Text)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		s.logger.Warn("Clean failed", "error", err, "request_id", middleware.GetReqID(r.Context()))
		writeJSON(w, status, Response{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, Response{Text: text})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
