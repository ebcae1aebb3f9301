// Package server exposes the analysis engine over HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/abatilo/triage/internal/calendar"
	triageerrors "github.com/abatilo/triage/internal/errors"
	"github.com/abatilo/triage/internal/logging"
	"github.com/abatilo/triage/internal/output"
	"github.com/abatilo/triage/internal/rank"
	"github.com/abatilo/triage/internal/storage"
)

// maxBodyBytes bounds a request body.
const maxBodyBytes = 10 << 20

// Options configure a Server.
type Options struct {
	Holidays          calendar.Holidays
	DefaultStrategy   string
	FallbackToDefault bool
	// SuggestLimit applies when a suggest request has no limit parameter.
	SuggestLimit int
	// Now supplies the reference date when a request names none.
	Now func() time.Time
	// Metrics may be nil.
	Metrics *logging.Metrics
}

// StatusResponse describes the running server.
type StatusResponse struct {
	StartTime    time.Time `json:"start_time"`
	Uptime       string    `json:"uptime"`
	Analyses     uint64    `json:"analyses"`
	Rejected     uint64    `json:"rejected"`
	LastStrategy string    `json:"last_strategy,omitempty"`
	LastTasks    int       `json:"last_tasks"`
}

// Server serves analyze and suggest requests and remembers the most recent
// successful analysis.
type Server struct {
	opts Options
	log  *slog.Logger

	mu     sync.RWMutex
	last   *rank.Result
	status StatusResponse
}

// New creates a Server.
func New(opts Options) *Server {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.SuggestLimit == 0 {
		opts.SuggestLimit = rank.DefaultSuggestLimit
	}
	return &Server{
		opts:   opts,
		log:    logging.Logger().With("component", "server"),
		status: StatusResponse{StartTime: opts.Now()},
	}
}

// Handler returns the instrumented HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/tasks/analyze/", s.analyzeHandler)
	mux.HandleFunc("GET /api/tasks/suggest/", s.suggestHandler)
	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /status", s.statusHandler)
	return otelhttp.NewHandler(mux, "triage-api")
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		s.log.InfoContext(ctx, "API server starting", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server startup failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		s.log.Info("shutdown signal received, closing server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.log.Info("server exited cleanly")
	}
	return nil
}

// Last returns the most recent successful analysis, or nil.
func (s *Server) Last() *rank.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// Status reports server counters.
func (s *Server) Status() StatusResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	resp := s.status
	resp.Uptime = s.opts.Now().Sub(s.status.StartTime).Truncate(time.Second).String()
	return resp
}

func (s *Server) analyzeHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		s.reject(w, status, err)
		return
	}

	batch, err := storage.DecodeBatch(body)
	if err != nil {
		s.reject(w, http.StatusBadRequest, err)
		return
	}

	query := r.URL.Query()
	req, err := batch.Request(storage.RequestOptions{
		Strategy:        query.Get("strategy"),
		Today:           query.Get("today"),
		DefaultStrategy: s.opts.DefaultStrategy,
		Now:             s.opts.Now(),
	})
	if err != nil {
		s.reject(w, http.StatusBadRequest, err)
		return
	}
	req.Holidays = s.opts.Holidays
	req.FallbackToDefault = s.opts.FallbackToDefault

	_, span := logging.Tracer().Start(ctx, "rank.Analyze",
		trace.WithAttributes(attribute.Int("triage.input_tasks", len(req.Tasks))))
	res, err := rank.Analyze(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
	if err != nil {
		status := http.StatusInternalServerError
		if triageerrors.IsInputError(err) {
			status = http.StatusBadRequest
		}
		s.reject(w, status, err)
		return
	}
	batch.Annotate(res)

	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("triage.strategy", string(res.StrategyUsed)),
		attribute.Int("triage.tasks", len(res.Tasks)),
		attribute.Int("triage.cycles", len(res.Cycles)),
	)

	reply, err := encodeJSON(output.NormalizeResult(res))
	if err != nil {
		s.reject(w, http.StatusInternalServerError, fmt.Errorf("encode response: %w", err))
		return
	}

	if s.opts.Metrics != nil {
		s.opts.Metrics.RecordAnalysis(ctx, string(res.StrategyUsed), len(res.Warnings), time.Since(start))
	}

	s.mu.Lock()
	s.last = res
	s.status.Analyses++
	s.status.LastStrategy = string(res.StrategyUsed)
	s.status.LastTasks = len(res.Tasks)
	s.mu.Unlock()

	s.log.InfoContext(ctx, "analysis complete",
		"strategy", string(res.StrategyUsed), "tasks", len(res.Tasks), "warnings", len(res.Warnings))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(reply)
}

// suggestResponse is the body of a suggest reply.
type suggestResponse struct {
	StrategyUsed string            `json:"strategy_used"`
	Suggestions  []rank.Suggestion `json:"suggestions"`
}

func (s *Server) suggestHandler(w http.ResponseWriter, r *http.Request) {
	limit := s.opts.SuggestLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			s.reject(w, http.StatusBadRequest, fmt.Errorf("invalid limit: %q (valid: 1-%d)", v, rank.MaxSuggestLimit))
			return
		}
		limit = n
	}

	last := s.Last()
	suggestions, err := rank.Suggest(last, limit)
	if err != nil {
		s.reject(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, suggestResponse{
		StrategyUsed: string(last.StrategyUsed),
		Suggestions:  suggestions,
	})
}

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) statusHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Status())
}

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) reject(w http.ResponseWriter, status int, err error) {
	s.mu.Lock()
	s.status.Rejected++
	s.mu.Unlock()

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	s.log.Log(context.Background(), level, "request rejected", "status", status, "error", err.Error())
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// writeJSON encodes v before writing the header, so an unencodable value
// becomes a 500 instead of an empty reply.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := encodeJSON(v)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = encodeJSON(errorResponse{Error: "encode response: " + err.Error()})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
