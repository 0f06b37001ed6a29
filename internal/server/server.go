// Package server exposes the supervisor over HTTP: a JSON chat
// endpoint, a Slack events endpoint, health, and Prometheus metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/threadflow/threadflow/pkg/chat"
)

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = ":8080"

// backgroundTimeout bounds Slack mention processing, which happens
// after the event is acknowledged.
const backgroundTimeout = 60 * time.Second

// Processor answers one question on a thread. The supervisor
// satisfies it.
type Processor interface {
	Process(ctx context.Context, threadID, question string) (string, error)
}

// Server is the HTTP boundary. Construct with New, serve with Start,
// stop with Shutdown.
type Server struct {
	processor Processor
	notifier  chat.Notifier
	logger    *slog.Logger
	metrics   *metrics
	botUserID string

	httpSrv *http.Server
	bg      sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(s *Server) {
		if addr != "" {
			s.httpSrv.Addr = addr
		}
	}
}

// WithNotifier sets the notifier used to post Slack replies. Without
// one, mention replies are logged and dropped.
func WithNotifier(n chat.Notifier) Option {
	return func(s *Server) {
		s.notifier = n
	}
}

// WithBotUserID identifies the bot's own Slack user so its messages
// are ignored and its mention is stripped from questions.
func WithBotUserID(id string) Option {
	return func(s *Server) {
		s.botUserID = id
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New builds the server around a processor.
func New(processor Processor, opts ...Option) (*Server, error) {
	if processor == nil {
		return nil, fmt.Errorf("server: processor is required")
	}

	s := &Server{
		processor: processor,
		logger:    slog.Default(),
		metrics:   newMetrics(),
		httpSrv: &http.Server{
			Addr:              DefaultAddr,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.httpSrv.Handler = s.routes()
	return s, nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.instrument)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))
	r.Post("/v1/chat", s.handleChat)
	r.Post("/slack/events", s.handleSlackEvent)
	return r
}

// Handler returns the assembled route tree. Used by tests; Start
// serves the same handler.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.httpSrv.Addr)
	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections, then waits for in-flight
// requests and background Slack work, bounded by ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpSrv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}

	done := make(chan struct{})
	go func() {
		s.bg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for background work: %w", ctx.Err())
	}
}

// instrument records request metrics and writes one access log line
// per request.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		s.metrics.requests.WithLabelValues(r.URL.Path, r.Method, strconv.Itoa(status)).Inc()
		s.metrics.requestDuration.WithLabelValues(r.URL.Path).Observe(elapsed.Seconds())
		s.logger.Info("request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"duration_ms", elapsed.Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

type chatRequest struct {
	Message  string `json:"message"`
	ThreadID string `json:"thread_id"`
}

type chatResponse struct {
	Response string `json:"response"`
	ThreadID string `json:"thread_id"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		s.writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	threadID := req.ThreadID
	if threadID == "" {
		threadID = uuid.NewString()
	}

	reply, err := s.runProcessor(r.Context(), threadID, req.Message)
	if err != nil {
		s.logger.Error("chat request failed", "thread_id", threadID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "processing failed")
		return
	}
	s.writeJSON(w, http.StatusOK, chatResponse{Response: reply, ThreadID: threadID})
}

// runProcessor wraps Process with the agent-run metric.
func (s *Server) runProcessor(ctx context.Context, threadID, question string) (string, error) {
	start := time.Now()
	reply, err := s.processor.Process(ctx, threadID, question)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	s.metrics.runDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	return reply, err
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("writing response failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
