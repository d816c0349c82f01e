// Package api provides the HTTP REST API for newsquill.
//
// Endpoints:
//
//	POST   /api/chat                  - run one chat turn
//	GET    /api/history/{sessionId}   - read the conversation log
//	DELETE /api/reset/{sessionId}     - delete the conversation log
//	GET    /health                    - liveness probe
//	GET    /ready                     - readiness probe
//
// File structure:
//   - server.go: HTTP server setup and lifecycle
//   - middleware.go: HTTP middleware (recovery, logging)
//   - ratelimit.go: per-IP token bucket rate limiting
//   - chat.go: chat, history and reset endpoints
//   - health.go: health check endpoints (/health, /ready)
//   - response.go: JSON response helpers
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/newsquill/newsquill/internal/log"
)

const (
	// DefaultAddr is the default address for the HTTP server.
	DefaultAddr = "127.0.0.1:3400"

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout bounds header reads to limit slow-client abuse.
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout = 30 * time.Second

	// WriteTimeout is the maximum duration for writing the response. Chat
	// turns include a model call, so this is generous.
	WriteTimeout = 60 * time.Second

	// IdleTimeout is the keep-alive idle limit.
	IdleTimeout = 120 * time.Second
)

// Config configures the HTTP server.
type Config struct {
	Addr string

	// RatePerSecond and RateBurst parameterize the per-IP token bucket.
	// A zero rate disables limiting.
	RatePerSecond float64
	RateBurst     int

	// TrustProxy enables client IP extraction from proxy headers.
	TrustProxy bool
}

// Server is the HTTP server for the chat API.
type Server struct {
	mux     *http.ServeMux
	cfg     Config
	limiter *rateLimiter
	logger  log.Logger

	health *HealthHandler
	chat   *ChatHandler
}

// NewServer creates an HTTP server with all routes registered.
func NewServer(svc ChatService, ready ReadyCheck, cfg Config, logger log.Logger) *Server {
	if logger == nil {
		logger = log.NewNop()
	}
	mux := http.NewServeMux()

	s := &Server{
		mux:    mux,
		cfg:    cfg,
		logger: logger,
		health: NewHealthHandler(ready, logger),
		chat:   NewChatHandler(svc, logger),
	}
	if cfg.RatePerSecond > 0 {
		s.limiter = newRateLimiter(cfg.RatePerSecond, cfg.RateBurst)
	}

	s.health.RegisterRoutes(mux)
	s.chat.RegisterRoutes(mux)

	return s
}

// Handler returns the HTTP handler with middleware applied.
// Middleware order: recovery → logging → rate limit → handler.
func (s *Server) Handler() http.Handler {
	middlewares := []func(http.Handler) http.Handler{
		recoveryMiddleware(s.logger),
		loggingMiddleware(s.logger),
	}
	if s.limiter != nil {
		middlewares = append(middlewares, rateLimitMiddleware(s.limiter, s.cfg.TrustProxy, s.logger))
	}
	return chain(s.mux, middlewares...)
}

// Run starts the HTTP server and blocks until the context is cancelled,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := s.cfg.Addr
	if addr == "" {
		addr = DefaultAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
