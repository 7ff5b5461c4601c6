// SPDX-License-Identifier: MIT

package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ManuGH/confmod/internal/log"
	"github.com/ManuGH/confmod/internal/version"
)

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = "127.0.0.1:8750"

const shutdownTimeout = 10 * time.Second

// Config configures the development server.
type Config struct {
	// Addr is the TCP listen address. Defaults to DefaultAddr.
	Addr string

	// Outdir is the build output directory served at the root path.
	Outdir string

	// TracingService enables OpenTelemetry HTTP spans under this
	// service name. Empty disables tracing.
	TracingService string

	Logger zerolog.Logger
}

// Server serves build outputs plus health, metrics and the hot-update
// websocket endpoint.
type Server struct {
	cfg     Config
	outdir  string
	logger  zerolog.Logger
	hub     *Hub
	started atomic.Bool

	mu   sync.Mutex
	addr string
}

// NewServer creates a development server for the given output directory.
func NewServer(cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	return &Server{
		cfg:    cfg,
		outdir: cfg.Outdir,
		logger: cfg.Logger,
		hub:    NewHub(cfg.Logger),
	}
}

// Hub exposes the websocket hub for broadcasting update notifications.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Addr reports the bound listen address once Run has started. With a ":0"
// configuration this is the kernel-assigned port.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(recoverer)
	r.Use(requestID)
	r.Use(corsAllowAll)

	// The websocket endpoint stays outside the wrapping middlewares below;
	// the upgrade needs the raw http.ResponseWriter to hijack the connection.
	r.With(wsThrottle()).Get("/ws", s.hub.ServeHTTP)

	r.Group(func(r chi.Router) {
		r.Use(requestMetrics())
		if s.cfg.TracingService != "" {
			r.Use(otelTracing(s.cfg.TracingService))
		}
		r.Use(log.Middleware())
		r.Use(devHeaders)

		r.Get("/healthz", s.handleHealth)
		r.Handle("/metrics", promhttp.Handler())
		r.Handle("/*", s.staticHandler())
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"release": version.Version,
		"clients": s.hub.Clients(),
	})
}

// Run listens and serves until ctx is cancelled. The hub lifecycle is owned
// here; on shutdown connected clients receive close frames before the HTTP
// server drains.
func (s *Server) Run(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return errors.New("dev server already started")
	}

	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("devserver listen on %s: %w", s.cfg.Addr, err)
	}

	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.mu.Unlock()

	hubCtx, cancelHub := context.WithCancel(context.Background())
	hubDone := make(chan struct{})
	go func() {
		defer close(hubDone)
		s.hub.Run(hubCtx)
	}()

	srv := &http.Server{
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("dev server: %w", err)
		}
	}()

	s.logger.Info().
		Str("event", "devserver.listening").
		Str("addr", s.Addr()).
		Str("outdir", s.outdir).
		Msg("dev server listening")

	shutdown := func() error {
		cancelHub()
		<-hubDone
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}

	select {
	case err := <-serveErr:
		_ = shutdown()
		return err
	case <-ctx.Done():
		if err := shutdown(); err != nil {
			return fmt.Errorf("dev server shutdown: %w", err)
		}
		s.logger.Info().
			Str("event", "devserver.stopped").
			Msg("dev server stopped")
		return nil
	}
}
