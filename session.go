// SPDX-License-Identifier: MIT

package confmod

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/ManuGH/confmod/internal/devserver"
	"github.com/ManuGH/confmod/internal/log"
	"github.com/ManuGH/confmod/internal/metrics"
	"github.com/ManuGH/confmod/internal/watch"
)

// defaultRebuildsPerSecond caps how fast source changes may trigger
// rebuilds. Bursts past the watcher debounce wait their turn instead of
// piling up rebuilds.
const defaultRebuildsPerSecond = 2.0

// SessionConfig describes one development session.
type SessionConfig struct {
	// EntryPoints are the application entry modules.
	EntryPoints []string

	// Root is the build root; relative source and output paths resolve
	// against it. Empty falls back to the working directory.
	Root string

	// Outdir receives rebuilt bundles and is served by the dev server.
	Outdir string

	// PublicPath is the runtime base URL assets are served under.
	PublicPath string

	// Plugin configures the configuration delivery.
	Plugin Options

	// Plugins are additional bundler plugins, run after confmod.
	Plugins []api.Plugin

	// Addr enables the development HTTP server when non-empty, for
	// example "127.0.0.1:8750" or ":0" for an ephemeral port.
	Addr string

	// Debounce overrides the watcher quiet period after the last source
	// change.
	Debounce time.Duration

	// RebuildsPerSecond caps the rebuild rate. Zero uses the default.
	RebuildsPerSecond float64

	// TracingService names this process in OpenTelemetry spans emitted
	// by the development server. Empty disables tracing.
	TracingService string

	Logger *zerolog.Logger
}

// Session owns a development pipeline: an incremental bundler context,
// the source watcher driving the reload-then-rebuild loop, and
// optionally the development server pushing hot updates to browsers.
type Session struct {
	cfg     SessionConfig
	logger  zerolog.Logger
	plugin  *Plugin
	esctx   api.BuildContext
	server  *devserver.Server
	limiter *rate.Limiter
	started atomic.Bool

	// changeMu serializes reload-rebuild-broadcast rounds.
	changeMu sync.Mutex
}

// NewSession prepares a development session. The bundler context is
// created eagerly so option errors surface here, not in Run.
func NewSession(cfg SessionConfig) (*Session, error) {
	logger := log.WithComponent("session")
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	plugin := New(ModeDevelop, cfg.Plugin)

	esctx, ctxErr := api.Context(api.BuildOptions{
		EntryPoints:   cfg.EntryPoints,
		AbsWorkingDir: cfg.Root,
		Outdir:        cfg.Outdir,
		PublicPath:    cfg.PublicPath,
		Bundle:        true,
		Write:         false,
		Format:        api.FormatESModule,
		Plugins:       append([]api.Plugin{plugin.ESBuild()}, cfg.Plugins...),
	})
	if ctxErr != nil {
		return nil, buildError(ctxErr.Errors)
	}

	rps := cfg.RebuildsPerSecond
	if rps <= 0 {
		rps = defaultRebuildsPerSecond
	}

	s := &Session{
		cfg:     cfg,
		logger:  logger,
		plugin:  plugin,
		esctx:   esctx,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
	if cfg.Addr != "" {
		s.server = devserver.NewServer(devserver.Config{
			Addr:           cfg.Addr,
			Outdir:         cfg.Outdir,
			TracingService: cfg.TracingService,
			Logger:         log.WithComponent("devserver"),
		})
	}
	return s, nil
}

// Plugin returns the session's plugin instance.
func (s *Session) Plugin() *Plugin {
	return s.plugin
}

// ServerAddr reports the dev server's bound address. It is empty when
// serving is disabled or the listener has not bound yet.
func (s *Session) ServerAddr() string {
	if s.server == nil {
		return ""
	}
	return s.server.Addr()
}

// Run builds once, then rebuilds on source changes until ctx is
// cancelled. A failing build does not end the session; the next change
// gets another chance.
func (s *Session) Run(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return errors.New("session already started")
	}
	defer s.esctx.Dispose()

	s.changeMu.Lock()
	s.rebuild("initial")
	s.changeMu.Unlock()

	g, gctx := errgroup.WithContext(ctx)

	watcher := watch.New(watch.Config{
		Path:     s.plugin.SourcePath(),
		Debounce: s.cfg.Debounce,
		OnChange: func() { s.onSourceChange(gctx) },
		Logger:   s.logger,
	})
	if err := watcher.Start(gctx); err != nil {
		return fmt.Errorf("start source watcher: %w", err)
	}
	defer watcher.Stop()

	if s.server != nil {
		g.Go(func() error { return s.server.Run(gctx) })
	}

	g.Go(func() error {
		<-gctx.Done()
		return gctx.Err()
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	s.logger.Info().
		Str("event", "session.stopped").
		Msg("development session stopped")
	return err
}

// onSourceChange runs once per debounced burst of source changes: it
// reloads the configuration, rebuilds if the module is part of the
// bundle and notifies connected clients.
func (s *Session) onSourceChange(ctx context.Context) {
	if err := s.limiter.Wait(ctx); err != nil {
		return
	}

	s.changeMu.Lock()
	defer s.changeMu.Unlock()

	s.plugin.reload("watch")

	if !s.plugin.ModuleLoaded() {
		// Nothing imported the module yet; the refreshed value is picked
		// up whenever the first load happens.
		metrics.RecordRebuild("skipped")
		s.logger.Debug().
			Str("event", "session.rebuild_skipped").
			Msg("module not loaded, skipping rebuild")
		return
	}

	if !s.rebuild("watch") {
		return
	}

	metrics.RecordHotUpdate()
	if s.server != nil {
		s.server.Hub().BroadcastUpdate(s.plugin.Specifier())
	}
}

// rebuild runs one incremental build and writes its outputs. It reports
// whether the outputs are on disk.
func (s *Session) rebuild(trigger string) bool {
	start := time.Now()

	result := s.esctx.Rebuild()
	if len(result.Errors) > 0 {
		metrics.RecordRebuild("failure")
		s.logger.Error().
			Str("event", "session.rebuild_failed").
			Str("trigger", trigger).
			Msg(buildError(result.Errors).Error())
		return false
	}
	for _, msg := range result.Warnings {
		s.logger.Warn().Str("event", "build.warning").Msg(formatMessage(msg))
	}

	written, err := writeOutputFiles(result.OutputFiles)
	if err != nil {
		metrics.RecordRebuild("failure")
		s.logger.Error().
			Err(err).
			Str("event", "session.write_failed").
			Str("trigger", trigger).
			Msg("could not write build outputs")
		return false
	}

	metrics.RecordRebuild("success")
	s.logger.Info().
		Str("event", "session.rebuilt").
		Str("trigger", trigger).
		Int("files", len(written)).
		Dur("duration", time.Since(start)).
		Msg("rebuild completed")
	return true
}
