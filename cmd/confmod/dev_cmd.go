// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	confmod "github.com/ManuGH/confmod"
	"github.com/ManuGH/confmod/internal/log"
	"github.com/ManuGH/confmod/internal/telemetry"
)

func runDev(args []string) int {
	fs := flag.NewFlagSet("confmod dev", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var configPath string
	var addr string
	fs.StringVar(&configPath, "config", "", "path to project file (YAML)")
	fs.StringVar(&configPath, "c", "", "path to project file (shorthand)")
	fs.StringVar(&addr, "addr", "", "development server listen address (overrides dev.addr)")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	logger := log.WithComponent("cli")

	cfg, cfgPath, err := resolveSettings(configPath)
	if err != nil {
		logger.Error().
			Err(err).
			Str("event", "config.load_failed").
			Str("config_path", cfgPath).
			Msg("failed to load configuration")
		return 1
	}
	if addr != "" {
		cfg.Dev.Addr = addr
	}

	entries := entryPoints(cfg, fs.Args())
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "Error: no entry points (pass them as arguments or set entry: in confmod.yaml)")
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracingService := ""
	if cfg.Tracing.Enabled {
		provider, err := telemetry.NewProvider(ctx, telemetry.Config{
			Enabled:        true,
			ServiceName:    cfg.Tracing.Service,
			ServiceVersion: version,
			Environment:    cfg.Tracing.Environment,
			Protocol:       cfg.Tracing.Protocol,
			Endpoint:       cfg.Tracing.Endpoint,
			SampleRate:     cfg.Tracing.SampleRate,
		})
		if err != nil {
			logger.Error().
				Err(err).
				Str("event", "telemetry.init_failed").
				Msg("failed to initialise tracing")
			return 1
		}
		defer func() {
			if err := provider.Shutdown(context.Background()); err != nil {
				logger.Warn().Err(err).Msg("tracer shutdown failed")
			}
		}()
		tracingService = cfg.Tracing.Service
	}

	session, err := confmod.NewSession(confmod.SessionConfig{
		EntryPoints:       entries,
		Root:              cfg.Root,
		Outdir:            cfg.Outdir,
		PublicPath:        cfg.PublicPath,
		Plugin:            pluginOptions(cfg),
		Addr:              cfg.Dev.Addr,
		Debounce:          cfg.Dev.Debounce,
		RebuildsPerSecond: cfg.Dev.RebuildsPerSecond,
		TracingService:    tracingService,
	})
	if err != nil {
		logger.Error().
			Err(err).
			Str("event", "session.create_failed").
			Msg("failed to create development session")
		return 1
	}

	logger.Info().
		Str("event", "startup").
		Str("version", version).
		Str("addr", cfg.Dev.Addr).
		Msg("starting development session")
	logger.Info().Msgf("→ Module: virtual:%s", cfg.Module.Name)
	if path := session.Plugin().SourcePath(); path != "" {
		logger.Info().Msgf("→ Config source: %s", path)
	} else {
		logger.Info().Msg("→ Config source: none (delivering empty object)")
	}
	logger.Info().Msgf("→ Dev server: http://%s", cfg.Dev.Addr)
	if cfg.Tracing.Enabled {
		logger.Info().Msgf("→ Tracing: %s via OTLP/%s", cfg.Tracing.Service, cfg.Tracing.Protocol)
	}

	if err := session.Run(ctx); err != nil {
		logger.Error().
			Err(err).
			Str("event", "session.failed").
			Msg("development session failed")
		return 1
	}

	logger.Info().Msg("development session exiting")
	return 0
}
