// SPDX-License-Identifier: MIT

package confmod

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"

	"github.com/ManuGH/confmod/internal/log"
)

// ErrBuildFailed wraps bundler-reported errors from Build and from
// session rebuilds.
var ErrBuildFailed = errors.New("build failed")

// BuildConfig describes one production build.
type BuildConfig struct {
	// EntryPoints are the application entry modules.
	EntryPoints []string

	// Root is the build root; relative source and output paths resolve
	// against it. Empty falls back to the working directory.
	Root string

	// Outdir receives the bundle and the configuration asset.
	Outdir string

	// PublicPath is the runtime base URL assets are served under. It
	// becomes the prefix of the generated accessor's fetch target.
	PublicPath string

	// Minify enables whitespace, identifier and syntax minification.
	Minify bool

	// Sourcemap emits linked source maps.
	Sourcemap bool

	// Plugin configures the configuration delivery.
	Plugin Options

	// Plugins are additional bundler plugins, run after confmod.
	Plugins []api.Plugin

	Logger *zerolog.Logger
}

// BuildResult reports what a production build wrote.
type BuildResult struct {
	OutputFiles []string
	Duration    time.Duration
}

// Build runs a production build: bundles the entry points with the
// plugin in produce mode, emits the configuration asset and writes
// every output file atomically. The bundler runs with writing disabled
// so the asset travels through the same output set as the bundle.
func Build(ctx context.Context, cfg BuildConfig) (*BuildResult, error) {
	logger := log.WithComponent("build")
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	start := time.Now()

	plugin := New(ModeProduce, cfg.Plugin)
	opts := api.BuildOptions{
		EntryPoints:   cfg.EntryPoints,
		AbsWorkingDir: cfg.Root,
		Outdir:        cfg.Outdir,
		PublicPath:    cfg.PublicPath,
		Bundle:        true,
		Write:         false,
		Format:        api.FormatESModule,
		Plugins:       append([]api.Plugin{plugin.ESBuild()}, cfg.Plugins...),
	}
	if cfg.Minify {
		opts.MinifyWhitespace = true
		opts.MinifyIdentifiers = true
		opts.MinifySyntax = true
	}
	if cfg.Sourcemap {
		opts.Sourcemap = api.SourceMapLinked
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result := api.Build(opts)
	if len(result.Errors) > 0 {
		return nil, buildError(result.Errors)
	}
	for _, msg := range result.Warnings {
		logger.Warn().Str("event", "build.warning").Msg(formatMessage(msg))
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	written, err := writeOutputFiles(result.OutputFiles)
	if err != nil {
		return nil, err
	}

	res := &BuildResult{OutputFiles: written, Duration: time.Since(start)}
	logger.Info().
		Str("event", "build.completed").
		Int("files", len(written)).
		Dur("duration", res.Duration).
		Str("outdir", cfg.Outdir).
		Msg("production build completed")
	return res, nil
}

// writeOutputFiles writes bundler outputs atomically, creating parent
// directories as needed. Paths come back absolute from the bundler.
func writeOutputFiles(files []api.OutputFile) ([]string, error) {
	written := make([]string, 0, len(files))
	for _, f := range files {
		if err := os.MkdirAll(filepath.Dir(f.Path), 0o755); err != nil {
			return written, fmt.Errorf("create output directory: %w", err)
		}
		if err := renameio.WriteFile(f.Path, f.Contents, 0o644); err != nil {
			return written, fmt.Errorf("write output %s: %w", f.Path, err)
		}
		written = append(written, f.Path)
	}
	return written, nil
}

func buildError(messages []api.Message) error {
	if len(messages) == 0 {
		return ErrBuildFailed
	}
	first := formatMessage(messages[0])
	if len(messages) == 1 {
		return fmt.Errorf("%w: %s", ErrBuildFailed, first)
	}
	return fmt.Errorf("%w: %s (and %d more)", ErrBuildFailed, first, len(messages)-1)
}

func formatMessage(msg api.Message) string {
	if msg.Location != nil {
		return fmt.Sprintf("%s:%d:%d: %s", msg.Location.File, msg.Location.Line, msg.Location.Column, msg.Text)
	}
	return msg.Text
}
