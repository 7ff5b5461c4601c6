// SPDX-License-Identifier: MIT

// Package emit writes the serialized configuration asset into the build
// output, either through the bundler's own output file set or as a
// direct write into a target directory.
package emit

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"

	"github.com/ManuGH/confmod/internal/metrics"
	"github.com/ManuGH/confmod/internal/source"
)

// Style selects how the configuration asset reaches the build output.
type Style int

const (
	// StyleIntegrated hands the asset to the bundler's output pipeline;
	// write failures surface through the host's own error reporting.
	StyleIntegrated Style = iota
	// StyleStandalone writes the asset directly into the configured
	// output directory; failures are logged and never abort the build.
	StyleStandalone
)

func (s Style) String() string {
	switch s {
	case StyleIntegrated:
		return "integrated"
	case StyleStandalone:
		return "standalone"
	default:
		return "unknown"
	}
}

// Asset is one rendered configuration artifact.
type Asset struct {
	Path     string
	Contents []byte
}

// Config carries the emitter's collaborators and output naming.
type Config struct {
	Loader     *source.Loader
	Store      *source.Store
	OutputName string
	OutputDir  string
	Logger     zerolog.Logger
}

// Emitter renders the held configuration as pretty JSON once per
// production build, after bundling. It reloads the source silently
// right before emission so the asset reflects the latest on-disk
// content even when the file changed mid-build.
type Emitter struct {
	cfg Config
}

// New creates an emitter.
func New(cfg Config) *Emitter {
	return &Emitter{cfg: cfg}
}

// refresh silently reloads the source and replaces the held value.
func (e *Emitter) refresh() {
	e.cfg.Store.Replace(e.cfg.Loader.Load(true))
	metrics.RecordSourceReload("emit")
}

// Integrated reloads and renders the asset destined for the bundler's
// output file set, placed under outDir. Serialization failures
// propagate to the caller.
func (e *Emitter) Integrated(outDir string) (Asset, error) {
	e.refresh()

	data, err := source.MarshalPretty(e.cfg.Store.Snapshot())
	if err != nil {
		metrics.RecordAssetWriteError()
		return Asset{}, fmt.Errorf("serialize config asset: %w", err)
	}

	asset := Asset{
		Path:     filepath.Join(outDir, e.cfg.OutputName),
		Contents: data,
	}
	metrics.RecordAssetEmitted(StyleIntegrated.String())
	e.cfg.Logger.Debug().
		Str("event", "emit.asset_ready").
		Str("asset", asset.Path).
		Int("bytes", len(data)).
		Msg("config asset rendered")
	return asset, nil
}

// Standalone reloads and writes the asset directly under the configured
// output directory, creating it when absent. Any failure is logged and
// swallowed so the build keeps going; the returned asset carries the
// attempted path either way.
func (e *Emitter) Standalone() Asset {
	e.refresh()

	asset := Asset{Path: filepath.Join(e.cfg.OutputDir, e.cfg.OutputName)}

	data, err := source.MarshalPretty(e.cfg.Store.Snapshot())
	if err != nil {
		e.writeFailed(asset.Path, err)
		return asset
	}
	asset.Contents = data

	if err := os.MkdirAll(e.cfg.OutputDir, 0o755); err != nil {
		e.writeFailed(asset.Path, err)
		return asset
	}
	if err := e.writeAtomic(asset.Path, data); err != nil {
		e.writeFailed(asset.Path, err)
		return asset
	}

	metrics.RecordAssetEmitted(StyleStandalone.String())
	e.cfg.Logger.Info().
		Str("event", "emit.asset_written").
		Str("asset", asset.Path).
		Int("bytes", len(data)).
		Msg("config asset written")
	return asset
}

// writeAtomic writes data via a pending file so readers never observe a
// partially written asset.
func (e *Emitter) writeAtomic(path string, data []byte) error {
	pendingFile, err := renameio.NewPendingFile(path)
	if err != nil {
		return fmt.Errorf("create pending asset file: %w", err)
	}
	defer func() {
		if err := pendingFile.Cleanup(); err != nil {
			e.cfg.Logger.Debug().Err(err).Msg("cleanup pending asset file")
		}
	}()

	if _, err := pendingFile.Write(data); err != nil {
		return fmt.Errorf("write asset data: %w", err)
	}
	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace asset file: %w", err)
	}
	return nil
}

func (e *Emitter) writeFailed(path string, err error) {
	metrics.RecordAssetWriteError()
	e.cfg.Logger.Error().
		Err(err).
		Str("event", "emit.write_failed").
		Str("asset", path).
		Msg("config asset could not be written, build continues")
}
