// SPDX-License-Identifier: MIT

// Package source loads, parses and holds the JSON configuration value
// that the virtual module and the emitted asset are generated from.
package source

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ManuGH/confmod/internal/metrics"
	"github.com/rs/zerolog"
)

// Loader reads the configuration source file. Loading never fails: a
// missing or malformed file yields an empty object so builds keep
// working while the file is being created or edited.
type Loader struct {
	resolved string
	logger   zerolog.Logger
}

// NewLoader creates a loader for the source file at path, resolved
// against root when relative. An empty path disables file access
// entirely and every load yields an empty object.
func NewLoader(root, path string, logger zerolog.Logger) *Loader {
	resolved := ""
	if path != "" {
		if filepath.IsAbs(path) {
			resolved = filepath.Clean(path)
		} else {
			resolved = filepath.Join(root, path)
		}
	}
	return &Loader{
		resolved: resolved,
		logger:   logger,
	}
}

// Path returns the resolved absolute source path, or "" when no source
// file is configured.
func (l *Loader) Path() string {
	return l.resolved
}

// Load reads and parses the source file and returns the decoded value
// verbatim: objects, arrays and primitives all pass through unchanged.
// Read and parse failures degrade to an empty object with exactly one
// warning per attempt; silent suppresses the warning but not the
// fallback.
func (l *Loader) Load(silent bool) any {
	if l.resolved == "" {
		metrics.RecordSourceLoad("empty")
		return map[string]any{}
	}

	// #nosec G304 -- the source path is provided by the build author
	data, err := os.ReadFile(l.resolved)
	if err != nil {
		outcome := "unreadable"
		if errors.Is(err, fs.ErrNotExist) {
			outcome = "missing"
		}
		metrics.RecordSourceLoad(outcome)
		if !silent {
			l.logger.Warn().
				Str("event", "source.read_failed").
				Str("path", l.resolved).
				Str("reason", Message(err)).
				Msg("config source could not be read, serving empty object")
		}
		return map[string]any{}
	}

	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		metrics.RecordSourceLoad("malformed")
		if !silent {
			l.logger.Warn().
				Str("event", "source.parse_failed").
				Str("path", l.resolved).
				Str("reason", Message(err)).
				Msg("config source is not valid JSON, serving empty object")
		}
		return map[string]any{}
	}

	metrics.RecordSourceLoad("success")
	return value
}
