// SPDX-License-Identifier: MIT

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultFileNames are the project file names Discover looks for.
var DefaultFileNames = []string{"confmod.yaml", "confmod.yml"}

// FileConfig is the YAML shape of the project file. Pointer fields
// distinguish "absent" from explicit false/zero values.
type FileConfig struct {
	Root       string   `yaml:"root"`
	Entry      []string `yaml:"entry"`
	Outdir     string   `yaml:"outdir"`
	PublicPath string   `yaml:"public_path"`
	Minify     *bool    `yaml:"minify"`
	Sourcemap  *bool    `yaml:"sourcemap"`
	LogLevel   string   `yaml:"log_level"`

	Config  FileModule  `yaml:"config"`
	Dev     FileDev     `yaml:"dev"`
	Tracing FileTracing `yaml:"tracing"`
}

// FileModule is the "config:" section of the project file.
type FileModule struct {
	Path       string `yaml:"path"`
	Name       string `yaml:"name"`
	OutputName string `yaml:"output_name"`
	OutputDir  string `yaml:"output_dir"`
	Emit       string `yaml:"emit"`
	Callback   *bool  `yaml:"callback"`
}

// FileDev is the "dev:" section of the project file.
type FileDev struct {
	Addr              string   `yaml:"addr"`
	Debounce          string   `yaml:"debounce"`
	RebuildsPerSecond *float64 `yaml:"rebuilds_per_second"`
}

// FileTracing is the "tracing:" section of the project file.
type FileTracing struct {
	Enabled     *bool    `yaml:"enabled"`
	Service     string   `yaml:"service"`
	Endpoint    string   `yaml:"endpoint"`
	Protocol    string   `yaml:"protocol"`
	SampleRate  *float64 `yaml:"sample_rate"`
	Environment string   `yaml:"environment"`
}

// Discover returns the project file to load from dir, or "" when none of
// the default names exists.
func Discover(dir string) string {
	for _, name := range DefaultFileNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// LoadFileConfig loads a project file without applying defaults or env
// overrides.
func LoadFileConfig(path string) (*FileConfig, error) {
	return loadFile(path)
}

// loadFile parses a YAML project file strictly. Unknown fields and
// trailing documents are errors, so misconfiguration fails fast.
func loadFile(path string) (*FileConfig, error) {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- the project file path is provided by the operator
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var fileCfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&fileCfg); err != nil {
		if errors.Is(err, io.EOF) {
			return &FileConfig{}, nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return nil, fmt.Errorf("%w: %s", ErrUnknownConfigField, err.Error())
		}
		return nil, fmt.Errorf("strict config parse error: %w", err)
	}

	// One document only.
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config file contains multiple documents or trailing content")
	}

	return &fileCfg, nil
}
