// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ManuGH/confmod/internal/log"
)

// runtimeEnvKeys are CONFMOD_* variables consumed outside the loader and
// therefore exempt from the unknown-key warning.
var runtimeEnvKeys = []string{
	"CONFMOD_LOG_LEVEL",
	"CONFMOD_LOG_SERVICE",
}

// Loader resolves Settings with the precedence ENV > file > defaults.
type Loader struct {
	configPath string

	// ConsumedEnvKeys tracks every environment key the loader read, so
	// unknown CONFMOD_* keys can be flagged as typos.
	ConsumedEnvKeys map[string]struct{}
}

// NewLoader creates a loader. An empty configPath skips the file stage.
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath:      configPath,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

func (l *Loader) envString(key, defaultVal string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, defaultVal)
}

func (l *Loader) envStrings(key string, defaultVal []string) []string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseStrings(key, defaultVal)
}

func (l *Loader) envBool(key string, defaultVal bool) bool {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseBool(key, defaultVal)
}

func (l *Loader) envFloat(key string, defaultVal float64) float64 {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseFloat(key, defaultVal)
}

func (l *Loader) envDuration(key string, defaultVal time.Duration) time.Duration {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseDuration(key, defaultVal)
}

// Load resolves the settings: defaults, then the project file (strict),
// then environment overrides, then a validation pass.
func (l *Loader) Load() (Settings, error) {
	cfg := Settings{}
	l.setDefaults(&cfg)

	if l.configPath != "" {
		fileCfg, err := loadFile(l.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		if err := mergeFileConfig(&cfg, fileCfg); err != nil {
			return cfg, fmt.Errorf("merge file config: %w", err)
		}
	}

	l.mergeEnvConfig(&cfg)
	l.warnUnknownEnvKeys()

	// Root anchors every relative path; keep it absolute so later chdirs
	// cannot change what a build means.
	if abs, err := filepath.Abs(cfg.Root); err == nil {
		cfg.Root = abs
	}

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// warnUnknownEnvKeys flags CONFMOD_* variables the loader never consumed,
// which usually means a dead flag or a typo.
func (l *Loader) warnUnknownEnvKeys() {
	known := make(map[string]struct{}, len(l.ConsumedEnvKeys)+len(runtimeEnvKeys))
	for key := range l.ConsumedEnvKeys {
		known[key] = struct{}{}
	}
	for _, key := range runtimeEnvKeys {
		known[key] = struct{}{}
	}

	var unknown []string
	for _, pair := range os.Environ() {
		key := strings.SplitN(pair, "=", 2)[0]
		if !strings.HasPrefix(key, "CONFMOD_") {
			continue
		}
		if _, ok := known[key]; ok {
			continue
		}
		unknown = append(unknown, key)
	}
	if len(unknown) == 0 {
		return
	}

	sort.Strings(unknown)
	logger := log.WithComponent("config")
	for _, key := range unknown {
		logger.Warn().
			Str("key", key).
			Msg("unknown CONFMOD env key detected (dead flag or typo)")
	}
}
