// SPDX-License-Identifier: MIT

package config

import "time"

// Defaults applied before the file and environment stages.
const (
	DefaultOutdir            = "dist"
	DefaultModuleName        = "JsonConfig"
	DefaultOutputName        = "JsonConfig.json"
	DefaultDevAddr           = "127.0.0.1:8750"
	DefaultDebounce          = 500 * time.Millisecond
	DefaultRebuildsPerSecond = 2.0
	DefaultTracingService    = "confmod-dev"
	DefaultTracingProtocol   = "http"
)

// setDefaults seeds cfg with the documented defaults.
func (l *Loader) setDefaults(cfg *Settings) {
	cfg.Root = "."
	cfg.Outdir = DefaultOutdir

	cfg.Module.Name = DefaultModuleName
	cfg.Module.OutputName = DefaultOutputName
	cfg.Module.OutputDir = DefaultOutdir
	cfg.Module.Emit = "integrated"

	cfg.Dev.Addr = DefaultDevAddr
	cfg.Dev.Debounce = DefaultDebounce
	cfg.Dev.RebuildsPerSecond = DefaultRebuildsPerSecond

	cfg.Tracing.Service = DefaultTracingService
	cfg.Tracing.Protocol = DefaultTracingProtocol
	cfg.Tracing.SampleRate = 1.0
	cfg.Tracing.Environment = "development"
}
