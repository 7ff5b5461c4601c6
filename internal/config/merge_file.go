// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"time"
)

// mergeFileConfig merges the project file into cfg. Pointer fields allow
// the file to express explicit false/zero values.
func mergeFileConfig(dst *Settings, src *FileConfig) error {
	mergeFileCore(dst, src)
	mergeFileModule(dst, src)
	if err := mergeFileDev(dst, src); err != nil {
		return err
	}
	mergeFileTracing(dst, src)
	return nil
}

func mergeFileCore(dst *Settings, src *FileConfig) {
	if src.Root != "" {
		dst.Root = expandEnv(src.Root)
	}
	if len(src.Entry) > 0 {
		dst.EntryPoints = append([]string(nil), src.Entry...)
	}
	if src.Outdir != "" {
		dst.Outdir = expandEnv(src.Outdir)
	}
	if src.PublicPath != "" {
		dst.PublicPath = src.PublicPath
	}
	if src.Minify != nil {
		dst.Minify = *src.Minify
	}
	if src.Sourcemap != nil {
		dst.Sourcemap = *src.Sourcemap
	}
	if src.LogLevel != "" {
		dst.LogLevel = src.LogLevel
	}
}

func mergeFileModule(dst *Settings, src *FileConfig) {
	if src.Config.Path != "" {
		dst.Module.Path = expandEnv(src.Config.Path)
	}
	if src.Config.Name != "" {
		dst.Module.Name = src.Config.Name
	}
	if src.Config.OutputName != "" {
		dst.Module.OutputName = src.Config.OutputName
	}
	if src.Config.OutputDir != "" {
		dst.Module.OutputDir = expandEnv(src.Config.OutputDir)
	}
	if src.Config.Emit != "" {
		dst.Module.Emit = src.Config.Emit
	}
	if src.Config.Callback != nil {
		dst.Module.CallbackAPI = *src.Config.Callback
	}
}

func mergeFileDev(dst *Settings, src *FileConfig) error {
	if src.Dev.Addr != "" {
		dst.Dev.Addr = src.Dev.Addr
	}
	if src.Dev.Debounce != "" {
		d, err := time.ParseDuration(src.Dev.Debounce)
		if err != nil {
			return fmt.Errorf("invalid dev.debounce: %w", err)
		}
		dst.Dev.Debounce = d
	}
	if src.Dev.RebuildsPerSecond != nil {
		dst.Dev.RebuildsPerSecond = *src.Dev.RebuildsPerSecond
	}
	return nil
}

func mergeFileTracing(dst *Settings, src *FileConfig) {
	if src.Tracing.Enabled != nil {
		dst.Tracing.Enabled = *src.Tracing.Enabled
	}
	if src.Tracing.Service != "" {
		dst.Tracing.Service = src.Tracing.Service
	}
	if src.Tracing.Endpoint != "" {
		dst.Tracing.Endpoint = src.Tracing.Endpoint
	}
	if src.Tracing.Protocol != "" {
		dst.Tracing.Protocol = src.Tracing.Protocol
	}
	if src.Tracing.SampleRate != nil {
		dst.Tracing.SampleRate = *src.Tracing.SampleRate
	}
	if src.Tracing.Environment != "" {
		dst.Tracing.Environment = src.Tracing.Environment
	}
}
