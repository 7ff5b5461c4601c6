// SPDX-License-Identifier: MIT

package config

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ManuGH/confmod/internal/validate"
)

// Validate checks a resolved Settings for actionable mistakes.
func Validate(cfg Settings) error {
	v := validate.New()

	v.Directory("root", cfg.Root, true)

	v.NotEmpty("config.name", cfg.Module.Name)
	v.FileName("config.output_name", cfg.Module.OutputName)
	v.OneOf("config.emit", cfg.Module.Emit, []string{"integrated", "standalone"})
	if cfg.Module.Emit == "standalone" {
		v.NotEmpty("config.output_dir", cfg.Module.OutputDir)
	}

	v.ListenAddr("dev.addr", cfg.Dev.Addr)
	if cfg.Dev.Debounce < 0 {
		v.AddError("dev.debounce", "must be >= 0", cfg.Dev.Debounce.String())
	}
	if cfg.Dev.RebuildsPerSecond <= 0 {
		v.AddError("dev.rebuilds_per_second",
			fmt.Sprintf("must be > 0, got %g", cfg.Dev.RebuildsPerSecond),
			cfg.Dev.RebuildsPerSecond)
	}

	if cfg.LogLevel != "" {
		if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
			v.AddError("log_level", fmt.Sprintf("unknown level %q", cfg.LogLevel), cfg.LogLevel)
		}
	}

	if cfg.Tracing.Enabled {
		v.NotEmpty("tracing.service", cfg.Tracing.Service)
		v.OneOf("tracing.protocol", cfg.Tracing.Protocol, []string{"http", "grpc"})
		if cfg.Tracing.SampleRate < 0 || cfg.Tracing.SampleRate > 1 {
			v.AddError("tracing.sample_rate",
				fmt.Sprintf("must be between 0 and 1, got %g", cfg.Tracing.SampleRate),
				cfg.Tracing.SampleRate)
		}
	}

	return v.Err()
}
