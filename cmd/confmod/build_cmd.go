// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	confmod "github.com/ManuGH/confmod"
	"github.com/ManuGH/confmod/internal/log"
)

func runBuild(args []string) int {
	fs := flag.NewFlagSet("confmod build", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var configPath string
	fs.StringVar(&configPath, "config", "", "path to project file (YAML)")
	fs.StringVar(&configPath, "c", "", "path to project file (shorthand)")

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

	entries := entryPoints(cfg, fs.Args())
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "Error: no entry points (pass them as arguments or set entry: in confmod.yaml)")
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := confmod.Build(ctx, confmod.BuildConfig{
		EntryPoints: entries,
		Root:        cfg.Root,
		Outdir:      cfg.Outdir,
		PublicPath:  cfg.PublicPath,
		Minify:      cfg.Minify,
		Sourcemap:   cfg.Sourcemap,
		Plugin:      pluginOptions(cfg),
	})
	if err != nil {
		logger.Error().
			Err(err).
			Str("event", "build.failed").
			Msg("build failed")
		return 1
	}

	fmt.Printf("✓ wrote %d files to %s in %s\n",
		len(res.OutputFiles), cfg.Outdir, res.Duration.Round(time.Millisecond))
	return 0
}
