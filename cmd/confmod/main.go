// SPDX-License-Identifier: MIT

// Command confmod builds and serves JavaScript bundles whose JSON
// configuration is delivered through a virtual module.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	confmod "github.com/ManuGH/confmod"
	"github.com/ManuGH/confmod/internal/config"
	"github.com/ManuGH/confmod/internal/log"
)

var (
	version   = "v0.1.0"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	log.Configure(log.Config{
		Service: "confmod",
		Version: version,
	})

	if len(args) > 0 {
		switch args[0] {
		case "build":
			return runBuild(args[1:])
		case "dev":
			return runDev(args[1:])
		case "config":
			return runConfigCLI(args[1:])
		case "help", "-h", "--help":
			printUsage()
			return 0
		}
	}

	fs := flag.NewFlagSet("confmod", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	showVersion := fs.Bool("version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *showVersion {
		fmt.Printf("confmod %s (commit: %s, built: %s)\n", version, commit, buildDate)
		return 0
	}

	printUsage()
	return 2
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  confmod build [flags] [entry ...]   run a production build")
	fmt.Fprintln(os.Stderr, "  confmod dev [flags] [entry ...]     watch, rebuild and serve")
	fmt.Fprintln(os.Stderr, "  confmod config <subcommand>         inspect or edit the JSON source")
	fmt.Fprintln(os.Stderr, "  confmod -version                    print version and exit")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Settings come from CONFMOD_* environment variables and an optional")
	fmt.Fprintln(os.Stderr, "confmod.yaml project file (ENV > file > defaults).")
}

// resolveSettings loads the CLI settings, discovering confmod.yaml in the
// working directory when no explicit path is given. It returns the
// effective project file path alongside the settings.
func resolveSettings(configPath string) (config.Settings, string, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		if wd, err := os.Getwd(); err == nil {
			path = config.Discover(wd)
		}
	}
	cfg, err := config.NewLoader(path).Load()
	if err != nil {
		return cfg, path, err
	}

	applyLogLevel(cfg.LogLevel)
	return cfg, path, nil
}

// applyLogLevel tightens or loosens the global level after the project
// file has been read. Levels were validated during config load.
func applyLogLevel(level string) {
	if level == "" {
		return
	}
	if parsed, err := zerolog.ParseLevel(level); err == nil {
		zerolog.SetGlobalLevel(parsed)
	}
}

// pluginOptions maps the resolved settings onto plugin options.
func pluginOptions(cfg config.Settings) confmod.Options {
	opts := confmod.Options{
		Path:        cfg.Module.Path,
		Name:        cfg.Module.Name,
		OutputName:  cfg.Module.OutputName,
		OutputDir:   cfg.Module.OutputDir,
		CallbackAPI: cfg.Module.CallbackAPI,
	}
	if cfg.Module.Emit == "standalone" {
		opts.Emit = confmod.EmitStandalone
	}
	return opts
}

// entryPoints merges positional arguments over the configured entries.
func entryPoints(cfg config.Settings, args []string) []string {
	if len(args) > 0 {
		return args
	}
	return cfg.EntryPoints
}

// sourceFilePath resolves the configured JSON source against the build
// root.
func sourceFilePath(cfg config.Settings) (string, error) {
	if strings.TrimSpace(cfg.Module.Path) == "" {
		return "", fmt.Errorf("no config source configured (set config.path in confmod.yaml or CONFMOD_CONFIG_PATH)")
	}
	if filepath.IsAbs(cfg.Module.Path) {
		return filepath.Clean(cfg.Module.Path), nil
	}
	return filepath.Join(cfg.Root, cfg.Module.Path), nil
}
