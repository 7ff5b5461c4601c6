// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/renameio/v2"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"gopkg.in/yaml.v3"

	"github.com/ManuGH/confmod/internal/config"
)

func runConfigCLI(args []string) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printConfigUsage()
		return 0
	}

	switch args[0] {
	case "print":
		return runConfigPrint(args[1:])
	case "get":
		return runConfigGet(args[1:])
	case "set":
		return runConfigSet(args[1:])
	case "validate":
		return runConfigValidate(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown subcommand: %s\n\n", args[0])
		printConfigUsage()
		return 2
	}
}

func printConfigUsage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  confmod config print [--config confmod.yaml] [--format=yaml|json]")
	fmt.Fprintln(os.Stderr, "  confmod config get <path> [--config confmod.yaml]")
	fmt.Fprintln(os.Stderr, "  confmod config set <path> <value> [--config confmod.yaml]")
	fmt.Fprintln(os.Stderr, "  confmod config validate [--config confmod.yaml]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "print shows the effective settings; get/set query and edit the JSON")
	fmt.Fprintln(os.Stderr, "source file using dotted paths (e.g. api.timeout).")
}

func runConfigPrint(args []string) int {
	fs := flag.NewFlagSet("confmod config print", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var configPath string
	var format string
	fs.StringVar(&configPath, "config", "", "path to project file (YAML)")
	fs.StringVar(&format, "format", "yaml", "output format: yaml or json")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, cfgPath, err := resolveSettings(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error in %s:\n  %v\n", cfgPath, err)
		return 1
	}

	fileCfg := effectiveFileConfig(cfg)

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "yaml", "yml":
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(fileCfg); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode YAML: %v\n", err)
			return 1
		}
		_ = enc.Close()
		return 0
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(fileCfg); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unsupported format: %s (use yaml or json)\n", format)
		return 2
	}
}

func runConfigGet(args []string) int {
	fs := flag.NewFlagSet("confmod config get", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var configPath string
	fs.StringVar(&configPath, "config", "", "path to project file (YAML)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: get needs exactly one path argument")
		return 2
	}

	cfg, cfgPath, err := resolveSettings(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error in %s:\n  %v\n", cfgPath, err)
		return 1
	}

	value, err := configSourceGet(cfg, fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Println(value)
	return 0
}

func runConfigSet(args []string) int {
	fs := flag.NewFlagSet("confmod config set", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var configPath string
	fs.StringVar(&configPath, "config", "", "path to project file (YAML)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "Error: set needs a path and a value argument")
		return 2
	}

	cfg, cfgPath, err := resolveSettings(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error in %s:\n  %v\n", cfgPath, err)
		return 1
	}

	sourcePath, err := configSourceSet(cfg, fs.Arg(0), fs.Arg(1))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Printf("✓ updated %s\n", sourcePath)
	return 0
}

func runConfigValidate(args []string) int {
	fs := flag.NewFlagSet("confmod config validate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var configPath string
	fs.StringVar(&configPath, "config", "", "path to project file (YAML)")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, cfgPath, err := resolveSettings(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error in %s:\n  %v\n", cfgPath, err)
		return 1
	}

	if cfg.Module.Path != "" {
		sourcePath, err := sourceFilePath(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		data, err := os.ReadFile(sourcePath) // #nosec G304 -- operator-provided path
		switch {
		case errors.Is(err, os.ErrNotExist):
			fmt.Printf("✓ settings are valid (source %s does not exist yet, builds deliver {})\n", sourcePath)
			return 0
		case err != nil:
			fmt.Fprintf(os.Stderr, "Error: read config source: %v\n", err)
			return 1
		}
		var value any
		if err := json.Unmarshal(data, &value); err != nil {
			fmt.Fprintf(os.Stderr, "Config source %s is not valid JSON:\n  %v\n", sourcePath, err)
			return 1
		}
		fmt.Printf("✓ settings and config source %s are valid\n", sourcePath)
		return 0
	}

	fmt.Println("✓ settings are valid (no config source configured)")
	return 0
}

// configSourceGet reads one value from the JSON source by dotted path.
func configSourceGet(cfg config.Settings, path string) (string, error) {
	sourcePath, err := sourceFilePath(cfg)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(sourcePath) // #nosec G304 -- operator-provided path
	if err != nil {
		return "", fmt.Errorf("read config source: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return "", fmt.Errorf("config source %s is not valid JSON", sourcePath)
	}
	res := gjson.GetBytes(data, path)
	if !res.Exists() {
		return "", fmt.Errorf("path %q not found in %s", path, sourcePath)
	}
	return res.Raw, nil
}

// configSourceSet writes one value into the JSON source by dotted path,
// creating the file when it does not exist yet. Values that parse as
// JSON keep their type; everything else is stored as a string.
func configSourceSet(cfg config.Settings, path, rawValue string) (string, error) {
	sourcePath, err := sourceFilePath(cfg)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(sourcePath) // #nosec G304 -- operator-provided path
	if errors.Is(err, os.ErrNotExist) {
		data = []byte("{}")
	} else if err != nil {
		return "", fmt.Errorf("read config source: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return "", fmt.Errorf("config source %s is not valid JSON", sourcePath)
	}

	out, err := sjson.SetBytes(data, path, coerceJSONValue(rawValue))
	if err != nil {
		return "", fmt.Errorf("set %q: %w", path, err)
	}
	if err := renameio.WriteFile(sourcePath, out, 0o644); err != nil {
		return "", fmt.Errorf("write config source: %w", err)
	}
	return sourcePath, nil
}

// coerceJSONValue interprets a CLI argument as JSON when possible, so
// numbers, booleans, null, arrays and objects keep their type.
func coerceJSONValue(raw string) any {
	var value any
	if err := json.Unmarshal([]byte(raw), &value); err == nil {
		return value
	}
	return raw
}

// effectiveFileConfig renders resolved settings in the project file
// shape, for config print.
func effectiveFileConfig(cfg config.Settings) config.FileConfig {
	minify := cfg.Minify
	sourcemap := cfg.Sourcemap
	callback := cfg.Module.CallbackAPI
	rebuilds := cfg.Dev.RebuildsPerSecond
	tracingEnabled := cfg.Tracing.Enabled
	sampleRate := cfg.Tracing.SampleRate

	return config.FileConfig{
		Root:       cfg.Root,
		Entry:      cfg.EntryPoints,
		Outdir:     cfg.Outdir,
		PublicPath: cfg.PublicPath,
		Minify:     &minify,
		Sourcemap:  &sourcemap,
		LogLevel:   cfg.LogLevel,
		Config: config.FileModule{
			Path:       cfg.Module.Path,
			Name:       cfg.Module.Name,
			OutputName: cfg.Module.OutputName,
			OutputDir:  cfg.Module.OutputDir,
			Emit:       cfg.Module.Emit,
			Callback:   &callback,
		},
		Dev: config.FileDev{
			Addr:              cfg.Dev.Addr,
			Debounce:          cfg.Dev.Debounce.String(),
			RebuildsPerSecond: &rebuilds,
		},
		Tracing: config.FileTracing{
			Enabled:     &tracingEnabled,
			Service:     cfg.Tracing.Service,
			Endpoint:    cfg.Tracing.Endpoint,
			Protocol:    cfg.Tracing.Protocol,
			SampleRate:  &sampleRate,
			Environment: cfg.Tracing.Environment,
		},
	}
}
