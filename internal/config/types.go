// SPDX-License-Identifier: MIT

package config

import "time"

// Settings is the fully resolved CLI configuration.
type Settings struct {
	// Root is the build root; relative paths resolve against it.
	Root string

	// EntryPoints are the application entry modules.
	EntryPoints []string

	// Outdir receives bundles and assets, relative to Root.
	Outdir string

	// PublicPath is the runtime base URL assets are served under.
	PublicPath string

	Minify    bool
	Sourcemap bool

	// LogLevel overrides the logger level when non-empty.
	LogLevel string

	Module  ModuleSettings
	Dev     DevSettings
	Tracing TracingSettings
}

// ModuleSettings configures the delivered configuration module.
type ModuleSettings struct {
	// Path is the JSON source file. Empty delivers an empty object.
	Path string

	// Name is the virtual module base name, imported as "virtual:<Name>".
	Name string

	// OutputName is the emitted asset's file name.
	OutputName string

	// OutputDir receives the asset when Emit is "standalone".
	OutputDir string

	// Emit is the asset emission style: "integrated" or "standalone".
	Emit string

	// CallbackAPI switches the generated default export to the
	// callback-taking consumption style.
	CallbackAPI bool
}

// DevSettings configures the development session.
type DevSettings struct {
	// Addr is the development server listen address.
	Addr string

	// Debounce is the watcher quiet period after the last change.
	Debounce time.Duration

	// RebuildsPerSecond caps the rebuild rate.
	RebuildsPerSecond float64
}

// TracingSettings configures optional OpenTelemetry export.
type TracingSettings struct {
	Enabled     bool
	Service     string
	Endpoint    string
	Protocol    string
	SampleRate  float64
	Environment string
}
