// SPDX-License-Identifier: MIT

package confmod

import (
	"github.com/rs/zerolog"

	"github.com/ManuGH/confmod/internal/module"
)

// Defaults for Options fields left empty.
const (
	DefaultOutputName = "JsonConfig.json"
	DefaultOutputDir  = "./dist"
)

// Mode selects which module body a plugin instance generates. It is
// fixed at construction and never changes afterwards.
type Mode int

const (
	// ModeDevelop embeds the configuration inline, for dev sessions.
	ModeDevelop Mode = iota
	// ModeProduce generates the runtime-fetching accessor and emits the
	// configuration asset.
	ModeProduce
)

func (m Mode) String() string {
	return m.internal().String()
}

func (m Mode) internal() module.Mode {
	if m == ModeProduce {
		return module.ModeProduce
	}
	return module.ModeDevelop
}

// EmitStyle selects how the configuration asset reaches the build
// output in production mode.
type EmitStyle int

const (
	// EmitIntegrated hands the asset to the bundler's output file set;
	// a failed write fails the build.
	EmitIntegrated EmitStyle = iota
	// EmitStandalone writes the asset directly into OutputDir; failures
	// are logged and the build continues.
	EmitStandalone
)

// Options configures one plugin instance. The zero value is usable: no
// source path, so the delivered configuration is always an empty
// object.
type Options struct {
	// Path is the JSON source file, resolved against the build root
	// when relative. Empty means no file is read and the value is {}.
	Path string

	// Name is the virtual module base name. The importable specifier
	// becomes "virtual:<Name>". Default "JsonConfig".
	Name string

	// OutputName is the emitted asset's file name. Default
	// "JsonConfig.json".
	OutputName string

	// OutputDir receives the asset under EmitStandalone. Default
	// "./dist".
	OutputDir string

	// Emit selects the asset emission style. Default EmitIntegrated.
	Emit EmitStyle

	// CallbackAPI switches the generated default export to a function
	// taking a callback, for consumers of the older consumption style.
	// Named exports and error guarantees are unchanged.
	CallbackAPI bool

	// Logger overrides the package logger for this instance.
	Logger *zerolog.Logger
}

// withDefaults fills empty fields.
func (o Options) withDefaults() Options {
	if o.Name == "" {
		o.Name = module.DefaultName
	}
	if o.OutputName == "" {
		o.OutputName = DefaultOutputName
	}
	if o.OutputDir == "" {
		o.OutputDir = DefaultOutputDir
	}
	return o
}
