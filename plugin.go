// SPDX-License-Identifier: MIT

package confmod

import (
	"path/filepath"
	"sync"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog"

	"github.com/ManuGH/confmod/internal/emit"
	"github.com/ManuGH/confmod/internal/log"
	"github.com/ManuGH/confmod/internal/metrics"
	"github.com/ManuGH/confmod/internal/module"
	"github.com/ManuGH/confmod/internal/source"
)

// PluginName is the name the bundler reports for this plugin.
const PluginName = "confmod"

// Plugin binds one JSON source file to one virtual module for a single
// build mode. Instances are independent: several plugins with distinct
// names can deliver several sources within one build.
type Plugin struct {
	opts     Options
	mode     Mode
	identity module.Identity
	store    *source.Store
	logger   zerolog.Logger

	mu       sync.Mutex
	loader   *source.Loader
	provider *module.Provider
	emitter  *emit.Emitter
}

// New creates a plugin instance for the given mode. The mode is fixed
// for the instance's lifetime.
func New(mode Mode, opts Options) *Plugin {
	opts = opts.withDefaults()
	logger := log.WithComponent(PluginName)
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Plugin{
		opts:     opts,
		mode:     mode,
		identity: module.NewIdentity(opts.Name),
		store:    source.NewStore(),
		logger:   logger,
	}
}

// Mode returns the build mode the plugin was created for.
func (p *Plugin) Mode() Mode {
	return p.mode
}

// Specifier returns the public import specifier application code uses,
// e.g. "virtual:JsonConfig".
func (p *Plugin) Specifier() string {
	return p.identity.Specifier()
}

// ESBuild returns the bundler plugin binding this instance's hooks.
func (p *Plugin) ESBuild() api.Plugin {
	return api.Plugin{
		Name:  PluginName,
		Setup: p.setup,
	}
}

// setup attaches the resolve, load and end hooks to one build. The
// build root, public path and outdir come from the build's own options,
// so relative source paths stay stable inside nested workspaces.
func (p *Plugin) setup(build api.PluginBuild) {
	var root, publicPath, outdir string
	if build.InitialOptions != nil {
		root = build.InitialOptions.AbsWorkingDir
		publicPath = build.InitialOptions.PublicPath
		outdir = build.InitialOptions.Outdir
	}

	loader := source.NewLoader(root, p.opts.Path, p.logger)
	provider := module.NewProvider(module.ProviderConfig{
		Identity:   p.identity,
		Mode:       p.mode.internal(),
		Store:      p.store,
		BaseURL:    publicPath,
		OutputName: p.opts.OutputName,
		Callback:   p.opts.CallbackAPI,
		Logger:     p.logger,
	})

	assetDir := outdir
	if assetDir != "" && !filepath.IsAbs(assetDir) && root != "" {
		assetDir = filepath.Join(root, assetDir)
	}
	outputDir := p.opts.OutputDir
	if !filepath.IsAbs(outputDir) && root != "" {
		outputDir = filepath.Join(root, outputDir)
	}
	emitter := emit.New(emit.Config{
		Loader:     loader,
		Store:      p.store,
		OutputName: p.opts.OutputName,
		OutputDir:  outputDir,
		Logger:     p.logger,
	})

	p.store.Replace(loader.Load(false))

	p.mu.Lock()
	p.loader, p.provider, p.emitter = loader, provider, emitter
	p.mu.Unlock()

	p.logger.Debug().
		Str("event", "plugin.setup").
		Str("mode", p.mode.String()).
		Str("module", p.identity.Specifier()).
		Str("source", loader.Path()).
		Msg("plugin attached to build")

	build.OnResolve(api.OnResolveOptions{Filter: p.identity.ResolveFilter()}, func(args api.OnResolveArgs) (api.OnResolveResult, error) {
		internalID, ok := provider.Resolve(args.Path)
		if !ok {
			return api.OnResolveResult{}, nil
		}
		return api.OnResolveResult{Path: internalID, Namespace: module.Namespace}, nil
	})

	build.OnLoad(api.OnLoadOptions{Filter: ".*", Namespace: module.Namespace}, func(args api.OnLoadArgs) (api.OnLoadResult, error) {
		body, ok := provider.Source(args.Path)
		if !ok {
			return api.OnLoadResult{}, nil
		}
		res := api.OnLoadResult{Contents: &body, Loader: api.LoaderJS}
		if path := loader.Path(); path != "" {
			res.WatchFiles = []string{path}
		}
		return res, nil
	})

	if p.mode == ModeProduce {
		build.OnEnd(func(result *api.BuildResult) (api.OnEndResult, error) {
			if len(result.Errors) > 0 {
				return api.OnEndResult{}, nil
			}
			if p.opts.Emit == EmitStandalone {
				emitter.Standalone()
				return api.OnEndResult{}, nil
			}
			asset, err := emitter.Integrated(assetDir)
			if err != nil {
				return api.OnEndResult{}, err
			}
			result.OutputFiles = append(result.OutputFiles, api.OutputFile{
				Path:     asset.Path,
				Contents: asset.Contents,
			})
			return api.OnEndResult{}, nil
		})
	}
}

// SourcePath returns the resolved source path once the plugin is
// attached to a build, or "" when none is configured.
func (p *Plugin) SourcePath() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loader == nil {
		return ""
	}
	return p.loader.Path()
}

// ModuleLoaded reports whether the virtual module has been loaded into
// the current build's module graph.
func (p *Plugin) ModuleLoaded() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.provider != nil && p.provider.Loaded()
}

// Reload re-reads the source file and replaces the held value, so the
// next module load observes it. Warnings surface like on any non-silent
// load.
func (p *Plugin) Reload() {
	p.reload("manual")
}

func (p *Plugin) reload(trigger string) {
	p.mu.Lock()
	loader := p.loader
	p.mu.Unlock()
	if loader == nil {
		return
	}
	p.store.Replace(loader.Load(false))
	metrics.RecordSourceReload(trigger)
	p.logger.Info().
		Str("event", "source.reloaded").
		Str("trigger", trigger).
		Str("module", p.identity.Specifier()).
		Msg("config source reloaded")
}
