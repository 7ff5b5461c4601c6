// SPDX-License-Identifier: MIT

package config

// mergeEnvConfig merges environment variables into cfg. ENV has the
// highest precedence.
func (l *Loader) mergeEnvConfig(cfg *Settings) {
	l.mergeEnvCore(cfg)
	l.mergeEnvModule(cfg)
	l.mergeEnvDev(cfg)
	l.mergeEnvTracing(cfg)
}

func (l *Loader) mergeEnvCore(cfg *Settings) {
	cfg.Root = l.envString("CONFMOD_ROOT", cfg.Root)
	cfg.EntryPoints = l.envStrings("CONFMOD_ENTRY", cfg.EntryPoints)
	cfg.Outdir = l.envString("CONFMOD_OUTDIR", cfg.Outdir)
	cfg.PublicPath = l.envString("CONFMOD_PUBLIC_PATH", cfg.PublicPath)
	cfg.Minify = l.envBool("CONFMOD_MINIFY", cfg.Minify)
	cfg.Sourcemap = l.envBool("CONFMOD_SOURCEMAP", cfg.Sourcemap)
	cfg.LogLevel = l.envString("CONFMOD_LOG_LEVEL", cfg.LogLevel)
}

func (l *Loader) mergeEnvModule(cfg *Settings) {
	cfg.Module.Path = l.envString("CONFMOD_CONFIG_PATH", cfg.Module.Path)
	cfg.Module.Name = l.envString("CONFMOD_CONFIG_NAME", cfg.Module.Name)
	cfg.Module.OutputName = l.envString("CONFMOD_OUTPUT_NAME", cfg.Module.OutputName)
	cfg.Module.OutputDir = l.envString("CONFMOD_OUTPUT_DIR", cfg.Module.OutputDir)
	cfg.Module.Emit = l.envString("CONFMOD_EMIT", cfg.Module.Emit)
	cfg.Module.CallbackAPI = l.envBool("CONFMOD_CALLBACK_API", cfg.Module.CallbackAPI)
}

func (l *Loader) mergeEnvDev(cfg *Settings) {
	cfg.Dev.Addr = l.envString("CONFMOD_DEV_ADDR", cfg.Dev.Addr)
	cfg.Dev.Debounce = l.envDuration("CONFMOD_DEV_DEBOUNCE", cfg.Dev.Debounce)
	cfg.Dev.RebuildsPerSecond = l.envFloat("CONFMOD_DEV_REBUILDS_PER_SECOND", cfg.Dev.RebuildsPerSecond)
}

func (l *Loader) mergeEnvTracing(cfg *Settings) {
	cfg.Tracing.Enabled = l.envBool("CONFMOD_TRACING_ENABLED", cfg.Tracing.Enabled)
	cfg.Tracing.Service = l.envString("CONFMOD_TRACING_SERVICE", cfg.Tracing.Service)
	cfg.Tracing.Endpoint = l.envString("CONFMOD_TRACING_ENDPOINT", cfg.Tracing.Endpoint)
	cfg.Tracing.Protocol = l.envString("CONFMOD_TRACING_PROTOCOL", cfg.Tracing.Protocol)
	cfg.Tracing.SampleRate = l.envFloat("CONFMOD_TRACING_SAMPLE_RATE", cfg.Tracing.SampleRate)
	cfg.Tracing.Environment = l.envString("CONFMOD_TRACING_ENVIRONMENT", cfg.Tracing.Environment)
}
