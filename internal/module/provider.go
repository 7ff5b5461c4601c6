// SPDX-License-Identifier: MIT

package module

import (
	"sync"

	"github.com/ManuGH/confmod/internal/metrics"
	"github.com/ManuGH/confmod/internal/source"
	"github.com/rs/zerolog"
)

// ProviderConfig carries everything a Provider needs. Mode, identity
// and export shape are fixed for the provider's lifetime; only the
// store's held value changes between loads.
type ProviderConfig struct {
	Identity   Identity
	Mode       Mode
	Store      *source.Store
	BaseURL    string
	OutputName string
	Callback   bool
	Logger     zerolog.Logger
}

// Provider answers the bundler's resolve and load requests for one
// virtual module instance. It never fails a well-formed call: requests
// for foreign ids are declined with ok=false, and internal problems
// degrade to an empty-object body.
type Provider struct {
	cfg ProviderConfig

	mu     sync.Mutex
	loaded bool
}

// NewProvider creates a provider bound to its store and identity.
func NewProvider(cfg ProviderConfig) *Provider {
	return &Provider{cfg: cfg}
}

// Identity returns the provider's module identity.
func (p *Provider) Identity() Identity {
	return p.cfg.Identity
}

// Mode returns the build mode the provider was created for.
func (p *Provider) Mode() Mode {
	return p.cfg.Mode
}

// Resolve maps the public specifier to the internal id. Any other
// specifier is declined so downstream resolvers get their turn.
func (p *Provider) Resolve(specifier string) (string, bool) {
	if specifier != p.cfg.Identity.Specifier() {
		return "", false
	}
	return p.cfg.Identity.InternalID(), true
}

// Source generates the module body for the internal id, declining all
// foreign ids. The develop body re-serializes the store's value on
// every call, so a reload before the next load is always observed.
func (p *Provider) Source(internalID string) (string, bool) {
	if internalID != p.cfg.Identity.InternalID() {
		return "", false
	}

	p.markLoaded()
	metrics.RecordModuleLoad(p.cfg.Mode.String())

	if p.cfg.Mode == ModeProduce {
		return GenerateProduce(p.cfg.BaseURL, p.cfg.OutputName, p.cfg.Callback), true
	}

	body, err := GenerateDevelop(p.cfg.Store.Snapshot(), p.cfg.Callback)
	if err != nil {
		p.cfg.Logger.Error().
			Err(err).
			Str("event", "module.embed_failed").
			Str("module", p.cfg.Identity.Specifier()).
			Msg("could not embed config value, serving empty object")
		body, _ = GenerateDevelop(map[string]any{}, p.cfg.Callback)
	}
	return body, true
}

// Loaded reports whether the module body has been served at least once,
// meaning the module is present in the session's module graph and a
// file change must invalidate it.
func (p *Provider) Loaded() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loaded
}

func (p *Provider) markLoaded() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loaded = true
}
