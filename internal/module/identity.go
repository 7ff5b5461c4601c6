// SPDX-License-Identifier: MIT

// Package module provides the virtual module: its identity, the build
// mode split, and generation of the JavaScript bodies served for it.
package module

import "regexp"

const (
	// DefaultName is the virtual module base name used when none is
	// configured, yielding the public specifier "virtual:JsonConfig".
	DefaultName = "JsonConfig"

	// Namespace tags virtual paths inside the bundler so only this
	// plugin's load hooks answer for them.
	Namespace = "confmod"

	// specifierPrefix marks the public import form.
	specifierPrefix = "virtual:"

	// internalPrefix is the null-byte convention marking resolved ids
	// as non-file-backed, so no on-disk path can collide with them.
	internalPrefix = "\x00"
)

// Identity is the pair of identifiers a virtual module is known by: the
// public specifier application code imports, and the internal resolved
// id the bundler uses. The public form never appears as a resolved id
// and the internal form is never importable.
type Identity struct {
	name string
}

// NewIdentity creates an identity for the given base name, falling back
// to DefaultName when empty.
func NewIdentity(name string) Identity {
	if name == "" {
		name = DefaultName
	}
	return Identity{name: name}
}

// Name returns the configured base name.
func (id Identity) Name() string {
	return id.name
}

// Specifier returns the public import specifier, e.g. "virtual:JsonConfig".
func (id Identity) Specifier() string {
	return specifierPrefix + id.name
}

// InternalID returns the bundler-internal resolved id.
func (id Identity) InternalID() string {
	return internalPrefix + id.Specifier()
}

// ResolveFilter returns an anchored regular expression matching exactly
// this module's public specifier, for the bundler's resolve hook.
func (id Identity) ResolveFilter() string {
	return "^" + regexp.QuoteMeta(id.Specifier()) + "$"
}
