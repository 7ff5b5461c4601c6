// SPDX-License-Identifier: MIT

package module

// Mode selects which module body variant is generated. It is captured
// once per plugin instance and never changes afterwards.
type Mode int

const (
	// ModeDevelop embeds the configuration value as an inline literal.
	ModeDevelop Mode = iota
	// ModeProduce exports an accessor that fetches the emitted asset
	// at runtime.
	ModeProduce
)

func (m Mode) String() string {
	switch m {
	case ModeDevelop:
		return "develop"
	case ModeProduce:
		return "produce"
	default:
		return "unknown"
	}
}
