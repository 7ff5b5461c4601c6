// SPDX-License-Identifier: MIT

package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestParseString(t *testing.T) {
	tests := []struct {
		name         string
		defaultValue string
		envValue     string
		envSet       bool
		want         string
	}{
		{"environment variable set", "default", "from-env", true, "from-env"},
		{"environment variable not set", "default", "", false, "default"},
		{"environment variable empty", "default", "", true, "default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			const key = "CONFMOD_TEST_STRING"
			if tt.envSet {
				t.Setenv(key, tt.envValue)
			}
			if got := ParseString(key, tt.defaultValue); got != tt.want {
				t.Errorf("ParseString() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		name         string
		defaultValue bool
		envValue     string
		envSet       bool
		want         bool
	}{
		{"true", false, "true", true, true},
		{"one", false, "1", true, true},
		{"yes uppercase", false, "YES", true, true},
		{"false", true, "false", true, false},
		{"zero", true, "0", true, false},
		{"no", true, "no", true, false},
		{"invalid falls back", true, "maybe", true, true},
		{"empty falls back", true, "", true, true},
		{"unset falls back", true, "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			const key = "CONFMOD_TEST_BOOL"
			if tt.envSet {
				t.Setenv(key, tt.envValue)
			}
			if got := ParseBool(key, tt.defaultValue); got != tt.want {
				t.Errorf("ParseBool() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name         string
		defaultValue time.Duration
		envValue     string
		envSet       bool
		want         time.Duration
	}{
		{"valid duration", time.Second, "150ms", true, 150 * time.Millisecond},
		{"compound duration", time.Second, "1m30s", true, 90 * time.Second},
		{"invalid falls back", time.Second, "soon", true, time.Second},
		{"bare number falls back", time.Second, "5", true, time.Second},
		{"unset falls back", time.Second, "", false, time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			const key = "CONFMOD_TEST_DURATION"
			if tt.envSet {
				t.Setenv(key, tt.envValue)
			}
			if got := ParseDuration(key, tt.defaultValue); got != tt.want {
				t.Errorf("ParseDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseFloat(t *testing.T) {
	tests := []struct {
		name         string
		defaultValue float64
		envValue     string
		envSet       bool
		want         float64
	}{
		{"valid float", 1.0, "0.25", true, 0.25},
		{"integer form", 1.0, "2", true, 2.0},
		{"invalid falls back", 1.0, "half", true, 1.0},
		{"unset falls back", 0.5, "", false, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			const key = "CONFMOD_TEST_FLOAT"
			if tt.envSet {
				t.Setenv(key, tt.envValue)
			}
			if got := ParseFloat(key, tt.defaultValue); got != tt.want {
				t.Errorf("ParseFloat() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseStrings(t *testing.T) {
	fallback := []string{"fallback.js"}
	tests := []struct {
		name     string
		envValue string
		envSet   bool
		want     []string
	}{
		{"single entry", "src/main.js", true, []string{"src/main.js"}},
		{"multiple entries", "a.js,b.js", true, []string{"a.js", "b.js"}},
		{"whitespace trimmed", " a.js , b.js ", true, []string{"a.js", "b.js"}},
		{"blank elements dropped", "a.js,,b.js,", true, []string{"a.js", "b.js"}},
		{"only commas falls back", ",,", true, fallback},
		{"empty falls back", "", true, fallback},
		{"unset falls back", "", false, fallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			const key = "CONFMOD_TEST_ENTRY"
			if tt.envSet {
				t.Setenv(key, tt.envValue)
			}
			got := ParseStrings(key, fallback)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseStrings() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
