// SPDX-License-Identifier: MIT

// Package config loads the confmod CLI settings with the precedence
// ENV > project file > defaults. The project file (confmod.yaml) is
// parsed strictly: unknown keys and trailing documents are errors.
package config
