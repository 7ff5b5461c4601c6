// SPDX-License-Identifier: MIT

package config

import "errors"

// ErrUnknownConfigField classifies strict YAML parse failures caused by
// unknown keys. Use errors.Is(err, ErrUnknownConfigField) instead of
// string matching.
var ErrUnknownConfigField = errors.New("unknown config field")
