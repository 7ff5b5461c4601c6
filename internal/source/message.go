// SPDX-License-Identifier: MIT

package source

import "fmt"

// Message extracts a human-readable message from an arbitrary failure
// value, such as an error or a recovered panic.
func Message(v any) string {
	switch m := v.(type) {
	case nil:
		return ""
	case error:
		return m.Error()
	case string:
		return m
	case fmt.Stringer:
		return m.String()
	default:
		return fmt.Sprintf("%v", m)
	}
}
