// SPDX-License-Identifier: MIT

package source

import (
	"errors"
	"net"
	"testing"
)

func TestMessage(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{name: "error", value: errors.New("boom"), want: "boom"},
		{name: "string", value: "plain panic", want: "plain panic"},
		{name: "nil", value: nil, want: ""},
		{name: "stringer", value: net.IPv4(127, 0, 0, 1), want: "127.0.0.1"},
		{name: "other", value: 42, want: "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Message(tt.value); got != tt.want {
				t.Errorf("Message(%v) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}
