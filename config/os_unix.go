//go:build !windows

package config

import (
	"os"

	"golang.org/x/term"
)

// EnableColorOutput checks if colorized output is possible.
func EnableColorOutput(stream *os.File) bool {
	if colorDisabled() {
		return false
	}
	return term.IsTerminal(int(stream.Fd()))
}
