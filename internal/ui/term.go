package ui

import (
	"os"

	"golang.org/x/term"
)

// IsTTY reports whether f is a terminal. The HUD is only drawn on one.
func IsTTY(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}
