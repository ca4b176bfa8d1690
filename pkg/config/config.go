// Package config holds the compiler configuration. A Config is built by
// the driver and passed explicitly into each phase; nothing in the
// compiler reads process-wide mutable state.
package config

import "github.com/johnpeterprogramming/SPLCompilerProject/pkg/diag"

const (
	// MaxParams bounds parameter and local lists per definition.
	MaxParams = 3
	// MaxStringLength bounds string literal contents.
	MaxStringLength = 15
)

type Config struct {
	// BASIC-style numbering of the emitted listing.
	LineStart int
	LineStep  int

	// Debug dumps written to stderr by the driver.
	DumpTokens bool
	DumpAST    bool

	Color diag.ColorMode
}

func NewConfig() *Config {
	return &Config{
		LineStart: 10,
		LineStep:  10,
		Color:     diag.ColorAuto,
	}
}
