// Copyright (c) 2024 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rvjit

import (
	"gate.computer/rvjit/image"
)

// Config for a single compiler invocation.
type Config struct {
	// EnableInstructionMeter makes generated code count executed
	// instructions and stop when the budget is exhausted.
	EnableInstructionMeter bool

	// InstructionMeterCheckpointDistance is the maximum number of
	// straight-line instructions between budget checks.
	InstructionMeterCheckpointDistance int

	// SanitizeUserProvidedValues hides program-provided immediates from the
	// machine code by splitting them with a random key.
	SanitizeUserProvidedValues bool

	// EnableRegisterTracing calls the trace host function before every
	// instruction.
	EnableRegisterTracing bool

	// NoopInstructionRate is the average distance between randomly
	// inserted no-ops.  Zero disables them (and the start padding).
	NoopInstructionRate uint32

	StackFrameSize       int64
	EnableStackFrameGaps bool
	MaxCallDepth         uint64

	// EnableAddressTranslation routes memory accesses through the memory
	// mapping of the host.  Otherwise bytecode addresses are host
	// addresses.
	EnableAddressTranslation bool

	// DiversificationSeed makes the randomized parts of the code
	// deterministic.  Random bytes are used by default.
	DiversificationSeed []byte

	MaxTextSize int         // Defaults to an estimate based on program size.
	Pages       image.Pages // Defaults to image.DefaultPages.
}

// DefaultConfig returns the configuration used when none is specified.
func DefaultConfig() *Config {
	return &Config{
		EnableInstructionMeter:             true,
		InstructionMeterCheckpointDistance: 10000,
		SanitizeUserProvidedValues:         true,
		NoopInstructionRate:                256,
		StackFrameSize:                     4096,
		EnableStackFrameGaps:               true,
		MaxCallDepth:                       64,
		EnableAddressTranslation:           true,
	}
}

// StackSize is the host memory needed for the call frames.
func (c *Config) StackSize() int {
	return int(c.StackFrameSize) * int(c.MaxCallDepth)
}
