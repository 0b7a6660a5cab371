// Copyright (c) 2019 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package errors

import (
	"fmt"

	"gate.computer/rvjit/internal/pan"
)

// Sentinel is a comparable program error.
type Sentinel string

func (s Sentinel) Error() string       { return string(s) }
func (s Sentinel) PublicError() string { return string(s) }
func (s Sentinel) ProgramError() bool  { return true }

// Compilation failure kinds.
const (
	ErrExhaustedTextSegment   = Sentinel("exhausted text segment")
	ErrInvalidInstruction     = Sentinel("invalid instruction")
	ErrUnsupportedInstruction = Sentinel("unsupported instruction")
	ErrJumpOutOfRange         = Sentinel("jump out of range")
	ErrJitNotCompiled         = Sentinel("jit not compiled")
)

// ProgramError locates a failure in bytecode.
type ProgramError struct {
	PC    int
	cause error
}

func (e *ProgramError) Error() string       { return fmt.Sprintf("pc %d: %v", e.PC, e.cause) }
func (e *ProgramError) PublicError() string { return e.Error() }
func (e *ProgramError) ProgramError() bool  { return true }
func (e *ProgramError) Unwrap() error       { return e.cause }

// Wrap cause in a ProgramError.
func Wrap(pc int, cause error) *ProgramError {
	return &ProgramError{pc, cause}
}

// At panics with a ProgramError.
func At(pc int, cause error) {
	pan.Panic(Wrap(pc, cause))
}

// Atf panics with a ProgramError wrapping a formatted sentinel.
func Atf(pc int, cause Sentinel, format string, args ...interface{}) {
	pan.Panic(&ProgramError{pc, &detail{cause, fmt.Sprintf(format, args...)}})
}

type detail struct {
	Sentinel
	text string
}

func (d *detail) Error() string       { return d.Sentinel.Error() + ": " + d.text }
func (d *detail) PublicError() string { return d.Error() }
func (d *detail) Unwrap() error       { return d.Sentinel }
