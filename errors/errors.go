// Copyright (c) 2019 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package errors exports compilation errors without unnecessary dependencies.
package errors

import (
	internal "gate.computer/rvjit/internal/errors"
)

// ProgramError locates a compilation failure at a bytecode instruction.  It
// wraps one of the sentinel errors below.
type ProgramError = internal.ProgramError

// Errors wrapped by ProgramError.
const (
	ErrExhaustedTextSegment   = internal.ErrExhaustedTextSegment
	ErrInvalidInstruction     = internal.ErrInvalidInstruction
	ErrUnsupportedInstruction = internal.ErrUnsupportedInstruction
	ErrJumpOutOfRange         = internal.ErrJumpOutOfRange
	ErrJitNotCompiled         = internal.ErrJitNotCompiled
)
