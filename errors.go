// Copyright (c) 2019 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rvjit

import (
	"gate.computer/rvjit/errors"
	"gate.computer/rvjit/internal/isa/rv64"
)

// Compilation errors.  Those caused by the bytecode are wrapped in
// *errors.ProgramError.
var (
	ErrExhaustedTextSegment   error = errors.ErrExhaustedTextSegment
	ErrInvalidInstruction     error = errors.ErrInvalidInstruction
	ErrUnsupportedInstruction error = errors.ErrUnsupportedInstruction
	ErrJumpOutOfRange         error = errors.ErrJumpOutOfRange
	ErrJitNotCompiled         error = errors.ErrJitNotCompiled
	ErrConflictingRules             = rv64.ErrConflictingRules
)
