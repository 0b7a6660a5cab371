// Copyright (c) 2016 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package trap enumerates runtime error kinds raised by generated code.
package trap

import (
	"fmt"
)

// ID is stored in the result slot of the runtime environment.  Zero means
// success.
type ID int

const (
	None = ID(iota)
	ExceededMaxInstructions
	CallDepthExceeded
	CallOutsideTextSegment
	DivideByZero
	DivideOverflow
	UnsupportedInstruction
	ExecutionOverrun
	AccessViolation // Reported by the memory mapping.
	SyscallError    // Reported by a host function.

	NumTraps
)

func (id ID) String() string {
	switch id {
	case None:
		return "none"

	case ExceededMaxInstructions:
		return "exceeded max instructions"

	case CallDepthExceeded:
		return "call depth exceeded"

	case CallOutsideTextSegment:
		return "call outside text segment"

	case DivideByZero:
		return "divide by zero"

	case DivideOverflow:
		return "divide overflow"

	case UnsupportedInstruction:
		return "unsupported instruction"

	case ExecutionOverrun:
		return "execution overrun"

	case AccessViolation:
		return "access violation"

	case SyscallError:
		return "syscall error"

	default:
		return fmt.Sprintf("unknown trap %d", id)
	}
}

func (id ID) Error() string {
	return "trap: " + id.String()
}
