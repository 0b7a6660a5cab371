// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package rvjit compiles SBPF bytecode into RISC-V RV64IM machine code.

See the Compile function's source code for an example of how to use the
low-level compiler APIs (implemented in subpackages).  The runner subpackage
executes compiled programs natively or in an emulator.

# Errors

Errors caused by the bytecode are *errors.ProgramError values which locate
the offending instruction and wrap one of the sentinel errors of the errors
subpackage.  They implement the following interface:

	interface {
	    PublicError() string
	}

Other errors indicate a memory allocation failure or a compiler bug.
*/
package rvjit
