// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rv64

import (
	"gate.computer/rvjit/internal/isa/rv64/in"
)

// regMap assigns bytecode registers r0-r10 to host registers.  r0-r5 are in
// caller-saved argument registers so that external calls need no argument
// shuffling; r6-r10 are callee-saved.
var regMap = [11]in.Reg{
	in.A0, // r0: return value
	in.A1, // r1-r5: arguments
	in.A2,
	in.A3,
	in.A4,
	in.A5,
	in.S1, // r6-r9: callee-saved
	in.S2,
	in.S3,
	in.S4,
	in.S5, // r10: frame pointer
}

// Reserved registers.
const (
	RegVM      = in.S10 // Environment base plus key.
	RegMeter   = in.A6  // Instruction meter.
	RegScratch = in.A7  // Not live across bytecode instructions.

	regHostReturn = in.S6 // Return address into the entry routine.
	regTarget     = in.S7 // Entry target.
	regHostSP     = in.S8 // Unaligned stack pointer during host calls.
	regCallTarget = in.S9 // Indirect call target across the call prologue.
)

// Temporaries.  Each code generation rule may clobber any of them.
const (
	regImmLow   = in.T0 // Used by li for values wider than 32 bits, and by far jumps.
	regTemp     = in.T1
	regRotate1  = in.T2
	regRotate2  = in.T3
	regSanitize = in.T4
	regDividend = in.T5
	regValue    = in.T6 // Divisor copy, or value to be stored.
	regCookie   = in.T2 // Syscall cookie.
	regCallPC   = in.T3 // Pc of a syscall.
)

const (
	firstScratchReg = 6
	numScratchRegs  = 4
	framePointerReg = 10
)

func bytecodeReg(i uint8) in.Reg {
	return regMap[i]
}
