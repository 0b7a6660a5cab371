// Copyright (c) 2024 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rv64

import (
	"fmt"

	"gate.computer/rvjit/abi"
	"gate.computer/rvjit/internal/isa/rv64/in"
	"gate.computer/rvjit/trap"
)

// Anchor is a shared routine emitted once per program.
type Anchor int

const (
	AnchorTrace = Anchor(iota)
	AnchorEpilogue
	AnchorExceededMaxInstructions
	AnchorExceptionUnchecked
	AnchorExit
	AnchorException
	AnchorCallDepthExceeded
	AnchorCallOutsideTextSegment
	AnchorDivideByZero
	AnchorDivideOverflow
	AnchorCallRegUnsupported
	AnchorCallUnsupported
	AnchorExternalCall
	AnchorInternalCallPrologue
	AnchorInternalCallReg
	AnchorEntry
	AnchorTranslateMemoryAddress // First of numAccessKinds*4 routines.

	NumAnchors = AnchorTranslateMemoryAddress + numAccessKinds*4
)

var anchorNames = [...]string{
	AnchorTrace:                   "trace",
	AnchorEpilogue:                "epilogue",
	AnchorExceededMaxInstructions: "exceeded max instructions",
	AnchorExceptionUnchecked:      "exception unchecked",
	AnchorExit:                    "exit",
	AnchorException:               "exception",
	AnchorCallDepthExceeded:       "call depth exceeded",
	AnchorCallOutsideTextSegment:  "call outside text segment",
	AnchorDivideByZero:            "divide by zero",
	AnchorDivideOverflow:          "divide overflow",
	AnchorCallRegUnsupported:      "call reg unsupported instruction",
	AnchorCallUnsupported:         "call unsupported instruction",
	AnchorExternalCall:            "external function call",
	AnchorInternalCallPrologue:    "internal function call prologue",
	AnchorInternalCallReg:         "internal function call reg",
	AnchorEntry:                   "entry",
}

var accessKindNames = [numAccessKinds]string{"load", "store reg", "store imm"}

func (a Anchor) String() string {
	switch {
	case a >= 0 && int(a) < len(anchorNames):
		return anchorNames[a]

	case a >= AnchorTranslateMemoryAddress && a < NumAnchors:
		i := a - AnchorTranslateMemoryAddress
		return fmt.Sprintf("translate memory address %s %d", accessKindNames[i/4], 1<<uint(i%4))

	default:
		return fmt.Sprintf("anchor %d", int(a))
	}
}

type accessKind int

const (
	accessLoad = accessKind(iota)
	accessStoreReg
	accessStoreImm

	numAccessKinds = 3
)

func translateAnchor(kind accessKind, sizeLog2 uint) Anchor {
	return AnchorTranslateMemoryAddress + Anchor(kind)*4 + Anchor(sizeLog2)
}

// Stack frame sizes.
const (
	entryFrameSize     = 112 // ra and s0-s11.
	traceFrameSize     = 112 // Register array, meter and ra.
	syscallFrameSize   = 48  // a1-a5 and ra.
	translateFrameSize = 64  // a0-a6 and ra.
	prologueFrameSize  = 40  // Frame pointer and callee-saved registers.
)

var calleeSaved = [12]in.Reg{
	in.S0, in.S1, in.S2, in.S3, in.S4, in.S5,
	in.S6, in.S7, in.S8, in.S9, in.S10, in.S11,
}

func (c *compiler) define(a Anchor) {
	c.anchors[a].SetAddress(c.text.Addr)
}

func (c *compiler) anchorRoutines() {
	if c.opts.EnableTracing {
		c.define(AnchorTrace)
		c.traceRoutine()
	}

	c.define(AnchorEpilogue)
	c.epilogue()

	c.define(AnchorExceededMaxInstructions)
	c.setTrapKind(trap.ExceededMaxInstructions)
	c.mv(RegScratch, RegMeter)
	// Fall through.

	c.define(AnchorExceptionUnchecked)
	c.storeEnv(RegScratch, abi.SlotRegister(abi.PCRegister))
	c.jumpAnchor(AnchorEpilogue)

	c.define(AnchorExit)
	if c.opts.EnableInstructionMeter {
		c.insn(in.ADDI.RdRs1I12(RegMeter, RegMeter, 1))
	}
	c.storeEnv(in.Zero, abi.SlotResultKind)
	c.storeEnv(regMap[0], abi.SlotResultValue)
	c.mv(RegScratch, in.Zero)
	c.jumpAnchor(AnchorEpilogue)

	c.define(AnchorException)
	c.validateMeterScratch()
	c.jumpAnchor(AnchorExceptionUnchecked)

	for _, x := range []struct {
		a  Anchor
		id trap.ID
	}{
		{AnchorCallDepthExceeded, trap.CallDepthExceeded},
		{AnchorDivideByZero, trap.DivideByZero},
		{AnchorDivideOverflow, trap.DivideOverflow},
	} {
		c.define(x.a)
		c.setTrapKind(x.id)
		c.jumpAnchor(AnchorException)
	}

	c.define(AnchorCallOutsideTextSegment)
	c.setTrapKind(trap.CallOutsideTextSegment)
	c.restoreCallRegState()
	c.jumpAnchor(AnchorException)

	c.define(AnchorCallRegUnsupported)
	c.restoreCallRegState()
	// Fall through.

	c.define(AnchorCallUnsupported)
	if c.opts.EnableTracing {
		c.callAnchor(AnchorTrace)
	}
	c.setTrapKind(trap.UnsupportedInstruction)
	c.jumpAnchor(AnchorException)

	c.define(AnchorExternalCall)
	c.externalCallRoutine()

	c.define(AnchorInternalCallPrologue)
	c.prologueRoutine()

	c.define(AnchorInternalCallReg)
	c.internalCallRegRoutine()

	c.define(AnchorEntry)
	c.entryRoutine()

	if c.opts.EnableAddressTranslation {
		for kind := accessLoad; kind < numAccessKinds; kind++ {
			for sizeLog2 := uint(0); sizeLog2 < 4; sizeLog2++ {
				c.define(translateAnchor(kind, sizeLog2))
				c.translateRoutine(kind, sizeLog2)
			}
		}
	}
}

// entryRoutine is called by the host:
//
//	entry(env, regs, meter, target)
func (c *compiler) entryRoutine() {
	c.addSP(-entryFrameSize)
	c.storeStack(in.RA, entryFrameSize-8)
	for i, r := range calleeSaved {
		c.storeStack(r, int32(i*8))
	}

	c.insn(in.ADDI.RdRs1I12(RegVM, in.A0, c.envKey*8))
	c.storeEnv(in.SP, abi.SlotHostStackPointer)
	c.mv(RegMeter, in.A2)
	c.mv(regTarget, in.A3)

	c.mv(regTemp, in.A1)
	for i, r := range regMap {
		c.insn(in.LD.RdRs1I12(r, regTemp, int32(i*8)))
	}
	c.insn(in.LD.RdRs1I12(RegScratch, regTemp, abi.PCRegister*8))

	// The epilogue returns to the instruction after the call.
	c.insn(in.AUIPC.RdI20(regHostReturn, 0))
	c.insn(in.ADDI.RdRs1I12(regHostReturn, regHostReturn, 12))
	c.insn(in.JALR.RdRs1I12(in.RA, regTarget, 0))

	for i, r := range calleeSaved {
		c.loadStack(r, int32(i*8))
	}
	c.loadStack(in.RA, entryFrameSize-8)
	c.addSP(entryFrameSize)
	c.insn(in.RET)
}

// epilogue stores the due instruction count and the registers, and returns
// from the entry routine.  RegScratch holds the pc at which execution ended.
func (c *compiler) epilogue() {
	if c.opts.EnableInstructionMeter {
		// due = previous + scratch + 1 - meter
		c.loadEnv(regTemp, abi.SlotPreviousInstructionMeter)
		c.insn(in.SUB.RdRs1Rs2(RegMeter, RegMeter, regTemp))
		c.insn(in.SUB.RdRs1Rs2(RegMeter, RegMeter, RegScratch))
		c.insn(in.ADDI.RdRs1I12(RegMeter, RegMeter, -1))
		c.insn(in.SUB.RdRs1Rs2(RegMeter, in.Zero, RegMeter))
		c.storeEnv(RegMeter, abi.SlotDueInsnCount)
	}

	for i, r := range regMap {
		c.storeEnv(r, abi.SlotRegister(i))
	}

	c.loadEnv(in.SP, abi.SlotHostStackPointer)
	c.mv(in.RA, regHostReturn)
	c.insn(in.RET)
}

// traceRoutine passes the registers to the trace host function.  RegScratch
// holds the pc.  The caller has pushed ra.
func (c *compiler) traceRoutine() {
	c.addSP(-traceFrameSize)
	for i, r := range regMap {
		c.storeStack(r, int32(i*8))
	}
	c.storeStack(RegScratch, abi.PCRegister*8)
	c.storeStack(RegMeter, traceFrameSize-16)
	c.storeStack(in.RA, traceFrameSize-8)

	c.envAddr(in.A0, 0)
	c.mv(in.A1, in.SP)
	c.loadEnv(regTemp, abi.SlotTrace)
	c.callHost(regTemp)

	for i, r := range regMap {
		c.loadStack(r, int32(i*8))
	}
	c.loadStack(RegScratch, abi.PCRegister*8)
	c.loadStack(RegMeter, traceFrameSize-16)
	c.loadStack(in.RA, traceFrameSize-8)
	c.addSP(traceFrameSize)
	c.insn(in.RET)
}

func (c *compiler) traceCall() {
	c.li(RegScratch, int64(c.pc))
	c.callAnchor(AnchorTrace)
	c.mv(RegScratch, in.Zero)
}

// restoreCallRegState unwinds the state pushed by an indirect call and
// loads the pc of the call into RegScratch.
func (c *compiler) restoreCallRegState() {
	c.loadStack(RegScratch, 8)
	c.pop(regMap[0])
}
