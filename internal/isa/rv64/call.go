// Copyright (c) 2024 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rv64

import (
	"gate.computer/rvjit/abi"
	"gate.computer/rvjit/internal/errors"
	"gate.computer/rvjit/internal/isa/rv64/in"
	"gate.computer/rvjit/sbpf"
)

// externalCallRoutine calls a syscall.  RegScratch holds the function
// address, regCookie its cookie and regCallPC the pc.  The caller has pushed
// ra.
func (c *compiler) externalCallRoutine() {
	c.push(regCallPC)
	if c.opts.EnableInstructionMeter {
		c.storeEnv(RegMeter, abi.SlotDueInsnCount)
	}

	c.addSP(-syscallFrameSize)
	for i := 1; i <= 5; i++ {
		c.storeStack(regMap[i], int32((i-1)*8))
	}
	c.storeStack(in.RA, syscallFrameSize-8)

	c.envAddr(in.A0, 0)
	c.mv(in.A6, regCookie)
	c.callHost(RegScratch)

	for i := 1; i <= 5; i++ {
		c.loadStack(regMap[i], int32((i-1)*8))
	}
	c.loadStack(in.RA, syscallFrameSize-8)
	c.addSP(syscallFrameSize)

	if c.opts.EnableInstructionMeter {
		c.loadEnv(RegMeter, abi.SlotPreviousInstructionMeter)
	}
	c.pop(regCallPC)

	c.loadEnv(regTemp, abi.SlotResultKind)
	ok := c.skipForward(in.BEQ, regTemp, in.Zero)
	c.storeEnv(regCallPC, abi.SlotRegister(abi.PCRegister))
	c.li(RegScratch, -1)
	c.jumpAnchor(AnchorEpilogue)
	c.landHere(ok)

	c.loadEnv(regMap[0], abi.SlotResultValue)
	c.insn(in.RET)
}

// prologueRoutine saves the frame of the caller.  RegScratch holds the pc of
// the call.  The caller has pushed ra.
//
// Stack after return, from sp upwards: saved ra, frame pointer, r9, r8, r7,
// r6.
func (c *compiler) prologueRoutine() {
	c.validateMeterScratch()

	c.addSP(-prologueFrameSize)
	c.storeStack(RegScratch, 0)
	c.loadStack(RegScratch, prologueFrameSize) // Saved ra.
	for i := 0; i < numScratchRegs; i++ {
		c.storeStack(regMap[firstScratchReg+i], int32(prologueFrameSize-i*8))
	}
	c.storeStack(regMap[framePointerReg], 8)
	c.loadStack(regDividend, 0)
	c.storeStack(RegScratch, 0)
	c.mv(RegScratch, regDividend)

	c.loadEnv(regDividend, abi.SlotCallDepth)
	c.insn(in.ADDI.RdRs1I12(regDividend, regDividend, 1))
	c.storeEnv(regDividend, abi.SlotCallDepth)
	c.li(regTemp, int64(c.opts.MaxCallDepth))
	c.branchAnchor(in.BGEU, regDividend, regTemp, AnchorCallDepthExceeded)

	if !c.version.Has(sbpf.ManualStackFrameBump) {
		size := c.opts.StackFrameSize
		if c.opts.EnableStackFrameGaps {
			size *= 2
		}
		c.addPlain(regMap[framePointerReg], size)
	}

	c.insn(in.RET)
}

// internalCallRegRoutine transfers control to a bytecode address.
// RegScratch holds the target.  The caller has stored the pc of the call at
// 0(sp) and ra at 8(sp).
func (c *compiler) internalCallRegRoutine() {
	c.push(regMap[0])

	c.li(regMap[0], int64(c.prog.TextVMAddr()))
	c.insn(in.SUB.RdRs1Rs2(RegScratch, RegScratch, regMap[0]))
	c.insn(in.ANDI.RdRs1I12(regTemp, RegScratch, sbpf.InsnSize-1))
	c.branchAnchor(in.BNE, regTemp, in.Zero, AnchorCallRegUnsupported)
	c.li(regTemp, int64(c.numInsns)*sbpf.InsnSize)
	c.branchAnchor(in.BGEU, RegScratch, regTemp, AnchorCallOutsideTextSegment)
	c.insn(in.SRLI.RdRs1Shamt(RegScratch, RegScratch, 3))

	// Lookup table precedes text.
	here := c.text.Addr
	c.insn(in.AUIPC.RdI20(regDividend, 0))
	c.li(regTemp, int64(here)+int64(c.image.TableSize()))
	c.insn(in.SUB.RdRs1Rs2(regDividend, regDividend, regTemp))
	c.insn(in.SLLI.RdRs1Shamt(regTemp, RegScratch, 2))
	c.insn(in.ADD.RdRs1Rs2(regDividend, regDividend, regTemp))
	c.insn(in.LWU.RdRs1I12(regMap[0], regDividend, 0))
	c.insn(in.SRLI.RdRs1Shamt(regTemp, regMap[0], 31))
	c.branchAnchor(in.BNE, regTemp, in.Zero, AnchorCallRegUnsupported)

	if c.opts.EnableInstructionMeter {
		c.loadStack(regTemp, 8)
		c.insn(in.SUB.RdRs1Rs2(RegMeter, RegMeter, regTemp))
		c.insn(in.ADDI.RdRs1I12(RegMeter, RegMeter, -1))
		c.insn(in.ADD.RdRs1Rs2(RegMeter, RegMeter, RegScratch))
	}

	here = c.text.Addr
	c.insn(in.AUIPC.RdI20(regValue, 0))
	c.li(regTemp, int64(here))
	c.insn(in.SUB.RdRs1Rs2(regValue, regValue, regTemp))
	c.insn(in.ADD.RdRs1Rs2(regValue, regValue, regMap[0]))

	c.pop(regMap[0])
	c.insn(in.JALR.RdRs1I12(in.Zero, regValue, 0))
}

// addPlain adds a constant which is not program-provided.
func (c *compiler) addPlain(dst in.Reg, value int64) {
	if in.FitsImm12(value) {
		c.insn(in.ADDI.RdRs1I12(dst, dst, int32(value)))
	} else {
		c.li(regTemp, value)
		c.insn(in.ADD.RdRs1Rs2(dst, dst, regTemp))
	}
}

// externalCall emits a syscall site.
func (c *compiler) externalCall(s abi.Syscall) {
	c.validateAndProfile(0)
	c.li(RegScratch, int64(s.Addr))
	c.li(regCookie, int64(s.Cookie))
	c.li(regCallPC, int64(c.pc))
	c.callAnchor(AnchorExternalCall)
	c.undo(0)
}

// internalCall emits a call to a bytecode function.
func (c *compiler) internalCall(target int) {
	c.li(RegScratch, int64(c.pc))
	c.callAnchor(AnchorInternalCallPrologue)

	c.profile(target)
	c.liValue(RegScratch, int64(target))
	c.push(in.RA)
	c.jumpPC(in.RA, target)
	c.pop(in.RA)

	c.returnFromCall()
}

// internalCallReg emits a call to a bytecode address held in a register.
func (c *compiler) internalCallReg(reg in.Reg) {
	c.mv(regCallTarget, reg)
	c.li(RegScratch, int64(c.pc))
	c.callAnchor(AnchorInternalCallPrologue)

	c.addSP(-16)
	c.storeStack(in.RA, 8)
	c.li(regTemp, int64(c.pc))
	c.storeStack(regTemp, 0)
	c.mv(RegScratch, regCallTarget)
	c.jumpTo(in.RA, c.anchorAddr(AnchorInternalCallReg))
	c.loadStack(in.RA, 8)
	c.addSP(16)

	c.returnFromCall()
}

// returnFromCall restores the frame saved by the prologue.
func (c *compiler) returnFromCall() {
	c.undo(0)
	c.pop(regMap[framePointerReg])
	for i := 0; i < numScratchRegs; i++ {
		c.loadStack(regMap[firstScratchReg+numScratchRegs-1-i], int32(i*8))
	}
	c.addSP(numScratchRegs * 8)
}

func genCallImm(c *compiler, insn sbpf.Insn) {
	key := uint32(insn.Imm)

	if !c.version.Has(sbpf.StaticSyscalls) || insn.Src == 0 {
		if s, found := c.registry.LookupSyscall(key); found {
			c.externalCall(s)
			return
		}
	}

	if c.version.Has(sbpf.StaticSyscalls) {
		if target := c.pc + int(int32(insn.Imm)) + 1; insn.Src == 1 && target >= 0 && target < c.numInsns {
			c.internalCall(target)
			return
		}
	} else if target, found := c.registry.LookupFunction(key); found {
		c.internalCall(target)
		return
	}

	c.unsupported()
}

func genCallReg(c *compiler, insn sbpf.Insn) {
	var r uint8

	switch {
	case c.version.Has(sbpf.CallxUsesSrcReg):
		r = insn.Src

	case c.version.Has(sbpf.CallxUsesDstReg):
		r = insn.Dst

	default:
		if insn.Imm < 0 || insn.Imm >= sbpf.NumRegs {
			errors.Atf(c.pc, errors.ErrInvalidInstruction, "call register %d", insn.Imm)
		}
		r = uint8(insn.Imm)
	}

	c.internalCallReg(regMap[r])
}

func genExit(c *compiler, insn sbpf.Insn) {
	c.validateAndProfile(0)
	c.loadEnv(regDividend, abi.SlotCallDepth)
	c.branchAnchor(in.BEQ, regDividend, in.Zero, AnchorExit)
	c.insn(in.ADDI.RdRs1I12(regDividend, regDividend, -1))
	c.storeEnv(regDividend, abi.SlotCallDepth)
	c.insn(in.RET)
}
