// Copyright (c) 2024 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rv64

import (
	"gate.computer/rvjit/abi"
	"gate.computer/rvjit/image"
	"gate.computer/rvjit/internal/errors"
	"gate.computer/rvjit/internal/isa/rv64/in"
	"gate.computer/rvjit/sbpf"
)

var (
	loadOps  = [4]in.RegRegImm12{in.LBU, in.LHU, in.LWU, in.LD}
	storeOps = [4]in.RegRegStore{in.SB, in.SH, in.SW, in.SD}
)

func genLoad(sizeLog2 uint) genFunc {
	return func(c *compiler, insn sbpf.Insn) {
		c.memoryAccess(accessLoad, sizeLog2, regMap[insn.Src], insn.Off, regMap[insn.Dst])
	}
}

func genStoreReg(sizeLog2 uint) genFunc {
	return func(c *compiler, insn sbpf.Insn) {
		c.mv(regValue, regMap[insn.Src])
		c.memoryAccess(accessStoreReg, sizeLog2, regMap[insn.Dst], insn.Off, in.Zero)
	}
}

func genStoreImm(sizeLog2 uint) genFunc {
	return func(c *compiler, insn sbpf.Insn) {
		if c.opts.EnableAddressTranslation && c.opts.SanitizeImmediates {
			c.li(regValue, insn.Imm-int64(int32(c.immKey)))
		} else {
			c.liValue(regValue, insn.Imm)
		}
		c.memoryAccess(accessStoreImm, sizeLog2, regMap[insn.Dst], insn.Off, in.Zero)
	}
}

// memoryAccess loads into dst, or stores regValue.  The access goes through
// the memory mapping of the host if address translation is enabled.
func (c *compiler) memoryAccess(kind accessKind, sizeLog2 uint, base in.Reg, offset int16, dst in.Reg) {
	switch {
	case c.shouldSanitize(int64(offset)):
		c.liValue(regSanitize, int64(offset))
		c.insn(in.ADD.RdRs1Rs2(RegScratch, base, regSanitize))

	case in.FitsImm12(int64(offset)):
		c.insn(in.ADDI.RdRs1I12(RegScratch, base, int32(offset)))

	default:
		c.li(regTemp, int64(offset))
		c.insn(in.ADD.RdRs1Rs2(RegScratch, base, regTemp))
	}

	if !c.opts.EnableAddressTranslation {
		if kind == accessLoad {
			c.insn(loadOps[sizeLog2].RdRs1I12(dst, RegScratch, 0))
		} else {
			c.insn(storeOps[sizeLog2].Rs1Rs2I12(RegScratch, regValue, 0))
		}
		return
	}

	c.li(regTemp, int64(c.pc))
	c.addSP(-16)
	c.storeStack(in.RA, 8)
	c.storeStack(regTemp, 0)
	c.jumpTo(in.RA, c.anchorAddr(translateAnchor(kind, sizeLog2)))
	c.loadStack(in.RA, 8)
	c.addSP(16)

	if kind == accessLoad {
		c.mv(dst, RegScratch)
	}
}

// translateRoutine calls a load or store function of the host.  RegScratch
// holds the virtual address and regValue the value to be stored.  The caller
// has stored the pc at 0(sp) and ra at 8(sp).  A load leaves the value in
// RegScratch.
func (c *compiler) translateRoutine(kind accessKind, sizeLog2 uint) {
	c.addSP(-translateFrameSize)
	for i := 0; i < 7; i++ {
		c.storeStack(in.A0+in.Reg(i), int32(i*8))
	}
	c.storeStack(in.RA, translateFrameSize-8)

	if kind == accessStoreImm && c.opts.SanitizeImmediates {
		c.li(regTemp, int64(int32(c.immKey)))
		c.insn(in.ADD.RdRs1Rs2(regValue, regValue, regTemp))
	}

	c.envAddr(in.A0, abi.SlotResultKind)
	c.loadEnv(in.A1, abi.SlotMemoryMapping)

	var fn abi.Slot
	if kind == accessLoad {
		c.mv(in.A2, RegScratch)
		c.loadStack(in.A3, translateFrameSize)
		fn = abi.SlotLoad + abi.Slot(sizeLog2)
	} else {
		c.mv(in.A2, regValue)
		c.mv(in.A3, RegScratch)
		c.loadStack(in.A4, translateFrameSize)
		fn = abi.SlotStore + abi.Slot(sizeLog2)
	}

	c.loadEnv(regTemp, fn)
	c.callHost(regTemp)

	for i := 0; i < 7; i++ {
		c.loadStack(in.A0+in.Reg(i), int32(i*8))
	}
	c.loadStack(in.RA, translateFrameSize-8)
	c.addSP(translateFrameSize)

	c.loadEnv(regTemp, abi.SlotResultKind)
	c.loadStack(RegScratch, 0)
	c.branchAnchor(in.BNE, regTemp, in.Zero, AnchorException)

	if kind == accessLoad {
		c.loadEnv(RegScratch, abi.SlotResultValue)
	}
	c.insn(in.RET)
}

func genLoadDW(c *compiler, insn sbpf.Insn) {
	if c.pc+1 >= c.numInsns {
		errors.Atf(c.pc, errors.ErrInvalidInstruction, "truncated lddw")
	}

	c.validateAndProfile(c.pc + 2)

	c.pc++
	c.image.SetTextAddr(c.pc, uint32(c.anchorAddr(AnchorCallUnsupported))|image.UnsupportedBit)

	c.liValue(regMap[insn.Dst], insn.Imm)
}
