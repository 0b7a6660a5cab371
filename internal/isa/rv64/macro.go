// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rv64

import (
	"fmt"

	"gate.computer/rvjit/abi"
	"gate.computer/rvjit/internal/errors"
	"gate.computer/rvjit/internal/isa/rv64/in"
	"gate.computer/rvjit/internal/links"
	"gate.computer/rvjit/trap"
)

const nopWord = in.NOP

func (c *compiler) insn(word uint32) {
	c.text.PutUint32(word)
}

func (c *compiler) mv(rd, rs in.Reg) {
	if rd != rs {
		c.insn(in.ADDI.RdRs1I12(rd, rs, 0))
	}
}

// li loads a constant.  rd must not be regImmLow.
func (c *compiler) li(rd in.Reg, value int64) {
	switch {
	case in.FitsImm12(value):
		c.insn(in.ADDI.RdRs1I12(rd, in.Zero, int32(value)))

	case value == int64(int32(value)):
		hi, lo := in.HiLo(int32(value))
		c.insn(in.LUI.RdI20(rd, hi))
		if lo != 0 {
			c.insn(in.ADDIW.RdRs1I12(rd, rd, lo))
		}

	default:
		c.li(rd, value>>32)
		c.insn(in.SLLI.RdRs1Shamt(rd, rd, 32))
		if low := int32(value); low != 0 {
			c.li(regImmLow, int64(low))
			c.zeroExtend(regImmLow)
			c.insn(in.OR.RdRs1Rs2(rd, rd, regImmLow))
		}
	}
}

func (c *compiler) zeroExtend(r in.Reg) {
	c.insn(in.SLLI.RdRs1Shamt(r, r, 32))
	c.insn(in.SRLI.RdRs1Shamt(r, r, 32))
}

func (c *compiler) signExtend(r in.Reg) {
	c.insn(in.ADDIW.RdRs1I12(r, r, 0))
}

// rotr32 rotates a 64-bit register by 32 bits.
func (c *compiler) rotr32(r in.Reg) {
	c.insn(in.SRLI.RdRs1Shamt(regRotate1, r, 32))
	c.insn(in.SLLI.RdRs1Shamt(regRotate2, r, 32))
	c.insn(in.OR.RdRs1Rs2(r, regRotate1, regRotate2))
}

func (c *compiler) envOffset(slot abi.Slot) int32 {
	return int32(slot)*8 - c.envKey*8
}

func (c *compiler) loadEnv(rd in.Reg, slot abi.Slot) {
	c.insn(in.LD.RdRs1I12(rd, RegVM, c.envOffset(slot)))
}

func (c *compiler) storeEnv(rs in.Reg, slot abi.Slot) {
	c.insn(in.SD.Rs1Rs2I12(RegVM, rs, c.envOffset(slot)))
}

// envAddr computes the address of an environment slot.
func (c *compiler) envAddr(rd in.Reg, slot abi.Slot) {
	c.insn(in.ADDI.RdRs1I12(rd, RegVM, c.envOffset(slot)))
}

func (c *compiler) setTrapKind(id trap.ID) {
	c.li(regTemp, int64(id))
	c.storeEnv(regTemp, abi.SlotResultKind)
}

func (c *compiler) addSP(n int32) {
	c.insn(in.ADDI.RdRs1I12(in.SP, in.SP, n))
}

func (c *compiler) push(r in.Reg) {
	c.addSP(-8)
	c.insn(in.SD.Rs1Rs2I12(in.SP, r, 0))
}

func (c *compiler) pop(r in.Reg) {
	c.insn(in.LD.RdRs1I12(r, in.SP, 0))
	c.addSP(8)
}

func (c *compiler) loadStack(rd in.Reg, offset int32) {
	c.insn(in.LD.RdRs1I12(rd, in.SP, offset))
}

func (c *compiler) storeStack(rs in.Reg, offset int32) {
	c.insn(in.SD.Rs1Rs2I12(in.SP, rs, offset))
}

// callHost calls a native function with the stack pointer aligned to 16
// bytes.
func (c *compiler) callHost(fn in.Reg) {
	c.mv(regHostSP, in.SP)
	c.insn(in.ANDI.RdRs1I12(in.SP, in.SP, -16))
	c.insn(in.JALR.RdRs1I12(in.RA, fn, 0))
	c.mv(in.SP, regHostSP)
}

func invert(op in.RegRegDisp13) in.RegRegDisp13 {
	return op ^ 1<<12
}

// branchTo emits a conditional branch to a known text address.
func (c *compiler) branchTo(op in.RegRegDisp13, rs1, rs2 in.Reg, addr int32) {
	disp := addr - c.text.Addr
	switch {
	case in.FitsDisp13(int64(disp)):
		c.insn(op.Rs1Rs2D13(rs1, rs2, disp))

	case in.FitsDisp21(int64(disp - 4)):
		c.insn(invert(op).Rs1Rs2D13(rs1, rs2, 8))
		c.insn(in.JAL.RdD21(in.Zero, disp-4))

	default:
		c.insn(invert(op).Rs1Rs2D13(rs1, rs2, 12))
		c.farJump(in.Zero, addr)
	}
}

// jumpTo emits an unconditional jump to a known text address.  The return
// address is written to rd.
func (c *compiler) jumpTo(rd in.Reg, addr int32) {
	disp := addr - c.text.Addr
	if in.FitsDisp21(int64(disp)) {
		c.insn(in.JAL.RdD21(rd, disp))
	} else {
		c.farJump(rd, addr)
	}
}

func (c *compiler) farJump(rd in.Reg, addr int32) {
	hi, lo := in.HiLo(addr - c.text.Addr)
	c.insn(in.AUIPC.RdI20(regImmLow, hi))
	c.insn(in.JALR.RdRs1I12(rd, regImmLow, lo))
}

// skipForward emits a placeholder branch to be completed by landHere.
func (c *compiler) skipForward(op in.RegRegDisp13, rs1, rs2 in.Reg) (site int32) {
	site = c.text.Addr
	c.insn(op.Rs1Rs2D13(rs1, rs2, 0))
	return
}

func (c *compiler) landHere(site int32) {
	links.Patch(&c.text, site, c.text.Addr, c.pc)
}

func (c *compiler) anchorAddr(a Anchor) int32 {
	l := &c.anchors[a]
	if !l.Defined() {
		panic(fmt.Sprintf("%v routine not emitted", a))
	}
	return l.Address
}

func (c *compiler) jumpAnchor(a Anchor) {
	c.jumpTo(in.Zero, c.anchorAddr(a))
}

func (c *compiler) branchAnchor(op in.RegRegDisp13, rs1, rs2 in.Reg, a Anchor) {
	c.branchTo(op, rs1, rs2, c.anchorAddr(a))
}

// callAnchor calls a routine while preserving ra on the stack.
func (c *compiler) callAnchor(a Anchor) {
	c.push(in.RA)
	c.jumpTo(in.RA, c.anchorAddr(a))
	c.pop(in.RA)
}

func (c *compiler) checkTarget(target int) {
	if target < 0 || target >= c.numInsns {
		errors.Atf(c.pc, errors.ErrInvalidInstruction, "jump target %d outside of program", target)
	}
}

// forwardBound is the assumed maximum distance between the current position
// and the code of a later instruction.
func (c *compiler) forwardBound(target int) int64 {
	return int64(target-c.pc) * c.insnSizeBound
}

func (c *compiler) deferJump(target int) {
	c.jumps = append(c.jumps, links.Jump{Site: c.text.Addr, Target: target, PC: c.pc})
}

// jumpPC transfers control to a bytecode instruction.  The return address
// is written to rd.
func (c *compiler) jumpPC(rd in.Reg, target int) {
	if addr, ok := c.image.TextAddr(target); ok {
		c.jumpTo(rd, addr)
		return
	}

	c.checkTarget(target)
	c.deferJump(target)
	if c.forwardBound(target) <= in.MaxDisp21 {
		c.insn(in.JAL.RdD21(rd, 0))
	} else {
		c.insn(in.AUIPC.RdI20(regImmLow, 0))
		c.insn(in.JALR.RdRs1I12(rd, regImmLow, 0))
	}
}

// branchPC transfers control to a bytecode instruction if the condition
// holds.
func (c *compiler) branchPC(op in.RegRegDisp13, rs1, rs2 in.Reg, target int) {
	if addr, ok := c.image.TextAddr(target); ok {
		c.branchTo(op, rs1, rs2, addr)
		return
	}

	c.checkTarget(target)
	bound := c.forwardBound(target)
	switch {
	case bound <= in.MaxDisp13:
		c.deferJump(target)
		c.insn(op.Rs1Rs2D13(rs1, rs2, 0))

	case bound <= in.MaxDisp21-4:
		c.insn(invert(op).Rs1Rs2D13(rs1, rs2, 8))
		c.deferJump(target)
		c.insn(in.JAL.RdD21(in.Zero, 0))

	default:
		c.insn(invert(op).Rs1Rs2D13(rs1, rs2, 12))
		c.deferJump(target)
		c.insn(in.AUIPC.RdI20(regImmLow, 0))
		c.insn(in.JALR.RdRs1I12(in.Zero, regImmLow, 0))
	}
}
