// Copyright (c) 2024 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rv64

import (
	"gate.computer/rvjit/internal/isa/rv64/in"
	"gate.computer/rvjit/sbpf"
)

func jumpTarget(insn sbpf.Insn) int {
	return insn.PC + int(insn.Off) + 1
}

func genJA(c *compiler, insn sbpf.Insn) {
	target := jumpTarget(insn)
	c.validateAndProfile(target)
	c.li(RegScratch, int64(target))
	c.jumpPC(in.Zero, target)
}

// genBranch emits a conditional jump.  The operands are compared as op
// rs1=dst, rs2=src unless swap is set.  32-bit comparisons operate on
// extended copies of the operands.
func genBranch(op in.RegRegDisp13, swap, size32, signed bool) genFunc {
	return func(c *compiler, insn sbpf.Insn) {
		target := jumpTarget(insn)
		c.validateAndProfile(target)

		lhs, rhs := c.comparands(insn, size32, signed)
		if swap {
			lhs, rhs = rhs, lhs
		}

		c.li(RegScratch, int64(target))
		c.branchPC(op, lhs, rhs, target)
		c.undo(target)
	}
}

func genJSet(size32 bool) genFunc {
	return func(c *compiler, insn sbpf.Insn) {
		target := jumpTarget(insn)
		c.validateAndProfile(target)

		lhs, rhs := c.comparands(insn, false, false)
		c.insn(in.AND.RdRs1Rs2(regValue, lhs, rhs))
		if size32 {
			c.insn(in.SLLI.RdRs1Shamt(regValue, regValue, 32))
		}

		c.li(RegScratch, int64(target))
		c.branchPC(in.BNE, regValue, in.Zero, target)
		c.undo(target)
	}
}

// comparands returns registers holding the operands of a conditional jump.
// Bytecode registers are not modified.
func (c *compiler) comparands(insn sbpf.Insn, size32, signed bool) (lhs, rhs in.Reg) {
	lhs = regMap[insn.Dst]
	if size32 {
		lhs = c.extendCopy(regRotate1, lhs, signed)
	}

	if isReg(insn) {
		rhs = regMap[insn.Src]
		if size32 {
			rhs = c.extendCopy(regRotate2, rhs, signed)
		}
	} else {
		imm := insn.Imm
		if size32 && !signed {
			imm = int64(uint32(imm))
		}
		c.liValue(regSanitize, imm)
		rhs = regSanitize
	}
	return
}

func (c *compiler) extendCopy(rd, rs in.Reg, signed bool) in.Reg {
	if signed {
		c.insn(in.ADDIW.RdRs1I12(rd, rs, 0))
	} else {
		c.insn(in.SLLI.RdRs1Shamt(rd, rs, 32))
		c.insn(in.SRLI.RdRs1Shamt(rd, rd, 32))
	}
	return rd
}
