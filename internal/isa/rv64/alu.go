// Copyright (c) 2024 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rv64

import (
	"math"

	"gate.computer/rvjit/internal/errors"
	"gate.computer/rvjit/internal/isa/rv64/in"
	"gate.computer/rvjit/sbpf"
)

// extension of a 32-bit result to 64 bits.
type extension int

const (
	extNone = extension(iota)
	extZero
	extSign
	extResult // Zero-extended if explicit sign extension is enabled.
)

func (c *compiler) extend(r in.Reg, e extension) {
	switch e {
	case extZero:
		c.zeroExtend(r)

	case extSign:
		c.signExtend(r)

	case extResult:
		if c.version.Has(sbpf.ExplicitSignExtension) {
			c.zeroExtend(r)
		} else {
			c.signExtend(r)
		}
	}
}

func isReg(insn sbpf.Insn) bool {
	return insn.Opc&sbpf.SourceX != 0
}

// operand returns the register holding the source operand.  An immediate
// value is loaded into regTemp.
func (c *compiler) operand(insn sbpf.Insn, imm int64) in.Reg {
	if isReg(insn) {
		return regMap[insn.Src]
	}
	c.li(regTemp, imm)
	return regTemp
}

func genALUReg(op in.RegRegReg, ext extension) genFunc {
	return func(c *compiler, insn sbpf.Insn) {
		dst := regMap[insn.Dst]
		c.insn(op.RdRs1Rs2(dst, dst, regMap[insn.Src]))
		c.extend(dst, ext)
	}
}

func genALUImm(op in.RegRegReg, opImm in.RegRegImm12, ext extension) genFunc {
	return func(c *compiler, insn sbpf.Insn) {
		dst := regMap[insn.Dst]
		c.aluImm(op, opImm, dst, insn.Imm)
		c.extend(dst, ext)
	}
}

func genSubImm(size32 bool) genFunc {
	return func(c *compiler, insn sbpf.Insn) {
		dst := regMap[insn.Dst]

		add, sub, addImm := in.ADD, in.SUB, in.ADDI
		if size32 {
			add, sub, addImm = in.ADDW, in.SUBW, in.ADDIW
		}

		if c.version.Has(sbpf.SwapSubRegImm) {
			c.insn(sub.RdRs1Rs2(dst, in.Zero, dst))
			c.aluImm(add, addImm, dst, insn.Imm)
		} else {
			c.subImm(sub, addImm, dst, insn.Imm)
		}

		if size32 {
			c.extend(dst, extResult)
		}
	}
}

func genShiftImm64(op in.RegRegShamt6) genFunc {
	return func(c *compiler, insn sbpf.Insn) {
		dst := regMap[insn.Dst]
		c.insn(op.RdRs1Shamt(dst, dst, uint32(insn.Imm)&63))
	}
}

func genShiftImm32(op in.RegRegShamt5) genFunc {
	return func(c *compiler, insn sbpf.Insn) {
		dst := regMap[insn.Dst]
		c.insn(op.RdRs1Shamt(dst, dst, uint32(insn.Imm)&31))
		c.zeroExtend(dst)
	}
}

func genNeg(op in.RegRegReg, ext extension) genFunc {
	return func(c *compiler, insn sbpf.Insn) {
		dst := regMap[insn.Dst]
		c.insn(op.RdRs1Rs2(dst, in.Zero, dst))
		c.extend(dst, ext)
	}
}

func genMov64Imm(c *compiler, insn sbpf.Insn) {
	c.liValue(regMap[insn.Dst], insn.Imm)
}

func genMov32Imm(c *compiler, insn sbpf.Insn) {
	c.liValue(regMap[insn.Dst], int64(uint32(insn.Imm)))
}

func genMov64Reg(c *compiler, insn sbpf.Insn) {
	c.mv(regMap[insn.Dst], regMap[insn.Src])
}

func genMov32Reg(c *compiler, insn sbpf.Insn) {
	dst := regMap[insn.Dst]
	if c.version.Has(sbpf.ExplicitSignExtension) {
		c.insn(in.ADDIW.RdRs1I12(dst, regMap[insn.Src], 0))
	} else {
		c.mv(dst, regMap[insn.Src])
		c.zeroExtend(dst)
	}
}

func genHor64Imm(c *compiler, insn sbpf.Insn) {
	c.aluImm(in.OR, 0, regMap[insn.Dst], int64(uint64(uint32(insn.Imm))<<32))
}

func genLE(c *compiler, insn sbpf.Insn) {
	dst := regMap[insn.Dst]

	switch insn.Imm {
	case 16:
		c.insn(in.SLLI.RdRs1Shamt(dst, dst, 48))
		c.insn(in.SRLI.RdRs1Shamt(dst, dst, 48))

	case 32:
		c.zeroExtend(dst)

	case 64:

	default:
		errors.Atf(c.pc, errors.ErrInvalidInstruction, "byte swap width %d", insn.Imm)
	}
}

func genBE(c *compiler, insn sbpf.Insn) {
	dst := regMap[insn.Dst]

	switch insn.Imm {
	case 16, 32, 64:
	default:
		errors.Atf(c.pc, errors.ErrInvalidInstruction, "byte swap width %d", insn.Imm)
	}

	n := uint32(insn.Imm / 8)
	c.mv(regTemp, in.Zero)
	for i := uint32(0); i < n; i++ {
		c.insn(in.SRLI.RdRs1Shamt(regRotate1, dst, i*8))
		c.insn(in.ANDI.RdRs1I12(regRotate1, regRotate1, 0xff))
		c.insn(in.SLLI.RdRs1Shamt(regRotate1, regRotate1, (n-1-i)*8))
		c.insn(in.OR.RdRs1Rs2(regTemp, regTemp, regRotate1))
	}
	c.mv(dst, regTemp)
}

// genMul emits a multiplication.  Immediate operands are zero-extended from
// 32 bits if zeroImm is set.
func genMul(op in.RegRegReg, ext extension, zeroImm bool) genFunc {
	return func(c *compiler, insn sbpf.Insn) {
		dst := regMap[insn.Dst]
		if isReg(insn) {
			c.insn(op.RdRs1Rs2(dst, dst, regMap[insn.Src]))
		} else {
			imm := insn.Imm
			if zeroImm {
				imm = int64(uint32(imm))
			}
			c.aluImm(op, 0, dst, imm)
		}
		c.extend(dst, ext)
	}
}

// genDiv emits a guarded division or remainder.  32-bit results are
// zero-extended.
func genDiv(op in.RegRegReg, size32, signed, zeroImm bool) genFunc {
	return func(c *compiler, insn sbpf.Insn) {
		imm := insn.Imm
		if zeroImm {
			imm = int64(uint32(imm))
		}

		dst := regMap[insn.Dst]
		divisor := c.operand(insn, imm)
		c.divGuard(size32, signed, dst, divisor)
		c.insn(op.RdRs1Rs2(dst, dst, divisor))
		if size32 {
			c.zeroExtend(dst)
		}
	}
}

// divGuard raises DivideByZero if the divisor is zero, and DivideOverflow if
// a signed division would overflow.
func (c *compiler) divGuard(size32, signed bool, dividend, divisor in.Reg) {
	if size32 {
		c.insn(in.ADDIW.RdRs1I12(regValue, divisor, 0))
	} else {
		c.mv(regValue, divisor)
	}
	c.li(RegScratch, int64(c.pc))
	c.branchAnchor(in.BEQ, regValue, in.Zero, AnchorDivideByZero)

	if !signed {
		return
	}

	if size32 {
		c.li(regSanitize, math.MinInt32)
		c.insn(in.ADDIW.RdRs1I12(regDividend, dividend, 0))
	} else {
		c.li(regSanitize, math.MinInt64)
		c.mv(regDividend, dividend)
	}
	c.insn(in.XOR.RdRs1Rs2(regSanitize, regDividend, regSanitize))
	c.insn(in.SLTIU.RdRs1I12(regSanitize, regSanitize, 1)) // Dividend is minimum.
	c.insn(in.ADDI.RdRs1I12(regDividend, regValue, 1))
	c.insn(in.SLTIU.RdRs1I12(regDividend, regDividend, 1)) // Divisor is -1.
	c.insn(in.AND.RdRs1Rs2(regSanitize, regSanitize, regDividend))
	c.branchAnchor(in.BNE, regSanitize, in.Zero, AnchorDivideOverflow)
}
