// Copyright (c) 2024 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rv64

import (
	"math/bits"

	"gate.computer/rvjit/internal/isa/rv64/in"
)

// shouldSanitize reports whether a program-provided constant must not
// appear verbatim in machine code.
func (c *compiler) shouldSanitize(value int64) bool {
	if !c.opts.SanitizeImmediates {
		return false
	}

	switch u := uint64(value); u {
	case 0xffff, 0xffffff, 0xffffffff, 0xffffffffff, 0xffffffffffff, 0xffffffffffffff, 0xffffffffffffffff:
		return false

	default:
		return u > 0xff && ^u > 0xff
	}
}

// liValue loads a program-provided constant.
func (c *compiler) liValue(rd in.Reg, value int64) {
	if c.shouldSanitize(value) {
		c.liSanitized(rd, value)
	} else {
		c.li(rd, value)
	}
}

// liSanitized loads a constant as the sum of two key-dependent parts.  It
// clobbers regTemp, and RegScratch when rd is not RegScratch.
func (c *compiler) liSanitized(rd in.Reg, value int64) {
	lowerKey := int64(int32(c.immKey))

	switch {
	case value == int64(int32(value)):
		c.li(rd, value-lowerKey)
		c.li(regTemp, lowerKey)
		c.insn(in.ADD.RdRs1Rs2(rd, rd, regTemp))

	case uint32(value) == 0:
		c.li(rd, int64(bits.RotateLeft64(uint64(value), -32))-lowerKey)
		c.li(regTemp, lowerKey)
		c.insn(in.ADD.RdRs1Rs2(rd, rd, regTemp))
		c.insn(in.SLLI.RdRs1Shamt(rd, rd, 32))

	case rd != RegScratch:
		c.li(rd, value-c.immKey)
		c.li(RegScratch, c.immKey)
		c.insn(in.ADD.RdRs1Rs2(rd, rd, RegScratch))

	default:
		upperKey := int64(int32(c.immKey >> 32))
		c.li(rd, int64(bits.RotateLeft64(uint64(value-lowerKey), -32))-upperKey)
		c.li(regTemp, upperKey)
		c.insn(in.ADD.RdRs1Rs2(rd, rd, regTemp))
		c.rotr32(rd)
		c.li(regTemp, lowerKey)
		c.insn(in.ADD.RdRs1Rs2(rd, rd, regTemp))
	}
}

// aluImm applies a register-register operation to dst and a constant.  The
// immediate form is used when available and the constant need not be
// hidden.
func (c *compiler) aluImm(op in.RegRegReg, opImm in.RegRegImm12, dst in.Reg, value int64) {
	if c.shouldSanitize(value) {
		c.liSanitized(regSanitize, value)
		c.insn(op.RdRs1Rs2(dst, dst, regSanitize))
		return
	}

	if opImm != 0 && in.FitsImm12(value) {
		c.insn(opImm.RdRs1I12(dst, dst, int32(value)))
		return
	}

	c.li(regTemp, value)
	c.insn(op.RdRs1Rs2(dst, dst, regTemp))
}

// addImm adds a constant to a 64-bit register.
func (c *compiler) addImm(dst in.Reg, value int64) {
	if value != 0 || c.shouldSanitize(value) {
		c.aluImm(in.ADD, in.ADDI, dst, value)
	}
}

// subImm subtracts a constant from a register.
func (c *compiler) subImm(op in.RegRegReg, opAddImm in.RegRegImm12, dst in.Reg, value int64) {
	if !c.shouldSanitize(value) && in.FitsImm12(-value) {
		c.insn(opAddImm.RdRs1I12(dst, dst, int32(-value)))
		return
	}
	c.aluImm(op, 0, dst, value)
}
