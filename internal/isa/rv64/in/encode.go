// Copyright (c) 2024 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package in

import (
	"fmt"
)

// Reg is an integer register number.
type Reg uint32

const (
	Zero = Reg(0)
	RA   = Reg(1)
	SP   = Reg(2)
	GP   = Reg(3)
	TP   = Reg(4)
	T0   = Reg(5)
	T1   = Reg(6)
	T2   = Reg(7)
	S0   = Reg(8)
	S1   = Reg(9)
	A0   = Reg(10)
	A1   = Reg(11)
	A2   = Reg(12)
	A3   = Reg(13)
	A4   = Reg(14)
	A5   = Reg(15)
	A6   = Reg(16)
	A7   = Reg(17)
	S2   = Reg(18)
	S3   = Reg(19)
	S4   = Reg(20)
	S5   = Reg(21)
	S6   = Reg(22)
	S7   = Reg(23)
	S8   = Reg(24)
	S9   = Reg(25)
	S10  = Reg(26)
	S11  = Reg(27)
	T3   = Reg(28)
	T4   = Reg(29)
	T5   = Reg(30)
	T6   = Reg(31)
)

var regNames = [32]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

func (r Reg) String() string {
	if r < 32 {
		return regNames[r]
	}
	return fmt.Sprintf("x%d", uint32(r))
}

// Immediate ranges.
const (
	MinImm12  = -0x800
	MaxImm12  = 0x7ff
	MinDisp13 = -0x1000
	MaxDisp13 = 0xffe
	MinDisp21 = -0x100000
	MaxDisp21 = 0xffffe
)

func FitsImm12(i int64) bool  { return i >= MinImm12 && i <= MaxImm12 }
func FitsDisp13(i int64) bool { return i >= MinDisp13 && i <= MaxDisp13 && i&1 == 0 }
func FitsDisp21(i int64) bool { return i >= MinDisp21 && i <= MaxDisp21 && i&1 == 0 }

type (
	RegRegReg    uint32 // R-type
	RegRegImm12  uint32 // I-type
	RegRegShamt6 uint32 // I-type, 64-bit shift
	RegRegShamt5 uint32 // I-type, 32-bit shift
	RegRegStore  uint32 // S-type
	RegRegDisp13 uint32 // B-type
	RegImm20     uint32 // U-type
	RegDisp21    uint32 // J-type
)

func reg(r Reg) uint32 {
	if r >= 32 {
		panic(fmt.Sprintf("invalid register number: %d", uint32(r)))
	}
	return uint32(r)
}

func (op RegRegReg) RdRs1Rs2(rd, rs1, rs2 Reg) uint32 {
	return uint32(op) | reg(rs2)<<20 | reg(rs1)<<15 | reg(rd)<<7
}

func (op RegRegImm12) RdRs1I12(rd, rs1 Reg, imm int32) uint32 {
	if !FitsImm12(int64(imm)) {
		panic(fmt.Sprintf("12-bit immediate out of range: %d", imm))
	}
	return uint32(op) | Int12(imm)<<20 | reg(rs1)<<15 | reg(rd)<<7
}

func (op RegRegShamt6) RdRs1Shamt(rd, rs1 Reg, shamt uint32) uint32 {
	if shamt > 63 {
		panic(fmt.Sprintf("shift amount out of range: %d", shamt))
	}
	return uint32(op) | shamt<<20 | reg(rs1)<<15 | reg(rd)<<7
}

func (op RegRegShamt5) RdRs1Shamt(rd, rs1 Reg, shamt uint32) uint32 {
	if shamt > 31 {
		panic(fmt.Sprintf("shift amount out of range: %d", shamt))
	}
	return uint32(op) | shamt<<20 | reg(rs1)<<15 | reg(rd)<<7
}

// Rs1Rs2I12 encodes a store of rs2 to imm(rs1).
func (op RegRegStore) Rs1Rs2I12(rs1, rs2 Reg, imm int32) uint32 {
	if !FitsImm12(int64(imm)) {
		panic(fmt.Sprintf("12-bit store offset out of range: %d", imm))
	}
	i := Int12(imm)
	return uint32(op) | (i>>5)<<25 | reg(rs2)<<20 | reg(rs1)<<15 | (i&0x1f)<<7
}

func (op RegRegDisp13) Rs1Rs2D13(rs1, rs2 Reg, disp int32) uint32 {
	if !FitsDisp13(int64(disp)) {
		panic(fmt.Sprintf("branch displacement out of range: %d", disp))
	}
	return uint32(op) | reg(rs2)<<20 | reg(rs1)<<15 | Disp13(disp)
}

// RdI20 takes the upper 20 bits of the immediate already shifted down.
func (op RegImm20) RdI20(rd Reg, imm int32) uint32 {
	return uint32(op) | (uint32(imm)&0xfffff)<<12 | reg(rd)<<7
}

func (op RegDisp21) RdD21(rd Reg, disp int32) uint32 {
	if !FitsDisp21(int64(disp)) {
		panic(fmt.Sprintf("jump displacement out of range: %d", disp))
	}
	return uint32(op) | reg(rd)<<7 | Disp21(disp)
}

func Int12(i int32) uint32 { return uint32(i) & 0xfff }

// Disp13 scatters a branch displacement into B-type immediate bits.
func Disp13(d int32) uint32 {
	u := uint32(d)
	return (u>>12&1)<<31 | (u>>5&0x3f)<<25 | (u>>1&0xf)<<8 | (u>>11&1)<<7
}

// Disp21 scatters a jump displacement into J-type immediate bits.
func Disp21(d int32) uint32 {
	u := uint32(d)
	return (u>>20&1)<<31 | (u>>1&0x3ff)<<21 | (u>>11&1)<<20 | (u>>12&0xff)<<12
}

// HiLo splits a 32-bit value for a lui/auipc + addi pair.  The low part is
// sign-extended by the second instruction, which the high part compensates
// for.
func HiLo(value int32) (hi, lo int32) {
	lo = value << 20 >> 20
	hi = int32(uint32(value-lo) >> 12)
	return
}
