// Copyright (c) 2024 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package in

import (
	"testing"
)

func TestKnownEncodings(t *testing.T) {
	for _, x := range []struct {
		name string
		word uint32
		want uint32
	}{
		{"addi a0, a0, 7", ADDI.RdRs1I12(A0, A0, 7), 0x00750513},
		{"add a0, a1, a2", ADD.RdRs1Rs2(A0, A1, A2), 0x00c58533},
		{"jal ra, 8", JAL.RdD21(RA, 8), 0x008000ef},
		{"beq a0, zero, 16", BEQ.Rs1Rs2D13(A0, Zero, 16), 0x00050863},
		{"lui t0, 0x12345", LUI.RdI20(T0, 0x12345), 0x123452b7},
		{"sd ra, 8(sp)", SD.Rs1Rs2I12(SP, RA, 8), 0x00113423},
		{"ld ra, 8(sp)", LD.RdRs1I12(RA, SP, 8), 0x00813083},
		{"srai a0, a0, 63", SRAI.RdRs1Shamt(A0, A0, 63), 0x43f55513},
		{"ret", RET, 0x00008067},
		{"nop", NOP, 0x00000013},
		{"ebreak", EBREAK, 0x00100073},
	} {
		if x.word != x.want {
			t.Errorf("%s: 0x%08x != 0x%08x", x.name, x.word, x.want)
		}
	}
}

var testImm12 = []int32{MinImm12, -1000, -1, 0, 1, 31, 32, 0x7f0, MaxImm12}
var testDisp13 = []int32{MinDisp13, -2048, -2, 0, 2, 2046, 2048, MaxDisp13}
var testDisp21 = []int32{MinDisp21, -4096, -2, 0, 2, 4094, 4096, MaxDisp21}
var testRegs = []Reg{Zero, RA, SP, T0, S1, A0, A7, S10, T6}

func TestRoundTripR(t *testing.T) {
	for _, op := range []RegRegReg{ADD, SUB, SRA, MULHSU, DIVUW, REMW} {
		for _, rd := range testRegs {
			for _, rs := range testRegs {
				f := Decode(op.RdRs1Rs2(rd, rs, rd^rs))
				if f.Rd != rd || f.Rs1 != rs || f.Rs2 != rd^rs {
					t.Errorf("%#x %v %v: %+v", uint32(op), rd, rs, f)
				}
				if f.Opcode|f.Funct3<<12|f.Funct7<<25 != uint32(op) {
					t.Errorf("%#x: opcode fields %+v", uint32(op), f)
				}
			}
		}
	}
}

func TestRoundTripI(t *testing.T) {
	for _, op := range []RegRegImm12{ADDI, ANDI, ADDIW, LD, LWU, JALR} {
		for _, rd := range testRegs {
			for _, imm := range testImm12 {
				f := Decode(op.RdRs1I12(rd, SP, imm))
				if f.Rd != rd || f.Rs1 != SP || f.Imm != imm {
					t.Errorf("%#x %v %d: %+v", uint32(op), rd, imm, f)
				}
				if f.Opcode|f.Funct3<<12 != uint32(op) {
					t.Errorf("%#x: opcode fields %+v", uint32(op), f)
				}
			}
		}
	}

	for shamt := uint32(0); shamt < 64; shamt++ {
		if n := Shamt(SRLI.RdRs1Shamt(T0, T1, shamt)); n != shamt {
			t.Errorf("srli shamt %d: %d", shamt, n)
		}
		if shamt < 32 {
			if n := Shamt(SRAIW.RdRs1Shamt(T0, T1, shamt)) & 0x1f; n != shamt {
				t.Errorf("sraiw shamt %d: %d", shamt, n)
			}
		}
	}
}

func TestRoundTripS(t *testing.T) {
	for _, op := range []RegRegStore{SB, SH, SW, SD} {
		for _, rs := range testRegs {
			for _, imm := range testImm12 {
				f := Decode(op.Rs1Rs2I12(SP, rs, imm))
				if f.Rs1 != SP || f.Rs2 != rs || f.Imm != imm {
					t.Errorf("%#x %v %d: %+v", uint32(op), rs, imm, f)
				}
			}
		}
	}
}

func TestRoundTripB(t *testing.T) {
	for _, op := range []RegRegDisp13{BEQ, BNE, BLT, BGE, BLTU, BGEU} {
		for _, disp := range testDisp13 {
			word := op.Rs1Rs2D13(A0, T6, disp)
			if FormatOf(word) != FormatB {
				t.Fatalf("format: %v", FormatOf(word))
			}
			f := Decode(word)
			if f.Rs1 != A0 || f.Rs2 != T6 || f.Imm != disp {
				t.Errorf("%#x %d: %+v", uint32(op), disp, f)
			}
		}
	}
}

func TestRoundTripU(t *testing.T) {
	for _, imm := range []int32{0, 1, 0x7ffff, -0x80000, -1} {
		for _, op := range []RegImm20{LUI, AUIPC} {
			f := Decode(op.RdI20(S6, imm))
			if f.Rd != S6 || f.Imm != imm {
				t.Errorf("%#x %d: %+v", uint32(op), imm, f)
			}
		}
	}
}

func TestRoundTripJ(t *testing.T) {
	for _, disp := range testDisp21 {
		word := JAL.RdD21(RA, disp)
		if FormatOf(word) != FormatJ {
			t.Fatalf("format: %v", FormatOf(word))
		}
		if f := Decode(word); f.Rd != RA || f.Imm != disp {
			t.Errorf("jal %d: %+v", disp, f)
		}
	}
}

func TestHiLo(t *testing.T) {
	for _, v := range []int32{0, 1, -1, 0x7ff, 0x800, 0xfff, 0x12345678, -0x12345678, 0x7ffff800, 0x7fffffff, -0x80000000} {
		hi, lo := HiLo(v)
		// lui sign-extends hi<<12; addiw wraps to 32 bits.
		got := int32(uint32(hi)<<12) + lo
		if got != v {
			t.Errorf("0x%x: hi=0x%x lo=%d -> 0x%x", v, hi, lo, got)
		}
		if !FitsImm12(int64(lo)) {
			t.Errorf("0x%x: low part %d", v, lo)
		}
	}
}

func TestOutOfRangePanics(t *testing.T) {
	for _, f := range []func(){
		func() { ADDI.RdRs1I12(A0, A0, 2048) },
		func() { BEQ.Rs1Rs2D13(A0, A0, 4096) },
		func() { BEQ.Rs1Rs2D13(A0, A0, 3) },
		func() { JAL.RdD21(Zero, 1<<20) },
		func() { SLLI.RdRs1Shamt(A0, A0, 64) },
	} {
		func() {
			defer func() {
				if recover() == nil {
					t.Error("no panic")
				}
			}()
			f()
		}()
	}
}
