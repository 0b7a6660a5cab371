// Copyright (c) 2024 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package in

// Fields of an encoded instruction word.  Which of them are meaningful
// depends on the format implied by Opcode.
type Fields struct {
	Opcode uint32
	Rd     Reg
	Rs1    Reg
	Rs2    Reg
	Funct3 uint32
	Funct7 uint32
	Imm    int32
}

// Format of an instruction word.
type Format int

const (
	FormatUnknown = Format(iota)
	FormatR
	FormatI
	FormatS
	FormatB
	FormatU
	FormatJ
)

func (f Format) String() string {
	switch f {
	case FormatR:
		return "R"
	case FormatI:
		return "I"
	case FormatS:
		return "S"
	case FormatB:
		return "B"
	case FormatU:
		return "U"
	case FormatJ:
		return "J"
	default:
		return "?"
	}
}

// FormatOf classifies an instruction word by its major opcode.
func FormatOf(word uint32) Format {
	switch word & 0x7f {
	case opOp, opOp32:
		return FormatR
	case opOpImm, opOpImm32, opLoad, opJALR, opSystem:
		return FormatI
	case opStore:
		return FormatS
	case opBranch:
		return FormatB
	case opLUI, opAUIPC:
		return FormatU
	case opJAL:
		return FormatJ
	default:
		return FormatUnknown
	}
}

// Decode extracts the fixed bit-fields of an instruction word.
func Decode(word uint32) (f Fields) {
	f.Opcode = word & 0x7f
	f.Rd = Reg(word >> 7 & 0x1f)
	f.Funct3 = word >> 12 & 7
	f.Rs1 = Reg(word >> 15 & 0x1f)
	f.Rs2 = Reg(word >> 20 & 0x1f)
	f.Funct7 = word >> 25

	switch FormatOf(word) {
	case FormatI:
		f.Imm = ImmI(word)
	case FormatS:
		f.Imm = ImmS(word)
	case FormatB:
		f.Imm = ImmB(word)
	case FormatU:
		f.Imm = ImmU(word)
	case FormatJ:
		f.Imm = ImmJ(word)
	}
	return
}

func ImmI(word uint32) int32 {
	return int32(word) >> 20
}

func ImmS(word uint32) int32 {
	return int32(word)>>25<<5 | int32(word>>7&0x1f)
}

func ImmB(word uint32) int32 {
	return int32(word)>>31<<12 | int32(word>>7&1)<<11 | int32(word>>25&0x3f)<<5 | int32(word>>8&0xf)<<1
}

// ImmU returns the upper immediate shifted down by 12 bits.
func ImmU(word uint32) int32 {
	return int32(word) >> 12
}

func ImmJ(word uint32) int32 {
	return int32(word)>>31<<20 | int32(word>>12&0xff)<<12 | int32(word>>20&1)<<11 | int32(word>>21&0x3ff)<<1
}

// Shamt of a 64-bit shift immediate instruction.
func Shamt(word uint32) uint32 {
	return word >> 20 & 0x3f
}
