// Copyright (c) 2024 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rvemu

import (
	"math"
	"math/bits"

	"gate.computer/rvjit/internal/isa/rv64/in"
)

func (cpu *CPU) illegal(word uint32) error {
	return &Fault{PC: cpu.PC, Addr: uint64(word), Reason: "illegal instruction"}
}

func (cpu *CPU) execute(word uint32) error {
	f := in.Decode(word)
	x := &cpu.X
	rs1 := x[f.Rs1]
	rs2 := x[f.Rs2]
	imm := int64(f.Imm)
	next := cpu.PC + 4

	switch f.Opcode {
	case in.OpcodeLoad:
		size := 1 << (f.Funct3 & 3)
		if f.Funct3 == 7 {
			return cpu.illegal(word)
		}
		addr := rs1 + uint64(imm)
		v, err := cpu.Load(addr, size)
		if err != nil {
			return err
		}
		if f.Funct3&4 == 0 {
			v = signExtend(v, uint(size*8))
		}
		x[f.Rd] = v

	case in.OpcodeStore:
		if f.Funct3 > 3 {
			return cpu.illegal(word)
		}
		if err := cpu.Store(rs1+uint64(imm), 1<<f.Funct3, rs2); err != nil {
			return err
		}

	case in.OpcodeBranch:
		var taken bool

		switch f.Funct3 {
		case 0:
			taken = rs1 == rs2
		case 1:
			taken = rs1 != rs2
		case 4:
			taken = int64(rs1) < int64(rs2)
		case 5:
			taken = int64(rs1) >= int64(rs2)
		case 6:
			taken = rs1 < rs2
		case 7:
			taken = rs1 >= rs2
		default:
			return cpu.illegal(word)
		}
		if taken {
			next = cpu.PC + uint64(imm)
		}

	case in.OpcodeOpImm:
		var v uint64

		switch f.Funct3 {
		case 0:
			v = rs1 + uint64(imm)
		case 1:
			if word>>26 != 0 {
				return cpu.illegal(word)
			}
			v = rs1 << in.Shamt(word)
		case 2:
			v = boolValue(int64(rs1) < imm)
		case 3:
			v = boolValue(rs1 < uint64(imm))
		case 4:
			v = rs1 ^ uint64(imm)
		case 5:
			switch word >> 26 {
			case 0x00:
				v = rs1 >> in.Shamt(word)
			case 0x10:
				v = uint64(int64(rs1) >> in.Shamt(word))
			default:
				return cpu.illegal(word)
			}
		case 6:
			v = rs1 | uint64(imm)
		case 7:
			v = rs1 & uint64(imm)
		}
		x[f.Rd] = v

	case in.OpcodeOpImm32:
		var v uint32
		shamt := word >> 20 & 0x1f

		switch f.Funct3 {
		case 0:
			v = uint32(rs1) + uint32(imm)
		case 1:
			if f.Funct7 != 0 {
				return cpu.illegal(word)
			}
			v = uint32(rs1) << shamt
		case 5:
			switch f.Funct7 {
			case 0x00:
				v = uint32(rs1) >> shamt
			case 0x20:
				v = uint32(int32(rs1) >> shamt)
			default:
				return cpu.illegal(word)
			}
		default:
			return cpu.illegal(word)
		}
		x[f.Rd] = uint64(int64(int32(v)))

	case in.OpcodeOp:
		v, ok := op64(f.Funct7, f.Funct3, rs1, rs2)
		if !ok {
			return cpu.illegal(word)
		}
		x[f.Rd] = v

	case in.OpcodeOp32:
		v, ok := op32(f.Funct7, f.Funct3, uint32(rs1), uint32(rs2))
		if !ok {
			return cpu.illegal(word)
		}
		x[f.Rd] = uint64(int64(int32(v)))

	case in.OpcodeLUI:
		x[f.Rd] = uint64(imm << 12)

	case in.OpcodeAUIPC:
		x[f.Rd] = cpu.PC + uint64(imm<<12)

	case in.OpcodeJAL:
		x[f.Rd] = next
		next = cpu.PC + uint64(imm)

	case in.OpcodeJALR:
		if f.Funct3 != 0 {
			return cpu.illegal(word)
		}
		x[f.Rd] = next
		next = (rs1 + uint64(imm)) &^ 1

	case in.OpcodeSystem:
		if word == in.EBREAK {
			return &Fault{PC: cpu.PC, Reason: "breakpoint"}
		}
		return cpu.illegal(word)

	default:
		return cpu.illegal(word)
	}

	cpu.PC = next
	return nil
}

func op64(funct7, funct3 uint32, a, b uint64) (v uint64, ok bool) {
	ok = true

	switch funct7<<3 | funct3 {
	case 0x00<<3 | 0:
		v = a + b
	case 0x20<<3 | 0:
		v = a - b
	case 0x00<<3 | 1:
		v = a << (b & 63)
	case 0x00<<3 | 2:
		v = boolValue(int64(a) < int64(b))
	case 0x00<<3 | 3:
		v = boolValue(a < b)
	case 0x00<<3 | 4:
		v = a ^ b
	case 0x00<<3 | 5:
		v = a >> (b & 63)
	case 0x20<<3 | 5:
		v = uint64(int64(a) >> (b & 63))
	case 0x00<<3 | 6:
		v = a | b
	case 0x00<<3 | 7:
		v = a & b

	case 0x01<<3 | 0:
		v = a * b
	case 0x01<<3 | 1:
		v = mulh(a, b)
	case 0x01<<3 | 2:
		v = mulhsu(a, b)
	case 0x01<<3 | 3:
		v, _ = bits.Mul64(a, b)
	case 0x01<<3 | 4:
		switch {
		case b == 0:
			v = math.MaxUint64
		case int64(a) == math.MinInt64 && int64(b) == -1:
			v = a
		default:
			v = uint64(int64(a) / int64(b))
		}
	case 0x01<<3 | 5:
		if b == 0 {
			v = math.MaxUint64
		} else {
			v = a / b
		}
	case 0x01<<3 | 6:
		switch {
		case b == 0:
			v = a
		case int64(a) == math.MinInt64 && int64(b) == -1:
			v = 0
		default:
			v = uint64(int64(a) % int64(b))
		}
	case 0x01<<3 | 7:
		if b == 0 {
			v = a
		} else {
			v = a % b
		}

	default:
		ok = false
	}
	return
}

func op32(funct7, funct3 uint32, a, b uint32) (v uint32, ok bool) {
	ok = true

	switch funct7<<3 | funct3 {
	case 0x00<<3 | 0:
		v = a + b
	case 0x20<<3 | 0:
		v = a - b
	case 0x00<<3 | 1:
		v = a << (b & 31)
	case 0x00<<3 | 5:
		v = a >> (b & 31)
	case 0x20<<3 | 5:
		v = uint32(int32(a) >> (b & 31))

	case 0x01<<3 | 0:
		v = a * b
	case 0x01<<3 | 4:
		switch {
		case b == 0:
			v = math.MaxUint32
		case int32(a) == math.MinInt32 && int32(b) == -1:
			v = a
		default:
			v = uint32(int32(a) / int32(b))
		}
	case 0x01<<3 | 5:
		if b == 0 {
			v = math.MaxUint32
		} else {
			v = a / b
		}
	case 0x01<<3 | 6:
		switch {
		case b == 0:
			v = a
		case int32(a) == math.MinInt32 && int32(b) == -1:
			v = 0
		default:
			v = uint32(int32(a) % int32(b))
		}
	case 0x01<<3 | 7:
		if b == 0 {
			v = a
		} else {
			v = a % b
		}

	default:
		ok = false
	}
	return
}

func mulh(a, b uint64) uint64 {
	hi, _ := bits.Mul64(a, b)
	if int64(a) < 0 {
		hi -= b
	}
	if int64(b) < 0 {
		hi -= a
	}
	return hi
}

func mulhsu(a, b uint64) uint64 {
	hi, _ := bits.Mul64(a, b)
	if int64(a) < 0 {
		hi -= b
	}
	return hi
}

func signExtend(v uint64, width uint) uint64 {
	shift := 64 - width
	return uint64(int64(v<<shift) >> shift)
}

func boolValue(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
