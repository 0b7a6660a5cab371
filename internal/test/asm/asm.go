// Copyright (c) 2024 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package asm builds bytecode for tests.
package asm

import (
	"encoding/binary"

	"gate.computer/rvjit/sbpf"
)

// I constructs an instruction.
func I(opc, dst, src uint8, off int16, imm int64) sbpf.Insn {
	return sbpf.Insn{Opc: opc, Dst: dst, Src: src, Off: off, Imm: imm}
}

func Exit() sbpf.Insn {
	return I(sbpf.EXIT, 0, 0, 0, 0)
}

func Mov64(dst uint8, imm int64) sbpf.Insn {
	return I(sbpf.MOV64_IMM, dst, 0, 0, imm)
}

// LDDW occupies two instruction slots.
func LDDW(dst uint8, imm int64) sbpf.Insn {
	return I(sbpf.LD_DW_IMM, dst, 0, 0, imm)
}

// Assemble instruction slots.
func Assemble(insns ...sbpf.Insn) []byte {
	var text []byte
	for _, insn := range insns {
		slot := make([]byte, sbpf.InsnSize)
		insn.Encode(slot)
		text = append(text, slot...)

		if insn.Opc == sbpf.LD_DW_IMM {
			slot = make([]byte, sbpf.InsnSize)
			binary.LittleEndian.PutUint32(slot[4:], uint32(uint64(insn.Imm)>>32))
			text = append(text, slot...)
		}
	}
	return text
}

// Program of a given version.
func Program(v sbpf.Version, insns ...sbpf.Insn) *sbpf.Program {
	return &sbpf.Program{
		Text:    Assemble(insns...),
		Version: v,
	}
}
