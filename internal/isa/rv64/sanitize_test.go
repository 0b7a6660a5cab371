// Copyright (c) 2024 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rv64

import (
	"encoding/binary"
	"testing"

	"gate.computer/rvjit/internal/isa/rv64/in"
	"gate.computer/rvjit/internal/test/asm"
	"gate.computer/rvjit/sbpf"
)

const (
	plainImm    = 0x12345678
	plainOffset = 0x7ab
)

func textWords(text []byte) []uint32 {
	words := make([]uint32, len(text)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(text[i*4:])
	}
	return words
}

// plainEncodings counts instructions which carry plainImm or plainOffset as
// they are: lui of the upper part of the immediate, or the address of r1
// computed with the offset.
func plainEncodings(text []byte) (n int) {
	hi, _ := in.HiLo(plainImm)

	for _, word := range textWords(text) {
		f := in.Decode(word)

		switch f.Opcode {
		case in.OpcodeLUI:
			if in.ImmU(word)&0xfffff == hi {
				n++
			}

		case in.OpcodeOpImm:
			if f.Funct3 == 0 && f.Rs1 == regMap[1] && f.Imm == plainOffset {
				n++
			}
		}
	}
	return
}

func TestSanitizedMemoryOperands(t *testing.T) {
	for _, x := range []struct {
		name string
		insn sbpf.Insn
	}{
		{"store imm", asm.I(sbpf.ST_W_IMM, 1, 0, plainOffset, plainImm)},
		{"store reg", asm.I(sbpf.ST_DW_REG, 1, 2, plainOffset, 0)},
		{"load", asm.I(sbpf.LD_DW_REG, 0, 1, plainOffset, 0)},
	} {
		for _, translate := range []bool{false, true} {
			for seed := uint64(1); seed <= 4; seed++ {
				opts := &Options{
					SanitizeImmediates:       true,
					StackFrameSize:           4096,
					MaxCallDepth:             64,
					EnableAddressTranslation: translate,
					Seed:                     seed,
				}

				exe := compile(t, asm.Program(sbpf.V0, x.insn, asm.Exit()), opts)
				if n := plainEncodings(exe.Text()); n != 0 {
					t.Errorf("%s, translation %v, seed %d: %d plain encodings", x.name, translate, seed, n)
				}
			}
		}
	}
}

func TestUnsanitizedMemoryOperands(t *testing.T) {
	prog := asm.Program(sbpf.V0, asm.I(sbpf.ST_W_IMM, 1, 0, plainOffset, plainImm), asm.Exit())

	exe := compile(t, prog, &Options{
		StackFrameSize: 4096,
		MaxCallDepth:   64,
		Seed:           1,
	})

	// lui of the immediate, and addi of the offset.
	if n := plainEncodings(exe.Text()); n != 2 {
		t.Errorf("%d plain encodings", n)
	}
}
