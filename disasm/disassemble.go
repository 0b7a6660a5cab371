// Copyright (c) 2016 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package disasm prints RISC-V machine code generated by the compiler.
package disasm

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"gate.computer/rvjit"
	"gate.computer/rvjit/image"
	"golang.org/x/arch/riscv64/riscv64asm"
)

// Insn is a decoded instruction word.
type Insn struct {
	Address  uint32
	Word     uint32
	Op       riscv64asm.Op // Zero if the word could not be decoded.
	Mnemonic string
	OpStr    string
	Target   int64 // Destination of a pc-relative branch or jump, or -1.
}

// Decode instruction words.  Trailing bytes which do not make up a full
// word are ignored.
func Decode(text []byte) (insns []Insn) {
	for addr := 0; addr+4 <= len(text); addr += 4 {
		insns = append(insns, decode(uint32(addr), text[addr:addr+4]))
	}
	return
}

func decode(addr uint32, b []byte) Insn {
	insn := Insn{
		Address: addr,
		Word:    binary.LittleEndian.Uint32(b),
		Target:  -1,
	}

	inst, err := riscv64asm.Decode(b)
	if err != nil || inst.Len != 4 {
		insn.Mnemonic = ".word"
		insn.OpStr = fmt.Sprintf("0x%08x", insn.Word)
		return insn
	}

	insn.Op = inst.Op
	insn.Mnemonic, insn.OpStr, _ = strings.Cut(riscv64asm.GNUSyntax(inst), " ")

	switch inst.Op {
	case riscv64asm.BEQ, riscv64asm.BNE, riscv64asm.BLT, riscv64asm.BGE, riscv64asm.BLTU, riscv64asm.BGEU, riscv64asm.JAL:
		for _, arg := range inst.Args {
			if disp, ok := arg.(riscv64asm.Simm); ok {
				insn.Target = int64(addr) + int64(disp.Imm)
			}
		}
	}

	return insn
}

// Fprint disassembles text.  Shared routines are labeled according to
// symbols, and the code of bytecode instructions according to the lookup
// table offsets.
func Fprint(w io.Writer, text []byte, symbols []rvjit.Symbol, offsets []uint32) (err error) {
	insns := Decode(text)

	targets := make(map[uint32]string)

	for _, sym := range symbols {
		targets[uint32(sym.Offset)] = strings.Replace(sym.Name, " ", "_", -1)
	}

	for pc, offset := range offsets {
		if offset&image.UnsupportedBit != 0 {
			continue
		}
		if _, found := targets[offset]; !found {
			targets[offset] = fmt.Sprintf("pc_%d", pc)
		}
	}

	sequence := 0

	for i := range insns {
		insn := insns[i]
		if insn.Target < 0 || insn.Target >= int64(len(text)) {
			continue
		}

		addr := uint32(insn.Target)

		name, found := targets[addr]
		if !found {
			name = fmt.Sprintf(".L%d", sequence)
			sequence++

			targets[addr] = name
		}

		// The displacement is the last operand.
		if n := strings.LastIndexByte(insn.OpStr, ','); n >= 0 {
			insns[i].OpStr = insn.OpStr[:n+1] + name
		} else {
			insns[i].OpStr = name
		}
	}

	skip := false

	for _, insn := range insns {
		name, found := targets[insn.Address]
		if found {
			if !strings.HasPrefix(name, ".") {
				if _, err = fmt.Fprintln(w); err != nil {
					return
				}
			}
			if _, err = fmt.Fprintf(w, "%s:\n", name); err != nil {
				return
			}
			skip = false
		}

		if insn.Op == riscv64asm.EBREAK {
			if skip {
				continue
			}
			skip = true
		} else {
			skip = false
		}

		if insn.OpStr == "" {
			_, err = fmt.Fprintf(w, "\t%s\n", insn.Mnemonic)
		} else {
			_, err = fmt.Fprintf(w, "\t%s\t%s\n", insn.Mnemonic, insn.OpStr)
		}
		if err != nil {
			return
		}
	}

	_, err = fmt.Fprintln(w)
	return
}

// FprintProgram disassembles a compiled program.
func FprintProgram(w io.Writer, p *rvjit.Program) error {
	return Fprint(w, p.Text(), p.Anchors(), p.TextOffsets())
}
