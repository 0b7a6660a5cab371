// Copyright (c) 2024 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rv64

import (
	"testing"

	"gate.computer/rvjit/image"
	"gate.computer/rvjit/internal/errors"
	"gate.computer/rvjit/internal/isa/rv64/in"
	"gate.computer/rvjit/internal/test/asm"
	"gate.computer/rvjit/sbpf"
	"golang.org/x/xerrors"
)

// skipProgram branches over n copies of filler.
func skipProgram(n int, filler sbpf.Insn) *sbpf.Program {
	insns := []sbpf.Insn{asm.I(sbpf.JEQ_IMM, 1, 0, int16(n), 0)}
	for i := 0; i < n; i++ {
		insns = append(insns, filler)
	}
	insns = append(insns, asm.Exit())
	return asm.Program(sbpf.V0, insns...)
}

// insnWords returns the code of a bytecode instruction.
func insnWords(exe *Executable, pc int) []uint32 {
	start := exe.TextEntry(pc)
	end := exe.TextEntry(pc + 1)
	return textWords(exe.Text()[start:end])
}

func TestShortForwardBranch(t *testing.T) {
	opts := &Options{
		StackFrameSize: 4096,
		MaxCallDepth:   64,
		Seed:           1,
	}

	exe := compile(t, skipProgram(20, asm.Mov64(0, 1)), opts)

	var branches int
	for _, word := range insnWords(exe, 0) {
		switch word & 0x7f {
		case in.OpcodeBranch:
			branches++

		case in.OpcodeJAL, in.OpcodeAUIPC:
			t.Errorf("long jump form: 0x%08x", word)
		}
	}
	if branches != 1 {
		t.Errorf("%d branches", branches)
	}
}

func TestWidenedForwardBranch(t *testing.T) {
	// Each store is larger than typical code, so the first attempt does not
	// reach the target with a plain branch.
	const n = 60
	prog := skipProgram(n, asm.I(sbpf.ST_DW_IMM, 1, 0, 0x7a8, 0x12345678))

	table, err := NewTable(prog.Version)
	if err != nil {
		t.Fatal(err)
	}

	_, err = generate(prog, testRegistry(), fullOptions(), image.HeapPages, table, typicalInsnCodeSize)
	if !xerrors.Is(err, errors.ErrJumpOutOfRange) {
		t.Fatalf("typical sizes: %v", err)
	}

	exe := compile(t, prog, fullOptions())

	target := int32(exe.TextEntry(n + 1))
	start := int32(exe.TextEntry(0))
	found := false

	for i, word := range insnWords(exe, 0) {
		if word&0x7f == in.OpcodeJAL && start+int32(i*4)+in.ImmJ(word) == target {
			found = true
		}
	}
	if !found {
		t.Error("no jump to target")
	}
}
