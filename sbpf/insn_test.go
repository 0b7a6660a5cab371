// Copyright (c) 2024 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sbpf_test

import (
	"testing"

	"gate.computer/rvjit/internal/test/asm"
	. "gate.computer/rvjit/sbpf"
	"github.com/google/go-cmp/cmp"
)

func TestDecodeInsn(t *testing.T) {
	text := asm.Assemble(
		asm.I(ADD64_REG, 3, 9, -2, -1),
		asm.LDDW(4, -0x123456789),
		asm.Exit(),
	)

	if n := len(text) / InsnSize; n != 4 {
		t.Fatalf("%d slots", n)
	}

	for _, x := range []struct {
		pc   int
		insn Insn
	}{
		{0, Insn{PC: 0, Opc: ADD64_REG, Dst: 3, Src: 9, Off: -2, Imm: -1}},
		{1, Insn{PC: 1, Opc: LD_DW_IMM, Dst: 4, Imm: -0x123456789}},
		{3, Insn{PC: 3, Opc: EXIT}},
	} {
		if diff := cmp.Diff(x.insn, DecodeInsn(text, x.pc)); diff != "" {
			t.Errorf("pc %d (-want +got):\n%s", x.pc, diff)
		}
	}
}

func TestDecodeTruncatedLDDW(t *testing.T) {
	text := asm.Assemble(asm.LDDW(1, 0x100000002))[:InsnSize]

	if insn := DecodeInsn(text, 0); insn.Imm != 2 {
		t.Errorf("imm 0x%x", insn.Imm)
	}
}

func TestRegisterFields(t *testing.T) {
	b := make([]byte, InsnSize)
	asm.I(MOV64_REG, 15, 15, 0, 0).Encode(b)

	if b[1] != 0xff {
		t.Errorf("register byte 0x%02x", b[1])
	}
	if insn := DecodeInsn(b, 0); insn.Dst != 15 || insn.Src != 15 {
		t.Error(insn)
	}
}

func TestProgram(t *testing.T) {
	p := &Program{Text: make([]byte, 3*InsnSize)}

	if p.NumInsns() != 3 {
		t.Error(p.NumInsns())
	}
	if p.TextVMAddr() != ProgramStartAddr {
		t.Errorf("0x%x", p.TextVMAddr())
	}

	p.VMAddr = ProgramStartAddr + 0x120
	if p.TextVMAddr() != ProgramStartAddr+0x120 {
		t.Errorf("0x%x", p.TextVMAddr())
	}
}

func TestVersion(t *testing.T) {
	if V0.String() != "v0" {
		t.Error(V0.String())
	}
	if s := V1.String(); s != "manual-stack-frame-bump,callx-uses-dst-reg" {
		t.Error(s)
	}

	if !V3.Has(StaticSyscalls | EnableJmp32) {
		t.Error("v3 features")
	}
	if V2.Has(StaticSyscalls | EnablePQR) {
		t.Error("partial feature set matched")
	}
	if v := V2.Without(EnablePQR).With(EnableJmp32); v.Has(EnablePQR) || !v.Has(EnableJmp32) {
		t.Error(v)
	}
}
