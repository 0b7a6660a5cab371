// Copyright (c) 2024 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rv64

import (
	"testing"

	"gate.computer/rvjit/abi"
	"gate.computer/rvjit/image"
	"gate.computer/rvjit/internal/errors"
	"gate.computer/rvjit/internal/test/asm"
	"gate.computer/rvjit/sbpf"
	"golang.org/x/xerrors"
)

var versions = []struct {
	name string
	v    sbpf.Version
}{
	{"v0", sbpf.V0},
	{"v1", sbpf.V1},
	{"v2", sbpf.V2},
	{"v3", sbpf.V3},
}

const testKey = 0x12345678

func fullOptions() *Options {
	return &Options{
		EnableInstructionMeter:   true,
		CheckpointDistance:       1,
		SanitizeImmediates:       true,
		EnableTracing:            true,
		NoopRate:                 1,
		StackFrameSize:           4096,
		EnableStackFrameGaps:     true,
		MaxCallDepth:             64,
		EnableAddressTranslation: true,
		Seed:                     1,
	}
}

func testRegistry() *abi.Functions {
	fs := new(abi.Functions)
	fs.RegisterSyscall(testKey, abi.Syscall{Addr: 0x7fff12345000, Cookie: testKey})
	return fs
}

func compile(t *testing.T, prog *sbpf.Program, opts *Options) *Executable {
	t.Helper()

	exe, err := Compile(prog, testRegistry(), opts, image.HeapPages)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { exe.Close() })
	return exe
}

func TestTables(t *testing.T) {
	for _, x := range versions {
		if _, err := NewTable(x.v); err != nil {
			t.Errorf("%s: %v", x.name, err)
		}
	}

	for _, v := range []sbpf.Version{
		sbpf.V0.With(sbpf.MoveMemoryClasses),
		sbpf.V2.With(sbpf.EnableJmp32),
	} {
		if _, err := NewTable(v); !xerrors.Is(err, ErrConflictingRules) {
			t.Errorf("%v: %v", v, err)
		}
	}
}

func TestTableContents(t *testing.T) {
	v0, _ := NewTable(sbpf.V0)
	v2, _ := NewTable(sbpf.V2)
	v3, _ := NewTable(sbpf.V3)

	for _, x := range []struct {
		table  *Table
		opcode uint8
		has    bool
	}{
		{v0, sbpf.LD_DW_IMM, true},
		{v0, sbpf.NEG64, true},
		{v0, sbpf.MUL64_IMM, true},
		{v0, sbpf.UHMUL64_IMM, false},
		{v0, sbpf.JGE32_IMM, false},
		{v0, sbpf.HOR64_IMM, false},
		{v2, sbpf.LD_DW_IMM, false},
		{v2, sbpf.NEG64, false},
		{v2, sbpf.UHMUL64_IMM, true},
		{v2, sbpf.ST_4B_IMM, true},
		{v2, sbpf.HOR64_IMM, true},
		{v3, sbpf.UHMUL64_IMM, false},
		{v3, sbpf.JGE32_IMM, true},
	} {
		if x.table.Has(x.opcode) != x.has {
			t.Errorf("opcode 0x%02x: has=%v", x.opcode, !x.has)
		}
	}
}

func TestKnown(t *testing.T) {
	for _, opcode := range []uint8{sbpf.EXIT, sbpf.LD_DW_IMM, sbpf.UHMUL64_IMM, sbpf.JGE32_IMM, sbpf.ST_4B_IMM} {
		if !Known(opcode) {
			t.Errorf("opcode 0x%02x is unknown", opcode)
		}
	}

	for _, opcode := range []uint8{0x00, 0xff} {
		if Known(opcode) {
			t.Errorf("opcode 0x%02x is known", opcode)
		}
	}
}

// testInsn returns an instruction which compiles for a given opcode.
func testInsn(opcode uint8) sbpf.Insn {
	insn := asm.I(opcode, 1, 2, 0, testKey)

	switch opcode {
	case sbpf.LE, sbpf.BE:
		insn.Imm = 32

	case sbpf.CALL_REG:
		insn.Imm = 2
	}
	return insn
}

func TestInsnCodeSize(t *testing.T) {
	for _, x := range versions {
		table, _ := NewTable(x.v)

		for opcode := 0; opcode < 256; opcode++ {
			if !table.Has(uint8(opcode)) {
				continue
			}

			prog := asm.Program(x.v, testInsn(uint8(opcode)), asm.Exit())
			exe := compile(t, prog, fullOptions())

			last := exe.NumInsns() - 1
			size := int(exe.TextEntry(last)) - int(exe.TextEntry(0))
			if size <= 0 || size >= MaxInsnCodeSize {
				t.Errorf("%s: opcode 0x%02x: code size %d", x.name, opcode, size)
			}

			if start := int(exe.TextEntry(0)); start >= MaxStartPadding+MaxAnchorsCodeSize {
				t.Errorf("%s: opcode 0x%02x: code starts at %d", x.name, opcode, start)
			}

			if tail := len(exe.Text()) - int(exe.TextEntry(last)); tail >= MaxInsnCodeSize {
				t.Errorf("%s: opcode 0x%02x: tail size %d", x.name, opcode, tail)
			}
		}
	}
}

func TestAnchors(t *testing.T) {
	exe := compile(t, asm.Program(sbpf.V0, asm.Exit()), fullOptions())

	for a := Anchor(0); a < NumAnchors; a++ {
		if addr := exe.Anchors[a]; addr < 0 || int(addr) >= len(exe.Text()) {
			t.Errorf("%v: address %d", a, addr)
		}
	}
	if exe.EntryAddr() != exe.Anchors[AnchorEntry] {
		t.Error("entry address")
	}

	opts := fullOptions()
	opts.EnableTracing = false
	opts.EnableAddressTranslation = false
	exe = compile(t, asm.Program(sbpf.V0, asm.Exit()), opts)

	if exe.Anchors[AnchorTrace] != -1 {
		t.Error("trace routine emitted")
	}
	if exe.Anchors[AnchorTranslateMemoryAddress] != -1 {
		t.Error("translation routine emitted")
	}
}

func TestAnchorString(t *testing.T) {
	for _, x := range []struct {
		a Anchor
		s string
	}{
		{AnchorExit, "exit"},
		{AnchorTranslateMemoryAddress, "translate memory address load 1"},
		{translateAnchor(accessStoreImm, 3), "translate memory address store imm 8"},
		{NumAnchors, "anchor 28"},
	} {
		if s := x.a.String(); s != x.s {
			t.Errorf("%d: %q", int(x.a), s)
		}
	}
}

func TestDiversification(t *testing.T) {
	prog := asm.Program(sbpf.V0, asm.Mov64(0, 0x1234567), asm.Exit())

	a := compile(t, prog, fullOptions())
	b := compile(t, prog, fullOptions())
	if string(a.Text()) != string(b.Text()) {
		t.Error("same seed produced different code")
	}

	opts := fullOptions()
	opts.Seed = 2
	c := compile(t, prog, opts)
	if string(a.Text()) == string(c.Text()) {
		t.Error("different seeds produced same code")
	}
}

func TestLookupTable(t *testing.T) {
	prog := asm.Program(sbpf.V0,
		asm.LDDW(1, 0x123456789),
		asm.Exit(),
	)
	exe := compile(t, prog, fullOptions())

	if exe.TextEntry(0)&image.UnsupportedBit != 0 {
		t.Error("first slot is unsupported")
	}
	if exe.TextEntry(1)&image.UnsupportedBit == 0 {
		t.Error("second slot of lddw is supported")
	}
	if exe.TextEntry(1)&^image.UnsupportedBit != uint32(exe.Anchors[AnchorCallUnsupported]) {
		t.Error("second slot of lddw does not point to the unsupported routine")
	}
	if exe.TextEntry(2)&image.UnsupportedBit != 0 {
		t.Error("third slot is unsupported")
	}
}

func TestCompileErrors(t *testing.T) {
	lddw := asm.Assemble(asm.LDDW(1, 1))

	for _, x := range []struct {
		name  string
		prog  *sbpf.Program
		cause error
		pc    int
	}{
		{
			name:  "register",
			prog:  asm.Program(sbpf.V0, asm.Exit(), asm.Mov64(11, 0)),
			cause: errors.ErrInvalidInstruction,
			pc:    1,
		},
		{
			name:  "opcode",
			prog:  asm.Program(sbpf.V0, asm.Exit(), asm.Exit(), asm.I(0xff, 0, 0, 0, 0)),
			cause: errors.ErrUnsupportedInstruction,
			pc:    2,
		},
		{
			name:  "truncated lddw",
			prog:  &sbpf.Program{Text: lddw[:sbpf.InsnSize]},
			cause: errors.ErrInvalidInstruction,
		},
		{
			name:  "byte swap width",
			prog:  asm.Program(sbpf.V0, asm.I(sbpf.BE, 0, 0, 0, 8), asm.Exit()),
			cause: errors.ErrInvalidInstruction,
		},
		{
			name:  "call register",
			prog:  asm.Program(sbpf.V0, asm.I(sbpf.CALL_REG, 0, 0, 0, 11), asm.Exit()),
			cause: errors.ErrInvalidInstruction,
		},
	} {
		t.Run(x.name, func(t *testing.T) {
			_, err := Compile(x.prog, testRegistry(), fullOptions(), image.HeapPages)
			if !xerrors.Is(err, x.cause) {
				t.Fatalf("error: %v", err)
			}

			var e *errors.ProgramError
			if !xerrors.As(err, &e) {
				t.Fatalf("error type: %T", err)
			}
			if e.PC != x.pc {
				t.Errorf("pc: %d", e.PC)
			}
		})
	}
}

func TestUnsupportedOpcode(t *testing.T) {
	// Valid in a later version.
	prog := asm.Program(sbpf.V0, asm.I(sbpf.UHMUL64_IMM, 0, 0, 0, 1), asm.Exit())
	exe := compile(t, prog, fullOptions())

	if exe.TextEntry(0)&image.UnsupportedBit != 0 {
		t.Error("unsupported instruction is marked in lookup table")
	}
}

func TestExhaustedTextSegment(t *testing.T) {
	insns := make([]sbpf.Insn, 2000)
	for i := range insns {
		insns[i] = asm.Mov64(0, 1)
	}
	prog := asm.Program(sbpf.V0, insns...)

	opts := fullOptions()
	opts.TextSize = MaxStartPadding + MaxAnchorsCodeSize + 2*MaxInsnCodeSize

	_, err := Compile(prog, testRegistry(), opts, image.HeapPages)
	if !xerrors.Is(err, errors.ErrExhaustedTextSegment) {
		t.Fatalf("error: %v", err)
	}
}

const guardSize = 4096

// guardPages maps memory followed by a sentinel area.
type guardPages struct {
	mems [][]byte
}

func (g *guardPages) PageSize() int { return 4096 }

func (g *guardPages) Map(size int) ([]byte, error) {
	mem := make([]byte, size+guardSize)
	for i := size; i < len(mem); i++ {
		mem[i] = 0xa5
	}
	g.mems = append(g.mems, mem)
	return mem[:size:size], nil
}

func (g *guardPages) Unmap([]byte) error               { return nil }
func (g *guardPages) Protect([]byte, image.Prot) error { return nil }

func (g *guardPages) intact() bool {
	for _, mem := range g.mems {
		for _, b := range mem[len(mem)-guardSize:] {
			if b != 0xa5 {
				return false
			}
		}
	}
	return true
}

func TestExhaustedTextSegmentGuard(t *testing.T) {
	insns := make([]sbpf.Insn, 500)
	for i := range insns {
		insns[i] = asm.LDDW(uint8(i%10), int64(i)<<40|0x12345678)
	}
	prog := asm.Program(sbpf.V0, insns...)

	for _, size := range []int{0x2000, 0x3000, 0x5000} {
		g := new(guardPages)

		opts := fullOptions()
		opts.TextSize = size

		_, err := Compile(prog, testRegistry(), opts, g)
		if !xerrors.Is(err, errors.ErrExhaustedTextSegment) {
			t.Errorf("text size 0x%x: %v", size, err)
		}
		if !g.intact() {
			t.Errorf("text size 0x%x: sentinel overwritten", size)
		}
	}
}

func TestEstimateTextSize(t *testing.T) {
	if n := EstimateTextSize(0); n != MaxAnchorsCodeSize+MaxStartPadding {
		t.Error(n)
	}
	if n := EstimateTextSize(10) - EstimateTextSize(9); n != MaxInsnCodeSize {
		t.Error(n)
	}
}
