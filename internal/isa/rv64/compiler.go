// Copyright (c) 2024 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rv64 translates bytecode into RISC-V RV64IM machine code.
package rv64

import (
	"gate.computer/rvjit/abi"
	"gate.computer/rvjit/buffer"
	"gate.computer/rvjit/image"
	"gate.computer/rvjit/internal/code"
	"gate.computer/rvjit/internal/debug"
	"gate.computer/rvjit/internal/errors"
	"gate.computer/rvjit/internal/links"
	"gate.computer/rvjit/internal/pan"
	"gate.computer/rvjit/sbpf"
	"gate.computer/rvjit/trap"
	"golang.org/x/xerrors"
	"gonum.org/v1/gonum/mathext/prng"
)

// Code size limits in bytes.
const (
	MaxInsnCodeSize    = 1024 // Any single bytecode instruction.
	MaxAnchorsCodeSize = 4096 // Shared routines and the bumper.
	MaxStartPadding    = 256

	// Forward jumps are first sized for this much code per instruction.
	typicalInsnCodeSize = 64
)

// Options for code generation.
type Options struct {
	EnableInstructionMeter   bool
	CheckpointDistance       int // Instructions between meter validations.
	SanitizeImmediates       bool
	EnableTracing            bool
	NoopRate                 uint32 // Average distance between inserted no-ops; zero disables.
	StackFrameSize           int64
	EnableStackFrameGaps     bool
	MaxCallDepth             uint64
	EnableAddressTranslation bool
	Seed                     uint64 // Diversification random source.

	// TextSize overrides the estimated text capacity.
	TextSize int
}

// EstimateTextSize returns an upper bound for the code of a program.
func EstimateTextSize(numInsns int) int {
	return MaxAnchorsCodeSize + MaxStartPadding + numInsns*MaxInsnCodeSize
}

// Executable is a compiled program with the locations of its shared routines.
type Executable struct {
	*image.Program
	Anchors [NumAnchors]int32 // Text offsets; -1 if not emitted.
}

// EntryAddr is the text offset of the entry routine.
func (e *Executable) EntryAddr() int32 {
	return e.Anchors[AnchorEntry]
}

type compiler struct {
	opts     *Options
	version  sbpf.Version
	table    *Table
	registry abi.Registry
	prog     *sbpf.Program
	numInsns int

	image   *image.Writable
	text    code.Buf
	textCap int

	anchors [NumAnchors]links.L
	jumps   []links.Jump

	pc             int
	lastCheckpoint int
	insnSizeBound  int64 // Per-instruction code size assumed by forward jumps.

	rng        *prng.Xoshiro256plusplus
	envKey     int32 // Environment slot bias.
	immKey     int64
	noopCount  uint32
	noopWindow uint32
}

// Compile a program into executable memory allocated from pages.
//
// Forward jumps are first encoded in the shortest form which reaches a target
// made of typical instruction code.  If a displacement overflows, the program
// is compiled again with worst-case sizes.
func Compile(prog *sbpf.Program, registry abi.Registry, opts *Options, pages image.Pages) (exe *Executable, err error) {
	table, err := NewTable(prog.Version)
	if err != nil {
		return
	}

	exe, err = generate(prog, registry, opts, pages, table, typicalInsnCodeSize)
	if xerrors.Is(err, errors.ErrJumpOutOfRange) {
		if debug.Enabled {
			debug.Printf("recompiling with worst-case jumps: %v", err)
		}
		exe, err = generate(prog, registry, opts, pages, table, MaxInsnCodeSize)
	}
	return
}

func generate(prog *sbpf.Program, registry abi.Registry, opts *Options, pages image.Pages, table *Table, insnSizeBound int64) (exe *Executable, err error) {
	numInsns := prog.NumInsns()
	textSize := opts.TextSize
	if textSize == 0 {
		textSize = EstimateTextSize(numInsns)
	}

	w, err := image.New(pages, numInsns, textSize)
	if err != nil {
		return
	}

	c := &compiler{
		opts:     opts,
		version:  prog.Version,
		table:    table,
		registry: registry,
		prog:     prog,
		numInsns: numInsns,
		image:    w,
		text:     code.Buf{Buffer: buffer.NewStatic(w.Text())},
		textCap:  cap(w.Text()),
		rng:      prng.NewXoshiro256plusplus(opts.Seed),

		insnSizeBound: insnSizeBound,
	}

	defer func() {
		if x := recover(); x != nil {
			w.Close()
			err = pan.Error(x)
			if err == buffer.ErrStaticSize {
				err = errors.Wrap(c.pc, errors.ErrExhaustedTextSegment)
			}
		}
	}()

	c.initKeys()
	c.padStart()
	c.anchorRoutines()
	c.instructions()
	c.bumper()

	links.Resolve(&c.text, c.jumps, w)

	p, err := w.Seal(int(c.text.Addr))
	if err != nil {
		return
	}

	exe = &Executable{Program: p}
	for i := range c.anchors {
		if c.anchors[i].Defined() {
			exe.Anchors[i] = c.anchors[i].Address
		} else {
			exe.Anchors[i] = -1
		}
	}
	return
}

func (c *compiler) initKeys() {
	c.envKey = int32(c.rng.Uint64()%256) - 128
	c.immKey = int64(c.rng.Uint64())
	if rate := c.opts.NoopRate; rate != 0 {
		c.noopWindow = rate * 2
		c.noopCount = uint32(c.rng.Uint64() % uint64(c.noopWindow))
	}
}

// padStart inserts a random number of no-ops before the routines, so that
// code addresses differ between compilations.
func (c *compiler) padStart() {
	if c.opts.NoopRate == 0 {
		return
	}
	n := c.rng.Uint64() % (MaxStartPadding / 4)
	for i := uint64(0); i < n; i++ {
		c.insn(nopWord)
	}
}

func (c *compiler) instructions() {
	for c.pc = 0; c.pc < c.numInsns; c.pc++ {
		c.checkTextSpace()
		c.image.SetTextAddr(c.pc, uint32(c.text.Addr))

		if c.noopWindow != 0 {
			if c.noopCount == 0 {
				c.insn(nopWord)
				c.noopCount = uint32(c.rng.Uint64() % uint64(c.noopWindow))
			} else {
				c.noopCount--
			}
		}

		if c.opts.EnableInstructionMeter && c.lastCheckpoint+c.opts.CheckpointDistance <= c.pc {
			c.validateMeter(c.pc)
		}

		if c.opts.EnableTracing {
			c.traceCall()
		}

		insn := sbpf.DecodeInsn(c.prog.Text, c.pc)
		if debug.Enabled {
			debug.Printf("%v", insn)
		}

		if insn.Dst >= sbpf.NumRegs || insn.Src >= sbpf.NumRegs {
			errors.Atf(c.pc, errors.ErrInvalidInstruction, "register number out of range")
		}

		if r := c.table[insn.Opc]; r != nil {
			r.gen(c, insn)
		} else if known[insn.Opc] {
			c.unsupported()
		} else {
			errors.Atf(c.pc, errors.ErrUnsupportedInstruction, "opcode 0x%02x", insn.Opc)
		}
	}
}

// bumper catches execution falling off the end of the program.
func (c *compiler) bumper() {
	c.checkTextSpace()
	c.validateAndProfile(c.pc + 1)
	c.li(RegScratch, int64(c.pc))
	c.setTrapKind(trap.ExecutionOverrun)
	c.jumpAnchor(AnchorException)
}

func (c *compiler) checkTextSpace() {
	if int(c.text.Addr)+MaxInsnCodeSize >= c.textCap {
		errors.At(c.pc, errors.ErrExhaustedTextSegment)
	}
}

// unsupported defers the failure of an instruction to runtime.
func (c *compiler) unsupported() {
	c.li(RegScratch, int64(c.pc))
	c.jumpAnchor(AnchorCallUnsupported)
}
