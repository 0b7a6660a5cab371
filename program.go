// Copyright (c) 2024 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rvjit

import (
	"sort"

	"gate.computer/rvjit/image"
	"gate.computer/rvjit/internal/isa/rv64"
	"gate.computer/rvjit/sbpf"
)

// Program is compiled machine code.  It may be executed concurrently, but
// Close must not be called during execution.
type Program struct {
	exe     *rv64.Executable
	config  Config
	version sbpf.Version
	vmaddr  uint64
	entryPC int
}

// Config which was used for compilation.
func (p *Program) Config() *Config {
	return &p.config
}

func (p *Program) Version() sbpf.Version { return p.version }
func (p *Program) NumInsns() int         { return p.exe.NumInsns() }
func (p *Program) EntryPC() int          { return p.entryPC }

// TextVMAddr is the virtual address of the first bytecode instruction.
func (p *Program) TextVMAddr() uint64 {
	return p.vmaddr
}

// Text is the machine code.
func (p *Program) Text() []byte {
	return p.exe.Text()
}

// Memory returns the mapped lookup table and text pages.
func (p *Program) Memory() (table, text []byte) {
	return p.exe.Table(), p.exe.TextPages()
}

// EntryAddr is the address of the routine through which the program is
// entered (see the abi package).
func (p *Program) EntryAddr() uintptr {
	return p.exe.TextBase() + uintptr(p.exe.EntryAddr())
}

// TextAddr returns the machine code address of a bytecode instruction.
// Instructions which cannot be entered yield the address of code which
// raises an unsupported instruction trap.
func (p *Program) TextAddr(pc int) (addr uintptr, ok bool) {
	if pc < 0 || pc >= p.exe.NumInsns() {
		return
	}
	offset := p.exe.TextEntry(pc) &^ image.UnsupportedBit
	return p.exe.TextBase() + uintptr(offset), true
}

// TextOffsets of bytecode instructions.  Entries of instructions which
// cannot be entered have the image.UnsupportedBit set.
func (p *Program) TextOffsets() []uint32 {
	offsets := make([]uint32, p.exe.NumInsns())
	for pc := range offsets {
		offsets[pc] = p.exe.TextEntry(pc)
	}
	return offsets
}

// Symbol names a text offset.
type Symbol struct {
	Name   string
	Offset int32
}

// Anchors returns the shared routines in address order.
func (p *Program) Anchors() (syms []Symbol) {
	for a, offset := range p.exe.Anchors {
		if offset >= 0 {
			syms = append(syms, Symbol{rv64.Anchor(a).String(), offset})
		}
	}
	sort.SliceStable(syms, func(i, j int) bool {
		return syms[i].Offset < syms[j].Offset
	})
	return
}

// Close releases the memory.  It may be called multiple times.
func (p *Program) Close() error {
	return p.exe.Close()
}
