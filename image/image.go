// Copyright (c) 2024 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package image owns the memory of compiled programs.
//
// The memory is split into a lookup table (one little-endian 32-bit text
// offset per bytecode instruction) followed by machine code, both page
// aligned.  A Writable image is readable and writable, never executable.
// Sealing it produces a Program whose table is read-only and whose text is
// readable and executable, never writable.
package image

import (
	"encoding/binary"
	"unsafe"

	"gate.computer/rvjit/internal/isa/rv64/in"
	"golang.org/x/xerrors"
)

// UnsupportedBit marks a table entry whose target cannot be called
// indirectly.  The remaining bits are still a text offset.
const UnsupportedBit = 0x80000000

const unsetEntry = 0xffffffff

// TrapWord fills the unused text tail.
const TrapWord = in.EBREAK

// Writable image during code emission.
type Writable struct {
	pages    Pages
	mem      []byte
	table    []byte
	text     []byte
	numInsns int
}

// New image with room for a lookup table of numInsns entries and at least
// textSize bytes of code.
func New(pages Pages, numInsns, textSize int) (w *Writable, err error) {
	pageSize := pages.PageSize()
	tableSize := roundUp(numInsns*4, pageSize)
	textSize = roundUp(textSize, pageSize)

	mem, err := pages.Map(tableSize + textSize)
	if err != nil {
		return
	}

	w = &Writable{
		pages:    pages,
		mem:      mem,
		table:    mem[:tableSize:tableSize],
		text:     mem[tableSize:],
		numInsns: numInsns,
	}

	for pc := 0; pc < numInsns; pc++ {
		binary.LittleEndian.PutUint32(w.table[pc*4:], unsetEntry)
	}
	return
}

// Text buffer with zero length.  Its capacity is the text size.
func (w *Writable) Text() []byte {
	return w.text[:0]
}

// TableSize in bytes, including padding.
func (w *Writable) TableSize() int {
	return len(w.table)
}

// SetTextAddr records the text offset of a bytecode instruction.  Each entry
// may be set only once.
func (w *Writable) SetTextAddr(pc int, entry uint32) {
	if binary.LittleEndian.Uint32(w.table[pc*4:]) != unsetEntry {
		panic(xerrors.Errorf("lookup table entry %d set twice", pc))
	}
	binary.LittleEndian.PutUint32(w.table[pc*4:], entry)
}

// TextAddr of a compiled bytecode instruction.  Entries marked as unsupported
// yield the address of their fallback code.
func (w *Writable) TextAddr(pc int) (addr int32, ok bool) {
	if pc < 0 || pc >= w.numInsns {
		return
	}
	entry := binary.LittleEndian.Uint32(w.table[pc*4:])
	if entry == unsetEntry {
		return
	}
	return int32(entry &^ UnsupportedBit), true
}

// Seal the image after textLen bytes of code have been written.  The tail of
// the last text page is filled with trap instructions and the excess pages
// are released.  The Writable must not be used afterwards, regardless of
// error.
func (w *Writable) Seal(textLen int) (p *Program, err error) {
	if w.mem == nil {
		panic("image already sealed or closed")
	}
	defer func() {
		if err != nil {
			w.Close()
		}
	}()

	for pc := 0; pc < w.numInsns; pc++ {
		if binary.LittleEndian.Uint32(w.table[pc*4:]) == unsetEntry {
			err = xerrors.Errorf("lookup table entry %d not set", pc)
			return
		}
	}

	pageSize := w.pages.PageSize()
	used := roundUp(textLen, pageSize)
	if used == 0 {
		used = pageSize
	}
	if used > len(w.text) {
		err = xerrors.Errorf("text length %d exceeds capacity %d", textLen, len(w.text))
		return
	}

	for i := textLen &^ 3; i < used; i += 4 {
		binary.LittleEndian.PutUint32(w.text[i:], TrapWord)
	}

	if excess := w.text[used:]; len(excess) > 0 {
		if err = w.pages.Unmap(excess); err != nil {
			return
		}
		w.mem = w.mem[:len(w.table)+used]
		w.text = w.text[:used]
	}

	if err = w.pages.Protect(w.table, ProtRead); err != nil {
		return
	}
	if err = w.pages.Protect(w.text, ProtRead|ProtExec); err != nil {
		return
	}

	p = &Program{
		pages:    w.pages,
		mem:      w.mem,
		table:    w.table,
		text:     w.text,
		textLen:  textLen,
		numInsns: w.numInsns,
	}
	w.mem = nil
	w.table = nil
	w.text = nil
	return
}

// Close releases the memory of an image which will not be sealed.
func (w *Writable) Close() (err error) {
	if w.mem != nil {
		err = w.pages.Unmap(w.mem)
		w.mem = nil
		w.table = nil
		w.text = nil
	}
	return
}

// Program is a sealed image.  It may be executed concurrently.
type Program struct {
	pages    Pages
	mem      []byte
	table    []byte
	text     []byte
	textLen  int
	numInsns int
}

// NumInsns is the number of lookup table entries.
func (p *Program) NumInsns() int {
	return p.numInsns
}

// Table returns the raw lookup table including padding.
func (p *Program) Table() []byte {
	return p.table
}

// TextEntry returns the raw lookup table entry of an instruction.
func (p *Program) TextEntry(pc int) uint32 {
	return binary.LittleEndian.Uint32(p.table[pc*4:])
}

// Text returns the generated code, excluding the trap-filled tail.
func (p *Program) Text() []byte {
	return p.text[:p.textLen]
}

// TextPages returns the executable mapping including the trap-filled tail.
func (p *Program) TextPages() []byte {
	return p.text
}

// TextBase is the address of the first text byte.
func (p *Program) TextBase() uintptr {
	return uintptr(unsafe.Pointer(&p.text[0]))
}

// Closed reports whether the memory has been released.
func (p *Program) Closed() bool {
	return p.mem == nil
}

// Close releases the memory.  It is safe to call Close multiple times; the
// memory is released only once.
func (p *Program) Close() (err error) {
	if p.mem != nil {
		err = p.pages.Unmap(p.mem)
		p.mem = nil
		p.table = nil
		p.text = nil
	}
	return
}
