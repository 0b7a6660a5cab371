// Copyright (c) 2024 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sbpf

import (
	"encoding/binary"
	"fmt"
)

// InsnSize is the size of an encoded instruction slot.
const InsnSize = 8

// Register numbers.
const (
	FramePointerReg = 10 // Read-only frame pointer.
	FirstScratchReg = 6  // First callee-saved register.
	ScratchRegs     = 4  // Number of callee-saved registers.
	NumRegs         = 11 // Number of general-purpose registers.
)

// Virtual address space layout.
const (
	MemoryRegionShift = 32

	ProgramStartAddr = uint64(1) << MemoryRegionShift
	StackStartAddr   = uint64(2) << MemoryRegionShift
	HeapStartAddr    = uint64(3) << MemoryRegionShift
	InputStartAddr   = uint64(4) << MemoryRegionShift
)

// Insn is a decoded instruction slot.
type Insn struct {
	PC  int
	Opc uint8
	Dst uint8
	Src uint8
	Off int16
	Imm int64
}

// DecodeInsn at a given slot.  The second slot of LD_DW_IMM is merged into
// the immediate value.
func DecodeInsn(text []byte, pc int) (insn Insn) {
	b := text[pc*InsnSize : pc*InsnSize+InsnSize]
	insn = Insn{
		PC:  pc,
		Opc: b[0],
		Dst: b[1] & 0xf,
		Src: b[1] >> 4,
		Off: int16(binary.LittleEndian.Uint16(b[2:])),
		Imm: int64(int32(binary.LittleEndian.Uint32(b[4:]))),
	}

	if insn.Opc == LD_DW_IMM && (pc+1)*InsnSize+InsnSize <= len(text) {
		next := text[(pc+1)*InsnSize:]
		hi := binary.LittleEndian.Uint32(next[4:])
		insn.Imm = int64(uint64(uint32(insn.Imm)) | uint64(hi)<<32)
	}
	return
}

// Encode the instruction into an 8-byte slot.  The upper half of an LD_DW_IMM
// immediate is not included.
func (insn Insn) Encode(b []byte) {
	b[0] = insn.Opc
	b[1] = insn.Src<<4 | insn.Dst&0xf
	binary.LittleEndian.PutUint16(b[2:], uint16(insn.Off))
	binary.LittleEndian.PutUint32(b[4:], uint32(insn.Imm))
}

func (insn Insn) String() string {
	return fmt.Sprintf("%d: opc=0x%02x dst=r%d src=r%d off=%d imm=%d", insn.PC, insn.Opc, insn.Dst, insn.Src, insn.Off, insn.Imm)
}

// Program is a loaded bytecode program.
type Program struct {
	Text    []byte  // Instruction slots.
	Version Version // Feature set.

	// VMAddr is the virtual address of the first instruction slot.  Zero
	// means ProgramStartAddr.
	VMAddr uint64

	// EntryPC is the instruction index of the entrypoint.
	EntryPC int
}

// NumInsns including LD_DW_IMM second halves.
func (p *Program) NumInsns() int {
	return len(p.Text) / InsnSize
}

func (p *Program) TextVMAddr() uint64 {
	if p.VMAddr == 0 {
		return ProgramStartAddr
	}
	return p.VMAddr
}
