// Copyright (c) 2024 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rvemu interprets RV64IM machine code in host memory.
//
// Memory accesses are limited to byte slices which have been mapped into
// the CPU; their Go addresses are used as machine addresses, so generated
// code and Go code can share data structures.  Native functions are
// replaced by hooks living at reserved addresses.
package rvemu

import (
	"fmt"
	"unsafe"

	"gate.computer/rvjit/internal/isa/rv64/in"
	"golang.org/x/xerrors"
)

// ReturnAddr is the return address of the outermost call.  Jumping to it
// ends Call.
const ReturnAddr = 0xfffffffffffff000

const hookBase = 0xffffffff00000000

// DefaultStepLimit is the number of instructions executed by Call before it
// gives up.
const DefaultStepLimit = 100000000

var ErrStepLimit = xerrors.New("step limit exceeded")

// Fault is a machine exception.
type Fault struct {
	PC     uint64
	Addr   uint64
	Reason string
}

func (f *Fault) Error() string {
	if f.Addr != 0 {
		return fmt.Sprintf("%s at pc 0x%x (address 0x%x)", f.Reason, f.PC, f.Addr)
	}
	return fmt.Sprintf("%s at pc 0x%x", f.Reason, f.PC)
}

// Hook implements a native function.  Arguments are in the argument
// registers; the return value is written to a0.
type Hook func(cpu *CPU)

type region struct {
	base uint64
	mem  []byte
}

// CPU state.
type CPU struct {
	X         [32]uint64
	PC        uint64
	Steps     uint64
	StepLimit uint64

	regions []region
	hooks   []Hook
	stack   []byte
}

// New CPU with a private stack.
func New(stackSize int) *CPU {
	cpu := &CPU{
		StepLimit: DefaultStepLimit,
		stack:     make([]byte, stackSize),
	}
	cpu.Map(cpu.stack)
	return cpu
}

// Map makes memory accessible.  The slice must stay reachable while the CPU
// is in use.
func (cpu *CPU) Map(mem []byte) {
	if len(mem) == 0 {
		return
	}
	cpu.regions = append(cpu.regions, region{Addr(mem), mem})
}

// Unmap revokes access to memory mapped earlier.
func (cpu *CPU) Unmap(mem []byte) {
	if len(mem) == 0 {
		return
	}
	base := Addr(mem)
	for i, r := range cpu.regions {
		if r.base == base {
			cpu.regions = append(cpu.regions[:i], cpu.regions[i+1:]...)
			return
		}
	}
}

// AddHook returns the address of a new native function.
func (cpu *CPU) AddHook(h Hook) uint64 {
	cpu.hooks = append(cpu.hooks, h)
	return hookBase + uint64(len(cpu.hooks)-1)*16
}

// Addr of the first byte of a slice.
func Addr(mem []byte) uint64 {
	return uint64(uintptr(unsafe.Pointer(unsafe.SliceData(mem))))
}

// Call fn with up to eight arguments on the private stack.  Register state
// is otherwise preserved from the previous call.
func (cpu *CPU) Call(fn uint64, args ...uint64) (result uint64, err error) {
	if len(args) > 8 {
		panic("too many arguments")
	}

	for i, x := range args {
		cpu.X[in.A0+in.Reg(i)] = x
	}
	cpu.X[in.SP] = (Addr(cpu.stack) + uint64(len(cpu.stack))) &^ 15
	cpu.X[in.RA] = ReturnAddr
	cpu.PC = fn
	cpu.Steps = 0

	for cpu.PC != ReturnAddr {
		if err = cpu.Step(); err != nil {
			return
		}
	}

	result = cpu.X[in.A0]
	return
}

// Step executes one instruction or hook.
func (cpu *CPU) Step() error {
	if cpu.Steps >= cpu.StepLimit {
		return ErrStepLimit
	}
	cpu.Steps++

	if cpu.PC >= hookBase && cpu.PC < ReturnAddr {
		i := (cpu.PC - hookBase) / 16
		if (cpu.PC-hookBase)%16 != 0 || i >= uint64(len(cpu.hooks)) {
			return &Fault{PC: cpu.PC, Reason: "jump to unknown hook"}
		}
		cpu.hooks[i](cpu)
		cpu.PC = cpu.X[in.RA]
		cpu.X[in.Zero] = 0
		return nil
	}

	if cpu.PC&3 != 0 {
		return &Fault{PC: cpu.PC, Reason: "misaligned instruction"}
	}
	word, ok := cpu.load(cpu.PC, 4)
	if !ok {
		return &Fault{PC: cpu.PC, Addr: cpu.PC, Reason: "instruction fetch fault"}
	}

	err := cpu.execute(uint32(word))
	cpu.X[in.Zero] = 0
	return err
}

// Load little-endian value of 1, 2, 4 or 8 bytes.
func (cpu *CPU) Load(addr uint64, size int) (uint64, error) {
	x, ok := cpu.load(addr, size)
	if !ok {
		return 0, &Fault{PC: cpu.PC, Addr: addr, Reason: "load fault"}
	}
	return x, nil
}

// Store little-endian value of 1, 2, 4 or 8 bytes.
func (cpu *CPU) Store(addr uint64, size int, value uint64) error {
	if !cpu.store(addr, size, value) {
		return &Fault{PC: cpu.PC, Addr: addr, Reason: "store fault"}
	}
	return nil
}

func (cpu *CPU) find(addr uint64, size int) []byte {
	for _, r := range cpu.regions {
		if addr >= r.base && addr-r.base <= uint64(len(r.mem)) && uint64(len(r.mem))-(addr-r.base) >= uint64(size) {
			off := addr - r.base
			return r.mem[off : off+uint64(size)]
		}
	}
	return nil
}

func (cpu *CPU) load(addr uint64, size int) (x uint64, ok bool) {
	b := cpu.find(addr, size)
	if b == nil {
		return
	}
	for i := size - 1; i >= 0; i-- {
		x = x<<8 | uint64(b[i])
	}
	ok = true
	return
}

func (cpu *CPU) store(addr uint64, size int, x uint64) bool {
	b := cpu.find(addr, size)
	if b == nil {
		return false
	}
	for i := 0; i < size; i++ {
		b[i] = byte(x)
		x >>= 8
	}
	return true
}
