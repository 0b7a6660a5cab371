// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package abi describes the interface between generated code and the host.
//
// Generated code is entered through the entry routine with the native RISC-V
// LP64 calling convention:
//
//	entry(env *Environment, regs *[NumRegisters]uint64, meter int64, target uintptr)
//
// The routine saves ra and s0-s11 in a 112-byte frame, stores the stack
// pointer in env.HostStackPointer, loads the bytecode registers and the
// program counter from regs, and calls target.  Control returns to the caller
// of entry when the program exits or raises an error; registers are written
// back to env.Registers and the outcome to env.Result.
//
// Host functions are called with the same convention.  Generated code
// preserves sp alignment to 16 bytes at every host call.
//
//	syscall(env *Environment, arg1, arg2, arg3, arg4, arg5, cookie uint64)
//	load(result *Result, mapping uint64, vmaddr, pc uint64)
//	store(result *Result, mapping uint64, value, vmaddr, pc uint64)
//	trace(env *Environment, regs *[NumRegisters]uint64)
//
// A host function reports failure by setting Result.Kind to a nonzero trap
// ID.
package abi

import (
	"unsafe"
)

// NumRegisters is the number of bytecode registers plus the program counter.
const NumRegisters = 12

// PCRegister is the index of the program counter in register arrays.
const PCRegister = 11

// Result of a program or a host function.
type Result struct {
	Kind  uint64 // Trap ID; zero means success.
	Value uint64
}

// HostFunctions are native function addresses called by generated code.
// Load and Store are indexed by the base 2 logarithm of the access size.
type HostFunctions struct {
	Load  [4]uint64
	Store [4]uint64
	Trace uint64
}

// Environment is the runtime state shared by generated code and the host.
// Its layout is part of the ABI: every field is an 8-byte word.
type Environment struct {
	HostStackPointer         uint64
	CallDepth                uint64
	ContextObject            uint64
	PreviousInstructionMeter uint64
	DueInsnCount             uint64
	Registers                [NumRegisters]uint64
	Result                   Result
	MemoryMapping            uint64
	Host                     HostFunctions
}

// Slot is a word index into Environment.
type Slot int32

const (
	SlotHostStackPointer         = Slot(unsafe.Offsetof(Environment{}.HostStackPointer) / 8)
	SlotCallDepth                = Slot(unsafe.Offsetof(Environment{}.CallDepth) / 8)
	SlotContextObject            = Slot(unsafe.Offsetof(Environment{}.ContextObject) / 8)
	SlotPreviousInstructionMeter = Slot(unsafe.Offsetof(Environment{}.PreviousInstructionMeter) / 8)
	SlotDueInsnCount             = Slot(unsafe.Offsetof(Environment{}.DueInsnCount) / 8)
	SlotRegisters                = Slot(unsafe.Offsetof(Environment{}.Registers) / 8)
	SlotResultKind               = Slot(unsafe.Offsetof(Environment{}.Result) / 8)
	SlotResultValue              = SlotResultKind + 1
	SlotMemoryMapping            = Slot(unsafe.Offsetof(Environment{}.MemoryMapping) / 8)
	SlotLoad                     = Slot(unsafe.Offsetof(Environment{}.Host) / 8)
	SlotStore                    = SlotLoad + 4
	SlotTrace                    = SlotStore + 4

	NumSlots = Slot(unsafe.Sizeof(Environment{}) / 8)
)

// SlotRegister returns the slot of a register array element.
func SlotRegister(i int) Slot {
	return SlotRegisters + Slot(i)
}
