// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package abi

import (
	"testing"
	"unsafe"
)

func TestSlots(t *testing.T) {
	var env Environment
	base := uintptr(unsafe.Pointer(&env))

	for _, x := range []struct {
		slot Slot
		ptr  unsafe.Pointer
	}{
		{SlotHostStackPointer, unsafe.Pointer(&env.HostStackPointer)},
		{SlotCallDepth, unsafe.Pointer(&env.CallDepth)},
		{SlotPreviousInstructionMeter, unsafe.Pointer(&env.PreviousInstructionMeter)},
		{SlotDueInsnCount, unsafe.Pointer(&env.DueInsnCount)},
		{SlotRegister(0), unsafe.Pointer(&env.Registers[0])},
		{SlotRegister(PCRegister), unsafe.Pointer(&env.Registers[PCRegister])},
		{SlotResultKind, unsafe.Pointer(&env.Result.Kind)},
		{SlotResultValue, unsafe.Pointer(&env.Result.Value)},
		{SlotMemoryMapping, unsafe.Pointer(&env.MemoryMapping)},
		{SlotLoad + 3, unsafe.Pointer(&env.Host.Load[3])},
		{SlotStore, unsafe.Pointer(&env.Host.Store[0])},
		{SlotTrace, unsafe.Pointer(&env.Host.Trace)},
	} {
		if offset := uintptr(x.ptr) - base; offset != uintptr(x.slot)*8 {
			t.Errorf("slot %d at offset %d", x.slot, offset)
		}
	}

	if NumSlots != SlotTrace+1 {
		t.Errorf("%d slots", NumSlots)
	}
}

func TestFunctions(t *testing.T) {
	var fs Functions

	if _, found := fs.LookupSyscall(1); found {
		t.Error("empty registry")
	}

	fs.RegisterSyscall(7, Syscall{Addr: 0x1000, Cookie: 3})
	fs.RegisterSyscall(2, Syscall{Addr: 0x2000})
	fs.RegisterFunction(5, 42)

	if s, found := fs.LookupSyscall(7); !found || s.Addr != 0x1000 || s.Cookie != 3 {
		t.Errorf("syscall: %v %v", s, found)
	}
	if pc, found := fs.LookupFunction(5); !found || pc != 42 {
		t.Errorf("function: %v %v", pc, found)
	}
	if keys := fs.SyscallKeys(); len(keys) != 2 || keys[0] != 2 || keys[1] != 7 {
		t.Errorf("keys: %v", keys)
	}
}
