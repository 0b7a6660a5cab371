// Copyright (c) 2024 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runner

import (
	"gate.computer/rvjit/abi"
	"gate.computer/rvjit/trap"
	"golang.org/x/xerrors"
)

// Machine executes generated code.  It provides native entry points which
// forward host function calls to HostSyscall, HostLoad, HostStore and
// HostTrace.
type Machine interface {
	HostFunctions() abi.HostFunctions
	SyscallAddr() uint64
	Invoke(call *Invocation) error
}

// Invocation of the entry routine:
//
//	entry(env, regs, meter, target)
type Invocation struct {
	Entry  uintptr
	Env    *abi.Environment
	Regs   *[abi.NumRegisters]uint64
	Meter  int64
	Target uintptr

	// Memory accessed by generated code, apart from the environment and the
	// register array.
	Table  []byte
	Text   []byte
	Direct [][]byte
}

// HostSyscall dispatches a syscall.  The context argument is
// Environment.ContextObject.  The outcome is written to Environment.Result.
func HostSyscall(context uint64, args [5]uint64, cookie uint64) {
	x := lookupExecution(context)
	env := x.env

	f, found := x.syscalls.funcs[uint32(cookie)]
	if !found {
		if x.metered {
			env.PreviousInstructionMeter = env.DueInsnCount
		}
		x.err = xerrors.Errorf("cookie 0x%x: %w", cookie, ErrUnknownSyscall)
		env.Result = abi.Result{Kind: uint64(trap.SyscallError)}
		return
	}

	ctx := &Context{x: x}
	value, err := f.fn(ctx, args)

	if x.metered {
		if env.DueInsnCount > ctx.cost {
			env.PreviousInstructionMeter = env.DueInsnCount - ctx.cost
		} else {
			env.PreviousInstructionMeter = 0
		}
	}

	if err != nil {
		x.err = err
		env.Result = abi.Result{Kind: uint64(trap.SyscallError)}
	} else {
		env.Result = abi.Result{Value: value}
	}
}

// HostLoad translates a load.  The mapping argument is
// Environment.MemoryMapping.
func HostLoad(mapping, vmaddr, pc uint64, size int) {
	x := lookupExecution(mapping)

	if value, ok := x.memory.Load(vmaddr, size); ok {
		x.env.Result = abi.Result{Value: value}
	} else {
		x.violation(vmaddr)
	}
}

// HostStore translates a store.  The mapping argument is
// Environment.MemoryMapping.
func HostStore(mapping, value, vmaddr, pc uint64, size int) {
	x := lookupExecution(mapping)

	if x.memory.Store(vmaddr, size, value) {
		x.env.Result = abi.Result{}
	} else {
		x.violation(vmaddr)
	}
}

// HostTrace reports the registers before an instruction.  The context
// argument is Environment.ContextObject.
func HostTrace(context uint64, regs *[abi.NumRegisters]uint64) {
	x := lookupExecution(context)
	if x.trace != nil {
		x.trace(regs)
	}
}
