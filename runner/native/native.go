// Copyright (c) 2024 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux && riscv64 && cgo

package native

/*
#include <stdint.h>

#define RVJIT_CONTEXT_SLOT 2

void rvjit_invoke(uintptr_t entry, void *env, void *regs, int64_t meter, uintptr_t target);
uintptr_t rvjit_syscall_addr(void);
uintptr_t rvjit_load_addr(int i);
uintptr_t rvjit_store_addr(int i);
uintptr_t rvjit_trace_addr(void);
*/
import "C"

import (
	"runtime"
	"unsafe"

	"gate.computer/rvjit/abi"
	"gate.computer/rvjit/runner"
)

func init() {
	if int(abi.SlotContextObject) != int(C.RVJIT_CONTEXT_SLOT) {
		panic("context object slot mismatch")
	}
}

type machine struct {
	host abi.HostFunctions
}

// New machine which executes generated code on the host processor.
func New() (runner.Machine, error) {
	m := new(machine)
	for i := range m.host.Load {
		m.host.Load[i] = uint64(C.rvjit_load_addr(C.int(i)))
		m.host.Store[i] = uint64(C.rvjit_store_addr(C.int(i)))
	}
	m.host.Trace = uint64(C.rvjit_trace_addr())
	return m, nil
}

func (m *machine) HostFunctions() abi.HostFunctions { return m.host }
func (m *machine) SyscallAddr() uint64              { return uint64(C.rvjit_syscall_addr()) }

func (m *machine) Invoke(call *runner.Invocation) error {
	// Generated code is not preemptible.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	var pinner runtime.Pinner
	defer pinner.Unpin()
	pinner.Pin(call.Env)
	pinner.Pin(call.Regs)
	for _, b := range call.Direct {
		if len(b) > 0 {
			pinner.Pin(&b[0])
		}
	}

	C.rvjit_invoke(C.uintptr_t(call.Entry), unsafe.Pointer(call.Env), unsafe.Pointer(call.Regs), C.int64_t(call.Meter), C.uintptr_t(call.Target))
	return nil
}

//export rvjitSyscall
func rvjitSyscall(context, a1, a2, a3, a4, a5, cookie C.uint64_t) {
	args := [5]uint64{uint64(a1), uint64(a2), uint64(a3), uint64(a4), uint64(a5)}
	runner.HostSyscall(uint64(context), args, uint64(cookie))
}

//export rvjitLoad
func rvjitLoad(mapping, vmaddr, pc C.uint64_t, size C.int) {
	runner.HostLoad(uint64(mapping), uint64(vmaddr), uint64(pc), int(size))
}

//export rvjitStore
func rvjitStore(mapping, value, vmaddr, pc C.uint64_t, size C.int) {
	runner.HostStore(uint64(mapping), uint64(value), uint64(vmaddr), uint64(pc), int(size))
}

//export rvjitTrace
func rvjitTrace(context C.uint64_t, regs *C.uint64_t) {
	runner.HostTrace(uint64(context), (*[abi.NumRegisters]uint64)(unsafe.Pointer(regs)))
}
