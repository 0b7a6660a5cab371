// Copyright (c) 2024 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runner

import (
	"unsafe"

	"gate.computer/rvjit/abi"
	"gate.computer/rvjit/internal/isa/rv64/in"
	"gate.computer/rvjit/internal/rvemu"
)

// EmulatorStackSize is the native stack size of emulated executions.
const EmulatorStackSize = 64 * 1024

type emulator struct {
	stepLimit uint64
	host      abi.HostFunctions
	syscall   uint64
}

// Emulator interprets the generated code on any host.  A step limit of zero
// means the default.  The program should be compiled using image.HeapPages
// if the host cannot map executable memory.
func Emulator(stepLimit uint64) Machine {
	if stepLimit == 0 {
		stepLimit = rvemu.DefaultStepLimit
	}
	e := &emulator{stepLimit: stepLimit}
	_, e.host, e.syscall = e.newCPU()
	return e
}

// newCPU with the hooks in the order which determines their addresses.
func (e *emulator) newCPU() (cpu *rvemu.CPU, host abi.HostFunctions, syscall uint64) {
	cpu = rvemu.New(EmulatorStackSize)
	cpu.StepLimit = e.stepLimit

	syscall = cpu.AddHook(syscallHook)
	for i := range host.Load {
		host.Load[i] = cpu.AddHook(loadHook(1 << uint(i)))
	}
	for i := range host.Store {
		host.Store[i] = cpu.AddHook(storeHook(1 << uint(i)))
	}
	host.Trace = cpu.AddHook(traceHook)
	return
}

func (e *emulator) HostFunctions() abi.HostFunctions { return e.host }
func (e *emulator) SyscallAddr() uint64              { return e.syscall }

func (e *emulator) Invoke(call *Invocation) error {
	cpu, _, _ := e.newCPU()

	cpu.Map(bytesOf(unsafe.Pointer(call.Env), unsafe.Sizeof(*call.Env)))
	cpu.Map(bytesOf(unsafe.Pointer(call.Regs), unsafe.Sizeof(*call.Regs)))
	cpu.Map(call.Table)
	cpu.Map(call.Text)
	for _, b := range call.Direct {
		cpu.Map(b)
	}

	_, err := cpu.Call(uint64(call.Entry),
		uint64(uintptr(unsafe.Pointer(call.Env))),
		uint64(uintptr(unsafe.Pointer(call.Regs))),
		uint64(call.Meter),
		uint64(call.Target))
	return err
}

func bytesOf(p unsafe.Pointer, size uintptr) []byte {
	return unsafe.Slice((*byte)(p), size)
}

func loadWord(cpu *rvemu.CPU, addr uint64) uint64 {
	x, err := cpu.Load(addr, 8)
	if err != nil {
		panic(err)
	}
	return x
}

func contextObject(cpu *rvemu.CPU) uint64 {
	return loadWord(cpu, cpu.X[in.A0]+uint64(abi.SlotContextObject)*8)
}

func syscallHook(cpu *rvemu.CPU) {
	args := [5]uint64{cpu.X[in.A1], cpu.X[in.A2], cpu.X[in.A3], cpu.X[in.A4], cpu.X[in.A5]}
	HostSyscall(contextObject(cpu), args, cpu.X[in.A6])
}

func loadHook(size int) rvemu.Hook {
	return func(cpu *rvemu.CPU) {
		HostLoad(cpu.X[in.A1], cpu.X[in.A2], cpu.X[in.A3], size)
	}
}

func storeHook(size int) rvemu.Hook {
	return func(cpu *rvemu.CPU) {
		HostStore(cpu.X[in.A1], cpu.X[in.A2], cpu.X[in.A3], cpu.X[in.A4], size)
	}
}

func traceHook(cpu *rvemu.CPU) {
	var regs [abi.NumRegisters]uint64
	for i := range regs {
		regs[i] = loadWord(cpu, cpu.X[in.A1]+uint64(i)*8)
	}
	HostTrace(contextObject(cpu), &regs)
}
