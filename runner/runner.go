// Copyright (c) 2024 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package runner executes compiled programs.
package runner

import (
	"fmt"

	"gate.computer/rvjit"
	"gate.computer/rvjit/abi"
	"gate.computer/rvjit/sbpf"
	"gate.computer/rvjit/trap"
	"golang.org/x/xerrors"
)

// TraceFunc receives the registers and the program counter before an
// instruction is executed.
type TraceFunc func(regs *[abi.NumRegisters]uint64)

// Input of a single execution.
type Input struct {
	Budget uint64 // Instruction budget, if metering is enabled.

	ReadOnly []byte // Mapped at the program address.
	Stack    []byte // Allocated by default.
	Heap     []byte
	Input    []byte // Pointed to by r1.

	Data  interface{} // Available to syscalls.
	Trace TraceFunc
}

// Result of a single execution.
type Result struct {
	Value     uint64  // r0 of a successful exit.
	Trap      trap.ID // Zero if the program exited.
	PC        int     // Where the trap occurred, or -1.
	Consumed  uint64  // Instructions, if metering is enabled.
	Registers [sbpf.NumRegs]uint64

	Err   error  // Returned by a syscall.
	Fault uint64 // Virtual address of an access violation.
}

func (r *Result) String() string {
	if r.Trap == trap.None {
		return fmt.Sprintf("exit %d", r.Value)
	}
	return fmt.Sprintf("%v at pc %d", r.Trap, r.PC)
}

// Runner executes a program on a machine.
type Runner struct {
	prog     *rvjit.Program
	machine  Machine
	syscalls *Syscalls
}

func New(prog *rvjit.Program, m Machine, syscalls *Syscalls) *Runner {
	if syscalls == nil {
		syscalls = new(Syscalls)
	}
	return &Runner{prog, m, syscalls}
}

type execution struct {
	env      *abi.Environment
	memory   Memory
	syscalls *Syscalls
	metered  bool
	data     interface{}
	trace    TraceFunc
	err      error
	fault    uint64
}

func (x *execution) violation(vmaddr uint64) {
	x.fault = vmaddr
	x.env.Result = abi.Result{Kind: uint64(trap.AccessViolation)}
}

// Run the program from its entry point.  Traps are reported in the result;
// the error is for failures of the machine.
func (r *Runner) Run(input *Input) (res *Result, err error) {
	config := r.prog.Config()
	version := r.prog.Version()

	stack := input.Stack
	if stack == nil {
		size := config.StackSize()
		if !config.EnableAddressTranslation && config.EnableStackFrameGaps && !version.Has(sbpf.ManualStackFrameBump) {
			size *= 2
		}
		stack = make([]byte, size)
	}

	x := &execution{
		env:      new(abi.Environment),
		syscalls: r.syscalls,
		metered:  config.EnableInstructionMeter,
		data:     input.Data,
		trace:    input.Trace,
	}

	var (
		regs   [abi.NumRegisters]uint64
		direct [][]byte
	)

	frameSize := uint64(config.StackFrameSize)

	if config.EnableAddressTranslation {
		stackRegion := Region{
			VMAddr:   sbpf.StackStartAddr,
			Data:     stack,
			Writable: true,
		}
		if config.EnableStackFrameGaps && !version.Has(sbpf.ManualStackFrameBump) {
			stackRegion.FrameSize = frameSize
		}

		x.memory = Regions{
			{VMAddr: sbpf.ProgramStartAddr, Data: input.ReadOnly},
			stackRegion,
			{VMAddr: sbpf.HeapStartAddr, Data: input.Heap, Writable: true},
			{VMAddr: sbpf.InputStartAddr, Data: input.Input, Writable: true},
		}

		regs[1] = sbpf.InputStartAddr
		if version.Has(sbpf.ManualStackFrameBump) {
			regs[sbpf.FramePointerReg] = sbpf.StackStartAddr + stackRegion.VMSize()
		} else {
			regs[sbpf.FramePointerReg] = sbpf.StackStartAddr + frameSize
		}
	} else {
		// Bytecode addresses are host addresses.
		x.memory = Regions{}
		direct = [][]byte{input.ReadOnly, stack, input.Heap, input.Input}

		regs[1] = hostAddr(input.Input)
		if version.Has(sbpf.ManualStackFrameBump) {
			regs[sbpf.FramePointerReg] = hostAddr(stack) + uint64(len(stack))
		} else {
			regs[sbpf.FramePointerReg] = hostAddr(stack) + frameSize
		}
	}

	entryPC := r.prog.EntryPC()
	regs[abi.PCRegister] = uint64(entryPC)

	target, ok := r.prog.TextAddr(entryPC)
	if !ok {
		err = xerrors.Errorf("entry pc %d out of range", entryPC)
		return
	}

	handle := registerExecution(x)
	defer unregisterExecution(handle)

	env := x.env
	env.ContextObject = handle
	env.MemoryMapping = handle
	env.PreviousInstructionMeter = input.Budget
	env.Host = r.machine.HostFunctions()

	table, text := r.prog.Memory()

	err = r.machine.Invoke(&Invocation{
		Entry:  r.prog.EntryAddr(),
		Env:    env,
		Regs:   &regs,
		Meter:  int64(input.Budget) + int64(entryPC),
		Target: target,
		Table:  table,
		Text:   text,
		Direct: direct,
	})
	if err != nil {
		return
	}

	res = &Result{
		Trap:  trap.ID(env.Result.Kind),
		PC:    int(env.Registers[abi.PCRegister]),
		Err:   x.err,
		Fault: x.fault,
	}
	copy(res.Registers[:], env.Registers[:sbpf.NumRegs])

	switch res.Trap {
	case trap.None:
		res.Value = env.Result.Value
		res.PC = -1

	case trap.ExceededMaxInstructions:
		res.PC = -1
	}

	if x.metered {
		consumed := int64(input.Budget) - int64(env.PreviousInstructionMeter) + int64(env.DueInsnCount)
		switch {
		case consumed < 0:
			consumed = 0
		case uint64(consumed) > input.Budget:
			consumed = int64(input.Budget)
		}
		res.Consumed = uint64(consumed)
	}
	return
}
