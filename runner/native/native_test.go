// Copyright (c) 2024 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux && riscv64 && cgo

package native_test

import (
	"testing"

	"gate.computer/rvjit"
	"gate.computer/rvjit/abi"
	"gate.computer/rvjit/internal/test/asm"
	"gate.computer/rvjit/runner"
	"gate.computer/rvjit/runner/native"
	"gate.computer/rvjit/sbpf"
	"gate.computer/rvjit/trap"
)

func TestNative(t *testing.T) {
	m, err := native.New()
	if err != nil {
		t.Fatal(err)
	}

	var syscalls runner.Syscalls
	key := syscalls.Register("add", func(ctx *runner.Context, args [5]uint64) (uint64, error) {
		return args[0] + args[1], nil
	})

	registry := new(abi.Functions)
	syscalls.Bind(m, registry)

	prog := asm.Program(sbpf.V0,
		asm.Mov64(1, 40),
		asm.Mov64(2, 2),
		asm.I(sbpf.CALL_IMM, 0, 0, 0, int64(int32(key))),
		asm.Exit(),
	)

	config := rvjit.DefaultConfig()
	config.DiversificationSeed = []byte("native")

	p, err := rvjit.Compile(prog, registry, config)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	res, err := runner.New(p, m, &syscalls).Run(&runner.Input{Budget: 1000})
	if err != nil {
		t.Fatal(err)
	}
	if res.Trap != trap.None || res.Value != 42 {
		t.Errorf("%v: %d", res, res.Value)
	}
	if res.Consumed != 4 {
		t.Errorf("consumed %d", res.Consumed)
	}
}

func TestNativeDivideByZero(t *testing.T) {
	m, err := native.New()
	if err != nil {
		t.Fatal(err)
	}

	prog := asm.Program(sbpf.V0,
		asm.Mov64(0, 1),
		asm.Mov64(1, 0),
		asm.I(sbpf.DIV64_REG, 0, 1, 0, 0),
		asm.Exit(),
	)

	p, err := rvjit.Compile(prog, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	res, err := runner.New(p, m, nil).Run(&runner.Input{Budget: 1000})
	if err != nil {
		t.Fatal(err)
	}
	if res.Trap != trap.DivideByZero || res.PC != 2 {
		t.Error(res)
	}
}
