// Copyright (c) 2024 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runner

import (
	"testing"

	"gate.computer/rvjit/abi"
	"gate.computer/rvjit/trap"
	"github.com/google/go-cmp/cmp"
	"github.com/spaolacci/murmur3"
	"golang.org/x/xerrors"
)

func nop(*Context, [5]uint64) (uint64, error) { return 0, nil }

func TestSymbolHash(t *testing.T) {
	a := SymbolHash("sol_log_")
	if a != murmur3.Sum32([]byte("sol_log_")) {
		t.Error("hash mismatch")
	}
	if a == SymbolHash("sol_log_64_") {
		t.Error("collision")
	}
}

func TestSyscalls(t *testing.T) {
	var s Syscalls

	a := s.Register("abort", nop)
	s.RegisterKey(1, "one", nop)

	if a != SymbolHash("abort") {
		t.Error("key is not the symbol hash")
	}

	if name, found := s.Name(a); !found || name != "abort" {
		t.Errorf("name: %q %v", name, found)
	}
	if _, found := s.Name(2); found {
		t.Error("unknown key found")
	}

	expect := []uint32{1, a}
	if a < 1 {
		expect = []uint32{a, 1}
	}
	if diff := cmp.Diff(expect, s.Keys()); diff != "" {
		t.Errorf("keys (-want +got):\n%s", diff)
	}

	m := Emulator(0)
	var registry abi.Functions
	s.Bind(m, &registry)

	if diff := cmp.Diff(expect, registry.SyscallKeys()); diff != "" {
		t.Errorf("registry keys (-want +got):\n%s", diff)
	}

	sc, found := registry.LookupSyscall(a)
	if !found {
		t.Fatal("syscall not bound")
	}
	if sc.Addr != m.SyscallAddr() || sc.Cookie != uint64(a) {
		t.Errorf("%#v", sc)
	}
}

func TestEmulatorHostFunctions(t *testing.T) {
	m := Emulator(0)
	host := m.HostFunctions()

	addrs := map[uint64]bool{m.SyscallAddr(): true}
	for _, addr := range append(append(host.Load[:], host.Store[:]...), host.Trace) {
		if addrs[addr] {
			t.Errorf("duplicate address 0x%x", addr)
		}
		addrs[addr] = true
	}

	if other := Emulator(1).HostFunctions(); other != host {
		t.Error("host function addresses differ between emulators")
	}
}

func TestExecutionHandles(t *testing.T) {
	x := new(execution)
	h := registerExecution(x)
	if lookupExecution(h) != x {
		t.Error("lookup")
	}
	if registerExecution(new(execution)) == h {
		t.Error("handle reused")
	}
	unregisterExecution(h)

	defer func() {
		if recover() == nil {
			t.Error("no panic")
		}
	}()
	lookupExecution(h)
}

func TestHostSyscallUnknownCookie(t *testing.T) {
	var s Syscalls
	s.RegisterKey(1, "one", nop)

	env := &abi.Environment{DueInsnCount: 50}
	x := &execution{env: env, syscalls: &s, metered: true}
	h := registerExecution(x)
	defer unregisterExecution(h)

	HostSyscall(h, [5]uint64{}, 2)

	if env.Result.Kind != uint64(trap.SyscallError) {
		t.Errorf("result kind %d", env.Result.Kind)
	}
	if !xerrors.Is(x.err, ErrUnknownSyscall) {
		t.Errorf("error: %v", x.err)
	}
	if env.PreviousInstructionMeter != 50 {
		t.Errorf("instruction meter %d", env.PreviousInstructionMeter)
	}
}
