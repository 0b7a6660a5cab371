// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package abi

import (
	"sort"
)

// Syscall is a host function reachable from generated code.
type Syscall struct {
	Addr   uint64 // Native function address.
	Cookie uint64 // Passed as the last argument.
}

// Registry resolves the immediate operand of call instructions.
type Registry interface {
	LookupSyscall(key uint32) (Syscall, bool)
	LookupFunction(key uint32) (pc int, found bool)
}

// Functions is a map-based Registry.  The zero value is empty.
type Functions struct {
	Syscalls map[uint32]Syscall
	Internal map[uint32]int
}

func (fs *Functions) RegisterSyscall(key uint32, s Syscall) {
	if fs.Syscalls == nil {
		fs.Syscalls = make(map[uint32]Syscall)
	}
	fs.Syscalls[key] = s
}

func (fs *Functions) RegisterFunction(key uint32, pc int) {
	if fs.Internal == nil {
		fs.Internal = make(map[uint32]int)
	}
	fs.Internal[key] = pc
}

func (fs *Functions) LookupSyscall(key uint32) (s Syscall, found bool) {
	s, found = fs.Syscalls[key]
	return
}

func (fs *Functions) LookupFunction(key uint32) (pc int, found bool) {
	pc, found = fs.Internal[key]
	return
}

// SyscallKeys in ascending order.
func (fs *Functions) SyscallKeys() (keys []uint32) {
	for key := range fs.Syscalls {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return
}
