// Copyright (c) 2024 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runner

import (
	"sort"

	"gate.computer/rvjit/abi"
	"github.com/spaolacci/murmur3"
	"golang.org/x/xerrors"
)

// ErrUnknownSyscall is the error of an execution which invoked a syscall
// cookie that is not registered in its Syscalls.
var ErrUnknownSyscall = xerrors.New("unknown syscall")

// SyscallFunc implements a host function.  An error aborts execution with
// the trap.SyscallError trap.
type SyscallFunc func(ctx *Context, args [5]uint64) (result uint64, err error)

// Context of a syscall invocation.
type Context struct {
	x    *execution
	cost uint64
}

// Memory of the program.
func (ctx *Context) Memory() Memory {
	return ctx.x.memory
}

// Data attached to the execution.
func (ctx *Context) Data() interface{} {
	return ctx.x.data
}

// Remaining instruction budget.
func (ctx *Context) Remaining() uint64 {
	if ctx.x.metered {
		if due := ctx.x.env.DueInsnCount; due > ctx.cost {
			return due - ctx.cost
		}
		return 0
	}
	return ^uint64(0)
}

// Consume instruction budget.  Running out of budget stops execution at the
// next meter check after the syscall.
func (ctx *Context) Consume(n uint64) {
	ctx.cost += n
}

// SymbolHash converts a function name into a key.
func SymbolHash(name string) uint32 {
	return murmur3.Sum32([]byte(name))
}

type hostFunc struct {
	name string
	fn   SyscallFunc
}

// Syscalls is a set of host functions.  The zero value is empty.
type Syscalls struct {
	funcs map[uint32]hostFunc
}

// Register a function under the hash of its name.
func (s *Syscalls) Register(name string, fn SyscallFunc) (key uint32) {
	key = SymbolHash(name)
	s.RegisterKey(key, name, fn)
	return
}

// RegisterKey registers a function under an explicit key.
func (s *Syscalls) RegisterKey(key uint32, name string, fn SyscallFunc) {
	if s.funcs == nil {
		s.funcs = make(map[uint32]hostFunc)
	}
	s.funcs[key] = hostFunc{name, fn}
}

// Name of a registered function.
func (s *Syscalls) Name(key uint32) (name string, found bool) {
	f, found := s.funcs[key]
	return f.name, found
}

// Keys in ascending order.
func (s *Syscalls) Keys() (keys []uint32) {
	for key := range s.funcs {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return
}

// Bind the functions to a machine.  The registry can be passed to the
// compiler.
func (s *Syscalls) Bind(m Machine, registry *abi.Functions) {
	for key := range s.funcs {
		registry.RegisterSyscall(key, abi.Syscall{
			Addr:   m.SyscallAddr(),
			Cookie: uint64(key),
		})
	}
}
