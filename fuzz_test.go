// Copyright (c) 2024 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rvjit_test

import (
	"testing"

	"gate.computer/rvjit"
	"gate.computer/rvjit/image"
	"gate.computer/rvjit/internal/test/asm"
	"gate.computer/rvjit/internal/test/fuzzutil"
	"gate.computer/rvjit/sbpf"
)

func FuzzCompile(f *testing.F) {
	f.Add([]byte{})
	f.Add([]byte{0xff, 0xff, 0xff})
	f.Add(asm.Assemble(asm.Exit()))
	f.Add(asm.Assemble(asm.Mov64(0, 1), asm.Exit()))
	f.Add(asm.Assemble(asm.LDDW(1, 0x123456789abcdef), asm.Exit()))
	f.Add(asm.Assemble(asm.LDDW(1, 1)))
	f.Add(asm.Assemble(asm.I(sbpf.UHMUL64_IMM, 0, 0, 0, 1), asm.Exit()))
	f.Add(asm.Assemble(asm.I(sbpf.JA, 0, 0, -1, 0)))
	f.Add(asm.Assemble(asm.I(sbpf.JA, 0, 0, 100, 0), asm.Exit()))

	f.Fuzz(func(t *testing.T, data []byte) {
		for _, name := range []string{"default", "dense"} {
			config := rvjit.DefaultConfig()
			config.DiversificationSeed = data
			config.Pages = image.HeapPages
			if name == "dense" {
				config.InstructionMeterCheckpointDistance = 1
				config.NoopInstructionRate = 1
				config.EnableRegisterTracing = true
				config.EnableAddressTranslation = false
			}

			for _, v := range fuzzutil.Versions {
				p, err := rvjit.Compile(fuzzutil.Program(data, v), nil, config)
				if p != nil {
					p.Close()
				}
				if _, ok := fuzzutil.Result(err); !ok {
					t.Errorf("%s %s: %v", name, v, err)
				}
			}
		}
	})
}
