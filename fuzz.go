// Copyright (c) 2016 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build gofuzz

package rvjit

import (
	"gate.computer/rvjit/image"
	"gate.computer/rvjit/internal/test/fuzzutil"

	_ "github.com/dvyukov/go-fuzz/go-fuzz-dep" // Instrumentation runtime of go-fuzz-build.
)

func Fuzz(data []byte) (result int) {
	config := DefaultConfig()
	config.InstructionMeterCheckpointDistance = 1
	config.NoopInstructionRate = 1
	config.EnableRegisterTracing = true
	config.DiversificationSeed = data
	config.Pages = image.HeapPages

	for _, v := range fuzzutil.Versions {
		p, err := Compile(fuzzutil.Program(data, v), nil, config)
		if p != nil {
			p.Close()
		}

		n, ok := fuzzutil.Result(err)
		if !ok {
			panic(err)
		}
		result |= n
	}
	return
}
