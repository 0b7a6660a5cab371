// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fuzzutil

import (
	"gate.computer/rvjit/errors"
	"gate.computer/rvjit/sbpf"
	errs "golang.org/x/xerrors"
)

// Versions which are compiled for each input.
var Versions = []sbpf.Version{sbpf.V0, sbpf.V1, sbpf.V2, sbpf.V3}

// Program wraps input as the text of a program.
func Program(data []byte, v sbpf.Version) *sbpf.Program {
	return &sbpf.Program{
		Text:    data,
		Version: v,
	}
}

// Result of a compilation attempt.  A rejected program yields 0 and a
// compiled one yields 1.  Ok is false if err indicates a compiler bug: a
// failure which is not attributed to bytecode, or a text size or jump
// displacement that exceeds what the compiler reserved.
func Result(err error) (result int, ok bool) {
	var eprog *errors.ProgramError

	switch {
	case err == nil:
		return 1, true

	case errs.Is(err, errors.ErrExhaustedTextSegment), errs.Is(err, errors.ErrJumpOutOfRange):
		return 0, false

	case errs.As(err, &eprog):
		return 0, true

	default:
		return 0, false
	}
}
