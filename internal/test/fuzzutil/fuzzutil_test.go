// Copyright (c) 2024 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fuzzutil

import (
	"testing"

	"gate.computer/rvjit/errors"
	internal "gate.computer/rvjit/internal/errors"
	"golang.org/x/xerrors"
)

func TestResult(t *testing.T) {
	for _, x := range []struct {
		err    error
		result int
		ok     bool
	}{
		{nil, 1, true},
		{internal.Wrap(3, errors.ErrInvalidInstruction), 0, true},
		{internal.Wrap(0, errors.ErrUnsupportedInstruction), 0, true},
		{internal.Wrap(9, errors.ErrExhaustedTextSegment), 0, false},
		{internal.Wrap(9, errors.ErrJumpOutOfRange), 0, false},
		{xerrors.New("internal"), 0, false},
	} {
		result, ok := Result(x.err)
		if result != x.result || ok != x.ok {
			t.Errorf("%v: %d %v", x.err, result, ok)
		}
	}
}
