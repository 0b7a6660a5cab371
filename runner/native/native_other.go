// Copyright (c) 2024 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !(linux && riscv64 && cgo)

package native

import (
	"gate.computer/rvjit/runner"
	"golang.org/x/xerrors"
)

// ErrUnsupported is returned on hosts which cannot execute RISC-V code.
var ErrUnsupported = xerrors.New("native execution requires linux/riscv64 with cgo")

// New returns ErrUnsupported on this host.
func New() (runner.Machine, error) {
	return nil, ErrUnsupported
}
