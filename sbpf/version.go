// Copyright (c) 2024 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sbpf

import (
	"strings"
)

// Feature flags of a bytecode version.
type Feature uint32

const (
	EnablePQR Feature = 1 << iota
	EnableJmp32
	ExplicitSignExtension
	SwapSubRegImm
	DisableNeg
	DisableLDDW
	DisableLE
	MoveMemoryClasses
	StaticSyscalls
	ManualStackFrameBump
	CallxUsesDstReg
	CallxUsesSrcReg

	numFeatures = iota
)

var featureNames = [numFeatures]string{
	"pqr",
	"jmp32",
	"explicit-sign-extension",
	"swap-sub-reg-imm",
	"disable-neg",
	"disable-lddw",
	"disable-le",
	"move-memory-classes",
	"static-syscalls",
	"manual-stack-frame-bump",
	"callx-uses-dst-reg",
	"callx-uses-src-reg",
}

// Version of the bytecode format, as a set of features.
type Version struct {
	Features Feature
}

// Predefined versions.
var (
	V0 = Version{}
	V1 = Version{ManualStackFrameBump | CallxUsesDstReg}
	V2 = Version{ManualStackFrameBump | CallxUsesDstReg | EnablePQR | ExplicitSignExtension | SwapSubRegImm | DisableNeg | CallxUsesSrcReg | DisableLDDW | DisableLE | MoveMemoryClasses}
	V3 = Version{ManualStackFrameBump | CallxUsesDstReg | ExplicitSignExtension | SwapSubRegImm | DisableNeg | CallxUsesSrcReg | DisableLDDW | DisableLE | MoveMemoryClasses | StaticSyscalls | EnableJmp32}
)

func (v Version) Has(f Feature) bool {
	return v.Features&f == f
}

func (v Version) With(f Feature) Version {
	return Version{v.Features | f}
}

func (v Version) Without(f Feature) Version {
	return Version{v.Features &^ f}
}

func (v Version) String() string {
	var names []string
	for i, name := range featureNames {
		if v.Features&(1<<uint(i)) != 0 {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "v0"
	}
	return strings.Join(names, ",")
}
