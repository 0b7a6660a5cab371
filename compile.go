// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rvjit

import (
	"crypto/rand"
	"encoding/binary"

	"gate.computer/rvjit/abi"
	"gate.computer/rvjit/errors"
	"gate.computer/rvjit/image"
	"gate.computer/rvjit/internal/isa/rv64"
	"gate.computer/rvjit/sbpf"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/xerrors"
)

const seedSize = 32

// Compile bytecode into machine code.  Registry resolves the targets of call
// instructions.  Default configuration is used if config is nil.
func Compile(prog *sbpf.Program, registry abi.Registry, config *Config) (p *Program, err error) {
	if config == nil {
		config = DefaultConfig()
	}
	if registry == nil {
		registry = new(abi.Functions)
	}

	pages := config.Pages
	if pages == nil {
		pages = image.DefaultPages
	}

	seed, err := diversificationSeed(config.DiversificationSeed, prog.Text)
	if err != nil {
		return
	}

	// The low-level compiler API takes options in terms of the target
	// architecture.

	opts := &rv64.Options{
		EnableInstructionMeter:   config.EnableInstructionMeter,
		CheckpointDistance:       config.InstructionMeterCheckpointDistance,
		SanitizeImmediates:       config.SanitizeUserProvidedValues,
		EnableTracing:            config.EnableRegisterTracing,
		NoopRate:                 config.NoopInstructionRate,
		StackFrameSize:           config.StackFrameSize,
		EnableStackFrameGaps:     config.EnableStackFrameGaps,
		MaxCallDepth:             config.MaxCallDepth,
		EnableAddressTranslation: config.EnableAddressTranslation,
		Seed:                     seed,
		TextSize:                 config.MaxTextSize,
	}

	exe, err := rv64.Compile(prog, registry, opts, pages)
	if err != nil {
		return
	}

	p = &Program{
		exe:     exe,
		config:  *config,
		version: prog.Version,
		vmaddr:  prog.TextVMAddr(),
		entryPC: prog.EntryPC,
	}
	return
}

// diversificationSeed mixes the configured or random seed with the
// bytecode.
func diversificationSeed(seed, text []byte) (uint64, error) {
	if seed == nil {
		seed = make([]byte, seedSize)
		if _, err := rand.Read(seed); err != nil {
			return 0, xerrors.Errorf("random seed: %v: %w", err, errors.ErrJitNotCompiled)
		}
	}

	h, err := blake2b.New256(nil)
	if err != nil {
		panic(err)
	}
	h.Write(seed)
	h.Write(text)
	return binary.LittleEndian.Uint64(h.Sum(nil)), nil
}
