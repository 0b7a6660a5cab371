// Copyright (c) 2024 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package links

import (
	"fmt"

	"gate.computer/rvjit/internal/code"
	"gate.computer/rvjit/internal/errors"
	"gate.computer/rvjit/internal/isa/rv64/in"
)

// Jump is a forward branch whose target was not known when it was emitted.
// Site is the address of a conditional branch, a jal, or the auipc of an
// auipc+jalr pair.
type Jump struct {
	Site   int32
	Target int // Bytecode pc.
	PC     int // Bytecode pc of the jump instruction.
}

// Table maps bytecode pcs to text addresses.
type Table interface {
	TextAddr(pc int) (addr int32, ok bool)
}

// Resolve patches the displacement of every deferred jump.  The displacement
// is relative to the patched instruction.  A target without a table entry is
// an internal error.
func Resolve(text *code.Buf, jumps []Jump, table Table) {
	for _, j := range jumps {
		addr, ok := table.TextAddr(j.Target)
		if !ok {
			panic(fmt.Sprintf("jump target pc %d has no text address", j.Target))
		}
		Patch(text, j.Site, addr, j.PC)
	}
}

// Patch the instruction at site to transfer control to addr.  The format is
// determined by decoding the existing word.
func Patch(text *code.Buf, site, addr int32, pc int) {
	disp := addr - site
	word := text.Uint32At(site)

	switch word & 0x7f {
	case in.OpcodeBranch:
		if !in.FitsDisp13(int64(disp)) {
			errors.Atf(pc, errors.ErrJumpOutOfRange, "branch displacement %d", disp)
		}
		text.PutUint32At(site, word&^in.Disp13(-2)|in.Disp13(disp))

	case in.OpcodeJAL:
		if !in.FitsDisp21(int64(disp)) {
			errors.Atf(pc, errors.ErrJumpOutOfRange, "jump displacement %d", disp)
		}
		text.PutUint32At(site, word&^in.Disp21(-2)|in.Disp21(disp))

	case in.OpcodeAUIPC:
		hi, lo := in.HiLo(disp)
		text.PutUint32At(site, word&0xfff|uint32(hi)<<12)
		jalr := text.Uint32At(site + 4)
		text.PutUint32At(site+4, jalr&0xfffff|in.Int12(lo)<<20)

	default:
		panic(fmt.Sprintf("cannot patch instruction 0x%08x at 0x%x", word, site))
	}
}
