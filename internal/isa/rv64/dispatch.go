// Copyright (c) 2024 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rv64

import (
	"gate.computer/rvjit/internal/isa/rv64/in"
	"gate.computer/rvjit/sbpf"
	"golang.org/x/xerrors"
)

// ErrConflictingRules is returned for a feature set under which an opcode
// would have more than one meaning.
var ErrConflictingRules = xerrors.New("conflicting code generation rules")

type genFunc func(*compiler, sbpf.Insn)

type rule struct {
	opcode  uint8
	require sbpf.Feature // All must be enabled.
	exclude sbpf.Feature // None may be enabled.
	gen     genFunc
}

func (r *rule) enabled(v sbpf.Version) bool {
	return v.Has(r.require) && v.Features&r.exclude == 0
}

// Table of code generation rules for a bytecode version, indexed by opcode.
type Table [256]*rule

// NewTable selects the rules enabled by a version.
func NewTable(v sbpf.Version) (t *Table, err error) {
	t = new(Table)
	for i := range rules {
		r := &rules[i]
		if !r.enabled(v) {
			continue
		}
		if t[r.opcode] != nil {
			err = xerrors.Errorf("opcode 0x%02x in version %v: %w", r.opcode, v, ErrConflictingRules)
			return nil, err
		}
		t[r.opcode] = r
	}
	return
}

// Has reports whether an opcode is implemented by the table.
func (t *Table) Has(opcode uint8) bool {
	return t[opcode] != nil
}

// known opcodes are valid in some version.
var known [256]bool

func init() {
	for _, r := range rules {
		known[r.opcode] = true
	}
}

// Known reports whether an opcode is valid in some version.
func Known(opcode uint8) bool {
	return known[opcode]
}

const (
	legacyMemory = sbpf.MoveMemoryClasses
	legacyMulDiv = sbpf.EnablePQR | sbpf.MoveMemoryClasses
)

var rules = []rule{
	{sbpf.LD_DW_IMM, 0, sbpf.DisableLDDW, genLoadDW},

	{sbpf.LD_B_REG, 0, legacyMemory, genLoad(0)},
	{sbpf.LD_H_REG, 0, legacyMemory, genLoad(1)},
	{sbpf.LD_W_REG, 0, legacyMemory, genLoad(2)},
	{sbpf.LD_DW_REG, 0, legacyMemory, genLoad(3)},
	{sbpf.ST_B_IMM, 0, legacyMemory, genStoreImm(0)},
	{sbpf.ST_H_IMM, 0, legacyMemory, genStoreImm(1)},
	{sbpf.ST_W_IMM, 0, legacyMemory, genStoreImm(2)},
	{sbpf.ST_DW_IMM, 0, legacyMemory, genStoreImm(3)},
	{sbpf.ST_B_REG, 0, legacyMemory, genStoreReg(0)},
	{sbpf.ST_H_REG, 0, legacyMemory, genStoreReg(1)},
	{sbpf.ST_W_REG, 0, legacyMemory, genStoreReg(2)},
	{sbpf.ST_DW_REG, 0, legacyMemory, genStoreReg(3)},

	{sbpf.LD_1B_REG, sbpf.MoveMemoryClasses, 0, genLoad(0)},
	{sbpf.LD_2B_REG, sbpf.MoveMemoryClasses, 0, genLoad(1)},
	{sbpf.LD_4B_REG, sbpf.MoveMemoryClasses, 0, genLoad(2)},
	{sbpf.LD_8B_REG, sbpf.MoveMemoryClasses, 0, genLoad(3)},
	{sbpf.ST_1B_IMM, sbpf.MoveMemoryClasses, 0, genStoreImm(0)},
	{sbpf.ST_2B_IMM, sbpf.MoveMemoryClasses, 0, genStoreImm(1)},
	{sbpf.ST_4B_IMM, sbpf.MoveMemoryClasses, 0, genStoreImm(2)},
	{sbpf.ST_8B_IMM, sbpf.MoveMemoryClasses, 0, genStoreImm(3)},
	{sbpf.ST_1B_REG, sbpf.MoveMemoryClasses, 0, genStoreReg(0)},
	{sbpf.ST_2B_REG, sbpf.MoveMemoryClasses, 0, genStoreReg(1)},
	{sbpf.ST_4B_REG, sbpf.MoveMemoryClasses, 0, genStoreReg(2)},
	{sbpf.ST_8B_REG, sbpf.MoveMemoryClasses, 0, genStoreReg(3)},

	{sbpf.ADD32_IMM, 0, 0, genALUImm(in.ADDW, in.ADDIW, extResult)},
	{sbpf.ADD32_REG, 0, 0, genALUReg(in.ADDW, extResult)},
	{sbpf.SUB32_IMM, 0, 0, genSubImm(true)},
	{sbpf.SUB32_REG, 0, 0, genALUReg(in.SUBW, extResult)},
	{sbpf.MUL32_IMM, 0, sbpf.EnablePQR, genMul(in.MULW, extResult, false)},
	{sbpf.MUL32_REG, 0, legacyMulDiv, genMul(in.MULW, extResult, false)},
	{sbpf.DIV32_IMM, 0, sbpf.EnablePQR, genDiv(in.DIVUW, true, false, false)},
	{sbpf.DIV32_REG, 0, legacyMulDiv, genDiv(in.DIVUW, true, false, false)},
	{sbpf.MOD32_IMM, 0, sbpf.EnablePQR, genDiv(in.REMUW, true, false, false)},
	{sbpf.MOD32_REG, 0, legacyMulDiv, genDiv(in.REMUW, true, false, false)},
	{sbpf.OR32_IMM, 0, 0, genALUImm(in.OR, in.ORI, extZero)},
	{sbpf.OR32_REG, 0, 0, genALUReg(in.OR, extZero)},
	{sbpf.AND32_IMM, 0, 0, genALUImm(in.AND, in.ANDI, extZero)},
	{sbpf.AND32_REG, 0, 0, genALUReg(in.AND, extZero)},
	{sbpf.XOR32_IMM, 0, 0, genALUImm(in.XOR, in.XORI, extZero)},
	{sbpf.XOR32_REG, 0, 0, genALUReg(in.XOR, extZero)},
	{sbpf.LSH32_IMM, 0, 0, genShiftImm32(in.SLLIW)},
	{sbpf.LSH32_REG, 0, 0, genALUReg(in.SLLW, extZero)},
	{sbpf.RSH32_IMM, 0, 0, genShiftImm32(in.SRLIW)},
	{sbpf.RSH32_REG, 0, 0, genALUReg(in.SRLW, extZero)},
	{sbpf.ARSH32_IMM, 0, 0, genShiftImm32(in.SRAIW)},
	{sbpf.ARSH32_REG, 0, 0, genALUReg(in.SRAW, extZero)},
	{sbpf.NEG32, 0, sbpf.DisableNeg, genNeg(in.SUBW, extZero)},
	{sbpf.MOV32_IMM, 0, 0, genMov32Imm},
	{sbpf.MOV32_REG, 0, 0, genMov32Reg},
	{sbpf.LE, 0, sbpf.DisableLE, genLE},
	{sbpf.BE, 0, 0, genBE},

	{sbpf.ADD64_IMM, 0, 0, genALUImm(in.ADD, in.ADDI, extNone)},
	{sbpf.ADD64_REG, 0, 0, genALUReg(in.ADD, extNone)},
	{sbpf.SUB64_IMM, 0, 0, genSubImm(false)},
	{sbpf.SUB64_REG, 0, 0, genALUReg(in.SUB, extNone)},
	{sbpf.MUL64_IMM, 0, legacyMulDiv, genMul(in.MUL, extNone, false)},
	{sbpf.MUL64_REG, 0, legacyMulDiv, genMul(in.MUL, extNone, false)},
	{sbpf.DIV64_IMM, 0, legacyMulDiv, genDiv(in.DIVU, false, false, false)},
	{sbpf.DIV64_REG, 0, legacyMulDiv, genDiv(in.DIVU, false, false, false)},
	{sbpf.MOD64_IMM, 0, legacyMulDiv, genDiv(in.REMU, false, false, false)},
	{sbpf.MOD64_REG, 0, legacyMulDiv, genDiv(in.REMU, false, false, false)},
	{sbpf.OR64_IMM, 0, 0, genALUImm(in.OR, in.ORI, extNone)},
	{sbpf.OR64_REG, 0, 0, genALUReg(in.OR, extNone)},
	{sbpf.AND64_IMM, 0, 0, genALUImm(in.AND, in.ANDI, extNone)},
	{sbpf.AND64_REG, 0, 0, genALUReg(in.AND, extNone)},
	{sbpf.XOR64_IMM, 0, 0, genALUImm(in.XOR, in.XORI, extNone)},
	{sbpf.XOR64_REG, 0, 0, genALUReg(in.XOR, extNone)},
	{sbpf.LSH64_IMM, 0, 0, genShiftImm64(in.SLLI)},
	{sbpf.LSH64_REG, 0, 0, genALUReg(in.SLL, extNone)},
	{sbpf.RSH64_IMM, 0, 0, genShiftImm64(in.SRLI)},
	{sbpf.RSH64_REG, 0, 0, genALUReg(in.SRL, extNone)},
	{sbpf.ARSH64_IMM, 0, 0, genShiftImm64(in.SRAI)},
	{sbpf.ARSH64_REG, 0, 0, genALUReg(in.SRA, extNone)},
	{sbpf.NEG64, 0, sbpf.DisableNeg, genNeg(in.SUB, extNone)},
	{sbpf.MOV64_IMM, 0, 0, genMov64Imm},
	{sbpf.MOV64_REG, 0, 0, genMov64Reg},
	{sbpf.HOR64_IMM, sbpf.DisableLDDW, 0, genHor64Imm},

	{sbpf.LMUL32_IMM, sbpf.EnablePQR, 0, genMul(in.MULW, extZero, false)},
	{sbpf.LMUL32_REG, sbpf.EnablePQR, 0, genMul(in.MULW, extZero, false)},
	{sbpf.LMUL64_IMM, sbpf.EnablePQR, 0, genMul(in.MUL, extNone, false)},
	{sbpf.LMUL64_REG, sbpf.EnablePQR, 0, genMul(in.MUL, extNone, false)},
	{sbpf.UHMUL64_IMM, sbpf.EnablePQR, 0, genMul(in.MULHU, extNone, true)},
	{sbpf.UHMUL64_REG, sbpf.EnablePQR, 0, genMul(in.MULHU, extNone, true)},
	{sbpf.SHMUL64_IMM, sbpf.EnablePQR, 0, genMul(in.MULH, extNone, false)},
	{sbpf.SHMUL64_REG, sbpf.EnablePQR, 0, genMul(in.MULH, extNone, false)},
	{sbpf.UDIV32_IMM, sbpf.EnablePQR, 0, genDiv(in.DIVUW, true, false, true)},
	{sbpf.UDIV32_REG, sbpf.EnablePQR, 0, genDiv(in.DIVUW, true, false, true)},
	{sbpf.UDIV64_IMM, sbpf.EnablePQR, 0, genDiv(in.DIVU, false, false, true)},
	{sbpf.UDIV64_REG, sbpf.EnablePQR, 0, genDiv(in.DIVU, false, false, true)},
	{sbpf.UREM32_IMM, sbpf.EnablePQR, 0, genDiv(in.REMUW, true, false, true)},
	{sbpf.UREM32_REG, sbpf.EnablePQR, 0, genDiv(in.REMUW, true, false, true)},
	{sbpf.UREM64_IMM, sbpf.EnablePQR, 0, genDiv(in.REMU, false, false, true)},
	{sbpf.UREM64_REG, sbpf.EnablePQR, 0, genDiv(in.REMU, false, false, true)},
	{sbpf.SDIV32_IMM, sbpf.EnablePQR, 0, genDiv(in.DIVW, true, true, false)},
	{sbpf.SDIV32_REG, sbpf.EnablePQR, 0, genDiv(in.DIVW, true, true, false)},
	{sbpf.SDIV64_IMM, sbpf.EnablePQR, 0, genDiv(in.DIV, false, true, false)},
	{sbpf.SDIV64_REG, sbpf.EnablePQR, 0, genDiv(in.DIV, false, true, false)},
	{sbpf.SREM32_IMM, sbpf.EnablePQR, 0, genDiv(in.REMW, true, true, false)},
	{sbpf.SREM32_REG, sbpf.EnablePQR, 0, genDiv(in.REMW, true, true, false)},
	{sbpf.SREM64_IMM, sbpf.EnablePQR, 0, genDiv(in.REM, false, true, false)},
	{sbpf.SREM64_REG, sbpf.EnablePQR, 0, genDiv(in.REM, false, true, false)},

	{sbpf.JA, 0, 0, genJA},
	{sbpf.JEQ_IMM, 0, 0, genBranch(in.BEQ, false, false, false)},
	{sbpf.JEQ_REG, 0, 0, genBranch(in.BEQ, false, false, false)},
	{sbpf.JGT_IMM, 0, 0, genBranch(in.BLTU, true, false, false)},
	{sbpf.JGT_REG, 0, 0, genBranch(in.BLTU, true, false, false)},
	{sbpf.JGE_IMM, 0, 0, genBranch(in.BGEU, false, false, false)},
	{sbpf.JGE_REG, 0, 0, genBranch(in.BGEU, false, false, false)},
	{sbpf.JLT_IMM, 0, 0, genBranch(in.BLTU, false, false, false)},
	{sbpf.JLT_REG, 0, 0, genBranch(in.BLTU, false, false, false)},
	{sbpf.JLE_IMM, 0, 0, genBranch(in.BGEU, true, false, false)},
	{sbpf.JLE_REG, 0, 0, genBranch(in.BGEU, true, false, false)},
	{sbpf.JSET_IMM, 0, 0, genJSet(false)},
	{sbpf.JSET_REG, 0, 0, genJSet(false)},
	{sbpf.JNE_IMM, 0, 0, genBranch(in.BNE, false, false, false)},
	{sbpf.JNE_REG, 0, 0, genBranch(in.BNE, false, false, false)},
	{sbpf.JSGT_IMM, 0, 0, genBranch(in.BLT, true, false, true)},
	{sbpf.JSGT_REG, 0, 0, genBranch(in.BLT, true, false, true)},
	{sbpf.JSGE_IMM, 0, 0, genBranch(in.BGE, false, false, true)},
	{sbpf.JSGE_REG, 0, 0, genBranch(in.BGE, false, false, true)},
	{sbpf.JSLT_IMM, 0, 0, genBranch(in.BLT, false, false, true)},
	{sbpf.JSLT_REG, 0, 0, genBranch(in.BLT, false, false, true)},
	{sbpf.JSLE_IMM, 0, 0, genBranch(in.BGE, true, false, true)},
	{sbpf.JSLE_REG, 0, 0, genBranch(in.BGE, true, false, true)},
	{sbpf.CALL_IMM, 0, 0, genCallImm},
	{sbpf.CALL_REG, 0, 0, genCallReg},
	{sbpf.EXIT, 0, 0, genExit},

	{sbpf.JEQ32_IMM, sbpf.EnableJmp32, 0, genBranch(in.BEQ, false, true, false)},
	{sbpf.JEQ32_REG, sbpf.EnableJmp32, 0, genBranch(in.BEQ, false, true, false)},
	{sbpf.JGT32_IMM, sbpf.EnableJmp32, 0, genBranch(in.BLTU, true, true, false)},
	{sbpf.JGT32_REG, sbpf.EnableJmp32, 0, genBranch(in.BLTU, true, true, false)},
	{sbpf.JGE32_IMM, sbpf.EnableJmp32, 0, genBranch(in.BGEU, false, true, false)},
	{sbpf.JGE32_REG, sbpf.EnableJmp32, 0, genBranch(in.BGEU, false, true, false)},
	{sbpf.JLT32_IMM, sbpf.EnableJmp32, 0, genBranch(in.BLTU, false, true, false)},
	{sbpf.JLT32_REG, sbpf.EnableJmp32, 0, genBranch(in.BLTU, false, true, false)},
	{sbpf.JLE32_IMM, sbpf.EnableJmp32, 0, genBranch(in.BGEU, true, true, false)},
	{sbpf.JLE32_REG, sbpf.EnableJmp32, 0, genBranch(in.BGEU, true, true, false)},
	{sbpf.JSET32_IMM, sbpf.EnableJmp32, 0, genJSet(true)},
	{sbpf.JSET32_REG, sbpf.EnableJmp32, 0, genJSet(true)},
	{sbpf.JNE32_IMM, sbpf.EnableJmp32, 0, genBranch(in.BNE, false, true, false)},
	{sbpf.JNE32_REG, sbpf.EnableJmp32, 0, genBranch(in.BNE, false, true, false)},
	{sbpf.JSGT32_IMM, sbpf.EnableJmp32, 0, genBranch(in.BLT, true, true, true)},
	{sbpf.JSGT32_REG, sbpf.EnableJmp32, 0, genBranch(in.BLT, true, true, true)},
	{sbpf.JSGE32_IMM, sbpf.EnableJmp32, 0, genBranch(in.BGE, false, true, true)},
	{sbpf.JSGE32_REG, sbpf.EnableJmp32, 0, genBranch(in.BGE, false, true, true)},
	{sbpf.JSLT32_IMM, sbpf.EnableJmp32, 0, genBranch(in.BLT, false, true, true)},
	{sbpf.JSLT32_REG, sbpf.EnableJmp32, 0, genBranch(in.BLT, false, true, true)},
	{sbpf.JSLE32_IMM, sbpf.EnableJmp32, 0, genBranch(in.BGE, true, true, true)},
	{sbpf.JSLE32_REG, sbpf.EnableJmp32, 0, genBranch(in.BGE, true, true, true)},
}
