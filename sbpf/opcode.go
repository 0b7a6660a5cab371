// Copyright (c) 2024 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sbpf

// Instruction classes.
const (
	ClassLD    = 0x00
	ClassLDX   = 0x01
	ClassST    = 0x02
	ClassSTX   = 0x03
	ClassALU32 = 0x04
	ClassJMP   = 0x05
	ClassPQR   = 0x06
	ClassJMP32 = 0x06
	ClassALU64 = 0x07
)

// Operand sizes of legacy memory instructions.
const (
	SizeW  = 0x00
	SizeH  = 0x08
	SizeB  = 0x10
	SizeDW = 0x18
)

// Operand sizes of moved memory instructions.
const (
	Size1B = 0x20
	Size2B = 0x30
	Size4B = 0x80
	Size8B = 0x90
)

const (
	ModeIMM = 0x00
	ModeMEM = 0x60

	SourceK = 0x00
	SourceX = 0x08
)

// ALU and JMP operation codes.
const (
	opADD  = 0x00
	opSUB  = 0x10
	opMUL  = 0x20
	opDIV  = 0x30
	opOR   = 0x40
	opAND  = 0x50
	opLSH  = 0x60
	opRSH  = 0x70
	opNEG  = 0x80
	opMOD  = 0x90
	opXOR  = 0xa0
	opMOV  = 0xb0
	opARSH = 0xc0
	opEND  = 0xd0
	opHOR  = 0xf0

	opLMUL  = 0x80
	opUHMUL = 0x20
	opSHMUL = 0xb0
	opUDIV  = 0x40
	opUREM  = 0x60
	opSDIV  = 0xc0
	opSREM  = 0xe0
	pqr64   = 0x10

	opJA   = 0x00
	opJEQ  = 0x10
	opJGT  = 0x20
	opJGE  = 0x30
	opJSET = 0x40
	opJNE  = 0x50
	opJSGT = 0x60
	opJSGE = 0x70
	opCALL = 0x80
	opEXIT = 0x90
	opJLT  = 0xa0
	opJLE  = 0xb0
	opJSLT = 0xc0
	opJSLE = 0xd0
)

// Opcodes.
const (
	LD_DW_IMM = ClassLD | ModeIMM | SizeDW

	LD_B_REG  = ClassLDX | ModeMEM | SizeB
	LD_H_REG  = ClassLDX | ModeMEM | SizeH
	LD_W_REG  = ClassLDX | ModeMEM | SizeW
	LD_DW_REG = ClassLDX | ModeMEM | SizeDW
	ST_B_IMM  = ClassST | ModeMEM | SizeB
	ST_H_IMM  = ClassST | ModeMEM | SizeH
	ST_W_IMM  = ClassST | ModeMEM | SizeW
	ST_DW_IMM = ClassST | ModeMEM | SizeDW
	ST_B_REG  = ClassSTX | ModeMEM | SizeB
	ST_H_REG  = ClassSTX | ModeMEM | SizeH
	ST_W_REG  = ClassSTX | ModeMEM | SizeW
	ST_DW_REG = ClassSTX | ModeMEM | SizeDW

	LD_1B_REG = ClassALU32 | SourceX | Size1B
	LD_2B_REG = ClassALU32 | SourceX | Size2B
	LD_4B_REG = ClassALU32 | SourceX | Size4B
	LD_8B_REG = ClassALU32 | SourceX | Size8B
	ST_1B_IMM = ClassALU64 | SourceK | Size1B
	ST_2B_IMM = ClassALU64 | SourceK | Size2B
	ST_4B_IMM = ClassALU64 | SourceK | Size4B
	ST_8B_IMM = ClassALU64 | SourceK | Size8B
	ST_1B_REG = ClassALU64 | SourceX | Size1B
	ST_2B_REG = ClassALU64 | SourceX | Size2B
	ST_4B_REG = ClassALU64 | SourceX | Size4B
	ST_8B_REG = ClassALU64 | SourceX | Size8B

	ADD32_IMM  = ClassALU32 | SourceK | opADD
	ADD32_REG  = ClassALU32 | SourceX | opADD
	SUB32_IMM  = ClassALU32 | SourceK | opSUB
	SUB32_REG  = ClassALU32 | SourceX | opSUB
	MUL32_IMM  = ClassALU32 | SourceK | opMUL
	MUL32_REG  = ClassALU32 | SourceX | opMUL
	DIV32_IMM  = ClassALU32 | SourceK | opDIV
	DIV32_REG  = ClassALU32 | SourceX | opDIV
	OR32_IMM   = ClassALU32 | SourceK | opOR
	OR32_REG   = ClassALU32 | SourceX | opOR
	AND32_IMM  = ClassALU32 | SourceK | opAND
	AND32_REG  = ClassALU32 | SourceX | opAND
	LSH32_IMM  = ClassALU32 | SourceK | opLSH
	LSH32_REG  = ClassALU32 | SourceX | opLSH
	RSH32_IMM  = ClassALU32 | SourceK | opRSH
	RSH32_REG  = ClassALU32 | SourceX | opRSH
	NEG32      = ClassALU32 | opNEG
	MOD32_IMM  = ClassALU32 | SourceK | opMOD
	MOD32_REG  = ClassALU32 | SourceX | opMOD
	XOR32_IMM  = ClassALU32 | SourceK | opXOR
	XOR32_REG  = ClassALU32 | SourceX | opXOR
	MOV32_IMM  = ClassALU32 | SourceK | opMOV
	MOV32_REG  = ClassALU32 | SourceX | opMOV
	ARSH32_IMM = ClassALU32 | SourceK | opARSH
	ARSH32_REG = ClassALU32 | SourceX | opARSH
	LE         = ClassALU32 | SourceK | opEND
	BE         = ClassALU32 | SourceX | opEND

	ADD64_IMM  = ClassALU64 | SourceK | opADD
	ADD64_REG  = ClassALU64 | SourceX | opADD
	SUB64_IMM  = ClassALU64 | SourceK | opSUB
	SUB64_REG  = ClassALU64 | SourceX | opSUB
	MUL64_IMM  = ClassALU64 | SourceK | opMUL
	MUL64_REG  = ClassALU64 | SourceX | opMUL
	DIV64_IMM  = ClassALU64 | SourceK | opDIV
	DIV64_REG  = ClassALU64 | SourceX | opDIV
	OR64_IMM   = ClassALU64 | SourceK | opOR
	OR64_REG   = ClassALU64 | SourceX | opOR
	AND64_IMM  = ClassALU64 | SourceK | opAND
	AND64_REG  = ClassALU64 | SourceX | opAND
	LSH64_IMM  = ClassALU64 | SourceK | opLSH
	LSH64_REG  = ClassALU64 | SourceX | opLSH
	RSH64_IMM  = ClassALU64 | SourceK | opRSH
	RSH64_REG  = ClassALU64 | SourceX | opRSH
	NEG64      = ClassALU64 | opNEG
	MOD64_IMM  = ClassALU64 | SourceK | opMOD
	MOD64_REG  = ClassALU64 | SourceX | opMOD
	XOR64_IMM  = ClassALU64 | SourceK | opXOR
	XOR64_REG  = ClassALU64 | SourceX | opXOR
	MOV64_IMM  = ClassALU64 | SourceK | opMOV
	MOV64_REG  = ClassALU64 | SourceX | opMOV
	ARSH64_IMM = ClassALU64 | SourceK | opARSH
	ARSH64_REG = ClassALU64 | SourceX | opARSH
	HOR64_IMM  = ClassALU64 | SourceK | opHOR

	LMUL32_IMM  = ClassPQR | SourceK | opLMUL
	LMUL32_REG  = ClassPQR | SourceX | opLMUL
	LMUL64_IMM  = ClassPQR | pqr64 | SourceK | opLMUL
	LMUL64_REG  = ClassPQR | pqr64 | SourceX | opLMUL
	UHMUL64_IMM = ClassPQR | pqr64 | SourceK | opUHMUL
	UHMUL64_REG = ClassPQR | pqr64 | SourceX | opUHMUL
	SHMUL64_IMM = ClassPQR | pqr64 | SourceK | opSHMUL
	SHMUL64_REG = ClassPQR | pqr64 | SourceX | opSHMUL
	UDIV32_IMM  = ClassPQR | SourceK | opUDIV
	UDIV32_REG  = ClassPQR | SourceX | opUDIV
	UDIV64_IMM  = ClassPQR | pqr64 | SourceK | opUDIV
	UDIV64_REG  = ClassPQR | pqr64 | SourceX | opUDIV
	UREM32_IMM  = ClassPQR | SourceK | opUREM
	UREM32_REG  = ClassPQR | SourceX | opUREM
	UREM64_IMM  = ClassPQR | pqr64 | SourceK | opUREM
	UREM64_REG  = ClassPQR | pqr64 | SourceX | opUREM
	SDIV32_IMM  = ClassPQR | SourceK | opSDIV
	SDIV32_REG  = ClassPQR | SourceX | opSDIV
	SDIV64_IMM  = ClassPQR | pqr64 | SourceK | opSDIV
	SDIV64_REG  = ClassPQR | pqr64 | SourceX | opSDIV
	SREM32_IMM  = ClassPQR | SourceK | opSREM
	SREM32_REG  = ClassPQR | SourceX | opSREM
	SREM64_IMM  = ClassPQR | pqr64 | SourceK | opSREM
	SREM64_REG  = ClassPQR | pqr64 | SourceX | opSREM

	JA       = ClassJMP | opJA
	JEQ_IMM  = ClassJMP | SourceK | opJEQ
	JEQ_REG  = ClassJMP | SourceX | opJEQ
	JGT_IMM  = ClassJMP | SourceK | opJGT
	JGT_REG  = ClassJMP | SourceX | opJGT
	JGE_IMM  = ClassJMP | SourceK | opJGE
	JGE_REG  = ClassJMP | SourceX | opJGE
	JSET_IMM = ClassJMP | SourceK | opJSET
	JSET_REG = ClassJMP | SourceX | opJSET
	JNE_IMM  = ClassJMP | SourceK | opJNE
	JNE_REG  = ClassJMP | SourceX | opJNE
	JSGT_IMM = ClassJMP | SourceK | opJSGT
	JSGT_REG = ClassJMP | SourceX | opJSGT
	JSGE_IMM = ClassJMP | SourceK | opJSGE
	JSGE_REG = ClassJMP | SourceX | opJSGE
	CALL_IMM = ClassJMP | SourceK | opCALL
	CALL_REG = ClassJMP | SourceX | opCALL
	EXIT     = ClassJMP | opEXIT
	JLT_IMM  = ClassJMP | SourceK | opJLT
	JLT_REG  = ClassJMP | SourceX | opJLT
	JLE_IMM  = ClassJMP | SourceK | opJLE
	JLE_REG  = ClassJMP | SourceX | opJLE
	JSLT_IMM = ClassJMP | SourceK | opJSLT
	JSLT_REG = ClassJMP | SourceX | opJSLT
	JSLE_IMM = ClassJMP | SourceK | opJSLE
	JSLE_REG = ClassJMP | SourceX | opJSLE

	JEQ32_IMM  = ClassJMP32 | SourceK | opJEQ
	JEQ32_REG  = ClassJMP32 | SourceX | opJEQ
	JGT32_IMM  = ClassJMP32 | SourceK | opJGT
	JGT32_REG  = ClassJMP32 | SourceX | opJGT
	JGE32_IMM  = ClassJMP32 | SourceK | opJGE
	JGE32_REG  = ClassJMP32 | SourceX | opJGE
	JSET32_IMM = ClassJMP32 | SourceK | opJSET
	JSET32_REG = ClassJMP32 | SourceX | opJSET
	JNE32_IMM  = ClassJMP32 | SourceK | opJNE
	JNE32_REG  = ClassJMP32 | SourceX | opJNE
	JSGT32_IMM = ClassJMP32 | SourceK | opJSGT
	JSGT32_REG = ClassJMP32 | SourceX | opJSGT
	JSGE32_IMM = ClassJMP32 | SourceK | opJSGE
	JSGE32_REG = ClassJMP32 | SourceX | opJSGE
	JLT32_IMM  = ClassJMP32 | SourceK | opJLT
	JLT32_REG  = ClassJMP32 | SourceX | opJLT
	JLE32_IMM  = ClassJMP32 | SourceK | opJLE
	JLE32_REG  = ClassJMP32 | SourceX | opJLE
	JSLT32_IMM = ClassJMP32 | SourceK | opJSLT
	JSLT32_REG = ClassJMP32 | SourceX | opJSLT
	JSLE32_IMM = ClassJMP32 | SourceK | opJSLE
	JSLE32_REG = ClassJMP32 | SourceX | opJSLE
)
