// Copyright (c) 2024 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package in

// Major opcodes.
const (
	opLoad    = 0x03
	opOpImm   = 0x13
	opAUIPC   = 0x17
	opOpImm32 = 0x1b
	opStore   = 0x23
	opOp      = 0x33
	opLUI     = 0x37
	opOp32    = 0x3b
	opBranch  = 0x63
	opJALR    = 0x67
	opJAL     = 0x6f
	opSystem  = 0x73
)

// Major opcode values exported for instruction classification.
const (
	OpcodeLoad    = opLoad
	OpcodeOpImm   = opOpImm
	OpcodeAUIPC   = opAUIPC
	OpcodeOpImm32 = opOpImm32
	OpcodeStore   = opStore
	OpcodeOp      = opOp
	OpcodeLUI     = opLUI
	OpcodeOp32    = opOp32
	OpcodeBranch  = opBranch
	OpcodeJALR    = opJALR
	OpcodeJAL     = opJAL
	OpcodeSystem  = opSystem
)

const (
	// Integer register-immediate
	ADDI  = RegRegImm12(0<<12 | opOpImm)
	SLTI  = RegRegImm12(2<<12 | opOpImm)
	SLTIU = RegRegImm12(3<<12 | opOpImm)
	XORI  = RegRegImm12(4<<12 | opOpImm)
	ORI   = RegRegImm12(6<<12 | opOpImm)
	ANDI  = RegRegImm12(7<<12 | opOpImm)
	ADDIW = RegRegImm12(0<<12 | opOpImm32)

	SLLI = RegRegShamt6(0x00<<26 | 1<<12 | opOpImm)
	SRLI = RegRegShamt6(0x00<<26 | 5<<12 | opOpImm)
	SRAI = RegRegShamt6(0x10<<26 | 5<<12 | opOpImm)

	SLLIW = RegRegShamt5(0x00<<25 | 1<<12 | opOpImm32)
	SRLIW = RegRegShamt5(0x00<<25 | 5<<12 | opOpImm32)
	SRAIW = RegRegShamt5(0x20<<25 | 5<<12 | opOpImm32)

	// Loads
	LB  = RegRegImm12(0<<12 | opLoad)
	LH  = RegRegImm12(1<<12 | opLoad)
	LW  = RegRegImm12(2<<12 | opLoad)
	LD  = RegRegImm12(3<<12 | opLoad)
	LBU = RegRegImm12(4<<12 | opLoad)
	LHU = RegRegImm12(5<<12 | opLoad)
	LWU = RegRegImm12(6<<12 | opLoad)

	// Stores
	SB = RegRegStore(0<<12 | opStore)
	SH = RegRegStore(1<<12 | opStore)
	SW = RegRegStore(2<<12 | opStore)
	SD = RegRegStore(3<<12 | opStore)

	// Integer register-register
	ADD  = RegRegReg(0x00<<25 | 0<<12 | opOp)
	SUB  = RegRegReg(0x20<<25 | 0<<12 | opOp)
	SLL  = RegRegReg(0x00<<25 | 1<<12 | opOp)
	SLT  = RegRegReg(0x00<<25 | 2<<12 | opOp)
	SLTU = RegRegReg(0x00<<25 | 3<<12 | opOp)
	XOR  = RegRegReg(0x00<<25 | 4<<12 | opOp)
	SRL  = RegRegReg(0x00<<25 | 5<<12 | opOp)
	SRA  = RegRegReg(0x20<<25 | 5<<12 | opOp)
	OR   = RegRegReg(0x00<<25 | 6<<12 | opOp)
	AND  = RegRegReg(0x00<<25 | 7<<12 | opOp)

	ADDW = RegRegReg(0x00<<25 | 0<<12 | opOp32)
	SUBW = RegRegReg(0x20<<25 | 0<<12 | opOp32)
	SLLW = RegRegReg(0x00<<25 | 1<<12 | opOp32)
	SRLW = RegRegReg(0x00<<25 | 5<<12 | opOp32)
	SRAW = RegRegReg(0x20<<25 | 5<<12 | opOp32)

	// Multiplication and division
	MUL    = RegRegReg(0x01<<25 | 0<<12 | opOp)
	MULH   = RegRegReg(0x01<<25 | 1<<12 | opOp)
	MULHSU = RegRegReg(0x01<<25 | 2<<12 | opOp)
	MULHU  = RegRegReg(0x01<<25 | 3<<12 | opOp)
	DIV    = RegRegReg(0x01<<25 | 4<<12 | opOp)
	DIVU   = RegRegReg(0x01<<25 | 5<<12 | opOp)
	REM    = RegRegReg(0x01<<25 | 6<<12 | opOp)
	REMU   = RegRegReg(0x01<<25 | 7<<12 | opOp)

	MULW  = RegRegReg(0x01<<25 | 0<<12 | opOp32)
	DIVW  = RegRegReg(0x01<<25 | 4<<12 | opOp32)
	DIVUW = RegRegReg(0x01<<25 | 5<<12 | opOp32)
	REMW  = RegRegReg(0x01<<25 | 6<<12 | opOp32)
	REMUW = RegRegReg(0x01<<25 | 7<<12 | opOp32)

	// Conditional branches
	BEQ  = RegRegDisp13(0<<12 | opBranch)
	BNE  = RegRegDisp13(1<<12 | opBranch)
	BLT  = RegRegDisp13(4<<12 | opBranch)
	BGE  = RegRegDisp13(5<<12 | opBranch)
	BLTU = RegRegDisp13(6<<12 | opBranch)
	BGEU = RegRegDisp13(7<<12 | opBranch)

	// Upper immediate
	LUI   = RegImm20(opLUI)
	AUIPC = RegImm20(opAUIPC)

	// Jumps
	JAL  = RegDisp21(opJAL)
	JALR = RegRegImm12(0<<12 | opJALR)
)

// Fixed instruction words.
const (
	NOP    = uint32(opOpImm)          // addi zero, zero, 0
	EBREAK = uint32(1<<20 | opSystem) // 0x00100073
	RET    = uint32(RA<<15 | opJALR)  // jalr zero, 0(ra)
)
