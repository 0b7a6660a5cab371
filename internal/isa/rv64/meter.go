// Copyright (c) 2024 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rv64

import (
	"gate.computer/rvjit/internal/isa/rv64/in"
)

// The meter register holds the instruction budget biased by the program
// counter: execution may continue at pc while pc is less than the meter.
// Control transfers to a different pc adjust the meter so that the bias
// stays correct.

// validateMeter checks the budget at a given pc.  RegScratch is left
// holding the pc.
func (c *compiler) validateMeter(pc int) {
	if !c.opts.EnableInstructionMeter {
		return
	}
	c.liValue(RegScratch, int64(pc))
	c.validateMeterScratch()
	c.lastCheckpoint = pc
}

// validateMeterScratch checks the budget at the pc in RegScratch.
func (c *compiler) validateMeterScratch() {
	if c.opts.EnableInstructionMeter {
		c.branchAnchor(in.BGEU, RegScratch, RegMeter, AnchorExceededMaxInstructions)
	}
}

// profile accounts for a transfer from the current pc to target.
func (c *compiler) profile(target int) {
	if c.opts.EnableInstructionMeter {
		c.addImm(RegMeter, int64(target)-int64(c.pc)-1)
	}
}

// profileScratch accounts for a transfer to the pc in RegScratch.
func (c *compiler) profileScratch() {
	if c.opts.EnableInstructionMeter {
		c.insn(in.ADD.RdRs1Rs2(RegMeter, RegMeter, RegScratch))
		c.addImm(RegMeter, -int64(c.pc)-1)
	}
}

// undo reverses profile(target) when the transfer did not happen.
func (c *compiler) undo(target int) {
	if c.opts.EnableInstructionMeter {
		c.addImm(RegMeter, int64(c.pc)+1-int64(target))
	}
}

func (c *compiler) validateAndProfile(target int) {
	c.validateMeter(c.pc)
	c.profile(target)
}
