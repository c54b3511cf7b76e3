// This file is part of cortexm.
//
// cortexm is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// cortexm is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with cortexm.  If not, see <https://www.gnu.org/licenses/>.

package nvic

import (
	"github.com/jetsetilly/cortexm/logger"
)

// the register offsets of the system control block, relative to 0xe000ed00
const (
	scbCPUID = 0x00
	scbICSR  = 0x04
)

// bits in the ICSR register
const (
	icsrPendSVSet  = 0x10000000
	icsrPendSVClr  = 0x08000000
	icsrPendSTSet  = 0x04000000
	icsrPendSTClr  = 0x02000000
	icsrVectActive = 0x000001ff
)

// value of the CPUID register of a Cortex-M4 r0p1
const cpuid = 0x410fc241

// SCBBank is the memory mapped register bank of the system control block.
//
// Only ICSR is implemented. Writing PENDSVSET or PENDSTSET asserts the PendSV
// or SysTick exception and writing PENDSVCLR or PENDSTCLR clears it. Reading
// ICSR reports the pending state of both exceptions and the active exception
// in VECTACTIVE. CPUID reads as a Cortex-M4. Every other register stores the
// written value without effect. In particular, writing VTOR does not move the
// vector table, which is set by the hardware.cortexm.vectorTable preference.
type SCBBank struct {
	ctrl *Controller
	regs map[uint32]uint32
}

// SCBBank returns the memory mapped view of the system control block. The
// Controller remains owned by the caller.
func (ctrl *Controller) SCBBank() *SCBBank {
	return &SCBBank{
		ctrl: ctrl,
		regs: make(map[uint32]uint32),
	}
}

// Reset the stored register values.
func (reg *SCBBank) Reset() {
	clear(reg.regs)
}

// Read implements the peripherals.Peripheral interface.
func (reg *SCBBank) Read(offset uint32) uint32 {
	switch offset {
	case scbCPUID:
		return cpuid
	case scbICSR:
		var v uint32
		if reg.ctrl.IsPending(PendSV) {
			v |= icsrPendSVSet
		}
		if reg.ctrl.IsPending(SysTick) {
			v |= icsrPendSTSet
		}
		if irq, ok := reg.ctrl.Active(); ok {
			v |= uint32(irq+Offset) & icsrVectActive
		}
		return v
	}
	return reg.regs[offset]
}

// Write implements the peripherals.Peripheral interface.
func (reg *SCBBank) Write(offset uint32, value uint32) {
	switch offset {
	case scbCPUID:
		logger.Logf(reg.ctrl.env, "SCB", "ignoring write to CPUID (value of %08x)", value)
	case scbICSR:
		if value&icsrPendSVClr == icsrPendSVClr {
			reg.ctrl.Clear(PendSV)
		}
		if value&icsrPendSTClr == icsrPendSTClr {
			reg.ctrl.Clear(SysTick)
		}
		if value&icsrPendSVSet == icsrPendSVSet {
			reg.ctrl.Assert(PendSV)
		}
		if value&icsrPendSTSet == icsrPendSTSet {
			reg.ctrl.Assert(SysTick)
		}
	default:
		logger.Logf(reg.ctrl.env, "SCB", "storing write to unimplemented register offset %#02x (value of %08x)", offset, value)
		reg.regs[offset] = value
	}
}
