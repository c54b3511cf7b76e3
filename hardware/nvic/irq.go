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

import "fmt"

// Offset is added to an interrupt number to find its position in the pending
// set and in the vector table. The smallest architectural exception number
// (-16, the slot of the initial stack pointer in the vector table) maps to
// position zero.
const Offset = 16

// Capacity is the number of distinct interrupt numbers supported by the
// controller. Valid interrupt numbers are therefore -Offset to
// Capacity-Offset-1.
const Capacity = 128

// The architectural exceptions that have a fixed (negative) interrupt number.
// Device interrupts are numbered from zero.
const (
	Reset      = -15
	NMI        = -14
	HardFault  = -13
	MemManage  = -12
	BusFault   = -11
	UsageFault = -10
	SVCall     = -5
	DebugMon   = -4
	PendSV     = -2
	SysTick    = -1
)

// ExceptionReturn is the value placed in the link register on exception
// entry. When the handler returns by loading the link register into the
// program counter, the value is recognised and the exception frame is popped.
const ExceptionReturn = 0xfffffffd

// FrameSize is the number of 32bit words pushed onto the stack on exception
// entry.
const FrameSize = 25

var names = map[int]string{
	Reset:      "Reset",
	NMI:        "NMI",
	HardFault:  "HardFault",
	MemManage:  "MemManage",
	BusFault:   "BusFault",
	UsageFault: "UsageFault",
	SVCall:     "SVCall",
	DebugMon:   "DebugMon",
	PendSV:     "PendSV",
	SysTick:    "SysTick",
}

// Name returns the name of the interrupt number. Architectural exceptions are
// named as they are in the ARMv7-M reference. Device interrupts are named
// IRQn.
func Name(irq int) string {
	if n, ok := names[irq]; ok {
		return n
	}
	if irq == -Offset {
		return "InitialSP"
	}
	if irq < 0 {
		return fmt.Sprintf("Reserved%d", irq)
	}
	return fmt.Sprintf("IRQ%d", irq)
}

// VectorAddress returns the address of the vector table entry for the
// interrupt number.
func VectorAddress(vectorTable uint32, irq int) uint32 {
	return vectorTable + uint32(4*(irq+Offset))
}

// Valid returns true if the interrupt number can be asserted.
func Valid(irq int) bool {
	return irq >= -Offset && irq < Capacity-Offset
}
