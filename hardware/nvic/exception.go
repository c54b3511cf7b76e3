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
	"encoding/binary"

	"github.com/jetsetilly/cortexm/curated"
	"github.com/jetsetilly/cortexm/hardware/cpu"
	"github.com/jetsetilly/cortexm/logger"
)

// Memory errors during exception entry and exit. Both are fatal: the state of
// the CPU can no longer be reconciled with the firmware.
const (
	VectorTableError    = "nvic: vector table: %v"
	ExceptionFrameError = "nvic: exception frame: %v"
)

// the registers of the exception frame in the order in which they are pushed.
// they are popped in the reverse order
var frame = [FrameSize]cpu.Register{
	cpu.FPSCR,
	cpu.S0 + 15, cpu.S0 + 14, cpu.S0 + 13, cpu.S0 + 12,
	cpu.S0 + 11, cpu.S0 + 10, cpu.S0 + 9, cpu.S0 + 8,
	cpu.S0 + 7, cpu.S0 + 6, cpu.S0 + 5, cpu.S0 + 4,
	cpu.S0 + 3, cpu.S0 + 2, cpu.S0 + 1, cpu.S0,
	cpu.XPSR,
	cpu.PC,
	cpu.LR,
	cpu.R12,
	cpu.R3,
	cpu.R2,
	cpu.R1,
	cpu.R0,
}

// CheckInterrupts should be called by the driver between instructions. The
// SysTick mechanism is updated and then, if interrupts are not disabled by
// PRIMASK and no exception is currently active, the lowest numbered pending
// interrupt is delivered.
//
// The CPU is locked for the duration of the check. A returned error is fatal.
func (ctrl *Controller) CheckInterrupts(c cpu.CPU, vectorTable uint32) error {
	ctrl.updateSysTick()

	c.Lock()
	defer c.Unlock()

	primask, err := c.ReadRegister(cpu.PRIMASK)
	if err != nil {
		return err
	}
	if primask != 0 || ctrl.active {
		return nil
	}

	irq, ok := ctrl.pending.takeLowest()
	if !ok {
		return nil
	}

	return ctrl.enter(c, vectorTable, irq)
}

// enter performs exception entry. the CPU must be locked
func (ctrl *Controller) enter(c cpu.CPU, vectorTable uint32, irq int) error {
	var b [4]byte

	vector := VectorAddress(vectorTable, irq)
	if err := c.ReadMemory(vector, b[:]); err != nil {
		return curated.Errorf(VectorTableError, err)
	}
	handler := binary.LittleEndian.Uint32(b[:])

	logger.Logf(ctrl.env, "NVIC", "entering %s: vector %08x handler %08x", Name(irq), vector, handler)

	if err := push(c); err != nil {
		return curated.Errorf(ExceptionFrameError, err)
	}

	// IPSR receives the interrupt number as a sign-extended value and not
	// the hardware exception number (irq+16). with the nine bit IPSR field a
	// handler reading IPSR during SysTick sees 0x1ff rather than 15
	if err := c.WriteRegister(cpu.IPSR, uint32(int32(irq))); err != nil {
		return err
	}
	if err := c.WriteRegister(cpu.PC, handler); err != nil {
		return err
	}
	if err := c.WriteRegister(cpu.LR, ExceptionReturn); err != nil {
		return err
	}

	ctrl.active = true
	ctrl.activeIRQ = irq

	return nil
}

// ExceptionReturn should be called by the driver when the program counter
// has been loaded with the ExceptionReturn value. The exception frame is
// popped from the stack and the controller is no longer active.
//
// The CPU is locked for the duration of the return. A returned error is
// fatal.
func (ctrl *Controller) ExceptionReturn(c cpu.CPU) error {
	c.Lock()
	defer c.Unlock()

	if !ctrl.active {
		logger.Log(ctrl.env, "NVIC", "exception return when no exception is active")
	} else {
		logger.Logf(ctrl.env, "NVIC", "returning from %s", Name(ctrl.activeIRQ))
	}

	if err := pop(c); err != nil {
		return curated.Errorf(ExceptionFrameError, err)
	}

	ctrl.active = false
	ctrl.activeIRQ = 0

	return nil
}

// push the exception frame. the stack pointer is decremented before each
// word is written and is written back to the CPU once the frame is complete
func push(c cpu.CPU) error {
	sp, err := c.ReadRegister(cpu.SP)
	if err != nil {
		return err
	}

	var b [4]byte
	for _, reg := range frame {
		v, err := c.ReadRegister(reg)
		if err != nil {
			return err
		}
		sp -= 4
		binary.LittleEndian.PutUint32(b[:], v)
		if err := c.WriteMemory(sp, b[:]); err != nil {
			return err
		}
	}

	return c.WriteRegister(cpu.SP, sp)
}

// pop the exception frame. the stack pointer is incremented after each word
// is read and is written back to the CPU once the frame is complete
func pop(c cpu.CPU) error {
	sp, err := c.ReadRegister(cpu.SP)
	if err != nil {
		return err
	}

	var b [4]byte
	for i := len(frame) - 1; i >= 0; i-- {
		if err := c.ReadMemory(sp, b[:]); err != nil {
			return err
		}
		sp += 4
		if err := c.WriteRegister(frame[i], binary.LittleEndian.Uint32(b[:])); err != nil {
			return err
		}
	}

	return c.WriteRegister(cpu.SP, sp)
}
