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

package peripherals

import (
	"github.com/jetsetilly/cortexm/hardware/nvic"
	"github.com/jetsetilly/cortexm/logger"
)

// the operation of the TIMx units in STM32 ARM packages can be found in the
// STM32 reference manual (referred to as STM32 in comments below this one):
//
// https://www.st.com/resource/en/reference_manual/dm00031020-stm32f405-415-stm32f407-417-stm32f427-437-and-stm32f429-439-advanced-arm-based-32-bit-mcus-stmicroelectronics.pdf

// "18.4.21 TIMx register map" of "RM0090 reference"
const (
	timCR1  = 0x00
	timDIER = 0x0c
	timSR   = 0x10
	timEGR  = 0x14
	timCNT  = 0x24
	timPSC  = 0x28
	timARR  = 0x2c
	timRCR  = 0x30
	timCCR1 = 0x34
)

// bits of the DIER and SR registers
const (
	timUIE = 0x0001
	timUIF = 0x0001
)

// Timer implements the general purpose TIMx timers found in STM32 packages.
// The timer counts instructions rather than clock cycles.
//
// Only the time base unit is emulated. The capture/compare channels store
// the value written to CCR1 but have no other effect. When the update
// interrupt is enabled in the DIER register, an update event asserts the
// timer's interrupt on the interrupt controller.
type Timer struct {
	env  logger.Permission
	name string

	ctrl *nvic.Controller
	irq  int

	// current register values
	control    uint16
	dier       uint16
	status     uint16
	prescaler  uint16
	autoreload uint16
	counter    uint16
	repetition uint16
	ccr1       uint16

	// extracted control register flags
	enable              bool   // CEN
	updateEventDisabled bool   // UDIS
	updateRequestSource bool   // URS
	onePulse            bool   // OPM
	downcounting        bool   // DIR
	autoReloadBuffered  bool   // ARPE
	clockDivision       uint32 // CKD

	// the autoreload shadow register is updated from the autoreload register
	// when:
	// 1) the autoreload register is written to AND autoReloadBuffered is false
	// 2) at an update event
	autoreloadShadow uint16

	// the prescaler value that is being used currently. the prescaler
	// register can change but the prescalerCounter will still be ticking
	// towards the prescalerShadow value
	prescalerShadow  uint16
	prescalerCounter uint32
}

// NewTimer is the preferred method of initialisation for the Timer type.
func NewTimer(name string, deps Dependencies) *Timer {
	t := &Timer{
		env:  deps.Env,
		name: name,
		ctrl: deps.Controller,
		irq:  deps.IRQ,
	}
	t.Reset()
	return t
}

// Reset implements the Resetter interface.
func (t *Timer) Reset() {
	t.setControlRegister(0x0000)
	t.dier = 0
	t.status = 0
	t.prescaler = 0
	t.prescalerShadow = 0
	t.prescalerCounter = 0
	t.autoreload = 0xffff
	t.autoreloadShadow = 0xffff
	t.counter = 0
	t.repetition = 0
	t.ccr1 = 0
}

func (t *Timer) setControlRegister(val uint16) {
	t.control = val

	enabled := t.enable
	t.enable = val&0x0001 == 0x0001
	if t.enable != enabled {
		if t.enable {
			logger.Logf(t.env, t.name, "%s enabled", t.name)
		} else {
			logger.Logf(t.env, t.name, "%s disabled", t.name)
		}
	}

	t.updateEventDisabled = val&0x0002 == 0x0002
	t.updateRequestSource = val&0x0004 == 0x0004
	t.onePulse = val&0x0008 == 0x0008
	t.downcounting = val&0x0010 == 0x0010
	t.autoReloadBuffered = val&0x0080 == 0x0080

	switch (val & 0x300) >> 8 {
	case 0b00:
		t.clockDivision = 1
	case 0b01:
		t.clockDivision = 2
	case 0b10:
		t.clockDivision = 4
	case 0b11:
		panic("ARM TIMx_CR1: CLK bits of 11 (reserved bit pattern)")
	}

	if val&0x0060 != 0x0000 {
		logger.Logf(t.env, t.name, "only edge-aligned mode is supported (CMS bits of %02b)", (val&0x0060)>>5)
	}
}

// Step implements the Stepper interface.
func (t *Timer) Step(instructions uint32) {
	// nothing to do if the timer is not enabled
	if !t.enable {
		return
	}

	t.prescalerCounter += instructions

	// number of counter ticks after adjusting for the prescaler and the clock
	// division value
	period := uint32(t.prescalerShadow) + 1
	ticks := t.prescalerCounter / (period * t.clockDivision)
	t.prescalerCounter %= period * t.clockDivision

	if ticks == 0 {
		return
	}

	// the counter counts from zero to the autoreload value inclusive. an
	// autoreload value of zero stops the counter
	reload := uint32(t.autoreloadShadow) + 1
	if reload == 1 {
		return
	}

	if t.downcounting {
		c := uint32(t.counter)
		if ticks > c {
			// counter underflow
			c = reload - 1 - (ticks-c-1)%reload
			t.updateEvent(true)
			if t.enable {
				t.counter = uint16(c)
			}
		} else {
			t.counter = uint16(c - ticks)
		}
	} else {
		c := uint32(t.counter) + ticks
		if c >= reload {
			// counter overflow
			t.updateEvent(true)
			if t.enable {
				t.counter = uint16(c % reload)
			}
		} else {
			t.counter = uint16(c)
		}
	}
}

// updateEvent reloads the shadow registers and restarts the counter. the
// update flag and interrupt are raised only if flag is true
func (t *Timer) updateEvent(flag bool) {
	if !t.updateEventDisabled {
		t.prescalerShadow = t.prescaler
		t.autoreloadShadow = t.autoreload

		if flag {
			// set update interupt flag of status register
			t.status |= timUIF

			if t.dier&timUIE == timUIE && t.ctrl != nil {
				t.ctrl.Assert(t.irq)
			}
		}
	}

	// the counter restarts even when the update event is disabled (page 592
	// of the STM32 reference)
	if t.downcounting {
		t.counter = t.autoreloadShadow
	} else {
		t.counter = 0
	}
	t.prescalerCounter = 0

	if t.onePulse {
		t.setControlRegister(t.control &^ 0x0001)
	}
}

// Write implements the Peripheral interface.
func (t *Timer) Write(offset uint32, value uint32) {
	val := uint16(value)

	switch offset {
	case timCR1:
		t.setControlRegister(val)
	case timDIER:
		t.dier = val
		if t.dier&timUIE == timUIE {
			logger.Logf(t.env, t.name, "update interrupt enabled (IRQ %d)", t.irq)
		}
	case timSR:
		// flags are cleared by writing zero. writing one has no effect
		t.status &= val
	case timEGR:
		// bit 0 UG Update Generation
		if val&0x0001 == 0x0001 {
			// UIF is not set when URS is set for a software generated event
			t.updateEvent(!t.updateRequestSource)
		}
	case timCNT:
		t.counter = val
	case timPSC:
		t.prescaler = val
	case timARR:
		t.autoreload = val

		// copy autoreload value to shadow immediately if autoReloadBuffered is false
		if !t.autoReloadBuffered {
			t.autoreloadShadow = t.autoreload
		}
	case timRCR:
		t.repetition = val
	case timCCR1:
		t.ccr1 = val
	default:
		logger.Logf(t.env, t.name, "ignoring write to offset %#02x (value of %08x)", offset, value)
	}
}

// Read implements the Peripheral interface.
func (t *Timer) Read(offset uint32) uint32 {
	switch offset {
	case timCR1:
		return uint32(t.control)
	case timDIER:
		return uint32(t.dier)
	case timSR:
		return uint32(t.status)
	case timCNT:
		return uint32(t.counter)
	case timPSC:
		return uint32(t.prescaler)
	case timARR:
		return uint32(t.autoreload)
	case timRCR:
		return uint32(t.repetition)
	case timCCR1:
		return uint32(t.ccr1)
	}
	logger.Logf(t.env, t.name, "read of unhandled offset %#02x", offset)
	return 0
}
