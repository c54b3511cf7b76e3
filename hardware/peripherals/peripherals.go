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

// Package peripherals contains the memory mapped register banks of the
// microcontroller's peripherals.
//
// Each peripheral implements the Peripheral interface. The bus calls Read()
// and Write() with the offset of the register from the start of the
// peripheral's region of the address space. Peripherals that change over
// time implement the Stepper interface and are ticked by the machine once
// per executed instruction.
//
// Peripherals are created by name with the New() function. The names are
// those used in the reference manual of the target (eg. TIM2 or USART1).
package peripherals

import (
	"strings"

	"github.com/jetsetilly/cortexm/curated"
	"github.com/jetsetilly/cortexm/hardware/nvic"
	"github.com/jetsetilly/cortexm/hardware/peripherals/serial"
	"github.com/jetsetilly/cortexm/logger"
	"github.com/jetsetilly/cortexm/random"
)

// Peripheral is the interface implemented by every memory mapped register
// bank.
type Peripheral interface {
	Read(offset uint32) uint32
	Write(offset uint32, value uint32)
}

// Resetter is implemented by peripherals that have a reset state.
type Resetter interface {
	Reset()
}

// Stepper is implemented by peripherals that change state as instructions
// are executed.
type Stepper interface {
	Step(instructions uint32)
}

// Dependencies are the parts of the machine that a peripheral might need.
type Dependencies struct {
	Env logger.Permission

	// the interrupt controller. peripherals that raise interrupts use this
	// to assert them
	Controller *nvic.Controller

	// the interrupt number of the peripheral
	IRQ int

	// the serial devices attached to the machine. may be nil
	Serial *serial.Devices

	// source of random numbers for peripherals that need them. may be nil
	Random *random.Random
}

// factory creates a peripheral for the name if it recognises it. the second
// return value is false if the name is not recognised
type factory func(name string, deps Dependencies) (Peripheral, bool)

// the order of the factories is the order in which they are consulted
var factories = []factory{
	func(name string, deps Dependencies) (Peripheral, bool) {
		if name != "NVIC" || deps.Controller == nil {
			return nil, false
		}
		return deps.Controller.RegisterBank(), true
	},
	func(name string, deps Dependencies) (Peripheral, bool) {
		if name != "SYSTICK" || deps.Controller == nil {
			return nil, false
		}
		return deps.Controller.SysTickBank(), true
	},
	func(name string, deps Dependencies) (Peripheral, bool) {
		if name != "SCB" || deps.Controller == nil {
			return nil, false
		}
		return deps.Controller.SCBBank(), true
	},
	func(name string, deps Dependencies) (Peripheral, bool) {
		if name != "RCC" {
			return nil, false
		}
		return NewRCC(deps.Env), true
	},
	func(name string, deps Dependencies) (Peripheral, bool) {
		if !strings.HasPrefix(name, "RTC") {
			return nil, false
		}
		return NewRTC(name, deps.Env), true
	},
	func(name string, deps Dependencies) (Peripheral, bool) {
		if !strings.HasPrefix(name, "TIM") {
			return nil, false
		}
		return NewTimer(name, deps), true
	},
	func(name string, deps Dependencies) (Peripheral, bool) {
		if !strings.HasPrefix(name, "USART") {
			return nil, false
		}
		return NewUSART(name, deps), true
	},
	func(name string, deps Dependencies) (Peripheral, bool) {
		if name != "RNG" {
			return nil, false
		}
		r := NewRNG(deps.Env)
		if deps.Random != nil {
			r.source = deps.Random.Uint32
		}
		return r, true
	},
}

// Sentinal errors.
const (
	UnknownPeripheral = "peripherals: unknown peripheral: %s"
)

// New creates the named peripheral.
func New(name string, deps Dependencies) (Peripheral, error) {
	for _, f := range factories {
		if p, ok := f(name, deps); ok {
			return p, nil
		}
	}
	return nil, curated.Errorf(UnknownPeripheral, name)
}
