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
	"math/rand/v2"

	"github.com/jetsetilly/cortexm/logger"
)

// the operation of the RNG unit in STM32 ARM packages can be found in the
// STM32 reference manual:
//
// https://www.st.com/resource/en/reference_manual/dm00031020-stm32f405-415-stm32f407-417-stm32f427-437-and-stm32f429-439-advanced-arm-based-32-bit-mcus-stmicroelectronics.pdf

// "24.4.4 RNG register map" of "RM0090 reference"
const (
	rngCR = 0x00
	rngSR = 0x04
	rngDR = 0x08
)

// RNG implements the RNG found in STM32 packages.
//
// The implementation is just a sketch of the real RNG unit but for our
// purposes it's probably okay. It basically returns a random 32bit number
// whenever the data register is read
type RNG struct {
	env logger.Permission

	// control register value
	control uint32

	// the status and data registers are handled differently in this
	// implementation. they are not writeable and will return a fixed value of
	// 0b1 in the case of the status register and a random number in the case
	// of the data register

	// extracted control register flags
	enabled          bool
	interruptEnabled bool

	// source of random numbers. can be replaced for testing
	source func() uint32
}

// NewRNG is the preferred method of initialisation for the RNG type.
func NewRNG(env logger.Permission) *RNG {
	return &RNG{
		env:    env,
		source: rand.Uint32,
	}
}

// Reset implements the Resetter interface.
func (r *RNG) Reset() {
	r.control = 0x0
	r.enabled = false
	r.interruptEnabled = false
}

// Write implements the Peripheral interface.
func (r *RNG) Write(offset uint32, val uint32) {
	switch offset {
	case rngCR:
		// control register
		r.control = val
		r.enabled = r.control&0b0100 == 0b0100
		r.interruptEnabled = r.control&0b1000 == 0b1000
		if r.interruptEnabled {
			logger.Log(r.env, "RNG", "interrupt enable is not supported")
		}
	case rngSR:
		// status register
		logger.Logf(r.env, "RNG", "ignoring write to RNG status register (value of %08x)", val)
	case rngDR:
		// data register
		logger.Logf(r.env, "RNG", "ignoring write to RNG data register (value of %08x)", val)
	default:
		logger.Logf(r.env, "RNG", "ignoring write to offset %#02x (value of %08x)", offset, val)
	}
}

// Read implements the Peripheral interface.
func (r *RNG) Read(offset uint32) uint32 {
	switch offset {
	case rngCR:
		// control register
		return r.control
	case rngSR:
		// status register. the low bit indicates that a random number is
		// ready. we're always ready to return a random number so we always
		// return 0b1
		return 0b1
	case rngDR:
		// data register. zero if the RNG has not been enabled
		if !r.enabled {
			return 0
		}
		return r.source()
	}
	logger.Logf(r.env, "RNG", "read of unknown offset %#02x", offset)
	return 0
}
