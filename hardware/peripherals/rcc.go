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

import "github.com/jetsetilly/cortexm/logger"

// "7.3.24 RCC register map" of "RM0090 reference"
const (
	rccCR   = 0x00
	rccCFGR = 0x08
	rccBDCR = 0x70
	rccCSR  = 0x74
)

// bits of the RCC_CSR register
const (
	csrLSION  = 0x00000001
	csrLSIRDY = 0x00000002
)

// RCC implements the reset and clock control unit. Clocks are not emulated
// so the unit reports that every oscillator and PLL is ready as soon as it
// is asked.
type RCC struct {
	env logger.Permission

	bdcr uint32
	csr  uint32
}

// NewRCC is the preferred method of initialisation for the RCC type.
func NewRCC(env logger.Permission) *RCC {
	r := &RCC{env: env}
	r.Reset()
	return r
}

// Reset implements the Resetter interface.
func (r *RCC) Reset() {
	r.bdcr = 0x00000000

	// reset flags are set as though the device has been powered on
	r.csr = 0x0e000000
}

// Read implements the Peripheral interface.
func (r *RCC) Read(offset uint32) uint32 {
	switch offset {
	case rccCR:
		// every ready flag is set
		return 0xffffffff
	case rccCFGR:
		// system clock switch status reports the PLL
		return 0b1000
	case rccBDCR:
		if r.bdcr != 0 {
			// LSERDY
			return r.bdcr | 0x02
		}
		return r.bdcr
	case rccCSR:
		return r.csr
	}
	return 0
}

// Write implements the Peripheral interface.
func (r *RCC) Write(offset uint32, value uint32) {
	switch offset {
	case rccBDCR:
		r.bdcr = value
	case rccCSR:
		if value&csrLSION == csrLSION {
			r.csr |= csrLSIRDY
			logger.Log(r.env, "RCC", "LSI oscillator on")
		} else if value == 0 {
			r.csr &^= csrLSIRDY
			logger.Log(r.env, "RCC", "LSI oscillator off")
		}
	default:
		logger.Logf(r.env, "RCC", "ignoring write to offset %#02x (value of %08x)", offset, value)
	}
}
