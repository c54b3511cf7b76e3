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

// "26.6.21 RTC register map" of "RM0090 reference"
var rtcRegisters = []string{
	"TR", "DR", "CR", "ISR", "PRER", "WUTR", "CALIBR", "ALRMAR", "ALRMBR",
	"WPR", "SSR", "SHIFTR", "TSTR", "TSDR", "TSSSR", "CALR", "TAFCR",
	"ALRMASSR", "ALRMBSSR",
}

const (
	rtcTR  = 0x00
	rtcDR  = 0x04
	rtcCR  = 0x08
	rtcISR = 0x0c

	rtcBackupOrigin = 0x50
	rtcBackupMemtop = 0x9c
)

// bits of the RTC_ISR register
const (
	isrRSF   = 0x00000020
	isrINITF = 0x00000040
)

// RTC implements the real-time clock. Time does not advance. Only the control
// register and the backup registers store the values written to them.
type RTC struct {
	env  logger.Permission
	name string

	registers [19]uint32
	backup    [(rtcBackupMemtop-rtcBackupOrigin)/4 + 1]uint32
}

// NewRTC is the preferred method of initialisation for the RTC type.
func NewRTC(name string, env logger.Permission) *RTC {
	r := &RTC{
		env:  env,
		name: name,
	}
	r.Reset()
	return r
}

// Reset implements the Resetter interface.
func (r *RTC) Reset() {
	r.registers = [19]uint32{}
	r.backup = [len(r.backup)]uint32{}

	// reset values of the registers that have them
	r.registers[rtcDR/4] = 0x00002101
	r.registers[rtcISR/4] = 0x00000007
	r.registers[0x10/4] = 0x007f00ff
	r.registers[0x14/4] = 0x0000ffff
}

func (r *RTC) label(offset uint32) string {
	if int(offset/4) < len(rtcRegisters) {
		return rtcRegisters[offset/4]
	}
	return "unknown"
}

// Read implements the Peripheral interface.
func (r *RTC) Read(offset uint32) uint32 {
	switch {
	case offset == rtcISR:
		// the calendar is always synchronised and always in initialisation
		// mode. both these flags are set by hardware so a program waiting on
		// them will not wait for long
		return isrRSF | isrINITF
	case offset >= rtcBackupOrigin && offset <= rtcBackupMemtop:
		return r.backup[(offset-rtcBackupOrigin)/4]
	case int(offset/4) < len(r.registers):
		return r.registers[offset/4]
	}
	logger.Logf(r.env, r.name, "read of unknown offset %#02x", offset)
	return 0
}

// Write implements the Peripheral interface.
func (r *RTC) Write(offset uint32, value uint32) {
	switch {
	case offset == rtcCR:
		r.registers[rtcCR/4] = value
	case offset >= rtcBackupOrigin && offset <= rtcBackupMemtop:
		r.backup[(offset-rtcBackupOrigin)/4] = value
	default:
		logger.Logf(r.env, r.name, "ignoring write to RTC_%s (value of %08x)", r.label(offset), value)
	}
}
