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
	"fmt"

	"github.com/jetsetilly/cortexm/logger"
)

// RegisterBank is the memory mapped register bank of the NVIC (ISER, ICER,
// ISPR, ICPR, IABR and IPR, starting at 0xe000e100).
//
// None of the registers are implemented. Reads return zero and writes are
// ignored. Firmware that enables, disables or prioritises interrupts through
// these registers will not see that configuration honoured.
type RegisterBank struct {
	ctrl *Controller
}

// RegisterBank returns the memory mapped view of the controller. The
// Controller remains owned by the caller.
func (ctrl *Controller) RegisterBank() *RegisterBank {
	return &RegisterBank{ctrl: ctrl}
}

// Read implements the peripherals.Peripheral interface.
func (reg *RegisterBank) Read(offset uint32) uint32 {
	logger.Logf(reg.ctrl.env, "NVIC", "read of unimplemented register %s", bankRegister(offset))
	return 0
}

// Write implements the peripherals.Peripheral interface.
func (reg *RegisterBank) Write(offset uint32, value uint32) {
	logger.Logf(reg.ctrl.env, "NVIC", "ignoring write to unimplemented register %s (value of %08x)", bankRegister(offset), value)
}

func bankRegister(offset uint32) string {
	var name string
	var base uint32
	switch {
	case offset < 0x080:
		name, base = "ISER", 0x000
	case offset < 0x100:
		name, base = "ICER", 0x080
	case offset < 0x180:
		name, base = "ISPR", 0x100
	case offset < 0x200:
		name, base = "ICPR", 0x180
	case offset < 0x280:
		name, base = "IABR", 0x200
	case offset < 0x300:
		return "reserved"
	default:
		name, base = "IPR", 0x300
	}
	return fmt.Sprintf("%s%d", name, (offset-base)/4)
}

// the register offsets of the SysTick block, relative to 0xe000e010
const (
	systCSR   = 0x00
	systRVR   = 0x04
	systCVR   = 0x08
	systCALIB = 0x0c
)

// bits in the SYST_CSR register
const (
	csrEnable    = 0x00000001
	csrTickInt   = 0x00000002
	csrClkSource = 0x00000004
	csrCountFlag = 0x00010000
)

// SysTickBank is the memory mapped register bank of the SysTick timer. It is
// the means by which firmware configures the SysTick period.
//
// The timer counts instructions and not clock cycles. Writing SYST_CSR with
// both ENABLE and TICKINT set configures the controller so that the SysTick
// exception is asserted every SYST_RVR+1 instructions. Clearing either bit, or
// a SYST_RVR of zero, disables the exception.
type SysTickBank struct {
	ctrl *Controller

	csr uint32
	rvr uint32
}

// SysTickBank returns the memory mapped view of the SysTick timer. The
// Controller remains owned by the caller.
func (ctrl *Controller) SysTickBank() *SysTickBank {
	return &SysTickBank{ctrl: ctrl}
}

// Reset the SysTick registers. SysTick is disabled.
func (reg *SysTickBank) Reset() {
	reg.csr = 0
	reg.rvr = 0
	reg.ctrl.DisableSysTick()
}

// Read implements the peripherals.Peripheral interface.
func (reg *SysTickBank) Read(offset uint32) uint32 {
	switch offset {
	case systCSR:
		v := reg.csr
		if reg.ctrl.systick.countFlag {
			v |= csrCountFlag
			reg.ctrl.systick.countFlag = false
		}
		return v
	case systRVR:
		return reg.rvr
	case systCVR:
		return reg.ctrl.remainingSysTick()
	case systCALIB:
		return 0
	}
	logger.Logf(reg.ctrl.env, "SysTick", "read of unknown register offset %#02x", offset)
	return 0
}

// Write implements the peripherals.Peripheral interface.
func (reg *SysTickBank) Write(offset uint32, value uint32) {
	switch offset {
	case systCSR:
		reg.csr = value & (csrEnable | csrTickInt | csrClkSource)
		reg.apply()
	case systRVR:
		reg.rvr = value & 0x00ffffff
		reg.apply()
	case systCVR:
		// any write clears the current value and restarts the count
		reg.ctrl.restartSysTick()
		reg.ctrl.systick.countFlag = false
	case systCALIB:
		logger.Logf(reg.ctrl.env, "SysTick", "ignoring write to SYST_CALIB (value of %08x)", value)
	default:
		logger.Logf(reg.ctrl.env, "SysTick", "ignoring write to unknown register offset %#02x", offset)
	}
}

func (reg *SysTickBank) apply() {
	// a reload value of zero stops the counter from reloading so the
	// exception is never asserted
	if reg.csr&(csrEnable|csrTickInt) != csrEnable|csrTickInt || reg.rvr == 0 {
		reg.ctrl.DisableSysTick()
		return
	}

	period, enabled := reg.ctrl.SysTickPeriod()
	if enabled && period == reg.rvr {
		return
	}
	if !enabled {
		reg.ctrl.restartSysTick()
	}
	reg.ctrl.SetSysTickPeriod(reg.rvr)
}
