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

import "github.com/jetsetilly/cortexm/logger"

type systick struct {
	enabled bool

	// number of instructions that must elapse before the SysTick exception
	// is asserted
	period uint32

	// the value of the instruction counter when the exception was last
	// asserted (or when the period was restarted)
	last uint64

	// set whenever the exception is asserted. cleared by the SYST_CSR read
	countFlag bool
}

// SetSysTickPeriod enables the SysTick mechanism. The SysTick exception will
// be asserted once more than period instructions have been executed since the
// previous assertion.
func (ctrl *Controller) SetSysTickPeriod(period uint32) {
	ctrl.systick.enabled = true
	ctrl.systick.period = period
	logger.Logf(ctrl.env, "SysTick", "period set to %d instructions", period)
}

// DisableSysTick stops the SysTick exception from being asserted. This is the
// boot state of the controller.
func (ctrl *Controller) DisableSysTick() {
	if ctrl.systick.enabled {
		logger.Log(ctrl.env, "SysTick", "disabled")
	}
	ctrl.systick.enabled = false
}

// SysTickPeriod returns the period of the SysTick mechanism. The second
// return value is false if SysTick is disabled.
func (ctrl *Controller) SysTickPeriod() (uint32, bool) {
	return ctrl.systick.period, ctrl.systick.enabled
}

// restart the period from the current instruction count
func (ctrl *Controller) restartSysTick() {
	ctrl.systick.last = ctrl.counter.Load()
}

// remaining returns the number of instructions until the SysTick exception
// will be next asserted. returns zero if SysTick is disabled
func (ctrl *Controller) remainingSysTick() uint32 {
	if !ctrl.systick.enabled {
		return 0
	}
	elapsed := ctrl.counter.Load() - ctrl.systick.last
	if elapsed >= uint64(ctrl.systick.period) {
		return 0
	}
	return ctrl.systick.period - uint32(elapsed)
}

// updateSysTick asserts the SysTick exception if the period has elapsed. if
// several periods have elapsed the exception is still only asserted once
func (ctrl *Controller) updateSysTick() {
	if !ctrl.systick.enabled {
		return
	}

	now := ctrl.counter.Load()
	elapsed := now - ctrl.systick.last
	if elapsed > uint64(ctrl.systick.period) {
		ctrl.systick.last = now
		ctrl.systick.countFlag = true
		ctrl.Assert(SysTick)
	}
}
