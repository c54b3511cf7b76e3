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

// Package nvic implements the exception model of a Cortex-M CPU. The
// Controller tracks which interrupts are pending, decides when one of them
// should be delivered, and performs the stacking and unstacking of the
// exception frame on entry and exit.
//
// The model is deliberately simple. There is only one level of exception
// activity, no priority arbitration (the lowest numbered pending interrupt is
// always chosen) and no tail-chaining. Interrupts are asserted by calling
// Assert() directly. The memory mapped register bank of the NVIC is present
// on the bus (see RegisterBank) but it does nothing.
//
// The SysTick exception is driven by the number of instructions executed, as
// counted by an instructions.Counter, rather than by a clock.
package nvic

import (
	"fmt"
	"strings"

	"github.com/jetsetilly/cortexm/hardware/instructions"
	"github.com/jetsetilly/cortexm/logger"
)

// Controller is the interrupt controller of the emulated CPU.
type Controller struct {
	env     logger.Permission
	counter *instructions.Counter

	pending pending

	// true while an exception is being serviced
	active bool

	// the interrupt number of the exception being serviced. only meaningful
	// when active is true
	activeIRQ int

	systick systick
}

// NewController is the preferred method of initialisation for the
// Controller type. The counter is the source of the instruction count used
// by the SysTick mechanism.
func NewController(env logger.Permission, counter *instructions.Counter) *Controller {
	if counter == nil {
		panic("nvic: controller requires an instruction counter")
	}
	return &Controller{
		env:     env,
		counter: counter,
	}
}

// Reset the controller to its boot state. Nothing pending, nothing active and
// SysTick disabled. The SysTick period, when it is next set, is measured from
// the instruction count at the time of the reset.
func (ctrl *Controller) Reset() {
	ctrl.pending = pending{}
	ctrl.active = false
	ctrl.activeIRQ = 0
	ctrl.systick = systick{}
	ctrl.restartSysTick()
}

// Snapshot creates a copy of the Controller in its current state.
func (ctrl *Controller) Snapshot() *Controller {
	n := *ctrl
	return &n
}

// Assert marks the interrupt as pending. Asserting an interrupt that is
// already pending has no effect.
//
// Panics if the interrupt number is outside of the supported range.
func (ctrl *Controller) Assert(irq int) {
	ctrl.pending.set(irq)
}

// TakeLowestPending removes the lowest numbered pending interrupt from the
// pending set and returns it. The second return value is false if there are
// no pending interrupts.
func (ctrl *Controller) TakeLowestPending() (int, bool) {
	return ctrl.pending.takeLowest()
}

// IsPending returns true if the interrupt has been asserted and not yet
// delivered.
func (ctrl *Controller) IsPending(irq int) bool {
	return ctrl.pending.isSet(irq)
}

// Clear removes the interrupt from the pending set.
func (ctrl *Controller) Clear(irq int) {
	ctrl.pending.clear(irq)
}

// Pending returns the list of pending interrupts, in the order in which they
// would be delivered.
func (ctrl *Controller) Pending() []int {
	return ctrl.pending.list()
}

// Active returns true if an exception is being serviced. The interrupt number
// of that exception is also returned.
func (ctrl *Controller) Active() (int, bool) {
	return ctrl.activeIRQ, ctrl.active
}

func (ctrl *Controller) String() string {
	s := strings.Builder{}
	if ctrl.active {
		s.WriteString(fmt.Sprintf("active: %s", Name(ctrl.activeIRQ)))
	} else {
		s.WriteString("idle")
	}

	p := ctrl.Pending()
	if len(p) > 0 {
		s.WriteString(" pending:")
		for _, irq := range p {
			s.WriteString(" ")
			s.WriteString(Name(irq))
		}
	}

	if period, ok := ctrl.SysTickPeriod(); ok {
		s.WriteString(fmt.Sprintf(" systick: %d", period))
	}

	return s.String()
}
