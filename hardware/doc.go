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

// Package hardware is the base package for the emulated Cortex-M
// microcontroller. The Machine type collects together the CPU, the bus, the
// interrupt controller and the peripherals of the target and drives them one
// instruction at a time.
//
// The order of events for each instruction is:
//
//  1. the instruction at the PC is executed (or, after a WFI instruction, the
//     CPU idles)
//  2. the instruction counter is incremented
//  3. every peripheral that implements the peripherals.Stepper interface is
//     stepped
//  4. if the PC holds the exception return value, the exception frame is
//     popped
//  5. the interrupt controller is given the opportunity to deliver a pending
//     interrupt
//
// Errors returned by the CPU or the interrupt controller are fatal. Once a
// fatal error has occurred the machine refuses to step until it is reset.
package hardware
