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

package hardware

import (
	"github.com/jetsetilly/cortexm/curated"
	"github.com/jetsetilly/cortexm/govern"
)

// It can be expensive to do a full continue check after every instruction.
//
// The PerformanceBrake is a standard value that can be used to filter out
// expensive code paths within a continueCheck() implementation. For example:
//
//	performanceFilter++
//	if performanceFilter >= hardware.PerformanceBrake {
//		performanceFilter = 0
//		if end_condition == true {
//			return govern.Ending, nil
//		}
//	}
//	return govern.Running, nil
const PerformanceBrake = 100

// Run sets the emulation running as quickly as possible. The continueCheck
// function is called after every instruction. The emulation ends when
// continueCheck returns govern.Ending or an error.
func (m *Machine) Run(continueCheck func() (govern.State, error)) error {
	if continueCheck == nil {
		continueCheck = func() (govern.State, error) { return govern.Running, nil }
	}

	var err error

	state := govern.Running

	for state != govern.Ending && state != govern.Initialising {
		switch state {
		case govern.Running:
			if err := m.Step(); err != nil {
				return err
			}
		case govern.Paused:
		default:
			return curated.Errorf(StateError, state)
		}

		state, err = continueCheck()
		if err != nil {
			return err
		}
	}

	return nil
}

// RunForInstructionCount sets the emulation running for the specified number
// of instructions. The continueCheck function can be nil.
func (m *Machine) RunForInstructionCount(count uint64, continueCheck func(instructions uint64) (govern.State, error)) error {
	if continueCheck == nil {
		continueCheck = func(_ uint64) (govern.State, error) { return govern.Running, nil }
	}

	target := m.Instructions() + count

	state := govern.Running
	for m.Instructions() < target && state != govern.Ending {
		err := m.Step()
		if err != nil {
			return err
		}

		state, err = continueCheck(m.Instructions())
		if err != nil {
			return err
		}
	}

	return nil
}
