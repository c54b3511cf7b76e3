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
	"github.com/jetsetilly/cortexm/hardware/cpu"
	"github.com/jetsetilly/cortexm/hardware/nvic"
)

// State stores the parts of the machine that describe the progress of the
// firmware. It is produced by the Snapshot() function.
//
// Memory and peripherals are not part of the snapshot.
type State struct {
	Instructions uint64
	CPU          *cpu.State
	NVIC         *nvic.Controller
}

// Snapshot the state of the machine.
func (m *Machine) Snapshot() *State {
	return &State{
		Instructions: m.Instructions(),
		CPU:          m.CPU.Snapshot(),
		NVIC:         m.NVIC.Snapshot(),
	}
}
