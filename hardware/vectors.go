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
	"fmt"

	"github.com/jetsetilly/cortexm/hardware/nvic"
)

// Vector is an entry in the vector table.
type Vector struct {
	IRQ     int
	Address uint32
	Handler uint32
}

func (v Vector) String() string {
	return fmt.Sprintf("%08x %-12s %08x", v.Address, nvic.Name(v.IRQ), v.Handler)
}

// Vectors returns the first n entries of the vector table, starting with the
// initial stack pointer. The vector table address from the preferences is
// used.
func (m *Machine) Vectors(n int) ([]Vector, error) {
	base := uint32(m.Env.Prefs.VectorTable.Get().(int))

	l := make([]Vector, 0, n)
	for i := 0; i < n; i++ {
		irq := i - nvic.Offset
		addr := nvic.VectorAddress(base, irq)
		h, err := m.Bus.Word(addr)
		if err != nil {
			return l, err
		}
		l = append(l, Vector{IRQ: irq, Address: addr, Handler: h})
	}

	return l, nil
}
