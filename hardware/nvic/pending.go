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
	"math/bits"
)

// pending is the set of interrupts that have been asserted but not yet
// delivered. an interrupt number occupies bit irq+Offset
type pending [Capacity / 64]uint64

func position(irq int) int {
	if !Valid(irq) {
		panic(fmt.Sprintf("nvic: interrupt number %d is not supported (valid range is %d to %d)",
			irq, -Offset, Capacity-Offset-1))
	}
	return irq + Offset
}

func (p *pending) set(irq int) {
	bit := position(irq)
	p[bit/64] |= 1 << (bit % 64)
}

func (p *pending) clear(irq int) {
	bit := position(irq)
	p[bit/64] &^= 1 << (bit % 64)
}

func (p *pending) isSet(irq int) bool {
	bit := position(irq)
	return p[bit/64]&(1<<(bit%64)) != 0
}

// the lowest numbered interrupt wins. real hardware arbitrates by the
// configurable priority of each exception, which is not modelled
func (p *pending) takeLowest() (int, bool) {
	for i := range p {
		if p[i] != 0 {
			bit := bits.TrailingZeros64(p[i])
			p[i] &^= 1 << bit
			return i*64 + bit - Offset, true
		}
	}
	return 0, false
}

func (p *pending) list() []int {
	var l []int
	for i := range p {
		w := p[i]
		for w != 0 {
			bit := bits.TrailingZeros64(w)
			w &^= 1 << bit
			l = append(l, i*64+bit-Offset)
		}
	}
	return l
}
