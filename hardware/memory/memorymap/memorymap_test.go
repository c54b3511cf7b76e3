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

package memorymap_test

import (
	"testing"

	"github.com/jetsetilly/cortexm/hardware/memory/memorymap"
	"github.com/jetsetilly/cortexm/test"
)

func TestDefaultTarget(t *testing.T) {
	mmap := memorymap.NewMap("unknown")
	test.ExpectEquality(t, mmap.Target, memorymap.STM32F4)
	test.ExpectEquality(t, mmap.VectorTable, 0x08000000)

	mmap = memorymap.NewMap("stm32f1")
	test.ExpectEquality(t, mmap.Target, memorymap.STM32F1)
}

func TestFind(t *testing.T) {
	mmap := memorymap.NewMap(memorymap.STM32F4)

	p, ok := mmap.Find("USART1")
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, p.Origin, 0x40011000)
	test.ExpectEquality(t, p.IRQ, 37)

	p, ok = mmap.Find("SYSTICK")
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, p.Origin, 0xe000e010)
	test.ExpectEquality(t, p.IRQ, memorymap.NoIRQ)

	_, ok = mmap.Find("RNG")
	test.ExpectSuccess(t, ok)

	p, ok = mmap.Find("SCB")
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, p.Origin+0x04, 0xe000ed04)

	// the F1 has no RNG
	mmap = memorymap.NewMap(memorymap.STM32F1)
	_, ok = mmap.Find("RNG")
	test.ExpectFailure(t, ok)
	p, _ = mmap.Find("RCC")
	test.ExpectEquality(t, p.Origin, 0x40021000)
}

func TestNoOverlap(t *testing.T) {
	for _, target := range memorymap.Targets {
		mmap := memorymap.NewMap(target)
		for i, a := range mmap.Peripherals {
			for _, b := range mmap.Peripherals[i+1:] {
				overlap := a.Origin < b.Origin+b.Size && b.Origin < a.Origin+a.Size
				test.ExpectFailure(t, overlap, a.Name, b.Name)
			}
		}
	}
}
