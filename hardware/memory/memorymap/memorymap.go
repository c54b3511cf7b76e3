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

// Package memorymap defines the Map type that is used to specify the
// differences between the target microcontrollers.
package memorymap

import (
	"fmt"
	"strings"
)

// Target identifies the microcontroller family being emulated.
type Target string

// List of valid Target values.
const (
	STM32F4 Target = "STM32F4"
	STM32F1 Target = "STM32F1"
)

// Targets is the list of supported Target values.
var Targets = []Target{STM32F4, STM32F1}

// NoIRQ is used for peripherals that do not raise an interrupt.
const NoIRQ = -1000

// Peripheral describes where a peripheral sits in the address space.
type Peripheral struct {
	// the name of the peripheral as it is found in the reference manual for
	// the target. the name is also used to create the peripheral with the
	// peripherals.New() function
	Name string

	Origin uint32
	Size   uint32

	// the interrupt number of the peripheral's main interrupt. NoIRQ if the
	// peripheral does not have one
	IRQ int
}

func (p Peripheral) String() string {
	return fmt.Sprintf("%-8s %08x-%08x", p.Name, p.Origin, p.Origin+p.Size-1)
}

// Map of the differences between targets.
type Map struct {
	Target Target

	FlashOrigin uint32
	FlashMemtop uint32

	SRAMOrigin uint32
	SRAMMemtop uint32

	// the address at which the vector table is found after reset
	VectorTable uint32

	Peripherals []Peripheral
}

// the core peripherals are found at the same address on every Cortex-M
var core = []Peripheral{
	{Name: "SYSTICK", Origin: 0xe000e010, Size: 0x10, IRQ: NoIRQ},
	{Name: "NVIC", Origin: 0xe000e100, Size: 0x400, IRQ: NoIRQ},
	{Name: "SCB", Origin: 0xe000ed00, Size: 0x90, IRQ: NoIRQ},
}

// NewMap is the preferred method of initialisation for the Map type. An
// unknown target results in a map for the STM32F4.
func NewMap(target Target) Map {
	mmap := Map{
		Target: Target(strings.ToUpper(string(target))),
	}

	switch mmap.Target {
	default:
		mmap.Target = STM32F4
		fallthrough

	case STM32F4:
		mmap.FlashOrigin = 0x08000000
		mmap.FlashMemtop = 0x080fffff
		mmap.SRAMOrigin = 0x20000000
		mmap.SRAMMemtop = 0x2001ffff

		mmap.Peripherals = []Peripheral{
			{Name: "TIM2", Origin: 0x40000000, Size: 0x400, IRQ: 28},
			{Name: "RTC", Origin: 0x40002800, Size: 0x400, IRQ: 3},
			{Name: "USART1", Origin: 0x40011000, Size: 0x400, IRQ: 37},
			{Name: "RCC", Origin: 0x40023800, Size: 0x400, IRQ: 5},
			{Name: "RNG", Origin: 0x50060800, Size: 0x400, IRQ: 80},
		}

	case STM32F1:
		mmap.FlashOrigin = 0x08000000
		mmap.FlashMemtop = 0x0807ffff
		mmap.SRAMOrigin = 0x20000000
		mmap.SRAMMemtop = 0x2000ffff

		mmap.Peripherals = []Peripheral{
			{Name: "TIM2", Origin: 0x40000000, Size: 0x400, IRQ: 28},
			{Name: "RTC", Origin: 0x40002800, Size: 0x400, IRQ: 3},
			{Name: "USART1", Origin: 0x40013800, Size: 0x400, IRQ: 37},
			{Name: "RCC", Origin: 0x40021000, Size: 0x400, IRQ: 5},
		}
	}

	mmap.VectorTable = mmap.FlashOrigin
	mmap.Peripherals = append(mmap.Peripherals, core...)

	return mmap
}

// Find returns the named peripheral.
func (mmap Map) Find(name string) (Peripheral, bool) {
	for _, p := range mmap.Peripherals {
		if p.Name == name {
			return p, true
		}
	}
	return Peripheral{}, false
}

func (mmap Map) String() string {
	s := strings.Builder{}
	s.WriteString(fmt.Sprintf("%s\n", mmap.Target))
	s.WriteString(fmt.Sprintf("%-8s %08x-%08x\n", "Flash", mmap.FlashOrigin, mmap.FlashMemtop))
	s.WriteString(fmt.Sprintf("%-8s %08x-%08x\n", "SRAM", mmap.SRAMOrigin, mmap.SRAMMemtop))
	for _, p := range mmap.Peripherals {
		s.WriteString(p.String())
		s.WriteString("\n")
	}
	return s.String()
}
