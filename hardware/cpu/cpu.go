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

// Package cpu defines the interface through which the rest of the emulation
// accesses the registers and memory of the emulated Cortex-M CPU.
//
// The CPU interface is the single source of architectural truth. Anything that
// needs to read or change register values (the interrupt controller, the
// instruction engine, the driver loop) does so through it.
//
// The State type is a straightforward implementation of the interface, with
// memory accesses delegated to a Memory implementation (usually the bus).
package cpu

import "sync"

// CPU is the register and memory access facade of the emulated processor.
//
// The embedded sync.Locker is used to obtain exclusive access to the CPU. It
// must be held for any sequence of accesses that should not be observed
// partially complete by another part of the emulation, such as the pushing of
// an exception frame. The access functions themselves do not lock.
type CPU interface {
	sync.Locker

	ReadRegister(reg Register) (uint32, error)
	WriteRegister(reg Register, value uint32) error

	// memory access is little-endian and byte-addressable. an error is
	// returned if any part of the access is to an unmapped or otherwise
	// invalid address
	ReadMemory(addr uint32, data []byte) error
	WriteMemory(addr uint32, data []byte) error
}

// Memory is the interface to the memory of the system as seen by the CPU.
type Memory interface {
	Read(addr uint32, data []byte) error
	Write(addr uint32, data []byte) error
}
