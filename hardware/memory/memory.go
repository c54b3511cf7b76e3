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

// Package memory implements the bus of the emulated microcontroller. The Bus
// type routes memory accesses by the CPU to the flash memory, the SRAM or to
// the register bank of a peripheral.
//
// Flash memory cannot be written to by the CPU. Firmware is placed in flash
// with the LoadFirmware() function.
//
// Accesses to peripherals are split into aligned 32bit accesses. A read of a
// byte or halfword from a peripheral register reads the whole register and
// returns the relevant part of it. A write of a byte or halfword writes the
// value to the register with the other bits being zero.
package memory

import (
	"encoding/binary"
	"fmt"
	"io"
	"sort"

	"github.com/jetsetilly/cortexm/curated"
	"github.com/jetsetilly/cortexm/hardware/memory/memorymap"
	"github.com/jetsetilly/cortexm/hardware/peripherals"
	"github.com/jetsetilly/cortexm/logger"
)

// Sentinal errors.
const (
	UnmappedAddress  = "bus: unmapped address: %08x"
	ReadOnlyAddress  = "bus: write to read-only memory: %08x"
	FirmwareTooLarge = "bus: firmware is too large: %d bytes (flash is %d bytes)"
	FirmwareError    = "bus: firmware: %v"
)

type region struct {
	name   string
	origin uint32
	memtop uint32
	p      peripherals.Peripheral
}

func (r region) contains(addr uint32, n int) bool {
	return addr >= r.origin && uint64(addr)+uint64(n)-1 <= uint64(r.memtop)
}

// Bus routes memory accesses.
type Bus struct {
	env  logger.Permission
	mmap memorymap.Map

	flash []byte
	sram  []byte

	// peripheral regions sorted by origin
	regions []region

	// if AbortOnFault is false then accesses to unmapped memory, and writes
	// to flash, are logged and ignored rather than returning an error. reads
	// of unmapped memory return zero
	AbortOnFault bool
}

// NewBus is the preferred method of initialisation for the Bus type.
func NewBus(env logger.Permission, mmap memorymap.Map) *Bus {
	return &Bus{
		env:          env,
		mmap:         mmap,
		flash:        make([]byte, mmap.FlashMemtop-mmap.FlashOrigin+1),
		sram:         make([]byte, mmap.SRAMMemtop-mmap.SRAMOrigin+1),
		AbortOnFault: true,
	}
}

// Attach the peripheral to the bus. The peripheral occupies the memory in
// the range [origin, origin+size).
//
// Panics if the range overlaps flash, SRAM or another peripheral.
func (bus *Bus) Attach(name string, origin uint32, size uint32, p peripherals.Peripheral) {
	r := region{
		name:   name,
		origin: origin,
		memtop: origin + size - 1,
		p:      p,
	}

	overlaps := func(origin, memtop uint32) bool {
		return r.origin <= memtop && origin <= r.memtop
	}

	if overlaps(bus.mmap.FlashOrigin, bus.mmap.FlashMemtop) || overlaps(bus.mmap.SRAMOrigin, bus.mmap.SRAMMemtop) {
		panic(fmt.Sprintf("bus: %s overlaps main memory", name))
	}
	for _, o := range bus.regions {
		if overlaps(o.origin, o.memtop) {
			panic(fmt.Sprintf("bus: %s overlaps %s", name, o.name))
		}
	}

	bus.regions = append(bus.regions, r)
	sort.Slice(bus.regions, func(i, j int) bool {
		return bus.regions[i].origin < bus.regions[j].origin
	})
}

// Peripheral returns the peripheral attached with the name.
func (bus *Bus) Peripheral(name string) (peripherals.Peripheral, bool) {
	for _, r := range bus.regions {
		if r.name == name {
			return r.p, true
		}
	}
	return nil, false
}

// Peripherals returns every attached peripheral, in address order.
func (bus *Bus) Peripherals() []peripherals.Peripheral {
	l := make([]peripherals.Peripheral, len(bus.regions))
	for i := range bus.regions {
		l[i] = bus.regions[i].p
	}
	return l
}

// Reset clears the SRAM and resets every peripheral that implements the
// Resetter interface. Flash is not affected.
func (bus *Bus) Reset() {
	clear(bus.sram)
	for _, r := range bus.regions {
		if rs, ok := r.p.(peripherals.Resetter); ok {
			rs.Reset()
		}
	}
}

// LoadFirmware copies the firmware into flash memory from the flash origin.
// The rest of flash is erased (set to 0xff).
func (bus *Bus) LoadFirmware(firmware io.Reader) (int, error) {
	data, err := io.ReadAll(firmware)
	if err != nil {
		return 0, curated.Errorf(FirmwareError, err)
	}
	if len(data) > len(bus.flash) {
		return 0, curated.Errorf(FirmwareTooLarge, len(data), len(bus.flash))
	}

	n := copy(bus.flash, data)
	for i := n; i < len(bus.flash); i++ {
		bus.flash[i] = 0xff
	}

	logger.Logf(bus.env, "bus", "loaded %d bytes of firmware at %08x", n, bus.mmap.FlashOrigin)
	return n, nil
}

// Read implements the cpu.Memory interface.
func (bus *Bus) Read(addr uint32, data []byte) error {
	if len(data) == 0 {
		return nil
	}

	if m, ok := bus.main(addr, len(data)); ok {
		copy(data, m)
		return nil
	}

	if r, ok := bus.find(addr, len(data)); ok {
		for i := 0; i < len(data); {
			offset := addr + uint32(i) - r.origin
			aligned := offset &^ 3
			v := r.p.Read(aligned)
			for ; i < len(data) && (addr+uint32(i)-r.origin)&^3 == aligned; i++ {
				shift := ((addr + uint32(i) - r.origin) & 3) * 8
				data[i] = byte(v >> shift)
			}
		}
		return nil
	}

	return bus.fault(curated.Errorf(UnmappedAddress, addr), func() {
		clear(data)
	})
}

// Write implements the cpu.Memory interface.
func (bus *Bus) Write(addr uint32, data []byte) error {
	if len(data) == 0 {
		return nil
	}

	if addr >= bus.mmap.SRAMOrigin && uint64(addr)+uint64(len(data))-1 <= uint64(bus.mmap.SRAMMemtop) {
		copy(bus.sram[addr-bus.mmap.SRAMOrigin:], data)
		return nil
	}

	if addr >= bus.mmap.FlashOrigin && addr <= bus.mmap.FlashMemtop {
		return bus.fault(curated.Errorf(ReadOnlyAddress, addr), nil)
	}

	if r, ok := bus.find(addr, len(data)); ok {
		for i := 0; i < len(data); {
			offset := addr + uint32(i) - r.origin
			aligned := offset &^ 3
			var v uint32
			for ; i < len(data) && (addr+uint32(i)-r.origin)&^3 == aligned; i++ {
				shift := ((addr + uint32(i) - r.origin) & 3) * 8
				v |= uint32(data[i]) << shift
			}
			r.p.Write(aligned, v)
		}
		return nil
	}

	return bus.fault(curated.Errorf(UnmappedAddress, addr), nil)
}

// Word reads a 32bit little-endian value from memory.
func (bus *Bus) Word(addr uint32) (uint32, error) {
	var b [4]byte
	if err := bus.Read(addr, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

// Peek reads a 32bit little-endian value from flash or SRAM. Peripheral
// registers are never read because a read can change the state of the
// peripheral. An address outside of flash and SRAM is always an error,
// regardless of AbortOnFault.
func (bus *Bus) Peek(addr uint32) (uint32, error) {
	m, ok := bus.main(addr, 4)
	if !ok {
		return 0, curated.Errorf(UnmappedAddress, addr)
	}
	return binary.LittleEndian.Uint32(m), nil
}

// main returns the part of flash or SRAM that the access refers to
func (bus *Bus) main(addr uint32, n int) ([]byte, bool) {
	end := uint64(addr) + uint64(n) - 1
	if addr >= bus.mmap.FlashOrigin && end <= uint64(bus.mmap.FlashMemtop) {
		return bus.flash[addr-bus.mmap.FlashOrigin:], true
	}
	if addr >= bus.mmap.SRAMOrigin && end <= uint64(bus.mmap.SRAMMemtop) {
		return bus.sram[addr-bus.mmap.SRAMOrigin:], true
	}
	return nil, false
}

func (bus *Bus) find(addr uint32, n int) (region, bool) {
	i := sort.Search(len(bus.regions), func(i int) bool {
		return bus.regions[i].memtop >= addr
	})
	if i < len(bus.regions) && bus.regions[i].contains(addr, n) {
		return bus.regions[i], true
	}
	return region{}, false
}

// fault returns the error if AbortOnFault is true. otherwise the error is
// logged, the recovery function is run and nil is returned
func (bus *Bus) fault(err error, recovery func()) error {
	if bus.AbortOnFault {
		return err
	}
	logger.Log(bus.env, "bus", err)
	if recovery != nil {
		recovery()
	}
	return nil
}
