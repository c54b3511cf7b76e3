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

package cpu

import (
	"fmt"
	"strings"
	"sync"

	"github.com/jetsetilly/cortexm/curated"
	"github.com/jetsetilly/cortexm/hardware/cpu/fpu"
)

// the exception number field of the XPSR. this is the part of the register
// visible through the IPSR view.
const ipsrMask = 0x000001ff

// the Thumb bit of the XPSR (in the EPSR view). always set on Cortex-M.
const thumbBit = 0x01000000

// Register access errors.
const (
	UnknownRegister = "cpu: unknown register: %v"
)

// State is an implementation of the CPU interface. It stores the register
// values directly and forwards memory accesses to the Memory implementation.
type State struct {
	crit sync.Mutex

	mem Memory

	registers [NumCoreRegisters]uint32
	xpsr      uint32
	primask   uint32
	fpu       fpu.FPU
}

// NewState is the preferred method of initialisation for the State type.
func NewState(mem Memory) *State {
	s := &State{mem: mem}
	s.Reset(0, 0)
	return s
}

// Reset all registers and set the stack pointer and program counter to the
// values given.
func (s *State) Reset(sp uint32, pc uint32) {
	s.registers = [NumCoreRegisters]uint32{}
	s.registers[SP] = sp
	s.registers[PC] = pc
	s.registers[LR] = 0xffffffff
	s.xpsr = thumbBit
	s.primask = 0
	s.fpu.Reset()
}

// Lock implements the sync.Locker interface.
func (s *State) Lock() {
	s.crit.Lock()
}

// Unlock implements the sync.Locker interface.
func (s *State) Unlock() {
	s.crit.Unlock()
}

// ReadRegister implements the CPU interface.
func (s *State) ReadRegister(reg Register) (uint32, error) {
	switch {
	case reg.IsCore():
		return s.registers[reg], nil
	case reg.IsFPU():
		return s.fpu.Registers[reg-S0], nil
	}

	switch reg {
	case XPSR:
		return s.xpsr, nil
	case IPSR:
		return s.xpsr & ipsrMask, nil
	case PRIMASK:
		return s.primask, nil
	case FPSCR:
		return s.fpu.Status.Value(), nil
	}

	return 0, curated.Errorf(UnknownRegister, reg)
}

// WriteRegister implements the CPU interface.
func (s *State) WriteRegister(reg Register, value uint32) error {
	switch {
	case reg.IsCore():
		s.registers[reg] = value
		return nil
	case reg.IsFPU():
		s.fpu.Registers[reg-S0] = value
		return nil
	}

	switch reg {
	case XPSR:
		s.xpsr = value
	case IPSR:
		s.xpsr = (s.xpsr &^ ipsrMask) | (value & ipsrMask)
	case PRIMASK:
		s.primask = value & 0x01
	case FPSCR:
		s.fpu.Status.SetValue(value)
	default:
		return curated.Errorf(UnknownRegister, reg)
	}

	return nil
}

// ReadMemory implements the CPU interface.
func (s *State) ReadMemory(addr uint32, data []byte) error {
	if s.mem == nil {
		return fmt.Errorf("cpu: no memory attached")
	}
	return s.mem.Read(addr, data)
}

// WriteMemory implements the CPU interface.
func (s *State) WriteMemory(addr uint32, data []byte) error {
	if s.mem == nil {
		return fmt.Errorf("cpu: no memory attached")
	}
	return s.mem.Write(addr, data)
}

// Snapshot returns a copy of the register values. Memory is not copied and
// the snapshot shares the Memory implementation of the original.
func (s *State) Snapshot() *State {
	s.crit.Lock()
	defer s.crit.Unlock()
	n := &State{
		mem:       s.mem,
		registers: s.registers,
		xpsr:      s.xpsr,
		primask:   s.primask,
		fpu:       s.fpu,
	}
	return n
}

func (s *State) String() string {
	b := strings.Builder{}
	for i := 0; i < NumCoreRegisters; i++ {
		b.WriteString(fmt.Sprintf("%-4s=%08x ", Register(i), s.registers[i]))
		if i%4 == 3 {
			b.WriteString("\n")
		}
	}
	b.WriteString(fmt.Sprintf("XPSR=%08x PRIMASK=%d\n", s.xpsr, s.primask))
	b.WriteString(s.fpu.String())
	return b.String()
}
