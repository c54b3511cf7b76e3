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
	"io"

	"github.com/jetsetilly/cortexm/curated"
	"github.com/jetsetilly/cortexm/environment"
	"github.com/jetsetilly/cortexm/hardware/cpu"
	"github.com/jetsetilly/cortexm/hardware/cpu/thumb"
	"github.com/jetsetilly/cortexm/hardware/memory"
	"github.com/jetsetilly/cortexm/hardware/memory/memorymap"
	"github.com/jetsetilly/cortexm/hardware/nvic"
	"github.com/jetsetilly/cortexm/hardware/peripherals"
	"github.com/jetsetilly/cortexm/hardware/peripherals/serial"
	"github.com/jetsetilly/cortexm/logger"
)

// Sentinal errors.
const (
	Halted          = "machine: halted: %v"
	ResetError      = "machine: reset: %v"
	PeripheralError = "machine: peripheral: %v"
	StateError      = "machine: unsupported emulation state (%s) in Run() function"
)

// Machine is the main container for the emulated components of the
// microcontroller.
type Machine struct {
	Env *environment.Environment

	Map    memorymap.Map
	Bus    *memory.Bus
	CPU    *cpu.State
	Engine *thumb.Engine
	NVIC   *nvic.Controller

	// the serial devices used by the USART peripherals. never nil
	Serial *serial.Devices

	// peripherals that need stepping after every instruction
	steppers []peripherals.Stepper

	// the vector table address in use. taken from the preferences on reset
	vectorTable uint32

	// the CPU is waiting for an interrupt after a WFI instruction
	waiting bool

	// the error that halted the machine. the machine will not step while
	// this is not nil
	halted error
}

// NewMachine creates a new Machine and everything associated with the
// hardware. The target and other settings are taken from the preferences of
// the environment.
//
// The devices argument can be nil, in which case the USART peripherals have
// nothing to talk to.
func NewMachine(env *environment.Environment, devices *serial.Devices) (*Machine, error) {
	if devices == nil {
		devices = serial.NewDevices()
	}

	m := &Machine{
		Env:    env,
		Map:    env.Prefs.Map(),
		Serial: devices,
	}

	m.NVIC = nvic.NewController(env, env.Counter)
	m.Bus = memory.NewBus(env, m.Map)
	m.CPU = cpu.NewState(m.Bus)

	m.Engine = thumb.NewEngine(env, m.CPU)
	m.Engine.SVC = func(_ uint8) {
		m.NVIC.Assert(nvic.SVCall)
	}

	for _, p := range m.Map.Peripherals {
		deps := peripherals.Dependencies{
			Env:        env,
			Controller: m.NVIC,
			IRQ:        p.IRQ,
			Serial:     m.Serial,
			Random:     env.Random,
		}

		per, err := peripherals.New(p.Name, deps)
		if err != nil {
			return nil, curated.Errorf(PeripheralError, err)
		}
		m.Bus.Attach(p.Name, p.Origin, p.Size, per)

		if s, ok := per.(peripherals.Stepper); ok {
			m.steppers = append(m.steppers, s)
		}
	}

	logger.Logf(env, "machine", "created %s with %d peripherals", m.Map.Target, len(m.Map.Peripherals))

	return m, nil
}

// LoadFirmware copies the firmware into flash and resets the machine.
func (m *Machine) LoadFirmware(firmware io.Reader) error {
	if _, err := m.Bus.LoadFirmware(firmware); err != nil {
		return err
	}
	return m.Reset()
}

// Reset the machine. The stack pointer and program counter are loaded from
// the first two entries of the vector table.
//
//   - the SRAM is cleared and the peripherals are reset
//   - the interrupt controller is reset
//   - the SysTick period from the preferences is applied
//   - any halting error is forgotten
func (m *Machine) Reset() error {
	m.vectorTable = uint32(m.Env.Prefs.VectorTable.Get().(int))
	m.Bus.AbortOnFault = m.Env.Prefs.AbortOnMemoryFault.Get().(bool)

	m.Bus.Reset()
	m.NVIC.Reset()
	m.waiting = false
	m.halted = nil

	if period := m.Env.Prefs.SysTick.Get().(int); period > 0 {
		m.NVIC.SetSysTickPeriod(uint32(period))
	}

	sp, err := m.Bus.Word(m.vectorTable)
	if err != nil {
		return curated.Errorf(ResetError, err)
	}
	pc, err := m.Bus.Word(m.vectorTable + 4)
	if err != nil {
		return curated.Errorf(ResetError, err)
	}

	m.CPU.Lock()
	m.CPU.Reset(sp, pc&^0x01)
	m.CPU.Unlock()

	logger.Logf(m.Env, "machine", "reset: SP=%08x PC=%08x", sp, pc&^0x01)

	return nil
}

// Assert the interrupt on behalf of something outside of the machine.
func (m *Machine) Assert(irq int) {
	m.NVIC.Assert(irq)
}

// Instructions returns the number of instructions executed.
func (m *Machine) Instructions() uint64 {
	return m.Env.Counter.Load()
}

// Halted returns the error that halted the machine, or nil if the machine is
// not halted.
func (m *Machine) Halted() error {
	return m.halted
}

// Waiting returns true if the CPU is waiting for an interrupt.
func (m *Machine) Waiting() bool {
	return m.waiting
}

// Step the machine by one instruction.
func (m *Machine) Step() error {
	if m.halted != nil {
		return curated.Errorf(Halted, m.halted)
	}

	if !m.waiting {
		res, err := m.Engine.Step()
		if err != nil {
			return m.halt(err)
		}
		m.waiting = res == thumb.Waiting
	}

	m.Env.Counter.Increment()
	for _, s := range m.steppers {
		s.Step(1)
	}

	m.CPU.Lock()
	pc, err := m.CPU.ReadRegister(cpu.PC)
	m.CPU.Unlock()
	if err != nil {
		return m.halt(err)
	}

	if pc == nvic.ExceptionReturn {
		err := m.strict(func() error {
			return m.NVIC.ExceptionReturn(m.CPU)
		})
		if err != nil {
			return m.halt(err)
		}
	}

	err = m.strict(func() error {
		return m.NVIC.CheckInterrupts(m.CPU, m.vectorTable)
	})
	if err != nil {
		return m.halt(err)
	}

	// an exception ends the wait
	if _, active := m.NVIC.Active(); active {
		m.waiting = false
	}

	return nil
}

// strict runs the function with memory faults always returned as errors. the
// vector table and exception frame accesses of the interrupt controller must
// never be ignored, whatever the abortOnMemoryFault preference says
func (m *Machine) strict(f func() error) error {
	abort := m.Bus.AbortOnFault
	m.Bus.AbortOnFault = true
	defer func() {
		m.Bus.AbortOnFault = abort
	}()
	return f()
}

func (m *Machine) halt(err error) error {
	m.halted = err
	logger.Log(m.Env, "machine", curated.Errorf(Halted, err))
	return err
}

func (m *Machine) String() string {
	return fmt.Sprintf("%s instructions: %d %s", m.Map.Target, m.Instructions(), m.NVIC)
}

// Word reads a 32bit value from the flash or SRAM of the machine. Peripheral
// registers cannot be read with this function (see memory.Bus.Peek()).
func (m *Machine) Word(addr uint32) (uint32, error) {
	return m.Bus.Peek(addr)
}
