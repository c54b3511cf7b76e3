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

package hardware_test

import (
	"bytes"
	"encoding/binary"
	"path/filepath"
	"testing"

	"github.com/jetsetilly/cortexm/curated"
	"github.com/jetsetilly/cortexm/environment"
	"github.com/jetsetilly/cortexm/govern"
	"github.com/jetsetilly/cortexm/hardware"
	"github.com/jetsetilly/cortexm/hardware/cpu"
	"github.com/jetsetilly/cortexm/hardware/cpu/thumb"
	"github.com/jetsetilly/cortexm/hardware/memory"
	"github.com/jetsetilly/cortexm/hardware/nvic"
	"github.com/jetsetilly/cortexm/hardware/peripherals/serial"
	"github.com/jetsetilly/cortexm/hardware/preferences"
	"github.com/jetsetilly/cortexm/test"
)

// firmware is an image of flash memory. unused memory is erased
type firmware []byte

func newFirmware() firmware {
	f := make(firmware, 0x400)
	for i := range f {
		f[i] = 0xff
	}
	return f
}

func (f firmware) word(offset int, v uint32) {
	binary.LittleEndian.PutUint32(f[offset:], v)
}

func (f firmware) code(offset int, opcodes ...uint16) {
	for i, op := range opcodes {
		binary.LittleEndian.PutUint16(f[offset+i*2:], op)
	}
}

// the firmware writes "A" to USART1, calls the supervisor (which writes "S")
// and then waits for interrupts. the SysTick handler increments the word at
// the start of SRAM
func exampleFirmware() firmware {
	f := newFirmware()

	// vector table
	f.word(0x00, 0x20001000)
	f.word(0x04, 0x08000101)
	f.word(0x2c, 0x08000301) // SVCall
	f.word(0x3c, 0x08000201) // SysTick

	// reset handler
	f.code(0x100,
		0x4902, // LDR r1, [PC, #8]
		0x2041, // MOVS r0, #'A'
		0x7008, // STRB r0, [r1, #0]
		0xdf01, // SVC #1
		0xbf30, // WFI
		0xe7fe, // B .
	)
	f.word(0x10c, 0x40011004)

	// SysTick handler
	f.code(0x200,
		0x4a02, // LDR r2, [PC, #8]
		0x6813, // LDR r3, [r2, #0]
		0x3301, // ADDS r3, #1
		0x6013, // STR r3, [r2, #0]
		0x4770, // BX LR
		0xbf00, // NOP
	)
	f.word(0x20c, 0x20000000)

	// SVCall handler
	f.code(0x300,
		0x4901, // LDR r1, [PC, #4]
		0x2053, // MOVS r0, #'S'
		0x7008, // STRB r0, [r1, #0]
		0x4770, // BX LR
	)
	f.word(0x308, 0x40011004)

	return f
}

func newMachine(t *testing.T, f firmware) (*hardware.Machine, *serial.Buffer) {
	t.Helper()

	prefs, err := preferences.NewPreferencesFromFile(filepath.Join(t.TempDir(), "preferences"))
	test.DemandSuccess(t, err)
	test.DemandSuccess(t, prefs.SysTick.Set(50))

	env, err := environment.NewEnvironment("test", prefs)
	test.DemandSuccess(t, err)

	buf := serial.NewBuffer()
	devices := serial.NewDevices()
	devices.Attach("USART1", buf)

	m, err := hardware.NewMachine(env, devices)
	test.DemandSuccess(t, err)
	test.DemandSuccess(t, m.LoadFirmware(bytes.NewReader(f)))

	return m, buf
}

func register(t *testing.T, m *hardware.Machine, r cpu.Register) uint32 {
	t.Helper()
	m.CPU.Lock()
	defer m.CPU.Unlock()
	v, err := m.CPU.ReadRegister(r)
	test.DemandSuccess(t, err)
	return v
}

func TestReset(t *testing.T) {
	m, _ := newMachine(t, exampleFirmware())
	test.ExpectEquality(t, register(t, m, cpu.SP), 0x20001000)
	test.ExpectEquality(t, register(t, m, cpu.PC), 0x08000100)
	test.ExpectEquality(t, m.Instructions(), 0)

	period, ok := m.NVIC.SysTickPeriod()
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, period, 50)
}

func TestSupervisorCall(t *testing.T) {
	m, buf := newMachine(t, exampleFirmware())

	test.DemandSuccess(t, m.RunForInstructionCount(4, nil))
	test.ExpectEquality(t, buf.Output(), "A")

	// SVC has been taken
	irq, active := m.NVIC.Active()
	test.ExpectSuccess(t, active)
	test.ExpectEquality(t, irq, nvic.SVCall)
	test.ExpectEquality(t, register(t, m, cpu.PC), 0x08000301)
	test.ExpectEquality(t, register(t, m, cpu.LR), nvic.ExceptionReturn)
	test.ExpectEquality(t, register(t, m, cpu.SP), 0x20001000-nvic.FrameSize*4)

	// the handler returns to the instruction after the SVC with the
	// registers restored
	test.DemandSuccess(t, m.RunForInstructionCount(4, nil))
	test.ExpectEquality(t, buf.Output(), "AS")
	_, active = m.NVIC.Active()
	test.ExpectFailure(t, active)
	test.ExpectEquality(t, register(t, m, cpu.PC), 0x08000108)
	test.ExpectEquality(t, register(t, m, cpu.SP), 0x20001000)
	test.ExpectEquality(t, register(t, m, cpu.R0), 'A')
}

func TestWaitForSysTick(t *testing.T) {
	m, _ := newMachine(t, exampleFirmware())

	// the WFI instruction is the ninth instruction
	test.DemandSuccess(t, m.RunForInstructionCount(9, nil))
	test.ExpectSuccess(t, m.Waiting())
	test.ExpectEquality(t, register(t, m, cpu.PC), 0x0800010a)

	// the SysTick is taken when more than 50 instructions have been counted
	test.DemandSuccess(t, m.RunForInstructionCount(41, nil))
	test.ExpectSuccess(t, m.Waiting())
	test.DemandSuccess(t, m.Step())
	test.ExpectFailure(t, m.Waiting())
	irq, active := m.NVIC.Active()
	test.ExpectSuccess(t, active)
	test.ExpectEquality(t, irq, nvic.SysTick)

	// the handler returns to the instruction after the WFI
	test.DemandSuccess(t, m.RunForInstructionCount(5, nil))
	_, active = m.NVIC.Active()
	test.ExpectFailure(t, active)
	test.ExpectEquality(t, register(t, m, cpu.PC), 0x0800010a)

	v, err := m.Bus.Word(0x20000000)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, v, 1)

	// SysTick continues to be taken while the firmware loops
	test.DemandSuccess(t, m.RunForInstructionCount(104, nil))
	test.ExpectEquality(t, m.Instructions(), 160)
	v, err = m.Bus.Word(0x20000000)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, v, 3)
}

func TestRun(t *testing.T) {
	m, _ := newMachine(t, exampleFirmware())

	var n int
	err := m.Run(func() (govern.State, error) {
		n++
		if n == 200 {
			return govern.Ending, nil
		}
		return govern.Running, nil
	})
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, m.Instructions(), 200)

	// paused emulation does not step
	n = 0
	err = m.Run(func() (govern.State, error) {
		n++
		if n == 10 {
			return govern.Ending, nil
		}
		return govern.Paused, nil
	})
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, m.Instructions(), 201)
}

func TestHalt(t *testing.T) {
	f := exampleFirmware()
	f.code(0x100, 0xffff)
	m, _ := newMachine(t, f)

	err := m.Step()
	test.ExpectFailure(t, err)
	test.ExpectSuccess(t, curated.Is(err, thumb.UnimplementedInstruction))
	test.ExpectSuccess(t, curated.Is(m.Halted(), thumb.UnimplementedInstruction))

	// the machine will not step once halted
	err = m.Step()
	test.ExpectFailure(t, err)
	test.ExpectSuccess(t, curated.Is(err, hardware.Halted))
	test.ExpectSuccess(t, curated.Has(err, thumb.UnimplementedInstruction))
	test.ExpectEquality(t, m.Instructions(), 0)

	test.ExpectSuccess(t, m.Reset())
	test.ExpectSuccess(t, m.Halted() == nil)
}

func TestBadStack(t *testing.T) {
	f := exampleFirmware()

	// stack pointer in unmapped memory
	f.word(0x00, 0x30000000)
	m, _ := newMachine(t, f)

	// exception entry on SVC fails
	err := m.RunForInstructionCount(4, nil)
	test.ExpectFailure(t, err)
	test.ExpectSuccess(t, curated.Is(err, nvic.ExceptionFrameError))
	test.ExpectSuccess(t, m.Halted() != nil)
}

func TestBadStackIgnoringFaults(t *testing.T) {
	f := exampleFirmware()
	f.word(0x00, 0x30000000)
	m, _ := newMachine(t, f)

	// memory faults are ignored by instructions but never by exception entry
	test.DemandSuccess(t, m.Env.Prefs.AbortOnMemoryFault.Set(false))
	test.DemandSuccess(t, m.Reset())

	err := m.RunForInstructionCount(4, nil)
	test.ExpectFailure(t, err)
	test.ExpectSuccess(t, curated.Is(err, nvic.ExceptionFrameError))
	test.ExpectSuccess(t, m.Halted() != nil)

	// the preference still applies to the bus
	test.ExpectFailure(t, m.Bus.AbortOnFault)
	_, err = m.Bus.Word(0x60000000)
	test.ExpectSuccess(t, err)
}

func TestWordIgnoresPeripherals(t *testing.T) {
	m, buf := newMachine(t, exampleFirmware())
	buf.Queue([]byte{'x'})

	v, err := m.Word(0x08000000)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, v, 0x20001000)

	// the USART data register is not read so the queued byte remains
	_, err = m.Word(0x40011004)
	test.ExpectFailure(t, err)
	test.ExpectSuccess(t, curated.Is(err, memory.UnmappedAddress))
	test.ExpectEquality(t, buf.Waiting(), 1)
}

func TestPendSVFromFirmware(t *testing.T) {
	f := newFirmware()
	f.word(0x00, 0x20001000)
	f.word(0x04, 0x08000101)
	f.word(0x38, 0x08000401) // PendSV

	// set PENDSVSET in ICSR
	f.code(0x100,
		0x4902, // LDR r1, [PC, #8]
		0x4803, // LDR r0, [PC, #12]
		0x6008, // STR r0, [r1, #0]
		0xe7fe, // B .
	)
	f.word(0x10c, 0xe000ed04)
	f.word(0x110, 0x10000000)

	// PendSV handler
	f.code(0x400,
		0xe7fe, // B .
	)

	m, _ := newMachine(t, f)
	test.DemandSuccess(t, m.RunForInstructionCount(3, nil))
	test.ExpectSuccess(t, m.Halted() == nil)

	irq, active := m.NVIC.Active()
	test.ExpectSuccess(t, active)
	test.ExpectEquality(t, irq, nvic.PendSV)
	test.ExpectEquality(t, register(t, m, cpu.PC), 0x08000401)
}

func TestBadVectorTable(t *testing.T) {
	m, _ := newMachine(t, exampleFirmware())
	test.DemandSuccess(t, m.Env.Prefs.VectorTable.Set(0x60000000))
	err := m.Reset()
	test.ExpectFailure(t, err)
	test.ExpectSuccess(t, curated.Is(err, hardware.ResetError))
}

func TestVectors(t *testing.T) {
	m, _ := newMachine(t, exampleFirmware())

	v, err := m.Vectors(nvic.Offset + 1)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, len(v), 17)
	test.ExpectEquality(t, v[0].Handler, 0x20001000)
	test.ExpectEquality(t, v[1].IRQ, nvic.Reset)
	test.ExpectEquality(t, v[15].IRQ, nvic.SysTick)
	test.ExpectEquality(t, v[15].Address, 0x0800003c)
	test.ExpectEquality(t, v[15].Handler, 0x08000201)
	test.ExpectEquality(t, v[15].String(), "0800003c SysTick      08000201")
}

func TestSnapshot(t *testing.T) {
	m, _ := newMachine(t, exampleFirmware())
	test.DemandSuccess(t, m.RunForInstructionCount(4, nil))

	s := m.Snapshot()
	test.ExpectEquality(t, s.Instructions, 4)

	test.DemandSuccess(t, m.RunForInstructionCount(4, nil))
	irq, active := s.NVIC.Active()
	test.ExpectSuccess(t, active)
	test.ExpectEquality(t, irq, nvic.SVCall)
	pc, _ := s.CPU.ReadRegister(cpu.PC)
	test.ExpectEquality(t, pc, 0x08000301)
}
