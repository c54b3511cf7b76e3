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

package thumb_test

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/jetsetilly/cortexm/curated"
	"github.com/jetsetilly/cortexm/hardware/cpu"
	"github.com/jetsetilly/cortexm/hardware/cpu/thumb"
	"github.com/jetsetilly/cortexm/test"
)

type flatMemory struct {
	data []byte
}

func (m *flatMemory) Read(addr uint32, data []byte) error {
	if int(addr)+len(data) > len(m.data) {
		return errors.New("out of range")
	}
	copy(data, m.data[addr:])
	return nil
}

func (m *flatMemory) Write(addr uint32, data []byte) error {
	if int(addr)+len(data) > len(m.data) {
		return errors.New("out of range")
	}
	copy(m.data[addr:], data)
	return nil
}

// program places the opcodes in memory from address zero
func program(opcodes ...uint16) (*flatMemory, *cpu.State) {
	mem := &flatMemory{data: make([]byte, 0x100)}
	for i, op := range opcodes {
		binary.LittleEndian.PutUint16(mem.data[i*2:], op)
	}
	state := cpu.NewState(mem)
	state.Reset(0x100, 0)
	return mem, state
}

func reg(t *testing.T, state *cpu.State, r cpu.Register) uint32 {
	t.Helper()
	v, err := state.ReadRegister(r)
	test.DemandSuccess(t, err)
	return v
}

func steps(t *testing.T, e *thumb.Engine, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := e.Step()
		test.DemandSuccess(t, err)
	}
}

func TestArithmetic(t *testing.T) {
	_, state := program(
		0x2005, // MOVS r0, #5
		0x3003, // ADDS r0, #3
		0x21ff, // MOVS r1, #255
		0x2200, // MOVS r2, #0
	)
	e := thumb.NewEngine(nil, state)

	steps(t, e, 2)
	test.ExpectEquality(t, reg(t, state, cpu.R0), 8)
	test.ExpectEquality(t, reg(t, state, cpu.PC), 4)

	steps(t, e, 1)
	test.ExpectEquality(t, reg(t, state, cpu.R1), 0xff)
	test.ExpectEquality(t, reg(t, state, cpu.XPSR)&0xf0000000, 0)

	// zero flag
	steps(t, e, 1)
	test.ExpectEquality(t, reg(t, state, cpu.XPSR)&0xf0000000, 0x40000000)
}

func TestAddsFlags(t *testing.T) {
	_, state := program(
		0x3001, // ADDS r0, #1
	)
	test.ExpectSuccess(t, state.WriteRegister(cpu.R0, 0xffffffff))
	e := thumb.NewEngine(nil, state)
	steps(t, e, 1)

	// carry and zero
	test.ExpectEquality(t, reg(t, state, cpu.R0), 0)
	test.ExpectEquality(t, reg(t, state, cpu.XPSR)&0xf0000000, 0x60000000)

	_, state = program(
		0x3001, // ADDS r0, #1
	)
	test.ExpectSuccess(t, state.WriteRegister(cpu.R0, 0x7fffffff))
	e = thumb.NewEngine(nil, state)
	steps(t, e, 1)

	// negative and overflow
	test.ExpectEquality(t, reg(t, state, cpu.XPSR)&0xf0000000, 0x90000000)
}

func TestLoadStore(t *testing.T) {
	mem, state := program(
		0x4901, // LDR r1, [PC, #4]
		0x2041, // MOVS r0, #0x41
		0x7008, // STRB r0, [r1, #0]
		0x6048, // STR r0, [r1, #4]
		0x684a, // LDR r2, [r1, #4]
		0xbf00, // NOP
		0x0080, // literal: 0x00000080
		0x0000,
	)
	e := thumb.NewEngine(nil, state)

	steps(t, e, 1)
	test.ExpectEquality(t, reg(t, state, cpu.R1), 0x80)

	steps(t, e, 4)
	test.ExpectEquality(t, mem.data[0x80], 0x41)
	test.ExpectEquality(t, binary.LittleEndian.Uint32(mem.data[0x84:]), 0x41)
	test.ExpectEquality(t, reg(t, state, cpu.R2), 0x41)
}

func TestBranch(t *testing.T) {
	_, state := program(
		0xbf00, // NOP
		0xe000, // B +0 (skips one instruction)
		0xffff, // not executed
		0xe7fe, // B . (loop forever)
	)
	e := thumb.NewEngine(nil, state)

	steps(t, e, 2)
	test.ExpectEquality(t, reg(t, state, cpu.PC), 6)

	steps(t, e, 5)
	test.ExpectEquality(t, reg(t, state, cpu.PC), 6)
}

func TestBranchExchange(t *testing.T) {
	_, state := program(
		0x4770, // BX LR
	)
	e := thumb.NewEngine(nil, state)

	// thumb bit is removed from normal addresses
	test.ExpectSuccess(t, state.WriteRegister(cpu.LR, 0x00000041))
	steps(t, e, 1)
	test.ExpectEquality(t, reg(t, state, cpu.PC), 0x40)

	// instruction fetch ignores the thumb bit of the PC
	test.ExpectSuccess(t, state.WriteRegister(cpu.PC, 1))
	test.ExpectSuccess(t, state.WriteRegister(cpu.LR, 0x00000081))
	steps(t, e, 1)
	test.ExpectEquality(t, reg(t, state, cpu.PC), 0x80)

	// exception return values are not altered
	test.ExpectSuccess(t, state.WriteRegister(cpu.PC, 0))
	test.ExpectSuccess(t, state.WriteRegister(cpu.LR, 0xfffffffd))
	steps(t, e, 1)
	test.ExpectEquality(t, reg(t, state, cpu.PC), 0xfffffffd)
}

func TestInterruptMask(t *testing.T) {
	_, state := program(
		0xb672, // CPSID i
		0xb662, // CPSIE i
		0xbf30, // WFI
	)
	e := thumb.NewEngine(nil, state)

	steps(t, e, 1)
	test.ExpectEquality(t, reg(t, state, cpu.PRIMASK), 1)
	steps(t, e, 1)
	test.ExpectEquality(t, reg(t, state, cpu.PRIMASK), 0)

	res, err := e.Step()
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, res, thumb.Waiting)
}

func TestSupervisorCall(t *testing.T) {
	_, state := program(
		0xdf07, // SVC #7
	)
	e := thumb.NewEngine(nil, state)

	var called uint8
	e.SVC = func(imm uint8) {
		called = imm

		// PC has been advanced
		test.ExpectEquality(t, reg(t, state, cpu.PC), 2)
	}

	steps(t, e, 1)
	test.ExpectEquality(t, called, 7)
}

func TestUnimplemented(t *testing.T) {
	_, state := program(
		0xffff,
	)
	e := thumb.NewEngine(nil, state)
	_, err := e.Step()
	test.ExpectFailure(t, err)
	test.ExpectSuccess(t, curated.Is(err, thumb.UnimplementedInstruction))
	test.ExpectEquality(t, err.Error(), "thumb: unimplemented instruction ffff at 00000000")

	// PC outside of memory
	test.ExpectSuccess(t, state.WriteRegister(cpu.PC, 0x1000))
	_, err = e.Step()
	test.ExpectFailure(t, err)
	test.ExpectSuccess(t, curated.Is(err, thumb.MemoryError))
}
