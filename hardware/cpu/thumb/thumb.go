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

// Package thumb is a small interpreter for the Thumb instruction set. It
// understands only the handful of 16bit instructions needed by the idle
// loops and interrupt handlers of simple firmware, and by the tests of the
// rest of the emulation. Any other instruction results in an error.
//
// The supported instructions are: NOP, WFI, B (unconditional), BX, CPSID i,
// CPSIE i, SVC, MOVS (immediate), ADDS (8bit immediate), LDR (literal), LDR
// and STR (immediate offset) and STRB (immediate offset).
package thumb

import (
	"encoding/binary"

	"github.com/jetsetilly/cortexm/curated"
	"github.com/jetsetilly/cortexm/hardware/cpu"
	"github.com/jetsetilly/cortexm/logger"
)

// Sentinal errors.
const (
	UnimplementedInstruction = "thumb: unimplemented instruction %04x at %08x"
	MemoryError              = "thumb: %v"
)

// Result of a single Step().
type Result int

// List of valid Result values.
const (
	// the instruction was executed normally
	Executed Result = iota

	// a WFI instruction was executed. the CPU would sleep until the next
	// interrupt
	Waiting
)

// flags of the XPSR register
const (
	flagN = 0x80000000
	flagZ = 0x40000000
	flagC = 0x20000000
	flagV = 0x10000000
)

// Engine executes instructions on a CPU.
type Engine struct {
	env logger.Permission
	cpu cpu.CPU

	// called by the SVC instruction with the immediate value of the
	// instruction. the PC has already been advanced to the next instruction
	SVC func(imm uint8)
}

// NewEngine is the preferred method of initialisation for the Engine type.
func NewEngine(env logger.Permission, c cpu.CPU) *Engine {
	return &Engine{
		env: env,
		cpu: c,
	}
}

// Step executes the instruction at the program counter. The CPU is locked
// for the duration of the instruction.
func (e *Engine) Step() (Result, error) {
	e.cpu.Lock()
	svc, imm, res, err := e.step()
	e.cpu.Unlock()

	// the SVC callback is called without the CPU locked because it is likely
	// to lead to exception entry
	if err == nil && svc && e.SVC != nil {
		e.SVC(imm)
	}

	return res, err
}

func (e *Engine) step() (svc bool, imm uint8, res Result, err error) {
	pc := e.reg(cpu.PC, &err)
	if err != nil {
		return false, 0, Executed, err
	}

	// bit zero of the PC is the Thumb bit of an interworking address and is
	// not part of the instruction address
	pc &^= 0x01

	var b [2]byte
	if err := e.cpu.ReadMemory(pc, b[:]); err != nil {
		return false, 0, Executed, curated.Errorf(MemoryError, err)
	}
	opcode := binary.LittleEndian.Uint16(b[:])

	// the PC as seen by instructions is the address of the instruction plus
	// four
	next := pc + 2
	visiblePC := pc + 4

	res = Executed

	switch {
	case opcode == 0xbf00:
		// NOP

	case opcode == 0xbf30:
		// WFI
		res = Waiting

	case opcode == 0xb672:
		// CPSID i
		err = e.cpu.WriteRegister(cpu.PRIMASK, 1)

	case opcode == 0xb662:
		// CPSIE i
		err = e.cpu.WriteRegister(cpu.PRIMASK, 0)

	case opcode&0xff00 == 0xdf00:
		// SVC
		svc = true
		imm = uint8(opcode)
		logger.Logf(e.env, "thumb", "SVC %d at %08x", imm, pc)

	case opcode&0xf800 == 0xe000:
		// B (unconditional). 11bit signed offset in halfwords
		offset := uint32(opcode&0x07ff) << 1
		if offset&0x0800 == 0x0800 {
			offset |= 0xfffff000
		}
		next = visiblePC + offset

	case opcode&0xff87 == 0x4700:
		// BX Rm
		rm := cpu.Register((opcode >> 3) & 0x0f)
		target := e.reg(rm, &err)

		// exception return values are placed in the PC unaltered so that the
		// exception return can be recognised
		if target >= 0xfffffff0 {
			next = target
		} else {
			next = target &^ 0x01
		}

	case opcode&0xf800 == 0x2000:
		// MOVS Rd, #imm8
		rd := cpu.Register((opcode >> 8) & 0x07)
		v := uint32(opcode & 0xff)
		if err = e.cpu.WriteRegister(rd, v); err == nil {
			err = e.setFlags(v, false, false, false)
		}

	case opcode&0xf800 == 0x3000:
		// ADDS Rdn, #imm8
		rdn := cpu.Register((opcode >> 8) & 0x07)
		a := e.reg(rdn, &err)
		b := uint32(opcode & 0xff)
		v := a + b
		carry := v < a
		overflow := (a^v)&(b^v)&0x80000000 != 0
		if err == nil {
			if err = e.cpu.WriteRegister(rdn, v); err == nil {
				err = e.setFlags(v, true, carry, overflow)
			}
		}

	case opcode&0xf800 == 0x4800:
		// LDR Rt, [PC, #imm8]
		rt := cpu.Register((opcode >> 8) & 0x07)
		addr := (visiblePC &^ 0x03) + uint32(opcode&0xff)*4
		err = e.load(rt, addr, 4)

	case opcode&0xf800 == 0x6000:
		// STR Rt, [Rn, #imm5]
		rt, addr := e.immediateOffset(opcode, 4, &err)
		if err == nil {
			err = e.store(rt, addr, 4)
		}

	case opcode&0xf800 == 0x6800:
		// LDR Rt, [Rn, #imm5]
		rt, addr := e.immediateOffset(opcode, 4, &err)
		if err == nil {
			err = e.load(rt, addr, 4)
		}

	case opcode&0xf800 == 0x7000:
		// STRB Rt, [Rn, #imm5]
		rt, addr := e.immediateOffset(opcode, 1, &err)
		if err == nil {
			err = e.store(rt, addr, 1)
		}

	default:
		return false, 0, Executed, curated.Errorf(UnimplementedInstruction, opcode, pc)
	}

	if err != nil {
		return false, 0, res, err
	}

	return svc, imm, res, e.cpu.WriteRegister(cpu.PC, next)
}

// reg reads the register. errors are stored in the err argument so that
// several reads can be made before checking
func (e *Engine) reg(r cpu.Register, err *error) uint32 {
	if *err != nil {
		return 0
	}
	var v uint32
	v, *err = e.cpu.ReadRegister(r)
	return v
}

// immediateOffset decodes the register and address of the load/store
// (immediate offset) instructions. the scale is the size of the access
func (e *Engine) immediateOffset(opcode uint16, scale uint32, err *error) (cpu.Register, uint32) {
	rt := cpu.Register(opcode & 0x07)
	rn := cpu.Register((opcode >> 3) & 0x07)
	imm := uint32((opcode>>6)&0x1f) * scale
	return rt, e.reg(rn, err) + imm
}

func (e *Engine) load(rt cpu.Register, addr uint32, size int) error {
	b := make([]byte, 4)
	if err := e.cpu.ReadMemory(addr, b[:size]); err != nil {
		return curated.Errorf(MemoryError, err)
	}
	return e.cpu.WriteRegister(rt, binary.LittleEndian.Uint32(b))
}

func (e *Engine) store(rt cpu.Register, addr uint32, size int) error {
	v, err := e.cpu.ReadRegister(rt)
	if err != nil {
		return err
	}
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	if err := e.cpu.WriteMemory(addr, b[:size]); err != nil {
		return curated.Errorf(MemoryError, err)
	}
	return nil
}

// setFlags updates the N and Z flags from the result. if arithmetic is true
// the C and V flags are also updated
func (e *Engine) setFlags(result uint32, arithmetic bool, carry bool, overflow bool) error {
	xpsr, err := e.cpu.ReadRegister(cpu.XPSR)
	if err != nil {
		return err
	}

	xpsr &^= flagN | flagZ
	if result&0x80000000 != 0 {
		xpsr |= flagN
	}
	if result == 0 {
		xpsr |= flagZ
	}

	if arithmetic {
		xpsr &^= flagC | flagV
		if carry {
			xpsr |= flagC
		}
		if overflow {
			xpsr |= flagV
		}
	}

	return e.cpu.WriteRegister(cpu.XPSR, xpsr)
}
