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

// Package fpu models the register file of the single precision floating point
// extension of the ARMv7-M architecture.
//
// Only the storage of the registers is emulated. The interrupt controller
// saves and restores the lower sixteen registers and the FPSCR as part of the
// exception frame.
package fpu

import (
	"fmt"
	"math"
	"strings"
)

// NumRegisters is the number of single precision registers in the FPU.
const NumRegisters = 32

// FPU contains the floating point registers.
type FPU struct {
	Registers [NumRegisters]uint32
	Status    FPSCR
}

// Reset the FPU registers to zero.
func (fpu *FPU) Reset() {
	fpu.Registers = [NumRegisters]uint32{}
	fpu.Status = FPSCR{}
}

// Float returns the value of the register interpreted as a float32.
func (fpu *FPU) Float(n int) float32 {
	return math.Float32frombits(fpu.Registers[n])
}

func (fpu *FPU) String() string {
	s := strings.Builder{}
	for i := 0; i < 16; i++ {
		s.WriteString(fmt.Sprintf("S%-2d=%08x ", i, fpu.Registers[i]))
		if i%4 == 3 {
			s.WriteString("\n")
		}
	}
	s.WriteString(fpu.Status.String())
	return s.String()
}

// FPSCR is the Floating-point Status and Control Register.
//
// "A2.5.3 Floating-point Status and Control Register, FPSCR" of "ARMv7-M"
type FPSCR struct {
	value uint32
}

// Value returns the raw register value.
func (fpscr *FPSCR) Value() uint32 {
	return fpscr.value
}

// SetValue sets the raw register value. Reserved bits are ignored.
func (fpscr *FPSCR) SetValue(v uint32) {
	fpscr.value = v & 0xf7c0009f
}

func (fpscr *FPSCR) bit(mask uint32) bool {
	return fpscr.value&mask == mask
}

// N, Z, C and V are the condition flags (bits 31 to 28).
func (fpscr *FPSCR) N() bool { return fpscr.bit(0x80000000) }
func (fpscr *FPSCR) Z() bool { return fpscr.bit(0x40000000) }
func (fpscr *FPSCR) C() bool { return fpscr.bit(0x20000000) }
func (fpscr *FPSCR) V() bool { return fpscr.bit(0x10000000) }

// AHP is the alternative half-precision control bit (bit 26).
func (fpscr *FPSCR) AHP() bool { return fpscr.bit(0x04000000) }

// DN is the default NaN mode control bit (bit 25).
func (fpscr *FPSCR) DN() bool { return fpscr.bit(0x02000000) }

// FZ is the flush-to-zero mode control bit (bit 24).
func (fpscr *FPSCR) FZ() bool { return fpscr.bit(0x01000000) }

// Rounding is the rounding mode of the FPU.
type Rounding byte

// List of valid rounding modes.
const (
	RoundNearest Rounding = 0b00
	RoundPlusInf Rounding = 0b01
	RoundNegInf  Rounding = 0b10
	RoundZero    Rounding = 0b11
)

func (r Rounding) String() string {
	switch r {
	case RoundNearest:
		return "RN"
	case RoundPlusInf:
		return "RP"
	case RoundNegInf:
		return "RM"
	}
	return "RZ"
}

// RMode returns the rounding mode (bits 22 and 23).
func (fpscr *FPSCR) RMode() Rounding {
	return Rounding((fpscr.value & 0x00c00000) >> 22)
}

func (fpscr *FPSCR) String() string {
	s := strings.Builder{}
	s.WriteString("FPSCR: ")
	flag := func(set bool, r rune) {
		if set {
			s.WriteRune(r)
		} else {
			s.WriteRune(r + 'a' - 'A')
		}
	}
	flag(fpscr.N(), 'N')
	flag(fpscr.Z(), 'Z')
	flag(fpscr.C(), 'C')
	flag(fpscr.V(), 'V')
	s.WriteString(" ")
	s.WriteString(fpscr.RMode().String())
	return s.String()
}
