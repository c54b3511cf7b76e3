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

import "fmt"

// Register identifies an architectural register of a Cortex-M CPU.
type Register int

// List of valid Register values. The general purpose registers are numbered
// as they are in instruction encodings.
const (
	R0 Register = iota
	R1
	R2
	R3
	R4
	R5
	R6
	R7
	R8
	R9
	R10
	R11
	R12
	SP
	LR
	PC

	// program status register. IPSR is an aliased view of the exception
	// number bits of XPSR
	XPSR
	IPSR

	// the global interrupt-disable flag
	PRIMASK

	// floating point status and control register
	FPSCR

	// single precision floating point registers S0 to S31
	S0
)

// NumCoreRegisters is the number of general purpose registers, including SP,
// LR and PC.
const NumCoreRegisters = 16

// NumFPURegisters is the number of single precision floating point registers.
const NumFPURegisters = 32

// S returns the Register identifier for single precision floating point
// register n.
func S(n int) Register {
	if n < 0 || n >= NumFPURegisters {
		panic(fmt.Sprintf("cpu: no floating point register S%d", n))
	}
	return S0 + Register(n)
}

// IsCore returns true if the register is one of R0 to R12, SP, LR or PC.
func (r Register) IsCore() bool {
	return r >= R0 && r <= PC
}

// IsFPU returns true if the register is one of S0 to S31.
func (r Register) IsFPU() bool {
	return r >= S0 && r < S0+NumFPURegisters
}

func (r Register) String() string {
	switch r {
	case SP:
		return "SP"
	case LR:
		return "LR"
	case PC:
		return "PC"
	case XPSR:
		return "XPSR"
	case IPSR:
		return "IPSR"
	case PRIMASK:
		return "PRIMASK"
	case FPSCR:
		return "FPSCR"
	}
	if r.IsCore() {
		return fmt.Sprintf("R%d", int(r))
	}
	if r.IsFPU() {
		return fmt.Sprintf("S%d", int(r-S0))
	}
	return fmt.Sprintf("unknown register (%d)", int(r))
}
