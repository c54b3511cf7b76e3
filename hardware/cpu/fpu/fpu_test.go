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

package fpu_test

import (
	"testing"

	"github.com/jetsetilly/cortexm/hardware/cpu/fpu"
	"github.com/jetsetilly/cortexm/test"
)

func TestFPSCR(t *testing.T) {
	var f fpu.FPU

	f.Status.SetValue(0xa0c00000)
	test.ExpectEquality(t, f.Status.N(), true)
	test.ExpectEquality(t, f.Status.Z(), false)
	test.ExpectEquality(t, f.Status.C(), true)
	test.ExpectEquality(t, f.Status.V(), false)
	test.ExpectEquality(t, f.Status.RMode(), fpu.RoundZero)
	test.ExpectEquality(t, f.Status.String(), "FPSCR: NzCv RZ")

	// reserved bits are not stored
	f.Status.SetValue(0xffffffff)
	test.ExpectEquality(t, f.Status.Value(), 0xf7c0009f)

	f.Reset()
	test.ExpectEquality(t, f.Status.Value(), 0)
}

func TestFloat(t *testing.T) {
	var f fpu.FPU
	f.Registers[3] = 0x3f800000
	test.ExpectEquality(t, f.Float(3), 1.0)
}
