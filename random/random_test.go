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

package random_test

import (
	"testing"

	"github.com/jetsetilly/cortexm/hardware/instructions"
	"github.com/jetsetilly/cortexm/random"
	"github.com/jetsetilly/cortexm/test"
)

func TestRandom(t *testing.T) {
	var ca, cb instructions.Counter
	a := random.NewRandom(&ca)
	b := random.NewRandom(&cb)
	a.ZeroSeed = true
	b.ZeroSeed = true

	for i := 1; i < 256; i++ {
		ca.Increment()
		cb.Increment()
		test.ExpectEquality(t, a.Uint32(), b.Uint32())
		test.ExpectEquality(t, a.IntN(i), b.IntN(i))
	}
}

func TestSameInstruction(t *testing.T) {
	var c instructions.Counter
	a := random.NewRandom(&c)
	a.ZeroSeed = true

	// successive values during the same instruction differ
	c.Add(100)
	v := a.Uint32()
	w := a.Uint32()
	test.ExpectInequality(t, v, w)

	// the sequence is repeated for the same instruction count
	b := random.NewRandom(&c)
	b.ZeroSeed = true
	test.ExpectEquality(t, b.Uint32(), v)
}
