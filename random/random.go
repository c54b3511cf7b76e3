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

// Package random should be used in preference to the math/rand package when a
// random number is required inside the emulation.
//
// Random numbers are derived from the number of instructions executed by the
// emulation. Two emulations that have executed the same number of
// instructions, and that share a seed, will see the same random numbers.
//
// If the same random numbers are required every single time then set ZeroSeed
// to true. This is useful for testing purposes.
package random

import (
	"math/rand/v2"
	"time"

	"github.com/jetsetilly/cortexm/hardware/instructions"
)

// the base seed for all random numbers
var baseSeed = uint64(time.Now().UnixNano())

// Random is a random number generator that is sensitive to time within the
// emulation.
type Random struct {
	counter *instructions.Counter

	// the number of values taken since the counter last changed. successive
	// calls within the same instruction return different values
	last  uint64
	taken uint64

	// use zero seed rather than the random base seed. this is only really
	// useful for normalised instances where random numbers must be predictable
	ZeroSeed bool
}

// NewRandom is the preferred method of initialisation for the Random type.
func NewRandom(counter *instructions.Counter) *Random {
	return &Random{
		counter: counter,
	}
}

// new RNG from the standard library
func (rnd *Random) rand() *rand.Rand {
	now := rnd.counter.Load()
	if now != rnd.last {
		rnd.last = now
		rnd.taken = 0
	}
	rnd.taken++

	seed := uint64(0)
	if !rnd.ZeroSeed {
		seed = baseSeed
	}
	return rand.New(rand.NewPCG(seed, now<<8|rnd.taken))
}

// Uint32 returns a random 32bit value.
func (rnd *Random) Uint32() uint32 {
	return rnd.rand().Uint32()
}

// IntN returns a random number in the range [0, n). Panics if n <= 0.
func (rnd *Random) IntN(n int) int {
	return rnd.rand().IntN(n)
}
