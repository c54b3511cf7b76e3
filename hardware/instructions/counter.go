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

// Package instructions keeps count of the number of instructions executed by
// the emulated CPU. The count is used to drive time-dependent parts of the
// emulation, most notably the SysTick exception.
//
// The counter is safe to read from any goroutine. Updates are expected to come
// from the goroutine running the emulation only but this is not enforced.
package instructions

import "sync/atomic"

// Counter is a monotonically increasing count of executed instructions. The
// zero value is a counter at zero and is ready for use.
//
// The count is 64bit so wraparound is not a concern in any realistic run.
type Counter struct {
	n atomic.Uint64
}

// Load returns the current count.
func (c *Counter) Load() uint64 {
	return c.n.Load()
}

// Add increases the count by delta and returns the new count.
func (c *Counter) Add(delta uint64) uint64 {
	return c.n.Add(delta)
}

// Increment increases the count by one.
func (c *Counter) Increment() uint64 {
	return c.n.Add(1)
}
