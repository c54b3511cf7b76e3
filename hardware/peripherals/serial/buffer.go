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

package serial

import (
	"bytes"
	"sync"
)

// Buffer is a serial device that records everything transmitted to it and
// supplies received bytes from a queue.
type Buffer struct {
	crit sync.Mutex

	name   string
	input  []byte
	output bytes.Buffer
}

// NewBuffer is the preferred method of initialisation for the Buffer type.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Connect implements the Device interface.
func (b *Buffer) Connect(peripheral string) string {
	b.crit.Lock()
	defer b.crit.Unlock()
	b.name = peripheral
	return peripheral + " (buffer)"
}

// Read implements the Device interface.
func (b *Buffer) Read() (byte, bool) {
	b.crit.Lock()
	defer b.crit.Unlock()
	if len(b.input) == 0 {
		return 0, false
	}
	v := b.input[0]
	b.input = b.input[1:]
	return v, true
}

// Write implements the Device interface.
func (b *Buffer) Write(v byte) {
	b.crit.Lock()
	defer b.crit.Unlock()
	b.output.WriteByte(v)
}

// Queue adds data to the queue of bytes to be received by the peripheral.
func (b *Buffer) Queue(data []byte) {
	b.crit.Lock()
	defer b.crit.Unlock()
	b.input = append(b.input, data...)
}

// Waiting returns the number of bytes queued and not yet read.
func (b *Buffer) Waiting() int {
	b.crit.Lock()
	defer b.crit.Unlock()
	return len(b.input)
}

// Output returns everything written to the device so far.
func (b *Buffer) Output() string {
	b.crit.Lock()
	defer b.crit.Unlock()
	return b.output.String()
}
