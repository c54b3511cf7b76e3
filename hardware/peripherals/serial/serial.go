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

// Package serial contains the devices that can be attached to the emulated
// serial ports (USARTs) of the microcontroller.
//
// A Device exchanges single bytes with the peripheral it is connected to. The
// Buffer device is an in-memory implementation useful for testing and for
// capturing the output of firmware. The Console device connects a serial port
// to the terminal of the host and the Port device connects it to a real
// serial device on the host.
package serial

import (
	"io"
	"sync"
)

// Device is the interface to a device attached to a serial port.
type Device interface {
	// Connect is called when the device is attached to the named peripheral.
	// The returned string is the name by which the connection is known in
	// log entries.
	Connect(peripheral string) string

	// Read returns the next byte received by the device. The second return
	// value is false if no data is waiting. Read never blocks.
	Read() (byte, bool)

	// Write transmits the byte.
	Write(b byte)
}

// Closer is implemented by devices that hold resources of the host.
type Closer interface {
	Close() error
}

// Devices is the collection of attached devices, indexed by the name of the
// peripheral they are attached to.
type Devices struct {
	crit    sync.Mutex
	devices map[string]Device
}

// NewDevices is the preferred method of initialisation for the Devices type.
func NewDevices() *Devices {
	return &Devices{
		devices: make(map[string]Device),
	}
}

// Attach the device to the named peripheral, replacing any device already
// attached.
func (d *Devices) Attach(peripheral string, dev Device) {
	d.crit.Lock()
	defer d.crit.Unlock()
	d.devices[peripheral] = dev
}

// Find the device attached to the named peripheral. Returns nil if there is
// no such device.
func (d *Devices) Find(peripheral string) Device {
	if d == nil {
		return nil
	}
	d.crit.Lock()
	defer d.crit.Unlock()
	return d.devices[peripheral]
}

// Close any device that implements the Closer interface. The first error
// encountered is returned but all devices are closed regardless.
func (d *Devices) Close() error {
	d.crit.Lock()
	defer d.crit.Unlock()

	var first error
	for _, dev := range d.devices {
		if c, ok := dev.(Closer); ok {
			if err := c.Close(); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}

// receiver collects bytes from a reader in the background so that Read() of
// the Device interface does not block.
type receiver struct {
	crit sync.Mutex
	data []byte
	err  error
}

// pump reads from the reader until an error occurs. should be run in its own
// goroutine
func (r *receiver) pump(rd io.Reader) {
	b := make([]byte, 64)
	for {
		n, err := rd.Read(b)
		if n > 0 {
			r.crit.Lock()
			r.data = append(r.data, b[:n]...)
			r.crit.Unlock()
		}
		if err != nil {
			r.crit.Lock()
			r.err = err
			r.crit.Unlock()
			return
		}
	}
}

func (r *receiver) next() (byte, bool) {
	r.crit.Lock()
	defer r.crit.Unlock()
	if len(r.data) == 0 {
		return 0, false
	}
	b := r.data[0]
	r.data = r.data[1:]
	return b, true
}
