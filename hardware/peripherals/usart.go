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

package peripherals

import (
	"github.com/jetsetilly/cortexm/hardware/peripherals/serial"
	"github.com/jetsetilly/cortexm/logger"
)

// "30.6.8 USART register map" of "RM0090 reference"
const (
	usartSR  = 0x00
	usartDR  = 0x04
	usartBRR = 0x08
	usartCR1 = 0x0c
	usartCR2 = 0x10
)

// bits of the USART_SR register
const (
	srIDLE = 0x0010
	srRXNE = 0x0020
	srTC   = 0x0040
	srTXE  = 0x0080
)

// USART implements the serial port. Bytes written to the data register are
// transmitted to the attached serial device and bytes read from the data
// register are received from it.
//
// The status register always reports that the transmitter is empty and that
// data is waiting to be read. Reading the data register when the device has
// nothing waiting returns zero.
type USART struct {
	env  logger.Permission
	name string

	// the name of the connection as returned by serial.Device.Connect()
	connection string

	dev serial.Device

	brr uint32
	cr1 uint32
	cr2 uint32
}

// NewUSART is the preferred method of initialisation for the USART type. The
// serial device is found in the Serial field of the Dependencies using the
// name of the peripheral.
func NewUSART(name string, deps Dependencies) *USART {
	u := &USART{
		env:        deps.Env,
		name:       name,
		connection: name,
	}

	u.dev = deps.Serial.Find(name)
	if u.dev != nil {
		u.connection = u.dev.Connect(name)
	}

	return u
}

// Reset implements the Resetter interface.
func (u *USART) Reset() {
	u.brr = 0
	u.cr1 = 0
	u.cr2 = 0
}

// Read implements the Peripheral interface.
func (u *USART) Read(offset uint32) uint32 {
	switch offset {
	case usartSR:
		return srTXE | srTC | srRXNE | srIDLE
	case usartDR:
		if u.dev == nil {
			return 0
		}
		v, ok := u.dev.Read()
		if ok {
			logger.Logf(u.env, u.name, "%s read=%02x", u.connection, v)
		}
		return uint32(v)
	case usartBRR:
		return u.brr
	case usartCR1:
		return u.cr1
	case usartCR2:
		return u.cr2
	}
	logger.Logf(u.env, u.name, "read of unimplemented offset %#02x", offset)
	return 0
}

// Write implements the Peripheral interface.
func (u *USART) Write(offset uint32, value uint32) {
	switch offset {
	case usartDR:
		if u.dev != nil {
			u.dev.Write(byte(value))
		}
		logger.Logf(u.env, u.name, "%s write=%02x", u.connection, byte(value))
	case usartBRR:
		u.brr = value
	case usartCR1:
		u.cr1 = value
	case usartCR2:
		u.cr2 = value
	default:
		logger.Logf(u.env, u.name, "ignoring write to unimplemented offset %#02x (value of %08x)", offset, value)
	}
}
