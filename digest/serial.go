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

package digest

import (
	"crypto/sha1"
	"fmt"
	"hash"
	"sync"

	"github.com/jetsetilly/cortexm/hardware/peripherals/serial"
)

// Serial is an implementation of the serial.Device interface. Every byte
// transmitted by the firmware is added to a SHA-1 hash before being passed
// to the embedded device. The embedded device can be nil, in which case the
// byte goes nowhere and nothing is ever received.
//
// Note that the use of SHA-1 is fine for this application because this is
// not a cryptographic task.
type Serial struct {
	serial.Device

	crit   sync.Mutex
	digest hash.Hash
	count  int
}

// NewSerial is the preferred method of initialisation for the Serial type.
func NewSerial(dev serial.Device) *Serial {
	return &Serial{
		Device: dev,
		digest: sha1.New(),
	}
}

// Connect implements the serial.Device interface.
func (dig *Serial) Connect(peripheral string) string {
	if dig.Device == nil {
		return peripheral + " (digest)"
	}
	return dig.Device.Connect(peripheral) + " (digest)"
}

// Read implements the serial.Device interface.
func (dig *Serial) Read() (byte, bool) {
	if dig.Device == nil {
		return 0, false
	}
	return dig.Device.Read()
}

// Write implements the serial.Device interface.
func (dig *Serial) Write(b byte) {
	dig.crit.Lock()
	dig.digest.Write([]byte{b})
	dig.count++
	dig.crit.Unlock()

	if dig.Device != nil {
		dig.Device.Write(b)
	}
}

// Close implements the serial.Closer interface. The embedded device is closed
// if it implements the serial.Closer interface.
func (dig *Serial) Close() error {
	if c, ok := dig.Device.(serial.Closer); ok {
		return c.Close()
	}
	return nil
}

// Hash implements the digest.Digest interface.
func (dig *Serial) Hash() string {
	dig.crit.Lock()
	defer dig.crit.Unlock()
	return fmt.Sprintf("%x", dig.digest.Sum(nil))
}

// ResetDigest implements the digest.Digest interface.
func (dig *Serial) ResetDigest() {
	dig.crit.Lock()
	defer dig.crit.Unlock()
	dig.digest.Reset()
	dig.count = 0
}

func (dig *Serial) String() string {
	dig.crit.Lock()
	defer dig.crit.Unlock()
	return fmt.Sprintf("%d bytes: %x", dig.count, dig.digest.Sum(nil))
}
