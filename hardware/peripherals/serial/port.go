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
	"fmt"

	"github.com/pkg/term"
)

// DefaultBaud is the baud rate used for a Port if none is specified.
const DefaultBaud = 115200

// Port connects a serial port to a serial device of the host, such as
// /dev/ttyUSB0. The device is put into raw mode at the requested baud rate.
type Port struct {
	path string
	t    *term.Term
	rx   receiver
}

// NewPort is the preferred method of initialisation for the Port type.
func NewPort(path string, baud int) (*Port, error) {
	if baud <= 0 {
		baud = DefaultBaud
	}

	t, err := term.Open(path, term.Speed(baud), term.RawMode)
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}

	p := &Port{
		path: path,
		t:    t,
	}

	go p.rx.pump(p.t)

	return p, nil
}

// Connect implements the Device interface.
func (p *Port) Connect(peripheral string) string {
	return fmt.Sprintf("%s (%s)", peripheral, p.path)
}

// Read implements the Device interface.
func (p *Port) Read() (byte, bool) {
	return p.rx.next()
}

// Write implements the Device interface.
func (p *Port) Write(b byte) {
	_, _ = p.t.Write([]byte{b})
}

// Close the host serial device. The device is restored to the mode it was in
// before it was opened.
func (p *Port) Close() error {
	_ = p.t.Restore()
	return p.t.Close()
}
