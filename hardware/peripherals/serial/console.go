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
	"io"
	"os"

	"golang.org/x/term"
)

// Console connects a serial port to the terminal of the host. Bytes typed at
// the terminal are received by the peripheral and bytes transmitted by the
// peripheral are written to the terminal.
//
// If the input is a terminal it is put into raw mode so that the firmware
// sees each key press as it happens.
type Console struct {
	in  *os.File
	out io.Writer

	// if echo is true then received bytes are also written to the output
	echo bool

	rx receiver

	fd       int
	oldState *term.State
}

// NewConsole is the preferred method of initialisation for the Console type.
func NewConsole(in *os.File, out io.Writer, echo bool) (*Console, error) {
	if in == nil {
		return nil, fmt.Errorf("console: requires an input file")
	}
	if out == nil {
		return nil, fmt.Errorf("console: requires an output")
	}

	con := &Console{
		in:   in,
		out:  out,
		echo: echo,
		fd:   int(in.Fd()),
	}

	if term.IsTerminal(con.fd) {
		var err error
		con.oldState, err = term.MakeRaw(con.fd)
		if err != nil {
			return nil, fmt.Errorf("console: %w", err)
		}
	}

	go con.rx.pump(con.in)

	return con, nil
}

// Connect implements the Device interface.
func (con *Console) Connect(peripheral string) string {
	return peripheral + " (console)"
}

// Read implements the Device interface.
func (con *Console) Read() (byte, bool) {
	b, ok := con.rx.next()
	if ok && con.echo {
		_, _ = con.out.Write([]byte{b})
	}
	return b, ok
}

// Write implements the Device interface.
func (con *Console) Write(b byte) {
	// raw mode means the terminal no longer translates newlines
	if b == '\n' && con.oldState != nil {
		_, _ = con.out.Write([]byte{'\r', '\n'})
		return
	}
	_, _ = con.out.Write([]byte{b})
}

// Close restores the terminal to the state it was in before the Console was
// created.
func (con *Console) Close() error {
	if con.oldState != nil {
		err := term.Restore(con.fd, con.oldState)
		con.oldState = nil
		return err
	}
	return nil
}
