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

// Package digest contains implementations of the serial.Device interface
// that produce a cryptographic hash of the data transmitted by the firmware.
// The hash can be used to compare the output of subsequent runs of the same
// firmware. If the hash differs from a previously recorded value then
// something has changed.
package digest

// Digest implementations return a cryptographic hash of everything seen since
// the previous call to ResetDigest().
type Digest interface {
	Hash() string
	ResetDigest()
}
