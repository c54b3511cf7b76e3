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

// Package resources contains functions to prepare paths for the files the
// emulator reads and writes between sessions, such as the preferences file.
//
// The JoinPath() function returns the path to the resource named in the
// arguments. If the directory ".cortexm" exists in the current working
// directory then that is the base path. Otherwise the base path is the
// "cortexm" directory in the user's configuration directory (see
// os.UserConfigDir() for the host specific details). On a modern Linux
// system that would be something like:
//
//	/home/user/.config/cortexm/
//
// Directories are created as required but files are never touched.
package resources

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// the portable base path. used in preference to the user's configuration
// directory if it exists
const portablePath = ".cortexm"

// the name of the directory in the user's configuration directory
const configDir = "cortexm"

// base returns the base path for all resources
func base() (string, error) {
	if fi, err := os.Stat(portablePath); err == nil && fi.IsDir() {
		return portablePath, nil
	}

	cnf, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resources: %w", err)
	}
	return filepath.Join(cnf, configDir), nil
}

// JoinPath prepends the supplied path with the base path. Directories leading
// to the final element of the path are created if necessary.
func JoinPath(path ...string) (string, error) {
	b, err := base()
	if err != nil {
		return "", err
	}

	p := filepath.Join(path...)

	// do not prepend base path if it is already present
	if !strings.HasPrefix(p, b) {
		p = filepath.Join(b, p)
	}

	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return "", fmt.Errorf("resources: %w", err)
	}

	return p, nil
}

// UniqueFilename creates a filename that (assuming a functioning clock) should
// not collide with any existing file. The function does not test for this.
//
// Format of returned string is:
//
//	prepend_name_YYYYMMDD_HHMMSS
//
// If name is empty the returned string is of the format:
//
//	prepend_YYYYMMDD_HHMMSS
func UniqueFilename(prepend string, name string) string {
	n := time.Now()
	timestamp := fmt.Sprintf("%04d%02d%02d_%02d%02d%02d", n.Year(), n.Month(), n.Day(), n.Hour(), n.Minute(), n.Second())

	name = strings.TrimSpace(name)
	if len(name) > 0 {
		return fmt.Sprintf("%s_%s_%s", prepend, name, timestamp)
	}
	return fmt.Sprintf("%s_%s", prepend, timestamp)
}
