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

// Package version reports the version of the program. The version number is
// set at link time with the -X flag, for example:
//
//	go build -ldflags "-X github.com/jetsetilly/cortexm/version.number=v0.1.0"
package version

import (
	"fmt"
	"runtime/debug"
)

// ApplicationName is the name to use when referring to the program.
const ApplicationName = "cortexm"

// set by the linker
var number string

// Info describes the build of the program.
type Info struct {
	// the version number or "unreleased" if the program has been built from
	// a repository without a version number. "local" if there is no
	// repository information at all
	Version string

	// the vcs revision, suffixed with "+dirty" if the source was modified
	Revision string

	// true if Version is a numbered release
	Release bool
}

func (inf Info) String() string {
	if inf.Release {
		return fmt.Sprintf("%s %s", ApplicationName, inf.Version)
	}
	return fmt.Sprintf("%s %s (%s)", ApplicationName, inf.Version, inf.Revision)
}

// Version returns the build information of the running program.
func Version() Info {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return fromSettings(number, nil)
	}
	return fromSettings(number, info.Settings)
}

func fromSettings(number string, settings []debug.BuildSetting) Info {
	var vcs, modified bool
	var revision string

	for _, s := range settings {
		switch s.Key {
		case "vcs":
			vcs = true
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			modified = s.Value == "true"
		}
	}

	inf := Info{
		Version:  number,
		Revision: revision,
		Release:  number != "",
	}

	if inf.Revision == "" {
		inf.Revision = "no revision information"
	} else if modified {
		inf.Revision += "+dirty"
	}

	if !inf.Release {
		if vcs {
			inf.Version = "unreleased"
		} else {
			inf.Version = "local"
		}
	}

	return inf
}
