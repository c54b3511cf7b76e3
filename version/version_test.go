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

package version

import (
	"runtime/debug"
	"testing"

	"github.com/jetsetilly/cortexm/test"
)

func TestFromSettings(t *testing.T) {
	inf := fromSettings("", nil)
	test.ExpectEquality(t, inf.Version, "local")
	test.ExpectEquality(t, inf.Revision, "no revision information")
	test.ExpectFailure(t, inf.Release)

	inf = fromSettings("", []debug.BuildSetting{
		{Key: "vcs", Value: "git"},
		{Key: "vcs.revision", Value: "abc123"},
		{Key: "vcs.modified", Value: "true"},
	})
	test.ExpectEquality(t, inf.Version, "unreleased")
	test.ExpectEquality(t, inf.Revision, "abc123+dirty")
	test.ExpectEquality(t, inf.String(), "cortexm unreleased (abc123+dirty)")

	inf = fromSettings("v0.1.0", []debug.BuildSetting{
		{Key: "vcs", Value: "git"},
		{Key: "vcs.revision", Value: "abc123"},
	})
	test.ExpectSuccess(t, inf.Release)
	test.ExpectEquality(t, inf.String(), "cortexm v0.1.0")
}
