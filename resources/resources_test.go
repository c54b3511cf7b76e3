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

package resources_test

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/jetsetilly/cortexm/resources"
	"github.com/jetsetilly/cortexm/test"
)

func TestPortablePath(t *testing.T) {
	t.Chdir(t.TempDir())
	test.DemandSuccess(t, os.Mkdir(".cortexm", 0o700))

	pth, err := resources.JoinPath("foo", "bar", "baz")
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, pth, filepath.Join(".cortexm", "foo", "bar", "baz"))

	// intermediate directories have been created but not the file
	fi, err := os.Stat(filepath.Join(".cortexm", "foo", "bar"))
	test.ExpectSuccess(t, err)
	test.ExpectSuccess(t, fi.IsDir())
	_, err = os.Stat(pth)
	test.ExpectFailure(t, err)

	// base path is not added twice
	pth, err = resources.JoinPath(pth)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, pth, filepath.Join(".cortexm", "foo", "bar", "baz"))
}

func TestUniqueFilename(t *testing.T) {
	re := regexp.MustCompile(`^trace_firmware_\d{8}_\d{6}$`)
	test.ExpectSuccess(t, re.MatchString(resources.UniqueFilename("trace", " firmware ")))

	re = regexp.MustCompile(`^trace_\d{8}_\d{6}$`)
	test.ExpectSuccess(t, re.MatchString(resources.UniqueFilename("trace", "")))
}
