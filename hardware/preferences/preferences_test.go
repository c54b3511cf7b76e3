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

package preferences_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jetsetilly/cortexm/hardware/memory/memorymap"
	"github.com/jetsetilly/cortexm/hardware/preferences"
	"github.com/jetsetilly/cortexm/prefs"
	"github.com/jetsetilly/cortexm/test"
)

func TestDefaults(t *testing.T) {
	p, err := preferences.NewPreferencesFromFile(filepath.Join(t.TempDir(), "preferences"))
	test.DemandSuccess(t, err)

	test.ExpectEquality(t, p.Target.String(), "STM32F4")
	test.ExpectEquality(t, p.VectorTable.Get().(int), 0x08000000)
	test.ExpectEquality(t, p.SysTick.Get().(int), 0)
	test.ExpectEquality(t, p.AbortOnMemoryFault.Get().(bool), true)
	test.ExpectEquality(t, p.SerialEcho.Get().(bool), false)
	test.ExpectEquality(t, p.Map().Target, memorymap.STM32F4)
}

func TestValidation(t *testing.T) {
	p, err := preferences.NewPreferencesFromFile(filepath.Join(t.TempDir(), "preferences"))
	test.DemandSuccess(t, err)

	test.ExpectSuccess(t, p.Target.Set("stm32f1"))
	test.ExpectEquality(t, p.Map().Target, memorymap.STM32F1)
	test.ExpectFailure(t, p.Target.Set("ATSAM3X"))
	test.ExpectEquality(t, p.Target.String(), "stm32f1")

	test.ExpectSuccess(t, p.VectorTable.Set("0x20000000"))
	test.ExpectFailure(t, p.VectorTable.Set(0x20000002))
	test.ExpectEquality(t, p.VectorTable.Get().(int), 0x20000000)

	test.ExpectSuccess(t, p.SysTick.Set(1000))
	test.ExpectFailure(t, p.SysTick.Set(-1))
	test.ExpectEquality(t, p.SysTick.Get().(int), 1000)
}

func TestSaveLoad(t *testing.T) {
	pth := filepath.Join(t.TempDir(), "preferences")

	p, err := preferences.NewPreferencesFromFile(pth)
	test.DemandSuccess(t, err)
	test.ExpectSuccess(t, p.SysTick.Set(500))
	test.ExpectSuccess(t, p.SerialEcho.Set(true))
	test.ExpectSuccess(t, p.Save())

	data, err := os.ReadFile(pth)
	test.DemandSuccess(t, err)
	test.ExpectSuccess(t, strings.Contains(string(data), "hardware.cortexm.systick :: 500"))

	q, err := preferences.NewPreferencesFromFile(pth)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, q.SysTick.Get().(int), 500)
	test.ExpectEquality(t, q.SerialEcho.Get().(bool), true)
}

func TestCommandLine(t *testing.T) {
	prefs.PushCommandLineStack("hardware.cortexm.systick::250; hardware.cortexm.target::STM32F1")
	defer prefs.PopCommandLineStack()

	p, err := preferences.NewPreferencesFromFile(filepath.Join(t.TempDir(), "preferences"))
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, p.SysTick.Get().(int), 250)
	test.ExpectEquality(t, p.Map().Target, memorymap.STM32F1)
}
