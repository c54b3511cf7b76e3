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

// Package preferences collates the preference values used by the emulated
// hardware. Values are stored in the preferences file alongside any other
// preferences the program uses (see the prefs package).
package preferences

import (
	"fmt"
	"strings"

	"github.com/jetsetilly/cortexm/hardware/memory/memorymap"
	"github.com/jetsetilly/cortexm/prefs"
	"github.com/jetsetilly/cortexm/resources"
)

// Preferences defines and collates all the preference values used by the
// hardware.
type Preferences struct {
	dsk *prefs.Disk

	// the microcontroller being emulated. one of the memorymap.Targets values
	Target prefs.String

	// address of the vector table. exception entry reads handler addresses
	// from this table
	VectorTable prefs.Int

	// number of instructions between SysTick exceptions. a value of zero
	// means that the SysTick is disabled until the firmware enables it
	SysTick prefs.Int

	// whether accesses to unmapped memory by the CPU are errors. if false the
	// access is logged and ignored
	AbortOnMemoryFault prefs.Bool

	// whether bytes received by a console serial device are echoed back to
	// the terminal
	SerialEcho prefs.Bool
}

func (p *Preferences) String() string {
	return p.dsk.String()
}

// NewPreferences is the preferred method of initialisation for the
// Preferences type. Values are loaded from the default preferences file.
func NewPreferences() (*Preferences, error) {
	pth, err := resources.JoinPath(prefs.DefaultPrefsFile)
	if err != nil {
		return nil, err
	}
	return NewPreferencesFromFile(pth)
}

// NewPreferencesFromFile is like NewPreferences() but the values are loaded
// from (and saved to) the named file.
func NewPreferencesFromFile(pth string) (*Preferences, error) {
	p := &Preferences{}

	p.Target.SetHookPre(func(v prefs.Value) error {
		t := memorymap.Target(strings.ToUpper(fmt.Sprintf("%v", v)))
		for _, s := range memorymap.Targets {
			if s == t {
				return nil
			}
		}
		return fmt.Errorf("preferences: unsupported target: %v", v)
	})

	p.VectorTable.SetHookPre(func(v prefs.Value) error {
		a := v.(int)
		if a < 0 || int64(a) > 0xffffffff || a&0x03 != 0 {
			return fmt.Errorf("preferences: vector table address must be word aligned: %#x", a)
		}
		return nil
	})

	p.SysTick.SetHookPre(func(v prefs.Value) error {
		n := v.(int)
		if n < 0 || int64(n) > 0xffffffff {
			return fmt.Errorf("preferences: systick period out of range: %d", n)
		}
		return nil
	})

	p.SetDefaults()

	var err error
	p.dsk, err = prefs.NewDisk(pth)
	if err != nil {
		return nil, err
	}
	err = p.dsk.Add("hardware.cortexm.target", &p.Target)
	if err != nil {
		return nil, err
	}
	err = p.dsk.Add("hardware.cortexm.vectorTable", &p.VectorTable)
	if err != nil {
		return nil, err
	}
	err = p.dsk.Add("hardware.cortexm.systick", &p.SysTick)
	if err != nil {
		return nil, err
	}
	err = p.dsk.Add("hardware.cortexm.abortOnMemoryFault", &p.AbortOnMemoryFault)
	if err != nil {
		return nil, err
	}
	err = p.dsk.Add("hardware.cortexm.serialEcho", &p.SerialEcho)
	if err != nil {
		return nil, err
	}
	err = p.dsk.Load()
	if err != nil {
		return nil, err
	}

	return p, nil
}

// SetDefaults reverts all settings to default values.
func (p *Preferences) SetDefaults() {
	p.Target.Set(string(memorymap.STM32F4))
	p.VectorTable.Set(0x08000000)
	p.SysTick.Set(0)
	p.AbortOnMemoryFault.Set(true)
	p.SerialEcho.Set(false)
}

// Map returns the memory map of the target named in the preferences.
func (p *Preferences) Map() memorymap.Map {
	return memorymap.NewMap(memorymap.Target(p.Target.String()))
}

// Load current hardware preferences from disk.
func (p *Preferences) Load() error {
	return p.dsk.Load()
}

// Save current hardware preferences to disk.
func (p *Preferences) Save() error {
	return p.dsk.Save()
}
