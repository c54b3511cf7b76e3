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

// Package environment provides the context for an emulation. The Environment
// type is the usual implementation of the logger.Permission interface for
// the hardware packages.
package environment

import (
	"github.com/jetsetilly/cortexm/hardware/instructions"
	"github.com/jetsetilly/cortexm/hardware/preferences"
	"github.com/jetsetilly/cortexm/random"
)

// Label is used to name the environment
type Label string

// MainEmulation is the label used for the main emulation in the system.
const MainEmulation = Label("")

// Environment is used to provide context for an emulation. Particularly useful
// when using more than one emulation
type Environment struct {
	Label Label

	// the instruction counter of the emulation. this is the measure of time
	// for every part of the emulation
	Counter *instructions.Counter

	// any randomisation required by the emulation should be retreived through
	// this structure
	Random *random.Random

	// the emulation preferences
	Prefs *preferences.Preferences
}

// NewEnvironment is the preferred method of initialisation for the Environment type.
//
// The prefs argument can by nil, in which case a new Preferences instance will
// be created. Providing a non-nil value allows the preferences of more than
// one emulation to be synchronised.
func NewEnvironment(label Label, prefs *preferences.Preferences) (*Environment, error) {
	env := &Environment{
		Label:   label,
		Counter: &instructions.Counter{},
	}
	env.Random = random.NewRandom(env.Counter)

	var err error

	if prefs == nil {
		prefs, err = preferences.NewPreferences()
		if err != nil {
			return nil, err
		}
	}

	env.Prefs = prefs

	return env, nil
}

// Normalise ensures the environment is in an known default state. Useful for
// testing where the initial state must be the same for every run.
func (env *Environment) Normalise() {
	env.Random.ZeroSeed = true
	env.Prefs.SetDefaults()
}

// AllowLogging implements the logger.Permission interface. Only the main
// emulation is allowed to log.
func (env *Environment) AllowLogging() bool {
	return env.IsMainEmulation()
}

// IsMainEmulation returns true if the environment is intended for the main
// emulation in the system
func (env *Environment) IsMainEmulation() bool {
	return env.Label == MainEmulation
}

// IsEmulation checks the emulation label and returns true if it matches
func (env *Environment) IsEmulation(label Label) bool {
	return env.Label == label
}
