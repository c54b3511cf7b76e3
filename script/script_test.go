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

package script_test

import (
	"errors"
	"testing"

	"github.com/jetsetilly/cortexm/curated"
	"github.com/jetsetilly/cortexm/hardware/nvic"
	"github.com/jetsetilly/cortexm/script"
	"github.com/jetsetilly/cortexm/test"
)

type machine struct {
	instructions uint64
	asserted     []int
	memory       map[uint32]uint32
}

func (m *machine) Assert(irq int) {
	m.asserted = append(m.asserted, irq)
}

func (m *machine) Instructions() uint64 {
	return m.instructions
}

func (m *machine) Word(addr uint32) (uint32, error) {
	v, ok := m.memory[addr]
	if !ok {
		return 0, errors.New("unmapped")
	}
	return v, nil
}

func TestTick(t *testing.T) {
	m := &machine{}
	scr, err := script.NewScript(nil, m, "test", `
interval = 10
function on_tick(n)
	if n >= 30 then
		interrupt(irq.PendSV)
	end
	if n >= 50 then
		stop()
	end
end
`)
	test.DemandSuccess(t, err)
	defer scr.Close()

	for m.instructions = 1; m.instructions <= 100 && !scr.Stopped(); m.instructions++ {
		test.DemandSuccess(t, scr.Tick())
	}

	// ticks at 10, 20, 30, 40 and 50
	test.ExpectSuccess(t, scr.Stopped())
	test.ExpectEquality(t, m.instructions, 51)
	test.ExpectEquality(t, len(m.asserted), 3)
	test.ExpectEquality(t, m.asserted[0], nvic.PendSV)
}

func TestDefaultInterval(t *testing.T) {
	m := &machine{}
	scr, err := script.NewScript(nil, m, "test", `
count = 0
function on_tick(n)
	count = count + 1
	interrupt(3)
end
`)
	test.DemandSuccess(t, err)
	defer scr.Close()

	for m.instructions = 1; m.instructions <= 1000; m.instructions++ {
		test.DemandSuccess(t, scr.Tick())
	}
	test.ExpectEquality(t, len(m.asserted), 1000/script.DefaultInterval)
	test.ExpectEquality(t, m.asserted[0], 3)
}

func TestPeek(t *testing.T) {
	m := &machine{memory: map[uint32]uint32{0x20000000: 42}}
	scr, err := script.NewScript(nil, m, "test", `
interval = 1
function on_tick(n)
	if peek(0x20000000) == 42 then
		interrupt(irq.SysTick)
	end
end
`)
	test.DemandSuccess(t, err)
	defer scr.Close()

	m.instructions = 1
	test.ExpectSuccess(t, scr.Tick())
	test.ExpectEquality(t, len(m.asserted), 1)
	test.ExpectEquality(t, m.asserted[0], nvic.SysTick)

	// unmapped memory raises an error in the script
	delete(m.memory, 0x20000000)
	scr2, err := script.NewScript(nil, m, "test", `
interval = 1
function on_tick(n)
	peek(0x60000000)
end
`)
	test.DemandSuccess(t, err)
	defer scr2.Close()
	m.instructions = 2
	err = scr2.Tick()
	test.ExpectFailure(t, err)
	test.ExpectSuccess(t, curated.Is(err, script.ScriptError))
}

func TestBadInterrupt(t *testing.T) {
	m := &machine{}
	scr, err := script.NewScript(nil, m, "test", `
interval = 1
function on_tick(n)
	interrupt(112)
end
`)
	test.DemandSuccess(t, err)
	defer scr.Close()

	m.instructions = 1
	test.ExpectFailure(t, scr.Tick())
	test.ExpectEquality(t, len(m.asserted), 0)
}

func TestSyntaxError(t *testing.T) {
	_, err := script.NewScript(nil, &machine{}, "test", `function (`)
	test.ExpectFailure(t, err)
	test.ExpectSuccess(t, curated.Is(err, script.ScriptError))
}

func TestNoTickFunction(t *testing.T) {
	m := &machine{}
	scr, err := script.NewScript(nil, m, "test", `interrupt(5)`)
	test.DemandSuccess(t, err)
	defer scr.Close()

	// the body of the script runs once when it is loaded
	test.ExpectEquality(t, len(m.asserted), 1)

	m.instructions = 1000
	test.ExpectSuccess(t, scr.Tick())
	test.ExpectEquality(t, len(m.asserted), 1)
}
