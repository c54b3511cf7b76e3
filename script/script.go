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

// Package script runs Lua stimulus scripts alongside the emulation. A script
// can assert interrupts, read memory and stop the emulation, which makes it
// possible to exercise the interrupt handlers of firmware without emulating
// the external events that would normally cause them.
//
// The following functions are available to the script:
//
//	interrupt(n)     assert interrupt number n
//	instructions()   the number of instructions executed so far
//	peek(addr)       the 32bit word at addr (flash and SRAM only)
//	log(s)           add s to the emulator log
//	stop()           end the emulation
//
// The global table irq contains the numbers of the architectural exceptions
// (irq.SysTick, irq.PendSV, etc.).
//
// If the script defines a function called on_tick then it is called
// periodically with the current instruction count. The period is 100
// instructions unless the script sets the global variable interval to a
// different value.
package script

import (
	"strings"

	"github.com/jetsetilly/cortexm/curated"
	"github.com/jetsetilly/cortexm/hardware/nvic"
	"github.com/jetsetilly/cortexm/logger"
	lua "github.com/yuin/gopher-lua"
)

// Sentinal errors.
const (
	ScriptError = "script: %v"
)

// DefaultInterval is the number of instructions between calls to on_tick if
// the script does not say otherwise.
const DefaultInterval = 100

// Machine is the part of the emulation that a script can see.
type Machine interface {
	Assert(irq int)
	Instructions() uint64
	// Word must not read peripheral registers because the read may change
	// the state of the peripheral
	Word(addr uint32) (uint32, error)
}

// Script is a loaded stimulus script.
type Script struct {
	env logger.Permission
	m   Machine

	state *lua.LState

	onTick   lua.LValue
	interval uint64
	next     uint64

	stopped bool
}

// NewScript is the preferred method of initialisation for the Script type.
// The name is used in error messages.
func NewScript(env logger.Permission, m Machine, name string, source string) (*Script, error) {
	scr := &Script{
		env:      env,
		m:        m,
		state:    lua.NewState(),
		interval: DefaultInterval,
	}

	scr.state.SetGlobal("interrupt", scr.state.NewFunction(scr.interrupt))
	scr.state.SetGlobal("instructions", scr.state.NewFunction(scr.instructions))
	scr.state.SetGlobal("peek", scr.state.NewFunction(scr.peek))
	scr.state.SetGlobal("log", scr.state.NewFunction(scr.log))
	scr.state.SetGlobal("stop", scr.state.NewFunction(scr.stop))

	irq := scr.state.NewTable()
	for _, n := range []int{nvic.NMI, nvic.HardFault, nvic.MemManage, nvic.BusFault,
		nvic.UsageFault, nvic.SVCall, nvic.DebugMon, nvic.PendSV, nvic.SysTick} {
		irq.RawSetString(nvic.Name(n), lua.LNumber(n))
	}
	scr.state.SetGlobal("irq", irq)

	fn, err := scr.state.Load(strings.NewReader(source), name)
	if err != nil {
		scr.state.Close()
		return nil, curated.Errorf(ScriptError, err)
	}
	scr.state.Push(fn)
	if err := scr.state.PCall(0, lua.MultRet, nil); err != nil {
		scr.state.Close()
		return nil, curated.Errorf(ScriptError, err)
	}

	if v, ok := scr.state.GetGlobal("interval").(lua.LNumber); ok && v >= 1 {
		scr.interval = uint64(v)
	}

	scr.onTick = scr.state.GetGlobal("on_tick")
	if scr.onTick.Type() != lua.LTFunction {
		scr.onTick = nil
	}

	scr.next = m.Instructions() + scr.interval

	logger.Logf(env, "script", "loaded %s (interval %d)", name, scr.interval)

	return scr, nil
}

// Close the script. The script cannot be used after it is closed.
func (scr *Script) Close() {
	scr.state.Close()
}

// Stopped returns true if the script has called stop().
func (scr *Script) Stopped() bool {
	return scr.stopped
}

// Tick should be called after every instruction. The on_tick function of the
// script is called if the interval has elapsed.
func (scr *Script) Tick() error {
	if scr.onTick == nil || scr.stopped {
		return nil
	}

	now := scr.m.Instructions()
	if now < scr.next {
		return nil
	}
	scr.next = now + scr.interval

	err := scr.state.CallByParam(lua.P{
		Fn:      scr.onTick,
		NRet:    0,
		Protect: true,
	}, lua.LNumber(now))
	if err != nil {
		return curated.Errorf(ScriptError, err)
	}

	return nil
}

func (scr *Script) interrupt(L *lua.LState) int {
	n := L.CheckInt(1)
	if !nvic.Valid(n) {
		L.ArgError(1, "interrupt number out of range")
		return 0
	}
	scr.m.Assert(n)
	return 0
}

func (scr *Script) instructions(L *lua.LState) int {
	L.Push(lua.LNumber(scr.m.Instructions()))
	return 1
}

func (scr *Script) peek(L *lua.LState) int {
	addr := uint32(L.CheckInt64(1))
	v, err := scr.m.Word(addr)
	if err != nil {
		L.RaiseError("%v", err)
		return 0
	}
	L.Push(lua.LNumber(v))
	return 1
}

func (scr *Script) log(L *lua.LState) int {
	logger.Log(scr.env, "script", L.CheckString(1))
	return 0
}

func (scr *Script) stop(L *lua.LState) int {
	scr.stopped = true
	logger.Log(scr.env, "script", "stop requested")
	return 0
}
