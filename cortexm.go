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

package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/bradleyjkemp/memviz"
	"github.com/jetsetilly/cortexm/digest"
	"github.com/jetsetilly/cortexm/environment"
	"github.com/jetsetilly/cortexm/govern"
	"github.com/jetsetilly/cortexm/hardware"
	"github.com/jetsetilly/cortexm/hardware/nvic"
	"github.com/jetsetilly/cortexm/hardware/peripherals/serial"
	"github.com/jetsetilly/cortexm/logger"
	"github.com/jetsetilly/cortexm/modalflag"
	"github.com/jetsetilly/cortexm/performance"
	"github.com/jetsetilly/cortexm/prefs"
	"github.com/jetsetilly/cortexm/script"
	"github.com/jetsetilly/cortexm/statsview"
	"github.com/jetsetilly/cortexm/version"
)

// set by the interrupt signal handler. checked by the continue check of the
// running emulation
var interrupted atomic.Bool

func main() {
	intChan := make(chan os.Signal, 1)
	signal.Notify(intChan, os.Interrupt)
	go func() {
		<-intChan
		interrupted.Store(true)
	}()

	os.Exit(launch(os.Args[1:], os.Stdout))
}

// launch the program with the arguments. the return value is the exit value
// of the program
func launch(args []string, output io.Writer) int {
	md := &modalflag.Modes{Output: output}
	md.NewArgs(args)
	md.AddSubModes("RUN", "VECTORS", "PERFORMANCE", "PREFS", "VERSION")

	p, err := md.Parse()
	switch p {
	case modalflag.ParseHelp:
		return 0

	case modalflag.ParseError:
		fmt.Fprintf(output, "* error: %v\n", err)
		return 10
	}

	switch md.Mode() {
	case "RUN":
		err = run(md)

	case "VECTORS":
		err = vectors(md)

	case "PERFORMANCE":
		err = perform(md)

	case "PREFS":
		err = showPrefs(md)

	case "VERSION":
		fmt.Fprintln(output, version.Version())
	}

	if err != nil {
		fmt.Fprintf(output, "* error in %s mode: %s\n", md.String(), err)
		return 20
	}

	return 0
}

// newEnvironment creates the environment for the main emulation. the
// prefsOverride string is pushed onto the command line preferences stack for
// the duration of the preferences loading
func newEnvironment(prefsOverride string) (*environment.Environment, error) {
	prefs.PushCommandLineStack(prefsOverride)
	env, err := environment.NewEnvironment(environment.MainEmulation, nil)
	if unused := prefs.PopCommandLineStack(); unused != "" {
		logger.Logf(logger.Allow, "cortexm", "unused preferences: %s", unused)
	}
	return env, err
}

// newMachine creates the machine and loads the firmware
func newMachine(env *environment.Environment, firmware string, devices *serial.Devices) (*hardware.Machine, error) {
	m, err := hardware.NewMachine(env, devices)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(firmware)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := m.LoadFirmware(f); err != nil {
		return nil, err
	}

	return m, nil
}

func oneArgument(md *modalflag.Modes) (string, error) {
	switch len(md.RemainingArgs()) {
	case 0:
		return "", fmt.Errorf("firmware file required for %s mode", md)
	case 1:
		return md.GetArg(0), nil
	}
	return "", fmt.Errorf("too many arguments for %s mode", md)
}

func run(md *modalflag.Modes) error {
	md.NewMode()

	prefsOverride := md.AddString("prefs", "", "preferences for this session (eg. \"hardware.cortexm.systick::1000\")")
	limit := md.AddUint64("limit", 0, "stop after number of instructions (0 for no limit)")
	usart := md.AddString("usart", "USART1", "peripheral to connect to the terminal or serial device")
	device := md.AddString("serial", "", "host serial device to use instead of the terminal")
	baud := md.AddInt("baud", serial.DefaultBaud, "baud rate of host serial device")
	scriptFile := md.AddString("script", "", "lua script to run alongside the firmware")
	log := md.AddBool("log", false, "echo log to stderr")
	stats := md.AddBool("statsview", false, fmt.Sprintf("run stats server (%s)", statsview.URL("")))
	memvizFile := md.AddString("memviz", "", "write graphviz diagram of final machine state to file")
	dgst := md.AddBool("digest", false, "print SHA-1 digest of serial output when the emulation ends")

	p, err := md.Parse()
	if err != nil || p != modalflag.ParseContinue {
		return err
	}

	firmware, err := oneArgument(md)
	if err != nil {
		return err
	}

	if *log {
		logger.SetEcho(os.Stderr, false)
		defer logger.SetEcho(nil, false)
	}

	if *stats {
		statsview.Launch(md.Output, "")
	}

	env, err := newEnvironment(*prefsOverride)
	if err != nil {
		return err
	}

	// the serial device used by the firmware. this is a host serial device
	// if one has been specified, otherwise it is the terminal
	devices := serial.NewDevices()
	defer devices.Close()

	var dev serial.Device
	if *device != "" {
		dev, err = serial.NewPort(*device, *baud)
	} else {
		dev, err = serial.NewConsole(os.Stdin, md.Output, env.Prefs.SerialEcho.Get().(bool))
	}
	if err != nil {
		return err
	}

	var dig *digest.Serial
	if *dgst {
		dig = digest.NewSerial(dev)
		dev = dig
	}

	devices.Attach(strings.ToUpper(*usart), dev)

	m, err := newMachine(env, firmware, devices)
	if err != nil {
		return err
	}

	var scr *script.Script
	if *scriptFile != "" {
		source, err := os.ReadFile(*scriptFile)
		if err != nil {
			return err
		}
		scr, err = script.NewScript(m.Env, m, filepath.Base(*scriptFile), string(source))
		if err != nil {
			return err
		}
		defer scr.Close()
	}

	performanceBrake := 0

	err = m.Run(func() (govern.State, error) {
		if *limit > 0 && m.Instructions() >= *limit {
			return govern.Ending, nil
		}

		if scr != nil {
			if err := scr.Tick(); err != nil {
				return govern.Ending, err
			}
			if scr.Stopped() {
				return govern.Ending, nil
			}
		}

		performanceBrake++
		if performanceBrake >= hardware.PerformanceBrake {
			performanceBrake = 0
			if interrupted.Load() {
				return govern.Ending, nil
			}
		}

		return govern.Running, nil
	})

	fmt.Fprintf(os.Stderr, "\r\n%s\n", m)
	if dig != nil {
		fmt.Fprintf(os.Stderr, "serial digest: %s\n", dig)
	}

	if *memvizFile != "" {
		f, ferr := os.Create(*memvizFile)
		if ferr != nil {
			return ferr
		}
		memviz.Map(f, m.Snapshot())
		if ferr := f.Close(); ferr != nil {
			return ferr
		}
	}

	return err
}

func vectors(md *modalflag.Modes) error {
	md.NewMode()

	prefsOverride := md.AddString("prefs", "", "preferences for this session (eg. \"hardware.cortexm.vectorTable::0x08004000\")")
	irqs := md.AddInt("irqs", 16, "number of device interrupts to list")

	p, err := md.Parse()
	if err != nil || p != modalflag.ParseContinue {
		return err
	}

	firmware, err := oneArgument(md)
	if err != nil {
		return err
	}

	env, err := newEnvironment(*prefsOverride)
	if err != nil {
		return err
	}

	m, err := newMachine(env, firmware, nil)
	if err != nil {
		return err
	}

	n := nvic.Offset + *irqs
	if n > nvic.Capacity {
		n = nvic.Capacity
	}

	v, err := m.Vectors(n)
	for _, e := range v {
		fmt.Fprintln(md.Output, e)
	}

	return err
}

func perform(md *modalflag.Modes) error {
	md.NewMode()

	prefsOverride := md.AddString("prefs", "", "preferences for this session")
	duration := md.AddDuration("duration", 5*time.Second, "run duration")
	profile := md.AddString("profile", "none", "create profile reports (cpu, mem)")

	p, err := md.Parse()
	if err != nil || p != modalflag.ParseContinue {
		return err
	}

	firmware, err := oneArgument(md)
	if err != nil {
		return err
	}

	prf, err := performance.ParseProfileString(*profile)
	if err != nil {
		return err
	}

	env, err := newEnvironment(*prefsOverride)
	if err != nil {
		return err
	}

	m, err := newMachine(env, firmware, nil)
	if err != nil {
		return err
	}

	return performance.Check(md.Output, prf, m, *duration)
}

func showPrefs(md *modalflag.Modes) error {
	md.NewMode()

	prefsOverride := md.AddString("prefs", "", "preferences to set")
	save := md.AddBool("save", false, "save preferences to disk")

	p, err := md.Parse()
	if err != nil || p != modalflag.ParseContinue {
		return err
	}

	env, err := newEnvironment(*prefsOverride)
	if err != nil {
		return err
	}

	if *save {
		if err := env.Prefs.Save(); err != nil {
			return err
		}
	}

	fmt.Fprint(md.Output, env.Prefs)

	return nil
}
