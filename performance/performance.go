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

// Package performance contains helper functions relating to performance.
//
// Check() is a quick way of running the emulation for a fixed duration of
// time. It will optionally generate profiling information.
//
// RunProfiler() can be used to generate the various profile types. On it's own
// it will not limit the amount of time the program runs for.
package performance

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/jetsetilly/cortexm/govern"
	"github.com/jetsetilly/cortexm/hardware"
)

// sentinal error returned by Run() loop.
var timedOut = errors.New("performance timed out")

// Profile specifies which profiles are to be made.
type Profile int

// List of valid Profile values. The values can be combined.
const (
	ProfileNone Profile = 0
	ProfileCPU  Profile = 1 << iota
	ProfileMem
)

// ParseProfileString converts a comma separated list of profile names (CPU,
// MEM, NONE) to a Profile value.
func ParseProfileString(s string) (Profile, error) {
	p := ProfileNone
	for _, t := range strings.Split(s, ",") {
		switch strings.ToUpper(strings.TrimSpace(t)) {
		case "", "NONE":
		case "CPU":
			p |= ProfileCPU
		case "MEM":
			p |= ProfileMem
		default:
			return ProfileNone, fmt.Errorf("performance: unknown profile type: %s", t)
		}
	}
	return p, nil
}

// Check the performance of the emulator by running the machine for the
// duration. The number of instructions executed per second is written to
// output.
func Check(output io.Writer, profile Profile, m *hardware.Machine, duration time.Duration) error {
	var start uint64
	var startTime time.Time

	runner := func() error {
		timer := time.NewTimer(duration)
		defer timer.Stop()

		start = m.Instructions()
		startTime = time.Now()

		// only check for end of measurement period every PerformanceBrake
		// instructions. checking the timer channel is relatively expensive
		performanceBrake := 0

		return m.Run(func() (govern.State, error) {
			performanceBrake++
			if performanceBrake >= hardware.PerformanceBrake {
				performanceBrake = 0
				select {
				case <-timer.C:
					return govern.Ending, timedOut
				default:
				}
			}
			return govern.Running, nil
		})
	}

	err := RunProfiler(profile, "performance", runner)
	if err != nil && !errors.Is(err, timedOut) {
		return fmt.Errorf("performance: %w", err)
	}

	n := m.Instructions() - start
	secs := time.Since(startTime).Seconds()
	fmt.Fprintf(output, "%.2f MIPS (%d instructions in %.2f seconds)\n", CalcMIPS(n, secs), n, secs)

	return nil
}

// CalcMIPS returns the number of millions of instructions per second.
func CalcMIPS(instructions uint64, seconds float64) float64 {
	if seconds <= 0 {
		return 0
	}
	return float64(instructions) / seconds / 1000000
}

// RunProfiler runs the function with the profiles requested. Profile files are
// named with the supplied prefix.
func RunProfiler(profile Profile, prefix string, run func() error) error {
	if profile&ProfileCPU == ProfileCPU {
		f, err := os.Create(fmt.Sprintf("%s_cpu.profile", prefix))
		if err != nil {
			return fmt.Errorf("performance: %w", err)
		}
		defer f.Close()

		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("performance: %w", err)
		}
		defer pprof.StopCPUProfile()
	}

	err := run()

	if profile&ProfileMem == ProfileMem {
		f, err := os.Create(fmt.Sprintf("%s_mem.profile", prefix))
		if err != nil {
			return fmt.Errorf("performance: %w", err)
		}
		defer f.Close()

		runtime.GC()
		if err := pprof.WriteHeapProfile(f); err != nil {
			return fmt.Errorf("performance: %w", err)
		}
	}

	return err
}
