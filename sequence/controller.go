// Copyright 2021 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Target sequencing.

package sequence

import (
	"fmt"
	"log"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"abkant/encoder"
	"abkant/pins"
)

// rearmAngle is the hysteresis point: once the measured angle rises
// above it, the zero-crossing reset guard is re-armed so the next
// return to zero counts again.
const rearmAngle = 5.0

// idleDelay is the evaluation period while no sequence is active.
const idleDelay = 200 * time.Millisecond

// Controller runs the target sequence. It owns the decoder, drives
// the output pin from the evaluation loop, and is the single object
// shared between the sampling context, the evaluation loop and the
// control surfaces (HTTP and console).
type Controller struct {
	state *encoder.State
	store *Store
	out   pins.Output

	// The decoder is updated under a short critical section; the
	// sampling contexts never take any other lock.
	decMu sync.Mutex
	dec   encoder.Decoder
	half  bool

	reverse     atomic.Bool
	tickSize    atomic.Int32
	defaultHigh atomic.Bool

	// Physical level on the pin: -1 unknown, 0 low, 1 high.
	// Only the evaluation loop writes the pin.
	lastLevel atomic.Int32
}

// New creates a controller using the shared state, the settings
// store and the output collaborator.
func New(state *encoder.State, store *Store, out pins.Output) *Controller {
	c := &Controller{state: state, store: store, out: out}
	c.lastLevel.Store(-1)
	c.tickSize.Store(1)
	c.ApplySettings(store.Get())
	return c
}

// ApplySettings refreshes the derived per-sample values from a
// settings snapshot. Called at construction, on Start and whenever
// the settings are replaced.
func (c *Controller) ApplySettings(s Settings) {
	c.reverse.Store(s.ForwardDirection == DirCounterClockwise)
	c.tickSize.Store(int32(s.TickSizeMultiplier))
	c.defaultHigh.Store(s.OutputDefaultState)
	c.state.SetStepsPerDegree(s.StepsPerDegree())
	c.state.SetDebug(s.DebugEnabled)
	half := s.StepMode != StepFull
	c.decMu.Lock()
	if c.dec == nil || half != c.half {
		c.half = half
		c.dec = encoder.NewDecoder(half)
	}
	c.decMu.Unlock()
}

// Sample feeds one sample of both phases through the decoder and
// applies any resulting step to the position. Safe for concurrent
// callers; the critical section is short and does no I/O, so the
// sampling context never blocks for long.
func (c *Controller) Sample(clk, dt bool) {
	c.decMu.Lock()
	dir := c.dec.Update(clk, dt)
	code := c.dec.StateCode()
	c.decMu.Unlock()
	st := c.state
	st.RecordSample(clk, dt, code)
	if dir == encoder.None {
		return
	}
	if c.reverse.Load() {
		dir = -dir
	}
	v := st.Add(int32(dir) * c.tickSize.Load())
	if st.Debug() {
		log.Printf("debug: step %s, position %d (%.1f°)", dir, v, st.Angle())
	}
}

// Start installs a new target sequence and activates it. Angles are
// clamped to [0,360] degrees and converted to decoder steps.
func (c *Controller) Start(angles []float64) error {
	if len(angles) == 0 {
		return fmt.Errorf("no target angles given")
	}
	s := c.store.Get()
	if len(angles) > s.NumTargetAngles {
		return fmt.Errorf("too many target angles (%d, limit %d)", len(angles), s.NumTargetAngles)
	}
	c.ApplySettings(s)
	spd := s.StepsPerDegree()
	targets := make([]int32, len(angles))
	for i, a := range angles {
		if a < 0 {
			a = 0
		}
		if a > 360 {
			a = 360
		}
		// Round, never truncate: a sub-degree target must not
		// collapse to zero or the output fires at start.
		targets[i] = int32(math.Round(a * float64(spd)))
	}
	st := c.state
	st.ReplaceTargets(targets)
	st.SetTriggered(false)
	st.SetResetSeen(false)
	st.SetPosition(0)
	st.SetRuns(1, int32(s.NumberOfRuns))
	st.SetActive(true)
	log.Printf("sequence started: %d targets, %d run(s)", len(targets), s.NumberOfRuns)
	return nil
}

// Stop halts the sequence unconditionally from any state. It is
// idempotent and callable from any context; the physical pin returns
// to its default level on the next evaluation tick.
func (c *Controller) Stop() {
	st := c.state
	st.SetActive(false)
	st.ClearOverride()
	st.SetTriggered(false)
	st.SetResetSeen(false)
	st.SetPosition(0)
	_, total := st.Runs()
	st.SetRuns(0, total)
	st.SetOutputOn(false)
}

// SetManual enables manual output control with the desired level.
// While enabled the sequencing rules are bypassed entirely.
func (c *Controller) SetManual(level bool) {
	c.state.EnableOverride(level)
}

// ClearManual returns output control to the sequencer.
func (c *Controller) ClearManual() {
	c.state.ClearOverride()
}

// SetDebug toggles debug tracing.
func (c *Controller) SetDebug(v bool) {
	c.state.SetDebug(v)
}

// Run is the evaluation loop, ticking at the configured update rate
// while a sequence is active. It terminates with an error when the
// output collaborator fails; restarting after a hardware fault is a
// supervisor decision, not something to retry silently. A nil stop
// channel means run until failure.
func (c *Controller) Run(stop <-chan struct{}) error {
	if err := c.writeOutput(false); err != nil {
		return err
	}
	for {
		s := c.store.Get()
		delay := time.Duration(s.UpdateRateMs) * time.Millisecond
		if on, _ := c.state.Override(); !on && !c.state.Active() {
			delay = idleDelay
		}
		select {
		case <-stop:
			return nil
		case <-time.After(delay):
		}
		if err := c.tick(s); err != nil {
			return err
		}
	}
}

// tick runs one evaluation of the sequencing rules against a
// settings snapshot.
func (c *Controller) tick(s Settings) error {
	st := c.state
	if on, level := st.Override(); on {
		return c.writeOutput(level)
	}
	if !st.Active() {
		return c.writeOutput(false)
	}
	target, index, _, ok := st.CurrentTarget()
	if !ok {
		return nil
	}
	// The position is read once per tick so the trigger and reset
	// decisions agree on what they saw.
	steps := st.Position()
	spd := float64(st.StepsPerDegree())
	angle := float64(steps) / spd

	if st.Debug() {
		clk, dt, code, n := st.SampleInfo()
		log.Printf("debug: clk=%t dt=%t state=%#02x position=%d angle=%.1f° target=%.1f° samples=%d",
			clk, dt, code, steps, angle, float64(target)/spd, n)
	}

	switch {
	case !st.Triggered() && steps >= target:
		if err := c.writeOutput(true); err != nil {
			return err
		}
		st.SetTriggered(true)
		log.Printf("target %d reached: %.1f°", index, float64(target)/spd)
	case st.Triggered():
		if s.HoldOutputUntilThreshold {
			if angle < s.MinimumAngleThreshold {
				if err := c.writeOutput(false); err != nil {
					return err
				}
			}
		} else if steps < target {
			if err := c.writeOutput(false); err != nil {
				return err
			}
		}
	default:
		if err := c.writeOutput(false); err != nil {
			return err
		}
	}

	if st.Triggered() && angle < s.MinimumAngleThreshold && !st.ResetSeen() {
		st.SetPosition(0)
		st.SetResetSeen(true)
		st.SetTriggered(false)
		st.ClearOverride()
		if _, done := st.Advance(); done {
			run, total := st.Runs()
			if run < total {
				st.SetRuns(run+1, total)
				st.RewindIndex()
				log.Printf("run %d/%d complete, starting run %d", run, total, run+1)
			} else {
				log.Printf("all targets complete (run %d/%d)", run, total)
				c.Stop()
				return c.writeOutput(false)
			}
		} else {
			log.Printf("returned to zero, next target index %d", st.Index())
		}
	}
	if angle > rearmAngle {
		st.SetResetSeen(false)
	}
	return nil
}

// writeOutput drives the physical pin to represent the asserted or
// deasserted output, honouring the configured default state. Writes
// are skipped when the pin already carries the level.
func (c *Controller) writeOutput(assert bool) error {
	level := int32(0)
	if assert != c.defaultHigh.Load() {
		level = 1
	}
	if c.lastLevel.Load() != level {
		var err error
		if level == 1 {
			err = c.out.SetHigh()
		} else {
			err = c.out.SetLow()
		}
		if err != nil {
			return fmt.Errorf("output pin: %v", err)
		}
		c.lastLevel.Store(level)
	}
	c.state.SetOutputOn(assert)
	return nil
}

// Status is the externally observable state of the sequencer.
type Status struct {
	Active             bool      `json:"active"`
	Angle              float64   `json:"angle"`
	TargetAngles       []float64 `json:"target_angles"`
	CurrentTargetIndex int       `json:"current_target_index"`
	OutputOn           bool      `json:"output_on"`
	TargetReached      bool      `json:"target_reached"`
	CurrentRun         int       `json:"current_run"`
	TotalRuns          int       `json:"total_runs"`
}

// Status returns a snapshot for the status surfaces.
func (c *Controller) Status() Status {
	st := c.state
	spd := float64(st.StepsPerDegree())
	steps := st.Targets()
	angles := make([]float64, len(steps))
	for i, t := range steps {
		angles[i] = float64(t) / spd
	}
	run, total := st.Runs()
	return Status{
		Active:             st.Active(),
		Angle:              st.Angle(),
		TargetAngles:       angles,
		CurrentTargetIndex: st.Index(),
		OutputOn:           st.OutputOn(),
		TargetReached:      st.Triggered(),
		CurrentRun:         int(run),
		TotalRuns:          int(total),
	}
}

// DebugInfo is the low-level decoder view reported by the debug
// surface.
type DebugInfo struct {
	Clk       bool    `json:"clk"`
	Dt        bool    `json:"dt"`
	StateCode uint8   `json:"state_code"`
	Position  int32   `json:"position"`
	Angle     float64 `json:"angle"`
	Samples   uint64  `json:"samples"`
}

// DebugInfo returns the current decoder view.
func (c *Controller) DebugInfo() DebugInfo {
	st := c.state
	clk, dt, code, n := st.SampleInfo()
	return DebugInfo{
		Clk:       clk,
		Dt:        dt,
		StateCode: code,
		Position:  st.Position(),
		Angle:     st.Angle(),
		Samples:   n,
	}
}
