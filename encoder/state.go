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

// Shared encoder state.

package encoder

import (
	"sync"
	"sync/atomic"
)

// State holds the position counter and the flags shared between the
// sampling context, the evaluation loop and the control surfaces.
// The concurrency discipline is declared here, once:
//
//   - scalar fields are independently atomic, so the sampling context
//     never blocks on them;
//   - the target list and current index are a compound structure and
//     are guarded by one mutex; reads that depend on both the index
//     and the length take a single acquisition.
//
// One State instance is created at startup and a reference is handed
// to every task.
type State struct {
	pos    atomic.Int32
	minVal int32
	maxVal int32

	active    atomic.Bool
	outputOn  atomic.Bool
	triggered atomic.Bool
	resetSeen atomic.Bool
	debug     atomic.Bool

	overrideOn    atomic.Bool
	overrideState atomic.Bool

	stepsPerDegree atomic.Int32

	currentRun atomic.Int32
	totalRuns  atomic.Int32

	// Debug counters written by the sampling context.
	samples  atomic.Uint64
	lastPins atomic.Uint32
	lastCode atomic.Uint32

	mu      sync.Mutex
	targets []int32
	index   int
}

// NewState creates the shared state with the fixed position bounds.
func NewState(minVal, maxVal int32) *State {
	s := &State{minVal: minVal, maxVal: maxVal}
	s.pos.Store(minVal)
	s.stepsPerDegree.Store(2)
	return s
}

// Position returns the current position in decoder steps.
func (s *State) Position() int32 {
	return s.pos.Load()
}

// SetPosition sets the position, clamped into the fixed bounds.
func (s *State) SetPosition(v int32) {
	s.pos.Store(s.clamp(v))
}

// Add applies a step delta and returns the new position, clamped
// into the fixed bounds.
func (s *State) Add(delta int32) int32 {
	for {
		old := s.pos.Load()
		nv := s.clamp(old + delta)
		if s.pos.CompareAndSwap(old, nv) {
			return nv
		}
	}
}

func (s *State) clamp(v int32) int32 {
	if v < s.minVal {
		return s.minVal
	}
	if v > s.maxVal {
		return s.maxVal
	}
	return v
}

// StepsPerDegree returns the current degree conversion factor.
func (s *State) StepsPerDegree() int32 {
	return s.stepsPerDegree.Load()
}

// SetStepsPerDegree sets the degree conversion factor (1 for full
// step mode, 2 for half step mode).
func (s *State) SetStepsPerDegree(v int32) {
	s.stepsPerDegree.Store(v)
}

// Angle returns the current position in degrees.
func (s *State) Angle() float64 {
	return float64(s.pos.Load()) / float64(s.stepsPerDegree.Load())
}

func (s *State) Active() bool        { return s.active.Load() }
func (s *State) SetActive(v bool)    { s.active.Store(v) }
func (s *State) OutputOn() bool      { return s.outputOn.Load() }
func (s *State) SetOutputOn(v bool)  { s.outputOn.Store(v) }
func (s *State) Triggered() bool     { return s.triggered.Load() }
func (s *State) SetTriggered(v bool) { s.triggered.Store(v) }
func (s *State) ResetSeen() bool     { return s.resetSeen.Load() }
func (s *State) SetResetSeen(v bool) { s.resetSeen.Store(v) }
func (s *State) Debug() bool         { return s.debug.Load() }
func (s *State) SetDebug(v bool)     { s.debug.Store(v) }

// EnableOverride turns on manual output control with the desired
// level. While enabled, automatic sequencing of the output is
// bypassed.
func (s *State) EnableOverride(level bool) {
	s.overrideState.Store(level)
	s.overrideOn.Store(true)
}

// ClearOverride returns output control to the sequencer.
func (s *State) ClearOverride() {
	s.overrideOn.Store(false)
	s.overrideState.Store(false)
}

// Override reports whether manual control is enabled and the desired
// output level.
func (s *State) Override() (bool, bool) {
	return s.overrideOn.Load(), s.overrideState.Load()
}

// Runs returns the current run number (1-based while active, 0 when
// idle) and the total runs for this sequence.
func (s *State) Runs() (int32, int32) {
	return s.currentRun.Load(), s.totalRuns.Load()
}

// SetRuns sets the run counters.
func (s *State) SetRuns(current, total int32) {
	s.currentRun.Store(current)
	s.totalRuns.Store(total)
}

// RecordSample notes one decoder invocation for debug reporting.
func (s *State) RecordSample(clk, dt bool, code uint8) {
	var p uint32
	if dt {
		p |= 1
	}
	if clk {
		p |= 2
	}
	s.lastPins.Store(p)
	s.lastCode.Store(uint32(code))
	s.samples.Add(1)
}

// SampleInfo returns the last sampled pin pattern, the decoder state
// code and the total sample count.
func (s *State) SampleInfo() (clk, dt bool, code uint8, count uint64) {
	p := s.lastPins.Load()
	return p&2 != 0, p&1 != 0, uint8(s.lastCode.Load()), s.samples.Load()
}

// ReplaceTargets atomically installs a new target list and rewinds
// the current index.
func (s *State) ReplaceTargets(targets []int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.targets = append([]int32(nil), targets...)
	s.index = 0
}

// Targets returns a copy of the target list in decoder steps.
func (s *State) Targets() []int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int32(nil), s.targets...)
}

// CurrentTarget returns the active target, its index and the list
// length as one consistent snapshot. ok is false when the list is
// empty or the index has run past the end.
func (s *State) CurrentTarget() (target int32, index, total int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index >= len(s.targets) {
		return 0, s.index, len(s.targets), false
	}
	return s.targets[s.index], s.index, len(s.targets), true
}

// Index returns the current target index.
func (s *State) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// Advance moves to the next target and reports the new index and
// whether the end of the list was passed.
func (s *State) Advance() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index++
	return s.index, s.index >= len(s.targets)
}

// RewindIndex restarts the target list for the next run.
func (s *State) RewindIndex() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index = 0
}
