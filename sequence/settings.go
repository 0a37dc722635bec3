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

// Operating settings.

package sequence

import (
	"fmt"
)

// Direction sense values for Settings.ForwardDirection.
const (
	DirClockwise        = "cw"
	DirCounterClockwise = "ccw"
)

// Step mode values for Settings.StepMode.
const (
	StepFull = "full" // 1 step per degree
	StepHalf = "half" // 2 steps per degree
)

// Bounds for Settings.UpdateRateMs.
const (
	minUpdateRateMs = 1
	maxUpdateRateMs = 200
)

// Settings are the operating parameters of the sequencer. They are
// owned by the Store; every consumer works on a copy, so a snapshot
// is always internally consistent.
type Settings struct {
	ForwardDirection         string  `json:"forward_direction" yaml:"forward_direction"`
	StepMode                 string  `json:"step_mode" yaml:"step_mode"`
	OutputPin                int     `json:"output_pin" yaml:"output_pin"`
	OutputDefaultState       bool    `json:"output_default_state" yaml:"output_default_state"`
	MinimumAngleThreshold    float64 `json:"minimum_angle_threshold" yaml:"minimum_angle_threshold"`
	HoldOutputUntilThreshold bool    `json:"hold_output_until_threshold" yaml:"hold_output_until_threshold"`
	DebugEnabled             bool    `json:"debug_enabled" yaml:"debug_enabled"`
	NumTargetAngles          int     `json:"num_target_angles" yaml:"num_target_angles"`
	TickSizeMultiplier       int     `json:"tick_size_multiplier" yaml:"tick_size_multiplier"`
	NumberOfRuns             int     `json:"number_of_runs" yaml:"number_of_runs"`
	UpdateRateMs             int     `json:"update_rate_ms" yaml:"update_rate_ms"`
}

// DefaultSettings returns the settings used when nothing has been
// configured or persisted yet.
func DefaultSettings() Settings {
	return Settings{
		ForwardDirection:         DirClockwise,
		StepMode:                 StepHalf,
		OutputPin:                32,
		OutputDefaultState:       false,
		MinimumAngleThreshold:    2.5,
		HoldOutputUntilThreshold: false,
		DebugEnabled:             false,
		NumTargetAngles:          8,
		TickSizeMultiplier:       1,
		NumberOfRuns:             1,
		UpdateRateMs:             50,
	}
}

// StepsPerDegree returns the degree conversion factor for the step
// mode.
func (s Settings) StepsPerDegree() int32 {
	if s.StepMode == StepFull {
		return 1
	}
	return 2
}

// Validate rejects values that cannot be interpreted at all.
// Out-of-range numbers are not errors; Clamp fixes those.
func (s Settings) Validate() error {
	switch s.ForwardDirection {
	case DirClockwise, DirCounterClockwise:
	default:
		return fmt.Errorf("forward_direction must be %q or %q", DirClockwise, DirCounterClockwise)
	}
	switch s.StepMode {
	case StepFull, StepHalf:
	default:
		return fmt.Errorf("step_mode must be %q or %q", StepFull, StepHalf)
	}
	return nil
}

// Clamp forces out-of-range numeric settings into their valid
// ranges. The clamped values are applied rather than rejected and
// the caller reports them back.
func (s *Settings) Clamp() {
	if s.UpdateRateMs < minUpdateRateMs {
		s.UpdateRateMs = minUpdateRateMs
	}
	if s.UpdateRateMs > maxUpdateRateMs {
		s.UpdateRateMs = maxUpdateRateMs
	}
	if s.NumberOfRuns < 1 {
		s.NumberOfRuns = 1
	}
	if s.TickSizeMultiplier < 1 {
		s.TickSizeMultiplier = 1
	}
	if s.NumTargetAngles < 1 {
		s.NumTargetAngles = 1
	}
	if s.MinimumAngleThreshold < 0 {
		s.MinimumAngleThreshold = 0
	}
}
