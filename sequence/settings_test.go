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

package sequence

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStepsPerDegree(t *testing.T) {
	s := DefaultSettings()
	s.StepMode = StepFull
	if got := s.StepsPerDegree(); got != 1 {
		t.Errorf("full step: %d, want 1", got)
	}
	s.StepMode = StepHalf
	if got := s.StepsPerDegree(); got != 2 {
		t.Errorf("half step: %d, want 2", got)
	}
}

func TestValidate(t *testing.T) {
	s := DefaultSettings()
	if err := s.Validate(); err != nil {
		t.Errorf("defaults invalid: %v", err)
	}
	s.ForwardDirection = "widdershins"
	if err := s.Validate(); err == nil {
		t.Error("bad direction accepted")
	}
	s = DefaultSettings()
	s.StepMode = "quarter"
	if err := s.Validate(); err == nil {
		t.Error("bad step mode accepted")
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		name  string
		mod   func(*Settings)
		check func(Settings) bool
	}{
		{"RateLow", func(s *Settings) { s.UpdateRateMs = 0 },
			func(s Settings) bool { return s.UpdateRateMs == 1 }},
		{"RateHigh", func(s *Settings) { s.UpdateRateMs = 1000 },
			func(s Settings) bool { return s.UpdateRateMs == 200 }},
		{"Runs", func(s *Settings) { s.NumberOfRuns = 0 },
			func(s Settings) bool { return s.NumberOfRuns == 1 }},
		{"TickSize", func(s *Settings) { s.TickSizeMultiplier = -3 },
			func(s Settings) bool { return s.TickSizeMultiplier == 1 }},
		{"NumTargets", func(s *Settings) { s.NumTargetAngles = 0 },
			func(s Settings) bool { return s.NumTargetAngles == 1 }},
		{"Threshold", func(s *Settings) { s.MinimumAngleThreshold = -1 },
			func(s Settings) bool { return s.MinimumAngleThreshold == 0 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := DefaultSettings()
			tc.mod(&s)
			s.Clamp()
			if !tc.check(s) {
				t.Errorf("clamp failed: %+v", s)
			}
		})
	}
	// In-range values pass through untouched.
	s := DefaultSettings()
	before := s
	s.Clamp()
	if s != before {
		t.Errorf("defaults altered by clamp: %+v", s)
	}
}

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	st := NewStore(path)
	s := st.Get()
	s.StepMode = StepFull
	s.NumberOfRuns = 3
	s.MinimumAngleThreshold = 1.5
	if err := st.Put(s); err != nil {
		t.Fatalf("Put: %v", err)
	}
	st2 := NewStore(path)
	if got := st2.Get(); got != s {
		t.Errorf("reloaded settings %+v, want %+v", got, s)
	}
}

func TestStoreDefaults(t *testing.T) {
	// No file at all.
	st := NewStore(filepath.Join(t.TempDir(), "missing.yaml"))
	if got := st.Get(); got != DefaultSettings() {
		t.Errorf("missing file: %+v", got)
	}
	// Unparseable file.
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("{not yaml"), 0644); err != nil {
		t.Fatal(err)
	}
	st = NewStore(path)
	if got := st.Get(); got != DefaultSettings() {
		t.Errorf("corrupt file: %+v", got)
	}
	// Valid YAML with a bad enum value.
	if err := os.WriteFile(path, []byte("step_mode: sideways\n"), 0644); err != nil {
		t.Fatal(err)
	}
	st = NewStore(path)
	if got := st.Get(); got != DefaultSettings() {
		t.Errorf("invalid enum: %+v", got)
	}
}

func TestStorePartialFile(t *testing.T) {
	// Fields absent from the file keep their defaults.
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte("number_of_runs: 4\n"), 0644); err != nil {
		t.Fatal(err)
	}
	st := NewStore(path)
	got := st.Get()
	if got.NumberOfRuns != 4 {
		t.Errorf("number_of_runs = %d, want 4", got.NumberOfRuns)
	}
	if got.StepMode != StepHalf || got.UpdateRateMs != 50 {
		t.Errorf("defaults lost: %+v", got)
	}
}

func TestStorePutUnwritable(t *testing.T) {
	// The settings apply even when the save fails.
	st := NewStore(filepath.Join(t.TempDir(), "no", "such", "dir", "s.yaml"))
	s := st.Get()
	s.NumberOfRuns = 7
	if err := st.Put(s); err == nil {
		t.Error("Put to unwritable path succeeded")
	}
	if got := st.Get(); got.NumberOfRuns != 7 {
		t.Errorf("settings not applied after failed save: %+v", got)
	}
}
