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

package encoder

import (
	"sync"
	"testing"
)

func TestAddClamps(t *testing.T) {
	tests := []struct {
		name  string
		start int32
		delta int32
		want  int32
	}{
		{"Up", 0, 5, 5},
		{"Down", 10, -3, 7},
		{"FloorExact", 3, -3, 0},
		{"Floor", 3, -10, 0},
		{"CeilingExact", 715, 5, 720},
		{"Ceiling", 715, 50, 720},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := NewState(0, 720)
			s.SetPosition(tc.start)
			if got := s.Add(tc.delta); got != tc.want {
				t.Errorf("Add(%d) from %d = %d, want %d", tc.delta, tc.start, got, tc.want)
			}
		})
	}
}

func TestSetPositionClamps(t *testing.T) {
	s := NewState(0, 720)
	s.SetPosition(-5)
	if got := s.Position(); got != 0 {
		t.Errorf("position %d, want 0", got)
	}
	s.SetPosition(1000)
	if got := s.Position(); got != 720 {
		t.Errorf("position %d, want 720", got)
	}
}

func TestAngle(t *testing.T) {
	s := NewState(0, 720)
	s.SetPosition(90)
	s.SetStepsPerDegree(2)
	if got := s.Angle(); got != 45.0 {
		t.Errorf("half step angle = %v, want 45", got)
	}
	s.SetStepsPerDegree(1)
	if got := s.Angle(); got != 90.0 {
		t.Errorf("full step angle = %v, want 90", got)
	}
}

func TestTargetSnapshot(t *testing.T) {
	s := NewState(0, 720)
	if _, _, _, ok := s.CurrentTarget(); ok {
		t.Error("empty list reported a target")
	}
	s.ReplaceTargets([]int32{90, 180})
	target, index, total, ok := s.CurrentTarget()
	if !ok || target != 90 || index != 0 || total != 2 {
		t.Errorf("got target=%d index=%d total=%d ok=%t", target, index, total, ok)
	}
	if i, done := s.Advance(); i != 1 || done {
		t.Errorf("Advance = %d, %t, want 1, false", i, done)
	}
	target, _, _, ok = s.CurrentTarget()
	if !ok || target != 180 {
		t.Errorf("second target = %d, ok=%t", target, ok)
	}
	if i, done := s.Advance(); i != 2 || !done {
		t.Errorf("Advance = %d, %t, want 2, true", i, done)
	}
	if _, _, _, ok := s.CurrentTarget(); ok {
		t.Error("exhausted list reported a target")
	}
	s.RewindIndex()
	if target, _, _, ok := s.CurrentTarget(); !ok || target != 90 {
		t.Errorf("after rewind target = %d, ok=%t", target, ok)
	}
	// ReplaceTargets rewinds as well.
	s.Advance()
	s.ReplaceTargets([]int32{45})
	if target, index, total, ok := s.CurrentTarget(); !ok || target != 45 || index != 0 || total != 1 {
		t.Errorf("after replace: target=%d index=%d total=%d ok=%t", target, index, total, ok)
	}
}

func TestOverride(t *testing.T) {
	s := NewState(0, 720)
	if on, _ := s.Override(); on {
		t.Error("override enabled initially")
	}
	s.EnableOverride(true)
	if on, level := s.Override(); !on || !level {
		t.Errorf("override = %t,%t, want true,true", on, level)
	}
	s.EnableOverride(false)
	if on, level := s.Override(); !on || level {
		t.Errorf("override = %t,%t, want true,false", on, level)
	}
	s.ClearOverride()
	if on, _ := s.Override(); on {
		t.Error("override still enabled after clear")
	}
}

func TestSampleInfo(t *testing.T) {
	s := NewState(0, 720)
	s.RecordSample(true, false, 3)
	s.RecordSample(false, true, 5)
	clk, dt, code, count := s.SampleInfo()
	if clk || !dt || code != 5 || count != 2 {
		t.Errorf("got clk=%t dt=%t code=%d count=%d", clk, dt, code, count)
	}
}

// The position is written from the sampling context while other
// tasks read and reset it. The counter must stay within bounds
// throughout.
func TestConcurrentAdd(t *testing.T) {
	s := NewState(0, 720)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(dir int32) {
			defer wg.Done()
			for j := 0; j < 10000; j++ {
				if v := s.Add(dir); v < 0 || v > 720 {
					t.Errorf("position %d out of bounds", v)
					return
				}
			}
		}(int32(1 - 2*(i&1)))
	}
	wg.Wait()
	if v := s.Position(); v < 0 || v > 720 {
		t.Errorf("final position %d out of bounds", v)
	}
}
