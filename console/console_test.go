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

package console

import (
	"strings"
	"testing"

	"abkant/encoder"
	"abkant/sequence"
)

type nullOutput struct{}

func (nullOutput) SetHigh() error { return nil }
func (nullOutput) SetLow() error  { return nil }
func (nullOutput) Close()         {}

func newController(t *testing.T) *sequence.Controller {
	t.Helper()
	store := sequence.NewStore("")
	state := encoder.NewState(0, 720)
	return sequence.New(state, store, nullOutput{})
}

// run feeds a command script and returns the console output.
func run(t *testing.T, ctrl *sequence.Controller, script string) string {
	t.Helper()
	var out strings.Builder
	if err := Run(strings.NewReader(script), &out, ctrl); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return out.String()
}

func TestSetAndStatus(t *testing.T) {
	ctrl := newController(t)
	out := run(t, ctrl, "set 45, 90.5\nstatus\n")
	if !strings.Contains(out, "targets set: [45 90.5]") {
		t.Errorf("set output missing: %q", out)
	}
	if !strings.Contains(out, "active=true") {
		t.Errorf("status output missing: %q", out)
	}
	if !ctrl.Status().Active {
		t.Error("controller not active after set")
	}
}

func TestStop(t *testing.T) {
	ctrl := newController(t)
	out := run(t, ctrl, "set 45\nstop\n")
	if !strings.Contains(out, "stopped") {
		t.Errorf("stop output missing: %q", out)
	}
	if ctrl.Status().Active {
		t.Error("controller still active after stop")
	}
}

func TestManual(t *testing.T) {
	ctrl := newController(t)
	out := run(t, ctrl, "manual on\nmanual clear\n")
	if !strings.Contains(out, "manual output on") || !strings.Contains(out, "manual cleared") {
		t.Errorf("manual output missing: %q", out)
	}
}

func TestBadInput(t *testing.T) {
	ctrl := newController(t)
	tests := []struct {
		name   string
		script string
		want   string
	}{
		{"Unknown", "frobnicate\n", "unknown command"},
		{"BadAngle", "set fast\n", `bad angle "fast"`},
		{"NoAngles", "set\n", "no angles given"},
		{"BadToggle", "debug maybe\n", "expected 'on' or 'off'"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out := run(t, ctrl, tc.script)
			if !strings.Contains(out, tc.want) {
				t.Errorf("output %q, want substring %q", out, tc.want)
			}
		})
	}
	if ctrl.Status().Active {
		t.Error("controller activated by bad input")
	}
}

func TestHelp(t *testing.T) {
	ctrl := newController(t)
	out := run(t, ctrl, "help\n")
	for _, cmd := range []string{"set", "stop", "status", "debug", "manual"} {
		if !strings.Contains(out, cmd) {
			t.Errorf("help missing %q: %q", cmd, out)
		}
	}
}

func TestBlankLinesIgnored(t *testing.T) {
	ctrl := newController(t)
	out := run(t, ctrl, "\n  \nstatus\n")
	if strings.Count(out, "> ") != 4 {
		t.Errorf("prompt count in %q", out)
	}
	if strings.Contains(out, "unknown command") {
		t.Errorf("blank line dispatched: %q", out)
	}
}
