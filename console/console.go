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

// Package console is a line-oriented command interface to the
// sequencer, served over stdin or a serial port.
package console

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"abkant/sequence"
)

type command struct {
	name string
	help string
	run  func(ctrl *sequence.Controller, arg string, w io.Writer) error
}

var commands = []command{
	{
		name: "set",
		help: "set 45,90.5,135 - start a sequence with the given target angles",
		run: func(ctrl *sequence.Controller, arg string, w io.Writer) error {
			angles, err := parseAngles(arg)
			if err != nil {
				return err
			}
			if err := ctrl.Start(angles); err != nil {
				return err
			}
			fmt.Fprintf(w, "targets set: %v\n", angles)
			return nil
		},
	},
	{
		name: "stop",
		help: "stop - stop the sequence and release the output",
		run: func(ctrl *sequence.Controller, arg string, w io.Writer) error {
			ctrl.Stop()
			fmt.Fprintln(w, "stopped")
			return nil
		},
	},
	{
		name: "status",
		help: "status - show the sequencer state",
		run: func(ctrl *sequence.Controller, arg string, w io.Writer) error {
			s := ctrl.Status()
			fmt.Fprintf(w, "active=%t angle=%.1f output=%t reached=%t\n",
				s.Active, s.Angle, s.OutputOn, s.TargetReached)
			fmt.Fprintf(w, "targets=%v index=%d run=%d/%d\n",
				s.TargetAngles, s.CurrentTargetIndex, s.CurrentRun, s.TotalRuns)
			return nil
		},
	},
	{
		name: "debug",
		help: "debug on|off - toggle debug tracing",
		run: func(ctrl *sequence.Controller, arg string, w io.Writer) error {
			on, err := parseOnOff(arg)
			if err != nil {
				return err
			}
			ctrl.SetDebug(on)
			fmt.Fprintf(w, "debug %s\n", arg)
			return nil
		},
	},
	{
		name: "manual",
		help: "manual on|off|clear - manual output control (clear resumes sequencing)",
		run: func(ctrl *sequence.Controller, arg string, w io.Writer) error {
			if arg == "clear" {
				ctrl.ClearManual()
				fmt.Fprintln(w, "manual cleared")
				return nil
			}
			on, err := parseOnOff(arg)
			if err != nil {
				return err
			}
			ctrl.SetManual(on)
			fmt.Fprintf(w, "manual output %s\n", arg)
			return nil
		},
	},
}

// Run reads commands from r until EOF. Unknown or malformed input is
// reported on w and changes nothing.
func Run(r io.Reader, w io.Writer, ctrl *sequence.Controller) error {
	scanner := bufio.NewScanner(r)
	fmt.Fprint(w, "> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			dispatch(line, w, ctrl)
		}
		fmt.Fprint(w, "> ")
	}
	return scanner.Err()
}

func dispatch(line string, w io.Writer, ctrl *sequence.Controller) {
	name, arg := line, ""
	if i := strings.IndexByte(line, ' '); i >= 0 {
		name, arg = line[:i], strings.TrimSpace(line[i+1:])
	}
	name = strings.ToLower(name)
	if name == "help" {
		for _, c := range commands {
			fmt.Fprintf(w, "  %s\n", c.help)
		}
		return
	}
	for _, c := range commands {
		if c.name == name {
			if err := c.run(ctrl, arg, w); err != nil {
				fmt.Fprintf(w, "error: %v\n", err)
			}
			return
		}
	}
	fmt.Fprintf(w, "unknown command %q ('help' for help)\n", name)
}

func parseAngles(arg string) ([]float64, error) {
	if arg == "" {
		return nil, fmt.Errorf("no angles given, use: set 45,90.5,135")
	}
	var angles []float64
	for _, f := range strings.Split(arg, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		a, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("bad angle %q", f)
		}
		angles = append(angles, a)
	}
	if len(angles) == 0 {
		return nil, fmt.Errorf("no angles given, use: set 45,90.5,135")
	}
	return angles, nil
}

func parseOnOff(arg string) (bool, error) {
	switch strings.ToLower(arg) {
	case "on", "1", "true":
		return true, nil
	case "off", "0", "false":
		return false, nil
	}
	return false, fmt.Errorf("expected 'on' or 'off', got %q", arg)
}
