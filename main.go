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

// Press brake angle sequencer. A quadrature encoder on the machine
// shaft tracks the bend angle, and a binary output fires as the
// angle crosses each configured target.

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/aamcrae/config"
	"go.bug.st/serial"

	"abkant/console"
	"abkant/encoder"
	"abkant/pins"
	"abkant/sequence"
)

var configFile = flag.String("config", "", "Hardware configuration file")
var settingsFile = flag.String("settings", "abkant.yaml", "Persisted settings file")
var port = flag.Int("port", 8080, "Web server port number")
var serialDev = flag.String("serial", "", "Serial device for the command console")
var baudRate = flag.Int("baud", 115200, "Serial console baud rate")
var stdinConsole = flag.Bool("console", false, "Run the command console on stdin")

// Position bound: a full turn at the finest step resolution.
const maxSteps = 360 * 2

// hwConfig is the fixed hardware assignment, read once at startup.
// Sample config:
//
//	[encoder]
//	pins=21,22       # GPIOs for the CLK and DT phases
//	backend=sysfs    # sysfs (edge driven) or rpio (polled)
//	poll=1ms         # poll period for the rpio backend
type hwConfig struct {
	Clk     int
	Dt      int
	Backend string
	Poll    time.Duration
}

func hardwareConfig(file string) (*hwConfig, error) {
	hw := &hwConfig{Clk: 21, Dt: 22, Backend: "sysfs", Poll: time.Millisecond}
	if file == "" {
		return hw, nil
	}
	conf, err := config.ParseFile(file)
	if err != nil {
		return nil, err
	}
	s := conf.GetSection("encoder")
	if s == nil {
		return nil, fmt.Errorf("no [encoder] section")
	}
	n, err := s.Parse("pins", "%d,%d", &hw.Clk, &hw.Dt)
	if err != nil {
		return nil, fmt.Errorf("pins: %v", err)
	}
	if n != 2 {
		return nil, fmt.Errorf("pins: argument count")
	}
	if b, err := s.GetArg("backend"); err == nil {
		hw.Backend = b
	}
	if p, err := s.GetArg("poll"); err == nil {
		hw.Poll, err = time.ParseDuration(p)
		if err != nil {
			return nil, fmt.Errorf("poll: %v", err)
		}
	}
	return hw, nil
}

func main() {
	flag.Parse()
	hw, err := hardwareConfig(*configFile)
	if err != nil {
		log.Fatalf("%s: %v", *configFile, err)
	}
	store := sequence.NewStore(*settingsFile)
	settings := store.Get()
	state := encoder.NewState(0, maxSteps)

	var ctrl *sequence.Controller
	var sampler sequence.Sampler
	switch hw.Backend {
	case "sysfs":
		out, err := pins.NewSysfsOutput(settings.OutputPin)
		if err != nil {
			log.Fatalf("Output: %v", err)
		}
		defer out.Close()
		clk, err := pins.NewSysfsInput(hw.Clk)
		if err != nil {
			log.Fatalf("Clk: %v", err)
		}
		defer clk.Close()
		dt, err := pins.NewSysfsInput(hw.Dt)
		if err != nil {
			log.Fatalf("Dt: %v", err)
		}
		defer dt.Close()
		ctrl = sequence.New(state, store, out)
		sampler = sequence.NewEdgeSampler(clk, dt, ctrl)
	case "rpio":
		if err := pins.OpenMem(); err != nil {
			log.Fatalf("GPIO map: %v", err)
		}
		defer pins.CloseMem()
		out := pins.NewMemOutput(settings.OutputPin)
		defer out.Close()
		clk := pins.NewMemInput(hw.Clk)
		dt := pins.NewMemInput(hw.Dt)
		ctrl = sequence.New(state, store, out)
		sampler = sequence.NewPollSampler(clk, dt, ctrl, hw.Poll)
	default:
		log.Fatalf("%s: unknown backend", hw.Backend)
	}

	go func() {
		if err := sampler.Run(nil); err != nil {
			log.Fatalf("Encoder sampling: %v", err)
		}
	}()
	go func() {
		if err := ctrl.Run(nil); err != nil {
			log.Fatalf("Sequence loop: %v", err)
		}
	}()

	if *serialDev != "" {
		p, err := serial.Open(*serialDev, &serial.Mode{BaudRate: *baudRate})
		if err != nil {
			log.Fatalf("%s: %v", *serialDev, err)
		}
		defer p.Close()
		go func() {
			if err := console.Run(p, p, ctrl); err != nil {
				log.Printf("Serial console: %v", err)
			}
		}()
	} else if *stdinConsole {
		go func() {
			if err := console.Run(os.Stdin, os.Stdout, ctrl); err != nil {
				log.Printf("Console: %v", err)
			}
		}()
	}

	log.Fatal(sequence.Serve(fmt.Sprintf(":%d", *port), ctrl, store))
}
