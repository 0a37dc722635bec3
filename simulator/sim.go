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

// Simulator for the angle sequencer. A simulated shaft generates
// quadrature pin patterns and is wound through the configured target
// sequence, exercising the decoder, the sequencing rules and the web
// API without hardware.

package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"abkant/encoder"
	"abkant/sequence"
)

var port = flag.Int("port", 8080, "Web server port number")
var angles = flag.String("angles", "95,45", "Comma-separated target angles")
var runs = flag.Int("runs", 2, "Number of runs")

// Quadrature pin patterns for one electrical cycle, clockwise order.
// The shaft position is a count of edges through this cycle; the
// half-step decoder reports one step per two edges.
var phases = [4][2]bool{
	{true, true},
	{false, true},
	{false, false},
	{true, false},
}

// shaft is the simulated encoder shaft.
type shaft struct {
	edges atomic.Int64
}

func (s *shaft) pins() (bool, bool) {
	p := phases[s.edges.Load()&3]
	return p[0], p[1]
}

// rampTo winds the shaft to the given physical angle in degrees,
// one quadrature edge at a time.
func (s *shaft) rampTo(deg float64) {
	goal := int64(math.Round(deg*2)) * 2
	for s.edges.Load() != goal {
		if s.edges.Load() < goal {
			s.edges.Add(1)
		} else {
			s.edges.Add(-1)
		}
		time.Sleep(200 * time.Microsecond)
	}
}

// simPin adapts one shaft phase to the pin interface.
type simPin struct {
	sh  *shaft
	clk bool
}

func (p *simPin) Read() (bool, error) {
	clk, dt := p.sh.pins()
	if p.clk {
		return clk, nil
	}
	return dt, nil
}

func (p *simPin) Close() {}

// simOutput reports output transitions on the log.
type simOutput struct {
	level atomic.Bool
}

func (o *simOutput) SetHigh() error {
	o.level.Store(true)
	log.Printf("output HIGH")
	return nil
}

func (o *simOutput) SetLow() error {
	o.level.Store(false)
	log.Printf("output LOW")
	return nil
}

func (o *simOutput) Close() {}

func main() {
	flag.Parse()
	var targets []float64
	for _, f := range strings.Split(*angles, ",") {
		a, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			log.Fatalf("%s: bad angle", f)
		}
		targets = append(targets, a)
	}

	store := sequence.NewStore("")
	s := store.Get()
	s.NumberOfRuns = *runs
	s.UpdateRateMs = 10
	if err := store.Put(s); err != nil {
		log.Fatalf("Settings: %v", err)
	}

	state := encoder.NewState(0, 720)
	out := new(simOutput)
	ctrl := sequence.New(state, store, out)
	sh := new(shaft)
	sampler := sequence.NewPollSampler(&simPin{sh, true}, &simPin{sh, false}, ctrl, 50*time.Microsecond)

	go func() {
		if err := sampler.Run(nil); err != nil {
			log.Fatalf("Sampling: %v", err)
		}
	}()
	go func() {
		if err := ctrl.Run(nil); err != nil {
			log.Fatalf("Sequence loop: %v", err)
		}
	}()
	go func() {
		log.Fatal(sequence.Serve(fmt.Sprintf(":%d", *port), ctrl, store))
	}()

	if err := ctrl.Start(targets); err != nil {
		log.Fatalf("Start: %v", err)
	}

	// Wind the shaft through the sequence: past each target, pause,
	// then back to zero, until the controller goes idle.
	for ctrl.Status().Active {
		st := ctrl.Status()
		if st.CurrentTargetIndex >= len(st.TargetAngles) {
			time.Sleep(50 * time.Millisecond)
			continue
		}
		target := st.TargetAngles[st.CurrentTargetIndex]
		fmt.Printf("run %d/%d: bending to %.1f°\n", st.CurrentRun, st.TotalRuns, target)
		sh.rampTo(target + 2)
		time.Sleep(300 * time.Millisecond)
		fmt.Printf("returning to 0° (output=%t)\n", ctrl.Status().OutputOn)
		sh.rampTo(0)
		time.Sleep(300 * time.Millisecond)
	}
	st := ctrl.Status()
	fmt.Printf("sequence complete: active=%t output=%t run=%d\n", st.Active, st.OutputOn, st.CurrentRun)
}
