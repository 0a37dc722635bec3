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

// Encoder sampling strategies.

package sequence

import (
	"fmt"
	"time"

	"abkant/pins"
)

// Sampler obtains pin samples and feeds them to the controller.
// Either strategy may drive the same decoder, selected at
// configuration time.
type Sampler interface {
	// Run services the encoder until stop is closed or a pin fails.
	// A pin failure is fatal and surfaces as the returned error.
	Run(stop <-chan struct{}) error
}

// EdgeSampler services the encoder from edge-triggered inputs, one
// goroutine per phase. Each edge on either phase samples both pins
// and steps the decoder, so the decoder sees every transition
// regardless of which phase moved.
type EdgeSampler struct {
	clk  pins.EdgeInput
	dt   pins.EdgeInput
	ctrl *Controller
}

// NewEdgeSampler creates a sampler over two edge-capable inputs.
func NewEdgeSampler(clk, dt pins.EdgeInput, ctrl *Controller) *EdgeSampler {
	return &EdgeSampler{clk: clk, dt: dt, ctrl: ctrl}
}

// Run watches both phases and returns on the first pin error.
func (e *EdgeSampler) Run(stop <-chan struct{}) error {
	// Prime the decoder with the resting pin state.
	e.ctrl.Sample(e.clk.Level(), e.dt.Level())
	errc := make(chan error, 2)
	go e.watch(e.clk, "clk", errc)
	go e.watch(e.dt, "dt", errc)
	select {
	case err := <-errc:
		return err
	case <-stop:
		return nil
	}
}

func (e *EdgeSampler) watch(p pins.EdgeInput, name string, errc chan<- error) {
	for {
		if _, err := p.WaitEdge(); err != nil {
			errc <- fmt.Errorf("%s pin: %v", name, err)
			return
		}
		e.ctrl.Sample(e.clk.Level(), e.dt.Level())
	}
}

// PollSampler services the encoder by reading both phases on a fixed
// period, default 1ms. The period must stay well below the fastest
// expected time between detent transitions.
type PollSampler struct {
	clk    pins.Input
	dt     pins.Input
	ctrl   *Controller
	period time.Duration
}

// NewPollSampler creates a sampler polling two inputs at the given
// period. A zero period defaults to 1ms.
func NewPollSampler(clk, dt pins.Input, ctrl *Controller, period time.Duration) *PollSampler {
	if period <= 0 {
		period = time.Millisecond
	}
	return &PollSampler{clk: clk, dt: dt, ctrl: ctrl, period: period}
}

// Run polls both phases until stop is closed or a read fails.
func (p *PollSampler) Run(stop <-chan struct{}) error {
	ticker := time.NewTicker(p.period)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return nil
		case <-ticker.C:
		}
		clk, err := p.clk.Read()
		if err != nil {
			return fmt.Errorf("clk pin: %v", err)
		}
		dt, err := p.dt.Read()
		if err != nil {
			return fmt.Errorf("dt pin: %v", err)
		}
		p.ctrl.Sample(clk, dt)
	}
}
