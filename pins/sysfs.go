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

// Sysfs GPIO backend. Inputs are edge triggered, so the encoder is
// serviced only when a phase actually changes.

package pins

import (
	"fmt"
	"sync/atomic"

	"github.com/aamcrae/gpio"
)

// SysfsInput is an input pin using the sysfs GPIO interface with
// edge detection enabled for both edges.
type SysfsInput struct {
	pin   *io.Gpio
	level atomic.Bool
}

// NewSysfsInput opens the GPIO pin as an input and enables edge
// detection. The initial level is read before edges are enabled,
// since reads block once edge detection is active.
func NewSysfsInput(gpio int) (*SysfsInput, error) {
	p, err := io.Pin(gpio)
	if err != nil {
		return nil, fmt.Errorf("pin %d: %v", gpio, err)
	}
	s := new(SysfsInput)
	s.pin = p
	v, err := p.Get()
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("pin %d: %v", gpio, err)
	}
	s.level.Store(v != 0)
	if err := p.Edge(io.BOTH); err != nil {
		p.Close()
		return nil, fmt.Errorf("pin %d: %v", gpio, err)
	}
	return s, nil
}

// Level returns the last level observed by WaitEdge.
func (s *SysfsInput) Level() bool {
	return s.level.Load()
}

// WaitEdge blocks until the pin changes and returns the new level.
func (s *SysfsInput) WaitEdge() (bool, error) {
	v, err := s.pin.Get()
	if err != nil {
		return false, err
	}
	lvl := v != 0
	s.level.Store(lvl)
	return lvl, nil
}

func (s *SysfsInput) Close() {
	s.pin.Close()
}

// SysfsOutput is an output pin using the sysfs GPIO interface.
type SysfsOutput struct {
	pin *io.Gpio
}

// NewSysfsOutput opens the GPIO pin as an output.
func NewSysfsOutput(gpio int) (*SysfsOutput, error) {
	p, err := io.OutputPin(gpio)
	if err != nil {
		return nil, fmt.Errorf("pin %d: %v", gpio, err)
	}
	return &SysfsOutput{pin: p}, nil
}

func (s *SysfsOutput) SetHigh() error {
	return s.pin.Set(1)
}

func (s *SysfsOutput) SetLow() error {
	return s.pin.Set(0)
}

func (s *SysfsOutput) Close() {
	s.pin.Close()
}
