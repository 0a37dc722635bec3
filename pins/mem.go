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

// Memory-mapped GPIO backend (Raspberry Pi). Reads are cheap enough
// to poll the encoder phases at millisecond rates.

package pins

import (
	"github.com/stianeikeland/go-rpio/v4"
)

// OpenMem maps the GPIO registers. Must be called once before any
// memory-mapped pin is created.
func OpenMem() error {
	return rpio.Open()
}

// CloseMem unmaps the GPIO registers.
func CloseMem() error {
	return rpio.Close()
}

// MemInput is an input pin with pull-up, read directly from the
// GPIO registers.
type MemInput struct {
	pin rpio.Pin
}

// NewMemInput configures the BCM pin as a pulled-up input.
func NewMemInput(gpio int) *MemInput {
	p := rpio.Pin(gpio)
	p.Input()
	p.PullUp()
	return &MemInput{pin: p}
}

func (m *MemInput) Read() (bool, error) {
	return m.pin.Read() == rpio.High, nil
}

func (m *MemInput) Close() {
	m.pin.PullOff()
}

// MemOutput is an output pin driven through the GPIO registers.
type MemOutput struct {
	pin rpio.Pin
}

// NewMemOutput configures the BCM pin as an output.
func NewMemOutput(gpio int) *MemOutput {
	p := rpio.Pin(gpio)
	p.Output()
	return &MemOutput{pin: p}
}

func (m *MemOutput) SetHigh() error {
	m.pin.High()
	return nil
}

func (m *MemOutput) SetLow() error {
	m.pin.Low()
	return nil
}

func (m *MemOutput) Close() {
	m.pin.Low()
}
