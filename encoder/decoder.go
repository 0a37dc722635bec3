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

// Quadrature decoding.

package encoder

// Direction is the rotation sense reported for one decoder step.
type Direction int

const (
	None             Direction = 0
	Clockwise        Direction = 1
	CounterClockwise Direction = -1
)

func (d Direction) String() string {
	switch d {
	case Clockwise:
		return "CW"
	case CounterClockwise:
		return "CCW"
	}
	return "none"
}

// Decoder turns successive samples of the two encoder phases into
// direction events. Implementations keep internal state and are not
// safe for concurrent use; callers must serialise Update.
type Decoder interface {
	// Update consumes one sample of both phases and reports at most
	// one step of rotation.
	Update(clk, dt bool) Direction
	// StateCode returns the internal state code for debug reporting.
	StateCode() uint8
}

// The decoder is a state table over the 2-bit pin pattern. Each cell
// holds the next state, optionally tagged with a direction emitted on
// that transition. Any pattern that is not a valid quadrature
// transition folds back to the start state, so contact bounce cannot
// accumulate spurious steps and no external debouncing is needed.
// A valid detent yields exactly one step (two in half-step mode)
// regardless of how often Update is called.

const (
	dirCW     uint8 = 0x10
	dirCCW    uint8 = 0x20
	stateMask uint8 = 0x07
)

// Full-step states. Rest position is both phases high.
const (
	fsStart uint8 = iota
	fsCWFinal
	fsCWBegin
	fsCWNext
	fsCCWBegin
	fsCCWFinal
	fsCCWNext
	fsIllegal
)

// Columns are indexed by (clk<<1)|dt.
var fullStepTable = [8][4]uint8{
	fsStart:    {fsStart, fsCWBegin, fsCCWBegin, fsStart},
	fsCWFinal:  {fsCWNext, fsStart, fsCWFinal, fsStart | dirCW},
	fsCWBegin:  {fsCWNext, fsCWBegin, fsStart, fsStart},
	fsCWNext:   {fsCWNext, fsCWBegin, fsCWFinal, fsStart},
	fsCCWBegin: {fsCCWNext, fsStart, fsCCWBegin, fsStart},
	fsCCWFinal: {fsCCWNext, fsCCWFinal, fsStart, fsStart | dirCCW},
	fsCCWNext:  {fsCCWNext, fsCCWFinal, fsCCWBegin, fsStart},
	fsIllegal:  {fsStart, fsStart, fsStart, fsStart},
}

// Half-step states. An extra step is emitted at the middle of each
// detent (both phases low), doubling the resolution.
const (
	hsStart uint8 = iota
	hsCCWBegin
	hsCWBegin
	hsMid
	hsCWMid
	hsCCWMid
	hsIllegalA
	hsIllegalB
)

var halfStepTable = [8][4]uint8{
	hsStart:    {hsMid, hsCWBegin, hsCCWBegin, hsStart},
	hsCCWBegin: {hsMid | dirCCW, hsStart, hsCCWBegin, hsStart},
	hsCWBegin:  {hsMid | dirCW, hsCWBegin, hsStart, hsStart},
	hsMid:      {hsMid, hsCCWMid, hsCWMid, hsStart},
	hsCWMid:    {hsMid, hsMid, hsCWMid, hsStart | dirCW},
	hsCCWMid:   {hsMid, hsCCWMid, hsMid, hsStart | dirCCW},
	hsIllegalA: {hsStart, hsStart, hsStart, hsStart},
	hsIllegalB: {hsStart, hsStart, hsStart, hsStart},
}

// TableDecoder is a table-driven quadrature decoder. The same state
// machine serves both the edge-driven and the polled sampling
// strategies, since it only depends on the sequence of distinct pin
// patterns, not on the sample rate.
type TableDecoder struct {
	table *[8][4]uint8
	state uint8
}

// NewDecoder creates a decoder for the given step mode.
func NewDecoder(halfStep bool) *TableDecoder {
	t := &fullStepTable
	if halfStep {
		t = &halfStepTable
	}
	return &TableDecoder{table: t}
}

// Update consumes one pin sample and reports at most one step.
func (d *TableDecoder) Update(clk, dt bool) Direction {
	var pattern uint8
	if dt {
		pattern |= 1
	}
	if clk {
		pattern |= 2
	}
	next := d.table[d.state&stateMask][pattern]
	d.state = next & stateMask
	switch next &^ stateMask {
	case dirCW:
		return Clockwise
	case dirCCW:
		return CounterClockwise
	}
	return None
}

// StateCode returns the current state code.
func (d *TableDecoder) StateCode() uint8 {
	return d.state
}
