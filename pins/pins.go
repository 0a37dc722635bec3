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

// Package pins abstracts the GPIO lines used by the sequencer so that
// the sysfs and memory-mapped backends (and the simulator) are
// interchangeable.

package pins

// Output is a binary output line.
type Output interface {
	SetHigh() error
	SetLow() error
	Close()
}

// Input is a binary input line read synchronously.
type Input interface {
	Read() (bool, error)
	Close()
}

// EdgeInput is an input line with edge detection. WaitEdge blocks
// until the level changes, so no polling loop is required.
// Level returns the last level observed without blocking.
type EdgeInput interface {
	Level() bool
	WaitEdge() (bool, error)
	Close()
}
