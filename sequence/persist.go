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

// Settings store with YAML persistence.

package sequence

import (
	"fmt"
	"log"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// Store owns the current Settings and persists them to a YAML file.
// The in-memory copy is authoritative; a failed save is reported but
// does not prevent the new settings from applying.
type Store struct {
	path string
	mu   sync.Mutex
	s    Settings
}

// NewStore creates a store backed by the given file. A missing or
// unreadable file leaves the defaults in place. An empty path
// disables persistence.
func NewStore(path string) *Store {
	st := &Store{path: path, s: DefaultSettings()}
	if path == "" {
		return st
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("settings: %s: %v, using defaults", path, err)
		}
		return st
	}
	s := DefaultSettings()
	if err := yaml.Unmarshal(data, &s); err != nil {
		log.Printf("settings: %s: %v, using defaults", path, err)
		return st
	}
	s.Clamp()
	if err := s.Validate(); err != nil {
		log.Printf("settings: %s: %v, using defaults", path, err)
		return st
	}
	st.s = s
	return st
}

// Get returns a copy of the current settings.
func (st *Store) Get() Settings {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.s
}

// Put installs new settings and attempts to persist them. The
// settings apply even when the save fails; the error tells the
// caller the change was not made durable.
func (st *Store) Put(s Settings) error {
	st.mu.Lock()
	st.s = s
	st.mu.Unlock()
	if st.path == "" {
		return nil
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("settings: %v", err)
	}
	if err := os.WriteFile(st.path, data, 0644); err != nil {
		return fmt.Errorf("settings: %v", err)
	}
	return nil
}
