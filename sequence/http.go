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

// HTTP control API.

package sequence

import (
	"encoding/json"
	"log"
	"net/http"
)

type okResponse struct {
	Status  string `json:"status"`
	Saved   *bool  `json:"saved,omitempty"`
	Message string `json:"message,omitempty"`
}

type errResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Handler returns the API handler. Handlers only touch the shared
// state and the settings store; no lock is held across a request
// body read or a response write.
func Handler(ctrl *Controller, store *Store) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", statusHandler(ctrl))
	mux.HandleFunc("/api/set", setHandler(ctrl))
	mux.HandleFunc("/api/stop", stopHandler(ctrl))
	mux.HandleFunc("/api/debug", debugHandler(ctrl))
	mux.HandleFunc("/api/debug/info", debugInfoHandler(ctrl))
	mux.HandleFunc("/api/settings", settingsHandler(ctrl, store))
	mux.HandleFunc("/api/output/manual", manualHandler(ctrl))
	mux.HandleFunc("/dial.jpg", dialHandler(ctrl))
	return mux
}

// Serve runs the HTTP control API on addr.
func Serve(addr string, ctrl *Controller, store *Store) error {
	log.Printf("Starting server on %s", addr)
	server := &http.Server{Addr: addr, Handler: Handler(ctrl, store)}
	return server.ListenAndServe()
}

func statusHandler(ctrl *Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, ctrl.Status())
	}
}

func setHandler(ctrl *Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !post(w, r) {
			return
		}
		var req struct {
			Angles []float64 `json:"angles"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, "invalid JSON: "+err.Error())
			return
		}
		if err := ctrl.Start(req.Angles); err != nil {
			writeError(w, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, okResponse{Status: "ok"})
	}
}

func stopHandler(ctrl *Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !post(w, r) {
			return
		}
		ctrl.Stop()
		writeJSON(w, http.StatusOK, okResponse{Status: "ok"})
	}
}

func debugHandler(ctrl *Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !post(w, r) {
			return
		}
		var req struct {
			Enabled *bool `json:"enabled"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, "invalid JSON: "+err.Error())
			return
		}
		if req.Enabled == nil {
			writeError(w, "missing or invalid 'enabled' field")
			return
		}
		ctrl.SetDebug(*req.Enabled)
		writeJSON(w, http.StatusOK, okResponse{Status: "ok"})
	}
}

func debugInfoHandler(ctrl *Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, ctrl.DebugInfo())
	}
}

func settingsHandler(ctrl *Controller, store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, store.Get())
		case http.MethodPost:
			s := DefaultSettings()
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&s); err != nil {
				writeError(w, "invalid JSON: "+err.Error())
				return
			}
			if err := s.Validate(); err != nil {
				writeError(w, err.Error())
				return
			}
			// Out-of-range numbers are clamped and applied; the
			// response carries the values actually in effect.
			s.Clamp()
			saveErr := store.Put(s)
			ctrl.ApplySettings(s)
			resp := struct {
				Status   string   `json:"status"`
				Saved    bool     `json:"saved"`
				Message  string   `json:"message,omitempty"`
				Settings Settings `json:"settings"`
			}{Status: "ok", Saved: saveErr == nil, Settings: s}
			if saveErr != nil {
				log.Printf("settings not persisted: %v", saveErr)
				resp.Message = saveErr.Error()
			}
			writeJSON(w, http.StatusOK, resp)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}
}

func manualHandler(ctrl *Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !post(w, r) {
			return
		}
		var req struct {
			State *bool `json:"state"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, "invalid JSON: "+err.Error())
			return
		}
		if req.State == nil {
			writeError(w, "missing or invalid 'state' field")
			return
		}
		ctrl.SetManual(*req.State)
		writeJSON(w, http.StatusOK, okResponse{Status: "ok"})
	}
}

func post(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error writing response: %v", err)
	}
}

func writeError(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errResponse{Status: "error", Message: msg})
}
