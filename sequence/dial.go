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

// Dial image rendering for the web UI.

package sequence

import (
	"image/jpeg"
	"log"
	"math"
	"net/http"

	"github.com/fogleman/gg"
)

const dialSize = 480

// dialHandler serves a rendered dial showing the current angle and
// the target marks.
func dialHandler(ctrl *Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := ctrl.Status()
		c := gg.NewContext(dialSize, dialSize)
		c.SetRGB(1, 1, 1)
		c.Clear()

		mid := float64(dialSize) / 2
		radius := mid - 20

		// Dial face and degree ticks.
		c.SetRGB(0, 0, 0)
		c.SetLineWidth(2)
		c.DrawCircle(mid, mid, radius)
		c.Stroke()
		for deg := 0; deg < 360; deg += 30 {
			x1, y1 := dialPoint(mid, radius-12, float64(deg))
			x2, y2 := dialPoint(mid, radius, float64(deg))
			c.DrawLine(x1, y1, x2, y2)
			c.Stroke()
		}

		// Target marks, the active one wider.
		for i, t := range st.TargetAngles {
			if i == st.CurrentTargetIndex {
				c.SetRGB(1, 0, 0)
			} else {
				c.SetRGB(1, 0.6, 0.6)
			}
			x, y := dialPoint(mid, radius-6, t)
			c.DrawCircle(x, y, 6)
			c.Fill()
		}

		// Needle at the current angle.
		if st.OutputOn {
			c.SetRGB(1, 0, 0)
		} else {
			c.SetRGB(0, 0, 1)
		}
		c.SetLineWidth(4)
		x, y := dialPoint(mid, radius-24, st.Angle)
		c.DrawLine(mid, mid, x, y)
		c.Stroke()

		w.Header().Set("Content-Type", "image/jpeg")
		if err := jpeg.Encode(w, c.Image(), nil); err != nil {
			log.Printf("Error writing image: %v", err)
		}
	}
}

// dialPoint maps an angle in degrees (zero at the top, increasing
// clockwise) to a point at the given radius from the centre.
func dialPoint(mid, radius, deg float64) (float64, float64) {
	radians := deg * math.Pi / 180
	x := radius*math.Sin(radians) + mid
	y := mid - radius*math.Cos(radians)
	return x, y
}
