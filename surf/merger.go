// Copyright 2025 The geosurf Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS-IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package surf

import (
	"errors"
	"math"
)

// bridge is a candidate connection between a hole vertex and a vertex of
// the enclosing polygon, ranked by length.
type bridge struct {
	d          float64
	hole, poly int
}

// mergeHoles splices every hole of a freshly cut face into the
// sub-polygon that encloses it. A hole is connected to its polygon by
// the shortest bridge that crosses no existing edge; the spliced result
// is a single weakly simple polygon.
func mergeHoles(m *Mesh, ps *pStrips, holes [][]int, descIDs []int, origID int) error {
	for _, hole := range holes {
		// The strip is closed; drop the repeated last point.
		var coords []Vec
		for _, r := range hole[:len(hole)-1] {
			coords = append(coords, ps.pts[ps.refs[r].ind].cutPt)
		}
		if len(coords) < 3 {
			continue
		}

		hole2 := projectCoords(ps.base, coords)

		// Find the sub-polygon whose interior holds the whole hole.
		host := -1
		var host2 [][2]float64
		for i, faceID := range descIDs {
			if m.FaceDeleted(faceID) {
				continue
			}
			face := m.Face(faceID)
			poly2 := projectPoints(m, face, ps.base)
			inside := true
			for _, hp := range hole2 {
				if !pointInPoly2(poly2, hp) {
					inside = false
					break
				}
			}
			if inside {
				host = i
				host2 = poly2
				break
			}
		}
		if host < 0 {
			return errors.New("no enclosing polygon for hole")
		}

		// Wind the hole against the host so the splice keeps the host's
		// orientation.
		if area2(hole2)*area2(host2) > 0 {
			reverseCoords(coords)
			reverseProj(hole2)
		}

		hostID := descIDs[host]
		outer := m.Face(hostID)

		best := bridge{d: math.Inf(1), hole: -1, poly: -1}
		for hi, hp := range hole2 {
			for pi, pp := range host2 {
				d := math.Hypot(hp[0]-pp[0], hp[1]-pp[1])
				if d >= best.d {
					continue
				}
				if bridgeCrosses(hp, pp, hi, pi, hole2, host2) {
					continue
				}
				best = bridge{d: d, hole: hi, poly: pi}
			}
		}
		if best.hole < 0 {
			return errors.New("no visible bridge for hole")
		}

		holeIDs := make([]int, len(coords))
		for i, c := range coords {
			holeIDs[i] = m.AddPoint(c)
		}

		var merged []int
		merged = append(merged, outer[:best.poly+1]...)
		for k := 0; k < len(coords); k++ {
			merged = append(merged, holeIDs[(best.hole+k)%len(coords)])
		}
		merged = append(merged, m.AddPoint(coords[best.hole]))
		merged = append(merged, m.AddPoint(m.Point(outer[best.poly])))
		merged = append(merged, outer[best.poly+1:]...)

		m.DeleteFace(hostID)
		descIDs[host] = m.AddFace(merged, origID)
	}
	return nil
}

// bridgeCrosses reports whether the segment hp→pp crosses any edge of
// the hole or the host polygon, edges incident to the endpoints
// excluded.
func bridgeCrosses(hp, pp [2]float64, hi, pi int, hole2, host2 [][2]float64) bool {
	nh := len(hole2)
	for i := 0; i < nh; i++ {
		if i == hi || (i+1)%nh == hi {
			continue
		}
		if segIntersect2(hp, pp, hole2[i], hole2[(i+1)%nh]) {
			return true
		}
	}
	np := len(host2)
	for i := 0; i < np; i++ {
		if i == pi || (i+1)%np == pi {
			continue
		}
		if segIntersect2(hp, pp, host2[i], host2[(i+1)%np]) {
			return true
		}
	}
	return false
}

func reverseCoords(a []Vec) {
	for i, j := 0, len(a)-1; i < j; i, j = i+1, j-1 {
		a[i], a[j] = a[j], a[i]
	}
}

func reverseProj(a [][2]float64) {
	for i, j := 0, len(a)-1; i < j; i, j = i+1, j-1 {
		a[i], a[j] = a[j], a[i]
	}
}
