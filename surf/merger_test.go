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
	"math"
	"testing"
)

func TestMergeHolesSplicesSquareHole(t *testing.T) {
	m := NewMesh()
	outer := []int{
		m.AddPoint(Vec{0, 0, 0}),
		m.AddPoint(Vec{4, 0, 0}),
		m.AddPoint(Vec{4, 4, 0}),
		m.AddPoint(Vec{0, 4, 0}),
	}
	faceID := m.AddFace(outer, 0)

	ps := &pStrips{
		poly: outer,
		base: NewBase(Vec{0, 0, 0}, Vec{1, 0, 0}, Vec{0, 0, 1}),
		n:    Vec{0, 0, 1},
		pts:  make(map[int]*stripPt),
	}

	holeCoords := []Vec{{1, 1, 0}, {3, 1, 0}, {3, 3, 0}, {1, 3, 0}}
	var hole []int
	for ind, c := range holeCoords {
		ps.pts[ind] = &stripPt{ind: ind, pt: c, cutPt: c, capt: captNot}
		hole = append(hole, ps.newRef(ind, 0))
	}
	hole = append(hole, ps.cloneRef(hole[0])) // closed strip

	descIDs := []int{faceID}
	if err := mergeHoles(m, ps, [][]int{hole}, descIDs, 0); err != nil {
		t.Fatalf("mergeHoles: %v", err)
	}

	if !m.FaceDeleted(faceID) {
		t.Fatal("host face not replaced")
	}
	merged := m.Face(descIDs[0])

	// Outer ring, hole ring, and the two bridge duplicates.
	if len(merged) != 10 {
		t.Fatalf("merged polygon has %d vertices, want 10", len(merged))
	}

	// The enclosed area must be the outer square minus the hole.
	var proj [][2]float64
	for _, id := range merged {
		proj = append(proj, ps.base.Project(m.Point(id)))
	}
	if got := math.Abs(area2(proj)); !almostEqual(got, 16-4, 1e-9) {
		t.Errorf("merged area = %v, want 12", got)
	}

	// A point inside the hole is outside the merged polygon.
	if pointInPoly2(proj, [2]float64{2, 2}) {
		t.Error("hole interior still inside the merged polygon")
	}
}

func TestMergeHolesFailsOutsideHost(t *testing.T) {
	m := NewMesh()
	outer := []int{
		m.AddPoint(Vec{0, 0, 0}),
		m.AddPoint(Vec{1, 0, 0}),
		m.AddPoint(Vec{1, 1, 0}),
		m.AddPoint(Vec{0, 1, 0}),
	}
	faceID := m.AddFace(outer, 0)

	ps := &pStrips{
		poly: outer,
		base: NewBase(Vec{0, 0, 0}, Vec{1, 0, 0}, Vec{0, 0, 1}),
		n:    Vec{0, 0, 1},
		pts:  make(map[int]*stripPt),
	}

	// The hole lies outside the face.
	var hole []int
	for ind, c := range []Vec{{5, 5, 0}, {6, 5, 0}, {6, 6, 0}, {5, 6, 0}} {
		ps.pts[ind] = &stripPt{ind: ind, pt: c, cutPt: c, capt: captNot}
		hole = append(hole, ps.newRef(ind, 0))
	}
	hole = append(hole, ps.cloneRef(hole[0]))

	if err := mergeHoles(m, ps, [][]int{hole}, []int{faceID}, 0); err == nil {
		t.Fatal("mergeHoles accepted a hole outside every polygon")
	}
}
