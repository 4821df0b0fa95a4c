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

import "testing"

func offsetCubeStrips(t *testing.T) (*Mesh, *Mesh, *ContactCurve, map[int]*pStrips, map[int]*pStrips) {
	t.Helper()

	modA := clean(makeCube(Vec{0, 0, 0}, Vec{1, 1, 1}))
	modB := clean(makeCube(Vec{0.5, 0.5, 0.5}, Vec{1.5, 1.5, 1.5}))

	curve, err := contact(modA, modB)
	if err != nil {
		t.Fatalf("contact: %v", err)
	}

	psA, err := getPolyStrips(modA, curve, true)
	if err != nil {
		t.Fatalf("getPolyStrips A: %v", err)
	}
	psB, err := getPolyStrips(modB, curve, false)
	if err != nil {
		t.Fatalf("getPolyStrips B: %v", err)
	}
	return modA, modB, curve, psA, psB
}

func TestPolyStripsOffsetCubes(t *testing.T) {
	_, _, _, psA, psB := offsetCubeStrips(t)

	// Three faces of each cube are crossed by the curve.
	if len(psA) != 3 {
		t.Fatalf("cut faces on A = %d, want 3", len(psA))
	}
	if len(psB) != 3 {
		t.Fatalf("cut faces on B = %d, want 3", len(psB))
	}

	for f, ps := range psA {
		if len(ps.strips) != 1 {
			t.Fatalf("face %d carries %d strips, want 1", f, len(ps.strips))
		}
		strip := ps.strips[0]
		if len(strip) != 3 {
			t.Fatalf("face %d strip has %d points, want 3", f, len(strip))
		}

		front := ps.pts[ps.refs[strip[0]].ind]
		mid := ps.pts[ps.refs[strip[1]].ind]
		back := ps.pts[ps.refs[strip[len(strip)-1]].ind]

		if front.capt != captEdge || back.capt != captEdge {
			t.Errorf("face %d strip ends capt = %v/%v, want edge captures", f, front.capt, back.capt)
		}
		if mid.capt != captNot {
			t.Errorf("face %d strip middle capt = %v, want interior", f, mid.capt)
		}

		// Edge captures carry the snapped coordinate for cutting.
		if front.cutPt != front.captPt || back.cutPt != back.captPt {
			t.Error("boundary cut points not snapped to captured coordinates")
		}
		if mid.cutPt != mid.pt {
			t.Error("interior cut point differs from contact coordinate")
		}
	}
}

func TestHasArea(t *testing.T) {
	ps := &pStrips{pts: make(map[int]*stripPt)}

	mk := func(inds ...int) []int {
		var strip []int
		for _, ind := range inds {
			strip = append(strip, ps.newRef(ind, 0))
		}
		return strip
	}

	if hasArea(ps, mk(0, 1, 2, 1, 0)) {
		t.Error("palindromic strip reported as having area")
	}
	if !hasArea(ps, mk(0, 1, 2, 3, 0)) {
		t.Error("closed loop reported as zero area")
	}
	if !hasArea(ps, mk(0, 1, 2, 3)) {
		t.Error("open even strip reported as zero area")
	}
}

func TestCleanStripsKeepsOffsetCubeCurve(t *testing.T) {
	_, _, curve, psA, psB := offsetCubeStrips(t)

	if err := cleanStrips(curve, psA, psB); err != nil {
		t.Fatalf("cleanStrips: %v", err)
	}
	if curve.liveSegments() == 0 {
		t.Fatal("cleanStrips removed a valid curve")
	}
	for _, ps := range psA {
		if len(ps.strips) != 1 {
			t.Fatal("cleanStrips dropped a valid strip")
		}
	}
}

func TestStripsCrossDetection(t *testing.T) {
	// Two crossing diagonals of a unit square, assembled by hand.
	ps := &pStrips{
		poly: []int{0, 1, 2, 3},
		base: NewBase(Vec{0, 0, 0}, Vec{1, 0, 0}, Vec{0, 0, 1}),
		n:    Vec{0, 0, 1},
		pts:  make(map[int]*stripPt),
	}

	coords := []Vec{
		{0.1, 0.1, 0}, {0.9, 0.9, 0},
		{0.1, 0.9, 0}, {0.9, 0.1, 0},
	}
	for ind, c := range coords {
		ps.pts[ind] = &stripPt{ind: ind, pt: c, capt: captNot}
	}
	ps.strips = [][]int{
		{ps.newRef(0, 0), ps.newRef(1, 0)},
		{ps.newRef(2, 1), ps.newRef(3, 1)},
	}

	if !stripsCross(ps) {
		t.Error("crossing strips not detected")
	}

	// Move the second strip away; no crossing remains.
	ps.pts[2].pt = Vec{0.05, 0.2, 0}
	ps.pts[3].pt = Vec{0.05, 0.8, 0}
	if stripsCross(ps) {
		t.Error("disjoint strips reported as crossing")
	}
}
