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
	"testing"
)

func TestContactOffsetCubes(t *testing.T) {
	modA := clean(makeCube(Vec{0, 0, 0}, Vec{1, 1, 1}))
	modB := clean(makeCube(Vec{0.5, 0.5, 0.5}, Vec{1.5, 1.5, 1.5}))

	curve, err := contact(modA, modB)
	if err != nil {
		t.Fatalf("contact: %v", err)
	}

	if curve.liveSegments() == 0 {
		t.Fatal("no contact segments")
	}

	// The intersection of two offset cubes is one closed loop: every
	// contact point has degree two.
	for i := 0; i < curve.NumPoints(); i++ {
		if got := len(curve.PointSegments(i)); got != 2 {
			t.Errorf("contact point %d has degree %d, want 2", i, got)
		}
	}

	// Every segment references a live face on both surfaces, and every
	// segment point lies on both cube surfaces.
	for i := 0; i < curve.NumSegments(); i++ {
		fA, fB := curve.FaceA(i), curve.FaceB(i)
		if fA < 0 || fA >= modA.NumFaces() || fB < 0 || fB >= modB.NumFaces() {
			t.Fatalf("segment %d has invalid face refs %d/%d", i, fA, fB)
		}
		seg := curve.Segment(i)
		for _, pid := range []int{seg.F, seg.G} {
			p := curve.Point(pid)
			onA := almostEqual(p.X, 1, 1e-9) || almostEqual(p.Y, 1, 1e-9) || almostEqual(p.Z, 1, 1e-9)
			onB := almostEqual(p.X, 0.5, 1e-9) || almostEqual(p.Y, 0.5, 1e-9) || almostEqual(p.Z, 0.5, 1e-9)
			if !onA || !onB {
				t.Errorf("contact point %v does not lie on both surfaces", p)
			}
		}
	}
}

func TestContactDisjoint(t *testing.T) {
	modA := clean(makeCube(Vec{0, 0, 0}, Vec{1, 1, 1}))
	modB := clean(makeCube(Vec{10, 10, 10}, Vec{11, 11, 11}))

	_, err := contact(modA, modB)
	if !errors.Is(err, ErrNoContact) {
		t.Fatalf("contact of disjoint cubes: %v, want ErrNoContact", err)
	}
}

func TestContactOpenCurve(t *testing.T) {
	// A vertical fin pierces the top face of the cube but ends in free
	// space: the contact curve is one open segment with two degree-one
	// ends.
	modA := clean(makeCube(Vec{0, 0, 0}, Vec{1, 1, 1}))

	fin := NewMesh()
	a := fin.AddPoint(Vec{0.5, 0.25, 0.5})
	b := fin.AddPoint(Vec{0.5, 0.75, 0.5})
	c := fin.AddPoint(Vec{0.5, 0.75, 1.5})
	d := fin.AddPoint(Vec{0.5, 0.25, 1.5})
	fin.AddFace([]int{a, b, c, d}, 0)
	modB := clean(fin)

	_, err := contact(modA, modB)
	if !errors.Is(err, ErrLineEndDegree1) {
		t.Fatalf("contact with piercing fin: %v, want ErrLineEndDegree1", err)
	}
}
