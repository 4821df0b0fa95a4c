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

// makeCube builds an axis-aligned cube from min to max with six quad
// faces, outward orientation.
func makeCube(min, max Vec) *Mesh {
	m := NewMesh()

	x0, y0, z0 := min.X, min.Y, min.Z
	x1, y1, z1 := max.X, max.Y, max.Z

	ids := [8]int{
		m.AddPoint(Vec{x0, y0, z0}), // 0
		m.AddPoint(Vec{x1, y0, z0}), // 1
		m.AddPoint(Vec{x1, y1, z0}), // 2
		m.AddPoint(Vec{x0, y1, z0}), // 3
		m.AddPoint(Vec{x0, y0, z1}), // 4
		m.AddPoint(Vec{x1, y0, z1}), // 5
		m.AddPoint(Vec{x1, y1, z1}), // 6
		m.AddPoint(Vec{x0, y1, z1}), // 7
	}

	faces := [6][4]int{
		{0, 3, 2, 1}, // z = z0
		{4, 5, 6, 7}, // z = z1
		{0, 1, 5, 4}, // y = y0
		{3, 7, 6, 2}, // y = y1
		{0, 4, 7, 3}, // x = x0
		{1, 2, 6, 5}, // x = x1
	}
	for i, f := range faces {
		m.AddFace([]int{ids[f[0]], ids[f[1]], ids[f[2]], ids[f[3]]}, i)
	}
	return m
}

// meshVolume computes the signed enclosed volume by the divergence
// theorem, fanning each face from its first vertex. Exact for closed
// outward-oriented surfaces, up to coordinate-coincident duplicates.
func meshVolume(m *Mesh) float64 {
	var vol float64
	for f := 0; f < m.NumFaces(); f++ {
		if m.FaceDeleted(f) {
			continue
		}
		face := m.Face(f)
		p0 := m.Point(face[0])
		for i := 1; i+1 < len(face); i++ {
			p1 := m.Point(face[i])
			p2 := m.Point(face[i+1])
			vol += p0.Dot(p1.Cross(p2))
		}
	}
	return vol / 6
}

// checkClosedManifold welds the mesh points by coordinate and verifies
// that every undirected edge is used by exactly two faces, once in each
// direction.
func checkClosedManifold(t *testing.T, m *Mesh) {
	t.Helper()

	loc := NewPointLocator()
	weld := make([]int, m.NumPoints())
	for i := 0; i < m.NumPoints(); i++ {
		weld[i] = loc.Merge(m.Point(i))
	}

	directed := make(map[Pair]int)
	for f := 0; f < m.NumFaces(); f++ {
		if m.FaceDeleted(f) {
			continue
		}
		face := m.Face(f)
		for i, id := range face {
			a := weld[id]
			b := weld[face[(i+1)%len(face)]]
			if a == b {
				continue
			}
			directed[Pair{a, b}]++
		}
	}

	for e, n := range directed {
		if n != 1 {
			t.Fatalf("edge %v used %d times in the same direction", e, n)
		}
		if directed[Pair{e.G, e.F}] != 1 {
			t.Fatalf("edge %v has no opposing half-edge", e)
		}
	}
}

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) < tol
}
