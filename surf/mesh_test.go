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
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMeshDeleteAndCompact(t *testing.T) {
	m := makeCube(Vec{0, 0, 0}, Vec{1, 1, 1})

	m.DeleteFace(2)
	if !m.FaceDeleted(2) {
		t.Fatal("face 2 not marked deleted")
	}
	if m.NumFaces() != 6 {
		t.Fatalf("NumFaces = %d before compaction, want 6", m.NumFaces())
	}

	m.RemoveDeletedFaces()
	if m.NumFaces() != 5 {
		t.Fatalf("NumFaces = %d after compaction, want 5", m.NumFaces())
	}

	want := []int{0, 1, 3, 4, 5}
	if diff := cmp.Diff(want, m.OrigCellIds); diff != "" {
		t.Errorf("OrigCellIds mismatch (-want +got):\n%s", diff)
	}
}

func TestMeshLinksRebuild(t *testing.T) {
	m := makeCube(Vec{0, 0, 0}, Vec{1, 1, 1})

	// Every cube corner belongs to three faces.
	for p := 0; p < m.NumPoints(); p++ {
		if got := len(m.PointFaces(p)); got != 3 {
			t.Fatalf("point %d has %d incident faces, want 3", p, got)
		}
	}

	// Replacing a corner in one face must invalidate the cache.
	fresh := m.AddPoint(m.Point(0))
	m.ReplaceFacePoint(0, 0, fresh)

	if got := len(m.PointFaces(0)); got != 2 {
		t.Errorf("point 0 has %d incident faces after replace, want 2", got)
	}
	if got := len(m.PointFaces(fresh)); got != 1 {
		t.Errorf("fresh point has %d incident faces, want 1", got)
	}
}

func TestMeshCleanUnusedPoints(t *testing.T) {
	m := makeCube(Vec{0, 0, 0}, Vec{1, 1, 1})
	m.AddPoint(Vec{9, 9, 9})
	m.AddPoint(Vec{8, 8, 8})

	m.CleanUnusedPoints()
	if m.NumPoints() != 8 {
		t.Fatalf("NumPoints = %d, want 8", m.NumPoints())
	}
	checkClosedManifold(t, m)
}

func TestMeshAppendCarriesCellData(t *testing.T) {
	a := makeCube(Vec{0, 0, 0}, Vec{1, 1, 1})
	a.CellData["weight"] = []float64{1, 2, 3, 4, 5, 6}

	b := makeCube(Vec{2, 2, 2}, Vec{3, 3, 3})
	b.CellData["color"] = []float64{7, 7, 7, 7, 7, 7}

	a.Append(b)

	if a.NumFaces() != 12 {
		t.Fatalf("NumFaces = %d, want 12", a.NumFaces())
	}
	if got := len(a.CellData["weight"]); got != 12 {
		t.Fatalf("weight array length = %d, want 12", got)
	}
	if a.CellData["weight"][3] != 4 || a.CellData["weight"][8] != 0 {
		t.Error("weight values not carried correctly through Append")
	}
	if a.CellData["color"][2] != 0 || a.CellData["color"][9] != 7 {
		t.Error("color values not carried correctly through Append")
	}

	if got := meshVolume(a); !almostEqual(got, 2, 1e-12) {
		t.Errorf("volume after append = %v, want 2", got)
	}
}

func TestPointLocator(t *testing.T) {
	loc := NewPointLocator()
	a := loc.Add(Vec{0, 0, 0})
	b := loc.Add(Vec{1, 0, 0})
	c := loc.Add(Vec{0, 0, 5e-6}) // within tolerance of a

	got := loc.FindPoints(Vec{0, 0, 0})
	if diff := cmp.Diff([]int{a, c}, got); diff != "" {
		t.Errorf("FindPoints mismatch (-want +got):\n%s", diff)
	}

	if id := loc.Merge(Vec{1, 0, 4e-6}); id != b {
		t.Errorf("Merge near b = %d, want %d", id, b)
	}
	if id := loc.Merge(Vec{2, 0, 0}); id != 3 {
		t.Errorf("Merge of a new point = %d, want 3", id)
	}
}

func TestFaceTreeQuery(t *testing.T) {
	m := makeCube(Vec{0, 0, 0}, Vec{1, 1, 1})
	tree := NewFaceTree(m)

	// A box hugging the middle of the z=1 plane overlaps the top face
	// only.
	box := bounds{Vec{0.2, 0.2, 0.9}, Vec{0.8, 0.8, 1.1}}
	got := tree.Query(box, nil)

	found := make(map[int]bool)
	for _, f := range got {
		found[f] = true
	}
	if found[0] {
		t.Error("bottom face reported for a top box")
	}
	if !found[1] {
		t.Error("top face missing from query")
	}

	// Brute force comparison over several probe boxes.
	probes := []bounds{
		{Vec{-1, -1, -1}, Vec{2, 2, 2}},
		{Vec{0.4, 0.4, 0.4}, Vec{0.6, 0.6, 0.6}},
		{Vec{0.9, 0.9, 0.9}, Vec{2, 2, 2}},
	}
	for _, probe := range probes {
		got := tree.Query(probe, nil)
		gotSet := make(map[int]bool)
		for _, f := range got {
			gotSet[f] = true
		}
		expanded := probe.expand(linTol)
		for f := 0; f < m.NumFaces(); f++ {
			want := faceBounds(m, m.Face(f)).overlaps(expanded)
			if gotSet[f] != want {
				t.Errorf("probe %v face %d: got %v, want %v", probe, f, gotSet[f], want)
			}
		}
	}
}
