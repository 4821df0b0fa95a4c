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

import "math"

// clean returns an editable copy of the input with coincident points
// welded, consecutive duplicate vertices dropped, and degenerate faces
// removed. OrigCellIds of the copy reference the input's face ids.
func clean(in *Mesh) *Mesh {
	out := NewMesh()
	loc := NewPointLocator()

	remap := make([]int, in.NumPoints())
	for i := 0; i < in.NumPoints(); i++ {
		p := in.Point(i)
		id := loc.Merge(p)
		if id == out.NumPoints() {
			out.AddPoint(p)
		}
		remap[i] = id
	}

	for f := 0; f < in.NumFaces(); f++ {
		if in.FaceDeleted(f) {
			continue
		}
		var face []int
		for _, p := range in.Face(f) {
			id := remap[p]
			if len(face) > 0 && face[len(face)-1] == id {
				continue
			}
			face = append(face, id)
		}
		for len(face) > 1 && face[0] == face[len(face)-1] {
			face = face[:len(face)-1]
		}
		if len(face) < 3 {
			continue
		}
		out.AddFace(face, f)
	}
	return out
}

// preventEqualCaptPoints perturbs every point of one surface that lies
// within the capture tolerance of a polygon of the other surface, so
// that the later capture steps never see two coincident capture
// candidates. Points are pushed along the offending face's normal.
func preventEqualCaptPoints(mA, mB *Mesh) error {
	if err := displaceCoincident(mA, mB); err != nil {
		return err
	}
	return displaceCoincident(mB, mA)
}

func displaceCoincident(m, other *Mesh) error {
	tree := NewFaceTree(other)
	normals := faceNormals(other)

	var cand []int
	for i := 0; i < m.NumPoints(); i++ {
		p := m.Point(i)
		box := bounds{p, p}
		cand = tree.Query(box, cand[:0])

		for _, f := range cand {
			if !pointOnFace(other, f, normals[f], p) {
				continue
			}
			moved := false
			for k := 1; k <= 3; k++ {
				q := p.Add(normals[f].Mul(float64(k) * 1e-4))
				if !pointOnFace(other, f, normals[f], q) {
					m.SetPoint(i, q)
					p = q
					moved = true
					break
				}
			}
			if !moved {
				return ErrEqualCaptPoints
			}
		}
	}
	return nil
}

// pointOnFace reports whether p lies within the capture tolerance of
// face f: on its supporting plane and inside or on the polygon.
func pointOnFace(m *Mesh, f int, n Vec, p Vec) bool {
	face := m.Face(f)
	o := m.Point(face[0])

	if math.Abs(n.Dot(p.Sub(o))) >= linTol {
		return false
	}

	base := NewBase(o, m.Point(face[1]), n)
	poly2 := projectPoints(m, face, base)
	pp := base.Project(p)

	if pointInPoly2(poly2, pp) {
		return true
	}
	for i := range poly2 {
		if segDist2(pp, poly2[i], poly2[(i+1)%len(poly2)]) < linTol {
			return true
		}
	}
	return false
}
