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

import "sort"

// FaceTree is a bounding-interval hierarchy over the faces of a mesh.
// It answers "which faces may overlap this box" during contact search.
type FaceTree struct {
	mesh  *Mesh
	boxes []bounds
	root  *faceNode
}

type faceNode struct {
	box         bounds
	faces       []int
	left, right *faceNode
}

const faceLeafSize = 8

// NewFaceTree indexes every live face of m.
func NewFaceTree(m *Mesh) *FaceTree {
	t := &FaceTree{mesh: m}
	t.boxes = make([]bounds, m.NumFaces())

	var ids []int
	for i := 0; i < m.NumFaces(); i++ {
		if m.FaceDeleted(i) {
			continue
		}
		t.boxes[i] = faceBounds(m, m.Face(i))
		ids = append(ids, i)
	}
	t.root = t.build(ids, meshBounds(m))
	return t
}

func (t *FaceTree) build(ids []int, box bounds) *faceNode {
	n := &faceNode{box: box}
	if len(ids) <= faceLeafSize {
		n.faces = ids
		return n
	}

	// Split at the median center along the widest axis.
	d := box.max.Sub(box.min)
	axis := 0
	if d.Y > d.X && d.Y >= d.Z {
		axis = 1
	} else if d.Z > d.X && d.Z >= d.Y {
		axis = 2
	}

	center := func(id int) float64 {
		b := t.boxes[id]
		switch axis {
		case 1:
			return b.min.Y + b.max.Y
		case 2:
			return b.min.Z + b.max.Z
		}
		return b.min.X + b.max.X
	}

	sort.Slice(ids, func(i, j int) bool { return center(ids[i]) < center(ids[j]) })
	mid := len(ids) / 2

	leftBox := t.boxes[ids[0]]
	for _, id := range ids[1:mid] {
		leftBox = leftBox.union(t.boxes[id])
	}
	rightBox := t.boxes[ids[mid]]
	for _, id := range ids[mid+1:] {
		rightBox = rightBox.union(t.boxes[id])
	}

	n.left = t.build(ids[:mid], leftBox)
	n.right = t.build(ids[mid:], rightBox)
	return n
}

// Query appends to dst the ids of all faces whose bounds overlap box,
// inflated by the coincidence tolerance, and returns dst.
func (t *FaceTree) Query(box bounds, dst []int) []int {
	box = box.expand(linTol)
	return t.query(t.root, box, dst)
}

func (t *FaceTree) query(n *faceNode, box bounds, dst []int) []int {
	if n == nil || !n.box.overlaps(box) {
		return dst
	}
	for _, id := range n.faces {
		if t.boxes[id].overlaps(box) {
			dst = append(dst, id)
		}
	}
	dst = t.query(n.left, box, dst)
	dst = t.query(n.right, box, dst)
	return dst
}

func (b bounds) union(o bounds) bounds {
	r := b
	if o.min.X < r.min.X {
		r.min.X = o.min.X
	}
	if o.min.Y < r.min.Y {
		r.min.Y = o.min.Y
	}
	if o.min.Z < r.min.Z {
		r.min.Z = o.min.Z
	}
	if o.max.X > r.max.X {
		r.max.X = o.max.X
	}
	if o.max.Y > r.max.Y {
		r.max.Y = o.max.Y
	}
	if o.max.Z > r.max.Z {
		r.max.Z = o.max.Z
	}
	return r
}

// segIndex is a 2D interval index over line segments in a face plane,
// used by the strip self-intersection check.
type segIndex struct {
	segs []indexedSeg
}

type indexedSeg struct {
	a, b  [2]float64
	ia, ib int // endpoint ids in the contact curve
	minX, maxX float64
}

func (s *segIndex) add(a, b [2]float64, ia, ib int) {
	seg := indexedSeg{a: a, b: b, ia: ia, ib: ib}
	seg.minX, seg.maxX = a[0], b[0]
	if seg.minX > seg.maxX {
		seg.minX, seg.maxX = seg.maxX, seg.minX
	}
	s.segs = append(s.segs, seg)
}

// anyCross reports whether two indexed segments that do not share an
// endpoint intersect. Runs a sweep over the x-sorted segments.
func (s *segIndex) anyCross() bool {
	sort.Slice(s.segs, func(i, j int) bool { return s.segs[i].minX < s.segs[j].minX })

	for i := range s.segs {
		si := s.segs[i]
		for j := i + 1; j < len(s.segs); j++ {
			sj := s.segs[j]
			if sj.minX > si.maxX+linTol {
				break
			}
			if si.ia == sj.ia || si.ia == sj.ib || si.ib == sj.ia || si.ib == sj.ib {
				continue
			}
			if segIntersect2(si.a, si.b, sj.a, sj.b) {
				return true
			}
		}
	}
	return false
}
