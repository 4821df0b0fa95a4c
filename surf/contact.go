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
	"fmt"
	"math"
	"sort"
)

// ContactCurve is the piecewise-linear curve where two surfaces cross:
// an undirected graph of points connected by segments. Each segment
// remembers the face on either surface whose intersection produced it,
// and for each endpoint the surface vertex it captured to, if any.
type ContactCurve struct {
	loc  *PointLocator
	segs []contactSeg

	links      [][]int
	linksDirty bool
}

type contactSeg struct {
	pts      Pair
	cA, cB   int
	sourcesA [2]int
	sourcesB [2]int
	deleted  bool
}

func newContactCurve() *ContactCurve {
	return &ContactCurve{loc: NewPointLocator(), linksDirty: true}
}

// NumPoints returns the number of curve points.
func (c *ContactCurve) NumPoints() int { return c.loc.NumPoints() }

// Point returns the coordinates of curve point id.
func (c *ContactCurve) Point(id int) Vec { return c.loc.Point(id) }

// NumSegments returns the size of the segment arena, deleted included.
func (c *ContactCurve) NumSegments() int { return len(c.segs) }

// Segment returns the endpoint ids of segment id.
func (c *ContactCurve) Segment(id int) Pair { return c.segs[id].pts }

// FaceA returns the face id on surface A that produced segment id.
func (c *ContactCurve) FaceA(id int) int { return c.segs[id].cA }

// FaceB returns the face id on surface B that produced segment id.
func (c *ContactCurve) FaceB(id int) int { return c.segs[id].cB }

// SourceA returns the captured A-vertex ids of segment id's endpoints,
// NotSet where the endpoint did not capture.
func (c *ContactCurve) SourceA(id int) [2]int { return c.segs[id].sourcesA }

// SourceB is the B-side counterpart of SourceA.
func (c *ContactCurve) SourceB(id int) [2]int { return c.segs[id].sourcesB }

// SegmentDeleted reports whether segment id has been discarded.
func (c *ContactCurve) SegmentDeleted(id int) bool { return c.segs[id].deleted }

func (c *ContactCurve) deleteSegment(id int) {
	c.segs[id].deleted = true
	c.linksDirty = true
}

func (c *ContactCurve) addSegment(s contactSeg) {
	c.segs = append(c.segs, s)
	c.linksDirty = true
}

// PointSegments returns the ids of the live segments incident to point id.
func (c *ContactCurve) PointSegments(id int) []int {
	if c.linksDirty {
		c.buildLinks()
	}
	return c.links[id]
}

func (c *ContactCurve) buildLinks() {
	c.links = make([][]int, c.loc.NumPoints())
	for i, s := range c.segs {
		if s.deleted {
			continue
		}
		c.links[s.pts.F] = append(c.links[s.pts.F], i)
		c.links[s.pts.G] = append(c.links[s.pts.G], i)
	}
	c.linksDirty = false
}

// removeDeletedSegments compacts the segment arena. Segment ids change.
func (c *ContactCurve) removeDeletedSegments() {
	out := c.segs[:0]
	for _, s := range c.segs {
		if !s.deleted {
			out = append(out, s)
		}
	}
	c.segs = out
	c.linksDirty = true
}

// liveSegments returns the number of segments not marked deleted.
func (c *ContactCurve) liveSegments() int {
	n := 0
	for _, s := range c.segs {
		if !s.deleted {
			n++
		}
	}
	return n
}

// lineEvent is one crossing of a polygon boundary with the intersection
// line of a face pair, parameterized along the line.
type lineEvent struct {
	t   float64
	pt  Vec
	src int
}

// contact intersects every candidate face pair of the two surfaces and
// assembles the contact curve.
func contact(mA, mB *Mesh) (*ContactCurve, error) {
	curve := newContactCurve()

	normalsA := faceNormals(mA)
	normalsB := faceNormals(mB)

	tree := NewFaceTree(mB)

	var cand []int
	for fA := 0; fA < mA.NumFaces(); fA++ {
		if mA.FaceDeleted(fA) {
			continue
		}
		cand = tree.Query(faceBounds(mA, mA.Face(fA)), cand[:0])

		for _, fB := range cand {
			if err := contactFacePair(curve, mA, mB, fA, fB, normalsA[fA], normalsB[fB]); err != nil {
				return nil, fmt.Errorf("%w: faces %d/%d: %v", ErrContactFailed, fA, fB, err)
			}
		}
	}

	if curve.liveSegments() == 0 {
		return nil, ErrNoContact
	}
	for i := 0; i < curve.NumPoints(); i++ {
		if len(curve.PointSegments(i)) == 1 {
			return nil, ErrLineEndDegree1
		}
	}
	return curve, nil
}

// contactFacePair intersects one face pair and adds the resulting
// segments, if any, to the curve.
func contactFacePair(curve *ContactCurve, mA, mB *Mesh, fA, fB int, nA, nB Vec) error {
	dir := nA.Cross(nB)
	if dir.Norm() < 1e-9 {
		// Coplanar or parallel supporting planes produce no transversal
		// intersection line.
		return nil
	}
	dir = dir.Normalize()

	pA := mA.Point(mA.Face(fA)[0])
	pB := mB.Point(mB.Face(fB)[0])
	dA := nA.Dot(pA)
	dB := nB.Dot(pB)

	// A point on the intersection line of the two planes.
	nn := nA.Dot(nB)
	den := 1 - nn*nn
	a := (dA - dB*nn) / den
	b := (dB - dA*nn) / den
	origin := nA.Mul(a).Add(nB.Mul(b))

	ivA := polyLineIntervals(mA, fA, nA, nB, dB, origin, dir)
	ivB := polyLineIntervals(mB, fB, nB, nA, dA, origin, dir)

	for _, ia := range ivA {
		for _, ib := range ivB {
			lo, loA, loB := maxEvent(ia[0], ib[0])
			hi, hiA, hiB := minEvent(ia[1], ib[1])
			if hi.t-lo.t < linTol {
				continue
			}

			seg := contactSeg{
				cA:       fA,
				cB:       fB,
				sourcesA: [2]int{NotSet, NotSet},
				sourcesB: [2]int{NotSet, NotSet},
			}
			if loA != nil {
				seg.sourcesA[0] = loA.src
			}
			if loB != nil {
				seg.sourcesB[0] = loB.src
			}
			if hiA != nil {
				seg.sourcesA[1] = hiA.src
			}
			if hiB != nil {
				seg.sourcesB[1] = hiB.src
			}

			// An endpoint near an existing vertex captures to it even when
			// it was produced by an edge crossing.
			if seg.sourcesA[0] == NotSet {
				seg.sourcesA[0] = nearVertex(mA, fA, lo.pt)
			}
			if seg.sourcesA[1] == NotSet {
				seg.sourcesA[1] = nearVertex(mA, fA, hi.pt)
			}
			if seg.sourcesB[0] == NotSet {
				seg.sourcesB[0] = nearVertex(mB, fB, lo.pt)
			}
			if seg.sourcesB[1] == NotSet {
				seg.sourcesB[1] = nearVertex(mB, fB, hi.pt)
			}

			f := curve.loc.Merge(lo.pt)
			g := curve.loc.Merge(hi.pt)
			if f == g {
				continue
			}
			seg.pts = Pair{f, g}
			curve.addSegment(seg)
		}
	}
	return nil
}

// polyLineIntervals computes the inside intervals of face f along the
// intersection line (origin, dir) with the plane (nOther, dOther).
// Each interval is a pair of boundary events.
func polyLineIntervals(m *Mesh, f int, n, nOther Vec, dOther float64, origin, dir Vec) [][2]lineEvent {
	face := m.Face(f)

	pts := newSOA(len(face))
	for _, id := range face {
		pts.push(m.Point(id))
	}
	dist := make([]float64, len(face))
	planeDistances(nOther, nOther.Mul(dOther), pts, dist)

	var events []lineEvent

	for i, id := range face {
		j := (i + 1) % len(face)
		vi := m.Point(id)
		vj := m.Point(face[j])

		if math.Abs(dist[i]) < linTol {
			events = append(events, lineEvent{t: dir.Dot(vi.Sub(origin)), pt: vi, src: id})
			continue
		}
		if math.Abs(dist[j]) < linTol {
			// The j vertex emits its own event in its own iteration.
			continue
		}
		if (dist[i] > 0) == (dist[j] > 0) {
			continue
		}
		w := vi.Add(vj.Sub(vi).Mul(dist[i] / (dist[i] - dist[j])))
		events = append(events, lineEvent{t: dir.Dot(w.Sub(origin)), pt: w, src: NotSet})
	}

	if len(events) < 2 {
		return nil
	}

	sort.Slice(events, func(i, j int) bool { return events[i].t < events[j].t })

	// Merge events that collapsed to the same position on the line.
	merged := events[:1]
	for _, ev := range events[1:] {
		last := &merged[len(merged)-1]
		if ev.t-last.t < linTol {
			if last.src == NotSet {
				last.src = ev.src
			}
			continue
		}
		merged = append(merged, ev)
	}
	events = merged

	// A midpoint between consecutive events that falls inside the face
	// spans an inside interval.
	base := NewBase(m.Point(face[0]), m.Point(face[1]), n)
	poly2 := projectPoints(m, face, base)

	var ivs [][2]lineEvent
	for i := 0; i+1 < len(events); i++ {
		mid := origin.Add(dir.Mul((events[i].t + events[i+1].t) / 2))
		if pointInPoly2(poly2, base.Project(mid)) {
			ivs = append(ivs, [2]lineEvent{events[i], events[i+1]})
		}
	}
	return ivs
}

// nearVertex returns the id of a face vertex within the coincidence
// tolerance of p, or NotSet.
func nearVertex(m *Mesh, f int, p Vec) int {
	for _, id := range m.Face(f) {
		if m.Point(id).Coincident(p) {
			return id
		}
	}
	return NotSet
}

// maxEvent picks the later of two interval starts. It returns the event
// and which side(s) realized it within tolerance.
func maxEvent(a, b lineEvent) (ev lineEvent, evA, evB *lineEvent) {
	switch {
	case a.t > b.t+linTol:
		return a, &a, nil
	case b.t > a.t+linTol:
		return b, nil, &b
	default:
		return a, &a, &b
	}
}

// minEvent picks the earlier of two interval ends.
func minEvent(a, b lineEvent) (ev lineEvent, evA, evB *lineEvent) {
	switch {
	case a.t < b.t-linTol:
		return a, &a, nil
	case b.t < a.t-linTol:
		return b, nil, &b
	default:
		return a, &a, &b
	}
}
