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
	"sort"
)

// capt classifies how a strip point attaches to its face. The values
// form a bitmask so boundary captures can be tested in one operation.
type capt uint8

const (
	captNot      capt = 0
	captEdge     capt = 1
	captA        capt = 2
	captB        capt = 4
	captBranched capt = 8

	// captBoundary matches points attached to the face boundary, on an
	// edge interior or at either of its endpoints.
	captBoundary = captEdge | captA | captB
)

func (c capt) boundary() bool { return c&captBoundary != 0 }

// side marks which end of a strip a boundary reference belongs to.
type side uint8

const (
	sideNone side = iota
	sideStart
	sideEnd
)

// stripPt is a contact-curve point as seen from one face.
type stripPt struct {
	ind    int // id in the contact curve
	pt     Vec // original contact coordinate
	edge   Pair
	t      float64
	captPt Vec // snapped coordinate when captured
	cutPt  Vec // coordinate used for cutting
	capt   capt
	polyID int
	caught bool
}

// stripPtR is one occurrence of a strip point within a strip. All
// occurrences live in the per-face arena; strips reference them by
// index.
type stripPtR struct {
	ind   int
	strip int
	side  side
	ref   int
	desc  [2]int
}

// pStrips holds the strips of one cut face.
type pStrips struct {
	poly []int
	base Base
	n    Vec

	pts map[int]*stripPt

	refs   []stripPtR
	strips [][]int
}

func (ps *pStrips) newRef(ind, strip int) int {
	ps.refs = append(ps.refs, stripPtR{
		ind:   ind,
		strip: strip,
		side:  sideNone,
		ref:   NotSet,
		desc:  [2]int{NotSet, NotSet},
	})
	return len(ps.refs) - 1
}

// cloneRef duplicates an arena entry for a repeated occurrence.
func (ps *pStrips) cloneRef(idx int) int {
	ps.refs = append(ps.refs, ps.refs[idx])
	return len(ps.refs) - 1
}

func nextInPoly(poly []int, id int) int {
	for i, p := range poly {
		if p == id {
			return poly[(i+1)%len(poly)]
		}
	}
	return NotSet
}

// getPolyStrips classifies every contact point against its face and
// chains the face's contact segments into strips, for one surface.
// useA selects which side of the curve's bookkeeping applies.
func getPolyStrips(m *Mesh, curve *ContactCurve, useA bool) (map[int]*pStrips, error) {
	faceOf := curve.FaceA
	sourceOf := curve.SourceA
	if !useA {
		faceOf = curve.FaceB
		sourceOf = curve.SourceB
	}

	polyLines := make(map[int][]int)
	var order []int
	for i := 0; i < curve.NumSegments(); i++ {
		if curve.SegmentDeleted(i) {
			continue
		}
		f := faceOf(i)
		if _, ok := polyLines[f]; !ok {
			order = append(order, f)
		}
		polyLines[f] = append(polyLines[f], i)
	}
	sort.Ints(order)

	polyStrips := make(map[int]*pStrips, len(polyLines))

	var notCaught []*stripPt

	for _, f := range order {
		lines := removeDuplicates(curve, polyLines[f])
		polyLines[f] = lines

		face := m.Face(f)
		var facePts []Vec
		for _, id := range face {
			facePts = append(facePts, m.Point(id))
		}
		n := newellNormal(facePts)

		ps := &pStrips{
			poly: append([]int(nil), face...),
			base: NewBase(facePts[0], facePts[1], n),
			n:    n,
			pts:  make(map[int]*stripPt),
		}
		polyStrips[f] = ps

		getStripPoints(m, curve, sourceOf, ps, lines)

		for _, sp := range ps.pts {
			sp.polyID = f
			if !sp.caught {
				notCaught = append(notCaught, sp)
			}
		}
	}

	// Cross-face recovery: a vertex-sourced point that found no edge on
	// its face takes the capture another face established for the same
	// contact point.
	for _, sp := range notCaught {
		for _, f := range order {
			corr, ok := polyStrips[f].pts[sp.ind]
			if !ok || corr == sp || corr.capt != captA {
				continue
			}
			sp.capt = captA
			sp.edge.F = corr.edge.F
			sp.edge.G = nextInPoly(polyStrips[sp.polyID].poly, sp.edge.F)
			sp.t = 0
			sp.captPt = corr.captPt
			sp.cutPt = sp.captPt
			sp.caught = true
			break
		}
		if !sp.caught {
			return nil, fmt.Errorf("%w: point %d not caught on face %d", ErrContactFailed, sp.ind, sp.polyID)
		}
	}

	// Two distinct contact points must never snap to the same coordinate
	// on one face.
	for _, f := range order {
		ps := polyStrips[f]
		var bpts []*stripPt
		for _, sp := range ps.pts {
			if sp.capt.boundary() {
				bpts = append(bpts, sp)
			}
		}
		for i := 0; i < len(bpts); i++ {
			for j := i + 1; j < len(bpts); j++ {
				if bpts[i].ind != bpts[j].ind && bpts[i].cutPt.Coincident(bpts[j].cutPt) {
					return nil, fmt.Errorf("%w: points %d and %d on face %d", ErrCollapsedCutPoints, bpts[i].ind, bpts[j].ind, f)
				}
			}
		}
	}

	for _, f := range order {
		assembleStrips(curve, polyStrips[f], polyLines[f])
		completeStrips(polyStrips[f])
	}

	for _, f := range order {
		if stripsCross(polyStrips[f]) {
			return nil, fmt.Errorf("%w: face %d", ErrStripsCross, f)
		}
	}

	return polyStrips, nil
}

// getStripPoints classifies the contact points touching one face
// against the face's directed edges.
func getStripPoints(m *Mesh, curve *ContactCurve, sourceOf func(int) [2]int, ps *pStrips, lines []int) {
	allPts := make(map[int]int)
	links := make(map[int]int)

	for _, lineID := range lines {
		seg := curve.Segment(lineID)
		src := sourceOf(lineID)

		if _, ok := allPts[seg.F]; !ok {
			allPts[seg.F] = src[0]
		}
		if _, ok := allPts[seg.G]; !ok {
			allPts[seg.G] = src[1]
		}
		links[seg.F]++
		links[seg.G]++
	}

	inds := make([]int, 0, len(allPts))
	for ind := range allPts {
		inds = append(inds, ind)
	}
	sort.Ints(inds)

	for _, ind := range inds {
		src := allPts[ind]

		sp := &stripPt{
			ind:    ind,
			pt:     curve.Point(ind),
			edge:   Pair{NotSet, NotSet},
			caught: true,
		}

		for i, a := range ps.poly {
			b := ps.poly[(i+1)%len(ps.poly)]

			if src != NotSet && a != src {
				continue
			}

			pa := m.Point(a)
			pb := m.Point(b)

			u := pb.Sub(pa)
			n := u.Norm()

			v := sp.pt.Sub(pa)
			t := v.Dot(u) / (n * n)
			d := v.Cross(u).Norm() / n

			if d < linTol && t > -parTol && t < 1+parTol {
				sp.edge = Pair{a, b}
				sp.t = clamp01(t)

				switch {
				case pa.Sub(sp.pt).Norm() < linTol:
					sp.captPt = pa
					sp.capt = captA
				case pb.Sub(sp.pt).Norm() < linTol:
					sp.captPt = pb
					sp.capt = captB
				default:
					sp.captPt = pa.Add(u.Mul(t))
					sp.capt = captEdge
				}
			}
		}

		if src != NotSet && sp.edge.F == NotSet {
			sp.caught = false
		}
		if sp.capt == captNot && links[ind] > 2 {
			sp.capt = captBranched
		}

		ps.pts[ind] = sp
	}

	// Boundary normalization: captures at an edge's far endpoint move to
	// the start of the next edge, so every boundary point carries the
	// edge it begins.
	for _, sp := range ps.pts {
		if sp.capt.boundary() {
			if sp.capt == captB {
				sp.t = 0
				sp.edge.F = sp.edge.G
				sp.edge.G = nextInPoly(ps.poly, sp.edge.F)
				sp.capt = captA
			}
			sp.cutPt = sp.captPt
		} else {
			sp.cutPt = sp.pt
		}
	}
}

func clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

// removeDuplicates drops segments whose endpoint pair repeats among the
// face's segments, in either orientation.
func removeDuplicates(curve *ContactCurve, lines []int) []int {
	var kept []int
	for _, id := range lines {
		seg := curve.Segment(id)
		dup := false
		for _, k := range kept {
			s := curve.Segment(k)
			if (s.F == seg.F && s.G == seg.G) || (s.F == seg.G && s.G == seg.F) {
				dup = true
				break
			}
		}
		if !dup {
			kept = append(kept, id)
		}
	}
	return kept
}

// assembleStrips chains the face's segments into strips: seed with any
// segment, then repeatedly extend the right end and the left end through
// interior points.
func assembleStrips(curve *ContactCurve, ps *pStrips, lines []int) {
	type seg struct{ f, g int }
	var rest []seg
	for _, id := range lines {
		s := curve.Segment(id)
		rest = append(rest, seg{s.F, s.G})
	}

	takeAt := func(i int) {
		rest = append(rest[:i], rest[i+1:]...)
	}

	stripID := 0
	for len(rest) > 0 {
		last := rest[len(rest)-1]
		rest = rest[:len(rest)-1]

		strip := []int{ps.newRef(last.f, stripID), ps.newRef(last.g, stripID)}

		for {
			right := ps.refs[strip[len(strip)-1]].ind
			if ps.pts[right].capt != captNot {
				break
			}
			found := false
			for i, s := range rest {
				if s.f == right {
					strip = append(strip, ps.newRef(s.g, stripID))
					takeAt(i)
					found = true
					break
				} else if s.g == right {
					strip = append(strip, ps.newRef(s.f, stripID))
					takeAt(i)
					found = true
					break
				}
			}
			if !found {
				break
			}
		}

		for {
			left := ps.refs[strip[0]].ind
			if ps.pts[left].capt != captNot {
				break
			}
			found := false
			for i, s := range rest {
				if s.f == left {
					strip = append([]int{ps.newRef(s.g, stripID)}, strip...)
					takeAt(i)
					found = true
					break
				} else if s.g == left {
					strip = append([]int{ps.newRef(s.f, stripID)}, strip...)
					takeAt(i)
					found = true
					break
				}
			}
			if !found {
				break
			}
		}

		ps.strips = append(ps.strips, strip)
		stripID++
	}
}

// completeStrips closes any strip with one interior end by walking its
// body back, so the cut can pass through the interior point and return.
func completeStrips(ps *pStrips) {
	for si, strip := range ps.strips {
		start := ps.pts[ps.refs[strip[0]].ind]
		end := ps.pts[ps.refs[strip[len(strip)-1]].ind]

		if start.ind == end.ind {
			continue
		}
		if start.capt == captNot {
			// Prepend the reversed body, excluding the current front.
			var pre []int
			for i := len(strip) - 1; i >= 1; i-- {
				pre = append(pre, ps.cloneRef(strip[i]))
			}
			ps.strips[si] = append(pre, strip...)
		} else if end.capt == captNot {
			// Append the reversed body, excluding the current back.
			ext := strip
			for i := len(strip) - 2; i >= 0; i-- {
				ext = append(ext, ps.cloneRef(strip[i]))
			}
			ps.strips[si] = ext
		}
	}
}

// hasArea reports whether a strip encloses area: a palindromic vertex
// sequence has none.
func hasArea(ps *pStrips, strip []int) bool {
	area := true
	n := len(strip)
	if n%2 == 1 {
		for i := 0; i < (n-1)/2; i++ {
			area = ps.refs[strip[i]].ind != ps.refs[strip[n-i-1]].ind
		}
	}
	return area
}

// stripsCross projects all strip segments of a face into the face plane
// and reports whether any two non-adjacent segments intersect.
func stripsCross(ps *pStrips) bool {
	inds := sortedPtKeys(ps)
	coords := make([]Vec, len(inds))
	for i, ind := range inds {
		coords[i] = ps.pts[ind].pt
	}
	projs := projectCoords(ps.base, coords)

	proj := make(map[int][2]float64, len(inds))
	for i, ind := range inds {
		proj[ind] = projs[i]
	}

	var idx segIndex
	for _, strip := range ps.strips {
		for i := 0; i+1 < len(strip); i++ {
			a := ps.refs[strip[i]].ind
			b := ps.refs[strip[i+1]].ind
			idx.add(proj[a], proj[b], a, b)
		}
	}
	return idx.anyCross()
}

// cleanStrips discards closed zero-area strips whose ends are interior,
// removes every strip touching their points from both surfaces, and
// deletes the matching contact segments.
func cleanStrips(curve *ContactCurve, psA, psB map[int]*pStrips) error {
	bad := make(map[int]bool)

	findHoles := func(polyStrips map[int]*pStrips) {
		for _, ps := range polyStrips {
			var kept [][]int
			for _, strip := range ps.strips {
				front := ps.pts[ps.refs[strip[0]].ind]
				back := ps.pts[ps.refs[strip[len(strip)-1]].ind]

				if front.capt == captNot && back.capt == captNot && !hasArea(ps, strip) {
					for _, r := range strip {
						bad[ps.refs[r].ind] = true
					}
					continue
				}
				kept = append(kept, strip)
			}
			ps.strips = kept
		}
	}

	findHoles(psA)
	findHoles(psB)

	cleanOther := func(polyStrips map[int]*pStrips) {
		for _, ps := range polyStrips {
			var kept [][]int
			for _, strip := range ps.strips {
				touches := false
				for _, r := range strip {
					if bad[ps.refs[r].ind] {
						touches = true
						break
					}
				}
				if !touches {
					kept = append(kept, strip)
				}
			}
			ps.strips = kept
		}
	}

	cleanOther(psA)
	cleanOther(psB)

	for ind := range bad {
		for _, segID := range append([]int(nil), curve.PointSegments(ind)...) {
			curve.deleteSegment(segID)
		}
	}

	if curve.liveSegments() == 0 {
		return ErrNoContact
	}
	return nil
}
