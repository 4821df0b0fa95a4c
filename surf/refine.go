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

// restoreOrigPoints snaps the coordinates of points that were captured
// to a host edge or vertex back to the contact point's original
// coordinate. The snapping was needed for accurate cutting but must not
// pull the surface's own vertices.
func restoreOrigPoints(m *Mesh, polyStrips map[int]*pStrips) {
	loc := NewMeshPointLocator(m)

	for _, f := range sortedKeys(polyStrips) {
		for _, ind := range sortedPtKeys(polyStrips[f]) {
			sp := polyStrips[f].pts[ind]
			if !sp.capt.boundary() {
				continue
			}
			for _, id := range loc.FindPoints(sp.cutPt) {
				m.SetPoint(id, sp.pt)
			}
		}
	}
}

// overlapRef couples a strip point with the face table it belongs to.
type overlapRef struct {
	ps *pStrips
	sp *stripPt
}

// resolveOverlaps breaks the accidental vertex identification that
// arises when two strips capture the same face vertex from its two
// adjacent edges: the shared boundary vertex is split by giving one of
// the incident faces a fresh point.
func resolveOverlaps(m *Mesh, curve *ContactCurve, polyStrips map[int]*pStrips) {
	byInd := make(map[int][]overlapRef)
	var inds []int

	for _, f := range sortedKeys(polyStrips) {
		ps := polyStrips[f]
		for _, ind := range sortedPtKeys(ps) {
			sp := ps.pts[ind]
			if sp.capt == captEdge {
				if _, ok := byInd[sp.ind]; !ok {
					inds = append(inds, sp.ind)
				}
				byInd[sp.ind] = append(byInd[sp.ind], overlapRef{ps, sp})
			}
		}
	}
	sort.Ints(inds)

	for _, ind := range inds {
		pairs := byInd[ind]
		if len(pairs) != 2 {
			continue
		}
		pairA, pairB := pairs[0], pairs[1]
		if pairA.sp.edge.G != pairB.sp.edge.F {
			pairA, pairB = pairB, pairA
		}
		edgeA := pairA.sp.edge
		edgeB := pairB.sp.edge

		if edgeA.G != edgeB.F || edgeA.F == edgeB.G {
			continue
		}

		// The strip tails surrounding the shared vertex.
		var onA, onB []*stripPt
		for _, k := range sortedPtKeys(pairA.ps) {
			sp := pairA.ps.pts[k]
			if sp.edge == edgeA {
				onA = append(onA, sp)
			}
		}
		for _, k := range sortedPtKeys(pairB.ps) {
			sp := pairB.ps.pts[k]
			if sp.edge == edgeB {
				onB = append(onB, sp)
			}
		}
		sort.SliceStable(onA, func(i, j int) bool { return onA[i].t < onA[j].t })
		sort.SliceStable(onB, func(i, j int) bool { return onB[i].t < onB[j].t })

		onA = onA[:len(onA)-1]
		if len(onB) > 0 {
			onB = onB[1:]
		}

		var a, b Vec
		if len(onA) == 0 {
			a = m.Point(edgeA.F)
		} else {
			a = onA[len(onA)-1].pt
		}
		if len(onB) == 0 {
			b = m.Point(edgeB.G)
		} else {
			b = onB[0].pt
		}

		// Pick the neighboring face that holds both surrounding
		// coordinates and re-point the shared vertex there.
		for _, cell := range append([]int(nil), m.PointFaces(edgeA.G)...) {
			hasA, hasB := false, false
			for _, id := range m.Face(cell) {
				p := m.Point(id)
				if p == a {
					hasA = true
				}
				if p == b {
					hasB = true
				}
			}
			if hasA && hasB {
				fresh := m.AddPoint(curve.Point(ind))
				m.ReplaceFacePoint(cell, edgeA.G, fresh)
				break
			}
		}
	}
}

// addAdjacentPoints inserts captured points lying on a face edge into
// the neighboring face's vertex list, so the cut does not leave
// T-junctions. Runs of captured points subdivided by another contact
// line are split at the junction.
func addAdjacentPoints(m *Mesh, curve *ContactCurve, faceOf func(int) int, polyStrips map[int]*pStrips) {
	loc := NewMeshPointLocator(m)

	for _, f := range sortedKeys(polyStrips) {
		ps := polyStrips[f]

		edgePts := make(map[Pair][]*stripPt)
		var edgeOrder []Pair
		for _, ind := range sortedPtKeys(ps) {
			sp := ps.pts[ind]
			if sp.capt == captEdge {
				if _, ok := edgePts[sp.edge]; !ok {
					edgeOrder = append(edgeOrder, sp.edge)
				}
				edgePts[sp.edge] = append(edgePts[sp.edge], sp)
			}
		}

		for _, edge := range edgeOrder {
			run := append([]*stripPt(nil), edgePts[edge]...)
			run = append(run,
				&stripPt{ind: NotSet, pt: m.Point(edge.F), t: 0},
				&stripPt{ind: NotSet, pt: m.Point(edge.G), t: 1},
			)
			// Walk from the edge's far end back to its start; the
			// neighbor face traverses the edge reversed.
			sort.SliceStable(run, func(i, j int) bool { return run[i].t > run[j].t })

			ia := 0
			for ia < len(run)-1 {
				ib := ia + 1
				for ib < len(run)-1 {
					involved := make(map[int]bool)
					for _, segID := range curve.PointSegments(run[ib].ind) {
						involved[faceOf(segID)] = true
					}
					if len(involved) > 1 {
						break
					}
					ib++
				}

				if ia+1 != ib {
					insertAdjacentRun(m, loc, run, ia, ib)
				}
				ia = ib
			}
		}
	}

	m.RemoveDeletedFaces()
}

func insertAdjacentRun(m *Mesh, loc *PointLocator, run []*stripPt, ia, ib int) {
	ptsA := loc.FindPoints(run[ia].pt)
	ptsB := loc.FindPoints(run[ib].pt)

	var polysA, polysB []Pair
	for _, id := range ptsA {
		for _, cell := range m.PointFaces(id) {
			polysA = append(polysA, Pair{cell, id})
		}
	}
	for _, id := range ptsB {
		for _, cell := range m.PointFaces(id) {
			polysB = append(polysB, Pair{cell, id})
		}
	}

	for _, pa := range polysA {
		for _, pb := range polysB {
			if pa.F != pb.F || m.FaceDeleted(pa.F) {
				continue
			}
			face := m.Face(pa.F)

			var newFace []int
			matched := false
			for i, idA := range face {
				newFace = append(newFace, idA)
				idB := face[(i+1)%len(face)]
				if pa.G == idA && pb.G == idB {
					matched = true
					for k := ia + 1; k < ib; k++ {
						newFace = append(newFace, m.AddPoint(run[k].pt))
					}
				}
			}
			if !matched {
				continue
			}

			orig := m.OrigCellIds[pa.F]
			m.DeleteFace(pa.F)
			m.AddFace(newFace, orig)
			return
		}
	}
}

// disjoinPolys splits every vertex-captured point that is shared by
// several faces, so regions can separate along the intersection curve.
func disjoinPolys(m *Mesh, polyStrips map[int]*pStrips) {
	loc := NewMeshPointLocator(m)

	seen := make(map[int]bool)
	var ends []*stripPt
	for _, f := range sortedKeys(polyStrips) {
		ps := polyStrips[f]
		for _, ind := range sortedPtKeys(ps) {
			sp := ps.pts[ind]
			if sp.capt == captA && !seen[sp.ind] {
				seen[sp.ind] = true
				ends = append(ends, sp)
			}
		}
	}
	sort.Slice(ends, func(i, j int) bool { return ends[i].ind < ends[j].ind })

	for _, sp := range ends {
		for _, id := range loc.FindPoints(sp.pt) {
			cells := append([]int(nil), m.PointFaces(id)...)
			if len(cells) < 2 {
				continue
			}
			for _, cell := range cells {
				m.ReplaceFacePoint(cell, id, m.AddPoint(sp.pt))
			}
		}
	}
}

// mergePoints collapses the vertices split by disjoinPolys that end up
// on the same side of the cut: points around a strip end whose
// neighboring face vertices coincide are rewritten to one
// representative.
func mergePoints(m *Mesh, curve *ContactCurve, polyStrips map[int]*pStrips) {
	loc := NewMeshPointLocator(m)

	neigh := make(map[int]map[int]bool)
	addNeigh := func(ind int, pt Vec) {
		if neigh[ind] == nil {
			neigh[ind] = make(map[int]bool)
		}
		for _, id := range loc.FindPoints(pt) {
			neigh[ind][id] = true
		}
	}

	for _, f := range sortedKeys(polyStrips) {
		ps := polyStrips[f]
		for _, strip := range ps.strips {
			if len(strip) < 2 {
				continue
			}
			spA := ps.refs[strip[0]]
			spB := ps.refs[strip[len(strip)-1]]

			beforeA := ps.pts[ps.refs[strip[1]].ind]
			beforeB := ps.pts[ps.refs[strip[len(strip)-2]].ind]

			addNeigh(spA.ind, beforeA.pt)
			addNeigh(spB.ind, beforeB.pt)
		}
	}

	var inds []int
	for ind := range neigh {
		inds = append(inds, ind)
	}
	sort.Ints(inds)

	for _, ind := range inds {
		exclude := neigh[ind]

		pairs := make(map[Vec][]Pair)
		for _, id := range loc.FindPoints(curve.Point(ind)) {
			cells := m.PointFaces(id)
			if len(cells) == 0 {
				continue
			}
			cell := cells[0]
			face := m.Face(cell)

			j := indexOf(face, id)
			before := face[(j-1+len(face))%len(face)]
			after := face[(j+1)%len(face)]

			if !exclude[before] {
				pairs[m.Point(before)] = append(pairs[m.Point(before)], Pair{cell, id})
			}
			if !exclude[after] {
				pairs[m.Point(after)] = append(pairs[m.Point(after)], Pair{cell, id})
			}
		}

		var links [][2]Pair
		var coords []Vec
		for c := range pairs {
			coords = append(coords, c)
		}
		sort.Slice(coords, func(i, j int) bool {
			a, b := coords[i], coords[j]
			if a.X != b.X {
				return a.X < b.X
			}
			if a.Y != b.Y {
				return a.Y < b.Y
			}
			return a.Z < b.Z
		})
		for _, c := range coords {
			p := pairs[c]
			if len(p) == 2 {
				links = append(links, [2]Pair{p[0], p[1]})
			}
		}

		// Chain the two-ended links into connected groups and collapse
		// each group onto its first point.
		var group []Pair
		for len(links) > 0 {
			if group == nil {
				group = []Pair{links[0][0], links[0][1]}
				links = links[1:]
			}

			extended := true
			for extended {
				extended = false
				for i, l := range links {
					switch {
					case l[0] == group[0]:
						group = append([]Pair{l[1]}, group...)
					case l[0] == group[len(group)-1]:
						group = append(group, l[1])
					case l[1] == group[0]:
						group = append([]Pair{l[0]}, group...)
					case l[1] == group[len(group)-1]:
						group = append(group, l[0])
					default:
						continue
					}
					links = append(links[:i], links[i+1:]...)
					extended = true
					break
				}
			}

			for _, p := range group[1:] {
				m.ReplaceFacePoint(p.F, p.G, group[0].G)
			}
			group = nil
		}
	}
}

func sortedKeys(m map[int]*pStrips) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func sortedPtKeys(ps *pStrips) []int {
	keys := make([]int, 0, len(ps.pts))
	for k := range ps.pts {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
