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

// cutCells replaces every face that carries strips with the sub-faces
// the strips induce. Each strip vertex gets a descendant point pair, one
// per side of the cut; the descendants start coincident and are pulled
// apart by the later stages.
func cutCells(m *Mesh, polyStrips map[int]*pStrips) error {
	var faces []int
	for f := range polyStrips {
		faces = append(faces, f)
	}
	sort.Ints(faces)

	for _, polyInd := range faces {
		ps := polyStrips[polyInd]
		origID := m.OrigCellIds[polyInd]

		if err := cutCell(m, polyInd, ps, origID); err != nil {
			return err
		}
	}

	m.RemoveDeletedFaces()
	return nil
}

func stripID(ps *pStrips, strip []int) int { return ps.refs[strip[0]].strip }

func cutCell(m *Mesh, polyInd int, ps *pStrips, origID int) error {
	poly := ps.poly
	pts := ps.pts

	// A face whose strip points all sit on its own vertices needs no
	// real cut; it is replaced by itself on duplicated points.
	allBoundary := true
	for _, sp := range pts {
		if sp.capt&(captA|captB) == 0 {
			allBoundary = false
			break
		}
	}
	if allBoundary {
		ptsA := make(map[Vec]bool, len(poly))
		for _, id := range poly {
			ptsA[m.Point(id)] = true
		}
		ptsB := make(map[Vec]bool, len(pts))
		for _, sp := range pts {
			ptsB[sp.cutPt] = true
		}
		if setEqual(ptsA, ptsB) {
			face := make([]int, len(poly))
			for i, id := range poly {
				face[i] = m.AddPoint(m.Point(id))
			}
			m.AddFace(face, origID)
			m.DeleteFace(polyInd)
			return nil
		}
	}

	// Absolute parameter of every face vertex, the tie-breaker for
	// captures on different edges.
	absT := make(map[int]float64, len(poly))
	total := 0.0
	for _, id := range poly {
		absT[id] = total
		total++
	}

	for _, strip := range ps.strips {
		if pts[ps.refs[strip[0]].ind].capt == captBranched &&
			pts[ps.refs[strip[len(strip)-1]].ind].capt == captBranched {
			return fmt.Errorf("%w: face %d", ErrBranchedOnBothEnds, polyInd)
		}
	}

	// Holes are closed interior strips; they are spliced back in at the
	// end by the merger.
	var holes, strips [][]int
	for _, strip := range ps.strips {
		front := pts[ps.refs[strip[0]].ind]
		back := pts[ps.refs[strip[len(strip)-1]].ind]
		if front.capt == captNot && back.capt == captNot {
			holes = append(holes, strip)
		} else {
			strips = append(strips, strip)
		}
	}
	ps.strips = strips

	stripsM := make(map[int][]int, len(strips))
	for _, strip := range strips {
		stripsM[stripID(ps, strip)] = strip
	}

	for _, strip := range strips {
		front := pts[ps.refs[strip[0]].ind]
		back := pts[ps.refs[strip[len(strip)-1]].ind]

		// Both ends on the same edge: the smaller parameter leads.
		if front.edge.F == back.edge.F && front.ind != back.ind && front.t > back.t {
			reverseStrip(strip)
		}
		// A branched strip starts at its boundary end.
		front = pts[ps.refs[strip[0]].ind]
		back = pts[ps.refs[strip[len(strip)-1]].ind]
		if front.capt == captBranched && back.capt.boundary() {
			reverseStrip(strip)
		}

		start := pts[ps.refs[strip[0]].ind]
		end := pts[ps.refs[strip[len(strip)-1]].ind]

		ps.refs[strip[0]].side = sideStart
		ps.refs[strip[0]].ref = start.edge.F

		if end.capt.boundary() {
			ps.refs[strip[len(strip)-1]].side = sideEnd
			ps.refs[strip[len(strip)-1]].ref = end.edge.F
		}

		for _, r := range strip {
			sp := pts[ps.refs[r].ind]
			ps.refs[r].desc[0] = m.AddPoint(sp.cutPt)
			ps.refs[r].desc[1] = m.AddPoint(sp.cutPt)
		}
	}

	polys := [][]int{append([]int(nil), poly...)}

	// Branched strips first, grouped by their interior endpoint.
	groups := make(map[int][][]int)
	var groupKeys []int
	for _, strip := range strips {
		back := pts[ps.refs[strip[len(strip)-1]].ind]
		if back.capt == captBranched {
			if _, ok := groups[back.ind]; !ok {
				groupKeys = append(groupKeys, back.ind)
			}
			groups[back.ind] = append(groups[back.ind], strip)
		}
	}
	sort.Ints(groupKeys)

	assembled := make(map[int]bool)

	for _, key := range groupKeys {
		group := groups[key]

		sort.SliceStable(group, func(i, j int) bool {
			a, b := group[i], group[j]
			if ps.refs[a[0]].ind == ps.refs[b[0]].ind {
				var seq []int
				seq = append(seq, b...)
				for k := len(a) - 1; k >= 0; k-- {
					seq = append(seq, a[k])
				}
				n := refNormal(ps, seq)
				return ps.n.Dot(n) > .999999
			}
			pA := pts[ps.refs[a[0]].ind]
			pB := pts[ps.refs[b[0]].ind]
			return absT[pA.edge.F]+pA.t < absT[pB.edge.F]+pB.t
		})

		// Locate the working polygon that holds the group's anchor.
		next := -1
		for i, p := range polys {
			if containsID(p, ps.refs[group[0][0]].ref) {
				next = i
				break
			}
		}
		if next < 0 {
			return fmt.Errorf("%w: face %d: branched anchor not found", ErrCutFailed, polyInd)
		}
		work := polys[next]

		for _, s := range group {
			assembled[stripID(ps, s)] = true
		}

		var newPolys [][]int

		for i := range group {
			stripA := group[i]
			stripB := group[(i+1)%len(group)]

			var newPoly []int
			for _, r := range stripB {
				newPoly = append(newPoly, ps.refs[r].desc[0])
			}
			for k := len(stripA) - 2; k >= 0; k-- {
				newPoly = append(newPoly, ps.refs[stripA[k]].desc[1])
			}

			refA := ps.refs[stripA[0]].ref
			refB := ps.refs[stripB[0]].ref

			if refA != refB {
				posA := indexOf(work, refA)
				posB := indexOf(work, refB)
				for {
					posA = (posA + 1) % len(work)
					newPoly = append(newPoly, work[posA])
					if posA == posB {
						break
					}
				}
			}

			newPoly = cleanPoly(m, newPoly)

			poly2 := projectPoints(m, newPoly, ps.base)

			pA := pts[ps.refs[stripA[0]].ind]
			pB := pts[ps.refs[stripB[0]].ind]

			for _, s := range strips {
				if assembled[stripID(ps, s)] {
					continue
				}

				sFront := &ps.refs[s[0]]
				sBack := &ps.refs[s[len(s)-1]]
				endA := pts[sFront.ind]
				endB := pts[sBack.ind]

				if endA.capt.boundary() &&
					pA.edge.F == endA.edge.F && endA.t > pA.t &&
					(pA.edge.F != pB.edge.F || endA.t < pB.t) {
					sFront.ref = ps.refs[stripA[0]].desc[1]

					if endB.ind == pA.ind {
						sBack.ref = ps.refs[stripA[0]].desc[1]
					} else if endB.ind == pB.ind {
						sBack.ref = ps.refs[stripB[0]].desc[0]
					}
				}

				if endB.capt.boundary() &&
					pA.edge.F == endB.edge.F && endB.t > pA.t &&
					(pA.edge.F != pB.edge.F || endB.t < pB.t) {
					sBack.ref = ps.refs[stripA[0]].desc[1]

					if endA.ind == pA.ind {
						sFront.ref = ps.refs[stripA[0]].desc[1]
					} else if endA.ind == pB.ind {
						sFront.ref = ps.refs[stripB[0]].desc[0]
					}
				}

				if endA.ind == pA.ind && endB.ind == pB.ind {
					sFront.ref = ps.refs[stripA[0]].desc[1]
					sBack.ref = ps.refs[stripB[0]].desc[0]
				} else if endB.ind == pA.ind && endA.ind == pB.ind {
					sBack.ref = ps.refs[stripA[0]].desc[1]
					sFront.ref = ps.refs[stripB[0]].desc[0]
				}

				if endB.capt == captBranched {
					if pointInPoly2(poly2, ps.base.Project(endB.pt)) {
						if endA.ind == pA.ind {
							sFront.ref = ps.refs[stripA[0]].desc[1]
						} else if endA.ind == pB.ind {
							sFront.ref = ps.refs[stripB[0]].desc[0]
						}
					}
				}
			}

			newPolys = append(newPolys, newPoly)
		}

		polys = append(polys[:next], polys[next+1:]...)
		polys = append(polys, newPolys...)
	}

	// Remaining strips on each working polygon.
	var newPolys [][]int

	for _, work := range polys {
		var pending [][]int
		for _, strip := range strips {
			back := pts[ps.refs[strip[len(strip)-1]].ind]
			if back.capt != captBranched && containsID(work, ps.refs[strip[0]].ref) {
				pending = append(pending, strip)
			}
		}

		if len(pending) == 0 {
			newPolys = append(newPolys, work)
			continue
		}

		working := [][]int{work}

		edges := make(map[int][]int)
		var edgeKeys []int
		for _, s := range pending {
			a := pts[ps.refs[s[0]].ind]
			b := pts[ps.refs[s[len(s)-1]].ind]

			if _, ok := edges[a.edge.F]; !ok {
				edgeKeys = append(edgeKeys, a.edge.F)
			}
			edges[a.edge.F] = append(edges[a.edge.F], s[0])
			if _, ok := edges[b.edge.F]; !ok {
				edgeKeys = append(edgeKeys, b.edge.F)
			}
			edges[b.edge.F] = append(edges[b.edge.F], s[len(s)-1])
		}
		sort.Ints(edgeKeys)

		for _, id := range edgeKeys {
			edge := edges[id]
			sortEdgeRefs(ps, stripsM, absT, total, id, edge)
			edges[id] = edge
		}

		for _, s := range pending {
			start := ps.refs[s[0]]
			end := ps.refs[s[len(s)-1]]

			cycle := 0
			for {
				if cycle == len(working) {
					break
				}

				cur := working[0]
				working = working[1:]

				var split [2][]int

				if containsID(cur, start.ref) {
					if start.ref == end.ref {
						for _, id := range cur {
							split[0] = append(split[0], id)
							if id == start.ref {
								for _, r := range s {
									split[0] = append(split[0], ps.refs[r].desc[0])
								}
							}
						}
						// The strip body itself closes the second polygon.
						for k := len(s) - 1; k >= 0; k-- {
							split[1] = append(split[1], ps.refs[s[k]].desc[1])
						}
					} else {
						curr := 0
						for _, id := range cur {
							split[curr] = append(split[curr], id)
							if id == start.ref {
								for _, r := range s {
									split[curr] = append(split[curr], ps.refs[r].desc[0])
								}
								curr = 1 - curr
							} else if id == end.ref {
								for k := len(s) - 1; k >= 0; k-- {
									split[curr] = append(split[curr], ps.refs[s[k]].desc[1])
								}
								curr = 1 - curr
							}
						}
					}
				}

				if len(split[1]) > 0 {
					updateEdgeRefs(ps, pts, edges, edgeKeys, start.strip)

					split[0] = cleanPoly(m, split[0])
					split[1] = cleanPoly(m, split[1])

					if len(split[0]) > 2 {
						working = append(working, split[0])
					}
					if hasArea(ps, s) && len(split[1]) > 2 {
						working = append(working, split[1])
					}
					break
				}

				working = append(working, cur)
				cycle++
			}
		}

		newPolys = append(newPolys, working...)
	}

	var descIDs []int
	for _, p := range newPolys {
		descIDs = append(descIDs, m.AddFace(p, origID))
	}
	m.DeleteFace(polyInd)

	if len(holes) > 0 {
		if err := mergeHoles(m, ps, holes, descIDs, origID); err != nil {
			return fmt.Errorf("%w: face %d: %v", ErrCutFailed, polyInd, err)
		}
	}
	return nil
}

// sortEdgeRefs orders the strip endpoints captured on one face edge.
// Endpoints at distinct positions order by their edge parameter; the
// degenerate shared-position cases fall back to walking the strips.
func sortEdgeRefs(ps *pStrips, stripsM map[int][]int, absT map[int]float64, total float64, edgeID int, edge []int) {
	pts := ps.pts
	sort.SliceStable(edge, func(x, y int) bool {
		a := ps.refs[edge[x]]
		b := ps.refs[edge[y]]
		aP := pts[a.ind]
		bP := pts[b.ind]

		if aP.ind != bP.ind {
			return aP.t < bP.t
		}

		if a.strip != b.strip {
			stripA := stripsM[a.strip]
			stripB := stripsM[b.strip]

			eA := ps.refs[stripA[len(stripA)-1]].ind
			if a.ind != ps.refs[stripA[0]].ind {
				eA = ps.refs[stripA[0]].ind
			}
			eB := ps.refs[stripB[len(stripB)-1]].ind
			if b.ind != ps.refs[stripB[0]].ind {
				eB = ps.refs[stripB[0]].ind
			}

			eAP := pts[eA]
			eBP := pts[eB]

			if eAP.ind != eBP.ind {
				r := absT[edgeID] + aP.t
				rA := absT[eAP.edge.F] + eAP.t
				rB := absT[eBP.edge.F] + eBP.t

				if rA > r {
					rA -= r
				} else {
					rA += total - r
				}
				if rB > r {
					rB -= r
				} else {
					rB += total - r
				}
				return rB < rA
			}

			// Both strips span the same pair of endpoints; orientation
			// of the joint loop decides.
			var seq []int
			if a.side == sideStart {
				seq = append(seq, stripA...)
			} else {
				for k := len(stripA) - 1; k >= 0; k-- {
					seq = append(seq, stripA[k])
				}
			}
			if b.side == sideStart {
				for k := len(stripB) - 2; k >= 1; k-- {
					seq = append(seq, stripB[k])
				}
			} else {
				seq = append(seq, stripB[1:len(stripB)-1]...)
			}
			n := refNormal(ps, seq)
			return ps.n.Dot(n) < .999999
		}

		// Same strip, both ends at the same vertex.
		strip := stripsM[a.strip]
		if hasArea(ps, strip) {
			n := refNormal(ps, strip[:len(strip)-1])
			if ps.n.Dot(n) > .999999 {
				reverseStrip(strip)
				return true
			}
			return false
		}
		return false
	})
}

// updateEdgeRefs repairs the refs of strips later in the insertion
// order after the strip with id startStrip was built in. A later
// endpoint that shares an edge position with an earlier one must attach
// to the earlier strip's descendant on the correct side; the shared
// tracker keeps a later strip's update from being overwritten by an
// earlier one.
func updateEdgeRefs(ps *pStrips, pts map[int]*stripPt, edges map[int][]int, edgeKeys []int, startStrip int) {
	for _, key := range edgeKeys {
		edge := edges[key]

		for i := 1; i < len(edge); i++ {
			sp := &ps.refs[edge[i]]
			if sp.strip <= startStrip {
				continue
			}

			var tracked *stripPtR

			for j := i - 1; j >= 0; j-- {
				p := ps.refs[edge[j]]
				if p.strip != sp.strip {
					if p.strip <= startStrip {
						if p.side == sideEnd {
							sp.ref = p.desc[0]
						} else {
							sp.ref = p.desc[1]
						}
						cp := p
						tracked = &cp
						break
					}
				} else {
					sp.ref = p.ref
					break
				}
			}

			for j := i + 1; j < len(edge); j++ {
				p := ps.refs[edge[j]]
				if p.ind != sp.ind {
					break
				}
				if p.strip <= startStrip {
					if tracked != nil && p.ind == tracked.ind && p.strip < tracked.strip {
						break
					}
					if p.side == sideStart {
						sp.ref = p.desc[0]
					} else {
						sp.ref = p.desc[1]
					}
					break
				}
			}
		}

		if len(edge) > 1 {
			a := &ps.refs[edge[0]]
			b := ps.refs[edge[1]]

			if a.ind == b.ind && b.strip == startStrip && pts[a.ind].capt == captA {
				if b.side == sideStart {
					a.ref = b.desc[0]
				} else {
					a.ref = b.desc[1]
				}
			}
		}
	}
}

// cleanPoly drops polygon vertices that coincide with their successor.
func cleanPoly(m *Mesh, poly []int) []int {
	var out []int
	for i, id := range poly {
		next := poly[(i+1)%len(poly)]
		if m.Point(id) == m.Point(next) {
			continue
		}
		out = append(out, id)
	}
	return out
}

// refNormal computes the Newell normal over a ref sequence's cut
// coordinates.
func refNormal(ps *pStrips, seq []int) Vec {
	var coords []Vec
	for _, r := range seq {
		coords = append(coords, ps.pts[ps.refs[r].ind].cutPt)
	}
	return newellNormal(coords)
}

func reverseStrip(strip []int) {
	for i, j := 0, len(strip)-1; i < j; i, j = i+1, j-1 {
		strip[i], strip[j] = strip[j], strip[i]
	}
}

func containsID(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func indexOf(ids []int, id int) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func setEqual(a, b map[Vec]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}
