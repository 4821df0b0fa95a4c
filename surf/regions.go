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

import "fmt"

// loc classifies a region relative to the other surface.
type loc uint8

const (
	locNone loc = iota
	locInside
	locOutside
)

// congr classifies the geometric alignment of two faces at a shared
// contact edge.
type congr uint8

const (
	congrNot congr = iota
	congrEqual
	congrOpposite
)

// labelRegions assigns a connected-component id to every point of m and
// returns the number of components. Faces are connected through shared
// point ids.
func labelRegions(m *Mesh) int {
	m.RegionIDs = make([]int, m.NumPoints())
	for i := range m.RegionIDs {
		m.RegionIDs[i] = NotSet
	}

	faceRegion := make([]int, m.NumFaces())
	for i := range faceRegion {
		faceRegion[i] = NotSet
	}

	next := 0
	for seed := 0; seed < m.NumFaces(); seed++ {
		if m.FaceDeleted(seed) || faceRegion[seed] != NotSet {
			continue
		}
		queue := []int{seed}
		faceRegion[seed] = next

		for len(queue) > 0 {
			f := queue[0]
			queue = queue[1:]

			for _, p := range m.Face(f) {
				m.RegionIDs[p] = next
				for _, nb := range m.PointFaces(p) {
					if faceRegion[nb] == NotSet {
						faceRegion[nb] = next
						queue = append(queue, nb)
					}
				}
			}
		}
		next++
	}
	return next
}

// polyAtEdge is one face adjacent to a contact segment, with the frame
// used for the dihedral classification: face normal n, edge direction e
// and in-plane right vector r.
type polyAtEdge struct {
	polyID       int
	ptIDA, ptIDB int
	n, e, r      Vec
	loc          loc
}

func newPolyAtEdge(m *Mesh, polyID, ptIDA, ptIDB int) polyAtEdge {
	p := polyAtEdge{polyID: polyID, ptIDA: ptIDA, ptIDB: ptIDB}

	p.e = m.Point(ptIDB).Sub(m.Point(ptIDA)).Normalize()

	var coords []Vec
	for _, id := range m.Face(polyID) {
		coords = append(coords, m.Point(id))
	}
	p.n = newellNormal(coords)
	p.r = p.e.Cross(p.n)
	return p
}

func (p *polyAtEdge) isCongruent(o *polyAtEdge) congr {
	cong := p.n.Dot(o.n)
	if cong > congTol || cong < -congTol {
		if p.r.Dot(o.r) > congTol {
			if cong > congTol {
				return congrEqual
			}
			return congrOpposite
		}
	}
	return congrNot
}

// polyPair is the two faces of one surface on either side of a contact
// segment.
type polyPair struct {
	pA, pB polyAtEdge
}

// getLoc classifies the test face pT against the pair, honoring the
// coplanar special cases of the operation mode.
func (pp *polyPair) getLoc(pT *polyAtEdge, mode OpMode) {
	cA := pp.pA.isCongruent(pT)
	cB := pp.pB.isCongruent(pT)

	switch {
	case cA == congrEqual || cA == congrOpposite:
		if cA == congrOpposite {
			if mode == OpIntersection {
				pp.pA.loc = locOutside
				pT.loc = locOutside
			} else {
				pp.pA.loc = locInside
				pT.loc = locInside
			}
		} else if mode == OpUnion || mode == OpIntersection {
			pp.pA.loc = locInside
			pT.loc = locOutside
		}

	case cB == congrEqual || cB == congrOpposite:
		if cB == congrOpposite {
			if mode == OpIntersection {
				pp.pB.loc = locOutside
				pT.loc = locOutside
			} else {
				pp.pB.loc = locInside
				pT.loc = locInside
			}
		} else if mode == OpUnion || mode == OpIntersection {
			pp.pB.loc = locInside
			pT.loc = locOutside
		}

	default:
		alpha := angleAbout(pp.pA.r, pp.pB.r, pp.pA.e)
		beta := angleAbout(pp.pA.r, pT.r, pp.pA.e)
		if beta > alpha {
			pT.loc = locInside
		} else {
			pT.loc = locOutside
		}
	}
}

// getEdgePolys finds the two faces flanking the contact edge whose
// endpoints coincide with the point sets ptsA and ptsB: a face holds
// both coincident points in consecutive boundary order.
func getEdgePolys(m *Mesh, ptsA, ptsB []int) *polyPair {
	type ref struct{ pt, cell int }
	var p []ref

	for _, id := range ptsA {
		for _, cell := range m.PointFaces(id) {
			p = append(p, ref{id, cell})
		}
	}
	for _, id := range ptsB {
		for _, cell := range m.PointFaces(id) {
			p = append(p, ref{id, cell})
		}
	}

	edgeOf := make(map[int][]int)
	var cells []int
	for _, r := range p {
		if _, ok := edgeOf[r.cell]; !ok {
			cells = append(cells, r.cell)
		}
		edgeOf[r.cell] = append(edgeOf[r.cell], r.pt)
	}
	insertionSort(cells)

	var opp []polyAtEdge
	for _, cell := range cells {
		pts := edgeOf[cell]
		if len(pts) < 2 {
			continue
		}
		face := m.Face(cell)
		for i, a := range face {
			b := face[(i+1)%len(face)]
			if containsID(pts, a) && containsID(pts, b) {
				opp = append(opp, newPolyAtEdge(m, cell, a, b))
			}
		}
	}

	if len(opp) != 2 {
		return nil
	}
	return &polyPair{opp[0], opp[1]}
}

// combineRegions labels the connected components of the two cut
// surfaces against each other and assembles the subset selected by the
// operation mode.
func combineRegions(modA, modB, inA, inB *Mesh, curve *ContactCurve, mode OpMode) (*Mesh, *Mesh, error) {
	pdA := modA.Copy()
	pdA.CleanUnusedPoints()
	numA := labelRegions(pdA)

	pdB := modB.Copy()
	pdB.CleanUnusedPoints()
	numB := labelRegions(pdB)

	if mode == OpNone {
		return pdA, pdB, nil
	}

	locA := NewMeshPointLocator(pdA)
	locB := NewMeshPointLocator(pdB)

	locsA := make(map[int]loc)
	locsB := make(map[int]loc)

	var failed []int

	for i := 0; i < curve.NumSegments(); i++ {
		if curve.SegmentDeleted(i) {
			continue
		}
		seg := curve.Segment(i)
		ptA := curve.Point(seg.F)
		ptB := curve.Point(seg.G)

		fptsA := locA.FindPoints(ptA)
		fptsB := locB.FindPoints(ptA)

		// A segment whose first endpoint touches only regions already
		// classified, on both surfaces, needs no second look.
		notLocated := 0
		for _, id := range fptsA {
			if _, ok := locsA[pdA.RegionIDs[id]]; !ok {
				notLocated++
			}
		}
		for _, id := range fptsB {
			if _, ok := locsB[pdB.RegionIDs[id]]; !ok {
				notLocated++
			}
		}
		if notLocated == 0 {
			continue
		}

		lptsA := locA.FindPoints(ptB)
		lptsB := locB.FindPoints(ptB)

		ppA := getEdgePolys(pdA, fptsA, lptsA)
		ppB := getEdgePolys(pdB, fptsB, lptsB)

		if ppA == nil || ppB == nil {
			failed = append(failed, i)
			continue
		}

		ppB.getLoc(&ppA.pA, mode)
		ppB.getLoc(&ppA.pB, mode)
		ppA.getLoc(&ppB.pA, mode)
		ppA.getLoc(&ppB.pB, mode)

		// First assignment wins; later disagreements for a region are
		// ignored.
		assign(locsA, pdA.RegionIDs[ppA.pA.ptIDA], ppA.pA.loc)
		assign(locsA, pdA.RegionIDs[ppA.pB.ptIDA], ppA.pB.loc)
		assign(locsB, pdB.RegionIDs[ppB.pA.ptIDA], ppB.pA.loc)
		assign(locsB, pdB.RegionIDs[ppB.pB.ptIDA], ppB.pB.loc)
	}

	if len(failed) > 0 {
		return nil, nil, fmt.Errorf("%w: %d segments", ErrRegionClassifyFailed, len(failed))
	}

	comb := [2]loc{locOutside, locOutside}
	switch mode {
	case OpIntersection:
		comb = [2]loc{locInside, locInside}
	case OpDifference:
		comb[1] = locInside
	case OpDifference2:
		comb[0] = locInside
	}

	selA := selectRegions(pdA, locsA, comb[0], numA, mode == OpUnion || mode == OpDifference)
	selB := selectRegions(pdB, locsB, comb[1], numB, mode == OpUnion || mode == OpDifference2)

	// Inside components keep their faces but point the wrong way.
	if mode != OpIntersection {
		if comb[0] == locInside {
			reverseClassified(selA, locsA)
		}
		if comb[1] == locInside {
			reverseClassified(selB, locsB)
		}
	}

	result := assembleResult(selA, selB, inA, inB)
	labelRegions(result)

	return result, nil, nil
}

func assign(locs map[int]loc, region int, l loc) {
	if _, ok := locs[region]; !ok {
		locs[region] = l
	}
}

// selectRegions extracts the faces of the regions classified as want,
// plus, when keepUnclassified is set, the regions the contact never
// touched.
func selectRegions(pd *Mesh, locs map[int]loc, want loc, numRegions int, keepUnclassified bool) *Mesh {
	wanted := make(map[int]bool)
	for region, l := range locs {
		if l == want {
			wanted[region] = true
		}
	}
	if keepUnclassified {
		for region := 0; region < numRegions; region++ {
			if _, ok := locs[region]; !ok {
				wanted[region] = true
			}
		}
	}

	sel := pd.Copy()
	for f := 0; f < sel.NumFaces(); f++ {
		if sel.FaceDeleted(f) {
			continue
		}
		if !wanted[sel.RegionIDs[sel.Face(f)[0]]] {
			sel.DeleteFace(f)
		}
	}
	sel.RemoveDeletedFaces()
	sel.CleanUnusedPoints()
	return sel
}

func reverseClassified(sel *Mesh, locs map[int]loc) {
	for f := 0; f < sel.NumFaces(); f++ {
		if sel.FaceDeleted(f) {
			continue
		}
		if _, ok := locs[sel.RegionIDs[sel.Face(f)[0]]]; ok {
			sel.ReverseFace(f)
		}
	}
}

// assembleResult concatenates the two selections and attaches the
// provenance arrays and the per-face user data of the inputs.
func assembleResult(selA, selB, inA, inB *Mesh) *Mesh {
	result := NewMesh()
	result.Append(selA)
	nA := result.NumFaces()
	result.Append(selB)
	nTotal := result.NumFaces()

	result.OrigCellIdsA = make([]int, nTotal)
	result.OrigCellIdsB = make([]int, nTotal)

	data := make(map[string][]float64)
	for name := range inA.CellData {
		data[name] = make([]float64, nTotal)
	}
	for name := range inB.CellData {
		if _, ok := data[name]; !ok {
			data[name] = make([]float64, nTotal)
		}
	}

	for i := 0; i < nTotal; i++ {
		orig := result.OrigCellIds[i]
		if i < nA {
			result.OrigCellIdsA[i] = orig
			result.OrigCellIdsB[i] = NotSet
			for name, arr := range inA.CellData {
				data[name][i] = arr[orig]
			}
		} else {
			result.OrigCellIdsA[i] = NotSet
			result.OrigCellIdsB[i] = orig
			for name, arr := range inB.CellData {
				data[name][i] = arr[orig]
			}
		}
	}
	result.CellData = data

	return result
}
