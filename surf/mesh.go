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

// Mesh is a mutable polygon surface. Points and faces have stable ids;
// faces can be marked deleted and are physically removed only by
// RemoveDeletedFaces. The point→face link table is a derived cache that
// is rebuilt on demand after any face mutation.
type Mesh struct {
	pts   []Vec
	faces [][]int
	dels  []bool

	// OrigCellIds maps every face back to the face of the input surface
	// it descends from.
	OrigCellIds []int

	// CellData holds named per-face user attributes.
	CellData map[string][]float64

	// OrigCellIdsA and OrigCellIdsB are set on boolean results: per face,
	// the id of the input face on surface A (resp. B) it descends from,
	// or NotSet for faces contributed by the other surface.
	OrigCellIdsA, OrigCellIdsB []int

	// RegionIDs holds per-point connected-component labels when the mesh
	// has been labelled. Empty otherwise.
	RegionIDs []int

	links      [][]int
	linksDirty bool
}

// NewMesh returns an empty mesh.
func NewMesh() *Mesh {
	return &Mesh{CellData: make(map[string][]float64), linksDirty: true}
}

// AddPoint appends a point and returns its id.
func (m *Mesh) AddPoint(p Vec) int {
	m.pts = append(m.pts, p)
	return len(m.pts) - 1
}

// Point returns the coordinates of point id.
func (m *Mesh) Point(id int) Vec { return m.pts[id] }

// SetPoint overwrites the coordinates of point id.
func (m *Mesh) SetPoint(id int, p Vec) { m.pts[id] = p }

// NumPoints returns the size of the point arena, deleted points included.
func (m *Mesh) NumPoints() int { return len(m.pts) }

// AddFace appends a face with the given provenance id and returns the
// face id.
func (m *Mesh) AddFace(ids []int, origID int) int {
	m.faces = append(m.faces, ids)
	m.dels = append(m.dels, false)
	m.OrigCellIds = append(m.OrigCellIds, origID)
	m.linksDirty = true
	return len(m.faces) - 1
}

// Face returns the vertex ids of face id. The slice is owned by the mesh.
func (m *Mesh) Face(id int) []int { return m.faces[id] }

// FaceDeleted reports whether face id has been marked deleted.
func (m *Mesh) FaceDeleted(id int) bool { return m.dels[id] }

// DeleteFace marks face id deleted. The id stays valid until
// RemoveDeletedFaces.
func (m *Mesh) DeleteFace(id int) {
	m.dels[id] = true
	m.linksDirty = true
}

// NumFaces returns the size of the face arena, deleted faces included.
func (m *Mesh) NumFaces() int { return len(m.faces) }

// ReplaceFacePoint rewrites every occurrence of point old in face id
// with point new.
func (m *Mesh) ReplaceFacePoint(id, old, new int) {
	for i, p := range m.faces[id] {
		if p == old {
			m.faces[id][i] = new
		}
	}
	m.linksDirty = true
}

// ReverseFace flips the orientation of face id.
func (m *Mesh) ReverseFace(id int) {
	f := m.faces[id]
	for i, j := 0, len(f)-1; i < j; i, j = i+1, j-1 {
		f[i], f[j] = f[j], f[i]
	}
}

// RemoveDeletedFaces compacts the face arena, dropping every face marked
// deleted. Face ids change; OrigCellIds and CellData stay parallel.
func (m *Mesh) RemoveDeletedFaces() {
	out := 0
	for i, f := range m.faces {
		if m.dels[i] {
			continue
		}
		m.faces[out] = f
		m.OrigCellIds[out] = m.OrigCellIds[i]
		for _, arr := range m.CellData {
			arr[out] = arr[i]
		}
		out++
	}
	m.faces = m.faces[:out]
	m.OrigCellIds = m.OrigCellIds[:out]
	for name, arr := range m.CellData {
		m.CellData[name] = arr[:out]
	}
	m.dels = make([]bool, out)
	m.linksDirty = true
}

// PointFaces returns the ids of the live faces incident to point id.
// The link table is rebuilt if any face was mutated since the last call.
func (m *Mesh) PointFaces(id int) []int {
	if m.linksDirty {
		m.buildLinks()
	}
	return m.links[id]
}

func (m *Mesh) buildLinks() {
	m.links = make([][]int, len(m.pts))
	for i, f := range m.faces {
		if m.dels[i] {
			continue
		}
		for _, p := range f {
			m.links[p] = append(m.links[p], i)
		}
	}
	m.linksDirty = false
}

// Copy returns a deep copy of the mesh.
func (m *Mesh) Copy() *Mesh {
	c := NewMesh()
	c.pts = append([]Vec(nil), m.pts...)
	c.faces = make([][]int, len(m.faces))
	for i, f := range m.faces {
		c.faces[i] = append([]int(nil), f...)
	}
	c.dels = append([]bool(nil), m.dels...)
	c.OrigCellIds = append([]int(nil), m.OrigCellIds...)
	for name, arr := range m.CellData {
		c.CellData[name] = append([]float64(nil), arr...)
	}
	c.RegionIDs = append([]int(nil), m.RegionIDs...)
	return c
}

// CleanUnusedPoints drops every point not referenced by a live face and
// renumbers the faces accordingly.
func (m *Mesh) CleanUnusedPoints() {
	used := make([]bool, len(m.pts))
	for i, f := range m.faces {
		if m.dels[i] {
			continue
		}
		for _, p := range f {
			used[p] = true
		}
	}

	remap := make([]int, len(m.pts))
	out := 0
	for i, u := range used {
		if !u {
			remap[i] = NotSet
			continue
		}
		m.pts[out] = m.pts[i]
		if len(m.RegionIDs) == len(used) {
			m.RegionIDs[out] = m.RegionIDs[i]
		}
		remap[i] = out
		out++
	}
	m.pts = m.pts[:out]
	if len(m.RegionIDs) > out {
		m.RegionIDs = m.RegionIDs[:out]
	}

	for i, f := range m.faces {
		if m.dels[i] {
			continue
		}
		for j, p := range f {
			f[j] = remap[p]
		}
	}
	m.linksDirty = true
}

// Append concatenates o into m. Points and faces are renumbered;
// OrigCellIds and CellData arrays are carried over. CellData arrays
// present in only one of the meshes are padded with zeros.
func (m *Mesh) Append(o *Mesh) {
	base := len(m.pts)
	nOld := len(m.faces)

	m.pts = append(m.pts, o.pts...)
	m.RegionIDs = append(m.RegionIDs, o.RegionIDs...)

	for i, f := range o.faces {
		if o.dels[i] {
			continue
		}
		nf := make([]int, len(f))
		for j, p := range f {
			nf[j] = p + base
		}
		m.faces = append(m.faces, nf)
		m.dels = append(m.dels, false)
		m.OrigCellIds = append(m.OrigCellIds, o.OrigCellIds[i])
	}
	nNew := len(m.faces)

	for name, arr := range m.CellData {
		m.CellData[name] = append(arr, make([]float64, nNew-nOld)...)
	}
	for name, arr := range o.CellData {
		if _, ok := m.CellData[name]; ok {
			continue
		}
		padded := make([]float64, nNew)
		copy(padded[nOld:], arr)
		m.CellData[name] = padded
	}
	// Arrays present in both: copy o's values over the zero padding.
	for name, arr := range o.CellData {
		dst := m.CellData[name]
		j := nOld
		for i := range o.faces {
			if o.dels[i] {
				continue
			}
			dst[j] = arr[i]
			j++
		}
	}
	m.linksDirty = true
}
