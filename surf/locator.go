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

// PointLocator answers coincidence queries over a point set under the
// fixed tolerance. It hashes points into a uniform grid whose cell size
// is large against the tolerance, so a query only has to look at the
// query point's cell and its neighbors. Each cell keeps its points in
// SoA layout so a query scans whole cells with the distance kernel.
type PointLocator struct {
	cell    float64
	buckets map[[3]int]*locatorCell
	pts     []Vec
	scratch []float64
}

type locatorCell struct {
	ids     []int
	x, y, z []float64
}

// NewPointLocator returns an empty locator.
func NewPointLocator() *PointLocator {
	return &PointLocator{
		cell:    1024 * linTol,
		buckets: make(map[[3]int]*locatorCell),
	}
}

// NewMeshPointLocator indexes every point of m.
func NewMeshPointLocator(m *Mesh) *PointLocator {
	loc := NewPointLocator()
	for i := 0; i < m.NumPoints(); i++ {
		loc.Add(m.Point(i))
	}
	return loc
}

func (l *PointLocator) key(p Vec) [3]int {
	return [3]int{
		int(math.Floor(p.X / l.cell)),
		int(math.Floor(p.Y / l.cell)),
		int(math.Floor(p.Z / l.cell)),
	}
}

// Add indexes p and returns its id, the number of points added before it.
func (l *PointLocator) Add(p Vec) int {
	id := len(l.pts)
	l.pts = append(l.pts, p)

	k := l.key(p)
	c := l.buckets[k]
	if c == nil {
		c = &locatorCell{}
		l.buckets[k] = c
	}
	c.ids = append(c.ids, id)
	c.x = append(c.x, p.X)
	c.y = append(c.y, p.Y)
	c.z = append(c.z, p.Z)
	return id
}

// NumPoints returns the number of indexed points.
func (l *PointLocator) NumPoints() int { return len(l.pts) }

// Point returns the coordinates of indexed point id.
func (l *PointLocator) Point(id int) Vec { return l.pts[id] }

// FindPoints returns the ids of all indexed points within the
// coincidence tolerance of p, in insertion order.
func (l *PointLocator) FindPoints(p Vec) []int {
	tolSq := linTol * linTol

	var found []int
	k := l.key(p)
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			for dz := -1; dz <= 1; dz++ {
				c := l.buckets[[3]int{k[0] + dx, k[1] + dy, k[2] + dz}]
				if c == nil {
					continue
				}
				if cap(l.scratch) < len(c.ids) {
					l.scratch = make([]float64, len(c.ids))
				}
				dst := l.scratch[:len(c.ids)]

				BatchDistSq(p.X, p.Y, p.Z, c.x, c.y, c.z, dst)

				for i, d := range dst {
					if d < tolSq {
						found = append(found, c.ids[i])
					}
				}
			}
		}
	}
	if len(found) > 1 {
		insertionSort(found)
	}
	return found
}

// Merge returns the id of an indexed point coincident with p, adding p
// as a new point if there is none.
func (l *PointLocator) Merge(p Vec) int {
	if ids := l.FindPoints(p); len(ids) > 0 {
		return ids[0]
	}
	return l.Add(p)
}

func insertionSort(a []int) {
	for i := 1; i < len(a); i++ {
		for j := i; j > 0 && a[j] < a[j-1]; j-- {
			a[j], a[j-1] = a[j-1], a[j]
		}
	}
}
