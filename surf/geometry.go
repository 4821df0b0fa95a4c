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

// Tolerances of the pipeline. They are deliberately fixed; every stage
// assumes the same coincidence radius.
const (
	// linTol is the linear point-coincidence tolerance.
	linTol = 1e-5

	// parTol is the slack allowed on parametric edge coordinates.
	parTol = 1e-5

	// congTol is the congruence threshold for normals and right vectors,
	// about 0.0081 degrees.
	congTol = .99999999
)

// NotSet marks an unassigned point or cell id.
const NotSet = -1

// Vec is a point or direction in three-dimensional Euclidean space.
type Vec struct {
	X, Y, Z float64
}

// Add returns v+w.
func (v Vec) Add(w Vec) Vec { return Vec{v.X + w.X, v.Y + w.Y, v.Z + w.Z} }

// Sub returns v-w.
func (v Vec) Sub(w Vec) Vec { return Vec{v.X - w.X, v.Y - w.Y, v.Z - w.Z} }

// Mul returns v scaled by s.
func (v Vec) Mul(s float64) Vec { return Vec{v.X * s, v.Y * s, v.Z * s} }

// Dot returns the standard dot product of v and w.
func (v Vec) Dot(w Vec) float64 { return v.X*w.X + v.Y*w.Y + v.Z*w.Z }

// Cross returns the standard cross product of v and w.
func (v Vec) Cross(w Vec) Vec {
	return Vec{
		v.Y*w.Z - v.Z*w.Y,
		v.Z*w.X - v.X*w.Z,
		v.X*w.Y - v.Y*w.X,
	}
}

// Norm returns the vector's norm.
func (v Vec) Norm() float64 { return math.Sqrt(v.Dot(v)) }

// Normalize returns a unit vector in the same direction as v.
// The zero vector is returned unchanged.
func (v Vec) Normalize() Vec {
	n := v.Norm()
	if n == 0 {
		return v
	}
	return v.Mul(1 / n)
}

// Coincident reports whether v and w lie within the coincidence tolerance.
func (v Vec) Coincident(w Vec) bool { return v.Sub(w).Norm() < linTol }

// Pair is an ordered pair of ids. Unless stated otherwise by the
// consumer, {f, g} and {g, f} are distinct.
type Pair struct {
	F, G int
}

// Base is a 2D orthonormal frame spanning a polygon's plane. It is used
// to project points onto the plane for in-plane tests.
type Base struct {
	Origin Vec
	U, V   Vec
	N      Vec
}

// NewBase derives a frame from a polygon's first edge and normal.
func NewBase(origin Vec, next Vec, n Vec) Base {
	u := next.Sub(origin).Normalize()
	return Base{
		Origin: origin,
		U:      u,
		V:      n.Cross(u).Normalize(),
		N:      n,
	}
}

// Project maps a 3D point into the frame's in-plane coordinates.
func (b Base) Project(p Vec) [2]float64 {
	d := p.Sub(b.Origin)
	return [2]float64{d.Dot(b.U), d.Dot(b.V)}
}

// newellNormal computes the normal of the polygon given by pts using
// Newell's method and normalizes it. Works for non-convex polygons.
func newellNormal(pts []Vec) Vec {
	var n Vec
	for i, a := range pts {
		b := pts[(i+1)%len(pts)]
		n.X += (a.Y - b.Y) * (a.Z + b.Z)
		n.Y += (a.Z - b.Z) * (a.X + b.X)
		n.Z += (a.X - b.X) * (a.Y + b.Y)
	}
	return n.Normalize()
}

// angleAbout returns the angle of rB relative to rA, measured
// counterclockwise about the axis e, in [0, 2π).
func angleAbout(rA, rB, e Vec) float64 {
	ang := math.Atan2(e.Dot(rA.Cross(rB)), rA.Dot(rB))
	if ang < 0 {
		ang += 2 * math.Pi
	}
	return ang
}

// pointInPoly2 reports whether p lies strictly inside the 2D polygon.
// Points on the boundary may be reported either way.
func pointInPoly2(poly [][2]float64, p [2]float64) bool {
	in := false
	n := len(poly)
	for i := 0; i < n; i++ {
		a, b := poly[i], poly[(i+1)%n]
		if (a[1] > p[1]) != (b[1] > p[1]) &&
			p[0] < (b[0]-a[0])*(p[1]-a[1])/(b[1]-a[1])+a[0] {
			in = !in
		}
	}
	return in
}

// area2 returns the signed area of the 2D polygon.
func area2(poly [][2]float64) float64 {
	var s float64
	n := len(poly)
	for i := 0; i < n; i++ {
		a, b := poly[i], poly[(i+1)%n]
		s += a[0]*b[1] - b[0]*a[1]
	}
	return s / 2
}

// segIntersect2 reports whether the open segments ab and cd properly
// intersect in 2D, or overlap within the coincidence tolerance. Shared
// endpoints do not count.
func segIntersect2(a, b, c, d [2]float64) bool {
	eq := func(p, q [2]float64) bool {
		return math.Abs(p[0]-q[0]) < linTol && math.Abs(p[1]-q[1]) < linTol
	}
	if eq(a, c) || eq(a, d) || eq(b, c) || eq(b, d) {
		return false
	}

	rx, ry := b[0]-a[0], b[1]-a[1]
	sx, sy := d[0]-c[0], d[1]-c[1]
	den := rx*sy - ry*sx

	qx, qy := c[0]-a[0], c[1]-a[1]

	if math.Abs(den) < 1e-12 {
		// Parallel. Overlapping collinear segments count as a crossing.
		if math.Abs(qx*ry-qy*rx) > linTol {
			return false
		}
		rr := rx*rx + ry*ry
		t0 := (qx*rx + qy*ry) / rr
		t1 := t0 + (sx*rx+sy*ry)/rr
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		return t1 > parTol && t0 < 1-parTol
	}

	t := (qx*sy - qy*sx) / den
	u := (qx*ry - qy*rx) / den

	return t > parTol && t < 1-parTol && u > parTol && u < 1-parTol
}

// segDist2 returns the distance between the 2D point p and segment ab.
func segDist2(p, a, b [2]float64) float64 {
	abx, aby := b[0]-a[0], b[1]-a[1]
	apx, apy := p[0]-a[0], p[1]-a[1]
	rr := abx*abx + aby*aby
	if rr == 0 {
		return math.Hypot(apx, apy)
	}
	t := (apx*abx + apy*aby) / rr
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return math.Hypot(apx-t*abx, apy-t*aby)
}
