package surf

//go:generate hwygen -input $GOFILE -output . -targets avx2,fallback

import (
	"github.com/ajroetker/go-highway/hwy"
)

// BatchBounds computes the axis-aligned bounding box of a point set
// (SoA layout), accumulating the three axes in one pass.
func BatchBounds[T hwy.Floats](xs, ys, zs []T) (minX, minY, minZ, maxX, maxY, maxZ T) {
	size := min(len(xs), len(ys), len(zs))
	if size == 0 {
		return 0, 0, 0, 0, 0, 0
	}

	// Initialize every accumulator with the first point broadcasted.
	vMinX := hwy.Set(xs[0])
	vMaxX := hwy.Set(xs[0])
	vMinY := hwy.Set(ys[0])
	vMaxY := hwy.Set(ys[0])
	vMinZ := hwy.Set(zs[0])
	vMaxZ := hwy.Set(zs[0])

	hwy.ProcessWithTail[T](size,
		func(offset int) {
			vx := hwy.Load(xs[offset:])
			vy := hwy.Load(ys[offset:])
			vz := hwy.Load(zs[offset:])

			vMinX = hwy.Min(vMinX, vx)
			vMaxX = hwy.Max(vMaxX, vx)
			vMinY = hwy.Min(vMinY, vy)
			vMaxY = hwy.Max(vMaxY, vy)
			vMinZ = hwy.Min(vMinZ, vz)
			vMaxZ = hwy.Max(vMaxZ, vz)
		},
		func(offset, count int) {
			mask := hwy.TailMask[T](count)
			vx := hwy.MaskLoad(mask, xs[offset:])
			vy := hwy.MaskLoad(mask, ys[offset:])
			vz := hwy.MaskLoad(mask, zs[offset:])

			// Keep the running bounds in the masked-out lanes so the
			// zero padding from MaskLoad cannot leak into the result.
			vMinX = hwy.Min(vMinX, hwy.IfThenElse(mask, vx, vMinX))
			vMaxX = hwy.Max(vMaxX, hwy.IfThenElse(mask, vx, vMaxX))
			vMinY = hwy.Min(vMinY, hwy.IfThenElse(mask, vy, vMinY))
			vMaxY = hwy.Max(vMaxY, hwy.IfThenElse(mask, vy, vMaxY))
			vMinZ = hwy.Min(vMinZ, hwy.IfThenElse(mask, vz, vMinZ))
			vMaxZ = hwy.Max(vMaxZ, hwy.IfThenElse(mask, vz, vMaxZ))
		},
	)

	return hwy.ReduceMin(vMinX), hwy.ReduceMin(vMinY), hwy.ReduceMin(vMinZ),
		hwy.ReduceMax(vMaxX), hwy.ReduceMax(vMaxY), hwy.ReduceMax(vMaxZ)
}

// bounds is an axis-aligned box.
type bounds struct {
	min, max Vec
}

func (b bounds) expand(tol float64) bounds {
	t := Vec{tol, tol, tol}
	return bounds{b.min.Sub(t), b.max.Add(t)}
}

func (b bounds) overlaps(o bounds) bool {
	return b.min.X <= o.max.X && o.min.X <= b.max.X &&
		b.min.Y <= o.max.Y && o.min.Y <= b.max.Y &&
		b.min.Z <= o.max.Z && o.min.Z <= b.max.Z
}

func (b bounds) contains(p Vec) bool {
	return p.X >= b.min.X && p.X <= b.max.X &&
		p.Y >= b.min.Y && p.Y <= b.max.Y &&
		p.Z >= b.min.Z && p.Z <= b.max.Z
}

// meshBounds computes the bounding box of every live point in m, in one
// SoA pass.
func meshBounds(m *Mesh) bounds {
	s := newSOA(m.NumPoints())
	for i := 0; i < m.NumPoints(); i++ {
		s.push(m.Point(i))
	}
	var b bounds
	b.min.X, b.min.Y, b.min.Z, b.max.X, b.max.Y, b.max.Z = BatchBounds(s.x, s.y, s.z)
	return b
}

// faceBounds computes the bounding box of one face.
func faceBounds(m *Mesh, face []int) bounds {
	b := bounds{m.Point(face[0]), m.Point(face[0])}
	for _, id := range face[1:] {
		p := m.Point(id)
		if p.X < b.min.X {
			b.min.X = p.X
		}
		if p.Y < b.min.Y {
			b.min.Y = p.Y
		}
		if p.Z < b.min.Z {
			b.min.Z = p.Z
		}
		if p.X > b.max.X {
			b.max.X = p.X
		}
		if p.Y > b.max.Y {
			b.max.Y = p.Y
		}
		if p.Z > b.max.Z {
			b.max.Z = p.Z
		}
	}
	return b
}
