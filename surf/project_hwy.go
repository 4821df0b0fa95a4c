package surf

//go:generate hwygen -input $GOFILE -output . -targets avx2,fallback

import (
	"github.com/ajroetker/go-highway/hwy"
)

// BatchFrameProject drops a set of 3D points (SoA layout) into a
// polygon's in-plane frame: the 2x3 matrix of the frame axes applied
// after the origin shift, with the shift folded into constant offsets.
// us[i] = xs[i]*ux + ys[i]*uy + zs[i]*uz - cu
// vs[i] = xs[i]*vx + ys[i]*vy + zs[i]*vz - cv
func BatchFrameProject[T hwy.Floats](
	ux, uy, uz T,
	vx, vy, vz T,
	cu, cv T,
	xs, ys, zs []T,
	us, vs []T,
) {
	size := min(len(xs), len(ys), len(zs), len(us), len(vs))

	vUx := hwy.Set(ux)
	vUy := hwy.Set(uy)
	vUz := hwy.Set(uz)
	vVx := hwy.Set(vx)
	vVy := hwy.Set(vy)
	vVz := hwy.Set(vz)
	vCu := hwy.Set(cu)
	vCv := hwy.Set(cv)

	hwy.ProcessWithTail[T](size,
		func(offset int) {
			x := hwy.Load(xs[offset:])
			y := hwy.Load(ys[offset:])
			z := hwy.Load(zs[offset:])

			resU := hwy.Mul(x, vUx)
			resU = hwy.FMA(y, vUy, resU)
			resU = hwy.FMA(z, vUz, resU)

			resV := hwy.Mul(x, vVx)
			resV = hwy.FMA(y, vVy, resV)
			resV = hwy.FMA(z, vVz, resV)

			hwy.Store(hwy.Sub(resU, vCu), us[offset:])
			hwy.Store(hwy.Sub(resV, vCv), vs[offset:])
		},
		func(offset, count int) {
			mask := hwy.TailMask[T](count)
			x := hwy.MaskLoad(mask, xs[offset:])
			y := hwy.MaskLoad(mask, ys[offset:])
			z := hwy.MaskLoad(mask, zs[offset:])

			resU := hwy.Mul(x, vUx)
			resU = hwy.FMA(y, vUy, resU)
			resU = hwy.FMA(z, vUz, resU)

			resV := hwy.Mul(x, vVx)
			resV = hwy.FMA(y, vVy, resV)
			resV = hwy.FMA(z, vVz, resV)

			hwy.MaskStore(mask, hwy.Sub(resU, vCu), us[offset:])
			hwy.MaskStore(mask, hwy.Sub(resV, vCv), vs[offset:])
		},
	)
}

// projectCoords maps a coordinate list into the frame's in-plane
// coordinates in one SoA pass.
func projectCoords(b Base, coords []Vec) [][2]float64 {
	s := newSOA(len(coords))
	for _, c := range coords {
		s.push(c)
	}

	us := make([]float64, len(coords))
	vs := make([]float64, len(coords))
	BatchFrameProject(
		b.U.X, b.U.Y, b.U.Z,
		b.V.X, b.V.Y, b.V.Z,
		b.Origin.Dot(b.U), b.Origin.Dot(b.V),
		s.x, s.y, s.z, us, vs,
	)

	out := make([][2]float64, len(coords))
	for i := range out {
		out[i] = [2]float64{us[i], vs[i]}
	}
	return out
}

// projectPoints maps the given mesh points into the frame's in-plane
// coordinates in one SoA pass.
func projectPoints(m *Mesh, ids []int, b Base) [][2]float64 {
	coords := make([]Vec, len(ids))
	for i, id := range ids {
		coords[i] = m.Point(id)
	}
	return projectCoords(b, coords)
}
