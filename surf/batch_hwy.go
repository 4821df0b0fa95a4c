package surf

//go:generate hwygen -input $GOFILE -output . -targets avx2,fallback

import (
	"github.com/ajroetker/go-highway/hwy"
)

// SIMD kernels for the per-face plane work, in Structure-of-Arrays
// layout. Newell normals and plane-distance triage over whole meshes
// reduce to streams of identical small expressions; evaluating them in
// SoA batches is significantly faster than the slice-of-structs
// approach.

// BatchNewellTerms evaluates the Newell edge terms for a stream of
// directed edges a→b (SoA layout). Summing the terms of a closed loop
// yields twice the loop's area vector:
// nx = (ay-by)*(az+bz)
// ny = (az-bz)*(ax+bx)
// nz = (ax-bx)*(ay+by)
func BatchNewellTerms[T hwy.Floats](
	ax, ay, az []T,
	bx, by, bz []T,
	nx, ny, nz []T,
) {
	size := min(len(ax), len(ay), len(az), len(bx), len(by), len(bz))

	hwy.ProcessWithTail[T](size,
		func(offset int) {
			vAx := hwy.Load(ax[offset:])
			vAy := hwy.Load(ay[offset:])
			vAz := hwy.Load(az[offset:])

			vBx := hwy.Load(bx[offset:])
			vBy := hwy.Load(by[offset:])
			vBz := hwy.Load(bz[offset:])

			vNx := hwy.Mul(hwy.Sub(vAy, vBy), hwy.Add(vAz, vBz))
			vNy := hwy.Mul(hwy.Sub(vAz, vBz), hwy.Add(vAx, vBx))
			vNz := hwy.Mul(hwy.Sub(vAx, vBx), hwy.Add(vAy, vBy))

			hwy.Store(vNx, nx[offset:])
			hwy.Store(vNy, ny[offset:])
			hwy.Store(vNz, nz[offset:])
		},
		func(offset, count int) {
			mask := hwy.TailMask[T](count)

			vAx := hwy.MaskLoad(mask, ax[offset:])
			vAy := hwy.MaskLoad(mask, ay[offset:])
			vAz := hwy.MaskLoad(mask, az[offset:])
			vBx := hwy.MaskLoad(mask, bx[offset:])
			vBy := hwy.MaskLoad(mask, by[offset:])
			vBz := hwy.MaskLoad(mask, bz[offset:])

			vNx := hwy.Mul(hwy.Sub(vAy, vBy), hwy.Add(vAz, vBz))
			vNy := hwy.Mul(hwy.Sub(vAz, vBz), hwy.Add(vAx, vBx))
			vNz := hwy.Mul(hwy.Sub(vAx, vBx), hwy.Add(vAy, vBy))

			hwy.MaskStore(mask, vNx, nx[offset:])
			hwy.MaskStore(mask, vNy, ny[offset:])
			hwy.MaskStore(mask, vNz, nz[offset:])
		},
	)
}

// BatchPlaneDist computes the signed distances of a point set (SoA
// layout) to the plane with unit normal n and offset d.
// dst[i] = nx*xs[i] + ny*ys[i] + nz*zs[i] - d
func BatchPlaneDist[T hwy.Floats](
	nx, ny, nz, d T,
	xs, ys, zs []T,
	dst []T,
) {
	size := min(len(xs), len(ys), len(zs), len(dst))

	vNx := hwy.Set(nx)
	vNy := hwy.Set(ny)
	vNz := hwy.Set(nz)
	vD := hwy.Set(d)

	hwy.ProcessWithTail[T](size,
		func(offset int) {
			vx := hwy.Load(xs[offset:])
			vy := hwy.Load(ys[offset:])
			vz := hwy.Load(zs[offset:])

			sum := hwy.Mul(vNx, vx)
			sum = hwy.FMA(vNy, vy, sum)
			sum = hwy.FMA(vNz, vz, sum)

			hwy.Store(hwy.Sub(sum, vD), dst[offset:])
		},
		func(offset, count int) {
			mask := hwy.TailMask[T](count)
			vx := hwy.MaskLoad(mask, xs[offset:])
			vy := hwy.MaskLoad(mask, ys[offset:])
			vz := hwy.MaskLoad(mask, zs[offset:])

			sum := hwy.Mul(vNx, vx)
			sum = hwy.FMA(vNy, vy, sum)
			sum = hwy.FMA(vNz, vz, sum)

			hwy.MaskStore(mask, hwy.Sub(sum, vD), dst[offset:])
		},
	)
}

// soa holds a point set in SoA layout for the batch kernels.
type soa struct {
	x, y, z []float64
}

func newSOA(n int) soa {
	return soa{make([]float64, 0, n), make([]float64, 0, n), make([]float64, 0, n)}
}

func (s *soa) push(v Vec) {
	s.x = append(s.x, v.X)
	s.y = append(s.y, v.Y)
	s.z = append(s.z, v.Z)
}

// faceNormals computes the outward Newell normal of every face at once.
// The edge streams of all faces are concatenated, the per-edge Newell
// terms are computed in one batch, and the per-face sums are reduced
// from the concatenation offsets. Deleted faces get a zero normal.
func faceNormals(m *Mesh) []Vec {
	offs := make([]int, 0, m.NumFaces()+1)

	var a, b soa

	for i := 0; i < m.NumFaces(); i++ {
		offs = append(offs, len(a.x))
		if m.FaceDeleted(i) {
			continue
		}
		face := m.Face(i)
		for j, id := range face {
			a.push(m.Point(id))
			b.push(m.Point(face[(j+1)%len(face)]))
		}
	}
	offs = append(offs, len(a.x))

	nx := make([]float64, len(a.x))
	ny := make([]float64, len(a.x))
	nz := make([]float64, len(a.x))

	BatchNewellTerms(a.x, a.y, a.z, b.x, b.y, b.z, nx, ny, nz)

	normals := make([]Vec, m.NumFaces())
	for i := 0; i < m.NumFaces(); i++ {
		var n Vec
		for j := offs[i]; j < offs[i+1]; j++ {
			n.X += nx[j]
			n.Y += ny[j]
			n.Z += nz[j]
		}
		normals[i] = n.Normalize()
	}
	return normals
}

// planeDistances computes the signed distances of the given points to
// the plane with unit normal n passing through origin o.
func planeDistances(n Vec, o Vec, pts soa, dst []float64) {
	BatchPlaneDist(n.X, n.Y, n.Z, n.Dot(o), pts.x, pts.y, pts.z, dst)
}
