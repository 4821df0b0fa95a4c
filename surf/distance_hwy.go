package surf

//go:generate hwygen -input $GOFILE -output . -targets avx2,fallback

import (
	"github.com/ajroetker/go-highway/hwy"
)

// BatchDistSq computes the squared Euclidean distance from one target
// point to a set of candidate points (SoA layout). The caller compares
// the stored distances against its own threshold, so one kernel serves
// both coincidence filtering and nearest-candidate searches.
// dst[i] = (xs[i]-tx)^2 + (ys[i]-ty)^2 + (zs[i]-tz)^2
func BatchDistSq[T hwy.Floats](
	tx, ty, tz T,
	xs, ys, zs []T,
	dst []T,
) {
	size := min(len(xs), len(ys), len(zs), len(dst))

	vTx := hwy.Set(tx)
	vTy := hwy.Set(ty)
	vTz := hwy.Set(tz)

	hwy.ProcessWithTail[T](size,
		func(offset int) {
			dx := hwy.Sub(hwy.Load(xs[offset:]), vTx)
			dy := hwy.Sub(hwy.Load(ys[offset:]), vTy)
			dz := hwy.Sub(hwy.Load(zs[offset:]), vTz)

			distSq := hwy.Mul(dx, dx)
			distSq = hwy.FMA(dy, dy, distSq)
			distSq = hwy.FMA(dz, dz, distSq)

			hwy.Store(distSq, dst[offset:])
		},
		func(offset, count int) {
			mask := hwy.TailMask[T](count)
			dx := hwy.Sub(hwy.MaskLoad(mask, xs[offset:]), vTx)
			dy := hwy.Sub(hwy.MaskLoad(mask, ys[offset:]), vTy)
			dz := hwy.Sub(hwy.MaskLoad(mask, zs[offset:]), vTz)

			distSq := hwy.Mul(dx, dx)
			distSq = hwy.FMA(dy, dy, distSq)
			distSq = hwy.FMA(dz, dz, distSq)

			hwy.MaskStore(mask, distSq, dst[offset:])
		},
	)
}
