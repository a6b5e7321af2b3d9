package kernels

import (
	"math"

	"gonum.org/v1/gonum/blas/blas32"

	"github.com/pthm-cable/plume/volume"
)

// sliceVec wraps one z-slice of a field for the level-1 BLAS routines.
func sliceVec(data []float32) blas32.Vector {
	return blas32.Vector{N: len(data), Inc: 1, Data: data}
}

// DotProduct reduces <a, b> and stores the result in the given slot of
// piece, where the solver loop consumes it without a per-iteration
// read-back. Each z-slice reduces through blas32.Dot; the per-slice
// partials are widened to float64 and combined in a fixed order, keeping
// the conjugate gradient coefficients accurate and deterministic on large
// grids.
func (e *Engine) DotProduct(piece *volume.MemPiece, slot int, a, b *volume.Volume) {
	wh := a.W * a.H
	partials := make([]float64, a.D)
	e.q.ParallelForZ(a.D, func(z0, z1 int) {
		for z := z0; z < z1; z++ {
			s := z * wh
			partials[z] = float64(blas32.Dot(
				sliceVec(a.Data[s:s+wh]),
				sliceVec(b.Data[s:s+wh]),
			))
		}
	})
	var total float64
	for _, p := range partials {
		total += p
	}
	piece.Store(slot, float32(total))
}

// ScaledAdd computes dest = v0 + sign*coef*v1, with coef read from a
// resident scalar slot. A nil v0 scales v1 alone. The slab loop composes
// blas32 Copy/Scal/Axpy per aliasing shape: the CG loop passes dest
// aliasing v0 (u += alpha*s, r -= alpha*q) or v1 (s = z + beta*s).
func (e *Engine) ScaledAdd(dest, v0, v1 *volume.Volume, piece *volume.MemPiece, slot int, sign float32) {
	coef := sign * piece.Load(slot)
	wh := dest.W * dest.H
	e.q.ParallelForZ(dest.D, func(z0, z1 int) {
		s := z0 * wh
		t := z1 * wh
		d := sliceVec(dest.Data[s:t])
		x := sliceVec(v1.Data[s:t])
		switch {
		case v0 == nil:
			blas32.Copy(x, d)
			blas32.Scal(coef, d)
		case v0 == dest:
			blas32.Axpy(coef, x, d)
		case v1 == dest:
			blas32.Scal(coef, d)
			blas32.Axpy(1, sliceVec(v0.Data[s:t]), d)
		default:
			blas32.Copy(sliceVec(v0.Data[s:t]), d)
			blas32.Axpy(coef, x, d)
		}
	})
}

// AbsNorms reduces a field to its average and maximum absolute value, the
// residual probe's two numbers. Per slice, blas32 supplies the absolute
// sum (Asum) and the largest-magnitude element (Iamax); slices combine in
// float64.
func (e *Engine) AbsNorms(v *volume.Volume) (avg, max float64) {
	wh := v.W * v.H
	sums := make([]float64, v.D)
	maxs := make([]float64, v.D)
	e.q.ParallelForZ(v.D, func(z0, z1 int) {
		for z := z0; z < z1; z++ {
			s := z * wh
			x := sliceVec(v.Data[s : s+wh])
			sums[z] = float64(blas32.Asum(x))
			maxs[z] = math.Abs(float64(v.Data[s+blas32.Iamax(x)]))
		}
	})
	var total float64
	for z := 0; z < v.D; z++ {
		total += sums[z]
		if maxs[z] > max {
			max = maxs[z]
		}
	}
	return total / float64(v.Len()), max
}
