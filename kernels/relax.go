package kernels

import "github.com/pthm-cable/plume/volume"

// Damped Jacobi constants for the 7-point Laplacian, omega = 2/3, beta = 6.
const (
	oneMinusOmega = 1.0 / 3.0
	omegaOverBeta = 1.0 / 9.0
)

// Relax performs one damped Jacobi sweep:
//
//	out = (1/3)*in + (1/9)*(sum of neighbours - h^2*b)
//
// Out-of-range neighbours read the centre value (homogeneous Neumann).
// out and in must be distinct; relaxation is double-buffered so repeated
// sweeps are deterministic.
func (e *Engine) Relax(out, in, b *volume.Volume, h float32) {
	w, hh, d := out.W, out.H, out.D
	alpha := -(h * h)
	e.q.ParallelForZ(d, func(z0, z1 int) {
		for z := z0; z < z1; z++ {
			for y := 0; y < hh; y++ {
				for x := 0; x < w; x++ {
					sum := in.At(x-1, y, z) + in.At(x+1, y, z) +
						in.At(x, y-1, z) + in.At(x, y+1, z) +
						in.At(x, y, z-1) + in.At(x, y, z+1)
					out.Set(x, y, z,
						oneMinusOmega*in.At(x, y, z)+
							omegaOverBeta*(sum+alpha*b.At(x, y, z)))
				}
			}
		}
	})
}

// RelaxWithZeroGuess is the first damped Jacobi sweep starting from u = 0,
// collapsed to a single write: u = -(h^2/9)*b.
func (e *Engine) RelaxWithZeroGuess(u, b *volume.Volume, h float32) {
	coef := -(h * h) * omegaOverBeta
	n := u.Len()
	e.q.ParallelForZ(u.D, func(z0, z1 int) {
		s := z0 * u.W * u.H
		t := z1 * u.W * u.H
		if t > n {
			t = n
		}
		for i := s; i < t; i++ {
			u.Data[i] = coef * b.Data[i]
		}
	})
}

// Residual computes r = b - L(p) where L(p) = (sum of neighbours - 6p)/h^2
// with Neumann boundary reads.
func (e *Engine) Residual(r, p, b *volume.Volume, h float32) {
	w, hh, d := r.W, r.H, r.D
	invHSq := 1 / (h * h)
	e.q.ParallelForZ(d, func(z0, z1 int) {
		for z := z0; z < z1; z++ {
			for y := 0; y < hh; y++ {
				for x := 0; x < w; x++ {
					sum := p.At(x-1, y, z) + p.At(x+1, y, z) +
						p.At(x, y-1, z) + p.At(x, y+1, z) +
						p.At(x, y, z-1) + p.At(x, y, z+1)
					lp := (sum - 6*p.At(x, y, z)) * invHSq
					r.Set(x, y, z, b.At(x, y, z)-lp)
				}
			}
		}
	})
}

// ApplyStencil computes q = L(s), the 7-point Laplacian the solvers
// iterate on, for the conjugate gradient loop.
func (e *Engine) ApplyStencil(q, s *volume.Volume, h float32) {
	w, hh, d := q.W, q.H, q.D
	invHSq := 1 / (h * h)
	e.q.ParallelForZ(d, func(z0, z1 int) {
		for z := z0; z < z1; z++ {
			for y := 0; y < hh; y++ {
				for x := 0; x < w; x++ {
					sum := s.At(x-1, y, z) + s.At(x+1, y, z) +
						s.At(x, y-1, z) + s.At(x, y+1, z) +
						s.At(x, y, z-1) + s.At(x, y, z+1)
					q.Set(x, y, z, (sum-6*s.At(x, y, z))*invHSq)
				}
			}
		}
	})
}
