package solver

import (
	"github.com/pthm-cable/plume/kernels"
	"github.com/pthm-cable/plume/volume"
)

// MemPiece slots used by the conjugate gradient loop.
const (
	slotAlpha = 0
	slotBeta  = 1
	slotRho   = 2
	slotSigma = 3 // <s, As>, alpha's denominator
)

// MGPCG is conjugate gradient on the 7-point Laplacian with one
// multigrid V-cycle as the preconditioner. Reduction results stay in a
// resident MemPiece between kernels; the loop reads its slots to form
// alpha and beta and to stop on a zero rho or <s, As>.
type MGPCG struct {
	engine         *kernels.Engine
	preconditioner *Multigrid

	w, h, d  int
	residual *volume.Volume
	aux      *volume.Volume // A*s, then M^-1 r; both uses are disjoint
	search   *volume.Volume
	scalars  *volume.MemPiece
}

// NewMGPCG creates an MGPCG solver on the given engine.
func NewMGPCG(engine *kernels.Engine) *MGPCG {
	return &MGPCG{engine: engine, preconditioner: NewMultigrid(engine)}
}

// Initialize builds the preconditioner hierarchy and the CG work set.
func (s *MGPCG) Initialize(w, h, d, byteWidth, minGridWidth int) error {
	if err := s.preconditioner.Initialize(w, h, d, byteWidth, minGridWidth); err != nil {
		return err
	}
	var err error
	if s.residual, err = volume.NewVolume(w, h, d, byteWidth); err != nil {
		return err
	}
	if s.aux, err = volume.NewVolume(w, h, d, byteWidth); err != nil {
		return err
	}
	if s.search, err = volume.NewVolume(w, h, d, byteWidth); err != nil {
		return err
	}
	if s.scalars, err = volume.NewMemPiece(4); err != nil {
		return err
	}
	s.w, s.h, s.d = w, h, d
	return nil
}

// Solve runs `iterations` preconditioned CG steps on (u, b), u being both
// the initial guess and the result.
func (s *MGPCG) Solve(u, b *volume.Volume, h float32, iterations int) {
	checkDims(u, b, s.w, s.h, s.d)
	e := s.engine
	r, z, p := s.residual, s.aux, s.search

	// r = b - A u
	e.Residual(r, u, b, h)

	// z = M^-1 r, s0 = z, rho = <r, z>
	s.preconditioner.SolveAsPreconditioner(z, r, h)
	p.CopyFrom(z)
	e.DotProduct(s.scalars, slotRho, r, z)
	if s.scalars.Load(slotRho) == 0 {
		// Already at the solution; u must stay untouched.
		return
	}

	for k := 0; k < iterations; k++ {
		// q = A s; alpha = rho / <s, q>
		e.ApplyStencil(z, p, h)
		e.DotProduct(s.scalars, slotSigma, p, z)
		if s.scalars.Load(slotSigma) == 0 {
			return
		}
		s.scalars.Store(slotAlpha, s.scalars.Load(slotRho)/s.scalars.Load(slotSigma))

		// u += alpha s ; r -= alpha q
		e.ScaledAdd(u, u, p, s.scalars, slotAlpha, 1)
		e.ScaledAdd(r, r, z, s.scalars, slotAlpha, -1)

		if k == iterations-1 {
			break
		}

		// z = M^-1 r; beta = <r, z> / rho
		s.preconditioner.SolveAsPreconditioner(z, r, h)
		rho := s.scalars.Load(slotRho)
		e.DotProduct(s.scalars, slotRho, r, z)
		s.scalars.Store(slotBeta, s.scalars.Load(slotRho)/rho)

		// s = z + beta s
		e.ScaledAdd(p, z, p, s.scalars, slotBeta, 1)
	}
}
