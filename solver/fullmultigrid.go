package solver

import (
	"fmt"

	"github.com/pthm-cable/plume/kernels"
	"github.com/pthm-cable/plume/volume"
)

// fmgMinWidth is the finest-grid width below which the cascade degrades
// to a single preconditioner-style V-cycle.
const fmgMinWidth = 32

// fmgLevel is one rung of the full multigrid cascade: solution,
// right-hand side, and relaxation scratch at a halved resolution.
type fmgLevel struct {
	u, b, t *volume.Volume
}

// FullMultigrid descends the problem to the coarsest grid, solves there,
// and rises level by level, seeding each finer level with the prolongated
// coarse solution and smoothing it with nested V-cycles. The cascade
// yields a better finest-level initial guess than a single V-cycle from
// zero at the same total work.
type FullMultigrid struct {
	engine *kernels.Engine
	nested *Multigrid

	levels  []fmgLevel
	w, h, d int

	numNestedIterations int
}

// NewFullMultigrid creates an FMG solver with its own nested V-cycle
// solver on the given engine.
func NewFullMultigrid(engine *kernels.Engine) *FullMultigrid {
	nested := NewMultigrid(engine)
	nested.SetZeroGuessOnFirstCycle(false)
	return &FullMultigrid{
		engine:              engine,
		nested:              nested,
		numNestedIterations: 2,
	}
}

// SetNestedSolverIterations overrides the V-cycle count run per level on
// the way up.
func (s *FullMultigrid) SetNestedSolverIterations(n int) {
	s.numNestedIterations = n
}

// Initialize builds the nested solver's hierarchy and the cascade's own
// pyramid.
func (s *FullMultigrid) Initialize(w, h, d, byteWidth, minGridWidth int) error {
	if len(s.levels) > 0 {
		return fmt.Errorf("solver: full multigrid already initialized")
	}
	if err := s.nested.Initialize(w, h, d, byteWidth, minGridWidth); err != nil {
		return err
	}
	s.w, s.h, s.d = w, h, d

	// Level 0 borrows the caller's u and b at Solve time and owns only
	// the relaxation scratch.
	t0, err := volume.NewVolume(w, h, d, byteWidth)
	if err != nil {
		return err
	}
	s.levels = append(s.levels, fmgLevel{t: t0})

	minDim := min3(w, h, d)
	scale := 2
	for minDim/scale > minGridWidth-1 {
		lw, lh, ld := w/scale, h/scale, d/scale
		lvl := fmgLevel{}
		for _, dst := range []**volume.Volume{&lvl.u, &lvl.b, &lvl.t} {
			v, err := volume.NewVolume(lw, lh, ld, byteWidth)
			if err != nil {
				s.levels = nil
				return err
			}
			*dst = v
		}
		s.levels = append(s.levels, lvl)
		scale <<= 1
	}
	return nil
}

// relaxTimes runs double-buffered sweeps on a level, result in lvl.u.
func (s *FullMultigrid) relaxTimes(lvl *fmgLevel, h float32, times int) {
	for i := 0; i < times; i++ {
		s.engine.Relax(lvl.t, lvl.u, lvl.b, h)
		lvl.u.Data, lvl.t.Data = lvl.t.Data, lvl.u.Data
	}
}

// Solve runs FMG iterations on (u, b) in place.
func (s *FullMultigrid) Solve(u, b *volume.Volume, h float32, iterations int) {
	checkDims(u, b, s.w, s.h, s.d)

	if u.W < fmgMinWidth || len(s.levels) < 2 {
		s.nested.SolveAsPreconditioner(u, b, h)
		return
	}
	for i := 0; i < iterations; i++ {
		s.iterate(u, b, h, i == 0)
	}
}

// iterate is one full cascade. On the first iteration u carries no usable
// guess: it is seeded by the zero-guess relaxation, carried down by plain
// downsampling, and b is restricted by full weighting. Later iterations
// restrict the current solution itself and leave b in place.
func (s *FullMultigrid) iterate(u, b *volume.Volume, h float32, applyInitialGuess bool) {
	t0 := s.levels[0].t
	s.levels[0].u = u
	s.levels[0].b = b
	defer func() { s.levels[0] = fmgLevel{t: t0} }()

	last := len(s.levels) - 1
	levelH := h

	for i := 0; i < last; i++ {
		fine := &s.levels[i]
		coarse := &s.levels[i+1]

		if i == 0 && applyInitialGuess {
			s.engine.RelaxWithZeroGuess(fine.u, fine.b, levelH)
		} else {
			s.relaxTimes(fine, levelH, 1)
		}

		if applyInitialGuess {
			s.engine.RestrictDownsample(coarse.u, fine.u)
			s.engine.Restrict(coarse.b, fine.b)
		} else {
			s.engine.Restrict(coarse.u, fine.u)
		}

		levelH *= 2
	}

	coarsest := &s.levels[last]
	s.engine.RelaxWithZeroGuess(coarsest.u, coarsest.b, levelH)
	s.relaxTimes(coarsest, levelH, coarsestSweeps-1)

	for j := last - 1; j >= 0; j-- {
		fine := &s.levels[j]
		coarse := &s.levels[j+1]
		levelH *= 0.5

		s.engine.ProlongateOverwrite(fine.u, coarse.u)
		s.nested.Solve(fine.u, fine.b, levelH, s.numNestedIterations)
	}
}
