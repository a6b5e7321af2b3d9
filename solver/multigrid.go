package solver

import (
	"fmt"

	"github.com/pthm-cable/plume/kernels"
	"github.com/pthm-cable/plume/volume"
)

// coarsestSweeps is the total relaxation count on the coarsest level of a
// V-cycle: one zero-guess sweep plus fifteen plain sweeps.
const coarsestSweeps = 16

// mgLevel is one rung of the multigrid hierarchy: solution, right-hand
// side, and residual scratch. Level 0 borrows u and b from the caller and
// owns only the residual.
type mgLevel struct {
	u, b, r *volume.Volume
}

// Multigrid is the geometric multigrid V-cycle solver. One Solve
// iteration walks the hierarchy down (relax, residual, restrict) and back
// up (prolongate, relax), with relaxation counts growing toward the
// coarse levels.
type Multigrid struct {
	engine *kernels.Engine

	levels  []mgLevel
	w, h, d int

	// Sweeps on the entry level of each cycle before restricting.
	finestSweeps int
	// Route the first cycle of a Solve through the zero-guess
	// relaxation instead of treating u as a warm start.
	zeroGuessFirst bool
}

// NewMultigrid creates a V-cycle solver on the given engine.
func NewMultigrid(engine *kernels.Engine) *Multigrid {
	return &Multigrid{engine: engine, finestSweeps: 2, zeroGuessFirst: true}
}

// SetZeroGuessOnFirstCycle selects whether the first cycle of a Solve
// discards the incoming u (zero-guess entry) or smooths it as a warm
// start.
func (s *Multigrid) SetZeroGuessOnFirstCycle(zero bool) {
	s.zeroGuessFirst = zero
}

// Initialize builds the coarsening hierarchy. Level dimensions halve
// until the smallest dimension of the next level would drop below
// minGridWidth. Every level dimension stays at least 2.
func (s *Multigrid) Initialize(w, h, d, byteWidth, minGridWidth int) error {
	if len(s.levels) > 0 {
		return fmt.Errorf("solver: multigrid already initialized")
	}
	s.w, s.h, s.d = w, h, d

	// Level 0 residual; u and b are bound at Solve time.
	r0, err := volume.NewVolume(w, h, d, byteWidth)
	if err != nil {
		return err
	}
	s.levels = append(s.levels, mgLevel{r: r0})

	minDim := min3(w, h, d)
	scale := 2
	for minDim/scale > minGridWidth-1 {
		lw, lh, ld := w/scale, h/scale, d/scale
		lvl := mgLevel{}
		for _, dst := range []**volume.Volume{&lvl.u, &lvl.b, &lvl.r} {
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
	if len(s.levels) < 2 {
		s.levels = nil
		return fmt.Errorf("solver: grid %dx%dx%d too small for multigrid with minimum width %d",
			w, h, d, minGridWidth)
	}
	return nil
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

// levelFor locates the hierarchy level whose dimensions match v. Full
// multigrid invokes the nested solver on its own coarser pyramids, so a
// cycle may start below level 0.
func (s *Multigrid) levelFor(v *volume.Volume) int {
	for i := range s.levels {
		w, h, d := s.w>>i, s.h>>i, s.d>>i
		if v.W == w && v.H == h && v.D == d {
			return i
		}
	}
	panic(fmt.Sprintf("solver: no multigrid level of size %dx%dx%d", v.W, v.H, v.D))
}

// relaxTimes runs double-buffered damped Jacobi sweeps on a level,
// leaving the result in lvl.u. The residual buffer serves as the
// ping-pong partner; it is rewritten by the next residual computation.
func (s *Multigrid) relaxTimes(lvl *mgLevel, h float32, times int) {
	for i := 0; i < times; i++ {
		s.engine.Relax(lvl.r, lvl.u, lvl.b, h)
		lvl.u.Data, lvl.r.Data = lvl.r.Data, lvl.u.Data
	}
}

// Solve runs V-cycles on (u, b) in place.
func (s *Multigrid) Solve(u, b *volume.Volume, h float32, iterations int) {
	start := s.levelFor(u)
	if start == 0 {
		checkDims(u, b, s.w, s.h, s.d)
	}
	for i := 0; i < iterations; i++ {
		s.iterate(u, b, h, start, i == 0 && s.zeroGuessFirst)
	}
}

// SolveAsPreconditioner runs a single V-cycle from a zero guess; the
// conjugate gradient loop uses this as its M^-1 application.
func (s *Multigrid) SolveAsPreconditioner(u, b *volume.Volume, h float32) {
	s.iterate(u, b, h, s.levelFor(u), true)
}

// iterate is one V-cycle starting at hierarchy level `start`. The entry
// level temporarily borrows the caller's u and b; its own buffers (nil at
// level 0) are restored afterwards so nested full-multigrid solves do not
// leave aliases behind.
func (s *Multigrid) iterate(u, b *volume.Volume, h float32, start int, zeroGuess bool) {
	prevU, prevB := s.levels[start].u, s.levels[start].b
	s.levels[start].u = u
	s.levels[start].b = b
	defer func() {
		s.levels[start].u, s.levels[start].b = prevU, prevB
	}()

	last := len(s.levels) - 1
	timesToIterate := s.finestSweeps
	levelH := h

	for i := start; i < last; i++ {
		fine := &s.levels[i]
		coarse := &s.levels[i+1]

		if i > start || zeroGuess {
			s.engine.RelaxWithZeroGuess(fine.u, fine.b, levelH)
		} else {
			s.relaxTimes(fine, levelH, 1)
		}
		s.relaxTimes(fine, levelH, timesToIterate-1)

		s.engine.Residual(fine.r, fine.u, fine.b, levelH)
		s.engine.Restrict(coarse.b, fine.r)

		timesToIterate += 2
		levelH *= 2
	}

	coarsest := &s.levels[last]
	s.engine.RelaxWithZeroGuess(coarsest.u, coarsest.b, levelH)
	s.relaxTimes(coarsest, levelH, coarsestSweeps-1)

	for j := last - 1; j >= start; j-- {
		fine := &s.levels[j]
		coarse := &s.levels[j+1]
		timesToIterate -= 2
		levelH *= 0.5

		s.engine.Prolongate(fine.u, coarse.u)
		s.relaxTimes(fine, levelH, timesToIterate)
	}
}
