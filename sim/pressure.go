package sim

import (
	"github.com/pthm-cable/plume/config"
	"github.com/pthm-cable/plume/solver"
	"github.com/pthm-cable/plume/volume"
)

// psiMinGridWidth is the coarsest-level floor for the streamfunction
// solver; the psi systems tolerate a deeper hierarchy than pressure.
const psiMinGridWidth = 8

// minGridWidth clamps the configured coarsest-level floor so the
// hierarchy always has at least two levels on small grids.
func (s *Simulator) minGridWidth(configured int) int {
	maxUsable := min3(s.w, s.h, s.d) / 2
	if configured > maxUsable {
		configured = maxUsable
	}
	if configured < 2 {
		configured = 2
	}
	return configured
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

// initPressureSolver builds the configured solver and its hierarchy.
func (s *Simulator) initPressureSolver() error {
	cfg := s.cfg
	minGrid := s.minGridWidth(cfg.Solver.MinGridWidth)

	var ps solver.Solver
	switch cfg.Solver.Method {
	case config.PoissonMultigrid:
		ps = solver.NewMultigrid(s.engine)
	case config.PoissonFullMultigrid:
		ps = solver.NewFullMultigrid(s.engine)
	case config.PoissonMGPCG:
		ps = solver.NewMGPCG(s.engine)
	default:
		ps = solver.NewDampedJacobi(s.engine)
	}
	if err := ps.Initialize(s.w, s.h, s.d, cfg.Grid.ByteWidth, minGrid); err != nil {
		return err
	}
	s.pressureSolver = ps
	return nil
}

// solvePressure runs the configured solver with its iteration count.
func (s *Simulator) solvePressure(p, b *volume.Volume) {
	cfg := s.cfg
	var iterations int
	switch cfg.Solver.Method {
	case config.PoissonMultigrid:
		iterations = cfg.Solver.NumMultigridIterations
	case config.PoissonFullMultigrid:
		iterations = cfg.Solver.NumFullMultigridIterations
	case config.PoissonMGPCG:
		iterations = cfg.Solver.NumMGPCGIterations
	default:
		iterations = cfg.Solver.NumJacobiIterations
	}
	s.pressureSolver.Solve(p, b, s.cellSize, iterations)
}
