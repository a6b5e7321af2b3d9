package sim

import (
	"github.com/pthm-cable/plume/solver"
	"github.com/pthm-cable/plume/volume"
)

// vorticityField lazily creates the vorticity triple the first frame
// confinement is enabled.
func (s *Simulator) vorticityField() *volume.VectorVolume {
	if s.vorticity == nil {
		v, err := volume.NewVectorVolume(s.w, s.h, s.d, s.cfg.Grid.ByteWidth)
		if err != nil {
			panic(err)
		}
		s.vorticity = v
	}
	return s.vorticity
}

// vortConfField lazily creates the confinement force triple.
func (s *Simulator) vortConfField() *volume.VectorVolume {
	if s.vortConf == nil {
		v, err := volume.NewVectorVolume(s.w, s.h, s.d, s.cfg.Grid.ByteWidth)
		if err != nil {
			panic(err)
		}
		s.vortConf = v
	}
	return s.vortConf
}

// restoreVorticity re-injects the rotational detail the projection and
// advection dissipated: build the confinement force from the
// pre-advection curl, evolve the vorticity (stretch, decay, advect),
// compare against the curl of the projected field, solve a
// streamfunction for the difference, and add its curl back.
func (s *Simulator) restoreVorticity(dt float32) {
	if s.vortConfCoef <= 0 {
		return
	}
	e := s.engine
	h := s.cellSize
	vort := s.vorticityField()
	conf := s.vortConfField()

	e.Curl(vort, s.velocityPrime, h)
	e.BuildVorticityConfinement(conf, vort, s.vortConfCoef*dt, h)

	temp := &volume.VectorVolume{X: s.general1c, Y: s.general1d, Z: s.general1e}
	e.StretchVortices(temp, vort, s.velocityPrime, dt, h)

	e.Divergence(s.general1f, s.velocityPrime, h)
	e.DecayVortices(temp, s.general1f, dt)

	e.AdvectVorticity(vort, temp, s.general1f, s.velocityPrime, dt)

	// The lost vorticity: curl of the projected field minus the evolved
	// estimate, solved for a streamfunction per axis.
	e.Curl(temp, s.velocity, h)
	e.DeltaVorticity(temp, vort)
	s.solvePsi(vort, temp)
	e.AddCurlPsi(s.velocity, vort, h)

	e.ApplyVorticityConfinement(s.velocity, conf)
}

// solvePsi solves the three independent streamfunction systems, writing
// psi over the vorticity triple.
func (s *Simulator) solvePsi(psi, rhs *volume.VectorVolume) {
	if s.psiSolver == nil {
		ps := solver.NewMultigrid(s.engine)
		minGrid := s.minGridWidth(psiMinGridWidth)
		if err := ps.Initialize(s.w, s.h, s.d, s.cfg.Grid.ByteWidth, minGrid); err != nil {
			panic(err)
		}
		s.psiSolver = ps
	}
	iterations := s.cfg.Solver.NumMultigridIterations
	for i := 0; i < 3; i++ {
		p := psi.Component(i)
		p.Clear()
		s.psiSolver.Solve(p, rhs.Component(i), s.cellSize, iterations)
	}
}
