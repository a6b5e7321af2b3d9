// Package sim composes the stencil kernels and a pressure solver into the
// per-frame smoke simulation step. The simulator owns every field, the
// solvers, and the frame metrics; the renderer only borrows the density
// volume between frames.
package sim

import (
	"fmt"

	"github.com/pthm-cable/plume/config"
	"github.com/pthm-cable/plume/kernels"
	"github.com/pthm-cable/plume/solver"
	"github.com/pthm-cable/plume/telemetry"
	"github.com/pthm-cable/plume/volume"
)

// Simulator advances the smoke state one frame at a time.
type Simulator struct {
	cfg    *config.Config
	engine *kernels.Engine

	w, h, d  int
	cellSize float32

	velocity      *volume.VectorVolume
	velocityPrime *volume.VectorVolume
	density       *volume.Volume
	temperature   *volume.Volume

	// Generic scratch, aliased per frame: a holds the divergence, b the
	// pressure, c/d/e the vorticity temporaries, f the advection aux.
	general1a, general1b, general1c *volume.Volume
	general1d, general1e, general1f *volume.Volume

	// Lazily created when vorticity confinement is first enabled.
	vorticity *volume.VectorVolume
	vortConf  *volume.VectorVolume

	pressureSolver solver.Solver
	psiSolver      *solver.Multigrid

	metrics *telemetry.Metrics
	probe   *telemetry.ResidualProbe

	manualImpulse *[2]float32

	// Cached tuning fields, refreshed by NotifyConfigChanged.
	ambient       float32
	buoyancy      float32
	smokeWeight   float32
	tempDissip    float32
	velDissip     float32
	densityDissip float32
	vortConfCoef  float32
}

// NewSimulator allocates every fixed-size field and wires the engine.
// Allocation failure destroys partial state and surfaces as an error; the
// simulation cannot start.
func NewSimulator(engine *kernels.Engine, cfg *config.Config) (*Simulator, error) {
	g := cfg.Grid
	if g.Width <= 0 || g.Height <= 0 || g.Depth <= 0 {
		return nil, fmt.Errorf("sim: invalid grid %dx%dx%d", g.Width, g.Height, g.Depth)
	}

	s := &Simulator{
		cfg:      cfg,
		engine:   engine,
		w:        g.Width,
		h:        g.Height,
		d:        g.Depth,
		cellSize: cfg.Derived.CellSize,
		metrics:  telemetry.NewMetrics(cfg.Telemetry.SampleWindow),
		probe:    telemetry.NewResidualProbe(engine),
	}

	var err error
	if s.velocity, err = volume.NewVectorVolume(g.Width, g.Height, g.Depth, g.ByteWidth); err != nil {
		return nil, err
	}
	if s.velocityPrime, err = volume.NewVectorVolume(g.Width, g.Height, g.Depth, g.ByteWidth); err != nil {
		return nil, err
	}
	scalars := []**volume.Volume{
		&s.density, &s.temperature,
		&s.general1a, &s.general1b, &s.general1c,
		&s.general1d, &s.general1e, &s.general1f,
	}
	for _, dst := range scalars {
		if *dst, err = volume.NewVolume(g.Width, g.Height, g.Depth, g.ByteWidth); err != nil {
			return nil, err
		}
	}

	s.NotifyConfigChanged()
	if err := s.initPressureSolver(); err != nil {
		return nil, err
	}
	return s, nil
}

// NotifyConfigChanged re-reads the mutable tuning fields and pushes the
// discretization switches down to the kernels.
func (s *Simulator) NotifyConfigChanged() {
	cfg := s.cfg
	s.engine.SetStaggered(cfg.Grid.Staggered)
	s.engine.SetMidPoint(cfg.Grid.MidPoint)
	s.engine.SetOutflow(cfg.Grid.Outflow)
	s.engine.SetAdvectionMethod(advectionMethod(cfg.Solver.Advection))

	s.ambient = cfg.Smoke.AmbientTemperature
	s.buoyancy = cfg.Smoke.Buoyancy
	s.smokeWeight = cfg.Smoke.Weight
	s.tempDissip = cfg.Smoke.TemperatureDissipation
	s.velDissip = cfg.Smoke.VelocityDissipation
	s.densityDissip = cfg.Smoke.DensityDissipation
	s.vortConfCoef = cfg.Smoke.VorticityConfinement
}

func advectionMethod(m config.AdvectionMethod) kernels.AdvectionMethod {
	switch m {
	case config.MacCormackSemiLagrangian:
		return kernels.MacCormackSemiLagrangian
	case config.BFECCSemiLagrangian:
		return kernels.BFECCSemiLagrangian
	default:
		return kernels.SemiLagrangian
	}
}

// Reset clears every field and the metrics window.
func (s *Simulator) Reset() {
	s.velocity.Clear()
	s.velocityPrime.Clear()
	for _, v := range []*volume.Volume{
		s.density, s.temperature,
		s.general1a, s.general1b, s.general1c,
		s.general1d, s.general1e, s.general1f,
	} {
		v.Clear()
	}
	if s.vorticity != nil {
		s.vorticity.Clear()
	}
	if s.vortConf != nil {
		s.vortConf.Clear()
	}
	s.metrics.Reset()
}

// DensityField returns the density volume for the renderer. The handle
// stays valid across frames; the renderer reads it between updates.
func (s *Simulator) DensityField() *volume.Volume { return s.density }

// Metrics returns the frame metrics tracker.
func (s *Simulator) Metrics() *telemetry.Metrics { return s.metrics }

// Velocity exposes the velocity field for inspection in tests and tools.
func (s *Simulator) Velocity() *volume.VectorVolume { return s.velocity }

// Temperature exposes the temperature field.
func (s *Simulator) Temperature() *volume.Volume { return s.temperature }

// PressureResidual measures the residual of the most recent pressure
// solve on demand.
func (s *Simulator) PressureResidual() (avg, max float64, err error) {
	return s.probe.Measure(s.general1b, s.general1a, s.cellSize)
}

// Update advances the simulation one frame.
func (s *Simulator) Update(deltaTime float32, elapsedSeconds float64, frame int) {
	s.metrics.OnFrameUpdateBegins()

	dt := deltaTime
	if fixed := s.cfg.Time.FixedTimeStep; fixed > 0 {
		dt = fixed
	} else if dt > s.cfg.Time.MaxTimeStep {
		dt = s.cfg.Time.MaxTimeStep
	}

	// Splat new smoke.
	s.applyImpulse(elapsedSeconds, dt)
	s.metrics.OnOperationProceeded(telemetry.OpApplyImpulse)

	// Calculate divergence.
	s.engine.Divergence(s.general1a, s.velocity, s.cellSize)
	s.metrics.OnOperationProceeded(telemetry.OpComputeDivergence)

	// Solve the pressure-velocity Poisson equation.
	s.solvePressure(s.general1b, s.general1a)
	s.metrics.OnOperationProceeded(telemetry.OpSolvePressure)

	// Rectify velocity via the gradient of pressure.
	s.engine.SubtractGradient(s.velocity, s.general1b, s.cellSize)
	s.metrics.OnOperationProceeded(telemetry.OpRectifyVelocity)

	// Advect temperature and density.
	s.engine.Advect(s.general1c, s.temperature, s.general1f, s.velocity, dt, s.tempDissip)
	s.temperature, s.general1c = s.general1c, s.temperature
	s.metrics.OnOperationProceeded(telemetry.OpAdvectTemperature)

	s.engine.Advect(s.general1c, s.density, s.general1f, s.velocity, dt, s.densityDissip)
	s.density, s.general1c = s.general1c, s.density
	s.metrics.OnOperationProceeded(telemetry.OpAdvectDensity)

	// Self-advect velocity; velocityPrime keeps the pre-advection field
	// for the vorticity pass.
	s.engine.AdvectVelocity(s.velocityPrime, s.velocity, s.general1f, dt, s.velDissip)
	s.velocity, s.velocityPrime = s.velocityPrime, s.velocity
	s.metrics.OnOperationProceeded(telemetry.OpAdvectVelocity)

	// Restore vorticity lost to the projection and advection.
	s.restoreVorticity(dt)
	s.metrics.OnOperationProceeded(telemetry.OpRestoreVorticity)

	// Apply buoyancy and gravity.
	s.engine.Buoyancy(s.velocity, s.temperature, s.density, dt, s.ambient, s.buoyancy, s.smokeWeight)
	s.metrics.OnOperationProceeded(telemetry.OpApplyBuoyancy)

	s.reviseDensity()

	s.engine.Queue().Sync()
	s.metrics.OnFrameRendered()

	if every := s.cfg.Telemetry.LogEveryFrames; every > 0 && frame > 0 && frame%every == 0 {
		s.metrics.LogSummary(frame)
	}
}

// reviseDensity caps the additively splatted density around the hot-floor
// emitter so repeated impulses do not accumulate without bound.
func (s *Simulator) reviseDensity() {
	if s.cfg.Impulse.Mode != config.ImpulseHotFloor {
		return
	}
	s.engine.ReviseDensity(s.density, s.cfg.Derived.EmitCell,
		float32(s.w)*0.5, s.cfg.Impulse.Density)
}
