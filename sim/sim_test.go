package sim

import (
	"math"
	"testing"

	"github.com/pthm-cable/plume/config"
	"github.com/pthm-cable/plume/kernels"
	"github.com/pthm-cable/plume/volume"
)

// testConfig builds a 32^3 configuration with h = 1/32 and quiet
// defaults; tests flip the fields they exercise.
func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Grid = config.GridConfig{
		Width: 32, Height: 32, Depth: 32,
		DomainSize: 1.0,
		ByteWidth:  4,
		Staggered:  true,
	}
	cfg.Time = config.TimeConfig{MaxTimeStep: 0.333, TimeStretch: 3.0}
	cfg.Solver = config.SolverConfig{
		Method:                     config.PoissonFullMultigrid,
		Advection:                  config.SemiLagrangian,
		NumJacobiIterations:        40,
		NumMultigridIterations:     2,
		NumFullMultigridIterations: 2,
		NumMGPCGIterations:         4,
		MinGridWidth:               8,
	}
	cfg.Impulse = config.ImpulseConfig{
		Mode:              config.ImpulseHotFloor,
		Temperature:       0,
		Density:           1.0,
		SplatRadiusFactor: 0.125,
		EmitPosition:      [3]float32{0.5, 0, 0.5},
	}
	cfg.Smoke = config.SmokeConfig{Buoyancy: 1.0, Weight: 0.05}
	cfg.Telemetry = config.TelemetryConfig{SampleWindow: 20}
	cfg.ComputeDerived()
	return cfg
}

func newTestSimulator(t *testing.T, cfg *config.Config) (*Simulator, *kernels.Queue) {
	t.Helper()
	queue := kernels.NewQueue()
	engine := kernels.NewEngine(queue)
	s, err := NewSimulator(engine, cfg)
	if err != nil {
		t.Fatalf("creating simulator: %v", err)
	}
	return s, queue
}

func maxAbs(v *volume.Volume) float64 {
	var max float64
	for _, f := range v.Data {
		if a := math.Abs(float64(f)); a > max {
			max = a
		}
	}
	return max
}

func TestIdleFrameStaysZero(t *testing.T) {
	cfg := testConfig()
	cfg.Impulse.AutoImpulse = false
	s, q := newTestSimulator(t, cfg)
	defer q.Close()

	s.Update(0.02, 0, 0)

	if m := maxAbs(s.DensityField()); m != 0 {
		t.Errorf("density nonzero after idle frame: %g", m)
	}
	if m := maxAbs(s.Temperature()); m != 0 {
		t.Errorf("temperature nonzero after idle frame: %g", m)
	}
	u := s.Velocity()
	if maxAbs(u.X) != 0 || maxAbs(u.Y) != 0 || maxAbs(u.Z) != 0 {
		t.Error("velocity nonzero after idle frame")
	}
}

func TestSingleImpulseSplatsDensity(t *testing.T) {
	cfg := testConfig()
	cfg.Impulse.AutoImpulse = true
	s, q := newTestSimulator(t, cfg)
	defer q.Close()

	s.Update(0.02, 0, 0)

	density := s.DensityField()
	max := maxAbs(density)
	if max < 0.8 || max > float64(cfg.Impulse.Density)+1e-5 {
		t.Errorf("splat peak %g outside [0.8, %g]", max, cfg.Impulse.Density)
	}

	// Outside the splat disc the field stays empty.
	if v := density.At(2, 2, 2); v != 0 {
		t.Errorf("density leaked to a far corner: %g", v)
	}

	// Nothing forced the velocity, so the projected field stays
	// divergence-free well under the 1e-4 floor.
	engine := kernels.NewEngine(q)
	engine.SetStaggered(true)
	div := volume.MustNewVolume(32, 32, 32, 4)
	engine.Divergence(div, s.Velocity(), cfg.Derived.CellSize)
	if m := maxAbs(div); m >= 1e-4 {
		t.Errorf("post-projection divergence %g, want < 1e-4", m)
	}
}

// seedWarmDisc writes ambient+10 into a radius-4 disc at the given height.
func seedWarmDisc(temp *volume.Volume, yLevel int, ambient float32) {
	c := float32(temp.W) / 2
	for z := 0; z < temp.D; z++ {
		for x := 0; x < temp.W; x++ {
			dx := float32(x) + 0.5 - c
			dz := float32(z) + 0.5 - c
			if dx*dx+dz*dz <= 16 {
				temp.Set(x, yLevel, z, ambient+10)
			}
		}
	}
}

// temperatureCentroidY returns the temperature-weighted mean height.
func temperatureCentroidY(temp *volume.Volume) float64 {
	var sum, weighted float64
	for z := 0; z < temp.D; z++ {
		for y := 0; y < temp.H; y++ {
			for x := 0; x < temp.W; x++ {
				v := float64(temp.At(x, y, z))
				sum += v
				weighted += v * (float64(y) + 0.5)
			}
		}
	}
	if sum == 0 {
		return 0
	}
	return weighted / sum
}

func TestBuoyancyRaisesCentroid(t *testing.T) {
	cfg := testConfig()
	cfg.Impulse.AutoImpulse = false
	s, q := newTestSimulator(t, cfg)
	defer q.Close()

	seedWarmDisc(s.Temperature(), 2, cfg.Smoke.AmbientTemperature)
	start := temperatureCentroidY(s.Temperature())

	prev := start
	elapsed := 0.0
	for frame := 0; frame < 30; frame++ {
		s.Update(0.02, elapsed, frame)
		elapsed += 0.02
		c := temperatureCentroidY(s.Temperature())
		if c < prev-1e-4 {
			t.Fatalf("centroid fell at frame %d: %f -> %f", frame, prev, c)
		}
		prev = c
	}
	if prev-start < 0.5 {
		t.Errorf("centroid rose only %f cells over 30 frames", prev-start)
	}
}

func TestVorticityConfinementDevelopsCurl(t *testing.T) {
	cfg := testConfig()
	cfg.Impulse.AutoImpulse = false
	cfg.Smoke.VorticityConfinement = 0.1
	s, q := newTestSimulator(t, cfg)
	defer q.Close()

	seedWarmDisc(s.Temperature(), 2, cfg.Smoke.AmbientTemperature)

	elapsed := 0.0
	for frame := 0; frame < 60; frame++ {
		s.Update(0.02, elapsed, frame)
		elapsed += 0.02
	}

	if s.vorticity == nil {
		t.Fatal("vorticity field never created with confinement enabled")
	}
	engine := kernels.NewEngine(q)
	engine.SetStaggered(true)
	curl, err := volume.NewVectorVolume(32, 32, 32, 4)
	if err != nil {
		t.Fatal(err)
	}
	engine.Curl(curl, s.Velocity(), cfg.Derived.CellSize)
	mag := math.Max(maxAbs(curl.X), math.Max(maxAbs(curl.Y), maxAbs(curl.Z)))
	if mag < 1e-3 {
		t.Errorf("curl magnitude %g after 60 buoyant frames, want > 1e-3", mag)
	}
}

func TestManualImpulseLifecycle(t *testing.T) {
	cfg := testConfig()
	cfg.Impulse.AutoImpulse = false
	s, q := newTestSimulator(t, cfg)
	defer q.Close()

	if s.IsImpulsing() {
		t.Error("impulsing before StartImpulse")
	}
	s.StartImpulse(0, 0)
	if !s.IsImpulsing() {
		t.Error("not impulsing after StartImpulse")
	}

	// A manual hotspot at the grid centre splats even with the auto
	// emitter off.
	s.Update(0.02, 0, 0)
	if maxAbs(s.DensityField()) == 0 {
		t.Error("manual impulse splatted nothing")
	}

	s.StopImpulse()
	if s.IsImpulsing() {
		t.Error("still impulsing after StopImpulse")
	}
}

func TestNotifyConfigChangedPropagates(t *testing.T) {
	cfg := testConfig()
	s, q := newTestSimulator(t, cfg)
	defer q.Close()

	cfg.Smoke.Buoyancy = 2.5
	cfg.Smoke.VorticityConfinement = 0.2
	s.NotifyConfigChanged()

	if s.buoyancy != 2.5 {
		t.Errorf("buoyancy not propagated: %f", s.buoyancy)
	}
	if s.vortConfCoef != 0.2 {
		t.Errorf("confinement not propagated: %f", s.vortConfCoef)
	}
}

func TestResetClearsFields(t *testing.T) {
	cfg := testConfig()
	cfg.Impulse.AutoImpulse = true
	s, q := newTestSimulator(t, cfg)
	defer q.Close()

	s.Update(0.02, 0, 0)
	if maxAbs(s.DensityField()) == 0 {
		t.Fatal("expected density after an impulse frame")
	}
	s.Reset()
	if maxAbs(s.DensityField()) != 0 {
		t.Error("density survived Reset")
	}
}
