package sim

import (
	"math"

	"github.com/pthm-cable/plume/config"
)

// StartImpulse begins a manual hotspot at normalized [-1,1] floor
// coordinates; it overrides the auto emitter until StopImpulse.
func (s *Simulator) StartImpulse(x, y float32) {
	s.manualImpulse = &[2]float32{x, y}
}

// UpdateImpulse moves the manual hotspot; no-op when not impulsing.
func (s *Simulator) UpdateImpulse(x, y float32) {
	if s.manualImpulse != nil {
		*s.manualImpulse = [2]float32{x, y}
	}
}

// StopImpulse ends the manual hotspot.
func (s *Simulator) StopImpulse() {
	s.manualImpulse = nil
}

// IsImpulsing reports whether a manual hotspot is active.
func (s *Simulator) IsImpulsing() bool { return s.manualImpulse != nil }

// applyImpulse injects density and temperature at the emitter. The auto
// hotspot orbits the emit position with the time-stretch phase; a manual
// hotspot maps the [-1,1] input onto the floor instead. In buoyant-jet
// mode an outward velocity pulse fires on odd stretch periods.
func (s *Simulator) applyImpulse(elapsedSeconds float64, dt float32) {
	cfg := s.cfg
	pos := cfg.Derived.EmitCell
	radius := cfg.Derived.SplatRadius
	stretch := float64(cfg.Time.TimeStretch) + 1e-5

	phase := elapsedSeconds / stretch * 2 * math.Pi
	sinFactor := float32(math.Sin(phase))
	cosFactor := float32(math.Cos(phase))
	hotspot := [3]float32{
		cosFactor*radius*0.8 + pos[0],
		0,
		sinFactor*radius*0.8 + pos[2],
	}

	if s.manualImpulse != nil {
		mi := *s.manualImpulse
		hotspot = [3]float32{
			0.5 * float32(s.w) * (mi[0] + 1),
			0,
			0.5 * float32(s.d) * (mi[1] + 1),
		}
	} else if !cfg.Impulse.AutoImpulse {
		return
	}

	mode := cfg.Impulse.Mode
	if mode == config.ImpulseBuoyantJet {
		pos[1] = radius + 2
	}

	switch mode {
	case config.ImpulseSphere:
		s.engine.ImpulseSphere(s.density, pos, radius, cfg.Impulse.Density)
		s.engine.ImpulseSphere(s.temperature, pos, radius, cfg.Impulse.Temperature)
	case config.ImpulseFlyingBall:
		center := [3]float32{hotspot[0], float32(s.h) * 0.5, hotspot[2]}
		s.engine.ImpulseSphere(s.density, center, radius, cfg.Impulse.Density)
		s.engine.ImpulseSphere(s.temperature, center, radius, cfg.Impulse.Temperature)
	default:
		s.engine.Impulse(s.density, pos, hotspot, radius, cfg.Impulse.Density)
		s.engine.Impulse(s.temperature, pos, hotspot, radius, cfg.Impulse.Temperature)
	}

	if mode == config.ImpulseBuoyantJet {
		if t := int(elapsedSeconds / stretch); t%2 == 1 {
			coef := float32(math.Sin(elapsedSeconds * 2 * 2 * math.Pi))
			initialVelocity := (1 + coef*0.5) * cfg.Impulse.Velocity
			s.engine.Impulse(s.velocity.X, pos, hotspot, radius, initialVelocity)
		}
	}
}
