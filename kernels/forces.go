package kernels

import (
	"math"

	"github.com/pthm-cable/plume/volume"
)

// Buoyancy lifts warm cells and weighs smoke down:
//
//	uy += dt * ((T - Tamb)*sigma - kappa*rho)   where T > Tamb
//
// applied to the vertical velocity component in place.
func (e *Engine) Buoyancy(u *volume.VectorVolume, temperature, density *volume.Volume, dt, ambient, sigma, kappa float32) {
	w, h, d := temperature.W, temperature.H, temperature.D
	e.q.ParallelForZ(d, func(z0, z1 int) {
		for z := z0; z < z1; z++ {
			for y := 0; y < h; y++ {
				for x := 0; x < w; x++ {
					t := temperature.At(x, y, z)
					if t <= ambient {
						continue
					}
					i := temperature.Idx(x, y, z)
					u.Y.Data[i] += dt * ((t-ambient)*sigma - kappa*density.Data[i])
				}
			}
		}
	})
}

// Impulse splats value into f around the hotspot: cells within the radius
// in the xz-plane and a thin y band around the emitter receive
// value * max((r-d)/r, 0.5) additively.
func (e *Engine) Impulse(f *volume.Volume, pos, hotspot [3]float32, radius, value float32) {
	if value == 0 {
		return
	}
	w, h, d := f.W, f.H, f.D
	// Thin emission band around the emitter height.
	yLo := pos[1] - 1.5
	yHi := pos[1] + 1.5
	e.q.ParallelForZ(d, func(z0, z1 int) {
		for z := z0; z < z1; z++ {
			cz := float32(z) + 0.5
			for y := 0; y < h; y++ {
				cy := float32(y) + 0.5
				if cy < yLo || cy > yHi {
					continue
				}
				for x := 0; x < w; x++ {
					cx := float32(x) + 0.5
					dx := cx - hotspot[0]
					dz := cz - hotspot[2]
					dist := float32(math.Sqrt(float64(dx*dx + dz*dz)))
					if dist >= radius {
						continue
					}
					scale := (radius - dist) / radius
					if scale < 0.5 {
						scale = 0.5
					}
					f.Data[f.Idx(x, y, z)] += value * scale
				}
			}
		}
	})
}

// ImpulseSphere splats value into f inside a sphere around the emitter,
// with the same radial falloff, for the sphere and flying-ball modes.
func (e *Engine) ImpulseSphere(f *volume.Volume, center [3]float32, radius, value float32) {
	if value == 0 {
		return
	}
	w, h, d := f.W, f.H, f.D
	e.q.ParallelForZ(d, func(z0, z1 int) {
		for z := z0; z < z1; z++ {
			cz := float32(z) + 0.5
			for y := 0; y < h; y++ {
				cy := float32(y) + 0.5
				for x := 0; x < w; x++ {
					cx := float32(x) + 0.5
					dx := cx - center[0]
					dy := cy - center[1]
					dz := cz - center[2]
					dist := float32(math.Sqrt(float64(dx*dx + dy*dy + dz*dz)))
					if dist >= radius {
						continue
					}
					scale := (radius - dist) / radius
					if scale < 0.5 {
						scale = 0.5
					}
					f.Data[f.Idx(x, y, z)] += value * scale
				}
			}
		}
	})
}

// ReviseDensity caps accumulated density around the emitter, keeping the
// additive hot-floor splat from growing without bound.
func (e *Engine) ReviseDensity(density *volume.Volume, pos [3]float32, radius, limit float32) {
	w, h, d := density.W, density.H, density.D
	e.q.ParallelForZ(d, func(z0, z1 int) {
		for z := z0; z < z1; z++ {
			cz := float32(z) + 0.5
			for y := 0; y < h; y++ {
				for x := 0; x < w; x++ {
					cx := float32(x) + 0.5
					dx := cx - pos[0]
					dz := cz - pos[2]
					if dx*dx+dz*dz >= radius*radius {
						continue
					}
					i := density.Idx(x, y, z)
					if density.Data[i] > limit {
						density.Data[i] = limit
					}
				}
			}
		}
	})
}
