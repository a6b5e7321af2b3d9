package kernels

import "github.com/pthm-cable/plume/volume"

// backTrace returns the departure point for the cell centred at (cx,cy,cz),
// in continuous cell coordinates. Velocity is treated in cells per second.
func (e *Engine) backTrace(vel *volume.VectorVolume, cx, cy, cz float32, dt float32) (float32, float32, float32) {
	vx, vy, vz := e.velocitySample(vel, cx, cy, cz)
	if e.midPoint {
		mx := cx - 0.5*dt*vx
		my := cy - 0.5*dt*vy
		mz := cz - 0.5*dt*vz
		vx, vy, vz = e.velocitySample(vel, mx, my, mz)
	}
	return cx - dt*vx, cy - dt*vy, cz - dt*vz
}

// advectPlain performs one semi-Lagrangian pass: out = decay * in(backtraced).
func (e *Engine) advectPlain(out, in *volume.Volume, vel *volume.VectorVolume, dt, decay float32) {
	w, h, d := out.W, out.H, out.D
	e.q.ParallelForZ(d, func(z0, z1 int) {
		for z := z0; z < z1; z++ {
			for y := 0; y < h; y++ {
				for x := 0; x < w; x++ {
					cx := float32(x) + 0.5
					cy := float32(y) + 0.5
					cz := float32(z) + 0.5
					px, py, pz := e.backTrace(vel, cx, cy, cz, dt)
					out.Set(x, y, z, decay*in.Sample(px, py, pz))
				}
			}
		}
	})
}

// advectReverse traces forward in time (the corrector pass of MacCormack
// and BFECC): out = in(forward-traced), no decay.
func (e *Engine) advectReverse(out, in *volume.Volume, vel *volume.VectorVolume, dt float32) {
	e.advectPlain(out, in, vel, -dt, 1)
}

// clampToNeighborhood limits v to the value range of the 8 cells around
// the departure point, suppressing MacCormack overshoot.
func clampToNeighborhood(in *volume.Volume, px, py, pz, v float32) float32 {
	x0 := floorf(px - 0.5)
	y0 := floorf(py - 0.5)
	z0 := floorf(pz - 0.5)
	lo := in.At(x0, y0, z0)
	hi := lo
	for dz := 0; dz <= 1; dz++ {
		for dy := 0; dy <= 1; dy++ {
			for dx := 0; dx <= 1; dx++ {
				c := in.At(x0+dx, y0+dy, z0+dz)
				if c < lo {
					lo = c
				}
				if c > hi {
					hi = c
				}
			}
		}
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func floorf(f float32) int {
	i := int(f)
	if f < float32(i) {
		i--
	}
	return i
}

// Advect moves a scalar field through the velocity field for one time
// step: out = (1 - dissipation*dt) * in(c - dt*u(c)), with the scheme
// selected on the engine. aux is scratch for the corrected schemes and may
// alias nothing else in flight.
func (e *Engine) Advect(out, in, aux *volume.Volume, vel *volume.VectorVolume, dt, dissipation float32) {
	decay := 1 - dissipation*dt
	switch e.advection {
	case MacCormackSemiLagrangian:
		e.advectMacCormack(out, in, aux, vel, dt, decay)
	case BFECCSemiLagrangian:
		e.advectBFECC(out, in, aux, vel, dt, decay)
	default:
		e.advectPlain(out, in, vel, dt, decay)
	}
}

// advectMacCormack runs the predictor, reverses it, then applies the
// truncation-error correction clamped to the departure neighbourhood.
func (e *Engine) advectMacCormack(out, in, aux *volume.Volume, vel *volume.VectorVolume, dt, decay float32) {
	// Predictor into out, reversed predictor into aux.
	e.advectPlain(out, in, vel, dt, 1)
	e.advectReverse(aux, out, vel, dt)

	w, h, d := out.W, out.H, out.D
	e.q.ParallelForZ(d, func(z0, z1 int) {
		for z := z0; z < z1; z++ {
			for y := 0; y < h; y++ {
				for x := 0; x < w; x++ {
					cx := float32(x) + 0.5
					cy := float32(y) + 0.5
					cz := float32(z) + 0.5
					px, py, pz := e.backTrace(vel, cx, cy, cz, dt)
					v := out.At(x, y, z) + 0.5*(in.At(x, y, z)-aux.At(x, y, z))
					v = clampToNeighborhood(in, px, py, pz, v)
					out.Set(x, y, z, decay*v)
				}
			}
		}
	})
}

// advectBFECC builds the error-compensated source in aux, then advects it.
func (e *Engine) advectBFECC(out, in, aux *volume.Volume, vel *volume.VectorVolume, dt, decay float32) {
	// Forward then backward to estimate the error.
	e.advectPlain(out, in, vel, dt, 1)
	e.advectReverse(aux, out, vel, dt)

	n := in.Len()
	e.q.ParallelForZ(in.D, func(z0, z1 int) {
		s := z0 * in.W * in.H
		t := z1 * in.W * in.H
		if t > n {
			t = n
		}
		for i := s; i < t; i++ {
			aux.Data[i] = in.Data[i] + 0.5*(in.Data[i]-aux.Data[i])
		}
	})

	e.advectPlain(out, aux, vel, dt, decay)
}

// AdvectVelocity self-advects the velocity field component-wise into out.
// aux is scratch for the corrected schemes.
func (e *Engine) AdvectVelocity(out *volume.VectorVolume, in *volume.VectorVolume, aux *volume.Volume, dt, dissipation float32) {
	e.Advect(out.X, in.X, aux, in, dt, dissipation)
	e.Advect(out.Y, in.Y, aux, in, dt, dissipation)
	e.Advect(out.Z, in.Z, aux, in, dt, dissipation)
}
