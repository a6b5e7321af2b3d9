package kernels

import (
	"math"

	"github.com/pthm-cable/plume/volume"
)

// Curl computes the vorticity field w = curl(u) at cell centres with
// central differences over 2h; out-of-range reads clamp.
func (e *Engine) Curl(vort *volume.VectorVolume, u *volume.VectorVolume, h float32) {
	w, hh, d := vort.X.W, vort.X.H, vort.X.D
	scale := 0.5 / h
	e.q.ParallelForZ(d, func(z0, z1 int) {
		for z := z0; z < z1; z++ {
			for y := 0; y < hh; y++ {
				for x := 0; x < w; x++ {
					_, _, vzN := e.velocityAt(u, x, y+1, z)
					_, _, vzS := e.velocityAt(u, x, y-1, z)
					_, vyU, _ := e.velocityAt(u, x, y, z+1)
					_, vyD, _ := e.velocityAt(u, x, y, z-1)
					_, _, vzE := e.velocityAt(u, x+1, y, z)
					_, _, vzW := e.velocityAt(u, x-1, y, z)
					vxU, _, _ := e.velocityAt(u, x, y, z+1)
					vxD, _, _ := e.velocityAt(u, x, y, z-1)
					_, vyE, _ := e.velocityAt(u, x+1, y, z)
					_, vyW, _ := e.velocityAt(u, x-1, y, z)
					vxN, _, _ := e.velocityAt(u, x, y+1, z)
					vxS, _, _ := e.velocityAt(u, x, y-1, z)

					i := vort.X.Idx(x, y, z)
					vort.X.Data[i] = scale * ((vzN - vzS) - (vyU - vyD))
					vort.Y.Data[i] = scale * ((vxU - vxD) - (vzE - vzW))
					vort.Z.Data[i] = scale * ((vyE - vyW) - (vxN - vxS))
				}
			}
		}
	})
}

// BuildVorticityConfinement derives the confinement force
// f = coef * h * (normalize(grad|w|) x w) per cell. coef already carries
// the dt scaling from the caller.
func (e *Engine) BuildVorticityConfinement(force *volume.VectorVolume, vort *volume.VectorVolume, coef, h float32) {
	w, hh, d := force.X.W, force.X.H, force.X.D
	e.q.ParallelForZ(d, func(z0, z1 int) {
		for z := z0; z < z1; z++ {
			for y := 0; y < hh; y++ {
				for x := 0; x < w; x++ {
					gx := vortMag(vort, x+1, y, z) - vortMag(vort, x-1, y, z)
					gy := vortMag(vort, x, y+1, z) - vortMag(vort, x, y-1, z)
					gz := vortMag(vort, x, y, z+1) - vortMag(vort, x, y, z-1)
					mag := float32(math.Sqrt(float64(gx*gx + gy*gy + gz*gz)))
					i := force.X.Idx(x, y, z)
					if mag < 1e-6 {
						force.X.Data[i] = 0
						force.Y.Data[i] = 0
						force.Z.Data[i] = 0
						continue
					}
					gx /= mag
					gy /= mag
					gz /= mag
					wx := vort.X.Data[i]
					wy := vort.Y.Data[i]
					wz := vort.Z.Data[i]
					force.X.Data[i] = coef * h * (gy*wz - gz*wy)
					force.Y.Data[i] = coef * h * (gz*wx - gx*wz)
					force.Z.Data[i] = coef * h * (gx*wy - gy*wx)
				}
			}
		}
	})
}

func vortMag(v *volume.VectorVolume, x, y, z int) float32 {
	wx := v.X.At(x, y, z)
	wy := v.Y.At(x, y, z)
	wz := v.Z.At(x, y, z)
	return float32(math.Sqrt(float64(wx*wx + wy*wy + wz*wz)))
}

// ApplyVorticityConfinement adds the prebuilt confinement force to the
// velocity field. The force already carries dt.
func (e *Engine) ApplyVorticityConfinement(u *volume.VectorVolume, force *volume.VectorVolume) {
	n := u.X.Len()
	e.q.ParallelForZ(u.X.D, func(z0, z1 int) {
		s := z0 * u.X.W * u.X.H
		t := z1 * u.X.W * u.X.H
		if t > n {
			t = n
		}
		for i := s; i < t; i++ {
			u.X.Data[i] += force.X.Data[i]
			u.Y.Data[i] += force.Y.Data[i]
			u.Z.Data[i] += force.Z.Data[i]
		}
	})
}

// StretchVortices applies the vortex stretching term:
// w_out = w + dt * (w . grad) u, sampled at the cell centre.
func (e *Engine) StretchVortices(out *volume.VectorVolume, vort *volume.VectorVolume, u *volume.VectorVolume, dt, h float32) {
	w, hh, d := out.X.W, out.X.H, out.X.D
	scale := 0.5 / h
	e.q.ParallelForZ(d, func(z0, z1 int) {
		for z := z0; z < z1; z++ {
			for y := 0; y < hh; y++ {
				for x := 0; x < w; x++ {
					i := out.X.Idx(x, y, z)
					wx := vort.X.Data[i]
					wy := vort.Y.Data[i]
					wz := vort.Z.Data[i]

					exX, eyX, ezX := e.velocityAt(u, x+1, y, z)
					wxX, wyX, wzX := e.velocityAt(u, x-1, y, z)
					exY, eyY, ezY := e.velocityAt(u, x, y+1, z)
					wxY, wyY, wzY := e.velocityAt(u, x, y-1, z)
					exZ, eyZ, ezZ := e.velocityAt(u, x, y, z+1)
					wxZ, wyZ, wzZ := e.velocityAt(u, x, y, z-1)

					// (w . grad) u, central differences per component.
					sx := scale * (wx*(exX-wxX) + wy*(exY-wxY) + wz*(exZ-wxZ))
					sy := scale * (wx*(eyX-wyX) + wy*(eyY-wyY) + wz*(eyZ-wyZ))
					sz := scale * (wx*(ezX-wzX) + wy*(ezY-wzY) + wz*(ezZ-wzZ))

					out.X.Data[i] = wx + dt*sx
					out.Y.Data[i] = wy + dt*sy
					out.Z.Data[i] = wz + dt*sz
				}
			}
		}
	})
}

// DecayVortices damps vorticity where the pre-projection velocity still
// carries divergence: w *= max(0, 1 - dt*div).
func (e *Engine) DecayVortices(vort *volume.VectorVolume, div *volume.Volume, dt float32) {
	n := div.Len()
	e.q.ParallelForZ(div.D, func(z0, z1 int) {
		s := z0 * div.W * div.H
		t := z1 * div.W * div.H
		if t > n {
			t = n
		}
		for i := s; i < t; i++ {
			f := 1 - dt*div.Data[i]
			if f < 0 {
				f = 0
			}
			vort.X.Data[i] *= f
			vort.Y.Data[i] *= f
			vort.Z.Data[i] *= f
		}
	})
}

// AdvectVorticity moves the vorticity field through vel component-wise.
// aux is scratch for the corrected schemes.
func (e *Engine) AdvectVorticity(out *volume.VectorVolume, vort *volume.VectorVolume, aux *volume.Volume, vel *volume.VectorVolume, dt float32) {
	e.Advect(out.X, vort.X, aux, vel, dt, 0)
	e.Advect(out.Y, vort.Y, aux, vel, dt, 0)
	e.Advect(out.Z, vort.Z, aux, vel, dt, 0)
}

// DeltaVorticity computes delta = delta - vort in place, leaving the
// vorticity lost between the advected estimate and the projected field.
func (e *Engine) DeltaVorticity(delta *volume.VectorVolume, vort *volume.VectorVolume) {
	n := delta.X.Len()
	e.q.ParallelForZ(delta.X.D, func(z0, z1 int) {
		s := z0 * delta.X.W * delta.X.H
		t := z1 * delta.X.W * delta.X.H
		if t > n {
			t = n
		}
		for i := s; i < t; i++ {
			delta.X.Data[i] -= vort.X.Data[i]
			delta.Y.Data[i] -= vort.Y.Data[i]
			delta.Z.Data[i] -= vort.Z.Data[i]
		}
	})
}

// AddCurlPsi adds the curl of the streamfunction psi to the velocity,
// restoring the solved-for rotational component.
func (e *Engine) AddCurlPsi(u *volume.VectorVolume, psi *volume.VectorVolume, h float32) {
	w, hh, d := u.X.W, u.X.H, u.X.D
	scale := 0.5 / h
	e.q.ParallelForZ(d, func(z0, z1 int) {
		for z := z0; z < z1; z++ {
			for y := 0; y < hh; y++ {
				for x := 0; x < w; x++ {
					i := u.X.Idx(x, y, z)
					cx := scale * ((psi.Z.At(x, y+1, z) - psi.Z.At(x, y-1, z)) -
						(psi.Y.At(x, y, z+1) - psi.Y.At(x, y, z-1)))
					cy := scale * ((psi.X.At(x, y, z+1) - psi.X.At(x, y, z-1)) -
						(psi.Z.At(x+1, y, z) - psi.Z.At(x-1, y, z)))
					cz := scale * ((psi.Y.At(x+1, y, z) - psi.Y.At(x-1, y, z)) -
						(psi.X.At(x, y+1, z) - psi.X.At(x, y-1, z)))
					u.X.Data[i] += cx
					u.Y.Data[i] += cy
					u.Z.Data[i] += cz
				}
			}
		}
	})
}
