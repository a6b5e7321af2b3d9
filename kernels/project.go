package kernels

import "github.com/pthm-cable/plume/volume"

// Divergence computes d = div(u) into out. Collocated grids use central
// differences over 2h with reflective boundary substitution: the missing
// neighbour at a minus face turns the difference into +(neighbor+centre),
// at a plus face into -(centre+neighbor). Staggered grids difference the
// two bounding faces over h, with wall faces treated as zero flux. The
// outflow flag opens the y-minus boundary (plain clamped reads instead).
func (e *Engine) Divergence(out *volume.Volume, u *volume.VectorVolume, h float32) {
	if e.staggered {
		e.divergenceStaggered(out, u, h)
		return
	}
	e.divergenceCollocated(out, u, h)
}

func (e *Engine) divergenceCollocated(out *volume.Volume, u *volume.VectorVolume, h float32) {
	w, hh, d := out.W, out.H, out.D
	halfInvH := 0.5 / h
	e.q.ParallelForZ(d, func(z0, z1 int) {
		for z := z0; z < z1; z++ {
			for y := 0; y < hh; y++ {
				for x := 0; x < w; x++ {
					var dx, dy, dz float32

					switch {
					case x == 0:
						dx = u.X.At(x+1, y, z) + u.X.At(x, y, z)
					case x == w-1:
						dx = -(u.X.At(x, y, z) + u.X.At(x-1, y, z))
					default:
						dx = u.X.At(x+1, y, z) - u.X.At(x-1, y, z)
					}

					switch {
					case y == 0 && e.outflow:
						dy = u.Y.At(x, y+1, z) - u.Y.At(x, y, z)
					case y == 0:
						dy = u.Y.At(x, y+1, z) + u.Y.At(x, y, z)
					case y == hh-1:
						dy = -(u.Y.At(x, y, z) + u.Y.At(x, y-1, z))
					default:
						dy = u.Y.At(x, y+1, z) - u.Y.At(x, y-1, z)
					}

					switch {
					case z == 0:
						dz = u.Z.At(x, y, z+1) + u.Z.At(x, y, z)
					case z == d-1:
						dz = -(u.Z.At(x, y, z) + u.Z.At(x, y, z-1))
					default:
						dz = u.Z.At(x, y, z+1) - u.Z.At(x, y, z-1)
					}

					out.Set(x, y, z, (dx+dy+dz)*halfInvH)
				}
			}
		}
	})
}

func (e *Engine) divergenceStaggered(out *volume.Volume, u *volume.VectorVolume, h float32) {
	w, hh, d := out.W, out.H, out.D
	invH := 1 / h
	e.q.ParallelForZ(d, func(z0, z1 int) {
		for z := z0; z < z1; z++ {
			for y := 0; y < hh; y++ {
				for x := 0; x < w; x++ {
					// Component index i holds the minus-face value; the
					// cell's fluxes are faces i and i+1.
					var east, north, up float32
					if x < w-1 {
						east = u.X.At(x+1, y, z)
					}
					if y < hh-1 {
						north = u.Y.At(x, y+1, z)
					}
					if z < d-1 {
						up = u.Z.At(x, y, z+1)
					}
					dx := east - u.X.At(x, y, z)
					dy := north - u.Y.At(x, y, z)
					dz := up - u.Z.At(x, y, z)
					out.Set(x, y, z, (dx+dy+dz)*invH)
				}
			}
		}
	})
}

// SubtractGradient rectifies the velocity in place: u -= grad(p) scaled by
// the same coefficient the divergence used. Pressure reads clamp
// (homogeneous Neumann); wall-normal velocity at boundary cells is masked
// to zero afterwards (free slip), except the open floor when outflow is
// set.
func (e *Engine) SubtractGradient(u *volume.VectorVolume, p *volume.Volume, h float32) {
	if e.staggered {
		e.subtractGradientStaggered(u, p, h)
	} else {
		e.subtractGradientCollocated(u, p, h)
	}
	e.maskBoundary(u)
}

func (e *Engine) subtractGradientCollocated(u *volume.VectorVolume, p *volume.Volume, h float32) {
	w, hh, d := p.W, p.H, p.D
	scale := 0.5 / h
	e.q.ParallelForZ(d, func(z0, z1 int) {
		for z := z0; z < z1; z++ {
			for y := 0; y < hh; y++ {
				for x := 0; x < w; x++ {
					gx := p.At(x+1, y, z) - p.At(x-1, y, z)
					gy := p.At(x, y+1, z) - p.At(x, y-1, z)
					gz := p.At(x, y, z+1) - p.At(x, y, z-1)
					i := p.Idx(x, y, z)
					u.X.Data[i] -= scale * gx
					u.Y.Data[i] -= scale * gy
					u.Z.Data[i] -= scale * gz
				}
			}
		}
	})
}

func (e *Engine) subtractGradientStaggered(u *volume.VectorVolume, p *volume.Volume, h float32) {
	w, hh, d := p.W, p.H, p.D
	scale := 1 / h
	e.q.ParallelForZ(d, func(z0, z1 int) {
		for z := z0; z < z1; z++ {
			for y := 0; y < hh; y++ {
				for x := 0; x < w; x++ {
					// Face i sits between cells i-1 and i.
					i := p.Idx(x, y, z)
					u.X.Data[i] -= scale * (p.At(x, y, z) - p.At(x-1, y, z))
					u.Y.Data[i] -= scale * (p.At(x, y, z) - p.At(x, y-1, z))
					u.Z.Data[i] -= scale * (p.At(x, y, z) - p.At(x, y, z-1))
				}
			}
		}
	})
}

// maskBoundary zeroes the wall-normal velocity on each closed boundary
// (free slip). On the staggered grid only the stored minus-wall faces
// exist (the plus-wall flux is implicit and already zero); collocated
// grids mask the component in both boundary cell layers.
func (e *Engine) maskBoundary(u *volume.VectorVolume) {
	w, h, d := u.X.W, u.X.H, u.X.D
	staggered := e.staggered
	e.q.ParallelForZ(d, func(z0, z1 int) {
		for z := z0; z < z1; z++ {
			for y := 0; y < h; y++ {
				u.X.Set(0, y, z, 0)
				if !staggered {
					u.X.Set(w-1, y, z, 0)
				}
			}
			for x := 0; x < w; x++ {
				if !e.outflow {
					u.Y.Set(x, 0, z, 0)
				}
				if !staggered {
					u.Y.Set(x, h-1, z, 0)
				}
			}
			if z == 0 || (!staggered && z == d-1) {
				for y := 0; y < h; y++ {
					for x := 0; x < w; x++ {
						u.Z.Set(x, y, z, 0)
					}
				}
			}
		}
	})
}
