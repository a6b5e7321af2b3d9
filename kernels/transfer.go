package kernels

import "github.com/pthm-cable/plume/volume"

// Restrict transfers a fine field onto the half-resolution coarse grid by
// 27-tap full weighting of the neighbourhood around fine cell 2c: centre
// 1/8, faces 1/16, edges 1/32, corners 1/64. The weights sum to one.
func (e *Engine) Restrict(coarse, fine *volume.Volume) {
	w, h, d := coarse.W, coarse.H, coarse.D
	e.q.ParallelForZ(d, func(z0, z1 int) {
		for z := z0; z < z1; z++ {
			for y := 0; y < h; y++ {
				for x := 0; x < w; x++ {
					fx, fy, fz := 2*x, 2*y, 2*z
					var sum float32
					for dz := -1; dz <= 1; dz++ {
						for dy := -1; dy <= 1; dy++ {
							for dx := -1; dx <= 1; dx++ {
								taps := abs(dx) + abs(dy) + abs(dz)
								wgt := float32(1.0 / 8.0)
								for t := 0; t < taps; t++ {
									wgt *= 0.5
								}
								sum += wgt * fine.At(fx+dx, fy+dy, fz+dz)
							}
						}
					}
					coarse.Set(x, y, z, sum)
				}
			}
		}
	})
}

func abs(i int) int {
	if i < 0 {
		return -i
	}
	return i
}

// RestrictDownsample transfers a fine field to the coarse grid by plain
// injection of fine cell 2c, used by full multigrid to carry an absent
// initial guess down the cascade.
func (e *Engine) RestrictDownsample(coarse, fine *volume.Volume) {
	w, h, d := coarse.W, coarse.H, coarse.D
	e.q.ParallelForZ(d, func(z0, z1 int) {
		for z := z0; z < z1; z++ {
			for y := 0; y < h; y++ {
				for x := 0; x < w; x++ {
					coarse.Set(x, y, z, fine.At(2*x, 2*y, 2*z))
				}
			}
		}
	})
}

// Prolongate adds the trilinearly interpolated coarse correction onto the
// fine field.
func (e *Engine) Prolongate(fine, coarse *volume.Volume) {
	e.prolongate(fine, coarse, true)
}

// ProlongateOverwrite replaces the fine field with the interpolated coarse
// solution, used by the full multigrid cascade when rising a level.
func (e *Engine) ProlongateOverwrite(fine, coarse *volume.Volume) {
	e.prolongate(fine, coarse, false)
}

func (e *Engine) prolongate(fine, coarse *volume.Volume, additive bool) {
	w, h, d := fine.W, fine.H, fine.D
	e.q.ParallelForZ(d, func(z0, z1 int) {
		for z := z0; z < z1; z++ {
			// Trilinear interpolation at coarse index coordinate c/2:
			// fine cell 2X aligns with coarse cell X, odd cells average
			// the two bracketing coarse cells per axis.
			zc := z >> 1
			fz := float32(z&1) * 0.5
			for y := 0; y < h; y++ {
				yc := y >> 1
				fy := float32(y&1) * 0.5
				for x := 0; x < w; x++ {
					xc := x >> 1
					fx := float32(x&1) * 0.5

					c00 := lerp(coarse.At(xc, yc, zc), coarse.At(xc+1, yc, zc), fx)
					c10 := lerp(coarse.At(xc, yc+1, zc), coarse.At(xc+1, yc+1, zc), fx)
					c01 := lerp(coarse.At(xc, yc, zc+1), coarse.At(xc+1, yc, zc+1), fx)
					c11 := lerp(coarse.At(xc, yc+1, zc+1), coarse.At(xc+1, yc+1, zc+1), fx)
					v := lerp(lerp(c00, c10, fy), lerp(c01, c11, fy), fz)

					if additive {
						fine.Data[fine.Idx(x, y, z)] += v
					} else {
						fine.Set(x, y, z, v)
					}
				}
			}
		}
	})
}

func lerp(a, b, t float32) float32 { return a + (b-a)*t }
