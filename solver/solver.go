// Package solver provides the interchangeable Poisson solvers that
// enforce incompressibility: damped Jacobi, geometric multigrid, full
// multigrid, and multigrid-preconditioned conjugate gradient. All solve
// L(p) = b where L is the 7-point Laplacian with homogeneous Neumann
// boundaries and b is the velocity divergence.
package solver

import (
	"fmt"

	"github.com/pthm-cable/plume/volume"
)

// Solver is the capability set shared by every pressure solver. Solve
// runs in place on u, which doubles as the initial guess; iterations is
// the solver-specific outer loop count.
type Solver interface {
	Initialize(w, h, d, byteWidth, minGridWidth int) error
	Solve(u, b *volume.Volume, h float32, iterations int)
}

// checkDims panics on a mismatch between a solve's operands and the
// initialized size; calling Solve on foreign volumes is a programmer
// error, not a runtime condition.
func checkDims(u, b *volume.Volume, w, h, d int) {
	if u.W != w || u.H != h || u.D != d || !u.SameSize(b) {
		panic(fmt.Sprintf("solver: volume size %dx%dx%d / %dx%dx%d does not match initialized %dx%dx%d",
			u.W, u.H, u.D, b.W, b.H, b.D, w, h, d))
	}
}
