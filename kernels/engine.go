package kernels

import "github.com/pthm-cable/plume/volume"

// AdvectionMethod selects the advection scheme.
type AdvectionMethod int

const (
	SemiLagrangian AdvectionMethod = iota
	MacCormackSemiLagrangian
	BFECCSemiLagrangian
)

// Engine owns the kernel queue and the discretization switches shared by
// every stencil. One engine is constructed at startup and passed by
// reference; there is no process-wide instance.
type Engine struct {
	q *Queue

	staggered bool
	midPoint  bool
	outflow   bool
	advection AdvectionMethod
}

// NewEngine creates an engine on the given queue.
func NewEngine(q *Queue) *Engine {
	return &Engine{q: q, staggered: true}
}

// Queue returns the underlying kernel queue.
func (e *Engine) Queue() *Queue { return e.q }

// SetStaggered switches between MAC and collocated velocity stencils.
func (e *Engine) SetStaggered(staggered bool) { e.staggered = staggered }

// SetMidPoint enables midpoint back-tracing in advection.
func (e *Engine) SetMidPoint(midPoint bool) { e.midPoint = midPoint }

// SetOutflow opens the y-minus boundary (zero-gradient pressure, no
// velocity clamp at the floor).
func (e *Engine) SetOutflow(outflow bool) { e.outflow = outflow }

// SetAdvectionMethod selects the advection scheme.
func (e *Engine) SetAdvectionMethod(m AdvectionMethod) { e.advection = m }

// velocityAt returns the cell-centre velocity at (x,y,z). On the staggered
// grid a component indexed at i holds the value on the cell's minus face,
// so the centre value averages the two bounding faces.
func (e *Engine) velocityAt(u *volume.VectorVolume, x, y, z int) (float32, float32, float32) {
	if !e.staggered {
		return u.X.At(x, y, z), u.Y.At(x, y, z), u.Z.At(x, y, z)
	}
	vx := 0.5 * (u.X.At(x, y, z) + u.X.At(x+1, y, z))
	vy := 0.5 * (u.Y.At(x, y, z) + u.Y.At(x, y+1, z))
	vz := 0.5 * (u.Z.At(x, y, z) + u.Z.At(x, y, z+1))
	return vx, vy, vz
}

// velocitySample returns the velocity at a continuous cell coordinate.
func (e *Engine) velocitySample(u *volume.VectorVolume, x, y, z float32) (float32, float32, float32) {
	if !e.staggered {
		return u.X.Sample(x, y, z), u.Y.Sample(x, y, z), u.Z.Sample(x, y, z)
	}
	// Face-centred components: shift the sample point onto the face lattice.
	vx := u.X.Sample(x+0.5, y, z)
	vy := u.Y.Sample(x, y+0.5, z)
	vz := u.Z.Sample(x, y, z+0.5)
	return vx, vy, vz
}
