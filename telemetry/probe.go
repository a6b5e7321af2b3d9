package telemetry

import (
	"github.com/pthm-cable/plume/kernels"
	"github.com/pthm-cable/plume/volume"
)

// ResidualProbe measures how well a pressure solution satisfies its
// Poisson system. The scratch volume is created on first use and reused;
// measurements happen on demand, never inside the solver loop.
type ResidualProbe struct {
	engine  *kernels.Engine
	scratch *volume.Volume
}

// NewResidualProbe creates a probe on the given engine.
func NewResidualProbe(engine *kernels.Engine) *ResidualProbe {
	return &ResidualProbe{engine: engine}
}

// Measure computes r = b - L(p) and reduces it to average and maximum
// absolute value.
func (pr *ResidualProbe) Measure(p, b *volume.Volume, h float32) (avg, max float64, err error) {
	if pr.scratch == nil || !pr.scratch.SameSize(p) {
		pr.scratch, err = volume.NewVolume(p.W, p.H, p.D, 4)
		if err != nil {
			return 0, 0, err
		}
	}
	pr.engine.Residual(pr.scratch, p, b, h)
	avg, max = pr.engine.AbsNorms(pr.scratch)
	return avg, max, nil
}
