// solverbench compares the Poisson solvers on a synthetic separable-sine
// right-hand side and reports residual decay per outer iteration as CSV.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/plume/kernels"
	"github.com/pthm-cable/plume/solver"
	"github.com/pthm-cable/plume/telemetry"
	"github.com/pthm-cable/plume/volume"
)

// row is one CSV record: the residual norms after a cumulative number of
// outer iterations of one solver.
type row struct {
	Solver      string  `csv:"solver"`
	Iterations  int     `csv:"iterations"`
	ResidualAvg float64 `csv:"residual_avg"`
	ResidualMax float64 `csv:"residual_max"`
	Millis      float64 `csv:"millis"`
}

func main() {
	size := flag.Int("size", 64, "Grid edge length")
	iterations := flag.Int("iterations", 8, "Outer iterations per solver")
	minGrid := flag.Int("min-grid", 8, "Coarsest multigrid level width")
	out := flag.String("out", "", "CSV output path (empty = stdout)")
	flag.Parse()

	queue := kernels.NewQueue()
	defer queue.Close()
	engine := kernels.NewEngine(queue)

	n := *size
	h := float32(1.0 / float64(n))
	b := volume.MustNewVolume(n, n, n, 4)
	fillSeparableSine(b)

	solvers := []struct {
		name  string
		build func() solver.Solver
		iters int
	}{
		{"damped_jacobi", func() solver.Solver { return solver.NewDampedJacobi(engine) }, *iterations * 10},
		{"multigrid", func() solver.Solver { return solver.NewMultigrid(engine) }, *iterations},
		{"full_multigrid", func() solver.Solver { return solver.NewFullMultigrid(engine) }, *iterations},
		{"mgpcg", func() solver.Solver { return solver.NewMGPCG(engine) }, *iterations},
	}

	probe := telemetry.NewResidualProbe(engine)
	var rows []row

	for _, sv := range solvers {
		ps := sv.build()
		if err := ps.Initialize(n, n, n, 4, *minGrid); err != nil {
			slog.Error("solver init failed", "solver", sv.name, "error", err)
			continue
		}
		u := volume.MustNewVolume(n, n, n, 4)

		var times []float64
		for it := 1; it <= sv.iters; it++ {
			start := time.Now()
			ps.Solve(u, b, h, 1)
			times = append(times, float64(time.Since(start).Microseconds())/1000.0)

			avg, max, err := probe.Measure(u, b, h)
			if err != nil {
				slog.Error("probe failed", "error", err)
				os.Exit(1)
			}
			rows = append(rows, row{
				Solver:      sv.name,
				Iterations:  it,
				ResidualAvg: avg,
				ResidualMax: max,
				Millis:      times[len(times)-1],
			})
		}
		slog.Info("solver finished",
			"solver", sv.name,
			"iterations", sv.iters,
			"mean_ms", fmt.Sprintf("%.2f", stat.Mean(times, nil)),
			"stddev_ms", fmt.Sprintf("%.2f", stat.StdDev(times, nil)),
			"final_residual_max", rows[len(rows)-1].ResidualMax,
		)
	}

	w := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			slog.Error("creating output", "error", err)
			os.Exit(1)
		}
		defer f.Close()
		w = f
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		slog.Error("writing csv", "error", err)
		os.Exit(1)
	}
}

// fillSeparableSine writes b(i,j,k) = sin(pi*i/W)*sin(pi*j/H)*sin(pi*k/D).
func fillSeparableSine(b *volume.Volume) {
	for z := 0; z < b.D; z++ {
		sz := math.Sin(math.Pi * float64(z) / float64(b.D))
		for y := 0; y < b.H; y++ {
			sy := math.Sin(math.Pi * float64(y) / float64(b.H))
			for x := 0; x < b.W; x++ {
				sx := math.Sin(math.Pi * float64(x) / float64(b.W))
				b.Set(x, y, z, float32(sx*sy*sz))
			}
		}
	}
}
