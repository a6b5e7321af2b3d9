package kernels

import (
	"sync/atomic"
	"testing"

	"github.com/pthm-cable/plume/volume"
)

func TestParallelForZCoversRange(t *testing.T) {
	q := NewQueue()
	defer q.Close()

	var count atomic.Int64
	q.ParallelForZ(64, func(z0, z1 int) {
		count.Add(int64(z1 - z0))
	})
	if got := count.Load(); got != 64 {
		t.Errorf("covered %d slabs, want 64", got)
	}

	// Small ranges run inline and still cover everything.
	count.Store(0)
	q.ParallelForZ(2, func(z0, z1 int) {
		count.Add(int64(z1 - z0))
	})
	if got := count.Load(); got != 2 {
		t.Errorf("covered %d slabs, want 2", got)
	}
}

func TestQueueRunsKernelsInSubmissionOrder(t *testing.T) {
	// Each kernel call returns only after its cells are written, so later
	// kernels observe earlier results.
	e := newEngine()
	defer e.q.Close()

	const n = 16
	a := volume.MustNewVolume(n, n, n, 4)
	b := volume.MustNewVolume(n, n, n, 4)
	piece, err := volume.NewMemPiece(1)
	if err != nil {
		t.Fatal(err)
	}

	a.Fill(2)
	e.DotProduct(piece, 0, a, a) // 4 * n^3
	e.ScaledAdd(b, nil, a, piece, 0, 1)

	want := float32(4 * n * n * n * 2)
	if got := b.At(0, 0, 0); got != want {
		t.Errorf("dependent kernel saw %f, want %f", got, want)
	}
}

func BenchmarkRelax(b *testing.B) {
	e := newEngine()
	defer e.q.Close()

	const n = 64
	p := volume.MustNewVolume(n, n, n, 4)
	rhs := volume.MustNewVolume(n, n, n, 4)
	out := volume.MustNewVolume(n, n, n, 4)
	rhs.Fill(1)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Relax(out, p, rhs, 1.0/n)
		p.Data, out.Data = out.Data, p.Data
	}
}

func BenchmarkAdvectSemiLagrangian(b *testing.B) {
	e := newEngine()
	defer e.q.Close()

	const n = 64
	in := volume.MustNewVolume(n, n, n, 4)
	out := volume.MustNewVolume(n, n, n, 4)
	aux := volume.MustNewVolume(n, n, n, 4)
	vel, err := volume.NewVectorVolume(n, n, n, 4)
	if err != nil {
		b.Fatal(err)
	}
	vel.Y.Fill(1)
	in.Fill(0.5)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Advect(out, in, aux, vel, 0.02, 0.1)
	}
}
