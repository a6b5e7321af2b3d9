package kernels

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pthm-cable/plume/volume"
)

func newEngine() *Engine {
	return NewEngine(NewQueue())
}

func TestRelaxConstantFieldFixedPoint(t *testing.T) {
	// With b = 0 a constant pressure is a fixed point of the damped
	// Jacobi sweep; in particular the Neumann boundary reads must not
	// perturb cells at the x faces.
	e := newEngine()
	const n = 8
	p := volume.MustNewVolume(n, n, n, 4)
	b := volume.MustNewVolume(n, n, n, 4)
	out := volume.MustNewVolume(n, n, n, 4)
	p.Fill(4.25)

	e.Relax(out, p, b, 0.5)

	for z := 0; z < n; z++ {
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				if got := out.At(x, y, z); math.Abs(float64(got)-4.25) > 1e-5 {
					t.Fatalf("relax moved constant field at (%d,%d,%d): %f", x, y, z, got)
				}
			}
		}
	}
}

func TestRelaxWithZeroGuessMatchesFirstSweep(t *testing.T) {
	// The zero-guess path is exactly one plain sweep from u = 0.
	e := newEngine()
	const n = 8
	const h = 0.25
	b := volume.MustNewVolume(n, n, n, 4)
	rng := rand.New(rand.NewSource(1))
	for i := range b.Data {
		b.Data[i] = rng.Float32() - 0.5
	}

	fromZero := volume.MustNewVolume(n, n, n, 4)
	swept := volume.MustNewVolume(n, n, n, 4)
	zero := volume.MustNewVolume(n, n, n, 4)
	e.Relax(swept, zero, b, h)

	e.RelaxWithZeroGuess(fromZero, b, h)

	for i := range fromZero.Data {
		if diff := math.Abs(float64(fromZero.Data[i] - swept.Data[i])); diff > 1e-6 {
			t.Fatalf("zero-guess sweep deviates at %d by %g", i, diff)
		}
	}
}

func TestResidualOfExactConstant(t *testing.T) {
	// For constant p the Laplacian vanishes, so r = b.
	e := newEngine()
	const n = 8
	p := volume.MustNewVolume(n, n, n, 4)
	b := volume.MustNewVolume(n, n, n, 4)
	r := volume.MustNewVolume(n, n, n, 4)
	p.Fill(2)
	b.Fill(0.75)

	e.Residual(r, p, b, 0.5)

	for i := range r.Data {
		if math.Abs(float64(r.Data[i]-0.75)) > 1e-5 {
			t.Fatalf("residual of constant p deviates at %d: %f", i, r.Data[i])
		}
	}
}

func TestRestrictPreservesConstant(t *testing.T) {
	// The 27 full-weighting taps sum to one.
	e := newEngine()
	fine := volume.MustNewVolume(16, 16, 16, 4)
	coarse := volume.MustNewVolume(8, 8, 8, 4)
	fine.Fill(3)

	e.Restrict(coarse, fine)

	for i := range coarse.Data {
		if math.Abs(float64(coarse.Data[i]-3)) > 1e-5 {
			t.Fatalf("restrict of constant deviates at %d: %f", i, coarse.Data[i])
		}
	}
}

func TestRestrictProlongateRamp(t *testing.T) {
	// Full weighting then trilinear prolongation reproduces a linear
	// ramp away from the clamped boundary.
	e := newEngine()
	const n = 16
	fine := volume.MustNewVolume(n, n, n, 4)
	coarse := volume.MustNewVolume(n/2, n/2, n/2, 4)
	out := volume.MustNewVolume(n, n, n, 4)
	for z := 0; z < n; z++ {
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				fine.Set(x, y, z, float32(x))
			}
		}
	}

	e.Restrict(coarse, fine)
	e.ProlongateOverwrite(out, coarse)

	for z := 4; z < n-4; z++ {
		for y := 4; y < n-4; y++ {
			for x := 4; x < n-4; x++ {
				want := float64(fine.At(x, y, z))
				got := float64(out.At(x, y, z))
				if math.Abs(got-want) > 1e-4 {
					t.Fatalf("ramp not preserved at (%d,%d,%d): got %f want %f", x, y, z, got, want)
				}
			}
		}
	}
}

func TestProlongateAddsCorrection(t *testing.T) {
	e := newEngine()
	fine := volume.MustNewVolume(8, 8, 8, 4)
	coarse := volume.MustNewVolume(4, 4, 4, 4)
	fine.Fill(1)
	coarse.Fill(0.5)

	e.Prolongate(fine, coarse)

	if got := fine.At(4, 4, 4); math.Abs(float64(got)-1.5) > 1e-5 {
		t.Errorf("additive prolongation: got %f, want 1.5", got)
	}
}

func TestDivergenceOfShearFlowInterior(t *testing.T) {
	// u = (y, 0, 0) is divergence-free; the interior stencil must see
	// zero for both discretizations.
	for _, staggered := range []bool{false, true} {
		e := newEngine()
		e.SetStaggered(staggered)
		const n = 8
		u, err := volume.NewVectorVolume(n, n, n, 4)
		if err != nil {
			t.Fatal(err)
		}
		for z := 0; z < n; z++ {
			for y := 0; y < n; y++ {
				for x := 0; x < n; x++ {
					u.X.Set(x, y, z, float32(y))
				}
			}
		}
		d := volume.MustNewVolume(n, n, n, 4)
		e.Divergence(d, u, 0.5)

		for z := 1; z < n-1; z++ {
			for y := 1; y < n-1; y++ {
				for x := 1; x < n-1; x++ {
					if got := d.At(x, y, z); math.Abs(float64(got)) > 1e-5 {
						t.Fatalf("staggered=%v: interior divergence of shear flow at (%d,%d,%d): %f",
							staggered, x, y, z, got)
					}
				}
			}
		}
	}
}

func TestSubtractGradientConstantPressure(t *testing.T) {
	// A constant pressure exerts no force; only the free-slip masking
	// may touch the field.
	e := newEngine()
	e.SetStaggered(false)
	const n = 8
	u, err := volume.NewVectorVolume(n, n, n, 4)
	if err != nil {
		t.Fatal(err)
	}
	for i := range u.X.Data {
		u.X.Data[i] = 1
		u.Y.Data[i] = 2
		u.Z.Data[i] = 3
	}
	p := volume.MustNewVolume(n, n, n, 4)
	p.Fill(5)

	e.SubtractGradient(u, p, 0.5)

	for z := 1; z < n-1; z++ {
		for y := 1; y < n-1; y++ {
			for x := 1; x < n-1; x++ {
				if u.X.At(x, y, z) != 1 || u.Y.At(x, y, z) != 2 || u.Z.At(x, y, z) != 3 {
					t.Fatalf("constant pressure changed interior velocity at (%d,%d,%d)", x, y, z)
				}
			}
		}
	}
	// Wall-normal components are masked.
	if u.X.At(0, 3, 3) != 0 || u.Y.At(3, 0, 3) != 0 || u.Z.At(3, 3, n-1) != 0 {
		t.Error("boundary masking missing")
	}
}

func TestAdvectZeroVelocityIdentity(t *testing.T) {
	// With u = 0 and no dissipation, advection is the identity; the
	// field mass is conserved exactly.
	e := newEngine()
	const n = 8
	in := volume.MustNewVolume(n, n, n, 4)
	out := volume.MustNewVolume(n, n, n, 4)
	aux := volume.MustNewVolume(n, n, n, 4)
	vel, err := volume.NewVectorVolume(n, n, n, 4)
	if err != nil {
		t.Fatal(err)
	}
	rng := rand.New(rand.NewSource(7))
	for i := range in.Data {
		in.Data[i] = rng.Float32()
	}

	for _, method := range []AdvectionMethod{SemiLagrangian, MacCormackSemiLagrangian, BFECCSemiLagrangian} {
		e.SetAdvectionMethod(method)
		e.Advect(out, in, aux, vel, 0.02, 0)
		for i := range out.Data {
			if math.Abs(float64(out.Data[i]-in.Data[i])) > 1e-6 {
				t.Fatalf("method %d: zero-velocity advection changed cell %d", method, i)
			}
		}
	}
}

func TestAdvectDissipationScalesField(t *testing.T) {
	e := newEngine()
	const n = 8
	in := volume.MustNewVolume(n, n, n, 4)
	out := volume.MustNewVolume(n, n, n, 4)
	aux := volume.MustNewVolume(n, n, n, 4)
	vel, err := volume.NewVectorVolume(n, n, n, 4)
	if err != nil {
		t.Fatal(err)
	}
	in.Fill(1)

	const dt = 0.5
	const k = 0.2
	e.Advect(out, in, aux, vel, dt, k)

	want := float32(1 - k*dt)
	for i := range out.Data {
		if math.Abs(float64(out.Data[i]-want)) > 1e-6 {
			t.Fatalf("dissipation: got %f, want %f", out.Data[i], want)
		}
	}
}

func TestBuoyancyLiftsWarmCells(t *testing.T) {
	e := newEngine()
	const n = 8
	u, err := volume.NewVectorVolume(n, n, n, 4)
	if err != nil {
		t.Fatal(err)
	}
	temp := volume.MustNewVolume(n, n, n, 4)
	density := volume.MustNewVolume(n, n, n, 4)
	temp.Set(4, 4, 4, 10)
	density.Set(4, 4, 4, 1)

	const dt = 0.1
	e.Buoyancy(u, temp, density, dt, 0, 1.0, 0.05)

	want := float32(dt * (10*1.0 - 0.05*1))
	if got := u.Y.At(4, 4, 4); math.Abs(float64(got-want)) > 1e-6 {
		t.Errorf("warm cell lift: got %f, want %f", got, want)
	}
	if got := u.Y.At(0, 0, 0); got != 0 {
		t.Errorf("ambient cell moved: %f", got)
	}
}

func TestImpulseSplatDiscAndFalloff(t *testing.T) {
	e := newEngine()
	const n = 32
	f := volume.MustNewVolume(n, n, n, 4)
	pos := [3]float32{16, 0, 16}
	const radius = 4
	const value = 1.0

	e.Impulse(f, pos, pos, radius, value)

	// Near the hotspot the splat reaches almost the full value.
	var max float32
	for i := range f.Data {
		if f.Data[i] > max {
			max = f.Data[i]
		}
	}
	if max < 0.8*value || max > value {
		t.Errorf("splat peak %f outside [0.8, 1.0]", max)
	}
	// Far outside the disc and the y band nothing is written.
	if f.At(0, 0, 0) != 0 || f.At(16, 16, 16) != 0 {
		t.Error("splat leaked outside the disc")
	}
}

func TestDotProductAndScaledAdd(t *testing.T) {
	e := newEngine()
	const n = 8
	a := volume.MustNewVolume(n, n, n, 4)
	b := volume.MustNewVolume(n, n, n, 4)
	dst := volume.MustNewVolume(n, n, n, 4)
	a.Fill(2)
	b.Fill(3)
	piece, err := volume.NewMemPiece(2)
	if err != nil {
		t.Fatal(err)
	}

	e.DotProduct(piece, 0, a, b)
	want := float32(2 * 3 * n * n * n)
	if got := piece.Load(0); got != want {
		t.Errorf("dot product: got %f, want %f", got, want)
	}

	piece.Store(1, 0.5)
	e.ScaledAdd(dst, a, b, piece, 1, -1)
	if got := dst.At(1, 1, 1); math.Abs(float64(got)-0.5) > 1e-6 {
		t.Errorf("scaled add: got %f, want 0.5", got)
	}

	e.ScaledAdd(dst, nil, b, piece, 1, 1)
	if got := dst.At(1, 1, 1); math.Abs(float64(got)-1.5) > 1e-6 {
		t.Errorf("pure scaling: got %f, want 1.5", got)
	}
}

func TestAbsNorms(t *testing.T) {
	e := newEngine()
	v := volume.MustNewVolume(4, 4, 4, 4)
	v.Set(1, 1, 1, -8)
	v.Set(2, 2, 2, 4)

	avg, max := e.AbsNorms(v)
	if max != 8 {
		t.Errorf("max: got %f, want 8", max)
	}
	wantAvg := 12.0 / 64.0
	if math.Abs(avg-wantAvg) > 1e-9 {
		t.Errorf("avg: got %f, want %f", avg, wantAvg)
	}
}

func TestCurlOfRigidRotation(t *testing.T) {
	// u = (-y, x, 0) about the grid centre has curl (0, 0, 2).
	e := newEngine()
	e.SetStaggered(false)
	const n = 16
	const h = 1.0
	u, err := volume.NewVectorVolume(n, n, n, 4)
	if err != nil {
		t.Fatal(err)
	}
	c := float32(n) / 2
	for z := 0; z < n; z++ {
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				u.X.Set(x, y, z, -(float32(y) - c))
				u.Y.Set(x, y, z, float32(x)-c)
			}
		}
	}
	vort, err := volume.NewVectorVolume(n, n, n, 4)
	if err != nil {
		t.Fatal(err)
	}

	e.Curl(vort, u, h)

	for z := 2; z < n-2; z++ {
		for y := 2; y < n-2; y++ {
			for x := 2; x < n-2; x++ {
				if got := vort.Z.At(x, y, z); math.Abs(float64(got)-2) > 1e-4 {
					t.Fatalf("curl z at (%d,%d,%d): got %f, want 2", x, y, z, got)
				}
				if got := vort.X.At(x, y, z); math.Abs(float64(got)) > 1e-4 {
					t.Fatalf("curl x at (%d,%d,%d): got %f, want 0", x, y, z, got)
				}
			}
		}
	}
}
