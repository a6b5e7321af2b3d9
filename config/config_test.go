package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEmbeddedDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}
	if cfg.Grid.Width != 128 || cfg.Grid.Height != 128 || cfg.Grid.Depth != 128 {
		t.Errorf("unexpected default grid: %dx%dx%d", cfg.Grid.Width, cfg.Grid.Height, cfg.Grid.Depth)
	}
	if cfg.Solver.Method != PoissonFullMultigrid {
		t.Errorf("unexpected default solver: %d", cfg.Solver.Method)
	}
	if !cfg.Grid.Staggered {
		t.Error("staggered should default on")
	}

	// Derived: h = domain / W.
	want := cfg.Grid.DomainSize / float32(cfg.Grid.Width)
	if cfg.Derived.CellSize != want {
		t.Errorf("cell size %f, want %f", cfg.Derived.CellSize, want)
	}
	if cfg.Derived.EmitCell[0] != 64 {
		t.Errorf("emit cell x %f, want 64", cfg.Derived.EmitCell[0])
	}
}

func TestLoadMergesUserFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	user := []byte("grid:\n  width: 64\n  height: 64\n  depth: 64\nsolver:\n  method: mgpcg\n")
	if err := os.WriteFile(path, user, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("loading merged config: %v", err)
	}
	if cfg.Grid.Width != 64 {
		t.Errorf("user width not applied: %d", cfg.Grid.Width)
	}
	if cfg.Solver.Method != PoissonMGPCG {
		t.Errorf("user solver not applied: %d", cfg.Solver.Method)
	}
	// Untouched fields keep defaults.
	if cfg.Impulse.SplatRadiusFactor != 0.25 {
		t.Errorf("default splat radius lost: %f", cfg.Impulse.SplatRadiusFactor)
	}
}

func TestEnumParsing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	bad := []byte("solver:\n  method: conjugate_residual\n")
	if err := os.WriteFile(path, bad, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for unknown solver name")
	}

	good := []byte("impulse:\n  mode: buoyant_jet\nsolver:\n  advection: bfecc\n")
	if err := os.WriteFile(path, good, 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}
	if cfg.Impulse.Mode != ImpulseBuoyantJet {
		t.Errorf("impulse mode: %d", cfg.Impulse.Mode)
	}
	if cfg.Solver.Advection != BFECCSemiLagrangian {
		t.Errorf("advection: %d", cfg.Solver.Advection)
	}
}

func TestComputeDerivedAfterMutation(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Impulse.SplatRadiusFactor = 0.5
	cfg.ComputeDerived()
	if cfg.Derived.SplatRadius != 64 {
		t.Errorf("splat radius %f, want 64", cfg.Derived.SplatRadius)
	}
}
