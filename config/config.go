// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// AdvectionMethod selects the advection scheme for scalar and velocity fields.
type AdvectionMethod int

const (
	SemiLagrangian AdvectionMethod = iota
	MacCormackSemiLagrangian
	BFECCSemiLagrangian
)

// UnmarshalYAML parses an advection method name.
func (m *AdvectionMethod) UnmarshalYAML(value *yaml.Node) error {
	switch value.Value {
	case "semi_lagrangian":
		*m = SemiLagrangian
	case "maccormack":
		*m = MacCormackSemiLagrangian
	case "bfecc":
		*m = BFECCSemiLagrangian
	default:
		return fmt.Errorf("unknown advection method %q", value.Value)
	}
	return nil
}

// PoissonMethod selects the pressure solver.
type PoissonMethod int

const (
	PoissonJacobi PoissonMethod = iota
	PoissonDampedJacobi
	PoissonMultigrid
	PoissonFullMultigrid
	PoissonMGPCG
)

// UnmarshalYAML parses a Poisson solver name.
func (m *PoissonMethod) UnmarshalYAML(value *yaml.Node) error {
	switch value.Value {
	case "jacobi":
		*m = PoissonJacobi
	case "damped_jacobi":
		*m = PoissonDampedJacobi
	case "multigrid":
		*m = PoissonMultigrid
	case "full_multigrid":
		*m = PoissonFullMultigrid
	case "mgpcg":
		*m = PoissonMGPCG
	default:
		return fmt.Errorf("unknown poisson method %q", value.Value)
	}
	return nil
}

// FluidImpulse selects the smoke emission mode.
type FluidImpulse int

const (
	ImpulseHotFloor FluidImpulse = iota
	ImpulseSphere
	ImpulseBuoyantJet
	ImpulseFlyingBall
)

// UnmarshalYAML parses an impulse mode name.
func (m *FluidImpulse) UnmarshalYAML(value *yaml.Node) error {
	switch value.Value {
	case "hot_floor":
		*m = ImpulseHotFloor
	case "sphere":
		*m = ImpulseSphere
	case "buoyant_jet":
		*m = ImpulseBuoyantJet
	case "flying_ball":
		*m = ImpulseFlyingBall
	default:
		return fmt.Errorf("unknown fluid impulse %q", value.Value)
	}
	return nil
}

// Config holds all simulation configuration parameters.
type Config struct {
	Grid      GridConfig      `yaml:"grid"`
	Time      TimeConfig      `yaml:"time"`
	Solver    SolverConfig    `yaml:"solver"`
	Impulse   ImpulseConfig   `yaml:"impulse"`
	Smoke     SmokeConfig     `yaml:"smoke"`
	Viewer    ViewerConfig    `yaml:"viewer"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// GridConfig holds the grid dimensions and discretization switches.
type GridConfig struct {
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	Depth      int     `yaml:"depth"`
	DomainSize float32 `yaml:"domain_size"` // metres along x
	ByteWidth  int     `yaml:"byte_width"`  // 2 or 4; storage accounting
	Staggered  bool    `yaml:"staggered"`
	MidPoint   bool    `yaml:"mid_point"`
	Outflow    bool    `yaml:"outflow"` // open floor boundary
}

// TimeConfig holds time stepping parameters.
type TimeConfig struct {
	FixedTimeStep float32 `yaml:"fixed_time_step"` // 0 = adaptive, clamped to MaxTimeStep
	MaxTimeStep   float32 `yaml:"max_time_step"`
	TimeStretch   float32 `yaml:"time_stretch"` // emitter phase period scaling
}

// SolverConfig holds pressure solver selection and iteration counts.
type SolverConfig struct {
	Method                     PoissonMethod   `yaml:"method"`
	Advection                  AdvectionMethod `yaml:"advection"`
	NumJacobiIterations        int             `yaml:"num_jacobi_iterations"`
	NumMultigridIterations     int             `yaml:"num_multigrid_iterations"`
	NumFullMultigridIterations int             `yaml:"num_full_multigrid_iterations"`
	NumMGPCGIterations         int             `yaml:"num_mgpcg_iterations"`
	MinGridWidth               int             `yaml:"min_grid_width"` // coarsest multigrid level floor
}

// ImpulseConfig holds smoke emission parameters.
type ImpulseConfig struct {
	Mode              FluidImpulse `yaml:"mode"`
	AutoImpulse       bool         `yaml:"auto_impulse"`
	Temperature       float32      `yaml:"temperature"`
	Density           float32      `yaml:"density"`
	Velocity          float32      `yaml:"velocity"`
	SplatRadiusFactor float32      `yaml:"splat_radius_factor"` // fraction of grid width
	EmitPosition      [3]float32   `yaml:"emit_position"`       // normalised [0,1]
}

// SmokeConfig holds the buoyancy and dissipation model.
type SmokeConfig struct {
	AmbientTemperature     float32 `yaml:"ambient_temperature"`
	Buoyancy               float32 `yaml:"buoyancy"` // sigma
	Weight                 float32 `yaml:"weight"`   // kappa
	TemperatureDissipation float32 `yaml:"temperature_dissipation"`
	VelocityDissipation    float32 `yaml:"velocity_dissipation"`
	DensityDissipation     float32 `yaml:"density_dissipation"`
	VorticityConfinement   float32 `yaml:"vorticity_confinement"` // 0 disables
}

// ViewerConfig holds display settings for the slice viewer.
type ViewerConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
	Slice     int `yaml:"slice"` // z-slice shown; -1 = middle
}

// TelemetryConfig holds metrics output settings.
type TelemetryConfig struct {
	LogEveryFrames int `yaml:"log_every_frames"` // 0 disables periodic slog dumps
	SampleWindow   int `yaml:"sample_window"`    // per-operation ring size
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	CellSize    float32    // DomainSize / Width
	SplatRadius float32    // SplatRadiusFactor * Width, in cells
	EmitCell    [3]float32 // EmitPosition scaled to cells
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.ComputeDerived()
	return cfg, nil
}

// ComputeDerived calculates values derived from loaded config. Call again
// after mutating tuning fields at runtime, before NotifyConfigChanged.
func (c *Config) ComputeDerived() {
	w := float32(c.Grid.Width)
	if w > 0 {
		c.Derived.CellSize = c.Grid.DomainSize / w
	}
	c.Derived.SplatRadius = c.Impulse.SplatRadiusFactor * w
	c.Derived.EmitCell = [3]float32{
		c.Impulse.EmitPosition[0] * float32(c.Grid.Width),
		c.Impulse.EmitPosition[1] * float32(c.Grid.Height),
		c.Impulse.EmitPosition[2] * float32(c.Grid.Depth),
	}
}

// WriteYAML saves the configuration to a file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
