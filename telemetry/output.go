package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
)

// FrameRecord is one telemetry.csv row: averaged per-operation costs in
// microseconds at the time of writing.
type FrameRecord struct {
	Frame             int     `csv:"frame"`
	FPS               float64 `csv:"fps"`
	ApplyImpulseUs    int64   `csv:"apply_impulse_us"`
	DivergenceUs      int64   `csv:"compute_divergence_us"`
	SolvePressureUs   int64   `csv:"solve_pressure_us"`
	RectifyVelocityUs int64   `csv:"rectify_velocity_us"`
	AdvectTempUs      int64   `csv:"advect_temperature_us"`
	AdvectDensityUs   int64   `csv:"advect_density_us"`
	AdvectVelocityUs  int64   `csv:"advect_velocity_us"`
	RestoreVortUs     int64   `csv:"restore_vorticity_us"`
	ApplyBuoyancyUs   int64   `csv:"apply_buoyancy_us"`
	ResidualAvg       float64 `csv:"residual_avg"`
	ResidualMax       float64 `csv:"residual_max"`
}

// OutputManager writes telemetry rows to a CSV file in the output
// directory. A nil manager is valid and drops everything.
type OutputManager struct {
	file          *os.File
	headerWritten bool
}

// NewOutputManager creates the output directory and telemetry.csv.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(filepath.Join(dir, "telemetry.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating telemetry.csv: %w", err)
	}
	return &OutputManager{file: f}, nil
}

// WriteFrame appends one record, emitting the header on first use.
func (om *OutputManager) WriteFrame(rec FrameRecord) error {
	if om == nil {
		return nil
	}
	rows := []FrameRecord{rec}
	if !om.headerWritten {
		if err := gocsv.Marshal(rows, om.file); err != nil {
			return fmt.Errorf("writing telemetry: %w", err)
		}
		om.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(rows, om.file); err != nil {
		return fmt.Errorf("writing telemetry: %w", err)
	}
	return nil
}

// Close flushes and closes the CSV file.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}
	return om.file.Close()
}
