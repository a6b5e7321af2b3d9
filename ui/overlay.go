// Package ui draws the tuning overlay: sliders for the mutable smoke
// parameters, propagated to the simulator through NotifyConfigChanged.
package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/plume/config"
)

// Overlay is the slider panel.
type Overlay struct {
	Visible bool
}

// NewOverlay creates a visible overlay.
func NewOverlay() *Overlay {
	return &Overlay{Visible: true}
}

// sliderRow draws one labelled slider and returns the updated value and
// the next row's y position.
func sliderRow(y float32, label string, value, min, max float32) (float32, float32) {
	rl.DrawText(label, 10, int32(y), 12, rl.RayWhite)
	v := gui.SliderBar(
		rl.Rectangle{X: 10, Y: y + 16, Width: 180, Height: 16},
		"", fmt.Sprintf("%.3f", value),
		value, min, max,
	)
	return v, y + 40
}

// Draw renders the panel and writes any changes back into cfg. Returns
// true when a value changed and the simulator should be notified.
func (o *Overlay) Draw(cfg *config.Config) bool {
	if !o.Visible {
		return false
	}

	changed := false
	update := func(dst *float32, v float32) {
		if v != *dst {
			*dst = v
			changed = true
		}
	}

	y := float32(10)
	var v float32

	v, y = sliderRow(y, "buoyancy", cfg.Smoke.Buoyancy, 0, 4)
	update(&cfg.Smoke.Buoyancy, v)
	v, y = sliderRow(y, "smoke weight", cfg.Smoke.Weight, 0, 0.5)
	update(&cfg.Smoke.Weight, v)
	v, y = sliderRow(y, "vorticity confinement", cfg.Smoke.VorticityConfinement, 0, 1)
	update(&cfg.Smoke.VorticityConfinement, v)
	v, y = sliderRow(y, "impulse density", cfg.Impulse.Density, 0, 2)
	update(&cfg.Impulse.Density, v)
	v, y = sliderRow(y, "impulse temperature", cfg.Impulse.Temperature, 0, 80)
	update(&cfg.Impulse.Temperature, v)
	v, y = sliderRow(y, "density dissipation", cfg.Smoke.DensityDissipation, 0, 1)
	update(&cfg.Smoke.DensityDissipation, v)
	v, _ = sliderRow(y, "temperature dissipation", cfg.Smoke.TemperatureDissipation, 0, 1)
	update(&cfg.Smoke.TemperatureDissipation, v)

	if changed {
		cfg.ComputeDerived()
	}
	return changed
}
