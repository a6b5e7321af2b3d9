package main

import (
	"flag"
	"log/slog"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/plume/config"
	"github.com/pthm-cable/plume/kernels"
	"github.com/pthm-cable/plume/renderer"
	"github.com/pthm-cable/plume/sim"
	"github.com/pthm-cable/plume/telemetry"
	"github.com/pthm-cable/plume/ui"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	maxFrames := flag.Int("max-frames", 0, "Stop after N frames (0 = unlimited; headless default 600)")
	outputDir := flag.String("output-dir", "", "Output directory for telemetry CSV and config snapshot")
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	queue := kernels.NewQueue()
	defer queue.Close()
	engine := kernels.NewEngine(queue)

	simulator, err := sim.NewSimulator(engine, cfg)
	if err != nil {
		slog.Error("failed to create simulator", "error", err)
		os.Exit(1)
	}

	output, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to create output", "error", err)
		os.Exit(1)
	}
	defer output.Close()
	if output != nil {
		if err := cfg.WriteYAML(*outputDir + "/config.yaml"); err != nil {
			slog.Warn("failed to snapshot config", "error", err)
		}
	}

	if *headless {
		logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
		slog.SetDefault(logger)
		runHeadless(simulator, cfg, output, *maxFrames)
		return
	}
	runWindowed(simulator, cfg, output, *maxFrames)
}

// runHeadless steps the simulation at a fixed rate with telemetry only.
func runHeadless(simulator *sim.Simulator, cfg *config.Config, output *telemetry.OutputManager, maxFrames int) {
	if maxFrames <= 0 {
		maxFrames = 600
	}
	dt := cfg.Time.FixedTimeStep
	if dt <= 0 {
		dt = 1.0 / 60.0
	}

	slog.Info("starting headless simulation",
		"grid", cfg.Grid.Width,
		"solver", cfg.Solver.Method,
		"frames", maxFrames,
	)

	elapsed := 0.0
	for frame := 0; frame < maxFrames; frame++ {
		simulator.Update(dt, elapsed, frame)
		elapsed += float64(dt)
		writeTelemetry(simulator, cfg, output, frame)
	}
	slog.Info("headless simulation finished", "frames", maxFrames)
}

// runWindowed opens the viewer: density slice, tuning overlay, and mouse
// control of the manual impulse.
func runWindowed(simulator *sim.Simulator, cfg *config.Config, output *telemetry.OutputManager, maxFrames int) {
	rl.InitWindow(int32(cfg.Viewer.Width), int32(cfg.Viewer.Height), "plume")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Viewer.TargetFPS))

	slice := renderer.NewSliceRenderer(cfg.Grid.Width, cfg.Grid.Height)
	defer slice.Unload()
	overlay := ui.NewOverlay()

	frame := 0
	for !rl.WindowShouldClose() {
		dt := rl.GetFrameTime()
		elapsed := rl.GetTime()

		handleImpulseInput(simulator)
		simulator.Update(dt, elapsed, frame)

		rl.BeginDrawing()
		rl.ClearBackground(rl.Black)

		dest := rl.NewRectangle(0, 0, float32(rl.GetScreenWidth()), float32(rl.GetScreenHeight()))
		slice.Draw(simulator.DensityField(), cfg.Viewer.Slice, dest, 1)

		if rl.IsKeyPressed(rl.KeyTab) {
			overlay.Visible = !overlay.Visible
		}
		if overlay.Draw(cfg) {
			simulator.NotifyConfigChanged()
		}
		rl.DrawFPS(int32(rl.GetScreenWidth())-90, 10)
		rl.EndDrawing()

		writeTelemetry(simulator, cfg, output, frame)
		frame++
		if maxFrames > 0 && frame >= maxFrames {
			break
		}
	}
}

// handleImpulseInput maps mouse drags onto the manual hotspot in
// normalized [-1,1] floor coordinates.
func handleImpulseInput(simulator *sim.Simulator) {
	mx := float32(rl.GetMouseX())/float32(rl.GetScreenWidth())*2 - 1
	my := float32(rl.GetMouseY())/float32(rl.GetScreenHeight())*2 - 1
	switch {
	case rl.IsMouseButtonPressed(rl.MouseButtonLeft):
		simulator.StartImpulse(mx, my)
	case rl.IsMouseButtonDown(rl.MouseButtonLeft):
		simulator.UpdateImpulse(mx, my)
	case rl.IsMouseButtonReleased(rl.MouseButtonLeft):
		simulator.StopImpulse()
	}
}

// writeTelemetry appends one CSV row, including the on-demand residual
// probe, at the configured cadence.
func writeTelemetry(simulator *sim.Simulator, cfg *config.Config, output *telemetry.OutputManager, frame int) {
	if output == nil {
		return
	}
	every := cfg.Telemetry.LogEveryFrames
	if every <= 0 || frame == 0 || frame%every != 0 {
		return
	}
	rec := simulator.Metrics().Record(frame)
	if avg, max, err := simulator.PressureResidual(); err == nil {
		rec.ResidualAvg = avg
		rec.ResidualMax = max
	}
	if err := output.WriteFrame(rec); err != nil {
		slog.Warn("telemetry write failed", "error", err)
	}
}
