// Command physac2d-run steps a scene without a window and logs world
// statistics, optionally next to a Chipmunk replay of the same scene.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/koteyur/physac2d/dynamics"
	"github.com/koteyur/physac2d/internal/config"
	"github.com/koteyur/physac2d/internal/cpbench"
	"github.com/koteyur/physac2d/internal/logging"
	"github.com/koteyur/physac2d/scene"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "TOML config file")
	scenePath := flag.String("scene", "", "YAML scene file, overrides runner.scene")
	steps := flag.Int("steps", 0, "number of steps, overrides runner.steps")
	compare := flag.Bool("compare", false, "replay the scene in Chipmunk and report the drift")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *scenePath != "" {
		cfg.Runner.Scene = *scenePath
	}
	if *steps > 0 {
		cfg.Runner.Steps = *steps
	}
	if *compare {
		cfg.Runner.CompareChipmunk = true
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	s := scene.Demo()
	if cfg.Runner.Scene != "" {
		if s, err = scene.Load(cfg.Runner.Scene); err != nil {
			return err
		}
	}
	w, _, err := s.NewWorld(cfg.World.GravityVec(), log, dynamics.WithSettings(cfg.World.Settings()))
	if err != nil {
		return err
	}

	var mirror *cpbench.Mirror
	if cfg.Runner.CompareChipmunk {
		if mirror, err = cpbench.NewMirror(w); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("run started",
		zap.String("scene", s.Name),
		zap.Int("steps", cfg.Runner.Steps),
		zap.Float64("hz", cfg.Runner.Hz),
		zap.Bool("compare", mirror != nil))

	sum := simulate(ctx, w, mirror, cfg.Runner, log)
	log.Info("run finished",
		zap.Int("steps", sum.Steps),
		zap.Duration("elapsed", sum.Elapsed),
		zap.Duration("per_step", sum.PerStep()),
		zap.Int("toi_events", sum.TOIEvents),
		zap.Int("broken_joints", sum.Broken))
	if mirror != nil {
		elapsed := float64(sum.Steps) / cfg.Runner.Hz
		log.Info("chipmunk drift",
			zap.Stringer("report", mirror.Compare()),
			zap.Float64("integration_lag", cpbench.Lag(w.Gravity(), 1/cfg.Runner.Hz, elapsed)))
	}
	return nil
}
