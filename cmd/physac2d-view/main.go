// Command physac2d-view opens a window and draws a scene while it runs.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"

	"github.com/koteyur/physac2d/internal/config"
	"github.com/koteyur/physac2d/internal/logging"
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
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *scenePath != "" {
		cfg.Runner.Scene = *scenePath
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	g, err := newGame(cfg, log)
	if err != nil {
		return err
	}
	defer g.close()

	ebiten.SetWindowSize(cfg.Viewer.Width, cfg.Viewer.Height)
	ebiten.SetWindowTitle("physac2d")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	log.Info("viewer started", zap.String("scene", g.sceneName()))
	return ebiten.RunGame(g)
}
