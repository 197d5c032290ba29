package main

import (
	"fmt"
	"image/color"
	"path/filepath"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"go.uber.org/zap"

	"github.com/koteyur/physac2d/collision"
	"github.com/koteyur/physac2d/dynamics"
	"github.com/koteyur/physac2d/geom"
	"github.com/koteyur/physac2d/internal/config"
	"github.com/koteyur/physac2d/scene"
)

const (
	circleSegments = 24
	shatterImpulse = 20
)

var (
	colorAwake    = color.RGBA{0, 255, 0, 255}
	colorSleeping = color.RGBA{80, 140, 80, 255}
	colorStatic   = color.RGBA{160, 160, 160, 255}
	colorJoint    = color.RGBA{90, 160, 255, 255}
	colorContact  = color.RGBA{255, 60, 60, 255}
)

type Game struct {
	cfg *config.Config
	log *zap.Logger

	scene   *scene.Scene
	world   *dynamics.World
	stepper *dynamics.FixedStepper
	watcher *scene.Watcher

	physicsActive bool
	last          time.Time
	width, height int
}

func newGame(cfg *config.Config, log *zap.Logger) (*Game, error) {
	g := &Game{
		cfg:    cfg,
		log:    log,
		width:  cfg.Viewer.Width,
		height: cfg.Viewer.Height,
	}
	if err := g.reload(); err != nil {
		return nil, err
	}
	if cfg.Viewer.HotReload && cfg.Runner.Scene != "" {
		w, err := scene.NewWatcher(filepath.Dir(cfg.Runner.Scene))
		if err != nil {
			return nil, fmt.Errorf("watch scene: %w", err)
		}
		g.watcher = w
	}
	return g, nil
}

func (g *Game) close() {
	if g.watcher != nil {
		_ = g.watcher.Close()
	}
}

func (g *Game) sceneName() string {
	if g.scene == nil {
		return ""
	}
	return g.scene.Name
}

// reload rebuilds the world from the scene file, or the demo scene when
// none is configured. A broken file keeps the current world.
func (g *Game) reload() error {
	s := scene.Demo()
	if g.cfg.Runner.Scene != "" {
		var err error
		if s, err = scene.Load(g.cfg.Runner.Scene); err != nil {
			return err
		}
	}
	opts := []dynamics.Option{dynamics.WithSettings(g.cfg.World.Settings())}
	w, _, err := s.NewWorld(g.cfg.World.GravityVec(), g.log, opts...)
	if err != nil {
		return err
	}
	g.scene = s
	g.world = w
	g.stepper = dynamics.NewFixedStepper(w, g.cfg.Runner.Hz)
	g.last = time.Time{}
	return nil
}

func (g *Game) pollWatcher() {
	if g.watcher == nil {
		return
	}
	for {
		select {
		case name, ok := <-g.watcher.Events:
			if !ok {
				g.watcher = nil
				return
			}
			if err := g.reload(); err != nil {
				g.log.Warn("reload failed", zap.String("file", name), zap.Error(err))
				continue
			}
			g.log.Info("scene reloaded", zap.String("file", name))
		case err, ok := <-g.watcher.Errors:
			if ok {
				g.log.Warn("watch error", zap.Error(err))
			}
		default:
			return
		}
	}
}

// toScreen maps world meters to pixels with the origin at the bottom
// center of the window.
func (g *Game) toScreen(p geom.Vec2) (float32, float32) {
	s := g.cfg.Viewer.Scale
	return float32(float64(g.width)/2 + p.X*s), float32(float64(g.height) - p.Y*s)
}

func (g *Game) toWorld(x, y int) geom.Vec2 {
	s := g.cfg.Viewer.Scale
	return geom.V((float64(x)-float64(g.width)/2)/s, (float64(g.height)-float64(y))/s)
}

func (g *Game) Update() error {
	g.pollWatcher()

	touches := inpututil.AppendJustPressedTouchIDs(nil)
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) ||
		inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) ||
		len(touches) > 0 {
		g.physicsActive = !g.physicsActive
		g.last = time.Time{}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		if err := g.reload(); err != nil {
			g.log.Warn("reload failed", zap.Error(err))
		}
	}
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonRight) {
		g.shatterAt(ebiten.CursorPosition())
	}

	if !g.physicsActive {
		return nil
	}
	now := time.Now()
	if !g.last.IsZero() {
		g.stepper.Advance(now.Sub(g.last))
	}
	g.last = now
	return nil
}

func (g *Game) shatterAt(x, y int) {
	p := g.toWorld(x, y)
	f := g.world.TestPoint(p)
	if f == nil || f.Body().Type() != dynamics.Dynamic {
		return
	}
	frags, err := dynamics.Shatter(g.world, f.Body(), p, shatterImpulse)
	if err != nil {
		g.log.Debug("shatter skipped", zap.Error(err))
		return
	}
	g.log.Debug("shattered", zap.Int("fragments", len(frags)))
}

func (g *Game) Draw(screen *ebiten.Image) {
	for _, b := range g.world.Bodies() {
		clr := colorAwake
		switch {
		case b.Type() == dynamics.Static:
			clr = colorStatic
		case !b.IsAwake():
			clr = colorSleeping
		}
		for _, f := range b.Fixtures() {
			g.drawOutline(screen, collision.Outline(f.Shape(), b.Transform(), circleSegments), clr)
		}
	}

	for _, j := range g.world.Joints() {
		if !j.Enabled() {
			continue
		}
		x0, y0 := g.toScreen(j.AnchorA())
		x1, y1 := g.toScreen(j.AnchorB())
		vector.StrokeLine(screen, x0, y0, x1, y1, 1, colorJoint, false)
	}

	if g.cfg.Viewer.Debug {
		for _, c := range g.world.Contacts() {
			if !c.IsTouching() {
				continue
			}
			wm := c.WorldManifold()
			for i := 0; i < c.Manifold().PointCount; i++ {
				x, y := g.toScreen(wm.Points[i])
				vector.StrokeRect(screen, x-2, y-2, 4, 4, 1, colorContact, false)
			}
		}
	}

	st := g.world.Stats()
	state := "paused"
	if g.physicsActive {
		state = "running"
	}
	ebitenutil.DebugPrintAt(screen, "Press <space> or click to start/stop, right click to shatter, R to reload", 10, 10)
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%s  bodies %d (awake %d)  contacts %d  islands %d  tree height %d",
		state, st.Bodies, st.AwakeBodies, st.Touching, st.Islands, st.TreeHeight), 10, 26)
}

func (g *Game) drawOutline(screen *ebiten.Image, pts []geom.Vec2, clr color.Color) {
	for i := range pts {
		// the last vertex closes the shape
		x0, y0 := g.toScreen(pts[i])
		x1, y1 := g.toScreen(pts[(i+1)%len(pts)])
		vector.StrokeLine(screen, x0, y0, x1, y1, 1, clr, true)
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.width, g.height = outsideWidth, outsideHeight
	return outsideWidth, outsideHeight
}
