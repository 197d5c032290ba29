package dynamics

import (
	"testing"

	"github.com/koteyur/physac2d/collision"
	"github.com/koteyur/physac2d/geom"
)

// shootAtWall fires a small fast circle at a thin static wall at x = 5 and
// returns the projectile after one second.
func shootAtWall(t *testing.T, s Settings, setup func(b *Body)) *Body {
	t.Helper()
	w := NewWorld(geom.Vec2{}, WithSettings(s))

	def := DefaultBodyDef()
	def.Position = geom.V(5, 0)
	wall := w.CreateBody(def)
	if _, err := wall.CreateFixture(collision.NewBox(0.1, 5), 0, nil); err != nil {
		t.Fatal(err)
	}

	b := addDynamic(t, w, geom.Vec2{}, collision.NewCircle(0.1))
	b.SetLinearVelocity(geom.V(500, 0))
	if setup != nil {
		setup(b)
	}
	step(w, 60)
	if !finite(b) {
		t.Fatalf("projectile state is not finite: %v", b.Position())
	}
	return b
}

func TestContinuousCollision(t *testing.T) {
	noCCD := DefaultSettings()
	noCCD.ContinuousPhysics = false

	cases := []struct {
		name     string
		settings Settings
		setup    func(b *Body)
		tunnels  bool
	}{
		{"stopped_by_wall", DefaultSettings(), nil, false},
		{"bullet_stopped_by_wall", DefaultSettings(), func(b *Body) { b.SetBullet(true) }, false},
		{"continuous_disabled", noCCD, nil, true},
		{"body_ignores_ccd", DefaultSettings(), func(b *Body) { b.SetIgnoreCCD(true) }, true},
		{"fixture_ignores_wall_category", DefaultSettings(), func(b *Body) {
			b.Fixtures()[0].IgnoreCCDWith = DefaultFilter().Category
		}, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			b := shootAtWall(t, c.settings, c.setup)
			x := b.Position().X
			if c.tunnels && x < 5 {
				t.Fatalf("projectile stopped at x = %v, expected it to pass the wall", x)
			}
			if !c.tunnels && x >= 5 {
				t.Fatalf("projectile tunnelled to x = %v", x)
			}
		})
	}
}

func TestTOICountsEvents(t *testing.T) {
	w := NewWorld(geom.Vec2{})
	def := DefaultBodyDef()
	def.Position = geom.V(5, 0)
	wall := w.CreateBody(def)
	if _, err := wall.CreateFixture(collision.NewBox(0.1, 5), 0, nil); err != nil {
		t.Fatal(err)
	}
	b := addDynamic(t, w, geom.Vec2{}, collision.NewCircle(0.1))
	b.SetLinearVelocity(geom.V(500, 0))

	events := 0
	for i := 0; i < 60; i++ {
		w.Step(testDt)
		events += w.Stats().TOIEvents
	}
	if events == 0 {
		t.Fatal("no time of impact events recorded")
	}
}

func TestSubStepping(t *testing.T) {
	s := DefaultSettings()
	s.EnableSubStepping = true
	b := shootAtWall(t, s, nil)
	if x := b.Position().X; x >= 5 {
		t.Fatalf("projectile tunnelled to x = %v with sub-stepping", x)
	}
}
