package controllers

import (
	"math"
	"testing"

	"github.com/koteyur/physac2d/collision"
	"github.com/koteyur/physac2d/dynamics"
	"github.com/koteyur/physac2d/geom"
)

const dt = 1.0 / 60.0

func newBall(t *testing.T, w *dynamics.World, pos geom.Vec2) *dynamics.Body {
	t.Helper()
	def := dynamics.DefaultBodyDef()
	def.Type = dynamics.Dynamic
	def.Position = pos
	b := w.CreateBody(def)
	if _, err := b.CreateFixture(collision.NewCircle(0.25), 1, nil); err != nil {
		t.Fatal(err)
	}
	return b
}

func run(w *dynamics.World, n int) {
	for i := 0; i < n; i++ {
		w.Step(dt)
	}
}

func TestPointGravity(t *testing.T) {
	cases := []struct {
		name    string
		setup   func(g *PointGravity)
		start   geom.Vec2
		attract bool
	}{
		{"linear", nil, geom.V(5, 0), true},
		{"inverse_square", func(g *PointGravity) { g.Falloff = InverseSquare }, geom.V(0, 3), true},
		{"out_of_range", func(g *PointGravity) { g.MaxRadius = 2 }, geom.V(5, 0), false},
		{"filtered", func(g *PointGravity) {
			g.Filter = func(*dynamics.Body) bool { return false }
		}, geom.V(5, 0), false},
		{"disabled", func(g *PointGravity) { g.SetEnabled(false) }, geom.V(5, 0), false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := dynamics.NewWorld(geom.Vec2{})
			b := newBall(t, w, c.start)
			g := NewPointGravity(geom.Vec2{}, 20)
			if err := w.AddController(g); err != nil {
				t.Fatal(err)
			}
			if c.setup != nil {
				c.setup(g)
			}
			run(w, 30)

			d0 := c.start.Len()
			d1 := b.Position().Len()
			if c.attract && d1 >= d0 {
				t.Fatalf("body not attracted: %v -> %v", d0, d1)
			}
			if !c.attract && math.Abs(d1-d0) > 1e-9 {
				t.Fatalf("body moved: %v -> %v", d0, d1)
			}
		})
	}
}

func TestPointGravitySkipsSleepers(t *testing.T) {
	w := dynamics.NewWorld(geom.Vec2{})
	b := newBall(t, w, geom.V(5, 0))
	b.SetAwake(false)
	if err := w.AddController(NewPointGravity(geom.Vec2{}, 20)); err != nil {
		t.Fatal(err)
	}
	run(w, 10)
	if b.IsAwake() {
		t.Fatal("field woke a sleeping body")
	}
}

func TestVelocityLimit(t *testing.T) {
	w := dynamics.NewWorld(geom.Vec2{})
	b := newBall(t, w, geom.Vec2{})
	b.SetLinearVelocity(geom.V(30, 40))
	b.SetAngularVelocity(-50)
	if err := w.AddController(NewVelocityLimit(10, 5)); err != nil {
		t.Fatal(err)
	}
	w.Step(dt)

	if v := b.LinearVelocity(); math.Abs(v.Len()-10) > 1e-9 || math.Abs(v.X/v.Y-0.75) > 1e-9 {
		t.Errorf("linear velocity = %v", v)
	}
	if a := b.AngularVelocity(); math.Abs(a+5) > 1e-9 {
		t.Errorf("angular velocity = %v", a)
	}
}

func TestDrag(t *testing.T) {
	t.Run("slows", func(t *testing.T) {
		w := dynamics.NewWorld(geom.Vec2{})
		b := newBall(t, w, geom.Vec2{})
		b.SetLinearVelocity(geom.V(10, 0))
		b.SetAngularVelocity(10)
		if err := w.AddController(NewDrag(1, 1)); err != nil {
			t.Fatal(err)
		}
		run(w, 60)
		// about 10/e after one second
		if v := b.LinearVelocity().X; v < 3 || v > 4.5 {
			t.Errorf("speed after drag = %v", v)
		}
		if a := b.AngularVelocity(); a < 3 || a > 4.5 {
			t.Errorf("spin after drag = %v", a)
		}
	})
	t.Run("wind", func(t *testing.T) {
		w := dynamics.NewWorld(geom.Vec2{})
		b := newBall(t, w, geom.Vec2{})
		d := NewDrag(0, 0)
		d.Wind = geom.V(2, 0)
		if err := w.AddController(d); err != nil {
			t.Fatal(err)
		}
		run(w, 60)
		if v := b.LinearVelocity(); math.Abs(v.X-2) > 1e-6 || v.Y != 0 {
			t.Errorf("velocity under wind = %v", v)
		}
	})
}
