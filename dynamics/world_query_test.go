package dynamics

import (
	"errors"
	"testing"
	"time"

	"github.com/koteyur/physac2d/collision"
	"github.com/koteyur/physac2d/geom"
)

func TestRayCastClosest(t *testing.T) {
	w := NewWorld(geom.V(0, -10))
	ground := addGround(t, w)
	ball := addDynamic(t, w, geom.V(0, 3), collision.NewCircle(0.5))

	cases := []struct {
		name       string
		p1, p2     geom.Vec2
		want       *Body
		point      geom.Vec2
		normal     geom.Vec2
		shouldMiss bool
	}{
		{"hits_ball_first", geom.V(0, 10), geom.V(0, -5), ball, geom.V(0, 3.5), geom.V(0, 1), false},
		{"hits_ground", geom.V(3, 5), geom.V(3, -5), ground, geom.V(3, 0), geom.V(0, 1), false},
		{"from_below", geom.V(3, -5), geom.V(3, -1.5), ground, geom.V(3, -2), geom.V(0, -1), false},
		{"misses", geom.V(60, 5), geom.V(60, -5), nil, geom.Vec2{}, geom.Vec2{}, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f, point, normal, ok := w.RayCastClosest(c.p1, c.p2)
			if c.shouldMiss {
				if ok {
					t.Fatalf("unexpected hit on body %d", f.Body().ID())
				}
				return
			}
			if !ok || f.Body() != c.want {
				t.Fatalf("hit = %v, want body %d", ok, c.want.ID())
			}
			if point.Distance(c.point) > 1e-6 {
				t.Errorf("point = %v, want %v", point, c.point)
			}
			if normal.Distance(c.normal) > 1e-6 {
				t.Errorf("normal = %v, want %v", normal, c.normal)
			}
		})
	}
}

func TestRayCastProtocol(t *testing.T) {
	w := NewWorld(geom.Vec2{})
	for i := 0; i < 4; i++ {
		addDynamic(t, w, geom.V(2+2*float64(i), 0), collision.NewBox(0.5, 0.5))
	}
	p1, p2 := geom.V(0, 0), geom.V(20, 0)

	t.Run("continue_sees_all", func(t *testing.T) {
		hits := 0
		w.RayCast(func(*Fixture, geom.Vec2, geom.Vec2, float64) float64 {
			hits++
			return 1
		}, p1, p2)
		if hits != 4 {
			t.Fatalf("hits = %d, want 4", hits)
		}
	})
	t.Run("terminate", func(t *testing.T) {
		hits := 0
		w.RayCast(func(*Fixture, geom.Vec2, geom.Vec2, float64) float64 {
			hits++
			return 0
		}, p1, p2)
		if hits != 1 {
			t.Fatalf("hits = %d, want 1", hits)
		}
	})
	t.Run("ignore", func(t *testing.T) {
		hits := 0
		w.RayCast(func(*Fixture, geom.Vec2, geom.Vec2, float64) float64 {
			hits++
			return -1
		}, p1, p2)
		if hits != 4 {
			t.Fatalf("hits = %d, want 4", hits)
		}
	})
	t.Run("clip_keeps_nearest", func(t *testing.T) {
		best := 2.0
		w.RayCast(func(_ *Fixture, _ geom.Vec2, _ geom.Vec2, fraction float64) float64 {
			if fraction < best {
				best = fraction
			}
			return fraction
		}, p1, p2)
		if !near(best, 1.5/20, 1e-9) {
			t.Fatalf("nearest fraction = %v", best)
		}
	})
}

func TestRegionQueries(t *testing.T) {
	w := NewWorld(geom.Vec2{})
	a := addDynamic(t, w, geom.V(0, 0), collision.NewCircle(0.5))
	b := addDynamic(t, w, geom.V(3, 0), collision.NewBox(0.5, 0.5))
	c := addDynamic(t, w, geom.V(10, 10), collision.NewCircle(0.5))

	bodiesOf := func(fs []*Fixture) map[*Body]bool {
		m := make(map[*Body]bool)
		for _, f := range fs {
			m[f.Body()] = true
		}
		return m
	}

	t.Run("aabb", func(t *testing.T) {
		got := bodiesOf(w.QueryAABBFixtures(geom.AABB{Lower: geom.V(-1, -1), Upper: geom.V(4, 1)}))
		if len(got) != 2 || !got[a] || !got[b] || got[c] {
			t.Fatalf("aabb query found %d bodies", len(got))
		}
	})
	t.Run("aabb_stop", func(t *testing.T) {
		calls := 0
		w.QueryAABB(geom.AABB{Lower: geom.V(-20, -20), Upper: geom.V(20, 20)}, func(*Fixture) bool {
			calls++
			return false
		})
		if calls != 1 {
			t.Fatalf("calls = %d, want 1", calls)
		}
	})
	t.Run("circle", func(t *testing.T) {
		// the circle reaches b's face but stops short of a
		got := bodiesOf(w.QueryCircle(geom.V(1.8, 0), 0.8))
		if len(got) != 1 || !got[b] {
			t.Fatalf("circle query found %v", got)
		}
	})
	t.Run("point", func(t *testing.T) {
		if f := w.TestPoint(geom.V(3.4, 0.4)); f == nil || f.Body() != b {
			t.Fatal("point inside the box not found")
		}
		if f := w.TestPoint(geom.V(0.45, 0.45)); f != nil {
			t.Fatal("point outside the circle reported")
		}
	})
}

func TestShatter(t *testing.T) {
	t.Run("box", func(t *testing.T) {
		w := NewWorld(geom.Vec2{})
		box := addDynamic(t, w, geom.V(0, 5), collision.NewBox(1, 1))
		frags, err := Shatter(w, box, geom.V(0, 5), 0.5)
		if err != nil {
			t.Fatal(err)
		}
		if len(frags) != 4 {
			t.Fatalf("fragments = %d, want 4", len(frags))
		}
		if box.InWorld() || w.BodyCount() != 4 {
			t.Fatalf("original body still present, %d bodies", w.BodyCount())
		}

		before := make([]float64, len(frags))
		for i, f := range frags {
			before[i] = f.Position().Distance(geom.V(0, 5))
		}
		step(w, 10)
		for i, f := range frags {
			if d := f.Position().Distance(geom.V(0, 5)); d <= before[i] {
				t.Errorf("fragment %d did not move away: %v -> %v", i, before[i], d)
			}
		}
	})
	t.Run("point_outside", func(t *testing.T) {
		w := NewWorld(geom.Vec2{})
		box := addDynamic(t, w, geom.V(0, 5), collision.NewBox(1, 1))
		frags, err := Shatter(w, box, geom.V(5, 5), 1)
		if err != nil || frags != nil {
			t.Fatalf("frags %v err %v", frags, err)
		}
		if !box.InWorld() {
			t.Fatal("body removed for a miss")
		}
	})
	t.Run("circle", func(t *testing.T) {
		w := NewWorld(geom.Vec2{})
		ball := addDynamic(t, w, geom.Vec2{}, collision.NewCircle(1))
		if _, err := Shatter(w, ball, geom.Vec2{}, 1); !errors.Is(err, ErrNotShatterable) {
			t.Fatalf("err = %v", err)
		}
	})
	t.Run("while_locked", func(t *testing.T) {
		w := NewWorld(geom.Vec2{})
		box := addDynamic(t, w, geom.V(0, 5), collision.NewBox(1, 1))
		var frags []*Body
		ctrl := &funcController{}
		ctrl.fn = func(float64) {
			if frags != nil {
				return
			}
			var err error
			if frags, err = Shatter(w, box, geom.V(0.2, 5.1), 1); err != nil {
				t.Error(err)
			}
		}
		if err := w.AddController(ctrl); err != nil {
			t.Fatal(err)
		}
		w.Step(testDt)
		if len(frags) != 4 || w.BodyCount() != 1 {
			t.Fatalf("changes were not deferred: %d fragments, %d bodies", len(frags), w.BodyCount())
		}
		if box.InWorld() || !frags[0].InWorld() {
			t.Fatal("queued membership not reported")
		}
		w.Step(testDt)
		if box.InWorld() || w.BodyCount() != 4 {
			t.Fatalf("deferred shatter not applied: %d bodies", w.BodyCount())
		}
	})
}

func TestFixedStepper(t *testing.T) {
	w := NewWorld(geom.Vec2{})
	steps := 0
	ctrl := &funcController{fn: func(float64) { steps++ }}
	if err := w.AddController(ctrl); err != nil {
		t.Fatal(err)
	}

	s := NewFixedStepper(w, 60)
	if n := s.Advance(40 * time.Millisecond); n != 2 || steps != 2 {
		t.Fatalf("advance 40ms: %d steps", n)
	}
	if a := s.Alpha(); !near(a, 0.4, 1e-6) {
		t.Fatalf("alpha = %v, want 0.4", a)
	}
	if n := s.Advance(time.Second); n != 8 {
		t.Fatalf("advance 1s: %d steps, want cap 8", n)
	}
	if s.Alpha() != 0 {
		t.Fatal("backlog kept past the cap")
	}
	s.Advance(5 * time.Millisecond)
	s.Reset()
	if s.Alpha() != 0 {
		t.Fatal("reset kept time")
	}
}
