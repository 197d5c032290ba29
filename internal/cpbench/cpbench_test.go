package cpbench

import (
	"math"
	"testing"

	"github.com/koteyur/physac2d/collision"
	"github.com/koteyur/physac2d/dynamics"
	"github.com/koteyur/physac2d/geom"
)

const dt = 1.0 / 60.0

func addBody(t *testing.T, w *dynamics.World, typ dynamics.BodyType, pos geom.Vec2, shape collision.Shape) *dynamics.Body {
	t.Helper()
	def := dynamics.DefaultBodyDef()
	def.Type = typ
	def.Position = pos
	b := w.CreateBody(def)
	if _, err := b.CreateFixture(shape, 1, nil); err != nil {
		t.Fatal(err)
	}
	return b
}

func TestFreeFallMatches(t *testing.T) {
	w := dynamics.NewWorld(geom.V(0, -10))
	addBody(t, w, dynamics.Dynamic, geom.V(0, 10), collision.NewCircle(0.5))
	b := addBody(t, w, dynamics.Dynamic, geom.V(3, 10), collision.NewBox(0.5, 0.25))
	b.SetLinearVelocity(geom.V(1, 2))

	m, err := NewMirror(w)
	if err != nil {
		t.Fatal(err)
	}
	if m.Len() != 2 {
		t.Fatalf("mirrored %d bodies", m.Len())
	}
	for i := 0; i < 60; i++ {
		w.Step(dt)
		m.Step(dt)
	}
	lag := Lag(w.Gravity(), dt, 1)
	r := m.Compare()
	if math.Abs(r.MaxDist-lag) > 1e-6 || math.Abs(r.Mean-lag) > 1e-6 {
		t.Fatalf("free fall diverged: %v, want drift %.4f", r, lag)
	}
}

func TestRestingBoxStaysClose(t *testing.T) {
	w := dynamics.NewWorld(geom.V(0, -10))
	addBody(t, w, dynamics.Static, geom.V(0, -1), collision.NewBox(20, 1))
	// chipmunk lets shapes sink by its collision slop
	addBody(t, w, dynamics.Dynamic, geom.V(0, 0.5), collision.NewBox(0.5, 0.5))

	m, err := NewMirror(w)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 120; i++ {
		w.Step(dt)
		m.Step(dt)
	}
	r := m.Compare()
	if r.Bodies != 2 || r.MaxDist > 0.15 {
		t.Fatalf("resting box diverged: %v", r)
	}
}

func TestEmptyCompare(t *testing.T) {
	m, err := NewMirror(dynamics.NewWorld(geom.Vec2{}))
	if err != nil {
		t.Fatal(err)
	}
	if r := m.Compare(); r.Bodies != 0 || r.Worst != -1 {
		t.Fatalf("report = %v", r)
	}
}

func TestOffsetCenterOfMass(t *testing.T) {
	w := dynamics.NewWorld(geom.Vec2{})
	def := dynamics.DefaultBodyDef()
	def.Type = dynamics.Dynamic
	def.Position = geom.V(1, 2)
	b := w.CreateBody(def)
	if _, err := b.CreateFixture(collision.NewOrientedBox(0.5, 0.5, geom.V(2, 0), 0), 1, nil); err != nil {
		t.Fatal(err)
	}
	b.SetAngularVelocity(1)

	m, err := NewMirror(w)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 30; i++ {
		w.Step(dt)
		m.Step(dt)
	}
	// a free spin leaves the center of mass in place in both engines
	if r := m.Compare(); r.MaxDist > 1e-6 {
		t.Fatalf("offset body diverged: %v", r)
	}
}
