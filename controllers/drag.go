package controllers

import (
	"github.com/koteyur/physac2d/dynamics"
	"github.com/koteyur/physac2d/geom"
)

// Drag slows bodies in proportion to their speed and pushes them with a
// constant Wind acceleration. Both drag terms are per unit mass.
type Drag struct {
	dynamics.ControllerBase

	LinearDrag  float64
	AngularDrag float64
	Wind        geom.Vec2
	Filter      func(*dynamics.Body) bool
}

func NewDrag(linear, angular float64) *Drag {
	return &Drag{LinearDrag: linear, AngularDrag: angular}
}

func (d *Drag) Update(dt float64) {
	w := d.World()
	if w == nil {
		return
	}
	for _, b := range w.Bodies() {
		if !affected(b, d.Filter) {
			continue
		}
		m := b.Mass()
		f := b.LinearVelocity().Mul(-d.LinearDrag * m).Add(d.Wind.Mul(m))
		if f.LenSqr() > 0 {
			b.ApplyForceToCenter(f)
		}
		if t := -d.AngularDrag * b.Inertia() * b.AngularVelocity(); t != 0 {
			b.ApplyTorque(t)
		}
	}
}
