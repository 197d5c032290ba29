package controllers

import (
	"github.com/koteyur/physac2d/dynamics"
	"github.com/koteyur/physac2d/geom"
)

type Falloff int

const (
	// Linear weakens the pull with 1/r.
	Linear Falloff = iota
	// InverseSquare weakens the pull with 1/r².
	InverseSquare
)

// PointGravity pulls bodies toward Center. Bodies closer than MinRadius or
// farther than MaxRadius are not affected; a zero MaxRadius means no
// limit.
type PointGravity struct {
	dynamics.ControllerBase

	Center    geom.Vec2
	Strength  float64
	Falloff   Falloff
	MinRadius float64
	MaxRadius float64
	// Filter, when set, restricts the field to the bodies it accepts.
	Filter func(*dynamics.Body) bool
}

func NewPointGravity(center geom.Vec2, strength float64) *PointGravity {
	return &PointGravity{Center: center, Strength: strength, MinRadius: 0.1}
}

func (g *PointGravity) Update(dt float64) {
	w := g.World()
	if w == nil {
		return
	}
	for _, b := range w.Bodies() {
		if !affected(b, g.Filter) {
			continue
		}
		d := g.Center.Sub(b.WorldCenter())
		dir, r := d.Normalize()
		if r < g.MinRadius || r == 0 || (g.MaxRadius > 0 && r > g.MaxRadius) {
			continue
		}
		var mag float64
		switch g.Falloff {
		case InverseSquare:
			mag = g.Strength / (r * r)
		default:
			mag = g.Strength / r
		}
		b.ApplyForceToCenter(dir.Mul(mag * b.Mass()))
	}
}
