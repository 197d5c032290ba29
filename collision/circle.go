package collision

import (
	"math"

	"github.com/koteyur/physac2d/geom"
)

// CircleShape is a solid disc around a local center.
type CircleShape struct {
	Center geom.Vec2
	R      float64
}

// NewCircle returns a circle of the given radius centered at the local
// origin.
func NewCircle(radius float64) *CircleShape {
	return &CircleShape{R: radius}
}

func (c *CircleShape) Type() ShapeType { return Circle }

func (c *CircleShape) Radius() float64 { return c.R }

func (c *CircleShape) ChildCount() int { return 1 }

func (c *CircleShape) Clone() Shape {
	cp := *c
	return &cp
}

func (c *CircleShape) TestPoint(xf geom.Transform, p geom.Vec2) bool {
	center := xf.Apply(c.Center)
	return p.DistanceSqr(center) <= c.R*c.R
}

// RayCast solves |p1 + t*d - c| = r for the smallest t in [0, maxFraction].
func (c *CircleShape) RayCast(in geom.RayCastInput, xf geom.Transform, child int) (geom.RayCastOutput, bool) {
	position := xf.Apply(c.Center)
	s := in.P1.Sub(position)
	b := s.LenSqr() - c.R*c.R

	r := in.P2.Sub(in.P1)
	cc := s.Dot(r)
	rr := r.LenSqr()
	sigma := cc*cc - rr*b

	if sigma < 0 || rr < geom.Epsilon {
		return geom.RayCastOutput{}, false
	}

	a := -(cc + math.Sqrt(sigma))
	if 0 <= a && a <= in.MaxFraction*rr {
		a /= rr
		n := s.Add(r.Mul(a)).Unit()
		return geom.RayCastOutput{Normal: n, Fraction: a}, true
	}
	return geom.RayCastOutput{}, false
}

func (c *CircleShape) ComputeAABB(xf geom.Transform, child int) geom.AABB {
	p := xf.Apply(c.Center)
	return geom.AABB{
		Lower: geom.V(p.X-c.R, p.Y-c.R),
		Upper: geom.V(p.X+c.R, p.Y+c.R),
	}
}

func (c *CircleShape) ComputeMass(density float64) MassData {
	mass := density * math.Pi * c.R * c.R
	return MassData{
		Mass:   mass,
		Center: c.Center,
		// inertia about the local origin
		I: mass * (0.5*c.R*c.R + c.Center.LenSqr()),
	}
}

func (c *CircleShape) Proxy(child int) DistanceProxy {
	return DistanceProxy{Vertices: []geom.Vec2{c.Center}, Radius: c.R}
}
