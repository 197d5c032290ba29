package collision

import (
	"errors"
	"math"

	"github.com/koteyur/physac2d/geom"
)

// ErrDegeneratePolygon is returned when the points do not span a convex
// polygon with positive area.
var ErrDegeneratePolygon = errors.New("collision: degenerate polygon")

// PolygonShape is a solid convex polygon in counter-clockwise order, with
// an outward normal per edge.
type PolygonShape struct {
	Vertices []geom.Vec2
	Normals  []geom.Vec2
	Centroid geom.Vec2
	R        float64
}

// NewBox returns an axis-aligned box centered on the local origin.
func NewBox(hx, hy float64) *PolygonShape {
	return &PolygonShape{
		Vertices: []geom.Vec2{geom.V(-hx, -hy), geom.V(hx, -hy), geom.V(hx, hy), geom.V(-hx, hy)},
		Normals:  []geom.Vec2{geom.V(0, -1), geom.V(1, 0), geom.V(0, 1), geom.V(-1, 0)},
		R:        PolygonRadius,
	}
}

// NewOrientedBox returns a box rotated by angle around center.
func NewOrientedBox(hx, hy float64, center geom.Vec2, angle float64) *PolygonShape {
	p := NewBox(hx, hy)
	xf := geom.NewTransform(center, angle)
	for i := range p.Vertices {
		p.Vertices[i] = xf.Apply(p.Vertices[i])
		p.Normals[i] = xf.Q.Apply(p.Normals[i])
	}
	p.Centroid = center
	return p
}

// NewRegularPolygon lays out sides vertices on a circle of the given
// radius. sides is clamped to [3, MaxPolygonVertices].
func NewRegularPolygon(radius float64, sides int) *PolygonShape {
	if sides < 3 {
		sides = 3
	}
	if sides > MaxPolygonVertices {
		sides = MaxPolygonVertices
	}
	p := &PolygonShape{
		Vertices: make([]geom.Vec2, sides),
		Normals:  make([]geom.Vec2, sides),
		R:        PolygonRadius,
	}
	step := 2 * math.Pi / float64(sides)
	for i := 0; i < sides; i++ {
		s, c := math.Sincos(step * float64(i))
		p.Vertices[i] = geom.V(c*radius, s*radius)
	}
	p.computeNormals()
	return p
}

// NewPolygon builds the convex hull of points. Points closer than half a
// linear slop are welded. At most MaxPolygonVertices points are used.
func NewPolygon(points []geom.Vec2) (*PolygonShape, error) {
	if len(points) < 3 {
		return nil, ErrDegeneratePolygon
	}
	n := len(points)
	if n > MaxPolygonVertices {
		n = MaxPolygonVertices
	}

	ps := make([]geom.Vec2, 0, n)
	for _, v := range points[:n] {
		unique := true
		for _, w := range ps {
			if v.DistanceSqr(w) < (0.5*LinearSlop)*(0.5*LinearSlop) {
				unique = false
				break
			}
		}
		if unique {
			ps = append(ps, v)
		}
	}
	if len(ps) < 3 {
		return nil, ErrDegeneratePolygon
	}

	hull := giftWrap(ps)
	if len(hull) < 3 {
		return nil, ErrDegeneratePolygon
	}

	p := &PolygonShape{
		Vertices: hull,
		Normals:  make([]geom.Vec2, len(hull)),
		R:        PolygonRadius,
	}
	p.computeNormals()
	p.Centroid = polygonCentroid(hull)
	return p, nil
}

// giftWrap returns the convex hull in counter-clockwise order, starting
// from the right-most lowest point.
func giftWrap(ps []geom.Vec2) []geom.Vec2 {
	i0 := 0
	x0 := ps[0].X
	for i := 1; i < len(ps); i++ {
		x := ps[i].X
		if x > x0 || (x == x0 && ps[i].Y < ps[i0].Y) {
			i0 = i
			x0 = x
		}
	}

	var hull []int
	ih := i0
	for {
		if len(hull) > len(ps) {
			return nil
		}
		hull = append(hull, ih)

		ie := 0
		for j := 1; j < len(ps); j++ {
			if ie == ih {
				ie = j
				continue
			}
			r := ps[ie].Sub(ps[hull[len(hull)-1]])
			v := ps[j].Sub(ps[hull[len(hull)-1]])
			c := r.Cross(v)
			if c < 0 {
				ie = j
			}
			// collinear: keep the farthest point
			if c == 0 && v.LenSqr() > r.LenSqr() {
				ie = j
			}
		}
		ih = ie
		if ie == i0 {
			break
		}
	}

	out := make([]geom.Vec2, len(hull))
	for i, idx := range hull {
		out[i] = ps[idx]
	}
	return out
}

func (p *PolygonShape) computeNormals() {
	n := len(p.Vertices)
	if len(p.Normals) != n {
		p.Normals = make([]geom.Vec2, n)
	}
	for i := 0; i < n; i++ {
		next := i + 1
		if next == n {
			next = 0
		}
		face := p.Vertices[next].Sub(p.Vertices[i])
		p.Normals[i] = geom.V(face.Y, -face.X).Unit()
	}
}

func polygonCentroid(vs []geom.Vec2) geom.Vec2 {
	var c geom.Vec2
	area := 0.0
	ref := vs[0]
	const inv3 = 1.0 / 3.0
	for i := range vs {
		p1 := vs[0].Sub(ref)
		p2 := vs[i].Sub(ref)
		p3 := vs[(i+1)%len(vs)].Sub(ref)
		a := 0.5 * p2.Sub(p1).Cross(p3.Sub(p1))
		area += a
		c = c.Add(p1.Add(p2).Add(p3).Mul(a * inv3))
	}
	if area <= geom.Epsilon {
		return ref
	}
	return c.Mul(1.0 / area).Add(ref)
}

func (p *PolygonShape) Type() ShapeType { return Polygon }

func (p *PolygonShape) Radius() float64 { return p.R }

func (p *PolygonShape) ChildCount() int { return 1 }

func (p *PolygonShape) Clone() Shape {
	cp := &PolygonShape{
		Vertices: append([]geom.Vec2(nil), p.Vertices...),
		Normals:  append([]geom.Vec2(nil), p.Normals...),
		Centroid: p.Centroid,
		R:        p.R,
	}
	return cp
}

func (p *PolygonShape) TestPoint(xf geom.Transform, pt geom.Vec2) bool {
	local := xf.ApplyT(pt)
	for i := range p.Vertices {
		if p.Normals[i].Dot(local.Sub(p.Vertices[i])) > 0 {
			return false
		}
	}
	return true
}

func (p *PolygonShape) RayCast(in geom.RayCastInput, xf geom.Transform, child int) (geom.RayCastOutput, bool) {
	p1 := xf.Q.ApplyT(in.P1.Sub(xf.P))
	p2 := xf.Q.ApplyT(in.P2.Sub(xf.P))
	d := p2.Sub(p1)

	lower, upper := 0.0, in.MaxFraction
	index := -1

	for i := range p.Vertices {
		// p = p1 + a * d
		// dot(normal, p - v) = 0
		numerator := p.Normals[i].Dot(p.Vertices[i].Sub(p1))
		denominator := p.Normals[i].Dot(d)

		if denominator == 0 {
			if numerator < 0 {
				return geom.RayCastOutput{}, false
			}
			continue
		}
		if denominator < 0 && numerator < lower*denominator {
			lower = numerator / denominator
			index = i
		} else if denominator > 0 && numerator < upper*denominator {
			upper = numerator / denominator
		}
		if upper < lower {
			return geom.RayCastOutput{}, false
		}
	}

	if index >= 0 {
		return geom.RayCastOutput{Normal: xf.Q.Apply(p.Normals[index]), Fraction: lower}, true
	}
	return geom.RayCastOutput{}, false
}

func (p *PolygonShape) ComputeAABB(xf geom.Transform, child int) geom.AABB {
	lower := xf.Apply(p.Vertices[0])
	upper := lower
	for _, v := range p.Vertices[1:] {
		w := xf.Apply(v)
		lower = geom.MinV(lower, w)
		upper = geom.MaxV(upper, w)
	}
	r := geom.V(p.R, p.R)
	return geom.AABB{Lower: lower.Sub(r), Upper: upper.Add(r)}
}

// ComputeMass integrates area, centroid and inertia over the triangle fan
// rooted at the first vertex.
func (p *PolygonShape) ComputeMass(density float64) MassData {
	var center geom.Vec2
	area := 0.0
	inertia := 0.0

	s := p.Vertices[0]
	const inv3 = 1.0 / 3.0

	for i := range p.Vertices {
		e1 := p.Vertices[i].Sub(s)
		e2 := p.Vertices[(i+1)%len(p.Vertices)].Sub(s)

		d := e1.Cross(e2)
		triangleArea := 0.5 * d
		area += triangleArea

		center = center.Add(e1.Add(e2).Mul(triangleArea * inv3))

		intx2 := e1.X*e1.X + e2.X*e1.X + e2.X*e2.X
		inty2 := e1.Y*e1.Y + e2.Y*e1.Y + e2.Y*e2.Y
		inertia += (0.25 * inv3 * d) * (intx2 + inty2)
	}

	var md MassData
	md.Mass = density * area
	if area > geom.Epsilon {
		center = center.Mul(1.0 / area)
	}
	md.Center = center.Add(s)

	// inertia about the centroid, then shifted to the local origin
	md.I = density * inertia
	md.I += md.Mass * (md.Center.Dot(md.Center) - center.Dot(center))
	return md
}

func (p *PolygonShape) Proxy(child int) DistanceProxy {
	return DistanceProxy{Vertices: p.Vertices, Radius: p.R}
}
