package collision

import "github.com/koteyur/physac2d/geom"

// EdgeShape is a line segment. Edges have no volume and therefore no mass;
// they are meant for static ground and walls.
type EdgeShape struct {
	V1, V2 geom.Vec2
	R      float64
}

// NewEdge returns the segment v1-v2 with the polygon skin radius.
func NewEdge(v1, v2 geom.Vec2) *EdgeShape {
	return &EdgeShape{V1: v1, V2: v2, R: PolygonRadius}
}

func (e *EdgeShape) Type() ShapeType { return Edge }

func (e *EdgeShape) Radius() float64 { return e.R }

func (e *EdgeShape) ChildCount() int { return 1 }

func (e *EdgeShape) Clone() Shape {
	cp := *e
	return &cp
}

func (e *EdgeShape) TestPoint(xf geom.Transform, p geom.Vec2) bool {
	return false
}

// RayCast intersects the ray with the segment from either side.
func (e *EdgeShape) RayCast(in geom.RayCastInput, xf geom.Transform, child int) (geom.RayCastOutput, bool) {
	p1 := xf.Q.ApplyT(in.P1.Sub(xf.P))
	p2 := xf.Q.ApplyT(in.P2.Sub(xf.P))
	d := p2.Sub(p1)

	v1, v2 := e.V1, e.V2
	ev := v2.Sub(v1)
	normal := geom.V(ev.Y, -ev.X).Unit()

	// q = p1 + t * d, dot(normal, q - v1) = 0
	numerator := normal.Dot(v1.Sub(p1))
	denominator := normal.Dot(d)
	if denominator == 0 {
		return geom.RayCastOutput{}, false
	}

	t := numerator / denominator
	if t < 0 || in.MaxFraction < t {
		return geom.RayCastOutput{}, false
	}

	q := p1.Add(d.Mul(t))
	rr := ev.LenSqr()
	if rr == 0 {
		return geom.RayCastOutput{}, false
	}
	s := q.Sub(v1).Dot(ev) / rr
	if s < 0 || 1 < s {
		return geom.RayCastOutput{}, false
	}

	n := xf.Q.Apply(normal)
	if numerator > 0 {
		n = n.Neg()
	}
	return geom.RayCastOutput{Normal: n, Fraction: t}, true
}

func (e *EdgeShape) ComputeAABB(xf geom.Transform, child int) geom.AABB {
	v1 := xf.Apply(e.V1)
	v2 := xf.Apply(e.V2)
	r := geom.V(e.R, e.R)
	return geom.AABB{Lower: geom.MinV(v1, v2).Sub(r), Upper: geom.MaxV(v1, v2).Add(r)}
}

func (e *EdgeShape) ComputeMass(density float64) MassData {
	return MassData{Center: e.V1.Add(e.V2).Mul(0.5)}
}

func (e *EdgeShape) Proxy(child int) DistanceProxy {
	return DistanceProxy{Vertices: []geom.Vec2{e.V1, e.V2}, Radius: e.R}
}

// asPolygon views the edge as a two-sided, two-vertex polygon so the
// polygon clipper can handle edge-polygon pairs.
func (e *EdgeShape) asPolygon() *PolygonShape {
	ev := e.V2.Sub(e.V1)
	n := geom.V(ev.Y, -ev.X).Unit()
	return &PolygonShape{
		Vertices: []geom.Vec2{e.V1, e.V2},
		Normals:  []geom.Vec2{n, n.Neg()},
		Centroid: e.V1.Add(e.V2).Mul(0.5),
		R:        e.R,
	}
}
