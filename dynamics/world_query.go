package dynamics

import (
	"github.com/koteyur/physac2d/collision"
	"github.com/koteyur/physac2d/geom"
)

// QueryAABB calls fn for every fixture whose fat broad-phase box overlaps
// aabb. Returning false stops the query.
func (w *World) QueryAABB(aabb geom.AABB, fn func(f *Fixture) bool) {
	bp := w.cm.bp
	bp.Query(aabb, func(id int) bool {
		return fn(bp.UserData(id).fixture)
	})
}

// QueryAABBFixtures returns the fixtures whose swept box overlaps aabb,
// without duplicates.
func (w *World) QueryAABBFixtures(aabb geom.AABB) []*Fixture {
	var out []*Fixture
	seen := make(map[*Fixture]struct{})
	bp := w.cm.bp
	bp.Query(aabb, func(id int) bool {
		p := bp.UserData(id)
		if !p.aabb.Overlaps(aabb) {
			return true
		}
		if _, ok := seen[p.fixture]; !ok {
			seen[p.fixture] = struct{}{}
			out = append(out, p.fixture)
		}
		return true
	})
	return out
}

// QueryCircle returns the fixtures whose shape overlaps the circle.
func (w *World) QueryCircle(center geom.Vec2, radius float64) []*Fixture {
	circle := collision.NewCircle(radius)
	xf := geom.NewTransform(center, 0)
	box := geom.AABB{
		Lower: center.Sub(geom.V(radius, radius)),
		Upper: center.Add(geom.V(radius, radius)),
	}

	var out []*Fixture
	seen := make(map[*Fixture]struct{})
	bp := w.cm.bp
	bp.Query(box, func(id int) bool {
		p := bp.UserData(id)
		f := p.fixture
		if _, ok := seen[f]; ok {
			return true
		}
		if collision.TestOverlap(f.shape, p.child, f.body.xf, circle, 0, xf) {
			seen[f] = struct{}{}
			out = append(out, f)
		}
		return true
	})
	return out
}

// RayCast casts a ray from p1 to p2 and reports hits to fn in no
// particular order. See RayCastFunc for the meaning of its result.
func (w *World) RayCast(fn RayCastFunc, p1, p2 geom.Vec2) {
	bp := w.cm.bp
	in := geom.RayCastInput{P1: p1, P2: p2, MaxFraction: 1}
	bp.RayCast(in, func(sub geom.RayCastInput, id int) float64 {
		p := bp.UserData(id)
		out, hit := p.fixture.RayCast(sub, p.child)
		if !hit {
			return sub.MaxFraction
		}
		point := p1.Mul(1 - out.Fraction).Add(p2.Mul(out.Fraction))
		return fn(p.fixture, point, out.Normal, out.Fraction)
	})
}

// RayCastClosest returns the nearest fixture hit by the ray, if any.
func (w *World) RayCastClosest(p1, p2 geom.Vec2) (f *Fixture, point, normal geom.Vec2, ok bool) {
	w.RayCast(func(hit *Fixture, pt, n geom.Vec2, fraction float64) float64 {
		f, point, normal, ok = hit, pt, n, true
		return fraction
	}, p1, p2)
	return f, point, normal, ok
}

// TestPoint returns the first fixture containing point, or nil.
func (w *World) TestPoint(point geom.Vec2) *Fixture {
	const d = linearSlop
	box := geom.AABB{Lower: point.Sub(geom.V(d, d)), Upper: point.Add(geom.V(d, d))}
	var found *Fixture
	w.QueryAABB(box, func(f *Fixture) bool {
		if f.TestPoint(point) {
			found = f
			return false
		}
		return true
	})
	return found
}
