package collision

import (
	"math"

	"github.com/koteyur/physac2d/geom"
)

// DistanceProxy is the convex core of a shape plus its skin radius.
type DistanceProxy struct {
	Vertices []geom.Vec2
	Radius   float64
}

// Support returns the index of the vertex furthest along d.
func (p DistanceProxy) Support(d geom.Vec2) int {
	best := 0
	bestValue := p.Vertices[0].Dot(d)
	for i := 1; i < len(p.Vertices); i++ {
		if v := p.Vertices[i].Dot(d); v > bestValue {
			best = i
			bestValue = v
		}
	}
	return best
}

// SimplexCache warm starts Distance between calls on the same pair.
type SimplexCache struct {
	Metric float64
	Count  int
	IndexA [3]int
	IndexB [3]int
}

// DistanceInput describes one distance query.
type DistanceInput struct {
	ProxyA, ProxyB DistanceProxy
	XfA, XfB       geom.Transform
	UseRadii       bool
}

// DistanceOutput holds the closest points and their distance.
type DistanceOutput struct {
	PointA, PointB geom.Vec2
	Distance       float64
	Iterations     int
}

type simplexVertex struct {
	wA, wB geom.Vec2 // support points in world space
	w      geom.Vec2 // wB - wA
	a      float64   // barycentric coordinate
	indexA int
	indexB int
}

type simplex struct {
	v     [3]simplexVertex
	count int
}

func (s *simplex) readCache(cache *SimplexCache, proxyA DistanceProxy, xfA geom.Transform, proxyB DistanceProxy, xfB geom.Transform) {
	s.count = cache.Count
	for i := 0; i < s.count; i++ {
		v := &s.v[i]
		v.indexA = cache.IndexA[i]
		v.indexB = cache.IndexB[i]
		v.wA = xfA.Apply(proxyA.Vertices[v.indexA])
		v.wB = xfB.Apply(proxyB.Vertices[v.indexB])
		v.w = v.wB.Sub(v.wA)
		v.a = 0
	}

	// flush the cache if the metric changed a lot
	if s.count > 1 {
		metric1 := cache.Metric
		metric2 := s.metric()
		if metric2 < 0.5*metric1 || 2*metric1 < metric2 || metric2 < geom.Epsilon {
			s.count = 0
		}
	}

	if s.count == 0 {
		v := &s.v[0]
		v.indexA, v.indexB = 0, 0
		v.wA = xfA.Apply(proxyA.Vertices[0])
		v.wB = xfB.Apply(proxyB.Vertices[0])
		v.w = v.wB.Sub(v.wA)
		v.a = 1
		s.count = 1
	}
}

func (s *simplex) writeCache(cache *SimplexCache) {
	cache.Metric = s.metric()
	cache.Count = s.count
	for i := 0; i < s.count; i++ {
		cache.IndexA[i] = s.v[i].indexA
		cache.IndexB[i] = s.v[i].indexB
	}
}

func (s *simplex) searchDirection() geom.Vec2 {
	switch s.count {
	case 1:
		return s.v[0].w.Neg()
	case 2:
		e12 := s.v[1].w.Sub(s.v[0].w)
		sgn := e12.Cross(s.v[0].w.Neg())
		if sgn > 0 {
			return geom.CrossSV(1, e12)
		}
		return e12.CrossS(1)
	}
	return geom.Vec2{}
}

func (s *simplex) closestPoint() geom.Vec2 {
	switch s.count {
	case 1:
		return s.v[0].w
	case 2:
		return s.v[0].w.Mul(s.v[0].a).Add(s.v[1].w.Mul(s.v[1].a))
	}
	return geom.Vec2{}
}

func (s *simplex) witnessPoints() (geom.Vec2, geom.Vec2) {
	switch s.count {
	case 1:
		return s.v[0].wA, s.v[0].wB
	case 2:
		a := s.v[0].wA.Mul(s.v[0].a).Add(s.v[1].wA.Mul(s.v[1].a))
		b := s.v[0].wB.Mul(s.v[0].a).Add(s.v[1].wB.Mul(s.v[1].a))
		return a, b
	case 3:
		a := s.v[0].wA.Mul(s.v[0].a).Add(s.v[1].wA.Mul(s.v[1].a)).Add(s.v[2].wA.Mul(s.v[2].a))
		return a, a
	}
	return geom.Vec2{}, geom.Vec2{}
}

func (s *simplex) metric() float64 {
	switch s.count {
	case 1:
		return 0
	case 2:
		return s.v[0].w.Distance(s.v[1].w)
	case 3:
		return s.v[1].w.Sub(s.v[0].w).Cross(s.v[2].w.Sub(s.v[0].w))
	}
	return 0
}

// solve2 finds the barycentric coordinates of the closest point on the
// segment w1-w2 to the origin.
func (s *simplex) solve2() {
	w1 := s.v[0].w
	w2 := s.v[1].w
	e12 := w2.Sub(w1)

	// w1 region
	d12n2 := -w1.Dot(e12)
	if d12n2 <= 0 {
		s.v[0].a = 1
		s.count = 1
		return
	}

	// w2 region
	d12n1 := w2.Dot(e12)
	if d12n1 <= 0 {
		s.v[1].a = 1
		s.count = 1
		s.v[0] = s.v[1]
		return
	}

	inv := 1.0 / (d12n1 + d12n2)
	s.v[0].a = d12n1 * inv
	s.v[1].a = d12n2 * inv
	s.count = 2
}

// solve3 handles the triangle case through its Voronoi regions.
func (s *simplex) solve3() {
	w1 := s.v[0].w
	w2 := s.v[1].w
	w3 := s.v[2].w

	e12 := w2.Sub(w1)
	d12n1 := w2.Dot(e12)
	d12n2 := -w1.Dot(e12)

	e13 := w3.Sub(w1)
	d13n1 := w3.Dot(e13)
	d13n2 := -w1.Dot(e13)

	e23 := w3.Sub(w2)
	d23n1 := w3.Dot(e23)
	d23n2 := -w2.Dot(e23)

	n123 := e12.Cross(e13)

	d123n1 := n123 * w2.Cross(w3)
	d123n2 := n123 * w3.Cross(w1)
	d123n3 := n123 * w1.Cross(w2)

	switch {
	case d12n2 <= 0 && d13n2 <= 0:
		s.v[0].a = 1
		s.count = 1
	case d12n1 > 0 && d12n2 > 0 && d123n3 <= 0:
		inv := 1.0 / (d12n1 + d12n2)
		s.v[0].a = d12n1 * inv
		s.v[1].a = d12n2 * inv
		s.count = 2
	case d13n1 > 0 && d13n2 > 0 && d123n2 <= 0:
		inv := 1.0 / (d13n1 + d13n2)
		s.v[0].a = d13n1 * inv
		s.v[2].a = d13n2 * inv
		s.count = 2
		s.v[1] = s.v[2]
	case d12n1 <= 0 && d23n2 <= 0:
		s.v[1].a = 1
		s.count = 1
		s.v[0] = s.v[1]
	case d13n1 <= 0 && d23n1 <= 0:
		s.v[2].a = 1
		s.count = 1
		s.v[0] = s.v[2]
	case d23n1 > 0 && d23n2 > 0 && d123n1 <= 0:
		inv := 1.0 / (d23n1 + d23n2)
		s.v[1].a = d23n1 * inv
		s.v[2].a = d23n2 * inv
		s.count = 2
		s.v[0] = s.v[2]
	default:
		inv := 1.0 / (d123n1 + d123n2 + d123n3)
		s.v[0].a = d123n1 * inv
		s.v[1].a = d123n2 * inv
		s.v[2].a = d123n3 * inv
		s.count = 3
	}
}

// Distance computes the closest points between two convex proxies with
// the GJK algorithm. cache may be nil.
func Distance(in DistanceInput, cache *SimplexCache) DistanceOutput {
	if cache == nil {
		cache = &SimplexCache{}
	}
	proxyA, proxyB := in.ProxyA, in.ProxyB
	xfA, xfB := in.XfA, in.XfB

	var s simplex
	s.readCache(cache, proxyA, xfA, proxyB, xfB)

	var saveA, saveB [3]int

	iter := 0
	for iter < maxGJKIterations {
		saveCount := s.count
		for i := 0; i < saveCount; i++ {
			saveA[i] = s.v[i].indexA
			saveB[i] = s.v[i].indexB
		}

		switch s.count {
		case 2:
			s.solve2()
		case 3:
			s.solve3()
		}

		// origin inside the triangle: overlap
		if s.count == 3 {
			break
		}

		d := s.searchDirection()
		if d.LenSqr() < geom.Epsilon*geom.Epsilon {
			// origin is probably on the simplex; treat as overlap
			break
		}

		v := &s.v[s.count]
		v.indexA = proxyA.Support(xfA.Q.ApplyT(d.Neg()))
		v.wA = xfA.Apply(proxyA.Vertices[v.indexA])
		v.indexB = proxyB.Support(xfB.Q.ApplyT(d))
		v.wB = xfB.Apply(proxyB.Vertices[v.indexB])
		v.w = v.wB.Sub(v.wA)

		iter++

		duplicate := false
		for i := 0; i < saveCount; i++ {
			if v.indexA == saveA[i] && v.indexB == saveB[i] {
				duplicate = true
				break
			}
		}
		if duplicate {
			break
		}
		s.count++
	}

	var out DistanceOutput
	out.PointA, out.PointB = s.witnessPoints()
	out.Distance = out.PointA.Distance(out.PointB)
	out.Iterations = iter
	s.writeCache(cache)

	if in.UseRadii {
		rA, rB := proxyA.Radius, proxyB.Radius
		if out.Distance > rA+rB && out.Distance > geom.Epsilon {
			out.Distance -= rA + rB
			normal := out.PointB.Sub(out.PointA).Unit()
			out.PointA = out.PointA.Add(normal.Mul(rA))
			out.PointB = out.PointB.Sub(normal.Mul(rB))
		} else {
			p := out.PointA.Add(out.PointB).Mul(0.5)
			out.PointA = p
			out.PointB = p
			out.Distance = 0
		}
	}
	return out
}

// TestOverlap reports whether two shapes overlap, skins included.
func TestOverlap(a Shape, childA int, xfA geom.Transform, b Shape, childB int, xfB geom.Transform) bool {
	out := Distance(DistanceInput{
		ProxyA:   a.Proxy(childA),
		ProxyB:   b.Proxy(childB),
		XfA:      xfA,
		XfB:      xfB,
		UseRadii: true,
	}, nil)
	return out.Distance < 10*geom.Epsilon
}

// maxVertexRadius returns the largest distance from center to a vertex of
// the proxy, skin included.
func maxVertexRadius(p DistanceProxy, center geom.Vec2) float64 {
	r := 0.0
	for _, v := range p.Vertices {
		r = math.Max(r, v.Distance(center))
	}
	return r + p.Radius
}
