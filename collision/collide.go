package collision

import (
	"math"

	"github.com/koteyur/physac2d/geom"
)

// Pairing reports whether a contact between shape types a and b is
// supported, and whether the pair must be swapped so that Collide sees the
// shapes in canonical order (polygon before circle, edge before anything).
func Pairing(a, b ShapeType) (supported, swap bool) {
	switch {
	case a == Circle && b == Circle, a == Polygon && b == Circle, a == Polygon && b == Polygon,
		a == Edge && b == Circle, a == Edge && b == Polygon:
		return true, false
	case a == Circle && b == Polygon, a == Circle && b == Edge, a == Polygon && b == Edge:
		return true, true
	}
	return false, false
}

// Collide computes the manifold for a canonically ordered pair (see
// Pairing). Unsupported pairs produce an empty manifold.
func Collide(a Shape, xfA geom.Transform, b Shape, xfB geom.Transform) Manifold {
	switch sa := a.(type) {
	case *CircleShape:
		if sb, ok := b.(*CircleShape); ok {
			return CollideCircles(sa, xfA, sb, xfB)
		}
	case *PolygonShape:
		switch sb := b.(type) {
		case *CircleShape:
			return CollidePolygonAndCircle(sa, xfA, sb, xfB)
		case *PolygonShape:
			return CollidePolygons(sa, xfA, sb, xfB)
		}
	case *EdgeShape:
		switch sb := b.(type) {
		case *CircleShape:
			return CollideEdgeAndCircle(sa, xfA, sb, xfB)
		case *PolygonShape:
			return CollideEdgeAndPolygon(sa, xfA, sb, xfB)
		}
	}
	return Manifold{}
}

// CollideCircles computes the manifold between two circles.
func CollideCircles(a *CircleShape, xfA geom.Transform, b *CircleShape, xfB geom.Transform) Manifold {
	var m Manifold

	pA := xfA.Apply(a.Center)
	pB := xfB.Apply(b.Center)
	radius := a.R + b.R
	if pA.DistanceSqr(pB) > radius*radius {
		return m
	}

	m.Type = ManifoldCircles
	m.LocalPoint = a.Center
	m.PointCount = 1
	m.Points[0].LocalPoint = b.Center
	return m
}

// CollidePolygonAndCircle computes the manifold between a polygon and a
// circle.
func CollidePolygonAndCircle(a *PolygonShape, xfA geom.Transform, b *CircleShape, xfB geom.Transform) Manifold {
	var m Manifold

	c := xfB.Apply(b.Center)
	cLocal := xfA.ApplyT(c)

	normalIndex := 0
	separation := -math.MaxFloat64
	radius := a.R + b.R

	for i := range a.Vertices {
		s := a.Normals[i].Dot(cLocal.Sub(a.Vertices[i]))
		if s > radius {
			return m
		}
		if s > separation {
			separation = s
			normalIndex = i
		}
	}

	v1 := a.Vertices[normalIndex]
	v2 := a.Vertices[(normalIndex+1)%len(a.Vertices)]

	if separation < geom.Epsilon {
		// center inside the polygon
		m.PointCount = 1
		m.Type = ManifoldFaceA
		m.LocalNormal = a.Normals[normalIndex]
		m.LocalPoint = v1.Add(v2).Mul(0.5)
		m.Points[0].LocalPoint = b.Center
		return m
	}

	u1 := cLocal.Sub(v1).Dot(v2.Sub(v1))
	u2 := cLocal.Sub(v2).Dot(v1.Sub(v2))

	switch {
	case u1 <= 0:
		if cLocal.DistanceSqr(v1) > radius*radius {
			return m
		}
		m.LocalNormal = cLocal.Sub(v1).Unit()
		m.LocalPoint = v1
	case u2 <= 0:
		if cLocal.DistanceSqr(v2) > radius*radius {
			return m
		}
		m.LocalNormal = cLocal.Sub(v2).Unit()
		m.LocalPoint = v2
	default:
		faceCenter := v1.Add(v2).Mul(0.5)
		if cLocal.Sub(faceCenter).Dot(a.Normals[normalIndex]) > radius {
			return m
		}
		m.LocalNormal = a.Normals[normalIndex]
		m.LocalPoint = faceCenter
	}

	m.PointCount = 1
	m.Type = ManifoldFaceA
	m.Points[0].LocalPoint = b.Center
	return m
}

// findMaxSeparation returns the edge of p1 with the largest separation
// from p2.
func findMaxSeparation(p1 *PolygonShape, xf1 geom.Transform, p2 *PolygonShape, xf2 geom.Transform) (int, float64) {
	xf := xf2.MulT(xf1)

	bestIndex := 0
	maxSeparation := -math.MaxFloat64
	for i := range p1.Vertices {
		n := xf.Q.Apply(p1.Normals[i])
		v1 := xf.Apply(p1.Vertices[i])

		si := math.MaxFloat64
		for _, v2 := range p2.Vertices {
			sij := n.Dot(v2.Sub(v1))
			if sij < si {
				si = sij
			}
		}
		if si > maxSeparation {
			maxSeparation = si
			bestIndex = i
		}
	}
	return bestIndex, maxSeparation
}

// findIncidentEdge picks the edge of p2 most anti-parallel to the
// reference normal of p1.
func findIncidentEdge(p1 *PolygonShape, xf1 geom.Transform, edge1 int, p2 *PolygonShape, xf2 geom.Transform) [2]clipVertex {
	normal1 := xf2.Q.ApplyT(xf1.Q.Apply(p1.Normals[edge1]))

	index := 0
	minDot := math.MaxFloat64
	for i, n := range p2.Normals {
		d := normal1.Dot(n)
		if d < minDot {
			minDot = d
			index = i
		}
	}

	i1 := index
	i2 := (i1 + 1) % len(p2.Vertices)

	return [2]clipVertex{
		{
			v:  xf2.Apply(p2.Vertices[i1]),
			id: ContactID{IndexA: uint8(edge1), IndexB: uint8(i1), TypeA: FeatureFace, TypeB: FeatureVertex},
		},
		{
			v:  xf2.Apply(p2.Vertices[i2]),
			id: ContactID{IndexA: uint8(edge1), IndexB: uint8(i2), TypeA: FeatureFace, TypeB: FeatureVertex},
		},
	}
}

// CollidePolygons finds the reference face with the smallest penetration
// and clips the incident face of the other polygon against its side
// planes.
func CollidePolygons(a *PolygonShape, xfA geom.Transform, b *PolygonShape, xfB geom.Transform) Manifold {
	var m Manifold
	totalRadius := a.R + b.R

	edgeA, separationA := findMaxSeparation(a, xfA, b, xfB)
	if separationA > totalRadius {
		return m
	}
	edgeB, separationB := findMaxSeparation(b, xfB, a, xfA)
	if separationB > totalRadius {
		return m
	}

	var (
		poly1, poly2 *PolygonShape
		xf1, xf2     geom.Transform
		edge1        int
		flip         bool
	)
	const tol = 0.1 * LinearSlop
	if separationB > separationA+tol {
		poly1, poly2 = b, a
		xf1, xf2 = xfB, xfA
		edge1 = edgeB
		m.Type = ManifoldFaceB
		flip = true
	} else {
		poly1, poly2 = a, b
		xf1, xf2 = xfA, xfB
		edge1 = edgeA
		m.Type = ManifoldFaceA
	}

	incident := findIncidentEdge(poly1, xf1, edge1, poly2, xf2)

	iv1 := edge1
	iv2 := (edge1 + 1) % len(poly1.Vertices)
	v11 := poly1.Vertices[iv1]
	v12 := poly1.Vertices[iv2]

	localTangent := v12.Sub(v11).Unit()
	localNormal := localTangent.CrossS(1)
	planePoint := v11.Add(v12).Mul(0.5)

	tangent := xf1.Q.Apply(localTangent)
	normal := tangent.CrossS(1)

	v11 = xf1.Apply(v11)
	v12 = xf1.Apply(v12)

	frontOffset := normal.Dot(v11)
	sideOffset1 := -tangent.Dot(v11) + totalRadius
	sideOffset2 := tangent.Dot(v12) + totalRadius

	clip1, n := clipSegmentToLine(incident, tangent.Neg(), sideOffset1, iv1)
	if n < 2 {
		return m
	}
	clip2, n := clipSegmentToLine(clip1, tangent, sideOffset2, iv2)
	if n < 2 {
		return m
	}

	m.LocalNormal = localNormal
	m.LocalPoint = planePoint

	count := 0
	for i := 0; i < MaxManifoldPoints; i++ {
		separation := normal.Dot(clip2[i].v) - frontOffset
		if separation > totalRadius {
			continue
		}
		cp := &m.Points[count]
		cp.LocalPoint = xf2.ApplyT(clip2[i].v)
		cp.ID = clip2[i].id
		if flip {
			cp.ID = ContactID{IndexA: cp.ID.IndexB, IndexB: cp.ID.IndexA, TypeA: cp.ID.TypeB, TypeB: cp.ID.TypeA}
		}
		count++
	}
	m.PointCount = count
	return m
}

// CollideEdgeAndCircle handles the three Voronoi regions of a segment.
func CollideEdgeAndCircle(a *EdgeShape, xfA geom.Transform, b *CircleShape, xfB geom.Transform) Manifold {
	var m Manifold

	q := xfA.ApplyT(xfB.Apply(b.Center))
	va, vb := a.V1, a.V2
	e := vb.Sub(va)

	u := e.Dot(vb.Sub(q))
	v := e.Dot(q.Sub(va))
	radius := a.R + b.R

	vertexContact := func(p geom.Vec2, index uint8) Manifold {
		if q.DistanceSqr(p) > radius*radius {
			return m
		}
		m.PointCount = 1
		m.Type = ManifoldCircles
		m.LocalPoint = p
		m.Points[0].ID = ContactID{IndexA: index, TypeA: FeatureVertex, TypeB: FeatureVertex}
		m.Points[0].LocalPoint = b.Center
		return m
	}

	if v <= 0 {
		return vertexContact(va, 0)
	}
	if u <= 0 {
		return vertexContact(vb, 1)
	}

	den := e.Dot(e)
	p := va.Mul(u).Add(vb.Mul(v)).Mul(1.0 / den)
	if q.DistanceSqr(p) > radius*radius {
		return m
	}

	n := geom.V(-e.Y, e.X)
	if n.Dot(q.Sub(va)) < 0 {
		n = n.Neg()
	}

	m.PointCount = 1
	m.Type = ManifoldFaceA
	m.LocalNormal = n.Unit()
	m.LocalPoint = va
	m.Points[0].ID = ContactID{TypeA: FeatureFace, TypeB: FeatureVertex}
	m.Points[0].LocalPoint = b.Center
	return m
}

// CollideEdgeAndPolygon treats the edge as a two-sided sliver polygon.
func CollideEdgeAndPolygon(a *EdgeShape, xfA geom.Transform, b *PolygonShape, xfB geom.Transform) Manifold {
	return CollidePolygons(a.asPolygon(), xfA, b, xfB)
}
