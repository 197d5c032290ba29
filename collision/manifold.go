package collision

import "github.com/koteyur/physac2d/geom"

// ManifoldType describes how the manifold points are stored.
type ManifoldType int

const (
	ManifoldCircles ManifoldType = iota
	ManifoldFaceA
	ManifoldFaceB
)

// FeatureType tags which feature of a shape produced a contact point.
type FeatureType uint8

const (
	FeatureVertex FeatureType = iota
	FeatureFace
)

// ContactID identifies a contact point by the shape features that created
// it, so impulses can be matched across steps for warm starting.
type ContactID struct {
	IndexA uint8
	IndexB uint8
	TypeA  FeatureType
	TypeB  FeatureType
}

// Key packs the id for equality tests.
func (id ContactID) Key() uint32 {
	return uint32(id.IndexA) | uint32(id.IndexB)<<8 | uint32(id.TypeA)<<16 | uint32(id.TypeB)<<24
}

// ManifoldPoint is one contact point. LocalPoint depends on the manifold
// type: circles use the center of circle B, FaceA the clip point on B,
// FaceB the clip point on A.
type ManifoldPoint struct {
	LocalPoint     geom.Vec2
	NormalImpulse  float64
	TangentImpulse float64
	ID             ContactID
}

// Manifold is the contact set between two convex shapes, expressed in
// local coordinates so it survives small motions.
type Manifold struct {
	Points      [MaxManifoldPoints]ManifoldPoint
	LocalNormal geom.Vec2
	LocalPoint  geom.Vec2
	Type        ManifoldType
	PointCount  int
}

// WorldManifold is a Manifold resolved to world space.
type WorldManifold struct {
	Normal      geom.Vec2
	Points      [MaxManifoldPoints]geom.Vec2
	Separations [MaxManifoldPoints]float64
}

// NewWorldManifold evaluates m for the given transforms and radii. The
// normal points from A to B and each point lies midway between the
// surfaces.
func NewWorldManifold(m *Manifold, xfA geom.Transform, radiusA float64, xfB geom.Transform, radiusB float64) WorldManifold {
	var wm WorldManifold
	if m.PointCount == 0 {
		return wm
	}

	switch m.Type {
	case ManifoldCircles:
		wm.Normal = geom.V(1, 0)
		pointA := xfA.Apply(m.LocalPoint)
		pointB := xfB.Apply(m.Points[0].LocalPoint)
		if pointA.DistanceSqr(pointB) > geom.Epsilon*geom.Epsilon {
			wm.Normal = pointB.Sub(pointA).Unit()
		}
		cA := pointA.Add(wm.Normal.Mul(radiusA))
		cB := pointB.Sub(wm.Normal.Mul(radiusB))
		wm.Points[0] = cA.Add(cB).Mul(0.5)
		wm.Separations[0] = cB.Sub(cA).Dot(wm.Normal)

	case ManifoldFaceA:
		wm.Normal = xfA.Q.Apply(m.LocalNormal)
		planePoint := xfA.Apply(m.LocalPoint)
		for i := 0; i < m.PointCount; i++ {
			clipPoint := xfB.Apply(m.Points[i].LocalPoint)
			cA := clipPoint.Add(wm.Normal.Mul(radiusA - clipPoint.Sub(planePoint).Dot(wm.Normal)))
			cB := clipPoint.Sub(wm.Normal.Mul(radiusB))
			wm.Points[i] = cA.Add(cB).Mul(0.5)
			wm.Separations[i] = cB.Sub(cA).Dot(wm.Normal)
		}

	case ManifoldFaceB:
		wm.Normal = xfB.Q.Apply(m.LocalNormal)
		planePoint := xfB.Apply(m.LocalPoint)
		for i := 0; i < m.PointCount; i++ {
			clipPoint := xfA.Apply(m.Points[i].LocalPoint)
			cB := clipPoint.Add(wm.Normal.Mul(radiusB - clipPoint.Sub(planePoint).Dot(wm.Normal)))
			cA := clipPoint.Sub(wm.Normal.Mul(radiusA))
			wm.Points[i] = cA.Add(cB).Mul(0.5)
			wm.Separations[i] = cA.Sub(cB).Dot(wm.Normal)
		}
		// the normal always points from A to B
		wm.Normal = wm.Normal.Neg()
	}
	return wm
}

// clipVertex is a point on an incident edge tagged with its feature id.
type clipVertex struct {
	v  geom.Vec2
	id ContactID
}

// clipSegmentToLine keeps the part of segment vIn on the negative side of
// the plane (normal, offset), tagging new points with feature ids.
func clipSegmentToLine(vIn [2]clipVertex, normal geom.Vec2, offset float64, vertexIndexA int) ([2]clipVertex, int) {
	var vOut [2]clipVertex
	count := 0

	distance0 := normal.Dot(vIn[0].v) - offset
	distance1 := normal.Dot(vIn[1].v) - offset

	if distance0 <= 0 {
		vOut[count] = vIn[0]
		count++
	}
	if distance1 <= 0 {
		vOut[count] = vIn[1]
		count++
	}

	if distance0*distance1 < 0 {
		interp := distance0 / (distance0 - distance1)
		vOut[count].v = vIn[0].v.Add(vIn[1].v.Sub(vIn[0].v).Mul(interp))
		vOut[count].id = ContactID{
			IndexA: uint8(vertexIndexA),
			IndexB: vIn[0].id.IndexB,
			TypeA:  FeatureVertex,
			TypeB:  FeatureFace,
		}
		count++
	}
	return vOut, count
}
