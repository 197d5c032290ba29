package collision

import "github.com/koteyur/physac2d/geom"

// ShapeType selects the narrow-phase routine for a pair of shapes.
type ShapeType int

const (
	Circle ShapeType = iota
	Edge
	Polygon
	shapeTypeCount
)

func (t ShapeType) String() string {
	switch t {
	case Circle:
		return "circle"
	case Edge:
		return "edge"
	case Polygon:
		return "polygon"
	default:
		return "unknown"
	}
}

// MassData holds the mass properties of a shape about its local origin.
type MassData struct {
	Mass   float64
	Center geom.Vec2
	// I is the rotational inertia about the shape's local origin.
	I float64
}

// Shape is the geometry attached to a fixture. Shapes are immutable once
// attached; the fixture keeps its own clone.
type Shape interface {
	Type() ShapeType
	Radius() float64
	ChildCount() int
	Clone() Shape
	TestPoint(xf geom.Transform, p geom.Vec2) bool
	RayCast(in geom.RayCastInput, xf geom.Transform, child int) (geom.RayCastOutput, bool)
	ComputeAABB(xf geom.Transform, child int) geom.AABB
	ComputeMass(density float64) MassData
	// Proxy returns the convex core used by distance and time-of-impact.
	Proxy(child int) DistanceProxy
}
