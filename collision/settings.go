// Package collision implements shapes, narrow-phase contact manifolds,
// distance and time-of-impact queries, and the dynamic AABB tree that
// backs the broad-phase.
package collision

import "math"

const (
	// MaxManifoldPoints is the number of contact points between two convex shapes.
	MaxManifoldPoints = 2

	// MaxPolygonVertices bounds the vertex count of a PolygonShape.
	MaxPolygonVertices = 8

	// AABBExtension fattens proxy AABBs so small motions do not touch the tree.
	AABBExtension = 0.1

	// AABBMultiplier scales the displacement used to predict fat AABBs.
	AABBMultiplier = 2.0

	// LinearSlop is the collision and constraint tolerance.
	LinearSlop = 0.005

	// AngularSlop is the rotational tolerance.
	AngularSlop = 2.0 / 180.0 * math.Pi

	// PolygonRadius is the skin around polygons that keeps them from
	// resting on their cores.
	PolygonRadius = 2.0 * LinearSlop

	// MaxTOIIterations bounds the conservative-advancement loop.
	MaxTOIIterations = 50

	// maxGJKIterations bounds the distance solver.
	maxGJKIterations = 20
)
