package dynamics

import (
	"errors"
	"fmt"

	"github.com/koteyur/physac2d/collision"
	"github.com/koteyur/physac2d/geom"
)

// ErrNotShatterable is returned by Shatter for bodies that are not made of
// exactly one polygon fixture.
var ErrNotShatterable = errors.New("body cannot be shattered")

// fragmentScale shrinks each fragment so neighbours do not start out
// overlapping.
const fragmentScale = 0.95

// Shatter breaks a single-polygon body into one triangle per polygon edge,
// all meeting at point, and pushes every fragment away from point with the
// given impulse. The original body is removed. When point is outside the
// polygon nothing happens and no fragments are returned. Works while the
// world is locked: the changes are queued like any other.
func Shatter(w *World, b *Body, point geom.Vec2, impulse float64) ([]*Body, error) {
	if b == nil || b.world != w || !b.InWorld() {
		return nil, fmt.Errorf("shatter: %w", ErrBodyNotFound)
	}
	if len(b.fixtures) != 1 {
		return nil, fmt.Errorf("shatter body %d: %d fixtures: %w", b.id, len(b.fixtures), ErrNotShatterable)
	}
	src := b.fixtures[0]
	poly, ok := src.shape.(*collision.PolygonShape)
	if !ok {
		return nil, fmt.Errorf("shatter body %d: %v shape: %w", b.id, src.shape.Type(), ErrNotShatterable)
	}
	if !src.TestPoint(point) {
		return nil, nil
	}

	local := b.LocalPoint(point)
	n := len(poly.Vertices)
	fragments := make([]*Body, 0, n)

	for i := 0; i < n; i++ {
		v1, v2 := poly.Vertices[i], poly.Vertices[(i+1)%n]
		center := v1.Add(v2).Add(local).Mul(1.0 / 3.0)

		tri := []geom.Vec2{
			v1.Sub(center).Mul(fragmentScale),
			v2.Sub(center).Mul(fragmentScale),
			local.Sub(center).Mul(fragmentScale),
		}
		shape, err := collision.NewPolygon(tri)
		if err != nil {
			// a sliver along the edge through point
			continue
		}

		def := DefaultBodyDef()
		def.Type = b.typ
		def.Position = b.WorldPoint(center)
		def.Angle = b.Angle()
		def.LinearVelocity = b.LinearVelocityFromLocalPoint(center)
		def.AngularVelocity = b.angularVelocity
		def.LinearDamping = b.linearDamping
		def.AngularDamping = b.angularDamping
		def.GravityScale = b.gravityScale
		def.IgnoreGravity = b.ignoreGravity
		def.UserData = b.UserData

		frag := NewBody(def)
		fd := NewFixtureDef(shape, src.density)
		fd.Friction = src.friction
		fd.Restitution = src.restitution
		fd.Filter = src.filter
		fd.UserData = src.UserData
		if _, err := frag.CreateFixtureDef(fd); err != nil {
			return nil, fmt.Errorf("shatter body %d: %w", b.id, err)
		}

		dir := frag.WorldCenter().Sub(point).Unit()
		frag.ApplyLinearImpulseToCenter(dir.Mul(impulse))

		if err := w.AddBody(frag); err != nil {
			return nil, fmt.Errorf("shatter body %d: %w", b.id, err)
		}
		fragments = append(fragments, frag)
	}

	if err := w.RemoveBody(b); err != nil {
		return nil, fmt.Errorf("shatter body %d: %w", b.id, err)
	}
	return fragments, nil
}
