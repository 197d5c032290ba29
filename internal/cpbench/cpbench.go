// Package cpbench replays a world in Chipmunk so the runner can report how
// far the two engines drift apart. Bodies and fixtures are mirrored;
// joints and controllers are not.
package cpbench

import (
	"fmt"
	"math"

	"github.com/jakecoffman/cp"

	"github.com/koteyur/physac2d/collision"
	"github.com/koteyur/physac2d/dynamics"
	"github.com/koteyur/physac2d/geom"
)

type pair struct {
	src *dynamics.Body
	dst *cp.Body
}

// Mirror is a Chipmunk space built from a snapshot of a world.
type Mirror struct {
	space *cp.Space
	pairs []pair
}

// Report summarises the position drift between the two engines.
type Report struct {
	Bodies  int
	MaxDist float64
	Mean    float64
	// Worst is the id of the body with the largest drift.
	Worst int
}

func (r Report) String() string {
	return fmt.Sprintf("bodies=%d max=%.4f mean=%.4f worst=%d", r.Bodies, r.MaxDist, r.Mean, r.Worst)
}

func vec(v geom.Vec2) cp.Vector { return cp.Vector{X: v.X, Y: v.Y} }

// NewMirror copies the bodies of w into a new space stepping with the
// same gravity and iteration count.
func NewMirror(w *dynamics.World) (*Mirror, error) {
	space := cp.NewSpace()
	space.Iterations = uint(w.Settings().VelocityIterations)
	space.SetGravity(vec(w.Gravity()))

	m := &Mirror{space: space}
	for _, b := range w.Bodies() {
		if len(b.Fixtures()) == 0 {
			continue
		}
		body, err := mirrorBody(b)
		if err != nil {
			return nil, fmt.Errorf("cpbench: body %d: %w", b.ID(), err)
		}
		space.AddBody(body)
		for _, f := range b.Fixtures() {
			shape, err := mirrorShape(body, f)
			if err != nil {
				return nil, fmt.Errorf("cpbench: body %d: %w", b.ID(), err)
			}
			space.AddShape(shape)
		}
		m.pairs = append(m.pairs, pair{src: b, dst: body})
	}
	return m, nil
}

// mirrorBody places the Chipmunk body at the center of mass of b, which is
// where Chipmunk keeps the body origin when the center of gravity is zero.
func mirrorBody(b *dynamics.Body) (*cp.Body, error) {
	var body *cp.Body
	switch b.Type() {
	case dynamics.Static:
		body = cp.NewStaticBody()
	case dynamics.Kinematic:
		body = cp.NewKinematicBody()
	default:
		if b.Mass() <= 0 {
			return nil, fmt.Errorf("dynamic body without mass")
		}
		moment := b.Inertia()
		if b.IsFixedRotation() || moment <= 0 {
			moment = math.Inf(1)
		}
		body = cp.NewBody(b.Mass(), moment)
	}
	body.SetPosition(vec(b.WorldCenter()))
	body.SetAngle(b.Angle())
	body.SetVelocityVector(vec(b.LinearVelocity()))
	body.SetAngularVelocity(b.AngularVelocity())
	return body, nil
}

// mirrorShape builds the shape of f relative to the center of mass of its body.
func mirrorShape(body *cp.Body, f *dynamics.Fixture) (*cp.Shape, error) {
	c := f.Body().LocalCenter()
	local := func(v geom.Vec2) cp.Vector { return vec(v.Sub(c)) }

	var shape *cp.Shape
	switch s := f.Shape().(type) {
	case *collision.CircleShape:
		shape = cp.NewCircle(body, s.R, local(s.Center))
	case *collision.PolygonShape:
		verts := make([]cp.Vector, len(s.Vertices))
		for i, v := range s.Vertices {
			verts[i] = local(v)
		}
		shape = cp.NewPolyShapeRaw(body, len(verts), verts, 0)
	case *collision.EdgeShape:
		shape = cp.NewSegment(body, local(s.V1), local(s.V2), 0)
	default:
		return nil, fmt.Errorf("unsupported shape %v", f.Type())
	}
	shape.SetFriction(f.Friction())
	shape.SetElasticity(f.Restitution())
	shape.SetSensor(f.IsSensor())
	return shape, nil
}

// Step advances the Chipmunk space.
func (m *Mirror) Step(dt float64) { m.space.Step(dt) }

// Len is the number of mirrored bodies.
func (m *Mirror) Len() int { return len(m.pairs) }

// Compare measures the distance between the center of mass of each body and
// its mirror. Chipmunk moves bodies before integrating velocity, so under a
// constant acceleration a its bodies trail by |a|*dt*t after t seconds; see
// Lag.
func (m *Mirror) Compare() Report {
	r := Report{Bodies: len(m.pairs), Worst: -1}
	if len(m.pairs) == 0 {
		return r
	}
	var sum float64
	for _, p := range m.pairs {
		cpPos := p.dst.Position()
		d := p.src.WorldCenter().Distance(geom.V(cpPos.X, cpPos.Y))
		sum += d
		if d > r.MaxDist || r.Worst < 0 {
			r.MaxDist = d
			r.Worst = p.src.ID()
		}
	}
	r.Mean = sum / float64(len(m.pairs))
	return r
}

// Lag is the drift expected from integration order alone after elapsed
// seconds of stepping at dt under the given acceleration.
func Lag(accel geom.Vec2, dt, elapsed float64) float64 {
	return accel.Len() * dt * elapsed
}
