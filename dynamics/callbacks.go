package dynamics

import (
	"github.com/koteyur/physac2d/collision"
	"github.com/koteyur/physac2d/geom"
)

// Listener receives structural notifications. Every field is optional.
type Listener struct {
	BodyAdded         func(*Body)
	BodyRemoved       func(*Body)
	FixtureAdded      func(*Fixture)
	FixtureRemoved    func(*Fixture)
	JointAdded        func(Joint)
	JointRemoved      func(Joint)
	JointBroken       func(j Joint, force float64)
	ControllerAdded   func(Controller)
	ControllerRemoved func(Controller)
}

func (l *Listener) bodyAdded(b *Body) {
	if l.BodyAdded != nil {
		l.BodyAdded(b)
	}
}

func (l *Listener) bodyRemoved(b *Body) {
	if l.BodyRemoved != nil {
		l.BodyRemoved(b)
	}
}

func (l *Listener) fixtureAdded(f *Fixture) {
	if l.FixtureAdded != nil {
		l.FixtureAdded(f)
	}
}

func (l *Listener) fixtureRemoved(f *Fixture) {
	if l.FixtureRemoved != nil {
		l.FixtureRemoved(f)
	}
}

func (l *Listener) jointAdded(j Joint) {
	if l.JointAdded != nil {
		l.JointAdded(j)
	}
}

func (l *Listener) jointRemoved(j Joint) {
	if l.JointRemoved != nil {
		l.JointRemoved(j)
	}
}

func (l *Listener) jointBroken(j Joint, force float64) {
	if l.JointBroken != nil {
		l.JointBroken(j, force)
	}
}

func (l *Listener) controllerAdded(c Controller) {
	if l.ControllerAdded != nil {
		l.ControllerAdded(c)
	}
}

func (l *Listener) controllerRemoved(c Controller) {
	if l.ControllerRemoved != nil {
		l.ControllerRemoved(c)
	}
}

// ContactImpulse carries the impulses the solver applied to a contact,
// one entry per manifold point.
type ContactImpulse struct {
	NormalImpulses  [collision.MaxManifoldPoints]float64
	TangentImpulses [collision.MaxManifoldPoints]float64
	Count           int
}

// ContactListener observes the contact lifecycle. Calls happen inside
// Step, so the world is locked: queue structural changes instead of
// making them.
type ContactListener interface {
	BeginContact(c *Contact)
	EndContact(c *Contact)
	// PreSolve runs before a touching contact is solved. Disabling the
	// contact here skips it for this step.
	PreSolve(c *Contact, oldManifold *collision.Manifold)
	PostSolve(c *Contact, impulse *ContactImpulse)
}

// ContactCallbacks adapts plain functions to ContactListener. Nil fields
// are skipped.
type ContactCallbacks struct {
	Begin func(c *Contact)
	End   func(c *Contact)
	Pre   func(c *Contact, oldManifold *collision.Manifold)
	Post  func(c *Contact, impulse *ContactImpulse)
}

func (cb ContactCallbacks) BeginContact(c *Contact) {
	if cb.Begin != nil {
		cb.Begin(c)
	}
}

func (cb ContactCallbacks) EndContact(c *Contact) {
	if cb.End != nil {
		cb.End(c)
	}
}

func (cb ContactCallbacks) PreSolve(c *Contact, old *collision.Manifold) {
	if cb.Pre != nil {
		cb.Pre(c, old)
	}
}

func (cb ContactCallbacks) PostSolve(c *Contact, impulse *ContactImpulse) {
	if cb.Post != nil {
		cb.Post(c, impulse)
	}
}

// ContactFilterFunc is consulted after the built-in filters when a new
// pair is found. Returning false rejects the pair.
type ContactFilterFunc func(a, b *Fixture) bool

// RayCastFunc is called for every fixture the ray hits. Return -1 to
// ignore the hit, 0 to stop, fraction to clip the ray at this hit or 1 to
// continue unclipped.
type RayCastFunc func(f *Fixture, point, normal geom.Vec2, fraction float64) float64
