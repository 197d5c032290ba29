package dynamics

import "github.com/koteyur/physac2d/collision"

// Contact is the persistent record of two fixture children whose fat
// AABBs overlap. It exists whether or not the shapes touch.
type Contact struct {
	fixtureA, fixtureB *Fixture
	childA, childB     int
	manifold           collision.Manifold

	// position in the contact manager's list
	index int

	touching   bool
	enabled    bool
	filterFlag bool
	islandFlag bool
	toiFlag    bool
	bulletHit  bool

	toiCount int
	toi      float64

	friction     float64
	restitution  float64
	tangentSpeed float64
}

// newContact orders the fixtures so the narrow-phase sees a supported
// shape pairing. It returns nil for unsupported pairs.
func newContact(fA *Fixture, childA int, fB *Fixture, childB int) *Contact {
	ok, swap := collision.Pairing(fA.shape.Type(), fB.shape.Type())
	if !ok {
		return nil
	}
	if swap {
		fA, fB = fB, fA
		childA, childB = childB, childA
	}
	return &Contact{
		fixtureA:    fA,
		fixtureB:    fB,
		childA:      childA,
		childB:      childB,
		enabled:     true,
		friction:    mixFriction(fA.friction, fB.friction),
		restitution: mixRestitution(fA.restitution, fB.restitution),
	}
}

func (c *Contact) FixtureA() *Fixture { return c.fixtureA }
func (c *Contact) FixtureB() *Fixture { return c.fixtureB }
func (c *Contact) ChildA() int { return c.childA }
func (c *Contact) ChildB() int { return c.childB }

// Manifold returns the cached manifold in local coordinates. Callers may
// read it but should not keep the pointer across steps.
func (c *Contact) Manifold() *collision.Manifold { return &c.manifold }

// WorldManifold resolves the manifold with the current transforms.
func (c *Contact) WorldManifold() collision.WorldManifold {
	bA, bB := c.fixtureA.body, c.fixtureB.body
	return collision.NewWorldManifold(&c.manifold, bA.xf, c.fixtureA.shape.Radius(), bB.xf, c.fixtureB.shape.Radius())
}

// IsTouching reports whether the shapes overlapped at the last update.
func (c *Contact) IsTouching() bool { return c.touching }

// IsEnabled is false when a callback disabled the contact for this step.
func (c *Contact) IsEnabled() bool { return c.enabled }

// SetEnabled disables the contact until the next update. Use it from
// PreSolve to let bodies pass through each other.
func (c *Contact) SetEnabled(flag bool) { c.enabled = flag }

func (c *Contact) Friction() float64 { return c.friction }
func (c *Contact) SetFriction(v float64) { c.friction = v }
func (c *Contact) Restitution() float64 { return c.restitution }
func (c *Contact) SetRestitution(v float64) { c.restitution = v }
func (c *Contact) TangentSpeed() float64 { return c.tangentSpeed }
func (c *Contact) SetTangentSpeed(v float64) { c.tangentSpeed = v }

// ResetFriction re-mixes the friction from the fixtures.
func (c *Contact) ResetFriction() {
	c.friction = mixFriction(c.fixtureA.friction, c.fixtureB.friction)
}

// ResetRestitution re-mixes the restitution from the fixtures.
func (c *Contact) ResetRestitution() {
	c.restitution = mixRestitution(c.fixtureA.restitution, c.fixtureB.restitution)
}

// FlagForFiltering makes the next step re-run the filters on this
// contact, destroying it if they now reject the pair.
func (c *Contact) FlagForFiltering() { c.filterFlag = true }

func (c *Contact) isSensor() bool {
	return c.fixtureA.sensor || c.fixtureB.sensor
}

// invalidate drops the warm-start cache after a teleport.
func (c *Contact) invalidate() {
	for i := range c.manifold.Points {
		c.manifold.Points[i].NormalImpulse = 0
		c.manifold.Points[i].TangentImpulse = 0
	}
	c.toiFlag = false
}

// update runs the narrow-phase and fires the begin, end and pre-solve
// notifications.
func (c *Contact) update(l ContactListener) {
	old := c.manifold

	c.enabled = true

	wasTouching := c.touching
	fA, fB := c.fixtureA, c.fixtureB
	bA, bB := fA.body, fB.body
	xfA, xfB := bA.xf, bB.xf

	var touching bool
	if c.isSensor() {
		touching = collision.TestOverlap(fA.shape, c.childA, xfA, fB.shape, c.childB, xfB)
		c.manifold.PointCount = 0
	} else {
		c.manifold = collision.Collide(fA.shape, xfA, fB.shape, xfB)
		touching = c.manifold.PointCount > 0

		// carry impulses across steps for warm starting
		for i := 0; i < c.manifold.PointCount; i++ {
			mp := &c.manifold.Points[i]
			mp.NormalImpulse = 0
			mp.TangentImpulse = 0
			key := mp.ID.Key()
			for j := 0; j < old.PointCount; j++ {
				if old.Points[j].ID.Key() == key {
					mp.NormalImpulse = old.Points[j].NormalImpulse
					mp.TangentImpulse = old.Points[j].TangentImpulse
					break
				}
			}
		}

		if touching != wasTouching {
			bA.SetAwake(true)
			bB.SetAwake(true)
		}
	}

	c.touching = touching

	if !wasTouching && touching {
		if fA.OnCollision != nil && !fA.OnCollision(fA, fB, c) {
			c.enabled = false
		}
		if fB.OnCollision != nil && !fB.OnCollision(fB, fA, c) {
			c.enabled = false
		}
		if l != nil {
			l.BeginContact(c)
		}
	}

	if wasTouching && !touching {
		c.separated(l)
	}

	if !c.isSensor() && touching && l != nil {
		l.PreSolve(c, &old)
	}
}

func (c *Contact) separated(l ContactListener) {
	fA, fB := c.fixtureA, c.fixtureB
	if fA.OnSeparation != nil {
		fA.OnSeparation(fA, fB, c)
	}
	if fB.OnSeparation != nil {
		fB.OnSeparation(fB, fA, c)
	}
	if l != nil {
		l.EndContact(c)
	}
}

// other returns the body of the contact that is not b.
func (c *Contact) other(b *Body) *Body {
	if c.fixtureA.body == b {
		return c.fixtureB.body
	}
	return c.fixtureA.body
}
