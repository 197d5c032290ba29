package dynamics

import (
	"github.com/koteyur/physac2d/collision"
	"github.com/koteyur/physac2d/geom"
)

// Filter decides which fixtures may collide. Fixtures sharing a positive
// group always collide, a shared negative group never does, otherwise the
// category and mask bits of both sides must accept each other.
type Filter struct {
	Category uint32
	Mask     uint32
	Group    int16
}

// DefaultFilter collides with everything.
func DefaultFilter() Filter {
	return Filter{Category: 1, Mask: 0xFFFFFFFF}
}

func (f Filter) accepts(o Filter) bool {
	if f.Group == o.Group && f.Group != 0 {
		return f.Group > 0
	}
	return f.Mask&o.Category != 0 && o.Mask&f.Category != 0
}

// FixtureDef holds the construction parameters of a fixture. The shape is
// cloned on attachment.
type FixtureDef struct {
	Shape       collision.Shape
	Density     float64
	Friction    float64
	Restitution float64
	IsSensor    bool
	// A zero Filter means DefaultFilter.
	Filter   Filter
	UserData any
}

// NewFixtureDef fills in the default friction.
func NewFixtureDef(shape collision.Shape, density float64) FixtureDef {
	return FixtureDef{Shape: shape, Density: density, Friction: 0.2, Filter: DefaultFilter()}
}

// fixtureProxy is the broad-phase entry of one shape child.
type fixtureProxy struct {
	aabb    geom.AABB
	fixture *Fixture
	child   int
	id      int
}

// Fixture binds a shape to a body and carries its material and collision
// filtering.
type Fixture struct {
	body        *Body
	shape       collision.Shape
	density     float64
	friction    float64
	restitution float64
	sensor      bool
	filter      Filter
	ignore      map[*Fixture]struct{}
	proxies     []*fixtureProxy

	// IgnoreCCDWith holds category bits this fixture never runs continuous
	// collision against.
	IgnoreCCDWith uint32

	// BeforeCollision vetoes a new contact when it returns false.
	BeforeCollision func(self, other *Fixture) bool
	// OnCollision runs when a contact starts touching. Returning false
	// disables the contact for the current step.
	OnCollision func(self, other *Fixture, c *Contact) bool
	// OnSeparation runs when a touching contact stops touching or is
	// destroyed.
	OnSeparation func(self, other *Fixture, c *Contact)

	UserData any
}

func newFixture(b *Body, def FixtureDef) *Fixture {
	filter := def.Filter
	if filter == (Filter{}) {
		filter = DefaultFilter()
	}
	return &Fixture{
		body:        b,
		shape:       def.Shape.Clone(),
		density:     def.Density,
		friction:    def.Friction,
		restitution: def.Restitution,
		sensor:      def.IsSensor,
		filter:      filter,
		UserData:    def.UserData,
	}
}

func (f *Fixture) Body() *Body { return f.body }
func (f *Fixture) Shape() collision.Shape { return f.shape }
func (f *Fixture) Type() collision.ShapeType { return f.shape.Type() }
func (f *Fixture) Density() float64 { return f.density }
func (f *Fixture) Friction() float64 { return f.friction }
func (f *Fixture) Restitution() float64 { return f.restitution }
func (f *Fixture) IsSensor() bool { return f.sensor }
func (f *Fixture) Filter() Filter { return f.filter }
func (f *Fixture) MassData() collision.MassData { return f.shape.ComputeMass(f.density) }

// SetDensity does not update the body mass; call Body.ResetMassData.
func (f *Fixture) SetDensity(d float64) {
	mustValid("SetDensity", d)
	if d < 0 {
		panic("dynamics: SetDensity: negative density")
	}
	f.density = d
}

// SetFriction affects contacts created afterwards. Existing contacts keep
// the mixed value until ResetFriction is called on them.
func (f *Fixture) SetFriction(v float64) { f.friction = v }

func (f *Fixture) SetRestitution(v float64) { f.restitution = v }

// SetSensor switches between a solid fixture and a sensor.
func (f *Fixture) SetSensor(flag bool) {
	if flag == f.sensor {
		return
	}
	f.sensor = flag
	if f.body != nil {
		f.body.SetAwake(true)
	}
	f.refilter()
}

// SetFilter replaces the filter and re-evaluates existing contacts on the
// next step.
func (f *Fixture) SetFilter(filter Filter) {
	f.filter = filter
	f.refilter()
}

// IgnoreCollisionWith stops this fixture from colliding with other. The
// relation is symmetric.
func (f *Fixture) IgnoreCollisionWith(other *Fixture) {
	if f.ignore == nil {
		f.ignore = make(map[*Fixture]struct{})
	}
	if other.ignore == nil {
		other.ignore = make(map[*Fixture]struct{})
	}
	f.ignore[other] = struct{}{}
	other.ignore[f] = struct{}{}
	f.refilter()
	other.refilter()
}

// RestoreCollisionWith undoes IgnoreCollisionWith.
func (f *Fixture) RestoreCollisionWith(other *Fixture) {
	delete(f.ignore, other)
	delete(other.ignore, f)
	f.refilter()
	other.refilter()
}

// IsIgnoring reports whether IgnoreCollisionWith was called for other.
func (f *Fixture) IsIgnoring(other *Fixture) bool {
	_, ok := f.ignore[other]
	return ok
}

// shouldCollide applies the fixture level filters in both directions.
func (f *Fixture) shouldCollide(other *Fixture) bool {
	if !f.filter.accepts(other.filter) {
		return false
	}
	return !f.IsIgnoring(other) && !other.IsIgnoring(f)
}

func (f *Fixture) ignoresCCD(other *Fixture) bool {
	return f.IgnoreCCDWith&other.filter.Category != 0 || other.IgnoreCCDWith&f.filter.Category != 0
}

// TestPoint reports whether a world point is inside the shape.
func (f *Fixture) TestPoint(p geom.Vec2) bool {
	return f.shape.TestPoint(f.body.xf, p)
}

// RayCast casts against one shape child in world space.
func (f *Fixture) RayCast(in geom.RayCastInput, child int) (geom.RayCastOutput, bool) {
	return f.shape.RayCast(in, f.body.xf, child)
}

// AABB returns the box swept by a child during the last step, or the
// current tight box when the fixture has no proxies.
func (f *Fixture) AABB(child int) geom.AABB {
	if child < len(f.proxies) {
		return f.proxies[child].aabb
	}
	return f.shape.ComputeAABB(f.body.xf, child)
}

func (f *Fixture) refilter() {
	b := f.body
	if b == nil || b.world == nil {
		return
	}
	for _, ce := range b.contacts {
		c := ce.Contact
		if c.fixtureA == f || c.fixtureB == f {
			c.FlagForFiltering()
		}
	}
	if !b.inTree {
		return
	}
	bp := b.broadPhase()
	for _, p := range f.proxies {
		bp.TouchProxy(p.id)
	}
}

func (f *Fixture) createProxies(bp *collision.BroadPhase[*fixtureProxy], xf geom.Transform) {
	n := f.shape.ChildCount()
	f.proxies = f.proxies[:0]
	for i := 0; i < n; i++ {
		p := &fixtureProxy{
			aabb:    f.shape.ComputeAABB(xf, i),
			fixture: f,
			child:   i,
		}
		p.id = bp.CreateProxy(p.aabb, p)
		f.proxies = append(f.proxies, p)
	}
}

func (f *Fixture) destroyProxies(bp *collision.BroadPhase[*fixtureProxy]) {
	for _, p := range f.proxies {
		bp.DestroyProxy(p.id)
	}
	f.proxies = f.proxies[:0]
}

// synchronize covers the motion from xf1 to xf2 and predicts the next
// step from the displacement.
func (f *Fixture) synchronize(bp *collision.BroadPhase[*fixtureProxy], xf1, xf2 geom.Transform) {
	for _, p := range f.proxies {
		a1 := f.shape.ComputeAABB(xf1, p.child)
		a2 := f.shape.ComputeAABB(xf2, p.child)
		p.aabb = a1.Combine(a2)
		bp.MoveProxy(p.id, p.aabb, xf2.P.Sub(xf1.P))
	}
}
