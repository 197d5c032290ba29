package dynamics

import (
	"fmt"
	"slices"

	"github.com/koteyur/physac2d/collision"
	"github.com/koteyur/physac2d/geom"
)

// BodyType decides how a body takes part in the simulation.
type BodyType int

const (
	// Static bodies never move and have infinite mass.
	Static BodyType = iota
	// Kinematic bodies move by velocity only and ignore forces.
	Kinematic
	// Dynamic bodies are fully simulated.
	Dynamic
)

func (t BodyType) String() string {
	switch t {
	case Static:
		return "static"
	case Kinematic:
		return "kinematic"
	case Dynamic:
		return "dynamic"
	default:
		return fmt.Sprintf("BodyType(%d)", int(t))
	}
}

// membership tracks a body, joint or controller through the deferred
// add/remove queue.
type membership uint8

const (
	detached membership = iota
	pendingAdd
	active
	pendingRemove
)

// BodyDef holds the construction parameters of a body.
type BodyDef struct {
	Type            BodyType
	Position        geom.Vec2
	Angle           float64
	LinearVelocity  geom.Vec2
	AngularVelocity float64
	LinearDamping   float64
	AngularDamping  float64
	GravityScale    float64
	AllowSleep      bool
	Awake           bool
	Enabled         bool
	FixedRotation   bool
	Bullet          bool
	IgnoreGravity   bool
	IgnoreCCD       bool
	UserData        any
}

// DefaultBodyDef returns an awake, enabled static body definition at the
// origin.
func DefaultBodyDef() BodyDef {
	return BodyDef{
		GravityScale: 1,
		AllowSleep:   true,
		Awake:        true,
		Enabled:      true,
	}
}

// ContactEdge links a body to a contact and to the other body of that
// contact.
type ContactEdge struct {
	Other   *Body
	Contact *Contact
}

// JointEdge links a body to a joint and to the other body of that joint.
type JointEdge struct {
	Other *Body
	Joint Joint
}

// Body is a rigid body. All fields are private; use the accessors, which
// keep the mass, sweep and broad-phase state consistent.
type Body struct {
	world *World
	state membership
	index int
	id    int

	typ   BodyType
	xf    geom.Transform
	sweep geom.Sweep

	linearVelocity  geom.Vec2
	angularVelocity float64

	force  geom.Vec2
	torque float64

	mass, invMass float64
	// inertia about the center of mass
	inertia, invI float64

	linearDamping  float64
	angularDamping float64
	gravityScale   float64
	sleepTime      float64

	awake           bool
	enabled         bool
	bullet          bool
	fixedRotation   bool
	sleepingAllowed bool
	ignoreGravity   bool
	ignoreCCD       bool

	// solver bookkeeping
	islandFlag  bool
	islandIndex int
	inTree      bool

	fixtures []*Fixture
	contacts []ContactEdge
	joints   []JointEdge

	UserData any
}

// NewBody builds a detached body. Fixtures can be attached before the body
// is added to a World.
func NewBody(def BodyDef) *Body {
	if !def.Position.IsValid() || !geom.IsValid(def.Angle) {
		panic("dynamics: NewBody: invalid position or angle")
	}
	b := &Body{
		typ:             def.Type,
		xf:              geom.NewTransform(def.Position, def.Angle),
		linearVelocity:  def.LinearVelocity,
		angularVelocity: def.AngularVelocity,
		linearDamping:   def.LinearDamping,
		angularDamping:  def.AngularDamping,
		gravityScale:    def.GravityScale,
		awake:           def.Awake,
		enabled:         def.Enabled,
		bullet:          def.Bullet,
		fixedRotation:   def.FixedRotation,
		sleepingAllowed: def.AllowSleep,
		ignoreGravity:   def.IgnoreGravity,
		ignoreCCD:       def.IgnoreCCD,
		UserData:        def.UserData,
	}
	b.sweep.C0 = def.Position
	b.sweep.C = def.Position
	b.sweep.A0 = def.Angle
	b.sweep.A = def.Angle

	if b.typ == Dynamic {
		b.mass = 1
		b.invMass = 1
	}
	if b.typ == Static {
		b.linearVelocity = geom.Vec2{}
		b.angularVelocity = 0
		b.awake = false
	}
	return b
}

func (b *Body) ID() int { return b.id }
func (b *Body) World() *World { return b.world }
func (b *Body) Type() BodyType { return b.typ }
func (b *Body) Transform() geom.Transform { return b.xf }
func (b *Body) Position() geom.Vec2 { return b.xf.P }
func (b *Body) Angle() float64 { return b.sweep.A }

// WorldCenter returns the center of mass in world coordinates.
func (b *Body) WorldCenter() geom.Vec2 { return b.sweep.C }

// LocalCenter returns the center of mass in body coordinates.
func (b *Body) LocalCenter() geom.Vec2 { return b.sweep.LocalCenter }

func (b *Body) LinearVelocity() geom.Vec2 { return b.linearVelocity }
func (b *Body) AngularVelocity() float64 { return b.angularVelocity }
func (b *Body) Force() geom.Vec2 { return b.force }
func (b *Body) Torque() float64 { return b.torque }
func (b *Body) Mass() float64 { return b.mass }
func (b *Body) InvMass() float64 { return b.invMass }

// Inertia is the rotational inertia about the center of mass.
func (b *Body) Inertia() float64 { return b.inertia }
func (b *Body) InvInertia() float64 { return b.invI }

func (b *Body) IsAwake() bool { return b.awake }
func (b *Body) IsEnabled() bool { return b.enabled }
func (b *Body) IsBullet() bool { return b.bullet }
func (b *Body) IsFixedRotation() bool { return b.fixedRotation }
func (b *Body) IsSleepingAllowed() bool { return b.sleepingAllowed }
func (b *Body) IgnoresGravity() bool { return b.ignoreGravity }
func (b *Body) IgnoresCCD() bool { return b.ignoreCCD }
func (b *Body) GravityScale() float64 { return b.gravityScale }
func (b *Body) LinearDamping() float64 { return b.linearDamping }
func (b *Body) AngularDamping() float64 { return b.angularDamping }
func (b *Body) SleepTime() float64 { return b.sleepTime }
func (b *Body) Fixtures() []*Fixture { return b.fixtures }
func (b *Body) Contacts() []ContactEdge { return b.contacts }
func (b *Body) Joints() []JointEdge { return b.joints }

// InWorld reports whether the body is added (or queued to be added) to a
// World.
func (b *Body) InWorld() bool {
	return b.state == active || b.state == pendingAdd
}

func (b *Body) assertUnlocked(op string) {
	if b.world != nil && b.world.locked {
		panic(fmt.Sprintf("dynamics: %s: %v", op, ErrWorldLocked))
	}
}

func (b *Body) broadPhase() *collision.BroadPhase[*fixtureProxy] {
	return b.world.cm.bp
}

// SetTransform teleports the body. Contacts keep existing but lose their
// warm-start cache, and the broad-phase looks for new pairs on the next
// step. Panics while the world is stepping.
func (b *Body) SetTransform(position geom.Vec2, angle float64) {
	if !position.IsValid() || !geom.IsValid(angle) {
		panic("dynamics: SetTransform: invalid position or angle")
	}
	b.assertUnlocked("SetTransform")

	b.xf = geom.NewTransform(position, angle)
	b.sweep.C = b.xf.Apply(b.sweep.LocalCenter)
	b.sweep.A = angle
	b.sweep.C0 = b.sweep.C
	b.sweep.A0 = angle

	for _, ce := range b.contacts {
		ce.Contact.invalidate()
	}
	if b.inTree {
		bp := b.broadPhase()
		for _, f := range b.fixtures {
			f.synchronize(bp, b.xf, b.xf)
		}
		b.world.newContacts = true
	}
}

// SetPosition keeps the current angle.
func (b *Body) SetPosition(position geom.Vec2) {
	b.SetTransform(position, b.sweep.A)
}

// SetAngle keeps the current position.
func (b *Body) SetAngle(angle float64) {
	b.SetTransform(b.xf.P, angle)
}

// ResetMassData recomputes mass, inertia and center of mass from the
// fixtures. Zero density fixtures contribute nothing. A dynamic body
// without mass gets a mass of one.
func (b *Body) ResetMassData() {
	b.mass = 0
	b.invMass = 0
	b.inertia = 0
	b.invI = 0
	b.sweep.LocalCenter = geom.Vec2{}

	if b.typ == Static || b.typ == Kinematic {
		b.sweep.C0 = b.xf.P
		b.sweep.C = b.xf.P
		b.sweep.A0 = b.sweep.A
		return
	}

	var localCenter geom.Vec2
	rotInertia := 0.0
	for _, f := range b.fixtures {
		if f.density == 0 {
			continue
		}
		md := f.MassData()
		b.mass += md.Mass
		localCenter = localCenter.Add(md.Center.Mul(md.Mass))
		rotInertia += md.I
	}

	if b.mass > 0 {
		b.invMass = 1 / b.mass
		localCenter = localCenter.Mul(b.invMass)
	} else {
		b.mass = 1
		b.invMass = 1
	}

	if rotInertia > 0 && !b.fixedRotation {
		// shift from the body origin to the center of mass
		b.inertia = rotInertia - b.mass*localCenter.Dot(localCenter)
		b.invI = 1 / b.inertia
	}

	oldCenter := b.sweep.C
	b.sweep.LocalCenter = localCenter
	b.sweep.C = b.xf.Apply(localCenter)
	b.sweep.C0 = b.sweep.C

	// keep the velocity of the old center of mass
	b.linearVelocity = b.linearVelocity.Add(geom.CrossSV(b.angularVelocity, b.sweep.C.Sub(oldCenter)))
}

// SetMassData overrides the computed mass properties. I is the inertia
// about the body origin; the m*|center|^2 share of it is removed to get the
// inertia about the center of mass. Ignored on non-dynamic bodies.
func (b *Body) SetMassData(md collision.MassData) {
	b.assertUnlocked("SetMassData")
	if b.typ != Dynamic {
		return
	}
	b.invMass = 0
	b.inertia = 0
	b.invI = 0

	b.mass = md.Mass
	if b.mass <= 0 {
		b.mass = 1
	}
	b.invMass = 1 / b.mass

	if md.I > 0 && !b.fixedRotation {
		b.inertia = md.I - b.mass*md.Center.Dot(md.Center)
		if b.inertia > 0 {
			b.invI = 1 / b.inertia
		} else {
			b.inertia = 0
		}
	}

	oldCenter := b.sweep.C
	b.sweep.LocalCenter = md.Center
	b.sweep.C = b.xf.Apply(md.Center)
	b.sweep.C0 = b.sweep.C
	b.linearVelocity = b.linearVelocity.Add(geom.CrossSV(b.angularVelocity, b.sweep.C.Sub(oldCenter)))
}

// SetType changes the body type. All contacts of the body are destroyed
// and rebuilt on the next step.
func (b *Body) SetType(t BodyType) {
	b.assertUnlocked("SetType")
	if b.typ == t {
		return
	}
	b.typ = t
	b.ResetMassData()

	if b.typ == Static {
		b.linearVelocity = geom.Vec2{}
		b.angularVelocity = 0
		b.sweep.A0 = b.sweep.A
		b.sweep.C0 = b.sweep.C
		b.awake = false
		b.synchronizeFixtures()
	}
	b.SetAwake(true)

	b.force = geom.Vec2{}
	b.torque = 0

	b.destroyContacts()

	if b.inTree {
		bp := b.broadPhase()
		for _, f := range b.fixtures {
			for _, p := range f.proxies {
				bp.TouchProxy(p.id)
			}
		}
	}
}

func (b *Body) destroyContacts() {
	if b.world == nil {
		return
	}
	for len(b.contacts) > 0 {
		b.world.cm.destroy(b.contacts[len(b.contacts)-1].Contact)
	}
}

// SetAwake wakes the body or puts it to sleep. Sleeping clears velocities
// and accumulated forces. Static bodies never wake.
func (b *Body) SetAwake(flag bool) {
	if b.typ == Static {
		return
	}
	if flag {
		if !b.awake {
			b.awake = true
			b.sleepTime = 0
		}
		return
	}
	b.awake = false
	b.sleepTime = 0
	b.linearVelocity = geom.Vec2{}
	b.angularVelocity = 0
	b.force = geom.Vec2{}
	b.torque = 0
}

// SetSleepingAllowed false keeps the body awake forever.
func (b *Body) SetSleepingAllowed(flag bool) {
	b.sleepingAllowed = flag
	if !flag {
		b.SetAwake(true)
	}
}

// SetEnabled removes a body from the simulation without removing it from
// the world. Disabled bodies keep their fixtures but have no proxies and
// no contacts.
func (b *Body) SetEnabled(flag bool) {
	b.assertUnlocked("SetEnabled")
	if b.enabled == flag {
		return
	}
	b.enabled = flag
	if b.state != active {
		return
	}
	if flag {
		b.createProxies()
		b.world.newContacts = true
		return
	}
	b.destroyProxies()
	b.destroyContacts()
}

func (b *Body) SetBullet(flag bool) { b.bullet = flag }

func (b *Body) SetIgnoreCCD(flag bool) { b.ignoreCCD = flag }

// SetFixedRotation locks the rotation of the body.
func (b *Body) SetFixedRotation(flag bool) {
	b.assertUnlocked("SetFixedRotation")
	if b.fixedRotation == flag {
		return
	}
	b.fixedRotation = flag
	b.angularVelocity = 0
	b.ResetMassData()
}

func (b *Body) SetGravityScale(scale float64) {
	mustValid("SetGravityScale", scale)
	b.gravityScale = scale
}

func (b *Body) SetIgnoreGravity(flag bool) { b.ignoreGravity = flag }

func (b *Body) SetLinearDamping(d float64) {
	mustValid("SetLinearDamping", d)
	b.linearDamping = d
}

func (b *Body) SetAngularDamping(d float64) {
	mustValid("SetAngularDamping", d)
	b.angularDamping = d
}

// SetLinearVelocity is ignored on static bodies.
func (b *Body) SetLinearVelocity(v geom.Vec2) {
	mustValidVec("SetLinearVelocity", v)
	if b.typ == Static {
		return
	}
	if v.Dot(v) > 0 {
		b.SetAwake(true)
	}
	b.linearVelocity = v
}

// SetAngularVelocity is ignored on static bodies.
func (b *Body) SetAngularVelocity(w float64) {
	mustValid("SetAngularVelocity", w)
	if b.typ == Static {
		return
	}
	if w*w > 0 {
		b.SetAwake(true)
	}
	b.angularVelocity = w
}

// ApplyForce applies a force at a world point. Off-center forces also
// produce torque. Only dynamic bodies respond.
func (b *Body) ApplyForce(force, point geom.Vec2) {
	mustValidVec("ApplyForce", force)
	if b.typ != Dynamic {
		return
	}
	b.SetAwake(true)
	b.force = b.force.Add(force)
	b.torque += point.Sub(b.sweep.C).Cross(force)
}

// ApplyForceToCenter applies a force at the center of mass.
func (b *Body) ApplyForceToCenter(force geom.Vec2) {
	mustValidVec("ApplyForceToCenter", force)
	if b.typ != Dynamic {
		return
	}
	b.SetAwake(true)
	b.force = b.force.Add(force)
}

func (b *Body) ApplyTorque(torque float64) {
	mustValid("ApplyTorque", torque)
	if b.typ != Dynamic {
		return
	}
	b.SetAwake(true)
	b.torque += torque
}

// ApplyLinearImpulse changes the velocity immediately.
func (b *Body) ApplyLinearImpulse(impulse, point geom.Vec2) {
	mustValidVec("ApplyLinearImpulse", impulse)
	if b.typ != Dynamic {
		return
	}
	b.SetAwake(true)
	b.linearVelocity = b.linearVelocity.Add(impulse.Mul(b.invMass))
	b.angularVelocity += b.invI * point.Sub(b.sweep.C).Cross(impulse)
}

func (b *Body) ApplyLinearImpulseToCenter(impulse geom.Vec2) {
	mustValidVec("ApplyLinearImpulseToCenter", impulse)
	if b.typ != Dynamic {
		return
	}
	b.SetAwake(true)
	b.linearVelocity = b.linearVelocity.Add(impulse.Mul(b.invMass))
}

func (b *Body) ApplyAngularImpulse(impulse float64) {
	mustValid("ApplyAngularImpulse", impulse)
	if b.typ != Dynamic {
		return
	}
	b.SetAwake(true)
	b.angularVelocity += b.invI * impulse
}

func (b *Body) WorldPoint(local geom.Vec2) geom.Vec2 { return b.xf.Apply(local) }
func (b *Body) WorldVector(local geom.Vec2) geom.Vec2 { return b.xf.Q.Apply(local) }
func (b *Body) LocalPoint(world geom.Vec2) geom.Vec2 { return b.xf.ApplyT(world) }
func (b *Body) LocalVector(world geom.Vec2) geom.Vec2 { return b.xf.Q.ApplyT(world) }

// LinearVelocityFromWorldPoint returns the velocity of a world point
// attached to this body.
func (b *Body) LinearVelocityFromWorldPoint(p geom.Vec2) geom.Vec2 {
	return b.linearVelocity.Add(geom.CrossSV(b.angularVelocity, p.Sub(b.sweep.C)))
}

func (b *Body) LinearVelocityFromLocalPoint(p geom.Vec2) geom.Vec2 {
	return b.LinearVelocityFromWorldPoint(b.WorldPoint(p))
}

// CreateFixture attaches a clone of shape with default friction and
// filtering.
func (b *Body) CreateFixture(shape collision.Shape, density float64, userData any) (*Fixture, error) {
	def := NewFixtureDef(shape, density)
	def.UserData = userData
	return b.CreateFixtureDef(def)
}

// CreateFixtureDef attaches a fixture and updates the mass when the
// fixture has density.
func (b *Body) CreateFixtureDef(def FixtureDef) (*Fixture, error) {
	if def.Shape == nil {
		return nil, fmt.Errorf("create fixture: nil shape")
	}
	if b.world != nil && b.world.locked {
		return nil, fmt.Errorf("create fixture: %w", ErrWorldLocked)
	}
	if def.Density < 0 || !geom.IsValid(def.Density) {
		return nil, fmt.Errorf("create fixture: invalid density %v", def.Density)
	}

	f := newFixture(b, def)
	if b.inTree {
		f.createProxies(b.broadPhase(), b.xf)
		b.world.newContacts = true
	}
	b.fixtures = append(b.fixtures, f)

	if f.density > 0 {
		b.ResetMassData()
	}
	if b.world != nil && b.state == active {
		b.world.listener.fixtureAdded(f)
	}
	return f, nil
}

// DestroyFixture detaches a fixture, destroying its contacts and proxies,
// and updates the mass.
func (b *Body) DestroyFixture(f *Fixture) error {
	if b.world != nil && b.world.locked {
		return fmt.Errorf("destroy fixture: %w", ErrWorldLocked)
	}
	if f == nil || f.body != b {
		return fmt.Errorf("destroy fixture: %w", ErrFixtureNotOwned)
	}

	if b.world != nil {
		for i := len(b.contacts) - 1; i >= 0; i-- {
			if i >= len(b.contacts) {
				continue
			}
			c := b.contacts[i].Contact
			if c.fixtureA == f || c.fixtureB == f {
				b.world.cm.destroy(c)
			}
		}
	}
	if b.inTree {
		f.destroyProxies(b.broadPhase())
	}

	b.fixtures = slices.DeleteFunc(b.fixtures, func(x *Fixture) bool { return x == f })
	f.body = nil
	b.ResetMassData()

	if b.world != nil && b.state == active {
		b.world.listener.fixtureRemoved(f)
	}
	return nil
}

func (b *Body) createProxies() {
	if b.inTree || !b.enabled {
		return
	}
	bp := b.broadPhase()
	for _, f := range b.fixtures {
		f.createProxies(bp, b.xf)
	}
	b.inTree = true
}

func (b *Body) destroyProxies() {
	if !b.inTree {
		return
	}
	bp := b.broadPhase()
	for _, f := range b.fixtures {
		f.destroyProxies(bp)
	}
	b.inTree = false
}

// synchronizeFixtures moves the proxies to cover the sweep from the start
// to the end of the step.
func (b *Body) synchronizeFixtures() {
	if !b.inTree {
		return
	}
	xf1 := geom.Transform{Q: geom.NewRot(b.sweep.A0)}
	xf1.P = b.sweep.C0.Sub(xf1.Q.Apply(b.sweep.LocalCenter))

	bp := b.broadPhase()
	for _, f := range b.fixtures {
		f.synchronize(bp, xf1, b.xf)
	}
}

func (b *Body) synchronizeTransform() {
	b.xf.Q = geom.NewRot(b.sweep.A)
	b.xf.P = b.sweep.C.Sub(b.xf.Q.Apply(b.sweep.LocalCenter))
}

// advance moves the body to the safe time alpha of the current step.
func (b *Body) advance(alpha float64) {
	b.sweep.Advance(alpha)
	b.sweep.C = b.sweep.C0
	b.sweep.A = b.sweep.A0
	b.synchronizeTransform()
}

// shouldCollide applies the body level rules: at least one body must be
// dynamic, and a joint between them may forbid collision.
func (b *Body) shouldCollide(other *Body) bool {
	if b.typ != Dynamic && other.typ != Dynamic {
		return false
	}
	for _, je := range b.joints {
		if je.Other == other && !je.Joint.CollideConnected() {
			return false
		}
	}
	return true
}

func (b *Body) removeContactEdge(c *Contact) {
	for i, ce := range b.contacts {
		if ce.Contact == c {
			b.contacts = slices.Delete(b.contacts, i, i+1)
			return
		}
	}
}

func (b *Body) removeJointEdge(j Joint) {
	for i, je := range b.joints {
		if je.Joint == j {
			b.joints = slices.Delete(b.joints, i, i+1)
			return
		}
	}
}

func mustValid(op string, x float64) {
	if !geom.IsValid(x) {
		panic(fmt.Sprintf("dynamics: %s: invalid value %v", op, x))
	}
}

func mustValidVec(op string, v geom.Vec2) {
	if !v.IsValid() {
		panic(fmt.Sprintf("dynamics: %s: invalid vector %v", op, v))
	}
}
