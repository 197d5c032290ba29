package dynamics

import (
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/koteyur/physac2d/geom"
)

// Option configures a World.
type Option func(*World)

// WithSettings replaces the default solver settings.
func WithSettings(s Settings) Option {
	return func(w *World) { w.settings = s }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(w *World) {
		if log != nil {
			w.log = log
		}
	}
}

// WithContactFilter installs a filter that runs after the fixture filters.
func WithContactFilter(fn ContactFilterFunc) Option {
	return func(w *World) { w.cm.filter = fn }
}

func WithContactListener(l ContactListener) Option {
	return func(w *World) { w.cm.listener = l }
}

// WithListener installs the structural notifications.
func WithListener(l Listener) Option {
	return func(w *World) { w.listener = l }
}

type changeKind uint8

const (
	addBodyChange changeKind = iota
	removeBodyChange
	addJointChange
	removeJointChange
	addControllerChange
	removeControllerChange
)

// pendingChange is a structural change requested while the world was
// locked.
type pendingChange struct {
	kind       changeKind
	body       *Body
	joint      Joint
	controller Controller
}

// Stats reports counters of the last Step.
type Stats struct {
	Bodies      int
	AwakeBodies int
	Joints      int
	Contacts    int
	Touching    int
	Islands     int
	TOIEvents   int
	Proxies     int
	TreeHeight  int
	TreeBalance int
	TreeQuality float64
}

// World owns bodies, joints, contacts and controllers and advances them
// in time. It is not safe for concurrent use.
type World struct {
	gravity  geom.Vec2
	settings Settings
	log      *zap.Logger

	cm       *contactManager
	listener Listener

	bodies      []*Body
	joints      []Joint
	controllers []Controller
	pending     []pendingChange

	ground      *Body
	nextBodyID  int
	nextJointID int

	locked       bool
	newContacts  bool
	stepComplete bool
	invDt0       float64

	island island
	stack  []*Body
	stats  Stats
}

// NewWorld creates an empty world.
func NewWorld(gravity geom.Vec2, opts ...Option) *World {
	w := &World{
		gravity:      gravity,
		settings:     DefaultSettings(),
		log:          zap.NewNop(),
		cm:           newContactManager(),
		stepComplete: true,
	}
	w.island.world = w
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *World) Gravity() geom.Vec2 { return w.gravity }

func (w *World) SetGravity(g geom.Vec2) {
	mustValidVec("SetGravity", g)
	w.gravity = g
}

// Settings returns a pointer to the live settings. Changes apply from the
// next Step.
func (w *World) Settings() *Settings { return &w.settings }

func (w *World) Logger() *zap.Logger { return w.log }

// Locked reports whether the world is inside Step.
func (w *World) Locked() bool { return w.locked }

// Bodies returns the bodies in the order they were added. The slice is
// owned by the world.
func (w *World) Bodies() []*Body { return w.bodies }
func (w *World) Joints() []Joint { return w.joints }
func (w *World) Contacts() []*Contact { return w.cm.contacts }
func (w *World) Controllers() []Controller { return w.controllers }
func (w *World) BodyCount() int { return len(w.bodies) }
func (w *World) JointCount() int { return len(w.joints) }
func (w *World) ContactCount() int { return len(w.cm.contacts) }

// Stats returns the counters of the last Step together with the current
// broad-phase state.
func (w *World) Stats() Stats {
	s := w.stats
	s.Bodies = len(w.bodies)
	s.Joints = len(w.joints)
	s.Contacts = len(w.cm.contacts)
	s.AwakeBodies = 0
	for _, b := range w.bodies {
		if b.awake {
			s.AwakeBodies++
		}
	}
	s.Touching = 0
	for _, c := range w.cm.contacts {
		if c.touching {
			s.Touching++
		}
	}
	s.Proxies = w.cm.bp.ProxyCount()
	s.TreeHeight = w.cm.bp.TreeHeight()
	s.TreeBalance = w.cm.bp.TreeBalance()
	s.TreeQuality = w.cm.bp.TreeQuality()
	return s
}

// Ground returns the static body that joints use in place of a nil body.
// It is created on first use at the origin.
func (w *World) Ground() *Body {
	if w.ground == nil || w.ground.world != w || !w.ground.InWorld() {
		def := DefaultBodyDef()
		def.Type = Static
		w.ground = NewBody(def)
		_ = w.AddBody(w.ground)
	}
	return w.ground
}

// CreateBody builds a body from def and adds it. While the world is
// locked the body joins at the start of the next Step.
func (w *World) CreateBody(def BodyDef) *Body {
	b := NewBody(def)
	_ = w.AddBody(b)
	return b
}

// AddBody adds a detached body, deferring the add while locked.
func (w *World) AddBody(b *Body) error {
	if b == nil {
		return fmt.Errorf("add body: nil body: %w", ErrBodyNotFound)
	}
	if b.state != detached {
		return fmt.Errorf("add body %d: %w", b.id, ErrBodyExists)
	}
	b.world = w
	if w.locked {
		b.state = pendingAdd
		w.pending = append(w.pending, pendingChange{kind: addBodyChange, body: b})
		return nil
	}
	w.addBodyNow(b)
	return nil
}

func (w *World) addBodyNow(b *Body) {
	w.nextBodyID++
	b.id = w.nextBodyID
	b.index = len(w.bodies)
	b.state = active
	w.bodies = append(w.bodies, b)

	b.createProxies()
	w.newContacts = true

	w.log.Debug("body added", zap.Int("body", b.id), zap.Stringer("type", b.typ))
	w.listener.bodyAdded(b)
}

// RemoveBody removes a body with its joints and contacts. The body keeps
// its fixtures and can be added again.
func (w *World) RemoveBody(b *Body) error {
	if b == nil || b.world != w {
		return fmt.Errorf("remove body: %w", ErrBodyNotFound)
	}
	switch b.state {
	case pendingAdd:
		b.state = detached
		b.world = nil
		return nil
	case pendingRemove:
		return nil
	case active:
	default:
		return fmt.Errorf("remove body %d: %w", b.id, ErrBodyNotFound)
	}
	if w.locked {
		b.state = pendingRemove
		w.pending = append(w.pending, pendingChange{kind: removeBodyChange, body: b})
		return nil
	}
	w.removeBodyNow(b)
	return nil
}

func (w *World) removeBodyNow(b *Body) {
	for len(b.joints) > 0 {
		w.removeJointNow(b.joints[len(b.joints)-1].Joint)
	}
	// gears also hold on to the first bodies of their joints
	for i := len(w.joints) - 1; i >= 0; i-- {
		if g, ok := w.joints[i].(*GearJoint); ok && (g.bodyC == b || g.bodyD == b) {
			w.removeJointNow(g)
		}
	}

	b.destroyContacts()
	b.destroyProxies()

	w.bodies = slices.Delete(w.bodies, b.index, b.index+1)
	for i := b.index; i < len(w.bodies); i++ {
		w.bodies[i].index = i
	}
	if w.ground == b {
		w.ground = nil
	}

	w.log.Debug("body removed", zap.Int("body", b.id))
	w.listener.bodyRemoved(b)

	b.state = detached
	b.world = nil
	b.index = -1
}

// AddJoint adds a joint made by one of the New*Joint factories. Nil
// bodies are replaced by Ground. Both bodies must be in this world.
func (w *World) AddJoint(j Joint) error {
	if j == nil {
		return fmt.Errorf("add joint: nil joint: %w", ErrInvalidJoint)
	}
	jb := j.base()
	if jb.state != detached {
		return fmt.Errorf("add joint %d: %w", jb.id, ErrJointExists)
	}
	if jb.bodyA == nil {
		jb.bodyA = w.Ground()
	}
	if jb.bodyB == nil {
		jb.bodyB = w.Ground()
	}
	if jb.bodyA == jb.bodyB {
		return fmt.Errorf("add %v joint: %w", jb.typ, ErrSameBody)
	}
	for _, b := range []*Body{jb.bodyA, jb.bodyB} {
		if b.world != w || !b.InWorld() {
			return fmt.Errorf("add %v joint: %w", jb.typ, ErrBodyNotFound)
		}
	}
	if g, ok := j.(*GearJoint); ok {
		for _, jt := range []Joint{g.joint1, g.joint2} {
			if jt.base().world != w {
				return fmt.Errorf("add gear joint: geared %v joint: %w", jt.Type(), ErrJointNotFound)
			}
		}
	}

	jb.world = w
	if w.locked {
		jb.state = pendingAdd
		w.pending = append(w.pending, pendingChange{kind: addJointChange, joint: j})
		return nil
	}
	w.addJointNow(j)
	return nil
}

func (w *World) addJointNow(j Joint) {
	jb := j.base()
	dangling := false
	if g, ok := j.(*GearJoint); ok {
		dangling = g.joint1.base().state != active || g.joint2.base().state != active
	}
	if dangling || jb.bodyA.state != active || jb.bodyB.state != active {
		// a body was removed before the queued add ran
		jb.state = detached
		jb.world = nil
		w.log.Debug("joint dropped", zap.Stringer("type", jb.typ))
		return
	}
	w.nextJointID++
	jb.id = w.nextJointID
	jb.index = len(w.joints)
	jb.state = active
	w.joints = append(w.joints, j)

	jb.bodyA.joints = append(jb.bodyA.joints, JointEdge{Other: jb.bodyB, Joint: j})
	jb.bodyB.joints = append(jb.bodyB.joints, JointEdge{Other: jb.bodyA, Joint: j})

	if !jb.collideConnected {
		jb.flagContacts()
	}
	jb.wakeBodies()

	w.log.Debug("joint added", zap.Int("joint", jb.id), zap.Stringer("type", jb.typ))
	w.listener.jointAdded(j)
}

// RemoveJoint removes a joint, deferring while locked.
func (w *World) RemoveJoint(j Joint) error {
	if j == nil || j.base().world != w {
		return fmt.Errorf("remove joint: %w", ErrJointNotFound)
	}
	jb := j.base()
	switch jb.state {
	case pendingAdd:
		jb.state = detached
		jb.world = nil
		return nil
	case pendingRemove:
		return nil
	case active:
	default:
		return fmt.Errorf("remove joint %d: %w", jb.id, ErrJointNotFound)
	}
	if w.locked {
		jb.state = pendingRemove
		w.pending = append(w.pending, pendingChange{kind: removeJointChange, joint: j})
		return nil
	}
	w.removeJointNow(j)
	return nil
}

func (w *World) removeJointNow(j Joint) {
	jb := j.base()
	if jb.state != active && jb.state != pendingRemove {
		return
	}
	jb.wakeBodies()
	jb.bodyA.removeJointEdge(j)
	jb.bodyB.removeJointEdge(j)

	last := len(w.joints) - 1
	moved := w.joints[last]
	w.joints[jb.index] = moved
	moved.base().index = jb.index
	w.joints[last] = nil
	w.joints = w.joints[:last]

	if !jb.collideConnected {
		jb.flagContacts()
	}

	w.log.Debug("joint removed", zap.Int("joint", jb.id), zap.Stringer("type", jb.typ))
	w.listener.jointRemoved(j)

	jb.state = detached
	jb.world = nil
	jb.index = -1

	// a gear cannot outlive the joints it couples
	for i := len(w.joints) - 1; i >= 0; i-- {
		if g, ok := w.joints[i].(*GearJoint); ok && (g.joint1 == j || g.joint2 == j) {
			w.removeJointNow(g)
		}
	}
}

// AddController registers a controller, deferring while locked.
func (w *World) AddController(c Controller) error {
	if c == nil {
		return fmt.Errorf("add controller: nil controller: %w", ErrControllerNotFound)
	}
	cb := c.controllerBase()
	if cb.state != detached {
		return fmt.Errorf("add controller: %w", ErrControllerExists)
	}
	if w.locked {
		cb.state = pendingAdd
		cb.world = w
		w.pending = append(w.pending, pendingChange{kind: addControllerChange, controller: c})
		return nil
	}
	w.addControllerNow(c)
	return nil
}

func (w *World) addControllerNow(c Controller) {
	c.attach(w)
	c.controllerBase().state = active
	w.controllers = append(w.controllers, c)
	w.listener.controllerAdded(c)
}

func (w *World) RemoveController(c Controller) error {
	if c == nil || c.controllerBase().world != w {
		return fmt.Errorf("remove controller: %w", ErrControllerNotFound)
	}
	cb := c.controllerBase()
	switch cb.state {
	case pendingAdd:
		cb.state = detached
		cb.world = nil
		return nil
	case pendingRemove:
		return nil
	case active:
	default:
		return fmt.Errorf("remove controller: %w", ErrControllerNotFound)
	}
	if w.locked {
		cb.state = pendingRemove
		w.pending = append(w.pending, pendingChange{kind: removeControllerChange, controller: c})
		return nil
	}
	w.removeControllerNow(c)
	return nil
}

func (w *World) removeControllerNow(c Controller) {
	w.controllers = slices.DeleteFunc(w.controllers, func(x Controller) bool { return x == c })
	w.listener.controllerRemoved(c)
	cb := c.controllerBase()
	cb.state = detached
	cb.world = nil
}

// flush applies the changes queued during the previous Step, in the
// order they were requested. Entries cancelled in the meantime are
// skipped.
func (w *World) flush() {
	if len(w.pending) == 0 {
		return
	}
	pending := w.pending
	w.pending = nil
	for _, ch := range pending {
		switch ch.kind {
		case addBodyChange:
			if ch.body.state == pendingAdd && ch.body.world == w {
				w.addBodyNow(ch.body)
			}
		case removeBodyChange:
			if ch.body.state == pendingRemove {
				w.removeBodyNow(ch.body)
			}
		case addJointChange:
			if jb := ch.joint.base(); jb.state == pendingAdd && jb.world == w {
				w.addJointNow(ch.joint)
			}
		case removeJointChange:
			if ch.joint.base().state == pendingRemove {
				w.removeJointNow(ch.joint)
			}
		case addControllerChange:
			if cb := ch.controller.controllerBase(); cb.state == pendingAdd && cb.world == w {
				w.addControllerNow(ch.controller)
			}
		case removeControllerChange:
			if ch.controller.controllerBase().state == pendingRemove {
				w.removeControllerNow(ch.controller)
			}
		}
	}
}

// Step advances the world by dt seconds: queued changes are applied,
// controllers run, contacts are updated, islands solved and fast bodies
// swept for time of impact.
func (w *World) Step(dt float64) {
	if w.locked {
		panic("dynamics: Step called from inside Step")
	}
	mustValid("Step", dt)

	w.flush()
	if w.newContacts {
		w.cm.findNewContacts()
		w.newContacts = false
	}

	w.locked = true
	defer func() { w.locked = false }()

	s := &w.settings
	step := timeStep{
		dt:                 dt,
		velocityIterations: s.VelocityIterations,
		positionIterations: s.PositionIterations,
		warmStarting:       s.WarmStarting,
	}
	if dt > 0 {
		step.invDt = 1 / dt
	}
	step.dtRatio = w.invDt0 * dt

	w.stats.Islands = 0
	w.stats.TOIEvents = 0

	for _, c := range w.controllers {
		if c.controllerBase().Enabled() {
			c.Update(dt)
		}
	}

	w.cm.collide()

	if w.stepComplete && dt > 0 {
		w.solve(step)
	}
	if s.ContinuousPhysics && dt > 0 {
		w.solveTOI(step)
	}
	if dt > 0 {
		w.invDt0 = step.invDt
	}
	if s.AutoClearForces {
		w.ClearForces()
	}
}

// ClearForces zeroes the accumulated forces and torques of every body.
func (w *World) ClearForces() {
	for _, b := range w.bodies {
		b.force = geom.Vec2{}
		b.torque = 0
	}
}

// solve builds the islands from the awake bodies and solves each one.
func (w *World) solve(step timeStep) {
	is := &w.island

	for _, b := range w.bodies {
		b.islandFlag = false
	}
	for _, c := range w.cm.contacts {
		c.islandFlag = false
	}
	for _, j := range w.joints {
		j.base().islandFlag = false
	}

	for _, seed := range w.bodies {
		if seed.islandFlag || !seed.awake || !seed.enabled || seed.typ == Static {
			continue
		}

		is.clear()
		w.stack = append(w.stack[:0], seed)
		seed.islandFlag = true

		for len(w.stack) > 0 {
			b := w.stack[len(w.stack)-1]
			w.stack = w.stack[:len(w.stack)-1]
			is.addBody(b)

			// static bodies do not propagate the island
			if b.typ == Static {
				continue
			}
			b.SetAwake(true)

			for _, ce := range b.contacts {
				c := ce.Contact
				if c.islandFlag || !c.enabled || !c.touching || c.isSensor() {
					continue
				}
				is.addContact(c)
				c.islandFlag = true

				if other := ce.Other; !other.islandFlag {
					w.stack = append(w.stack, other)
					other.islandFlag = true
				}
			}

			for _, je := range b.joints {
				jb := je.Joint.base()
				if jb.islandFlag || !jb.enabled {
					continue
				}
				other := je.Other
				if !other.enabled {
					continue
				}
				is.addJoint(je.Joint)
				jb.islandFlag = true

				if g, ok := je.Joint.(*GearJoint); ok {
					c, d := g.extraBodies()
					for _, extra := range []*Body{c, d} {
						if !extra.islandFlag {
							w.stack = append(w.stack, extra)
							extra.islandFlag = true
						}
					}
				}

				if !other.islandFlag {
					w.stack = append(w.stack, other)
					other.islandFlag = true
				}
			}
		}

		is.solve(step)
		w.stats.Islands++

		// static bodies may take part in other islands
		for _, b := range is.bodies {
			if b.typ == Static {
				b.islandFlag = false
			}
		}
	}
	clear(w.stack)
	w.stack = w.stack[:0]

	for _, b := range w.bodies {
		if !b.islandFlag || b.typ == Static {
			continue
		}
		b.synchronizeFixtures()
	}
	w.cm.findNewContacts()

	w.log.Debug("step solved", zap.Int("islands", w.stats.Islands), zap.Int("contacts", len(w.cm.contacts)))
}

// ShiftOrigin moves the world origin to newOrigin, translating every
// body, joint anchor and proxy. Useful for large worlds.
func (w *World) ShiftOrigin(newOrigin geom.Vec2) error {
	if w.locked {
		return fmt.Errorf("shift origin: %w", ErrWorldLocked)
	}
	mustValidVec("ShiftOrigin", newOrigin)
	for _, b := range w.bodies {
		b.xf.P = b.xf.P.Sub(newOrigin)
		b.sweep.C0 = b.sweep.C0.Sub(newOrigin)
		b.sweep.C = b.sweep.C.Sub(newOrigin)
		for _, f := range b.fixtures {
			for _, p := range f.proxies {
				p.aabb = p.aabb.Shift(newOrigin.Neg())
			}
		}
	}
	for _, j := range w.joints {
		if s, ok := j.(originShifter); ok {
			s.shiftOrigin(newOrigin)
		}
	}
	w.cm.bp.ShiftOrigin(newOrigin)
	return nil
}
