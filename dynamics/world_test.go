package dynamics

import (
	"errors"
	"math"
	"testing"

	"github.com/koteyur/physac2d/collision"
	"github.com/koteyur/physac2d/geom"
)

const testDt = 1.0 / 60.0

func near(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func step(w *World, n int) {
	for i := 0; i < n; i++ {
		w.Step(testDt)
	}
}

// addGround adds a wide static box whose top face is at y = 0.
func addGround(t *testing.T, w *World) *Body {
	t.Helper()
	def := DefaultBodyDef()
	def.Position = geom.V(0, -1)
	g := w.CreateBody(def)
	if _, err := g.CreateFixture(collision.NewBox(50, 1), 0, nil); err != nil {
		t.Fatal(err)
	}
	return g
}

func addDynamic(t *testing.T, w *World, pos geom.Vec2, shape collision.Shape) *Body {
	t.Helper()
	def := DefaultBodyDef()
	def.Type = Dynamic
	def.Position = pos
	b := w.CreateBody(def)
	if _, err := b.CreateFixture(shape, 1, nil); err != nil {
		t.Fatal(err)
	}
	return b
}

type contactCounter struct {
	begin, end, pre, post int
}

func (c *contactCounter) listener() ContactCallbacks {
	return ContactCallbacks{
		Begin: func(*Contact) { c.begin++ },
		End:   func(*Contact) { c.end++ },
		Pre:   func(*Contact, *collision.Manifold) { c.pre++ },
		Post:  func(*Contact, *ContactImpulse) { c.post++ },
	}
}

func buildPile(t *testing.T) *World {
	w := NewWorld(geom.V(0, -10))
	addGround(t, w)
	for i := 0; i < 5; i++ {
		addDynamic(t, w, geom.V(0.1*float64(i), 0.5+1.05*float64(i)), collision.NewBox(0.5, 0.5))
	}
	addDynamic(t, w, geom.V(0.3, 8), collision.NewCircle(0.4))
	return w
}

func TestDeterminism(t *testing.T) {
	w1 := buildPile(t)
	w2 := buildPile(t)
	step(w1, 180)
	step(w2, 180)

	b1, b2 := w1.Bodies(), w2.Bodies()
	if len(b1) != len(b2) {
		t.Fatalf("body counts differ: %d vs %d", len(b1), len(b2))
	}
	for i := range b1 {
		if b1[i].Transform() != b2[i].Transform() {
			t.Fatalf("body %d: %v vs %v", i, b1[i].Transform(), b2[i].Transform())
		}
		if b1[i].LinearVelocity() != b2[i].LinearVelocity() || b1[i].AngularVelocity() != b2[i].AngularVelocity() {
			t.Fatalf("body %d velocities differ", i)
		}
	}
}

func TestMassData(t *testing.T) {
	cases := []struct {
		name    string
		typ     BodyType
		shapes  []collision.Shape
		density float64
		mass    float64
		inertia float64
	}{
		{"box", Dynamic, []collision.Shape{collision.NewBox(0.5, 0.5)}, 2, 2, 2 * 2 / 12.0},
		{"two_boxes", Dynamic, []collision.Shape{
			collision.NewOrientedBox(0.5, 0.5, geom.V(-1, 0), 0),
			collision.NewOrientedBox(0.5, 0.5, geom.V(1, 0), 0),
		}, 1, 2, 2*(2/12.0) + 2*1},
		{"circle", Dynamic, []collision.Shape{collision.NewCircle(1)}, 1, math.Pi, math.Pi / 2},
		{"no_density", Dynamic, []collision.Shape{collision.NewBox(1, 1)}, 0, 1, 0},
		{"static", Static, []collision.Shape{collision.NewBox(1, 1)}, 1, 0, 0},
		{"kinematic", Kinematic, []collision.Shape{collision.NewBox(1, 1)}, 1, 0, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			def := DefaultBodyDef()
			def.Type = c.typ
			b := NewBody(def)
			for _, s := range c.shapes {
				if _, err := b.CreateFixture(s, c.density, nil); err != nil {
					t.Fatal(err)
				}
			}
			if !near(b.Mass(), c.mass, 1e-9) {
				t.Fatalf("mass = %v, want %v", b.Mass(), c.mass)
			}
			if !near(b.Inertia(), c.inertia, 1e-9) {
				t.Fatalf("inertia = %v, want %v", b.Inertia(), c.inertia)
			}
			if c.typ != Dynamic && (b.InvMass() != 0 || b.InvInertia() != 0) {
				t.Fatalf("non-dynamic body has inverse mass %v, inertia %v", b.InvMass(), b.InvInertia())
			}
			if c.typ == Dynamic && !near(b.InvMass()*b.Mass(), 1, 1e-12) {
				t.Fatalf("inverse mass %v does not match mass %v", b.InvMass(), b.Mass())
			}
		})
	}
}

func TestMassFollowsFixtures(t *testing.T) {
	w := NewWorld(geom.Vec2{})
	b := addDynamic(t, w, geom.Vec2{}, collision.NewBox(0.5, 0.5))
	f2, err := b.CreateFixture(collision.NewOrientedBox(0.5, 0.5, geom.V(1, 0), 0), 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !near(b.Mass(), 2, 1e-9) || !near(b.LocalCenter().X, 0.5, 1e-9) {
		t.Fatalf("mass %v center %v", b.Mass(), b.LocalCenter())
	}

	if err := b.DestroyFixture(f2); err != nil {
		t.Fatal(err)
	}
	if !near(b.Mass(), 1, 1e-9) || !near(b.LocalCenter().X, 0, 1e-9) {
		t.Fatalf("after destroy: mass %v center %v", b.Mass(), b.LocalCenter())
	}

	b.Fixtures()[0].SetDensity(4)
	b.ResetMassData()
	if !near(b.Mass(), 4, 1e-9) {
		t.Fatalf("after density change: mass %v", b.Mass())
	}

	other := addDynamic(t, w, geom.V(5, 0), collision.NewCircle(1))
	if err := b.DestroyFixture(other.Fixtures()[0]); !errors.Is(err, ErrFixtureNotOwned) {
		t.Fatalf("destroy foreign fixture: err = %v", err)
	}
}

func TestStaticBodyIsImmutable(t *testing.T) {
	w := NewWorld(geom.V(0, -10))
	g := addGround(t, w)
	addDynamic(t, w, geom.V(0, 3), collision.NewBox(0.5, 0.5))
	start := g.Transform()

	g.ApplyForceToCenter(geom.V(100, 100))
	g.ApplyLinearImpulseToCenter(geom.V(100, 100))
	g.SetLinearVelocity(geom.V(3, 3))
	g.SetAngularVelocity(2)
	step(w, 120)

	if g.Transform() != start {
		t.Fatalf("static body moved: %v -> %v", start, g.Transform())
	}
	if g.LinearVelocity() != (geom.Vec2{}) || g.AngularVelocity() != 0 {
		t.Fatalf("static body has velocity %v, %v", g.LinearVelocity(), g.AngularVelocity())
	}
	if g.IsAwake() {
		t.Fatal("static body is awake")
	}
}

func TestSleepAndWake(t *testing.T) {
	w := NewWorld(geom.V(0, -10))
	addGround(t, w)
	box := addDynamic(t, w, geom.V(0, 0.5), collision.NewBox(0.5, 0.5))

	step(w, 300)
	if box.IsAwake() {
		t.Fatalf("box still awake after 5s: v=%v w=%v", box.LinearVelocity(), box.AngularVelocity())
	}
	if box.LinearVelocity() != (geom.Vec2{}) {
		t.Fatalf("sleeping box has velocity %v", box.LinearVelocity())
	}
	if box.Position().Y < 0.4 || box.Position().Y > 0.6 {
		t.Fatalf("box rests at %v", box.Position())
	}

	box.ApplyLinearImpulseToCenter(geom.V(0, 5))
	if !box.IsAwake() {
		t.Fatal("impulse did not wake the box")
	}
	y := box.Position().Y
	step(w, 5)
	if box.Position().Y <= y {
		t.Fatalf("woken box did not move: %v -> %v", y, box.Position().Y)
	}

	t.Run("sleep_disallowed", func(t *testing.T) {
		box.SetSleepingAllowed(false)
		step(w, 400)
		if !box.IsAwake() {
			t.Fatal("box slept although sleeping is not allowed")
		}
	})
}

func TestContactLifecycle(t *testing.T) {
	var cc contactCounter
	w := NewWorld(geom.V(0, -10), WithContactListener(cc.listener()))
	addGround(t, w)
	ball := addDynamic(t, w, geom.V(0, 0.49), collision.NewCircle(0.5))

	step(w, 1)
	if cc.begin != 1 || cc.end != 0 {
		t.Fatalf("after first step: begin %d end %d", cc.begin, cc.end)
	}
	if w.ContactCount() != 1 || !w.Contacts()[0].IsTouching() {
		t.Fatalf("contacts = %d", w.ContactCount())
	}
	if cc.pre == 0 || cc.post == 0 {
		t.Fatalf("pre %d post %d", cc.pre, cc.post)
	}

	step(w, 30)
	if cc.begin != 1 || cc.end != 0 {
		t.Fatalf("resting ball: begin %d end %d", cc.begin, cc.end)
	}

	if err := w.RemoveBody(ball); err != nil {
		t.Fatal(err)
	}
	if cc.end != 1 {
		t.Fatalf("end notifications = %d, want 1", cc.end)
	}
	if w.ContactCount() != 0 || len(ball.Contacts()) != 0 {
		t.Fatalf("contacts left: world %d body %d", w.ContactCount(), len(ball.Contacts()))
	}
	step(w, 10)
	if cc.end != 1 {
		t.Fatalf("end notifications = %d after further steps", cc.end)
	}
}

func TestContactEndsOnSeparation(t *testing.T) {
	var cc contactCounter
	w := NewWorld(geom.V(0, -10), WithContactListener(cc.listener()))
	addGround(t, w)
	ball := addDynamic(t, w, geom.V(0, 0.49), collision.NewCircle(0.5))
	step(w, 10)

	ball.SetTransform(geom.V(0, 20), 0)
	step(w, 1)
	if cc.begin != 1 || cc.end != 1 {
		t.Fatalf("begin %d end %d", cc.begin, cc.end)
	}
	if w.ContactCount() != 0 {
		t.Fatalf("contact survived separation: %d", w.ContactCount())
	}
}

func TestFixtureCallbacks(t *testing.T) {
	w := NewWorld(geom.V(0, -10))
	addGround(t, w)
	ball := addDynamic(t, w, geom.V(0, 0.49), collision.NewCircle(0.5))
	f := ball.Fixtures()[0]

	var collided, separated int
	f.OnCollision = func(self, other *Fixture, c *Contact) bool {
		collided++
		return true
	}
	f.OnSeparation = func(self, other *Fixture, c *Contact) { separated++ }

	step(w, 5)
	ball.SetTransform(geom.V(0, 20), 0)
	step(w, 1)
	if collided != 1 || separated != 1 {
		t.Fatalf("collided %d separated %d", collided, separated)
	}

	t.Run("before_collision_veto", func(t *testing.T) {
		w := NewWorld(geom.V(0, -10))
		addGround(t, w)
		ball := addDynamic(t, w, geom.V(0, 0.49), collision.NewCircle(0.5))
		ball.Fixtures()[0].BeforeCollision = func(self, other *Fixture) bool { return false }
		step(w, 30)
		if w.ContactCount() != 0 {
			t.Fatalf("vetoed pair has %d contacts", w.ContactCount())
		}
		if ball.Position().Y > 0 {
			t.Fatalf("ball should fall through, at %v", ball.Position())
		}
	})
}

func TestFilterSymmetry(t *testing.T) {
	cases := []struct {
		name    string
		a, b    Filter
		collide bool
	}{
		{"default", DefaultFilter(), DefaultFilter(), true},
		{"same_positive_group", Filter{Category: 1, Mask: 0, Group: 3}, Filter{Category: 2, Mask: 0, Group: 3}, true},
		{"same_negative_group", Filter{Category: 1, Mask: 0xFFFFFFFF, Group: -2}, Filter{Category: 1, Mask: 0xFFFFFFFF, Group: -2}, false},
		{"different_groups_use_bits", Filter{Category: 1, Mask: 2, Group: -1}, Filter{Category: 2, Mask: 1, Group: -2}, true},
		{"one_way_mask", Filter{Category: 1, Mask: 2}, Filter{Category: 2, Mask: 2}, false},
		{"disjoint", Filter{Category: 1, Mask: 1}, Filter{Category: 2, Mask: 2}, false},
	}
	for _, c := range cases {
		for _, swap := range []bool{false, true} {
			name := c.name
			if swap {
				name += "_swapped"
			}
			t.Run(name, func(t *testing.T) {
				w := NewWorld(geom.Vec2{})
				fa, fb := c.a, c.b
				if swap {
					fa, fb = fb, fa
				}
				for _, filter := range []Filter{fa, fb} {
					def := DefaultBodyDef()
					def.Type = Dynamic
					b := w.CreateBody(def)
					fd := NewFixtureDef(collision.NewBox(0.5, 0.5), 1)
					fd.Filter = filter
					if _, err := b.CreateFixtureDef(fd); err != nil {
						t.Fatal(err)
					}
				}
				step(w, 1)
				if got := w.ContactCount() == 1; got != c.collide {
					t.Fatalf("collide = %v, want %v", got, c.collide)
				}
			})
		}
	}
}

func TestIgnoreAndContactFilter(t *testing.T) {
	t.Run("ignore_set", func(t *testing.T) {
		w := NewWorld(geom.Vec2{})
		a := addDynamic(t, w, geom.Vec2{}, collision.NewBox(0.5, 0.5))
		b := addDynamic(t, w, geom.V(0.2, 0), collision.NewBox(0.5, 0.5))
		fa, fb := a.Fixtures()[0], b.Fixtures()[0]

		step(w, 1)
		if w.ContactCount() != 1 {
			t.Fatalf("contacts = %d, want 1", w.ContactCount())
		}
		fb.IgnoreCollisionWith(fa)
		if !fa.IsIgnoring(fb) {
			t.Fatal("ignore set is not symmetric")
		}
		step(w, 1)
		if w.ContactCount() != 0 {
			t.Fatalf("ignored pair still has a contact")
		}
		fa.RestoreCollisionWith(fb)
		b.SetTransform(b.Position(), 0)
		step(w, 1)
		if w.ContactCount() != 1 {
			t.Fatalf("restored pair: contacts = %d", w.ContactCount())
		}
	})

	t.Run("contact_filter", func(t *testing.T) {
		calls := 0
		w := NewWorld(geom.Vec2{}, WithContactFilter(func(a, b *Fixture) bool {
			calls++
			return false
		}))
		addDynamic(t, w, geom.Vec2{}, collision.NewBox(0.5, 0.5))
		addDynamic(t, w, geom.V(0.2, 0), collision.NewBox(0.5, 0.5))
		step(w, 1)
		if calls == 0 || w.ContactCount() != 0 {
			t.Fatalf("calls %d contacts %d", calls, w.ContactCount())
		}
	})

	t.Run("joint_disables_collision", func(t *testing.T) {
		w := NewWorld(geom.Vec2{})
		a := addDynamic(t, w, geom.Vec2{}, collision.NewBox(0.5, 0.5))
		b := addDynamic(t, w, geom.V(0.2, 0), collision.NewBox(0.5, 0.5))
		step(w, 1)
		j, err := NewRevoluteJoint(a, b, geom.V(0.1, 0))
		if err != nil {
			t.Fatal(err)
		}
		if err := w.AddJoint(j); err != nil {
			t.Fatal(err)
		}
		step(w, 1)
		if w.ContactCount() != 0 {
			t.Fatalf("jointed bodies still collide: %d contacts", w.ContactCount())
		}
	})
}

type funcController struct {
	ControllerBase
	fn func(dt float64)
}

func (c *funcController) Update(dt float64) { c.fn(dt) }

func TestDeferredChanges(t *testing.T) {
	var added, removed int
	w := NewWorld(geom.V(0, -10), WithListener(Listener{
		BodyAdded:   func(*Body) { added++ },
		BodyRemoved: func(*Body) { removed++ },
	}))
	victim := addDynamic(t, w, geom.V(5, 5), collision.NewCircle(0.5))

	var spawned *Body
	var lockedErr error
	ctrl := &funcController{}
	ctrl.fn = func(float64) {
		if spawned != nil {
			return
		}
		if !w.Locked() {
			t.Error("controller runs outside the step")
		}
		def := DefaultBodyDef()
		def.Type = Dynamic
		spawned = w.CreateBody(def)
		if err := w.RemoveBody(victim); err != nil {
			t.Error(err)
		}
		_, lockedErr = victim.CreateFixture(collision.NewCircle(1), 1, nil)
	}
	if err := w.AddController(ctrl); err != nil {
		t.Fatal(err)
	}

	step(w, 1)
	if !errors.Is(lockedErr, ErrWorldLocked) {
		t.Fatalf("CreateFixture while locked: err = %v", lockedErr)
	}
	if w.BodyCount() != 1 || added != 1 || removed != 0 {
		t.Fatalf("changes applied during the step: count %d added %d removed %d", w.BodyCount(), added, removed)
	}
	if !spawned.InWorld() || victim.InWorld() {
		t.Fatal("membership should reflect the queued changes")
	}

	step(w, 1)
	if w.BodyCount() != 1 || added != 2 || removed != 1 {
		t.Fatalf("after flush: count %d added %d removed %d", w.BodyCount(), added, removed)
	}
	if w.Bodies()[0] != spawned || victim.World() != nil {
		t.Fatal("wrong body set after flush")
	}
}

func TestStructuralErrors(t *testing.T) {
	w := NewWorld(geom.Vec2{})
	b := addDynamic(t, w, geom.Vec2{}, collision.NewCircle(1))

	if err := w.AddBody(b); !errors.Is(err, ErrBodyExists) {
		t.Fatalf("double add: %v", err)
	}
	other := NewWorld(geom.Vec2{})
	if err := other.RemoveBody(b); !errors.Is(err, ErrBodyNotFound) {
		t.Fatalf("remove from other world: %v", err)
	}
	if err := w.RemoveBody(b); err != nil {
		t.Fatal(err)
	}
	if err := w.RemoveBody(b); !errors.Is(err, ErrBodyNotFound) {
		t.Fatalf("double remove: %v", err)
	}

	// removed bodies can come back
	if err := w.AddBody(b); err != nil {
		t.Fatal(err)
	}
	j, err := NewDistanceJoint(nil, b, geom.V(0, 5), geom.Vec2{})
	if err != nil {
		t.Fatal(err)
	}
	if err := w.AddJoint(j); err != nil {
		t.Fatal(err)
	}
	if err := w.AddJoint(j); !errors.Is(err, ErrJointExists) {
		t.Fatalf("double joint add: %v", err)
	}
	if j.BodyA() != w.Ground() {
		t.Fatal("nil body was not replaced by the ground")
	}

	if err := w.RemoveBody(b); err != nil {
		t.Fatal(err)
	}
	if w.JointCount() != 0 {
		t.Fatalf("joint survived its body: %d", w.JointCount())
	}
	if err := w.RemoveJoint(j); !errors.Is(err, ErrJointNotFound) {
		t.Fatalf("remove cascaded joint: %v", err)
	}
}

func TestSetTypeAndEnabled(t *testing.T) {
	w := NewWorld(geom.V(0, -10))
	addGround(t, w)
	box := addDynamic(t, w, geom.V(0, 0.5), collision.NewBox(0.5, 0.5))
	step(w, 2)
	if w.ContactCount() != 1 {
		t.Fatalf("contacts = %d", w.ContactCount())
	}

	box.SetEnabled(false)
	if w.ContactCount() != 0 || w.Stats().Proxies != 1 {
		t.Fatalf("disabled body: contacts %d proxies %d", w.ContactCount(), w.Stats().Proxies)
	}
	box.SetTransform(geom.V(0, 0.5), 0)
	step(w, 30)
	if box.Position() != geom.V(0, 0.5) {
		t.Fatalf("disabled body moved to %v", box.Position())
	}

	box.SetEnabled(true)
	step(w, 1)
	if w.ContactCount() != 1 {
		t.Fatalf("re-enabled body: contacts = %d", w.ContactCount())
	}

	box.SetType(Static)
	if box.InvMass() != 0 || w.ContactCount() != 0 {
		t.Fatalf("static box: invMass %v contacts %d", box.InvMass(), w.ContactCount())
	}
	step(w, 1)
	if w.ContactCount() != 0 {
		t.Fatal("two static bodies got a contact")
	}
}

func TestShiftOrigin(t *testing.T) {
	w := NewWorld(geom.Vec2{})
	b := addDynamic(t, w, geom.V(10, 10), collision.NewCircle(1))
	j, err := NewPulleyJoint(nil, b, geom.V(0, 20), geom.V(10, 20), geom.V(0, 10), geom.V(10, 10), 1)
	if err != nil {
		t.Fatal(err)
	}
	// bodyA is ground, so the pulley has two distinct bodies
	if err := w.AddJoint(j); err != nil {
		t.Fatal(err)
	}

	if err := w.ShiftOrigin(geom.V(10, 10)); err != nil {
		t.Fatal(err)
	}
	if b.Position() != (geom.Vec2{}) {
		t.Fatalf("body at %v", b.Position())
	}
	if j.GroundAnchorB() != geom.V(0, 10) {
		t.Fatalf("ground anchor at %v", j.GroundAnchorB())
	}
	if f := w.TestPoint(geom.V(0.5, 0)); f == nil || f.Body() != b {
		t.Fatal("broad-phase was not shifted")
	}
}

func TestSetMassDataInertiaAboutOrigin(t *testing.T) {
	w := NewWorld(geom.Vec2{})
	b := addDynamic(t, w, geom.V(2, 0), collision.NewBox(0.5, 0.5))
	// a 1x1 box of mass 2 centred at (1, 0): 1/3 about its center, 7/3 about the origin
	b.SetMassData(collision.MassData{Mass: 2, Center: geom.V(1, 0), I: 7.0 / 3})
	if !near(b.Inertia(), 1.0/3, 1e-12) {
		t.Fatalf("inertia = %v, want 1/3", b.Inertia())
	}
	if b.LocalCenter() != geom.V(1, 0) || b.WorldCenter().Distance(geom.V(3, 0)) > 1e-12 {
		t.Fatalf("center local %v world %v", b.LocalCenter(), b.WorldCenter())
	}
}

func TestSetFixedRotationWhileLocked(t *testing.T) {
	w := NewWorld(geom.V(0, -10))
	box := addDynamic(t, w, geom.V(0, 5), collision.NewBox(0.5, 0.5))
	var recovered any
	ctrl := &funcController{}
	ctrl.fn = func(float64) {
		defer func() { recovered = recover() }()
		box.SetFixedRotation(true)
	}
	if err := w.AddController(ctrl); err != nil {
		t.Fatal(err)
	}
	w.Step(testDt)
	if recovered == nil {
		t.Fatal("SetFixedRotation ran inside Step")
	}
	if box.IsFixedRotation() {
		t.Fatal("rotation locked mid-step")
	}
	if err := w.RemoveController(ctrl); err != nil {
		t.Fatal(err)
	}
	box.SetFixedRotation(true)
	if !box.IsFixedRotation() || box.InvInertia() != 0 {
		t.Fatal("SetFixedRotation outside Step had no effect")
	}
}

func TestControllerKeepsDisabledState(t *testing.T) {
	w := NewWorld(geom.Vec2{})
	calls := 0
	ctrl := &funcController{fn: func(float64) { calls++ }}
	ctrl.SetEnabled(false)
	if err := w.AddController(ctrl); err != nil {
		t.Fatal(err)
	}
	step(w, 3)
	if ctrl.Enabled() || calls != 0 {
		t.Fatalf("disabled controller ran %d times", calls)
	}
	ctrl.SetEnabled(true)
	step(w, 3)
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestJointQueriesBeforeAdd(t *testing.T) {
	w := NewWorld(geom.Vec2{})
	def := DefaultBodyDef()
	def.Type = Dynamic
	def.Position = geom.V(0, 2)
	b := w.CreateBody(def)
	if _, err := b.CreateFixture(collision.NewBox(0.5, 0.5), 1, nil); err != nil {
		t.Fatal(err)
	}

	rev, err := NewRevoluteJoint(nil, b, geom.V(0, 3))
	if err != nil {
		t.Fatal(err)
	}
	b.SetTransform(b.Position(), 0.25)
	b.SetAngularVelocity(2)
	if !near(rev.JointAngle(), 0.25, 1e-12) || rev.JointSpeed() != 2 {
		t.Fatalf("revolute angle %v speed %v", rev.JointAngle(), rev.JointSpeed())
	}

	pri, err := NewPrismaticJoint(nil, b, b.Position(), geom.V(0, 1))
	if err != nil {
		t.Fatal(err)
	}
	if !near(pri.JointTranslation(), 0, 1e-12) {
		t.Fatalf("prismatic translation = %v", pri.JointTranslation())
	}
	wheel, err := NewWheelJoint(nil, b, b.Position(), geom.V(0, 1))
	if err != nil {
		t.Fatal(err)
	}
	if !near(wheel.JointTranslation(), 0, 1e-12) || wheel.JointSpeed() != 2 {
		t.Fatalf("wheel translation %v speed %v", wheel.JointTranslation(), wheel.JointSpeed())
	}
	motor, err := NewMotorJoint(nil, b)
	if err != nil {
		t.Fatal(err)
	}
	if motor.AnchorA() != (geom.Vec2{}) || motor.AnchorB() != b.Position() {
		t.Fatalf("motor anchors %v %v", motor.AnchorA(), motor.AnchorB())
	}
}
