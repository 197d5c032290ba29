package dynamics

import (
	"errors"
	"math"
	"testing"

	"github.com/koteyur/physac2d/collision"
	"github.com/koteyur/physac2d/geom"
)

func mustAdd(t *testing.T, w *World, j Joint, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
	if err := w.AddJoint(j); err != nil {
		t.Fatal(err)
	}
}

func finite(b *Body) bool {
	return b.Position().IsValid() && geom.IsValid(b.Angle()) &&
		b.LinearVelocity().IsValid() && geom.IsValid(b.AngularVelocity())
}

func TestJointFactoryErrors(t *testing.T) {
	w := NewWorld(geom.Vec2{})
	a := addDynamic(t, w, geom.Vec2{}, collision.NewCircle(0.5))
	b := addDynamic(t, w, geom.V(2, 0), collision.NewCircle(0.5))
	dj, _ := NewDistanceJoint(a, b, a.Position(), b.Position())

	cases := []struct {
		name string
		fn   func() error
		want error
	}{
		{"revolute_same_body", func() error { _, err := NewRevoluteJoint(a, a, geom.Vec2{}); return err }, ErrSameBody},
		{"weld_both_ground", func() error { _, err := NewWeldJoint(nil, nil, geom.Vec2{}); return err }, ErrSameBody},
		{"distance_zero_length", func() error { _, err := NewDistanceJoint(a, b, geom.V(1, 0), geom.V(1, 0)); return err }, ErrInvalidJoint},
		{"pulley_zero_ratio", func() error {
			_, err := NewPulleyJoint(a, b, geom.V(0, 5), geom.V(2, 5), a.Position(), b.Position(), 0)
			return err
		}, ErrInvalidJoint},
		{"pulley_negative_ratio", func() error {
			_, err := NewPulleyJoint(a, b, geom.V(0, 5), geom.V(2, 5), a.Position(), b.Position(), -1)
			return err
		}, ErrInvalidJoint},
		{"gear_over_distance", func() error { _, err := NewGearJoint(dj, dj, 1); return err }, ErrInvalidJoint},
		{"gear_nil", func() error { _, err := NewGearJoint(nil, dj, 1); return err }, ErrInvalidJoint},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if err := c.fn(); !errors.Is(err, c.want) {
				t.Fatalf("err = %v, want %v", err, c.want)
			}
		})
	}
}

func TestDistanceJointConvergence(t *testing.T) {
	w := NewWorld(geom.V(0, -10))
	bob := addDynamic(t, w, geom.V(3, 5), collision.NewCircle(0.25))
	bob.SetLinearVelocity(geom.V(0, 4))
	j, err := NewDistanceJoint(nil, bob, geom.V(0, 5), bob.Position())
	mustAdd(t, w, j, err)
	if !near(j.Length(), 3, 1e-12) {
		t.Fatalf("rest length = %v", j.Length())
	}

	for i := 0; i < 300; i++ {
		w.Step(testDt)
		d := j.AnchorA().Distance(j.AnchorB())
		if math.Abs(d-3) > 0.05 {
			t.Fatalf("step %d: distance %v drifted from 3", i, d)
		}
	}
	if d := j.AnchorA().Distance(j.AnchorB()); math.Abs(d-3) > 0.01 {
		t.Fatalf("final distance %v", d)
	}
}

func TestBreakpoint(t *testing.T) {
	var broken []Joint
	w := NewWorld(geom.V(0, -10), WithListener(Listener{
		JointBroken: func(j Joint, force float64) { broken = append(broken, j) },
	}))
	b := addDynamic(t, w, geom.V(0, 4), collision.NewBox(0.5, 0.5))
	j, err := NewRevoluteJoint(nil, b, geom.V(0, 5))
	mustAdd(t, w, j, err)
	j.SetBreakpoint(1)

	step(w, 60)
	if len(broken) != 1 || broken[0] != Joint(j) {
		t.Fatalf("broken notifications = %d, want 1", len(broken))
	}
	if j.Enabled() {
		t.Fatal("broken joint is still enabled")
	}
	if w.JointCount() != 1 {
		t.Fatal("broken joint should stay in the world")
	}
	if b.Position().Y > 0 {
		t.Fatalf("body did not fall after the break: %v", b.Position())
	}

	t.Run("strong_joint_holds", func(t *testing.T) {
		w := NewWorld(geom.V(0, -10))
		b := addDynamic(t, w, geom.V(0, 4), collision.NewBox(0.5, 0.5))
		j, err := NewRevoluteJoint(nil, b, geom.V(0, 5))
		mustAdd(t, w, j, err)
		j.SetBreakpoint(1000)
		step(w, 60)
		if !j.Enabled() || b.Position().Y < 3.9 {
			t.Fatalf("joint broke under its own weight: enabled %v pos %v", j.Enabled(), b.Position())
		}
	})
}

// TestJointsSettle runs one small scene per joint kind and checks that the
// constraint holds and nothing blows up.
func TestJointsSettle(t *testing.T) {
	cases := []struct {
		name    string
		gravity geom.Vec2
		steps   int
		build   func(t *testing.T, w *World) func() error
	}{
		{"revolute", geom.V(0, -10), 120, func(t *testing.T, w *World) func() error {
			b := addDynamic(t, w, geom.V(2, 5), collision.NewBox(0.5, 0.1))
			j, err := NewRevoluteJoint(nil, b, geom.V(0, 5))
			mustAdd(t, w, j, err)
			return func() error {
				if d := j.AnchorA().Distance(j.AnchorB()); d > 0.01 {
					return errors.New("anchors separated")
				}
				return nil
			}
		}},
		{"revolute_limit", geom.V(0, -10), 120, func(t *testing.T, w *World) func() error {
			b := addDynamic(t, w, geom.V(2, 5), collision.NewBox(1, 0.1))
			j, err := NewRevoluteJoint(nil, b, geom.V(1, 5))
			mustAdd(t, w, j, err)
			j.SetLimits(-0.25, 0.25)
			j.EnableLimit(true)
			return func() error {
				if a := j.JointAngle(); a < -0.25-0.05 || a > 0.25+0.05 {
					return errors.New("angle outside limits")
				}
				return nil
			}
		}},
		{"revolute_motor", geom.Vec2{}, 120, func(t *testing.T, w *World) func() error {
			b := addDynamic(t, w, geom.V(0, 0), collision.NewCircle(0.5))
			j, err := NewRevoluteJoint(nil, b, geom.Vec2{})
			mustAdd(t, w, j, err)
			j.SetMaxMotorTorque(100)
			j.SetMotorSpeed(2)
			j.EnableMotor(true)
			return func() error {
				if !near(b.AngularVelocity(), 2, 0.01) {
					return errors.New("motor speed not reached")
				}
				return nil
			}
		}},
		{"prismatic", geom.V(0, -10), 60, func(t *testing.T, w *World) func() error {
			b := addDynamic(t, w, geom.V(0, 1), collision.NewBox(0.5, 0.5))
			b.SetLinearVelocity(geom.V(3, 0))
			j, err := NewPrismaticJoint(nil, b, b.Position(), geom.V(1, 0))
			mustAdd(t, w, j, err)
			return func() error {
				if !near(b.Position().Y, 1, 0.01) || b.Position().X < 1 {
					return errors.New("body left the axis")
				}
				if !near(b.Angle(), 0, 0.01) {
					return errors.New("body rotated")
				}
				return nil
			}
		}},
		{"weld", geom.V(0, -10), 120, func(t *testing.T, w *World) func() error {
			b := addDynamic(t, w, geom.V(0, 3), collision.NewBox(0.5, 0.5))
			j, err := NewWeldJoint(nil, b, b.Position())
			mustAdd(t, w, j, err)
			return func() error {
				if b.Position().Distance(geom.V(0, 3)) > 0.02 || math.Abs(b.Angle()) > 0.01 {
					return errors.New("welded body moved")
				}
				return nil
			}
		}},
		{"wheel", geom.V(0, -10), 240, func(t *testing.T, w *World) func() error {
			b := addDynamic(t, w, geom.V(0, 2), collision.NewCircle(0.5))
			j, err := NewWheelJoint(nil, b, b.Position(), geom.V(0, 1))
			mustAdd(t, w, j, err)
			return func() error {
				if !near(b.Position().X, 0, 0.01) {
					return errors.New("wheel left the suspension axis")
				}
				if b.Position().Y >= 2 {
					return errors.New("spring did not sag under gravity")
				}
				return nil
			}
		}},
		{"pulley", geom.V(0, -10), 60, func(t *testing.T, w *World) func() error {
			a := addDynamic(t, w, geom.V(-2, 0), collision.NewBox(0.5, 0.5))
			b := addDynamic(t, w, geom.V(2, 0), collision.NewBox(0.25, 0.25))
			j, err := NewPulleyJoint(a, b, geom.V(-2, 5), geom.V(2, 5), a.Position(), b.Position(), 1)
			mustAdd(t, w, j, err)
			return func() error {
				if total := j.CurrentLengthA() + j.CurrentLengthB(); !near(total, 10, 0.05) {
					return errors.New("rope length changed")
				}
				if a.Position().Y >= 0 {
					return errors.New("heavier side did not descend")
				}
				return nil
			}
		}},
		{"rope", geom.V(0, -10), 120, func(t *testing.T, w *World) func() error {
			b := addDynamic(t, w, geom.V(1, 5), collision.NewCircle(0.25))
			j, err := NewRopeJoint(nil, b, geom.V(0, 5), b.Position(), 2)
			mustAdd(t, w, j, err)
			return func() error {
				if d := j.AnchorA().Distance(j.AnchorB()); d > 2.05 {
					return errors.New("rope stretched")
				}
				return nil
			}
		}},
		{"friction", geom.Vec2{}, 120, func(t *testing.T, w *World) func() error {
			b := addDynamic(t, w, geom.Vec2{}, collision.NewBox(0.5, 0.5))
			b.SetLinearVelocity(geom.V(3, 0))
			b.SetAngularVelocity(3)
			j, err := NewFrictionJoint(nil, b, b.Position())
			mustAdd(t, w, j, err)
			j.SetMaxForce(10)
			j.SetMaxTorque(10)
			return func() error {
				if b.LinearVelocity().Len() > 0.01 || math.Abs(b.AngularVelocity()) > 0.01 {
					return errors.New("friction did not stop the body")
				}
				return nil
			}
		}},
		{"motor", geom.Vec2{}, 180, func(t *testing.T, w *World) func() error {
			b := addDynamic(t, w, geom.Vec2{}, collision.NewBox(0.5, 0.5))
			j, err := NewMotorJoint(nil, b)
			mustAdd(t, w, j, err)
			j.SetMaxForce(50)
			j.SetMaxTorque(50)
			j.SetLinearOffset(geom.V(2, 1))
			j.SetAngularOffset(0.5)
			return func() error {
				if b.Position().Distance(geom.V(2, 1)) > 0.02 || !near(b.Angle(), 0.5, 0.02) {
					return errors.New("motor did not reach the offset")
				}
				return nil
			}
		}},
		{"angle", geom.Vec2{}, 120, func(t *testing.T, w *World) func() error {
			b := addDynamic(t, w, geom.Vec2{}, collision.NewBox(0.5, 0.5))
			b.SetAngularVelocity(5)
			j, err := NewAngleJoint(nil, b)
			mustAdd(t, w, j, err)
			return func() error {
				if !near(b.Angle(), 0, 0.02) {
					return errors.New("angle not restored")
				}
				return nil
			}
		}},
		{"gear", geom.Vec2{}, 60, func(t *testing.T, w *World) func() error {
			a := addDynamic(t, w, geom.V(-1, 0), collision.NewCircle(0.5))
			b := addDynamic(t, w, geom.V(1, 0), collision.NewCircle(0.5))
			ja, err := NewRevoluteJoint(nil, a, a.Position())
			mustAdd(t, w, ja, err)
			jb, err := NewRevoluteJoint(nil, b, b.Position())
			mustAdd(t, w, jb, err)
			g, err := NewGearJoint(ja, jb, 1)
			mustAdd(t, w, g, err)
			a.SetAngularVelocity(2)
			return func() error {
				if math.Abs(a.Angle()) < 0.1 {
					return errors.New("gear did not turn")
				}
				if !near(a.Angle()+b.Angle(), 0, 0.01) {
					return errors.New("gear ratio violated")
				}
				return nil
			}
		}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := NewWorld(c.gravity)
			check := c.build(t, w)
			step(w, c.steps)
			for _, b := range w.Bodies() {
				if !finite(b) {
					t.Fatalf("body %d diverged: %v", b.ID(), b.Transform())
				}
			}
			if err := check(); err != nil {
				t.Fatal(err)
			}
		})
	}
}

func TestJointRemoval(t *testing.T) {
	var removed int
	w := NewWorld(geom.V(0, -10), WithListener(Listener{JointRemoved: func(Joint) { removed++ }}))
	b := addDynamic(t, w, geom.V(2, 5), collision.NewCircle(0.25))
	j, err := NewRevoluteJoint(nil, b, geom.V(0, 5))
	mustAdd(t, w, j, err)
	step(w, 10)

	if err := w.RemoveJoint(j); err != nil {
		t.Fatal(err)
	}
	if removed != 1 || w.JointCount() != 0 || len(b.Joints()) != 0 {
		t.Fatalf("removed %d joints %d edges %d", removed, w.JointCount(), len(b.Joints()))
	}
	y := b.Position().Y
	step(w, 30)
	if b.Position().Y >= y {
		t.Fatal("body still held after joint removal")
	}
}

func TestGearRemovedWithSourceJoint(t *testing.T) {
	w := NewWorld(geom.Vec2{})
	a := addDynamic(t, w, geom.V(-1, 0), collision.NewCircle(0.5))
	b := addDynamic(t, w, geom.V(1, 0), collision.NewCircle(0.5))
	ja, err := NewRevoluteJoint(nil, a, a.Position())
	mustAdd(t, w, ja, err)
	jb, err := NewRevoluteJoint(nil, b, b.Position())
	mustAdd(t, w, jb, err)
	g, err := NewGearJoint(ja, jb, 1)
	mustAdd(t, w, g, err)

	if err := w.RemoveJoint(ja); err != nil {
		t.Fatal(err)
	}
	if w.JointCount() != 1 || w.Joints()[0] != Joint(jb) {
		t.Fatalf("joints left: %d", w.JointCount())
	}
	if !errors.Is(w.RemoveJoint(g), ErrJointNotFound) {
		t.Fatal("gear still registered")
	}
	// the remaining joint keeps working
	step(w, 10)
}

func TestRopeSpring(t *testing.T) {
	cases := []struct {
		name       string
		hz         float64
		minStretch float64
		maxStretch float64
	}{
		{"rigid", 0, -0.02, 0.02},
		// a 1 Hz rope settles g/omega^2 past its length
		{"compliant", 1, 0.2, 0.3},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := NewWorld(geom.V(0, -10))
			b := addDynamic(t, w, geom.V(0, 3), collision.NewCircle(0.25))
			j, err := NewRopeJoint(nil, b, geom.V(0, 5), b.Position(), 2)
			if err != nil {
				t.Fatal(err)
			}
			j.SetFrequency(c.hz)
			j.SetDampingRatio(0.5)
			mustAdd(t, w, j, nil)

			step(w, 180)
			stretch := j.AnchorA().Distance(j.AnchorB()) - j.MaxLength()
			if stretch < c.minStretch || stretch > c.maxStretch {
				t.Fatalf("stretch = %v, want [%v, %v]", stretch, c.minStretch, c.maxStretch)
			}
			if j.LimitState() != LimitAtUpper && c.hz > 0 {
				t.Fatal("loaded rope is not taut")
			}
		})
	}
}

func TestRopeSetMaxLengthRejectsInvalid(t *testing.T) {
	w := NewWorld(geom.Vec2{})
	b := addDynamic(t, w, geom.V(1, 0), collision.NewCircle(0.25))
	j, err := NewRopeJoint(nil, b, geom.Vec2{}, b.Position(), 2)
	if err != nil {
		t.Fatal(err)
	}
	for _, l := range []float64{-1, 0, math.NaN(), math.Inf(1)} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("SetMaxLength(%v) did not panic", l)
				}
			}()
			j.SetMaxLength(l)
		}()
	}
	if j.MaxLength() != 2 {
		t.Fatalf("max length = %v after rejected updates", j.MaxLength())
	}
	j.SetMaxLength(3)
	if j.MaxLength() != 3 {
		t.Fatalf("max length = %v, want 3", j.MaxLength())
	}
	if _, err := NewRopeJoint(nil, b, geom.Vec2{}, b.Position(), math.Inf(1)); !errors.Is(err, ErrInvalidJoint) {
		t.Fatalf("err = %v", err)
	}
}
