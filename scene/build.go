package scene

import (
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/koteyur/physac2d/collision"
	"github.com/koteyur/physac2d/controllers"
	"github.com/koteyur/physac2d/dynamics"
	"github.com/koteyur/physac2d/geom"
	"github.com/koteyur/physac2d/script"
)

var errUnknownShape = errors.New("unknown shape")

// Built maps scene names onto the objects created for them.
type Built struct {
	Bodies      map[string]*dynamics.Body
	Joints      map[string]dynamics.Joint
	Controllers []dynamics.Controller
}

func parseBodyType(s string) (dynamics.BodyType, error) {
	switch s {
	case "", "static":
		return dynamics.Static, nil
	case "kinematic":
		return dynamics.Kinematic, nil
	case "dynamic":
		return dynamics.Dynamic, nil
	}
	return 0, fmt.Errorf("unknown body type %q", s)
}

func (f FixtureSpec) shape() (collision.Shape, error) {
	switch f.Shape {
	case "box":
		if f.HalfWidth <= 0 || f.HalfHeight <= 0 {
			return nil, fmt.Errorf("box needs positive half_width and half_height")
		}
		if f.Offset == (Vec{}) && f.Angle == 0 {
			return collision.NewBox(f.HalfWidth, f.HalfHeight), nil
		}
		return collision.NewOrientedBox(f.HalfWidth, f.HalfHeight, f.Offset.V(), f.Angle), nil
	case "circle":
		if f.Radius <= 0 {
			return nil, fmt.Errorf("circle needs a positive radius")
		}
		c := collision.NewCircle(f.Radius)
		c.Center = f.Offset.V()
		return c, nil
	case "regular":
		if f.Radius <= 0 || f.Sides < 3 || f.Sides > collision.MaxPolygonVertices {
			return nil, fmt.Errorf("regular polygon needs a positive radius and 3 to %d sides", collision.MaxPolygonVertices)
		}
		return collision.NewRegularPolygon(f.Radius, f.Sides), nil
	case "polygon":
		pts := make([]geom.Vec2, len(f.Points))
		for i, p := range f.Points {
			pts[i] = p.V()
		}
		return collision.NewPolygon(pts)
	case "edge":
		if len(f.Points) != 2 {
			return nil, fmt.Errorf("edge needs exactly 2 points, got %d", len(f.Points))
		}
		return collision.NewEdge(f.Points[0].V(), f.Points[1].V()), nil
	}
	return nil, fmt.Errorf("%w %q", errUnknownShape, f.Shape)
}

func (f FixtureSpec) def() (dynamics.FixtureDef, error) {
	shape, err := f.shape()
	if err != nil {
		return dynamics.FixtureDef{}, err
	}
	def := dynamics.NewFixtureDef(shape, f.Density)
	if f.Friction != nil {
		def.Friction = *f.Friction
	}
	def.Restitution = f.Restitution
	def.IsSensor = f.Sensor
	if f.Category != 0 {
		def.Filter.Category = f.Category
	}
	if f.Mask != 0 {
		def.Filter.Mask = f.Mask
	}
	def.Filter.Group = f.Group
	return def, nil
}

// NewWorld builds the scene into a fresh world. gravity is used when the
// scene does not set its own.
func (s *Scene) NewWorld(gravity geom.Vec2, log *zap.Logger, opts ...dynamics.Option) (*dynamics.World, *Built, error) {
	opts = append([]dynamics.Option{dynamics.WithLogger(log)}, opts...)
	w := dynamics.NewWorld(s.GravityVec(gravity), opts...)
	built, err := s.Build(w, log)
	if err != nil {
		return nil, nil, err
	}
	return w, built, nil
}

// Build adds the scene's bodies, joints and controllers to w.
func (s *Scene) Build(w *dynamics.World, log *zap.Logger) (*Built, error) {
	if log == nil {
		log = zap.NewNop()
	}
	out := &Built{
		Bodies: make(map[string]*dynamics.Body, len(s.Bodies)),
		Joints: make(map[string]dynamics.Joint, len(s.Joints)),
	}

	for i, bs := range s.Bodies {
		b, err := s.buildBody(w, bs)
		if err != nil {
			return nil, fmt.Errorf("scene %s: body %d: %w", s.Name, i, err)
		}
		if bs.Name != "" {
			out.Bodies[bs.Name] = b
		}
	}

	for i, js := range s.Joints {
		j, err := buildJoint(js, out)
		if err != nil {
			return nil, fmt.Errorf("scene %s: joint %d (%s): %w", s.Name, i, js.Type, err)
		}
		if js.Breakpoint > 0 {
			j.SetBreakpoint(js.Breakpoint)
		}
		if js.CollideConnected {
			j.SetCollideConnected(true)
		}
		if err := w.AddJoint(j); err != nil {
			return nil, fmt.Errorf("scene %s: joint %d: %w", s.Name, i, err)
		}
		if js.Name != "" {
			out.Joints[js.Name] = j
		}
	}

	for i, cs := range s.Controllers {
		c, err := s.buildController(cs, log)
		if err != nil {
			return nil, fmt.Errorf("scene %s: controller %d: %w", s.Name, i, err)
		}
		if err := w.AddController(c); err != nil {
			return nil, fmt.Errorf("scene %s: controller %d: %w", s.Name, i, err)
		}
		out.Controllers = append(out.Controllers, c)
	}

	log.Debug("scene built",
		zap.String("scene", s.Name),
		zap.Int("bodies", len(s.Bodies)),
		zap.Int("joints", len(s.Joints)),
		zap.Int("controllers", len(s.Controllers)))
	return out, nil
}

func (s *Scene) buildBody(w *dynamics.World, bs BodySpec) (*dynamics.Body, error) {
	typ, err := parseBodyType(bs.Type)
	if err != nil {
		return nil, err
	}
	def := dynamics.DefaultBodyDef()
	def.Type = typ
	def.Position = bs.Position.V()
	def.Angle = bs.Angle
	def.LinearVelocity = bs.LinearVelocity.V()
	def.AngularVelocity = bs.AngularVelocity
	def.LinearDamping = bs.LinearDamping
	def.AngularDamping = bs.AngularDamping
	if bs.GravityScale != nil {
		def.GravityScale = *bs.GravityScale
	}
	def.FixedRotation = bs.FixedRotation
	def.Bullet = bs.Bullet
	def.IgnoreGravity = bs.IgnoreGravity
	def.IgnoreCCD = bs.IgnoreCCD
	def.Awake = !bs.Asleep
	def.AllowSleep = !bs.NoSleep
	def.UserData = bs.Name

	b := dynamics.NewBody(def)
	for i, fs := range bs.Fixtures {
		fd, err := fs.def()
		if err != nil {
			return nil, fmt.Errorf("fixture %d: %w", i, err)
		}
		if _, err := b.CreateFixtureDef(fd); err != nil {
			return nil, fmt.Errorf("fixture %d: %w", i, err)
		}
	}
	if err := w.AddBody(b); err != nil {
		return nil, err
	}
	return b, nil
}

func buildJoint(js JointSpec, built *Built) (dynamics.Joint, error) {
	a, b := built.Bodies[js.BodyA], built.Bodies[js.BodyB]
	switch js.Type {
	case "distance":
		j, err := dynamics.NewDistanceJoint(a, b, js.Anchor.V(), js.AnchorB.V())
		if err != nil {
			return nil, err
		}
		j.SetFrequency(js.Frequency)
		j.SetDampingRatio(js.DampingRatio)
		return j, nil
	case "rope":
		j, err := dynamics.NewRopeJoint(a, b, js.Anchor.V(), js.AnchorB.V(), js.MaxLength)
		if err != nil {
			return nil, err
		}
		j.SetFrequency(js.Frequency)
		j.SetDampingRatio(js.DampingRatio)
		return j, nil
	case "revolute":
		j, err := dynamics.NewRevoluteJoint(a, b, js.Anchor.V())
		if err != nil {
			return nil, err
		}
		if js.EnableLimit {
			j.SetLimits(js.Lower, js.Upper)
			j.EnableLimit(true)
		}
		if js.EnableMotor {
			j.SetMotorSpeed(js.MotorSpeed)
			j.SetMaxMotorTorque(js.MaxMotor)
			j.EnableMotor(true)
		}
		return j, nil
	case "prismatic":
		j, err := dynamics.NewPrismaticJoint(a, b, js.Anchor.V(), js.Axis.V())
		if err != nil {
			return nil, err
		}
		if js.EnableLimit {
			j.SetLimits(js.Lower, js.Upper)
			j.EnableLimit(true)
		}
		if js.EnableMotor {
			j.SetMotorSpeed(js.MotorSpeed)
			j.SetMaxMotorForce(js.MaxMotor)
			j.EnableMotor(true)
		}
		return j, nil
	case "wheel":
		j, err := dynamics.NewWheelJoint(a, b, js.Anchor.V(), js.Axis.V())
		if err != nil {
			return nil, err
		}
		if js.Frequency > 0 {
			j.SetFrequency(js.Frequency)
			j.SetDampingRatio(js.DampingRatio)
		}
		if js.EnableMotor {
			j.SetMotorSpeed(js.MotorSpeed)
			j.SetMaxMotorTorque(js.MaxMotor)
			j.EnableMotor(true)
		}
		return j, nil
	case "weld":
		j, err := dynamics.NewWeldJoint(a, b, js.Anchor.V())
		if err != nil {
			return nil, err
		}
		j.SetFrequency(js.Frequency)
		j.SetDampingRatio(js.DampingRatio)
		return j, nil
	case "pulley":
		return dynamics.NewPulleyJoint(a, b, js.GroundA.V(), js.GroundB.V(), js.Anchor.V(), js.AnchorB.V(), js.Ratio)
	case "friction":
		j, err := dynamics.NewFrictionJoint(a, b, js.Anchor.V())
		if err != nil {
			return nil, err
		}
		j.SetMaxForce(js.MaxForce)
		j.SetMaxTorque(js.MaxTorque)
		return j, nil
	case "motor":
		j, err := dynamics.NewMotorJoint(a, b)
		if err != nil {
			return nil, err
		}
		if js.MaxForce > 0 {
			j.SetMaxForce(js.MaxForce)
		}
		if js.MaxTorque > 0 {
			j.SetMaxTorque(js.MaxTorque)
		}
		return j, nil
	case "angle":
		return dynamics.NewAngleJoint(a, b)
	case "gear":
		return dynamics.NewGearJoint(built.Joints[js.JointA], built.Joints[js.JointB], js.Ratio)
	}
	return nil, fmt.Errorf("unknown joint type %q", js.Type)
}

func (s *Scene) buildController(cs ControllerSpec, log *zap.Logger) (dynamics.Controller, error) {
	switch cs.Type {
	case "point_gravity":
		g := controllers.NewPointGravity(cs.Center.V(), cs.Strength)
		if cs.Falloff == "inverse_square" {
			g.Falloff = controllers.InverseSquare
		}
		if cs.MinRadius > 0 {
			g.MinRadius = cs.MinRadius
		}
		g.MaxRadius = cs.MaxRadius
		return g, nil
	case "velocity_limit":
		return controllers.NewVelocityLimit(cs.MaxLinear, cs.MaxAngular), nil
	case "drag":
		d := controllers.NewDrag(cs.LinearDrag, cs.AngularDrag)
		d.Wind = cs.Wind.V()
		return d, nil
	case "script":
		path := cs.Script
		if !filepath.IsAbs(path) && s.dir != "" {
			path = filepath.Join(s.dir, path)
		}
		return script.Load(path, log)
	}
	return nil, fmt.Errorf("unknown controller type %q", cs.Type)
}
