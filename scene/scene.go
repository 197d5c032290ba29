// Package scene reads world descriptions from YAML and builds them into a
// dynamics.World.
package scene

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/koteyur/physac2d/geom"
)

// Vec is a YAML [x, y] pair.
type Vec [2]float64

func (v Vec) V() geom.Vec2 { return geom.V(v[0], v[1]) }

type Scene struct {
	Name        string           `yaml:"name"`
	Gravity     *Vec             `yaml:"gravity"`
	Bodies      []BodySpec       `yaml:"bodies"`
	Joints      []JointSpec      `yaml:"joints"`
	Controllers []ControllerSpec `yaml:"controllers"`

	// dir resolves relative script paths.
	dir string
}

type BodySpec struct {
	Name            string        `yaml:"name"`
	Type            string        `yaml:"type"` // static, kinematic or dynamic
	Position        Vec           `yaml:"position"`
	Angle           float64       `yaml:"angle"`
	LinearVelocity  Vec           `yaml:"linear_velocity"`
	AngularVelocity float64       `yaml:"angular_velocity"`
	LinearDamping   float64       `yaml:"linear_damping"`
	AngularDamping  float64       `yaml:"angular_damping"`
	GravityScale    *float64      `yaml:"gravity_scale"`
	FixedRotation   bool          `yaml:"fixed_rotation"`
	Bullet          bool          `yaml:"bullet"`
	IgnoreGravity   bool          `yaml:"ignore_gravity"`
	IgnoreCCD       bool          `yaml:"ignore_ccd"`
	Asleep          bool          `yaml:"asleep"`
	NoSleep         bool          `yaml:"no_sleep"`
	Fixtures        []FixtureSpec `yaml:"fixtures"`
}

type FixtureSpec struct {
	Shape string `yaml:"shape"` // box, circle, polygon, regular or edge

	HalfWidth  float64 `yaml:"half_width"`
	HalfHeight float64 `yaml:"half_height"`
	Radius     float64 `yaml:"radius"`
	Sides      int     `yaml:"sides"`
	Points     []Vec   `yaml:"points"`
	Offset     Vec     `yaml:"offset"`
	Angle      float64 `yaml:"angle"`

	Density     float64  `yaml:"density"`
	Friction    *float64 `yaml:"friction"`
	Restitution float64  `yaml:"restitution"`
	Sensor      bool     `yaml:"sensor"`
	Category    uint32   `yaml:"category"`
	Mask        uint32   `yaml:"mask"`
	Group       int16    `yaml:"group"`
}

// JointSpec covers every joint kind; each kind reads the fields it needs.
// An empty body name means the world's ground body.
type JointSpec struct {
	Name  string `yaml:"name"`
	Type  string `yaml:"type"`
	BodyA string `yaml:"body_a"`
	BodyB string `yaml:"body_b"`

	Anchor  Vec `yaml:"anchor"`
	AnchorB Vec `yaml:"anchor_b"`
	Axis    Vec `yaml:"axis"`
	GroundA Vec `yaml:"ground_a"`
	GroundB Vec `yaml:"ground_b"`

	// gear
	JointA string  `yaml:"joint_a"`
	JointB string  `yaml:"joint_b"`
	Ratio  float64 `yaml:"ratio"`

	EnableLimit bool    `yaml:"enable_limit"`
	Lower       float64 `yaml:"lower"`
	Upper       float64 `yaml:"upper"`
	EnableMotor bool    `yaml:"enable_motor"`
	MotorSpeed  float64 `yaml:"motor_speed"`
	MaxMotor    float64 `yaml:"max_motor"`

	Frequency    float64 `yaml:"frequency"`
	DampingRatio float64 `yaml:"damping_ratio"`
	MaxLength    float64 `yaml:"max_length"`
	MaxForce     float64 `yaml:"max_force"`
	MaxTorque    float64 `yaml:"max_torque"`

	CollideConnected bool    `yaml:"collide_connected"`
	Breakpoint       float64 `yaml:"breakpoint"`
}

type ControllerSpec struct {
	Type string `yaml:"type"` // point_gravity, velocity_limit, drag or script

	Center    Vec     `yaml:"center"`
	Strength  float64 `yaml:"strength"`
	Falloff   string  `yaml:"falloff"`
	MinRadius float64 `yaml:"min_radius"`
	MaxRadius float64 `yaml:"max_radius"`

	MaxLinear  float64 `yaml:"max_linear"`
	MaxAngular float64 `yaml:"max_angular"`

	LinearDrag  float64 `yaml:"linear_drag"`
	AngularDrag float64 `yaml:"angular_drag"`
	Wind        Vec     `yaml:"wind"`

	Script string `yaml:"script"`
}

// Load reads and parses a scene file.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scene: load %s: %w", path, err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("scene: %s: %w", path, err)
	}
	s.dir = filepath.Dir(path)
	return s, nil
}

// Parse decodes a scene and checks its references.
func Parse(data []byte) (*Scene, error) {
	var s Scene
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// GravityVec returns the scene gravity, or def when the scene has none.
func (s *Scene) GravityVec(def geom.Vec2) geom.Vec2 {
	if s.Gravity == nil {
		return def
	}
	return s.Gravity.V()
}

func (s *Scene) validate() error {
	bodies := make(map[string]bool, len(s.Bodies))
	for i, b := range s.Bodies {
		if _, err := parseBodyType(b.Type); err != nil {
			return fmt.Errorf("body %d: %w", i, err)
		}
		if b.Name != "" {
			if bodies[b.Name] {
				return fmt.Errorf("body %d: duplicate name %q", i, b.Name)
			}
			bodies[b.Name] = true
		}
		for j, f := range b.Fixtures {
			if _, err := f.shape(); err != nil {
				return fmt.Errorf("body %d fixture %d: %w", i, j, err)
			}
		}
	}

	joints := make(map[string]bool, len(s.Joints))
	for i, j := range s.Joints {
		for _, ref := range []string{j.BodyA, j.BodyB} {
			if ref != "" && !bodies[ref] {
				return fmt.Errorf("joint %d: unknown body %q", i, ref)
			}
		}
		if j.Type == "gear" && (!joints[j.JointA] || !joints[j.JointB]) {
			return fmt.Errorf("joint %d: gear needs two earlier joints, got %q and %q", i, j.JointA, j.JointB)
		}
		if j.Name != "" {
			joints[j.Name] = true
		}
	}

	for i, c := range s.Controllers {
		switch c.Type {
		case "point_gravity", "velocity_limit", "drag":
		case "script":
			if c.Script == "" {
				return fmt.Errorf("controller %d: script path missing", i)
			}
		default:
			return fmt.Errorf("controller %d: unknown type %q", i, c.Type)
		}
	}
	return nil
}
