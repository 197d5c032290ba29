// Package script runs Tengo scripts as world controllers.
//
// A script runs once per step with these globals:
//
//	dt                        step length in seconds
//	state                     map kept between steps
//	bodies()                  ids of the awake dynamic bodies
//	position(id), velocity(id) [x, y]
//	mass(id)
//	apply_force(id, fx, fy)
//	apply_torque(id, t)
//	set_velocity(id, vx, vy)
package script

import (
	"fmt"
	"math"
	"os"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"go.uber.org/zap"

	"github.com/koteyur/physac2d/dynamics"
	"github.com/koteyur/physac2d/geom"
)

type Controller struct {
	dynamics.ControllerBase

	name     string
	compiled *tengo.Compiled
	state    *tengo.Map
	log      *zap.Logger
	lastErr  error

	// body ids resolved for the current run
	byID map[int]*dynamics.Body
}

// Load compiles the script at path.
func Load(path string, log *zap.Logger) (*Controller, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("script: load %s: %w", path, err)
	}
	return New(path, src, log)
}

// New compiles src. name is only used in errors and logs.
func New(name string, src []byte, log *zap.Logger) (*Controller, error) {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Controller{
		name:  name,
		state: &tengo.Map{Value: map[string]tengo.Object{}},
		log:   log.With(zap.String("script", name)),
		byID:  map[int]*dynamics.Body{},
	}

	s := tengo.NewScript(src)
	s.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))
	_ = s.Add("dt", 0.0)
	_ = s.Add("state", c.state)
	for fname, fn := range c.builtins() {
		_ = s.Add(fname, &tengo.UserFunction{Name: fname, Value: fn})
	}

	compiled, err := s.Compile()
	if err != nil {
		return nil, fmt.Errorf("script: compile %s: %w", name, err)
	}
	c.compiled = compiled
	return c, nil
}

// Update runs the script. A failing run is logged and skipped; the next
// step tries again.
func (c *Controller) Update(dt float64) {
	w := c.World()
	if w == nil {
		return
	}
	clear(c.byID)
	for _, b := range w.Bodies() {
		c.byID[b.ID()] = b
	}

	c.lastErr = c.run(dt)
	if c.lastErr != nil {
		c.log.Warn("script failed", zap.Error(c.lastErr))
	}
}

func (c *Controller) run(dt float64) error {
	if err := c.compiled.Set("dt", dt); err != nil {
		return err
	}
	if err := c.compiled.Set("state", c.state); err != nil {
		return err
	}
	if err := c.compiled.Run(); err != nil {
		return fmt.Errorf("script: run %s: %w", c.name, err)
	}
	return nil
}

// Err returns the error of the last run, if any.
func (c *Controller) Err() error { return c.lastErr }

// State returns a copy of the script's state map.
func (c *Controller) State() map[string]any {
	out := make(map[string]any, len(c.state.Value))
	for k, v := range c.state.Value {
		out[k] = tengo.ToInterface(v)
	}
	return out
}

func (c *Controller) builtins() map[string]tengo.CallableFunc {
	return map[string]tengo.CallableFunc{
		"bodies": func(args ...tengo.Object) (tengo.Object, error) {
			ids := &tengo.Array{}
			w := c.World()
			if w == nil {
				return ids, nil
			}
			for _, b := range w.Bodies() {
				if b.Type() == dynamics.Dynamic && b.IsAwake() {
					ids.Value = append(ids.Value, &tengo.Int{Value: int64(b.ID())})
				}
			}
			return ids, nil
		},
		"position": func(args ...tengo.Object) (tengo.Object, error) {
			b, err := c.body(args, 1)
			if err != nil {
				return nil, err
			}
			return vecObject(b.Position()), nil
		},
		"velocity": func(args ...tengo.Object) (tengo.Object, error) {
			b, err := c.body(args, 1)
			if err != nil {
				return nil, err
			}
			return vecObject(b.LinearVelocity()), nil
		},
		"mass": func(args ...tengo.Object) (tengo.Object, error) {
			b, err := c.body(args, 1)
			if err != nil {
				return nil, err
			}
			return &tengo.Float{Value: b.Mass()}, nil
		},
		"apply_force": func(args ...tengo.Object) (tengo.Object, error) {
			b, err := c.body(args, 3)
			if err != nil {
				return nil, err
			}
			v, err := vecArgs(args[1], args[2])
			if err != nil {
				return nil, err
			}
			b.ApplyForceToCenter(v)
			return tengo.UndefinedValue, nil
		},
		"apply_torque": func(args ...tengo.Object) (tengo.Object, error) {
			b, err := c.body(args, 2)
			if err != nil {
				return nil, err
			}
			t, err := floatArg("torque", args[1])
			if err != nil {
				return nil, err
			}
			b.ApplyTorque(t)
			return tengo.UndefinedValue, nil
		},
		"set_velocity": func(args ...tengo.Object) (tengo.Object, error) {
			b, err := c.body(args, 3)
			if err != nil {
				return nil, err
			}
			v, err := vecArgs(args[1], args[2])
			if err != nil {
				return nil, err
			}
			b.SetLinearVelocity(v)
			return tengo.UndefinedValue, nil
		},
	}
}

// body checks the argument count and resolves the leading body id.
func (c *Controller) body(args []tengo.Object, n int) (*dynamics.Body, error) {
	if len(args) != n {
		return nil, tengo.ErrWrongNumArguments
	}
	id, ok := tengo.ToInt(args[0])
	if !ok {
		return nil, tengo.ErrInvalidArgumentType{Name: "id", Expected: "int", Found: args[0].TypeName()}
	}
	b, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("no body with id %d", id)
	}
	return b, nil
}

// floatArg converts a numeric argument and rejects NaN and infinities, which
// the body setters refuse.
func floatArg(name string, o tengo.Object) (float64, error) {
	f, ok := tengo.ToFloat64(o)
	if !ok {
		return 0, tengo.ErrInvalidArgumentType{Name: name, Expected: "float", Found: o.TypeName()}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%s: not a finite number: %v", name, f)
	}
	return f, nil
}

func vecArgs(x, y tengo.Object) (geom.Vec2, error) {
	fx, err := floatArg("x", x)
	if err != nil {
		return geom.Vec2{}, err
	}
	fy, err := floatArg("y", y)
	if err != nil {
		return geom.Vec2{}, err
	}
	return geom.V(fx, fy), nil
}

func vecObject(v geom.Vec2) *tengo.Array {
	return &tengo.Array{Value: []tengo.Object{&tengo.Float{Value: v.X}, &tengo.Float{Value: v.Y}}}
}
