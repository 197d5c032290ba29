package script

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/koteyur/physac2d/collision"
	"github.com/koteyur/physac2d/dynamics"
	"github.com/koteyur/physac2d/geom"
)

const dt = 1.0 / 60.0

func newWorld(t *testing.T, gravity geom.Vec2, positions ...geom.Vec2) (*dynamics.World, []*dynamics.Body) {
	t.Helper()
	w := dynamics.NewWorld(gravity)
	var bodies []*dynamics.Body
	for _, p := range positions {
		def := dynamics.DefaultBodyDef()
		def.Type = dynamics.Dynamic
		def.Position = p
		b := w.CreateBody(def)
		if _, err := b.CreateFixture(collision.NewBox(0.5, 0.5), 1, nil); err != nil {
			t.Fatal(err)
		}
		bodies = append(bodies, b)
	}
	return w, bodies
}

func attach(t *testing.T, w *dynamics.World, src string) *Controller {
	t.Helper()
	c, err := New("test", []byte(src), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.AddController(c); err != nil {
		t.Fatal(err)
	}
	return c
}

func TestAntiGravity(t *testing.T) {
	w, bodies := newWorld(t, geom.V(0, -10), geom.V(0, 5), geom.V(3, 5))
	c := attach(t, w, `
for id in bodies() {
	apply_force(id, 0, 10 * mass(id))
}
`)
	for i := 0; i < 60; i++ {
		w.Step(dt)
	}
	if err := c.Err(); err != nil {
		t.Fatal(err)
	}
	for _, b := range bodies {
		if math.Abs(b.Position().Y-5) > 1e-6 {
			t.Errorf("body %d drifted to %v", b.ID(), b.Position())
		}
	}
}

func TestSetVelocityAndState(t *testing.T) {
	w, bodies := newWorld(t, geom.Vec2{}, geom.V(0, 0))
	c := attach(t, w, `
state["runs"] = (is_undefined(state["runs"]) ? 0 : state["runs"]) + 1
state["dt"] = dt
for id in bodies() {
	v := velocity(id)
	if v[0] == 0.0 {
		set_velocity(id, 2, 0)
	}
	state["x"] = position(id)[0]
}
`)
	for i := 0; i < 30; i++ {
		w.Step(dt)
	}
	if err := c.Err(); err != nil {
		t.Fatal(err)
	}
	st := c.State()
	if runs, _ := st["runs"].(int64); runs != 30 {
		t.Errorf("runs = %v, want 30", st["runs"])
	}
	if got, _ := st["dt"].(float64); got != dt {
		t.Errorf("dt = %v", st["dt"])
	}
	if v := bodies[0].LinearVelocity(); v.X != 2 {
		t.Errorf("velocity = %v", v)
	}
	if x, _ := st["x"].(float64); x <= 0 {
		t.Errorf("position seen by the script = %v", st["x"])
	}
}

func TestScriptErrors(t *testing.T) {
	t.Run("compile", func(t *testing.T) {
		_, err := New("broken", []byte("for {"), nil)
		if err == nil || !strings.Contains(err.Error(), "compile broken") {
			t.Fatalf("err = %v", err)
		}
	})

	cases := []struct {
		name string
		src  string
	}{
		{"unknown_body", "apply_torque(9999, 1)"},
		{"arg_count", "apply_force(1)"},
		{"arg_type", `set_velocity(1, "fast", 0)`},
		{"infinite_force", "apply_force(bodies()[0], 1.0/0.0, 0.0)"},
		{"nan_torque", "apply_torque(bodies()[0], 0.0/0.0)"},
		{"infinite_velocity", "set_velocity(bodies()[0], 0.0, -1.0/0.0)"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w, bodies := newWorld(t, geom.Vec2{}, geom.V(0, 0))
			ctrl := attach(t, w, c.src)
			w.Step(dt)
			if ctrl.Err() == nil {
				t.Fatal("expected a run error")
			}
			if bodies[0].LinearVelocity() != (geom.Vec2{}) || bodies[0].AngularVelocity() != 0 {
				t.Fatal("failed run changed the body")
			}
			// the world keeps stepping
			w.Step(dt)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spin.tengo")
	if err := os.WriteFile(path, []byte("for id in bodies() { apply_torque(id, 1.0) }\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	w, bodies := newWorld(t, geom.Vec2{}, geom.V(0, 0))
	c, err := Load(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.AddController(c); err != nil {
		t.Fatal(err)
	}
	w.Step(dt)
	if bodies[0].AngularVelocity() <= 0 {
		t.Fatal("torque not applied")
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.tengo"), nil); err == nil {
		t.Fatal("expected a load error")
	}
}
