package collision

import (
	"testing"

	"github.com/koteyur/physac2d/geom"
)

func TestDistance(t *testing.T) {
	cases := []struct {
		name     string
		a, b     Shape
		xfA, xfB geom.Transform
		radii    bool
		want     float64
	}{
		{"circles_with_radii", NewCircle(1), NewCircle(1), at(0, 0), at(5, 0), true, 3},
		{"circles_cores", NewCircle(1), NewCircle(1), at(0, 0), at(5, 0), false, 5},
		{"boxes_cores", NewBox(1, 1), NewBox(1, 1), at(0, 0), at(4, 0), false, 2},
		{"box_corner_to_circle", NewBox(1, 1), NewCircle(0.5), at(0, 0), at(4, 5), false, 5},
		{"overlapping_boxes", NewBox(1, 1), NewBox(1, 1), at(0, 0), at(0.5, 0.5), false, 0},
		{"edge_to_circle", NewEdge(geom.V(-1, 0), geom.V(1, 0)), NewCircle(0.25), at(0, 0), at(0, 3), false, 3},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			out := Distance(DistanceInput{
				ProxyA:   c.a.Proxy(0),
				ProxyB:   c.b.Proxy(0),
				XfA:      c.xfA,
				XfB:      c.xfB,
				UseRadii: c.radii,
			}, nil)
			if !near(out.Distance, c.want, 1e-9) {
				t.Fatalf("distance = %v, want %v", out.Distance, c.want)
			}
			if c.want > 0 && !near(out.PointA.Distance(out.PointB), c.want, 1e-9) {
				t.Fatalf("witness points %v %v are not %v apart", out.PointA, out.PointB, c.want)
			}
		})
	}
}

func TestDistanceCacheReuse(t *testing.T) {
	var cache SimplexCache
	in := DistanceInput{
		ProxyA: NewBox(1, 1).Proxy(0),
		ProxyB: NewBox(1, 1).Proxy(0),
		XfA:    at(0, 0),
		XfB:    at(4, 0.5),
	}
	first := Distance(in, &cache)
	second := Distance(in, &cache)
	if !near(first.Distance, second.Distance, 1e-12) {
		t.Fatalf("cached distance %v differs from %v", second.Distance, first.Distance)
	}
	if second.Iterations > first.Iterations {
		t.Fatalf("warm start took %d iterations, cold took %d", second.Iterations, first.Iterations)
	}
}

func TestTestOverlap(t *testing.T) {
	if !TestOverlap(NewCircle(1), 0, at(0, 0), NewBox(1, 1), 0, at(1.5, 0)) {
		t.Fatal("overlapping shapes reported apart")
	}
	if TestOverlap(NewCircle(1), 0, at(0, 0), NewBox(1, 1), 0, at(3, 0)) {
		t.Fatal("separated shapes reported overlapping")
	}
}

func TestTimeOfImpact(t *testing.T) {
	circle := NewCircle(0.5)
	box := NewBox(0.5, 0.5)
	static := geom.Sweep{C0: geom.V(0, 0), C: geom.V(0, 0)}

	cases := []struct {
		name  string
		sweep geom.Sweep
		state TOIState
		lo    float64
		hi    float64
	}{
		{"head_on", geom.Sweep{C0: geom.V(-5, 0), C: geom.V(5, 0)}, TOITouching, 0.39, 0.41},
		{"moving_away", geom.Sweep{C0: geom.V(-2, 0), C: geom.V(-5, 0)}, TOISeparated, 1, 1},
		{"passing_by", geom.Sweep{C0: geom.V(-5, 3), C: geom.V(5, 3)}, TOISeparated, 1, 1},
		{"spinning_start_inside_reach", geom.Sweep{C0: geom.V(-1.2, 0), C: geom.V(-1.2, 0), A0: 0, A: 1}, TOISeparated, 1, 1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			out := TimeOfImpact(TOIInput{
				ProxyA: circle.Proxy(0),
				ProxyB: box.Proxy(0),
				SweepA: c.sweep,
				SweepB: static,
				TMax:   1,
			})
			if out.State != c.state {
				t.Fatalf("state = %v, want %v", out.State, c.state)
			}
			if out.T < c.lo || out.T > c.hi {
				t.Fatalf("t = %v, want in [%v, %v]", out.T, c.lo, c.hi)
			}
		})
	}

	t.Run("contact_at_reported_time", func(t *testing.T) {
		sweep := geom.Sweep{C0: geom.V(-5, 0.2), C: geom.V(5, -0.1)}
		out := TimeOfImpact(TOIInput{ProxyA: circle.Proxy(0), ProxyB: box.Proxy(0), SweepA: sweep, SweepB: static, TMax: 1})
		if out.State != TOITouching {
			t.Fatalf("state = %v", out.State)
		}
		d := Distance(DistanceInput{
			ProxyA:   circle.Proxy(0),
			ProxyB:   box.Proxy(0),
			XfA:      sweep.Transform(out.T),
			XfB:      static.Transform(out.T),
			UseRadii: true,
		}, nil)
		if d.Distance > 2*LinearSlop {
			t.Fatalf("shapes %v apart at reported impact", d.Distance)
		}
	})
}
