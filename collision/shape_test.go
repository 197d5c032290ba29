package collision

import (
	"errors"
	"math"
	"testing"

	"github.com/koteyur/physac2d/geom"
)

func near(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestComputeMass(t *testing.T) {
	cases := []struct {
		name    string
		shape   Shape
		density float64
		mass    float64
		inertia float64
		center  geom.Vec2
	}{
		{"circle", NewCircle(1), 2, 2 * math.Pi, math.Pi, geom.Vec2{}},
		{"offset_circle", &CircleShape{Center: geom.V(1, 0), R: 1}, 1, math.Pi, math.Pi * 1.5, geom.V(1, 0)},
		{"box", NewBox(1, 0.5), 1, 2, 2 * (4 + 1) / 12.0, geom.Vec2{}},
		{"square_density", NewBox(0.5, 0.5), 3, 3, 3 * 2 / 12.0, geom.Vec2{}},
		{"edge", NewEdge(geom.V(0, 0), geom.V(2, 0)), 1, 0, 0, geom.V(1, 0)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			md := c.shape.ComputeMass(c.density)
			if !near(md.Mass, c.mass, 1e-9) {
				t.Fatalf("mass = %v, want %v", md.Mass, c.mass)
			}
			if !near(md.I, c.inertia, 1e-9) {
				t.Fatalf("inertia = %v, want %v", md.I, c.inertia)
			}
			if !near(md.Center.X, c.center.X, 1e-9) || !near(md.Center.Y, c.center.Y, 1e-9) {
				t.Fatalf("center = %v, want %v", md.Center, c.center)
			}
		})
	}
}

func TestNewPolygon(t *testing.T) {
	t.Run("hull_drops_interior_points", func(t *testing.T) {
		p, err := NewPolygon([]geom.Vec2{
			geom.V(-1, -1), geom.V(0, 0), geom.V(1, -1), geom.V(1, 1), geom.V(-1, 1),
		})
		if err != nil {
			t.Fatal(err)
		}
		if len(p.Vertices) != 4 {
			t.Fatalf("got %d vertices, want 4", len(p.Vertices))
		}
		if !near(p.Centroid.X, 0, 1e-12) || !near(p.Centroid.Y, 0, 1e-12) {
			t.Fatalf("centroid = %v", p.Centroid)
		}
		for i, n := range p.Normals {
			if !near(n.Len(), 1, 1e-12) {
				t.Fatalf("normal %d not unit: %v", i, n)
			}
			// counter-clockwise winding keeps every other vertex behind each face
			for j, v := range p.Vertices {
				if d := n.Dot(v.Sub(p.Vertices[i])); d > 1e-12 {
					t.Fatalf("vertex %d in front of face %d by %v", j, i, d)
				}
			}
		}
	})

	t.Run("collinear_is_degenerate", func(t *testing.T) {
		_, err := NewPolygon([]geom.Vec2{geom.V(0, 0), geom.V(1, 0), geom.V(2, 0)})
		if !errors.Is(err, ErrDegeneratePolygon) {
			t.Fatalf("err = %v, want ErrDegeneratePolygon", err)
		}
	})

	t.Run("welded_points_are_degenerate", func(t *testing.T) {
		_, err := NewPolygon([]geom.Vec2{geom.V(0, 0), geom.V(0.001, 0), geom.V(0, 0.001)})
		if !errors.Is(err, ErrDegeneratePolygon) {
			t.Fatalf("err = %v, want ErrDegeneratePolygon", err)
		}
	})

	t.Run("regular_polygon_clamps_sides", func(t *testing.T) {
		if n := len(NewRegularPolygon(1, 2).Vertices); n != 3 {
			t.Fatalf("got %d sides, want 3", n)
		}
		if n := len(NewRegularPolygon(1, 20).Vertices); n != MaxPolygonVertices {
			t.Fatalf("got %d sides, want %d", n, MaxPolygonVertices)
		}
	})
}

func TestShapeTestPointAndRayCast(t *testing.T) {
	xf := geom.NewTransform(geom.V(2, 0), math.Pi/4)
	shapes := []struct {
		name  string
		shape Shape
	}{
		{"circle", NewCircle(1)},
		{"box", NewBox(1, 1)},
	}
	for _, s := range shapes {
		t.Run(s.name, func(t *testing.T) {
			if !s.shape.TestPoint(xf, geom.V(2, 0.5)) {
				t.Fatal("point inside reported outside")
			}
			if s.shape.TestPoint(xf, geom.V(5, 0)) {
				t.Fatal("point outside reported inside")
			}

			in := geom.RayCastInput{P1: geom.V(-2, 0), P2: geom.V(6, 0), MaxFraction: 1}
			out, hit := s.shape.RayCast(in, xf, 0)
			if !hit {
				t.Fatal("ray missed")
			}
			if out.Fraction <= 0 || out.Fraction >= 0.5 {
				t.Fatalf("fraction = %v", out.Fraction)
			}
			if out.Normal.X >= 0 {
				t.Fatalf("normal %v should face the ray origin", out.Normal)
			}

			in.MaxFraction = 0.1
			if _, hit := s.shape.RayCast(in, xf, 0); hit {
				t.Fatal("ray hit beyond max fraction")
			}
		})
	}

	t.Run("edge_two_sided", func(t *testing.T) {
		e := NewEdge(geom.V(-1, 0), geom.V(1, 0))
		for _, dir := range []float64{1, -1} {
			in := geom.RayCastInput{P1: geom.V(0, 2*dir), P2: geom.V(0, -2*dir), MaxFraction: 1}
			out, hit := e.RayCast(in, geom.IdentityTransform(), 0)
			if !hit || !near(out.Fraction, 0.5, 1e-12) {
				t.Fatalf("dir %v: hit=%v fraction=%v", dir, hit, out.Fraction)
			}
			if out.Normal.Y*dir <= 0 {
				t.Fatalf("dir %v: normal %v should face the ray origin", dir, out.Normal)
			}
		}
	})
}

func TestOutline(t *testing.T) {
	xf := geom.NewTransform(geom.V(1, 1), 0)
	if got := len(Outline(NewCircle(1), xf, 12)); got != 12 {
		t.Fatalf("circle outline has %d points", got)
	}
	box := Outline(NewBox(1, 1), xf, 12)
	if len(box) != 4 || box[0] != geom.V(0, 0) {
		t.Fatalf("box outline = %v", box)
	}
	if got := len(Outline(NewEdge(geom.V(0, 0), geom.V(1, 0)), xf, 0)); got != 2 {
		t.Fatalf("edge outline has %d points", got)
	}
}
