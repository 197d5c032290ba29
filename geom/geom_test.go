package geom

import (
	"math"
	"testing"
)

func near(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestTransformRoundTrip(t *testing.T) {
	cases := []struct {
		name  string
		p     Vec2
		angle float64
		pt    Vec2
	}{
		{"identity", Vec2{}, 0, V(1, 2)},
		{"quarter_turn", V(3, -1), math.Pi / 2, V(1, 0)},
		{"negative_angle", V(-2, 5), -0.7, V(-4, 0.25)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			xf := NewTransform(c.p, c.angle)
			back := xf.ApplyT(xf.Apply(c.pt))
			if !near(back.X, c.pt.X, 1e-12) || !near(back.Y, c.pt.Y, 1e-12) {
				t.Fatalf("round trip got %v, want %v", back, c.pt)
			}
		})
	}

	xf := NewTransform(V(1, 1), math.Pi/2)
	got := xf.Apply(V(1, 0))
	if !near(got.X, 1, 1e-12) || !near(got.Y, 2, 1e-12) {
		t.Fatalf("quarter turn of (1,0) about (1,1) got %v", got)
	}
}

func TestNormalizeDegenerate(t *testing.T) {
	u, l := Vec2{}.Normalize()
	if l != 0 || u != (Vec2{}) {
		t.Fatalf("zero vector should normalize to zero, got %v %v", u, l)
	}
	u, l = V(3, 4).Normalize()
	if !near(l, 5, 1e-12) || !near(u.Len(), 1, 1e-12) {
		t.Fatalf("normalize (3,4) got %v %v", u, l)
	}
}

func TestMatSolve(t *testing.T) {
	m := Mat22{Ex: V(4, 1), Ey: V(2, 3)}
	x := V(1.5, -2)
	b := m.MulV(x)
	got := m.Solve(b)
	if !near(got.X, x.X, 1e-9) || !near(got.Y, x.Y, 1e-9) {
		t.Fatalf("Solve got %v, want %v", got, x)
	}

	singular := Mat22{Ex: V(1, 2), Ey: V(2, 4)}
	if s := singular.Solve(V(1, 1)); s != (Vec2{}) {
		t.Fatalf("singular solve should be zero, got %v", s)
	}

	k := Mat33{
		Ex: Vec3{X: 3, Y: 1, Z: 0.5},
		Ey: Vec3{X: 1, Y: 4, Z: 1},
		Ez: Vec3{X: 0.5, Y: 1, Z: 2},
	}
	x3 := Vec3{X: 1, Y: -1, Z: 2}
	got3 := k.Solve33(k.MulV(x3))
	if !near(got3.X, x3.X, 1e-9) || !near(got3.Y, x3.Y, 1e-9) || !near(got3.Z, x3.Z, 1e-9) {
		t.Fatalf("Solve33 got %v, want %v", got3, x3)
	}

	inv := k.SymInverse33()
	id := inv.MulV(k.MulV(Vec3{X: 0, Y: 1, Z: 0}))
	if !near(id.Y, 1, 1e-9) || !near(id.X, 0, 1e-9) {
		t.Fatalf("SymInverse33 * K should be identity, got %v", id)
	}
}

func TestSweepAdvance(t *testing.T) {
	s := Sweep{C0: V(0, 0), C: V(10, 0), A0: 0, A: 1}
	s.Advance(0.5)
	if !near(s.C0.X, 5, 1e-12) || !near(s.A0, 0.5, 1e-12) || s.Alpha0 != 0.5 {
		t.Fatalf("advance to half got %+v", s)
	}
	xf := s.Transform(1)
	if !near(xf.P.X, 10, 1e-12) {
		t.Fatalf("transform at end got %v", xf.P)
	}
}

func TestAABB(t *testing.T) {
	a := AABB{Lower: V(0, 0), Upper: V(2, 2)}
	b := AABB{Lower: V(1, 1), Upper: V(3, 3)}
	c := AABB{Lower: V(5, 5), Upper: V(6, 6)}

	if !a.Overlaps(b) || !b.Overlaps(a) {
		t.Fatal("a and b should overlap")
	}
	if a.Overlaps(c) {
		t.Fatal("a and c should not overlap")
	}
	if got := a.Combine(c); got.Lower != V(0, 0) || got.Upper != V(6, 6) {
		t.Fatalf("combine got %+v", got)
	}
	if !a.Expand(1).Contains(a) {
		t.Fatal("expanded box must contain the original")
	}

	out, ok := a.RayCast(RayCastInput{P1: V(-1, 1), P2: V(3, 1), MaxFraction: 1})
	if !ok || !near(out.Fraction, 0.25, 1e-12) || out.Normal != V(-1, 0) {
		t.Fatalf("ray cast got %+v ok=%v", out, ok)
	}
	if _, ok := a.RayCast(RayCastInput{P1: V(-1, 5), P2: V(3, 5), MaxFraction: 1}); ok {
		t.Fatal("ray above the box should miss")
	}
}
