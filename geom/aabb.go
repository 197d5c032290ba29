package geom

import "math"

// AABB is an axis-aligned bounding box.
type AABB struct {
	Lower Vec2
	Upper Vec2
}

// RayCastInput is a ray from P1 toward P2, considered up to
// P1 + MaxFraction*(P2-P1).
type RayCastInput struct {
	P1, P2      Vec2
	MaxFraction float64
}

// RayCastOutput carries the hit normal and the fraction along the ray.
type RayCastOutput struct {
	Normal   Vec2
	Fraction float64
}

func (a AABB) IsValid() bool {
	d := a.Upper.Sub(a.Lower)
	return d.X >= 0 && d.Y >= 0 && a.Lower.IsValid() && a.Upper.IsValid()
}

func (a AABB) Center() Vec2 {
	return a.Lower.Add(a.Upper).Mul(0.5)
}

// Extents returns the half widths.
func (a AABB) Extents() Vec2 {
	return a.Upper.Sub(a.Lower).Mul(0.5)
}

func (a AABB) Perimeter() float64 {
	return 2 * ((a.Upper.X - a.Lower.X) + (a.Upper.Y - a.Lower.Y))
}

// Combine returns the smallest box holding both a and b.
func (a AABB) Combine(b AABB) AABB {
	return AABB{Lower: MinV(a.Lower, b.Lower), Upper: MaxV(a.Upper, b.Upper)}
}

// Contains reports whether b lies fully inside a.
func (a AABB) Contains(b AABB) bool {
	return a.Lower.X <= b.Lower.X && a.Lower.Y <= b.Lower.Y &&
		b.Upper.X <= a.Upper.X && b.Upper.Y <= a.Upper.Y
}

func (a AABB) ContainsPoint(p Vec2) bool {
	return p.X >= a.Lower.X && p.X <= a.Upper.X && p.Y >= a.Lower.Y && p.Y <= a.Upper.Y
}

// Overlaps reports whether the boxes intersect; touching counts.
func (a AABB) Overlaps(b AABB) bool {
	if b.Lower.X-a.Upper.X > 0 || b.Lower.Y-a.Upper.Y > 0 {
		return false
	}
	if a.Lower.X-b.Upper.X > 0 || a.Lower.Y-b.Upper.Y > 0 {
		return false
	}
	return true
}

// Expand grows the box by margin on every side.
func (a AABB) Expand(margin float64) AABB {
	r := Vec2{X: margin, Y: margin}
	return AABB{Lower: a.Lower.Sub(r), Upper: a.Upper.Add(r)}
}

// Shift translates the box.
func (a AABB) Shift(d Vec2) AABB {
	return AABB{Lower: a.Lower.Add(d), Upper: a.Upper.Add(d)}
}

// RayCast clips the ray against the box with the slab method.
func (a AABB) RayCast(in RayCastInput) (RayCastOutput, bool) {
	tmin := -math.MaxFloat64
	tmax := math.MaxFloat64

	p := in.P1
	d := in.P2.Sub(in.P1)
	absD := d.Abs()

	var normal Vec2
	lower := [2]float64{a.Lower.X, a.Lower.Y}
	upper := [2]float64{a.Upper.X, a.Upper.Y}
	ps := [2]float64{p.X, p.Y}
	ds := [2]float64{d.X, d.Y}
	abs := [2]float64{absD.X, absD.Y}

	for i := 0; i < 2; i++ {
		if abs[i] < Epsilon {
			if ps[i] < lower[i] || upper[i] < ps[i] {
				return RayCastOutput{}, false
			}
			continue
		}
		inv := 1.0 / ds[i]
		t1 := (lower[i] - ps[i]) * inv
		t2 := (upper[i] - ps[i]) * inv
		s := -1.0
		if t1 > t2 {
			t1, t2 = t2, t1
			s = 1.0
		}
		if t1 > tmin {
			normal = Vec2{}
			if i == 0 {
				normal.X = s
			} else {
				normal.Y = s
			}
			tmin = t1
		}
		tmax = math.Min(tmax, t2)
		if tmin > tmax {
			return RayCastOutput{}, false
		}
	}

	if tmin < 0 || in.MaxFraction < tmin {
		return RayCastOutput{}, false
	}
	return RayCastOutput{Normal: normal, Fraction: tmin}, true
}
