// Package geom holds the small linear-algebra vocabulary shared by the
// collision and dynamics packages: vectors, rotations, rigid transforms,
// sweeps and axis-aligned boxes.
package geom

import "math"

// Epsilon is the machine epsilon for float64.
const Epsilon = 2.220446049250313e-16

// Vec2 is a 2D column vector.
type Vec2 struct {
	X float64
	Y float64
}

// V is shorthand for Vec2{X: x, Y: y}.
func V(x, y float64) Vec2 {
	return Vec2{X: x, Y: y}
}

func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{X: v.X - o.X, Y: v.Y - o.Y}
}

func (v Vec2) Mul(s float64) Vec2 {
	return Vec2{X: v.X * s, Y: v.Y * s}
}

func (v Vec2) Neg() Vec2 {
	return Vec2{X: -v.X, Y: -v.Y}
}

func (v Vec2) Dot(o Vec2) float64 {
	return v.X*o.X + v.Y*o.Y
}

// Cross returns the z component of the 3D cross product v x o.
func (v Vec2) Cross(o Vec2) float64 {
	return v.X*o.Y - v.Y*o.X
}

// CrossS returns v x s, where s is a scalar along z.
func (v Vec2) CrossS(s float64) Vec2 {
	return Vec2{X: s * v.Y, Y: -s * v.X}
}

// CrossSV returns s x v, where s is a scalar along z.
func CrossSV(s float64, v Vec2) Vec2 {
	return Vec2{X: -s * v.Y, Y: s * v.X}
}

func (v Vec2) Len() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

func (v Vec2) LenSqr() float64 {
	return v.X*v.X + v.Y*v.Y
}

// Normalize returns the unit vector along v and the original length.
// A vector shorter than Epsilon yields the zero vector and length 0.
func (v Vec2) Normalize() (Vec2, float64) {
	l := v.Len()
	if l < Epsilon {
		return Vec2{}, 0
	}
	inv := 1.0 / l
	return Vec2{X: v.X * inv, Y: v.Y * inv}, l
}

// Unit is Normalize without the length.
func (v Vec2) Unit() Vec2 {
	u, _ := v.Normalize()
	return u
}

// Skew returns the perpendicular (-y, x).
func (v Vec2) Skew() Vec2 {
	return Vec2{X: -v.Y, Y: v.X}
}

func (v Vec2) Abs() Vec2 {
	return Vec2{X: math.Abs(v.X), Y: math.Abs(v.Y)}
}

// IsValid reports whether both components are finite.
func (v Vec2) IsValid() bool {
	return IsValid(v.X) && IsValid(v.Y)
}

func (v Vec2) Distance(o Vec2) float64 {
	return v.Sub(o).Len()
}

func (v Vec2) DistanceSqr(o Vec2) float64 {
	return v.Sub(o).LenSqr()
}

func MinV(a, b Vec2) Vec2 {
	return Vec2{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y)}
}

func MaxV(a, b Vec2) Vec2 {
	return Vec2{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y)}
}

// Vec3 is used by the 3x3 block solvers of the joints.
type Vec3 struct {
	X float64
	Y float64
	Z float64
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

func (v Vec3) Mul(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

func (v Vec3) Neg() Vec3 {
	return Vec3{X: -v.X, Y: -v.Y, Z: -v.Z}
}

func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{X: v.Y*o.Z - v.Z*o.Y, Y: v.Z*o.X - v.X*o.Z, Z: v.X*o.Y - v.Y*o.X}
}

// IsValid reports whether x is neither NaN nor infinite.
func IsValid(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// Clamp limits x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(x, hi))
}
