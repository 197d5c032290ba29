package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Rot is a rotation stored as sine and cosine.
type Rot struct {
	S float64
	C float64
}

// NewRot returns the rotation for angle radians.
func NewRot(angle float64) Rot {
	s, c := math.Sincos(angle)
	return Rot{S: s, C: c}
}

// IdentityRot is the zero rotation.
func IdentityRot() Rot {
	return Rot{S: 0, C: 1}
}

func (q Rot) Angle() float64 {
	return math.Atan2(q.S, q.C)
}

func (q Rot) XAxis() Vec2 {
	return Vec2{X: q.C, Y: q.S}
}

func (q Rot) YAxis() Vec2 {
	return Vec2{X: -q.S, Y: q.C}
}

// Apply rotates v by q.
func (q Rot) Apply(v Vec2) Vec2 {
	return Vec2{X: q.C*v.X - q.S*v.Y, Y: q.S*v.X + q.C*v.Y}
}

// ApplyT rotates v by the inverse of q.
func (q Rot) ApplyT(v Vec2) Vec2 {
	return Vec2{X: q.C*v.X + q.S*v.Y, Y: -q.S*v.X + q.C*v.Y}
}

// Mul composes q * r.
func (q Rot) Mul(r Rot) Rot {
	return Rot{S: q.S*r.C + q.C*r.S, C: q.C*r.C - q.S*r.S}
}

// MulT composes transpose(q) * r.
func (q Rot) MulT(r Rot) Rot {
	return Rot{S: q.C*r.S - q.S*r.C, C: q.C*r.C + q.S*r.S}
}

// Transform is a rigid translation plus rotation.
type Transform struct {
	P Vec2
	Q Rot
}

// NewTransform builds a transform from a position and an angle.
func NewTransform(p Vec2, angle float64) Transform {
	return Transform{P: p, Q: NewRot(angle)}
}

// IdentityTransform has zero translation and rotation.
func IdentityTransform() Transform {
	return Transform{Q: IdentityRot()}
}

// Apply maps a local point into the transform's parent frame.
func (xf Transform) Apply(v Vec2) Vec2 {
	return Vec2{
		X: xf.Q.C*v.X - xf.Q.S*v.Y + xf.P.X,
		Y: xf.Q.S*v.X + xf.Q.C*v.Y + xf.P.Y,
	}
}

// ApplyT maps a parent-frame point into local space.
func (xf Transform) ApplyT(v Vec2) Vec2 {
	px := v.X - xf.P.X
	py := v.Y - xf.P.Y
	return Vec2{X: xf.Q.C*px + xf.Q.S*py, Y: -xf.Q.S*px + xf.Q.C*py}
}

// Mul composes a * b.
func (xf Transform) Mul(b Transform) Transform {
	return Transform{P: xf.Q.Apply(b.P).Add(xf.P), Q: xf.Q.Mul(b.Q)}
}

// MulT composes inverse(a) * b.
func (xf Transform) MulT(b Transform) Transform {
	return Transform{P: xf.Q.ApplyT(b.P.Sub(xf.P)), Q: xf.Q.MulT(b.Q)}
}

// Mat22 is a column-major 2x2 matrix.
type Mat22 struct {
	Ex Vec2
	Ey Vec2
}

func (m Mat22) mgl() mgl64.Mat2 {
	return mgl64.Mat2{m.Ex.X, m.Ex.Y, m.Ey.X, m.Ey.Y}
}

func mat22FromMgl(a mgl64.Mat2) Mat22 {
	return Mat22{Ex: Vec2{X: a[0], Y: a[1]}, Ey: Vec2{X: a[2], Y: a[3]}}
}

func (m Mat22) MulV(v Vec2) Vec2 {
	return Vec2{X: m.Ex.X*v.X + m.Ey.X*v.Y, Y: m.Ex.Y*v.X + m.Ey.Y*v.Y}
}

// Inverse returns the inverse, or the zero matrix when m is singular.
func (m Mat22) Inverse() Mat22 {
	return mat22FromMgl(m.mgl().Inv())
}

// Solve returns x with m*x = b, or zero when m is singular.
func (m Mat22) Solve(b Vec2) Vec2 {
	r := m.mgl().Inv().Mul2x1(mgl64.Vec2{b.X, b.Y})
	return Vec2{X: r[0], Y: r[1]}
}

// Mat33 is a column-major 3x3 matrix used by the joint block solvers.
type Mat33 struct {
	Ex Vec3
	Ey Vec3
	Ez Vec3
}

func (m Mat33) mgl() mgl64.Mat3 {
	return mgl64.Mat3{
		m.Ex.X, m.Ex.Y, m.Ex.Z,
		m.Ey.X, m.Ey.Y, m.Ey.Z,
		m.Ez.X, m.Ez.Y, m.Ez.Z,
	}
}

func (m Mat33) MulV(v Vec3) Vec3 {
	r := m.mgl().Mul3x1(mgl64.Vec3{v.X, v.Y, v.Z})
	return Vec3{X: r[0], Y: r[1], Z: r[2]}
}

// MulV2 multiplies by the upper 2x2 block.
func (m Mat33) MulV2(v Vec2) Vec2 {
	return Vec2{X: m.Ex.X*v.X + m.Ey.X*v.Y, Y: m.Ex.Y*v.X + m.Ey.Y*v.Y}
}

// Solve33 solves m*x = b. A singular matrix gives the zero vector.
func (m Mat33) Solve33(b Vec3) Vec3 {
	r := m.mgl().Inv().Mul3x1(mgl64.Vec3{b.X, b.Y, b.Z})
	return Vec3{X: r[0], Y: r[1], Z: r[2]}
}

// Solve22 solves the upper 2x2 block against b.
func (m Mat33) Solve22(b Vec2) Vec2 {
	return Mat22{Ex: Vec2{X: m.Ex.X, Y: m.Ex.Y}, Ey: Vec2{X: m.Ey.X, Y: m.Ey.Y}}.Solve(b)
}

// Inverse22 returns the inverse of the upper 2x2 block embedded in a 3x3
// with a zero third row and column.
func (m Mat33) Inverse22() Mat33 {
	inv := Mat22{Ex: Vec2{X: m.Ex.X, Y: m.Ex.Y}, Ey: Vec2{X: m.Ey.X, Y: m.Ey.Y}}.Inverse()
	return Mat33{
		Ex: Vec3{X: inv.Ex.X, Y: inv.Ex.Y},
		Ey: Vec3{X: inv.Ey.X, Y: inv.Ey.Y},
	}
}

// SymInverse33 returns the inverse of a symmetric matrix, or zero when it
// is singular.
func (m Mat33) SymInverse33() Mat33 {
	a := m.mgl().Inv()
	return Mat33{
		Ex: Vec3{X: a[0], Y: a[1], Z: a[2]},
		Ey: Vec3{X: a[3], Y: a[4], Z: a[5]},
		Ez: Vec3{X: a[6], Y: a[7], Z: a[8]},
	}
}
