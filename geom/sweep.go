package geom

import "math"

// Sweep describes the motion of a body over one time step for continuous
// collision. C0/A0 hold the state at Alpha0, C/A the state at the end of
// the step.
type Sweep struct {
	LocalCenter Vec2
	C0, C       Vec2
	A0, A       float64
	Alpha0      float64
}

// Transform returns the interpolated transform at beta in [0,1].
func (s Sweep) Transform(beta float64) Transform {
	p := s.C0.Mul(1 - beta).Add(s.C.Mul(beta))
	angle := (1-beta)*s.A0 + beta*s.A
	xf := Transform{P: p, Q: NewRot(angle)}
	xf.P = xf.P.Sub(xf.Q.Apply(s.LocalCenter))
	return xf
}

// Advance moves the start of the sweep forward to alpha.
func (s *Sweep) Advance(alpha float64) {
	beta := (alpha - s.Alpha0) / (1 - s.Alpha0)
	s.C0 = s.C0.Add(s.C.Sub(s.C0).Mul(beta))
	s.A0 += beta * (s.A - s.A0)
	s.Alpha0 = alpha
}

// Normalize wraps the angles so A0 is in [-pi, pi].
func (s *Sweep) Normalize() {
	const twoPi = 2 * math.Pi
	d := twoPi * math.Floor(s.A0/twoPi)
	s.A0 -= d
	s.A -= d
}
