package controllers

import (
	"math"

	"github.com/koteyur/physac2d/dynamics"
)

// VelocityLimit clamps linear and angular speed every step. A zero limit
// leaves that component alone.
type VelocityLimit struct {
	dynamics.ControllerBase

	MaxLinear  float64
	MaxAngular float64
	Filter     func(*dynamics.Body) bool
}

func NewVelocityLimit(maxLinear, maxAngular float64) *VelocityLimit {
	return &VelocityLimit{MaxLinear: maxLinear, MaxAngular: maxAngular}
}

func (l *VelocityLimit) Update(dt float64) {
	w := l.World()
	if w == nil {
		return
	}
	for _, b := range w.Bodies() {
		if !affected(b, l.Filter) {
			continue
		}
		if l.MaxLinear > 0 {
			v := b.LinearVelocity()
			if v.LenSqr() > l.MaxLinear*l.MaxLinear {
				b.SetLinearVelocity(v.Unit().Mul(l.MaxLinear))
			}
		}
		if l.MaxAngular > 0 {
			if a := b.AngularVelocity(); math.Abs(a) > l.MaxAngular {
				b.SetAngularVelocity(math.Copysign(l.MaxAngular, a))
			}
		}
	}
}
