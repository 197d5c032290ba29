package dynamics

import (
	"math"

	"github.com/koteyur/physac2d/geom"
)

// AngleJoint holds the relative angle of two bodies at a target. It is a
// soft velocity constraint without position correction.
type AngleJoint struct {
	jointBase

	targetAngle float64
	biasFactor  float64
	softness    float64
	maxImpulse  float64

	bias       float64
	massFactor float64
	impulse    float64
}

// NewAngleJoint keeps the current relative angle of b to a.
func NewAngleJoint(a, b *Body) (*AngleJoint, error) {
	base, err := newJointBase(JointAngle, a, b)
	if err != nil {
		return nil, err
	}
	return &AngleJoint{
		jointBase:   base,
		targetAngle: bodyAngle(b) - bodyAngle(a),
		biasFactor:  0.2,
		maxImpulse:  maxFloat,
	}, nil
}

func (j *AngleJoint) AnchorA() geom.Vec2 { return worldPoint(j.bodyA, geom.Vec2{}) }
func (j *AngleJoint) AnchorB() geom.Vec2 { return worldPoint(j.bodyB, geom.Vec2{}) }

func (j *AngleJoint) ReactionForce(float64) geom.Vec2 { return geom.Vec2{} }

func (j *AngleJoint) ReactionTorque(invDt float64) float64 { return invDt * j.impulse }

func (j *AngleJoint) TargetAngle() float64 { return j.targetAngle }

func (j *AngleJoint) SetTargetAngle(angle float64) {
	if angle != j.targetAngle {
		j.targetAngle = angle
		j.wakeBodies()
	}
}

// SetBiasFactor sets how much of the angle error is removed per step.
func (j *AngleJoint) SetBiasFactor(f float64) { j.biasFactor = f }

// SetSoftness in [0, 1) scales down the effective mass.
func (j *AngleJoint) SetSoftness(s float64) { j.softness = geom.Clamp(s, 0, 1) }

func (j *AngleJoint) SetMaxImpulse(m float64) { j.maxImpulse = m }

func (j *AngleJoint) initVelocityConstraints(data *solverData) {
	j.prepare()
	aA := data.positions[j.indexA].a
	aB := data.positions[j.indexB].a

	jointError := aB - aA - j.targetAngle
	j.bias = -j.biasFactor * data.step.invDt * jointError

	j.massFactor = 0
	if inv := j.invIA + j.invIB; inv > 0 {
		j.massFactor = (1 - j.softness) / inv
	}
	j.impulse = 0
}

func (j *AngleJoint) solveVelocityConstraints(data *solverData) {
	wA := data.velocities[j.indexA].w
	wB := data.velocities[j.indexB].w

	p := (j.bias - wB + wA) * j.massFactor
	p = math.Copysign(math.Min(math.Abs(p), j.maxImpulse), p)
	j.impulse += p

	data.velocities[j.indexA].w = wA - j.invIA*p
	data.velocities[j.indexB].w = wB + j.invIB*p
}

func (j *AngleJoint) solvePositionConstraints(*solverData) bool { return true }
