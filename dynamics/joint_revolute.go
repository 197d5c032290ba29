package dynamics

import (
	"math"

	"github.com/koteyur/physac2d/geom"
)

// RevoluteJoint pins two bodies at a shared point and lets them rotate
// about it, with an optional angle limit and motor.
type RevoluteJoint struct {
	jointBase

	localAnchorA   geom.Vec2
	localAnchorB   geom.Vec2
	referenceAngle float64

	enableLimit    bool
	lowerAngle     float64
	upperAngle     float64
	enableMotor    bool
	motorSpeed     float64
	maxMotorTorque float64

	impulse      geom.Vec3
	motorImpulse float64
	limitState   LimitState

	rA, rB    geom.Vec2
	mass      geom.Mat33
	motorMass float64
}

// NewRevoluteJoint pins a and b at a world anchor. The current relative
// angle becomes the reference angle.
func NewRevoluteJoint(a, b *Body, anchor geom.Vec2) (*RevoluteJoint, error) {
	base, err := newJointBase(JointRevolute, a, b)
	if err != nil {
		return nil, err
	}
	return &RevoluteJoint{
		jointBase:      base,
		localAnchorA:   localPoint(a, anchor),
		localAnchorB:   localPoint(b, anchor),
		referenceAngle: bodyAngle(b) - bodyAngle(a),
	}, nil
}

func (j *RevoluteJoint) AnchorA() geom.Vec2 { return worldPoint(j.bodyA, j.localAnchorA) }
func (j *RevoluteJoint) AnchorB() geom.Vec2 { return worldPoint(j.bodyB, j.localAnchorB) }

func (j *RevoluteJoint) ReactionForce(invDt float64) geom.Vec2 {
	return geom.V(j.impulse.X, j.impulse.Y).Mul(invDt)
}

func (j *RevoluteJoint) ReactionTorque(invDt float64) float64 {
	return invDt * j.impulse.Z
}

func (j *RevoluteJoint) ReferenceAngle() float64 { return j.referenceAngle }

// JointAngle is the current angle of B relative to A, minus the reference.
// Before the joint is added a nil body counts as the unrotated ground.
func (j *RevoluteJoint) JointAngle() float64 {
	return bodyAngle(j.bodyB) - bodyAngle(j.bodyA) - j.referenceAngle
}

func (j *RevoluteJoint) JointSpeed() float64 {
	return bodyAngularVelocity(j.bodyB) - bodyAngularVelocity(j.bodyA)
}

func (j *RevoluteJoint) IsLimitEnabled() bool { return j.enableLimit }

func (j *RevoluteJoint) EnableLimit(flag bool) {
	if flag != j.enableLimit {
		j.wakeBodies()
		j.enableLimit = flag
		j.impulse.Z = 0
	}
}

func (j *RevoluteJoint) Limits() (lower, upper float64) { return j.lowerAngle, j.upperAngle }

// SetLimits sets the angle range; lower must not exceed upper.
func (j *RevoluteJoint) SetLimits(lower, upper float64) {
	if lower > upper {
		lower, upper = upper, lower
	}
	if lower != j.lowerAngle || upper != j.upperAngle {
		j.wakeBodies()
		j.impulse.Z = 0
		j.lowerAngle = lower
		j.upperAngle = upper
	}
}

func (j *RevoluteJoint) IsMotorEnabled() bool { return j.enableMotor }

func (j *RevoluteJoint) EnableMotor(flag bool) {
	j.wakeBodies()
	j.enableMotor = flag
}

func (j *RevoluteJoint) MotorSpeed() float64 { return j.motorSpeed }

func (j *RevoluteJoint) SetMotorSpeed(speed float64) {
	j.wakeBodies()
	j.motorSpeed = speed
}

func (j *RevoluteJoint) SetMaxMotorTorque(torque float64) {
	j.wakeBodies()
	j.maxMotorTorque = torque
}

func (j *RevoluteJoint) MotorTorque(invDt float64) float64 { return invDt * j.motorImpulse }

func (j *RevoluteJoint) initVelocityConstraints(data *solverData) {
	j.prepare()
	mA, mB, iA, iB := j.invMassA, j.invMassB, j.invIA, j.invIB

	aA := data.positions[j.indexA].a
	vA, wA := data.velocities[j.indexA].v, data.velocities[j.indexA].w
	aB := data.positions[j.indexB].a
	vB, wB := data.velocities[j.indexB].v, data.velocities[j.indexB].w

	qA, qB := geom.NewRot(aA), geom.NewRot(aB)
	j.rA = qA.Apply(j.localAnchorA.Sub(j.localCenterA))
	j.rB = qB.Apply(j.localAnchorB.Sub(j.localCenterB))
	rA, rB := j.rA, j.rB

	fixedRotation := iA+iB == 0

	j.mass.Ex.X = mA + mB + rA.Y*rA.Y*iA + rB.Y*rB.Y*iB
	j.mass.Ey.X = -rA.Y*rA.X*iA - rB.Y*rB.X*iB
	j.mass.Ez.X = -rA.Y*iA - rB.Y*iB
	j.mass.Ex.Y = j.mass.Ey.X
	j.mass.Ey.Y = mA + mB + rA.X*rA.X*iA + rB.X*rB.X*iB
	j.mass.Ez.Y = rA.X*iA + rB.X*iB
	j.mass.Ex.Z = j.mass.Ez.X
	j.mass.Ey.Z = j.mass.Ez.Y
	j.mass.Ez.Z = iA + iB

	j.motorMass = iA + iB
	if j.motorMass > 0 {
		j.motorMass = 1 / j.motorMass
	}

	if !j.enableMotor || fixedRotation {
		j.motorImpulse = 0
	}

	if j.enableLimit && !fixedRotation {
		angle := aB - aA - j.referenceAngle
		switch {
		case math.Abs(j.upperAngle-j.lowerAngle) < 2*angularSlop:
			j.limitState = LimitEqual
		case angle <= j.lowerAngle:
			if j.limitState != LimitAtLower {
				j.impulse.Z = 0
			}
			j.limitState = LimitAtLower
		case angle >= j.upperAngle:
			if j.limitState != LimitAtUpper {
				j.impulse.Z = 0
			}
			j.limitState = LimitAtUpper
		default:
			j.limitState = LimitInactive
			j.impulse.Z = 0
		}
	} else {
		j.limitState = LimitInactive
	}

	if data.step.warmStarting {
		j.impulse = j.impulse.Mul(data.step.dtRatio)
		j.motorImpulse *= data.step.dtRatio

		p := geom.V(j.impulse.X, j.impulse.Y)
		vA = vA.Sub(p.Mul(mA))
		wA -= iA * (rA.Cross(p) + j.motorImpulse + j.impulse.Z)
		vB = vB.Add(p.Mul(mB))
		wB += iB * (rB.Cross(p) + j.motorImpulse + j.impulse.Z)
	} else {
		j.impulse = geom.Vec3{}
		j.motorImpulse = 0
	}

	data.velocities[j.indexA] = velocity{vA, wA}
	data.velocities[j.indexB] = velocity{vB, wB}
}

func (j *RevoluteJoint) solveVelocityConstraints(data *solverData) {
	mA, mB, iA, iB := j.invMassA, j.invMassB, j.invIA, j.invIB
	vA, wA := data.velocities[j.indexA].v, data.velocities[j.indexA].w
	vB, wB := data.velocities[j.indexB].v, data.velocities[j.indexB].w
	rA, rB := j.rA, j.rB

	fixedRotation := iA+iB == 0

	if j.enableMotor && j.limitState != LimitEqual && !fixedRotation {
		cdot := wB - wA - j.motorSpeed
		impulse := -j.motorMass * cdot
		old := j.motorImpulse
		maxImpulse := data.step.dt * j.maxMotorTorque
		j.motorImpulse = geom.Clamp(old+impulse, -maxImpulse, maxImpulse)
		impulse = j.motorImpulse - old

		wA -= iA * impulse
		wB += iB * impulse
	}

	if j.enableLimit && j.limitState != LimitInactive && !fixedRotation {
		cdot1 := vB.Add(geom.CrossSV(wB, rB)).Sub(vA).Sub(geom.CrossSV(wA, rA))
		cdot2 := wB - wA
		cdot := geom.Vec3{X: cdot1.X, Y: cdot1.Y, Z: cdot2}

		impulse := j.mass.Solve33(cdot).Neg()

		switch j.limitState {
		case LimitEqual:
			j.impulse = j.impulse.Add(impulse)
		case LimitAtLower, LimitAtUpper:
			newImpulse := j.impulse.Z + impulse.Z
			if (j.limitState == LimitAtLower && newImpulse < 0) || (j.limitState == LimitAtUpper && newImpulse > 0) {
				rhs := cdot1.Neg().Add(geom.V(j.mass.Ez.X, j.mass.Ez.Y).Mul(j.impulse.Z))
				reduced := j.mass.Solve22(rhs)
				impulse.X = reduced.X
				impulse.Y = reduced.Y
				impulse.Z = -j.impulse.Z
				j.impulse.X += reduced.X
				j.impulse.Y += reduced.Y
				j.impulse.Z = 0
			} else {
				j.impulse = j.impulse.Add(impulse)
			}
		}

		p := geom.V(impulse.X, impulse.Y)
		vA = vA.Sub(p.Mul(mA))
		wA -= iA * (rA.Cross(p) + impulse.Z)
		vB = vB.Add(p.Mul(mB))
		wB += iB * (rB.Cross(p) + impulse.Z)
	} else {
		cdot := vB.Add(geom.CrossSV(wB, rB)).Sub(vA).Sub(geom.CrossSV(wA, rA))
		impulse := j.mass.Solve22(cdot.Neg())

		j.impulse.X += impulse.X
		j.impulse.Y += impulse.Y

		vA = vA.Sub(impulse.Mul(mA))
		wA -= iA * rA.Cross(impulse)
		vB = vB.Add(impulse.Mul(mB))
		wB += iB * rB.Cross(impulse)
	}

	data.velocities[j.indexA] = velocity{vA, wA}
	data.velocities[j.indexB] = velocity{vB, wB}
}

func (j *RevoluteJoint) solvePositionConstraints(data *solverData) bool {
	mA, mB, iA, iB := j.invMassA, j.invMassB, j.invIA, j.invIB
	cA, aA := data.positions[j.indexA].c, data.positions[j.indexA].a
	cB, aB := data.positions[j.indexB].c, data.positions[j.indexB].a

	angularError := 0.0
	fixedRotation := iA+iB == 0
	maxAngular := data.settings.MaxAngularCorrection

	if j.enableLimit && j.limitState != LimitInactive && !fixedRotation {
		angle := aB - aA - j.referenceAngle
		limitImpulse := 0.0

		switch j.limitState {
		case LimitEqual:
			c := geom.Clamp(angle-j.lowerAngle, -maxAngular, maxAngular)
			limitImpulse = -j.motorMass * c
			angularError = math.Abs(c)
		case LimitAtLower:
			c := angle - j.lowerAngle
			angularError = -c
			c = geom.Clamp(c+angularSlop, -maxAngular, 0)
			limitImpulse = -j.motorMass * c
		case LimitAtUpper:
			c := angle - j.upperAngle
			angularError = c
			c = geom.Clamp(c-angularSlop, 0, maxAngular)
			limitImpulse = -j.motorMass * c
		}

		aA -= iA * limitImpulse
		aB += iB * limitImpulse
	}

	qA, qB := geom.NewRot(aA), geom.NewRot(aB)
	rA := qA.Apply(j.localAnchorA.Sub(j.localCenterA))
	rB := qB.Apply(j.localAnchorB.Sub(j.localCenterB))

	c := cB.Add(rB).Sub(cA).Sub(rA)
	positionError := c.Len()

	var k geom.Mat22
	k.Ex.X = mA + mB + iA*rA.Y*rA.Y + iB*rB.Y*rB.Y
	k.Ex.Y = -iA*rA.X*rA.Y - iB*rB.X*rB.Y
	k.Ey.X = k.Ex.Y
	k.Ey.Y = mA + mB + iA*rA.X*rA.X + iB*rB.X*rB.X

	impulse := k.Solve(c).Neg()

	cA = cA.Sub(impulse.Mul(mA))
	aA -= iA * rA.Cross(impulse)
	cB = cB.Add(impulse.Mul(mB))
	aB += iB * rB.Cross(impulse)

	data.positions[j.indexA] = position{cA, aA}
	data.positions[j.indexB] = position{cB, aB}

	return positionError <= linearSlop && angularError <= angularSlop
}
