package dynamics

import (
	"math"

	"github.com/koteyur/physac2d/geom"
)

// PrismaticJoint lets B slide along an axis fixed in A without relative
// rotation, with an optional translation limit and motor.
type PrismaticJoint struct {
	jointBase

	localAnchorA   geom.Vec2
	localAnchorB   geom.Vec2
	localXAxisA    geom.Vec2
	localYAxisA    geom.Vec2
	referenceAngle float64

	enableLimit   bool
	lower, upper  float64
	enableMotor   bool
	motorSpeed    float64
	maxMotorForce float64

	impulse      geom.Vec3
	motorImpulse float64
	limitState   LimitState

	axis, perp geom.Vec2
	s1, s2     float64
	a1, a2     float64
	k          geom.Mat33
	motorMass  float64
}

// NewPrismaticJoint constrains b to slide along a world axis through a
// world anchor.
func NewPrismaticJoint(a, b *Body, anchor, axis geom.Vec2) (*PrismaticJoint, error) {
	base, err := newJointBase(JointPrismatic, a, b)
	if err != nil {
		return nil, err
	}
	x := localVector(a, axis).Unit()
	return &PrismaticJoint{
		jointBase:      base,
		localAnchorA:   localPoint(a, anchor),
		localAnchorB:   localPoint(b, anchor),
		localXAxisA:    x,
		localYAxisA:    geom.CrossSV(1, x),
		referenceAngle: bodyAngle(b) - bodyAngle(a),
	}, nil
}

func (j *PrismaticJoint) AnchorA() geom.Vec2 { return worldPoint(j.bodyA, j.localAnchorA) }
func (j *PrismaticJoint) AnchorB() geom.Vec2 { return worldPoint(j.bodyB, j.localAnchorB) }

func (j *PrismaticJoint) ReactionForce(invDt float64) geom.Vec2 {
	return j.perp.Mul(j.impulse.X).Add(j.axis.Mul(j.motorImpulse + j.impulse.Z)).Mul(invDt)
}

func (j *PrismaticJoint) ReactionTorque(invDt float64) float64 {
	return invDt * j.impulse.Y
}

// JointTranslation is the displacement of B's anchor along the axis.
func (j *PrismaticJoint) JointTranslation() float64 {
	d := worldPoint(j.bodyB, j.localAnchorB).Sub(worldPoint(j.bodyA, j.localAnchorA))
	return d.Dot(worldVector(j.bodyA, j.localXAxisA))
}

func (j *PrismaticJoint) IsLimitEnabled() bool { return j.enableLimit }

func (j *PrismaticJoint) EnableLimit(flag bool) {
	if flag != j.enableLimit {
		j.wakeBodies()
		j.enableLimit = flag
		j.impulse.Z = 0
	}
}

func (j *PrismaticJoint) Limits() (lower, upper float64) { return j.lower, j.upper }

func (j *PrismaticJoint) SetLimits(lower, upper float64) {
	if lower > upper {
		lower, upper = upper, lower
	}
	if lower != j.lower || upper != j.upper {
		j.wakeBodies()
		j.lower = lower
		j.upper = upper
		j.impulse.Z = 0
	}
}

func (j *PrismaticJoint) IsMotorEnabled() bool { return j.enableMotor }

func (j *PrismaticJoint) EnableMotor(flag bool) {
	j.wakeBodies()
	j.enableMotor = flag
}

func (j *PrismaticJoint) MotorSpeed() float64 { return j.motorSpeed }

func (j *PrismaticJoint) SetMotorSpeed(speed float64) {
	j.wakeBodies()
	j.motorSpeed = speed
}

func (j *PrismaticJoint) SetMaxMotorForce(force float64) {
	j.wakeBodies()
	j.maxMotorForce = force
}

func (j *PrismaticJoint) MotorForce(invDt float64) float64 { return invDt * j.motorImpulse }

func (j *PrismaticJoint) initVelocityConstraints(data *solverData) {
	j.prepare()
	mA, mB, iA, iB := j.invMassA, j.invMassB, j.invIA, j.invIB

	cA, aA := data.positions[j.indexA].c, data.positions[j.indexA].a
	vA, wA := data.velocities[j.indexA].v, data.velocities[j.indexA].w
	cB, aB := data.positions[j.indexB].c, data.positions[j.indexB].a
	vB, wB := data.velocities[j.indexB].v, data.velocities[j.indexB].w

	qA, qB := geom.NewRot(aA), geom.NewRot(aB)
	rA := qA.Apply(j.localAnchorA.Sub(j.localCenterA))
	rB := qB.Apply(j.localAnchorB.Sub(j.localCenterB))
	d := cB.Sub(cA).Add(rB).Sub(rA)

	j.axis = qA.Apply(j.localXAxisA)
	j.a1 = d.Add(rA).Cross(j.axis)
	j.a2 = rB.Cross(j.axis)

	j.motorMass = mA + mB + iA*j.a1*j.a1 + iB*j.a2*j.a2
	if j.motorMass > 0 {
		j.motorMass = 1 / j.motorMass
	}

	j.perp = qA.Apply(j.localYAxisA)
	j.s1 = d.Add(rA).Cross(j.perp)
	j.s2 = rB.Cross(j.perp)

	j.k = j.effectiveMass(mA, mB, iA, iB)

	if j.enableLimit {
		translation := j.axis.Dot(d)
		switch {
		case math.Abs(j.upper-j.lower) < 2*linearSlop:
			j.limitState = LimitEqual
		case translation <= j.lower:
			if j.limitState != LimitAtLower {
				j.impulse.Z = 0
			}
			j.limitState = LimitAtLower
		case translation >= j.upper:
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
		j.impulse.Z = 0
	}

	if !j.enableMotor {
		j.motorImpulse = 0
	}

	if data.step.warmStarting {
		j.impulse = j.impulse.Mul(data.step.dtRatio)
		j.motorImpulse *= data.step.dtRatio

		axial := j.motorImpulse + j.impulse.Z
		p := j.perp.Mul(j.impulse.X).Add(j.axis.Mul(axial))
		lA := j.impulse.X*j.s1 + j.impulse.Y + axial*j.a1
		lB := j.impulse.X*j.s2 + j.impulse.Y + axial*j.a2

		vA = vA.Sub(p.Mul(mA))
		wA -= iA * lA
		vB = vB.Add(p.Mul(mB))
		wB += iB * lB
	} else {
		j.impulse = geom.Vec3{}
		j.motorImpulse = 0
	}

	data.velocities[j.indexA] = velocity{vA, wA}
	data.velocities[j.indexB] = velocity{vB, wB}
}

func (j *PrismaticJoint) effectiveMass(mA, mB, iA, iB float64) geom.Mat33 {
	k11 := mA + mB + iA*j.s1*j.s1 + iB*j.s2*j.s2
	k12 := iA*j.s1 + iB*j.s2
	k13 := iA*j.s1*j.a1 + iB*j.s2*j.a2
	k22 := iA + iB
	if k22 == 0 {
		// both bodies have fixed rotation
		k22 = 1
	}
	k23 := iA*j.a1 + iB*j.a2
	k33 := mA + mB + iA*j.a1*j.a1 + iB*j.a2*j.a2
	return geom.Mat33{
		Ex: geom.Vec3{X: k11, Y: k12, Z: k13},
		Ey: geom.Vec3{X: k12, Y: k22, Z: k23},
		Ez: geom.Vec3{X: k13, Y: k23, Z: k33},
	}
}

func (j *PrismaticJoint) solveVelocityConstraints(data *solverData) {
	mA, mB, iA, iB := j.invMassA, j.invMassB, j.invIA, j.invIB
	vA, wA := data.velocities[j.indexA].v, data.velocities[j.indexA].w
	vB, wB := data.velocities[j.indexB].v, data.velocities[j.indexB].w

	if j.enableMotor && j.limitState != LimitEqual {
		cdot := j.axis.Dot(vB.Sub(vA)) + j.a2*wB - j.a1*wA
		impulse := j.motorMass * (j.motorSpeed - cdot)
		old := j.motorImpulse
		maxImpulse := data.step.dt * j.maxMotorForce
		j.motorImpulse = geom.Clamp(old+impulse, -maxImpulse, maxImpulse)
		impulse = j.motorImpulse - old

		p := j.axis.Mul(impulse)
		vA = vA.Sub(p.Mul(mA))
		wA -= iA * impulse * j.a1
		vB = vB.Add(p.Mul(mB))
		wB += iB * impulse * j.a2
	}

	cdot1 := geom.V(j.perp.Dot(vB.Sub(vA))+j.s2*wB-j.s1*wA, wB-wA)

	if j.enableLimit && j.limitState != LimitInactive {
		cdot2 := j.axis.Dot(vB.Sub(vA)) + j.a2*wB - j.a1*wA
		cdot := geom.Vec3{X: cdot1.X, Y: cdot1.Y, Z: cdot2}

		f1 := j.impulse
		df := j.k.Solve33(cdot.Neg())
		j.impulse = j.impulse.Add(df)

		switch j.limitState {
		case LimitAtLower:
			j.impulse.Z = math.Max(j.impulse.Z, 0)
		case LimitAtUpper:
			j.impulse.Z = math.Min(j.impulse.Z, 0)
		}

		// re-solve the first two rows with the clamped third impulse
		b := cdot1.Neg().Sub(geom.V(j.k.Ez.X, j.k.Ez.Y).Mul(j.impulse.Z - f1.Z))
		f2r := j.k.Solve22(b).Add(geom.V(f1.X, f1.Y))
		j.impulse.X = f2r.X
		j.impulse.Y = f2r.Y

		df = j.impulse.Sub(f1)

		p := j.perp.Mul(df.X).Add(j.axis.Mul(df.Z))
		lA := df.X*j.s1 + df.Y + df.Z*j.a1
		lB := df.X*j.s2 + df.Y + df.Z*j.a2

		vA = vA.Sub(p.Mul(mA))
		wA -= iA * lA
		vB = vB.Add(p.Mul(mB))
		wB += iB * lB
	} else {
		df := j.k.Solve22(cdot1.Neg())
		j.impulse.X += df.X
		j.impulse.Y += df.Y

		p := j.perp.Mul(df.X)
		lA := df.X*j.s1 + df.Y
		lB := df.X*j.s2 + df.Y

		vA = vA.Sub(p.Mul(mA))
		wA -= iA * lA
		vB = vB.Add(p.Mul(mB))
		wB += iB * lB
	}

	data.velocities[j.indexA] = velocity{vA, wA}
	data.velocities[j.indexB] = velocity{vB, wB}
}

func (j *PrismaticJoint) solvePositionConstraints(data *solverData) bool {
	mA, mB, iA, iB := j.invMassA, j.invMassB, j.invIA, j.invIB
	cA, aA := data.positions[j.indexA].c, data.positions[j.indexA].a
	cB, aB := data.positions[j.indexB].c, data.positions[j.indexB].a

	qA, qB := geom.NewRot(aA), geom.NewRot(aB)
	rA := qA.Apply(j.localAnchorA.Sub(j.localCenterA))
	rB := qB.Apply(j.localAnchorB.Sub(j.localCenterB))
	d := cB.Add(rB).Sub(cA).Sub(rA)

	j.axis = qA.Apply(j.localXAxisA)
	j.a1 = d.Add(rA).Cross(j.axis)
	j.a2 = rB.Cross(j.axis)
	j.perp = qA.Apply(j.localYAxisA)
	j.s1 = d.Add(rA).Cross(j.perp)
	j.s2 = rB.Cross(j.perp)

	c1 := geom.V(j.perp.Dot(d), aB-aA-j.referenceAngle)
	linearError := math.Abs(c1.X)
	angularError := math.Abs(c1.Y)

	maxLinear := data.settings.MaxLinearCorrection
	active := false
	c2 := 0.0
	if j.enableLimit {
		translation := j.axis.Dot(d)
		switch {
		case math.Abs(j.upper-j.lower) < 2*linearSlop:
			c2 = geom.Clamp(translation-j.lower, -maxLinear, maxLinear)
			linearError = math.Max(linearError, math.Abs(translation-j.lower))
			active = true
		case translation <= j.lower:
			c2 = geom.Clamp(translation-j.lower+linearSlop, -maxLinear, 0)
			linearError = math.Max(linearError, j.lower-translation)
			active = true
		case translation >= j.upper:
			c2 = geom.Clamp(translation-j.upper-linearSlop, 0, maxLinear)
			linearError = math.Max(linearError, translation-j.upper)
			active = true
		}
	}

	k := j.effectiveMass(mA, mB, iA, iB)
	var impulse geom.Vec3
	if active {
		impulse = k.Solve33(geom.Vec3{X: c1.X, Y: c1.Y, Z: c2}).Neg()
	} else {
		i2 := k.Solve22(c1.Neg())
		impulse = geom.Vec3{X: i2.X, Y: i2.Y}
	}

	p := j.perp.Mul(impulse.X).Add(j.axis.Mul(impulse.Z))
	lA := impulse.X*j.s1 + impulse.Y + impulse.Z*j.a1
	lB := impulse.X*j.s2 + impulse.Y + impulse.Z*j.a2

	cA = cA.Sub(p.Mul(mA))
	aA -= iA * lA
	cB = cB.Add(p.Mul(mB))
	aB += iB * lB

	data.positions[j.indexA] = position{cA, aA}
	data.positions[j.indexB] = position{cB, aB}

	return linearError <= linearSlop && angularError <= angularSlop
}
