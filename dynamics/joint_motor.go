package dynamics

import "github.com/koteyur/physac2d/geom"

// MotorJoint drives B towards a target offset from A, limited by a
// maximum force and torque.
type MotorJoint struct {
	jointBase

	linearOffset     geom.Vec2
	angularOffset    float64
	maxForce         float64
	maxTorque        float64
	correctionFactor float64

	linearImpulse  geom.Vec2
	angularImpulse float64

	rA, rB       geom.Vec2
	linearError  geom.Vec2
	angularError float64
	linearMass   geom.Mat22
	angularMass  float64
}

// NewMotorJoint uses the current pose of b relative to a as the target.
// Both bodies must be non-nil so the offset can be measured, unless a is
// the ground.
func NewMotorJoint(a, b *Body) (*MotorJoint, error) {
	base, err := newJointBase(JointMotor, a, b)
	if err != nil {
		return nil, err
	}
	var target geom.Vec2
	if b != nil {
		target = b.Position()
	}
	return &MotorJoint{
		jointBase:        base,
		linearOffset:     localPoint(a, target),
		angularOffset:    bodyAngle(b) - bodyAngle(a),
		maxForce:         1,
		maxTorque:        1,
		correctionFactor: 0.3,
	}, nil
}

func (j *MotorJoint) AnchorA() geom.Vec2 { return worldPoint(j.bodyA, geom.Vec2{}) }
func (j *MotorJoint) AnchorB() geom.Vec2 { return worldPoint(j.bodyB, geom.Vec2{}) }

func (j *MotorJoint) ReactionForce(invDt float64) geom.Vec2 {
	return j.linearImpulse.Mul(invDt)
}

func (j *MotorJoint) ReactionTorque(invDt float64) float64 { return invDt * j.angularImpulse }

func (j *MotorJoint) LinearOffset() geom.Vec2 { return j.linearOffset }

// SetLinearOffset sets the target position of B in A's frame.
func (j *MotorJoint) SetLinearOffset(offset geom.Vec2) {
	if offset != j.linearOffset {
		j.wakeBodies()
		j.linearOffset = offset
	}
}

func (j *MotorJoint) AngularOffset() float64 { return j.angularOffset }

func (j *MotorJoint) SetAngularOffset(offset float64) {
	if offset != j.angularOffset {
		j.wakeBodies()
		j.angularOffset = offset
	}
}

func (j *MotorJoint) SetMaxForce(f float64) {
	mustValid("SetMaxForce", f)
	j.maxForce = f
}

func (j *MotorJoint) SetMaxTorque(t float64) {
	mustValid("SetMaxTorque", t)
	j.maxTorque = t
}

// SetCorrectionFactor sets the fraction of the position error removed per
// step, clamped to [0, 1].
func (j *MotorJoint) SetCorrectionFactor(f float64) {
	j.correctionFactor = geom.Clamp(f, 0, 1)
}

func (j *MotorJoint) initVelocityConstraints(data *solverData) {
	j.prepare()
	mA, mB, iA, iB := j.invMassA, j.invMassB, j.invIA, j.invIB

	cA, aA := data.positions[j.indexA].c, data.positions[j.indexA].a
	vA, wA := data.velocities[j.indexA].v, data.velocities[j.indexA].w
	cB, aB := data.positions[j.indexB].c, data.positions[j.indexB].a
	vB, wB := data.velocities[j.indexB].v, data.velocities[j.indexB].w

	qA, qB := geom.NewRot(aA), geom.NewRot(aB)
	j.rA = qA.Apply(j.linearOffset.Sub(j.localCenterA))
	j.rB = qB.Apply(j.localCenterB.Neg())

	j.linearMass = pointMass(mA, mB, iA, iB, j.rA, j.rB).Inverse()
	j.angularMass = iA + iB
	if j.angularMass > 0 {
		j.angularMass = 1 / j.angularMass
	}

	j.linearError = cB.Add(j.rB).Sub(cA).Sub(j.rA)
	j.angularError = aB - aA - j.angularOffset

	if data.step.warmStarting {
		j.linearImpulse = j.linearImpulse.Mul(data.step.dtRatio)
		j.angularImpulse *= data.step.dtRatio

		p := j.linearImpulse
		vA = vA.Sub(p.Mul(mA))
		wA -= iA * (j.rA.Cross(p) + j.angularImpulse)
		vB = vB.Add(p.Mul(mB))
		wB += iB * (j.rB.Cross(p) + j.angularImpulse)
	} else {
		j.linearImpulse = geom.Vec2{}
		j.angularImpulse = 0
	}

	data.velocities[j.indexA] = velocity{vA, wA}
	data.velocities[j.indexB] = velocity{vB, wB}
}

func (j *MotorJoint) solveVelocityConstraints(data *solverData) {
	mA, mB, iA, iB := j.invMassA, j.invMassB, j.invIA, j.invIB
	vA, wA := data.velocities[j.indexA].v, data.velocities[j.indexA].w
	vB, wB := data.velocities[j.indexB].v, data.velocities[j.indexB].w

	h := data.step.dt
	invH := data.step.invDt

	{
		cdot := wB - wA + invH*j.correctionFactor*j.angularError
		impulse := -j.angularMass * cdot
		old := j.angularImpulse
		maxImpulse := h * j.maxTorque
		j.angularImpulse = geom.Clamp(old+impulse, -maxImpulse, maxImpulse)
		impulse = j.angularImpulse - old

		wA -= iA * impulse
		wB += iB * impulse
	}

	{
		cdot := vB.Add(geom.CrossSV(wB, j.rB)).Sub(vA).Sub(geom.CrossSV(wA, j.rA))
		cdot = cdot.Add(j.linearError.Mul(invH * j.correctionFactor))

		impulse := j.linearMass.MulV(cdot).Neg()
		old := j.linearImpulse
		j.linearImpulse = j.linearImpulse.Add(impulse)

		maxImpulse := h * j.maxForce
		if j.linearImpulse.LenSqr() > maxImpulse*maxImpulse {
			j.linearImpulse = j.linearImpulse.Unit().Mul(maxImpulse)
		}
		impulse = j.linearImpulse.Sub(old)

		vA = vA.Sub(impulse.Mul(mA))
		wA -= iA * j.rA.Cross(impulse)
		vB = vB.Add(impulse.Mul(mB))
		wB += iB * j.rB.Cross(impulse)
	}

	data.velocities[j.indexA] = velocity{vA, wA}
	data.velocities[j.indexB] = velocity{vB, wB}
}

func (j *MotorJoint) solvePositionConstraints(*solverData) bool { return true }
