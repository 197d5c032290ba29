package dynamics

import "github.com/koteyur/physac2d/geom"

// FrictionJoint resists relative motion up to a maximum force and
// torque. Top-down games use it for ground friction.
type FrictionJoint struct {
	jointBase

	localAnchorA geom.Vec2
	localAnchorB geom.Vec2
	maxForce     float64
	maxTorque    float64

	linearImpulse  geom.Vec2
	angularImpulse float64

	rA, rB      geom.Vec2
	linearMass  geom.Mat22
	angularMass float64
}

// NewFrictionJoint joins a and b at a world anchor. Both limits start at
// zero, so the joint does nothing until SetMaxForce or SetMaxTorque.
func NewFrictionJoint(a, b *Body, anchor geom.Vec2) (*FrictionJoint, error) {
	base, err := newJointBase(JointFriction, a, b)
	if err != nil {
		return nil, err
	}
	return &FrictionJoint{
		jointBase:    base,
		localAnchorA: localPoint(a, anchor),
		localAnchorB: localPoint(b, anchor),
	}, nil
}

func (j *FrictionJoint) AnchorA() geom.Vec2 { return worldPoint(j.bodyA, j.localAnchorA) }
func (j *FrictionJoint) AnchorB() geom.Vec2 { return worldPoint(j.bodyB, j.localAnchorB) }

func (j *FrictionJoint) ReactionForce(invDt float64) geom.Vec2 {
	return j.linearImpulse.Mul(invDt)
}

func (j *FrictionJoint) ReactionTorque(invDt float64) float64 { return invDt * j.angularImpulse }

func (j *FrictionJoint) MaxForce() float64 { return j.maxForce }

func (j *FrictionJoint) SetMaxForce(f float64) {
	mustValid("SetMaxForce", f)
	j.maxForce = f
}

func (j *FrictionJoint) MaxTorque() float64 { return j.maxTorque }

func (j *FrictionJoint) SetMaxTorque(t float64) {
	mustValid("SetMaxTorque", t)
	j.maxTorque = t
}

// pointMass is the 2x2 effective mass of a point constraint with arms rA
// and rB.
func pointMass(mA, mB, iA, iB float64, rA, rB geom.Vec2) geom.Mat22 {
	var k geom.Mat22
	k.Ex.X = mA + mB + iA*rA.Y*rA.Y + iB*rB.Y*rB.Y
	k.Ex.Y = -iA*rA.X*rA.Y - iB*rB.X*rB.Y
	k.Ey.X = k.Ex.Y
	k.Ey.Y = mA + mB + iA*rA.X*rA.X + iB*rB.X*rB.X
	return k
}

func (j *FrictionJoint) initVelocityConstraints(data *solverData) {
	j.prepare()
	mA, mB, iA, iB := j.invMassA, j.invMassB, j.invIA, j.invIB

	aA := data.positions[j.indexA].a
	vA, wA := data.velocities[j.indexA].v, data.velocities[j.indexA].w
	aB := data.positions[j.indexB].a
	vB, wB := data.velocities[j.indexB].v, data.velocities[j.indexB].w

	qA, qB := geom.NewRot(aA), geom.NewRot(aB)
	j.rA = qA.Apply(j.localAnchorA.Sub(j.localCenterA))
	j.rB = qB.Apply(j.localAnchorB.Sub(j.localCenterB))

	j.linearMass = pointMass(mA, mB, iA, iB, j.rA, j.rB).Inverse()

	j.angularMass = iA + iB
	if j.angularMass > 0 {
		j.angularMass = 1 / j.angularMass
	}

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

func (j *FrictionJoint) solveVelocityConstraints(data *solverData) {
	mA, mB, iA, iB := j.invMassA, j.invMassB, j.invIA, j.invIB
	vA, wA := data.velocities[j.indexA].v, data.velocities[j.indexA].w
	vB, wB := data.velocities[j.indexB].v, data.velocities[j.indexB].w
	h := data.step.dt

	{
		cdot := wB - wA
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

func (j *FrictionJoint) solvePositionConstraints(*solverData) bool { return true }
