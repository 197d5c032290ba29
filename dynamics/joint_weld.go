package dynamics

import (
	"math"

	"github.com/koteyur/physac2d/geom"
)

// WeldJoint glues two bodies together. A positive frequency softens the
// angular row into a spring.
type WeldJoint struct {
	jointBase

	localAnchorA   geom.Vec2
	localAnchorB   geom.Vec2
	referenceAngle float64
	frequencyHz    float64
	dampingRatio   float64

	impulse geom.Vec3

	rA, rB geom.Vec2
	mass   geom.Mat33
	gamma  float64
	bias   float64
}

// NewWeldJoint welds a and b at a world anchor in their current relative
// orientation.
func NewWeldJoint(a, b *Body, anchor geom.Vec2) (*WeldJoint, error) {
	base, err := newJointBase(JointWeld, a, b)
	if err != nil {
		return nil, err
	}
	return &WeldJoint{
		jointBase:      base,
		localAnchorA:   localPoint(a, anchor),
		localAnchorB:   localPoint(b, anchor),
		referenceAngle: bodyAngle(b) - bodyAngle(a),
	}, nil
}

func (j *WeldJoint) AnchorA() geom.Vec2 { return worldPoint(j.bodyA, j.localAnchorA) }
func (j *WeldJoint) AnchorB() geom.Vec2 { return worldPoint(j.bodyB, j.localAnchorB) }

func (j *WeldJoint) ReactionForce(invDt float64) geom.Vec2 {
	return geom.V(j.impulse.X, j.impulse.Y).Mul(invDt)
}

func (j *WeldJoint) ReactionTorque(invDt float64) float64 { return invDt * j.impulse.Z }

func (j *WeldJoint) ReferenceAngle() float64 { return j.referenceAngle }

func (j *WeldJoint) SetFrequency(hz float64) { j.frequencyHz = hz }

func (j *WeldJoint) SetDampingRatio(r float64) { j.dampingRatio = r }

func weldMass(mA, mB, iA, iB float64, rA, rB geom.Vec2) geom.Mat33 {
	var k geom.Mat33
	k.Ex.X = mA + mB + rA.Y*rA.Y*iA + rB.Y*rB.Y*iB
	k.Ey.X = -rA.Y*rA.X*iA - rB.Y*rB.X*iB
	k.Ez.X = -rA.Y*iA - rB.Y*iB
	k.Ex.Y = k.Ey.X
	k.Ey.Y = mA + mB + rA.X*rA.X*iA + rB.X*rB.X*iB
	k.Ez.Y = rA.X*iA + rB.X*iB
	k.Ex.Z = k.Ez.X
	k.Ey.Z = k.Ez.Y
	k.Ez.Z = iA + iB
	return k
}

func (j *WeldJoint) initVelocityConstraints(data *solverData) {
	j.prepare()
	mA, mB, iA, iB := j.invMassA, j.invMassB, j.invIA, j.invIB

	aA := data.positions[j.indexA].a
	vA, wA := data.velocities[j.indexA].v, data.velocities[j.indexA].w
	aB := data.positions[j.indexB].a
	vB, wB := data.velocities[j.indexB].v, data.velocities[j.indexB].w

	qA, qB := geom.NewRot(aA), geom.NewRot(aB)
	j.rA = qA.Apply(j.localAnchorA.Sub(j.localCenterA))
	j.rB = qB.Apply(j.localAnchorB.Sub(j.localCenterB))

	k := weldMass(mA, mB, iA, iB, j.rA, j.rB)

	switch {
	case j.frequencyHz > 0:
		j.mass = k.Inverse22()

		invM := iA + iB
		m := 0.0
		if invM > 0 {
			m = 1 / invM
		}
		c := aB - aA - j.referenceAngle
		j.gamma, j.bias = springCoefficients(m, c, j.frequencyHz, j.dampingRatio, data.step.dt)

		invM += j.gamma
		j.mass.Ez.Z = 0
		if invM != 0 {
			j.mass.Ez.Z = 1 / invM
		}
	case k.Ez.Z == 0:
		j.mass = k.Inverse22()
		j.gamma, j.bias = 0, 0
	default:
		j.mass = k.SymInverse33()
		j.gamma, j.bias = 0, 0
	}

	if data.step.warmStarting {
		j.impulse = j.impulse.Mul(data.step.dtRatio)
		p := geom.V(j.impulse.X, j.impulse.Y)
		vA = vA.Sub(p.Mul(mA))
		wA -= iA * (j.rA.Cross(p) + j.impulse.Z)
		vB = vB.Add(p.Mul(mB))
		wB += iB * (j.rB.Cross(p) + j.impulse.Z)
	} else {
		j.impulse = geom.Vec3{}
	}

	data.velocities[j.indexA] = velocity{vA, wA}
	data.velocities[j.indexB] = velocity{vB, wB}
}

func (j *WeldJoint) solveVelocityConstraints(data *solverData) {
	mA, mB, iA, iB := j.invMassA, j.invMassB, j.invIA, j.invIB
	vA, wA := data.velocities[j.indexA].v, data.velocities[j.indexA].w
	vB, wB := data.velocities[j.indexB].v, data.velocities[j.indexB].w
	rA, rB := j.rA, j.rB

	if j.frequencyHz > 0 {
		cdot2 := wB - wA
		impulse2 := -j.mass.Ez.Z * (cdot2 + j.bias + j.gamma*j.impulse.Z)
		j.impulse.Z += impulse2
		wA -= iA * impulse2
		wB += iB * impulse2

		cdot1 := vB.Add(geom.CrossSV(wB, rB)).Sub(vA).Sub(geom.CrossSV(wA, rA))
		impulse1 := j.mass.MulV2(cdot1).Neg()
		j.impulse.X += impulse1.X
		j.impulse.Y += impulse1.Y

		vA = vA.Sub(impulse1.Mul(mA))
		wA -= iA * rA.Cross(impulse1)
		vB = vB.Add(impulse1.Mul(mB))
		wB += iB * rB.Cross(impulse1)
	} else {
		cdot1 := vB.Add(geom.CrossSV(wB, rB)).Sub(vA).Sub(geom.CrossSV(wA, rA))
		cdot2 := wB - wA
		impulse := j.mass.MulV(geom.Vec3{X: cdot1.X, Y: cdot1.Y, Z: cdot2}).Neg()
		j.impulse = j.impulse.Add(impulse)

		p := geom.V(impulse.X, impulse.Y)
		vA = vA.Sub(p.Mul(mA))
		wA -= iA * (rA.Cross(p) + impulse.Z)
		vB = vB.Add(p.Mul(mB))
		wB += iB * (rB.Cross(p) + impulse.Z)
	}

	data.velocities[j.indexA] = velocity{vA, wA}
	data.velocities[j.indexB] = velocity{vB, wB}
}

func (j *WeldJoint) solvePositionConstraints(data *solverData) bool {
	mA, mB, iA, iB := j.invMassA, j.invMassB, j.invIA, j.invIB
	cA, aA := data.positions[j.indexA].c, data.positions[j.indexA].a
	cB, aB := data.positions[j.indexB].c, data.positions[j.indexB].a

	qA, qB := geom.NewRot(aA), geom.NewRot(aB)
	rA := qA.Apply(j.localAnchorA.Sub(j.localCenterA))
	rB := qB.Apply(j.localAnchorB.Sub(j.localCenterB))

	k := weldMass(mA, mB, iA, iB, rA, rB)
	c1 := cB.Add(rB).Sub(cA).Sub(rA)
	positionError := c1.Len()
	angularError := 0.0

	if j.frequencyHz > 0 {
		p := k.Solve22(c1).Neg()
		cA = cA.Sub(p.Mul(mA))
		aA -= iA * rA.Cross(p)
		cB = cB.Add(p.Mul(mB))
		aB += iB * rB.Cross(p)
	} else {
		c2 := aB - aA - j.referenceAngle
		angularError = math.Abs(c2)

		var impulse geom.Vec3
		if k.Ez.Z > 0 {
			impulse = k.Solve33(geom.Vec3{X: c1.X, Y: c1.Y, Z: c2}).Neg()
		} else {
			i2 := k.Solve22(c1).Neg()
			impulse = geom.Vec3{X: i2.X, Y: i2.Y}
		}

		p := geom.V(impulse.X, impulse.Y)
		cA = cA.Sub(p.Mul(mA))
		aA -= iA * (rA.Cross(p) + impulse.Z)
		cB = cB.Add(p.Mul(mB))
		aB += iB * (rB.Cross(p) + impulse.Z)
	}

	data.positions[j.indexA] = position{cA, aA}
	data.positions[j.indexB] = position{cB, aB}

	return positionError <= linearSlop && angularError <= angularSlop
}
