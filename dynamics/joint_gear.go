package dynamics

import (
	"fmt"

	"github.com/koteyur/physac2d/geom"
)

// GearJoint couples two revolute or prismatic joints so that
// coordinate1 + ratio*coordinate2 stays constant. Body A is the second
// body of joint1 and body B the second body of joint2; the first bodies
// of both joints are usually static.
type GearJoint struct {
	jointBase

	joint1, joint2 Joint
	typeA, typeB   JointType
	bodyC, bodyD   *Body

	localAnchorA, localAnchorB geom.Vec2
	localAnchorC, localAnchorD geom.Vec2
	localAxisC, localAxisD     geom.Vec2

	referenceAngleA float64
	referenceAngleB float64

	ratio    float64
	constant float64
	impulse  float64

	// solver temporaries for the extra bodies
	indexC, indexD int
	lcC, lcD       geom.Vec2
	mC, mD         float64
	iC, iD         float64

	jvAC, jvBD         geom.Vec2
	jwA, jwB, jwC, jwD float64
	mass               float64
}

// NewGearJoint couples joint1 and joint2. Both must be revolute or
// prismatic joints already added to a World.
func NewGearJoint(joint1, joint2 Joint, ratio float64) (*GearJoint, error) {
	if joint1 == nil || joint2 == nil {
		return nil, fmt.Errorf("new gear joint: nil joint: %w", ErrInvalidJoint)
	}
	for _, jt := range []Joint{joint1, joint2} {
		if t := jt.Type(); t != JointRevolute && t != JointPrismatic {
			return nil, fmt.Errorf("new gear joint: cannot gear a %v joint: %w", t, ErrInvalidJoint)
		}
		if jt.BodyA() == nil || jt.BodyB() == nil {
			return nil, fmt.Errorf("new gear joint: %v joint is not in a world: %w", jt.Type(), ErrInvalidJoint)
		}
	}
	if !geom.IsValid(ratio) {
		return nil, fmt.Errorf("new gear joint: ratio %v: %w", ratio, ErrInvalidJoint)
	}

	base, err := newJointBase(JointGear, joint1.BodyB(), joint2.BodyB())
	if err != nil {
		return nil, err
	}

	j := &GearJoint{
		jointBase: base,
		joint1:    joint1,
		joint2:    joint2,
		typeA:     joint1.Type(),
		typeB:     joint2.Type(),
		bodyC:     joint1.BodyA(),
		bodyD:     joint2.BodyA(),
		ratio:     ratio,
	}

	var coordinateA, coordinateB float64
	j.localAnchorC, j.localAnchorA, j.localAxisC, j.referenceAngleA, coordinateA = gearSide(joint1, j.bodyC, j.bodyA)
	j.localAnchorD, j.localAnchorB, j.localAxisD, j.referenceAngleB, coordinateB = gearSide(joint2, j.bodyD, j.bodyB)
	j.constant = coordinateA + ratio*coordinateB
	return j, nil
}

// extraBodies are the first bodies of the geared joints, which the
// island must contain too.
func (j *GearJoint) extraBodies() (*Body, *Body) { return j.bodyC, j.bodyD }

// gearSide extracts the anchors, axis, reference angle and current
// coordinate of one geared joint.
func gearSide(jt Joint, fixed, moving *Body) (anchorFixed, anchorMoving, axis geom.Vec2, refAngle, coordinate float64) {
	xfM, xfF := moving.xf, fixed.xf
	switch v := jt.(type) {
	case *RevoluteJoint:
		anchorFixed, anchorMoving = v.localAnchorA, v.localAnchorB
		refAngle = v.referenceAngle
		coordinate = moving.sweep.A - fixed.sweep.A - refAngle
	case *PrismaticJoint:
		anchorFixed, anchorMoving = v.localAnchorA, v.localAnchorB
		refAngle = v.referenceAngle
		axis = v.localXAxisA
		p := xfF.Q.ApplyT(xfM.Q.Apply(anchorMoving).Add(xfM.P.Sub(xfF.P)))
		coordinate = p.Sub(anchorFixed).Dot(axis)
	}
	return anchorFixed, anchorMoving, axis, refAngle, coordinate
}

func (j *GearJoint) AnchorA() geom.Vec2 { return worldPoint(j.bodyA, j.localAnchorA) }
func (j *GearJoint) AnchorB() geom.Vec2 { return worldPoint(j.bodyB, j.localAnchorB) }

func (j *GearJoint) ReactionForce(invDt float64) geom.Vec2 {
	return j.jvAC.Mul(invDt * j.impulse)
}

func (j *GearJoint) ReactionTorque(invDt float64) float64 {
	return invDt * j.impulse * j.jwA
}

func (j *GearJoint) Joint1() Joint { return j.joint1 }
func (j *GearJoint) Joint2() Joint { return j.joint2 }
func (j *GearJoint) Ratio() float64 { return j.ratio }
func (j *GearJoint) SetRatio(r float64) { j.ratio = r }

// jacobian fills the constraint rows for the current orientations and
// returns the effective mass.
func (j *GearJoint) jacobian(qA, qB, qC, qD geom.Rot) float64 {
	mass := 0.0
	if j.typeA == JointRevolute {
		j.jvAC = geom.Vec2{}
		j.jwA, j.jwC = 1, 1
		mass += j.invIA + j.iC
	} else {
		u := qC.Apply(j.localAxisC)
		rC := qC.Apply(j.localAnchorC.Sub(j.lcC))
		rA := qA.Apply(j.localAnchorA.Sub(j.localCenterA))
		j.jvAC = u
		j.jwC = rC.Cross(u)
		j.jwA = rA.Cross(u)
		mass += j.mC + j.invMassA + j.iC*j.jwC*j.jwC + j.invIA*j.jwA*j.jwA
	}

	if j.typeB == JointRevolute {
		j.jvBD = geom.Vec2{}
		j.jwB, j.jwD = j.ratio, j.ratio
		mass += j.ratio * j.ratio * (j.invIB + j.iD)
	} else {
		u := qD.Apply(j.localAxisD)
		rD := qD.Apply(j.localAnchorD.Sub(j.lcD))
		rB := qB.Apply(j.localAnchorB.Sub(j.localCenterB))
		j.jvBD = u.Mul(j.ratio)
		j.jwD = j.ratio * rD.Cross(u)
		j.jwB = j.ratio * rB.Cross(u)
		mass += j.ratio*j.ratio*(j.mD+j.invMassB) + j.iD*j.jwD*j.jwD + j.invIB*j.jwB*j.jwB
	}

	if mass > 0 {
		return 1 / mass
	}
	return 0
}

func (j *GearJoint) apply(vels []velocity, impulse float64) {
	vA, wA := vels[j.indexA].v, vels[j.indexA].w
	vB, wB := vels[j.indexB].v, vels[j.indexB].w
	vC, wC := vels[j.indexC].v, vels[j.indexC].w
	vD, wD := vels[j.indexD].v, vels[j.indexD].w

	vA = vA.Add(j.jvAC.Mul(j.invMassA * impulse))
	wA += j.invIA * impulse * j.jwA
	vB = vB.Add(j.jvBD.Mul(j.invMassB * impulse))
	wB += j.invIB * impulse * j.jwB
	vC = vC.Sub(j.jvAC.Mul(j.mC * impulse))
	wC -= j.iC * impulse * j.jwC
	vD = vD.Sub(j.jvBD.Mul(j.mD * impulse))
	wD -= j.iD * impulse * j.jwD

	vels[j.indexA] = velocity{vA, wA}
	vels[j.indexB] = velocity{vB, wB}
	vels[j.indexC] = velocity{vC, wC}
	vels[j.indexD] = velocity{vD, wD}
}

func (j *GearJoint) initVelocityConstraints(data *solverData) {
	j.prepare()
	j.indexC = j.bodyC.islandIndex
	j.indexD = j.bodyD.islandIndex
	j.lcC = j.bodyC.sweep.LocalCenter
	j.lcD = j.bodyD.sweep.LocalCenter
	j.mC, j.mD = j.bodyC.invMass, j.bodyD.invMass
	j.iC, j.iD = j.bodyC.invI, j.bodyD.invI

	p := data.positions
	j.mass = j.jacobian(geom.NewRot(p[j.indexA].a), geom.NewRot(p[j.indexB].a), geom.NewRot(p[j.indexC].a), geom.NewRot(p[j.indexD].a))

	if data.step.warmStarting {
		j.apply(data.velocities, j.impulse)
	} else {
		j.impulse = 0
	}
}

func (j *GearJoint) solveVelocityConstraints(data *solverData) {
	v := data.velocities
	cdot := j.jvAC.Dot(v[j.indexA].v.Sub(v[j.indexC].v)) + j.jvBD.Dot(v[j.indexB].v.Sub(v[j.indexD].v))
	cdot += (j.jwA*v[j.indexA].w - j.jwC*v[j.indexC].w) + (j.jwB*v[j.indexB].w - j.jwD*v[j.indexD].w)

	impulse := -j.mass * cdot
	j.impulse += impulse
	j.apply(v, impulse)
}

func (j *GearJoint) solvePositionConstraints(data *solverData) bool {
	p := data.positions
	cA, aA := p[j.indexA].c, p[j.indexA].a
	cB, aB := p[j.indexB].c, p[j.indexB].a
	cC, aC := p[j.indexC].c, p[j.indexC].a
	cD, aD := p[j.indexD].c, p[j.indexD].a

	qA, qB, qC, qD := geom.NewRot(aA), geom.NewRot(aB), geom.NewRot(aC), geom.NewRot(aD)

	// the jacobian rows are reused by ReactionForce, so solve with locals
	saved := [...]float64{j.jwA, j.jwB, j.jwC, j.jwD}
	savedJv := [...]geom.Vec2{j.jvAC, j.jvBD}
	mass := j.jacobian(qA, qB, qC, qD)

	var coordinateA, coordinateB float64
	if j.typeA == JointRevolute {
		coordinateA = aA - aC - j.referenceAngleA
	} else {
		rA := qA.Apply(j.localAnchorA.Sub(j.localCenterA))
		pC := j.localAnchorC.Sub(j.lcC)
		pA := qC.ApplyT(rA.Add(cA.Sub(cC)))
		coordinateA = pA.Sub(pC).Dot(j.localAxisC)
	}
	if j.typeB == JointRevolute {
		coordinateB = aB - aD - j.referenceAngleB
	} else {
		rB := qB.Apply(j.localAnchorB.Sub(j.localCenterB))
		pD := j.localAnchorD.Sub(j.lcD)
		pB := qD.ApplyT(rB.Add(cB.Sub(cD)))
		coordinateB = pB.Sub(pD).Dot(j.localAxisD)
	}

	c := coordinateA + j.ratio*coordinateB - j.constant
	impulse := 0.0
	if mass > 0 {
		impulse = -c * mass
	}

	cA = cA.Add(j.jvAC.Mul(j.invMassA * impulse))
	aA += j.invIA * impulse * j.jwA
	cB = cB.Add(j.jvBD.Mul(j.invMassB * impulse))
	aB += j.invIB * impulse * j.jwB
	cC = cC.Sub(j.jvAC.Mul(j.mC * impulse))
	aC -= j.iC * impulse * j.jwC
	cD = cD.Sub(j.jvBD.Mul(j.mD * impulse))
	aD -= j.iD * impulse * j.jwD

	p[j.indexA] = position{cA, aA}
	p[j.indexB] = position{cB, aB}
	p[j.indexC] = position{cC, aC}
	p[j.indexD] = position{cD, aD}

	j.jwA, j.jwB, j.jwC, j.jwD = saved[0], saved[1], saved[2], saved[3]
	j.jvAC, j.jvBD = savedJv[0], savedJv[1]

	// no tolerance check: the gear never blocks position convergence
	return true
}
