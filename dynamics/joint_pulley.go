package dynamics

import (
	"fmt"
	"math"

	"github.com/koteyur/physac2d/geom"
)

// PulleyJoint hangs two bodies from fixed ground anchors with a rope of
// constant total length: lengthA + ratio*lengthB stays fixed.
type PulleyJoint struct {
	jointBase

	groundAnchorA geom.Vec2
	groundAnchorB geom.Vec2
	localAnchorA  geom.Vec2
	localAnchorB  geom.Vec2
	lengthA       float64
	lengthB       float64
	ratio         float64
	constant      float64

	impulse float64

	uA, uB geom.Vec2
	rA, rB geom.Vec2
	mass   float64
}

// NewPulleyJoint builds a pulley from world ground anchors and world body
// anchors. The ratio must be positive.
func NewPulleyJoint(a, b *Body, groundA, groundB, anchorA, anchorB geom.Vec2, ratio float64) (*PulleyJoint, error) {
	base, err := newJointBase(JointPulley, a, b)
	if err != nil {
		return nil, err
	}
	if ratio <= geom.Epsilon || !geom.IsValid(ratio) {
		return nil, fmt.Errorf("new pulley joint: ratio %v: %w", ratio, ErrInvalidJoint)
	}
	base.collideConnected = true
	j := &PulleyJoint{
		jointBase:     base,
		groundAnchorA: groundA,
		groundAnchorB: groundB,
		localAnchorA:  localPoint(a, anchorA),
		localAnchorB:  localPoint(b, anchorB),
		lengthA:       anchorA.Distance(groundA),
		lengthB:       anchorB.Distance(groundB),
		ratio:         ratio,
	}
	j.constant = j.lengthA + ratio*j.lengthB
	return j, nil
}

func (j *PulleyJoint) AnchorA() geom.Vec2 { return worldPoint(j.bodyA, j.localAnchorA) }
func (j *PulleyJoint) AnchorB() geom.Vec2 { return worldPoint(j.bodyB, j.localAnchorB) }

func (j *PulleyJoint) ReactionForce(invDt float64) geom.Vec2 {
	return j.uB.Mul(invDt * j.impulse)
}

func (j *PulleyJoint) ReactionTorque(float64) float64 { return 0 }

func (j *PulleyJoint) GroundAnchorA() geom.Vec2 { return j.groundAnchorA }
func (j *PulleyJoint) GroundAnchorB() geom.Vec2 { return j.groundAnchorB }
func (j *PulleyJoint) Ratio() float64 { return j.ratio }

// CurrentLengthA is the current rope length on side A.
func (j *PulleyJoint) CurrentLengthA() float64 {
	return j.AnchorA().Distance(j.groundAnchorA)
}

func (j *PulleyJoint) CurrentLengthB() float64 {
	return j.AnchorB().Distance(j.groundAnchorB)
}

func (j *PulleyJoint) shiftOrigin(newOrigin geom.Vec2) {
	j.groundAnchorA = j.groundAnchorA.Sub(newOrigin)
	j.groundAnchorB = j.groundAnchorB.Sub(newOrigin)
}

// ropeAxes returns the unit rope directions and lengths, zeroing a
// direction when its rope is too short to define one.
func (j *PulleyJoint) ropeAxes(cA, cB, rA, rB geom.Vec2) (uA, uB geom.Vec2, lA, lB float64) {
	uA = cA.Add(rA).Sub(j.groundAnchorA)
	uB = cB.Add(rB).Sub(j.groundAnchorB)
	lA = uA.Len()
	lB = uB.Len()
	if lA > 10*linearSlop {
		uA = uA.Mul(1 / lA)
	} else {
		uA = geom.Vec2{}
	}
	if lB > 10*linearSlop {
		uB = uB.Mul(1 / lB)
	} else {
		uB = geom.Vec2{}
	}
	return uA, uB, lA, lB
}

func (j *PulleyJoint) effectiveMass(rA, rB, uA, uB geom.Vec2) float64 {
	ruA := rA.Cross(uA)
	ruB := rB.Cross(uB)
	mA := j.invMassA + j.invIA*ruA*ruA
	mB := j.invMassB + j.invIB*ruB*ruB
	m := mA + j.ratio*j.ratio*mB
	if m > 0 {
		m = 1 / m
	}
	return m
}

func (j *PulleyJoint) initVelocityConstraints(data *solverData) {
	j.prepare()
	mA, mB, iA, iB := j.invMassA, j.invMassB, j.invIA, j.invIB

	cA, aA := data.positions[j.indexA].c, data.positions[j.indexA].a
	vA, wA := data.velocities[j.indexA].v, data.velocities[j.indexA].w
	cB, aB := data.positions[j.indexB].c, data.positions[j.indexB].a
	vB, wB := data.velocities[j.indexB].v, data.velocities[j.indexB].w

	qA, qB := geom.NewRot(aA), geom.NewRot(aB)
	j.rA = qA.Apply(j.localAnchorA.Sub(j.localCenterA))
	j.rB = qB.Apply(j.localAnchorB.Sub(j.localCenterB))
	j.uA, j.uB, _, _ = j.ropeAxes(cA, cB, j.rA, j.rB)
	j.mass = j.effectiveMass(j.rA, j.rB, j.uA, j.uB)

	if data.step.warmStarting {
		j.impulse *= data.step.dtRatio
		pA := j.uA.Mul(-j.impulse)
		pB := j.uB.Mul(-j.ratio * j.impulse)
		vA = vA.Add(pA.Mul(mA))
		wA += iA * j.rA.Cross(pA)
		vB = vB.Add(pB.Mul(mB))
		wB += iB * j.rB.Cross(pB)
	} else {
		j.impulse = 0
	}

	data.velocities[j.indexA] = velocity{vA, wA}
	data.velocities[j.indexB] = velocity{vB, wB}
}

func (j *PulleyJoint) solveVelocityConstraints(data *solverData) {
	mA, mB, iA, iB := j.invMassA, j.invMassB, j.invIA, j.invIB
	vA, wA := data.velocities[j.indexA].v, data.velocities[j.indexA].w
	vB, wB := data.velocities[j.indexB].v, data.velocities[j.indexB].w

	vpA := vA.Add(geom.CrossSV(wA, j.rA))
	vpB := vB.Add(geom.CrossSV(wB, j.rB))

	cdot := -j.uA.Dot(vpA) - j.ratio*j.uB.Dot(vpB)
	impulse := -j.mass * cdot
	j.impulse += impulse

	pA := j.uA.Mul(-impulse)
	pB := j.uB.Mul(-j.ratio * impulse)
	vA = vA.Add(pA.Mul(mA))
	wA += iA * j.rA.Cross(pA)
	vB = vB.Add(pB.Mul(mB))
	wB += iB * j.rB.Cross(pB)

	data.velocities[j.indexA] = velocity{vA, wA}
	data.velocities[j.indexB] = velocity{vB, wB}
}

func (j *PulleyJoint) solvePositionConstraints(data *solverData) bool {
	mA, mB, iA, iB := j.invMassA, j.invMassB, j.invIA, j.invIB
	cA, aA := data.positions[j.indexA].c, data.positions[j.indexA].a
	cB, aB := data.positions[j.indexB].c, data.positions[j.indexB].a

	qA, qB := geom.NewRot(aA), geom.NewRot(aB)
	rA := qA.Apply(j.localAnchorA.Sub(j.localCenterA))
	rB := qB.Apply(j.localAnchorB.Sub(j.localCenterB))
	uA, uB, lengthA, lengthB := j.ropeAxes(cA, cB, rA, rB)
	mass := j.effectiveMass(rA, rB, uA, uB)

	c := j.constant - lengthA - j.ratio*lengthB
	linearError := math.Abs(c)

	impulse := -mass * c
	pA := uA.Mul(-impulse)
	pB := uB.Mul(-j.ratio * impulse)

	cA = cA.Add(pA.Mul(mA))
	aA += iA * rA.Cross(pA)
	cB = cB.Add(pB.Mul(mB))
	aB += iB * rB.Cross(pB)

	data.positions[j.indexA] = position{cA, aA}
	data.positions[j.indexB] = position{cB, aB}

	return linearError < linearSlop
}
