package dynamics

import (
	"fmt"
	"math"

	"github.com/koteyur/physac2d/geom"
)

// DistanceJoint keeps two anchor points at a fixed distance, optionally
// as a damped spring.
type DistanceJoint struct {
	jointBase

	localAnchorA geom.Vec2
	localAnchorB geom.Vec2
	length       float64
	frequencyHz  float64
	dampingRatio float64

	impulse float64

	u, rA, rB geom.Vec2
	gamma     float64
	bias      float64
	mass      float64
}

// NewDistanceJoint connects two world anchors, using their current
// distance as the rest length. A nil body stands for the ground.
func NewDistanceJoint(a, b *Body, anchorA, anchorB geom.Vec2) (*DistanceJoint, error) {
	base, err := newJointBase(JointDistance, a, b)
	if err != nil {
		return nil, err
	}
	length := anchorA.Distance(anchorB)
	if length < linearSlop {
		return nil, fmt.Errorf("new distance joint: length %v: %w", length, ErrInvalidJoint)
	}
	return &DistanceJoint{
		jointBase:    base,
		localAnchorA: localPoint(a, anchorA),
		localAnchorB: localPoint(b, anchorB),
		length:       length,
	}, nil
}

func (j *DistanceJoint) AnchorA() geom.Vec2 { return worldPoint(j.bodyA, j.localAnchorA) }
func (j *DistanceJoint) AnchorB() geom.Vec2 { return worldPoint(j.bodyB, j.localAnchorB) }

func (j *DistanceJoint) ReactionForce(invDt float64) geom.Vec2 {
	return j.u.Mul(invDt * j.impulse)
}

func (j *DistanceJoint) ReactionTorque(float64) float64 { return 0 }

func (j *DistanceJoint) Length() float64 { return j.length }

// SetLength changes the rest length. Values below the linear slop are
// raised to it.
func (j *DistanceJoint) SetLength(l float64) {
	j.length = math.Max(l, linearSlop)
	j.wakeBodies()
}

func (j *DistanceJoint) Frequency() float64 { return j.frequencyHz }

// SetFrequency turns the joint into a spring; zero makes it rigid.
func (j *DistanceJoint) SetFrequency(hz float64) { j.frequencyHz = hz }

func (j *DistanceJoint) DampingRatio() float64 { return j.dampingRatio }

func (j *DistanceJoint) SetDampingRatio(r float64) { j.dampingRatio = r }

func (j *DistanceJoint) initVelocityConstraints(data *solverData) {
	j.prepare()
	mA, mB, iA, iB := j.invMassA, j.invMassB, j.invIA, j.invIB

	cA, aA := data.positions[j.indexA].c, data.positions[j.indexA].a
	vA, wA := data.velocities[j.indexA].v, data.velocities[j.indexA].w
	cB, aB := data.positions[j.indexB].c, data.positions[j.indexB].a
	vB, wB := data.velocities[j.indexB].v, data.velocities[j.indexB].w

	qA, qB := geom.NewRot(aA), geom.NewRot(aB)
	j.rA = qA.Apply(j.localAnchorA.Sub(j.localCenterA))
	j.rB = qB.Apply(j.localAnchorB.Sub(j.localCenterB))
	j.u = cB.Add(j.rB).Sub(cA).Sub(j.rA)

	length := j.u.Len()
	if length > linearSlop {
		j.u = j.u.Mul(1 / length)
	} else {
		j.u = geom.Vec2{}
	}

	crAu := j.rA.Cross(j.u)
	crBu := j.rB.Cross(j.u)
	invMass := mA + iA*crAu*crAu + mB + iB*crBu*crBu
	j.mass = 0
	if invMass != 0 {
		j.mass = 1 / invMass
	}

	j.gamma, j.bias = 0, 0
	if j.frequencyHz > 0 {
		j.gamma, j.bias = springCoefficients(j.mass, length-j.length, j.frequencyHz, j.dampingRatio, data.step.dt)
		invMass += j.gamma
		j.mass = 0
		if invMass != 0 {
			j.mass = 1 / invMass
		}
	}

	if data.step.warmStarting {
		j.impulse *= data.step.dtRatio
		p := j.u.Mul(j.impulse)
		vA = vA.Sub(p.Mul(mA))
		wA -= iA * j.rA.Cross(p)
		vB = vB.Add(p.Mul(mB))
		wB += iB * j.rB.Cross(p)
	} else {
		j.impulse = 0
	}

	data.velocities[j.indexA] = velocity{vA, wA}
	data.velocities[j.indexB] = velocity{vB, wB}
}

func (j *DistanceJoint) solveVelocityConstraints(data *solverData) {
	mA, mB, iA, iB := j.invMassA, j.invMassB, j.invIA, j.invIB
	vA, wA := data.velocities[j.indexA].v, data.velocities[j.indexA].w
	vB, wB := data.velocities[j.indexB].v, data.velocities[j.indexB].w

	vpA := vA.Add(geom.CrossSV(wA, j.rA))
	vpB := vB.Add(geom.CrossSV(wB, j.rB))
	cdot := j.u.Dot(vpB.Sub(vpA))

	impulse := -j.mass * (cdot + j.bias + j.gamma*j.impulse)
	j.impulse += impulse

	p := j.u.Mul(impulse)
	vA = vA.Sub(p.Mul(mA))
	wA -= iA * j.rA.Cross(p)
	vB = vB.Add(p.Mul(mB))
	wB += iB * j.rB.Cross(p)

	data.velocities[j.indexA] = velocity{vA, wA}
	data.velocities[j.indexB] = velocity{vB, wB}
}

func (j *DistanceJoint) solvePositionConstraints(data *solverData) bool {
	if j.frequencyHz > 0 {
		// soft: no position correction
		return true
	}
	mA, mB, iA, iB := j.invMassA, j.invMassB, j.invIA, j.invIB
	cA, aA := data.positions[j.indexA].c, data.positions[j.indexA].a
	cB, aB := data.positions[j.indexB].c, data.positions[j.indexB].a

	qA, qB := geom.NewRot(aA), geom.NewRot(aB)
	rA := qA.Apply(j.localAnchorA.Sub(j.localCenterA))
	rB := qB.Apply(j.localAnchorB.Sub(j.localCenterB))
	u, length := cB.Add(rB).Sub(cA).Sub(rA).Normalize()

	maxCorrection := data.settings.MaxLinearCorrection
	c := geom.Clamp(length-j.length, -maxCorrection, maxCorrection)

	impulse := -j.mass * c
	p := u.Mul(impulse)

	cA = cA.Sub(p.Mul(mA))
	aA -= iA * rA.Cross(p)
	cB = cB.Add(p.Mul(mB))
	aB += iB * rB.Cross(p)

	data.positions[j.indexA] = position{cA, aA}
	data.positions[j.indexB] = position{cB, aB}

	return math.Abs(c) < linearSlop
}
