package dynamics

import (
	"fmt"
	"math"

	"github.com/koteyur/physac2d/geom"
)

// RopeJoint caps the distance between two anchors. It only pulls. With a
// frequency set, a taut rope stretches like a damped spring.
type RopeJoint struct {
	jointBase

	localAnchorA geom.Vec2
	localAnchorB geom.Vec2
	maxLength    float64
	frequencyHz  float64
	dampingRatio float64

	impulse float64
	length  float64
	state   LimitState

	u, rA, rB geom.Vec2
	gamma     float64
	bias      float64
	mass      float64
}

// NewRopeJoint connects two world anchors with a rope of maxLength.
func NewRopeJoint(a, b *Body, anchorA, anchorB geom.Vec2, maxLength float64) (*RopeJoint, error) {
	base, err := newJointBase(JointRope, a, b)
	if err != nil {
		return nil, err
	}
	if !geom.IsValid(maxLength) || maxLength < linearSlop {
		return nil, fmt.Errorf("new rope joint: max length %v: %w", maxLength, ErrInvalidJoint)
	}
	return &RopeJoint{
		jointBase:    base,
		localAnchorA: localPoint(a, anchorA),
		localAnchorB: localPoint(b, anchorB),
		maxLength:    maxLength,
	}, nil
}

func (j *RopeJoint) AnchorA() geom.Vec2 { return worldPoint(j.bodyA, j.localAnchorA) }
func (j *RopeJoint) AnchorB() geom.Vec2 { return worldPoint(j.bodyB, j.localAnchorB) }

func (j *RopeJoint) ReactionForce(invDt float64) geom.Vec2 {
	return j.u.Mul(invDt * j.impulse)
}

func (j *RopeJoint) ReactionTorque(float64) float64 { return 0 }

func (j *RopeJoint) MaxLength() float64 { return j.maxLength }

// SetMaxLength panics on a length that is not finite or below the linear
// slop, the lengths NewRopeJoint rejects.
func (j *RopeJoint) SetMaxLength(l float64) {
	if !geom.IsValid(l) || l < linearSlop {
		panic(fmt.Sprintf("dynamics: RopeJoint.SetMaxLength: invalid length %v", l))
	}
	j.maxLength = l
	j.wakeBodies()
}

func (j *RopeJoint) Frequency() float64 { return j.frequencyHz }

// SetFrequency makes the taut rope elastic; zero makes it rigid.
func (j *RopeJoint) SetFrequency(hz float64) { j.frequencyHz = hz }

func (j *RopeJoint) DampingRatio() float64 { return j.dampingRatio }

func (j *RopeJoint) SetDampingRatio(r float64) { j.dampingRatio = r }

// LimitState is LimitAtUpper while the rope is taut.
func (j *RopeJoint) LimitState() LimitState { return j.state }

func (j *RopeJoint) initVelocityConstraints(data *solverData) {
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

	j.length = j.u.Len()
	if j.length-j.maxLength > 0 {
		j.state = LimitAtUpper
	} else {
		j.state = LimitInactive
	}

	if j.length <= linearSlop {
		j.u = geom.Vec2{}
		j.mass = 0
		j.impulse = 0
		return
	}
	j.u = j.u.Mul(1 / j.length)

	crA := j.rA.Cross(j.u)
	crB := j.rB.Cross(j.u)
	invMass := mA + iA*crA*crA + mB + iB*crB*crB
	j.mass = 0
	if invMass != 0 {
		j.mass = 1 / invMass
	}

	j.gamma, j.bias = 0, 0
	if j.frequencyHz > 0 && j.state == LimitAtUpper {
		j.gamma, j.bias = springCoefficients(j.mass, j.length-j.maxLength, j.frequencyHz, j.dampingRatio, data.step.dt)
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

func (j *RopeJoint) solveVelocityConstraints(data *solverData) {
	mA, mB, iA, iB := j.invMassA, j.invMassB, j.invIA, j.invIB
	vA, wA := data.velocities[j.indexA].v, data.velocities[j.indexA].w
	vB, wB := data.velocities[j.indexB].v, data.velocities[j.indexB].w

	vpA := vA.Add(geom.CrossSV(wA, j.rA))
	vpB := vB.Add(geom.CrossSV(wB, j.rB))
	c := j.length - j.maxLength
	cdot := j.u.Dot(vpB.Sub(vpA))

	// predictive: allow closing the slack within this step
	if c < 0 {
		cdot += data.step.invDt * c
	}

	impulse := -j.mass * (cdot + j.bias + j.gamma*j.impulse)
	old := j.impulse
	j.impulse = math.Min(0, j.impulse+impulse)
	impulse = j.impulse - old

	p := j.u.Mul(impulse)
	vA = vA.Sub(p.Mul(mA))
	wA -= iA * j.rA.Cross(p)
	vB = vB.Add(p.Mul(mB))
	wB += iB * j.rB.Cross(p)

	data.velocities[j.indexA] = velocity{vA, wA}
	data.velocities[j.indexB] = velocity{vB, wB}
}

func (j *RopeJoint) solvePositionConstraints(data *solverData) bool {
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

	c := geom.Clamp(length-j.maxLength, 0, data.settings.MaxLinearCorrection)
	impulse := -j.mass * c
	p := u.Mul(impulse)

	cA = cA.Sub(p.Mul(mA))
	aA -= iA * rA.Cross(p)
	cB = cB.Add(p.Mul(mB))
	aB += iB * rB.Cross(p)

	data.positions[j.indexA] = position{cA, aA}
	data.positions[j.indexB] = position{cB, aB}

	return length-j.maxLength < linearSlop
}
