package dynamics

import (
	"math"

	"github.com/koteyur/physac2d/geom"
)

// WheelJoint keeps B's anchor on a line fixed in A, with a spring along
// the line and a rotational motor. It models vehicle suspension.
type WheelJoint struct {
	jointBase

	localAnchorA geom.Vec2
	localAnchorB geom.Vec2
	localXAxisA  geom.Vec2
	localYAxisA  geom.Vec2

	frequencyHz    float64
	dampingRatio   float64
	enableMotor    bool
	motorSpeed     float64
	maxMotorTorque float64

	impulse       float64
	motorImpulse  float64
	springImpulse float64

	ax, ay     geom.Vec2
	sAx, sBx   float64
	sAy, sBy   float64
	mass       float64
	motorMass  float64
	springMass float64
	bias       float64
	gamma      float64
}

// NewWheelJoint attaches wheel b to chassis a at a world anchor with a
// world suspension axis. The spring defaults to 2 Hz and 0.7 damping.
func NewWheelJoint(a, b *Body, anchor, axis geom.Vec2) (*WheelJoint, error) {
	base, err := newJointBase(JointWheel, a, b)
	if err != nil {
		return nil, err
	}
	x := localVector(a, axis).Unit()
	return &WheelJoint{
		jointBase:    base,
		localAnchorA: localPoint(a, anchor),
		localAnchorB: localPoint(b, anchor),
		localXAxisA:  x,
		localYAxisA:  geom.CrossSV(1, x),
		frequencyHz:  2,
		dampingRatio: 0.7,
	}, nil
}

func (j *WheelJoint) AnchorA() geom.Vec2 { return worldPoint(j.bodyA, j.localAnchorA) }
func (j *WheelJoint) AnchorB() geom.Vec2 { return worldPoint(j.bodyB, j.localAnchorB) }

func (j *WheelJoint) ReactionForce(invDt float64) geom.Vec2 {
	return j.ay.Mul(j.impulse).Add(j.ax.Mul(j.springImpulse)).Mul(invDt)
}

func (j *WheelJoint) ReactionTorque(invDt float64) float64 { return invDt * j.motorImpulse }

// JointTranslation is the suspension travel along the axis.
func (j *WheelJoint) JointTranslation() float64 {
	d := worldPoint(j.bodyB, j.localAnchorB).Sub(worldPoint(j.bodyA, j.localAnchorA))
	return d.Dot(worldVector(j.bodyA, j.localXAxisA))
}

func (j *WheelJoint) JointSpeed() float64 {
	return bodyAngularVelocity(j.bodyB) - bodyAngularVelocity(j.bodyA)
}

func (j *WheelJoint) SetFrequency(hz float64) { j.frequencyHz = hz }

func (j *WheelJoint) SetDampingRatio(r float64) { j.dampingRatio = r }

func (j *WheelJoint) EnableMotor(flag bool) {
	j.wakeBodies()
	j.enableMotor = flag
}

func (j *WheelJoint) SetMotorSpeed(speed float64) {
	j.wakeBodies()
	j.motorSpeed = speed
}

func (j *WheelJoint) SetMaxMotorTorque(torque float64) {
	j.wakeBodies()
	j.maxMotorTorque = torque
}

func (j *WheelJoint) initVelocityConstraints(data *solverData) {
	j.prepare()
	mA, mB, iA, iB := j.invMassA, j.invMassB, j.invIA, j.invIB

	cA, aA := data.positions[j.indexA].c, data.positions[j.indexA].a
	vA, wA := data.velocities[j.indexA].v, data.velocities[j.indexA].w
	cB, aB := data.positions[j.indexB].c, data.positions[j.indexB].a
	vB, wB := data.velocities[j.indexB].v, data.velocities[j.indexB].w

	qA, qB := geom.NewRot(aA), geom.NewRot(aB)
	rA := qA.Apply(j.localAnchorA.Sub(j.localCenterA))
	rB := qB.Apply(j.localAnchorB.Sub(j.localCenterB))
	d := cB.Add(rB).Sub(cA).Sub(rA)

	// point to line
	j.ay = qA.Apply(j.localYAxisA)
	j.sAy = d.Add(rA).Cross(j.ay)
	j.sBy = rB.Cross(j.ay)
	j.mass = mA + mB + iA*j.sAy*j.sAy + iB*j.sBy*j.sBy
	if j.mass > 0 {
		j.mass = 1 / j.mass
	}

	// suspension spring
	j.ax = qA.Apply(j.localXAxisA)
	j.sAx = d.Add(rA).Cross(j.ax)
	j.sBx = rB.Cross(j.ax)
	j.springMass, j.bias, j.gamma = 0, 0, 0
	if j.frequencyHz > 0 {
		invMass := mA + mB + iA*j.sAx*j.sAx + iB*j.sBx*j.sBx
		if invMass > 0 {
			j.springMass = 1 / invMass
			j.gamma, j.bias = springCoefficients(j.springMass, d.Dot(j.ax), j.frequencyHz, j.dampingRatio, data.step.dt)
			j.springMass = invMass + j.gamma
			if j.springMass > 0 {
				j.springMass = 1 / j.springMass
			}
		}
	} else {
		j.springImpulse = 0
	}

	if j.enableMotor {
		j.motorMass = iA + iB
		if j.motorMass > 0 {
			j.motorMass = 1 / j.motorMass
		}
	} else {
		j.motorMass = 0
		j.motorImpulse = 0
	}

	if data.step.warmStarting {
		j.impulse *= data.step.dtRatio
		j.springImpulse *= data.step.dtRatio
		j.motorImpulse *= data.step.dtRatio

		p := j.ay.Mul(j.impulse).Add(j.ax.Mul(j.springImpulse))
		lA := j.impulse*j.sAy + j.springImpulse*j.sAx + j.motorImpulse
		lB := j.impulse*j.sBy + j.springImpulse*j.sBx + j.motorImpulse

		vA = vA.Sub(p.Mul(mA))
		wA -= iA * lA
		vB = vB.Add(p.Mul(mB))
		wB += iB * lB
	} else {
		j.impulse = 0
		j.springImpulse = 0
		j.motorImpulse = 0
	}

	data.velocities[j.indexA] = velocity{vA, wA}
	data.velocities[j.indexB] = velocity{vB, wB}
}

func (j *WheelJoint) solveVelocityConstraints(data *solverData) {
	mA, mB, iA, iB := j.invMassA, j.invMassB, j.invIA, j.invIB
	vA, wA := data.velocities[j.indexA].v, data.velocities[j.indexA].w
	vB, wB := data.velocities[j.indexB].v, data.velocities[j.indexB].w

	// spring
	{
		cdot := j.ax.Dot(vB.Sub(vA)) + j.sBx*wB - j.sAx*wA
		impulse := -j.springMass * (cdot + j.bias + j.gamma*j.springImpulse)
		j.springImpulse += impulse

		p := j.ax.Mul(impulse)
		vA = vA.Sub(p.Mul(mA))
		wA -= iA * impulse * j.sAx
		vB = vB.Add(p.Mul(mB))
		wB += iB * impulse * j.sBx
	}

	// motor
	{
		cdot := wB - wA - j.motorSpeed
		impulse := -j.motorMass * cdot
		old := j.motorImpulse
		maxImpulse := data.step.dt * j.maxMotorTorque
		j.motorImpulse = geom.Clamp(old+impulse, -maxImpulse, maxImpulse)
		impulse = j.motorImpulse - old

		wA -= iA * impulse
		wB += iB * impulse
	}

	// point to line
	{
		cdot := j.ay.Dot(vB.Sub(vA)) + j.sBy*wB - j.sAy*wA
		impulse := -j.mass * cdot
		j.impulse += impulse

		p := j.ay.Mul(impulse)
		vA = vA.Sub(p.Mul(mA))
		wA -= iA * impulse * j.sAy
		vB = vB.Add(p.Mul(mB))
		wB += iB * impulse * j.sBy
	}

	data.velocities[j.indexA] = velocity{vA, wA}
	data.velocities[j.indexB] = velocity{vB, wB}
}

func (j *WheelJoint) solvePositionConstraints(data *solverData) bool {
	mA, mB, iA, iB := j.invMassA, j.invMassB, j.invIA, j.invIB
	cA, aA := data.positions[j.indexA].c, data.positions[j.indexA].a
	cB, aB := data.positions[j.indexB].c, data.positions[j.indexB].a

	qA, qB := geom.NewRot(aA), geom.NewRot(aB)
	rA := qA.Apply(j.localAnchorA.Sub(j.localCenterA))
	rB := qB.Apply(j.localAnchorB.Sub(j.localCenterB))
	d := cB.Sub(cA).Add(rB).Sub(rA)

	ay := qA.Apply(j.localYAxisA)
	sAy := d.Add(rA).Cross(ay)
	sBy := rB.Cross(ay)

	c := d.Dot(ay)
	k := mA + mB + iA*sAy*sAy + iB*sBy*sBy
	impulse := 0.0
	if k != 0 {
		impulse = -c / k
	}

	p := ay.Mul(impulse)
	cA = cA.Sub(p.Mul(mA))
	aA -= iA * impulse * sAy
	cB = cB.Add(p.Mul(mB))
	aB += iB * impulse * sBy

	data.positions[j.indexA] = position{cA, aA}
	data.positions[j.indexB] = position{cB, aB}

	return math.Abs(c) <= linearSlop
}
