package dynamics

import (
	"fmt"
	"math"

	"github.com/koteyur/physac2d/geom"
)

// JointType names a joint kind.
type JointType int

const (
	JointDistance JointType = iota
	JointRevolute
	JointPrismatic
	JointWeld
	JointWheel
	JointPulley
	JointGear
	JointRope
	JointFriction
	JointMotor
	JointAngle
)

var jointTypeNames = [...]string{
	JointDistance:  "distance",
	JointRevolute:  "revolute",
	JointPrismatic: "prismatic",
	JointWeld:      "weld",
	JointWheel:     "wheel",
	JointPulley:    "pulley",
	JointGear:      "gear",
	JointRope:      "rope",
	JointFriction:  "friction",
	JointMotor:     "motor",
	JointAngle:     "angle",
}

func (t JointType) String() string {
	if t >= 0 && int(t) < len(jointTypeNames) {
		return jointTypeNames[t]
	}
	return fmt.Sprintf("JointType(%d)", int(t))
}

// LimitState tracks which side of a joint limit is active.
type LimitState int

const (
	LimitInactive LimitState = iota
	LimitAtLower
	LimitAtUpper
	LimitEqual
)

// Joint constrains the relative motion of two bodies. All kinds embed
// jointBase and plug into the island solver through the unexported
// methods.
type Joint interface {
	ID() int
	Type() JointType
	// BodyA and BodyB are nil for a ground side until the joint is added
	// to a World.
	BodyA() *Body
	BodyB() *Body
	AnchorA() geom.Vec2
	AnchorB() geom.Vec2
	// ReactionForce is the constraint force on body B at its anchor.
	ReactionForce(invDt float64) geom.Vec2
	ReactionTorque(invDt float64) float64

	Enabled() bool
	SetEnabled(flag bool)
	// Breakpoint is the reaction force above which the joint is disabled.
	Breakpoint() float64
	SetBreakpoint(force float64)
	CollideConnected() bool
	SetCollideConnected(flag bool)
	UserData() any
	SetUserData(v any)

	base() *jointBase
	initVelocityConstraints(data *solverData)
	solveVelocityConstraints(data *solverData)
	solvePositionConstraints(data *solverData) bool
}

// originShifter is implemented by joints that store world coordinates.
type originShifter interface {
	shiftOrigin(newOrigin geom.Vec2)
}

type jointBase struct {
	typ          JointType
	bodyA, bodyB *Body

	world *World
	state membership
	index int
	id    int

	enabled          bool
	breakpoint       float64
	collideConnected bool
	islandFlag       bool
	userData         any

	// solver temporaries
	indexA, indexB             int
	localCenterA, localCenterB geom.Vec2
	invMassA, invMassB         float64
	invIA, invIB               float64
}

func newJointBase(typ JointType, a, b *Body) (jointBase, error) {
	if a == b {
		return jointBase{}, fmt.Errorf("new %v joint: %w", typ, ErrSameBody)
	}
	return jointBase{
		typ:        typ,
		bodyA:      a,
		bodyB:      b,
		enabled:    true,
		breakpoint: maxFloat,
		index:      -1,
	}, nil
}

func (j *jointBase) base() *jointBase { return j }
func (j *jointBase) Type() JointType { return j.typ }
func (j *jointBase) BodyA() *Body { return j.bodyA }
func (j *jointBase) BodyB() *Body { return j.bodyB }
func (j *jointBase) ID() int { return j.id }
func (j *jointBase) Enabled() bool { return j.enabled }
func (j *jointBase) Breakpoint() float64 { return j.breakpoint }
func (j *jointBase) CollideConnected() bool { return j.collideConnected }
func (j *jointBase) UserData() any { return j.userData }
func (j *jointBase) SetUserData(v any) { j.userData = v }
func (j *jointBase) SetBreakpoint(f float64) { j.breakpoint = f }

// SetEnabled wakes both bodies so the change takes effect.
func (j *jointBase) SetEnabled(flag bool) {
	if j.enabled == flag {
		return
	}
	j.enabled = flag
	j.wakeBodies()
}

// SetCollideConnected re-filters the contacts between the two bodies.
func (j *jointBase) SetCollideConnected(flag bool) {
	if j.collideConnected == flag {
		return
	}
	j.collideConnected = flag
	j.flagContacts()
}

func (j *jointBase) wakeBodies() {
	if j.bodyA != nil {
		j.bodyA.SetAwake(true)
	}
	if j.bodyB != nil {
		j.bodyB.SetAwake(true)
	}
}

// flagContacts marks the contacts between the jointed bodies for
// re-filtering.
func (j *jointBase) flagContacts() {
	if j.bodyA == nil || j.bodyB == nil {
		return
	}
	for _, ce := range j.bodyB.contacts {
		if ce.Other == j.bodyA {
			ce.Contact.FlagForFiltering()
		}
	}
}

func (j *jointBase) other(b *Body) *Body {
	if j.bodyA == b {
		return j.bodyB
	}
	return j.bodyA
}

// prepare caches the body data the solver methods need.
func (j *jointBase) prepare() {
	bA, bB := j.bodyA, j.bodyB
	j.indexA = bA.islandIndex
	j.indexB = bB.islandIndex
	j.localCenterA = bA.sweep.LocalCenter
	j.localCenterB = bB.sweep.LocalCenter
	j.invMassA = bA.invMass
	j.invMassB = bB.invMass
	j.invIA = bA.invI
	j.invIB = bB.invI
}

// localPoint maps a world point into b's frame. A nil body stands for the
// ground, which sits at the origin.
func localPoint(b *Body, p geom.Vec2) geom.Vec2 {
	if b == nil {
		return p
	}
	return b.LocalPoint(p)
}

func localVector(b *Body, v geom.Vec2) geom.Vec2 {
	if b == nil {
		return v
	}
	return b.LocalVector(v)
}

func worldPoint(b *Body, p geom.Vec2) geom.Vec2 {
	if b == nil {
		return p
	}
	return b.WorldPoint(p)
}

func worldVector(b *Body, v geom.Vec2) geom.Vec2 {
	if b == nil {
		return v
	}
	return b.WorldVector(v)
}

func bodyAngle(b *Body) float64 {
	if b == nil {
		return 0
	}
	return b.Angle()
}

func bodyAngularVelocity(b *Body) float64 {
	if b == nil {
		return 0
	}
	return b.AngularVelocity()
}

// springCoefficients turns a frequency and damping ratio into the soft
// constraint gamma and bias factor for an effective mass m and position
// error c.
func springCoefficients(m, c, frequencyHz, dampingRatio, h float64) (gamma, bias float64) {
	omega := 2 * math.Pi * frequencyHz
	d := 2 * m * dampingRatio * omega
	k := m * omega * omega
	gamma = h * (d + h*k)
	if gamma != 0 {
		gamma = 1 / gamma
	}
	bias = c * h * k * gamma
	return gamma, bias
}
