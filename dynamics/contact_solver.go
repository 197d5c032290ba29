package dynamics

import (
	"math"

	"github.com/koteyur/physac2d/collision"
	"github.com/koteyur/physac2d/geom"
)

// blockSolveMaxCondition guards the 2-point block solver against an
// ill-conditioned effective mass matrix.
const blockSolveMaxCondition = 1000.0

type timeStep struct {
	dt      float64
	invDt   float64
	dtRatio float64

	velocityIterations int
	positionIterations int
	warmStarting       bool
}

type position struct {
	c geom.Vec2
	a float64
}

type velocity struct {
	v geom.Vec2
	w float64
}

// solverData is what joints see while an island is solved.
type solverData struct {
	step       timeStep
	settings   *Settings
	positions  []position
	velocities []velocity
}

type velocityConstraintPoint struct {
	rA, rB         geom.Vec2
	normalImpulse  float64
	tangentImpulse float64
	normalMass     float64
	tangentMass    float64
	velocityBias   float64
}

type contactVelocityConstraint struct {
	points       [collision.MaxManifoldPoints]velocityConstraintPoint
	normal       geom.Vec2
	normalMass   geom.Mat22
	k            geom.Mat22
	indexA       int
	indexB       int
	invMassA     float64
	invMassB     float64
	invIA        float64
	invIB        float64
	friction     float64
	restitution  float64
	tangentSpeed float64
	pointCount   int
	contact      *Contact
}

type contactPositionConstraint struct {
	localPoints  [collision.MaxManifoldPoints]geom.Vec2
	localNormal  geom.Vec2
	localPoint   geom.Vec2
	indexA       int
	indexB       int
	invMassA     float64
	invMassB     float64
	localCenterA geom.Vec2
	localCenterB geom.Vec2
	invIA        float64
	invIB        float64
	typ          collision.ManifoldType
	radiusA      float64
	radiusB      float64
	pointCount   int
}

type contactSolver struct {
	step       timeStep
	settings   *Settings
	positions  []position
	velocities []velocity

	positionConstraints []contactPositionConstraint
	velocityConstraints []contactVelocityConstraint
}

func newContactSolver(data *solverData, contacts []*Contact) *contactSolver {
	cs := &contactSolver{
		step:                data.step,
		settings:            data.settings,
		positions:           data.positions,
		velocities:          data.velocities,
		positionConstraints: make([]contactPositionConstraint, len(contacts)),
		velocityConstraints: make([]contactVelocityConstraint, len(contacts)),
	}

	for i, c := range contacts {
		fA, fB := c.fixtureA, c.fixtureB
		bA, bB := fA.body, fB.body
		m := &c.manifold

		vc := &cs.velocityConstraints[i]
		vc.friction = c.friction
		vc.restitution = c.restitution
		vc.tangentSpeed = c.tangentSpeed
		vc.indexA = bA.islandIndex
		vc.indexB = bB.islandIndex
		vc.invMassA = bA.invMass
		vc.invMassB = bB.invMass
		vc.invIA = bA.invI
		vc.invIB = bB.invI
		vc.contact = c
		vc.pointCount = m.PointCount

		pc := &cs.positionConstraints[i]
		pc.indexA = bA.islandIndex
		pc.indexB = bB.islandIndex
		pc.invMassA = bA.invMass
		pc.invMassB = bB.invMass
		pc.localCenterA = bA.sweep.LocalCenter
		pc.localCenterB = bB.sweep.LocalCenter
		pc.invIA = bA.invI
		pc.invIB = bB.invI
		pc.localNormal = m.LocalNormal
		pc.localPoint = m.LocalPoint
		pc.pointCount = m.PointCount
		pc.radiusA = fA.shape.Radius()
		pc.radiusB = fB.shape.Radius()
		pc.typ = m.Type

		for j := 0; j < m.PointCount; j++ {
			mp := &m.Points[j]
			vcp := &vc.points[j]
			if cs.step.warmStarting {
				vcp.normalImpulse = cs.step.dtRatio * mp.NormalImpulse
				vcp.tangentImpulse = cs.step.dtRatio * mp.TangentImpulse
			}
			pc.localPoints[j] = mp.LocalPoint
		}
	}
	return cs
}

func (cs *contactSolver) initializeVelocityConstraints() {
	for i := range cs.velocityConstraints {
		vc := &cs.velocityConstraints[i]
		pc := &cs.positionConstraints[i]

		mA, mB := vc.invMassA, vc.invMassB
		iA, iB := vc.invIA, vc.invIB

		cA, aA := cs.positions[vc.indexA].c, cs.positions[vc.indexA].a
		vA, wA := cs.velocities[vc.indexA].v, cs.velocities[vc.indexA].w
		cB, aB := cs.positions[vc.indexB].c, cs.positions[vc.indexB].a
		vB, wB := cs.velocities[vc.indexB].v, cs.velocities[vc.indexB].w

		xfA := geom.Transform{Q: geom.NewRot(aA)}
		xfB := geom.Transform{Q: geom.NewRot(aB)}
		xfA.P = cA.Sub(xfA.Q.Apply(pc.localCenterA))
		xfB.P = cB.Sub(xfB.Q.Apply(pc.localCenterB))

		wm := collision.NewWorldManifold(&vc.contact.manifold, xfA, pc.radiusA, xfB, pc.radiusB)
		vc.normal = wm.Normal
		tangent := vc.normal.CrossS(1)

		for j := 0; j < vc.pointCount; j++ {
			vcp := &vc.points[j]
			vcp.rA = wm.Points[j].Sub(cA)
			vcp.rB = wm.Points[j].Sub(cB)

			rnA := vcp.rA.Cross(vc.normal)
			rnB := vcp.rB.Cross(vc.normal)
			kNormal := mA + mB + iA*rnA*rnA + iB*rnB*rnB
			vcp.normalMass = 0
			if kNormal > 0 {
				vcp.normalMass = 1 / kNormal
			}

			rtA := vcp.rA.Cross(tangent)
			rtB := vcp.rB.Cross(tangent)
			kTangent := mA + mB + iA*rtA*rtA + iB*rtB*rtB
			vcp.tangentMass = 0
			if kTangent > 0 {
				vcp.tangentMass = 1 / kTangent
			}

			vcp.velocityBias = 0
			vRel := vc.normal.Dot(vB.Add(geom.CrossSV(wB, vcp.rB)).Sub(vA).Sub(geom.CrossSV(wA, vcp.rA)))
			if vRel < -cs.settings.VelocityThreshold {
				vcp.velocityBias = -vc.restitution * vRel
			}
		}

		if vc.pointCount == 2 {
			vcp1, vcp2 := &vc.points[0], &vc.points[1]
			rn1A := vcp1.rA.Cross(vc.normal)
			rn1B := vcp1.rB.Cross(vc.normal)
			rn2A := vcp2.rA.Cross(vc.normal)
			rn2B := vcp2.rB.Cross(vc.normal)

			k11 := mA + mB + iA*rn1A*rn1A + iB*rn1B*rn1B
			k22 := mA + mB + iA*rn2A*rn2A + iB*rn2B*rn2B
			k12 := mA + mB + iA*rn1A*rn2A + iB*rn1B*rn2B

			if k11*k11 < blockSolveMaxCondition*(k11*k22-k12*k12) {
				vc.k = geom.Mat22{Ex: geom.V(k11, k12), Ey: geom.V(k12, k22)}
				vc.normalMass = vc.k.Inverse()
			} else {
				// nearly redundant points: solve one
				vc.pointCount = 1
			}
		}
	}
}

func (cs *contactSolver) warmStart() {
	for i := range cs.velocityConstraints {
		vc := &cs.velocityConstraints[i]
		mA, mB := vc.invMassA, vc.invMassB
		iA, iB := vc.invIA, vc.invIB

		vA, wA := cs.velocities[vc.indexA].v, cs.velocities[vc.indexA].w
		vB, wB := cs.velocities[vc.indexB].v, cs.velocities[vc.indexB].w

		tangent := vc.normal.CrossS(1)
		for j := 0; j < vc.pointCount; j++ {
			vcp := &vc.points[j]
			p := vc.normal.Mul(vcp.normalImpulse).Add(tangent.Mul(vcp.tangentImpulse))
			wA -= iA * vcp.rA.Cross(p)
			vA = vA.Sub(p.Mul(mA))
			wB += iB * vcp.rB.Cross(p)
			vB = vB.Add(p.Mul(mB))
		}

		cs.velocities[vc.indexA] = velocity{vA, wA}
		cs.velocities[vc.indexB] = velocity{vB, wB}
	}
}

func (cs *contactSolver) solveVelocityConstraints() {
	for i := range cs.velocityConstraints {
		vc := &cs.velocityConstraints[i]
		mA, mB := vc.invMassA, vc.invMassB
		iA, iB := vc.invIA, vc.invIB

		vA, wA := cs.velocities[vc.indexA].v, cs.velocities[vc.indexA].w
		vB, wB := cs.velocities[vc.indexB].v, cs.velocities[vc.indexB].w

		normal := vc.normal
		tangent := normal.CrossS(1)

		// friction first: it is bounded by the normal impulse, which
		// matters more
		for j := 0; j < vc.pointCount; j++ {
			vcp := &vc.points[j]
			dv := vB.Add(geom.CrossSV(wB, vcp.rB)).Sub(vA).Sub(geom.CrossSV(wA, vcp.rA))
			vt := dv.Dot(tangent) - vc.tangentSpeed
			lambda := vcp.tangentMass * -vt

			maxFriction := vc.friction * vcp.normalImpulse
			newImpulse := geom.Clamp(vcp.tangentImpulse+lambda, -maxFriction, maxFriction)
			lambda = newImpulse - vcp.tangentImpulse
			vcp.tangentImpulse = newImpulse

			p := tangent.Mul(lambda)
			vA = vA.Sub(p.Mul(mA))
			wA -= iA * vcp.rA.Cross(p)
			vB = vB.Add(p.Mul(mB))
			wB += iB * vcp.rB.Cross(p)
		}

		if vc.pointCount == 1 {
			vcp := &vc.points[0]
			dv := vB.Add(geom.CrossSV(wB, vcp.rB)).Sub(vA).Sub(geom.CrossSV(wA, vcp.rA))
			vn := dv.Dot(normal)
			lambda := -vcp.normalMass * (vn - vcp.velocityBias)

			newImpulse := math.Max(vcp.normalImpulse+lambda, 0)
			lambda = newImpulse - vcp.normalImpulse
			vcp.normalImpulse = newImpulse

			p := normal.Mul(lambda)
			vA = vA.Sub(p.Mul(mA))
			wA -= iA * vcp.rA.Cross(p)
			vB = vB.Add(p.Mul(mB))
			wB += iB * vcp.rB.Cross(p)
		} else {
			vA, wA, vB, wB = cs.solveBlock(vc, vA, wA, vB, wB)
		}

		cs.velocities[vc.indexA] = velocity{vA, wA}
		cs.velocities[vc.indexB] = velocity{vB, wB}
	}
}

// solveBlock solves the two normal constraints together as a linear
// complementarity problem by enumerating the four sign cases.
func (cs *contactSolver) solveBlock(vc *contactVelocityConstraint, vA geom.Vec2, wA float64, vB geom.Vec2, wB float64) (geom.Vec2, float64, geom.Vec2, float64) {
	mA, mB := vc.invMassA, vc.invMassB
	iA, iB := vc.invIA, vc.invIB
	normal := vc.normal
	cp1, cp2 := &vc.points[0], &vc.points[1]

	a := geom.V(cp1.normalImpulse, cp2.normalImpulse)

	dv1 := vB.Add(geom.CrossSV(wB, cp1.rB)).Sub(vA).Sub(geom.CrossSV(wA, cp1.rA))
	dv2 := vB.Add(geom.CrossSV(wB, cp2.rB)).Sub(vA).Sub(geom.CrossSV(wA, cp2.rA))
	vn1 := dv1.Dot(normal)
	vn2 := dv2.Dot(normal)

	b := geom.V(vn1-cp1.velocityBias, vn2-cp2.velocityBias)
	b = b.Sub(vc.k.MulV(a))

	apply := func(x geom.Vec2) {
		d := x.Sub(a)
		p1 := normal.Mul(d.X)
		p2 := normal.Mul(d.Y)
		vA = vA.Sub(p1.Add(p2).Mul(mA))
		wA -= iA * (cp1.rA.Cross(p1) + cp2.rA.Cross(p2))
		vB = vB.Add(p1.Add(p2).Mul(mB))
		wB += iB * (cp1.rB.Cross(p1) + cp2.rB.Cross(p2))
		cp1.normalImpulse = x.X
		cp2.normalImpulse = x.Y
	}

	// both points active
	x := vc.normalMass.MulV(b).Neg()
	if x.X >= 0 && x.Y >= 0 {
		apply(x)
		return vA, wA, vB, wB
	}

	// only the first point active
	x = geom.V(-cp1.normalMass*b.X, 0)
	vn2 = vc.k.Ex.Y*x.X + b.Y
	if x.X >= 0 && vn2 >= 0 {
		apply(x)
		return vA, wA, vB, wB
	}

	// only the second point active
	x = geom.V(0, -cp2.normalMass*b.Y)
	vn1 = vc.k.Ey.X*x.Y + b.X
	if x.Y >= 0 && vn1 >= 0 {
		apply(x)
		return vA, wA, vB, wB
	}

	// both separating
	x = geom.Vec2{}
	if b.X >= 0 && b.Y >= 0 {
		apply(x)
	}
	// otherwise no solution; keep the impulses
	return vA, wA, vB, wB
}

func (cs *contactSolver) storeImpulses() {
	for i := range cs.velocityConstraints {
		vc := &cs.velocityConstraints[i]
		m := &vc.contact.manifold
		for j := 0; j < vc.pointCount; j++ {
			m.Points[j].NormalImpulse = vc.points[j].normalImpulse
			m.Points[j].TangentImpulse = vc.points[j].tangentImpulse
		}
	}
}

// impulse reports what the solver applied, for PostSolve.
func (vc *contactVelocityConstraint) impulse() ContactImpulse {
	ci := ContactImpulse{Count: vc.pointCount}
	for j := 0; j < vc.pointCount; j++ {
		ci.NormalImpulses[j] = vc.points[j].normalImpulse
		ci.TangentImpulses[j] = vc.points[j].tangentImpulse
	}
	return ci
}

// positionManifold evaluates contact point j at the given transforms.
func (pc *contactPositionConstraint) positionManifold(xfA, xfB geom.Transform, j int) (normal, point geom.Vec2, separation float64) {
	switch pc.typ {
	case collision.ManifoldCircles:
		pointA := xfA.Apply(pc.localPoint)
		pointB := xfB.Apply(pc.localPoints[0])
		normal = pointB.Sub(pointA).Unit()
		point = pointA.Add(pointB).Mul(0.5)
		separation = pointB.Sub(pointA).Dot(normal) - pc.radiusA - pc.radiusB
	case collision.ManifoldFaceA:
		normal = xfA.Q.Apply(pc.localNormal)
		planePoint := xfA.Apply(pc.localPoint)
		clipPoint := xfB.Apply(pc.localPoints[j])
		separation = clipPoint.Sub(planePoint).Dot(normal) - pc.radiusA - pc.radiusB
		point = clipPoint
	case collision.ManifoldFaceB:
		normal = xfB.Q.Apply(pc.localNormal)
		planePoint := xfB.Apply(pc.localPoint)
		clipPoint := xfA.Apply(pc.localPoints[j])
		separation = clipPoint.Sub(planePoint).Dot(normal) - pc.radiusA - pc.radiusB
		point = clipPoint
		// keep the normal pointing from A to B
		normal = normal.Neg()
	}
	return normal, point, separation
}

// solvePositionConstraints pushes overlapping shapes apart and reports
// whether every contact is within tolerance.
func (cs *contactSolver) solvePositionConstraints() bool {
	minSep := cs.solvePositions(cs.settings.Baumgarte, -1, -1)
	return minSep >= -3*linearSlop
}

// solveTOIPositionConstraints moves only the two TOI bodies; everything
// else in the sub-island acts as if it had infinite mass.
func (cs *contactSolver) solveTOIPositionConstraints(toiIndexA, toiIndexB int) bool {
	minSep := cs.solvePositions(cs.settings.ToiBaumgarte, toiIndexA, toiIndexB)
	return minSep >= -1.5*linearSlop
}

func (cs *contactSolver) solvePositions(baumgarte float64, toiIndexA, toiIndexB int) float64 {
	minSep := 0.0
	toi := toiIndexA >= 0

	for i := range cs.positionConstraints {
		pc := &cs.positionConstraints[i]

		indexA, indexB := pc.indexA, pc.indexB
		mA, iA := pc.invMassA, pc.invIA
		mB, iB := pc.invMassB, pc.invIB
		if toi {
			mA, iA, mB, iB = 0, 0, 0, 0
			if indexA == toiIndexA || indexA == toiIndexB {
				mA, iA = pc.invMassA, pc.invIA
			}
			if indexB == toiIndexA || indexB == toiIndexB {
				mB, iB = pc.invMassB, pc.invIB
			}
		}

		cA, aA := cs.positions[indexA].c, cs.positions[indexA].a
		cB, aB := cs.positions[indexB].c, cs.positions[indexB].a

		for j := 0; j < pc.pointCount; j++ {
			xfA := geom.Transform{Q: geom.NewRot(aA)}
			xfB := geom.Transform{Q: geom.NewRot(aB)}
			xfA.P = cA.Sub(xfA.Q.Apply(pc.localCenterA))
			xfB.P = cB.Sub(xfB.Q.Apply(pc.localCenterB))

			normal, point, separation := pc.positionManifold(xfA, xfB, j)
			rA := point.Sub(cA)
			rB := point.Sub(cB)

			minSep = math.Min(minSep, separation)

			// prevent large corrections and allow slop
			c := geom.Clamp(baumgarte*(separation+linearSlop), -cs.settings.MaxLinearCorrection, 0)

			rnA := rA.Cross(normal)
			rnB := rB.Cross(normal)
			k := mA + mB + iA*rnA*rnA + iB*rnB*rnB

			impulse := 0.0
			if k > 0 {
				impulse = -c / k
			}
			p := normal.Mul(impulse)

			cA = cA.Sub(p.Mul(mA))
			aA -= iA * rA.Cross(p)
			cB = cB.Add(p.Mul(mB))
			aB += iB * rB.Cross(p)
		}

		cs.positions[indexA] = position{cA, aA}
		cs.positions[indexB] = position{cB, aB}
	}
	return minSep
}
