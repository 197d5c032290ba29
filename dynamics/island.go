package dynamics

import (
	"math"

	"go.uber.org/zap"

	"github.com/koteyur/physac2d/geom"
)

// island is a set of bodies connected by touching contacts and enabled
// joints. It is rebuilt for every solve and reuses its buffers.
type island struct {
	world *World

	bodies   []*Body
	contacts []*Contact
	joints   []Joint

	positions  []position
	velocities []velocity
}

func (is *island) clear() {
	clear(is.bodies)
	clear(is.contacts)
	clear(is.joints)
	is.bodies = is.bodies[:0]
	is.contacts = is.contacts[:0]
	is.joints = is.joints[:0]
}

func (is *island) addBody(b *Body) {
	b.islandIndex = len(is.bodies)
	is.bodies = append(is.bodies, b)
}

func (is *island) addContact(c *Contact) { is.contacts = append(is.contacts, c) }
func (is *island) addJoint(j Joint) { is.joints = append(is.joints, j) }

// loadState copies the body sweeps and velocities into the solver arrays.
func (is *island) loadState() {
	n := len(is.bodies)
	if cap(is.positions) < n {
		is.positions = make([]position, n)
		is.velocities = make([]velocity, n)
	}
	is.positions = is.positions[:n]
	is.velocities = is.velocities[:n]
	for i, b := range is.bodies {
		is.positions[i] = position{b.sweep.C, b.sweep.A}
		is.velocities[i] = velocity{b.linearVelocity, b.angularVelocity}
	}
}

func (is *island) solve(step timeStep) {
	w := is.world
	s := &w.settings
	h := step.dt

	// integrate velocities
	is.loadState()
	for i, b := range is.bodies {
		b.sweep.C0 = b.sweep.C
		b.sweep.A0 = b.sweep.A
		if b.typ != Dynamic {
			continue
		}
		v, av := is.velocities[i].v, is.velocities[i].w
		if !b.ignoreGravity {
			v = v.Add(w.gravity.Mul(h * b.gravityScale))
		}
		v = v.Add(b.force.Mul(h * b.invMass))
		av += h * b.invI * b.torque

		v = v.Mul(geom.Clamp(1-h*b.linearDamping, 0, 1))
		av *= geom.Clamp(1-h*b.angularDamping, 0, 1)
		is.velocities[i] = velocity{v, av}
	}

	data := &solverData{
		step:       step,
		settings:   s,
		positions:  is.positions,
		velocities: is.velocities,
	}

	cs := newContactSolver(data, is.contacts)
	cs.initializeVelocityConstraints()
	if step.warmStarting {
		cs.warmStart()
	}
	for _, j := range is.joints {
		j.initVelocityConstraints(data)
	}

	for i := 0; i < step.velocityIterations; i++ {
		for _, j := range is.joints {
			j.solveVelocityConstraints(data)
		}
		cs.solveVelocityConstraints()
	}
	cs.storeImpulses()

	is.checkBreakpoints(step.invDt)

	is.integratePositions(h)

	positionSolved := false
	for i := 0; i < step.positionIterations; i++ {
		contactsOkay := cs.solvePositionConstraints()
		jointsOkay := true
		for _, j := range is.joints {
			if !j.Enabled() {
				continue
			}
			if !j.solvePositionConstraints(data) {
				jointsOkay = false
			}
		}
		if contactsOkay && jointsOkay {
			positionSolved = true
			break
		}
	}

	is.storeState()
	is.report(cs)

	if s.AllowSleep {
		is.updateSleep(h, positionSolved)
	}
}

// checkBreakpoints disables joints whose reaction force exceeds their
// breakpoint. A broken joint is reported once and leaves the islands.
func (is *island) checkBreakpoints(invDt float64) {
	w := is.world
	for _, j := range is.joints {
		bp := j.Breakpoint()
		if bp == maxFloat || !j.Enabled() {
			continue
		}
		f := j.ReactionForce(invDt)
		if f.LenSqr() <= bp*bp {
			continue
		}
		j.base().enabled = false
		force := f.Len()
		w.log.Info("joint broken",
			zap.Int("joint", j.ID()),
			zap.Stringer("type", j.Type()),
			zap.Float64("force", force),
			zap.Float64("breakpoint", bp))
		w.listener.jointBroken(j, force)
	}
}

// integratePositions advances positions, clamping large motions.
func (is *island) integratePositions(h float64) {
	s := &is.world.settings
	maxT2 := s.MaxTranslation * s.MaxTranslation
	maxR2 := s.MaxRotation * s.MaxRotation
	for i := range is.bodies {
		c, a := is.positions[i].c, is.positions[i].a
		v, av := is.velocities[i].v, is.velocities[i].w

		translation := v.Mul(h)
		if translation.LenSqr() > maxT2 {
			v = v.Mul(s.MaxTranslation / translation.Len())
		}
		rotation := h * av
		if rotation*rotation > maxR2 {
			av *= s.MaxRotation / math.Abs(rotation)
		}

		is.positions[i] = position{c.Add(v.Mul(h)), a + h*av}
		is.velocities[i] = velocity{v, av}
	}
}

func (is *island) storeState() {
	for i, b := range is.bodies {
		b.sweep.C = is.positions[i].c
		b.sweep.A = is.positions[i].a
		b.linearVelocity = is.velocities[i].v
		b.angularVelocity = is.velocities[i].w
		b.synchronizeTransform()
	}
}

func (is *island) report(cs *contactSolver) {
	l := is.world.cm.listener
	if l == nil {
		return
	}
	for i, c := range is.contacts {
		impulse := cs.velocityConstraints[i].impulse()
		l.PostSolve(c, &impulse)
	}
}

// updateSleep puts the whole island to sleep once every body has been
// slow for TimeToSleep.
func (is *island) updateSleep(h float64, positionSolved bool) {
	s := &is.world.settings
	minSleepTime := maxFloat
	linTol2 := s.LinearSleepTolerance * s.LinearSleepTolerance
	angTol2 := s.AngularSleepTolerance * s.AngularSleepTolerance

	for _, b := range is.bodies {
		if b.typ == Static {
			continue
		}
		if !b.sleepingAllowed || b.angularVelocity*b.angularVelocity > angTol2 || b.linearVelocity.LenSqr() > linTol2 {
			b.sleepTime = 0
			minSleepTime = 0
		} else {
			b.sleepTime += h
			minSleepTime = math.Min(minSleepTime, b.sleepTime)
		}
	}

	if minSleepTime >= s.TimeToSleep && positionSolved {
		for _, b := range is.bodies {
			b.SetAwake(false)
		}
	}
}

// solveTOI resolves the overlap of the two TOI bodies and integrates the
// island over the remaining sub-step. Only bodies toiIndexA and
// toiIndexB are moved by the position solver.
func (is *island) solveTOI(subStep timeStep, toiIndexA, toiIndexB int) {
	is.loadState()
	data := &solverData{
		step:       subStep,
		settings:   &is.world.settings,
		positions:  is.positions,
		velocities: is.velocities,
	}
	cs := newContactSolver(data, is.contacts)

	for i := 0; i < subStep.positionIterations; i++ {
		if cs.solveTOIPositionConstraints(toiIndexA, toiIndexB) {
			break
		}
	}

	// the sweeps of the TOI bodies restart from the resolved positions
	bA, bB := is.bodies[toiIndexA], is.bodies[toiIndexB]
	bA.sweep.C0 = is.positions[toiIndexA].c
	bA.sweep.A0 = is.positions[toiIndexA].a
	bB.sweep.C0 = is.positions[toiIndexB].c
	bB.sweep.A0 = is.positions[toiIndexB].a

	cs.initializeVelocityConstraints()
	for i := 0; i < subStep.velocityIterations; i++ {
		cs.solveVelocityConstraints()
	}

	is.integratePositions(subStep.dt)
	is.storeState()
	is.report(cs)
}
