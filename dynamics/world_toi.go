package dynamics

import (
	"math"

	"go.uber.org/zap"

	"github.com/koteyur/physac2d/collision"
	"github.com/koteyur/physac2d/geom"
)

// toiPositionIterations is the position iteration count of a TOI
// sub-step.
const toiPositionIterations = 20

// ccdCandidate reports whether a contact takes part in continuous
// collision: one side must be a bullet or non-dynamic, neither body may
// opt out, and the fixtures may exclude each other by category.
func ccdCandidate(c *Contact) bool {
	fA, fB := c.fixtureA, c.fixtureB
	if fA.sensor || fB.sensor {
		return false
	}
	bA, bB := fA.body, fB.body

	activeA := bA.awake && bA.typ != Static
	activeB := bB.awake && bB.typ != Static
	if !activeA && !activeB {
		return false
	}

	collideA := bA.bullet || bA.typ != Dynamic
	collideB := bB.bullet || bB.typ != Dynamic
	if !collideA && !collideB {
		return false
	}

	if bA.ignoreCCD || bB.ignoreCCD {
		return false
	}
	return !fA.ignoresCCD(fB)
}

// contactTOI computes the fraction of the step at which the contact
// shapes first touch, advancing the lagging sweep so both start from the
// same time.
func contactTOI(c *Contact) float64 {
	fA, fB := c.fixtureA, c.fixtureB
	bA, bB := fA.body, fB.body

	alpha0 := bA.sweep.Alpha0
	if bA.sweep.Alpha0 < bB.sweep.Alpha0 {
		alpha0 = bB.sweep.Alpha0
		bA.sweep.Advance(alpha0)
	} else if bB.sweep.Alpha0 < bA.sweep.Alpha0 {
		alpha0 = bA.sweep.Alpha0
		bB.sweep.Advance(alpha0)
	}

	out := collision.TimeOfImpact(collision.TOIInput{
		ProxyA: fA.shape.Proxy(c.childA),
		ProxyB: fB.shape.Proxy(c.childB),
		SweepA: bA.sweep,
		SweepB: bB.sweep,
		TMax:   1,
	})

	// a failed search still reports the best safe fraction it reached
	switch out.State {
	case collision.TOITouching, collision.TOIFailed:
		return math.Min(alpha0+(1-alpha0)*out.T, 1)
	default:
		return 1
	}
}

// solveTOI sweeps fast bodies against the rest of the world. It handles
// the earliest impact first, solves a small island around it and repeats
// until no impact is left in the step.
func (w *World) solveTOI(step timeStep) {
	s := &w.settings
	is := &w.island

	if w.stepComplete {
		for _, b := range w.bodies {
			b.islandFlag = false
			b.sweep.Alpha0 = 0
		}
		for _, c := range w.cm.contacts {
			c.toiFlag = false
			c.islandFlag = false
			c.toiCount = 0
			c.toi = 1
		}
	}

	for {
		var minContact *Contact
		minAlpha := 1.0

		for _, c := range w.cm.contacts {
			if !c.enabled || c.toiCount > s.MaxSubSteps {
				continue
			}
			var alpha float64
			if c.toiFlag {
				alpha = c.toi
			} else {
				if !ccdCandidate(c) {
					continue
				}
				alpha = contactTOI(c)
				c.toi = alpha
				c.toiFlag = true
			}
			if alpha < minAlpha {
				minContact = c
				minAlpha = alpha
			}
		}

		if minContact == nil || 1-10*geom.Epsilon < minAlpha {
			w.stepComplete = true
			break
		}

		bA, bB := minContact.fixtureA.body, minContact.fixtureB.body
		backupA, backupB := bA.sweep, bB.sweep

		bA.advance(minAlpha)
		bB.advance(minAlpha)

		minContact.update(w.cm.listener)
		minContact.toiFlag = false
		minContact.toiCount++
		if minContact.toiCount == s.MaxSubSteps {
			w.log.Warn("toi sub-step cap reached",
				zap.Int("bodyA", bA.id),
				zap.Int("bodyB", bB.id),
				zap.Int("subSteps", minContact.toiCount))
		}

		// the shapes missed each other after all
		if !minContact.enabled || !minContact.touching {
			minContact.enabled = false
			bA.sweep = backupA
			bB.sweep = backupB
			bA.synchronizeTransform()
			bB.synchronizeTransform()
			continue
		}

		bA.SetAwake(true)
		bB.SetAwake(true)

		is.clear()
		is.addBody(bA)
		is.addBody(bB)
		is.addContact(minContact)
		bA.islandFlag = true
		bB.islandFlag = true
		minContact.islandFlag = true

		w.gatherTOIContacts(bA, minAlpha)
		w.gatherTOIContacts(bB, minAlpha)

		dt := (1 - minAlpha) * step.dt
		subStep := timeStep{
			dt:                 dt,
			dtRatio:            1,
			positionIterations: toiPositionIterations,
			velocityIterations: step.velocityIterations,
		}
		if dt > 0 {
			subStep.invDt = 1 / dt
		}
		is.solveTOI(subStep, bA.islandIndex, bB.islandIndex)
		w.stats.TOIEvents++

		// the island bodies were moved: their contacts need new TOIs
		for _, b := range is.bodies {
			b.islandFlag = false
			if b.typ != Dynamic {
				continue
			}
			b.synchronizeFixtures()
			for _, ce := range b.contacts {
				ce.Contact.toiFlag = false
				ce.Contact.islandFlag = false
			}
		}

		// contacts found here are picked up by the next iteration
		w.cm.findNewContacts()

		if s.EnableSubStepping {
			w.stepComplete = false
			break
		}
	}
}

// gatherTOIContacts adds the touching contacts of body to the TOI island.
// Only contacts against static, kinematic or bullet bodies take part, so
// the island stays small.
func (w *World) gatherTOIContacts(body *Body, minAlpha float64) {
	if body.typ != Dynamic {
		return
	}
	is := &w.island
	for _, ce := range body.contacts {
		if len(is.contacts) >= w.settings.MaxTOIContacts || len(is.bodies) >= w.settings.MaxTOIContacts {
			break
		}
		c := ce.Contact
		if c.islandFlag {
			continue
		}
		other := ce.Other
		if other.typ == Dynamic && !body.bullet && !other.bullet {
			continue
		}
		if c.isSensor() || other.ignoreCCD || body.ignoreCCD || c.fixtureA.ignoresCCD(c.fixtureB) {
			continue
		}

		backup := other.sweep
		if !other.islandFlag {
			other.advance(minAlpha)
		}

		c.update(w.cm.listener)

		if !c.enabled || !c.touching {
			other.sweep = backup
			other.synchronizeTransform()
			continue
		}

		c.islandFlag = true
		is.addContact(c)

		if other.islandFlag {
			continue
		}
		other.islandFlag = true
		if other.typ != Static {
			other.SetAwake(true)
		}
		is.addBody(other)
	}
}
