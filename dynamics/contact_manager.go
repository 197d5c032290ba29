package dynamics

import "github.com/koteyur/physac2d/collision"

// contactManager owns the broad-phase and the list of live contacts.
type contactManager struct {
	bp       *collision.BroadPhase[*fixtureProxy]
	contacts []*Contact

	filter   ContactFilterFunc
	listener ContactListener
}

func newContactManager() *contactManager {
	return &contactManager{bp: collision.NewBroadPhase[*fixtureProxy]()}
}

// findNewContacts creates contacts for the new broad-phase pairs.
func (cm *contactManager) findNewContacts() {
	cm.bp.UpdatePairs(cm.addPair)
}

func (cm *contactManager) addPair(pA, pB *fixtureProxy) {
	fA, fB := pA.fixture, pB.fixture
	bA, bB := fA.body, fB.body

	if bA == bB {
		return
	}

	// the pair may already have a contact from an earlier step
	for _, ce := range bB.contacts {
		if ce.Other != bA {
			continue
		}
		c := ce.Contact
		if c.fixtureA == fA && c.childA == pA.child && c.fixtureB == fB && c.childB == pB.child {
			return
		}
		if c.fixtureA == fB && c.childA == pB.child && c.fixtureB == fA && c.childB == pA.child {
			return
		}
	}

	if !cm.shouldCollide(fA, fB) {
		return
	}
	if fA.BeforeCollision != nil && !fA.BeforeCollision(fA, fB) {
		return
	}
	if fB.BeforeCollision != nil && !fB.BeforeCollision(fB, fA) {
		return
	}

	c := newContact(fA, pA.child, fB, pB.child)
	if c == nil {
		return
	}

	// newContact may have swapped the fixtures
	bA, bB = c.fixtureA.body, c.fixtureB.body

	c.index = len(cm.contacts)
	cm.contacts = append(cm.contacts, c)
	bA.contacts = append(bA.contacts, ContactEdge{Other: bB, Contact: c})
	bB.contacts = append(bB.contacts, ContactEdge{Other: bA, Contact: c})

	if !c.isSensor() {
		bA.SetAwake(true)
		bB.SetAwake(true)
	}
}

// shouldCollide runs every filter that is re-evaluated for flagged
// contacts. All tests are symmetric in the two fixtures.
func (cm *contactManager) shouldCollide(fA, fB *Fixture) bool {
	if !fB.body.shouldCollide(fA.body) {
		return false
	}
	if !fA.shouldCollide(fB) {
		return false
	}
	if cm.filter != nil && !cm.filter(fA, fB) {
		return false
	}
	return true
}

// destroy unlinks a contact from the bodies and the list. A touching
// contact reports its end first.
func (cm *contactManager) destroy(c *Contact) {
	fA, fB := c.fixtureA, c.fixtureB
	bA, bB := fA.body, fB.body

	if c.touching {
		c.separated(cm.listener)
	}

	bA.removeContactEdge(c)
	bB.removeContactEdge(c)

	last := len(cm.contacts) - 1
	moved := cm.contacts[last]
	cm.contacts[c.index] = moved
	moved.index = c.index
	cm.contacts[last] = nil
	cm.contacts = cm.contacts[:last]
	c.index = -1
}

// collide updates every contact: re-filtering, dropping pairs whose fat
// AABBs separated, and running the narrow-phase on the rest.
func (cm *contactManager) collide() {
	for i := 0; i < len(cm.contacts); {
		c := cm.contacts[i]
		fA, fB := c.fixtureA, c.fixtureB
		bA, bB := fA.body, fB.body

		if c.filterFlag {
			c.filterFlag = false
			if !cm.shouldCollide(fA, fB) {
				cm.destroy(c)
				continue
			}
		}

		activeA := bA.awake && bA.typ != Static
		activeB := bB.awake && bB.typ != Static
		if !activeA && !activeB {
			i++
			continue
		}

		idA := fA.proxies[c.childA].id
		idB := fB.proxies[c.childB].id
		if !cm.bp.TestOverlap(idA, idB) {
			cm.destroy(c)
			continue
		}

		c.update(cm.listener)
		i++
	}
}
