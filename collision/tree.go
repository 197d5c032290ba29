package collision

import (
	"fmt"
	"math"

	"github.com/koteyur/physac2d/geom"
)

const nullNode = -1

type treeNode[T any] struct {
	aabb     geom.AABB
	userData T

	// parent doubles as the free-list link
	parent int
	child1 int
	child2 int

	// leaf = 0, free node = -1
	height int
	moved  bool
}

func (n *treeNode[T]) isLeaf() bool {
	return n.child1 == nullNode
}

// DynamicTree is a bounding volume hierarchy of fattened AABBs. Leaves are
// proxies carrying user data of type T. Internal nodes are kept balanced
// with AVL style rotations. Proxy ids are stable for the life of a proxy.
type DynamicTree[T any] struct {
	root         int
	nodes        []treeNode[T]
	nodeCount    int
	freeList     int
	insertionCnt int
}

// NewDynamicTree returns an empty tree.
func NewDynamicTree[T any]() *DynamicTree[T] {
	t := &DynamicTree[T]{root: nullNode}
	t.grow(16)
	return t
}

func (t *DynamicTree[T]) grow(capacity int) {
	old := len(t.nodes)
	nodes := make([]treeNode[T], capacity)
	copy(nodes, t.nodes)
	for i := old; i < capacity-1; i++ {
		nodes[i].parent = i + 1
		nodes[i].height = -1
		nodes[i].child1, nodes[i].child2 = nullNode, nullNode
	}
	nodes[capacity-1].parent = nullNode
	nodes[capacity-1].height = -1
	nodes[capacity-1].child1, nodes[capacity-1].child2 = nullNode, nullNode
	t.nodes = nodes
	t.freeList = old
}

func (t *DynamicTree[T]) allocateNode() int {
	if t.freeList == nullNode {
		t.grow(2 * len(t.nodes))
	}
	id := t.freeList
	n := &t.nodes[id]
	t.freeList = n.parent
	n.parent = nullNode
	n.child1 = nullNode
	n.child2 = nullNode
	n.height = 0
	n.moved = false
	var zero T
	n.userData = zero
	t.nodeCount++
	return id
}

func (t *DynamicTree[T]) freeNode(id int) {
	var zero T
	t.nodes[id].userData = zero
	t.nodes[id].parent = t.freeList
	t.nodes[id].height = -1
	t.freeList = id
	t.nodeCount--
}

// CreateProxy inserts a leaf for aabb, fattened by AABBExtension.
func (t *DynamicTree[T]) CreateProxy(aabb geom.AABB, userData T) int {
	id := t.allocateNode()
	t.nodes[id].aabb = aabb.Expand(AABBExtension)
	t.nodes[id].userData = userData
	t.nodes[id].height = 0
	t.nodes[id].moved = true
	t.insertLeaf(id)
	return id
}

// DestroyProxy removes a leaf.
func (t *DynamicTree[T]) DestroyProxy(id int) {
	t.checkLeaf(id)
	t.removeLeaf(id)
	t.freeNode(id)
}

// MoveProxy refits a leaf whose tight AABB is now aabb. It reports false
// when the stored fat AABB still contains the new one and the proxy was
// left in place. displacement predicts the next move and stretches the
// fat AABB in that direction.
func (t *DynamicTree[T]) MoveProxy(id int, aabb geom.AABB, displacement geom.Vec2) bool {
	t.checkLeaf(id)

	fat := aabb.Expand(AABBExtension)
	d := displacement.Mul(AABBMultiplier)
	if d.X < 0 {
		fat.Lower.X += d.X
	} else {
		fat.Upper.X += d.X
	}
	if d.Y < 0 {
		fat.Lower.Y += d.Y
	} else {
		fat.Upper.Y += d.Y
	}

	treeAABB := t.nodes[id].aabb
	if treeAABB.Contains(aabb) {
		// The tree AABB still holds the object, but it may be too large:
		// shrink when it contains even a hugely enlarged fat AABB.
		huge := fat.Expand(4 * AABBExtension)
		if huge.Contains(treeAABB) {
			return false
		}
	}

	t.removeLeaf(id)
	t.nodes[id].aabb = fat
	t.insertLeaf(id)
	t.nodes[id].moved = true
	return true
}

// UserData returns the data stored with a proxy.
func (t *DynamicTree[T]) UserData(id int) T {
	t.checkLeaf(id)
	return t.nodes[id].userData
}

// FatAABB returns the fattened AABB stored for a proxy.
func (t *DynamicTree[T]) FatAABB(id int) geom.AABB {
	t.checkLeaf(id)
	return t.nodes[id].aabb
}

// WasMoved reports whether a proxy moved since ClearMoved was called.
func (t *DynamicTree[T]) WasMoved(id int) bool {
	return t.nodes[id].moved
}

func (t *DynamicTree[T]) ClearMoved(id int) {
	t.nodes[id].moved = false
}

func (t *DynamicTree[T]) checkLeaf(id int) {
	if id < 0 || id >= len(t.nodes) || !t.nodes[id].isLeaf() || t.nodes[id].height != 0 {
		panic(fmt.Sprintf("collision: invalid proxy id %d", id))
	}
}

func (t *DynamicTree[T]) insertLeaf(leaf int) {
	t.insertionCnt++

	if t.root == nullNode {
		t.root = leaf
		t.nodes[leaf].parent = nullNode
		return
	}

	// find the best sibling by the surface area heuristic
	leafAABB := t.nodes[leaf].aabb
	index := t.root
	for !t.nodes[index].isLeaf() {
		n := &t.nodes[index]
		child1, child2 := n.child1, n.child2

		area := n.aabb.Perimeter()
		combinedArea := n.aabb.Combine(leafAABB).Perimeter()

		// cost of creating a new parent for this node and the new leaf
		cost := 2 * combinedArea
		// minimum cost of pushing the leaf further down the tree
		inheritance := 2 * (combinedArea - area)

		cost1 := t.descendCost(child1, leafAABB) + inheritance
		cost2 := t.descendCost(child2, leafAABB) + inheritance

		if cost < cost1 && cost < cost2 {
			break
		}
		if cost1 < cost2 {
			index = child1
		} else {
			index = child2
		}
	}
	sibling := index

	oldParent := t.nodes[sibling].parent
	newParent := t.allocateNode()
	np := &t.nodes[newParent]
	np.parent = oldParent
	np.aabb = leafAABB.Combine(t.nodes[sibling].aabb)
	np.height = t.nodes[sibling].height + 1

	if oldParent != nullNode {
		if t.nodes[oldParent].child1 == sibling {
			t.nodes[oldParent].child1 = newParent
		} else {
			t.nodes[oldParent].child2 = newParent
		}
	} else {
		t.root = newParent
	}
	np.child1 = sibling
	np.child2 = leaf
	t.nodes[sibling].parent = newParent
	t.nodes[leaf].parent = newParent

	t.refit(t.nodes[leaf].parent)
}

func (t *DynamicTree[T]) descendCost(child int, leafAABB geom.AABB) float64 {
	c := &t.nodes[child]
	combined := leafAABB.Combine(c.aabb)
	if c.isLeaf() {
		return combined.Perimeter()
	}
	return combined.Perimeter() - c.aabb.Perimeter()
}

// refit walks from index to the root fixing heights and AABBs, rotating
// where a subtree is out of balance.
func (t *DynamicTree[T]) refit(index int) {
	for index != nullNode {
		index = t.balance(index)

		n := &t.nodes[index]
		c1, c2 := &t.nodes[n.child1], &t.nodes[n.child2]
		n.height = 1 + max(c1.height, c2.height)
		n.aabb = c1.aabb.Combine(c2.aabb)

		index = n.parent
	}
}

func (t *DynamicTree[T]) removeLeaf(leaf int) {
	if leaf == t.root {
		t.root = nullNode
		return
	}

	parent := t.nodes[leaf].parent
	grandParent := t.nodes[parent].parent
	sibling := t.nodes[parent].child1
	if sibling == leaf {
		sibling = t.nodes[parent].child2
	}

	if grandParent == nullNode {
		t.root = sibling
		t.nodes[sibling].parent = nullNode
		t.freeNode(parent)
		return
	}

	if t.nodes[grandParent].child1 == parent {
		t.nodes[grandParent].child1 = sibling
	} else {
		t.nodes[grandParent].child2 = sibling
	}
	t.nodes[sibling].parent = grandParent
	t.freeNode(parent)

	t.refit(grandParent)
}

// balance performs a left or right rotation if node a is imbalanced and
// returns the new root of the subtree.
func (t *DynamicTree[T]) balance(iA int) int {
	A := &t.nodes[iA]
	if A.isLeaf() || A.height < 2 {
		return iA
	}

	iB, iC := A.child1, A.child2
	B, C := &t.nodes[iB], &t.nodes[iC]

	bal := C.height - B.height

	if bal > 1 {
		return t.rotate(iA, iC, iB, false)
	}
	if bal < -1 {
		return t.rotate(iA, iB, iC, true)
	}
	return iA
}

// rotate promotes child iHigh of iA. left says whether iHigh is A's
// first child.
func (t *DynamicTree[T]) rotate(iA, iHigh, iLow int, left bool) int {
	A := &t.nodes[iA]
	H := &t.nodes[iHigh]
	iF, iG := H.child1, H.child2
	F, G := &t.nodes[iF], &t.nodes[iG]

	// swap A and H
	H.child1 = iA
	H.parent = A.parent
	A.parent = iHigh

	if H.parent != nullNode {
		if t.nodes[H.parent].child1 == iA {
			t.nodes[H.parent].child1 = iHigh
		} else {
			t.nodes[H.parent].child2 = iHigh
		}
	} else {
		t.root = iHigh
	}

	L := &t.nodes[iLow]
	keep, keepIdx, give, giveIdx := F, iF, G, iG
	if F.height <= G.height {
		keep, keepIdx, give, giveIdx = G, iG, F, iF
	}

	H.child2 = keepIdx
	if left {
		A.child1 = giveIdx
	} else {
		A.child2 = giveIdx
	}
	give.parent = iA
	A.aabb = L.aabb.Combine(give.aabb)
	H.aabb = A.aabb.Combine(keep.aabb)
	A.height = 1 + max(L.height, give.height)
	H.height = 1 + max(A.height, keep.height)
	return iHigh
}

// Height returns the height of the tree, 0 for a single leaf.
func (t *DynamicTree[T]) Height() int {
	if t.root == nullNode {
		return 0
	}
	return t.nodes[t.root].height
}

// ProxyCount returns the number of leaves.
func (t *DynamicTree[T]) ProxyCount() int {
	return (t.nodeCount + 1) / 2
}

// MaxBalance returns the largest height difference between siblings.
func (t *DynamicTree[T]) MaxBalance() int {
	maxBal := 0
	for i := range t.nodes {
		n := &t.nodes[i]
		if n.height <= 1 {
			continue
		}
		bal := t.nodes[n.child2].height - t.nodes[n.child1].height
		if bal < 0 {
			bal = -bal
		}
		maxBal = max(maxBal, bal)
	}
	return maxBal
}

// AreaRatio is the summed perimeter of internal nodes over the root's.
func (t *DynamicTree[T]) AreaRatio() float64 {
	if t.root == nullNode {
		return 0
	}
	rootArea := t.nodes[t.root].aabb.Perimeter()
	total := 0.0
	for i := range t.nodes {
		if t.nodes[i].height < 0 {
			continue
		}
		total += t.nodes[i].aabb.Perimeter()
	}
	return total / rootArea
}

// Validate checks the structure and metrics of the tree.
func (t *DynamicTree[T]) Validate() error {
	if t.root == nullNode {
		return nil
	}
	if t.nodes[t.root].parent != nullNode {
		return fmt.Errorf("collision: tree root %d has a parent", t.root)
	}
	if err := t.validateNode(t.root); err != nil {
		return err
	}

	free := 0
	for i := t.freeList; i != nullNode; i = t.nodes[i].parent {
		free++
	}
	if t.nodeCount+free != len(t.nodes) {
		return fmt.Errorf("collision: tree leaks nodes: %d used, %d free, %d total", t.nodeCount, free, len(t.nodes))
	}
	return nil
}

func (t *DynamicTree[T]) validateNode(index int) error {
	n := &t.nodes[index]
	if n.isLeaf() {
		if n.child2 != nullNode || n.height != 0 {
			return fmt.Errorf("collision: malformed leaf %d", index)
		}
		return nil
	}

	c1, c2 := n.child1, n.child2
	if t.nodes[c1].parent != index || t.nodes[c2].parent != index {
		return fmt.Errorf("collision: node %d has a child with the wrong parent", index)
	}
	if h := 1 + max(t.nodes[c1].height, t.nodes[c2].height); h != n.height {
		return fmt.Errorf("collision: node %d height %d, want %d", index, n.height, h)
	}
	want := t.nodes[c1].aabb.Combine(t.nodes[c2].aabb)
	if want != n.aabb {
		return fmt.Errorf("collision: node %d aabb does not enclose its children", index)
	}
	if err := t.validateNode(c1); err != nil {
		return err
	}
	return t.validateNode(c2)
}

// Query calls fn for each proxy whose fat AABB overlaps aabb. fn returns
// false to stop the query.
func (t *DynamicTree[T]) Query(aabb geom.AABB, fn func(id int) bool) {
	var buf [64]int
	stack := append(buf[:0], t.root)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == nullNode {
			continue
		}
		n := &t.nodes[id]
		if !n.aabb.Overlaps(aabb) {
			continue
		}
		if n.isLeaf() {
			if !fn(id) {
				break
			}
			continue
		}
		stack = append(stack, n.child1, n.child2)
	}
}

// RayCast walks the proxies whose fat AABB the ray crosses. fn returns the
// new max fraction: 0 terminates, a value in (0, maxFraction) clips the
// ray, anything else leaves it unchanged (callers pass back the current
// max to continue).
func (t *DynamicTree[T]) RayCast(in geom.RayCastInput, fn func(in geom.RayCastInput, id int) float64) {
	p1, p2 := in.P1, in.P2
	r, _ := p2.Sub(p1).Normalize()

	// v is perpendicular to the segment
	v := geom.CrossSV(1, r)
	absV := v.Abs()

	maxFraction := in.MaxFraction
	segAABB := func() geom.AABB {
		q := p1.Add(p2.Sub(p1).Mul(maxFraction))
		return geom.AABB{Lower: geom.MinV(p1, q), Upper: geom.MaxV(p1, q)}
	}
	box := segAABB()

	var buf [64]int
	stack := append(buf[:0], t.root)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == nullNode {
			continue
		}
		n := &t.nodes[id]
		if !n.aabb.Overlaps(box) {
			continue
		}

		// separating axis for segment: |dot(v, p1 - c)| > dot(|v|, h)
		c := n.aabb.Center()
		h := n.aabb.Extents()
		if math.Abs(v.Dot(p1.Sub(c)))-absV.Dot(h) > 0 {
			continue
		}

		if n.isLeaf() {
			sub := geom.RayCastInput{P1: in.P1, P2: in.P2, MaxFraction: maxFraction}
			value := fn(sub, id)
			if value == 0 {
				return
			}
			if value > 0 && value < maxFraction {
				maxFraction = value
				box = segAABB()
			}
			continue
		}
		stack = append(stack, n.child1, n.child2)
	}
}

// ShiftOrigin moves every node by -newOrigin.
func (t *DynamicTree[T]) ShiftOrigin(newOrigin geom.Vec2) {
	d := newOrigin.Neg()
	for i := range t.nodes {
		t.nodes[i].aabb = t.nodes[i].aabb.Shift(d)
	}
}
