package collision

import (
	"cmp"
	"slices"

	"github.com/koteyur/physac2d/geom"
)

// Pair is a pair of overlapping proxy ids with ProxyA < ProxyB.
type Pair struct {
	ProxyA int
	ProxyB int
}

// BroadPhase tracks which proxies moved since the last UpdatePairs call and
// reports the pairs whose fat AABBs started overlapping among them.
type BroadPhase[T any] struct {
	tree       *DynamicTree[T]
	proxyCount int
	moveBuffer []int
	pairBuffer []Pair
	queryProxy int
}

// NewBroadPhase returns an empty broad-phase.
func NewBroadPhase[T any]() *BroadPhase[T] {
	return &BroadPhase[T]{
		tree:       NewDynamicTree[T](),
		moveBuffer: make([]int, 0, 16),
		pairBuffer: make([]Pair, 0, 16),
	}
}

// CreateProxy adds a proxy and schedules it for pairing.
func (bp *BroadPhase[T]) CreateProxy(aabb geom.AABB, userData T) int {
	id := bp.tree.CreateProxy(aabb, userData)
	bp.proxyCount++
	bp.bufferMove(id)
	return id
}

// DestroyProxy removes a proxy. Pairs already reported are the caller's
// to clean up.
func (bp *BroadPhase[T]) DestroyProxy(id int) {
	bp.unbufferMove(id)
	bp.proxyCount--
	bp.tree.DestroyProxy(id)
}

// MoveProxy updates a proxy's AABB. Only proxies that leave their fat AABB
// are re-paired.
func (bp *BroadPhase[T]) MoveProxy(id int, aabb geom.AABB, displacement geom.Vec2) {
	if bp.tree.MoveProxy(id, aabb, displacement) {
		bp.bufferMove(id)
	}
}

// TouchProxy forces a proxy to be re-paired on the next UpdatePairs.
func (bp *BroadPhase[T]) TouchProxy(id int) {
	bp.bufferMove(id)
}

func (bp *BroadPhase[T]) bufferMove(id int) {
	bp.moveBuffer = append(bp.moveBuffer, id)
}

func (bp *BroadPhase[T]) unbufferMove(id int) {
	for i, m := range bp.moveBuffer {
		if m == id {
			bp.moveBuffer[i] = nullNode
		}
	}
}

func (bp *BroadPhase[T]) FatAABB(id int) geom.AABB {
	return bp.tree.FatAABB(id)
}

func (bp *BroadPhase[T]) UserData(id int) T {
	return bp.tree.UserData(id)
}

// TestOverlap reports whether the fat AABBs of two proxies overlap.
func (bp *BroadPhase[T]) TestOverlap(a, b int) bool {
	return bp.tree.FatAABB(a).Overlaps(bp.tree.FatAABB(b))
}

func (bp *BroadPhase[T]) ProxyCount() int { return bp.proxyCount }

func (bp *BroadPhase[T]) TreeHeight() int { return bp.tree.Height() }

func (bp *BroadPhase[T]) TreeBalance() int { return bp.tree.MaxBalance() }

func (bp *BroadPhase[T]) TreeQuality() float64 { return bp.tree.AreaRatio() }

// UpdatePairs reports every new overlapping pair that involves a moved
// proxy. Pairs are reported once each, sorted by proxy id, so the order
// is stable across runs.
func (bp *BroadPhase[T]) UpdatePairs(fn func(a, b T)) {
	bp.pairBuffer = bp.pairBuffer[:0]

	for _, id := range bp.moveBuffer {
		bp.queryProxy = id
		if id == nullNode {
			continue
		}
		fat := bp.tree.FatAABB(id)
		bp.tree.Query(fat, bp.queryCallback)
	}

	for _, id := range bp.moveBuffer {
		if id != nullNode {
			bp.tree.ClearMoved(id)
		}
	}
	bp.moveBuffer = bp.moveBuffer[:0]

	slices.SortFunc(bp.pairBuffer, func(x, y Pair) int {
		if c := cmp.Compare(x.ProxyA, y.ProxyA); c != 0 {
			return c
		}
		return cmp.Compare(x.ProxyB, y.ProxyB)
	})
	bp.pairBuffer = slices.Compact(bp.pairBuffer)

	for _, p := range bp.pairBuffer {
		fn(bp.tree.UserData(p.ProxyA), bp.tree.UserData(p.ProxyB))
	}
}

func (bp *BroadPhase[T]) queryCallback(id int) bool {
	if id == bp.queryProxy {
		return true
	}
	// both moved: the pair is reported from the lower id's query
	if bp.tree.WasMoved(id) && id > bp.queryProxy {
		return true
	}
	bp.pairBuffer = append(bp.pairBuffer, Pair{ProxyA: min(id, bp.queryProxy), ProxyB: max(id, bp.queryProxy)})
	return true
}

// Query calls fn for each proxy whose fat AABB overlaps aabb.
func (bp *BroadPhase[T]) Query(aabb geom.AABB, fn func(id int) bool) {
	bp.tree.Query(aabb, fn)
}

// RayCast forwards to the tree; see DynamicTree.RayCast.
func (bp *BroadPhase[T]) RayCast(in geom.RayCastInput, fn func(in geom.RayCastInput, id int) float64) {
	bp.tree.RayCast(in, fn)
}

// ShiftOrigin translates every proxy by -newOrigin.
func (bp *BroadPhase[T]) ShiftOrigin(newOrigin geom.Vec2) {
	bp.tree.ShiftOrigin(newOrigin)
}
