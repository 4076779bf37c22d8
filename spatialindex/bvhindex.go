package spatialindex

import (
	"sort"

	"github.com/quartzray/pathtrace/math32"
)

const leafFlag uint32 = 1 << 31
const skipMask uint32 = leafFlag - 1

// IndexBVHArrayNode is the flattened node used at query time, mirroring
// bvh.BVHArrayNode's leaf-flag-in-bit-31/skip-index convention but carrying
// a single EntryIndex payload (point-set leaves have no triangle/mesh
// structure to resolve).
type IndexBVHArrayNode struct {
	BBoxMin, BBoxMax math32.Vector3
	SkipIndex        uint32
	EntryIndex       uint32
}

func (n *IndexBVHArrayNode) isLeaf() bool { return n.SkipIndex&leafFlag != 0 }
func (n *IndexBVHArrayNode) skip() uint32 { return n.SkipIndex & skipMask }

// BVHIndex is an immutable point-set index built once (typically after a
// visibility-sampling pass fills the entry array) and queried many times.
type BVHIndex[E Entry] struct {
	entries []E
	nodes   []IndexBVHArrayNode
}

type indexBuildItem struct {
	bbox  math32.Box3
	index uint32
}

// BuildBVHIndex treats each entry as a point-sphere of radius entryRadius
// and builds a Morton-coded hierarchy over those bounds, flattened to
// IndexBVHArrayNode (per spec §4.3, reusing the §4.1 morton builder's
// construction style).
func BuildBVHIndex[E Entry](entries []E, entryRadius float32) *BVHIndex[E] {

	idx := &BVHIndex[E]{entries: entries}
	if len(entries) == 0 {
		return idx
	}

	items := make([]indexBuildItem, len(entries))
	for i, e := range entries {
		p := e.Position()
		var box math32.Box3
		box.Set(
			&math32.Vector3{X: p.X - entryRadius, Y: p.Y - entryRadius, Z: p.Z - entryRadius},
			&math32.Vector3{X: p.X + entryRadius, Y: p.Y + entryRadius, Z: p.Z + entryRadius},
		)
		items[i] = indexBuildItem{bbox: box, index: uint32(i)}
	}

	var bound math32.Box3
	bound.MakeEmpty()
	for i := range items {
		bound.Union(&items[i].bbox)
	}

	type coded struct {
		code uint32
		item indexBuildItem
	}
	coll := make([]coded, len(items))
	for i, it := range items {
		var c math32.Vector3
		it.bbox.Center(&c)
		coll[i] = coded{code: mortonCode(&bound, c), item: it}
	}
	sort.Slice(coll, func(i, j int) bool { return coll[i].code < coll[j].code })

	sortedItems := make([]indexBuildItem, len(coll))
	for i, c := range coll {
		sortedItems[i] = c.item
	}

	idx.nodes = flattenIndexBuild(buildIndexRange(sortedItems, 29))
	return idx
}

type indexTreeNode struct {
	bbox     math32.Box3
	isLeaf   bool
	index    uint32
	children []*indexTreeNode
}

func buildIndexRange(items []indexBuildItem, bit int) *indexTreeNode {
	if len(items) == 1 {
		return &indexTreeNode{bbox: items[0].bbox, isLeaf: true, index: items[0].index}
	}
	if bit < 0 {
		return groupIndexLeaves(items)
	}
	// items are already sorted by full Morton code; splitting the run in
	// half at each recursion preserves spatial locality without needing to
	// re-derive per-bit membership, a simpler equivalent of radix-splitting
	// at the current bit since a median split of a Morton-sorted run never
	// crosses more spatial structure than a same-bit radix split would.
	mid := len(items) / 2
	node := &indexTreeNode{}
	node.bbox.MakeEmpty()
	for i := range items {
		node.bbox.Union(&items[i].bbox)
	}
	node.children = []*indexTreeNode{
		buildIndexRange(items[:mid], bit-1),
		buildIndexRange(items[mid:], bit-1),
	}
	return node
}

func groupIndexLeaves(items []indexBuildItem) *indexTreeNode {
	node := &indexTreeNode{}
	node.bbox.MakeEmpty()
	for i := range items {
		node.bbox.Union(&items[i].bbox)
	}
	if len(items) <= 8 {
		node.children = make([]*indexTreeNode, 0, len(items))
		for _, it := range items {
			node.children = append(node.children, &indexTreeNode{bbox: it.bbox, isLeaf: true, index: it.index})
		}
		return node
	}
	mid := len(items) / 2
	node.children = []*indexTreeNode{groupIndexLeaves(items[:mid]), groupIndexLeaves(items[mid:])}
	return node
}

func flattenIndexBuild(root *indexTreeNode) []IndexBVHArrayNode {
	var out []IndexBVHArrayNode
	flattenIndexNode(root, &out)
	return out
}

func flattenIndexNode(node *indexTreeNode, out *[]IndexBVHArrayNode) {
	i := len(*out)
	*out = append(*out, IndexBVHArrayNode{BBoxMin: node.bbox.Min, BBoxMax: node.bbox.Max})
	if node.isLeaf {
		(*out)[i].SkipIndex = leafFlag
		(*out)[i].EntryIndex = node.index
		return
	}
	for _, c := range node.children {
		flattenIndexNode(c, out)
	}
	(*out)[i].SkipIndex = uint32(len(*out)) & skipMask
}

// NearestEntry returns the closest accepted entry to (p, n, isVolume)
// within maxRadius (0 = unbounded) and a normal-acceptance angle, or ok =
// false if none qualifies. Traversal is a stackless DFS guided by a
// shrinking current-best-distance bound.
func (idx *BVHIndex[E]) NearestEntry(p, n math32.Vector3, isVolume bool, maxRadius, normalAngleDegrees float32) (entry E, index int, ok bool) {

	if len(idx.nodes) == 0 {
		return entry, -1, false
	}

	bestDistSq := math32.Infinity
	if maxRadius > 0 {
		bestDistSq = maxRadius * maxRadius
	}
	bestIdx := -1
	normalAngleCos := cosOf(normalAngleDegrees)

	cursor := uint32(0)
	for cursor < uint32(len(idx.nodes)) {
		node := &idx.nodes[cursor]

		if node.isLeaf() {
			e := idx.entries[node.EntryIndex]
			ep := e.Position()
			d2 := distSq(p, ep)
			if d2 < bestDistSq && acceptEntry(e, p, n, isVolume, normalAngleCos) {
				bestDistSq = d2
				bestIdx = int(node.EntryIndex)
			}
			cursor++
			continue
		}

		var box math32.Box3
		box.Min = node.BBoxMin
		box.Max = node.BBoxMax
		d := box.DistanceToPoint(&p)
		if d*d < bestDistSq {
			cursor++
		} else {
			cursor = node.skip()
		}
	}

	if bestIdx < 0 {
		return entry, -1, false
	}
	return idx.entries[bestIdx], bestIdx, true
}

// AllNear enumerates, in any order, every entry whose indexed leaf bbox
// contains p, calling visit(entryIndex) for each. Used by density-estimate
// queries (ELVC, photon caustics) whose accumulator is commutative.
func (idx *BVHIndex[E]) AllNear(p math32.Vector3, visit func(entryIndex int)) {

	if len(idx.nodes) == 0 {
		return
	}
	cursor := uint32(0)
	for cursor < uint32(len(idx.nodes)) {
		node := &idx.nodes[cursor]
		var box math32.Box3
		box.Min = node.BBoxMin
		box.Max = node.BBoxMax

		if !box.ContainsPoint(&p) {
			if node.isLeaf() {
				cursor++
			} else {
				cursor = node.skip()
			}
			continue
		}

		if node.isLeaf() {
			visit(int(node.EntryIndex))
		}
		cursor++
	}
}

// Len returns the number of indexed entries.
func (idx *BVHIndex[E]) Len() int { return len(idx.entries) }

// EntryAt returns the entry at index i.
func (idx *BVHIndex[E]) EntryAt(i int) E { return idx.entries[i] }
