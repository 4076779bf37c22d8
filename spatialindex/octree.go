package spatialindex

import "github.com/quartzray/pathtrace/math32"

// MaxOctreeDepth is the maximum depth an Octree will subdivide to,
// matching the spec's [1,24] invariant.
const MaxOctreeDepth = 24

// IndexOctreeNode is an insertion-friendly spatial index node: it holds an
// entry-index list directly iff this node's diagonal is no longer than the
// entry's bounding diagonal (or maxDepth was reached), otherwise the entry is
// pushed into every child whose bbox it overlaps.
type IndexOctreeNode struct {
	bbox     math32.Box3
	entries  []int
	children [8]*IndexOctreeNode
	depth    int
}

// Octree is the insertion-friendly point-set index used during cache
// construction (DLS cache, ELVC, photon maps all build one incrementally
// then may freeze it, or query it directly).
type Octree[E Entry] struct {
	root     *IndexOctreeNode
	entries  []E
	maxDepth int
}

// NewOctree creates an empty Octree bounded by bounds, clamping maxDepth to
// [1, MaxOctreeDepth].
func NewOctree[E Entry](bounds math32.Box3, maxDepth int) *Octree[E] {
	if maxDepth < 1 {
		maxDepth = 1
	}
	if maxDepth > MaxOctreeDepth {
		maxDepth = MaxOctreeDepth
	}
	return &Octree[E]{
		root:     &IndexOctreeNode{bbox: bounds},
		maxDepth: maxDepth,
	}
}

// Insert adds entry to the tree, treating it as a sphere of the given
// bounding diagonal (e.g. 2*entryRadius) for the stopping-depth test.
func (o *Octree[E]) Insert(entry E, entryBboxDiagonal float32) int {
	idx := len(o.entries)
	o.entries = append(o.entries, entry)
	insertInto(o.root, idx, entry.Position(), entryBboxDiagonal*entryBboxDiagonal, o.maxDepth)
	return idx
}

func insertInto(node *IndexOctreeNode, entryIdx int, p math32.Vector3, entryDiag2 float32, maxDepth int) {

	diag := boxDiagonalSq(&node.bbox)
	if diag <= entryDiag2 || node.depth >= maxDepth {
		node.entries = append(node.entries, entryIdx)
		return
	}

	// The entry's box spans p +/- half its diagonal on each axis.
	h := math32.Sqrt(entryDiag2) / 2
	center := node.bbox.Center(nil)
	for octant := 0; octant < 8; octant++ {
		childBox := octantBox(&node.bbox, center, octant)
		if p.X+h < childBox.Min.X || p.X-h > childBox.Max.X ||
			p.Y+h < childBox.Min.Y || p.Y-h > childBox.Max.Y ||
			p.Z+h < childBox.Min.Z || p.Z-h > childBox.Max.Z {
			continue
		}
		if node.children[octant] == nil {
			node.children[octant] = &IndexOctreeNode{bbox: childBox, depth: node.depth + 1}
		}
		insertInto(node.children[octant], entryIdx, p, entryDiag2, maxDepth)
	}
}

func boxDiagonalSq(b *math32.Box3) float32 {
	dx := b.Max.X - b.Min.X
	dy := b.Max.Y - b.Min.Y
	dz := b.Max.Z - b.Min.Z
	return dx*dx + dy*dy + dz*dz
}

func octantBox(parent *math32.Box3, center *math32.Vector3, octant int) math32.Box3 {
	var min, max math32.Vector3
	if octant&1 != 0 {
		min.X, max.X = center.X, parent.Max.X
	} else {
		min.X, max.X = parent.Min.X, center.X
	}
	if octant&2 != 0 {
		min.Y, max.Y = center.Y, parent.Max.Y
	} else {
		min.Y, max.Y = parent.Min.Y, center.Y
	}
	if octant&4 != 0 {
		min.Z, max.Z = center.Z, parent.Max.Z
	} else {
		min.Z, max.Z = parent.Min.Z, center.Z
	}
	var b math32.Box3
	b.Set(&min, &max)
	return b
}

// NearestEntry recursively walks nodes whose bbox contains p, accepting
// entries via the same point+normal+isVolume predicate §4.3 uses.
func (o *Octree[E]) NearestEntry(p, n math32.Vector3, isVolume bool, maxRadius, normalAngleDegrees float32) (entry E, index int, ok bool) {

	bestDistSq := math32.Infinity
	if maxRadius > 0 {
		bestDistSq = maxRadius * maxRadius
	}
	bestIdx := -1
	normalAngleCos := cosOf(normalAngleDegrees)

	var walk func(node *IndexOctreeNode)
	walk = func(node *IndexOctreeNode) {
		if node == nil || !node.bbox.ContainsPoint(&p) {
			return
		}
		for _, ei := range node.entries {
			e := o.entries[ei]
			ep := e.Position()
			d2 := distSq(p, ep)
			if d2 < bestDistSq && acceptEntry(e, p, n, isVolume, normalAngleCos) {
				bestDistSq = d2
				bestIdx = ei
			}
		}
		for _, c := range node.children {
			walk(c)
		}
	}
	walk(o.root)

	if bestIdx < 0 {
		return entry, -1, false
	}
	return o.entries[bestIdx], bestIdx, true
}

// AllNear enumerates every entry reachable through a node containing p.
func (o *Octree[E]) AllNear(p math32.Vector3, visit func(entryIndex int)) {
	var walk func(node *IndexOctreeNode)
	walk = func(node *IndexOctreeNode) {
		if node == nil || !node.bbox.ContainsPoint(&p) {
			return
		}
		for _, ei := range node.entries {
			visit(ei)
		}
		for _, c := range node.children {
			walk(c)
		}
	}
	walk(o.root)
}

// Len returns the number of indexed entries.
func (o *Octree[E]) Len() int { return len(o.entries) }

// EntryAt returns the entry at index i.
func (o *Octree[E]) EntryAt(i int) E { return o.entries[i] }
