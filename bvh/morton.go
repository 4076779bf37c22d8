package bvh

import (
	"sort"

	"github.com/quartzray/pathtrace/math32"
)

// mortonBits is the number of bits used per axis when quantizing a
// centroid into a 30-bit interleaved Morton code (10 bits/axis).
const mortonBits = 10
const mortonScale = (1 << mortonBits) - 1
const mortonTotalBits = mortonBits * 3

// mortonItem pairs a build item with its precomputed 30-bit Morton code,
// so the recursive radix build can test bits without recomputing them.
type mortonItem struct {
	code uint32
	item buildItem
}

// BuildMorton constructs a BVHTreeNode hierarchy over items using a fast,
// lower-quality build: each item's centroid is quantized into the parent
// bound and encoded as a 30-bit Morton code, the list is sorted by code,
// and a hierarchy is formed by recursively splitting runs at the highest
// differing Morton bit (radix-style), producing childrenPerNode-ary nodes
// with a single primitive per leaf. Used when build speed matters more than
// traversal quality (e.g. interactive edits), trading SAH-quality splits
// for an O(n log n) sort.
func BuildMorton(childrenPerNode int, items []buildItem) *BVHTreeNode {
	if len(items) == 0 {
		return &BVHTreeNode{IsLeaf: true}
	}
	if len(items) == 1 {
		return &BVHTreeNode{Bbox: items[0].bbox, IsLeaf: true, Leaf: items[0].payload}
	}

	var bound math32.Box3
	bound.MakeEmpty()
	for i := range items {
		bound.Union(&items[i].bbox)
	}

	coded := make([]mortonItem, len(items))
	for i, it := range items {
		c := centroid2(&it.bbox)
		c.MultiplyScalar(0.5)
		coded[i] = mortonItem{code: mortonCode(&bound, &c), item: it}
	}
	sort.Slice(coded, func(i, j int) bool { return coded[i].code < coded[j].code })

	return buildMortonRange(childrenPerNode, coded, mortonTotalBits-1)
}

func buildMortonRange(childrenPerNode int, items []mortonItem, bit int) *BVHTreeNode {

	if len(items) == 1 {
		return &BVHTreeNode{Bbox: items[0].item.bbox, IsLeaf: true, Leaf: items[0].item.payload}
	}
	if len(items) <= childrenPerNode || bit < 0 {
		return groupLeaves(items)
	}

	splits := mortonSplitsAtBit(items, bit)
	if len(splits) <= 2 {
		// This bit doesn't discriminate the run; descend to the next bit.
		return buildMortonRange(childrenPerNode, items, bit-1)
	}
	if len(splits)-1 > childrenPerNode {
		splits = coalesceSplits(splits, childrenPerNode)
	}

	node := boundOf(items)
	node.Children = make([]*BVHTreeNode, 0, len(splits)-1)
	for k := 0; k < len(splits)-1; k++ {
		child := buildMortonRange(childrenPerNode, items[splits[k]:splits[k+1]], bit-1)
		node.Children = append(node.Children, child)
	}
	return node
}

func groupLeaves(items []mortonItem) *BVHTreeNode {
	node := boundOf(items)
	node.Children = make([]*BVHTreeNode, 0, len(items))
	for _, it := range items {
		node.Children = append(node.Children, &BVHTreeNode{Bbox: it.item.bbox, IsLeaf: true, Leaf: it.item.payload})
	}
	return node
}

func boundOf(items []mortonItem) *BVHTreeNode {
	node := &BVHTreeNode{}
	node.Bbox.MakeEmpty()
	for _, it := range items {
		node.Bbox.Union(&it.item.bbox)
	}
	return node
}

// mortonSplitsAtBit returns the boundary indices where the given bit of the
// (sorted, so monotone per bit) Morton code changes value.
func mortonSplitsAtBit(items []mortonItem, bit int) []int {
	splits := []int{0}
	prev := (items[0].code >> uint(bit)) & 1
	for i := 1; i < len(items); i++ {
		cur := (items[i].code >> uint(bit)) & 1
		if cur != prev {
			splits = append(splits, i)
			prev = cur
		}
	}
	return append(splits, len(items))
}

// coalesceSplits merges adjacent runs (smallest combined size first) until
// at most maxGroups remain.
func coalesceSplits(splits []int, maxGroups int) []int {
	for len(splits)-1 > maxGroups {
		bestIdx, bestSize := 1, -1
		for i := 1; i < len(splits)-1; i++ {
			size := splits[i+1] - splits[i-1]
			if bestSize == -1 || size < bestSize {
				bestSize = size
				bestIdx = i
			}
		}
		splits = append(splits[:bestIdx], splits[bestIdx+1:]...)
	}
	return splits
}

func mortonCode(bound *math32.Box3, centroid2 *math32.Vector3) uint32 {

	sx := bound.Max.X - bound.Min.X
	sy := bound.Max.Y - bound.Min.Y
	sz := bound.Max.Z - bound.Min.Z

	qx := quantizeAxis(centroid2.X-bound.Min.X, sx)
	qy := quantizeAxis(centroid2.Y-bound.Min.Y, sy)
	qz := quantizeAxis(centroid2.Z-bound.Min.Z, sz)

	return interleave3(qx) | (interleave3(qy) << 1) | (interleave3(qz) << 2)
}

func quantizeAxis(offset, extent float32) uint32 {
	if extent <= 0 {
		return 0
	}
	u := offset / extent
	if u < 0 {
		u = 0
	}
	if u > 1 {
		u = 1
	}
	return uint32(u * float32(mortonScale))
}

// interleave3 spreads the low mortonBits bits of v so that consecutive bits
// are 3 apart, for 3-axis Morton interleaving.
func interleave3(v uint32) uint32 {
	v &= mortonScale
	v = (v | (v << 16)) & 0x030000FF
	v = (v | (v << 8)) & 0x0300F00F
	v = (v | (v << 4)) & 0x030C30C3
	v = (v | (v << 2)) & 0x09249249
	return v
}
