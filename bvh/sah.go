package bvh

import "github.com/quartzray/pathtrace/math32"

// buildItem is the minimal per-primitive contract the builders need: a
// bounding box plus the leaf payload it should resolve to.
type buildItem struct {
	bbox    math32.Box3
	payload leafPayload
}

// Params configures the classical SAH builder.
type Params struct {
	// TreeType is the output arity, one of 2, 4, 8.
	TreeType int
	// CostSamples is the number of candidate split positions evaluated per
	// axis; fewer than 2 falls back to a split at the centroid mean.
	CostSamples int
	TraversalCost float32
	IsectCost     float32
	EmptyBonus    float32
}

// DefaultParams returns the builder defaults used when the host does not
// override them via config.
func DefaultParams() Params {
	return Params{
		TreeType:      8,
		CostSamples:   4,
		TraversalCost: 1,
		IsectCost:     80,
		EmptyBonus:    0.5,
	}
}

// BuildSAH constructs a BVHTreeNode hierarchy over items using the
// classical top-down surface-area-heuristic build: at each node, pick the
// split axis with the largest centroid-variance, evaluate costSamples
// candidate splits (or fall back to a centroid-mean split), and partition
// via the doubled-centroid comparison `2*centroid[axis] < splitValue`. The
// binary split is applied log2(TreeType) times per level to produce an
// N-ary node.
func BuildSAH(params Params, items []buildItem) *BVHTreeNode {
	if len(items) == 0 {
		return &BVHTreeNode{IsLeaf: true}
	}
	return buildSAHNode(params, items, 0)
}

func buildSAHNode(params Params, items []buildItem, axis int) *BVHTreeNode {

	if len(items) == 1 {
		return &BVHTreeNode{Bbox: items[0].bbox, IsLeaf: true, Leaf: items[0].payload}
	}

	node := &BVHTreeNode{}
	node.Bbox.MakeEmpty()
	for i := range items {
		node.Bbox.Union(&items[i].bbox)
	}

	// splits holds partition boundaries into items, starting as a single
	// [0, len(items)) range and refined by repeated binary partitioning
	// until there are up to TreeType groups (or fewer, where a group had
	// too few elements left to split further).
	splits := []int{0, len(items)}
	splitAxis := axis

	for groupCount := 2; groupCount <= params.TreeType; groupCount *= 2 {
		for j := 0; j+1 < len(splits); j += 2 {
			begin, end := splits[j], splits[j+1]
			if end-begin < 2 {
				continue
			}
			var splitValue float32
			splitValue, splitAxis = findBestSplit(params, items, begin, end)
			middle := partitionItems(items, begin, end, splitAxis, splitValue)
			middle = clampInt(begin+1, end-1, middle)
			splits = insertAt(splits, j+1, middle)
		}
	}

	node.Children = make([]*BVHTreeNode, 0, len(splits)-1)
	for k := 0; k < len(splits)-1; k++ {
		child := buildSAHNode(params, items[splits[k]:splits[k+1]], (splitAxis+1)%3)
		node.Children = append(node.Children, child)
	}
	return node
}

// findBestSplit picks a split axis (largest centroid variance) and a split
// value among items[begin:end], evaluating params.CostSamples candidate
// positions by the surface-area-heuristic cost:
//
//	traversalCost + isectCost * (1 - emptyBonus*[one side empty]) *
//		(SA_below*nBelow + SA_above*nAbove) / SA_parent
func findBestSplit(params Params, items []buildItem, begin, end int) (splitValue float32, axis int) {

	if end-begin == 2 {
		c0 := centroid2(&items[begin].bbox)
		c1 := centroid2(&items[end-1].bbox)
		dx, dy, dz := math32.Abs(c0.X-c1.X), math32.Abs(c0.Y-c1.Y), math32.Abs(c0.Z-c1.Z)
		switch {
		case dx > dy && dx > dz:
			axis = 0
		case dy > dz:
			axis = 1
		default:
			axis = 2
		}
		return (componentAt(&c0, axis) + componentAt(&c1, axis)) / 2, axis
	}

	var mean2, variance math32.Vector3
	for i := begin; i < end; i++ {
		c := centroid2(&items[i].bbox)
		mean2.X += c.X
		mean2.Y += c.Y
		mean2.Z += c.Z
	}
	n := float32(end - begin)
	mean2.MultiplyScalar(1 / n)

	for i := begin; i < end; i++ {
		c := centroid2(&items[i].bbox)
		dx := c.X - mean2.X
		dy := c.Y - mean2.Y
		dz := c.Z - mean2.Z
		variance.X += dx * dx
		variance.Y += dy * dy
		variance.Z += dz * dz
	}

	switch {
	case variance.X > variance.Y && variance.X > variance.Z:
		axis = 0
	case variance.Y > variance.Z:
		axis = 1
	default:
		axis = 2
	}

	if params.CostSamples <= 1 {
		return componentAt(&mean2, axis), axis
	}

	var nodeBounds math32.Box3
	nodeBounds.MakeEmpty()
	for i := begin; i < end; i++ {
		nodeBounds.Union(&items[i].bbox)
	}

	invTotalSA := 1 / surfaceArea(&nodeBounds)

	pMinAxis := componentAt(&nodeBounds.Min, axis)
	pMaxAxis := componentAt(&nodeBounds.Max, axis)
	dAxis := pMaxAxis - pMinAxis
	increment := 2 * dAxis / float32(params.CostSamples+1)

	bestCost := math32.Infinity
	splitValue = (2*pMinAxis + 2*pMaxAxis) / 2

	for s := 2*pMinAxis + increment; s < 2*pMaxAxis; s += increment {
		var below, above math32.Box3
		below.MakeEmpty()
		above.MakeEmpty()
		nBelow, nAbove := 0, 0
		for i := begin; i < end; i++ {
			c := centroid2(&items[i].bbox)
			if componentAt(&c, axis) < s {
				nBelow++
				below.Union(&items[i].bbox)
			} else {
				nAbove++
				above.Union(&items[i].bbox)
			}
		}
		pBelow := saOrZero(&below) * invTotalSA
		pAbove := saOrZero(&above) * invTotalSA
		eb := float32(0)
		if nAbove == 0 || nBelow == 0 {
			eb = params.EmptyBonus
		}
		cost := params.TraversalCost + params.IsectCost*(1-eb)*(pBelow*float32(nBelow)+pAbove*float32(nAbove))
		if cost < bestCost {
			bestCost = cost
			splitValue = s
		}
	}

	return splitValue, axis
}

// partitionItems reorders items[begin:end] in place so that every item with
// 2*centroid[axis] < splitValue comes first, and returns the resulting
// middle index.
func partitionItems(items []buildItem, begin, end, axis int, splitValue float32) int {

	i, j := begin, end-1
	for i <= j {
		c := centroid2(&items[i].bbox)
		if componentAt(&c, axis) < splitValue {
			i++
			continue
		}
		items[i], items[j] = items[j], items[i]
		j--
	}
	return i
}

func centroid2(b *math32.Box3) math32.Vector3 {
	return math32.Vector3{
		X: b.Min.X + b.Max.X,
		Y: b.Min.Y + b.Max.Y,
		Z: b.Min.Z + b.Max.Z,
	}
}

func componentAt(v *math32.Vector3, axis int) float32 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

func surfaceArea(b *math32.Box3) float32 {
	dx := b.Max.X - b.Min.X
	dy := b.Max.Y - b.Min.Y
	dz := b.Max.Z - b.Min.Z
	return 2 * (dx*dy + dy*dz + dz*dx)
}

func saOrZero(b *math32.Box3) float32 {
	if b.Empty() {
		return 0
	}
	return surfaceArea(b)
}

func clampInt(lo, hi, v int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func insertAt(s []int, idx, v int) []int {
	s = append(s, 0)
	copy(s[idx+1:], s[idx:])
	s[idx] = v
	return s
}
