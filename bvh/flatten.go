package bvh

// Flatten performs a DFS over root, producing the query-time BVHArrayNode
// array: for inner nodes it writes the bbox, recurses into every child in
// order, then backpatches the skip-index to the offset just past the last
// child's subtree (the array index to jump to on a bbox miss). Leaves carry
// the leaf flag in bit 31 and the same bbox as the build-time node.
func Flatten(root *BVHTreeNode) []BVHArrayNode {
	if root == nil {
		return nil
	}
	var out []BVHArrayNode
	flattenNode(root, &out)
	return out
}

func flattenNode(node *BVHTreeNode, out *[]BVHArrayNode) {

	idx := len(*out)
	*out = append(*out, BVHArrayNode{
		BBoxMin: node.Bbox.Min,
		BBoxMax: node.Bbox.Max,
	})

	if node.IsLeaf {
		(*out)[idx].SkipIndex = makeLeafWord()
		(*out)[idx].Leaf = node.Leaf
		return
	}

	for _, child := range node.Children {
		flattenNode(child, out)
	}
	(*out)[idx].SkipIndex = makeInnerWord(uint32(len(*out)))
}
