package bvh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quartzray/pathtrace/math32"
	"github.com/quartzray/pathtrace/mesh"
)

// gridMesh builds an n x n tessellated quad in the XY plane at z=0,
// spanning [0,n]x[0,n], for BVH tests that want many primitives.
func gridMesh(n int) *mesh.PlainMesh {
	verts := make([]math32.Vector3, 0, (n+1)*(n+1))
	for y := 0; y <= n; y++ {
		for x := 0; x <= n; x++ {
			verts = append(verts, math32.Vector3{X: float32(x), Y: float32(y), Z: 0})
		}
	}
	idx := func(x, y int) uint32 { return uint32(y*(n+1) + x) }
	tris := make([]mesh.Triangle, 0, n*n*2)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			tris = append(tris,
				mesh.Triangle{V0: idx(x, y), V1: idx(x+1, y), V2: idx(x+1, y+1)},
				mesh.Triangle{V0: idx(x, y), V1: idx(x+1, y+1), V2: idx(x, y+1)},
			)
		}
	}
	return mesh.NewPlainMesh(verts, tris)
}

func straightDownRay(x, y float32) *math32.Ray {
	origin := math32.Vector3{X: x, Y: y, Z: 10}
	dir := math32.Vector3{X: 0, Y: 0, Z: -1}
	return math32.NewRay(&origin, &dir)
}

func checkNoLeafAndInnerOverlap(t *testing.T, nodes []BVHArrayNode) {
	t.Helper()
	for i, n := range nodes {
		isLeaf := n.IsLeaf()
		hasSkip := n.Skip() > uint32(i)
		if isLeaf {
			assert.Zero(t, n.SkipIndex&skipMask, "leaf node %d should not carry a meaningful skip payload", i)
		} else {
			assert.True(t, hasSkip, "inner node %d must have a skip index past itself", i)
		}
	}
}

func checkBoundsMonotone(t *testing.T, root *BVHTreeNode) {
	t.Helper()
	if root.IsLeaf {
		return
	}
	for _, c := range root.Children {
		assert.True(t, root.Bbox.ContainsBox(&c.Bbox), "parent bbox must contain child bbox")
		checkBoundsMonotone(t, c)
	}
}

func TestSAHBoundsAreMonotone(t *testing.T) {
	m := gridMesh(6)
	items := make([]buildItem, m.TriangleCount())
	for i := 0; i < m.TriangleCount(); i++ {
		tri := m.TriangleAt(i)
		a, b, c := m.VertexAt(int(tri.V0)), m.VertexAt(int(tri.V1)), m.VertexAt(int(tri.V2))
		var box math32.Box3
		box.MakeEmpty()
		box.ExpandByPoint(&a)
		box.ExpandByPoint(&b)
		box.ExpandByPoint(&c)
		items[i] = buildItem{bbox: box, payload: leafPayload{TriangleIndex: uint32(i)}}
	}
	root := BuildSAH(DefaultParams(), items)
	checkBoundsMonotone(t, root)
}

func TestFlattenLeafFlagExclusivity(t *testing.T) {
	m := gridMesh(5)
	bvh, err := BuildMeshBVH(m, SAHBuilder, DefaultParams())
	require.NoError(t, err)
	checkNoLeafAndInnerOverlap(t, bvh.nodes)

	mbvh, err := BuildMeshBVH(m, MortonBuilder, DefaultParams())
	require.NoError(t, err)
	checkNoLeafAndInnerOverlap(t, mbvh.nodes)
}

func TestMeshBVHHitsGrid(t *testing.T) {
	m := gridMesh(4)
	sah, err := BuildMeshBVH(m, SAHBuilder, DefaultParams())
	require.NoError(t, err)

	ray := straightDownRay(2.3, 1.7)
	hit := sah.Intersect(ray)
	assert.False(t, hit.IsMiss())
	assert.InDelta(t, 10, hit.T, 1e-4)
}

func TestMeshBVHMissesOutsideGrid(t *testing.T) {
	m := gridMesh(4)
	sah, err := BuildMeshBVH(m, SAHBuilder, DefaultParams())
	require.NoError(t, err)

	ray := straightDownRay(-5, -5)
	hit := sah.Intersect(ray)
	assert.True(t, hit.IsMiss())
}

func TestRayQueryDeterministicAcrossBuilders(t *testing.T) {
	m := gridMesh(7)
	sah, err := BuildMeshBVH(m, SAHBuilder, DefaultParams())
	require.NoError(t, err)
	morton, err := BuildMeshBVH(m, MortonBuilder, DefaultParams())
	require.NoError(t, err)

	for x := float32(0.3); x < 7; x += 0.7 {
		for y := float32(0.3); y < 7; y += 0.9 {
			ray1 := straightDownRay(x, y)
			ray2 := straightDownRay(x, y)
			h1 := sah.Intersect(ray1)
			h2 := morton.Intersect(ray2)
			require.Equal(t, h1.IsMiss(), h2.IsMiss())
			if !h1.IsMiss() {
				assert.InDelta(t, h1.T, h2.T, 1e-3)
			}
		}
	}
}

func TestBuildRejectsEmptyMesh(t *testing.T) {
	empty := mesh.NewPlainMesh(nil, nil)
	_, err := BuildMeshBVH(empty, SAHBuilder, DefaultParams())
	require.Error(t, err)
}

func TestAcceleratorMatchesBruteForceWithInstancing(t *testing.T) {
	base := gridMesh(3)

	var xform math32.Matrix4
	xform.MakeTranslation(10, 0, 0)

	entries := []Entry{
		{Mesh: base, Transform: identityPtr()},
		{Mesh: base, Transform: &xform},
	}

	acc := NewAccelerator(DefaultParams(), SAHBuilder)
	require.NoError(t, acc.Build(entries))
	bf := NewBruteForce(entries)

	for x := float32(0.5); x < 13; x += 1.3 {
		ray1 := straightDownRay(x, 1.5)
		ray2 := straightDownRay(x, 1.5)
		h1 := acc.Intersect(ray1)
		h2 := bf.Intersect(ray2)
		require.Equal(t, h1.IsMiss(), h2.IsMiss())
		if !h1.IsMiss() {
			assert.Equal(t, h2.MeshIndex, h1.MeshIndex)
			assert.InDelta(t, h2.T, h1.T, 1e-2)
		}
	}
}

func TestIntersectAnyShortCircuits(t *testing.T) {
	m := gridMesh(4)
	sah, err := BuildMeshBVH(m, SAHBuilder, DefaultParams())
	require.NoError(t, err)

	ray := straightDownRay(2, 2)
	assert.True(t, sah.IntersectAny(ray))

	miss := straightDownRay(-5, -5)
	assert.False(t, sah.IntersectAny(miss))
}

func identityPtr() *math32.Matrix4 {
	var m math32.Matrix4
	m.Identity()
	return &m
}
