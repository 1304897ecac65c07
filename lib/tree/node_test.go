package tree

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/benz9527/xtree/lib/infra"
)

// buildBST links the keys by plain BST descent, without rebalancing.
func buildBST[K infra.OrderedKey](kind Kind, keys ...K) *graph[K] {
	g := &graph[K]{kind: kind}
	for _, key := range keys {
		z := g.newNode(key, Black)
		if g.root == nil {
			g.root = z
			continue
		}
		insertDescent(g.root, z)
	}
	return g
}

func preorderKeys[K infra.OrderedKey](n *node[K]) []K {
	if n.isAbsent() {
		return nil
	}
	keys := []K{n.key}
	keys = append(keys, preorderKeys(n.left)...)
	return append(keys, preorderKeys(n.right)...)
}

func requireLinked[K infra.OrderedKey](t *testing.T, n *node[K]) {
	t.Helper()
	if n.isAbsent() {
		return
	}
	for _, c := range []*node[K]{n.left, n.right} {
		if c != nil {
			require.Same(t, n, c.parent)
			requireLinked(t, c)
		}
	}
}

func TestNilNode(t *testing.T) {
	var nilNode Node[uint64] = nil
	require.True(t, nilNode == nil)

	var nilNode2 *node[uint64] = nil
	nilNode = nilNode2
	require.True(t, nilNode != nil)
	require.Nil(t, nilNode)
	require.Equal(t, Black, nilNode2.Color())
	require.Equal(t, uint64(0), nilNode2.Height())
	require.Nil(t, nilNode2.Left())
	require.Nil(t, nilNode2.Right())
	require.Nil(t, nilNode2.Parent())
}

func TestNodeGraphQueries(t *testing.T) {
	g := buildBST[int](RedBlack, 5, 2, 10, 8, 6, 9, 12)
	require.Equal(t, []int{5, 2, 10, 8, 6, 9, 12}, preorderKeys(g.root))
	requireLinked(t, g.root)

	require.False(t, insertDescent(g.root, g.newNode(8, Red)))
	require.Equal(t, []int{5, 2, 10, 8, 6, 9, 12}, preorderKeys(g.root))

	require.Equal(t, 9, find(g.root, 9).Key())
	require.Nil(t, find(g.root, 7))
	require.Nil(t, find[int](nil, 7))

	require.Equal(t, 2, minimum(g.root).key)
	require.Equal(t, 6, minimum(find(g.root, 10)).key)
	require.Equal(t, 12, maximum(g.root).key)

	require.Equal(t, uint64(4), countLeaves(g.root))
	require.Equal(t, uint64(4), subtreeHeight(g.root))
	require.Equal(t, uint64(0), countLeaves[int](nil))
	require.Equal(t, uint64(0), subtreeHeight[int](nil))

	require.True(t, isLeaf(find(g.root, 2)))
	require.False(t, isLeaf(find(g.root, 8)))
	require.False(t, isLeaf[int](nil))

	require.Equal(t, Root, g.root.direction())
	require.Equal(t, Left, find(g.root, 8).direction())
	require.Equal(t, Right, find(g.root, 12).direction())
	require.Equal(t, 10, find(g.root, 12).Parent().Key())
	require.Nil(t, g.root.Parent())
}

func TestSetChildKeepsBackEdge(t *testing.T) {
	p, c, other := &node[int]{key: 2}, &node[int]{key: 1}, &node[int]{key: 9}
	setParent(c, other)
	setChild(p, c, Left)
	require.Same(t, c, p.left)
	require.Same(t, other, c.parent)

	setParent(c, p)
	require.Same(t, p, c.parent)
	setParent(c, nil)
	require.Nil(t, c.parent)
	setParent[int](nil, p)

	require.Panics(t, func() {
		setChild(p, c, Root)
	})
	require.Panics(t, func() {
		p.child(Root)
	})
}

func TestDanglingParentPanics(t *testing.T) {
	p := &node[int]{key: 2}
	n := &node[int]{key: 1, parent: p}
	require.Panics(t, func() {
		n.direction()
	})
}

func TestNodesEqualIsIdentity(t *testing.T) {
	a, b := &node[string]{key: "k"}, &node[string]{key: "k"}
	require.True(t, nodesEqual(a, a))
	require.False(t, nodesEqual(a, b))
	require.True(t, nodesEqual[string](nil, nil))
	require.False(t, nodesEqual(a, nil))

	// The sentinel filler key aliases its parent.
	s := newSentinel(a)
	require.Equal(t, a.key, s.key)
	require.False(t, nodesEqual(a, s))
}

func TestRotateByKey(t *testing.T) {
	g := buildBST[int](RedBlack, 5, 2, 10, 8, 6, 9, 12)

	// Left rotate at 10.
	//     5                5
	//    / \              / \
	//   2   10    ==>    2   12
	//      /  \              /
	//     8    12           10
	//    / \               /
	//   6   9             8
	//                    / \
	//                   6   9
	root := rotateLeftByKey(g.root, 10, false)
	require.Same(t, g.root, root)
	require.Equal(t, []int{5, 2, 12, 10, 8, 6, 9}, preorderKeys(root))
	requireLinked(t, root)

	root = rotateRightByKey(root, 12, false)
	require.Equal(t, []int{5, 2, 10, 8, 6, 9, 12}, preorderKeys(root))
	requireLinked(t, root)

	// Rotating the root returns the new root.
	root = rotateLeftByKey(root, 5, false)
	require.Equal(t, 10, root.key)
	require.Nil(t, root.parent)
	require.Equal(t, []int{10, 5, 2, 8, 6, 9, 12}, preorderKeys(root))
	requireLinked(t, root)

	root = rotateRightByKey(root, 10, false)
	require.Equal(t, 5, root.key)
	require.Equal(t, []int{5, 2, 10, 8, 6, 9, 12}, preorderKeys(root))
	requireLinked(t, root)

	// No-op without the pivot child or without the key.
	require.Same(t, root, rotateLeftByKey(root, 12, false))
	require.Same(t, root, rotateRightByKey(root, 2, false))
	require.Same(t, root, rotateLeftByKey(root, 42, false))
	require.Equal(t, []int{5, 2, 10, 8, 6, 9, 12}, preorderKeys(root))
}

func TestRotateRefreshesHeights(t *testing.T) {
	g := buildBST[int](AVL, 1, 2, 3)
	for _, key := range []int{3, 2, 1} {
		updateHeight(find(g.root, key))
	}
	require.Equal(t, uint64(3), g.root.height)
	require.Equal(t, int64(2), balanceFactor(g.root))

	root := rotateLeft(g.root, g.root, true)
	require.Equal(t, 2, root.key)
	require.Equal(t, uint64(2), root.height)
	require.Equal(t, uint64(1), root.left.height)
	require.Equal(t, uint64(1), root.right.height)
	require.Equal(t, int64(0), balanceFactor(root))

	// Without refresh the cache keeps the stale value.
	root = rotateRight(root, root, false)
	require.Equal(t, 1, root.key)
	require.Equal(t, uint64(1), root.height)
}

func TestGraphRotationsPanicWithoutPivot(t *testing.T) {
	g := buildBST[int](RedBlack, 2, 1)
	require.Panics(t, func() {
		g.leftRotate(g.root)
	})
	require.Panics(t, func() {
		g.rightRotate(find(g.root, 1))
	})
	g.rightRotate(g.root)
	require.Equal(t, 1, g.root.key)
	require.Equal(t, uint64(1), g.rotations)
}

func TestTransplant(t *testing.T) {
	g := buildBST[int](RedBlack, 5, 2, 10, 8, 12)
	g.transplant(find(g.root, 10), find(g.root, 12))
	require.Equal(t, []int{5, 2, 12}, preorderKeys(g.root))
	require.Equal(t, 5, find(g.root, 12).parent.key)

	// Transplanting the root replaces it.
	two := find(g.root, 2)
	g.transplant(g.root, two)
	require.Same(t, two, g.root)
	require.Nil(t, two.parent)
}
