package tree

import (
	"github.com/benz9527/xtree/lib/infra"
)

// node is shared by both balancers. The red-black tree maintains the
// color, the AVL tree maintains the cached height.
//
// Child slots are the owning edges, parent is a back reference and
// must be re-targeted whenever a child slot moves.
type node[K infra.OrderedKey] struct {
	parent *node[K]
	left   *node[K]
	right  *node[K]
	key    K
	height uint64
	color  Color
	// isNil marks a nil sentinel, only alive inside a delete bracket.
	isNil bool
}

var _ Node[int] = (*node[int])(nil)

func (n *node[K]) Key() K {
	return n.key
}

// SetKey must keep the BST order, only the successor swap uses it.
func (n *node[K]) SetKey(key K) {
	n.key = key
}

func (n *node[K]) Color() Color {
	if n.isAbsent() {
		return Black
	}
	return n.color
}

func (n *node[K]) Height() uint64 {
	return heightOf(n)
}

func (n *node[K]) Left() Node[K] {
	if n == nil || n.left.isAbsent() {
		return nil
	}
	return n.left
}

func (n *node[K]) Right() Node[K] {
	if n == nil || n.right.isAbsent() {
		return nil
	}
	return n.right
}

func (n *node[K]) Parent() Node[K] {
	if n == nil || n.parent == nil {
		return nil
	}
	return n.parent
}

// isAbsent reports an empty child slot or a nil sentinel.
func (n *node[K]) isAbsent() bool {
	return n == nil || n.isNil
}

func (n *node[K]) child(dir Direction) *node[K] {
	switch dir {
	case Left:
		return n.left
	case Right:
		return n.right
	default:
	}
	// impossible run to here
	panic( /* debug assertion */ "[xtree] child slot direction must be left or right")
}

// direction reports which slot of its parent holds n.
func (n *node[K]) direction() Direction {
	if n.parent == nil {
		return Root
	}
	if n == n.parent.left {
		return Left
	}
	if n == n.parent.right {
		return Right
	}
	// impossible run to here
	panic( /* debug assertion */ "[xtree] dangling parent pointer")
}

func (n *node[K]) unlink() {
	n.parent, n.left, n.right = nil, nil, nil
}

// setChild writes c into the slot of p, c.parent is untouched.
func setChild[K infra.OrderedKey](p, c *node[K], dir Direction) {
	switch dir {
	case Left:
		p.left = c
	case Right:
		p.right = c
	default:
		// impossible run to here
		panic( /* debug assertion */ "[xtree] set child with root direction")
	}
}

// setParent re-targets the back edge of n. A nil p clears it.
func setParent[K infra.OrderedKey](n, p *node[K]) {
	if n == nil {
		return
	}
	n.parent = p
}

// nodesEqual is handle identity for both balancers. A nil sentinel
// carries its parent's key as filler, so comparing by key could alias
// a real node.
func nodesEqual[K infra.OrderedKey](a, b *node[K]) bool {
	return a == b
}

func colorOf[K infra.OrderedKey](n *node[K]) Color {
	return n.Color()
}

func heightOf[K infra.OrderedKey](n *node[K]) uint64 {
	if n.isAbsent() {
		return 0
	}
	return n.height
}

func updateHeight[K infra.OrderedKey](n *node[K]) {
	if n.isAbsent() {
		return
	}
	n.height = 1 + max(heightOf(n.left), heightOf(n.right))
}

// balanceFactor is height(right) - height(left).
func balanceFactor[K infra.OrderedKey](n *node[K]) int64 {
	if n.isAbsent() {
		return 0
	}
	return int64(heightOf(n.right)) - int64(heightOf(n.left))
}

func find[K infra.OrderedKey](root *node[K], key K) *node[K] {
	for aux := root; !aux.isAbsent(); {
		switch res := infra.CompareOrderedKey(key, aux.key); {
		case res == 0:
			return aux
		case res < 0:
			aux = aux.left
		default:
			aux = aux.right
		}
	}
	return nil
}

// insertDescent links z as a new leaf under root.
// It returns false without linking if the key is present.
func insertDescent[K infra.OrderedKey](root, z *node[K]) bool {
	if root.isAbsent() {
		// impossible run to here
		panic( /* debug assertion */ "[xtree] insert descent from an empty root")
	}
	var y *node[K]
	dir := Root
	for x := root; !x.isAbsent(); {
		y = x
		switch res := infra.CompareOrderedKey(z.key, x.key); {
		case res == 0:
			return false
		case res < 0:
			x, dir = x.left, Left
		default:
			x, dir = x.right, Right
		}
	}
	setChild(y, z, dir)
	setParent(z, y)
	return true
}

func minimum[K infra.OrderedKey](n *node[K]) *node[K] {
	aux := n
	for ; !aux.isAbsent() && !aux.left.isAbsent(); aux = aux.left {
	}
	return aux
}

func maximum[K infra.OrderedKey](n *node[K]) *node[K] {
	aux := n
	for ; !aux.isAbsent() && !aux.right.isAbsent(); aux = aux.right {
	}
	return aux
}

func isLeaf[K infra.OrderedKey](n *node[K]) bool {
	return !n.isAbsent() && n.left.isAbsent() && n.right.isAbsent()
}

func countLeaves[K infra.OrderedKey](root *node[K]) uint64 {
	if root.isAbsent() {
		return 0
	}
	if isLeaf(root) {
		return 1
	}
	return countLeaves(root.left) + countLeaves(root.right)
}

// subtreeHeight recomputes the height without the cache.
func subtreeHeight[K infra.OrderedKey](root *node[K]) uint64 {
	if root.isAbsent() {
		return 0
	}
	return 1 + max(subtreeHeight(root.left), subtreeHeight(root.right))
}

/*
		 |                         |
		 X                         Y
		/ \     rotateLeft(X)     / \
	   L   Y    ============>    X   Yr
		  / \                   / \
		Yl   Yr                L   Yl
*/
// rotateLeft returns the (possibly changed) root. It is a no-op if x
// or its right child is absent. refresh recomputes the cached heights
// of x and then y.
func rotateLeft[K infra.OrderedKey](root, x *node[K], refresh bool) *node[K] {
	if x.isAbsent() || x.right.isAbsent() {
		return root
	}
	y := x.right
	setChild(x, y.left, Right)
	setParent(y.left, x)
	p := x.parent
	setParent(y, p)
	switch dir := x.direction(); dir {
	case Root:
		root = y
	default:
		setChild(p, y, dir)
	}
	setParent(x, y)
	setChild(y, x, Left)
	if refresh {
		updateHeight(x)
		updateHeight(y)
	}
	return root
}

/*
		   |                         |
		   X                         Y
		  / \    rotateRight(X)     / \
		 Y   R   ============>    Yl   X
		/ \                           / \
	  Yl   Yr                       Yr   R
*/
func rotateRight[K infra.OrderedKey](root, x *node[K], refresh bool) *node[K] {
	if x.isAbsent() || x.left.isAbsent() {
		return root
	}
	y := x.left
	setChild(x, y.right, Left)
	setParent(y.right, x)
	p := x.parent
	setParent(y, p)
	switch dir := x.direction(); dir {
	case Root:
		root = y
	default:
		setChild(p, y, dir)
	}
	setParent(x, y)
	setChild(y, x, Right)
	if refresh {
		updateHeight(x)
		updateHeight(y)
	}
	return root
}

// rotateLeftByKey rotates around the node holding key and returns the
// new root, the caller must store it back.
func rotateLeftByKey[K infra.OrderedKey](root *node[K], key K, refresh bool) *node[K] {
	return rotateLeft(root, find(root, key), refresh)
}

func rotateRightByKey[K infra.OrderedKey](root *node[K], key K, refresh bool) *node[K] {
	return rotateRight(root, find(root, key), refresh)
}
