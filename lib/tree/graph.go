package tree

import (
	"github.com/benz9527/xtree/lib/infra"
)

// graph owns the root and the link-level edits shared by the balancers.
type graph[K infra.OrderedKey] struct {
	root      *node[K]
	count     int64
	rotations uint64
	recolors  uint64
	kind      Kind
	// eager solidifies the whole tree for every delete bracket.
	eager bool
}

func (g *graph[K]) newNode(key K, color Color) *node[K] {
	z := &node[K]{
		key:   key,
		color: color,
	}
	if g.kind == AVL {
		z.height = 1
	}
	return z
}

func (g *graph[K]) leftRotate(x *node[K]) {
	if x.isAbsent() || x.right.isAbsent() {
		// impossible run to here
		panic( /* debug assertion */ "[xtree] left rotate node x is nil or x.right is nil")
	}
	g.root = rotateLeft(g.root, x, g.kind == AVL)
	g.rotations++
}

func (g *graph[K]) rightRotate(x *node[K]) {
	if x.isAbsent() || x.left.isAbsent() {
		// impossible run to here
		panic( /* debug assertion */ "[xtree] right rotate node x is nil or x.left is nil")
	}
	g.root = rotateRight(g.root, x, g.kind == AVL)
	g.rotations++
}

// transplant replaces the subtree rooted at u with the one rooted at v.
// v.parent is always re-targeted, also for a nil sentinel, so a fix-up
// can walk up from the hole.
func (g *graph[K]) transplant(u, v *node[K]) {
	p := u.parent
	switch {
	case p == nil:
		g.root = v
	case nodesEqual(u, p.left):
		setChild(p, v, Left)
	case nodesEqual(u, p.right):
		setChild(p, v, Right)
	default:
		// impossible run to here
		panic( /* debug assertion */ "[xtree] transplant from a dangling parent pointer")
	}
	setParent(v, p)
}

func (g *graph[K]) paint(n *node[K], color Color) {
	if n == nil || n.color == color {
		return
	}
	n.color = color
	g.recolors++
}

func (g *graph[K]) openBracket() *nilBracket[K] {
	b := &nilBracket[K]{g: g}
	if g.eager {
		solidify(g.root)
	}
	return b
}
