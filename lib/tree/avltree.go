package tree

import (
	"github.com/benz9527/xtree/lib/infra"
)

// AVL property: for every node N, |height(right(N)) - height(left(N))| <= 1,
// so height <= 1.44*log2(n+2).
// Each node caches its subtree height, absent children contribute 0.

type avlBalancer[K infra.OrderedKey] struct {
	g *graph[K]
}

func (avl *avlBalancer[K]) insert(key K) bool {
	z := avl.g.newNode(key, Black)
	if avl.g.root == nil {
		avl.g.root = z
		return true
	}
	if !insertDescent(avl.g.root, z) {
		return false
	}
	avl.retrace(z)
	return true
}

/*
retrace walks from z up to above the root, refreshing the cached
heights and rotating wherever the balance factor reaches ±2.

LL: bf(Z) = -2, bf(L) <= 0, r-rotate(Z).

	    Z             L
	   / \           / \
	  L   C  ====>  A   Z
	 / \               / \
	A   B             B   C

LR: bf(Z) = -2, bf(L) > 0, l-rotate(L), r-rotate(Z).

	    Z               Z               B
	   / \             / \             / \
	  L   C  ====>    B   C  ====>    L   Z
	 / \             /               /     \
	A   B           L               A       C
	               /
	              A

RR and RL are the mirrors.

The walk never stops at the first rotation, a removal may unbalance
every ancestor on the path.
*/
func (avl *avlBalancer[K]) retrace(z *node[K]) {
	g := avl.g
	for z != nil {
		updateHeight(z)
		switch bf := balanceFactor(z); {
		case bf < -1:
			if /* LL */ balanceFactor(z.left) <= 0 {
				g.rightRotate(z)
			} else /* LR */ {
				g.leftRotate(z.left)
				g.rightRotate(z)
			}
			// The node that took z's place.
			z = z.parent
		case bf > 1:
			if /* RR */ balanceFactor(z.right) >= 0 {
				g.leftRotate(z)
			} else /* RL */ {
				g.rightRotate(z.right)
				g.leftRotate(z)
			}
			z = z.parent
		default:
		}
		z = z.parent
	}
}

/*
r1: Only a root node, remove directly.

r2: Z is a leaf. A sentinel fills its slot, retrace from Z's parent.

r3: Z has only the right (resp. left) subtree. The child replaces Z,
retrace from the child.

r4: Z has both subtrees. M is the minimum of the right subtree. M's key
is copied into Z, then M is removed, it falls into r2 or r3 because M
has no left subtree.
*/
func (avl *avlBalancer[K]) remove(z *node[K]) {
	g := avl.g
	if /* r1 */ nodesEqual(z, g.root) && isLeaf(z) {
		g.root = nil
		return
	}

	br := g.openBracket()
	p := avl.detach(br, z)
	br.close()

	avl.retrace(p)
}

// detach returns the deepest node whose subtree changed shape.
func (avl *avlBalancer[K]) detach(br *nilBracket[K], z *node[K]) *node[K] {
	var p *node[K]
	zl, zr := br.child(z, Left), br.child(z, Right)
	switch {
	case /* r2 */ zl.isNil && zr.isNil:
		p = z.parent
		br.hole(p, z.direction())
	case /* r3 */ zl.isNil:
		avl.g.transplant(z, zr)
		p = zr
	case /* r3 */ zr.isNil:
		avl.g.transplant(z, zl)
		p = zl
	default: /* r4 */
		m := minimum(zr)
		z.SetKey(m.key)
		return avl.detach(br, m)
	}
	z.unlink()
	return p
}
