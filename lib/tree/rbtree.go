package tree

import (
	"github.com/benz9527/xtree/lib/infra"
)

// References:
// https://en.wikipedia.org/wiki/Red%E2%80%93black_tree#Properties
// p1. Every node is either red or black.
// p2. The root is black.
// p3. A red node does not have a red child, absent children count as
//   black. (red-violation)
// p4. Every path from a given node to any of its descendant absent
//   children goes through the same number of black nodes. (black-violation)
// The longest path is at most twice as long as the shortest one, so
// height <= 2*log2(n+1).

type rbBalancer[K infra.OrderedKey] struct {
	g *graph[K]
}

// New node is painted red, the fix-up repaints the root black.
func (rb *rbBalancer[K]) insert(key K) bool {
	z := rb.g.newNode(key, Red)
	if rb.g.root == nil {
		rb.g.root = z
	} else if !insertDescent(rb.g.root, z) {
		return false
	}
	rb.insertRebalance(z)
	return true
}

/*
<X> is a RED node.
[X] is a BLACK node (or NIL).

im1: The parent P is black, nothing to fix.

im2: Both the parent P and the uncle U are red, so the grandpa G is
black. Repaint and continue from G, it may be red-violation again.

	    [G]             <G>
	    / \             / \
	  <P> <U>  ====>  [P] [U]
	  /               /
	<X>             <X>

im3: The parent P is red, the uncle U is black and X is the inner
child. Rotate P to turn X into the outer child, then enter im4.

	  [G]                 [G]
	  / \    l-rotate(P)  / \
	<P> [U]  ========>  <X> [U]
	  \                 /
	  <X>             <P>

im4: X is the outer child. Repaint P black, G red and rotate G.

	    [G]                 [P]
	    / \    r-rotate(G)  / \
	  <P> [U]  ========>  <X> <G>
	  /                         \
	<X>                         [U]
*/
func (rb *rbBalancer[K]) insertRebalance(z *node[K]) {
	g := rb.g
	for /* im1 */ colorOf(z.parent) == Red {
		p := z.parent
		gp := p.parent
		if gp == nil {
			// impossible run to here
			panic( /* debug assertion */ "[xtree] rbtree red root during insert (im2)")
		}
		if nodesEqual(p, gp.left) {
			if y := gp.right; /* im2 */ colorOf(y) == Red {
				g.paint(p, Black)
				g.paint(y, Black)
				g.paint(gp, Red)
				z = gp
				continue
			}
			if /* im3 */ nodesEqual(z, p.right) {
				z = p
				g.leftRotate(z)
			}
			/* im4 */
			g.paint(z.parent, Black)
			g.paint(z.parent.parent, Red)
			g.rightRotate(z.parent.parent)
		} else {
			if y := gp.left; /* im2 */ colorOf(y) == Red {
				g.paint(p, Black)
				g.paint(y, Black)
				g.paint(gp, Red)
				z = gp
				continue
			}
			if /* im3 */ nodesEqual(z, p.left) {
				z = p
				g.rightRotate(z)
			}
			/* im4 */
			g.paint(z.parent, Black)
			g.paint(z.parent.parent, Red)
			g.leftRotate(z.parent.parent)
		}
	}
	g.paint(g.root, Black)
}

/*
r1: Only a root node, remove directly.

r2: Z has at most one real child. The child (or the sentinel standing
for the empty slot) replaces Z. Y is Z itself.

r3: Z has both children. Y is the successor, the minimum of the right
subtree. Y takes Z's place and color, Y's right child X takes Y's place.

	  |                  |
	  Z                  Y
	 / \                / \
	L   R    ====>     L   R
	   /                  /
	 ...                ...
	 /                  /
	Y                  X
	 \
	  X

If the removed color (Y's color before the move) is black, the path through X
lost one black node and X must be fixed.
*/
func (rb *rbBalancer[K]) remove(z *node[K]) {
	g := rb.g
	if /* r1 */ nodesEqual(z, g.root) && isLeaf(z) {
		g.root = nil
		return
	}

	br := g.openBracket()
	defer br.close()

	y, yOrigColor := z, z.color
	var x *node[K]
	zl, zr := br.child(z, Left), br.child(z, Right)
	switch {
	case /* r2 */ zl.isNil:
		x = zr
		g.transplant(z, zr)
	case /* r2 */ zr.isNil:
		x = zl
		g.transplant(z, zl)
	default: /* r3 */
		y = minimum(zr)
		yOrigColor = y.color
		x = br.child(y, Right)
		if nodesEqual(y.parent, z) {
			setParent(x, y)
		} else {
			g.transplant(y, x)
			setChild(y, zr, Right)
			setParent(zr, y)
		}
		g.transplant(z, y)
		setChild(y, zl, Left)
		setParent(zl, y)
		g.paint(y, z.color)
	}

	if yOrigColor == Black {
		rb.removeRebalance(br, x)
	}
	z.unlink()
}

/*
<X> is a RED node.
[X] is a BLACK node (or NIL).
{X} is either a RED node or a BLACK node.

X carries an extra black. W is X's sibling, Wn is the near nephew and
Wf is the far nephew. The cases for X as a left child, mirrored for a
right child.

rm1: W is red. Repaint W black and P red, rotate P. The new sibling is
black, enter rm2-rm4.

	  [P]                   [W]
	  / \    l-rotate(P)    / \
	[X] <W>  ==========>  <P> [Wf]
	    / \               / \
	 [Wn] [Wf]          [X] [Wn]

rm2: W and both nephews are black. Repaint W red and move the extra
black up to P.

	  {P}             {P}
	  / \             / \
	[X] [W]  ====>  [X] <W>
	    / \             / \
	 [Wn] [Wf]       [Wn] [Wf]

rm3: W is black, Wn is red and Wf is black. Repaint Wn black and W red,
rotate W, enter rm4.

	  {P}                   {P}
	  / \    r-rotate(W)    / \
	[X] [W]  ==========>  [X] [Wn]
	    / \                     \
	  <Wn> [Wf]                 <W>
	                              \
	                              [Wf]

rm4: W is black and Wf is red. W takes P's color, P and Wf are painted
black, rotate P. The extra black is absorbed.

	  {P}                   {W}
	  / \    l-rotate(P)    / \
	[X] [W]  ==========>  [P] [Wf]
	    / \               / \
	 {Wn} <Wf>          [X] {Wn}
*/
func (rb *rbBalancer[K]) removeRebalance(br *nilBracket[K], x *node[K]) {
	g := rb.g
	for !nodesEqual(x, g.root) && colorOf(x) == Black {
		// The parent is tracked explicitly, x may be a sentinel whose
		// back edge was set by transplant.
		p := x.parent
		if p == nil {
			// impossible run to here
			panic( /* debug assertion */ "[xtree] rbtree remove fix-up from a detached node")
		}
		switch dir := x.direction(); dir {
		case Left:
			w := br.child(p, Right)
			if /* rm1 */ colorOf(w) == Red {
				g.paint(w, Black)
				g.paint(p, Red)
				g.leftRotate(p)
				w = br.child(p, Right)
			}
			rb.assertSibling(w)
			wn, wf := br.child(w, Left), br.child(w, Right)
			if /* rm2 */ colorOf(wn) == Black && colorOf(wf) == Black {
				g.paint(w, Red)
				x = p
				continue
			}
			if /* rm3 */ colorOf(wf) == Black {
				g.paint(wn, Black)
				g.paint(w, Red)
				g.rightRotate(w)
				w = br.child(p, Right)
				wf = br.child(w, Right)
			}
			/* rm4 */
			g.paint(w, p.color)
			g.paint(p, Black)
			g.paint(wf, Black)
			g.leftRotate(p)
			x = g.root
		case Right:
			w := br.child(p, Left)
			if /* rm1 */ colorOf(w) == Red {
				g.paint(w, Black)
				g.paint(p, Red)
				g.rightRotate(p)
				w = br.child(p, Left)
			}
			rb.assertSibling(w)
			wn, wf := br.child(w, Right), br.child(w, Left)
			if /* rm2 */ colorOf(wn) == Black && colorOf(wf) == Black {
				g.paint(w, Red)
				x = p
				continue
			}
			if /* rm3 */ colorOf(wf) == Black {
				g.paint(wn, Black)
				g.paint(w, Red)
				g.leftRotate(w)
				w = br.child(p, Left)
				wf = br.child(w, Left)
			}
			/* rm4 */
			g.paint(w, p.color)
			g.paint(p, Black)
			g.paint(wf, Black)
			g.rightRotate(p)
			x = g.root
		default:
			// impossible run to here
			panic( /* debug assertion */ "[xtree] rbtree remove fix-up at root")
		}
	}
	g.paint(x, Black)
}

// A doubly black x always has a real sibling, otherwise the black
// heights were already broken before the removal.
func (rb *rbBalancer[K]) assertSibling(w *node[K]) {
	if w.isAbsent() {
		// impossible run to here
		panic( /* debug assertion */ "[xtree] rbtree black violation, doubly black node without sibling")
	}
}
