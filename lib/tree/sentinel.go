package tree

import (
	"github.com/benz9527/xtree/lib/infra"
)

/*
Nil sentinels let the delete algorithms address the hole left by the
removed node uniformly, as if it were a black leaf with a parent.

	     [P]                     [P]
	     / \     solidify        / \
	   <X>  ∅    =======>     <X>  [nil]
	   / \                    / \
	  ∅   ∅               [nil] [nil]

A sentinel carries its parent's key only as a filler. It must never be
observed outside the delete bracket.
*/

func newSentinel[K infra.OrderedKey](p *node[K]) *node[K] {
	return &node[K]{
		key:    p.key,
		parent: p,
		color:  Black,
		isNil:  true,
	}
}

// solidify materializes every empty child slot under root.
func solidify[K infra.OrderedKey](root *node[K]) {
	if root.isAbsent() {
		return
	}
	if root.left == nil {
		root.left = newSentinel(root)
	} else {
		solidify(root.left)
	}
	if root.right == nil {
		root.right = newSentinel(root)
	} else {
		solidify(root.right)
	}
}

// virtualize replaces every sentinel under root by an empty slot and
// returns the new root, nil if root itself is a sentinel.
func virtualize[K infra.OrderedKey](root *node[K]) *node[K] {
	if root == nil {
		return nil
	}
	if root.isNil {
		root.parent = nil
		return nil
	}
	root.left = virtualize(root.left)
	root.right = virtualize(root.right)
	return root
}

// nilBracket scopes the sentinels of one delete operation.
// In the eager mode the whole tree was solidified when the bracket was
// opened. Otherwise the sentinels are materialized on demand, only for
// the slots the algorithm addresses, and recorded to be released.
type nilBracket[K infra.OrderedKey] struct {
	g    *graph[K]
	made []*node[K]
}

// child returns the child in the slot of p, materializing a sentinel if
// the slot is empty.
func (b *nilBracket[K]) child(p *node[K], dir Direction) *node[K] {
	if p.isNil {
		// impossible run to here
		panic( /* debug assertion */ "[xtree] sentinel has no children")
	}
	if c := p.child(dir); c != nil {
		return c
	}
	return b.hole(p, dir)
}

// hole writes a fresh sentinel into the slot of p.
func (b *nilBracket[K]) hole(p *node[K], dir Direction) *node[K] {
	s := newSentinel(p)
	setChild(p, s, dir)
	b.made = append(b.made, s)
	return s
}

// close releases all the sentinels, whatever case path the algorithm took.
func (b *nilBracket[K]) close() {
	if b.g.eager {
		b.g.root = virtualize(b.g.root)
	}
	for _, s := range b.made {
		if p := s.parent; p != nil {
			if p.left == s {
				p.left = nil
			}
			if p.right == s {
				p.right = nil
			}
		}
		s.parent = nil
	}
	if b.g.root != nil && b.g.root.isNil {
		b.g.root = nil
	}
	clear(b.made)
	b.made = b.made[:0]
}
