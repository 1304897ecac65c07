package tree

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/benz9527/xtree/lib/infra"
)

// Tree rule validation utilities.
// They walk the read-only Node view and report the first violation
// found by each rule.

func violation(format string, args ...any) error {
	return infra.NewErrorStack(fmt.Sprintf("[xtree] "+format, args...))
}

// OrderViolationValidate checks the inorder keys are strictly increasing.
func OrderViolationValidate[K infra.OrderedKey](tree Tree[K]) error {
	var (
		prev K
		seen int64
		err  error
	)
	tree.Traverse(Ascending, func(idx int64, key K) bool {
		if idx > 0 && infra.CompareOrderedKey(prev, key) >= 0 {
			err = violation("order violation, key %v after %v", key, prev)
			return false
		}
		prev = key
		seen++
		return true
	})
	if err == nil && seen != tree.Len() {
		err = violation("order violation, %d keys reachable, length %d", seen, tree.Len())
	}
	return err
}

// LinkViolationValidate checks each child points back to its parent and
// the root has no parent.
func LinkViolationValidate[K infra.OrderedKey](tree Tree[K]) error {
	root := tree.Root()
	if root == nil {
		return nil
	}
	if root.Parent() != nil {
		return violation("link violation, root %v has a parent", root.Key())
	}

	stack := []Node[K]{root}
	for size := len(stack); size > 0; size = len(stack) {
		aux := stack[size-1]
		stack = stack[:size-1]
		for _, c := range []Node[K]{aux.Left(), aux.Right()} {
			if c == nil {
				continue
			}
			if c.Parent() != aux {
				return violation("link violation, node %v is not linked back to %v", c.Key(), aux.Key())
			}
			stack = append(stack, c)
		}
	}
	return nil
}

func isRedNode[K infra.OrderedKey](n Node[K]) bool {
	return n != nil && n.Color() == Red
}

// RedViolationValidate checks the root is black and no red node has a
// red child.
func RedViolationValidate[K infra.OrderedKey](tree Tree[K]) error {
	root := tree.Root()
	if root == nil {
		return nil
	}
	if isRedNode(root) {
		return violation("rbtree red violation, red root %v", root.Key())
	}

	stack := []Node[K]{root}
	for size := len(stack); size > 0; size = len(stack) {
		aux := stack[size-1]
		stack = stack[:size-1]
		l, r := aux.Left(), aux.Right()
		if isRedNode(aux) && (isRedNode(l) || isRedNode(r)) {
			return violation("rbtree red violation at %v", aux.Key())
		}
		if l != nil {
			stack = append(stack, l)
		}
		if r != nil {
			stack = append(stack, r)
		}
	}
	return nil
}

// blackHeight returns -1 if the subtree paths disagree.
func blackHeight[K infra.OrderedKey](n Node[K]) int {
	if n == nil {
		return 0
	}
	l, r := blackHeight(n.Left()), blackHeight(n.Right())
	if l < 0 || r < 0 || l != r {
		return -1
	}
	if n.Color() == Black {
		return l + 1
	}
	return l
}

/*
<X> is a RED node.
[X] is a BLACK node (or NIL).

	        [13]
	        /  \
	     <8>    [15]
	     / \    /  \
	  [6] [11] [14] [17]
	  /              /
	<1>            <16>

Every root to absent child path goes through the same number of black
nodes.
*/
func BlackViolationValidate[K infra.OrderedKey](tree Tree[K]) error {
	if blackHeight(tree.Root()) < 0 {
		return violation("rbtree black violation")
	}
	return nil
}

// avlHeight returns the recomputed height, or an error.
func avlHeight[K infra.OrderedKey](n Node[K]) (uint64, error) {
	if n == nil {
		return 0, nil
	}
	l, err := avlHeight(n.Left())
	if err != nil {
		return 0, err
	}
	r, err := avlHeight(n.Right())
	if err != nil {
		return 0, err
	}
	if bf := int64(r) - int64(l); bf < -1 || bf > 1 {
		return 0, violation("avltree balance violation at %v, bf %d", n.Key(), bf)
	}
	h := 1 + max(l, r)
	if h != n.Height() {
		return 0, violation("avltree height violation at %v, cached %d, recomputed %d", n.Key(), n.Height(), h)
	}
	return h, nil
}

// BalanceViolationValidate checks |bf| <= 1 and the cached heights.
func BalanceViolationValidate[K infra.OrderedKey](tree Tree[K]) error {
	_, err := avlHeight(tree.Root())
	return err
}

// Validate aggregates the rules applicable to the tree kind.
func Validate[K infra.OrderedKey](tree Tree[K]) error {
	err := multierr.Append(OrderViolationValidate(tree), LinkViolationValidate(tree))
	switch tree.Kind() {
	case RedBlack:
		err = multierr.Append(err, RedViolationValidate(tree))
		err = multierr.Append(err, BlackViolationValidate(tree))
	case AVL:
		err = multierr.Append(err, BalanceViolationValidate(tree))
	default:
	}
	return err
}
