package tree

import (
	"io"

	"github.com/benz9527/xtree/lib/infra"
)

type balancer[K infra.OrderedKey] interface {
	// insert returns false if the key is present.
	insert(key K) bool
	remove(z *node[K])
}

var (
	_ balancer[int] = (*rbBalancer[int])(nil)
	_ balancer[int] = (*avlBalancer[int])(nil)
)

// memo is a lazily recomputed value, invalid until the first query.
type memo struct {
	val   uint64
	valid bool
}

func (m *memo) load(recompute func() uint64) uint64 {
	if !m.valid {
		m.val, m.valid = recompute(), true
	}
	return m.val
}

func (m *memo) invalidate() {
	m.valid = false
}

var _ Tree[int] = (*tree[int])(nil)

type tree[K infra.OrderedKey] struct {
	g      *graph[K]
	bal    balancer[K]
	leaves memo
	height memo
}

func (t *tree[K]) Kind() Kind {
	return t.g.kind
}

func (t *tree[K]) Len() int64 {
	return t.g.count
}

func (t *tree[K]) Root() Node[K] {
	if t.g.root == nil {
		return nil
	}
	return t.g.root
}

func (t *tree[K]) invalidate() {
	t.leaves.invalidate()
	t.height.invalidate()
}

func (t *tree[K]) Insert(key K) {
	t.invalidate()
	if t.bal.insert(key) {
		t.g.count++
	}
}

func (t *tree[K]) Delete(key K) {
	t.invalidate()
	z := find(t.g.root, key)
	if z == nil {
		return
	}
	t.bal.remove(z)
	t.g.count--
}

func (t *tree[K]) Search(key K) bool {
	return find(t.g.root, key) != nil
}

func (t *tree[K]) CountLeaves() uint64 {
	return t.leaves.load(func() uint64 {
		return countLeaves(t.g.root)
	})
}

func (t *tree[K]) Height() uint64 {
	return t.height.load(func() uint64 {
		return subtreeHeight(t.g.root)
	})
}

func (t *tree[K]) IsEmpty() bool {
	return t.g.root == nil
}

// Traverse is an inorder DFS, stops once the action returns false.
func (t *tree[K]) Traverse(order TraverseOrder, action func(idx int64, key K) bool) {
	aux := t.g.root
	if aux == nil || action == nil {
		return
	}

	// near is the side visited first.
	near, far := func(n *node[K]) *node[K] { return n.left },
		func(n *node[K]) *node[K] { return n.right }
	if order == Descending {
		near, far = far, near
	}

	stack := make([]*node[K], 0, t.Height()+1)
	defer func() {
		clear(stack)
	}()

	for ; aux != nil; aux = near(aux) {
		stack = append(stack, aux)
	}

	idx := int64(0)
	for size := len(stack); size > 0; size = len(stack) {
		if aux = stack[size-1]; !action(idx, aux.key) {
			return
		}
		idx++
		stack = stack[:size-1]
		for aux = far(aux); aux != nil; aux = near(aux) {
			stack = append(stack, aux)
		}
	}
}

func (t *tree[K]) Keys(order TraverseOrder) []K {
	keys := make([]K, 0, t.g.count)
	t.Traverse(order, func(_ int64, key K) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}

func (t *tree[K]) Print(w io.Writer, opts ...PrintOption) {
	p := &printer[K]{
		w:    w,
		kind: t.g.kind,
	}
	for _, o := range opts {
		if o != nil {
			o(&p.printOptions)
		}
	}
	p.print(t.g.root)
}

func (t *tree[K]) Stats() Stats {
	return Stats{
		Len:       t.g.count,
		Rotations: t.g.rotations,
		Recolors:  t.g.recolors,
	}
}

// Release drops all the nodes. The counters are kept.
func (t *tree[K]) Release() {
	t.invalidate()
	aux := t.g.root
	t.g.root = nil
	t.g.count = 0
	if aux == nil {
		return
	}

	stack := []*node[K]{aux}
	for size := len(stack); size > 0; size = len(stack) {
		aux = stack[size-1]
		stack = stack[:size-1]
		if aux.left != nil {
			stack = append(stack, aux.left)
		}
		if aux.right != nil {
			stack = append(stack, aux.right)
		}
		aux.unlink()
	}
}

type treeOptions struct {
	eagerNilSentinels bool
}

type TreeOption func(*treeOptions)

// WithEagerNilSentinels solidifies the whole tree around every delete
// instead of materializing the sentinels along the deletion path only.
// The resulting shapes are identical, but a delete costs O(n).
func WithEagerNilSentinels() TreeOption {
	return func(opts *treeOptions) {
		opts.eagerNilSentinels = true
	}
}

func New[K infra.OrderedKey](kind Kind, opts ...TreeOption) Tree[K] {
	o := &treeOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	g := &graph[K]{
		kind:  kind,
		eager: o.eagerNilSentinels,
	}
	t := &tree[K]{g: g}
	switch kind {
	case RedBlack:
		t.bal = &rbBalancer[K]{g: g}
	case AVL:
		t.bal = &avlBalancer[K]{g: g}
	default:
		panic("[xtree] unknown tree kind")
	}
	return t
}

func NewRBTree[K infra.OrderedKey](opts ...TreeOption) Tree[K] {
	return New[K](RedBlack, opts...)
}

func NewAVLTree[K infra.OrderedKey](opts ...TreeOption) Tree[K] {
	return New[K](AVL, opts...)
}
