package tree

import (
	"io"

	"github.com/benz9527/xtree/lib/infra"
)

type Color uint8

const (
	Black Color = iota
	Red
)

func (c Color) String() string {
	switch c {
	case Black:
		return "Black"
	case Red:
		return "Red"
	default:
	}
	return "Unknown"
}

type Direction int8

const (
	Left Direction = -1 + iota
	Root
	Right
)

func (dir Direction) String() string {
	switch dir {
	case Left:
		return "Left"
	case Root:
		return "Root"
	case Right:
		return "Right"
	default:
	}
	return "Unknown"
}

// Kind is the balancing discipline of a tree.
type Kind uint8

const (
	RedBlack Kind = iota + 1
	AVL
)

func (k Kind) String() string {
	switch k {
	case RedBlack:
		return "rbtree"
	case AVL:
		return "avltree"
	default:
	}
	return "unknown"
}

type TraverseOrder uint8

const (
	Ascending TraverseOrder = iota
	Descending
)

func (o TraverseOrder) String() string {
	if o == Descending {
		return "desc"
	}
	return "asc"
}

// Node is the read-only view of a tree node. The accessors never
// expose nil sentinels, absent children are returned as nil.
type Node[K infra.OrderedKey] interface {
	Key() K
	// Color is only maintained by the red-black tree.
	Color() Color
	// Height is the cached subtree height, only maintained by the AVL tree.
	Height() uint64
	Left() Node[K]
	Right() Node[K]
	Parent() Node[K]
}

// Stats are the structural counters accumulated since construction.
type Stats struct {
	Len       int64
	Rotations uint64
	Recolors  uint64
}

// Tree is an ordered container of unique keys.
// A tree is not goroutine-safe, the holder must serialize the access.
type Tree[K infra.OrderedKey] interface {
	Kind() Kind
	Len() int64
	Root() Node[K]
	// Insert is a no-op if the key is present.
	Insert(key K)
	// Delete is a no-op if the key is absent.
	Delete(key K)
	Search(key K) bool
	CountLeaves() uint64
	Height() uint64
	IsEmpty() bool
	Traverse(order TraverseOrder, action func(idx int64, key K) bool)
	Keys(order TraverseOrder) []K
	Print(w io.Writer, opts ...PrintOption)
	Stats() Stats
	Release()
}
