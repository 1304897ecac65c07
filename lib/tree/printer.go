package tree

import (
	"fmt"
	"io"
	"strconv"

	"github.com/benz9527/xtree/lib/infra"
)

const (
	leftArrow  = "<──"
	rightArrow = "──>"
	nilLabel   = "NIL"
	indent     = "|\t"
)

type printOptions struct {
	colorize func(c Color, label string) string
}

type PrintOption func(*printOptions)

// WithColorizer decorates the color label of the red-black tree nodes,
// e.g. with terminal escape codes.
func WithColorizer(fn func(c Color, label string) string) PrintOption {
	return func(opts *printOptions) {
		opts.colorize = fn
	}
}

/*
printer dumps the tree in preorder, one node per line. Every node line
follows a spacer line holding only the node's indent, which grows by
"|\t" per level. The dump of 2, 1, 3 in a red-black tree, quoted:

	""
	"<──(key 2, color Black, parent 2)"
	"|\t"
	"|\t<──(key 1, color Red, parent 2)"
	"|\t|\t<──NIL"
	"|\t|\t──>NIL"
	"|\t"
	"|\t──>(key 3, color Red, parent 2)"
	"|\t|\t<──NIL"
	"|\t|\t──>NIL"

The root reports itself as its own parent.
*/
type printer[K infra.OrderedKey] struct {
	w    io.Writer
	kind Kind
	printOptions
}

func (p *printer[K]) print(root *node[K]) {
	if root.isAbsent() {
		p.printNil(Left, "")
		return
	}
	p.printNode(root, Left, "")
}

func arrowOf(dir Direction) string {
	if dir == Right {
		return rightArrow
	}
	return leftArrow
}

func (p *printer[K]) printNil(dir Direction, extra string) {
	_, _ = fmt.Fprintf(p.w, "%s%s%s\n", extra, arrowOf(dir), nilLabel)
}

func (p *printer[K]) label(n *node[K]) string {
	if p.kind == AVL {
		return "height " + strconv.FormatUint(n.height, 10)
	}
	c := n.color.String()
	if p.colorize != nil {
		c = p.colorize(n.color, c)
	}
	return "color " + c
}

func (p *printer[K]) printNode(n *node[K], dir Direction, extra string) {
	parentKey := n.key
	if n.parent != nil {
		parentKey = n.parent.key
	}
	_, _ = fmt.Fprintln(p.w, extra)
	_, _ = fmt.Fprintf(p.w, "%s%s(key %v, %s, parent %v)\n",
		extra, arrowOf(dir), n.key, p.label(n), parentKey)

	extra += indent
	if n.left.isAbsent() {
		p.printNil(Left, extra)
	} else {
		p.printNode(n.left, Left, extra)
	}
	if n.right.isAbsent() {
		p.printNil(Right, extra)
	} else {
		p.printNode(n.right, Right, extra)
	}
}
