// # internal/engine/syntax/node.go
package syntax

import (
	"fortio.org/safecast"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Node is a read-only handle into a unit's tree. The zero Node means "absent".
// A Node is only valid until the owning unit is edited or closed; findings
// that outlive a pass hold a Ref instead.
type Node struct {
	raw *sitter.Node
	src []byte
}

// Position is a 1-based line/column pair.
type Position struct {
	Line   int
	Column int
}

func (n Node) wrap(raw *sitter.Node) Node {
	if raw == nil {
		return Node{}
	}
	return Node{raw: raw, src: n.src}
}

func (n Node) IsZero() bool { return n.raw == nil }

func (n Node) Kind() string {
	if n.raw == nil {
		return ""
	}
	return n.raw.Kind()
}

func (n Node) Is(kinds ...string) bool {
	kind := n.Kind()
	for _, k := range kinds {
		if kind == k {
			return true
		}
	}
	return false
}

func (n Node) IsNamed() bool { return n.raw != nil && n.raw.IsNamed() }

// HasError reports whether the subtree contains syntax errors or missing nodes.
func (n Node) HasError() bool { return n.raw != nil && n.raw.HasError() }

func (n Node) Text() string {
	if n.raw == nil {
		return ""
	}
	return string(n.src[n.raw.StartByte():n.raw.EndByte()])
}

func (n Node) Span() (start, end uint) {
	if n.raw == nil {
		return 0, 0
	}
	return n.raw.StartByte(), n.raw.EndByte()
}

func (n Node) Position() Position {
	if n.raw == nil {
		return Position{}
	}
	p := n.raw.StartPosition()
	line, err := safecast.Convert[int](p.Row)
	if err != nil {
		return Position{}
	}
	col, err := safecast.Convert[int](p.Column)
	if err != nil {
		return Position{}
	}
	return Position{Line: line + 1, Column: col + 1}
}

func (n Node) Parent() Node {
	if n.raw == nil {
		return Node{}
	}
	return n.wrap(n.raw.Parent())
}

// FirstChild returns the first child, anonymous tokens included.
func (n Node) FirstChild() Node {
	if n.raw == nil || n.raw.ChildCount() == 0 {
		return Node{}
	}
	return n.wrap(n.raw.Child(0))
}

func (n Node) Field(name string) Node {
	if n.raw == nil {
		return Node{}
	}
	return n.wrap(n.raw.ChildByFieldName(name))
}

// Children returns every child except comments.
func (n Node) Children() []Node {
	if n.raw == nil {
		return nil
	}
	out := make([]Node, 0, n.raw.ChildCount())
	for i := uint(0); i < n.raw.ChildCount(); i++ {
		child := n.raw.Child(i)
		if child == nil || child.Kind() == KindComment {
			continue
		}
		out = append(out, n.wrap(child))
	}
	return out
}

// NamedChildren returns the named children except comments.
func (n Node) NamedChildren() []Node {
	if n.raw == nil {
		return nil
	}
	out := make([]Node, 0, n.raw.NamedChildCount())
	for i := uint(0); i < n.raw.NamedChildCount(); i++ {
		child := n.raw.NamedChild(i)
		if child == nil || child.Kind() == KindComment {
			continue
		}
		out = append(out, n.wrap(child))
	}
	return out
}

// FirstNamed returns the first named non-comment child.
func (n Node) FirstNamed() Node {
	named := n.NamedChildren()
	if len(named) == 0 {
		return Node{}
	}
	return named[0]
}

// NextStatement returns the next named sibling, skipping comments.
func (n Node) NextStatement() Node {
	if n.raw == nil {
		return Node{}
	}
	s := n.raw.NextNamedSibling()
	for s != nil && s.Kind() == KindComment {
		s = s.NextNamedSibling()
	}
	return n.wrap(s)
}

// PrevStatement returns the previous named sibling, skipping comments.
func (n Node) PrevStatement() Node {
	if n.raw == nil {
		return Node{}
	}
	s := n.raw.PrevNamedSibling()
	for s != nil && s.Kind() == KindComment {
		s = s.PrevNamedSibling()
	}
	return n.wrap(s)
}

// Unparen strips any number of enclosing parentheses.
func (n Node) Unparen() Node {
	for n.Kind() == KindParenthesized {
		inner := n.FirstNamed()
		if inner.IsZero() {
			return n
		}
		n = inner
	}
	return n
}

// Find returns the nodes of the given kind in n's subtree, n included, in preorder.
func (n Node) Find(kind string) []Node {
	var out []Node
	var visit func(Node)
	visit = func(cur Node) {
		if cur.Kind() == kind {
			out = append(out, cur)
		}
		for _, child := range cur.Children() {
			visit(child)
		}
	}
	if !n.IsZero() {
		visit(n)
	}
	return out
}
