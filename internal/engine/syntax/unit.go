// # internal/engine/syntax/unit.go
package syntax

import (
	"github.com/google/uuid"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Unit is one parsed compilation unit: a PHP file and its tree.
//
// Reading a unit (Root, Text, Resolve) may happen from any number of
// goroutines while nobody edits it. Replace requires exclusive access.
type Unit struct {
	ID   uuid.UUID
	Path string

	level   Level
	pool    *ParserPool
	source  []byte
	tree    *sitter.Tree
	version int
	edits   []edit
}

// edit records that bytes [start, oldEnd) became [start, newEnd) at version.
type edit struct {
	version int
	start   int
	oldEnd  int
	newEnd  int
}

func (u *Unit) reparse(src []byte) error {
	tree := u.pool.Parse(src)
	if tree == nil {
		return ErrParse
	}
	if u.tree != nil {
		u.tree.Close()
	}
	u.tree = tree
	u.source = src
	return nil
}

func (u *Unit) Root() Node {
	if u.tree == nil {
		return Node{}
	}
	return Node{raw: u.tree.RootNode(), src: u.source}
}

// Source returns the current bytes. The slice must not be modified.
func (u *Unit) Source() []byte { return u.source }

func (u *Unit) Level() Level { return u.level }

func (u *Unit) Supports(f Feature) bool { return u.level.Supports(f) }

func (u *Unit) Version() int { return u.version }

// HasErrors reports whether the tree contains syntax errors.
func (u *Unit) HasErrors() bool { return u.Root().HasError() }

// Replace splices text over bytes [start, end), reparses and records the edit
// so that refs taken earlier can still be resolved.
func (u *Unit) Replace(start, end uint, text string) error {
	s, e := int(start), int(end)
	if s > e || e > len(u.source) {
		return ErrInvalidSpan
	}
	next := make([]byte, 0, len(u.source)-(e-s)+len(text))
	next = append(next, u.source[:s]...)
	next = append(next, text...)
	next = append(next, u.source[e:]...)
	if err := u.reparse(next); err != nil {
		return err
	}
	u.version++
	u.edits = append(u.edits, edit{
		version: u.version,
		start:   s,
		oldEnd:  e,
		newEnd:  s + len(text),
	})
	return nil
}

// Close releases the tree. The unit must not be used afterwards.
func (u *Unit) Close() {
	if u.tree != nil {
		u.tree.Close()
		u.tree = nil
	}
}
