package syntax

import (
	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

// Ref is a location token for a node that survives edits to its unit.
// It is resolved against the current tree on demand; a ref whose text was
// touched by a later edit no longer resolves.
type Ref struct {
	Unit    uuid.UUID
	Version int
	Start   uint
	End     uint
	Kind    string
	Digest  uint64
}

func (r Ref) IsZero() bool { return r.Kind == "" }

// RefOf captures a ref for n at the unit's current version.
func (u *Unit) RefOf(n Node) Ref {
	if n.IsZero() {
		return Ref{}
	}
	start, end := n.Span()
	return Ref{
		Unit:    u.ID,
		Version: u.version,
		Start:   start,
		End:     end,
		Kind:    n.Kind(),
		Digest:  xxhash.Sum64String(n.Text()),
	}
}

// Resolve maps ref through the edits made since it was taken and returns the
// node it designates now. ok is false when the ref is stale.
func (u *Unit) Resolve(ref Ref) (Node, bool) {
	if ref.IsZero() || ref.Unit != u.ID || ref.Version > u.version {
		return Node{}, false
	}
	start, end := int(ref.Start), int(ref.End)
	for _, e := range u.edits {
		if e.version <= ref.Version {
			continue
		}
		switch {
		case e.oldEnd <= start:
			delta := e.newEnd - e.oldEnd
			start += delta
			end += delta
		case e.start >= end:
		default:
			return Node{}, false
		}
	}
	if start < 0 || end > len(u.source) || start > end {
		return Node{}, false
	}

	root := u.Root()
	if root.IsZero() {
		return Node{}, false
	}
	cur := root.raw.DescendantForByteRange(uint(start), uint(end))
	for cur != nil && int(cur.StartByte()) == start && int(cur.EndByte()) == end {
		if cur.Kind() == ref.Kind {
			n := root.wrap(cur)
			if xxhash.Sum64String(n.Text()) != ref.Digest {
				return Node{}, false
			}
			return n, true
		}
		cur = cur.Parent()
	}
	return Node{}, false
}
