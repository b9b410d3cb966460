package propath

import (
	"errors"
	"fmt"

	"github.com/starford/prophist/internal/yamldoc"
)

// ErrPathNotFound means the path does not resolve in this document, which
// is expected when fields are added, renamed or removed over time.
var ErrPathNotFound = errors.New("propath: path not found")

// NotFoundError records where traversal stopped.
type NotFoundError struct {
	Position int
	Segment  Segment
	Reason   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("propath: segment %d %q: %s", e.Position, e.Segment, e.Reason)
}

func (e *NotFoundError) Unwrap() error { return ErrPathNotFound }

// Traverse walks p from root and returns the node it ends on. The Array
// sentinel is skipped. An indexed segment either names a sequence inside
// the current mapping or, when the current node is already a sequence
// (the "list.Array.data[i]" form), indexes it directly.
func Traverse(root yamldoc.Node, p Path) (yamldoc.Node, error) {
	cur := root
	for i, seg := range p {
		if seg.IsSentinel() {
			switch cur.(type) {
			case *yamldoc.Mapping, *yamldoc.Sequence:
				continue
			}
		}

		next, reason := step(cur, seg)
		if next == nil {
			return nil, &NotFoundError{Position: i, Segment: seg, Reason: reason}
		}
		cur = next
	}
	return cur, nil
}

func step(cur yamldoc.Node, seg Segment) (yamldoc.Node, string) {
	if !seg.Indexed {
		m, ok := cur.(*yamldoc.Mapping)
		if !ok {
			return nil, "not a mapping"
		}
		v, ok := m.Lookup(seg.Name)
		if !ok {
			return nil, "missing key"
		}
		return v, ""
	}

	var seq *yamldoc.Sequence
	switch v := cur.(type) {
	case *yamldoc.Sequence:
		seq = v
	case *yamldoc.Mapping:
		named, ok := v.Lookup(seg.Name)
		if !ok {
			return nil, "missing collection"
		}
		if seq, ok = named.(*yamldoc.Sequence); !ok {
			return nil, "not a sequence"
		}
	default:
		return nil, "not a collection"
	}
	item, ok := seq.At(seg.Index)
	if !ok {
		return nil, fmt.Sprintf("index out of range (len %d)", seq.Len())
	}
	return item, ""
}
