package yamldoc

import (
	"errors"
	"fmt"
)

var (
	// ErrAnchorNotFound means the object does not exist in this revision.
	ErrAnchorNotFound = errors.New("yamldoc: anchor not found")
	// ErrUnexpectedShape means the object exists but is not a single
	// type-name key wrapping a field mapping.
	ErrUnexpectedShape = errors.New("yamldoc: unexpected object shape")
)

// Locate finds the object carrying anchorID and returns its field mapping,
// the value nested under the object's type-name key:
//
//	--- !u!4 &400000
//	Transform:          <- anchored root, one type-name entry
//	  m_LocalPosition:  <- returned mapping starts here
func Locate(doc *Document, anchorID string) (Node, error) {
	root, ok := doc.Lookup(anchorID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAnchorNotFound, anchorID)
	}
	m, ok := root.(*Mapping)
	if !ok {
		return nil, fmt.Errorf("%w: object %s is not a mapping", ErrUnexpectedShape, anchorID)
	}
	if m.Len() == 0 {
		return nil, fmt.Errorf("%w: object %s is empty", ErrUnexpectedShape, anchorID)
	}
	fields, ok := m.Entries[0].Value.(*Mapping)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s is not a mapping", ErrUnexpectedShape, anchorID, m.Entries[0].Key)
	}
	return fields, nil
}
