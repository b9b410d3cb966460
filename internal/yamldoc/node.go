// Package yamldoc parses multi-document YAML assets into a tree of typed
// nodes and locates anchored objects inside them.
package yamldoc

// Node is one value in a parsed document: *Scalar, *Mapping or *Sequence.
// The set of implementations is closed.
type Node interface {
	// Anchor returns the object id for sub-document roots, empty otherwise.
	Anchor() string
	// Tag returns the resolved YAML tag, if any.
	Tag() string

	node()
}

type meta struct {
	anchor string
	tag    string
}

func (m meta) Anchor() string { return m.anchor }
func (m meta) Tag() string    { return m.tag }

// Scalar holds an unresolved textual value. No type coercion is applied.
type Scalar struct {
	meta
	Text string
}

// Entry is one key/value pair of a Mapping.
type Entry struct {
	Key   string
	Value Node
}

// Mapping is an ordered list of entries.
type Mapping struct {
	meta
	Entries []Entry
}

// Sequence is an ordered list of items.
type Sequence struct {
	meta
	Items []Node
}

func (*Scalar) node()   {}
func (*Mapping) node()  {}
func (*Sequence) node() {}

// NewScalar returns an unanchored scalar.
func NewScalar(text string) *Scalar {
	return &Scalar{Text: text}
}

// NewMapping returns an unanchored mapping holding entries in order.
func NewMapping(entries ...Entry) *Mapping {
	return &Mapping{Entries: entries}
}

// NewSequence returns an unanchored sequence.
func NewSequence(items ...Node) *Sequence {
	return &Sequence{Items: items}
}

// Lookup returns the value of the first entry whose key equals key.
func (m *Mapping) Lookup(key string) (Node, bool) {
	for _, e := range m.Entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// Len returns the number of entries.
func (m *Mapping) Len() int { return len(m.Entries) }

// At returns the i-th item, or false when i is out of range.
func (s *Sequence) At(i int) (Node, bool) {
	if i < 0 || i >= len(s.Items) {
		return nil, false
	}
	return s.Items[i], true
}

// Len returns the number of items.
func (s *Sequence) Len() int { return len(s.Items) }
