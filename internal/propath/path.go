// Package propath parses serialized property paths such as
// "m_Items.Array.data[1].m_Value" and walks them through a yamldoc tree.
package propath

import (
	"fmt"
	"strconv"
	"strings"
)

// ArraySentinel is the structural segment that precedes indexed access in
// serialized property paths. It never names a key in the document.
const ArraySentinel = "Array"

// Segment is one step of a Path: a key lookup, or an indexed lookup into a
// named collection when Indexed is set.
type Segment struct {
	Name    string
	Index   int
	Indexed bool
}

// Field returns a key lookup segment.
func Field(name string) Segment { return Segment{Name: name} }

// Elem returns an indexed lookup segment.
func Elem(name string, index int) Segment { return Segment{Name: name, Index: index, Indexed: true} }

func (s Segment) String() string {
	if s.Indexed {
		return s.Name + "[" + strconv.Itoa(s.Index) + "]"
	}
	return s.Name
}

// IsSentinel reports whether s is the Array marker.
func (s Segment) IsSentinel() bool {
	return !s.Indexed && s.Name == ArraySentinel
}

// Path is an ordered list of segments.
type Path []Segment

func (p Path) String() string {
	parts := make([]string, len(p))
	for i, s := range p {
		parts[i] = s.String()
	}
	return strings.Join(parts, ".")
}

// Parse splits a dotted path. Each segment is either a name or a name
// followed by a non-negative "[index]".
func Parse(s string) (Path, error) {
	if s == "" {
		return nil, fmt.Errorf("propath: empty path")
	}
	parts := strings.Split(s, ".")
	p := make(Path, 0, len(parts))
	for i, part := range parts {
		seg, err := parseSegment(part)
		if err != nil {
			return nil, fmt.Errorf("propath: segment %d %q: %w", i, part, err)
		}
		p = append(p, seg)
	}
	return p, nil
}

// MustParse is Parse for literals known to be valid.
func MustParse(s string) Path {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

func parseSegment(part string) (Segment, error) {
	if part == "" {
		return Segment{}, fmt.Errorf("empty name")
	}
	open := strings.IndexByte(part, '[')
	if open < 0 {
		if strings.ContainsRune(part, ']') {
			return Segment{}, fmt.Errorf("unbalanced bracket")
		}
		return Field(part), nil
	}
	if open == 0 {
		return Segment{}, fmt.Errorf("index without name")
	}
	if !strings.HasSuffix(part, "]") {
		return Segment{}, fmt.Errorf("unterminated index")
	}
	raw := part[open+1 : len(part)-1]
	idx, err := strconv.Atoi(raw)
	if err != nil || idx < 0 {
		return Segment{}, fmt.Errorf("invalid index %q", raw)
	}
	return Elem(part[:open], idx), nil
}
