package yamldoc

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrEmptyDocument reports input with no content at all, e.g. a revision
// from before the asset was added. It is not a parse failure.
var ErrEmptyDocument = errors.New("yamldoc: empty document")

// ParseError describes malformed or truncated input.
type ParseError struct {
	Line   int // 1-based; 0 when unknown
	Reason string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("yamldoc: line %d: %s", e.Line, e.Reason)
	}
	return "yamldoc: " + e.Reason
}

var yamlErrRe = regexp.MustCompile(`^yaml: line (\d+): (.*)$`)

func newParseError(err error) *ParseError {
	msg := err.Error()
	if m := yamlErrRe.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		return &ParseError{Line: line, Reason: m[2]}
	}
	return &ParseError{Reason: strings.TrimPrefix(msg, "yaml: ")}
}

// Document is one parsed revision of an asset: a root per sub-document and
// an index from anchor id to root.
type Document struct {
	Roots []Node

	index    map[string]Node
	objects  []ObjectInfo
	stripped map[string]bool
}

// ObjectInfo describes one anchored sub-document.
type ObjectInfo struct {
	AnchorID string `json:"anchor_id"`
	ClassID  string `json:"class_id,omitempty"`
	TypeName string `json:"type_name,omitempty"`
	Stripped bool   `json:"stripped,omitempty"`
}

// Lookup returns the sub-document root carrying anchor.
func (d *Document) Lookup(anchor string) (Node, bool) {
	n, ok := d.index[anchor]
	return n, ok
}

// Objects lists anchored roots in document order. Duplicate anchors are
// reported once, for their first occurrence.
func (d *Document) Objects() []ObjectInfo {
	out := make([]ObjectInfo, len(d.objects))
	copy(out, d.objects)
	return out
}

// Stripped reports whether the header of the object carrying anchor was
// marked "stripped" (a prefab instance placeholder).
func (d *Document) Stripped(anchor string) bool {
	return d.stripped[anchor]
}

// Parse reads raw as a stream of YAML sub-documents. It returns
// ErrEmptyDocument for blank input and a *ParseError for malformed input.
func Parse(raw string) (doc *Document, err error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrEmptyDocument
	}

	// yaml.v3 recovers its own panics; this covers conversion.
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = &ParseError{Reason: fmt.Sprint(r)}
		}
	}()

	text, stripped := normalize(raw)
	doc = &Document{
		index:    make(map[string]Node),
		stripped: stripped,
	}

	dec := yaml.NewDecoder(strings.NewReader(text))
	for {
		var yn yaml.Node
		if err := dec.Decode(&yn); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, newParseError(err)
		}
		if yn.Kind != yaml.DocumentNode || len(yn.Content) == 0 {
			continue
		}
		content := yn.Content[0]
		root := convert(content, make(map[*yaml.Node]bool))
		setMeta(root, content.Anchor, content.Tag)
		doc.Roots = append(doc.Roots, root)

		if content.Anchor == "" {
			continue
		}
		if _, dup := doc.index[content.Anchor]; dup {
			continue
		}
		doc.index[content.Anchor] = root
		doc.objects = append(doc.objects, objectInfo(root, stripped[content.Anchor]))
	}
	return doc, nil
}

func convert(yn *yaml.Node, visiting map[*yaml.Node]bool) Node {
	if visiting[yn] {
		return &Scalar{Text: "*" + yn.Anchor}
	}
	visiting[yn] = true
	defer delete(visiting, yn)

	switch yn.Kind {
	case yaml.DocumentNode:
		if len(yn.Content) == 0 {
			return &Scalar{}
		}
		return convert(yn.Content[0], visiting)
	case yaml.AliasNode:
		if yn.Alias == nil {
			return &Scalar{Text: "*" + yn.Value}
		}
		return convert(yn.Alias, visiting)
	case yaml.MappingNode:
		m := &Mapping{meta: meta{tag: yn.Tag}, Entries: make([]Entry, 0, len(yn.Content)/2)}
		for i := 0; i+1 < len(yn.Content); i += 2 {
			m.Entries = append(m.Entries, Entry{
				Key:   keyText(yn.Content[i], visiting),
				Value: convert(yn.Content[i+1], visiting),
			})
		}
		return m
	case yaml.SequenceNode:
		s := &Sequence{meta: meta{tag: yn.Tag}, Items: make([]Node, 0, len(yn.Content))}
		for _, c := range yn.Content {
			s.Items = append(s.Items, convert(c, visiting))
		}
		return s
	default:
		return &Scalar{meta: meta{tag: yn.Tag}, Text: yn.Value}
	}
}

func keyText(yn *yaml.Node, visiting map[*yaml.Node]bool) string {
	if yn.Kind == yaml.ScalarNode {
		return yn.Value
	}
	return Format(convert(yn, visiting))
}

func setMeta(n Node, anchor, tag string) {
	switch v := n.(type) {
	case *Scalar:
		v.anchor, v.tag = anchor, tag
	case *Mapping:
		v.anchor, v.tag = anchor, tag
	case *Sequence:
		v.anchor, v.tag = anchor, tag
	}
}

func objectInfo(root Node, stripped bool) ObjectInfo {
	info := ObjectInfo{
		AnchorID: root.Anchor(),
		ClassID:  classID(root.Tag()),
		Stripped: stripped,
	}
	if m, ok := root.(*Mapping); ok && m.Len() > 0 {
		info.TypeName = m.Entries[0].Key
	}
	return info
}

// classID returns the last component of a tag URI such as
// "tag:unity3d.com,2011:114".
func classID(tag string) string {
	if !strings.HasPrefix(tag, "tag:") {
		return ""
	}
	return tag[strings.LastIndexByte(tag, ':')+1:]
}
