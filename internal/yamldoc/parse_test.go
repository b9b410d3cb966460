package yamldoc

import (
	"errors"
	"strings"
	"testing"
)

const prefabFixture = `%YAML 1.1
%TAG !u! tag:unity3d.com,2011:
--- !u!1 &100
GameObject:
  m_Name: Player
  m_Component:
  - component: {fileID: 400}
--- !u!4 &400
Transform:
  m_LocalPosition: {x: 1, y: 2, z: 0}
  m_Children: []
--- !u!114 &-8679921383154817045
MonoBehaviour:
  m_Enabled: 1
  items:
  - 10
  - 20
  - 30
--- !u!4 &500 stripped
Transform:
  m_PrefabInstance: {fileID: 900}
`

func TestParse_MultiDocumentObjects(t *testing.T) {
	doc, err := Parse(prefabFixture)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Roots) != 4 {
		t.Fatalf("len(roots) = %d, want 4", len(doc.Roots))
	}

	objs := doc.Objects()
	want := []ObjectInfo{
		{AnchorID: "100", ClassID: "1", TypeName: "GameObject"},
		{AnchorID: "400", ClassID: "4", TypeName: "Transform"},
		{AnchorID: "-8679921383154817045", ClassID: "114", TypeName: "MonoBehaviour"},
		{AnchorID: "500", ClassID: "4", TypeName: "Transform", Stripped: true},
	}
	if len(objs) != len(want) {
		t.Fatalf("objects = %+v", objs)
	}
	for i := range want {
		if objs[i] != want[i] {
			t.Errorf("objects[%d] = %+v, want %+v", i, objs[i], want[i])
		}
	}
	if !doc.Stripped("500") || doc.Stripped("400") {
		t.Error("stripped marker not recorded for the right anchor")
	}
}

func TestParse_RootCarriesAnchorAndTag(t *testing.T) {
	doc, err := Parse(prefabFixture)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	root, ok := doc.Lookup("400")
	if !ok {
		t.Fatal("anchor 400 not indexed")
	}
	if root.Anchor() != "400" {
		t.Errorf("anchor = %q, want %q", root.Anchor(), "400")
	}
	if root.Tag() != "tag:unity3d.com,2011:4" {
		t.Errorf("tag = %q", root.Tag())
	}
	m := root.(*Mapping)
	fields := m.Entries[0].Value.(*Mapping)
	if fields.Anchor() != "" {
		t.Errorf("nested mapping should not carry an anchor, got %q", fields.Anchor())
	}
}

func TestParse_EmptyInput(t *testing.T) {
	for _, in := range []string{"", "   \n\t\n"} {
		_, err := Parse(in)
		if !errors.Is(err, ErrEmptyDocument) {
			t.Errorf("Parse(%q) err = %v, want ErrEmptyDocument", in, err)
		}
	}
}

func TestParse_Malformed(t *testing.T) {
	in := "--- !u!1 &1\nGameObject:\n  m_Name: [unclosed\n  m_Layer: 0\n"
	_, err := Parse(in)
	if err == nil {
		t.Fatal("expected parse error")
	}
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %T, want *ParseError", err)
	}
	if pe.Reason == "" {
		t.Error("expected a reason")
	}
	if errors.Is(err, ErrEmptyDocument) {
		t.Error("malformed input must not be reported as empty")
	}
}

func TestParse_DuplicateAnchorFirstWins(t *testing.T) {
	in := "--- &7\nFirst:\n  v: a\n--- &7\nSecond:\n  v: b\n"
	doc, err := Parse(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	root, _ := doc.Lookup("7")
	if got := root.(*Mapping).Entries[0].Key; got != "First" {
		t.Errorf("type = %q, want %q", got, "First")
	}
	if len(doc.Objects()) != 1 {
		t.Errorf("objects = %+v, want one entry", doc.Objects())
	}
}

func TestParse_NestedAnchorsOnlyServeAliases(t *testing.T) {
	in := "--- &1\nThing:\n  base: &inner {x: 1}\n  copy: *inner\n"
	doc, err := Parse(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := doc.Lookup("inner"); ok {
		t.Error("nested anchor must not be indexed as an object")
	}
	fields, err := Locate(doc, "1")
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	copied, _ := fields.(*Mapping).Lookup("copy")
	if got := Format(copied); got != "{ x: 1 }" {
		t.Errorf("alias = %q, want %q", got, "{ x: 1 }")
	}
}

func TestParse_NoDirectivesOrAnchors(t *testing.T) {
	doc, err := Parse("a: 1\n---\nb: 2\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Roots) != 2 {
		t.Errorf("len(roots) = %d, want 2", len(doc.Roots))
	}
	if len(doc.Objects()) != 0 {
		t.Errorf("objects = %+v, want none", doc.Objects())
	}
}

func TestParse_CRLF(t *testing.T) {
	in := strings.ReplaceAll(prefabFixture, "\n", "\r\n")
	doc, err := Parse(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := doc.Lookup("-8679921383154817045"); !ok {
		t.Error("anchor missing after CRLF normalisation")
	}
}

func TestNormalize_HeaderRewrite(t *testing.T) {
	in := "%YAML 1.1\n%TAG !u! tag:unity3d.com,2011:\n--- !u!1001 &9 stripped\nX: {}\n--- {a: 1}\n"
	out, stripped := normalize(in)
	lines := strings.Split(out, "\n")
	if lines[0] != "" || lines[1] != "" {
		t.Errorf("directives not blanked: %q", lines[:2])
	}
	if lines[2] != "--- !<tag:unity3d.com,2011:1001> &9" {
		t.Errorf("header = %q", lines[2])
	}
	if lines[4] != "--- {a: 1}" {
		t.Errorf("inline content altered: %q", lines[4])
	}
	if !stripped["9"] {
		t.Error("stripped anchor not recorded")
	}
}
