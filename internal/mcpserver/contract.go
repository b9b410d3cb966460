package mcpserver

// PathSyntax documents how objects and properties are addressed. It is
// served as a resource and through the get_path_syntax tool.
const PathSyntax = `# Property Path Syntax

A query names one object inside a Unity text asset and one property of
that object.

## Object (anchor)

Every object in a .prefab, .unity or .asset file starts with a header line:

` + "```" + `yaml
--- !u!4 &400
Transform:
  m_LocalPosition: {x: 0, y: 1, z: 0}
` + "```" + `

The number after ` + "`&`" + ` (here ` + "`400`" + `) is the anchor id. Anchor ids may
be negative, e.g. ` + "`-8679921383154817045`" + `. Use the list_objects tool to
see every anchor, class id and type name in an asset.

## Property path

Segments are separated by dots and evaluated from the object's field
mapping (the mapping under the type name):

- ` + "`m_Name`" + ` reads a field.
- ` + "`m_LocalPosition.x`" + ` reads a nested field.
- ` + "`m_Items.Array.data[2]`" + ` reads the third element of a list. The
  ` + "`Array`" + ` segment is the editor's collection marker and is skipped.
- ` + "`m_Items[2]`" + ` is accepted as a short form.

## Values

Scalars are shown verbatim. Mappings render as ` + "`{ x: 0, y: 1 }`" + ` and
lists as ` + "`[a, b]`" + `. A revision where the object or property does not
exist shows ` + "`[absent]`" + `; a revision whose file could not be parsed shows
` + "`[error: ...]`" + ` and is always listed.

Timelines are newest first and list only revisions where the value changed.
`
