package yamldoc

import "strings"

// Format renders n as a single comparable line:
//
//	scalar   -> raw text
//	mapping  -> { k1: v1, k2: v2 }
//	sequence -> [v1, v2]
//
// Entry order follows the document, so equal trees give equal strings.
func Format(n Node) string {
	var b strings.Builder
	writeNode(&b, n)
	return b.String()
}

func writeNode(b *strings.Builder, n Node) {
	switch v := n.(type) {
	case *Scalar:
		b.WriteString(v.Text)
	case *Mapping:
		b.WriteString("{ ")
		for i, e := range v.Entries {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(e.Key)
			b.WriteString(": ")
			writeNode(b, e.Value)
		}
		b.WriteString(" }")
	case *Sequence:
		b.WriteByte('[')
		for i, item := range v.Items {
			if i > 0 {
				b.WriteString(", ")
			}
			writeNode(b, item)
		}
		b.WriteByte(']')
	}
}
