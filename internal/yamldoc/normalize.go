package yamldoc

import "strings"

// normalize rewrites Unity-style document headers so that a stock YAML
// parser accepts them:
//
//	%YAML 1.1
//	%TAG !u! tag:unity3d.com,2011:
//	--- !u!1001 &100100000 stripped
//
// Directive lines are blanked (line numbers are kept), shorthand tags on
// "---" lines are expanded to verbatim tags using the collected %TAG
// handles, and the trailing "stripped" marker is removed. Anchors that
// carried the marker are returned.
func normalize(raw string) (string, map[string]bool) {
	lines := strings.Split(raw, "\n")
	handles := make(map[string]string)
	stripped := make(map[string]bool)

	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "%TAG"):
			f := strings.Fields(line)
			if len(f) == 3 {
				handles[f[1]] = f[2]
			}
			lines[i] = ""
		case strings.HasPrefix(line, "%YAML"):
			lines[i] = ""
		case isDocStart(line):
			lines[i] = rewriteHeader(line, handles, stripped)
		}
	}
	return strings.Join(lines, "\n"), stripped
}

func isDocStart(line string) bool {
	if !strings.HasPrefix(line, "---") {
		return false
	}
	return len(line) == 3 || line[3] == ' ' || line[3] == '\t' || line[3] == '\r'
}

// rewriteHeader handles the node properties that follow "---". Anything
// after the properties is inline content and is copied verbatim.
func rewriteHeader(line string, handles map[string]string, stripped map[string]bool) string {
	var b strings.Builder
	b.WriteString("---")

	rest := line[3:]
	anchor := ""
	for {
		trimmed := strings.TrimLeft(rest, " \t")
		if trimmed == "" || trimmed == "\r" {
			b.WriteString(trimmed)
			return b.String()
		}
		tok := trimmed
		if j := strings.IndexAny(trimmed, " \t\r"); j >= 0 {
			tok = trimmed[:j]
		}
		switch {
		case tok == "stripped" && anchor != "":
			stripped[anchor] = true
		case strings.HasPrefix(tok, "&"):
			anchor = tok[1:]
			b.WriteString(" " + tok)
		case strings.HasPrefix(tok, "!") && !strings.HasPrefix(tok, "!<"):
			b.WriteString(" " + expandTag(tok, handles))
		default:
			b.WriteString(" " + trimmed)
			return b.String()
		}
		rest = trimmed[len(tok):]
	}
}

func expandTag(tok string, handles map[string]string) string {
	best := ""
	for h := range handles {
		if strings.HasPrefix(tok, h) && len(h) > len(best) {
			best = h
		}
	}
	if best == "" {
		return tok
	}
	return "!<" + handles[best] + tok[len(best):] + ">"
}
