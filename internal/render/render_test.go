package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/starford/prophist/internal/historyservice"
	"github.com/starford/prophist/internal/models"
	"github.com/starford/prophist/internal/yamldoc"
)

func strp(s string) *string { return &s }

func sampleResult() *historyservice.Result {
	date := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	return &historyservice.Result{
		Asset:    "Assets/Player.prefab",
		AnchorID: "400",
		Path:     "m_LocalPosition.x",
		Scanned:  6,
		Entries: []models.TimelineEntry{
			{Revision: models.Revision{ID: "cccccccc11", Author: "carol", Summary: "nudge", Date: date}, Value: strp("12.5"), Outcome: models.OutcomeValue},
			{Revision: models.Revision{ID: "bbbbbbbb22", Author: "bob", Summary: "move"}, Value: strp("12"), Outcome: models.OutcomeValue},
			{Revision: models.Revision{ID: "aaaaaaaa33", Author: "alice", Summary: "broken"}, Outcome: models.OutcomeParseFailure, Detail: "line 3: bad"},
			{Revision: models.Revision{ID: "99999999aa", Author: "alice", Summary: "before"}, Outcome: models.OutcomeContentAbsent},
		},
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatText, "TEXT": FormatText, "table": FormatTable, " json ": FormatJSON} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestHistoryText(t *testing.T) {
	var buf bytes.Buffer
	if err := New(WithDiff(true)).History(&buf, FormatText, sampleResult()); err != nil {
		t.Fatalf("History: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"Property: m_LocalPosition.x",
		"History (4 changes in 6 revisions)",
		"ccccccc nudge  2024-05-01 12:30",
		"  Value:  12.5\n",
		"  Change: 12{+.5+}\n",
		"  Value:  [error: line 3: bad]\n",
		"  Value:  [absent]\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Count(out, "Change:") != 1 {
		t.Errorf("diff shown next to non-values:\n%s", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("colour codes without WithColor:\n%q", out)
	}
}

func TestHistoryText_Color(t *testing.T) {
	var buf bytes.Buffer
	if err := New(WithColor(true)).History(&buf, FormatText, sampleResult()); err != nil {
		t.Fatalf("History: %v", err)
	}
	if !strings.Contains(buf.String(), "\x1b[") {
		t.Error("expected ANSI colour codes")
	}
}

func TestHistory_Empty(t *testing.T) {
	res := &historyservice.Result{Asset: "a", AnchorID: "1", Path: "x", Entries: []models.TimelineEntry{}}
	for _, f := range []Format{FormatText, FormatTable} {
		var buf bytes.Buffer
		if err := New().History(&buf, f, res); err != nil {
			t.Fatalf("History(%s): %v", f, err)
		}
		if !strings.Contains(buf.String(), NoHistoryText) {
			t.Errorf("%s output = %q, want no-history message", f, buf.String())
		}
	}

	var buf bytes.Buffer
	if err := New().History(&buf, FormatJSON, res); err != nil {
		t.Fatal(err)
	}
	var rep ReportDTO
	if err := json.Unmarshal(buf.Bytes(), &rep); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rep.Message != NoHistoryText || rep.Entries == nil {
		t.Errorf("report = %+v", rep)
	}
}

func TestHistoryTable(t *testing.T) {
	var buf bytes.Buffer
	if err := New(WithWidth(6)).History(&buf, FormatTable, sampleResult()); err != nil {
		t.Fatalf("History: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 5 {
		t.Fatalf("lines = %d, want header + 4:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "REVISION") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[3], "[erro…") {
		t.Errorf("long value not truncated: %q", lines[3])
	}
	// every value column starts at the same offset
	col := strings.Index(lines[0], "VALUE")
	if !strings.HasPrefix(lines[1][col:], "12.5") {
		t.Errorf("misaligned row: %q", lines[1])
	}
}

func TestHistoryJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := New().History(&buf, FormatJSON, sampleResult()); err != nil {
		t.Fatalf("History: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(buf.Bytes(), &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	entries := raw["entries"].([]any)
	first := entries[0].(map[string]any)
	if first["value"] != "12.5" || first["outcome"] != "value" {
		t.Errorf("first = %v", first)
	}
	if rev := first["revision"].(map[string]any); rev["short_id"] != "ccccccc" {
		t.Errorf("short_id = %v", rev["short_id"])
	}
	third := entries[2].(map[string]any)
	if third["value"] != nil || third["outcome"] != "parse_failure" {
		t.Errorf("third = %v", third)
	}
}

func TestDiff(t *testing.T) {
	r := New()
	tests := []struct{ from, to, want string }{
		{"1", "1", "1"},
		{"{ x: 0, y: 1 }", "{ x: 0, y: 2 }", "{ x: 0, y: [-1-]{+2+} }"},
		{"", "abc", "{+abc+}"},
	}
	for _, tt := range tests {
		if got := r.Diff(tt.from, tt.to); got != tt.want {
			t.Errorf("Diff(%q, %q) = %q, want %q", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestRevisions(t *testing.T) {
	revs := []models.Revision{{ID: "0123456789", Author: "alice", Summary: "add"}}
	var buf bytes.Buffer
	if err := New().Revisions(&buf, FormatText, revs); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "0123456 ") {
		t.Errorf("output = %q", buf.String())
	}

	buf.Reset()
	if err := New().Revisions(&buf, FormatJSON, nil); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(buf.String()); got != "[]" {
		t.Errorf("empty json = %q, want []", got)
	}
}

func TestObjects(t *testing.T) {
	res := &historyservice.ObjectsResult{
		Asset:    "Assets/P.prefab",
		Revision: models.Revision{ID: "abcdef0123"},
		Objects: []yamldoc.ObjectInfo{
			{AnchorID: "100", ClassID: "1", TypeName: "GameObject"},
			{AnchorID: "-8679921383154817045", ClassID: "114", TypeName: "MonoBehaviour", Stripped: true},
		},
	}
	var buf bytes.Buffer
	if err := New().Objects(&buf, FormatText, res); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"Assets/P.prefab @ abcdef0", "GameObject", "-8679921383154817045", "yes"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
