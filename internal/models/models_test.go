package models

import (
	"encoding/json"
	"testing"
)

func TestRevision_ShortID(t *testing.T) {
	tests := []struct{ id, want string }{
		{"0123456789abcdef", "0123456"},
		{"abc", "abc"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := (Revision{ID: tt.id}).ShortID(); got != tt.want {
			t.Errorf("ShortID(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestOutcome_Classes(t *testing.T) {
	for _, o := range []Outcome{OutcomeContentAbsent, OutcomeAnchorNotFound, OutcomeUnexpectedShape, OutcomePathNotFound} {
		if !o.IsAbsent() || o.IsError() {
			t.Errorf("%s: IsAbsent = %v, IsError = %v", o, o.IsAbsent(), o.IsError())
		}
	}
	if OutcomeValue.IsAbsent() || OutcomeValue.IsError() {
		t.Error("value outcome misclassified")
	}
	if !OutcomeParseFailure.IsError() || OutcomeParseFailure.IsAbsent() {
		t.Error("parse failure misclassified")
	}
	if got := Outcome(42).String(); got != "outcome(42)" {
		t.Errorf("String = %q", got)
	}
}

func TestOutcome_Text(t *testing.T) {
	b, err := json.Marshal(map[string]Outcome{"o": OutcomePathNotFound})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"o":"path_not_found"}` {
		t.Errorf("marshal = %s", b)
	}
	var back map[string]Outcome
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatal(err)
	}
	if back["o"] != OutcomePathNotFound {
		t.Errorf("unmarshal = %v", back["o"])
	}
	var o Outcome
	if err := o.UnmarshalText([]byte("nonsense")); err == nil {
		t.Error("expected error for unknown name")
	}
}

func TestTimelineEntry_Display(t *testing.T) {
	v := "{ x: 1 }"
	tests := []struct {
		e    TimelineEntry
		want string
	}{
		{TimelineEntry{Value: &v, Outcome: OutcomeValue}, "{ x: 1 }"},
		{TimelineEntry{Outcome: OutcomeParseFailure, Detail: "line 2: oops"}, "[error: line 2: oops]"},
		{TimelineEntry{Outcome: OutcomeParseFailure}, ErrorText},
		{TimelineEntry{Outcome: OutcomePathNotFound, Detail: "no key"}, AbsentText},
	}
	for _, tt := range tests {
		if got := tt.e.Display(); got != tt.want {
			t.Errorf("Display() = %q, want %q", got, tt.want)
		}
	}
}
