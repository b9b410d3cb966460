package models

import "fmt"

// Outcome classifies how a revision's value was obtained.
type Outcome int

const (
	OutcomeValue Outcome = iota
	OutcomeContentAbsent
	OutcomeParseFailure
	OutcomeAnchorNotFound
	OutcomeUnexpectedShape
	OutcomePathNotFound
)

var outcomeNames = [...]string{
	OutcomeValue:           "value",
	OutcomeContentAbsent:   "content_absent",
	OutcomeParseFailure:    "parse_failure",
	OutcomeAnchorNotFound:  "anchor_not_found",
	OutcomeUnexpectedShape: "unexpected_shape",
	OutcomePathNotFound:    "path_not_found",
}

func (o Outcome) String() string {
	if o < 0 || int(o) >= len(outcomeNames) {
		return fmt.Sprintf("outcome(%d)", int(o))
	}
	return outcomeNames[o]
}

// MarshalText encodes the outcome by name.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText decodes an outcome name.
func (o *Outcome) UnmarshalText(text []byte) error {
	for i, name := range outcomeNames {
		if name == string(text) {
			*o = Outcome(i)
			return nil
		}
	}
	return fmt.Errorf("models: unknown outcome %q", text)
}

// IsError reports whether the revision could not be read at all.
func (o Outcome) IsError() bool { return o == OutcomeParseFailure }

// IsAbsent reports whether the value is unavailable at the revision.
func (o Outcome) IsAbsent() bool { return o != OutcomeValue && o != OutcomeParseFailure }

// Sentinels shown in place of a value.
const (
	AbsentText = "[absent]"
	ErrorText  = "[error]"
)

// TimelineEntry is one kept row of a property timeline.
type TimelineEntry struct {
	Revision Revision `json:"revision"`
	// Value is nil unless Outcome is OutcomeValue.
	Value   *string `json:"value"`
	Outcome Outcome `json:"outcome"`
	// Detail carries diagnostics for non-value outcomes.
	Detail string `json:"detail,omitempty"`
}

// Display returns the value, or the absent or error sentinel.
func (e TimelineEntry) Display() string {
	switch {
	case e.Value != nil:
		return *e.Value
	case e.Outcome.IsError() && e.Detail != "":
		return "[error: " + e.Detail + "]"
	case e.Outcome.IsError():
		return ErrorText
	default:
		return AbsentText
	}
}
