// Package interpreter runs the external script interpreter and interprets its
// textual output.
package interpreter

import "strings"

// Severity is the verdict for a single line of interpreter output.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "none"
	}
}

// Diagnostic keywords emitted by the interpreter. The interpreter prints them
// either bare ("Warning: ...") or wrapped in <b> tags when html_errors is on.
var (
	errorKeywords   = []string{"Fatal error", "Error", "Parse error"}
	warningKeywords = []string{"Warning", "Notice"}
)

// includeMarkers identify diagnostics about unresolved optional includes.
var includeMarkers = []string{"require_once", "include_once"}

// Classifier maps output lines to severities.
type Classifier struct {
	// IgnoreIncludeErrors suppresses any classified line mentioning
	// require_once or include_once.
	IgnoreIncludeErrors bool
}

// Classify returns the severity of line. It depends only on the trimmed line.
func (c Classifier) Classify(line string) Severity {
	line = strings.TrimSpace(line)

	severity := SeverityNone
	switch {
	case hasKeywordPrefix(line, errorKeywords):
		severity = SeverityError
	case hasKeywordPrefix(line, warningKeywords):
		severity = SeverityWarning
	default:
		return SeverityNone
	}

	if c.IgnoreIncludeErrors && mentionsInclude(line) {
		return SeverityNone
	}
	return severity
}

func hasKeywordPrefix(line string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.HasPrefix(line, kw+":") || strings.HasPrefix(line, "<b>"+kw+"</b>:") {
			return true
		}
	}
	return false
}

func mentionsInclude(line string) bool {
	for _, marker := range includeMarkers {
		if strings.Contains(line, marker) {
			return true
		}
	}
	return false
}
