// Package parser decodes the two GeoLife input formats: PLT trajectory
// files and tab-separated label files. Parsing is pure; callers decide
// what to log.
package parser

import "fmt"

// Reason says why a file or activity produced no record.
type Reason int

const (
	ReasonOK Reason = iota
	ReasonOversize
	ReasonNoData
	ReasonUnreadable
	ReasonInvalidID
	ReasonIDCollision
)

func (r Reason) String() string {
	switch r {
	case ReasonOK:
		return "ok"
	case ReasonOversize:
		return "oversize"
	case ReasonNoData:
		return "no_data"
	case ReasonUnreadable:
		return "unreadable"
	case ReasonInvalidID:
		return "invalid_id"
	case ReasonIDCollision:
		return "id_collision"
	default:
		return fmt.Sprintf("reason(%d)", int(r))
	}
}

// Outcome is the result-or-skip signal of a file-level operation.
// A zero Outcome means the record was produced.
type Outcome struct {
	Reason Reason
	Detail string
}

// OK reports whether the operation produced a record.
func (o Outcome) OK() bool {
	return o.Reason == ReasonOK
}

// Skip builds a non-OK outcome.
func Skip(reason Reason, format string, args ...interface{}) Outcome {
	return Outcome{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

func (o Outcome) String() string {
	if o.Detail == "" {
		return o.Reason.String()
	}
	return o.Reason.String() + ": " + o.Detail
}

// LineIssue records one skipped input line.
type LineIssue struct {
	Line   int
	Reason string
}
