package notify

import (
	"fmt"
	"strings"
)

// Outcome is how a run finished, as reported to the invoking scheduler.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeWarnings
	OutcomeErrors
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeWarnings:
		return "completed with warnings"
	case OutcomeErrors:
		return "completed with errors"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// ExitCode maps the outcome to the process exit status.
func (o Outcome) ExitCode() int {
	switch o {
	case OutcomeSuccess:
		return 0
	case OutcomeWarnings:
		return 2
	default:
		return 1
	}
}

// RunResult accumulates everything a run reports. Entries keep the order in
// which they were added.
type RunResult struct {
	Notifications []Notification `json:"notifications"`
	Warnings      []string       `json:"warnings"`
	Errors        []string       `json:"errors"`
}

// Notify appends notifications in order.
func (r *RunResult) Notify(n ...Notification) {
	r.Notifications = append(r.Notifications, n...)
}

// Warn records a degraded-but-continuing condition as "<kind>: <message>".
func (r *RunResult) Warn(kind, msg string) {
	r.Warnings = append(r.Warnings, entry(kind, msg))
}

// Fail records a run-ending or step-ending error as "<kind>: <message>".
func (r *RunResult) Fail(kind string, err error) {
	if err == nil {
		return
	}
	r.Errors = append(r.Errors, entry(kind, err.Error()))
}

// Outcome classifies the result: any error wins over warnings.
func (r *RunResult) Outcome() Outcome {
	switch {
	case len(r.Errors) > 0:
		return OutcomeErrors
	case len(r.Warnings) > 0:
		return OutcomeWarnings
	default:
		return OutcomeSuccess
	}
}

// Empty reports whether there is nothing to deliver.
func (r *RunResult) Empty() bool {
	return len(r.Notifications) == 0 && len(r.Warnings) == 0 && len(r.Errors) == 0
}

func entry(kind, msg string) string {
	kind = strings.TrimSpace(kind)
	if kind == "" {
		kind = "Error"
	}
	return kind + ": " + strings.TrimSpace(msg)
}

// SplitEntry splits a warning/error entry into its kind and message on the
// first colon. Entries without a colon get an empty kind.
func SplitEntry(s string) (kind, msg string) {
	k, m, ok := strings.Cut(s, ":")
	if !ok {
		return "", strings.TrimSpace(s)
	}
	return strings.TrimSpace(k), strings.TrimSpace(m)
}
