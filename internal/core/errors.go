package core

import (
	"errors"
	"fmt"
)

// ErrNoSummary is reported when the patch body never reaches the "---"
// line that separates the log message from the file statistics.
var ErrNoSummary = errors.New("no '---' summary line found")

// MalformedPatchError reports a patch whose header block does not follow the
// expected mbox layout.
type MalformedPatchError struct {
	Line   int // zero-based line index, -1 if not tied to a line
	Reason string
	Err    error
}

func (e *MalformedPatchError) Error() string {
	msg := e.Reason
	if e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Line < 0 {
		return fmt.Sprintf("malformed patch: %s", msg)
	}
	return fmt.Sprintf("malformed patch at line %d: %s", e.Line+1, msg)
}

func (e *MalformedPatchError) Unwrap() error {
	return e.Err
}

// MalformedDiffError reports a diff body that is not a valid unified diff.
type MalformedDiffError struct {
	Err error
}

func (e *MalformedDiffError) Error() string {
	return fmt.Sprintf("malformed diff: %v", e.Err)
}

func (e *MalformedDiffError) Unwrap() error {
	return e.Err
}

// TemplateSubstitutionError reports a template placeholder that cannot be
// resolved, or a required placeholder the template does not contain.
type TemplateSubstitutionError struct {
	Key     string
	Missing bool // true when the template lacks a required placeholder
}

func (e *TemplateSubstitutionError) Error() string {
	if e.Missing {
		return fmt.Sprintf("template does not reference required placeholder $%s", e.Key)
	}
	return fmt.Sprintf("template references undefined placeholder $%s", e.Key)
}
