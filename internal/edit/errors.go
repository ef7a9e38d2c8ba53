package edit

import "fmt"

// ValidationError reports malformed operation input (bad schema, bad line
// bounds) before any editor is involved.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Msg
}

// EditValidationError reports editor-specific input rejected before any
// mutation was attempted, e.g. an unparseable patch body.
type EditValidationError struct {
	Editor string
	Msg    string
}

func (e *EditValidationError) Error() string {
	return fmt.Sprintf("%s: invalid input: %s", e.Editor, e.Msg)
}

// EditOperationError reports a mutation that failed after validation
// passed, e.g. a patch hunk that did not apply.
type EditOperationError struct {
	Editor string
	Msg    string
	Err    error
}

func (e *EditOperationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Editor, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Editor, e.Msg)
}

func (e *EditOperationError) Unwrap() error { return e.Err }
