package workflow

import "errors"

var (
	// ErrUnexpectedEvent means the event is not valid at the session's
	// current step. The session is left untouched.
	ErrUnexpectedEvent = errors.New("workflow: event not valid for current step")

	// ErrRetryBudget means the manual retry allowance for the current
	// step is spent.
	ErrRetryBudget = errors.New("workflow: retry budget exhausted")

	// ErrBadInput means the event payload itself is unusable (wrong
	// answer count, empty model number, unsupported image type).
	ErrBadInput = errors.New("workflow: invalid input")
)
