package pipeline

import "errors"

const (
	CodeMissingResume      = "MISSING_RESUME"
	CodeMissingPreferences = "MISSING_PREFERENCES"
)

// PreconditionError stops a run before any external call is made.
type PreconditionError struct {
	Code    string
	Message string
}

func (e *PreconditionError) Error() string {
	return e.Message
}

// AsPrecondition unwraps err into a PreconditionError when it is one.
func AsPrecondition(err error) (*PreconditionError, bool) {
	var pe *PreconditionError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
