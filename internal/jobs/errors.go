package jobs

import "errors"

var (
	// ErrNotFound is returned when a record does not exist or belongs to another user.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyMatched is returned when a (user, posting) match already exists.
	ErrAlreadyMatched = errors.New("posting already matched for user")
	// ErrDraftExists is returned when a match already has a draft.
	ErrDraftExists = errors.New("draft already exists for match")
	// ErrStatusConflict is returned when a compare-and-set status update finds another status.
	ErrStatusConflict = errors.New("match status changed concurrently")
	// ErrForbiddenTransition is returned when the state machine rejects a transition.
	ErrForbiddenTransition = errors.New("status transition is not allowed")
)
