package models

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig rejects a malformed probe configuration before any
	// network call is made.
	ErrInvalidConfig = errors.New("invalid probe configuration")

	// ErrJobNotStarted reports that the backend refused a job submission;
	// there is no job id to poll.
	ErrJobNotStarted = errors.New("job not started")

	// ErrPollTimeout reports that a job did not reach a terminal state
	// within the poll budget.
	ErrPollTimeout = errors.New("job poll deadline exceeded")
)

// AuthError is a failed backend login. It is not retried: resubmitting
// bad credentials cannot succeed, so it aborts the whole report run.
type AuthError struct {
	Backend string
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s auth failed (status %d): %s", e.Backend, e.Status, e.Message)
}

// BackendError is a single backend call that returned a non-success
// status or an unparseable payload. Recoverable: it degrades one report
// field instead of failing the run.
type BackendError struct {
	Status  int
	Message string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend returned status %d: %s", e.Status, e.Message)
}
