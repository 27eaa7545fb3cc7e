package shared

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound indicates a referenced teacher, enrollment or lesson does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates malformed caller input. Never retried.
	ErrValidation = errors.New("validation failed")
	// ErrComputationInconsistency indicates an internal invariant violation,
	// e.g. negative minutes after subtraction. Fatal to the call, never
	// silently coerced to zero.
	ErrComputationInconsistency = errors.New("computation inconsistency")
)

// ConflictError reports an availability or overlap conflict. It is an
// expected, first-class outcome of scheduling calls; callers branch on it.
type ConflictError struct {
	Reason              string
	ConflictingLessonID int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("schedule conflict: %s", e.Reason)
}

// TransferAbortedError reports that transfer validation failed. No partial
// state change occurred; the operation is safe to retry once the underlying
// conflict is resolved.
type TransferAbortedError struct {
	LessonID int64
	StartAt  time.Time
	Reason   string
}

func (e *TransferAbortedError) Error() string {
	return fmt.Sprintf("transfer aborted: lesson %d at %s: %s",
		e.LessonID, e.StartAt.Format("2006-01-02 15:04"), e.Reason)
}

// Validationf wraps ErrValidation with a formatted detail message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...)
}
