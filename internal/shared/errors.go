package shared

import "errors"

// Error taxonomy shared by every module. Services wrap these with
// fmt.Errorf("%w: ...") so callers can classify with errors.Is while
// the message keeps the module-specific detail.
var (
	// ErrValidation indicates malformed input rejected before any mutation.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound indicates a missing row or one outside the caller's company scope.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a concurrent modification or an invalid state transition.
	// The whole operation has been rolled back; the caller may retry.
	ErrConflict = errors.New("conflict")
	// ErrDependency indicates the backing store was unreachable mid-operation.
	ErrDependency = errors.New("dependency unavailable")
)
