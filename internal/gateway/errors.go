package gateway

import (
	"errors"
	"fmt"
)

var (
	// ErrPermissionDenied: the platform or the guard refused the action.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrNotFound: a referenced thread, channel, member or message no longer exists.
	ErrNotFound = errors.New("not found")
	// ErrValidation: malformed arguments, rejected before any mutation.
	ErrValidation = errors.New("invalid arguments")
	// ErrExternal: an external collaborator (feedback device) failed.
	ErrExternal = errors.New("external service failure")
	// ErrConflict: the request collides with existing state.
	ErrConflict = errors.New("conflict")

	// ErrLocked marks a refusal caused by a lock. Guards return it together with
	// ErrPermissionDenied.
	ErrLocked = errors.New("locked")
	ErrDenied = fmt.Errorf("%w: consent not given", ErrPermissionDenied)
)

func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func Conflictf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// UserFacing reports whether err belongs to the taxonomy and may be shown to the invoker.
func UserFacing(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrPermissionDenied) || errors.Is(err, ErrNotFound)
}
