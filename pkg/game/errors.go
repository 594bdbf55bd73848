package game

import "fmt"

// ErrRejected is returned when an action's precondition is violated. The
// reason is human-readable and callers surface it verbatim. A rejected
// action leaves the game state completely untouched.
type ErrRejected struct {
	Reason string
}

func (e *ErrRejected) Error() string {
	return e.Reason
}

// IsRejected reports whether err is an action rejection.
func IsRejected(err error) bool {
	_, ok := err.(*ErrRejected)
	return ok
}

func rejectf(format string, args ...interface{}) error {
	return &ErrRejected{Reason: fmt.Sprintf(format, args...)}
}
