package scheduling

import (
	"errors"
	"fmt"
)

// ValidationError reports a malformed or logically invalid booking request.
type ValidationError struct {
	Field string
	Msg   string
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	return e.Msg
}

// ConflictError reports an overlap with another active booking of the same owner.
type ConflictError struct {
	Conflicts []int
}

func (e ConflictError) Error() string {
	return "cannot create a booking overlapping your own existing booking"
}

// InvalidStateError reports an action not allowed from the booking's current status.
type InvalidStateError struct {
	From string
	To   string
	Msg  string
}

func (e InvalidStateError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return fmt.Sprintf("cannot move booking from %s to %s", e.From, e.To)
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target ConflictError
	return errors.As(err, &target)
}

func IsInvalidState(err error) bool {
	var target InvalidStateError
	return errors.As(err, &target)
}
