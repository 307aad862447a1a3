package mutate

import (
	"errors"
	"fmt"
)

var ErrUnknownField = errors.New("unknown field")

// MinimumViolationError is returned when a removal would leave a task without
// chats or a chat without actions.
type MinimumViolationError struct {
	Kind string
}

func (e MinimumViolationError) Error() string {
	switch e.Kind {
	case "chat":
		return "at least one chat is required"
	case "action":
		return "each chat needs at least one action"
	default:
		return fmt.Sprintf("at least one %s is required", e.Kind)
	}
}

type NotFoundError struct {
	Kind  string
	Index int
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: #%d", e.Kind, e.Index+1)
}
