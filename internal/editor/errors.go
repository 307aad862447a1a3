package editor

import (
	"context"
	"errors"
	"net/url"

	"signer-cli/internal/client"
	"signer-cli/internal/mutate"
)

var (
	ErrNoActiveTask = errors.New("no task selected")
	ErrNoChanges    = errors.New("no unsaved changes")
	ErrEmptyName    = errors.New("task name is required")
)

// Describe turns any error from an editor operation into a single status line.
func Describe(err error) string {
	if err == nil {
		return ""
	}

	var (
		ve *client.ValidationError
		nf *client.NotFoundError
		cf *client.ConflictError
		fe *client.FetchError
		mv mutate.MinimumViolationError
		ue *url.Error
	)
	switch {
	case errors.As(err, &mv):
		return mv.Error()
	case errors.As(err, &ve):
		return ve.Error()
	case errors.As(err, &nf):
		return nf.Error()
	case errors.As(err, &cf):
		return cf.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return "request timed out"
	case errors.As(err, &fe) && fe.Err != nil && errors.As(fe.Err, &ue):
		return "cannot reach server: " + ue.Err.Error()
	default:
		return err.Error()
	}
}
