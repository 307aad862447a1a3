package cli

import (
	"fmt"

	"signer-cli/internal/editor"
)

// taskError names the failed operation and task, with the store's reason
// reduced to one line.
type taskError struct {
	op   string
	name string
	err  error
}

func (e taskError) Error() string {
	if e.name == "" {
		return fmt.Sprintf("%s: %s", e.op, editor.Describe(e.err))
	}
	return fmt.Sprintf("%s %s: %s", e.op, e.name, editor.Describe(e.err))
}

func (e taskError) Unwrap() error { return e.err }

func errTask(op, name string, err error) error {
	return taskError{op: op, name: name, err: err}
}
