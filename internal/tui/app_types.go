package tui

import (
	"signer-cli/internal/editor"
)

type pane int

const (
	panePicker pane = iota
	paneForm
)

type modalKind int

const (
	modalNone modalKind = iota
	modalCreate
	modalEditField
	modalConfirmDelete
	modalHelp
)

// resultsMsg carries the results of one batch of store requests, in the order
// they were performed.
type resultsMsg struct {
	results []editor.Result
}

// statusDoneMsg dismisses the status line if it still shows message seq.
type statusDoneMsg struct{ seq int }

type controlKind int

const (
	controlSection controlKind = iota
	controlField
	controlType
	controlButton
)

type buttonAction int

const (
	buttonAddChat buttonAction = iota
	buttonRemoveChat
	buttonAddAction
	buttonRemoveAction
)

// control is one line of the form pane. Sections are headings and never take
// focus.
type control struct {
	kind   controlKind
	indent int
	label  string

	field  editor.Field
	sel    editor.TypeSelect
	button buttonAction

	chat   int
	action int
}

func (c control) focusable() bool { return c.kind != controlSection }
