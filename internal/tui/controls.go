package tui

import (
	"fmt"

	"signer-cli/internal/editor"
)

// buildControls flattens the form tree into focusable lines, top to bottom.
func buildControls(form *editor.Form) []control {
	if form == nil {
		return nil
	}
	out := []control{{kind: controlSection, label: "General"}}
	for _, f := range form.General {
		out = append(out, control{kind: controlField, indent: 1, label: f.Label, field: f})
	}

	for _, chat := range form.Chats {
		out = append(out, control{kind: controlSection, label: chat.Title, chat: chat.Index})
		for _, f := range chat.Fields {
			out = append(out, control{kind: controlField, indent: 1, label: f.Label, field: f, chat: chat.Index})
		}
		for _, row := range chat.Actions {
			out = append(out, control{
				kind:   controlType,
				indent: 1,
				label:  fmt.Sprintf("Action %d", row.Index+1),
				sel:    row.Type,
				chat:   chat.Index,
				action: row.Index,
			})
			if row.Payload != nil {
				out = append(out, control{
					kind:   controlField,
					indent: 2,
					label:  row.Payload.Label,
					field:  *row.Payload,
					chat:   chat.Index,
					action: row.Index,
				})
			}
			out = append(out, control{kind: controlButton, indent: 2, label: "- action", button: buttonRemoveAction, chat: chat.Index, action: row.Index})
		}
		out = append(out,
			control{kind: controlButton, indent: 1, label: "+ action", button: buttonAddAction, chat: chat.Index},
			control{kind: controlButton, indent: 1, label: "- chat", button: buttonRemoveChat, chat: chat.Index},
		)
	}
	out = append(out, control{kind: controlButton, label: "+ chat", button: buttonAddChat})
	return out
}

// nextFocusable returns the focusable index closest to from in direction dir
// (+1 or -1), or from itself when there is none.
func nextFocusable(cs []control, from, dir int) int {
	for i := from + dir; i >= 0 && i < len(cs); i += dir {
		if cs[i].focusable() {
			return i
		}
	}
	return from
}

// clampFocus moves focus onto a focusable control within range.
func clampFocus(cs []control, focus int) int {
	if len(cs) == 0 {
		return 0
	}
	if focus >= len(cs) {
		focus = len(cs) - 1
	}
	if focus < 0 {
		focus = 0
	}
	if cs[focus].focusable() {
		return focus
	}
	if i := nextFocusable(cs, focus, 1); i != focus {
		return i
	}
	return nextFocusable(cs, focus, -1)
}
