package editor

import (
	"fmt"
	"strconv"
	"strings"
)

type Scope int

const (
	ScopeGeneral Scope = iota
	ScopeChat
	ScopeAction
)

// ActionTypeField is the JSON key holding an action's type value.
const ActionTypeField = "action"

// FieldRef addresses one editable value in the document. Chat and Action are
// only meaningful for the chat and action scopes.
type FieldRef struct {
	Scope  Scope
	Chat   int
	Action int
	Name   string
}

// String renders the ref as a dotted document path, the same form the store
// uses for validation locations.
func (r FieldRef) String() string {
	switch r.Scope {
	case ScopeChat:
		return fmt.Sprintf("chats.%d.%s", r.Chat, r.Name)
	case ScopeAction:
		return fmt.Sprintf("chats.%d.actions.%d.%s", r.Chat, r.Action, r.Name)
	default:
		return r.Name
	}
}

// ParseFieldRef is the inverse of FieldRef.String.
func ParseFieldRef(path string) (FieldRef, error) {
	parts := strings.Split(strings.TrimSpace(path), ".")
	bad := fmt.Errorf("invalid field path %q (want name, chats.N.name or chats.N.actions.M.name)", path)

	index := func(s string) (int, bool) {
		n, err := strconv.Atoi(s)
		return n, err == nil && n >= 0
	}

	switch len(parts) {
	case 1:
		if parts[0] == "" {
			return FieldRef{}, bad
		}
		return FieldRef{Scope: ScopeGeneral, Name: parts[0]}, nil
	case 3:
		c, ok := index(parts[1])
		if parts[0] != "chats" || !ok || parts[2] == "" {
			return FieldRef{}, bad
		}
		return FieldRef{Scope: ScopeChat, Chat: c, Name: parts[2]}, nil
	case 5:
		c, okC := index(parts[1])
		a, okA := index(parts[3])
		if parts[0] != "chats" || parts[2] != "actions" || !okC || !okA || parts[4] == "" {
			return FieldRef{}, bad
		}
		return FieldRef{Scope: ScopeAction, Chat: c, Action: a, Name: parts[4]}, nil
	default:
		return FieldRef{}, bad
	}
}
