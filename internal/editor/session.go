package editor

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"signer-cli/internal/model"
	"signer-cli/internal/mutate"
	"signer-cli/internal/schema"
)

// StatusTTL is how long a status message stays visible before it is dismissed.
const StatusTTL = 4 * time.Second

type StatusKind int

const (
	StatusNone StatusKind = iota
	StatusSuccess
	StatusError
)

// Status is the transient message line. Seq increases on every new message so
// a delayed dismiss only clears the message it was scheduled for.
type Status struct {
	Kind StatusKind
	Text string
	Seq  int
}

type Options struct {
	// KeepEditsOnRefresh skips reloading the active task after a list refresh
	// while it has unsaved edits. By default the reload happens and the edits
	// are discarded.
	KeepEditsOnRefresh bool
}

// Session is the editor state for one user: the task list, the active task's
// working document and the dirty flag. It is owned by a single event loop.
type Session struct {
	opts     Options
	registry *schema.Registry

	tasks []model.TaskSummary

	active string
	doc    *model.Task
	dirty  bool

	status Status

	// loadSeq identifies the newest load request; older load results are dropped.
	loadSeq int
	// loading names the task of the newest load still in flight.
	loading string
}

func NewSession(opts Options) *Session {
	return &Session{opts: opts, registry: schema.New(nil)}
}

func (s *Session) Options() Options           { return s.opts }
func (s *Session) Registry() *schema.Registry { return s.registry }
func (s *Session) Active() string             { return s.active }
func (s *Session) Dirty() bool                { return s.dirty }
func (s *Session) Status() Status             { return s.status }

func (s *Session) Tasks() []model.TaskSummary {
	out := make([]model.TaskSummary, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Document returns the working document, or nil when no task is active. The
// returned pointer is for reading; edits go through the Session methods.
func (s *Session) Document() *model.Task { return s.doc }

// SaveEnabled reports whether the save affordance is available.
func (s *Session) SaveEnabled() bool { return s.dirty && s.active != "" }

func (s *Session) DeleteEnabled() bool { return s.active != "" }

// ClearSelection drops the active task and its unsaved edits. Loads still in
// flight are ignored when they return.
func (s *Session) ClearSelection() {
	s.loadSeq++
	s.loading = ""
	s.active = ""
	s.doc = nil
	s.dirty = false
}

func (s *Session) setStatus(kind StatusKind, text string) {
	s.status = Status{Kind: kind, Text: text, Seq: s.status.Seq + 1}
}

func (s *Session) succeed(format string, args ...any) {
	s.setStatus(StatusSuccess, fmt.Sprintf(format, args...))
}

func (s *Session) fail(prefix string, err error) {
	text := Describe(err)
	if prefix != "" {
		text = prefix + ": " + text
	}
	s.setStatus(StatusError, text)
}

// ExpireStatus clears the status if it is still the message numbered seq.
func (s *Session) ExpireStatus(seq int) bool {
	if s.status.Seq != seq || s.status.Kind == StatusNone {
		return false
	}
	s.status = Status{Seq: s.status.Seq}
	return true
}

// edit runs fn against the working document. A failed edit is reported in the
// status line and leaves the dirty flag alone.
func (s *Session) edit(fn func(t *model.Task) error) error {
	if s.doc == nil {
		s.fail("", ErrNoActiveTask)
		return ErrNoActiveTask
	}
	if err := fn(s.doc); err != nil {
		s.fail("", err)
		return err
	}
	s.dirty = true
	return nil
}

func (s *Session) SetGeneralField(name, raw string) error {
	return s.edit(func(t *model.Task) error {
		return mutate.SetGeneralField(t, name, raw)
	})
}

func (s *Session) SetChatField(chat int, name, raw string) error {
	return s.edit(func(t *model.Task) error {
		return mutate.SetChatField(t, chat, name, raw)
	})
}

// AddChat appends a chat and returns its index.
func (s *Session) AddChat() (int, error) {
	idx := -1
	err := s.edit(func(t *model.Task) error {
		idx = mutate.AddChat(t, s.registry)
		return nil
	})
	return idx, err
}

func (s *Session) RemoveChat(chat int) error {
	return s.edit(func(t *model.Task) error {
		return mutate.RemoveChat(t, chat)
	})
}

// AddAction appends an action to a chat and returns its index.
func (s *Session) AddAction(chat int) (int, error) {
	idx := -1
	err := s.edit(func(t *model.Task) error {
		var err error
		idx, err = mutate.AddAction(t, chat, s.registry)
		return err
	})
	return idx, err
}

func (s *Session) RemoveAction(chat, action int) error {
	return s.edit(func(t *model.Task) error {
		return mutate.RemoveAction(t, chat, action)
	})
}

func (s *Session) SetActionType(chat, action, value int) error {
	return s.edit(func(t *model.Task) error {
		return mutate.SetActionType(t, chat, action, value, s.registry)
	})
}

func (s *Session) SetActionPayload(chat, action int, raw string) error {
	return s.edit(func(t *model.Task) error {
		return mutate.SetActionPayload(t, chat, action, raw, s.registry)
	})
}

// SetField applies raw to the field ref points at, using the same parsing as
// the individual setters. Action payload refs must name the field resolved for
// the action's current type.
func (s *Session) SetField(ref FieldRef, raw string) error {
	switch ref.Scope {
	case ScopeGeneral:
		return s.SetGeneralField(ref.Name, raw)
	case ScopeChat:
		return s.SetChatField(ref.Chat, ref.Name, raw)
	case ScopeAction:
		if ref.Name == ActionTypeField {
			v, err := strconv.Atoi(strings.TrimSpace(raw))
			if err != nil {
				err = fmt.Errorf("action type must be a number: %q", raw)
				s.fail("", err)
				return err
			}
			return s.SetActionType(ref.Chat, ref.Action, v)
		}
		if field, ok := s.payloadField(ref.Chat, ref.Action); ok && field != ref.Name {
			s.fail("", mutate.ErrUnknownField)
			return mutate.ErrUnknownField
		}
		return s.SetActionPayload(ref.Chat, ref.Action, raw)
	default:
		s.fail("", mutate.ErrUnknownField)
		return mutate.ErrUnknownField
	}
}

func (s *Session) payloadField(chat, action int) (string, bool) {
	if s.doc == nil || chat < 0 || chat >= len(s.doc.Chats) {
		return "", false
	}
	acts := s.doc.Chats[chat].Actions
	if action < 0 || action >= len(acts) {
		return "", false
	}
	spec, ok := s.registry.ResolveField(acts[action].Type)
	return spec.Field, ok
}
