package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Task is the editable configuration of one sign task.
type Task struct {
	SignAt        string  `json:"sign_at"`
	RandomSeconds int     `json:"random_seconds"`
	SignInterval  float64 `json:"sign_interval"`
	Chats         []Chat  `json:"chats"`
}

type Chat struct {
	ChatID         *int64   `json:"chat_id"`
	Name           string   `json:"name"`
	DeleteAfter    *int     `json:"delete_after"`
	ActionInterval float64  `json:"action_interval"`
	Actions        []Action `json:"actions"`
}

// Action is one step of a chat. Payload holds the string fields named by the
// action type's FieldSpec (text, dice); Extra keeps any other keys the store
// sent so they survive a save.
type Action struct {
	Type    int
	Payload map[string]string
	Extra   map[string]json.RawMessage
}

type TaskSummary struct {
	Name string `json:"name"`
}

// TaskEnvelope is the {name, config} shape the store uses for single tasks.
type TaskEnvelope struct {
	Name   string `json:"name"`
	Config Task   `json:"config"`
}

type FieldSpec struct {
	Field       string `json:"field"`
	Label       string `json:"label"`
	Placeholder string `json:"placeholder,omitempty"`
}

type ActionTypeDescriptor struct {
	Value        int        `json:"value"`
	Key          string     `json:"key"`
	Label        string     `json:"label"`
	RequiresText bool       `json:"requires_text,omitempty"`
	Field        *FieldSpec `json:"field,omitempty"`
}

const (
	DefaultSignInterval   = 1.0
	DefaultActionInterval = 1.0
)

// Hidden reports whether a task name is kept out of task listings.
func Hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func (t *Task) UnmarshalJSON(b []byte) error {
	type wire Task
	w := wire{SignInterval: DefaultSignInterval}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	if w.Chats == nil {
		w.Chats = []Chat{}
	}
	*t = Task(w)
	return nil
}

func (t Task) MarshalJSON() ([]byte, error) {
	type wire Task
	w := wire(t)
	if w.Chats == nil {
		w.Chats = []Chat{}
	}
	return json.Marshal(w)
}

func (c *Chat) UnmarshalJSON(b []byte) error {
	type wire Chat
	w := wire{ActionInterval: DefaultActionInterval}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	if w.Actions == nil {
		w.Actions = []Action{}
	}
	*c = Chat(w)
	return nil
}

func (c Chat) MarshalJSON() ([]byte, error) {
	type wire Chat
	w := wire(c)
	if w.Actions == nil {
		w.Actions = []Action{}
	}
	return json.Marshal(w)
}

func (a Action) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(a.Extra)+len(a.Payload)+1)
	for k, v := range a.Extra {
		out[k] = v
	}
	for k, v := range a.Payload {
		out[k] = v
	}
	out["action"] = a.Type
	return json.Marshal(out)
}

func (a *Action) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	next := Action{}
	if v, ok := raw["action"]; ok {
		var n float64
		if err := json.Unmarshal(v, &n); err != nil {
			return fmt.Errorf("action: %w", err)
		}
		next.Type = int(n)
	}
	for k, v := range raw {
		if k == "action" || string(v) == "null" {
			continue
		}
		var s string
		if IsPayloadField(k) && json.Unmarshal(v, &s) == nil {
			if next.Payload == nil {
				next.Payload = map[string]string{}
			}
			next.Payload[k] = s
			continue
		}
		if next.Extra == nil {
			next.Extra = map[string]json.RawMessage{}
		}
		next.Extra[k] = v
	}
	*a = next
	return nil
}

// Payload keys understood by the editor. Any other key is carried in Extra.
const (
	FieldText = "text"
	FieldDice = "dice"
)

func IsPayloadField(name string) bool {
	return name == FieldText || name == FieldDice
}

// Field returns the payload value stored under name.
func (a Action) Field(name string) (string, bool) {
	v, ok := a.Payload[name]
	return v, ok
}

func (a *Action) SetField(name, value string) {
	if a.Payload == nil {
		a.Payload = map[string]string{}
	}
	a.Payload[name] = value
}

// DeleteField drops a payload field; an emptied payload map becomes nil so
// documents compare equal to their decoded JSON form.
func (a *Action) DeleteField(name string) {
	delete(a.Payload, name)
	if len(a.Payload) == 0 {
		a.Payload = nil
	}
}

// FieldNames returns the payload field names in sorted order.
func (a Action) FieldNames() []string {
	names := make([]string, 0, len(a.Payload))
	for k := range a.Payload {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func (a Action) Clone() Action {
	out := Action{Type: a.Type}
	if a.Payload != nil {
		out.Payload = make(map[string]string, len(a.Payload))
		for k, v := range a.Payload {
			out.Payload[k] = v
		}
	}
	if a.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(a.Extra))
		for k, v := range a.Extra {
			out.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return out
}

func (c Chat) Clone() Chat {
	out := c
	if c.ChatID != nil {
		id := *c.ChatID
		out.ChatID = &id
	}
	if c.DeleteAfter != nil {
		d := *c.DeleteAfter
		out.DeleteAfter = &d
	}
	out.Actions = make([]Action, len(c.Actions))
	for i, a := range c.Actions {
		out.Actions[i] = a.Clone()
	}
	return out
}

// Clone returns a deep copy, used to snapshot the working document before it
// leaves the event loop.
func (t Task) Clone() Task {
	out := t
	out.Chats = make([]Chat, len(t.Chats))
	for i, c := range t.Chats {
		out.Chats[i] = c.Clone()
	}
	return out
}
