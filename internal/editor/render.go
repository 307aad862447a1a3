package editor

import (
	"fmt"
	"strconv"

	"signer-cli/internal/model"
	"signer-cli/internal/mutate"
)

const (
	EmptyListText  = "No tasks yet"
	EmptyStateText = "Select or create a task to start editing its schedule, chats and actions."
)

// View is the declarative form tree for one session state. It is rebuilt in
// full after every change; nothing in it aliases the working document.
type View struct {
	Picker Picker
	Header Header
	Status Status
	// Form is nil when no task is active.
	Form *Form
}

type PickerItem struct {
	Name   string
	Active bool
}

type Picker struct {
	Items []PickerItem
	// Placeholder is shown instead of Items when the list is empty.
	Placeholder string
}

type Header struct {
	Title         string
	Subtitle      string
	Dirty         bool
	SaveEnabled   bool
	DeleteEnabled bool
}

type Field struct {
	Ref         FieldRef
	Label       string
	Value       string
	Placeholder string
}

type Option struct {
	Value int
	Label string
}

// TypeSelect is an action's type selector. Known is false when Value does not
// resolve to a loaded action type.
type TypeSelect struct {
	Ref     FieldRef
	Options []Option
	Value   int
	Known   bool
}

// ActionRow carries the type selector and, when the type has one, exactly the
// payload field resolved for that type.
type ActionRow struct {
	Index   int
	Type    TypeSelect
	Payload *Field
}

type ChatBlock struct {
	Index   int
	Title   string
	Fields  []Field
	Actions []ActionRow
}

type Form struct {
	General []Field
	Chats   []ChatBlock
}

type fieldLabel struct {
	name        string
	label       string
	placeholder string
}

var generalLabels = []fieldLabel{
	{mutate.FieldSignAt, "Sign time", "e.g. 06:00:00 or 0 6 * * *"},
	{mutate.FieldRandomSeconds, "Random delay (s)", ""},
	{mutate.FieldSignInterval, "Sign interval (s)", ""},
}

var chatLabels = []fieldLabel{
	{mutate.FieldChatID, "Chat ID", ""},
	{mutate.FieldChatName, "Name", ""},
	{mutate.FieldDeleteAfter, "Delete after (s)", "empty keeps messages"},
	{mutate.FieldActionInterval, "Action interval (s)", ""},
}

// Render projects the session into a View.
func Render(s *Session) View {
	v := View{Status: s.Status()}

	for _, t := range s.tasks {
		v.Picker.Items = append(v.Picker.Items, PickerItem{Name: t.Name, Active: t.Name == s.active})
	}
	if len(v.Picker.Items) == 0 {
		v.Picker.Placeholder = EmptyListText
	}

	if s.active == "" || s.doc == nil {
		v.Header = Header{
			Title:    "Task details",
			Subtitle: "Select or create a task",
		}
		return v
	}

	v.Header = Header{
		Title:         "Task: " + s.active,
		Subtitle:      "Edit the schedule, chats and actions",
		Dirty:         s.dirty,
		SaveEnabled:   s.SaveEnabled(),
		DeleteEnabled: s.DeleteEnabled(),
	}
	v.Form = renderForm(s)
	return v
}

func renderForm(s *Session) *Form {
	t := s.doc
	f := &Form{}
	for _, fl := range generalLabels {
		f.General = append(f.General, Field{
			Ref:         FieldRef{Scope: ScopeGeneral, Name: fl.name},
			Label:       fl.label,
			Value:       generalValue(t, fl.name),
			Placeholder: fl.placeholder,
		})
	}

	options := make([]Option, 0, s.registry.Len())
	for _, d := range s.registry.Descriptors() {
		options = append(options, Option{Value: d.Value, Label: d.Label})
	}

	for ci, c := range t.Chats {
		block := ChatBlock{Index: ci, Title: fmt.Sprintf("Chat %d", ci+1)}
		for _, fl := range chatLabels {
			block.Fields = append(block.Fields, Field{
				Ref:         FieldRef{Scope: ScopeChat, Chat: ci, Name: fl.name},
				Label:       fl.label,
				Value:       chatValue(c, fl.name),
				Placeholder: fl.placeholder,
			})
		}
		for ai, a := range c.Actions {
			block.Actions = append(block.Actions, renderAction(s, options, ci, ai, a))
		}
		f.Chats = append(f.Chats, block)
	}
	return f
}

func renderAction(s *Session, options []Option, ci, ai int, a model.Action) ActionRow {
	_, known := s.registry.Resolve(a.Type)
	row := ActionRow{
		Index: ai,
		Type: TypeSelect{
			Ref:     FieldRef{Scope: ScopeAction, Chat: ci, Action: ai, Name: ActionTypeField},
			Options: options,
			Value:   a.Type,
			Known:   known,
		},
	}
	spec, ok := s.registry.ResolveField(a.Type)
	if !ok {
		return row
	}
	value, _ := a.Field(spec.Field)
	row.Payload = &Field{
		Ref:         FieldRef{Scope: ScopeAction, Chat: ci, Action: ai, Name: spec.Field},
		Label:       spec.Label,
		Value:       value,
		Placeholder: spec.Placeholder,
	}
	return row
}

func generalValue(t *model.Task, name string) string {
	switch name {
	case mutate.FieldSignAt:
		return t.SignAt
	case mutate.FieldRandomSeconds:
		return strconv.Itoa(t.RandomSeconds)
	case mutate.FieldSignInterval:
		return formatFloat(t.SignInterval)
	}
	return ""
}

func chatValue(c model.Chat, name string) string {
	switch name {
	case mutate.FieldChatID:
		if c.ChatID != nil {
			return strconv.FormatInt(*c.ChatID, 10)
		}
	case mutate.FieldChatName:
		return c.Name
	case mutate.FieldDeleteAfter:
		if c.DeleteAfter != nil {
			return strconv.Itoa(*c.DeleteAfter)
		}
	case mutate.FieldActionInterval:
		return formatFloat(c.ActionInterval)
	}
	return ""
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Label returns the selected option label, or a placeholder naming the raw value
// when the type is unknown.
func (t TypeSelect) Label() string {
	for _, o := range t.Options {
		if o.Value == t.Value {
			return o.Label
		}
	}
	return fmt.Sprintf("unknown type (%d)", t.Value)
}

// Cycle returns the option value delta steps away from the current one,
// wrapping around. An unknown current value starts from the first option.
func (t TypeSelect) Cycle(delta int) (int, bool) {
	if len(t.Options) == 0 {
		return t.Value, false
	}
	idx := -1
	for i, o := range t.Options {
		if o.Value == t.Value {
			idx = i
			break
		}
	}
	if idx < 0 {
		return t.Options[0].Value, true
	}
	n := len(t.Options)
	next := ((idx+delta)%n + n) % n
	return t.Options[next].Value, next != idx
}
