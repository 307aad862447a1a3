package mutate

import (
	"signer-cli/internal/model"
	"signer-cli/internal/schema"
)

// The functions in this file edit a task document in place. They either apply
// the whole edit or return an error and leave the document untouched; callers
// own dirty tracking and re-rendering.

func SetGeneralField(t *model.Task, name, raw string) error {
	apply, ok := generalFields[name]
	if !ok {
		return ErrUnknownField
	}
	apply(t, raw)
	return nil
}

func SetChatField(t *model.Task, chat int, name, raw string) error {
	c, err := chatAt(t, chat)
	if err != nil {
		return err
	}
	apply, ok := chatFields[name]
	if !ok {
		return ErrUnknownField
	}
	apply(c, raw)
	return nil
}

// NewChat returns a chat holding a single default action.
func NewChat(reg *schema.Registry) model.Chat {
	return model.Chat{
		ActionInterval: model.DefaultActionInterval,
		Actions:        []model.Action{reg.DefaultAction()},
	}
}

func AddChat(t *model.Task, reg *schema.Registry) int {
	t.Chats = append(t.Chats, NewChat(reg))
	return len(t.Chats) - 1
}

func RemoveChat(t *model.Task, chat int) error {
	if _, err := chatAt(t, chat); err != nil {
		return err
	}
	if len(t.Chats) <= 1 {
		return MinimumViolationError{Kind: "chat"}
	}
	t.Chats = append(t.Chats[:chat], t.Chats[chat+1:]...)
	return nil
}

func AddAction(t *model.Task, chat int, reg *schema.Registry) (int, error) {
	c, err := chatAt(t, chat)
	if err != nil {
		return 0, err
	}
	c.Actions = append(c.Actions, reg.DefaultAction())
	return len(c.Actions) - 1, nil
}

func RemoveAction(t *model.Task, chat, action int) error {
	c, err := chatAt(t, chat)
	if err != nil {
		return err
	}
	if action < 0 || action >= len(c.Actions) {
		return NotFoundError{Kind: "action", Index: action}
	}
	if len(c.Actions) <= 1 {
		return MinimumViolationError{Kind: "action"}
	}
	c.Actions = append(c.Actions[:action], c.Actions[action+1:]...)
	return nil
}

// SetActionType retypes an action. Payload fields that do not belong to the
// new type are dropped; the new type's field is seeded when missing, and an
// empty dice field gets the default glyph.
func SetActionType(t *model.Task, chat, action, value int, reg *schema.Registry) error {
	a, err := actionAt(t, chat, action)
	if err != nil {
		return err
	}
	a.Type = value
	spec, ok := reg.ResolveField(value)
	for _, name := range a.FieldNames() {
		if !ok || name != spec.Field {
			a.DeleteField(name)
		}
	}
	if !ok {
		return nil
	}
	if _, has := a.Field(spec.Field); !has {
		a.SetField(spec.Field, "")
	}
	if spec.Field == schema.FieldDice {
		if v, _ := a.Field(spec.Field); v == "" {
			a.SetField(spec.Field, schema.DiceGlyph)
		}
	}
	return nil
}

// SetActionPayload stores raw verbatim in the field resolved for the action's
// current type. Actions without a payload field reject the edit.
func SetActionPayload(t *model.Task, chat, action int, raw string, reg *schema.Registry) error {
	a, err := actionAt(t, chat, action)
	if err != nil {
		return err
	}
	spec, ok := reg.ResolveField(a.Type)
	if !ok {
		return ErrUnknownField
	}
	a.SetField(spec.Field, raw)
	return nil
}

func chatAt(t *model.Task, chat int) (*model.Chat, error) {
	if t == nil || chat < 0 || chat >= len(t.Chats) {
		return nil, NotFoundError{Kind: "chat", Index: chat}
	}
	return &t.Chats[chat], nil
}

func actionAt(t *model.Task, chat, action int) (*model.Action, error) {
	c, err := chatAt(t, chat)
	if err != nil {
		return nil, err
	}
	if action < 0 || action >= len(c.Actions) {
		return nil, NotFoundError{Kind: "action", Index: action}
	}
	return &c.Actions[action], nil
}
