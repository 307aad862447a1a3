package schema

import (
	"context"

	"signer-cli/internal/model"
)

// Well-known action type keys.
const (
	KeySendText            = "SEND_TEXT"
	KeySendDice            = "SEND_DICE"
	KeyClickKeyboardByText = "CLICK_KEYBOARD_BY_TEXT"
)

const (
	FieldText = model.FieldText
	FieldDice = model.FieldDice

	// DiceGlyph seeds an empty dice payload.
	DiceGlyph = "🎲"

	// FallbackActionType is used for new actions when no action types are known.
	FallbackActionType = 1
)

var fieldsByKey = map[string]model.FieldSpec{
	KeySendText:            {Field: FieldText, Label: "Message", Placeholder: "e.g. Have a nice day~"},
	KeySendDice:            {Field: FieldDice, Label: "Dice / emoji", Placeholder: DiceGlyph},
	KeyClickKeyboardByText: {Field: FieldText, Label: "Button text", Placeholder: "Exactly as shown on the button"},
}

// Registry resolves action type values to descriptors. The zero value and a
// nil *Registry are both usable and empty.
type Registry struct {
	descriptors []model.ActionTypeDescriptor
	byValue     map[int]int
}

func New(descriptors []model.ActionTypeDescriptor) *Registry {
	r := &Registry{byValue: make(map[int]int, len(descriptors))}
	for _, d := range descriptors {
		if _, dup := r.byValue[d.Value]; dup {
			continue
		}
		if d.Field == nil {
			if f, ok := fieldsByKey[d.Key]; ok {
				d.Field = &f
			}
		}
		r.byValue[d.Value] = len(r.descriptors)
		r.descriptors = append(r.descriptors, d)
	}
	return r
}

// Source lists the action catalogue, usually from the remote store.
type Source interface {
	ListActions(ctx context.Context) ([]model.ActionTypeDescriptor, error)
}

// Load fetches the catalogue. On failure it returns an empty registry along
// with the error so callers can keep rendering type selectors.
func Load(ctx context.Context, src Source) (*Registry, error) {
	ds, err := src.ListActions(ctx)
	if err != nil {
		return New(nil), err
	}
	return New(ds), nil
}

func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.descriptors)
}

// Descriptors returns the known action types in catalogue order.
func (r *Registry) Descriptors() []model.ActionTypeDescriptor {
	if r == nil {
		return nil
	}
	out := make([]model.ActionTypeDescriptor, len(r.descriptors))
	copy(out, r.descriptors)
	return out
}

func (r *Registry) Resolve(value int) (model.ActionTypeDescriptor, bool) {
	if r == nil {
		return model.ActionTypeDescriptor{}, false
	}
	i, ok := r.byValue[value]
	if !ok {
		return model.ActionTypeDescriptor{}, false
	}
	return r.descriptors[i], true
}

func (r *Registry) ResolveField(value int) (model.FieldSpec, bool) {
	d, ok := r.Resolve(value)
	if !ok || d.Field == nil {
		return model.FieldSpec{}, false
	}
	return *d.Field, true
}

func (r *Registry) findKey(key string) (model.ActionTypeDescriptor, bool) {
	if r == nil {
		return model.ActionTypeDescriptor{}, false
	}
	for _, d := range r.descriptors {
		if d.Key == key {
			return d, true
		}
	}
	return model.ActionTypeDescriptor{}, false
}

// DefaultAction is the action appended by "add chat" and "add action":
// SEND_TEXT with an empty message when known, otherwise the first known type,
// otherwise a payload-less FallbackActionType.
func (r *Registry) DefaultAction() model.Action {
	if d, ok := r.findKey(KeySendText); ok {
		a := model.Action{Type: d.Value}
		a.SetField(FieldText, "")
		return a
	}
	if r.Len() > 0 {
		return model.Action{Type: r.descriptors[0].Value}
	}
	return model.Action{Type: FallbackActionType}
}
