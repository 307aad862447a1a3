package editor

import (
	"testing"

	"signer-cli/internal/model"
)

func TestRender_NoActiveTask(t *testing.T) {
	s := NewSession(Options{})
	v := Render(s)
	if v.Form != nil {
		t.Fatalf("expected no form without an active task")
	}
	if v.Picker.Placeholder != EmptyListText || len(v.Picker.Items) != 0 {
		t.Fatalf("expected empty picker placeholder; got %+v", v.Picker)
	}
	if v.Header.SaveEnabled || v.Header.DeleteEnabled {
		t.Fatalf("expected save/delete disabled; got %+v", v.Header)
	}
}

func TestRender_FormMirrorsDocument(t *testing.T) {
	s := loadedSession(Options{})
	s.Apply(ListResult{Tasks: []model.TaskSummary{{Name: "alpha"}, {Name: "beta"}}})
	_, _ = s.AddAction(0)
	_ = s.SetActionType(0, 1, 2)

	v := Render(s)
	if len(v.Picker.Items) != 2 || !v.Picker.Items[0].Active || v.Picker.Items[1].Active {
		t.Fatalf("expected alpha highlighted; got %+v", v.Picker.Items)
	}
	if !v.Header.SaveEnabled || !v.Header.DeleteEnabled || !v.Header.Dirty {
		t.Fatalf("expected dirty header with save and delete enabled; got %+v", v.Header)
	}
	if v.Form == nil || len(v.Form.General) != 3 || len(v.Form.Chats) != 1 {
		t.Fatalf("unexpected form shape: %+v", v.Form)
	}

	chat := v.Form.Chats[0]
	if len(chat.Fields) != 4 || chat.Fields[0].Value != "-100" {
		t.Fatalf("unexpected chat fields: %+v", chat.Fields)
	}
	if len(chat.Actions) != 2 {
		t.Fatalf("expected 2 action rows; got %d", len(chat.Actions))
	}
	text := chat.Actions[0].Payload
	if text == nil || text.Ref.Name != "text" || text.Value != "hello" {
		t.Fatalf("expected text payload row; got %+v", text)
	}
	dice := chat.Actions[1].Payload
	if dice == nil || dice.Ref.Name != "dice" || dice.Value != "🎲" {
		t.Fatalf("expected dice payload row; got %+v", dice)
	}
	if got := dice.Ref.String(); got != "chats.0.actions.1.dice" {
		t.Fatalf("expected dice ref path; got %q", got)
	}
}

func TestRender_UnknownAndPayloadlessTypes(t *testing.T) {
	s := loadedSession(Options{})
	_, _ = s.AddAction(0)
	_ = s.SetActionType(0, 0, 4)
	_ = s.SetActionType(0, 1, 99)

	rows := Render(s).Form.Chats[0].Actions
	if rows[0].Payload != nil || !rows[0].Type.Known {
		t.Fatalf("expected known payload-less row; got %+v", rows[0])
	}
	if rows[1].Payload != nil || rows[1].Type.Known {
		t.Fatalf("expected unknown row with selector only; got %+v", rows[1])
	}
	if got := rows[1].Type.Label(); got != "unknown type (99)" {
		t.Fatalf("expected unknown label; got %q", got)
	}
	if len(rows[1].Type.Options) != 5 {
		t.Fatalf("expected all catalog options on the selector; got %d", len(rows[1].Type.Options))
	}
}

func TestTypeSelectCycle(t *testing.T) {
	sel := TypeSelect{Options: []Option{{Value: 1}, {Value: 2}, {Value: 3}}, Value: 1}
	if v, _ := sel.Cycle(1); v != 2 {
		t.Fatalf("expected 2; got %d", v)
	}
	if v, _ := sel.Cycle(-1); v != 3 {
		t.Fatalf("expected wrap to 3; got %d", v)
	}
	sel.Value = 42
	if v, changed := sel.Cycle(1); v != 1 || !changed {
		t.Fatalf("expected unknown value to reset to first option; got %d %v", v, changed)
	}
	if _, changed := (TypeSelect{Value: 1}).Cycle(1); changed {
		t.Fatalf("expected no change without options")
	}
}
