package mutate

import (
	"encoding/json"
	"errors"
	"math/rand"
	"testing"

	"signer-cli/internal/model"
	"signer-cli/internal/schema"
)

func testRegistry() *schema.Registry {
	return schema.New([]model.ActionTypeDescriptor{
		{Value: 1, Key: schema.KeySendText, Label: "Send text"},
		{Value: 2, Key: schema.KeySendDice, Label: "Send dice"},
		{Value: 3, Key: schema.KeyClickKeyboardByText, Label: "Click button"},
		{Value: 4, Key: "CHOOSE_OPTION_BY_IMAGE", Label: "Choose by image"},
	})
}

func oneChatTask(reg *schema.Registry) *model.Task {
	t := &model.Task{SignAt: "06:00:00", SignInterval: 1}
	AddChat(t, reg)
	return t
}

func TestSetGeneralField_Coercion(t *testing.T) {
	cases := []struct {
		name  string
		raw   string
		check func(task model.Task) bool
	}{
		{FieldSignAt, "  06:00:00 ", func(task model.Task) bool { return task.SignAt == "06:00:00" }},
		{FieldRandomSeconds, "30", func(task model.Task) bool { return task.RandomSeconds == 30 }},
		{FieldRandomSeconds, "12abc", func(task model.Task) bool { return task.RandomSeconds == 12 }},
		{FieldRandomSeconds, "abc", func(task model.Task) bool { return task.RandomSeconds == 0 }},
		{FieldRandomSeconds, "-5", func(task model.Task) bool { return task.RandomSeconds == 0 }},
		{FieldSignInterval, "2.5", func(task model.Task) bool { return task.SignInterval == 2.5 }},
		{FieldSignInterval, "", func(task model.Task) bool { return task.SignInterval == 1 }},
		{FieldSignInterval, "nope", func(task model.Task) bool { return task.SignInterval == 1 }},
	}
	for _, tc := range cases {
		task := model.Task{RandomSeconds: 9, SignInterval: 9}
		if err := SetGeneralField(&task, tc.name, tc.raw); err != nil {
			t.Fatalf("%s=%q: unexpected error %v", tc.name, tc.raw, err)
		}
		if !tc.check(task) {
			t.Fatalf("%s=%q: unexpected result %#v", tc.name, tc.raw, task)
		}
	}

	if err := SetGeneralField(&model.Task{}, "bogus", "x"); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField; got %v", err)
	}
}

func TestSetChatField_Coercion(t *testing.T) {
	reg := testRegistry()
	task := oneChatTask(reg)

	if err := SetChatField(task, 0, FieldChatID, "-100123"); err != nil {
		t.Fatalf("set chat_id: %v", err)
	}
	if c := task.Chats[0]; c.ChatID == nil || *c.ChatID != -100123 {
		t.Fatalf("expected chat_id -100123; got %v", c.ChatID)
	}
	_ = SetChatField(task, 0, FieldChatID, "x1")
	if task.Chats[0].ChatID != nil {
		t.Fatalf("expected chat_id unset for non-numeric input")
	}

	_ = SetChatField(task, 0, FieldDeleteAfter, "10")
	if d := task.Chats[0].DeleteAfter; d == nil || *d != 10 {
		t.Fatalf("expected delete_after 10; got %v", d)
	}
	_ = SetChatField(task, 0, FieldDeleteAfter, "")
	if task.Chats[0].DeleteAfter != nil {
		t.Fatalf("expected delete_after unset for empty input")
	}

	_ = SetChatField(task, 0, FieldChatName, "  group  ")
	if task.Chats[0].Name != "group" {
		t.Fatalf("expected trimmed name; got %q", task.Chats[0].Name)
	}

	_ = SetChatField(task, 0, FieldActionInterval, "abc")
	if task.Chats[0].ActionInterval != 1 {
		t.Fatalf("expected action_interval fallback 1; got %v", task.Chats[0].ActionInterval)
	}

	var nf NotFoundError
	if err := SetChatField(task, 3, FieldChatName, "x"); !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError; got %v", err)
	}
}

func TestRemoveChat_RefusesLast(t *testing.T) {
	reg := testRegistry()
	task := oneChatTask(reg)

	var mv MinimumViolationError
	if err := RemoveChat(task, 0); !errors.As(err, &mv) {
		t.Fatalf("expected MinimumViolationError; got %v", err)
	}
	if len(task.Chats) != 1 {
		t.Fatalf("expected chats unchanged; got %d", len(task.Chats))
	}

	AddChat(task, reg)
	_ = SetChatField(task, 1, FieldChatName, "second")
	if err := RemoveChat(task, 0); err != nil {
		t.Fatalf("remove chat: %v", err)
	}
	if len(task.Chats) != 1 || task.Chats[0].Name != "second" {
		t.Fatalf("expected only second chat left; got %#v", task.Chats)
	}
}

func TestRemoveAction_RefusesLast(t *testing.T) {
	reg := testRegistry()
	task := oneChatTask(reg)

	var mv MinimumViolationError
	if err := RemoveAction(task, 0, 0); !errors.As(err, &mv) {
		t.Fatalf("expected MinimumViolationError; got %v", err)
	}
	if mv.Kind != "action" {
		t.Fatalf("expected kind action; got %q", mv.Kind)
	}
	if len(task.Chats[0].Actions) != 1 {
		t.Fatalf("expected actions unchanged; got %d", len(task.Chats[0].Actions))
	}
}

func TestSetActionType_TextToDice(t *testing.T) {
	reg := testRegistry()
	task := oneChatTask(reg)
	_ = SetActionPayload(task, 0, 0, "hello", reg)

	if err := SetActionType(task, 0, 0, 2, reg); err != nil {
		t.Fatalf("set type: %v", err)
	}
	a := task.Chats[0].Actions[0]
	if got, _ := a.Field(schema.FieldDice); got != schema.DiceGlyph {
		t.Fatalf("expected dice %q; got %q", schema.DiceGlyph, got)
	}
	if _, ok := a.Field(schema.FieldText); ok {
		t.Fatalf("expected text field dropped; got %#v", a.Payload)
	}
}

func TestSetActionType_KeepsUnknownKeys(t *testing.T) {
	reg := testRegistry()
	task := &model.Task{SignAt: "06:00:00", SignInterval: 1}
	if err := json.Unmarshal([]byte(`{"sign_at":"06:00:00","chats":[{"chat_id":1,"actions":[{"action":1,"text":"hi","caption":"keep me"}]}]}`), task); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if err := SetActionType(task, 0, 0, 2, reg); err != nil {
		t.Fatalf("set type: %v", err)
	}
	a := task.Chats[0].Actions[0]
	if _, ok := a.Field(schema.FieldText); ok {
		t.Fatalf("expected text dropped on retype; got %#v", a.Payload)
	}
	if got := string(a.Extra["caption"]); got != `"keep me"` {
		t.Fatalf("expected caption kept; got %q", got)
	}
}

func TestSetActionType_KeepsMatchingField(t *testing.T) {
	reg := testRegistry()
	task := oneChatTask(reg)
	_ = SetActionPayload(task, 0, 0, "Sign in", reg)

	_ = SetActionType(task, 0, 0, 3, reg)
	if got, _ := task.Chats[0].Actions[0].Field(schema.FieldText); got != "Sign in" {
		t.Fatalf("expected text kept across text-field types; got %q", got)
	}

	_ = SetActionType(task, 0, 0, 4, reg)
	if p := task.Chats[0].Actions[0].Payload; p != nil {
		t.Fatalf("expected no payload for payload-less type; got %#v", p)
	}

	_ = SetActionType(task, 0, 0, 99, reg)
	if p := task.Chats[0].Actions[0].Payload; p != nil {
		t.Fatalf("expected no payload for unknown type; got %#v", p)
	}
}

func TestSetActionPayload_Verbatim(t *testing.T) {
	reg := testRegistry()
	task := oneChatTask(reg)
	if err := SetActionPayload(task, 0, 0, "  padded  ", reg); err != nil {
		t.Fatalf("set payload: %v", err)
	}
	if got, _ := task.Chats[0].Actions[0].Field(schema.FieldText); got != "  padded  " {
		t.Fatalf("expected untrimmed payload; got %q", got)
	}

	_ = SetActionType(task, 0, 0, 4, reg)
	if err := SetActionPayload(task, 0, 0, "x", reg); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField for payload-less type; got %v", err)
	}
}

// Random add/remove/retype sequences never break list minimums or the
// one-payload-field rule.
func TestRandomEdits_KeepInvariants(t *testing.T) {
	reg := testRegistry()
	rng := rand.New(rand.NewSource(7))
	task := oneChatTask(reg)

	for step := 0; step < 2000; step++ {
		chat := rng.Intn(len(task.Chats))
		switch rng.Intn(5) {
		case 0:
			AddChat(task, reg)
		case 1:
			_ = RemoveChat(task, chat)
		case 2:
			_, _ = AddAction(task, chat, reg)
		case 3:
			_ = RemoveAction(task, chat, rng.Intn(len(task.Chats[chat].Actions)))
		case 4:
			_ = SetActionType(task, chat, rng.Intn(len(task.Chats[chat].Actions)), 1+rng.Intn(5), reg)
		}

		if len(task.Chats) < 1 {
			t.Fatalf("step %d: chats below minimum", step)
		}
		for ci, c := range task.Chats {
			if len(c.Actions) < 1 {
				t.Fatalf("step %d: chat %d has no actions", step, ci)
			}
			for ai, a := range c.Actions {
				if len(a.Payload) > 1 {
					t.Fatalf("step %d: chat %d action %d has %d payload fields", step, ci, ai, len(a.Payload))
				}
				spec, ok := reg.ResolveField(a.Type)
				for name := range a.Payload {
					if !ok || name != spec.Field {
						t.Fatalf("step %d: chat %d action %d has stray field %q for type %d", step, ci, ai, name, a.Type)
					}
				}
			}
		}
	}
}
