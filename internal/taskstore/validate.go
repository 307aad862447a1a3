package taskstore

import (
	"strings"
	"time"

	"signer-cli/internal/model"
	"signer-cli/internal/schema"

	"github.com/robfig/cron/v3"
)

// Catalog is the action type list served at /api/meta/actions.
var Catalog = []model.ActionTypeDescriptor{
	{Value: 1, Key: schema.KeySendText, Label: "Send text", RequiresText: true},
	{Value: 2, Key: schema.KeySendDice, Label: "Send dice", RequiresText: true},
	{Value: 3, Key: schema.KeyClickKeyboardByText, Label: "Click keyboard button by text", RequiresText: true},
	{Value: 4, Key: "CHOOSE_OPTION_BY_IMAGE", Label: "Choose option by image"},
	{Value: 5, Key: "REPLY_BY_CALCULATION_PROBLEM", Label: "Reply to calculation problem"},
}

// Issue mirrors one entry of a 422 detail list.
type Issue struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

var catalogRegistry = schema.New(Catalog)

// Validate applies the store's rules to a config and returns every problem
// found, in document order.
func Validate(t model.Task) []Issue {
	var issues []Issue
	add := func(msg string, loc ...any) {
		issues = append(issues, Issue{Loc: loc, Msg: msg})
	}

	if strings.TrimSpace(t.SignAt) == "" {
		add("field required", "sign_at")
	} else if !validSchedule(t.SignAt) {
		add("must be HH:MM[:SS] or a 5-field cron expression", "sign_at")
	}
	if t.RandomSeconds < 0 {
		add("must be greater than or equal to 0", "random_seconds")
	}
	if t.SignInterval < 0 {
		add("must be greater than or equal to 0", "sign_interval")
	}

	for ci, c := range t.Chats {
		if c.ChatID == nil {
			add("field required", "chats", ci, "chat_id")
		}
		if c.DeleteAfter != nil && *c.DeleteAfter < 0 {
			add("must be greater than or equal to 0", "chats", ci, "delete_after")
		}
		if c.ActionInterval < 0 {
			add("must be greater than or equal to 0", "chats", ci, "action_interval")
		}
		if len(c.Actions) == 0 {
			add("at least one action is required", "chats", ci, "actions")
		}
		for ai, a := range c.Actions {
			d, ok := catalogRegistry.Resolve(a.Type)
			if !ok {
				add("unknown action type", "chats", ci, "actions", ai, "action")
				continue
			}
			if d.Field == nil {
				continue
			}
			v, has := a.Field(d.Field.Field)
			if !has {
				add("field required", "chats", ci, "actions", ai, d.Field.Field)
			} else if d.Field.Field == schema.FieldDice && v == "" {
				add("must not be empty", "chats", ci, "actions", ai, d.Field.Field)
			}
		}
	}
	return issues
}

var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

func validSchedule(s string) bool {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04:05", "15:04"} {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	_, err := scheduleParser.Parse(s)
	return err == nil
}
