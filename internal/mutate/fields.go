package mutate

import (
	"math"
	"strconv"
	"strings"

	"signer-cli/internal/model"
)

// Field names, matching the store's JSON keys.
const (
	FieldSignAt        = "sign_at"
	FieldRandomSeconds = "random_seconds"
	FieldSignInterval  = "sign_interval"

	FieldChatID         = "chat_id"
	FieldChatName       = "name"
	FieldDeleteAfter    = "delete_after"
	FieldActionInterval = "action_interval"
)

// Every raw-input field is parsed through one of these tables. Setters never
// reject input: a value that does not parse falls back to the field's default.
var generalFields = map[string]func(t *model.Task, raw string){
	FieldSignAt: func(t *model.Task, raw string) {
		t.SignAt = strings.TrimSpace(raw)
	},
	FieldRandomSeconds: func(t *model.Task, raw string) {
		t.RandomSeconds = nonNegativeIntOr(raw, 0)
	},
	FieldSignInterval: func(t *model.Task, raw string) {
		t.SignInterval = positiveFloatOr(raw, model.DefaultSignInterval)
	},
}

var chatFields = map[string]func(c *model.Chat, raw string){
	FieldChatID: func(c *model.Chat, raw string) {
		c.ChatID = nil
		if n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64); err == nil {
			c.ChatID = &n
		}
	},
	FieldChatName: func(c *model.Chat, raw string) {
		c.Name = strings.TrimSpace(raw)
	},
	FieldDeleteAfter: func(c *model.Chat, raw string) {
		c.DeleteAfter = nil
		if n, ok := leadingInt(raw); ok && n >= 0 {
			c.DeleteAfter = &n
		}
	},
	FieldActionInterval: func(c *model.Chat, raw string) {
		c.ActionInterval = positiveFloatOr(raw, model.DefaultActionInterval)
	},
}

// GeneralFieldNames lists the task-level fields in form order.
func GeneralFieldNames() []string {
	return []string{FieldSignAt, FieldRandomSeconds, FieldSignInterval}
}

// ChatFieldNames lists the per-chat fields in form order.
func ChatFieldNames() []string {
	return []string{FieldChatID, FieldChatName, FieldDeleteAfter, FieldActionInterval}
}

func nonNegativeIntOr(raw string, fallback int) int {
	n, ok := leadingInt(raw)
	if !ok || n < 0 {
		return fallback
	}
	return n
}

func positiveFloatOr(raw string, fallback float64) float64 {
	f, ok := leadingFloat(raw)
	if !ok || f <= 0 || math.IsInf(f, 0) || math.IsNaN(f) {
		return fallback
	}
	return f
}

// leadingInt parses the base-10 integer prefix of s ("12s" -> 12).
func leadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// leadingFloat parses the longest decimal prefix of s ("1.5s" -> 1.5).
func leadingFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	for end := len(s); end > 0; end-- {
		if f, err := strconv.ParseFloat(s[:end], 64); err == nil {
			return f, true
		}
	}
	return 0, false
}
