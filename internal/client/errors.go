package client

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// FetchError covers transport failures, undecodable responses and any error
// status without a more specific meaning.
type FetchError struct {
	Op     string
	Status int
	Detail string
	Err    error
}

func (e *FetchError) Error() string {
	switch {
	case e.Detail != "":
		return e.Detail
	case e.Err != nil:
		return e.Err.Error()
	case e.Status != 0:
		return fmt.Sprintf("%d %s", e.Status, http.StatusText(e.Status))
	default:
		return e.Op + " failed"
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

type NotFoundError struct {
	Detail string
}

func (e *NotFoundError) Error() string {
	if e.Detail == "" {
		return "not found"
	}
	return e.Detail
}

type ConflictError struct {
	Detail string
}

func (e *ConflictError) Error() string {
	if e.Detail == "" {
		return "already exists"
	}
	return e.Detail
}

// Issue is one field-level problem reported by the store. Location holds the
// path segments into the submitted config, e.g. ["chats", "0", "chat_id"].
type Issue struct {
	Location []string
	Message  string
}

func (i Issue) Path() string {
	if len(i.Location) == 0 {
		return "config"
	}
	return strings.Join(i.Location, ".")
}

// ValidationError is a rejected save. Issues is empty when the store sent an
// unstructured detail string instead.
type ValidationError struct {
	Issues []Issue
	Detail string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		if e.Detail == "" {
			return "validation failed"
		}
		return e.Detail
	}
	parts := make([]string, 0, len(e.Issues))
	for _, it := range e.Issues {
		parts = append(parts, it.Path()+": "+it.Message)
	}
	return strings.Join(parts, "; ")
}

func locationSegments(loc []any) []string {
	out := make([]string, 0, len(loc))
	for _, seg := range loc {
		switch v := seg.(type) {
		case string:
			out = append(out, v)
		case float64:
			out = append(out, strconv.FormatFloat(v, 'f', -1, 64))
		default:
			out = append(out, fmt.Sprint(v))
		}
	}
	return out
}
