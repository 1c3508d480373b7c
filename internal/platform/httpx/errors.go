// Package httpx provides the JSON transport used to reach the operations API.
package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors classifying failed responses.
var (
	ErrBadRequest   = errors.New("request rejected")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("resource not found")
	ErrConflict     = errors.New("conflict")
	ErrRateLimited  = errors.New("rate limited")
	ErrServer       = errors.New("server error")
)

// StatusError describes a non-2xx response. It unwraps to one of the sentinels.
type StatusError struct {
	Status    int
	Method    string
	Path      string
	Detail    string
	RequestID string
	kind      error
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.kind)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *StatusError) Unwrap() error {
	return e.kind
}

// Classify maps an HTTP status code to its sentinel error. It returns nil for 2xx.
func Classify(status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized:
		return ErrUnauthorized
	case status == http.StatusForbidden:
		return ErrForbidden
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusConflict:
		return ErrConflict
	case status == http.StatusTooManyRequests:
		return ErrRateLimited
	case status >= 500:
		return ErrServer
	default:
		return ErrBadRequest
	}
}

// ProblemDetail is the error body returned by the API. Detail is either a
// string or a list of field errors.
type ProblemDetail struct {
	Type   string          `json:"type,omitempty"`
	Title  string          `json:"title,omitempty"`
	Status int             `json:"status,omitempty"`
	Detail json.RawMessage `json:"detail,omitempty"`
}

type fieldProblem struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

// describe extracts a human readable message from an error body.
func describe(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return ""
	}
	var problem ProblemDetail
	if err := json.Unmarshal(body, &problem); err != nil {
		return truncate(trimmed)
	}
	if len(problem.Detail) > 0 {
		var text string
		if err := json.Unmarshal(problem.Detail, &text); err == nil {
			return text
		}
		var fields []fieldProblem
		if err := json.Unmarshal(problem.Detail, &fields); err == nil && len(fields) > 0 {
			parts := make([]string, 0, len(fields))
			for _, f := range fields {
				parts = append(parts, fmt.Sprintf("%v: %s", f.Loc, f.Msg))
			}
			return strings.Join(parts, "; ")
		}
	}
	if problem.Title != "" {
		return problem.Title
	}
	return truncate(trimmed)
}

func truncate(s string) string {
	const max = 256
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
