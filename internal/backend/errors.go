package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var ErrUnreachable = errors.New("backend unreachable")

// ResponseError is a non-2xx answer from the backend.
type ResponseError struct {
	StatusCode  int
	Message     string
	FieldErrors map[string][]string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("backend responded statusCode=%d message=%s", e.StatusCode, e.Message)
}

func AsResponseError(err error) (*ResponseError, bool) {
	var target *ResponseError
	ok := errors.As(err, &target)
	return target, ok
}

func IsNotFound(err error) bool {
	respErr, ok := AsResponseError(err)
	return ok && respErr.StatusCode == http.StatusNotFound
}

// newResponseError reads the three error shapes the backend produces:
// {"detail": ...}, {"error": ...} and field errors {"field": ["msg"]}. A bare
// list of messages is also accepted.
func newResponseError(statusCode int, body []byte) *ResponseError {
	respErr := &ResponseError{StatusCode: statusCode, FieldErrors: map[string][]string{}}

	var messages []string
	if err := json.Unmarshal(body, &messages); err == nil && len(messages) > 0 {
		respErr.Message = messages[0]
		return respErr
	}

	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &fields); err != nil {
		respErr.Message = fallbackMessage(statusCode, body)
		return respErr
	}

	for _, key := range []string{"detail", "error", "message"} {
		var message string
		if raw, ok := fields[key]; ok && json.Unmarshal(raw, &message) == nil && message != "" {
			respErr.Message = message
			return respErr
		}
	}

	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		var list []string
		var single string
		switch {
		case json.Unmarshal(fields[key], &list) == nil:
		case json.Unmarshal(fields[key], &single) == nil:
			list = []string{single}
		default:
			continue
		}
		if len(list) == 0 {
			continue
		}
		respErr.FieldErrors[key] = list
		if respErr.Message == "" {
			if key == "non_field_errors" {
				respErr.Message = list[0]
			} else {
				respErr.Message = key + ": " + list[0]
			}
		}
	}
	if respErr.Message == "" {
		respErr.Message = fallbackMessage(statusCode, body)
	}
	return respErr
}

func fallbackMessage(statusCode int, body []byte) string {
	text := strings.TrimSpace(string(body))
	if text != "" && len(text) <= 200 && !strings.HasPrefix(text, "<") {
		return text
	}
	return http.StatusText(statusCode)
}
