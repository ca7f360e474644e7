package carcin

import (
	"fmt"
	"strings"
)

// NetworkError means the request never produced an HTTP response.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("carcin: request failed: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServiceError is a response outside the success range. Payload holds the
// decoded JSON error body.
type ServiceError struct {
	StatusCode int
	Payload    map[string]any
	Body       []byte
}

func (e *ServiceError) Error() string {
	if msg := e.Message(); msg != "" {
		return fmt.Sprintf("carcin: service returned %d: %s", e.StatusCode, msg)
	}
	return fmt.Sprintf("carcin: service returned %d", e.StatusCode)
}

// Message digs a human readable message out of the payload. carc.in nests
// it under "error" or "errors" depending on the failure.
func (e *ServiceError) Message() string {
	return findMessage(e.Payload)
}

func findMessage(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		for _, key := range []string{"message", "error", "errors"} {
			if inner, ok := t[key]; ok {
				if msg := findMessage(inner); msg != "" {
					return msg
				}
			}
		}
	case []any:
		var parts []string
		for _, item := range t {
			if msg := findMessage(item); msg != "" {
				parts = append(parts, msg)
			}
		}
		return strings.Join(parts, "; ")
	}
	return ""
}

// MalformedResponseError is a response body that could not be decoded.
type MalformedResponseError struct {
	StatusCode int
	Err        error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("carcin: malformed response (status %d): %v", e.StatusCode, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }
