package common

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorType represents the category of a runtime failure
type ErrorType string

const (
	// ErrTypeTemplateNotFound indicates a markup resource is missing or unreachable
	ErrTypeTemplateNotFound ErrorType = "template_not_found"

	// ErrTypeRemoteRequestFailed indicates a network failure or non-2xx API response
	ErrTypeRemoteRequestFailed ErrorType = "remote_request_failed"

	// ErrTypeModelNotInMemory indicates a requested id is absent from the fetched collection
	ErrTypeModelNotInMemory ErrorType = "model_not_in_memory"

	// ErrTypeInvalidInput indicates a form failed validation before it was sent
	ErrTypeInvalidInput ErrorType = "invalid_input"
)

// Sentinels for errors.Is matching by type.
var (
	ErrTemplateNotFound    = &BlogError{Type: ErrTypeTemplateNotFound}
	ErrRemoteRequestFailed = &BlogError{Type: ErrTypeRemoteRequestFailed}
	ErrModelNotInMemory    = &BlogError{Type: ErrTypeModelNotInMemory}
	ErrInvalidInput        = &BlogError{Type: ErrTypeInvalidInput}
)

// BlogError is the error type surfaced to the user as a notification
type BlogError struct {
	// Type categorizes the error
	Type ErrorType `json:"type"`

	// Message provides human-readable error description
	Message string `json:"message"`

	// Resource names the view, URL or id involved
	Resource string `json:"resource,omitempty"`

	// StatusCode for HTTP-related errors
	StatusCode int `json:"status_code,omitempty"`

	// Fields carries per-field validation messages returned by the server
	Fields map[string][]string `json:"fields,omitempty"`

	// Underlying error that caused this error
	Cause error `json:"-"`
}

// Error implements the error interface
func (e *BlogError) Error() string {
	parts := []string{fmt.Sprintf("type=%s", e.Type)}

	if e.Resource != "" {
		parts = append(parts, fmt.Sprintf("resource=%s", e.Resource))
	}
	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause=%s", e.Cause.Error()))
	}

	return strings.Join(parts, ": ")
}

// Unwrap returns the underlying error
func (e *BlogError) Unwrap() error {
	return e.Cause
}

// Is matches any BlogError of the same type
func (e *BlogError) Is(target error) bool {
	if be, ok := target.(*BlogError); ok {
		return e.Type == be.Type
	}
	return false
}

// NewTemplateNotFound creates a template error for a view or partial
func NewTemplateNotFound(view string, cause error) *BlogError {
	return &BlogError{
		Type:     ErrTypeTemplateNotFound,
		Message:  "template not found",
		Resource: view,
		Cause:    cause,
	}
}

// NewRemoteRequestFailed creates a request error
func NewRemoteRequestFailed(resource string, status int, fields map[string][]string, cause error) *BlogError {
	return &BlogError{
		Type:       ErrTypeRemoteRequestFailed,
		Message:    "request failed",
		Resource:   resource,
		StatusCode: status,
		Fields:     fields,
		Cause:      cause,
	}
}

// NewModelNotInMemory creates a lookup error for an id missing from the collection
func NewModelNotInMemory(id int) *BlogError {
	return &BlogError{
		Type:     ErrTypeModelNotInMemory,
		Message:  "post is not in the loaded collection",
		Resource: fmt.Sprintf("%d", id),
	}
}

// NewInvalidInput creates a validation error carrying per-field messages
func NewInvalidInput(resource string, fields map[string][]string) *BlogError {
	return &BlogError{
		Type:     ErrTypeInvalidInput,
		Message:  "invalid input",
		Resource: resource,
		Fields:   fields,
	}
}

// UserMessage describes an error in user terms for a notification.
func UserMessage(err error) string {
	var be *BlogError
	if !errors.As(err, &be) {
		return err.Error()
	}

	switch be.Type {
	case ErrTypeTemplateNotFound:
		return fmt.Sprintf("Could not load view %q", be.Resource)
	case ErrTypeModelNotInMemory:
		return fmt.Sprintf("Post %s could not be found", be.Resource)
	case ErrTypeInvalidInput:
		return strings.Join(FieldMessages(be.Fields), " ")
	case ErrTypeRemoteRequestFailed:
		if be.StatusCode == 404 {
			return "404: Page Not Found"
		}
		if len(be.Fields) > 0 {
			return strings.Join(FieldMessages(be.Fields), " ")
		}
		if be.StatusCode > 0 {
			return fmt.Sprintf("Request failed (%d)", be.StatusCode)
		}
		return "Could not reach the blog server"
	default:
		return be.Error()
	}
}

// FieldMessages flattens per-field messages in field name order.
func FieldMessages(fields map[string][]string) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var messages []string
	for _, name := range names {
		messages = append(messages, fields[name]...)
	}
	return messages
}

// IsTemplateNotFound checks if an error is a template error
func IsTemplateNotFound(err error) bool {
	return errors.Is(err, ErrTemplateNotFound)
}

// IsRemoteRequestFailed checks if an error is a request error
func IsRemoteRequestFailed(err error) bool {
	return errors.Is(err, ErrRemoteRequestFailed)
}

// IsInvalidInput checks if an error is a form validation error
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsModelNotInMemory checks if an error is a missing-model error
func IsModelNotInMemory(err error) bool {
	return errors.Is(err, ErrModelNotInMemory)
}
