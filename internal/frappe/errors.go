package frappe

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// TransportError reports that a remote call did not complete: the request
// could not be sent, the connection failed, or the response was unreadable.
type TransportError struct {
	Method  string
	Message string
	Cause   error
}

func (e *TransportError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("frappe call %s: %s: %v", e.Method, e.Message, e.Cause)
	}
	return fmt.Sprintf("frappe call %s: %s", e.Method, e.Message)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// ApplicationError reports that the backend completed the call but rejected it.
type ApplicationError struct {
	Method     string
	StatusCode int
	ExcType    string
	Messages   []string
}

func (e *ApplicationError) Error() string {
	return fmt.Sprintf("frappe call %s failed: %s", e.Method, e.Detail())
}

// Detail is the most specific human-readable description available.
func (e *ApplicationError) Detail() string {
	if len(e.Messages) > 0 {
		return strings.Join(e.Messages, "; ")
	}
	if e.ExcType != "" {
		return e.ExcType
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("HTTP %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return "Unknown error"
}

// Detail returns the text shown to an operator for a failed call. Both error
// kinds are presented the same way.
func Detail(err error) string {
	if err == nil {
		return ""
	}
	var appErr *ApplicationError
	if errors.As(err, &appErr) {
		return appErr.Detail()
	}
	var trErr *TransportError
	if errors.As(err, &trErr) {
		if trErr.Cause != nil {
			return fmt.Sprintf("%s: %v", trErr.Message, trErr.Cause)
		}
		return trErr.Message
	}
	return err.Error()
}

// IsTransport reports whether err is a TransportError.
func IsTransport(err error) bool {
	var trErr *TransportError
	return errors.As(err, &trErr)
}

// IsNotFound reports whether the backend answered that a document does not exist.
func IsNotFound(err error) bool {
	var appErr *ApplicationError
	if !errors.As(err, &appErr) {
		return false
	}
	return appErr.StatusCode == http.StatusNotFound || appErr.ExcType == "DoesNotExistError"
}
