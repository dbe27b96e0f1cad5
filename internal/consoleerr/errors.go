package consoleerr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation     = errors.New("validation failed")
	ErrTransport      = errors.New("transport failure")
	ErrApplication    = errors.New("registry rejected request")
	ErrControlBusy    = errors.New("control is disabled while a request is in flight")
	ErrTaskIDRequired = errors.New("task id is required")
	ErrUnknownKind    = errors.New("unknown resource kind")
	ErrStaleUpload    = errors.New("upload finished after the form was reset")
	ErrFileTooLarge   = errors.New("file too large")
	ErrRefreshSkipped = errors.New("refresh already in flight")
)

// ValidationError is a local form violation. It never reaches the network.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// TransportError covers network failures and unreadable responses.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return e.Op + ": transport failure"
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// ApplicationError is a response the registry answered with success=false.
type ApplicationError struct {
	Op         string
	Message    string
	StatusCode int
}

func (e *ApplicationError) Error() string {
	message := strings.TrimSpace(e.Message)
	if message == "" {
		message = "unknown error"
	}
	return message
}

func (e *ApplicationError) Is(target error) bool {
	return target == ErrApplication
}

func Validation(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// UserMessage strips the operation prefix so alerts read like the registry's own text.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var transport *TransportError
	if errors.As(err, &transport) && transport.Err != nil {
		return transport.Err.Error()
	}
	return err.Error()
}
