package errx

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage describes a missing Redis key.
	RedisNotFoundMessage = "redis key not found"
)

// Error wraps an underlying error with an HTTP status, a user-facing category
// and a safe message.
type Error struct {
	Err      error
	Status   int
	Category Category
	Message  string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a new Error with the provided information. The category is
// derived from the status code.
func New(err error, status int, message string) *Error {
	return &Error{
		Err:      err,
		Status:   status,
		Category: categoryForStatus(status),
		Message:  message,
	}
}

// Newf creates an Error of the given category carrying its localized message.
func Newf(category Category, format string, args ...any) *Error {
	return &Error{
		Err:      fmt.Errorf(format, args...),
		Status:   category.Status(),
		Category: category,
		Message:  UserMessage(category),
	}
}

// Wrap attaches a category to err. A nil err stays nil.
func Wrap(err error, category Category) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) && e.Category == category {
		return e
	}
	return &Error{
		Err:      err,
		Status:   category.Status(),
		Category: category,
		Message:  UserMessage(category),
	}
}

// Is reports whether the target matches the underlying error.
func (e *Error) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// As allows casting to Error or the wrapped error in a chain.
func (e *Error) As(target any) bool {
	if t, ok := target.(**Error); ok {
		*t = e
		return true
	}
	return errors.As(e.Err, target)
}

func categoryForStatus(status int) Category {
	switch {
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return CategoryValidation
	case status == http.StatusNotFound:
		return CategoryFileNotFound
	case status == http.StatusTooManyRequests:
		return CategoryRateLimit
	case status == http.StatusGatewayTimeout:
		return CategoryTimeout
	case status == http.StatusBadGateway:
		return CategoryDatabase
	default:
		return CategoryGeneral
	}
}
