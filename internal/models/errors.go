package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Error codes shared by services and the HTTP layer.
const (
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeNoActiveProfile = "NO_ACTIVE_PROFILE"
	CodeValidation      = "VALIDATION_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeForbidden       = "FORBIDDEN"
	CodeConflict        = "CONFLICT"
	CodeUnavailable     = "UNAVAILABLE"
	CodeRateLimited     = "RATE_LIMITED"
	CodeInternal        = "INTERNAL_ERROR"
)

// InvalidID names one offending identifier inside a validation failure.
type InvalidID struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// AppError represents a custom application error
type AppError struct {
	Code       string
	Message    string
	Err        error
	InvalidIDs []InvalidID
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Status maps the error code onto an HTTP status.
func (e *AppError) Status() int {
	switch e.Code {
	case CodeUnauthenticated:
		return fiber.StatusUnauthorized
	case CodeNoActiveProfile, CodeForbidden:
		return fiber.StatusForbidden
	case CodeValidation:
		return fiber.StatusBadRequest
	case CodeNotFound:
		return fiber.StatusNotFound
	case CodeConflict:
		return fiber.StatusConflict
	case CodeUnavailable:
		return fiber.StatusServiceUnavailable
	case CodeRateLimited:
		return fiber.StatusTooManyRequests
	default:
		return fiber.StatusInternalServerError
	}
}

func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s %v not found", resource, id),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

// NewInvalidIDsError reports every offending id at once.
func NewInvalidIDsError(message string, ids []InvalidID) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		InvalidIDs: ids,
	}
}

func NewUnauthenticatedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthenticated,
		Message: message,
	}
}

func NewNoActiveProfileError() *AppError {
	return &AppError{
		Code:    CodeNoActiveProfile,
		Message: "an active profile is required for this action",
	}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{
		Code:    CodeForbidden,
		Message: message,
	}
}

func NewConflictError(message string) *AppError {
	return &AppError{
		Code:    CodeConflict,
		Message: message,
	}
}

func NewUnavailableError(message string, err error) *AppError {
	return &AppError{
		Code:    CodeUnavailable,
		Message: message,
		Err:     err,
	}
}

func NewRateLimitedError(message string) *AppError {
	return &AppError{
		Code:    CodeRateLimited,
		Message: message,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// IsCode reports whether err is an AppError carrying code.
func IsCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// Problem is the JSON body of every failed request.
type Problem struct {
	Title      string      `json:"title"`
	Status     int         `json:"status"`
	Detail     string      `json:"detail,omitempty"`
	Code       string      `json:"code"`
	InvalidIDs []InvalidID `json:"invalid_ids,omitempty"`
}

var problemTitles = map[string]string{
	CodeUnauthenticated: "Authentication required",
	CodeNoActiveProfile: "No active profile",
	CodeValidation:      "Invalid request",
	CodeNotFound:        "Not found",
	CodeForbidden:       "Forbidden",
	CodeConflict:        "Conflict",
	CodeUnavailable:     "Service unavailable",
	CodeRateLimited:     "Too many requests",
	CodeInternal:        "Internal server error",
}

// NewProblem renders err as a problem object. Errors that are not AppErrors
// become opaque internal errors.
func NewProblem(err error) Problem {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		appErr = NewInternalError(err)
	}

	p := Problem{
		Title:      problemTitles[appErr.Code],
		Status:     appErr.Status(),
		Code:       appErr.Code,
		InvalidIDs: appErr.InvalidIDs,
	}
	if p.Title == "" {
		p.Title = problemTitles[CodeInternal]
	}
	// Internal causes never leak to clients.
	if appErr.Code != CodeInternal {
		p.Detail = strings.TrimSpace(appErr.Message)
	}
	return p
}

// RespondWithError writes err as an application/problem+json response.
func RespondWithError(c *fiber.Ctx, err error) error {
	p := NewProblem(err)
	c.Status(p.Status)
	c.Set(fiber.HeaderContentType, "application/problem+json")
	return c.JSON(p, "application/problem+json")
}
