package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated with strava")
	ErrInvalidGrant     = errors.New("authorization grant is invalid or expired")
	ErrInvalidState     = errors.New("oauth state is invalid")

	// Remote API rejected the access token (401 or 403)
	ErrUnauthorized = errors.New("access token rejected")

	ErrFetchInProgress = errors.New("activities request already in progress")
	ErrInvalidCriteria = errors.New("filter criteria are invalid")

	ErrNotEnoughActivities = errors.New("not enough activities for a suggestion")
)

// AuthError is returned when the code exchange or token refresh fails
type AuthError struct {
	Op  string // "exchange", "refresh" or "load"
	Err error
}

func NewAuthError(op string, err error) *AuthError {
	return &AuthError{Op: op, Err: err}
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth %s failed: %v", e.Op, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// FetchError is returned when an activity page request fails.
// StatusCode is zero when the request never got a response.
type FetchError struct {
	Page       int
	StatusCode int
	Err        error
}

func NewFetchError(page int, statusCode int, err error) *FetchError {
	return &FetchError{Page: page, StatusCode: statusCode, Err: err}
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch page %d failed, status %d: %v", e.Page, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch page %d failed: %v", e.Page, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ValidationError describes malformed filter criteria
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field string, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidCriteria
}
