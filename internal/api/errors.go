package api

import (
	"errors"
	"fmt"

	"github.com/workboardhq/workboard/pkg/models"
)

// ErrorCode classifies a failed call through the request pipeline. Every
// failed call produces exactly one of these.
type ErrorCode string

const (
	// ErrNetwork means no usable response was received. Never retried by
	// the pipeline.
	ErrNetwork ErrorCode = "NETWORK_ERROR"

	// ErrAuthExpired means the backend rejected the session credential.
	// The credential has already been cleared when this error is returned.
	ErrAuthExpired ErrorCode = "AUTH_EXPIRED"

	// ErrBusiness means the transport succeeded but the envelope carried a
	// non-200 code.
	ErrBusiness ErrorCode = "BUSINESS_ERROR"
)

// Error is the typed failure returned by the pipeline.
type Error struct {
	// Code categorizes the failure.
	Code ErrorCode

	// Message is the short human-readable failure text shown to users.
	Message string

	// Status is the envelope code for business errors, zero otherwise.
	Status int

	// Envelope is the full response envelope for business errors, so
	// callers can inspect it programmatically.
	Envelope *models.Envelope

	// Err is the underlying transport error, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	if e.Status != 0 {
		return fmt.Sprintf("[%s] %d: %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *Error) Unwrap() error {
	return e.Err
}

func newNetworkError(message string, err error) *Error {
	return &Error{Code: ErrNetwork, Message: message, Err: err}
}

func newAuthExpiredError() *Error {
	return &Error{Code: ErrAuthExpired, Message: "session expired, please log in again"}
}

func newBusinessError(env *models.Envelope) *Error {
	message := env.Message
	if message == "" {
		message = "request failed"
	}
	return &Error{Code: ErrBusiness, Message: message, Status: env.Code, Envelope: env}
}

// IsNetwork reports whether err is a pipeline network failure.
func IsNetwork(err error) bool {
	return hasCode(err, ErrNetwork)
}

// IsAuthExpired reports whether err is an expired-session failure.
func IsAuthExpired(err error) bool {
	return hasCode(err, ErrAuthExpired)
}

// IsBusiness reports whether err is an envelope-level business error.
func IsBusiness(err error) bool {
	return hasCode(err, ErrBusiness)
}

func hasCode(err error, code ErrorCode) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Code == code
}
