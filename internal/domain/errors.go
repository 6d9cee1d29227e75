package domain

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	CodeAuthRequired         ErrorCode = "AUTH_REQUIRED"
	CodeNotFound             ErrorCode = "NOT_FOUND"
	CodeValidation           ErrorCode = "VALIDATION_ERROR"
	CodeInvalidPassengerData ErrorCode = "INVALID_PASSENGER_DATA"
	CodeOfferExpired         ErrorCode = "OFFER_EXPIRED"
	CodeServiceUnavailable   ErrorCode = "SERVICE_UNAVAILABLE"
	CodePaymentRequired      ErrorCode = "PAYMENT_REQUIRED"
	CodeInvalidState         ErrorCode = "INVALID_STATE"
	CodeConflict             ErrorCode = "CONFLICT"
	CodeUpstreamFailure      ErrorCode = "UPSTREAM_FAILURE"
)

// HTTPStatus maps a code to the status transport adapters answer with.
func (c ErrorCode) HTTPStatus() int {
	switch c {
	case CodeAuthRequired:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeValidation, CodeInvalidPassengerData:
		return http.StatusBadRequest
	case CodeOfferExpired:
		return http.StatusGone
	case CodeServiceUnavailable, CodeInvalidState, CodeConflict:
		return http.StatusConflict
	case CodePaymentRequired:
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

// Error is the only error type returned across the service boundary.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(code ErrorCode, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

func WrapError(code ErrorCode, msg string, err error) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

func ErrAuthRequired() *Error {
	return NewError(CodeAuthRequired, "authentication required")
}

func ErrOrderNotFound() *Error {
	return NewError(CodeNotFound, "order not found")
}

func ErrValidation(format string, args ...any) *Error {
	return NewError(CodeValidation, fmt.Sprintf(format, args...))
}

func ErrInvalidState(format string, args ...any) *Error {
	return NewError(CodeInvalidState, fmt.Sprintf(format, args...))
}

// CodeOf returns the taxonomy code of err, UPSTREAM_FAILURE for anything unclassified.
func CodeOf(err error) ErrorCode {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeUpstreamFailure
}
