package sqlbroker

import (
	"errors"
	"fmt"
)

// Error represents a sqlbroker error with categorization.
type Error struct {
	// Code is a machine-readable error code
	Code string

	// Message is a human-readable error message
	Message string

	// Err is the underlying error (if any)
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Error codes for broker operations.
const (
	// ErrCodeNoData indicates no data was found.
	ErrCodeNoData = "NO_DATA"

	// ErrCodeValidation indicates validation failed.
	ErrCodeValidation = "VALIDATION_ERROR"

	// ErrCodeConfiguration indicates invalid configuration.
	ErrCodeConfiguration = "CONFIGURATION_ERROR"

	// ErrCodeDatabase indicates database operation failed.
	ErrCodeDatabase = "DATABASE_ERROR"

	// ErrCodeIO indicates a message could not be handed to the shared table.
	// Send reports every storage failure with this code.
	ErrCodeIO = "IO_ERROR"

	// ErrCodeStartup indicates the messenger table or watermark could not be prepared.
	ErrCodeStartup = "STARTUP_ERROR"

	// ErrCodeDecode indicates a stored payload could not be decoded.
	ErrCodeDecode = "DECODE_ERROR"
)

// Common errors.
var (
	// ErrNoData is returned when a query returns no results.
	// This is not necessarily an error condition in all cases.
	ErrNoData = &Error{
		Code:    ErrCodeNoData,
		Message: "no data found",
	}

	// ErrSourceClosed is returned by a Source after Close.
	ErrSourceClosed = &Error{
		Code:    ErrCodeIO,
		Message: "source is closed",
	}
)

// NewError creates a new Error with the given code and message.
func NewError(code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// NewErrorWithCause creates a new Error wrapping an underlying error.
func NewErrorWithCause(code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     cause,
	}
}

// IsNoData checks if an error is ErrNoData.
func IsNoData(err error) bool {
	return hasCode(err, ErrCodeNoData) || errors.Is(err, ErrNoData)
}

// IsIO checks if an error was reported by the publish path as a transport failure.
func IsIO(err error) bool {
	return hasCode(err, ErrCodeIO)
}

// IsValidation checks if an error is a validation failure.
func IsValidation(err error) bool {
	return hasCode(err, ErrCodeValidation)
}

func hasCode(err error, code string) bool {
	var brokerErr *Error
	if errors.As(err, &brokerErr) {
		return brokerErr.Code == code
	}
	return false
}
