package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a machine-readable error code
type ErrorCode string

const (
	// Order Errors (ORDER_*)
	ErrorCodeOrderNotFound      ErrorCode = "ORDER_NOT_FOUND"
	ErrorCodeOrderNotSettleable ErrorCode = "ORDER_NOT_SETTLEABLE"

	// Settlement Errors (SETTLEMENT_*)
	ErrorCodeSettlementNotFound     ErrorCode = "SETTLEMENT_NOT_FOUND"
	ErrorCodeSettlementInvalidState ErrorCode = "SETTLEMENT_INVALID_STATE"
	ErrorCodeSettlementDuplicate    ErrorCode = "SETTLEMENT_DUPLICATE"

	// Aggregation Errors (AGGREGATION_*)
	ErrorCodeAggregationFailed ErrorCode = "AGGREGATION_FAILED"

	// Validation Errors (VALIDATION_*)
	ErrorCodeValidationFailed       ErrorCode = "VALIDATION_FAILED"
	ErrorCodeValidationMissingField ErrorCode = "VALIDATION_MISSING_FIELD"
	ErrorCodeValidationInvalidRange ErrorCode = "VALIDATION_INVALID_RANGE"

	// Internal Errors (INTERNAL_*)
	ErrorCodeInternalError ErrorCode = "INTERNAL_ERROR"
	ErrorCodeDatabaseError ErrorCode = "INTERNAL_DATABASE_ERROR"
	ErrorCodeCacheError    ErrorCode = "INTERNAL_CACHE_ERROR"
)

// DomainError represents a structured domain error with error code and context
type DomainError struct {
	Err     error
	Details map[string]interface{}
	Code    ErrorCode
	Message string
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

// WithDetail adds a detail field to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(code ErrorCode, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// WrapError wraps an existing error with a domain error code
func WrapError(code ErrorCode, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Err:     err,
	}
}

// IsDomainError checks if an error is a DomainError with the given code
func IsDomainError(err error, code ErrorCode) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error, returns empty string if not a DomainError
func GetErrorCode(err error) ErrorCode {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}

// IsNotFoundError checks if an error represents a "not found" condition
func IsNotFoundError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeOrderNotFound || code == ErrorCodeSettlementNotFound
}

// IsInvalidStateError checks if an error is a settlement state-machine violation
func IsInvalidStateError(err error) bool {
	return GetErrorCode(err) == ErrorCodeSettlementInvalidState
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeValidationFailed ||
		code == ErrorCodeValidationMissingField ||
		code == ErrorCodeValidationInvalidRange
}

// Structured error instances
var (
	ErrOrderNotFound      = NewDomainError(ErrorCodeOrderNotFound, "order not found")
	ErrOrderNotSettleable = NewDomainError(ErrorCodeOrderNotSettleable, "order payment is not completed")

	ErrSettlementNotFound  = NewDomainError(ErrorCodeSettlementNotFound, "settlement not found")
	ErrSettlementDuplicate = NewDomainError(ErrorCodeSettlementDuplicate, "settlement already generated for order")

	ErrValidationMissingField = NewDomainError(ErrorCodeValidationMissingField, "required field missing")
	ErrValidationInvalidRange = NewDomainError(ErrorCodeValidationInvalidRange, "invalid date range")

	ErrInternalError = NewDomainError(ErrorCodeInternalError, "internal server error")
	ErrDatabaseError = NewDomainError(ErrorCodeDatabaseError, "database error")
)
