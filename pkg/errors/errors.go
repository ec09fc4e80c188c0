package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Domain errors
var (
	ErrScheduleNotFound  = errors.New("schedule not found")
	ErrQuotationNotFound = errors.New("quotation not found")
	ErrContractNotFound  = errors.New("contract not found")
	ErrAlreadyPaid       = errors.New("schedule is already paid")
	ErrInvalidInput      = errors.New("invalid input")
	ErrCannotDeletePaid  = errors.New("cannot delete a paid schedule")
	ErrStorage           = errors.New("storage failure")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeScheduleNotFound  = "SCHEDULE_NOT_FOUND"
	ErrCodeQuotationNotFound = "QUOTATION_NOT_FOUND"
	ErrCodeContractNotFound  = "CONTRACT_NOT_FOUND"
	ErrCodeAlreadyPaid       = "ALREADY_PAID"
	ErrCodeInvalidInput      = "INVALID_INPUT"
	ErrCodeCannotDeletePaid  = "CANNOT_DELETE_PAID"
	ErrCodeDatabaseError     = "DATABASE_ERROR"
	ErrCodeCacheError        = "CACHE_ERROR"
)

func WrapScheduleNotFound(scheduleID string) *BusinessError {
	return NewBusinessError(
		ErrCodeScheduleNotFound,
		fmt.Sprintf("Schedule with ID %s not found", scheduleID),
		ErrScheduleNotFound,
	)
}

func WrapQuotationNotFound(quotationID string) *BusinessError {
	return NewBusinessError(
		ErrCodeQuotationNotFound,
		fmt.Sprintf("Quotation with ID %s not found", quotationID),
		ErrQuotationNotFound,
	)
}

func WrapContractNotFound(contractID string) *BusinessError {
	return NewBusinessError(
		ErrCodeContractNotFound,
		fmt.Sprintf("Contract with ID %s not found", contractID),
		ErrContractNotFound,
	)
}

func WrapAlreadyPaid(scheduleID string) *BusinessError {
	return NewBusinessError(
		ErrCodeAlreadyPaid,
		fmt.Sprintf("Schedule with ID %s is already paid", scheduleID),
		ErrAlreadyPaid,
	)
}

// WrapConflict reports a write that would break the single paid transition rule.
func WrapConflict(message string) *BusinessError {
	return NewBusinessError(ErrCodeAlreadyPaid, message, ErrAlreadyPaid)
}

func WrapInvalidInput(message string) *BusinessError {
	return NewBusinessError(ErrCodeInvalidInput, message, ErrInvalidInput)
}

func WrapCannotDeletePaid(scheduleID string) *BusinessError {
	return NewBusinessError(
		ErrCodeCannotDeletePaid,
		fmt.Sprintf("Schedule with ID %s is paid and cannot be deleted", scheduleID),
		ErrCannotDeletePaid,
	)
}

// WrapDatabaseError wraps a store error as "failed to <operation>: <cause>".
func WrapDatabaseError(operation string, err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		fmt.Sprintf("failed to %s: %v", operation, err),
		fmt.Errorf("%w: %w", ErrStorage, err),
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeCacheError,
		"Cache operation failed",
		err,
	)
}

// StatusCode maps an error to the HTTP status its category stands for.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrScheduleNotFound),
		errors.Is(err, ErrQuotationNotFound),
		errors.Is(err, ErrContractNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyPaid), errors.Is(err, ErrCannotDeletePaid):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Code returns the business code carried by err, if any.
func Code(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code
	}
	return ErrCodeDatabaseError
}
