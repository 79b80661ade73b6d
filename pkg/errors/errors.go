package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrValidation          = errors.New("validation failed")
	ErrLoanNotFound        = errors.New("loan not found")
	ErrInstallmentNotFound = errors.New("installment not found")
	ErrPlatformNotFound    = errors.New("platform not found")
	ErrPlatformExists      = errors.New("platform already exists")
	ErrPlatformProtected   = errors.New("platform is protected")
	ErrPlatformInUse       = errors.New("platform is referenced by a loan")
	ErrLoanAlreadyPaid     = errors.New("loan is already paid")
	ErrBelowMinimumPayment = errors.New("payment is below the minimum payment")
	ErrPersistence         = errors.New("persistence failed")
	ErrImportSchema        = errors.New("invalid import document")
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
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodeLoanNotFound        = "LOAN_NOT_FOUND"
	ErrCodeInstallmentNotFound = "INSTALLMENT_NOT_FOUND"
	ErrCodePlatformNotFound    = "PLATFORM_NOT_FOUND"
	ErrCodePlatformExists      = "PLATFORM_ALREADY_EXISTS"
	ErrCodePlatformProtected   = "PLATFORM_PROTECTED"
	ErrCodePlatformInUse       = "PLATFORM_IN_USE"
	ErrCodeLoanAlreadyPaid     = "LOAN_ALREADY_PAID"
	ErrCodeBelowMinimumPayment = "BELOW_MINIMUM_PAYMENT"
	ErrCodePersistence         = "PERSISTENCE_ERROR"
	ErrCodeImportSchema        = "IMPORT_SCHEMA_ERROR"
)

// Wrap common errors with business context
func WrapValidation(message string) *BusinessError {
	return NewBusinessError(
		ErrCodeValidation,
		message,
		ErrValidation,
	)
}

func WrapLoanNotFound(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanNotFound,
		fmt.Sprintf("Loan with ID %s not found", loanID),
		ErrLoanNotFound,
	)
}

func WrapInstallmentNotFound(loanID, installmentID string) *BusinessError {
	return NewBusinessError(
		ErrCodeInstallmentNotFound,
		fmt.Sprintf("Installment %s of loan %s not found", installmentID, loanID),
		ErrInstallmentNotFound,
	)
}

func WrapPlatformNotFound(name string) *BusinessError {
	return NewBusinessError(
		ErrCodePlatformNotFound,
		fmt.Sprintf("Platform %q not found", name),
		ErrPlatformNotFound,
	)
}

func WrapPlatformExists(name string) *BusinessError {
	return NewBusinessError(
		ErrCodePlatformExists,
		fmt.Sprintf("Platform %q already exists", name),
		ErrPlatformExists,
	)
}

func WrapPlatformProtected(name string) *BusinessError {
	return NewBusinessError(
		ErrCodePlatformProtected,
		fmt.Sprintf("Platform %q cannot be added or removed", name),
		ErrPlatformProtected,
	)
}

func WrapPlatformInUse(name string) *BusinessError {
	return NewBusinessError(
		ErrCodePlatformInUse,
		fmt.Sprintf("Platform %q has loans and cannot be removed", name),
		ErrPlatformInUse,
	)
}

func WrapLoanAlreadyPaid(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanAlreadyPaid,
		fmt.Sprintf("Loan with ID %s is already paid", loanID),
		ErrLoanAlreadyPaid,
	)
}

func WrapBelowMinimumPayment(minimum, actual string) *BusinessError {
	return NewBusinessError(
		ErrCodeBelowMinimumPayment,
		fmt.Sprintf("Payment amount %s is below the minimum payment %s", actual, minimum),
		ErrBelowMinimumPayment,
	)
}

func WrapPersistenceError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodePersistence,
		"snapshot could not be persisted",
		errors.Join(ErrPersistence, err),
	)
}

func WrapImportSchema(message string) *BusinessError {
	return NewBusinessError(
		ErrCodeImportSchema,
		message,
		ErrImportSchema,
	)
}

// CodeOf returns the business error code carried by err, or "" if none.
func CodeOf(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}
