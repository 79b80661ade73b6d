package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBusinessErrorUnwrap(t *testing.T) {
	tests := []struct {
		name   string
		err    *BusinessError
		target error
		code   string
	}{
		{"validation", WrapValidation("amount must be positive"), ErrValidation, ErrCodeValidation},
		{"loan not found", WrapLoanNotFound("abc"), ErrLoanNotFound, ErrCodeLoanNotFound},
		{"installment not found", WrapInstallmentNotFound("abc", "def"), ErrInstallmentNotFound, ErrCodeInstallmentNotFound},
		{"platform in use", WrapPlatformInUse("Bank"), ErrPlatformInUse, ErrCodePlatformInUse},
		{"below minimum", WrapBelowMinimumPayment("100", "50"), ErrBelowMinimumPayment, ErrCodeBelowMinimumPayment},
		{"import schema", WrapImportSchema("missing nextMonthLoans"), ErrImportSchema, ErrCodeImportSchema},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("operation: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.target)
			assert.Equal(t, tt.code, CodeOf(wrapped))
		})
	}
}

func TestWrapPersistenceErrorKeepsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := WrapPersistenceError(cause)

	assert.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "disk full")
}

func TestCodeOfPlainError(t *testing.T) {
	assert.Equal(t, "", CodeOf(errors.New("boom")))
}
