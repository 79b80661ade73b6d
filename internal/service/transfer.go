package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segyhp/debt-engine/internal/domain"
	"github.com/segyhp/debt-engine/internal/repository"
	customError "github.com/segyhp/debt-engine/pkg/errors"
)

// Import replaces the whole snapshot with document. Nothing is merged.
func (s *DebtService) Import(ctx context.Context, document []byte) error {
	snapshot, err := s.decodeImport(document)
	if err != nil {
		return err
	}

	err = s.mutate(ctx, func(tx *txn) error {
		tx.Snapshot = snapshot
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "snapshot imported",
		"next_month_loans", len(snapshot.NextMonthLoans),
		"installment_loans", len(snapshot.InstallmentLoans),
		"payment_records", len(snapshot.PaymentRecords),
	)
	return nil
}

func (s *DebtService) decodeImport(document []byte) (*domain.Snapshot, error) {
	if len(document) > repository.MaxSnapshotBytes {
		return nil, customError.WrapImportSchema(fmt.Sprintf("document exceeds %d bytes", repository.MaxSnapshotBytes))
	}

	// 1. Shape checks on the raw document
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(document, &raw); err != nil || raw == nil {
		return nil, customError.WrapImportSchema("document must be a JSON object")
	}
	for _, key := range []string{"nextMonthLoans", "installmentLoans"} {
		if !isArray(raw[key]) {
			return nil, customError.WrapImportSchema(fmt.Sprintf("%s must be an array", key))
		}
	}
	if platforms, ok := raw["platforms"]; ok && !isNull(platforms) && !isArray(platforms) {
		return nil, customError.WrapImportSchema("platforms must be an array")
	}

	// 2. Typed decode
	var snapshot domain.Snapshot
	if err := json.Unmarshal(document, &snapshot); err != nil {
		return nil, customError.WrapImportSchema(fmt.Sprintf("document does not match the snapshot schema: %v", err))
	}
	for _, loan := range snapshot.NextMonthLoans {
		if loan == nil {
			return nil, customError.WrapImportSchema("nextMonthLoans must not contain null entries")
		}
	}
	for _, loan := range snapshot.InstallmentLoans {
		if loan == nil {
			return nil, customError.WrapImportSchema("installmentLoans must not contain null entries")
		}
		for _, inst := range loan.Installments {
			if inst == nil {
				return nil, customError.WrapImportSchema("installments must not contain null entries")
			}
		}
		if loan.Installments == nil {
			loan.Installments = []*domain.Installment{}
		}
	}
	for _, record := range snapshot.PaymentRecords {
		if record == nil {
			return nil, customError.WrapImportSchema("paymentRecords must not contain null entries")
		}
	}

	// 3. Defaults for optional sections
	snapshot.EnsureDefaults(s.opts.DefaultMinPaymentRate)
	return &snapshot, nil
}

func isArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// Export renders the live snapshot as indented JSON.
func (s *DebtService) Export(ctx context.Context) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	s.read(func(snapshot *domain.Snapshot, _ time.Time) {
		data, err = json.MarshalIndent(snapshot, "", "  ")
	})
	if err != nil {
		return nil, fmt.Errorf("failed to export snapshot: %w", err)
	}
	return data, nil
}

// Reset discards everything and starts over from the default registry.
func (s *DebtService) Reset(ctx context.Context) error {
	err := s.mutate(ctx, func(tx *txn) error {
		tx.Snapshot = domain.NewSnapshot(s.opts.DefaultMinPaymentRate)
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.WarnContext(ctx, "snapshot reset")
	return nil
}
