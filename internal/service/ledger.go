package service

import (
	"context"
	"time"

	"github.com/segyhp/debt-engine/internal/domain"
)

// PaymentRecords lists ledger entries matching filter, newest first.
func (s *DebtService) PaymentRecords(ctx context.Context, filter domain.PaymentRecordFilter) []*domain.PaymentRecord {
	var records []*domain.PaymentRecord
	s.read(func(snapshot *domain.Snapshot, _ time.Time) {
		records = make([]*domain.PaymentRecord, 0, len(snapshot.PaymentRecords))
		for i := len(snapshot.PaymentRecords) - 1; i >= 0; i-- {
			r := snapshot.PaymentRecords[i]
			if !filter.Match(r) {
				continue
			}
			v := *r
			records = append(records, &v)
		}
	})
	return records
}
