package billing

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	CreateLedger(ctx context.Context, l *BillingLedger) error
	GetByAdmission(ctx context.Context, admissionID uuid.UUID) (*BillingLedger, error)
	// GetByAdmissionForUpdate locks the ledger row for the duration of the
	// surrounding transaction so concurrent postings serialize.
	GetByAdmissionForUpdate(ctx context.Context, admissionID uuid.UUID) (*BillingLedger, error)
	UpdateLedger(ctx context.Context, l *BillingLedger) error

	CreatePayment(ctx context.Context, p *Payment) error
	ListPayments(ctx context.Context, ledgerID uuid.UUID) ([]*Payment, error)
}
