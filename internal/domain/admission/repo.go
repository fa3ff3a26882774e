package admission

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, a *Admission) error
	GetByID(ctx context.Context, id uuid.UUID) (*Admission, error)
	// GetByIDForUpdate locks the admission row so concurrent transfers and
	// discharges of the same admission serialize.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*Admission, error)
	Update(ctx context.Context, a *Admission) error
	List(ctx context.Context, limit, offset int) ([]*Admission, int, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Admission, int, error)
	ListActive(ctx context.Context, limit, offset int) ([]*Admission, int, error)

	CreateTransfer(ctx context.Context, t *Transfer) error
	ListTransfers(ctx context.Context, admissionID uuid.UUID) ([]*Transfer, error)

	CreateDischarge(ctx context.Context, d *Discharge) error
	GetDischarge(ctx context.Context, admissionID uuid.UUID) (*Discharge, error)
}
