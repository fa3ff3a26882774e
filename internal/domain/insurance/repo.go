package insurance

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	CreatePreAuth(ctx context.Context, p *PreAuth) error
	GetPreAuth(ctx context.Context, id uuid.UUID) (*PreAuth, error)
	// GetPreAuthForUpdate locks the row for the enclosing transaction.
	GetPreAuthForUpdate(ctx context.Context, id uuid.UUID) (*PreAuth, error)
	UpdatePreAuth(ctx context.Context, p *PreAuth) error
	ListPreAuthsByAdmission(ctx context.Context, admissionID uuid.UUID) ([]*PreAuth, error)

	CreateClaim(ctx context.Context, c *InsuranceClaim) error
	GetClaim(ctx context.Context, id uuid.UUID) (*InsuranceClaim, error)
	// GetClaimForUpdate locks the claim row so concurrent ledger
	// applications against the same claim serialize.
	GetClaimForUpdate(ctx context.Context, id uuid.UUID) (*InsuranceClaim, error)
	UpdateClaim(ctx context.Context, c *InsuranceClaim) error
	ListClaimsByAdmission(ctx context.Context, admissionID uuid.UUID) ([]*InsuranceClaim, error)
}
