package insurance

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/ipd/internal/domain/admission"
	"github.com/hms/ipd/internal/domain/billing"
	"github.com/hms/ipd/internal/platform/apperr"
	"github.com/hms/ipd/internal/platform/db"
)

// AdmissionSource verifies the admission a preauth or claim is raised
// against. Satisfied by the admission service.
type AdmissionSource interface {
	Get(ctx context.Context, id uuid.UUID) (*admission.Admission, error)
}

// LedgerApplier credits approved insurance money to the billing ledger.
// Satisfied by the billing service.
type LedgerApplier interface {
	ApplyInsurance(ctx context.Context, admissionID uuid.UUID, amount int64) (*billing.BillingLedger, error)
}

type Service struct {
	repo       Repository
	admissions AdmissionSource
	ledger     LedgerApplier
	pool       *pgxpool.Pool
}

func NewService(repo Repository, admissions AdmissionSource, ledger LedgerApplier, pool *pgxpool.Pool) *Service {
	return &Service{repo: repo, admissions: admissions, ledger: ledger, pool: pool}
}

func (s *Service) inTx(ctx context.Context, fn func(context.Context) error) error {
	if s.pool == nil {
		return fn(ctx)
	}
	return db.RunInTx(ctx, s.pool, fn)
}

func (s *Service) CreatePreAuth(ctx context.Context, admissionID uuid.UUID, estimatedAmount int64, remarks *string) (*PreAuth, error) {
	if estimatedAmount <= 0 {
		return nil, apperr.Invalidf("estimated amount must be positive")
	}
	if _, err := s.admissions.Get(ctx, admissionID); err != nil {
		return nil, err
	}
	p := &PreAuth{
		AdmissionID:     admissionID,
		EstimatedAmount: estimatedAmount,
		Status:          PreAuthPending,
		Remarks:         remarks,
	}
	if err := s.repo.CreatePreAuth(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) GetPreAuth(ctx context.Context, id uuid.UUID) (*PreAuth, error) {
	return s.repo.GetPreAuth(ctx, id)
}

func (s *Service) ListPreAuths(ctx context.Context, admissionID uuid.UUID) ([]*PreAuth, error) {
	return s.repo.ListPreAuthsByAdmission(ctx, admissionID)
}

// UpdatePreAuthStatus moves a preauth to one of its terminal states.
// Terminal preauths reject further changes; the row is locked so two
// concurrent decisions cannot both pass the PENDING check.
func (s *Service) UpdatePreAuthStatus(ctx context.Context, id uuid.UUID, newStatus string, remarks *string) (*PreAuth, error) {
	switch newStatus {
	case PreAuthPending, PreAuthApproved, PreAuthRejected, PreAuthExpired:
	default:
		return nil, apperr.Invalidf("invalid preauth status: %s", newStatus)
	}

	var out *PreAuth
	err := s.inTx(ctx, func(ctx context.Context) error {
		p, err := s.repo.GetPreAuthForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if p.Status != PreAuthPending {
			return apperr.Conflictf("preauth %s is already %s", id, p.Status)
		}
		if !preAuthTransitions[p.Status][newStatus] {
			return apperr.Invalidf("cannot transition preauth from %s to %s", p.Status, newStatus)
		}
		p.Status = newStatus
		if remarks != nil {
			p.Remarks = remarks
		}
		if err := s.repo.UpdatePreAuth(ctx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	return out, err
}

func (s *Service) CreateClaim(ctx context.Context, admissionID uuid.UUID, claimedAmount int64) (*InsuranceClaim, error) {
	if claimedAmount <= 0 {
		return nil, apperr.Invalidf("claimed amount must be positive")
	}
	if _, err := s.admissions.Get(ctx, admissionID); err != nil {
		return nil, err
	}
	c := &InsuranceClaim{
		AdmissionID:   admissionID,
		ClaimedAmount: claimedAmount,
		Status:        ClaimPending,
	}
	if err := s.repo.CreateClaim(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) GetClaim(ctx context.Context, id uuid.UUID) (*InsuranceClaim, error) {
	return s.repo.GetClaim(ctx, id)
}

func (s *Service) ListClaims(ctx context.Context, admissionID uuid.UUID) ([]*InsuranceClaim, error) {
	return s.repo.ListClaimsByAdmission(ctx, admissionID)
}

// UpdateClaimStatus advances the claim workflow. Without override the claim
// moves exactly one step forward; an administrative override may skip ahead
// (for example PENDING directly to APPROVED). Regressions are always
// rejected, and settled claims admit no further transitions. Approval
// statuses require an approved amount no larger than the claimed amount.
func (s *Service) UpdateClaimStatus(ctx context.Context, id uuid.UUID, newStatus string, approvedAmount *int64, override bool) (*InsuranceClaim, error) {
	newRank, ok := claimRank[newStatus]
	if !ok {
		return nil, apperr.Invalidf("invalid claim status: %s", newStatus)
	}

	var out *InsuranceClaim
	err := s.inTx(ctx, func(ctx context.Context) error {
		c, err := s.repo.GetClaimForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if c.IsSettled() {
			return apperr.Conflictf("claim %s is already settled as %s", id, c.Status)
		}
		curRank := claimRank[c.Status]
		if newRank <= curRank {
			return apperr.Invalidf("cannot regress claim from %s to %s", c.Status, newStatus)
		}
		if newRank > curRank+1 && !override {
			return apperr.Invalidf("transition %s to %s skips states and requires override", c.Status, newStatus)
		}

		if newStatus == ClaimApproved || newStatus == ClaimPartial {
			if approvedAmount == nil {
				return apperr.Invalidf("approved amount is required for %s", newStatus)
			}
			if *approvedAmount <= 0 || *approvedAmount > c.ClaimedAmount {
				return apperr.Invalidf("approved amount must be in (0, %d]", c.ClaimedAmount)
			}
			c.ApprovedAmount = *approvedAmount
		}

		c.Status = newStatus
		if err := s.repo.UpdateClaim(ctx, c); err != nil {
			return err
		}
		out = c
		return nil
	})
	return out, err
}

// ApplyToLedger draws from the claim's approved amount and credits it to
// the admission's ledger, both inside one transaction. The amount is
// bounded by what has been approved but not yet applied.
func (s *Service) ApplyToLedger(ctx context.Context, claimID uuid.UUID, amount int64) (*InsuranceClaim, error) {
	if amount <= 0 {
		return nil, apperr.Invalidf("amount must be positive")
	}

	var out *InsuranceClaim
	err := s.inTx(ctx, func(ctx context.Context) error {
		c, err := s.repo.GetClaimForUpdate(ctx, claimID)
		if err != nil {
			return err
		}
		if !c.Payable() {
			return apperr.Preconditionf("claim %s is %s and cannot pay out", claimID, c.Status)
		}
		if amount > c.Remaining() {
			return apperr.Invalidf("amount %d exceeds remaining approved %d", amount, c.Remaining())
		}
		c.AppliedAmount += amount
		if err := s.repo.UpdateClaim(ctx, c); err != nil {
			return err
		}
		if _, err := s.ledger.ApplyInsurance(ctx, c.AdmissionID, amount); err != nil {
			return err
		}
		out = c
		return nil
	})
	return out, err
}
