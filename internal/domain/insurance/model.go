package insurance

import (
	"time"

	"github.com/google/uuid"
)

// PreAuth is a pre-approval request sent to an insurer before charges are
// claimed. Optional; precedes a claim.
type PreAuth struct {
	ID              uuid.UUID `db:"id" json:"id"`
	AdmissionID     uuid.UUID `db:"admission_id" json:"admission_id"`
	EstimatedAmount int64     `db:"estimated_amount" json:"estimated_amount"`
	Status          string    `db:"status" json:"status"`
	Remarks         *string   `db:"remarks" json:"remarks,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// InsuranceClaim tracks a claim through the insurer workflow. AppliedAmount
// records how much of the approved amount has already been credited to the
// billing ledger.
type InsuranceClaim struct {
	ID             uuid.UUID `db:"id" json:"id"`
	AdmissionID    uuid.UUID `db:"admission_id" json:"admission_id"`
	ClaimedAmount  int64     `db:"claimed_amount" json:"claimed_amount"`
	ApprovedAmount int64     `db:"approved_amount" json:"approved_amount"`
	AppliedAmount  int64     `db:"applied_amount" json:"applied_amount"`
	Status         string    `db:"status" json:"status"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

const (
	PreAuthPending  = "PENDING"
	PreAuthApproved = "APPROVED"
	PreAuthRejected = "REJECTED"
	PreAuthExpired  = "EXPIRED"
)

var preAuthTransitions = map[string]map[string]bool{
	PreAuthPending: {PreAuthApproved: true, PreAuthRejected: true, PreAuthExpired: true},
}

const (
	ClaimPending     = "PENDING"
	ClaimSubmitted   = "SUBMITTED"
	ClaimUnderReview = "UNDER_REVIEW"
	ClaimApproved    = "APPROVED"
	ClaimRejected    = "REJECTED"
	ClaimPartial     = "PARTIALLY_APPROVED"
)

// claimRank orders the claim workflow. Normal transitions advance by
// exactly one rank; administrative overrides may skip forward; regressions
// are never allowed.
var claimRank = map[string]int{
	ClaimPending:     0,
	ClaimSubmitted:   1,
	ClaimUnderReview: 2,
	ClaimApproved:    3,
	ClaimRejected:    3,
	ClaimPartial:     3,
}

// IsSettled reports whether the claim has reached a terminal state.
func (c *InsuranceClaim) IsSettled() bool {
	return claimRank[c.Status] == 3
}

// Payable reports whether ledger credits may be drawn from this claim.
func (c *InsuranceClaim) Payable() bool {
	return c.Status == ClaimApproved || c.Status == ClaimPartial
}

// Remaining returns the approved amount not yet applied to the ledger.
func (c *InsuranceClaim) Remaining() int64 {
	return c.ApprovedAmount - c.AppliedAmount
}
