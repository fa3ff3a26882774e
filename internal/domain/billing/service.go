package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/ipd/internal/platform/apperr"
	"github.com/hms/ipd/internal/platform/db"
)

// RateSource resolves the per-diem rate for an admission's current bed and
// whether the stay is billed as critical care. Implemented by the admission
// service; wired at composition time to avoid a construction cycle.
type RateSource interface {
	CurrentRate(ctx context.Context, admissionID uuid.UUID) (rate int64, criticalCare bool, err error)
}

type Service struct {
	repo  Repository
	pool  *pgxpool.Pool
	rates RateSource
}

func NewService(repo Repository, pool *pgxpool.Pool) *Service {
	return &Service{repo: repo, pool: pool}
}

// SetRateSource attaches the per-diem rate resolver used by daily accrual.
func (s *Service) SetRateSource(rates RateSource) {
	s.rates = rates
}

func (s *Service) inTx(ctx context.Context, fn func(context.Context) error) error {
	if s.pool == nil {
		return fn(ctx)
	}
	return db.RunInTx(ctx, s.pool, fn)
}

// OpenLedger creates the zeroed ledger for a new admission. Called inside
// the admit transaction.
func (s *Service) OpenLedger(ctx context.Context, admissionID uuid.UUID) (*BillingLedger, error) {
	l := &BillingLedger{AdmissionID: admissionID}
	l.Recompute()
	if err := s.repo.CreateLedger(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *Service) GetByAdmission(ctx context.Context, admissionID uuid.UUID) (*BillingLedger, error) {
	return s.repo.GetByAdmission(ctx, admissionID)
}

func (s *Service) ListPayments(ctx context.Context, admissionID uuid.UUID) ([]*Payment, error) {
	l, err := s.repo.GetByAdmission(ctx, admissionID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListPayments(ctx, l.ID)
}

// PostCharge adds a positive amount to the named charge bucket and
// recomputes totals. Frozen ledgers reject further charges.
func (s *Service) PostCharge(ctx context.Context, admissionID uuid.UUID, chargeType string, amount int64) (*BillingLedger, error) {
	if amount <= 0 {
		return nil, apperr.Invalidf("charge amount must be positive")
	}

	var out *BillingLedger
	err := s.inTx(ctx, func(ctx context.Context) error {
		l, err := s.repo.GetByAdmissionForUpdate(ctx, admissionID)
		if err != nil {
			return err
		}
		if l.Frozen {
			return apperr.Conflictf("ledger for admission %s is frozen", admissionID)
		}
		if !l.AddCharge(chargeType, amount) {
			return apperr.Invalidf("unknown charge type: %s", chargeType)
		}
		l.Recompute()
		if err := s.repo.UpdateLedger(ctx, l); err != nil {
			return err
		}
		out = l
		return nil
	})
	return out, err
}

// PostPayment records money received. Payments remain allowed on frozen
// ledgers so outstanding balances can be settled after discharge. Payments
// exceeding the outstanding balance are rejected.
func (s *Service) PostPayment(ctx context.Context, admissionID uuid.UUID, amount int64, method string, txnRef *string) (*BillingLedger, error) {
	if amount <= 0 {
		return nil, apperr.Invalidf("payment amount must be positive")
	}
	if method == "" {
		return nil, apperr.Invalidf("payment method is required")
	}

	var out *BillingLedger
	err := s.inTx(ctx, func(ctx context.Context) error {
		l, err := s.repo.GetByAdmissionForUpdate(ctx, admissionID)
		if err != nil {
			return err
		}
		if amount > l.BalanceAmount {
			return apperr.Invalidf("payment %d exceeds outstanding balance %d", amount, l.BalanceAmount)
		}
		p := &Payment{LedgerID: l.ID, Amount: amount, Method: method, TxnRef: txnRef}
		if err := s.repo.CreatePayment(ctx, p); err != nil {
			return err
		}
		l.PaidAmount += amount
		l.Recompute()
		if err := s.repo.UpdateLedger(ctx, l); err != nil {
			return err
		}
		out = l
		return nil
	})
	return out, err
}

// AccrueDailyCharge posts the admission's current per-diem exactly once per
// calendar day. Re-invocation for an already-billed day is a no-op, not an
// error. Critical-care wards bill into the ICU bucket.
func (s *Service) AccrueDailyCharge(ctx context.Context, admissionID uuid.UUID, date time.Time) (*BillingLedger, error) {
	day := date.UTC().Truncate(24 * time.Hour)

	var out *BillingLedger
	err := s.inTx(ctx, func(ctx context.Context) error {
		l, err := s.repo.GetByAdmissionForUpdate(ctx, admissionID)
		if err != nil {
			return err
		}
		if l.LastChargeDate != nil && !l.LastChargeDate.Before(day) {
			out = l
			return nil
		}
		if l.Frozen {
			return apperr.Conflictf("ledger for admission %s is frozen", admissionID)
		}
		if s.rates == nil {
			return apperr.Preconditionf("no rate source configured")
		}
		rate, criticalCare, err := s.rates.CurrentRate(ctx, admissionID)
		if err != nil {
			return err
		}
		bucket := ChargeBed
		if criticalCare {
			bucket = ChargeICU
		}
		l.AddCharge(bucket, rate)
		l.DayCount++
		l.LastChargeDate = &day
		l.Recompute()
		if err := s.repo.UpdateLedger(ctx, l); err != nil {
			return err
		}
		out = l
		return nil
	})
	return out, err
}

// ApplyInsurance credits an approved insurance amount against the ledger.
// Bounds checking against the claim's approved amount is the insurance
// service's responsibility; this runs inside its transaction.
func (s *Service) ApplyInsurance(ctx context.Context, admissionID uuid.UUID, amount int64) (*BillingLedger, error) {
	if amount <= 0 {
		return nil, apperr.Invalidf("insurance amount must be positive")
	}

	var out *BillingLedger
	err := s.inTx(ctx, func(ctx context.Context) error {
		l, err := s.repo.GetByAdmissionForUpdate(ctx, admissionID)
		if err != nil {
			return err
		}
		if amount > l.BalanceAmount {
			return apperr.Invalidf("insurance credit %d exceeds outstanding balance %d", amount, l.BalanceAmount)
		}
		l.InsuranceApplied += amount
		l.Recompute()
		if err := s.repo.UpdateLedger(ctx, l); err != nil {
			return err
		}
		out = l
		return nil
	})
	return out, err
}

// SetAdjustments replaces the discount and tax figures and recomputes.
func (s *Service) SetAdjustments(ctx context.Context, admissionID uuid.UUID, discount, tax int64) (*BillingLedger, error) {
	if discount < 0 || tax < 0 {
		return nil, apperr.Invalidf("discount and tax must not be negative")
	}

	var out *BillingLedger
	err := s.inTx(ctx, func(ctx context.Context) error {
		l, err := s.repo.GetByAdmissionForUpdate(ctx, admissionID)
		if err != nil {
			return err
		}
		if l.Frozen {
			return apperr.Conflictf("ledger for admission %s is frozen", admissionID)
		}
		l.Discount = discount
		l.Tax = tax
		l.Recompute()
		if l.BalanceAmount < 0 {
			return apperr.Invalidf("adjustments would drive the balance negative")
		}
		if err := s.repo.UpdateLedger(ctx, l); err != nil {
			return err
		}
		out = l
		return nil
	})
	return out, err
}

// Freeze closes the ledger to further charge postings. Called by the
// discharge transaction after the final accrual.
func (s *Service) Freeze(ctx context.Context, admissionID uuid.UUID) error {
	return s.inTx(ctx, func(ctx context.Context) error {
		l, err := s.repo.GetByAdmissionForUpdate(ctx, admissionID)
		if err != nil {
			return err
		}
		if l.Frozen {
			return nil
		}
		l.Frozen = true
		return s.repo.UpdateLedger(ctx, l)
	})
}
