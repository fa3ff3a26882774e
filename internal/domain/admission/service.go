package admission

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/ipd/internal/domain/billing"
	"github.com/hms/ipd/internal/domain/inventory"
	"github.com/hms/ipd/internal/platform/apperr"
	"github.com/hms/ipd/internal/platform/db"
)

type Service struct {
	repo   Repository
	beds   *inventory.Service
	ledger *billing.Service
	pool   *pgxpool.Pool
}

func NewService(repo Repository, beds *inventory.Service, ledger *billing.Service, pool *pgxpool.Pool) *Service {
	return &Service{repo: repo, beds: beds, ledger: ledger, pool: pool}
}

func (s *Service) inTx(ctx context.Context, fn func(context.Context) error) error {
	if s.pool == nil {
		return fn(ctx)
	}
	return db.RunInTx(ctx, s.pool, fn)
}

// AdmitRequest carries the intake parameters.
type AdmitRequest struct {
	PatientID             uuid.UUID  `json:"patient_id"`
	DoctorID              uuid.UUID  `json:"doctor_id"`
	BedID                 uuid.UUID  `json:"bed_id"`
	ExpectedDischargeDate *time.Time `json:"expected_discharge_date,omitempty"`
}

// Admit reserves the bed, creates the admission, and opens a zeroed billing
// ledger as one atomic unit. A concurrent admit racing for the same bed
// loses at the reservation guard and observes Conflict.
func (s *Service) Admit(ctx context.Context, req AdmitRequest) (*Admission, error) {
	if req.PatientID == uuid.Nil {
		return nil, apperr.Invalidf("patient_id is required")
	}
	if req.DoctorID == uuid.Nil {
		return nil, apperr.Invalidf("doctor_id is required")
	}
	if req.BedID == uuid.Nil {
		return nil, apperr.Invalidf("bed_id is required")
	}

	a := &Admission{
		PatientID:             req.PatientID,
		DoctorID:              req.DoctorID,
		BedID:                 req.BedID,
		Status:                StatusAdmitted,
		AdmissionDate:         time.Now().UTC(),
		ExpectedDischargeDate: req.ExpectedDischargeDate,
	}

	err := s.inTx(ctx, func(ctx context.Context) error {
		if err := s.beds.ReserveBed(ctx, req.BedID); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, a); err != nil {
			return err
		}
		_, err := s.ledger.OpenLedger(ctx, a.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Admission, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Admission, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Admission, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ListActive(ctx context.Context, limit, offset int) ([]*Admission, int, error) {
	return s.repo.ListActive(ctx, limit, offset)
}

// UpdateStatus moves the admission along the clinical state machine.
// Discharge is not reachable through this path; it belongs to the
// finalizer.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, newStatus string) (*Admission, error) {
	if !validStatuses[newStatus] {
		return nil, apperr.Invalidf("invalid status: %s", newStatus)
	}
	if newStatus == StatusDischarged {
		return nil, apperr.Invalidf("discharge must go through the discharge endpoint")
	}

	var out *Admission
	err := s.inTx(ctx, func(ctx context.Context) error {
		a, err := s.repo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if a.Status == StatusDischarged {
			return apperr.Conflictf("admission %s is already discharged", id)
		}
		if !allowedTransitions[a.Status][newStatus] {
			return apperr.Invalidf("cannot transition from %s to %s", a.Status, newStatus)
		}
		a.Status = newStatus
		if err := s.repo.Update(ctx, a); err != nil {
			return err
		}
		out = a
		return nil
	})
	return out, err
}

// Transfer moves the admission to another bed: release the old bed, reserve
// the new one, rebind the admission, and append the audit record, all in
// one transaction. If the target bed is taken the whole unit rolls back and
// the old bed stays reserved.
func (s *Service) Transfer(ctx context.Context, admissionID, toBedID uuid.UUID, reason, approvedBy string) (*Transfer, error) {
	if toBedID == uuid.Nil {
		return nil, apperr.Invalidf("to_bed_id is required")
	}
	if reason == "" {
		return nil, apperr.Invalidf("reason is required")
	}

	var out *Transfer
	err := s.inTx(ctx, func(ctx context.Context) error {
		a, err := s.repo.GetByIDForUpdate(ctx, admissionID)
		if err != nil {
			return err
		}
		if a.Status == StatusDischarged {
			return apperr.Conflictf("admission %s is already discharged", admissionID)
		}
		if !a.IsActive() {
			return apperr.Preconditionf("admission %s is not active", admissionID)
		}
		if a.BedID == toBedID {
			return apperr.Invalidf("admission already occupies bed %s", toBedID)
		}

		// Reserve the target first: if it is taken the unit aborts before
		// the old bed is touched.
		fromBedID := a.BedID
		if err := s.beds.ReserveBed(ctx, toBedID); err != nil {
			return err
		}
		if err := s.beds.ReleaseBed(ctx, fromBedID); err != nil {
			return err
		}
		a.BedID = toBedID
		if err := s.repo.Update(ctx, a); err != nil {
			return err
		}
		t := &Transfer{
			AdmissionID: admissionID,
			FromBedID:   fromBedID,
			ToBedID:     toBedID,
			Reason:      reason,
			ApprovedBy:  approvedBy,
		}
		if err := s.repo.CreateTransfer(ctx, t); err != nil {
			return err
		}
		out = t
		return nil
	})
	return out, err
}

func (s *Service) ListTransfers(ctx context.Context, admissionID uuid.UUID) ([]*Transfer, error) {
	return s.repo.ListTransfers(ctx, admissionID)
}

// DischargeRequest carries the finalizer parameters.
type DischargeRequest struct {
	DoctorID       uuid.UUID `json:"doctor_id"`
	FinalDiagnosis string    `json:"final_diagnosis"`
	Medications    []string  `json:"medications"`
	DischargeType  *string   `json:"discharge_type,omitempty"`
}

// Discharge closes the admission: post the final per-diem, create the
// discharge record, mark the admission DISCHARGED, free the bed, and freeze
// the ledger. Any failure rolls the whole unit back — the bed is never
// freed without the discharge committing. A repeated discharge returns
// Conflict.
func (s *Service) Discharge(ctx context.Context, admissionID uuid.UUID, req DischargeRequest) (*Discharge, error) {
	if req.DoctorID == uuid.Nil {
		return nil, apperr.Invalidf("doctor_id is required")
	}
	if req.FinalDiagnosis == "" {
		return nil, apperr.Invalidf("final_diagnosis is required")
	}
	if req.DischargeType != nil && !validDischargeTypes[*req.DischargeType] {
		return nil, apperr.Invalidf("invalid discharge type: %s", *req.DischargeType)
	}

	var out *Discharge
	err := s.inTx(ctx, func(ctx context.Context) error {
		a, err := s.repo.GetByIDForUpdate(ctx, admissionID)
		if err != nil {
			return err
		}
		if a.Status == StatusDischarged {
			return apperr.Conflictf("admission %s is already discharged", admissionID)
		}
		if !a.IsActive() {
			return apperr.Preconditionf("admission %s is not active", admissionID)
		}

		now := time.Now().UTC()
		if _, err := s.ledger.AccrueDailyCharge(ctx, admissionID, now); err != nil {
			return err
		}

		d := &Discharge{
			AdmissionID:    admissionID,
			DoctorID:       req.DoctorID,
			DischargeDate:  now,
			DischargeType:  req.DischargeType,
			FinalDiagnosis: req.FinalDiagnosis,
			Medications:    req.Medications,
		}
		if err := s.repo.CreateDischarge(ctx, d); err != nil {
			return err
		}

		a.Status = StatusDischarged
		a.ActualDischargeDate = &now
		if err := s.repo.Update(ctx, a); err != nil {
			return err
		}
		if err := s.beds.ReleaseBed(ctx, a.BedID); err != nil {
			return err
		}
		if err := s.ledger.Freeze(ctx, admissionID); err != nil {
			return err
		}
		out = d
		return nil
	})
	return out, err
}

func (s *Service) GetDischarge(ctx context.Context, admissionID uuid.UUID) (*Discharge, error) {
	return s.repo.GetDischarge(ctx, admissionID)
}

// CurrentRate implements billing.RateSource: the per-diem is the
// admission's current bed rate, billed as critical care when the ward is
// ICU or NICU.
func (s *Service) CurrentRate(ctx context.Context, admissionID uuid.UUID) (int64, bool, error) {
	a, err := s.repo.GetByID(ctx, admissionID)
	if err != nil {
		return 0, false, err
	}
	bed, err := s.beds.GetBed(ctx, a.BedID)
	if err != nil {
		return 0, false, err
	}
	ward, err := s.beds.GetWard(ctx, bed.WardID)
	if err != nil {
		return 0, false, err
	}
	return bed.DailyRate, inventory.IsCriticalCare(ward.Type), nil
}
