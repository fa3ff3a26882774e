package admission

import (
	"time"

	"github.com/google/uuid"
)

// Admission maps to the admission table. An admission is never deleted;
// discharge is a terminal state, not removal.
type Admission struct {
	ID                    uuid.UUID  `db:"id" json:"id"`
	PatientID             uuid.UUID  `db:"patient_id" json:"patient_id"`
	DoctorID              uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	BedID                 uuid.UUID  `db:"bed_id" json:"bed_id"`
	Status                string     `db:"status" json:"status"`
	AdmissionDate         time.Time  `db:"admission_date" json:"admission_date"`
	ExpectedDischargeDate *time.Time `db:"expected_discharge_date" json:"expected_discharge_date,omitempty"`
	ActualDischargeDate   *time.Time `db:"actual_discharge_date" json:"actual_discharge_date,omitempty"`
	CreatedAt             time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time  `db:"updated_at" json:"updated_at"`
}

// Transfer is an append-only audit record of a bed reassignment.
type Transfer struct {
	ID          uuid.UUID `db:"id" json:"id"`
	AdmissionID uuid.UUID `db:"admission_id" json:"admission_id"`
	FromBedID   uuid.UUID `db:"from_bed_id" json:"from_bed_id"`
	ToBedID     uuid.UUID `db:"to_bed_id" json:"to_bed_id"`
	Reason      string    `db:"reason" json:"reason"`
	ApprovedBy  string    `db:"approved_by" json:"approved_by"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Discharge is created exactly once per admission and is immutable.
type Discharge struct {
	ID             uuid.UUID `db:"id" json:"id"`
	AdmissionID    uuid.UUID `db:"admission_id" json:"admission_id"`
	DoctorID       uuid.UUID `db:"doctor_id" json:"doctor_id"`
	DischargeDate  time.Time `db:"discharge_date" json:"discharge_date"`
	DischargeType  *string   `db:"discharge_type" json:"discharge_type,omitempty"`
	FinalDiagnosis string    `db:"final_diagnosis" json:"final_diagnosis"`
	Medications    []string  `db:"medications" json:"medications"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

const (
	StatusPending    = "PENDING"
	StatusAdmitted   = "ADMITTED"
	StatusStable     = "STABLE"
	StatusCritical   = "CRITICAL"
	StatusDischarged = "DISCHARGED"
)

// allowedTransitions drives UpdateStatus. DISCHARGED is absent on both
// sides: it is entered only through the discharge finalizer and never left.
var allowedTransitions = map[string]map[string]bool{
	StatusPending:  {StatusAdmitted: true},
	StatusAdmitted: {StatusStable: true, StatusCritical: true},
	StatusStable:   {StatusCritical: true},
	StatusCritical: {StatusStable: true},
}

var validStatuses = map[string]bool{
	StatusPending:    true,
	StatusAdmitted:   true,
	StatusStable:     true,
	StatusCritical:   true,
	StatusDischarged: true,
}

// IsActive reports whether the admission currently occupies a bed and may
// be transferred or discharged.
func (a *Admission) IsActive() bool {
	switch a.Status {
	case StatusAdmitted, StatusStable, StatusCritical:
		return true
	}
	return false
}

var validDischargeTypes = map[string]bool{
	"NORMAL":   true,
	"LAMA":     true,
	"REFERRED": true,
	"DECEASED": true,
}
