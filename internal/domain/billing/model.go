package billing

import (
	"time"

	"github.com/google/uuid"
)

// BillingLedger maps to the billing_ledger table, one-to-one with an
// admission. All monetary amounts are integer minor units.
type BillingLedger struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	AdmissionID      uuid.UUID  `db:"admission_id" json:"admission_id"`
	BedCharges       int64      `db:"bed_charges" json:"bed_charges"`
	ICUCharges       int64      `db:"icu_charges" json:"icu_charges"`
	NursingCharges   int64      `db:"nursing_charges" json:"nursing_charges"`
	DoctorCharges    int64      `db:"doctor_charges" json:"doctor_charges"`
	LabCharges       int64      `db:"lab_charges" json:"lab_charges"`
	MedicineCharges  int64      `db:"medicine_charges" json:"medicine_charges"`
	ProcedureCharges int64      `db:"procedure_charges" json:"procedure_charges"`
	OtherCharges     int64      `db:"other_charges" json:"other_charges"`
	Discount         int64      `db:"discount" json:"discount"`
	Tax              int64      `db:"tax" json:"tax"`
	PaidAmount       int64      `db:"paid_amount" json:"paid_amount"`
	InsuranceApplied int64      `db:"insurance_applied" json:"insurance_applied"`
	TotalAmount      int64      `db:"total_amount" json:"total_amount"`
	BalanceAmount    int64      `db:"balance_amount" json:"balance_amount"`
	DayCount         int        `db:"day_count" json:"day_count"`
	LastChargeDate   *time.Time `db:"last_charge_date" json:"last_charge_date,omitempty"`
	Frozen           bool       `db:"frozen" json:"frozen"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// Payment is an append-only record of money received against a ledger.
type Payment struct {
	ID        uuid.UUID `db:"id" json:"id"`
	LedgerID  uuid.UUID `db:"ledger_id" json:"ledger_id"`
	Amount    int64     `db:"amount" json:"amount"`
	Method    string    `db:"method" json:"method"`
	TxnRef    *string   `db:"txn_ref" json:"txn_ref,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Charge types accepted by PostCharge, each naming one ledger bucket.
const (
	ChargeBed       = "BED"
	ChargeICU       = "ICU"
	ChargeNursing   = "NURSING"
	ChargeDoctor    = "DOCTOR"
	ChargeLab       = "LAB"
	ChargeMedicine  = "MEDICINE"
	ChargeProcedure = "PROCEDURE"
	ChargeOther     = "OTHER"
)

// AddCharge adds amount to the bucket named by chargeType. Returns false
// for an unknown charge type.
func (l *BillingLedger) AddCharge(chargeType string, amount int64) bool {
	switch chargeType {
	case ChargeBed:
		l.BedCharges += amount
	case ChargeICU:
		l.ICUCharges += amount
	case ChargeNursing:
		l.NursingCharges += amount
	case ChargeDoctor:
		l.DoctorCharges += amount
	case ChargeLab:
		l.LabCharges += amount
	case ChargeMedicine:
		l.MedicineCharges += amount
	case ChargeProcedure:
		l.ProcedureCharges += amount
	case ChargeOther:
		l.OtherCharges += amount
	default:
		return false
	}
	return true
}

// Recompute derives total and balance from the itemized fields:
// total = sum of charge buckets − discount + tax,
// balance = total − paid − insurance applied.
func (l *BillingLedger) Recompute() {
	charges := l.BedCharges + l.ICUCharges + l.NursingCharges + l.DoctorCharges +
		l.LabCharges + l.MedicineCharges + l.ProcedureCharges + l.OtherCharges
	l.TotalAmount = charges - l.Discount + l.Tax
	l.BalanceAmount = l.TotalAmount - l.PaidAmount - l.InsuranceApplied
}
