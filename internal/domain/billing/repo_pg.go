package billing

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/ipd/internal/platform/apperr"
	"github.com/hms/ipd/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func (r *repoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const ledgerCols = `id, admission_id, bed_charges, icu_charges, nursing_charges, doctor_charges,
	lab_charges, medicine_charges, procedure_charges, other_charges,
	discount, tax, paid_amount, insurance_applied, total_amount, balance_amount,
	day_count, last_charge_date, frozen, created_at, updated_at`

func (r *repoPG) CreateLedger(ctx context.Context, l *BillingLedger) error {
	l.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO billing_ledger (
			id, admission_id, bed_charges, icu_charges, nursing_charges, doctor_charges,
			lab_charges, medicine_charges, procedure_charges, other_charges,
			discount, tax, paid_amount, insurance_applied, total_amount, balance_amount,
			day_count, last_charge_date, frozen
		) VALUES (
			$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,
			$11,$12,$13,$14,$15,$16,$17,$18,$19
		)`,
		l.ID, l.AdmissionID, l.BedCharges, l.ICUCharges, l.NursingCharges, l.DoctorCharges,
		l.LabCharges, l.MedicineCharges, l.ProcedureCharges, l.OtherCharges,
		l.Discount, l.Tax, l.PaidAmount, l.InsuranceApplied, l.TotalAmount, l.BalanceAmount,
		l.DayCount, l.LastChargeDate, l.Frozen,
	)
	return err
}

func (r *repoPG) GetByAdmission(ctx context.Context, admissionID uuid.UUID) (*BillingLedger, error) {
	return r.get(ctx, admissionID, "")
}

func (r *repoPG) GetByAdmissionForUpdate(ctx context.Context, admissionID uuid.UUID) (*BillingLedger, error) {
	return r.get(ctx, admissionID, " FOR UPDATE")
}

func (r *repoPG) get(ctx context.Context, admissionID uuid.UUID, suffix string) (*BillingLedger, error) {
	l, err := scanLedger(r.conn(ctx).QueryRow(ctx,
		`SELECT `+ledgerCols+` FROM billing_ledger WHERE admission_id = $1`+suffix, admissionID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFoundf("ledger for admission %s not found", admissionID)
	}
	return l, err
}

func (r *repoPG) UpdateLedger(ctx context.Context, l *BillingLedger) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE billing_ledger SET
			bed_charges=$2, icu_charges=$3, nursing_charges=$4, doctor_charges=$5,
			lab_charges=$6, medicine_charges=$7, procedure_charges=$8, other_charges=$9,
			discount=$10, tax=$11, paid_amount=$12, insurance_applied=$13,
			total_amount=$14, balance_amount=$15, day_count=$16, last_charge_date=$17,
			frozen=$18, updated_at=NOW()
		WHERE id = $1`,
		l.ID, l.BedCharges, l.ICUCharges, l.NursingCharges, l.DoctorCharges,
		l.LabCharges, l.MedicineCharges, l.ProcedureCharges, l.OtherCharges,
		l.Discount, l.Tax, l.PaidAmount, l.InsuranceApplied,
		l.TotalAmount, l.BalanceAmount, l.DayCount, l.LastChargeDate,
		l.Frozen,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundf("ledger %s not found", l.ID)
	}
	return nil
}

func (r *repoPG) CreatePayment(ctx context.Context, p *Payment) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO payment (id, ledger_id, amount, method, txn_ref)
		VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.LedgerID, p.Amount, p.Method, p.TxnRef,
	)
	return err
}

func (r *repoPG) ListPayments(ctx context.Context, ledgerID uuid.UUID) ([]*Payment, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, ledger_id, amount, method, txn_ref, created_at
		FROM payment WHERE ledger_id = $1 ORDER BY created_at`, ledgerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.LedgerID, &p.Amount, &p.Method, &p.TxnRef, &p.CreatedAt); err != nil {
			return nil, err
		}
		payments = append(payments, &p)
	}
	return payments, rows.Err()
}

func scanLedger(row pgx.Row) (*BillingLedger, error) {
	var l BillingLedger
	err := row.Scan(
		&l.ID, &l.AdmissionID, &l.BedCharges, &l.ICUCharges, &l.NursingCharges, &l.DoctorCharges,
		&l.LabCharges, &l.MedicineCharges, &l.ProcedureCharges, &l.OtherCharges,
		&l.Discount, &l.Tax, &l.PaidAmount, &l.InsuranceApplied, &l.TotalAmount, &l.BalanceAmount,
		&l.DayCount, &l.LastChargeDate, &l.Frozen, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}
