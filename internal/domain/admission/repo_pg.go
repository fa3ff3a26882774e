package admission

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

const admissionCols = `id, patient_id, doctor_id, bed_id, status, admission_date,
	expected_discharge_date, actual_discharge_date, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, a *Admission) error {
	a.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO admission (id, patient_id, doctor_id, bed_id, status, admission_date,
			expected_discharge_date, actual_discharge_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.PatientID, a.DoctorID, a.BedID, a.Status, a.AdmissionDate,
		a.ExpectedDischargeDate, a.ActualDischargeDate,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Admission, error) {
	return r.get(ctx, id, "")
}

func (r *repoPG) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*Admission, error) {
	return r.get(ctx, id, " FOR UPDATE")
}

func (r *repoPG) get(ctx context.Context, id uuid.UUID, suffix string) (*Admission, error) {
	a, err := scanAdmission(r.conn(ctx).QueryRow(ctx,
		`SELECT `+admissionCols+` FROM admission WHERE id = $1`+suffix, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFoundf("admission %s not found", id)
	}
	return a, err
}

func (r *repoPG) Update(ctx context.Context, a *Admission) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE admission SET bed_id=$2, status=$3, expected_discharge_date=$4,
			actual_discharge_date=$5, updated_at=NOW()
		WHERE id = $1`,
		a.ID, a.BedID, a.Status, a.ExpectedDischargeDate, a.ActualDischargeDate,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundf("admission %s not found", a.ID)
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Admission, int, error) {
	return r.list(ctx, ``, nil, limit, offset)
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Admission, int, error) {
	return r.list(ctx, ` WHERE patient_id = $3`, []interface{}{patientID}, limit, offset)
}

func (r *repoPG) ListActive(ctx context.Context, limit, offset int) ([]*Admission, int, error) {
	return r.list(ctx, ` WHERE status <> '`+StatusDischarged+`'`, nil, limit, offset)
}

func (r *repoPG) list(ctx context.Context, where string, extra []interface{}, limit, offset int) ([]*Admission, int, error) {
	countArgs := extra
	var total int
	countWhere := where
	if len(extra) > 0 {
		// count query has no limit/offset placeholders
		countWhere = ` WHERE patient_id = $1`
	}
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM admission`+countWhere, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args := append([]interface{}{limit, offset}, extra...)
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+admissionCols+` FROM admission`+where+` ORDER BY admission_date DESC LIMIT $1 OFFSET $2`, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var admissions []*Admission
	for rows.Next() {
		var a Admission
		if err := rows.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.BedID, &a.Status, &a.AdmissionDate,
			&a.ExpectedDischargeDate, &a.ActualDischargeDate, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, 0, err
		}
		admissions = append(admissions, &a)
	}
	return admissions, total, rows.Err()
}

func (r *repoPG) CreateTransfer(ctx context.Context, t *Transfer) error {
	t.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO transfer (id, admission_id, from_bed_id, to_bed_id, reason, approved_by)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID, t.AdmissionID, t.FromBedID, t.ToBedID, t.Reason, t.ApprovedBy,
	)
	return err
}

func (r *repoPG) ListTransfers(ctx context.Context, admissionID uuid.UUID) ([]*Transfer, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, admission_id, from_bed_id, to_bed_id, reason, approved_by, created_at
		FROM transfer WHERE admission_id = $1 ORDER BY created_at`, admissionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transfers []*Transfer
	for rows.Next() {
		var t Transfer
		if err := rows.Scan(&t.ID, &t.AdmissionID, &t.FromBedID, &t.ToBedID,
			&t.Reason, &t.ApprovedBy, &t.CreatedAt); err != nil {
			return nil, err
		}
		transfers = append(transfers, &t)
	}
	return transfers, rows.Err()
}

func (r *repoPG) CreateDischarge(ctx context.Context, d *Discharge) error {
	d.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO discharge (id, admission_id, doctor_id, discharge_date, discharge_type,
			final_diagnosis, medications)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		d.ID, d.AdmissionID, d.DoctorID, d.DischargeDate, d.DischargeType,
		d.FinalDiagnosis, d.Medications,
	)
	return err
}

func (r *repoPG) GetDischarge(ctx context.Context, admissionID uuid.UUID) (*Discharge, error) {
	var d Discharge
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, admission_id, doctor_id, discharge_date, discharge_type, final_diagnosis, medications, created_at
		FROM discharge WHERE admission_id = $1`, admissionID).
		Scan(&d.ID, &d.AdmissionID, &d.DoctorID, &d.DischargeDate, &d.DischargeType,
			&d.FinalDiagnosis, &d.Medications, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFoundf("discharge for admission %s not found", admissionID)
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func scanAdmission(row pgx.Row) (*Admission, error) {
	var a Admission
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.BedID, &a.Status, &a.AdmissionDate,
		&a.ExpectedDischargeDate, &a.ActualDischargeDate, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
