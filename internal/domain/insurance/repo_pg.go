package insurance

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

func (r *repoPG) CreatePreAuth(ctx context.Context, p *PreAuth) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO preauth (id, admission_id, estimated_amount, status, remarks)
		VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.AdmissionID, p.EstimatedAmount, p.Status, p.Remarks,
	)
	return err
}

func (r *repoPG) GetPreAuth(ctx context.Context, id uuid.UUID) (*PreAuth, error) {
	return r.getPreAuth(ctx, id, "")
}

func (r *repoPG) GetPreAuthForUpdate(ctx context.Context, id uuid.UUID) (*PreAuth, error) {
	return r.getPreAuth(ctx, id, " FOR UPDATE")
}

func (r *repoPG) getPreAuth(ctx context.Context, id uuid.UUID, suffix string) (*PreAuth, error) {
	var p PreAuth
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, admission_id, estimated_amount, status, remarks, created_at, updated_at
		FROM preauth WHERE id = $1`+suffix, id).
		Scan(&p.ID, &p.AdmissionID, &p.EstimatedAmount, &p.Status, &p.Remarks, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFoundf("preauth %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repoPG) UpdatePreAuth(ctx context.Context, p *PreAuth) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE preauth SET status=$2, remarks=$3, updated_at=NOW() WHERE id = $1`,
		p.ID, p.Status, p.Remarks,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundf("preauth %s not found", p.ID)
	}
	return nil
}

func (r *repoPG) ListPreAuthsByAdmission(ctx context.Context, admissionID uuid.UUID) ([]*PreAuth, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, admission_id, estimated_amount, status, remarks, created_at, updated_at
		FROM preauth WHERE admission_id = $1 ORDER BY created_at`, admissionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var preauths []*PreAuth
	for rows.Next() {
		var p PreAuth
		if err := rows.Scan(&p.ID, &p.AdmissionID, &p.EstimatedAmount, &p.Status,
			&p.Remarks, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		preauths = append(preauths, &p)
	}
	return preauths, rows.Err()
}

const claimCols = `id, admission_id, claimed_amount, approved_amount, applied_amount, status, created_at, updated_at`

func (r *repoPG) CreateClaim(ctx context.Context, c *InsuranceClaim) error {
	c.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO insurance_claim (id, admission_id, claimed_amount, approved_amount, applied_amount, status)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.AdmissionID, c.ClaimedAmount, c.ApprovedAmount, c.AppliedAmount, c.Status,
	)
	return err
}

func (r *repoPG) GetClaim(ctx context.Context, id uuid.UUID) (*InsuranceClaim, error) {
	return r.getClaim(ctx, id, "")
}

func (r *repoPG) GetClaimForUpdate(ctx context.Context, id uuid.UUID) (*InsuranceClaim, error) {
	return r.getClaim(ctx, id, " FOR UPDATE")
}

func (r *repoPG) getClaim(ctx context.Context, id uuid.UUID, suffix string) (*InsuranceClaim, error) {
	var c InsuranceClaim
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT `+claimCols+` FROM insurance_claim WHERE id = $1`+suffix, id).
		Scan(&c.ID, &c.AdmissionID, &c.ClaimedAmount, &c.ApprovedAmount, &c.AppliedAmount,
			&c.Status, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFoundf("claim %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repoPG) UpdateClaim(ctx context.Context, c *InsuranceClaim) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE insurance_claim SET claimed_amount=$2, approved_amount=$3, applied_amount=$4,
			status=$5, updated_at=NOW()
		WHERE id = $1`,
		c.ID, c.ClaimedAmount, c.ApprovedAmount, c.AppliedAmount, c.Status,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundf("claim %s not found", c.ID)
	}
	return nil
}

func (r *repoPG) ListClaimsByAdmission(ctx context.Context, admissionID uuid.UUID) ([]*InsuranceClaim, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+claimCols+` FROM insurance_claim WHERE admission_id = $1 ORDER BY created_at`, admissionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var claims []*InsuranceClaim
	for rows.Next() {
		var c InsuranceClaim
		if err := rows.Scan(&c.ID, &c.AdmissionID, &c.ClaimedAmount, &c.ApprovedAmount,
			&c.AppliedAmount, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		claims = append(claims, &c)
	}
	return claims, rows.Err()
}
