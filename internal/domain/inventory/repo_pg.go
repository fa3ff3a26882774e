package inventory

import (
	"context"
	"errors"
	"fmt"

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

// uniqueViolation maps a 23505 from the ward/bed number constraints to a
// Conflict the handler surfaces as 409.
func uniqueViolation(err error, msg string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return apperr.Wrap(apperr.KindConflict, err, msg)
	}
	return err
}

const wardCols = `id, number, type, department_id, total_beds, available_beds, is_active, created_at, updated_at`

func (r *repoPG) CreateWard(ctx context.Context, w *Ward) error {
	w.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO ward (id, number, type, department_id, total_beds, available_beds, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		w.ID, w.Number, w.Type, w.DepartmentID, w.TotalBeds, w.AvailableBeds, w.IsActive,
	)
	if err != nil {
		return uniqueViolation(err, "ward number already in use")
	}
	return nil
}

func (r *repoPG) GetWard(ctx context.Context, id uuid.UUID) (*Ward, error) {
	w, err := scanWard(r.conn(ctx).QueryRow(ctx, `SELECT `+wardCols+` FROM ward WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFoundf("ward %s not found", id)
	}
	return w, err
}

func (r *repoPG) UpdateWard(ctx context.Context, w *Ward) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE ward SET number=$2, type=$3, department_id=$4, is_active=$5, updated_at=NOW()
		WHERE id = $1`,
		w.ID, w.Number, w.Type, w.DepartmentID, w.IsActive,
	)
	if err != nil {
		return uniqueViolation(err, "ward number already in use")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundf("ward %s not found", w.ID)
	}
	return nil
}

func (r *repoPG) ListWards(ctx context.Context, limit, offset int) ([]*Ward, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM ward`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+wardCols+` FROM ward ORDER BY number LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var wards []*Ward
	for rows.Next() {
		var w Ward
		if err := rows.Scan(&w.ID, &w.Number, &w.Type, &w.DepartmentID, &w.TotalBeds,
			&w.AvailableBeds, &w.IsActive, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, 0, err
		}
		wards = append(wards, &w)
	}
	return wards, total, rows.Err()
}

const bedCols = `id, ward_id, number, bed_type, daily_rate, is_occupied, is_active, created_at, updated_at`

func (r *repoPG) CreateBed(ctx context.Context, b *Bed) error {
	b.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO bed (id, ward_id, number, bed_type, daily_rate, is_occupied, is_active)
		VALUES ($1, $2, $3, $4, $5, false, $6)`,
		b.ID, b.WardID, b.Number, b.BedType, b.DailyRate, b.IsActive,
	)
	if err != nil {
		return uniqueViolation(err, "bed number already in use in this ward")
	}
	return nil
}

func (r *repoPG) GetBed(ctx context.Context, id uuid.UUID) (*Bed, error) {
	b, err := scanBed(r.conn(ctx).QueryRow(ctx, `SELECT `+bedCols+` FROM bed WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFoundf("bed %s not found", id)
	}
	return b, err
}

func (r *repoPG) UpdateBed(ctx context.Context, b *Bed) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE bed SET number=$2, bed_type=$3, daily_rate=$4, is_active=$5, updated_at=NOW()
		WHERE id = $1`,
		b.ID, b.Number, b.BedType, b.DailyRate, b.IsActive,
	)
	if err != nil {
		return uniqueViolation(err, "bed number already in use in this ward")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundf("bed %s not found", b.ID)
	}
	return nil
}

func (r *repoPG) ListBedsByWard(ctx context.Context, wardID uuid.UUID) ([]*Bed, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+bedCols+` FROM bed WHERE ward_id = $1 ORDER BY number`, wardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var beds []*Bed
	for rows.Next() {
		var b Bed
		if err := rows.Scan(&b.ID, &b.WardID, &b.Number, &b.BedType, &b.DailyRate,
			&b.IsOccupied, &b.IsActive, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		beds = append(beds, &b)
	}
	return beds, rows.Err()
}

func (r *repoPG) ListAvailable(ctx context.Context, filter AvailableFilter) ([]*AvailableBed, error) {
	query := `
		SELECT b.id, b.ward_id, b.number, b.bed_type, b.daily_rate, b.is_occupied,
		       b.is_active, b.created_at, b.updated_at, w.number, w.type
		FROM bed b
		JOIN ward w ON w.id = b.ward_id
		WHERE b.is_occupied = false AND b.is_active = true AND w.is_active = true`
	args := []interface{}{}

	if filter.WardType != "" {
		args = append(args, filter.WardType)
		query += fmt.Sprintf(" AND w.type = $%d", len(args))
	}
	if filter.DepartmentID != nil {
		args = append(args, *filter.DepartmentID)
		query += fmt.Sprintf(" AND w.department_id = $%d", len(args))
	}
	query += " ORDER BY w.number, b.number"

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var beds []*AvailableBed
	for rows.Next() {
		var ab AvailableBed
		if err := rows.Scan(&ab.ID, &ab.WardID, &ab.Number, &ab.BedType, &ab.DailyRate,
			&ab.IsOccupied, &ab.IsActive, &ab.CreatedAt, &ab.UpdatedAt,
			&ab.WardNumber, &ab.WardType); err != nil {
			return nil, err
		}
		beds = append(beds, &ab)
	}
	return beds, rows.Err()
}

// ReserveBed marks the bed occupied with a guarded update so two concurrent
// reservations of the same bed cannot both succeed, then decrements the
// ward's available_beds in the same transaction.
func (r *repoPG) ReserveBed(ctx context.Context, bedID uuid.UUID) error {
	var wardID uuid.UUID
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE bed SET is_occupied = true, updated_at = NOW()
		WHERE id = $1 AND is_occupied = false AND is_active = true
		RETURNING ward_id`, bedID).Scan(&wardID)
	if errors.Is(err, pgx.ErrNoRows) {
		if _, getErr := r.GetBed(ctx, bedID); getErr != nil {
			return getErr
		}
		return apperr.Conflictf("bed %s is not available", bedID)
	}
	if err != nil {
		return err
	}

	_, err = r.conn(ctx).Exec(ctx, `
		UPDATE ward SET available_beds = available_beds - 1, updated_at = NOW()
		WHERE id = $1`, wardID)
	return err
}

// ReleaseBed is the symmetric guard: only an occupied bed can be released,
// and the ward counter is incremented alongside.
func (r *repoPG) ReleaseBed(ctx context.Context, bedID uuid.UUID) error {
	var wardID uuid.UUID
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE bed SET is_occupied = false, updated_at = NOW()
		WHERE id = $1 AND is_occupied = true
		RETURNING ward_id`, bedID).Scan(&wardID)
	if errors.Is(err, pgx.ErrNoRows) {
		if _, getErr := r.GetBed(ctx, bedID); getErr != nil {
			return getErr
		}
		return apperr.Conflictf("bed %s is not occupied", bedID)
	}
	if err != nil {
		return err
	}

	_, err = r.conn(ctx).Exec(ctx, `
		UPDATE ward SET available_beds = available_beds + 1, updated_at = NOW()
		WHERE id = $1`, wardID)
	return err
}

func (r *repoPG) AdjustWardCapacity(ctx context.Context, wardID uuid.UUID, delta int) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE ward SET total_beds = total_beds + $2, available_beds = available_beds + $2, updated_at = NOW()
		WHERE id = $1`, wardID, delta)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundf("ward %s not found", wardID)
	}
	return nil
}

func scanWard(row pgx.Row) (*Ward, error) {
	var w Ward
	err := row.Scan(&w.ID, &w.Number, &w.Type, &w.DepartmentID, &w.TotalBeds,
		&w.AvailableBeds, &w.IsActive, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func scanBed(row pgx.Row) (*Bed, error) {
	var b Bed
	err := row.Scan(&b.ID, &b.WardID, &b.Number, &b.BedType, &b.DailyRate,
		&b.IsOccupied, &b.IsActive, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
