package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/ipd/internal/platform/apperr"
	"github.com/hms/ipd/internal/platform/db"
)

type Service struct {
	repo Repository
	pool *pgxpool.Pool
}

func NewService(repo Repository, pool *pgxpool.Pool) *Service {
	return &Service{repo: repo, pool: pool}
}

func (s *Service) inTx(ctx context.Context, fn func(context.Context) error) error {
	if s.pool == nil {
		return fn(ctx)
	}
	return db.RunInTx(ctx, s.pool, fn)
}

func (s *Service) CreateWard(ctx context.Context, w *Ward) error {
	if w.Number == "" {
		return apperr.Invalidf("ward number is required")
	}
	if !validWardTypes[w.Type] {
		return apperr.Invalidf("invalid ward type: %s", w.Type)
	}
	// Beds are registered separately; capacity counters start at zero and
	// move with bed creation.
	w.TotalBeds = 0
	w.AvailableBeds = 0
	w.IsActive = true
	return s.repo.CreateWard(ctx, w)
}

func (s *Service) GetWard(ctx context.Context, id uuid.UUID) (*Ward, error) {
	return s.repo.GetWard(ctx, id)
}

// UpdateWardRequest carries a partial ward update. Nil fields keep the
// stored value, so an omitted is_active never deactivates the ward.
type UpdateWardRequest struct {
	Number       *string    `json:"number"`
	Type         *string    `json:"type"`
	DepartmentID *uuid.UUID `json:"department_id"`
	IsActive     *bool      `json:"is_active"`
}

func (s *Service) UpdateWard(ctx context.Context, id uuid.UUID, req UpdateWardRequest) (*Ward, error) {
	existing, err := s.repo.GetWard(ctx, id)
	if err != nil {
		return nil, err
	}
	w := *existing
	if req.Number != nil {
		if *req.Number == "" {
			return nil, apperr.Invalidf("ward number must not be empty")
		}
		w.Number = *req.Number
	}
	if req.Type != nil {
		if !validWardTypes[*req.Type] {
			return nil, apperr.Invalidf("invalid ward type: %s", *req.Type)
		}
		w.Type = *req.Type
	}
	if req.DepartmentID != nil {
		w.DepartmentID = req.DepartmentID
	}
	if req.IsActive != nil {
		w.IsActive = *req.IsActive
	}
	if err := s.repo.UpdateWard(ctx, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *Service) ListWards(ctx context.Context, limit, offset int) ([]*Ward, int, error) {
	return s.repo.ListWards(ctx, limit, offset)
}

// CreateBed registers a bed and grows the owning ward's capacity counters in
// the same transaction.
func (s *Service) CreateBed(ctx context.Context, b *Bed) error {
	if b.WardID == uuid.Nil {
		return apperr.Invalidf("ward_id is required")
	}
	if b.Number == "" {
		return apperr.Invalidf("bed number is required")
	}
	if b.DailyRate < 0 {
		return apperr.Invalidf("daily rate must not be negative")
	}
	if b.BedType == "" {
		b.BedType = "STANDARD"
	}
	b.IsActive = true

	return s.inTx(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetWard(ctx, b.WardID); err != nil {
			return err
		}
		if err := s.repo.CreateBed(ctx, b); err != nil {
			return err
		}
		return s.repo.AdjustWardCapacity(ctx, b.WardID, 1)
	})
}

func (s *Service) GetBed(ctx context.Context, id uuid.UUID) (*Bed, error) {
	return s.repo.GetBed(ctx, id)
}

// UpdateBedRequest carries a partial bed update. Nil fields keep the
// stored value.
type UpdateBedRequest struct {
	Number    *string `json:"number"`
	BedType   *string `json:"bed_type"`
	DailyRate *int64  `json:"daily_rate"`
	IsActive  *bool   `json:"is_active"`
}

// UpdateBed changes rate, type, or number. Retiring a bed (is_active=false)
// is only allowed while it is unoccupied and shrinks the ward's capacity;
// reactivating grows it back.
func (s *Service) UpdateBed(ctx context.Context, id uuid.UUID, req UpdateBedRequest) (*Bed, error) {
	var out *Bed
	err := s.inTx(ctx, func(ctx context.Context) error {
		existing, err := s.repo.GetBed(ctx, id)
		if err != nil {
			return err
		}
		b := *existing
		if req.Number != nil {
			if *req.Number == "" {
				return apperr.Invalidf("bed number must not be empty")
			}
			b.Number = *req.Number
		}
		if req.BedType != nil {
			b.BedType = *req.BedType
		}
		if req.DailyRate != nil {
			if *req.DailyRate < 0 {
				return apperr.Invalidf("daily rate must not be negative")
			}
			b.DailyRate = *req.DailyRate
		}
		if req.IsActive != nil && *req.IsActive != existing.IsActive {
			if !*req.IsActive {
				if existing.IsOccupied {
					return apperr.Conflictf("bed %s is occupied and cannot be retired", id)
				}
				if err := s.repo.AdjustWardCapacity(ctx, existing.WardID, -1); err != nil {
					return err
				}
			} else {
				if err := s.repo.AdjustWardCapacity(ctx, existing.WardID, 1); err != nil {
					return err
				}
			}
			b.IsActive = *req.IsActive
		}
		if err := s.repo.UpdateBed(ctx, &b); err != nil {
			return err
		}
		out = &b
		return nil
	})
	return out, err
}

func (s *Service) ListBedsByWard(ctx context.Context, wardID uuid.UUID) ([]*Bed, error) {
	return s.repo.ListBedsByWard(ctx, wardID)
}

func (s *Service) ListAvailable(ctx context.Context, filter AvailableFilter) ([]*AvailableBed, error) {
	if filter.WardType != "" && !validWardTypes[filter.WardType] {
		return nil, apperr.Invalidf("invalid ward type: %s", filter.WardType)
	}
	return s.repo.ListAvailable(ctx, filter)
}

// ReserveBed and ReleaseBed are exposed for composition by the admission
// workflows; they must be called with a transaction already on the context.
func (s *Service) ReserveBed(ctx context.Context, bedID uuid.UUID) error {
	return s.repo.ReserveBed(ctx, bedID)
}

func (s *Service) ReleaseBed(ctx context.Context, bedID uuid.UUID) error {
	return s.repo.ReleaseBed(ctx, bedID)
}
