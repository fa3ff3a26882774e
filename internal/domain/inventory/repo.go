package inventory

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	CreateWard(ctx context.Context, w *Ward) error
	GetWard(ctx context.Context, id uuid.UUID) (*Ward, error)
	UpdateWard(ctx context.Context, w *Ward) error
	ListWards(ctx context.Context, limit, offset int) ([]*Ward, int, error)

	CreateBed(ctx context.Context, b *Bed) error
	GetBed(ctx context.Context, id uuid.UUID) (*Bed, error)
	UpdateBed(ctx context.Context, b *Bed) error
	ListBedsByWard(ctx context.Context, wardID uuid.UUID) ([]*Bed, error)
	ListAvailable(ctx context.Context, filter AvailableFilter) ([]*AvailableBed, error)

	// ReserveBed and ReleaseBed flip occupancy and adjust the owning ward's
	// available_beds counter. They are only ever called inside a larger
	// transaction (admit, transfer, discharge), never standalone.
	ReserveBed(ctx context.Context, bedID uuid.UUID) error
	ReleaseBed(ctx context.Context, bedID uuid.UUID) error

	// AdjustWardCapacity shifts total_beds and available_beds together,
	// used when beds are added to or retired from a ward.
	AdjustWardCapacity(ctx context.Context, wardID uuid.UUID, delta int) error
}
