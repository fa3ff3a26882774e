package inventory

import (
	"time"

	"github.com/google/uuid"
)

// Ward maps to the ward table. AvailableBeds is a counter maintained
// transactionally alongside bed occupancy, never recomputed per-read.
type Ward struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	Number        string     `db:"number" json:"number"`
	Type          string     `db:"type" json:"type"`
	DepartmentID  *uuid.UUID `db:"department_id" json:"department_id,omitempty"`
	TotalBeds     int        `db:"total_beds" json:"total_beds"`
	AvailableBeds int        `db:"available_beds" json:"available_beds"`
	IsActive      bool       `db:"is_active" json:"is_active"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// Bed maps to the bed table. A bed belongs to exactly one ward for its
// lifetime.
type Bed struct {
	ID         uuid.UUID `db:"id" json:"id"`
	WardID     uuid.UUID `db:"ward_id" json:"ward_id"`
	Number     string    `db:"number" json:"number"`
	BedType    string    `db:"bed_type" json:"bed_type"`
	DailyRate  int64     `db:"daily_rate" json:"daily_rate"`
	IsOccupied bool      `db:"is_occupied" json:"is_occupied"`
	IsActive   bool      `db:"is_active" json:"is_active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

const (
	WardGeneral   = "GENERAL"
	WardICU       = "ICU"
	WardNICU      = "NICU"
	WardMaternity = "MATERNITY"
	WardPediatric = "PEDIATRIC"
	WardIsolation = "ISOLATION"
)

var validWardTypes = map[string]bool{
	WardGeneral:   true,
	WardICU:       true,
	WardNICU:      true,
	WardMaternity: true,
	WardPediatric: true,
	WardIsolation: true,
}

// IsCriticalCare reports whether a ward type bills bed days as intensive
// care.
func IsCriticalCare(wardType string) bool {
	return wardType == WardICU || wardType == WardNICU
}

// AvailableFilter narrows ListAvailable results.
type AvailableFilter struct {
	WardType     string
	DepartmentID *uuid.UUID
}

// AvailableBed is a bed joined with its ward for availability listings.
type AvailableBed struct {
	Bed
	WardNumber string `db:"ward_number" json:"ward_number"`
	WardType   string `db:"ward_type" json:"ward_type"`
}
