package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/hms/ipd/internal/platform/apperr"
)

// -- Mock Repository --

type mockRepo struct {
	wards map[uuid.UUID]*Ward
	beds  map[uuid.UUID]*Bed
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		wards: make(map[uuid.UUID]*Ward),
		beds:  make(map[uuid.UUID]*Bed),
	}
}

func (m *mockRepo) CreateWard(_ context.Context, w *Ward) error {
	w.ID = uuid.New()
	m.wards[w.ID] = w
	return nil
}

func (m *mockRepo) GetWard(_ context.Context, id uuid.UUID) (*Ward, error) {
	w, ok := m.wards[id]
	if !ok {
		return nil, apperr.NotFoundf("ward %s not found", id)
	}
	return w, nil
}

func (m *mockRepo) UpdateWard(_ context.Context, w *Ward) error {
	if _, ok := m.wards[w.ID]; !ok {
		return apperr.NotFoundf("ward %s not found", w.ID)
	}
	m.wards[w.ID] = w
	return nil
}

func (m *mockRepo) ListWards(_ context.Context, limit, offset int) ([]*Ward, int, error) {
	var result []*Ward
	for _, w := range m.wards {
		result = append(result, w)
	}
	return result, len(result), nil
}

func (m *mockRepo) CreateBed(_ context.Context, b *Bed) error {
	b.ID = uuid.New()
	m.beds[b.ID] = b
	return nil
}

func (m *mockRepo) GetBed(_ context.Context, id uuid.UUID) (*Bed, error) {
	b, ok := m.beds[id]
	if !ok {
		return nil, apperr.NotFoundf("bed %s not found", id)
	}
	copied := *b
	return &copied, nil
}

func (m *mockRepo) UpdateBed(_ context.Context, b *Bed) error {
	if _, ok := m.beds[b.ID]; !ok {
		return apperr.NotFoundf("bed %s not found", b.ID)
	}
	m.beds[b.ID] = b
	return nil
}

func (m *mockRepo) ListBedsByWard(_ context.Context, wardID uuid.UUID) ([]*Bed, error) {
	var result []*Bed
	for _, b := range m.beds {
		if b.WardID == wardID {
			result = append(result, b)
		}
	}
	return result, nil
}

func (m *mockRepo) ListAvailable(_ context.Context, filter AvailableFilter) ([]*AvailableBed, error) {
	var result []*AvailableBed
	for _, b := range m.beds {
		if b.IsOccupied || !b.IsActive {
			continue
		}
		w := m.wards[b.WardID]
		if filter.WardType != "" && w.Type != filter.WardType {
			continue
		}
		result = append(result, &AvailableBed{Bed: *b, WardNumber: w.Number, WardType: w.Type})
	}
	return result, nil
}

func (m *mockRepo) ReserveBed(_ context.Context, bedID uuid.UUID) error {
	b, ok := m.beds[bedID]
	if !ok {
		return apperr.NotFoundf("bed %s not found", bedID)
	}
	if b.IsOccupied || !b.IsActive {
		return apperr.Conflictf("bed %s is not available", bedID)
	}
	b.IsOccupied = true
	m.wards[b.WardID].AvailableBeds--
	return nil
}

func (m *mockRepo) ReleaseBed(_ context.Context, bedID uuid.UUID) error {
	b, ok := m.beds[bedID]
	if !ok {
		return apperr.NotFoundf("bed %s not found", bedID)
	}
	if !b.IsOccupied {
		return apperr.Conflictf("bed %s is not occupied", bedID)
	}
	b.IsOccupied = false
	m.wards[b.WardID].AvailableBeds++
	return nil
}

func (m *mockRepo) AdjustWardCapacity(_ context.Context, wardID uuid.UUID, delta int) error {
	w, ok := m.wards[wardID]
	if !ok {
		return apperr.NotFoundf("ward %s not found", wardID)
	}
	w.TotalBeds += delta
	w.AvailableBeds += delta
	return nil
}

// -- Helpers --

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }
func int64Ptr(n int64) *int64 { return &n }

func newTestService() (*Service, *mockRepo) {
	repo := newMockRepo()
	return NewService(repo, nil), repo
}

func mustCreateWard(t *testing.T, svc *Service, wardType string) *Ward {
	t.Helper()
	w := &Ward{Number: "W-" + wardType, Type: wardType}
	if err := svc.CreateWard(context.Background(), w); err != nil {
		t.Fatalf("creating ward: %v", err)
	}
	return w
}

func mustCreateBed(t *testing.T, svc *Service, wardID uuid.UUID, number string, rate int64) *Bed {
	t.Helper()
	b := &Bed{WardID: wardID, Number: number, DailyRate: rate}
	if err := svc.CreateBed(context.Background(), b); err != nil {
		t.Fatalf("creating bed: %v", err)
	}
	return b
}

// -- Tests --

func TestCreateWard_Validation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if err := svc.CreateWard(ctx, &Ward{Type: WardGeneral}); !apperr.IsKind(err, apperr.KindInvalid) {
		t.Errorf("expected Invalid for missing number, got %v", err)
	}
	if err := svc.CreateWard(ctx, &Ward{Number: "W1", Type: "PENTHOUSE"}); !apperr.IsKind(err, apperr.KindInvalid) {
		t.Errorf("expected Invalid for bad type, got %v", err)
	}

	w := &Ward{Number: "W1", Type: WardGeneral}
	if err := svc.CreateWard(ctx, w); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.TotalBeds != 0 || w.AvailableBeds != 0 {
		t.Errorf("new ward should start with zero capacity, got %d/%d", w.AvailableBeds, w.TotalBeds)
	}
	if !w.IsActive {
		t.Error("new ward should be active")
	}
}

func TestCreateBed_GrowsWardCapacity(t *testing.T) {
	svc, _ := newTestService()
	w := mustCreateWard(t, svc, WardGeneral)

	mustCreateBed(t, svc, w.ID, "B1", 200000)
	mustCreateBed(t, svc, w.ID, "B2", 200000)

	got, err := svc.GetWard(context.Background(), w.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.TotalBeds != 2 || got.AvailableBeds != 2 {
		t.Errorf("expected 2/2 capacity, got %d/%d", got.AvailableBeds, got.TotalBeds)
	}
}

func TestCreateBed_Validation(t *testing.T) {
	svc, _ := newTestService()
	w := mustCreateWard(t, svc, WardGeneral)
	ctx := context.Background()

	if err := svc.CreateBed(ctx, &Bed{Number: "B1"}); !apperr.IsKind(err, apperr.KindInvalid) {
		t.Errorf("expected Invalid for missing ward, got %v", err)
	}
	if err := svc.CreateBed(ctx, &Bed{WardID: w.ID}); !apperr.IsKind(err, apperr.KindInvalid) {
		t.Errorf("expected Invalid for missing number, got %v", err)
	}
	if err := svc.CreateBed(ctx, &Bed{WardID: w.ID, Number: "B1", DailyRate: -1}); !apperr.IsKind(err, apperr.KindInvalid) {
		t.Errorf("expected Invalid for negative rate, got %v", err)
	}
	if err := svc.CreateBed(ctx, &Bed{WardID: uuid.New(), Number: "B1"}); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("expected NotFound for unknown ward, got %v", err)
	}
}

func TestReserveBed_ConflictWhenOccupied(t *testing.T) {
	svc, _ := newTestService()
	w := mustCreateWard(t, svc, WardGeneral)
	b := mustCreateBed(t, svc, w.ID, "B1", 200000)
	ctx := context.Background()

	if err := svc.ReserveBed(ctx, b.ID); err != nil {
		t.Fatalf("first reserve should succeed: %v", err)
	}
	if err := svc.ReserveBed(ctx, b.ID); !apperr.IsKind(err, apperr.KindConflict) {
		t.Errorf("second reserve should conflict, got %v", err)
	}

	got, _ := svc.GetWard(ctx, w.ID)
	if got.AvailableBeds != 0 {
		t.Errorf("expected 0 available after reserve, got %d", got.AvailableBeds)
	}
}

func TestReleaseBed_RestoresCounter(t *testing.T) {
	svc, _ := newTestService()
	w := mustCreateWard(t, svc, WardGeneral)
	b := mustCreateBed(t, svc, w.ID, "B1", 200000)
	ctx := context.Background()

	if err := svc.ReleaseBed(ctx, b.ID); !apperr.IsKind(err, apperr.KindConflict) {
		t.Errorf("releasing unoccupied bed should conflict, got %v", err)
	}

	if err := svc.ReserveBed(ctx, b.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.ReleaseBed(ctx, b.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := svc.GetWard(ctx, w.ID)
	if got.AvailableBeds != 1 {
		t.Errorf("expected counter back to 1, got %d", got.AvailableBeds)
	}
}

func TestUpdateBed_RetireOccupiedConflicts(t *testing.T) {
	svc, _ := newTestService()
	w := mustCreateWard(t, svc, WardGeneral)
	b := mustCreateBed(t, svc, w.ID, "B1", 200000)
	ctx := context.Background()

	if err := svc.ReserveBed(ctx, b.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := svc.UpdateBed(ctx, b.ID, UpdateBedRequest{IsActive: boolPtr(false)})
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Errorf("retiring occupied bed should conflict, got %v", err)
	}
}

func TestUpdateBed_RetireShrinksCapacity(t *testing.T) {
	svc, _ := newTestService()
	w := mustCreateWard(t, svc, WardGeneral)
	b := mustCreateBed(t, svc, w.ID, "B1", 200000)
	ctx := context.Background()

	if _, err := svc.UpdateBed(ctx, b.ID, UpdateBedRequest{IsActive: boolPtr(false)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := svc.GetWard(ctx, w.ID)
	if got.TotalBeds != 0 || got.AvailableBeds != 0 {
		t.Errorf("expected 0/0 after retiring, got %d/%d", got.AvailableBeds, got.TotalBeds)
	}
}

func TestUpdateBed_RateOnlyLeavesActivationAlone(t *testing.T) {
	svc, _ := newTestService()
	w := mustCreateWard(t, svc, WardGeneral)
	b := mustCreateBed(t, svc, w.ID, "B1", 200000)
	ctx := context.Background()

	got, err := svc.UpdateBed(ctx, b.ID, UpdateBedRequest{DailyRate: int64Ptr(250000)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.DailyRate != 250000 {
		t.Errorf("expected rate 250000, got %d", got.DailyRate)
	}
	if !got.IsActive {
		t.Error("rate-only update must not retire the bed")
	}
	ward, _ := svc.GetWard(ctx, w.ID)
	if ward.TotalBeds != 1 || ward.AvailableBeds != 1 {
		t.Errorf("capacity must be untouched, got %d/%d", ward.AvailableBeds, ward.TotalBeds)
	}

	// Repricing an occupied bed is an ordinary update, not a retirement.
	if err := svc.ReserveBed(ctx, b.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.UpdateBed(ctx, b.ID, UpdateBedRequest{DailyRate: int64Ptr(300000)}); err != nil {
		t.Errorf("repricing an occupied bed should succeed, got %v", err)
	}
}

func TestUpdateBed_Reactivate(t *testing.T) {
	svc, _ := newTestService()
	w := mustCreateWard(t, svc, WardGeneral)
	b := mustCreateBed(t, svc, w.ID, "B1", 200000)
	ctx := context.Background()

	if _, err := svc.UpdateBed(ctx, b.ID, UpdateBedRequest{IsActive: boolPtr(false)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.UpdateBed(ctx, b.ID, UpdateBedRequest{IsActive: boolPtr(true)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := svc.GetWard(ctx, w.ID)
	if got.TotalBeds != 1 || got.AvailableBeds != 1 {
		t.Errorf("expected 1/1 after reactivation, got %d/%d", got.AvailableBeds, got.TotalBeds)
	}
}

func TestUpdateWard_RenameLeavesActivationAlone(t *testing.T) {
	svc, _ := newTestService()
	w := mustCreateWard(t, svc, WardGeneral)
	ctx := context.Background()

	got, err := svc.UpdateWard(ctx, w.ID, UpdateWardRequest{Number: strPtr("W-EAST")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Number != "W-EAST" {
		t.Errorf("expected renamed ward, got %q", got.Number)
	}
	if !got.IsActive {
		t.Error("rename-only update must not deactivate the ward")
	}
	if got.Type != WardGeneral {
		t.Errorf("type must be untouched, got %q", got.Type)
	}
}

func TestUpdateWard_Validation(t *testing.T) {
	svc, _ := newTestService()
	w := mustCreateWard(t, svc, WardGeneral)
	ctx := context.Background()

	if _, err := svc.UpdateWard(ctx, w.ID, UpdateWardRequest{Type: strPtr("PENTHOUSE")}); !apperr.IsKind(err, apperr.KindInvalid) {
		t.Errorf("bad ward type should be invalid, got %v", err)
	}
	if _, err := svc.UpdateWard(ctx, w.ID, UpdateWardRequest{Number: strPtr("")}); !apperr.IsKind(err, apperr.KindInvalid) {
		t.Errorf("empty number should be invalid, got %v", err)
	}
	if _, err := svc.UpdateWard(ctx, uuid.New(), UpdateWardRequest{}); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("unknown ward should be not found, got %v", err)
	}
}

func TestListAvailable_FiltersOccupiedAndByType(t *testing.T) {
	svc, _ := newTestService()
	general := mustCreateWard(t, svc, WardGeneral)
	icu := mustCreateWard(t, svc, WardICU)
	b1 := mustCreateBed(t, svc, general.ID, "B1", 200000)
	mustCreateBed(t, svc, general.ID, "B2", 200000)
	mustCreateBed(t, svc, icu.ID, "I1", 800000)
	ctx := context.Background()

	if err := svc.ReserveBed(ctx, b1.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	all, err := svc.ListAvailable(ctx, AvailableFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 available beds, got %d", len(all))
	}

	icuOnly, err := svc.ListAvailable(ctx, AvailableFilter{WardType: WardICU})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(icuOnly) != 1 || icuOnly[0].WardType != WardICU {
		t.Errorf("expected 1 ICU bed, got %v", icuOnly)
	}

	if _, err := svc.ListAvailable(ctx, AvailableFilter{WardType: "SPA"}); !apperr.IsKind(err, apperr.KindInvalid) {
		t.Errorf("expected Invalid for unknown ward type, got %v", err)
	}
}

func TestIsCriticalCare(t *testing.T) {
	if !IsCriticalCare(WardICU) || !IsCriticalCare(WardNICU) {
		t.Error("ICU and NICU are critical care")
	}
	if IsCriticalCare(WardGeneral) {
		t.Error("GENERAL is not critical care")
	}
}
