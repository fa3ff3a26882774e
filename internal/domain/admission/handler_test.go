package admission

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hms/ipd/internal/domain/inventory"
)

func newTestHandler() (*Handler, *testEnv, *echo.Echo) {
	env := newTestEnv()
	return NewHandler(env.svc), env, echo.New()
}

func jsonCtx(e *echo.Echo, method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandler_Admit(t *testing.T) {
	h, env, e := newTestHandler()
	w := env.ward(t, inventory.WardGeneral)
	b := env.bed(t, w.ID, "B1", 200000)

	body := fmt.Sprintf(`{"patient_id":%q,"doctor_id":%q,"bed_id":%q}`,
		uuid.New().String(), uuid.New().String(), b.ID.String())
	c, rec := jsonCtx(e, http.MethodPost, "/api/v1/admissions", body)

	if err := h.Admit(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	var a Admission
	json.Unmarshal(rec.Body.Bytes(), &a)
	if a.Status != StatusAdmitted {
		t.Errorf("expected ADMITTED, got %s", a.Status)
	}
	if a.BedID != b.ID {
		t.Errorf("expected bed %s, got %s", b.ID, a.BedID)
	}
}

func TestHandler_Admit_OccupiedBedConflicts(t *testing.T) {
	h, env, e := newTestHandler()
	w := env.ward(t, inventory.WardGeneral)
	b := env.bed(t, w.ID, "B1", 200000)
	env.admit(t, b.ID)

	body := fmt.Sprintf(`{"patient_id":%q,"doctor_id":%q,"bed_id":%q}`,
		uuid.New().String(), uuid.New().String(), b.ID.String())
	c, _ := jsonCtx(e, http.MethodPost, "/api/v1/admissions", body)

	err := h.Admit(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusConflict {
		t.Errorf("expected 409 for occupied bed, got %v", err)
	}
}

func TestHandler_UpdateStatus(t *testing.T) {
	h, env, e := newTestHandler()
	w := env.ward(t, inventory.WardGeneral)
	b := env.bed(t, w.ID, "B1", 200000)
	a := env.admit(t, b.ID)

	c, rec := jsonCtx(e, http.MethodPatch, "/api/v1/admissions/"+a.ID.String()+"/status", `{"status":"STABLE"}`)
	c.SetParamNames("id")
	c.SetParamValues(a.ID.String())

	if err := h.UpdateStatus(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	var got Admission
	json.Unmarshal(rec.Body.Bytes(), &got)
	if got.Status != StatusStable {
		t.Errorf("expected STABLE, got %s", got.Status)
	}
}

func TestHandler_UpdateStatus_DischargeViaStatusRejected(t *testing.T) {
	h, env, e := newTestHandler()
	w := env.ward(t, inventory.WardGeneral)
	b := env.bed(t, w.ID, "B1", 200000)
	a := env.admit(t, b.ID)

	c, _ := jsonCtx(e, http.MethodPatch, "/api/v1/admissions/"+a.ID.String()+"/status", `{"status":"DISCHARGED"}`)
	c.SetParamNames("id")
	c.SetParamValues(a.ID.String())

	err := h.UpdateStatus(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for status-path discharge, got %v", err)
	}
}

func TestHandler_Discharge(t *testing.T) {
	h, env, e := newTestHandler()
	w := env.ward(t, inventory.WardGeneral)
	b := env.bed(t, w.ID, "B1", 200000)
	a := env.admit(t, b.ID)

	body := fmt.Sprintf(`{"doctor_id":%q,"final_diagnosis":"recovered","medications":["paracetamol"]}`, uuid.New().String())
	c, rec := jsonCtx(e, http.MethodPost, "/api/v1/admissions/"+a.ID.String()+"/discharge", body)
	c.SetParamNames("id")
	c.SetParamValues(a.ID.String())

	if err := h.Discharge(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	got, _ := env.svc.Get(c.Request().Context(), a.ID)
	if got.Status != StatusDischarged {
		t.Errorf("expected DISCHARGED, got %s", got.Status)
	}
	freedBed, _ := env.beds.GetBed(c.Request().Context(), b.ID)
	if freedBed.IsOccupied {
		t.Error("bed must be freed by discharge")
	}
}
