package insurance

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/hms/ipd/internal/platform/auth"
)

func newHandlerEnv() (*Handler, *testEnv, *echo.Echo) {
	env := newTestEnv()
	return NewHandler(env.svc), env, echo.New()
}

func insCtx(e *echo.Echo, method, path, body, id string, roles []string) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if roles != nil {
		req = req.WithContext(context.WithValue(req.Context(), auth.UserRolesKey, roles))
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id)
	return c, rec
}

func TestHandler_CreatePreAuth(t *testing.T) {
	h, env, e := newHandlerEnv()

	c, rec := insCtx(e, http.MethodPost, "/api/v1/admissions/x/preauth",
		`{"estimated_amount":500000}`, env.admissionID.String(), nil)
	if err := h.CreatePreAuth(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	var p PreAuth
	json.Unmarshal(rec.Body.Bytes(), &p)
	if p.Status != PreAuthPending || p.EstimatedAmount != 500000 {
		t.Errorf("unexpected preauth: %+v", p)
	}
}

func TestHandler_CreatePreAuth_InvalidID(t *testing.T) {
	h, _, e := newHandlerEnv()

	c, _ := insCtx(e, http.MethodPost, "/api/v1/admissions/x/preauth",
		`{"estimated_amount":500000}`, "not-a-uuid", nil)
	err := h.CreatePreAuth(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad id, got %v", err)
	}
}

func TestHandler_UpdateClaimStatus_SkipNeedsAdmin(t *testing.T) {
	h, env, e := newHandlerEnv()

	claim, err := env.svc.CreateClaim(context.Background(), env.admissionID, 300000)
	if err != nil {
		t.Fatalf("create claim: %v", err)
	}

	body := `{"status":"APPROVED","approved_amount":250000}`

	// A billing user may not jump PENDING straight to APPROVED.
	c, _ := insCtx(e, http.MethodPatch, "/api/v1/claims/x", body, claim.ID.String(), []string{"billing"})
	err = h.UpdateClaimStatus(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without admin override, got %v", err)
	}

	// An admin may.
	c, rec := insCtx(e, http.MethodPatch, "/api/v1/claims/x", body, claim.ID.String(), []string{"admin"})
	if err := h.UpdateClaimStatus(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	var out InsuranceClaim
	json.Unmarshal(rec.Body.Bytes(), &out)
	if out.Status != ClaimApproved || out.ApprovedAmount != 250000 {
		t.Errorf("unexpected claim after override: %+v", out)
	}
}

func TestHandler_UpdatePreAuthStatus(t *testing.T) {
	h, env, e := newHandlerEnv()

	p, err := env.svc.CreatePreAuth(context.Background(), env.admissionID, 100000, nil)
	if err != nil {
		t.Fatalf("create preauth: %v", err)
	}

	c, rec := insCtx(e, http.MethodPatch, "/api/v1/preauth/x",
		`{"status":"APPROVED"}`, p.ID.String(), nil)
	if err := h.UpdatePreAuthStatus(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	var out PreAuth
	json.Unmarshal(rec.Body.Bytes(), &out)
	if out.Status != PreAuthApproved {
		t.Errorf("expected APPROVED, got %s", out.Status)
	}
}
