package insurance

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hms/ipd/internal/platform/apperr"
	"github.com/hms/ipd/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	readGroup := api.Group("", auth.RequireRole("admin", "billing", "insurance"))
	readGroup.GET("/admissions/:id/preauth", h.ListPreAuths)
	readGroup.GET("/preauth/:id", h.GetPreAuth)
	readGroup.GET("/admissions/:id/claims", h.ListClaims)
	readGroup.GET("/claims/:id", h.GetClaim)

	writeGroup := api.Group("", auth.RequireRole("admin", "billing", "insurance"))
	writeGroup.POST("/admissions/:id/preauth", h.CreatePreAuth)
	writeGroup.PATCH("/preauth/:id", h.UpdatePreAuthStatus)
	writeGroup.POST("/admissions/:id/claims", h.CreateClaim)
	writeGroup.PATCH("/claims/:id", h.UpdateClaimStatus)
	writeGroup.POST("/claims/:id/apply", h.ApplyToLedger)
}

func pathID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

type preAuthRequest struct {
	EstimatedAmount int64   `json:"estimated_amount"`
	Remarks         *string `json:"remarks,omitempty"`
}

func (h *Handler) CreatePreAuth(c echo.Context) error {
	admissionID, err := pathID(c)
	if err != nil {
		return err
	}
	var req preAuthRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.CreatePreAuth(c.Request().Context(), admissionID, req.EstimatedAmount, req.Remarks)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPreAuth(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	p, err := h.svc.GetPreAuth(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListPreAuths(c echo.Context) error {
	admissionID, err := pathID(c)
	if err != nil {
		return err
	}
	preauths, err := h.svc.ListPreAuths(c.Request().Context(), admissionID)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, preauths)
}

type preAuthStatusRequest struct {
	Status  string  `json:"status"`
	Remarks *string `json:"remarks,omitempty"`
}

func (h *Handler) UpdatePreAuthStatus(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req preAuthStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.UpdatePreAuthStatus(c.Request().Context(), id, req.Status, req.Remarks)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

type claimRequest struct {
	ClaimedAmount int64 `json:"claimed_amount"`
}

func (h *Handler) CreateClaim(c echo.Context) error {
	admissionID, err := pathID(c)
	if err != nil {
		return err
	}
	var req claimRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	claim, err := h.svc.CreateClaim(c.Request().Context(), admissionID, req.ClaimedAmount)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusCreated, claim)
}

func (h *Handler) GetClaim(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	claim, err := h.svc.GetClaim(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, claim)
}

func (h *Handler) ListClaims(c echo.Context) error {
	admissionID, err := pathID(c)
	if err != nil {
		return err
	}
	claims, err := h.svc.ListClaims(c.Request().Context(), admissionID)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, claims)
}

type claimStatusRequest struct {
	Status         string `json:"status"`
	ApprovedAmount *int64 `json:"approved_amount,omitempty"`
}

func (h *Handler) UpdateClaimStatus(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req claimStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	// Only admins may skip workflow states.
	override := auth.IsAdmin(auth.RolesFromContext(c.Request().Context()))
	claim, err := h.svc.UpdateClaimStatus(c.Request().Context(), id, req.Status, req.ApprovedAmount, override)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, claim)
}

type applyRequest struct {
	Amount int64 `json:"amount"`
}

func (h *Handler) ApplyToLedger(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req applyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	claim, err := h.svc.ApplyToLedger(c.Request().Context(), id, req.Amount)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, claim)
}
