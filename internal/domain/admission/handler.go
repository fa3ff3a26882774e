package admission

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hms/ipd/internal/platform/apperr"
	"github.com/hms/ipd/internal/platform/auth"
	"github.com/hms/ipd/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	readGroup := api.Group("", auth.RequireRole("admin", "doctor", "nurse", "registrar", "billing"))
	readGroup.GET("/admissions", h.List)
	readGroup.GET("/admissions/:id", h.Get)
	readGroup.GET("/admissions/:id/transfers", h.ListTransfers)
	readGroup.GET("/admissions/:id/discharge", h.GetDischarge)

	writeGroup := api.Group("", auth.RequireRole("admin", "doctor", "registrar"))
	writeGroup.POST("/admissions", h.Admit)
	writeGroup.PATCH("/admissions/:id/status", h.UpdateStatus)
	writeGroup.POST("/admissions/:id/transfers", h.Transfer)
	writeGroup.POST("/admissions/:id/discharge", h.Discharge)
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid admission id")
	}
	return id, nil
}

func (h *Handler) Admit(c echo.Context) error {
	var req AdmitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a, err := h.svc.Admit(c.Request().Context(), req)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	ctx := c.Request().Context()

	if patientID := c.QueryParam("patient_id"); patientID != "" {
		pid, err := uuid.Parse(patientID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		admissions, total, err := h.svc.ListByPatient(ctx, pid, pg.Limit, pg.Offset)
		if err != nil {
			return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(admissions, total, pg))
	}

	if c.QueryParam("active") == "true" {
		admissions, total, err := h.svc.ListActive(ctx, pg.Limit, pg.Offset)
		if err != nil {
			return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(admissions, total, pg))
	}

	admissions, total, err := h.svc.List(ctx, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(admissions, total, pg))
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a, err := h.svc.UpdateStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, a)
}

type transferRequest struct {
	ToBedID    uuid.UUID `json:"to_bed_id"`
	Reason     string    `json:"reason"`
	ApprovedBy string    `json:"approved_by"`
}

func (h *Handler) Transfer(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req transferRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.ApprovedBy == "" {
		req.ApprovedBy = auth.UserIDFromContext(c.Request().Context())
	}
	t, err := h.svc.Transfer(c.Request().Context(), id, req.ToBedID, req.Reason, req.ApprovedBy)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *Handler) ListTransfers(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	transfers, err := h.svc.ListTransfers(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, transfers)
}

func (h *Handler) Discharge(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req DischargeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d, err := h.svc.Discharge(c.Request().Context(), id, req)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) GetDischarge(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	d, err := h.svc.GetDischarge(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, d)
}
