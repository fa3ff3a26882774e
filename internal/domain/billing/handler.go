package billing

import (
	"net/http"
	"time"

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
	readGroup := api.Group("", auth.RequireRole("admin", "doctor", "nurse", "billing"))
	readGroup.GET("/admissions/:id/billing", h.GetLedger)
	readGroup.GET("/admissions/:id/billing/payments", h.ListPayments)

	writeGroup := api.Group("", auth.RequireRole("admin", "billing"))
	writeGroup.POST("/admissions/:id/billing/charges", h.PostCharge)
	writeGroup.POST("/admissions/:id/billing/payments", h.PostPayment)
	writeGroup.POST("/admissions/:id/billing/accrue", h.AccrueDailyCharge)
	writeGroup.PATCH("/admissions/:id/billing/adjustments", h.SetAdjustments)
}

func admissionID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid admission id")
	}
	return id, nil
}

func (h *Handler) GetLedger(c echo.Context) error {
	id, err := admissionID(c)
	if err != nil {
		return err
	}
	l, err := h.svc.GetByAdmission(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, l)
}

type chargeRequest struct {
	ChargeType string `json:"charge_type"`
	Amount     int64  `json:"amount"`
}

func (h *Handler) PostCharge(c echo.Context) error {
	id, err := admissionID(c)
	if err != nil {
		return err
	}
	var req chargeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	l, err := h.svc.PostCharge(c.Request().Context(), id, req.ChargeType, req.Amount)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, l)
}

type paymentRequest struct {
	Amount int64   `json:"amount"`
	Method string  `json:"method"`
	TxnRef *string `json:"txn_ref,omitempty"`
}

func (h *Handler) PostPayment(c echo.Context) error {
	id, err := admissionID(c)
	if err != nil {
		return err
	}
	var req paymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	l, err := h.svc.PostPayment(c.Request().Context(), id, req.Amount, req.Method, req.TxnRef)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, l)
}

type accrueRequest struct {
	Date string `json:"date"` // YYYY-MM-DD; defaults to today
}

func (h *Handler) AccrueDailyCharge(c echo.Context) error {
	id, err := admissionID(c)
	if err != nil {
		return err
	}
	var req accrueRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	date := time.Now().UTC()
	if req.Date != "" {
		date, err = time.Parse("2006-01-02", req.Date)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		}
	}
	l, err := h.svc.AccrueDailyCharge(c.Request().Context(), id, date)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, l)
}

type adjustmentsRequest struct {
	Discount int64 `json:"discount"`
	Tax      int64 `json:"tax"`
}

func (h *Handler) SetAdjustments(c echo.Context) error {
	id, err := admissionID(c)
	if err != nil {
		return err
	}
	var req adjustmentsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	l, err := h.svc.SetAdjustments(c.Request().Context(), id, req.Discount, req.Tax)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, l)
}

func (h *Handler) ListPayments(c echo.Context) error {
	id, err := admissionID(c)
	if err != nil {
		return err
	}
	payments, err := h.svc.ListPayments(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, payments)
}
