package billing

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/jobledger/jobledger/internal/periods"
	"github.com/jobledger/jobledger/internal/platform/httpx"
)

// Handler exposes progress billings and the prefill suggestion over HTTP.
type Handler struct {
	svc      *Service
	prefill  *Prefiller
	logger   *slog.Logger
	validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, prefill *Prefiller, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, prefill: prefill, logger: logger, validate: validator.New()}
}

// MountRoutes registers the billing routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/billings/{billingID}", h.get)
	r.Post("/billings/{billingID}/lines", h.addLine)
	r.Post("/billings/{billingID}/approve", h.approve)
	r.Get("/projects/{projectID}/billings/prefill", h.prefillSuggestion)
}

type billingView struct {
	ID                 int64           `json:"id"`
	ProjectID          int64           `json:"project_id"`
	ContractID         int64           `json:"contract_id"`
	AccountingPeriodID int64           `json:"accounting_period_id"`
	Number             string          `json:"number"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	RetentionHeld      decimal.Decimal `json:"retention_held"`
	RetentionReleased  decimal.Decimal `json:"retention_released"`
	TotalAmount        decimal.Decimal `json:"total_amount"`
	GrossAmount        decimal.Decimal `json:"gross_amount"`
	Status             string          `json:"status"`
}

func billingViewOf(b Billing) billingView {
	return billingView{
		ID:                 b.ID,
		ProjectID:          b.ProjectID,
		ContractID:         b.ContractID,
		AccountingPeriodID: b.AccountingPeriodID,
		Number:             b.Number,
		Subtotal:           b.Subtotal,
		RetentionHeld:      b.RetentionHeld,
		RetentionReleased:  b.RetentionReleased,
		TotalAmount:        b.TotalAmount,
		GrossAmount:        b.GrossAmount(),
		Status:             string(b.Status),
	}
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "billingID", "billing id")
	if !ok {
		return
	}
	b, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, billingViewOf(b))
}

type addLineRequest struct {
	CostCodeID          int64           `json:"cost_code_id" validate:"required,gt=0"`
	CostTypeID          int64           `json:"cost_type_id" validate:"required,gt=0"`
	ContractAmount      decimal.Decimal `json:"contract_amount"`
	BillingAmount       decimal.Decimal `json:"billing_amount"`
	MarkupPercent       decimal.Decimal `json:"markup_percent"`
	ActualBillingAmount decimal.Decimal `json:"actual_billing_amount"`
	RetainagePercent    decimal.Decimal `json:"retainage_percent"`
	RetentionHeld       decimal.Decimal `json:"retention_held"`
	RetentionReleased   decimal.Decimal `json:"retention_released"`
}

func (h *Handler) addLine(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "billingID", "billing id")
	if !ok {
		return
	}
	var req addLineRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	err := h.svc.AddLine(r.Context(), id, BillingLine{
		CostCodeID:          req.CostCodeID,
		CostTypeID:          req.CostTypeID,
		ContractAmount:      req.ContractAmount,
		BillingAmount:       req.BillingAmount,
		MarkupPercent:       req.MarkupPercent,
		ActualBillingAmount: req.ActualBillingAmount,
		RetainagePercent:    req.RetainagePercent,
		RetentionHeld:       req.RetentionHeld,
		RetentionReleased:   req.RetentionReleased,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	b, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, billingViewOf(b))
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "billingID", "billing id")
	if !ok {
		return
	}
	if err := h.svc.Approve(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	b, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, billingViewOf(b))
}

func (h *Handler) prefillSuggestion(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.pathID(w, r, "projectID", "project id")
	if !ok {
		return
	}
	periodID, err := strconv.ParseInt(r.URL.Query().Get("period_id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "period_id is required and must be an integer")
		return
	}
	suggestion, err := h.prefill.Suggest(r.Context(), projectID, periodID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, suggestion)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, param, label string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", label+" must be an integer")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrBillingNotFound), errors.Is(err, periods.ErrPeriodNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrInvalidStatus):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Invalid Operation", err.Error())
	default:
		h.logger.Error("billing handler", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
