package ap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/jobledger/jobledger/internal/platform/httpx"
)

// Handler exposes AP invoices over HTTP.
type Handler struct {
	svc      *Service
	logger   *slog.Logger
	validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger, validate: validator.New()}
}

// MountRoutes registers the AP invoice routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/invoices/{invoiceID}", h.get)
	r.Post("/invoices/{invoiceID}/lines", h.addLine)
	r.Delete("/invoices/{invoiceID}/lines/{lineID}", h.removeLine)
	r.Post("/invoices/{invoiceID}/approve", h.approve)
	r.Post("/invoices/{invoiceID}/cancel", h.cancel)
}

type invoiceView struct {
	ID                 int64           `json:"id"`
	VendorID           int64           `json:"vendor_id"`
	ProjectID          *int64          `json:"project_id,omitempty"`
	CommitmentID       *int64          `json:"commitment_id,omitempty"`
	AccountingPeriodID int64           `json:"accounting_period_id"`
	Number             string          `json:"number"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	RetentionHeld      decimal.Decimal `json:"retention_held"`
	RetentionReleased  decimal.Decimal `json:"retention_released"`
	TotalAmount        decimal.Decimal `json:"total_amount"`
	GrossAmount        decimal.Decimal `json:"gross_amount"`
	Status             string          `json:"status"`
}

func invoiceViewOf(inv Invoice) invoiceView {
	return invoiceView{
		ID:                 inv.ID,
		VendorID:           inv.VendorID,
		ProjectID:          inv.ProjectID,
		CommitmentID:       inv.CommitmentID,
		AccountingPeriodID: inv.AccountingPeriodID,
		Number:             inv.Number,
		Subtotal:           inv.Subtotal,
		RetentionHeld:      inv.RetentionHeld,
		RetentionReleased:  inv.RetentionReleased,
		TotalAmount:        inv.TotalAmount,
		GrossAmount:        inv.GrossAmount(),
		Status:             string(inv.Status),
	}
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "invoiceID", "invoice id")
	if !ok {
		return
	}
	invoice, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, invoiceViewOf(invoice))
}

type addInvoiceLineRequest struct {
	CostCodeID        int64           `json:"cost_code_id" validate:"required,gt=0"`
	CostTypeID        int64           `json:"cost_type_id" validate:"required,gt=0"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	RetentionHeld     decimal.Decimal `json:"retention_held"`
	RetentionReleased decimal.Decimal `json:"retention_released"`
}

func (h *Handler) addLine(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "invoiceID", "invoice id")
	if !ok {
		return
	}
	var req addInvoiceLineRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	err := h.svc.AddLine(r.Context(), InvoiceLine{
		InvoiceID:         id,
		CostCodeID:        req.CostCodeID,
		CostTypeID:        req.CostTypeID,
		TotalAmount:       req.TotalAmount,
		RetentionHeld:     req.RetentionHeld,
		RetentionReleased: req.RetentionReleased,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	invoice, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, invoiceViewOf(invoice))
}

func (h *Handler) removeLine(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "invoiceID", "invoice id")
	if !ok {
		return
	}
	lineID, ok := h.pathID(w, r, "lineID", "line id")
	if !ok {
		return
	}
	if err := h.svc.RemoveLine(r.Context(), id, lineID); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Approve)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Cancel)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, invoiceID, actorID int64) error) {
	id, ok := h.pathID(w, r, "invoiceID", "invoice id")
	if !ok {
		return
	}
	if err := fn(r.Context(), id, actorID(r)); err != nil {
		h.respondError(w, err)
		return
	}
	invoice, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, invoiceViewOf(invoice))
}

func actorID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(r.Header.Get("X-Actor-ID"), 10, 64)
	return id
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
	case errors.Is(err, ErrInvoiceNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrInvalidStatus):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Invalid Operation", err.Error())
	default:
		h.logger.Error("ap handler", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
