package settings

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jobledger/jobledger/internal/platform/httpx"
)

// Handler exposes accounting settings over HTTP.
type Handler struct {
	svc    *Service
	logger *slog.Logger
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// MountRoutes registers the settings routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/settings/eac-reporting", h.getEACReporting)
	r.Put("/settings/eac-reporting", h.setEACReporting)
	r.Get("/projects/{projectID}/settings", h.effective)
}

type eacReportingView struct {
	Enabled bool `json:"enabled"`
}

func (h *Handler) getEACReporting(w http.ResponseWriter, r *http.Request) {
	enabled, err := h.svc.UseEACReporting(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, eacReportingView{Enabled: enabled})
}

func (h *Handler) setEACReporting(w http.ResponseWriter, r *http.Request) {
	var req eacReportingView
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.svc.SetUseEACReporting(r.Context(), req.Enabled); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, eacReportingView{Enabled: req.Enabled})
}

type effectiveView struct {
	ProjectID                    int64      `json:"project_id"`
	APInvoiceIntegrationMethod   string     `json:"ap_invoice_integration_method"`
	ARInvoiceIntegrationMethod   string     `json:"ar_invoice_integration_method"`
	LaborCostIntegrationMethod   string     `json:"labor_cost_integration_method"`
	AccountsPayableAccountID     *uuid.UUID `json:"accounts_payable_account_id,omitempty"`
	AccountsReceivableAccountID  *uuid.UUID `json:"accounts_receivable_account_id,omitempty"`
	RetainagePayableAccountID    *uuid.UUID `json:"retainage_payable_account_id,omitempty"`
	RetainageReceivableAccountID *uuid.UUID `json:"retainage_receivable_account_id,omitempty"`
	WagesPayableAccountID        *uuid.UUID `json:"wages_payable_account_id,omitempty"`
	RevenueAccountID             *uuid.UUID `json:"revenue_account_id,omitempty"`
	RevenueClearingAccountID     *uuid.UUID `json:"revenue_clearing_account_id,omitempty"`
	CostInExcessAccountID        *uuid.UUID `json:"cost_in_excess_account_id,omitempty"`
	BillingInExcessAccountID     *uuid.UUID `json:"billing_in_excess_account_id,omitempty"`
}

func (h *Handler) effective(w http.ResponseWriter, r *http.Request) {
	projectID, err := strconv.ParseInt(chi.URLParam(r, "projectID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "project id must be an integer")
		return
	}
	eff, err := h.svc.Effective(r.Context(), projectID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, effectiveView{
		ProjectID:                    eff.ProjectID,
		APInvoiceIntegrationMethod:   string(eff.APInvoiceIntegrationMethod),
		ARInvoiceIntegrationMethod:   string(eff.ARInvoiceIntegrationMethod),
		LaborCostIntegrationMethod:   string(eff.LaborCostIntegrationMethod),
		AccountsPayableAccountID:     eff.AccountsPayableAccountID,
		AccountsReceivableAccountID:  eff.AccountsReceivableAccountID,
		RetainagePayableAccountID:    eff.RetainagePayableAccountID,
		RetainageReceivableAccountID: eff.RetainageReceivableAccountID,
		WagesPayableAccountID:        eff.WagesPayableAccountID,
		RevenueAccountID:             eff.RevenueAccountID,
		RevenueClearingAccountID:     eff.RevenueClearingAccountID,
		CostInExcessAccountID:        eff.CostInExcessAccountID,
		BillingInExcessAccountID:     eff.BillingInExcessAccountID,
	})
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	h.logger.Error("settings handler", slog.Any("error", err))
	httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
}
