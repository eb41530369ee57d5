package revenue

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/jobledger/jobledger/internal/periods"
	"github.com/jobledger/jobledger/internal/platform/httpx"
	"github.com/jobledger/jobledger/internal/settings"
)

// Handler exposes revenue recognition and the WIP report over HTTP.
type Handler struct {
	svc      *Service
	reporter *Reporter
	settings *settings.Service
	logger   *slog.Logger
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, reporter *Reporter, settingSvc *settings.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, reporter: reporter, settings: settingSvc, logger: logger}
}

// MountRoutes registers the revenue routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/projects/{projectID}/revenue", h.recognized)
	r.Get("/periods/{periodID}/wip-report", h.wipReport)
}

type revenueView struct {
	ProjectID           int64           `json:"project_id"`
	PeriodID            int64           `json:"period_id"`
	RevenueRecognized   decimal.Decimal `json:"revenue_recognized"`
	PercentComplete     decimal.Decimal `json:"percent_complete"`
	TotalContractAmount decimal.Decimal `json:"total_contract_amount"`
	CostsToDate         decimal.Decimal `json:"costs_to_date"`
	EACAmount           decimal.Decimal `json:"eac_amount"`
	CurrentBudgetAmount decimal.Decimal `json:"current_budget_amount"`
	BilledToDate        decimal.Decimal `json:"billed_to_date"`
	OverBilling         decimal.Decimal `json:"over_billing"`
	UnderBilling        decimal.Decimal `json:"under_billing"`
	Warnings            []string        `json:"warnings,omitempty"`
}

func (h *Handler) recognized(w http.ResponseWriter, r *http.Request) {
	projectID, err := strconv.ParseInt(chi.URLParam(r, "projectID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "project id must be an integer")
		return
	}
	periodID, err := strconv.ParseInt(r.URL.Query().Get("period_id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "period_id is required and must be an integer")
		return
	}

	eacEnabled, err := h.settings.UseEACReporting(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	result, err := h.svc.Recognized(r.Context(), projectID, periodID, eacEnabled)
	if err != nil {
		h.respondError(w, err)
		return
	}

	cutoff, err := h.svc.periods.CutoffIDsFor(r.Context(), periodID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	billed, err := h.svc.billings.BillingsToDate(r.Context(), projectID, cutoff)
	if err != nil {
		h.respondError(w, err)
		return
	}
	over, under := OverUnder(billed, result.RevenueRecognized)

	httpx.JSON(w, http.StatusOK, revenueView{
		ProjectID:           projectID,
		PeriodID:            periodID,
		RevenueRecognized:   result.RevenueRecognized,
		PercentComplete:     result.PercentComplete,
		TotalContractAmount: result.TotalContractAmount,
		CostsToDate:         result.CostsToDate,
		EACAmount:           result.EACAmount,
		CurrentBudgetAmount: result.CurrentBudgetAmount,
		BilledToDate:        billed,
		OverBilling:         over,
		UnderBilling:        under,
		Warnings:            result.Warnings,
	})
}

func (h *Handler) wipReport(w http.ResponseWriter, r *http.Request) {
	periodID, err := strconv.ParseInt(chi.URLParam(r, "periodID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "period id must be an integer")
		return
	}
	report, err := h.reporter.Build(r.Context(), periodID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	if errors.Is(err, periods.ErrPeriodNotFound) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
		return
	}
	h.logger.Error("revenue handler", slog.Any("error", err))
	httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
}
