package forecast

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/jobledger/jobledger/internal/budgets"
	"github.com/jobledger/jobledger/internal/periods"
	"github.com/jobledger/jobledger/internal/platform/httpx"
)

// Handler exposes EAC forecasting and buyout flags over HTTP.
type Handler struct {
	svc      *Service
	logger   *slog.Logger
	validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger, validate: validator.New()}
}

// MountRoutes registers the forecast routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/projects/{projectID}/eac", h.projectEAC)
	r.Get("/projects/{projectID}/budget-lines/{lineID}/eac", h.lineEAC)
	r.Put("/projects/{projectID}/budget-lines/{lineID}/buyout", h.setBuyout)
}

type eacLineView struct {
	BudgetLineID                 int64            `json:"budget_line_id"`
	BudgetedAmount               decimal.Decimal  `json:"budgeted_amount"`
	CommittedAmount              decimal.Decimal  `json:"committed_amount"`
	CommitmentChangeOrdersAmount decimal.Decimal  `json:"commitment_change_orders_amount"`
	TotalCommittedAmount         decimal.Decimal  `json:"total_committed_amount"`
	ActualsAmount                decimal.Decimal  `json:"actuals_amount"`
	ETCAmount                    decimal.Decimal  `json:"etc_amount"`
	EACAmount                    decimal.Decimal  `json:"eac_amount"`
	BuyoutSavings                *decimal.Decimal `json:"buyout_savings,omitempty"`
}

func lineViewOf(res EACResult) eacLineView {
	return eacLineView{
		BudgetLineID:                 res.BudgetLineID,
		BudgetedAmount:               res.BudgetedAmount,
		CommittedAmount:              res.CommittedAmount,
		CommitmentChangeOrdersAmount: res.CommitmentChangeOrdersAmount,
		TotalCommittedAmount:         res.TotalCommittedAmount,
		ActualsAmount:                res.ActualsAmount,
		ETCAmount:                    res.ETCAmount,
		EACAmount:                    res.EACAmount,
		BuyoutSavings:                res.BuyoutSavings,
	}
}

type projectEACView struct {
	ProjectID int64           `json:"project_id"`
	PeriodID  int64           `json:"period_id"`
	EACAmount decimal.Decimal `json:"eac_amount"`
	Lines     []eacLineView   `json:"lines,omitempty"`
}

func (h *Handler) projectEAC(w http.ResponseWriter, r *http.Request) {
	projectID, periodID, ok := h.projectAndPeriod(w, r)
	if !ok {
		return
	}

	total, err := h.svc.EACData(r.Context(), projectID, periodID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	out := projectEACView{ProjectID: projectID, PeriodID: periodID, EACAmount: total}

	if r.URL.Query().Get("include_lines") == "true" {
		_, lines, err := h.svc.LiveProjectEAC(r.Context(), projectID, periodID)
		if err != nil {
			h.respondError(w, err)
			return
		}
		for _, line := range lines {
			out.Lines = append(out.Lines, lineViewOf(line))
		}
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) lineEAC(w http.ResponseWriter, r *http.Request) {
	projectID, periodID, ok := h.projectAndPeriod(w, r)
	if !ok {
		return
	}
	lineID, err := strconv.ParseInt(chi.URLParam(r, "lineID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "budget line id must be an integer")
		return
	}

	result, err := h.svc.BudgetLineEAC(r.Context(), projectID, lineID, periodID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, lineViewOf(result))
}

type setBuyoutRequest struct {
	AccountingPeriodID int64            `json:"accounting_period_id" validate:"required,gt=0"`
	IsBoughtOut        bool             `json:"is_bought_out"`
	BuyoutAmount       *decimal.Decimal `json:"buyout_amount"`
	BuyoutDate         *time.Time       `json:"buyout_date"`
}

func (h *Handler) setBuyout(w http.ResponseWriter, r *http.Request) {
	projectID, err := strconv.ParseInt(chi.URLParam(r, "projectID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "project id must be an integer")
		return
	}
	lineID, err := strconv.ParseInt(chi.URLParam(r, "lineID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "budget line id must be an integer")
		return
	}

	var req setBuyoutRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	err = h.svc.SetBuyout(r.Context(), BudgetLineBuyout{
		ProjectID:          projectID,
		BudgetLineID:       lineID,
		AccountingPeriodID: req.AccountingPeriodID,
		IsBoughtOut:        req.IsBoughtOut,
		BuyoutAmount:       req.BuyoutAmount,
		BuyoutDate:         req.BuyoutDate,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) projectAndPeriod(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	projectID, err := strconv.ParseInt(chi.URLParam(r, "projectID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "project id must be an integer")
		return 0, 0, false
	}
	periodID, err := strconv.ParseInt(r.URL.Query().Get("period_id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "period_id is required and must be an integer")
		return 0, 0, false
	}
	return projectID, periodID, true
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, periods.ErrPeriodNotFound), errors.Is(err, budgets.ErrBudgetNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrPeriodClosed):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Invalid Operation", err.Error())
	default:
		h.logger.Error("forecast handler", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
