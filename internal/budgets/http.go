package budgets

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/jobledger/jobledger/internal/periods"
	"github.com/jobledger/jobledger/internal/platform/httpx"
)

// Handler exposes current-budget resolution over HTTP.
type Handler struct {
	svc     *Service
	periods *periods.Service
	logger  *slog.Logger
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, periodSvc *periods.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, periods: periodSvc, logger: logger}
}

// MountRoutes registers the budget routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/projects/{projectID}/budget", h.currentBudget)
}

type budgetView struct {
	ProjectID int64           `json:"project_id"`
	Amount    decimal.Decimal `json:"amount"`
	Warnings  []string        `json:"warnings,omitempty"`
}

func (h *Handler) currentBudget(w http.ResponseWriter, r *http.Request) {
	projectID, err := strconv.ParseInt(chi.URLParam(r, "projectID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "project id must be an integer")
		return
	}

	var cutoff map[int64]struct{}
	if raw := r.URL.Query().Get("period_id"); raw != "" {
		periodID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "period_id must be an integer")
			return
		}
		cutoff, err = h.periods.CutoffIDsFor(r.Context(), periodID)
		if err != nil {
			h.respondError(w, err)
			return
		}
	}

	result, err := h.svc.CurrentBudget(r.Context(), projectID, cutoff)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, budgetView{ProjectID: projectID, Amount: result.Amount, Warnings: result.Warnings})
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	if errors.Is(err, periods.ErrPeriodNotFound) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
		return
	}
	h.logger.Error("budgets handler", slog.Any("error", err))
	httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
}
