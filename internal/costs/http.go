package costs

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/go-chi/chi/v5"

	"github.com/jobledger/jobledger/internal/periods"
	"github.com/jobledger/jobledger/internal/platform/httpx"
)

// Handler exposes job-to-date cost aggregation over HTTP.
type Handler struct {
	svc     *Service
	periods *periods.Service
	logger  *slog.Logger
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, periodSvc *periods.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, periods: periodSvc, logger: logger}
}

// MountRoutes registers the cost routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/projects/{projectID}/costs", h.costsToDate)
}

func (h *Handler) costsToDate(w http.ResponseWriter, r *http.Request) {
	projectID, err := strconv.ParseInt(chi.URLParam(r, "projectID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "project id must be an integer")
		return
	}
	q := Query{ProjectID: projectID}

	if raw := r.URL.Query().Get("period_id"); raw != "" {
		periodID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "period_id must be an integer")
			return
		}
		q.PeriodIDs, err = h.periods.CutoffIDsFor(r.Context(), periodID)
		if err != nil {
			h.respondError(w, err)
			return
		}
	}
	if raw := r.URL.Query().Get("cost_code_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "cost_code_id must be an integer")
			return
		}
		q.CostCodeID = &id
	}
	if raw := r.URL.Query().Get("cost_type_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "cost_type_id must be an integer")
			return
		}
		q.CostTypeID = &id
	}

	breakdown, err := h.svc.CostsToDate(r.Context(), q)
	if err != nil {
		h.respondError(w, err)
		return
	}

	out := breakdownView{ProjectID: projectID, Total: breakdown.Total, Lines: make([]lineView, 0, len(breakdown.Lines))}
	for _, line := range breakdown.Lines {
		out.Lines = append(out.Lines, lineView{Source: line.Source, ReferenceID: line.ReferenceID, Amount: line.Amount})
	}
	httpx.JSON(w, http.StatusOK, out)
}

type breakdownView struct {
	ProjectID int64           `json:"project_id"`
	Total     decimal.Decimal `json:"total"`
	Lines     []lineView      `json:"lines"`
}

type lineView struct {
	Source      string          `json:"source"`
	ReferenceID int64           `json:"reference_id"`
	Amount      decimal.Decimal `json:"amount"`
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	if errors.Is(err, periods.ErrPeriodNotFound) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
		return
	}
	h.logger.Error("costs handler", slog.Any("error", err))
	httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
}
