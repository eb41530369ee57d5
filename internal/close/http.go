package close

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jobledger/jobledger/internal/periods"
	"github.com/jobledger/jobledger/internal/platform/httpx"
	"github.com/jobledger/jobledger/internal/shared"
)

// Handler exposes period close and reopen over HTTP.
type Handler struct {
	svc    *Service
	logger *slog.Logger
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// MountRoutes registers the close routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/periods/{periodID}/close", h.closePeriod)
	r.Post("/periods/{periodID}/reopen", h.reopenPeriod)
}

func (h *Handler) closePeriod(w http.ResponseWriter, r *http.Request) {
	periodID, ok := h.pathPeriodID(w, r)
	if !ok {
		return
	}
	result, err := h.svc.ClosePeriod(r.Context(), periodID, actorID(r))
	if err != nil {
		h.respondError(w, result, err)
		return
	}
	if !result.Success {
		// Validation failures are data problems: report them with the
		// structured result, not a transport error.
		httpx.JSON(w, http.StatusUnprocessableEntity, result)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) reopenPeriod(w http.ResponseWriter, r *http.Request) {
	periodID, ok := h.pathPeriodID(w, r)
	if !ok {
		return
	}
	result, err := h.svc.ReopenPeriod(r.Context(), periodID, actorID(r))
	if err != nil {
		h.respondError(w, result, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) pathPeriodID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "periodID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "period id must be an integer")
		return 0, false
	}
	return id, true
}

func actorID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(r.Header.Get("X-Actor-ID"), 10, 64)
	return id
}

func (h *Handler) respondError(w http.ResponseWriter, result Result, err error) {
	switch {
	case errors.Is(err, shared.ErrLockHeld):
		httpx.Problem(w, http.StatusConflict, "Locked", "a close or reopen for this period is already in progress")
	case errors.Is(err, periods.ErrPeriodNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrPeriodNotOpen), errors.Is(err, ErrPeriodNotClosed):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Invalid Operation", err.Error())
	default:
		h.logger.Error("close handler", slog.Any("error", err), slog.String("stage", result.Stage))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
