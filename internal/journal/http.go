package journal

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jobledger/jobledger/internal/ap"
	"github.com/jobledger/jobledger/internal/billing"
	"github.com/jobledger/jobledger/internal/periods"
	"github.com/jobledger/jobledger/internal/platform/httpx"
)

// Handler exposes journal composition, posting, validation, and reversal
// over HTTP.
type Handler struct {
	svc       *Service
	validator *Validator
	logger    *slog.Logger
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, v *Validator, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, validator: v, logger: logger}
}

// MountRoutes registers the journal routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/journal-entries/{entryID}", h.get)
	r.Post("/journal-entries/{entryID}/reverse", h.reverse)
	r.Get("/periods/{periodID}/journal-entries", h.listByPeriod)
	r.Get("/periods/{periodID}/journal-entries/preview", h.preview)
	r.Get("/periods/{periodID}/validation", h.validate)
	r.Post("/invoices/{invoiceID}/journal-entries", h.postInvoice)
	r.Post("/billings/{billingID}/journal-entries", h.postBilling)
}

type entryView struct {
	ID                 int64      `json:"id,omitempty"`
	JournalNumber      string     `json:"journal_number,omitempty"`
	AccountingPeriodID int64      `json:"accounting_period_id"`
	ProjectID          *int64     `json:"project_id,omitempty"`
	EntryDate          time.Time  `json:"entry_date"`
	Description        string     `json:"description"`
	ReferenceType      string     `json:"reference_type"`
	ReferenceID        int64      `json:"reference_id"`
	Status             string     `json:"status"`
	Lines              []lineView `json:"lines"`
}

type lineView struct {
	LineNumber   int             `json:"line_number"`
	GLAccountID  uuid.UUID       `json:"gl_account_id"`
	Description  string          `json:"description"`
	DebitAmount  decimal.Decimal `json:"debit_amount"`
	CreditAmount decimal.Decimal `json:"credit_amount"`
}

func entryViewOf(e Entry) entryView {
	out := entryView{
		ID:                 e.ID,
		JournalNumber:      e.JournalNumber,
		AccountingPeriodID: e.AccountingPeriodID,
		ProjectID:          e.ProjectID,
		EntryDate:          e.EntryDate,
		Description:        e.Description,
		ReferenceType:      string(e.ReferenceType),
		ReferenceID:        e.ReferenceID,
		Status:             string(e.Status),
		Lines:              make([]lineView, 0, len(e.Lines)),
	}
	for _, line := range e.Lines {
		out.Lines = append(out.Lines, lineView{
			LineNumber:   line.LineNumber,
			GLAccountID:  line.GLAccountID,
			Description:  line.Description,
			DebitAmount:  line.DebitAmount,
			CreditAmount: line.CreditAmount,
		})
	}
	return out
}

func entryViewsOf(list []Entry) []entryView {
	out := make([]entryView, 0, len(list))
	for _, e := range list {
		out = append(out, entryViewOf(e))
	}
	return out
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "entryID", "entry id")
	if !ok {
		return
	}
	entry, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entryViewOf(entry))
}

func (h *Handler) listByPeriod(w http.ResponseWriter, r *http.Request) {
	periodID, ok := h.pathID(w, r, "periodID", "period id")
	if !ok {
		return
	}
	entries, err := h.svc.ListByPeriod(r.Context(), periodID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entryViewsOf(entries))
}

// preview composes the full period entry set without persisting anything.
func (h *Handler) preview(w http.ResponseWriter, r *http.Request) {
	periodID, ok := h.pathID(w, r, "periodID", "period id")
	if !ok {
		return
	}
	entries, err := h.svc.BuildPeriodEntries(r.Context(), periodID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entryViewsOf(entries))
}

func (h *Handler) validate(w http.ResponseWriter, r *http.Request) {
	periodID, ok := h.pathID(w, r, "periodID", "period id")
	if !ok {
		return
	}
	proposed, err := h.svc.BuildPeriodEntries(r.Context(), periodID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	result, err := h.validator.Validate(r.Context(), periodID, proposed)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) postInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "invoiceID", "invoice id")
	if !ok {
		return
	}
	entries, err := h.svc.PostInvoice(r.Context(), id, actorID(r))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entryViewsOf(entries))
}

func (h *Handler) postBilling(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "billingID", "billing id")
	if !ok {
		return
	}
	entries, err := h.svc.PostBilling(r.Context(), id, actorID(r))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entryViewsOf(entries))
}

func (h *Handler) reverse(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "entryID", "entry id")
	if !ok {
		return
	}
	entry, err := h.svc.Reverse(r.Context(), id, actorID(r))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entryViewOf(entry))
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, param, label string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", label+" must be an integer")
		return 0, false
	}
	return id, true
}

// actorID reads the acting user from the header the gateway sets. Zero
// means unattributed.
func actorID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(r.Header.Get("X-Actor-ID"), 10, 64)
	return id
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrEntryNotFound),
		errors.Is(err, ap.ErrInvoiceNotFound),
		errors.Is(err, billing.ErrBillingNotFound),
		errors.Is(err, periods.ErrPeriodNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrSourceNotApproved),
		errors.Is(err, ErrAlreadyReversed),
		errors.Is(err, ErrUnknownReference):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Invalid Operation", err.Error())
	default:
		h.logger.Error("journal handler", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
