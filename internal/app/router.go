package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/jobledger/jobledger/internal/ap"
	"github.com/jobledger/jobledger/internal/billing"
	"github.com/jobledger/jobledger/internal/budgets"
	closepkg "github.com/jobledger/jobledger/internal/close"
	"github.com/jobledger/jobledger/internal/costs"
	"github.com/jobledger/jobledger/internal/forecast"
	"github.com/jobledger/jobledger/internal/journal"
	"github.com/jobledger/jobledger/internal/observability"
	"github.com/jobledger/jobledger/internal/periods"
	"github.com/jobledger/jobledger/internal/revenue"
	"github.com/jobledger/jobledger/internal/settings"
	"github.com/jobledger/jobledger/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics

	PeriodsHandler  *periods.Handler
	APHandler       *ap.Handler
	CostsHandler    *costs.Handler
	BudgetsHandler  *budgets.Handler
	ForecastHandler *forecast.Handler
	RevenueHandler  *revenue.Handler
	JournalHandler  *journal.Handler
	BillingHandler  *billing.Handler
	SettingsHandler *settings.Handler
	CloseHandler    *closepkg.Handler
	JobHandler      *jobs.Handler
}

// NewRouter constructs the chi.Router for the ledger API.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		if params.PeriodsHandler != nil {
			params.PeriodsHandler.MountRoutes(r)
		}
		if params.APHandler != nil {
			params.APHandler.MountRoutes(r)
		}
		if params.CostsHandler != nil {
			params.CostsHandler.MountRoutes(r)
		}
		if params.BudgetsHandler != nil {
			params.BudgetsHandler.MountRoutes(r)
		}
		if params.ForecastHandler != nil {
			params.ForecastHandler.MountRoutes(r)
		}
		if params.RevenueHandler != nil {
			params.RevenueHandler.MountRoutes(r)
		}
		if params.JournalHandler != nil {
			params.JournalHandler.MountRoutes(r)
		}
		if params.BillingHandler != nil {
			params.BillingHandler.MountRoutes(r)
		}
		if params.SettingsHandler != nil {
			params.SettingsHandler.MountRoutes(r)
		}
		if params.CloseHandler != nil {
			params.CloseHandler.MountRoutes(r)
		}
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
