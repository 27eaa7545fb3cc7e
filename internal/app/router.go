package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/lessonflow/lessonflow/internal/enrollment"
	"github.com/lessonflow/lessonflow/internal/observability"
	"github.com/lessonflow/lessonflow/internal/payroll"
	"github.com/lessonflow/lessonflow/internal/scheduling"
	"github.com/lessonflow/lessonflow/internal/transfer"
	"github.com/lessonflow/lessonflow/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config

	SchedulingHandler *scheduling.Handler
	PayrollHandler    *payroll.Handler
	EnrollmentHandler *enrollment.Handler
	TransferHandler   *transfer.Handler
	JobHandler        *jobs.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults.
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

	if params.SchedulingHandler != nil {
		r.Route("/scheduling", params.SchedulingHandler.MountRoutes)
	}
	if params.PayrollHandler != nil {
		r.Route("/payroll", params.PayrollHandler.MountRoutes)
	}
	if params.EnrollmentHandler != nil {
		r.Route("/enrollments", params.EnrollmentHandler.MountRoutes)
	}
	if params.TransferHandler != nil {
		r.Route("/transfers", params.TransferHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
