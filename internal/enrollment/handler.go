package enrollment

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lessonflow/lessonflow/internal/platform/httpx"
)

// Handler wires enrollment endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	now     func() time.Time
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, now: time.Now}
}

// WithNow overrides the handler clock for testing.
func (h *Handler) WithNow(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

// MountRoutes registers enrollment routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/coverage", h.weeklyCoverage)
}

type coverageResponse struct {
	EnrollmentID int64  `json:"enrollment_id"`
	StudentName  string `json:"student_name"`
	GroupName    string `json:"group_name,omitempty"`
	HasTeacher   bool   `json:"has_teacher"`
}

func (h *Handler) weeklyCoverage(w http.ResponseWriter, r *http.Request) {
	ref := h.now()
	if raw := r.URL.Query().Get("week_start"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid week_start date")
			return
		}
		ref = parsed
	}

	report, err := h.service.WeeklyCoverage(r.Context(), ref)
	if err != nil {
		h.logger.Error("weekly coverage", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	out := make([]coverageResponse, 0, len(report))
	for _, c := range report {
		out = append(out, coverageResponse{
			EnrollmentID: c.EnrollmentID,
			StudentName:  c.StudentName,
			GroupName:    c.GroupName,
			HasTeacher:   c.HasTeacher,
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"coverage": out})
}
