package payroll

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lessonflow/lessonflow/internal/platform/httpx"
)

// Handler wires payroll endpoints.
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

// MountRoutes registers payroll routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/teachers/{id}/statement", h.statement)
	r.Post("/teachers/{id}/close", h.closeMonth)
}

type statementResponse struct {
	TeacherID       int64  `json:"teacher_id"`
	PeriodStart     string `json:"period_start"`
	PeriodEnd       string `json:"period_end"`
	RegisteredHours string `json:"registered_hours"`
	RegisteredCount int    `json:"registered_count"`
	EstimatedHours  string `json:"estimated_hours"`
	EstimatedCount  int    `json:"estimated_count"`
	PayableAmount   string `json:"payable_amount"`
	Status          string `json:"status"`
}

func (h *Handler) statement(w http.ResponseWriter, r *http.Request) {
	teacherID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid teacher id")
		return
	}
	year, month := parseYearMonth(r)

	statement, err := h.service.ComputeStatement(r.Context(), teacherID, year, month, h.now())
	if err != nil {
		h.logger.Error("compute statement", slog.Any("error", err), slog.Int64("teacher_id", teacherID))
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, toStatementResponse(statement))
}

func (h *Handler) closeMonth(w http.ResponseWriter, r *http.Request) {
	teacherID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid teacher id")
		return
	}
	year, month := parseYearMonth(r)

	statement, err := h.service.ClosePaymentMonth(r.Context(), teacherID, year, month, h.now())
	if err != nil {
		h.logger.Error("close payment month", slog.Any("error", err), slog.Int64("teacher_id", teacherID))
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, toStatementResponse(statement))
}

func parseYearMonth(r *http.Request) (int, time.Month) {
	year, _ := strconv.Atoi(r.URL.Query().Get("year"))
	month, _ := strconv.Atoi(r.URL.Query().Get("month"))
	return year, time.Month(month)
}

func toStatementResponse(s Statement) statementResponse {
	return statementResponse{
		TeacherID:       s.TeacherID,
		PeriodStart:     s.PeriodStart.Format("2006-01-02"),
		PeriodEnd:       s.PeriodEnd.Format("2006-01-02"),
		RegisteredHours: s.RegisteredHours.StringFixed(2),
		RegisteredCount: s.RegisteredCount,
		EstimatedHours:  s.EstimatedHours.StringFixed(2),
		EstimatedCount:  s.EstimatedCount,
		PayableAmount:   s.PayableAmount.StringFixed(2),
		Status:          string(s.Status),
	}
}
