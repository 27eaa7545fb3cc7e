package scheduling

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/lessonflow/lessonflow/internal/platform/httpx"
)

// Handler wires scheduling endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
	now       func() time.Time
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
		now:       time.Now,
	}
}

// WithNow overrides the handler clock for testing.
func (h *Handler) WithNow(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

// MountRoutes registers scheduling routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/availability-check", h.checkAvailability)
	r.Post("/lessons", h.createLesson)
	r.Post("/lessons/{id}/cancel", h.cancelLesson)
	r.Get("/free-teachers", h.findFreeTeachers)
}

type availabilityRequest struct {
	TeacherID       int64     `json:"teacher_id" validate:"required"`
	StartAt         time.Time `json:"start_at" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" validate:"gt=0"`
	ExcludeLessonID int64     `json:"exclude_lesson_id"`
}

type availabilityResponse struct {
	Available           bool   `json:"available"`
	Reason              string `json:"reason,omitempty"`
	ConflictingLessonID int64  `json:"conflicting_lesson_id,omitempty"`
}

func (h *Handler) checkAvailability(w http.ResponseWriter, r *http.Request) {
	var req availabilityRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	result, err := h.service.IsAvailable(r.Context(), req.TeacherID, CandidateWindow{
		StartAt:         req.StartAt,
		DurationMinutes: req.DurationMinutes,
	}, req.ExcludeLessonID)
	if err != nil {
		h.logger.Error("availability check", slog.Any("error", err), slog.Int64("teacher_id", req.TeacherID))
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, availabilityResponse{
		Available:           result.Available,
		Reason:              result.Reason,
		ConflictingLessonID: result.ConflictingLessonID,
	})
}

type createLessonRequest struct {
	TeacherID       int64     `json:"teacher_id" validate:"required"`
	EnrollmentID    int64     `json:"enrollment_id" validate:"required"`
	StartAt         time.Time `json:"start_at" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" validate:"gte=0"`
	Status          string    `json:"status" validate:"omitempty,oneof=CONFIRMED MAKEUP"`
}

type lessonResponse struct {
	ID              int64     `json:"id"`
	TeacherID       int64     `json:"teacher_id"`
	EnrollmentID    int64     `json:"enrollment_id"`
	StartAt         time.Time `json:"start_at"`
	DurationMinutes int       `json:"duration_minutes"`
	Status          string    `json:"status"`
}

func (h *Handler) createLesson(w http.ResponseWriter, r *http.Request) {
	var req createLessonRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	lesson, err := h.service.ScheduleLesson(r.Context(), CreateLessonInput{
		TeacherID:       req.TeacherID,
		EnrollmentID:    req.EnrollmentID,
		StartAt:         req.StartAt,
		DurationMinutes: req.DurationMinutes,
		Status:          LessonStatus(req.Status),
	})
	if err != nil {
		h.logger.Error("schedule lesson", slog.Any("error", err), slog.Int64("teacher_id", req.TeacherID))
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, toLessonResponse(lesson))
}

func (h *Handler) cancelLesson(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid lesson id")
		return
	}
	var req struct {
		Actor string `json:"actor" validate:"required"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	lesson, err := h.service.CancelLesson(r.Context(), id, req.Actor)
	if err != nil {
		h.logger.Error("cancel lesson", slog.Any("error", err), slog.Int64("lesson_id", id))
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, toLessonResponse(lesson))
}

type teacherResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (h *Handler) findFreeTeachers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var days []int
	for _, raw := range query["day"] {
		d, err := strconv.Atoi(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid day parameter")
			return
		}
		days = append(days, d)
	}
	startMinute, _ := strconv.Atoi(query.Get("start_minute"))
	endMinute, _ := strconv.Atoi(query.Get("end_minute"))

	teachers, err := h.service.FindFreeTeachers(r.Context(), days, startMinute, endMinute, h.now())
	if err != nil {
		h.logger.Error("find free teachers", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	out := make([]teacherResponse, 0, len(teachers))
	for _, t := range teachers {
		out = append(out, teacherResponse{ID: t.ID, Name: t.Name})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"teachers": out})
}

func toLessonResponse(l *Lesson) lessonResponse {
	return lessonResponse{
		ID:              l.ID,
		TeacherID:       l.TeacherID,
		EnrollmentID:    l.EnrollmentID,
		StartAt:         l.StartAt,
		DurationMinutes: l.DurationMinutes,
		Status:          string(l.Status),
	}
}
