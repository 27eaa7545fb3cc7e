package transfer

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/lessonflow/lessonflow/internal/platform/httpx"
	"github.com/lessonflow/lessonflow/internal/scheduling"
)

// Handler wires transfer endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	scheduler *scheduling.Service
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, scheduler *scheduling.Service) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		scheduler: scheduler,
		validator: validator.New(),
	}
}

// MountRoutes registers transfer routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.transfer)
	r.Get("/candidates", h.candidates)
}

type transferRequest struct {
	SourceTeacherID int64     `json:"source_teacher_id" validate:"required"`
	DestTeacherID   int64     `json:"dest_teacher_id" validate:"required"`
	From            time.Time `json:"from" validate:"required"`
	Actor           string    `json:"actor" validate:"required"`
}

func (h *Handler) transfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	result, err := h.service.TransferSchedule(r.Context(), Input{
		SourceTeacherID: req.SourceTeacherID,
		DestTeacherID:   req.DestTeacherID,
		From:            req.From,
		Actor:           req.Actor,
	})
	if err != nil {
		h.logger.Error("transfer schedule", slog.Any("error", err),
			slog.Int64("source", req.SourceTeacherID), slog.Int64("dest", req.DestTeacherID))
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]int{"transferred_count": result.TransferredCount})
}

func (h *Handler) candidates(w http.ResponseWriter, r *http.Request) {
	sourceID, err := strconv.ParseInt(r.URL.Query().Get("source_teacher_id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid source_teacher_id")
		return
	}
	from, err := time.Parse("2006-01-02", r.URL.Query().Get("from"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid from date")
		return
	}

	teachers, err := h.service.FindCandidates(r.Context(), h.scheduler, sourceID, from)
	if err != nil {
		h.logger.Error("find transfer candidates", slog.Any("error", err), slog.Int64("source", sourceID))
		httpx.RespondError(w, err)
		return
	}

	type candidate struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	out := make([]candidate, 0, len(teachers))
	for _, t := range teachers {
		out = append(out, candidate{ID: t.ID, Name: t.Name})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"candidates": out})
}
