package api

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/redpen-app/redpen-api/internal/api/shared"
	"github.com/redpen-app/redpen-api/internal/domain"
	"github.com/redpen-app/redpen-api/internal/grading"
	"github.com/redpen-app/redpen-api/internal/service"
)

// RubricHandler handles rubric-related API requests.
type RubricHandler struct {
	rubricService service.RubricService
	optimizer     grading.PromptOptimizer
	validator     *validator.Validate
	logger        *slog.Logger
}

// NewRubricHandler creates a new RubricHandler with the given dependencies.
func NewRubricHandler(
	rubricService service.RubricService,
	optimizer grading.PromptOptimizer,
	logger *slog.Logger,
) *RubricHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &RubricHandler{
		rubricService: rubricService,
		optimizer:     optimizer,
		validator:     validator.New(),
		logger:        logger.With(slog.String("component", "rubric_handler")),
	}
}

// toDomainDimensions converts request dimensions to their domain form.
func toDomainDimensions(dims []DimensionRequest) []domain.RubricDimension {
	out := make([]domain.RubricDimension, 0, len(dims))
	for _, dim := range dims {
		out = append(out, domain.RubricDimension{
			Name:        dim.Name,
			Description: dim.Description,
			Weight:      dim.Weight,
			MaxScore:    dim.MaxScore,
			Criteria:    dim.Criteria,
		})
	}
	return out
}

// CreateRubric handles POST /rubrics.
func (h *RubricHandler) CreateRubric(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		HandleAPIError(w, r, domain.ErrUnauthorized, "User ID not found or invalid")
		return
	}

	var req CreateRubricRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	rubric, err := h.rubricService.CreateRubric(
		r.Context(),
		userID,
		req.Name,
		req.Description,
		domain.RubricScene(req.Scene),
		toDomainDimensions(req.Dimensions),
		req.CustomPrompt,
	)
	if err != nil {
		h.logger.Error("failed to create rubric", "error", err, "user_id", userID)
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, NewRubricResponse(rubric))
}

// ListRubrics handles GET /rubrics. The response contains built-in rubrics
// plus the user's own, optionally filtered by the scene query parameter.
func (h *RubricHandler) ListRubrics(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		HandleAPIError(w, r, domain.ErrUnauthorized, "User ID not found or invalid")
		return
	}

	scene := domain.RubricScene(r.URL.Query().Get("scene"))
	if scene != "" {
		switch scene {
		case domain.RubricSceneExam, domain.RubricScenePractice, domain.RubricSceneCustom:
		default:
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid scene filter")
			return
		}
	}

	rubrics, err := h.rubricService.ListRubrics(r.Context(), userID, scene)
	if err != nil {
		h.logger.Error("failed to list rubrics", "error", err, "user_id", userID)
		HandleAPIError(w, r, err, "")
		return
	}

	out := make([]RubricResponse, 0, len(rubrics))
	for _, rubric := range rubrics {
		out = append(out, NewRubricResponse(rubric))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, RubricListResponse{Rubrics: out})
}

// GetRubric handles GET /rubrics/{id}.
func (h *RubricHandler) GetRubric(w http.ResponseWriter, r *http.Request) {
	userID, rubricID, ok := handleUserIDAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	rubric, err := h.rubricService.GetRubric(r.Context(), userID, rubricID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NewRubricResponse(rubric))
}

// UpdateRubric handles PUT /rubrics/{id}. Built-in rubrics are immutable.
func (h *RubricHandler) UpdateRubric(w http.ResponseWriter, r *http.Request) {
	userID, rubricID, ok := handleUserIDAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	var req UpdateRubricRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	rubric := &domain.Rubric{
		ID:           rubricID,
		UserID:       userID,
		Name:         req.Name,
		Description:  req.Description,
		Scene:        domain.RubricScene(req.Scene),
		Dimensions:   toDomainDimensions(req.Dimensions),
		CustomPrompt: req.CustomPrompt,
	}
	if err := rubric.Validate(); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if err := h.rubricService.UpdateRubric(r.Context(), userID, rubric); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NewRubricResponse(rubric))
}

// DeleteRubric handles DELETE /rubrics/{id}. Built-in rubrics cannot be
// deleted. Essays referencing the rubric keep their grading history; the
// reference is cleared by the store.
func (h *RubricHandler) DeleteRubric(w http.ResponseWriter, r *http.Request) {
	userID, rubricID, ok := handleUserIDAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	if err := h.rubricService.DeleteRubric(r.Context(), userID, rubricID); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SetDefault handles POST /rubrics/{id}/default. Only the user's own
// rubrics can be marked default; at most one default per user.
func (h *RubricHandler) SetDefault(w http.ResponseWriter, r *http.Request) {
	userID, rubricID, ok := handleUserIDAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	rubric, err := h.rubricService.SetDefaultRubric(r.Context(), userID, rubricID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NewRubricResponse(rubric))
}

// OptimizePrompt handles POST /rubrics/optimize-prompt. The model's raw
// response is normalized; an unparseable response still yields a usable
// prompt rather than an error.
func (h *RubricHandler) OptimizePrompt(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		HandleAPIError(w, r, domain.ErrUnauthorized, "User ID not found or invalid")
		return
	}

	var req OptimizeRubricPromptRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	raw, err := h.optimizer.OptimizePrompt(
		r.Context(),
		req.RubricName,
		toDomainDimensions(req.Dimensions),
		req.CustomPrompt,
	)
	if err != nil {
		h.logger.Error("prompt optimization failed", "error", err, "user_id", userID)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "AI服务暂时不可用，请稍后重试")
		return
	}

	optimization := grading.ParsePromptOptimization(raw)

	shared.RespondWithJSON(w, r, http.StatusOK, OptimizedPromptResponse{
		OptimizedPrompt: optimization.OptimizedPrompt,
		Suggestions:     optimization.Suggestions,
	})
}

// Suggest handles POST /rubrics/suggest. The template is built locally
// from the scenario description; no model call is involved.
func (h *RubricHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	if _, ok := getUserIDFromContext(r); !ok {
		HandleAPIError(w, r, domain.ErrUnauthorized, "User ID not found or invalid")
		return
	}

	var req SuggestRubricRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	suggestion := service.SuggestRubric(req.Scene, req.Topic, req.Grade)

	shared.RespondWithJSON(w, r, http.StatusOK, suggestion)
}
