package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/redpen-app/redpen-api/internal/api/shared"
	"github.com/redpen-app/redpen-api/internal/domain"
	"github.com/redpen-app/redpen-api/internal/service"
)

// Listing bounds for the essay collection endpoint.
const (
	defaultEssayListLimit = 20
	maxEssayListLimit     = 100
)

// EssayHandler handles essay-related API requests.
type EssayHandler struct {
	essayService service.EssayService
	validator    *validator.Validate
	logger       *slog.Logger
}

// NewEssayHandler creates a new EssayHandler with the given dependencies.
func NewEssayHandler(essayService service.EssayService, logger *slog.Logger) *EssayHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &EssayHandler{
		essayService: essayService,
		validator:    validator.New(),
		logger:       logger.With(slog.String("component", "essay_handler")),
	}
}

// parseOptionalRubricID parses the rubric_id field of a create request.
// An empty field yields uuid.Nil, meaning no rubric was selected.
func parseOptionalRubricID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(raw)
}

// CreateEssay handles POST /essays. The essay is stored with pending status
// and graded in the background; clients poll the job or the essay status.
func (h *EssayHandler) CreateEssay(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		HandleAPIError(w, r, domain.ErrUnauthorized, "User ID not found or invalid")
		return
	}

	var req CreateEssayRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	rubricID, err := parseOptionalRubricID(req.RubricID)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid rubric_id")
		return
	}

	essay, err := h.essayService.CreateEssay(r.Context(), userID, rubricID, req.Title, req.Content)
	if err != nil {
		h.logger.Error("failed to create essay", "error", err, "user_id", userID)
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, CreateEssayResponse{
		Essay: NewEssayResponse(essay),
	})
}

// CreateEssayFromPhoto handles POST /essays/photo. The photo is run through
// text recognition before the essay is stored and queued for grading.
func (h *EssayHandler) CreateEssayFromPhoto(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		HandleAPIError(w, r, domain.ErrUnauthorized, "User ID not found or invalid")
		return
	}

	var req CreateEssayFromPhotoRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	rubricID, err := parseOptionalRubricID(req.RubricID)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid rubric_id")
		return
	}

	essay, err := h.essayService.CreateEssayFromPhoto(r.Context(), userID, rubricID, req.Title, req.PhotoURL)
	if err != nil {
		h.logger.Error("failed to create essay from photo", "error", err, "user_id", userID)
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, CreateEssayResponse{
		Essay: NewEssayResponse(essay),
	})
}

// ListEssays handles GET /essays. Supports status, limit and offset query
// parameters; results are newest first.
func (h *EssayHandler) ListEssays(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		HandleAPIError(w, r, domain.ErrUnauthorized, "User ID not found or invalid")
		return
	}

	status := domain.EssayStatus(r.URL.Query().Get("status"))
	if status != "" {
		switch status {
		case domain.EssayStatusPending, domain.EssayStatusGraded, domain.EssayStatusFailed:
		default:
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid status filter")
			return
		}
	}

	limit := parseIntQuery(r, "limit", defaultEssayListLimit)
	if limit < 1 || limit > maxEssayListLimit {
		limit = defaultEssayListLimit
	}
	offset := parseIntQuery(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	page, err := h.essayService.ListEssays(r.Context(), userID, status, limit, offset)
	if err != nil {
		h.logger.Error("failed to list essays", "error", err, "user_id", userID)
		HandleAPIError(w, r, err, "")
		return
	}

	essays := make([]EssayResponse, 0, len(page.Essays))
	for _, essay := range page.Essays {
		essays = append(essays, NewEssayResponse(essay))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, EssayListResponse{
		Essays: essays,
		Total:  page.Total,
		Limit:  limit,
		Offset: offset,
	})
}

// GetEssay handles GET /essays/{id}.
func (h *EssayHandler) GetEssay(w http.ResponseWriter, r *http.Request) {
	userID, essayID, ok := handleUserIDAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	essay, err := h.essayService.GetEssay(r.Context(), userID, essayID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NewEssayResponse(essay))
}

// DeleteEssay handles DELETE /essays/{id}. Grading records for the essay
// are removed with it.
func (h *EssayHandler) DeleteEssay(w http.ResponseWriter, r *http.Request) {
	userID, essayID, ok := handleUserIDAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	if err := h.essayService.DeleteEssay(r.Context(), userID, essayID); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GradeEssay handles POST /essays/{id}/grade. It enqueues a grading job and
// returns its ID immediately; grading happens in the background.
func (h *EssayHandler) GradeEssay(w http.ResponseWriter, r *http.Request) {
	userID, essayID, ok := handleUserIDAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	jobID, err := h.essayService.RequestGrading(r.Context(), userID, essayID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, GradeEssayResponse{
		JobID:   jobID,
		EssayID: essayID,
		Status:  "pending",
	})
}

// GetResult handles GET /essays/{id}/result. It returns the essay's latest
// grading attempt.
func (h *EssayHandler) GetResult(w http.ResponseWriter, r *http.Request) {
	userID, essayID, ok := handleUserIDAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	record, err := h.essayService.GetResult(r.Context(), userID, essayID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NewGradingResultResponse(record))
}

// RegradeEssay handles POST /essays/{id}/regrade. The revised content is
// saved as a new version of the essay and queued for grading; the original
// essay and its result are untouched.
func (h *EssayHandler) RegradeEssay(w http.ResponseWriter, r *http.Request) {
	userID, essayID, ok := handleUserIDAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	var req RegradeEssayRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	version, err := h.essayService.RegradeEssay(r.Context(), userID, essayID, req.Content)
	if err != nil {
		h.logger.Error("failed to regrade essay", "error", err, "essay_id", essayID)
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, CreateEssayResponse{
		Essay: NewEssayResponse(version),
	})
}

// CompareVersions handles GET /essays/{id}/compare. The version1 and
// version2 query parameters select which versions of the essay to diff.
func (h *EssayHandler) CompareVersions(w http.ResponseWriter, r *http.Request) {
	userID, essayID, ok := handleUserIDAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	v1, ok := parseVersionQuery(r, "version1")
	if !ok {
		shared.RespondWithError(w, r, http.StatusBadRequest, "version1 and version2 are required")
		return
	}
	v2, ok := parseVersionQuery(r, "version2")
	if !ok {
		shared.RespondWithError(w, r, http.StatusBadRequest, "version1 and version2 are required")
		return
	}

	comparison, err := h.essayService.CompareVersions(r.Context(), userID, essayID, v1, v2)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, comparison)
}

// parseVersionQuery parses a required positive version number parameter.
func parseVersionQuery(r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, false
	}

	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return 0, false
	}
	return value, true
}

// parseIntQuery parses an integer query parameter, falling back to def when
// the parameter is absent or malformed.
func parseIntQuery(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return value
}
