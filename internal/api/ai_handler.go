package api

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/redpen-app/redpen-api/internal/api/shared"
	"github.com/redpen-app/redpen-api/internal/domain"
	"github.com/redpen-app/redpen-api/internal/grading"
	"github.com/redpen-app/redpen-api/internal/service"
)

// AIHandler exposes the grading backend directly: synchronous grading and
// text recognition without touching the essay store or the job queue. The
// caller waits for the model; slow responses are bounded by the backend's
// own timeout.
type AIHandler struct {
	grader        grading.Grader
	recognizer    grading.TextRecognizer
	rubricService service.RubricService
	validator     *validator.Validate
	logger        *slog.Logger
}

// NewAIHandler creates a new AIHandler with the given dependencies.
func NewAIHandler(
	grader grading.Grader,
	recognizer grading.TextRecognizer,
	rubricService service.RubricService,
	logger *slog.Logger,
) *AIHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &AIHandler{
		grader:        grader,
		recognizer:    recognizer,
		rubricService: rubricService,
		validator:     validator.New(),
		logger:        logger.With(slog.String("component", "ai_handler")),
	}
}

// Grade handles POST /ai/grade. The text is sent to the grading backend and
// the normalized result is returned in the response body; nothing is
// persisted.
func (h *AIHandler) Grade(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		HandleAPIError(w, r, domain.ErrUnauthorized, "User ID not found or invalid")
		return
	}

	var req AIGradeRequest
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

	var rubric *domain.Rubric
	if rubricID != uuid.Nil {
		rubric, err = h.rubricService.GetRubric(r.Context(), userID, rubricID)
		if err != nil {
			HandleAPIError(w, r, err, "")
			return
		}
	}

	raw, err := h.grader.Grade(r.Context(), req.Content, rubric, req.CustomPrompt)
	if err != nil {
		h.logger.Error("synchronous grading failed", "error", err, "user_id", userID)
		HandleAPIError(w, r, err, "Grading service unavailable")
		return
	}

	outcome := grading.ParseResult(raw)

	shared.RespondWithJSON(w, r, http.StatusOK, AIGradeResponse{
		Result:   outcome.Result,
		Degraded: outcome.Degraded,
		Model:    h.grader.Model(),
	})
}

// OCR handles POST /ai/ocr. It extracts plain text from an essay photo so
// clients can review it before submitting the essay.
func (h *AIHandler) OCR(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		HandleAPIError(w, r, domain.ErrUnauthorized, "User ID not found or invalid")
		return
	}

	var req AIOCRRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	text, err := h.recognizer.RecognizeText(r.Context(), req.ImageURL)
	if err != nil {
		h.logger.Error("text recognition failed", "error", err, "user_id", userID)
		HandleAPIError(w, r, err, "Text recognition service unavailable")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, AIOCRResponse{Text: text})
}
