package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/redpen-app/redpen-api/internal/domain"
	"github.com/redpen-app/redpen-api/internal/queue"
)

// Common request/response structures

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Email       string `json:"email"        validate:"required,email"`
	DisplayName string `json:"display_name" validate:"omitempty,max=50"`
	Password    string `json:"password"     validate:"required,min=12,max=72"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// AuthResponse defines the successful response for authentication endpoints.
type AuthResponse struct {
	// UserID is the unique identifier for the authenticated user
	UserID uuid.UUID `json:"user_id"`

	// AccessToken is the JWT token used for API authorization
	AccessToken string `json:"token"`

	// RefreshToken is the JWT token used to obtain new access tokens
	RefreshToken string `json:"refresh_token,omitempty"`

	// ExpiresAt is the ISO 8601 timestamp when the access token expires
	ExpiresAt string `json:"expires_at,omitempty"`
}

// RefreshTokenRequest defines the payload for the token refresh endpoint.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshTokenResponse defines the successful response for the token refresh endpoint.
type RefreshTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    string `json:"expires_at"`
}

// UserProfileResponse is the client view of the authenticated user.
type UserProfileResponse struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateEssayRequest defines the payload for submitting a text essay.
// RubricID is optional; when omitted the grader falls back to generic
// grading instructions.
type CreateEssayRequest struct {
	Title    string `json:"title"     validate:"omitempty,max=200"`
	Content  string `json:"content"   validate:"required,min=1,max=20000"`
	RubricID string `json:"rubric_id" validate:"omitempty,uuid"`
}

// CreateEssayFromPhotoRequest defines the payload for submitting an essay
// as a photo to be run through text recognition.
type CreateEssayFromPhotoRequest struct {
	Title    string `json:"title"     validate:"omitempty,max=200"`
	PhotoURL string `json:"photo_url" validate:"required,url"`
	RubricID string `json:"rubric_id" validate:"omitempty,uuid"`
}

// EssayResponse is the client view of an essay. ParentID is set on essays
// created by regrading an earlier version.
type EssayResponse struct {
	ID            uuid.UUID `json:"id"`
	RubricID      string    `json:"rubric_id,omitempty"`
	ParentID      string    `json:"parent_id,omitempty"`
	VersionNumber int       `json:"version_number"`
	Title         string    `json:"title,omitempty"`
	Content       string    `json:"content"`
	Source        string    `json:"source"`
	PhotoURL      string    `json:"photo_url,omitempty"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewEssayResponse converts a domain essay to its client representation.
func NewEssayResponse(essay *domain.Essay) EssayResponse {
	resp := EssayResponse{
		ID:            essay.ID,
		VersionNumber: essay.VersionNumber,
		Title:         essay.Title,
		Content:       essay.Content,
		Source:        string(essay.Source),
		PhotoURL:      essay.PhotoURL,
		Status:        string(essay.Status),
		CreatedAt:     essay.CreatedAt,
		UpdatedAt:     essay.UpdatedAt,
	}
	if essay.RubricID != uuid.Nil {
		resp.RubricID = essay.RubricID.String()
	}
	if essay.ParentID != uuid.Nil {
		resp.ParentID = essay.ParentID.String()
	}
	return resp
}

// EssayListResponse is a page of essays plus the total match count for
// pagination.
type EssayListResponse struct {
	Essays []EssayResponse `json:"essays"`
	Total  int64           `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// CreateEssayResponse is returned after an essay has been accepted. JobID
// is absent when the grading job could not be resolved at creation time;
// clients can still poll the essay status directly.
type CreateEssayResponse struct {
	Essay EssayResponse `json:"essay"`
	JobID string        `json:"job_id,omitempty"`
}

// GradeEssayResponse is returned after a grading job has been enqueued.
type GradeEssayResponse struct {
	JobID   uuid.UUID `json:"job_id"`
	EssayID uuid.UUID `json:"essay_id"`
	Status  string    `json:"status"`
}

// RegradeEssayRequest defines the payload for submitting revised content as
// a new version of an existing essay.
type RegradeEssayRequest struct {
	Content string `json:"content" validate:"required,min=1,max=20000"`
}

// DimensionRequest is one scoring dimension in a rubric payload.
type DimensionRequest struct {
	Name        string  `json:"name"        validate:"required,max=50"`
	Description string  `json:"description" validate:"omitempty,max=500"`
	Weight      float64 `json:"weight"      validate:"required,gt=0,lte=1"`
	MaxScore    int     `json:"maxScore"    validate:"required,gt=0"`
	Criteria    string  `json:"criteria"    validate:"omitempty,max=1000"`
}

// CreateRubricRequest defines the payload for creating a rubric. The
// dimension count bounds and the weight-sum constraint are enforced by
// domain validation, not struct tags.
type CreateRubricRequest struct {
	Name         string             `json:"name"          validate:"required,max=100"`
	Description  string             `json:"description"   validate:"omitempty,max=500"`
	Scene        string             `json:"scene"         validate:"required,oneof=exam practice custom"`
	Dimensions   []DimensionRequest `json:"dimensions"    validate:"required,dive"`
	CustomPrompt string             `json:"custom_prompt" validate:"omitempty,max=2000"`
}

// UpdateRubricRequest defines the payload for updating a rubric.
type UpdateRubricRequest struct {
	Name         string             `json:"name"          validate:"required,max=100"`
	Description  string             `json:"description"   validate:"omitempty,max=500"`
	Scene        string             `json:"scene"         validate:"required,oneof=exam practice custom"`
	Dimensions   []DimensionRequest `json:"dimensions"    validate:"required,dive"`
	CustomPrompt string             `json:"custom_prompt" validate:"omitempty,max=2000"`
}

// RubricResponse is the client view of a rubric.
type RubricResponse struct {
	ID           uuid.UUID                `json:"id"`
	Name         string                   `json:"name"`
	Description  string                   `json:"description,omitempty"`
	Scene        string                   `json:"scene"`
	Dimensions   []domain.RubricDimension `json:"dimensions"`
	CustomPrompt string                   `json:"custom_prompt,omitempty"`
	IsBuiltIn    bool                     `json:"is_built_in"`
	IsDefault    bool                     `json:"is_default"`
	CreatedAt    time.Time                `json:"created_at"`
	UpdatedAt    time.Time                `json:"updated_at"`
}

// NewRubricResponse converts a domain rubric to its client representation.
func NewRubricResponse(rubric *domain.Rubric) RubricResponse {
	return RubricResponse{
		ID:           rubric.ID,
		Name:         rubric.Name,
		Description:  rubric.Description,
		Scene:        string(rubric.Scene),
		Dimensions:   rubric.Dimensions,
		CustomPrompt: rubric.CustomPrompt,
		IsBuiltIn:    rubric.IsBuiltIn,
		IsDefault:    rubric.IsDefault,
		CreatedAt:    rubric.CreatedAt,
		UpdatedAt:    rubric.UpdatedAt,
	}
}

// RubricListResponse wraps the rubrics visible to the user.
type RubricListResponse struct {
	Rubrics []RubricResponse `json:"rubrics"`
}

// OptimizeRubricPromptRequest defines the payload for the prompt
// optimization endpoint. The rubric does not need to be saved yet, so the
// pieces are sent inline rather than referenced by ID.
type OptimizeRubricPromptRequest struct {
	RubricName   string             `json:"rubric_name"   validate:"required,max=100"`
	Dimensions   []DimensionRequest `json:"dimensions"    validate:"omitempty,dive"`
	CustomPrompt string             `json:"custom_prompt" validate:"omitempty,max=2000"`
}

// OptimizedPromptResponse carries the rewritten prompt and the model's
// accompanying suggestions.
type OptimizedPromptResponse struct {
	OptimizedPrompt string   `json:"optimized_prompt"`
	Suggestions     []string `json:"suggestions"`
}

// SuggestRubricRequest defines the payload for the rubric suggestion
// endpoint. All fields are free text and optional.
type SuggestRubricRequest struct {
	Scene string `json:"scene" validate:"omitempty,max=50"`
	Topic string `json:"topic" validate:"omitempty,max=100"`
	Grade string `json:"grade" validate:"omitempty,max=50"`
}

// GradingResultResponse is the client view of a persisted grading attempt.
type GradingResultResponse struct {
	ID             uuid.UUID            `json:"id"`
	EssayID        uuid.UUID            `json:"essay_id"`
	Result         domain.GradingResult `json:"result"`
	AIModel        string               `json:"ai_model"`
	ProcessingTime int                  `json:"processing_time"`
	CreatedAt      time.Time            `json:"created_at"`
}

// NewGradingResultResponse converts a grading record to its client
// representation.
func NewGradingResultResponse(record *domain.GradingRecord) GradingResultResponse {
	return GradingResultResponse{
		ID:             record.ID,
		EssayID:        record.EssayID,
		Result:         record.Result,
		AIModel:        record.AIModel,
		ProcessingTime: record.ProcessingTime,
		CreatedAt:      record.CreatedAt,
	}
}

// AIGradeRequest defines the payload for the synchronous grading endpoint.
type AIGradeRequest struct {
	Content      string `json:"content"       validate:"required,min=1,max=20000"`
	RubricID     string `json:"rubric_id"     validate:"omitempty,uuid"`
	CustomPrompt string `json:"custom_prompt" validate:"omitempty,max=2000"`
}

// AIGradeResponse carries the normalized result of a synchronous grading
// call. Degraded marks results produced by the fallback parser.
type AIGradeResponse struct {
	Result   domain.GradingResult `json:"result"`
	Degraded bool                 `json:"degraded"`
	Model    string               `json:"model"`
}

// AIOCRRequest defines the payload for the text recognition endpoint.
type AIOCRRequest struct {
	ImageURL string `json:"image_url" validate:"required,url"`
}

// AIOCRResponse carries the text extracted from an essay photo.
type AIOCRResponse struct {
	Text string `json:"text"`
}

// JobStatusResponse is the client view of a grading job.
type JobStatusResponse struct {
	JobID     uuid.UUID             `json:"job_id"`
	EssayID   uuid.UUID             `json:"essay_id"`
	Status    string                `json:"status"`
	Result    *domain.GradingResult `json:"result,omitempty"`
	Degraded  bool                  `json:"degraded,omitempty"`
	Error     string                `json:"error,omitempty"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}

// NewJobStatusResponse converts a queue job to its client representation.
func NewJobStatusResponse(job *queue.Job) JobStatusResponse {
	return JobStatusResponse{
		JobID:     job.ID,
		EssayID:   job.EssayID,
		Status:    string(job.Status),
		Result:    job.Result,
		Degraded:  job.Degraded,
		Error:     job.Error,
		CreatedAt: job.CreatedAt,
		UpdatedAt: job.UpdatedAt,
	}
}
