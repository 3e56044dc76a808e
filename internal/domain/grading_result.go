package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// MaxOverallScore is the fixed ceiling for an essay's overall score.
const MaxOverallScore = 100

// Common validation errors for GradingResult
var (
	ErrEmptyResultID      = errors.New("result ID cannot be empty")
	ErrEmptyResultEssayID = errors.New("result essay ID cannot be empty")
	ErrEmptyResultModel   = errors.New("result AI model cannot be empty")
)

// DimensionScore is the grader's score for a single rubric dimension.
// The sequence order mirrors the rubric's dimension order.
type DimensionScore struct {
	Name     string `json:"name"`
	Score    int    `json:"score"`
	MaxScore int    `json:"maxScore"`
	Feedback string `json:"feedback,omitempty"`
}

// Improvement is a suggested correction to a specific fragment of the essay.
type Improvement struct {
	Type       string `json:"type"` // grammar, vocabulary, structure or content
	Original   string `json:"original"`
	Suggestion string `json:"suggestion"`
	LineNumber int    `json:"lineNumber,omitempty"`
}

// GradingResult is the canonical, normalized output of one grading attempt.
// It is constructed exclusively by the grading normalizer and is immutable
// once attached to a job; after it has been persisted, the durable copy is
// the system of record.
type GradingResult struct {
	OverallScore    int              `json:"overallScore"`
	MaxScore        int              `json:"maxScore"`
	DimensionScores []DimensionScore `json:"dimensionScores"`
	Strengths       []string         `json:"strengths"`
	Improvements    []Improvement    `json:"improvements"`
	OverallFeedback string           `json:"overallFeedback"`
}

// GradingRecord is a persisted grading attempt: the normalized result plus
// the envelope the durable store keeps about the attempt itself.
type GradingRecord struct {
	ID             uuid.UUID     `json:"id"`
	EssayID        uuid.UUID     `json:"essay_id"`
	Result         GradingResult `json:"result"`
	AIModel        string        `json:"ai_model"`
	ProcessingTime int           `json:"processing_time"` // seconds
	CreatedAt      time.Time     `json:"created_at"`
}

// NewGradingRecord creates a persisted-attempt envelope for the given
// essay and result. Returns an error if validation fails.
func NewGradingRecord(
	essayID uuid.UUID,
	result GradingResult,
	aiModel string,
	processingSeconds int,
) (*GradingRecord, error) {
	record := &GradingRecord{
		ID:             uuid.New(),
		EssayID:        essayID,
		Result:         result,
		AIModel:        aiModel,
		ProcessingTime: processingSeconds,
		CreatedAt:      time.Now().UTC(),
	}

	if err := record.Validate(); err != nil {
		return nil, err
	}

	return record, nil
}

// Validate checks if the GradingRecord has valid data.
func (r *GradingRecord) Validate() error {
	if r.ID == uuid.Nil {
		return ErrEmptyResultID
	}

	if r.EssayID == uuid.Nil {
		return ErrEmptyResultEssayID
	}

	if r.AIModel == "" {
		return ErrEmptyResultModel
	}

	return nil
}

// ZeroScoreResult returns the terminal failure result persisted when a
// grading attempt fails outright, so the essay's attempt history is never
// silently missing an entry.
func ZeroScoreResult() GradingResult {
	return GradingResult{
		OverallScore:    0,
		MaxScore:        MaxOverallScore,
		DimensionScores: []DimensionScore{},
		Strengths:       []string{},
		Improvements:    []Improvement{},
		OverallFeedback: "",
	}
}
