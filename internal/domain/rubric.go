package domain

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// RubricScene identifies the grading scenario a rubric is intended for.
type RubricScene string

// Possible rubric scenes
const (
	RubricSceneExam     RubricScene = "exam"
	RubricScenePractice RubricScene = "practice"
	RubricSceneCustom   RubricScene = "custom"
)

// Dimension count limits and the tolerance allowed when checking that
// dimension weights sum to 1.0.
const (
	MinRubricDimensions = 3
	MaxRubricDimensions = 5
	WeightSumTolerance  = 0.01
)

// Common validation errors for Rubric
var (
	ErrEmptyRubricID         = errors.New("rubric ID cannot be empty")
	ErrEmptyRubricUserID     = errors.New("rubric user ID cannot be empty")
	ErrEmptyRubricName       = errors.New("rubric name cannot be empty")
	ErrInvalidRubricScene    = errors.New("invalid rubric scene")
	ErrInvalidDimensionName  = errors.New("dimension name cannot be empty")
	ErrInvalidDimensionCount = fmt.Errorf(
		"rubric must have between %d and %d dimensions",
		MinRubricDimensions, MaxRubricDimensions,
	)
	ErrInvalidDimensionWeight   = errors.New("dimension weight must be between 0 and 1")
	ErrInvalidDimensionMaxScore = errors.New("dimension max score must be positive")
	ErrInvalidWeightSum         = errors.New("dimension weights must sum to 1.0")
)

// RubricDimension is one weighted scoring axis of a rubric, such as
// "Content" or "Grammar".
type RubricDimension struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Weight      float64 `json:"weight"`
	MaxScore    int     `json:"maxScore"`
	Criteria    string  `json:"criteria,omitempty"`
}

// Rubric is a named set of weighted scoring dimensions used to instruct
// the grader, optionally carrying a user-authored custom prompt that is
// appended to the grading instructions.
type Rubric struct {
	ID           uuid.UUID         `json:"id"`
	UserID       uuid.UUID         `json:"user_id"`
	Name         string            `json:"name"`
	Description  string            `json:"description,omitempty"`
	Scene        RubricScene       `json:"scene"`
	Dimensions   []RubricDimension `json:"dimensions"`
	CustomPrompt string            `json:"custom_prompt,omitempty"`

	// IsBuiltIn marks system rubrics that are visible to every user and
	// cannot be modified or deleted. IsDefault marks the rubric the owner
	// has chosen as their default; at most one per user.
	IsBuiltIn bool      `json:"is_built_in"`
	IsDefault bool      `json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewRubric creates a new Rubric owned by the given user.
// It generates a new UUID for the rubric ID and sets the creation/update
// timestamps. Returns an error if validation fails.
func NewRubric(
	userID uuid.UUID,
	name, description string,
	scene RubricScene,
	dimensions []RubricDimension,
	customPrompt string,
) (*Rubric, error) {
	rubric := &Rubric{
		ID:           uuid.New(),
		UserID:       userID,
		Name:         name,
		Description:  description,
		Scene:        scene,
		Dimensions:   dimensions,
		CustomPrompt: customPrompt,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}

	if err := rubric.Validate(); err != nil {
		return nil, err
	}

	return rubric, nil
}

// Validate checks if the Rubric has valid data, including the dimension
// count bounds and the weight-sum constraint.
// Returns an error if any field fails validation.
func (r *Rubric) Validate() error {
	if r.ID == uuid.Nil {
		return ErrEmptyRubricID
	}

	if r.UserID == uuid.Nil {
		return ErrEmptyRubricUserID
	}

	if r.Name == "" {
		return ErrEmptyRubricName
	}

	if !isValidRubricScene(r.Scene) {
		return ErrInvalidRubricScene
	}

	if len(r.Dimensions) < MinRubricDimensions || len(r.Dimensions) > MaxRubricDimensions {
		return ErrInvalidDimensionCount
	}

	for _, dim := range r.Dimensions {
		if dim.Name == "" {
			return ErrInvalidDimensionName
		}
		if dim.Weight < 0 || dim.Weight > 1 {
			return ErrInvalidDimensionWeight
		}
		if dim.MaxScore <= 0 {
			return ErrInvalidDimensionMaxScore
		}
	}

	return r.ValidateWeights()
}

// ValidateWeights checks that the dimension weights sum to 1.0 within
// WeightSumTolerance. Returns ErrInvalidWeightSum with the actual sum
// if the constraint is violated.
func (r *Rubric) ValidateWeights() error {
	var sum float64
	for _, dim := range r.Dimensions {
		sum += dim.Weight
	}

	if math.Abs(sum-1.0) > WeightSumTolerance {
		return fmt.Errorf("%w: got %.3f", ErrInvalidWeightSum, sum)
	}

	return nil
}

// isValidRubricScene checks if the given scene is a valid RubricScene.
func isValidRubricScene(scene RubricScene) bool {
	switch scene {
	case RubricSceneExam, RubricScenePractice, RubricSceneCustom:
		return true
	default:
		return false
	}
}
