package grading

import "errors"

// Common errors returned by the grading package
var (
	// ErrGradingFailed is returned when essay grading fails for any general reason
	ErrGradingFailed = errors.New("failed to grade essay")

	// ErrInvalidResponse is returned when the LLM response is structurally unusable
	// (empty, no candidates). Malformed-but-present text is never an error; the
	// normalizer absorbs it into a degraded result.
	ErrInvalidResponse = errors.New("invalid response from language model")

	// ErrContentBlocked is returned when the LLM blocks the content due to safety filters
	ErrContentBlocked = errors.New("content blocked by language model safety filters")

	// ErrTransientFailure is returned for temporary errors that might resolve on retry
	ErrTransientFailure = errors.New("transient error during grading")

	// ErrInvalidConfig is returned when the grader configuration is invalid
	ErrInvalidConfig = errors.New("invalid grader configuration")

	// ErrEmptyEssayText is returned when an empty essay is submitted for grading
	ErrEmptyEssayText = errors.New("essay text cannot be empty")

	// ErrEmptyImageURL is returned when OCR is requested without an image reference
	ErrEmptyImageURL = errors.New("image URL cannot be empty")
)
