package grading

import (
	"context"

	"github.com/redpen-app/redpen-api/internal/domain"
)

// Grader defines the interface for external essay grading backends.
// Implementations wrap a chat-completion style call to a configured model
// and return the raw response text; parsing into the canonical result shape
// is the normalizer's job, and retry-on-failure policy beyond the transport
// layer belongs to the queue scheduler.
type Grader interface {
	// Grade sends the essay text and rubric snapshot to the grading backend
	// and returns the raw model response. A blank or whitespace-only
	// customPrompt is treated as absent. The call is bounded by an internal
	// timeout; transport failures surface as errors without job-level retries.
	Grade(ctx context.Context, essayText string, rubric *domain.Rubric, customPrompt string) (string, error)

	// Model returns the identifier of the backing model, recorded alongside
	// each persisted grading attempt.
	Model() string
}

// TextRecognizer defines the interface for OCR backends that convert a
// photographed essay into plain text before it enters grading.
type TextRecognizer interface {
	// RecognizeText extracts plain text from the image at the given URL.
	// Same timeout and no-internal-retry contract as Grader.Grade.
	RecognizeText(ctx context.Context, imageURL string) (string, error)
}
