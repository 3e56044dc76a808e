package grading

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/redpen-app/redpen-api/internal/domain"
)

// PromptOptimizer rewrites a rubric's custom grading prompt into a clearer,
// more effective one. Implemented by the Gemini client.
type PromptOptimizer interface {
	// OptimizePrompt returns the model's raw response for the optimization
	// request. Callers normalize it with ParsePromptOptimization.
	OptimizePrompt(
		ctx context.Context,
		rubricName string,
		dimensions []domain.RubricDimension,
		customPrompt string,
	) (string, error)
}

// PromptOptimization is the normalized output of a prompt optimization
// request.
type PromptOptimization struct {
	OptimizedPrompt string   `json:"optimizedPrompt"`
	Suggestions     []string `json:"suggestions"`
}

// ParsePromptOptimization normalizes a raw model response into a
// PromptOptimization. Like ParseResult it never fails: when the response is
// not structured JSON, the raw text itself is taken as the optimized prompt
// and the suggestion list is empty.
func ParsePromptOptimization(raw string) PromptOptimization {
	cleaned := strings.TrimSpace(codeFencePattern.ReplaceAllString(raw, ""))

	var decoded PromptOptimization
	if err := json.Unmarshal([]byte(cleaned), &decoded); err != nil || decoded.OptimizedPrompt == "" {
		return PromptOptimization{
			OptimizedPrompt: strings.TrimSpace(raw),
			Suggestions:     []string{},
		}
	}

	if decoded.Suggestions == nil {
		decoded.Suggestions = []string{}
	}

	return decoded
}
