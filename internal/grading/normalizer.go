package grading

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/redpen-app/redpen-api/internal/domain"
)

// Fallback values used when the raw model response cannot be structurally
// parsed. They are deliberately fixed so degraded output is deterministic:
// a neutral passing score, the start of the raw text as the feedback, and a
// single generic strength.
const (
	degradedScore        = 70
	degradedSampleLength = 200
)

// degradedStrength is the single canned strength attached to degraded results.
const degradedStrength = "文章结构清晰"

// codeFencePattern matches markdown code-fence markers, with or without a
// language tag, anywhere in the text. Models sometimes emit runs longer
// than three backticks, so any run of three or more counts as a fence.
var codeFencePattern = regexp.MustCompile("`{3,}[a-zA-Z0-9]*")

// Outcome is the tagged result of normalizing a raw model response.
// Degraded marks results produced by the fallback path rather than a
// successful structured decode; RawSample then holds the prefix of the raw
// text the fallback feedback was built from.
type Outcome struct {
	Result    domain.GradingResult
	Degraded  bool
	RawSample string
}

// rawResult is the permissive decode target for model responses. The model
// has historically used two names for the overall score and for the summary
// text, so both are accepted; the primary name wins when both are present.
type rawResult struct {
	OverallScore    *int                    `json:"overallScore"`
	Grade           *int                    `json:"grade"`
	DimensionScores []domain.DimensionScore `json:"dimensionScores"`
	Strengths       []string                `json:"strengths"`
	Improvements    []domain.Improvement    `json:"improvements"`
	OverallFeedback string                  `json:"overallFeedback"`
	Feedback        string                  `json:"feedback"`
}

// ParseResult normalizes a raw model response into the canonical
// GradingResult shape. It strips markdown code fences, attempts a strict
// structured decode, and on any decode failure falls back to a deterministic
// degraded result. It never fails: every input, including the empty string,
// yields a usable result with non-nil list fields.
//
// ParseResult is a pure function and is safe for concurrent use.
func ParseResult(raw string) Outcome {
	cleaned := strings.TrimSpace(codeFencePattern.ReplaceAllString(raw, ""))

	var decoded rawResult
	if err := json.Unmarshal([]byte(cleaned), &decoded); err != nil {
		return degradedOutcome(raw)
	}

	score := 0
	switch {
	case decoded.OverallScore != nil:
		score = *decoded.OverallScore
	case decoded.Grade != nil:
		score = *decoded.Grade
	}

	feedback := decoded.OverallFeedback
	if feedback == "" {
		feedback = decoded.Feedback
	}

	result := domain.GradingResult{
		OverallScore:    clampScore(score),
		MaxScore:        domain.MaxOverallScore,
		DimensionScores: decoded.DimensionScores,
		Strengths:       decoded.Strengths,
		Improvements:    decoded.Improvements,
		OverallFeedback: feedback,
	}

	// List fields are never nil, even when absent from the response.
	if result.DimensionScores == nil {
		result.DimensionScores = []domain.DimensionScore{}
	}
	if result.Strengths == nil {
		result.Strengths = []string{}
	}
	if result.Improvements == nil {
		result.Improvements = []domain.Improvement{}
	}

	return Outcome{Result: result}
}

// degradedOutcome builds the terminal safety-net result for unparseable
// responses. The raw text is preserved (truncated) as the feedback so the
// model's output is never silently lost.
func degradedOutcome(raw string) Outcome {
	sample := truncate(raw, degradedSampleLength)

	return Outcome{
		Result: domain.GradingResult{
			OverallScore:    degradedScore,
			MaxScore:        domain.MaxOverallScore,
			DimensionScores: []domain.DimensionScore{},
			Strengths:       []string{degradedStrength},
			Improvements:    []domain.Improvement{},
			OverallFeedback: sample,
		},
		Degraded:  true,
		RawSample: sample,
	}
}

// truncate returns the first limit runes of s, so multi-byte text is never
// cut mid-character.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// clampScore bounds a score to [0, MaxOverallScore].
func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > domain.MaxOverallScore {
		return domain.MaxOverallScore
	}
	return score
}
