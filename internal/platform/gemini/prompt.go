package gemini

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redpen-app/redpen-api/internal/domain"
)

// gradingSystemPrompt is the fixed instruction preamble sent with every
// grading request. It pins the response to the canonical JSON shape the
// normalizer expects; a user-authored custom prompt is appended after it
// and can refine, but never replace, these instructions.
const gradingSystemPrompt = `You are an English essay grading assistant. You MUST respond with ONLY valid JSON, no markdown formatting.

Required JSON format (exactly this structure):
{
  "overallScore": 分数(0-100),
  "dimensionScores": [
    {"name": "内容/Content", "score": 分数, "maxScore": 满分, "feedback": "简短评语"}
  ],
  "strengths": ["优点1", "优点2"],
  "improvements": [
    {"type": "grammar/vocabulary/structure/content", "original": "原文片段", "suggestion": "修改建议"}
  ],
  "overallFeedback": "综合评语(50-100字)"
}`

// ocrPrompt is the instruction attached to the image part of an OCR request.
const ocrPrompt = "Extract text from this image"

// optimizeSystemPrompt instructs the model to act as a rubric design expert
// and pins the response shape for prompt optimization requests.
const optimizeSystemPrompt = `你是一位专业的英语作文评分标准设计专家。请根据用户提供的评分标准信息，优化评分提示词，使其更加清晰、具体、有效。

你必须只返回有效的JSON，不要使用markdown格式：
{
  "optimizedPrompt": "优化后的评分提示词",
  "suggestions": ["改进建议1", "改进建议2"]
}`

// buildOptimizePrompt embeds the rubric name, its dimensions and the
// current custom prompt into an optimization request.
func buildOptimizePrompt(
	rubricName string,
	dimensions []domain.RubricDimension,
	customPrompt string,
) (string, error) {
	dimensionJSON := []byte("[]")
	if len(dimensions) > 0 {
		var err error
		dimensionJSON, err = json.MarshalIndent(dimensions, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal dimensions: %w", err)
		}
	}

	prompt := strings.TrimSpace(customPrompt)
	if prompt == "" {
		prompt = "（无）"
	}

	return fmt.Sprintf(
		"评分标准名称：%s\n\n评分维度：\n%s\n\n当前评分提示词：\n%s\n\n请优化上面的评分提示词。",
		rubricName,
		dimensionJSON,
		prompt,
	), nil
}

// rubricSnapshot is the read-only rubric view embedded in the user prompt.
type rubricSnapshot struct {
	Name       string                   `json:"name,omitempty"`
	Scene      domain.RubricScene       `json:"scene,omitempty"`
	Dimensions []domain.RubricDimension `json:"dimensions,omitempty"`
}

// buildSystemPrompt combines the fixed preamble with the custom prompt.
// Blank or whitespace-only custom prompts are treated as absent.
func buildSystemPrompt(customPrompt string) string {
	trimmed := strings.TrimSpace(customPrompt)
	if trimmed == "" {
		return gradingSystemPrompt
	}
	return gradingSystemPrompt + "\n\n" + trimmed
}

// buildUserPrompt embeds the essay and the rubric snapshot (as indented
// JSON, or an empty object when no rubric is set) into the grading request.
func buildUserPrompt(essayText string, rubric *domain.Rubric) (string, error) {
	rubricJSON := []byte("{}")
	if rubric != nil {
		var err error
		rubricJSON, err = json.MarshalIndent(rubricSnapshot{
			Name:       rubric.Name,
			Scene:      rubric.Scene,
			Dimensions: rubric.Dimensions,
		}, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal rubric: %w", err)
		}
	}

	return fmt.Sprintf(
		"Grade this English essay. Reply with ONLY the JSON object.\n\nEssay:\n%s\n\nRubric:\n%s",
		essayText,
		rubricJSON,
	), nil
}
