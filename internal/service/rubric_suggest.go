package service

import "fmt"

// RubricSuggestion is a rubric template proposed from a short description
// of the grading scenario. It is a starting point the user refines and
// saves through the normal rubric operations.
type RubricSuggestion struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Dimensions  []SuggestedDimension `json:"dimensions"`
}

// SuggestedDimension mirrors a rubric dimension without the persistence
// fields.
type SuggestedDimension struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Weight      float64 `json:"weight"`
	MaxScore    int     `json:"maxScore"`
}

// SuggestRubric builds a rubric template for the given scenario. The
// five-dimension split is a fixed baseline; the scene, topic and grade
// only shape the name and description.
func SuggestRubric(scene, topic, grade string) *RubricSuggestion {
	if scene == "" {
		scene = "通用"
	}
	if topic == "" {
		topic = "各类"
	}
	if grade == "" {
		grade = "各年级"
	}

	return &RubricSuggestion{
		Name:        fmt.Sprintf("%s英语作文评分标准", scene),
		Description: fmt.Sprintf("适用于%s%s作文", grade, topic),
		Dimensions: []SuggestedDimension{
			{Name: "内容", Description: "主题相关性和内容完整性", Weight: 0.3, MaxScore: 30},
			{Name: "结构", Description: "文章组织和逻辑连贯性", Weight: 0.2, MaxScore: 20},
			{Name: "词汇", Description: "词汇丰富度和准确性", Weight: 0.2, MaxScore: 20},
			{Name: "语法", Description: "语法正确性", Weight: 0.2, MaxScore: 20},
			{Name: "表达", Description: "语言流畅度和表达效果", Weight: 0.1, MaxScore: 10},
		},
	}
}
