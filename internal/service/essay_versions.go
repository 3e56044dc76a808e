package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/redpen-app/redpen-api/internal/domain"
	"github.com/redpen-app/redpen-api/internal/store"
)

// ScoreDelta is the before/after movement of a single score between two
// graded versions of an essay.
type ScoreDelta struct {
	Before     int `json:"before"`
	After      int `json:"after"`
	Difference int `json:"difference"`
}

// DimensionDelta is the score movement for one rubric dimension, matched
// across versions by dimension name.
type DimensionDelta struct {
	DimensionName string `json:"dimensionName"`
	Before        int    `json:"before"`
	After         int    `json:"after"`
	Change        int    `json:"change"`
}

// ScoreChange groups the overall and per-dimension score movements.
type ScoreChange struct {
	Overall    ScoreDelta       `json:"overall"`
	Dimensions []DimensionDelta `json:"dimensions"`
}

// VersionComparison summarizes how grading changed between two versions of
// an essay. Improvements and maintained strengths come from the later
// version's result.
type VersionComparison struct {
	ScoreChange         ScoreChange          `json:"scoreChange"`
	Improvements        []domain.Improvement `json:"improvements"`
	MaintainedStrengths []string             `json:"maintainedStrengths"`
}

// RegradeEssay saves revised content as a new version of the essay and
// emits a grade request for it.
func (s *essayServiceImpl) RegradeEssay(
	ctx context.Context,
	userID, essayID uuid.UUID,
	content string,
) (*domain.Essay, error) {
	parent, err := s.ownedEssay(ctx, userID, essayID)
	if err != nil {
		return nil, NewEssayServiceError("regrade_essay", "failed to retrieve essay", err)
	}

	version, err := domain.NewEssayVersion(parent, content)
	if err != nil {
		s.logger.Error("failed to create essay version",
			"error", err,
			"essay_id", essayID)
		return nil, NewEssayServiceError("regrade_essay", "failed to create essay version", err)
	}

	if err := s.saveAndRequestGrading(ctx, version); err != nil {
		return nil, err
	}

	s.logger.Info("essay version created for regrading",
		"essay_id", essayID,
		"version_id", version.ID,
		"version_number", version.VersionNumber)
	return version, nil
}

// CompareVersions reports how the grading result changed between two
// versions of an essay.
func (s *essayServiceImpl) CompareVersions(
	ctx context.Context,
	userID, essayID uuid.UUID,
	v1, v2 int,
) (*VersionComparison, error) {
	root, err := s.ownedEssay(ctx, userID, essayID)
	if err != nil {
		return nil, NewEssayServiceError("compare_versions", "failed to retrieve essay", err)
	}

	before, err := s.essayVersion(ctx, root, v1)
	if err != nil {
		return nil, NewEssayServiceError("compare_versions", "failed to retrieve version", err)
	}
	after, err := s.essayVersion(ctx, root, v2)
	if err != nil {
		return nil, NewEssayServiceError("compare_versions", "failed to retrieve version", err)
	}

	beforeResult, err := s.latestResult(ctx, before.ID)
	if err != nil {
		return nil, NewEssayServiceError("compare_versions", "failed to retrieve grading result", err)
	}
	afterResult, err := s.latestResult(ctx, after.ID)
	if err != nil {
		return nil, NewEssayServiceError("compare_versions", "failed to retrieve grading result", err)
	}

	return buildComparison(beforeResult, afterResult), nil
}

// essayVersion resolves one version of the essay. The root essay answers
// for its own version number; later versions hang off it by parent ID.
func (s *essayServiceImpl) essayVersion(
	ctx context.Context,
	root *domain.Essay,
	versionNumber int,
) (*domain.Essay, error) {
	if versionNumber == root.VersionNumber {
		return root, nil
	}

	version, err := s.essayStore.GetVersion(ctx, root.ID, versionNumber)
	if err != nil {
		if errors.Is(err, store.ErrEssayNotFound) {
			return nil, ErrVersionNotFound
		}
		return nil, err
	}

	return version, nil
}

// latestResult loads the latest grading result for the essay, falling back
// to a zero-score result when the version has not been graded yet.
func (s *essayServiceImpl) latestResult(
	ctx context.Context,
	essayID uuid.UUID,
) (domain.GradingResult, error) {
	record, err := s.recordStore.GetLatestByEssayID(ctx, essayID)
	if err != nil {
		if errors.Is(err, store.ErrGradingRecordNotFound) {
			return domain.ZeroScoreResult(), nil
		}
		return domain.GradingResult{}, err
	}

	return record.Result, nil
}

// buildComparison diffs the two results. Dimensions are matched by name;
// a dimension absent from one side scores zero there.
func buildComparison(before, after domain.GradingResult) *VersionComparison {
	beforeByName := make(map[string]int, len(before.DimensionScores))
	for _, dim := range before.DimensionScores {
		beforeByName[dim.Name] = dim.Score
	}

	dimensions := make([]DimensionDelta, 0, len(after.DimensionScores))
	for _, dim := range after.DimensionScores {
		prev := beforeByName[dim.Name]
		dimensions = append(dimensions, DimensionDelta{
			DimensionName: dim.Name,
			Before:        prev,
			After:         dim.Score,
			Change:        dim.Score - prev,
		})
	}

	improvements := after.Improvements
	if improvements == nil {
		improvements = []domain.Improvement{}
	}
	strengths := after.Strengths
	if strengths == nil {
		strengths = []string{}
	}

	return &VersionComparison{
		ScoreChange: ScoreChange{
			Overall: ScoreDelta{
				Before:     before.OverallScore,
				After:      after.OverallScore,
				Difference: after.OverallScore - before.OverallScore,
			},
			Dimensions: dimensions,
		},
		Improvements:        improvements,
		MaintainedStrengths: strengths,
	}
}
