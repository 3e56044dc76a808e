package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redpen-app/redpen-api/internal/domain"
	"github.com/redpen-app/redpen-api/internal/service"
)

func testRubricDimensions() []DimensionRequest {
	return []DimensionRequest{
		{Name: "Content", Weight: 0.4, MaxScore: 40},
		{Name: "Structure", Weight: 0.3, MaxScore: 30},
		{Name: "Language", Weight: 0.3, MaxScore: 30},
	}
}

func testRubric(userID uuid.UUID) *domain.Rubric {
	return &domain.Rubric{
		ID:     uuid.New(),
		UserID: userID,
		Name:   "Exam Rubric",
		Scene:  domain.RubricSceneExam,
		Dimensions: []domain.RubricDimension{
			{Name: "Content", Weight: 0.4, MaxScore: 40},
			{Name: "Structure", Weight: 0.3, MaxScore: 30},
			{Name: "Language", Weight: 0.3, MaxScore: 30},
		},
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
}

func TestRubricHandler_CreateRubric(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	t.Run("creates a rubric", func(t *testing.T) {
		t.Parallel()

		rubric := testRubric(userID)
		svc := &mockRubricService{
			createRubricFn: func(ctx context.Context, uid uuid.UUID, name, description string, scene domain.RubricScene, dimensions []domain.RubricDimension, customPrompt string) (*domain.Rubric, error) {
				assert.Equal(t, userID, uid)
				assert.Equal(t, domain.RubricSceneExam, scene)
				assert.Len(t, dimensions, 3)
				return rubric, nil
			},
		}
		handler := NewRubricHandler(svc, &mockPromptOptimizer{}, discardLogger())

		body, _ := json.Marshal(CreateRubricRequest{
			Name:       "Exam Rubric",
			Scene:      "exam",
			Dimensions: testRubricDimensions(),
		})
		req := httptest.NewRequest(http.MethodPost, "/rubrics", bytes.NewReader(body))

		rr := serveAuthenticated(func(r chi.Router) {
			r.Post("/rubrics", handler.CreateRubric)
		}, req, userID)

		require.Equal(t, http.StatusCreated, rr.Code)

		var resp RubricResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, rubric.ID, resp.ID)
	})

	t.Run("bad weight sum surfaces as bad request", func(t *testing.T) {
		t.Parallel()

		svc := &mockRubricService{
			createRubricFn: func(ctx context.Context, uid uuid.UUID, name, description string, scene domain.RubricScene, dimensions []domain.RubricDimension, customPrompt string) (*domain.Rubric, error) {
				return nil, service.NewRubricServiceError(
					"create_rubric", "failed to create rubric object", domain.ErrInvalidWeightSum)
			},
		}
		handler := NewRubricHandler(svc, &mockPromptOptimizer{}, discardLogger())

		dims := testRubricDimensions()
		dims[0].Weight = 0.9
		body, _ := json.Marshal(CreateRubricRequest{
			Name:       "Lopsided",
			Scene:      "custom",
			Dimensions: dims,
		})
		req := httptest.NewRequest(http.MethodPost, "/rubrics", bytes.NewReader(body))

		rr := serveAuthenticated(func(r chi.Router) {
			r.Post("/rubrics", handler.CreateRubric)
		}, req, userID)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "sum to 1.0")
	})

	t.Run("rejects unknown scene", func(t *testing.T) {
		t.Parallel()

		handler := NewRubricHandler(&mockRubricService{}, &mockPromptOptimizer{}, discardLogger())

		body, _ := json.Marshal(CreateRubricRequest{
			Name:       "Strange",
			Scene:      "interview",
			Dimensions: testRubricDimensions(),
		})
		req := httptest.NewRequest(http.MethodPost, "/rubrics", bytes.NewReader(body))

		rr := serveAuthenticated(func(r chi.Router) {
			r.Post("/rubrics", handler.CreateRubric)
		}, req, userID)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestRubricHandler_ListRubrics(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	t.Run("passes the scene filter through", func(t *testing.T) {
		t.Parallel()

		svc := &mockRubricService{
			listRubricsFn: func(ctx context.Context, uid uuid.UUID, scene domain.RubricScene) ([]*domain.Rubric, error) {
				assert.Equal(t, domain.RubricScenePractice, scene)
				return []*domain.Rubric{testRubric(uid)}, nil
			},
		}
		handler := NewRubricHandler(svc, &mockPromptOptimizer{}, discardLogger())

		req := httptest.NewRequest(http.MethodGet, "/rubrics?scene=practice", nil)
		rr := serveAuthenticated(func(r chi.Router) {
			r.Get("/rubrics", handler.ListRubrics)
		}, req, userID)

		require.Equal(t, http.StatusOK, rr.Code)

		var resp RubricListResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Len(t, resp.Rubrics, 1)
	})

	t.Run("rejects unknown scene filter", func(t *testing.T) {
		t.Parallel()

		handler := NewRubricHandler(&mockRubricService{}, &mockPromptOptimizer{}, discardLogger())

		req := httptest.NewRequest(http.MethodGet, "/rubrics?scene=bogus", nil)
		rr := serveAuthenticated(func(r chi.Router) {
			r.Get("/rubrics", handler.ListRubrics)
		}, req, userID)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestRubricHandler_UpdateRubric(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	t.Run("updates one of the user's rubrics", func(t *testing.T) {
		t.Parallel()

		rubricID := uuid.New()
		svc := &mockRubricService{
			updateRubricFn: func(ctx context.Context, uid uuid.UUID, rubric *domain.Rubric) error {
				assert.Equal(t, rubricID, rubric.ID)
				assert.Equal(t, "Renamed", rubric.Name)
				return nil
			},
		}
		handler := NewRubricHandler(svc, &mockPromptOptimizer{}, discardLogger())

		body, _ := json.Marshal(UpdateRubricRequest{
			Name:       "Renamed",
			Scene:      "custom",
			Dimensions: testRubricDimensions(),
		})
		req := httptest.NewRequest(http.MethodPut, "/rubrics/"+rubricID.String(), bytes.NewReader(body))

		rr := serveAuthenticated(func(r chi.Router) {
			r.Put("/rubrics/{id}", handler.UpdateRubric)
		}, req, userID)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("built-in rubric returns forbidden", func(t *testing.T) {
		t.Parallel()

		svc := &mockRubricService{
			updateRubricFn: func(ctx context.Context, uid uuid.UUID, rubric *domain.Rubric) error {
				return service.ErrBuiltInRubric
			},
		}
		handler := NewRubricHandler(svc, &mockPromptOptimizer{}, discardLogger())

		body, _ := json.Marshal(UpdateRubricRequest{
			Name:       "Hijack",
			Scene:      "exam",
			Dimensions: testRubricDimensions(),
		})
		req := httptest.NewRequest(http.MethodPut, "/rubrics/"+uuid.NewString(), bytes.NewReader(body))

		rr := serveAuthenticated(func(r chi.Router) {
			r.Put("/rubrics/{id}", handler.UpdateRubric)
		}, req, userID)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("too few dimensions returns bad request", func(t *testing.T) {
		t.Parallel()

		handler := NewRubricHandler(&mockRubricService{}, &mockPromptOptimizer{}, discardLogger())

		body, _ := json.Marshal(UpdateRubricRequest{
			Name:  "Thin",
			Scene: "custom",
			Dimensions: []DimensionRequest{
				{Name: "Content", Weight: 1.0, MaxScore: 100},
			},
		})
		req := httptest.NewRequest(http.MethodPut, "/rubrics/"+uuid.NewString(), bytes.NewReader(body))

		rr := serveAuthenticated(func(r chi.Router) {
			r.Put("/rubrics/{id}", handler.UpdateRubric)
		}, req, userID)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestRubricHandler_DeleteRubric(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	t.Run("deletes and returns no content", func(t *testing.T) {
		t.Parallel()

		handler := NewRubricHandler(&mockRubricService{}, &mockPromptOptimizer{}, discardLogger())

		req := httptest.NewRequest(http.MethodDelete, "/rubrics/"+uuid.NewString(), nil)
		rr := serveAuthenticated(func(r chi.Router) {
			r.Delete("/rubrics/{id}", handler.DeleteRubric)
		}, req, userID)

		assert.Equal(t, http.StatusNoContent, rr.Code)
	})

	t.Run("missing rubric returns not found", func(t *testing.T) {
		t.Parallel()

		svc := &mockRubricService{
			deleteRubricFn: func(ctx context.Context, uid, rubricID uuid.UUID) error {
				return service.ErrRubricNotFound
			},
		}
		handler := NewRubricHandler(svc, &mockPromptOptimizer{}, discardLogger())

		req := httptest.NewRequest(http.MethodDelete, "/rubrics/"+uuid.NewString(), nil)
		rr := serveAuthenticated(func(r chi.Router) {
			r.Delete("/rubrics/{id}", handler.DeleteRubric)
		}, req, userID)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestRubricHandler_SetDefault(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	t.Run("marks the rubric as default", func(t *testing.T) {
		t.Parallel()

		rubric := testRubric(userID)
		rubric.IsDefault = true
		svc := &mockRubricService{
			setDefaultFn: func(ctx context.Context, uid, rubricID uuid.UUID) (*domain.Rubric, error) {
				assert.Equal(t, userID, uid)
				assert.Equal(t, rubric.ID, rubricID)
				return rubric, nil
			},
		}
		handler := NewRubricHandler(svc, &mockPromptOptimizer{}, discardLogger())

		req := httptest.NewRequest(http.MethodPost, "/rubrics/"+rubric.ID.String()+"/default", nil)
		rr := serveAuthenticated(func(r chi.Router) {
			r.Post("/rubrics/{id}/default", handler.SetDefault)
		}, req, userID)

		require.Equal(t, http.StatusOK, rr.Code)

		var resp RubricResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, rubric.ID, resp.ID)
		assert.True(t, resp.IsDefault)
	})

	t.Run("built-in rubric returns forbidden", func(t *testing.T) {
		t.Parallel()

		svc := &mockRubricService{
			setDefaultFn: func(ctx context.Context, uid, rubricID uuid.UUID) (*domain.Rubric, error) {
				return nil, service.ErrBuiltInRubric
			},
		}
		handler := NewRubricHandler(svc, &mockPromptOptimizer{}, discardLogger())

		req := httptest.NewRequest(http.MethodPost, "/rubrics/"+uuid.NewString()+"/default", nil)
		rr := serveAuthenticated(func(r chi.Router) {
			r.Post("/rubrics/{id}/default", handler.SetDefault)
		}, req, userID)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("missing rubric returns not found", func(t *testing.T) {
		t.Parallel()

		svc := &mockRubricService{
			setDefaultFn: func(ctx context.Context, uid, rubricID uuid.UUID) (*domain.Rubric, error) {
				return nil, service.ErrRubricNotFound
			},
		}
		handler := NewRubricHandler(svc, &mockPromptOptimizer{}, discardLogger())

		req := httptest.NewRequest(http.MethodPost, "/rubrics/"+uuid.NewString()+"/default", nil)
		rr := serveAuthenticated(func(r chi.Router) {
			r.Post("/rubrics/{id}/default", handler.SetDefault)
		}, req, userID)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestRubricHandler_OptimizePrompt(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	t.Run("returns the normalized optimization", func(t *testing.T) {
		t.Parallel()

		optimizer := &mockPromptOptimizer{
			optimizeFn: func(ctx context.Context, rubricName string, dimensions []domain.RubricDimension, customPrompt string) (string, error) {
				assert.Equal(t, "Exam Rubric", rubricName)
				assert.Len(t, dimensions, 3)
				assert.Equal(t, "be strict", customPrompt)
				return `{"optimizedPrompt": "better prompt", "suggestions": ["add criteria"]}`, nil
			},
		}
		handler := NewRubricHandler(&mockRubricService{}, optimizer, discardLogger())

		body, _ := json.Marshal(OptimizeRubricPromptRequest{
			RubricName:   "Exam Rubric",
			Dimensions:   testRubricDimensions(),
			CustomPrompt: "be strict",
		})
		req := httptest.NewRequest(http.MethodPost, "/rubrics/optimize-prompt", bytes.NewReader(body))

		rr := serveAuthenticated(func(r chi.Router) {
			r.Post("/rubrics/optimize-prompt", handler.OptimizePrompt)
		}, req, userID)

		require.Equal(t, http.StatusOK, rr.Code)

		var resp OptimizedPromptResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "better prompt", resp.OptimizedPrompt)
		assert.Equal(t, []string{"add criteria"}, resp.Suggestions)
	})

	t.Run("unstructured response falls back to raw text", func(t *testing.T) {
		t.Parallel()

		optimizer := &mockPromptOptimizer{
			optimizeFn: func(ctx context.Context, rubricName string, dimensions []domain.RubricDimension, customPrompt string) (string, error) {
				return "Just use clearer criteria.", nil
			},
		}
		handler := NewRubricHandler(&mockRubricService{}, optimizer, discardLogger())

		body, _ := json.Marshal(OptimizeRubricPromptRequest{RubricName: "Exam Rubric"})
		req := httptest.NewRequest(http.MethodPost, "/rubrics/optimize-prompt", bytes.NewReader(body))

		rr := serveAuthenticated(func(r chi.Router) {
			r.Post("/rubrics/optimize-prompt", handler.OptimizePrompt)
		}, req, userID)

		require.Equal(t, http.StatusOK, rr.Code)

		var resp OptimizedPromptResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "Just use clearer criteria.", resp.OptimizedPrompt)
		assert.Empty(t, resp.Suggestions)
	})

	t.Run("model failure returns service-unavailable message", func(t *testing.T) {
		t.Parallel()

		optimizer := &mockPromptOptimizer{
			optimizeFn: func(ctx context.Context, rubricName string, dimensions []domain.RubricDimension, customPrompt string) (string, error) {
				return "", context.DeadlineExceeded
			},
		}
		handler := NewRubricHandler(&mockRubricService{}, optimizer, discardLogger())

		body, _ := json.Marshal(OptimizeRubricPromptRequest{RubricName: "Exam Rubric"})
		req := httptest.NewRequest(http.MethodPost, "/rubrics/optimize-prompt", bytes.NewReader(body))

		rr := serveAuthenticated(func(r chi.Router) {
			r.Post("/rubrics/optimize-prompt", handler.OptimizePrompt)
		}, req, userID)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Contains(t, rr.Body.String(), "AI服务暂时不可用")
	})

	t.Run("missing rubric name returns bad request", func(t *testing.T) {
		t.Parallel()

		handler := NewRubricHandler(&mockRubricService{}, &mockPromptOptimizer{}, discardLogger())

		body, _ := json.Marshal(OptimizeRubricPromptRequest{})
		req := httptest.NewRequest(http.MethodPost, "/rubrics/optimize-prompt", bytes.NewReader(body))

		rr := serveAuthenticated(func(r chi.Router) {
			r.Post("/rubrics/optimize-prompt", handler.OptimizePrompt)
		}, req, userID)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestRubricHandler_Suggest(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	t.Run("builds a template from the scenario", func(t *testing.T) {
		t.Parallel()

		handler := NewRubricHandler(&mockRubricService{}, &mockPromptOptimizer{}, discardLogger())

		body, _ := json.Marshal(SuggestRubricRequest{Scene: "考试", Topic: "议论文", Grade: "高三"})
		req := httptest.NewRequest(http.MethodPost, "/rubrics/suggest", bytes.NewReader(body))

		rr := serveAuthenticated(func(r chi.Router) {
			r.Post("/rubrics/suggest", handler.Suggest)
		}, req, userID)

		require.Equal(t, http.StatusOK, rr.Code)

		var resp service.RubricSuggestion
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "考试英语作文评分标准", resp.Name)
		assert.Len(t, resp.Dimensions, 5)
	})

	t.Run("empty body still yields the generic template", func(t *testing.T) {
		t.Parallel()

		handler := NewRubricHandler(&mockRubricService{}, &mockPromptOptimizer{}, discardLogger())

		req := httptest.NewRequest(http.MethodPost, "/rubrics/suggest", bytes.NewReader([]byte(`{}`)))
		rr := serveAuthenticated(func(r chi.Router) {
			r.Post("/rubrics/suggest", handler.Suggest)
		}, req, userID)

		require.Equal(t, http.StatusOK, rr.Code)

		var resp service.RubricSuggestion
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "通用英语作文评分标准", resp.Name)
	})

	t.Run("unauthenticated request is rejected", func(t *testing.T) {
		t.Parallel()

		handler := NewRubricHandler(&mockRubricService{}, &mockPromptOptimizer{}, discardLogger())

		req := httptest.NewRequest(http.MethodPost, "/rubrics/suggest", bytes.NewReader([]byte(`{}`)))
		rr := serveAuthenticated(func(r chi.Router) {
			r.Post("/rubrics/suggest", handler.Suggest)
		}, req, uuid.Nil)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}
