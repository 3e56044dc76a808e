package api

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/redpen-app/redpen-api/internal/api/shared"
	"github.com/redpen-app/redpen-api/internal/domain"
	"github.com/redpen-app/redpen-api/internal/queue"
	"github.com/redpen-app/redpen-api/internal/service"
	"github.com/redpen-app/redpen-api/internal/service/auth"
	"github.com/redpen-app/redpen-api/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// serveAuthenticated routes the request through a chi router with the user
// ID already placed in the context, mirroring what the auth middleware does.
func serveAuthenticated(
	register func(r chi.Router),
	req *http.Request,
	userID uuid.UUID,
) *httptest.ResponseRecorder {
	router := chi.NewRouter()
	register(router)

	if userID != uuid.Nil {
		ctx := context.WithValue(req.Context(), shared.UserIDContextKey, userID)
		req = req.WithContext(ctx)
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

// mockUserStore implements store.UserStore with function fields.
type mockUserStore struct {
	createFn     func(ctx context.Context, user *domain.User) error
	getByIDFn    func(ctx context.Context, id uuid.UUID) (*domain.User, error)
	getByEmailFn func(ctx context.Context, email string) (*domain.User, error)
	updateFn     func(ctx context.Context, user *domain.User) error
	deleteFn     func(ctx context.Context, id uuid.UUID) error
}

func (m *mockUserStore) Create(ctx context.Context, user *domain.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func (m *mockUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, store.ErrUserNotFound
}

func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	return nil, store.ErrUserNotFound
}

func (m *mockUserStore) Update(ctx context.Context, user *domain.User) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, user)
	}
	return nil
}

func (m *mockUserStore) Delete(ctx context.Context, id uuid.UUID) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockUserStore) WithTx(tx *sql.Tx) store.UserStore { return m }

// mockJWTService implements auth.JWTService with function fields.
type mockJWTService struct {
	generateTokenFn        func(ctx context.Context, userID uuid.UUID) (string, error)
	validateTokenFn        func(ctx context.Context, tokenString string) (*auth.Claims, error)
	generateRefreshTokenFn func(ctx context.Context, userID uuid.UUID) (string, error)
	validateRefreshTokenFn func(ctx context.Context, tokenString string) (*auth.Claims, error)
}

func (m *mockJWTService) GenerateToken(ctx context.Context, userID uuid.UUID) (string, error) {
	if m.generateTokenFn != nil {
		return m.generateTokenFn(ctx, userID)
	}
	return "access-token", nil
}

func (m *mockJWTService) ValidateToken(ctx context.Context, tokenString string) (*auth.Claims, error) {
	if m.validateTokenFn != nil {
		return m.validateTokenFn(ctx, tokenString)
	}
	return nil, auth.ErrInvalidToken
}

func (m *mockJWTService) GenerateRefreshToken(ctx context.Context, userID uuid.UUID) (string, error) {
	if m.generateRefreshTokenFn != nil {
		return m.generateRefreshTokenFn(ctx, userID)
	}
	return "refresh-token", nil
}

func (m *mockJWTService) ValidateRefreshToken(ctx context.Context, tokenString string) (*auth.Claims, error) {
	if m.validateRefreshTokenFn != nil {
		return m.validateRefreshTokenFn(ctx, tokenString)
	}
	return nil, auth.ErrInvalidRefreshToken
}

// mockPasswordVerifier implements auth.PasswordVerifier.
type mockPasswordVerifier struct {
	compareFn func(hashedPassword, password string) error
}

func (m *mockPasswordVerifier) Compare(hashedPassword, password string) error {
	if m.compareFn != nil {
		return m.compareFn(hashedPassword, password)
	}
	return nil
}

// mockEssayService implements service.EssayService with function fields.
type mockEssayService struct {
	createEssayFn          func(ctx context.Context, userID, rubricID uuid.UUID, title, content string) (*domain.Essay, error)
	createEssayFromPhotoFn func(ctx context.Context, userID, rubricID uuid.UUID, title, photoURL string) (*domain.Essay, error)
	getEssayFn             func(ctx context.Context, userID, essayID uuid.UUID) (*domain.Essay, error)
	listEssaysFn           func(ctx context.Context, userID uuid.UUID, status domain.EssayStatus, limit, offset int) (*store.EssayPage, error)
	deleteEssayFn          func(ctx context.Context, userID, essayID uuid.UUID) error
	requestGradingFn       func(ctx context.Context, userID, essayID uuid.UUID) (uuid.UUID, error)
	getResultFn            func(ctx context.Context, userID, essayID uuid.UUID) (*domain.GradingRecord, error)
	regradeEssayFn         func(ctx context.Context, userID, essayID uuid.UUID, content string) (*domain.Essay, error)
	compareVersionsFn      func(ctx context.Context, userID, essayID uuid.UUID, v1, v2 int) (*service.VersionComparison, error)
}

func (m *mockEssayService) CreateEssay(
	ctx context.Context,
	userID, rubricID uuid.UUID,
	title, content string,
) (*domain.Essay, error) {
	if m.createEssayFn != nil {
		return m.createEssayFn(ctx, userID, rubricID, title, content)
	}
	return nil, errors.New("not implemented")
}

func (m *mockEssayService) CreateEssayFromPhoto(
	ctx context.Context,
	userID, rubricID uuid.UUID,
	title, photoURL string,
) (*domain.Essay, error) {
	if m.createEssayFromPhotoFn != nil {
		return m.createEssayFromPhotoFn(ctx, userID, rubricID, title, photoURL)
	}
	return nil, errors.New("not implemented")
}

func (m *mockEssayService) GetEssay(ctx context.Context, userID, essayID uuid.UUID) (*domain.Essay, error) {
	if m.getEssayFn != nil {
		return m.getEssayFn(ctx, userID, essayID)
	}
	return nil, service.ErrEssayNotFound
}

func (m *mockEssayService) ListEssays(
	ctx context.Context,
	userID uuid.UUID,
	status domain.EssayStatus,
	limit, offset int,
) (*store.EssayPage, error) {
	if m.listEssaysFn != nil {
		return m.listEssaysFn(ctx, userID, status, limit, offset)
	}
	return &store.EssayPage{}, nil
}

func (m *mockEssayService) DeleteEssay(ctx context.Context, userID, essayID uuid.UUID) error {
	if m.deleteEssayFn != nil {
		return m.deleteEssayFn(ctx, userID, essayID)
	}
	return nil
}

func (m *mockEssayService) RequestGrading(ctx context.Context, userID, essayID uuid.UUID) (uuid.UUID, error) {
	if m.requestGradingFn != nil {
		return m.requestGradingFn(ctx, userID, essayID)
	}
	return uuid.New(), nil
}

func (m *mockEssayService) GetResult(ctx context.Context, userID, essayID uuid.UUID) (*domain.GradingRecord, error) {
	if m.getResultFn != nil {
		return m.getResultFn(ctx, userID, essayID)
	}
	return nil, service.ErrResultNotFound
}

func (m *mockEssayService) RegradeEssay(
	ctx context.Context,
	userID, essayID uuid.UUID,
	content string,
) (*domain.Essay, error) {
	if m.regradeEssayFn != nil {
		return m.regradeEssayFn(ctx, userID, essayID, content)
	}
	return nil, errors.New("not implemented")
}

func (m *mockEssayService) CompareVersions(
	ctx context.Context,
	userID, essayID uuid.UUID,
	v1, v2 int,
) (*service.VersionComparison, error) {
	if m.compareVersionsFn != nil {
		return m.compareVersionsFn(ctx, userID, essayID, v1, v2)
	}
	return nil, errors.New("not implemented")
}

// mockRubricService implements service.RubricService with function fields.
type mockRubricService struct {
	createRubricFn func(ctx context.Context, userID uuid.UUID, name, description string, scene domain.RubricScene, dimensions []domain.RubricDimension, customPrompt string) (*domain.Rubric, error)
	getRubricFn    func(ctx context.Context, userID, rubricID uuid.UUID) (*domain.Rubric, error)
	listRubricsFn  func(ctx context.Context, userID uuid.UUID, scene domain.RubricScene) ([]*domain.Rubric, error)
	updateRubricFn func(ctx context.Context, userID uuid.UUID, rubric *domain.Rubric) error
	deleteRubricFn func(ctx context.Context, userID, rubricID uuid.UUID) error
	setDefaultFn   func(ctx context.Context, userID, rubricID uuid.UUID) (*domain.Rubric, error)
}

func (m *mockRubricService) CreateRubric(
	ctx context.Context,
	userID uuid.UUID,
	name, description string,
	scene domain.RubricScene,
	dimensions []domain.RubricDimension,
	customPrompt string,
) (*domain.Rubric, error) {
	if m.createRubricFn != nil {
		return m.createRubricFn(ctx, userID, name, description, scene, dimensions, customPrompt)
	}
	return nil, errors.New("not implemented")
}

func (m *mockRubricService) GetRubric(ctx context.Context, userID, rubricID uuid.UUID) (*domain.Rubric, error) {
	if m.getRubricFn != nil {
		return m.getRubricFn(ctx, userID, rubricID)
	}
	return nil, service.ErrRubricNotFound
}

func (m *mockRubricService) ListRubrics(
	ctx context.Context,
	userID uuid.UUID,
	scene domain.RubricScene,
) ([]*domain.Rubric, error) {
	if m.listRubricsFn != nil {
		return m.listRubricsFn(ctx, userID, scene)
	}
	return nil, nil
}

func (m *mockRubricService) UpdateRubric(ctx context.Context, userID uuid.UUID, rubric *domain.Rubric) error {
	if m.updateRubricFn != nil {
		return m.updateRubricFn(ctx, userID, rubric)
	}
	return nil
}

func (m *mockRubricService) DeleteRubric(ctx context.Context, userID, rubricID uuid.UUID) error {
	if m.deleteRubricFn != nil {
		return m.deleteRubricFn(ctx, userID, rubricID)
	}
	return nil
}

func (m *mockRubricService) SetDefaultRubric(
	ctx context.Context,
	userID, rubricID uuid.UUID,
) (*domain.Rubric, error) {
	if m.setDefaultFn != nil {
		return m.setDefaultFn(ctx, userID, rubricID)
	}
	return nil, errors.New("not implemented")
}

// mockPromptOptimizer implements grading.PromptOptimizer.
type mockPromptOptimizer struct {
	optimizeFn func(ctx context.Context, rubricName string, dimensions []domain.RubricDimension, customPrompt string) (string, error)
}

func (m *mockPromptOptimizer) OptimizePrompt(
	ctx context.Context,
	rubricName string,
	dimensions []domain.RubricDimension,
	customPrompt string,
) (string, error) {
	if m.optimizeFn != nil {
		return m.optimizeFn(ctx, rubricName, dimensions, customPrompt)
	}
	return "", errors.New("not implemented")
}

// mockJobStatusProvider implements JobStatusProvider.
type mockJobStatusProvider struct {
	getStatusFn func(ctx context.Context, jobID uuid.UUID) (*queue.Job, error)
	statsFn     func() queue.Stats
}

func (m *mockJobStatusProvider) GetStatus(ctx context.Context, jobID uuid.UUID) (*queue.Job, error) {
	if m.getStatusFn != nil {
		return m.getStatusFn(ctx, jobID)
	}
	return nil, queue.ErrUnknownJob
}

func (m *mockJobStatusProvider) Stats() queue.Stats {
	if m.statsFn != nil {
		return m.statsFn()
	}
	return queue.Stats{}
}
