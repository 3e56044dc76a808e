package queue

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/redpen-app/redpen-api/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

// mockPersistence is a thread-safe in-memory implementation of Persistence
// for scheduler and facade tests.
type mockPersistence struct {
	mu      sync.Mutex
	essays  map[uuid.UUID]*domain.Essay
	rubrics map[uuid.UUID]*domain.Rubric
	records []*domain.GradingRecord

	createRecordErr error
	statusErr       error
}

func newMockPersistence() *mockPersistence {
	return &mockPersistence{
		essays:  make(map[uuid.UUID]*domain.Essay),
		rubrics: make(map[uuid.UUID]*domain.Rubric),
	}
}

func (m *mockPersistence) addEssay(essay *domain.Essay) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.essays[essay.ID] = essay
}

func (m *mockPersistence) addRubric(rubric *domain.Rubric) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rubrics[rubric.ID] = rubric
}

func (m *mockPersistence) GetEssay(ctx context.Context, id uuid.UUID) (*domain.Essay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	essay, ok := m.essays[id]
	if !ok {
		return nil, fmt.Errorf("essay %s not found", id)
	}
	copied := *essay
	return &copied, nil
}

func (m *mockPersistence) GetRubric(ctx context.Context, id uuid.UUID) (*domain.Rubric, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rubric, ok := m.rubrics[id]
	if !ok {
		return nil, fmt.Errorf("rubric %s not found", id)
	}
	copied := *rubric
	return &copied, nil
}

func (m *mockPersistence) CreateGradingRecord(ctx context.Context, record *domain.GradingRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createRecordErr != nil {
		return m.createRecordErr
	}
	copied := *record
	m.records = append(m.records, &copied)
	return nil
}

func (m *mockPersistence) GetGradingRecord(ctx context.Context, essayID uuid.UUID) (*domain.GradingRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.records) - 1; i >= 0; i-- {
		if m.records[i].EssayID == essayID {
			copied := *m.records[i]
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("no grading record for essay %s", essayID)
}

func (m *mockPersistence) UpdateEssayStatus(ctx context.Context, essayID uuid.UUID, status domain.EssayStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.statusErr != nil {
		return m.statusErr
	}
	essay, ok := m.essays[essayID]
	if !ok {
		return fmt.Errorf("essay %s not found", essayID)
	}
	essay.Status = status
	return nil
}

func (m *mockPersistence) recordedFor(essayID uuid.UUID) []*domain.GradingRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.GradingRecord
	for _, record := range m.records {
		if record.EssayID == essayID {
			out = append(out, record)
		}
	}
	return out
}

func (m *mockPersistence) essayStatus(essayID uuid.UUID) domain.EssayStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.essays[essayID].Status
}

// stubGrader implements grading.Grader with a configurable grade function.
type stubGrader struct {
	mu      sync.Mutex
	gradeFn func(ctx context.Context, essayText string, rubric *domain.Rubric, customPrompt string) (string, error)
	calls   []string // essay text of each call, in call order
}

func (g *stubGrader) Grade(ctx context.Context, essayText string, rubric *domain.Rubric, customPrompt string) (string, error) {
	g.mu.Lock()
	g.calls = append(g.calls, essayText)
	g.mu.Unlock()

	if g.gradeFn != nil {
		return g.gradeFn(ctx, essayText, rubric, customPrompt)
	}
	return `{"overallScore": 90, "overallFeedback": "ok"}`, nil
}

func (g *stubGrader) Model() string {
	return "stub-model"
}

func (g *stubGrader) callOrder() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.calls))
	copy(out, g.calls)
	return out
}

func newTestEssay(content string) *domain.Essay {
	essay, err := domain.NewEssay(uuid.New(), uuid.Nil, "", content, domain.EssaySourceText)
	if err != nil {
		panic(err)
	}
	return essay
}
