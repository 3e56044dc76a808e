package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/redpen-app/redpen-api/internal/config"
	"github.com/redpen-app/redpen-api/internal/domain"
	"github.com/redpen-app/redpen-api/internal/events"
	"github.com/redpen-app/redpen-api/internal/platform/gemini"
	"github.com/redpen-app/redpen-api/internal/platform/postgres"
	"github.com/redpen-app/redpen-api/internal/queue"
	"github.com/redpen-app/redpen-api/internal/service"
	"github.com/redpen-app/redpen-api/internal/service/auth"
	"github.com/redpen-app/redpen-api/internal/store"
)

// application holds all shared dependencies for the server. Construction
// happens once in newApplication; everything downstream receives its
// collaborators from here.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	userStore   store.UserStore
	essayStore  store.EssayStore
	rubricStore store.RubricStore
	recordStore store.GradingRecordStore

	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier
	grader           *gemini.GeminiGrader

	eventEmitter events.EventEmitter

	jobStore     *queue.JobStore
	scheduler    *queue.Scheduler
	gradingQueue *queue.GradingQueue

	essayService  service.EssayService
	rubricService service.RubricService
}

// newApplication wires the full dependency graph: database, stores, auth,
// the Gemini grader, the grading queue and the services on top of them.
// Wiring order matters only where noted; everything else is independent.
func newApplication(ctx context.Context, cfg *config.Config, log *slog.Logger) (*application, error) {
	db, err := setupAppDatabase(ctx, cfg.Database.URL, log)
	if err != nil {
		return nil, err
	}

	if err := runMigrations(db, log); err != nil {
		db.Close()
		return nil, err
	}

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}

	app := &application{
		config:           cfg,
		logger:           log,
		db:               db,
		jwtService:       jwtService,
		passwordVerifier: auth.NewBcryptVerifier(),
	}

	app.userStore = postgres.NewPostgresUserStore(db, log, bcrypt.DefaultCost)
	app.essayStore = postgres.NewPostgresEssayStore(db, log)
	app.rubricStore = postgres.NewPostgresRubricStore(db, log)
	app.recordStore = postgres.NewPostgresGradingRecordStore(db, log)

	app.grader, err = gemini.NewGeminiGrader(ctx, log, cfg.LLM)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create Gemini grader: %w", err)
	}

	// The queue shares the stores with the HTTP layer through the
	// persistence adapter, so worker writes and reads see the same data.
	persistence := service.NewPersistenceAdapter(app.essayStore, app.rubricStore, app.recordStore)
	app.jobStore = queue.NewJobStore()
	app.scheduler = queue.NewScheduler(app.jobStore, persistence, app.grader, log)
	app.gradingQueue = queue.NewGradingQueue(app.jobStore, app.scheduler, persistence, log)

	app.eventEmitter = events.NewInMemoryEventEmitter(log)

	app.essayService, err = service.NewEssayService(
		app.essayStore,
		app.recordStore,
		app.grader,
		app.gradingQueue,
		app.eventEmitter,
		db,
		log,
	)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create essay service: %w", err)
	}

	app.rubricService, err = service.NewRubricService(app.rubricStore, db, log)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create rubric service: %w", err)
	}

	if emitter, ok := app.eventEmitter.(*events.InMemoryEventEmitter); ok {
		emitter.RegisterHandler(NewGradeRequestEventHandler(app.gradingQueue, log))
	}

	// The job store is in-memory, so jobs for essays that were pending when
	// the previous process stopped are gone. Re-enqueue them before serving.
	if err := resyncPendingEssays(ctx, app.essayStore, app.gradingQueue, log); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to resync pending essays: %w", err)
	}

	return app, nil
}

// resyncPendingEssayLimit bounds how many interrupted essays one startup
// re-enqueues.
const resyncPendingEssayLimit = 100

// resyncPendingEssays re-enqueues essays still in pending status, which
// happens when a shutdown interrupted their grading. Submission failures
// for individual essays are logged and skipped; the essay stays pending
// and is picked up on the next startup.
func resyncPendingEssays(
	ctx context.Context,
	essayStore store.EssayStore,
	submitter service.GradingSubmitter,
	log *slog.Logger,
) error {
	essays, err := essayStore.ListInStatus(ctx, domain.EssayStatusPending, resyncPendingEssayLimit)
	if err != nil {
		return err
	}

	if len(essays) == 0 {
		return nil
	}

	resubmitted := 0
	for _, essay := range essays {
		if _, err := submitter.Submit(ctx, essay.ID, essay.UserID); err != nil {
			log.Error("failed to re-enqueue pending essay",
				"error", err,
				"essay_id", essay.ID)
			continue
		}
		resubmitted++
	}

	log.Info("re-enqueued essays pending from previous run",
		"found", len(essays),
		"resubmitted", resubmitted)
	return nil
}

// Run builds the router and serves HTTP until a shutdown signal arrives.
func (app *application) Run() error {
	router := app.setupRouter()
	return app.startHTTPServer(router)
}

// cleanup releases resources held by the application. In-flight grading
// jobs are abandoned; their essays stay pending and resyncPendingEssays
// re-enqueues them on the next startup.
func (app *application) cleanup() {
	if err := app.db.Close(); err != nil {
		app.logger.Error("failed to close database", "error", err)
	}
	app.logger.Info("application shutdown complete")
}

// GradeRequestEventHandler receives grade request events emitted by the
// essay service and enqueues the matching grading job. Event types it does
// not recognize are ignored so new event kinds never break the handler.
type GradeRequestEventHandler struct {
	submitter service.GradingSubmitter
	logger    *slog.Logger
}

// NewGradeRequestEventHandler creates a handler that submits grading work
// to the given submitter.
func NewGradeRequestEventHandler(submitter service.GradingSubmitter, logger *slog.Logger) *GradeRequestEventHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &GradeRequestEventHandler{
		submitter: submitter,
		logger:    logger.With("component", "grade_request_event_handler"),
	}
}

// HandleEvent implements events.EventHandler.
func (h *GradeRequestEventHandler) HandleEvent(ctx context.Context, event *events.GradeRequestEvent) error {
	if event.Type != events.EventTypeGradeEssay {
		h.logger.Debug("ignoring event of unknown type",
			"event_id", event.ID,
			"event_type", event.Type)
		return nil
	}

	var payload struct {
		EssayID uuid.UUID `json:"essay_id"`
		UserID  uuid.UUID `json:"user_id"`
	}
	if err := event.UnmarshalPayload(&payload); err != nil {
		return fmt.Errorf("failed to unmarshal grade request payload: %w", err)
	}

	jobID, err := h.submitter.Submit(ctx, payload.EssayID, payload.UserID)
	if err != nil {
		return fmt.Errorf("failed to submit grading job for essay %s: %w", payload.EssayID, err)
	}

	h.logger.Info("grading job enqueued from event",
		"event_id", event.ID,
		"job_id", jobID,
		"essay_id", payload.EssayID)
	return nil
}
