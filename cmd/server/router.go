package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/redpen-app/redpen-api/internal/api"
	"github.com/redpen-app/redpen-api/internal/api/middleware"
)

// setupRouter builds the chi router: global middleware, the public auth
// endpoints and the authenticated API surface.
func (app *application) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.TraceMiddleware)

	authHandler := api.NewAuthHandler(
		app.userStore,
		app.jwtService,
		app.passwordVerifier,
		&app.config.Auth,
		app.logger,
	)
	essayHandler := api.NewEssayHandler(app.essayService, app.logger)
	rubricHandler := api.NewRubricHandler(app.rubricService, app.grader, app.logger)
	gradingHandler := api.NewGradingHandler(app.gradingQueue, app.logger)
	aiHandler := api.NewAIHandler(app.grader, app.grader, app.rubricService, app.logger)

	authMiddleware := middleware.NewAuthMiddleware(app.jwtService)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.RefreshToken)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Get("/auth/me", authHandler.Me)

			r.Post("/essays", essayHandler.CreateEssay)
			r.Post("/essays/photo", essayHandler.CreateEssayFromPhoto)
			r.Get("/essays", essayHandler.ListEssays)
			r.Get("/essays/{id}", essayHandler.GetEssay)
			r.Delete("/essays/{id}", essayHandler.DeleteEssay)
			r.Post("/essays/{id}/grade", essayHandler.GradeEssay)
			r.Get("/essays/{id}/result", essayHandler.GetResult)
			r.Post("/essays/{id}/regrade", essayHandler.RegradeEssay)
			r.Get("/essays/{id}/compare", essayHandler.CompareVersions)

			r.Post("/rubrics", rubricHandler.CreateRubric)
			r.Get("/rubrics", rubricHandler.ListRubrics)
			r.Get("/rubrics/{id}", rubricHandler.GetRubric)
			r.Put("/rubrics/{id}", rubricHandler.UpdateRubric)
			r.Delete("/rubrics/{id}", rubricHandler.DeleteRubric)
			r.Post("/rubrics/{id}/default", rubricHandler.SetDefault)
			r.Post("/rubrics/optimize-prompt", rubricHandler.OptimizePrompt)
			r.Post("/rubrics/suggest", rubricHandler.Suggest)

			r.Get("/grading/jobs/{id}", gradingHandler.GetJobStatus)
			r.Get("/grading/stats", gradingHandler.GetQueueStats)

			r.Post("/ai/grade", aiHandler.Grade)
			r.Post("/ai/ocr", aiHandler.OCR)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
