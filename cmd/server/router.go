package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/agentdesk/internal/api"
	apiMiddleware "github.com/phrazzld/agentdesk/internal/api/middleware"
)

// setupRouter registers every route and its middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))

	authHandler := api.NewAuthHandler(app.userService, app.logger)
	profileHandler := api.NewProfileHandler(app.userService, app.logger)
	taskHandler := api.NewTaskHandler(app.taskService, app.logger)
	logHandler := api.NewLogHandler(app.logService, app.logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.tokens)

	var pinger api.Pinger
	if app.db != nil {
		pinger = app.db
	}
	healthHandler := api.NewHealthHandler(pinger, app.logger)

	r.Get("/health", healthHandler.Health)
	r.Post("/signup", authHandler.Signup)
	r.Post("/login", authHandler.Login)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		r.Get("/profile", profileHandler.GetProfile)
		r.Put("/profile", profileHandler.UpdateProfile)

		r.Post("/tasks", taskHandler.CreateTask)
		r.Get("/tasks", taskHandler.ListTasks)
		r.Put("/tasks/{id}", taskHandler.UpdateTask)
		r.Delete("/tasks/{id}", taskHandler.DeleteTask)

		r.Group(func(r chi.Router) {
			if app.runLimiter != nil {
				r.Use(apiMiddleware.NewRunRateLimit(app.runLimiter))
			}
			r.Post("/tasks/{id}/run", taskHandler.RunTask)
			r.Post("/tasks/{id}/run-ai", taskHandler.RunTask)
		})

		r.Get("/logs", logHandler.ListLogs)
	})

	return r
}
