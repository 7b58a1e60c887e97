package api

import (
	"github.com/go-chi/chi/v5"
)

// setupAPIRoutes mounts every authenticated endpoint under /api
func setupAPIRoutes(r chi.Router, handlers *routeHandlers, authMiddleware authMiddleware) {
	r.Route("/api", func(r chi.Router) {
		r.Use(ColoredHTTPLoggingMiddleware)
		r.Use(authMiddleware.authenticate)

		// Project Handler endpoints
		r.Get("/projects", handlers.projectHandler.getOpenProjects())
		r.Post("/projects", handlers.projectHandler.createProject())
		r.Get("/projects/{projectID}", handlers.projectHandler.getProject())
		r.Put("/projects/{projectID}", handlers.projectHandler.updateProject())
		r.Delete("/projects/{projectID}", handlers.projectHandler.deleteProject())
		r.Put("/projects/{projectID}/join", handlers.projectHandler.joinProject())
		r.Delete("/projects/{projectID}/leave", handlers.projectHandler.leaveProject())

		// User Handler endpoints
		r.Get("/user", handlers.userHandler.getCurrentUser())
		r.Put("/user", handlers.userHandler.updateCurrentUser())
		r.Delete("/user", handlers.userHandler.deleteCurrentUser())
		r.Get("/user/projects", handlers.userHandler.getCurrentUserProjects())
		r.Post("/user/signup", handlers.userHandler.signup())
		r.Get("/users", handlers.userHandler.getUsers())
		r.Post("/users", handlers.userHandler.createUser())

		// Tag Handler endpoints
		r.Get("/tags", handlers.tagHandler.getTags())
	})
}
