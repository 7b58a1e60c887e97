package api

import (
	"github.com/coproject/backend/database"
	"github.com/coproject/backend/services"
)

// initializeHandlers creates and returns all handlers organized in a routeHandlers struct
func initializeHandlers(database database.Database, images services.ImageStore, notifier *services.Notifier) *routeHandlers {
	return &routeHandlers{
		projectHandler: newProjectHandler(database.ProjectRepo(), database.UserRepo(), notifier),
		userHandler:    newUserHandler(database.UserRepo(), images),
		tagHandler:     newTagHandler(database.TagRepo()),
	}
}
