package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/coproject/backend/database"
	"github.com/coproject/backend/errs"
	"github.com/coproject/backend/models"
	"github.com/coproject/backend/services"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type projectHandler struct {
	responder   Responder
	logger      zerolog.Logger
	projectRepo *database.ProjectRepo
	userRepo    *database.UserRepo
	notifier    *services.Notifier
}

func newProjectHandler(projectRepo *database.ProjectRepo, userRepo *database.UserRepo, notifier *services.Notifier) projectHandler {
	logger := log.With().Str("handlerName", "projectHandler").Logger()

	return projectHandler{
		responder:   NewResponder(logger),
		logger:      logger,
		projectRepo: projectRepo,
		userRepo:    userRepo,
		notifier:    notifier,
	}
}

// getOpenProjects lists the projects students can browse
// @Summary List open projects
// @Tags Projects
// @Produce json
// @Success 200 {array} models.ProjectDetails
// @Router /projects [get]
func (h projectHandler) getOpenProjects() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projects, err := h.projectRepo.ReadAll(r.Context())
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "projects", err))
			return
		}

		open := make([]models.ProjectDetails, 0, len(projects))
		for _, p := range projects {
			if p.State == models.StateOpen {
				open = append(open, p)
			}
		}

		h.responder.WriteJSON(w, open)
	}
}

// getProject returns one project in any state
// @Summary Get project
// @Tags Projects
// @Produce json
// @Param projectID path int true "Project ID"
// @Success 200 {object} models.ProjectDetails
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /projects/{projectID} [get]
func (h projectHandler) getProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := projectIDParam(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		project, err := h.projectRepo.Read(r.Context(), projectID)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "project", err))
			return
		}
		if project == nil {
			h.responder.WriteError(w, errs.NewNotFoundError("Project could not be found"))
			return
		}

		h.responder.WriteJSON(w, project)
	}
}

// createProject creates a project supervised by the caller
// @Summary Create project
// @Tags Projects
// @Accept json
// @Produce json
// @Param project body models.ProjectCreate true "Project data"
// @Success 201 {object} models.ProjectDetails
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /projects [post]
func (h projectHandler) createProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := currentUser(r, h.userRepo)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if !user.Supervisor {
			h.responder.WriteError(w, errs.NewInsufficientRoleError("supervisor"))
			return
		}

		var in models.ProjectCreate
		if err := decodeJSON(w, r, &in); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		in.SupervisorID = user.ID
		if in.State == "" {
			in.State = models.StateOpen
		}
		if err := validateStruct(in); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		created, err := h.projectRepo.Create(r.Context(), in)
		if errors.Is(err, database.ErrSupervisorNotFound) {
			h.responder.WriteError(w, errs.NewNotRegisteredError())
			return
		}
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("create", "project", err))
			return
		}

		w.Header().Set("Location", fmt.Sprintf("/api/projects/%d", created.ID))
		h.responder.WriteJSONStatus(w, http.StatusCreated, created)
	}
}

// updateProject applies a partial update. Only the project's supervisor may do this.
// @Summary Update project
// @Tags Projects
// @Accept json
// @Produce json
// @Param projectID path int true "Project ID"
// @Param project body models.ProjectUpdate true "Fields to change"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /projects/{projectID} [put]
func (h projectHandler) updateProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := projectIDParam(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		user, err := currentUser(r, h.userRepo)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		project, err := h.ownedProject(r.Context(), projectID, user)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		var update models.ProjectUpdate
		if err := decodeJSON(w, r, &update); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if err := validateStruct(update); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		lower, upper := project.Min, project.Max
		if update.Min != nil {
			lower = update.Min
		}
		if update.Max != nil {
			upper = update.Max
		}
		if !boundsValid(lower, upper) {
			h.responder.WriteError(w, errs.NewInvalidFieldError("min", "must not exceed max"))
			return
		}

		status, err := h.projectRepo.Update(r.Context(), projectID, update)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("update", "project", err))
			return
		}

		switch status {
		case models.StatusUpdated:
			h.responder.WriteMessage(w, http.StatusOK, "Project has been successfully updated!")
		case models.StatusNotFound:
			h.responder.WriteError(w, errs.NewNotFoundError("Project was not found"))
		default:
			h.responder.WriteError(w, errs.NewBadRequestError("Project could not be updated"))
		}
	}
}

// joinProject adds the caller to an open project that still has room
// @Summary Join project
// @Tags Projects
// @Produce json
// @Param projectID path int true "Project ID"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse "project not open or full"
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "already a member"
// @Router /projects/{projectID}/join [put]
func (h projectHandler) joinProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := projectIDParam(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		user, err := currentUser(r, h.userRepo)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		status, err := h.projectRepo.Join(r.Context(), projectID, user.ID)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("join", "project", err))
			return
		}

		switch status {
		case models.StatusUpdated:
			h.notify(projectID, *user, services.MembershipJoined)
			h.responder.WriteMessage(w, http.StatusOK, "You have joined the project")
		case models.StatusNotFound:
			h.responder.WriteError(w, errs.NewNotFoundError("Project was not found"))
		case models.StatusBadRequest:
			h.responder.WriteError(w, errs.NewBadRequestError("The project is not open or is full"))
		case models.StatusConflict:
			h.responder.WriteError(w, errs.NewConflictError("You have already joined this project"))
		default:
			h.responder.WriteError(w, errs.NewBadRequestError("You could not join the project"))
		}
	}
}

// leaveProject removes the caller from a project
// @Summary Leave project
// @Tags Projects
// @Produce json
// @Param projectID path int true "Project ID"
// @Success 200 {object} MessageResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "not a member"
// @Router /projects/{projectID}/leave [delete]
func (h projectHandler) leaveProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := projectIDParam(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		user, err := currentUser(r, h.userRepo)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		status, err := h.projectRepo.Leave(r.Context(), projectID, user.ID)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("leave", "project", err))
			return
		}

		switch status {
		case models.StatusUpdated:
			h.notify(projectID, *user, services.MembershipLeft)
			h.responder.WriteMessage(w, http.StatusOK, "You have left the project")
		case models.StatusNotFound:
			h.responder.WriteError(w, errs.NewNotFoundError("Project was not found"))
		case models.StatusConflict:
			h.responder.WriteError(w, errs.NewConflictError("You are not a part of the project"))
		default:
			h.responder.WriteError(w, errs.NewBadRequestError("You could not leave the project"))
		}
	}
}

// deleteProject marks a project as deleted. Only the project's supervisor may do this.
// @Summary Delete project
// @Tags Projects
// @Produce json
// @Param projectID path int true "Project ID"
// @Success 200 {object} MessageResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /projects/{projectID} [delete]
func (h projectHandler) deleteProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := projectIDParam(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		user, err := currentUser(r, h.userRepo)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if _, err := h.ownedProject(r.Context(), projectID, user); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		status, err := h.projectRepo.Delete(r.Context(), projectID)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("delete", "project", err))
			return
		}

		switch status {
		case models.StatusDeleted:
			h.responder.WriteMessage(w, http.StatusOK, "Project was deleted")
		case models.StatusNotFound:
			h.responder.WriteError(w, errs.NewNotFoundError("Project was not found"))
		default:
			h.responder.WriteError(w, errs.NewBadRequestError("Project could not be deleted"))
		}
	}
}

// ownedProject loads the project and checks that user is its supervisor
func (h projectHandler) ownedProject(ctx context.Context, projectID int, user *models.UserDetails) (*models.ProjectDetails, error) {
	if !user.Supervisor {
		return nil, errs.NewInsufficientRoleError("supervisor")
	}

	project, err := h.projectRepo.Read(ctx, projectID)
	if err != nil {
		return nil, wrapDatabaseError("find", "project", err)
	}
	if project == nil {
		return nil, errs.NewNotFoundError("Project was not found")
	}
	if project.Supervisor == nil || project.Supervisor.ID != user.ID {
		return nil, errs.NewNotOwnerError("project")
	}
	return project, nil
}

// notify sends membership e-mails in the background; failures are only logged
func (h projectHandler) notify(projectID int, student models.UserDetails, change services.MembershipChange) {
	if !h.notifier.Enabled() {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		project, err := h.projectRepo.Read(ctx, projectID)
		if err != nil || project == nil {
			h.logger.Warn().Err(err).Int("projectID", projectID).Msg("could not load project for notification")
			return
		}

		event := services.MembershipEvent{Change: change, Project: *project, Student: student}
		if err := h.notifier.MembershipChanged(ctx, event); err != nil {
			h.logger.Warn().Err(err).Int("projectID", projectID).Str("userID", student.ID).Msg("membership notification failed")
		}
	}()
}

func projectIDParam(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "projectID")
	if raw == "" {
		return 0, errs.NewMissingRequiredFieldError("projectID")
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, errs.NewInvalidFieldError("projectID", "must be a positive integer")
	}
	return id, nil
}

// currentUser resolves the token identity to a registered user
func currentUser(r *http.Request, users *database.UserRepo) (*models.UserDetails, error) {
	identity, err := ctxGetIdentity(r.Context())
	if err != nil {
		return nil, errs.NewMissingTokenError()
	}

	user, err := users.Read(r.Context(), identity.UserID)
	if err != nil {
		return nil, wrapDatabaseError("find", "user", err)
	}
	if user == nil {
		return nil, errs.NewNotRegisteredError()
	}
	return user, nil
}
