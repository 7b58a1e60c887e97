package api

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/coproject/backend/database"
	"github.com/coproject/backend/errs"
	"github.com/coproject/backend/models"
	"github.com/coproject/backend/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const maxMultipartMemory = services.MaxImageSize + 1<<20

type userHandler struct {
	responder Responder
	logger    zerolog.Logger
	userRepo  *database.UserRepo
	images    services.ImageStore
}

func newUserHandler(userRepo *database.UserRepo, images services.ImageStore) userHandler {
	logger := log.With().Str("handlerName", "userHandler").Logger()

	return userHandler{
		responder: NewResponder(logger),
		logger:    logger,
		userRepo:  userRepo,
		images:    images,
	}
}

// getCurrentUser returns the caller's profile
// @Summary Get current user
// @Tags Users
// @Produce json
// @Success 200 {object} models.UserDetails
// @Failure 401 {object} ErrorResponse
// @Router /user [get]
func (h userHandler) getCurrentUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := currentUser(r, h.userRepo)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, user)
	}
}

// getCurrentUserProjects lists the projects the caller supervises or has joined
// @Summary Get projects of the current user
// @Tags Users
// @Produce json
// @Success 200 {array} models.ProjectDetails
// @Router /user/projects [get]
func (h userHandler) getCurrentUserProjects() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, err := ctxGetIdentity(r.Context())
		if err != nil {
			h.responder.WriteError(w, errs.NewMissingTokenError())
			return
		}

		projects, err := h.userRepo.ReadAllByUser(r.Context(), identity.UserID)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "projects", err))
			return
		}
		h.responder.WriteJSON(w, projects)
	}
}

// signup registers the caller from the token claims. Signing up twice is a no-op.
// @Summary Sign up
// @Tags Users
// @Produce json
// @Success 201 {object} models.UserDetails
// @Success 204
// @Failure 400 {object} ErrorResponse "token lacks name or emails"
// @Router /user/signup [post]
func (h userHandler) signup() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, err := ctxGetIdentity(r.Context())
		if err != nil {
			h.responder.WriteError(w, errs.NewMissingTokenError())
			return
		}
		if identity.Name == "" {
			h.responder.WriteError(w, errs.NewMissingClaimError("name"))
			return
		}
		if identity.Email == "" {
			h.responder.WriteError(w, errs.NewMissingClaimError("emails"))
			return
		}

		existing, err := h.userRepo.Read(r.Context(), identity.UserID)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "user", err))
			return
		}
		if existing != nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		in := models.UserCreate{ID: identity.UserID, Name: identity.Name, Email: identity.Email}
		if err := validateStruct(in); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.create(w, r, in)
	}
}

// createUser registers someone else, for instance a new supervisor. Supervisors only.
// @Summary Create user
// @Tags Users
// @Accept json
// @Produce json
// @Param user body models.UserCreate true "User data"
// @Success 201 {object} models.UserDetails
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "id already taken"
// @Router /users [post]
func (h userHandler) createUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := currentUser(r, h.userRepo)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if !caller.Supervisor {
			h.responder.WriteError(w, errs.NewInsufficientRoleError("supervisor"))
			return
		}

		var in models.UserCreate
		if err := decodeJSON(w, r, &in); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if err := validateStruct(in); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.create(w, r, in)
	}
}

func (h userHandler) create(w http.ResponseWriter, r *http.Request, in models.UserCreate) {
	user, err := h.userRepo.Create(r.Context(), in)
	if err != nil {
		h.responder.WriteError(w, wrapDatabaseError("create", "user", err))
		return
	}

	w.Header().Set("Location", "/api/user")
	h.responder.WriteJSONStatus(w, http.StatusCreated, user)
}

// updateCurrentUser changes the caller's profile. Accepts JSON, or multipart form
// fields name and email with an optional image file.
// @Summary Update current user
// @Tags Users
// @Accept json,mpfd
// @Produce json
// @Success 200 {object} models.UserDetails
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse "role change attempted"
// @Router /user [put]
func (h userHandler) updateCurrentUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := currentUser(r, h.userRepo)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		update, err := h.readUserUpdate(w, r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if err := validateStruct(update); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if update.Supervisor != nil && *update.Supervisor != user.Supervisor {
			h.responder.WriteError(w, errs.NewForbiddenError("The supervisor role cannot be changed through the profile"))
			return
		}

		if update.Image != nil {
			path, err := h.images.Save(r.Context(), update.Image.Name, update.Image.Content)
			if err != nil {
				h.responder.WriteError(w, err)
				return
			}
			update.Image.Path = path
		}

		result, err := h.userRepo.Update(r.Context(), user.ID, update)
		if err != nil || result.Status != models.StatusUpdated {
			if update.Image != nil {
				h.removeImage(update.Image.Path)
			}
			if err != nil {
				h.responder.WriteError(w, wrapDatabaseError("update", "user", err))
			} else {
				h.responder.WriteError(w, errs.NewNotRegisteredError())
			}
			return
		}

		if result.ReplacedImage != "" {
			h.removeImage(result.ReplacedImage)
		}

		updated, err := h.userRepo.Read(r.Context(), user.ID)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "user", err))
			return
		}
		h.responder.WriteJSON(w, updated)
	}
}

// deleteCurrentUser removes the caller together with their memberships and picture
// @Summary Delete current user
// @Tags Users
// @Produce json
// @Success 200 {object} MessageResponse
// @Failure 401 {object} ErrorResponse
// @Router /user [delete]
func (h userHandler) deleteCurrentUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := currentUser(r, h.userRepo)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		status, err := h.userRepo.Delete(r.Context(), user.ID)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("delete", "user", err))
			return
		}
		if status != models.StatusDeleted {
			h.responder.WriteError(w, errs.NewNotRegisteredError())
			return
		}

		h.removeImage(user.Image)
		h.responder.WriteMessage(w, http.StatusOK, "Your account was deleted")
	}
}

// getUsers lists every registered user
// @Summary List users
// @Tags Users
// @Produce json
// @Success 200 {array} models.UserDetails
// @Router /users [get]
func (h userHandler) getUsers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := h.userRepo.ReadAll(r.Context())
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "users", err))
			return
		}
		h.responder.WriteJSON(w, users)
	}
}

func (h userHandler) readUserUpdate(w http.ResponseWriter, r *http.Request) (models.UserUpdate, error) {
	var update models.UserUpdate

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json", "":
		err := decodeJSON(w, r, &update)
		return update, err
	case "multipart/form-data":
	default:
		return update, errs.NewUnsupportedMediaTypeError(mediaType, []string{"application/json", "multipart/form-data"})
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxMultipartMemory)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return update, errs.NewMaxBodySizeExceededError(maxMultipartMemory)
		}
		return update, errs.NewMalformedPayloadError("multipart", err)
	}

	if values, ok := r.MultipartForm.Value["name"]; ok && len(values) > 0 {
		name := strings.TrimSpace(values[0])
		update.Name = &name
	}
	if values, ok := r.MultipartForm.Value["email"]; ok && len(values) > 0 {
		email := strings.TrimSpace(values[0])
		update.Email = &email
	}
	if values, ok := r.MultipartForm.Value["supervisor"]; ok && len(values) > 0 {
		supervisor, err := strconv.ParseBool(values[0])
		if err != nil {
			return update, errs.NewInvalidFieldError("supervisor", "must be true or false")
		}
		update.Supervisor = &supervisor
	}

	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return update, nil
	}
	if err != nil {
		return update, errs.NewMalformedPayloadError("image", err)
	}
	defer file.Close()

	if header.Size > services.MaxImageSize {
		return update, errs.NewMaxBodySizeExceededError(services.MaxImageSize)
	}
	content, err := io.ReadAll(io.LimitReader(file, services.MaxImageSize+1))
	if err != nil {
		return update, errs.NewMalformedPayloadError("image", err)
	}

	update.Image = &models.FileUpload{Name: header.Filename, Content: content}
	return update, nil
}

// removeImage deletes a stored picture without failing the request
func (h userHandler) removeImage(path string) {
	if path == "" || path == models.DefaultImage {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := h.images.Delete(ctx, path); err != nil {
		h.logger.Warn().Err(err).Str("image", path).Msg("could not delete image")
	}
}
