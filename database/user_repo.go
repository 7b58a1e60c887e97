package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/coproject/backend/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type UserRepo struct {
	db     *gorm.DB
	logger zerolog.Logger
}

func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{
		db:     db,
		logger: log.With().Str("repo", "UserRepo").Logger(),
	}
}

// UpdateResult carries the outcome of Update and the image path that was replaced, if any
type UpdateResult struct {
	Status        models.Status
	ReplacedImage string
}

// Create inserts a user with the default profile picture.
// A duplicate id fails with the store's primary key error.
func (r *UserRepo) Create(ctx context.Context, in models.UserCreate) (*models.UserDetails, error) {
	user := &models.User{
		ID:         in.ID,
		Name:       in.Name,
		Email:      in.Email,
		Supervisor: in.Supervisor,
		Image:      models.DefaultImage,
	}

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	r.logger.Info().Str("userID", user.ID).Bool("supervisor", user.Supervisor).Msg("user created")

	details := user.Details()
	return &details, nil
}

// Read returns the detail view of a user, or nil when no user has the id
func (r *UserRepo) Read(ctx context.Context, id string) (*models.UserDetails, error) {
	user, err := r.find(ctx, r.db, id)
	if err != nil || user == nil {
		return nil, err
	}
	details := user.Details()
	return &details, nil
}

// ReadAll returns the detail view of every user
func (r *UserRepo) ReadAll(ctx context.Context) ([]models.UserDetails, error) {
	var users []*models.User
	if err := r.db.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to find users: %w", err)
	}

	details := make([]models.UserDetails, 0, len(users))
	for _, u := range users {
		details = append(details, u.Details())
	}
	return details, nil
}

// ReadAllByUser returns the projects visible to a user: the projects a supervisor
// owns, or the projects a student has joined. An unknown user sees nothing.
func (r *UserRepo) ReadAllByUser(ctx context.Context, id string) ([]models.ProjectDetails, error) {
	user, err := r.find(ctx, r.db, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return []models.ProjectDetails{}, nil
	}

	query := withRelations(r.db.WithContext(ctx)).Order("projects.id")
	if user.Supervisor {
		query = query.Where("projects.supervisor_id = ?", user.ID)
	} else {
		query = query.
			Joins("JOIN project_users ON project_users.project_id = projects.id").
			Where("project_users.user_id = ?", user.ID)
	}

	var projects []*models.Project
	if err := query.Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("failed to find projects of user %q: %w", id, err)
	}

	if user.Supervisor {
		supervisor := user.Details()
		return projectDetails(ctx, r.db, projects, &supervisor)
	}
	return projectDetails(ctx, r.db, projects, nil)
}

// Update applies a partial update. Fields are written only when present and
// different; the image path is taken from the upload once it has been stored.
func (r *UserRepo) Update(ctx context.Context, id string, update models.UserUpdate) (UpdateResult, error) {
	user, err := r.find(ctx, r.db, id)
	if err != nil {
		return UpdateResult{}, err
	}
	if user == nil {
		return UpdateResult{Status: models.StatusNotFound}, nil
	}

	result := UpdateResult{Status: models.StatusUpdated}
	changes := map[string]any{}

	if update.Name != nil && *update.Name != user.Name {
		changes["name"] = *update.Name
	}
	if update.Email != nil && *update.Email != user.Email {
		changes["email"] = *update.Email
	}
	if update.Supervisor != nil && *update.Supervisor != user.Supervisor {
		changes["supervisor"] = *update.Supervisor
	}
	if update.Image != nil && update.Image.Path != "" && update.Image.Path != user.Image {
		changes["image"] = update.Image.Path
		result.ReplacedImage = user.Image
	}

	if len(changes) == 0 {
		return result, nil
	}

	if err := r.db.WithContext(ctx).Model(user).Updates(changes).Error; err != nil {
		return UpdateResult{}, fmt.Errorf("failed to update user %q: %w", id, err)
	}
	return result, nil
}

// Delete removes the user row and its project memberships in one transaction
func (r *UserRepo) Delete(ctx context.Context, id string) (models.Status, error) {
	status := models.StatusDeleted
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := r.find(ctx, tx, id)
		if err != nil {
			return err
		}
		if user == nil {
			status = models.StatusNotFound
			return nil
		}

		if err := tx.Exec("DELETE FROM project_users WHERE user_id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to remove memberships of user %q: %w", id, err)
		}
		if err := tx.Delete(user).Error; err != nil {
			return fmt.Errorf("failed to delete user %q: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return models.StatusUnknown, err
	}

	if status == models.StatusDeleted {
		r.logger.Info().Str("userID", id).Msg("user deleted")
	}
	return status, nil
}

func (r *UserRepo) find(ctx context.Context, db *gorm.DB, id string) (*models.User, error) {
	var user models.User
	err := db.WithContext(ctx).Where("id = ?", id).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user %q: %w", id, err)
	}
	return &user, nil
}
