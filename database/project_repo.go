package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coproject/backend/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrSupervisorNotFound is returned by Create when the supervisor id does not resolve to a user
var ErrSupervisorNotFound = errors.New("supervisor not found")

type ProjectRepo struct {
	db     *gorm.DB
	tags   *TagRepo
	logger zerolog.Logger
}

func NewProjectRepo(db *gorm.DB, tags *TagRepo) *ProjectRepo {
	return &ProjectRepo{
		db:     db,
		tags:   tags,
		logger: log.With().Str("repo", "ProjectRepo").Logger(),
	}
}

// GetDB returns the underlying database connection for debugging purposes
func (r *ProjectRepo) GetDB() *gorm.DB {
	return r.db
}

// Create inserts a new project owned by in.SupervisorID and returns its detail view
func (r *ProjectRepo) Create(ctx context.Context, in models.ProjectCreate) (*models.ProjectDetails, error) {
	var supervisor models.User
	err := r.db.WithContext(ctx).Where("id = ?", in.SupervisorID).Take(&supervisor).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %q", ErrSupervisorNotFound, in.SupervisorID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find supervisor: %w", err)
	}

	tags, err := r.tags.Resolve(ctx, in.Tags)
	if err != nil {
		return nil, err
	}

	state := in.State
	if state == "" {
		state = models.StateOpen
	}

	project := &models.Project{
		Name:         in.Name,
		Description:  in.Description,
		Created:      time.Now().UTC(),
		SupervisorID: in.SupervisorID,
		Min:          in.Min,
		Max:          in.Max,
		State:        state,
		Tags:         tags,
		Users:        []*models.User{},
	}

	// Tags are already persisted; only the project row and its links are written here.
	if err := r.db.WithContext(ctx).Omit("Tags.*", "Users.*").Create(project).Error; err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	r.logger.Info().Int("projectID", project.ID).Str("supervisorID", project.SupervisorID).Msg("project created")

	details := toProjectDetails(project)
	s := supervisor.Details()
	details.Supervisor = &s
	return &details, nil
}

// Read returns the detail view of a project, or nil when no project has the id.
// Deleted projects are returned like any other.
func (r *ProjectRepo) Read(ctx context.Context, id int) (*models.ProjectDetails, error) {
	project, err := r.find(ctx, r.db, id, true)
	if err != nil || project == nil {
		return nil, err
	}

	details, err := projectDetails(ctx, r.db, []*models.Project{project}, nil)
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

// ReadAll returns the detail view of every project regardless of state
func (r *ProjectRepo) ReadAll(ctx context.Context) ([]models.ProjectDetails, error) {
	var projects []*models.Project
	if err := withRelations(r.db.WithContext(ctx)).Order("id").Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("failed to find projects: %w", err)
	}
	return projectDetails(ctx, r.db, projects, nil)
}

// Update applies a partial update in one transaction.
//
// Scalar fields are written only when present and different from the stored value.
// Tags and Users, when present, replace the whole set; user ids that do not exist
// are dropped. A deleted project keeps its Deleted state.
func (r *ProjectRepo) Update(ctx context.Context, id int, update models.ProjectUpdate) (models.Status, error) {
	exists, err := r.exists(ctx, id)
	if err != nil {
		return models.StatusUnknown, err
	}
	if !exists {
		return models.StatusNotFound, nil
	}

	var tags []*models.Tag
	if update.Tags != nil {
		// Resolved before the transaction starts: new tags commit on their own.
		tags, err = r.tags.Resolve(ctx, update.Tags)
		if err != nil {
			return models.StatusUnknown, err
		}
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		project, err := r.find(ctx, tx, id, false)
		if err != nil {
			return err
		}
		if project == nil {
			return gorm.ErrRecordNotFound
		}

		if changes := r.scalarChanges(project, update); len(changes) > 0 {
			if err := tx.Model(project).Updates(changes).Error; err != nil {
				return fmt.Errorf("failed to update project fields: %w", err)
			}
		}

		if update.Tags != nil {
			if err := replaceAssociation(tx, project, "Tags", tags); err != nil {
				return err
			}
		}

		if update.Users != nil {
			users, err := findUsers(tx, uniqueStrings(update.Users))
			if err != nil {
				return err
			}
			if err := replaceAssociation(tx, project, "Users", users); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.StatusNotFound, nil
	}
	if err != nil {
		return models.StatusUnknown, err
	}

	return models.StatusUpdated, nil
}

// Delete marks a project as Deleted. Deleting an already deleted project succeeds again.
func (r *ProjectRepo) Delete(ctx context.Context, id int) (models.Status, error) {
	project, err := r.find(ctx, r.db, id, false)
	if err != nil {
		return models.StatusUnknown, err
	}
	if project == nil {
		return models.StatusNotFound, nil
	}
	if project.State == models.StateDeleted {
		return models.StatusDeleted, nil
	}

	if err := r.db.WithContext(ctx).Model(project).Update("state", models.StateDeleted).Error; err != nil {
		return models.StatusUnknown, fmt.Errorf("failed to delete project: %w", err)
	}

	r.logger.Info().Int("projectID", id).Msg("project marked as deleted")
	return models.StatusDeleted, nil
}

// Join adds userID to the project's members.
// It returns NotFound for an unknown project or user, BadRequest when the project
// is not open or already full and Conflict when the user is already a member.
func (r *ProjectRepo) Join(ctx context.Context, id int, userID string) (models.Status, error) {
	status := models.StatusUpdated
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockProject(ctx, tx, id); err != nil {
			return err
		}
		project, err := r.find(ctx, tx, id, true)
		if err != nil {
			return err
		}
		switch {
		case project == nil:
			status = models.StatusNotFound
			return nil
		case project.State != models.StateOpen, project.IsFull():
			status = models.StatusBadRequest
			return nil
		case project.HasMember(userID):
			status = models.StatusConflict
			return nil
		}

		users, err := findUsers(tx, []string{userID})
		if err != nil {
			return err
		}
		if len(users) == 0 {
			status = models.StatusNotFound
			return nil
		}

		if err := tx.Model(project).Omit("Users.*").Association("Users").Append(users); err != nil {
			return fmt.Errorf("failed to join project: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.StatusUnknown, err
	}
	return status, nil
}

// Leave removes userID from the project's members.
// It returns NotFound for an unknown or deleted project and Conflict when the
// user is not a member.
func (r *ProjectRepo) Leave(ctx context.Context, id int, userID string) (models.Status, error) {
	status := models.StatusUpdated
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockProject(ctx, tx, id); err != nil {
			return err
		}
		project, err := r.find(ctx, tx, id, true)
		if err != nil {
			return err
		}
		if project == nil || project.State == models.StateDeleted {
			status = models.StatusNotFound
			return nil
		}
		if !project.HasMember(userID) {
			status = models.StatusConflict
			return nil
		}

		if err := tx.Model(project).Association("Users").Delete(&models.User{ID: userID}); err != nil {
			return fmt.Errorf("failed to leave project: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.StatusUnknown, err
	}
	return status, nil
}

// scalarChanges returns the columns whose incoming value differs from the stored one
func (r *ProjectRepo) scalarChanges(project *models.Project, update models.ProjectUpdate) map[string]any {
	changes := map[string]any{}

	if update.Name != nil && *update.Name != project.Name {
		changes["name"] = *update.Name
	}
	if update.Description != nil && *update.Description != project.Description {
		changes["description"] = *update.Description
	}
	if update.Min != nil && (project.Min == nil || *update.Min != *project.Min) {
		changes["min"] = *update.Min
	}
	if update.Max != nil && (project.Max == nil || *update.Max != *project.Max) {
		changes["max"] = *update.Max
	}
	if update.State != nil && *update.State != project.State {
		if project.State == models.StateDeleted {
			r.logger.Warn().Int("projectID", project.ID).Str("state", update.State.String()).Msg("ignoring state change of deleted project")
		} else {
			changes["state"] = *update.State
		}
	}

	return changes
}

func (r *ProjectRepo) find(ctx context.Context, db *gorm.DB, id int, relations bool) (*models.Project, error) {
	query := db.WithContext(ctx)
	if relations {
		query = withRelations(query)
	}

	var project models.Project
	err := query.Where("id = ?", id).Take(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find project %d: %w", id, err)
	}
	return &project, nil
}

// lockProject takes a row lock on the project for the rest of tx, so concurrent
// joins see each other's members before checking capacity. SQLite ignores the
// clause; its single connection already serializes transactions.
func lockProject(ctx context.Context, tx *gorm.DB, id int) error {
	var locked models.Project
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		Select("id").
		Where("id = ?", id).
		Take(&locked).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to lock project %d: %w", id, err)
	}
	return nil
}

func (r *ProjectRepo) exists(ctx context.Context, id int) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Project{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to find project %d: %w", id, err)
	}
	return count > 0, nil
}

// replaceAssociation detaches every existing link of the relation and attaches exactly values
func replaceAssociation[T any](tx *gorm.DB, project *models.Project, name string, values []*T) error {
	if err := tx.Model(project).Association(name).Clear(); err != nil {
		return fmt.Errorf("failed to detach %s: %w", name, err)
	}
	if len(values) == 0 {
		return nil
	}
	if err := tx.Model(project).Omit(name + ".*").Association(name).Append(values); err != nil {
		return fmt.Errorf("failed to attach %s: %w", name, err)
	}
	return nil
}

func findUsers(tx *gorm.DB, ids []string) ([]*models.User, error) {
	var users []*models.User
	if len(ids) == 0 {
		return users, nil
	}
	if err := tx.Where("id IN ?", ids).Order("id").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to find users: %w", err)
	}
	return users, nil
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
