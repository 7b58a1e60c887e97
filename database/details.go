package database

import (
	"context"
	"fmt"

	"github.com/coproject/backend/models"
	"gorm.io/gorm"
)

// withRelations preloads the tag and membership sets of a project query
func withRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.id") }).
		Preload("Users", func(db *gorm.DB) *gorm.DB { return db.Order("users.id") })
}

// projectDetails expands loaded projects into their detail views.
// When supervisor is nil the supervisors are looked up with a single query;
// a supervisor id that no longer resolves leaves Supervisor nil.
func projectDetails(ctx context.Context, db *gorm.DB, projects []*models.Project, supervisor *models.UserDetails) ([]models.ProjectDetails, error) {
	supervisors := map[string]models.UserDetails{}
	if supervisor == nil && len(projects) > 0 {
		ids := make([]string, 0, len(projects))
		for _, p := range projects {
			ids = append(ids, p.SupervisorID)
		}

		var users []*models.User
		if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
			return nil, fmt.Errorf("failed to load supervisors: %w", err)
		}
		for _, u := range users {
			supervisors[u.ID] = u.Details()
		}
	}

	details := make([]models.ProjectDetails, 0, len(projects))
	for _, p := range projects {
		d := toProjectDetails(p)
		if supervisor != nil {
			s := *supervisor
			d.Supervisor = &s
		} else if s, ok := supervisors[p.SupervisorID]; ok {
			d.Supervisor = &s
		}
		details = append(details, d)
	}
	return details, nil
}

func toProjectDetails(p *models.Project) models.ProjectDetails {
	users := make([]models.UserDetails, 0, len(p.Users))
	for _, u := range p.Users {
		users = append(users, u.Details())
	}

	return models.ProjectDetails{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		State:       p.State,
		Created:     p.Created,
		Tags:        models.TagNames(p.Tags),
		Users:       users,
		Min:         p.Min,
		Max:         p.Max,
	}
}
