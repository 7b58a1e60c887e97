package database

import (
	"context"
	"fmt"

	"github.com/coproject/backend/models"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

func intPtr(i int) *int {
	return &i
}

// Seed inserts the default users and projects when the database holds no project yet
func Seed(ctx context.Context, db *gorm.DB) error {
	var count int64
	if err := db.WithContext(ctx).Model(&models.Project{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count projects: %w", err)
	}
	if count > 0 {
		return nil
	}

	d := New(db)
	users := []models.UserCreate{
		{ID: "1", Name: "Deniz", Email: "deyi@itu.dk", Supervisor: true},
		{ID: "2", Name: "Mikkel", Email: "milb@itu.dk", Supervisor: true},
		{ID: "3", Name: "Danyal", Email: "dayo@itu.dk"},
		{ID: "4", Name: "Jakob", Email: "jarh@itu.dk"},
		{ID: "5", Name: "Lotte", Email: "loda@itu.dk"},
	}
	for _, u := range users {
		existing, err := d.UserRepo().Read(ctx, u.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		if _, err := d.UserRepo().Create(ctx, u); err != nil {
			return err
		}
	}

	projects := []struct {
		create  models.ProjectCreate
		members []string
	}{
		{
			create: models.ProjectCreate{
				Name: "Machine Learning - Chess",
				Description: "Are you looking to write your thesis about machine learning and you're a fan of chess? " +
					"As your supervisor, I'll help you with the technicalities, and answer any questions you may have.",
				SupervisorID: "1",
				Min:          intPtr(2),
				Max:          intPtr(5),
				State:        models.StateOpen,
				Tags:         []string{"Python", "Machine", "AI", "Chess"},
			},
			members: []string{"3", "4"},
		},
		{
			create: models.ProjectCreate{
				Name: "Web Development - Human Behaviour",
				Description: "If you're interested in writing your thesis about how humans interact with the internet, " +
					"and how big corporations try to trick users into browsing their items, I could be your supervisor.",
				SupervisorID: "2",
				Min:          intPtr(1),
				Max:          intPtr(3),
				State:        models.StateOpen,
				Tags:         []string{"Web", "JS", "HTML", "CSS", "UX", "UI", "Cognition", "Behavior"},
			},
			members: []string{"5"},
		},
	}
	for _, p := range projects {
		created, err := d.ProjectRepo().Create(ctx, p.create)
		if err != nil {
			return err
		}
		if _, err := d.ProjectRepo().Update(ctx, created.ID, models.ProjectUpdate{Users: p.members}); err != nil {
			return err
		}
	}

	log.Info().Int("users", len(users)).Int("projects", len(projects)).Msg("database seeded")
	return nil
}
