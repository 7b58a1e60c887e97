package database

import (
	"context"
	"testing"

	"github.com/coproject/backend/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// newTestDB opens a fresh in-memory SQLite database with every table migrated.
// The single connection is closed when the test ends, which discards the data.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := Open(map[string]string{
		"DB_TYPE":      "sqlite",
		"DATABASE_URL": ":memory:",
		"DB_LOG_LEVEL": "silent",
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	require.NoError(t, Migrate(db))
	return db
}

func seedUser(t *testing.T, d Database, id, name string, supervisor bool) *models.UserDetails {
	t.Helper()

	user, err := d.UserRepo().Create(context.Background(), models.UserCreate{
		ID:         id,
		Name:       name,
		Email:      name + "@itu.dk",
		Supervisor: supervisor,
	})
	require.NoError(t, err)
	return user
}

func seedProject(t *testing.T, d Database, supervisorID, name string, tags ...string) *models.ProjectDetails {
	t.Helper()

	project, err := d.ProjectRepo().Create(context.Background(), models.ProjectCreate{
		Name:         name,
		Description:  name + " description",
		SupervisorID: supervisorID,
		State:        models.StateOpen,
		Tags:         tags,
	})
	require.NoError(t, err)
	return project
}

func countTags(t *testing.T, db *gorm.DB, name string) int64 {
	t.Helper()

	var count int64
	require.NoError(t, db.Model(&models.Tag{}).Where("name = ?", name).Count(&count).Error)
	return count
}

func strPtr(s string) *string {
	return &s
}

func statePtr(s models.State) *models.State {
	return &s
}
