package database

import (
	"context"
	"testing"

	"github.com/coproject/backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUser(t *testing.T) {
	db := newTestDB(t)
	d := New(db)
	ctx := context.Background()

	created := seedUser(t, d, "1", "Myself", true)
	assert.Equal(t, "1", created.ID)
	assert.Equal(t, "Myself@itu.dk", created.Email)
	assert.True(t, created.Supervisor)
	assert.Equal(t, models.DefaultImage, created.Image)

	read, err := d.UserRepo().Read(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, created, read)
}

func TestCreateUser_DuplicateID(t *testing.T) {
	db := newTestDB(t)
	d := New(db)

	seedUser(t, d, "1", "Myself", true)

	_, err := d.UserRepo().Create(context.Background(), models.UserCreate{
		ID:    "1",
		Name:  "Impostor",
		Email: "impostor@itu.dk",
	})
	require.Error(t, err)

	read, err := d.UserRepo().Read(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "Myself", read.Name)
}

func TestReadUser_NotFound(t *testing.T) {
	db := newTestDB(t)
	d := New(db)

	user, err := d.UserRepo().Read(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestReadAllUsers(t *testing.T) {
	db := newTestDB(t)
	d := New(db)

	users, err := d.UserRepo().ReadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, users)

	seedUser(t, d, "2", "Student", false)
	seedUser(t, d, "1", "Supervisor", true)

	users, err = d.UserRepo().ReadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "1", users[0].ID)
	assert.Equal(t, "2", users[1].ID)
}

func TestReadAllByUser(t *testing.T) {
	db := newTestDB(t)
	d := New(db)
	ctx := context.Background()

	seedUser(t, d, "S", "Supervisor", true)
	seedUser(t, d, "T", "Student", false)
	seedUser(t, d, "O", "Other", true)
	p1 := seedProject(t, d, "S", "P1", "Go")
	p2 := seedProject(t, d, "S", "P2")
	seedProject(t, d, "O", "P3")

	status, err := d.ProjectRepo().Join(ctx, p1.ID, "T")
	require.NoError(t, err)
	require.Equal(t, models.StatusUpdated, status)

	owned, err := d.UserRepo().ReadAllByUser(ctx, "S")
	require.NoError(t, err)
	require.Len(t, owned, 2)
	assert.Equal(t, p1.ID, owned[0].ID)
	assert.Equal(t, p2.ID, owned[1].ID)
	for _, p := range owned {
		require.NotNil(t, p.Supervisor)
		assert.Equal(t, "S", p.Supervisor.ID)
	}
	assert.Equal(t, []string{"Go"}, owned[0].Tags)
	require.Len(t, owned[0].Users, 1)
	assert.Equal(t, "T", owned[0].Users[0].ID)

	joined, err := d.UserRepo().ReadAllByUser(ctx, "T")
	require.NoError(t, err)
	require.Len(t, joined, 1)
	assert.Equal(t, p1.ID, joined[0].ID)
	require.NotNil(t, joined[0].Supervisor)
	assert.Equal(t, "S", joined[0].Supervisor.ID)

	unknown, err := d.UserRepo().ReadAllByUser(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, unknown)
	assert.Empty(t, unknown)
}

func TestUpdateUser(t *testing.T) {
	db := newTestDB(t)
	d := New(db)
	ctx := context.Background()

	seedUser(t, d, "1", "Myself", false)

	result, err := d.UserRepo().Update(ctx, "1", models.UserUpdate{
		Name:       strPtr("Renamed"),
		Supervisor: boolPtr(true),
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusUpdated, result.Status)
	assert.Empty(t, result.ReplacedImage)

	user, err := d.UserRepo().Read(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", user.Name)
	assert.Equal(t, "Myself@itu.dk", user.Email)
	assert.True(t, user.Supervisor)
	assert.Equal(t, models.DefaultImage, user.Image)
}

func TestUpdateUser_Image(t *testing.T) {
	db := newTestDB(t)
	d := New(db)
	ctx := context.Background()

	seedUser(t, d, "1", "Myself", false)

	result, err := d.UserRepo().Update(ctx, "1", models.UserUpdate{
		Image: &models.FileUpload{Name: "me.png", Path: "/images/first.png"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusUpdated, result.Status)
	assert.Equal(t, models.DefaultImage, result.ReplacedImage)

	result, err = d.UserRepo().Update(ctx, "1", models.UserUpdate{
		Image: &models.FileUpload{Name: "me.png", Path: "/images/second.png"},
	})
	require.NoError(t, err)
	assert.Equal(t, "/images/first.png", result.ReplacedImage)

	// an upload that was never stored leaves the image alone
	result, err = d.UserRepo().Update(ctx, "1", models.UserUpdate{
		Image: &models.FileUpload{Name: "me.png"},
	})
	require.NoError(t, err)
	assert.Empty(t, result.ReplacedImage)

	user, err := d.UserRepo().Read(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "/images/second.png", user.Image)
}

func TestUpdateUser_NotFound(t *testing.T) {
	db := newTestDB(t)
	d := New(db)

	result, err := d.UserRepo().Update(context.Background(), "ghost", models.UserUpdate{Name: strPtr("x")})
	require.NoError(t, err)
	assert.Equal(t, models.StatusNotFound, result.Status)
}

func TestDeleteUser(t *testing.T) {
	db := newTestDB(t)
	d := New(db)
	ctx := context.Background()

	seedUser(t, d, "1", "Supervisor", true)
	seedUser(t, d, "2", "Student", false)
	project := seedProject(t, d, "1", "Default Project")

	_, err := d.ProjectRepo().Join(ctx, project.ID, "2")
	require.NoError(t, err)

	status, err := d.UserRepo().Delete(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, models.StatusDeleted, status)

	user, err := d.UserRepo().Read(ctx, "2")
	require.NoError(t, err)
	assert.Nil(t, user)

	read, err := d.ProjectRepo().Read(ctx, project.ID)
	require.NoError(t, err)
	assert.Empty(t, read.Users)

	status, err = d.UserRepo().Delete(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, models.StatusNotFound, status)
}

func TestDeleteUser_DanglingSupervisor(t *testing.T) {
	db := newTestDB(t)
	d := New(db)
	ctx := context.Background()

	seedUser(t, d, "1", "Supervisor", true)
	project := seedProject(t, d, "1", "Default Project")

	status, err := d.UserRepo().Delete(ctx, "1")
	require.NoError(t, err)
	require.Equal(t, models.StatusDeleted, status)

	read, err := d.ProjectRepo().Read(ctx, project.ID)
	require.NoError(t, err)
	require.NotNil(t, read)
	assert.Nil(t, read.Supervisor)
}

func boolPtr(b bool) *bool {
	return &b
}
