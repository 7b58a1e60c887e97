package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/coproject/backend/database"
	"github.com/coproject/backend/models"
	"github.com/coproject/backend/services"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "test-secret"
	testIssuer = "https://login.coproject.test"
)

type testAPI struct {
	router   *chi.Mux
	db       database.Database
	imageDir string
}

func newTestAPI(t *testing.T) testAPI {
	t.Helper()

	gormDB, err := database.Open(map[string]string{
		"DB_TYPE":      "sqlite",
		"DATABASE_URL": ":memory:",
		"DB_LOG_LEVEL": "silent",
	})
	require.NoError(t, err)
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	require.NoError(t, database.Migrate(gormDB))

	imageDir := t.TempDir()
	images, err := services.NewLocalImageStore(imageDir)
	require.NoError(t, err)

	db := database.New(gormDB)
	router, err := newRouter(db, images, services.NewNotifier(nil), withConfig(map[string]string{
		"JWT_SECRET":       testSecret,
		"JWT_ISSUER":       testIssuer,
		"ACCEPTED_ORIGINS": "http://localhost:3000",
	}), withStartupTime(time.Now()))
	require.NoError(t, err)

	return testAPI{router: router, db: db, imageDir: imageDir}
}

func signToken(t *testing.T, claims jwt.Claims) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func tokenFor(t *testing.T, oid, name, email string) string {
	t.Helper()

	now := time.Now()
	return signToken(t, jwt.MapClaims{
		"oid":    oid,
		"name":   name,
		"emails": []string{email},
		"iss":    testIssuer,
		"iat":    now.Unix(),
		"exp":    now.Add(time.Hour).Unix(),
	})
}

func (a testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a testAPI) seedUser(t *testing.T, id, name string, supervisor bool) string {
	t.Helper()

	email := name + "@itu.dk"
	_, err := a.db.UserRepo().Create(context.Background(), models.UserCreate{
		ID:         id,
		Name:       name,
		Email:      email,
		Supervisor: supervisor,
	})
	require.NoError(t, err)
	return tokenFor(t, id, name, email)
}

func (a testAPI) seedProject(t *testing.T, supervisorID, name string, state models.State, max *int) *models.ProjectDetails {
	t.Helper()

	project, err := a.db.ProjectRepo().Create(context.Background(), models.ProjectCreate{
		Name:         name,
		Description:  name + " description",
		SupervisorID: supervisorID,
		State:        state,
		Max:          max,
	})
	require.NoError(t, err)
	return project
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func itoa(i int) string {
	return strconv.Itoa(i)
}

func intPtr(i int) *int {
	return &i
}

func requireStatus(t *testing.T, want int, rec *httptest.ResponseRecorder) {
	t.Helper()
	require.Equal(t, want, rec.Code, rec.Body.String())
}

func strPtr(s string) *string {
	return &s
}
