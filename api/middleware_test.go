package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coproject/backend/errs"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticate(t *testing.T) {
	api := newTestAPI(t)
	api.seedUser(t, "u1", "alice", false)
	now := time.Now()

	tests := []struct {
		name      string
		header    string
		wantCode  int
		wantError string
	}{
		{
			name:      "no header",
			wantCode:  http.StatusUnauthorized,
			wantError: "missing access token",
		},
		{
			name:     "not bearer",
			header:   "Basic dXNlcjpwYXNz",
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "garbage token",
			header:   "Bearer not-a-jwt",
			wantCode: http.StatusUnauthorized,
		},
		{
			name: "wrong secret",
			header: "Bearer " + func() string {
				token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
					"oid": "u1", "iss": testIssuer, "exp": now.Add(time.Hour).Unix(),
				}).SignedString([]byte("other-secret"))
				require.NoError(t, err)
				return token
			}(),
			wantCode: http.StatusUnauthorized,
		},
		{
			name: "expired",
			header: "Bearer " + signToken(t, jwt.MapClaims{
				"oid": "u1", "iss": testIssuer, "exp": now.Add(-time.Hour).Unix(),
			}),
			wantCode: http.StatusUnauthorized,
		},
		{
			name: "wrong issuer",
			header: "Bearer " + signToken(t, jwt.MapClaims{
				"oid": "u1", "iss": "https://evil.test", "exp": now.Add(time.Hour).Unix(),
			}),
			wantCode: http.StatusUnauthorized,
		},
		{
			name: "no subject",
			header: "Bearer " + signToken(t, jwt.MapClaims{
				"name": "alice", "iss": testIssuer, "exp": now.Add(time.Hour).Unix(),
			}),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "valid",
			header:   "Bearer " + tokenFor(t, "u1", "alice", "alice@itu.dk"),
			wantCode: http.StatusOK,
		},
		{
			name: "sub instead of oid",
			header: "Bearer " + signToken(t, jwt.MapClaims{
				"sub": "u1", "iss": testIssuer, "exp": now.Add(time.Hour).Unix(),
			}),
			wantCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			api.router.ServeHTTP(rec, req)

			requireStatus(t, tt.wantCode, rec)
			if tt.wantCode >= 400 {
				body := decode[ErrorResponse](t, rec)
				assert.Equal(t, "error", body.Status)
				if tt.wantError != "" {
					assert.Contains(t, body.Error, tt.wantError)
				}
			}
		})
	}
}

func TestVerifySingleEmailClaim(t *testing.T) {
	m := newAuthMiddleware(testSecret, "")
	token := signToken(t, jwt.MapClaims{
		"oid":    " u1 ",
		"name":   "Alice",
		"emails": "alice@itu.dk",
		"exp":    time.Now().Add(time.Hour).Unix(),
	})

	identity, err := m.verify(token)
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: "u1", Name: "Alice", Email: "alice@itu.dk"}, identity)
}

func TestVerifyRejectsOtherAlgorithms(t *testing.T) {
	m := newAuthMiddleware(testSecret, "")
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"oid": "u1",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = m.verify(token)
	assert.True(t, errs.IsInvalidTokenError(err))
}

func TestVerifyExpired(t *testing.T) {
	m := newAuthMiddleware(testSecret, "")
	token := signToken(t, jwt.MapClaims{
		"oid": "u1",
		"exp": time.Now().Add(-time.Minute).Unix(),
	})

	_, err := m.verify(token)
	assert.True(t, errs.IsExpiredTokenError(err))
	assert.True(t, errs.IsUnauthorized(err))
}

func TestRequestID(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/health", "", nil)
	requireStatus(t, http.StatusOK, rec)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec = httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/health", "", nil)
	requireStatus(t, http.StatusOK, rec)

	body := decode[HealthResponse](t, rec)
	assert.Equal(t, "ok", body.Status)
	assert.NotEmpty(t, body.Started)
}

func TestCORSPreflight(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/projects", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/projects", nil)
	req.Header.Set("Origin", "https://elsewhere.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestNewRouterRequiresSecret(t *testing.T) {
	_, err := newRouter(newTestAPI(t).db, nil, nil, withConfig(map[string]string{}))
	assert.Error(t, err)
}
