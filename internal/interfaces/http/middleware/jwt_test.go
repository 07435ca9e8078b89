package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/localmarket/backend/internal/infrastructure/auth"
	"github.com/localmarket/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                "test-secret-for-middleware",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "market-backend-test",
	})
}

func newProtectedEngine(jwtService *auth.JWTService, registry *auth.SessionRegistry) *gin.Engine {
	engine := gin.New()
	engine.Use(JWTAuthMiddleware(jwtService, registry))
	engine.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, GetJWTUserID(c))
	})
	return engine
}

func TestJWTAuthMiddleware_RejectsMissingOrBadHeaders(t *testing.T) {
	engine := newProtectedEngine(newJWTService(), nil)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic dXNlcjpwYXNz"},
		{"empty token", "Bearer "},
		{"garbage token", "Bearer not.a.jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/whoami", nil)
			if tt.header != "" {
				req.Header.Set(AuthHeaderKey, tt.header)
			}
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestJWTAuthMiddleware_AcceptsValidToken(t *testing.T) {
	jwtService := newJWTService()
	engine := newProtectedEngine(jwtService, nil)

	ownerID := uuid.New()
	token, err := jwtService.GenerateAccessToken(ownerID, "")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set(AuthHeaderKey, BearerPrefix+token)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, ownerID.String(), w.Body.String())
}

func TestJWTAuthMiddleware_RecordsDeviceSession(t *testing.T) {
	jwtService := newJWTService()
	registry := auth.NewSessionRegistry()
	engine := newProtectedEngine(jwtService, registry)

	ownerID := uuid.New()
	token, err := jwtService.GenerateAccessToken(ownerID, "device-77")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set(AuthHeaderKey, BearerPrefix+token)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	got, err := registry.OwnerID(context.Background(), "device-77")
	require.NoError(t, err)
	assert.Equal(t, ownerID, got)
}

func TestJWTAuthMiddleware_NoDeviceClaimSkipsRegistry(t *testing.T) {
	jwtService := newJWTService()
	registry := auth.NewSessionRegistry()
	engine := newProtectedEngine(jwtService, registry)

	token, err := jwtService.GenerateAccessToken(uuid.New(), "")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set(AuthHeaderKey, BearerPrefix+token)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	_, err = registry.OwnerID(context.Background(), "")
	assert.Error(t, err)
}
