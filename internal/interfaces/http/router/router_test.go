package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type pingRegistrar struct {
	prefix string
	body   string
}

func (p pingRegistrar) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET(p.prefix+"/ping", func(c *gin.Context) {
		c.String(http.StatusOK, p.body)
	})
}

func TestNewRouter(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	assert.NotNil(t, r)
	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrations)
}

func TestRouterWithAPIVersion(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v2"))
	r.Register(pingRegistrar{prefix: "/test", body: "pong"})
	r.Setup()

	req := httptest.NewRequest("GET", "/api/v2/test/ping", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v1"))

	r.Register(pingRegistrar{prefix: "/test", body: "pong"})
	r.Setup()

	req := httptest.NewRequest("GET", "/api/v1/test/ping", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestRouterMultipleRegistrars(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	r.Register(pingRegistrar{prefix: "/carts", body: "carts"}).
		Register(pingRegistrar{prefix: "/catalog", body: "catalog"})
	r.Setup()

	for _, tt := range []struct {
		path string
		body string
	}{
		{"/api/v1/carts/ping", "carts"},
		{"/api/v1/catalog/ping", "catalog"},
	} {
		req := httptest.NewRequest("GET", tt.path, nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, tt.body, w.Body.String())
	}
}

func TestRouterRegisterProtected(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	guard := func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}

	r.RegisterProtected(pingRegistrar{prefix: "/secure", body: "ok"}, guard)
	r.Register(pingRegistrar{prefix: "/open", body: "ok"})
	r.Setup()

	t.Run("protected route rejects without credentials", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/secure/ping", nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("protected route passes with credentials", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/secure/ping", nil)
		req.Header.Set("Authorization", "Bearer token")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("middleware does not leak onto open routes", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/open/ping", nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
