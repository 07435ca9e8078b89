package router

import (
	"github.com/gin-gonic/gin"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

type registration struct {
	registrar  RouteRegistrar
	middleware []gin.HandlerFunc
}

// Router manages HTTP route registration
type Router struct {
	engine        *gin.Engine
	apiVersion    string
	registrations []registration
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix (e.g., "v1", "v2")
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{
		engine:        engine,
		apiVersion:    "v1",
		registrations: make([]registration, 0),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Register adds a RouteRegistrar whose routes need no extra middleware
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrations = append(r.registrations, registration{registrar: registrar})
	return r
}

// RegisterProtected adds a RouteRegistrar whose routes sit behind the given
// middleware, typically authentication
func (r *Router) RegisterProtected(registrar RouteRegistrar, middleware ...gin.HandlerFunc) *Router {
	r.registrations = append(r.registrations, registration{
		registrar:  registrar,
		middleware: middleware,
	})
	return r
}

// Setup registers all routes with the engine
func (r *Router) Setup() {
	api := r.engine.Group("/api/" + r.apiVersion)

	for _, reg := range r.registrations {
		group := api
		if len(reg.middleware) > 0 {
			group = api.Group("")
			group.Use(reg.middleware...)
		}
		reg.registrar.RegisterRoutes(group)
	}
}
