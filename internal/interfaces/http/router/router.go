package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/intellipost/backend/internal/infrastructure/auth"
	"github.com/intellipost/backend/internal/infrastructure/config"
	"github.com/intellipost/backend/internal/infrastructure/logger"
	"github.com/intellipost/backend/internal/interfaces/http/middleware"
)

const maxBodyBytes = 2 << 20

// RouteRegistrar registers routes on an authenticated group
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// PublicRouteRegistrar registers routes that need no authentication
type PublicRouteRegistrar interface {
	RegisterPublicRoutes(rg *gin.RouterGroup)
}

// Router assembles the gin engine with middleware and all API routes
type Router struct {
	engine     *gin.Engine
	apiVersion string
	public     []PublicRouteRegistrar
	protected  []RouteRegistrar
	authMW     gin.HandlerFunc
}

// Option configures the Router
type Option func(*Router)

// WithAPIVersion overrides the /api/<version> prefix
func WithAPIVersion(version string) Option {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// New builds the engine with logging, recovery, CORS and rate limiting
func New(cfg *config.Config, log *zap.Logger, jwtService *auth.JWTService, blacklist auth.TokenBlacklist, opts ...Option) *Router {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.SecurityHeaders())
	engine.Use(middleware.BodyLimit(maxBodyBytes))
	engine.Use(middleware.NewRateLimiter(20, 40).Middleware())

	r := &Router{
		engine:     engine,
		apiVersion: "v1",
		authMW:     middleware.JWTAuth(jwtService, blacklist),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RegisterPublic adds a registrar for unauthenticated routes
func (r *Router) RegisterPublic(registrars ...PublicRouteRegistrar) *Router {
	r.public = append(r.public, registrars...)
	return r
}

// Register adds a registrar for authenticated routes
func (r *Router) Register(registrars ...RouteRegistrar) *Router {
	r.protected = append(r.protected, registrars...)
	return r
}

// Setup wires every registrar into the engine and returns it
func (r *Router) Setup() *gin.Engine {
	api := r.engine.Group("/api/" + r.apiVersion)

	for _, registrar := range r.public {
		registrar.RegisterPublicRoutes(api)
	}

	protected := api.Group("", r.authMW)
	for _, registrar := range r.protected {
		registrar.RegisterRoutes(protected)
	}
	return r.engine
}
