package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/crudkit/identity/internal/auth"
	"github.com/crudkit/identity/internal/domain"
	"github.com/crudkit/identity/internal/repository"
	"github.com/crudkit/identity/internal/service"
	"github.com/crudkit/identity/pkg/health"
	"github.com/crudkit/identity/pkg/middleware"
)

// RouterConfig bundles the dependencies for the HTTP router.
type RouterConfig struct {
	AuthService       *service.AuthService
	UserService       *service.UserService
	RoleService       *service.RoleService
	PermissionService *service.PermissionService
	AccessService     AccessChecker
	TokenManager      *auth.TokenManager
	UserRepo          repository.UserRepository
	HealthHandler     *health.Handler
	Logger            *slog.Logger
	CORS              CORSConfig
	AuthLimiter       middleware.Limiter // rate limits the public auth endpoints; nil disables
}

// NewRouter creates a chi router with all identity service routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(CORS(cfg.CORS))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.Tracing("identity"))
	r.Use(middleware.PrometheusMetrics("identity"))

	// Health check endpoints
	r.Get("/health/live", cfg.HealthHandler.LivenessHandler())
	r.Get("/health/ready", cfg.HealthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	authHandler := NewAuthHandler(cfg.AuthService, cfg.Logger)
	userHandler := NewUserHandler(cfg.UserService, cfg.Logger)
	roleHandler := NewRoleHandler(cfg.RoleService, cfg.Logger)
	permHandler := NewPermissionHandler(cfg.PermissionService, cfg.Logger)

	authenticate := Authenticate(cfg.TokenManager, cfg.UserRepo)

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		// Public endpoints, rate limited when a limiter is configured.
		r.Group(func(r chi.Router) {
			if cfg.AuthLimiter != nil {
				r.Use(middleware.RateLimit(cfg.AuthLimiter, cfg.Logger))
			}

			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.RefreshToken)
			r.Post("/forgot-password", authHandler.ForgotPassword)
			r.Post("/reset-password", authHandler.ResetPassword)
		})

		// Endpoints that need a live session.
		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Get("/me", authHandler.Me)
			r.Post("/logout", authHandler.Logout)
			r.Post("/change-password", authHandler.ChangePassword)
		})
	})

	// User administration
	r.Route("/api/v1/users", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(authenticate)
		r.Use(RequirePermission(cfg.AccessService, domain.PermUsersManage))

		r.Get("/", userHandler.List)
		r.Get("/{id}", userHandler.Get)
		r.Put("/{id}/role", userHandler.AssignRole)
		r.Put("/{id}/active", userHandler.SetActive)
	})

	// Role administration
	r.Route("/api/v1/roles", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(authenticate)
		r.Use(RequirePermission(cfg.AccessService, domain.PermRolesManage))

		r.Get("/", roleHandler.List)
		r.Post("/", roleHandler.Create)
		r.Get("/{id}", roleHandler.Get)
		r.Put("/{id}", roleHandler.Update)
		r.Delete("/{id}", roleHandler.Delete)
		r.Put("/{id}/permissions", roleHandler.SetPermissions)
	})

	// Permission administration
	r.Route("/api/v1/permissions", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(authenticate)
		r.Use(RequirePermission(cfg.AccessService, domain.PermPermissionsManage))

		r.Get("/", permHandler.List)
		r.Post("/", permHandler.Create)
		r.Post("/batch", permHandler.CreateBatch)
		r.Get("/{id}", permHandler.Get)
		r.Put("/{id}", permHandler.Update)
		r.Delete("/{id}", permHandler.Delete)
	})

	return r
}
