package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/blog-api/app"
	"github.com/upb/blog-api/handlers"
	"github.com/upb/blog-api/middleware"
	"github.com/upb/blog-api/utils"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	cfg := deps.Config
	logger := deps.Logger
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)
	if cfg.Server.RequestTimeout > 0 {
		r.Use(chimw.Timeout(cfg.Server.RequestTimeout))
	}
	r.Use(middleware.ProcessTime)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Instrument)
	}

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.HTTP.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{middleware.ProcessTimeHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
	})

	// Health check endpoints
	var checker handlers.HealthChecker
	if deps.DB != nil {
		checker = deps.DB
	}
	health := handlers.NewHealthHandler(checker, logger)
	r.Get("/health", health.HandleHealth)
	r.Get("/health/ready", health.HandleReadiness)

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	authH := handlers.NewAuthHandler(deps.AuthService, logger)
	userH := handlers.NewUserHandler(deps.UserService, logger)
	postH := handlers.NewPostHandler(deps.PostService, logger)
	adminH := handlers.NewAdminHandler(deps.AdminService, logger)
	authMW := deps.AuthMiddleware

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(authMW.Authenticate)

		r.Route("/auth", func(r chi.Router) {
			r.Use(deps.RateLimiter.Handler)
			r.Post("/register", authH.HandleRegister)
			r.Post("/login", authH.HandleLogin)
			r.With(authMW.RequireAuth).Get("/me", authH.HandleMe)
		})

		// Everything below requires an active principal
		r.Group(func(r chi.Router) {
			r.Use(authMW.RequireAuth)

			r.Route("/users", func(r chi.Router) {
				r.Get("/", userH.HandleList)
				r.Get("/me", userH.HandleGetMe)
				r.Put("/me", userH.HandleUpdateMe)
				r.Get("/{id}", userH.HandleGet)
			})

			r.Route("/posts", func(r chi.Router) {
				r.Get("/", postH.HandleList)
				r.Post("/", postH.HandleCreate)
				r.Get("/{id}", postH.HandleGet)
				r.Put("/{id}", postH.HandleUpdate)
				r.Delete("/{id}", postH.HandleDelete)
				r.Post("/{id}/publish", postH.HandlePublish)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(authMW.RequireAdmin)
				r.Get("/dashboard", adminH.HandleDashboard)
				r.Get("/users", adminH.HandleListUsers)
				r.Patch("/users/{id}/toggle-active", adminH.HandleToggleActive)
				r.Delete("/posts/{id}", adminH.HandleDeletePost)
			})
		})
	})

	return r
}
