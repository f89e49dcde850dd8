package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/lmarban/tasklane-be/internal/api/handlers"
	"github.com/lmarban/tasklane-be/internal/auth"
	"github.com/lmarban/tasklane-be/internal/services"
	"github.com/lmarban/tasklane-be/internal/websocket"
)

// NewRouter creates and configures a new Chi router. Auth routes are public;
// everything else under /api requires a valid bearer access token.
func NewRouter(
	authManager *auth.Manager,
	hub *websocket.Hub,
	userService services.UserServiceProvider,
	tokenService services.TokenServiceProvider,
	taskService services.TaskServiceProvider,
	activityService services.ActivityServiceProvider,
	corsOrigin string,
) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	// Accept trailing-slash variants of every route.
	r.Use(middleware.StripSlashes)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{corsOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService, tokenService)
	taskHandler := handlers.NewTaskHandler(taskService)
	activityHandler := handlers.NewActivityHandler(activityService)
	wsHandler := handlers.NewWebSocketHandler(hub)

	r.Route("/api", func(r chi.Router) {
		// Public authentication endpoints
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/token", authHandler.Token)
			r.Post("/token/refresh", authHandler.RefreshToken)
		})

		// Everything below requires a valid access token.
		r.Group(func(r chi.Router) {
			r.Use(authManager.Middleware())

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", taskHandler.List)
				r.Post("/", taskHandler.Create)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", taskHandler.Get)
					r.Put("/", taskHandler.Update)
					r.Patch("/", taskHandler.Update)
					r.Delete("/", taskHandler.Delete)
				})
			})

			r.Get("/activity", activityHandler.GetRecent)
			r.Get("/ws", wsHandler.Serve)
		})
	})

	return r
}
