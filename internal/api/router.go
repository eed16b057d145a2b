package api

import (
	"net/http"

	"github.com/dom/habit-proofs/internal/api/handlers"
	"github.com/dom/habit-proofs/internal/api/middleware"
	"github.com/dom/habit-proofs/internal/config"
	"github.com/dom/habit-proofs/internal/service"
	"github.com/dom/habit-proofs/internal/websocket"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(services *service.Services, presence *websocket.Presence, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(services.Auth, cfg)
	habitHandler := handlers.NewHabitHandler(services.Habit)
	proofHandler := handlers.NewProofHandler(services.Proof, cfg.MaxUploadMB)
	wsHandler := handlers.NewWebSocketHandler(presence, services.Auth, cfg.AllowedOrigins)

	requireAuth := middleware.Auth(services.Auth)

	r.Route("/auth", func(r chi.Router) {
		r.Get("/google", authHandler.GoogleLogin)
		r.Get("/google/callback", authHandler.GoogleCallback)
		r.Get("/logout", authHandler.Logout)

		if cfg.IsDevelopment() {
			r.Post("/dev-login", authHandler.DevLogin)
		}
	})

	r.Route("/api", func(r chi.Router) {
		r.With(middleware.OptionalAuth(services.Auth)).Get("/me", authHandler.Me)

		r.Route("/habits", func(r chi.Router) {
			r.Get("/", habitHandler.List)
			r.Get("/{id}", habitHandler.Get)
			r.Get("/{id}/proofs", proofHandler.List)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", habitHandler.Create)
				r.Post("/{id}/join", habitHandler.Join)
				r.Post("/{id}/proof", proofHandler.Submit)
			})
		})

		r.With(requireAuth).Post("/proofs/{id}/verify", proofHandler.Vote)
	})

	// WebSocket endpoint
	r.Get("/ws", wsHandler.Handle)

	return r
}
