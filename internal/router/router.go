package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hushcampus-dev/hushcampus/internal/middleware/metrics"
	"github.com/hushcampus-dev/hushcampus/internal/setup"
)

// New creates and configures the chi router with all routes.
func New(deps *setup.Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(metrics.Middleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:8081"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}))

	h := deps.Handler
	authMw := deps.AuthMiddleware

	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authMw.NeedAuth())

			r.Get("/posts", h.ListPosts)
			r.Post("/posts", h.CreatePost)
			r.Get("/posts/{post}", h.GetPost)
			r.Delete("/posts/{post}", h.DeletePost)
			r.Post("/posts/{post}/reactions", h.React)
			r.Post("/posts/{post}/comments", h.AddComment)
			r.Post("/posts/{post}/comments/{comment}/helpful", h.MarkHelpful)
			r.Post("/posts/{post}/bookmark", h.ToggleBookmark)
			r.Post("/posts/{post}/extend", h.ExtendLifetime)
			r.Post("/reports", h.Report)

			r.Get("/communities", h.ListCommunities)
			r.Post("/communities/{community}/join", h.JoinCommunity)
			r.Post("/communities/{community}/read", h.MarkCommunityRead)
			r.Put("/communities/{community}/channels/{channel}/mute", h.SetChannelMute)
			r.Put("/communities/{community}/notifications", h.UpdateNotificationSettings)
			r.Get("/notifications", h.Notifications)

			r.Get("/rewards/balance", h.Balance)
			r.Get("/rewards/transactions", h.Transactions)
			r.Get("/rewards/achievements", h.Achievements)
			r.Post("/rewards/claim", h.Claim)
			r.Put("/rewards/subscriptions", h.UpdateSubscription)
		})

		r.Group(func(r chi.Router) {
			r.Use(authMw.ModeratorOnly())

			r.Post("/moderation/actions", h.ModeratorAction)
			r.Get("/moderation/log", h.ModerationLogEntries)
		})
	})

	return r
}
