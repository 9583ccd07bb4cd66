package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-chi/render"

	httpapi "github.com/yourorg/listings-api/http"
	"github.com/yourorg/listings-api/internal/logger"
)

type RouterDeps struct {
	Log                logger.Logger
	AllowedOrigins     []string
	RateLimitPerMinute int

	Listings httpapi.ListingsDeps
	Agents   httpapi.AgentsDeps
	Reviews  httpapi.ReviewsDeps
	Contact  httpapi.ContactDeps
}

func BuildRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(logger.Middleware(d.Log))
	r.Use(middleware.Recoverer)
	if len(d.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: d.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", logger.TraceHeader},
			ExposedHeaders: []string{logger.TraceHeader},
			MaxAge:         300,
		}))
	}
	if d.RateLimitPerMinute > 0 {
		r.Use(httprate.LimitByIP(d.RateLimitPerMinute, 1*time.Minute)) // protect upstream quota
	}
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]any{"ok": true, "timestamp": time.Now().UTC().Format(time.RFC3339)})
	})

	httpapi.RegisterListings(r, d.Listings)
	httpapi.RegisterAgents(r, d.Agents)
	httpapi.RegisterReviews(r, d.Reviews)
	httpapi.RegisterContact(r, d.Contact)

	return r
}
