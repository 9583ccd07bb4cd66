package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yourorg/listings-api/internal/reviews"
)

type ReviewsDeps struct {
	Cache *reviews.Cache
}

type reviewsResponse struct {
	Success bool             `json:"success"`
	Reviews []reviews.Review `json:"reviews"`
	reviews.Summary
	Cached    bool   `json:"cached"`
	FetchedAt int64  `json:"fetchedAt"`
	Warning   string `json:"warning,omitempty"`
	Timestamp string `json:"timestamp"`
}

func RegisterReviews(r chi.Router, d ReviewsDeps) {
	r.Get("/api/reviews/google", func(w http.ResponseWriter, req *http.Request) {
		serveReviews(w, req, d, false)
	})
	// POST forces a refresh.
	r.Post("/api/reviews/google", func(w http.ResponseWriter, req *http.Request) {
		serveReviews(w, req, d, true)
	})
}

func serveReviews(w http.ResponseWriter, req *http.Request, d ReviewsDeps, force bool) {
	v, err := d.Cache.Get(req.Context(), force)
	if err != nil {
		writeError(w, req, err)
		return
	}
	list := v.Reviews
	if list == nil {
		list = []reviews.Review{}
	}
	writeJSON(w, req, http.StatusOK, reviewsResponse{
		Success:   true,
		Reviews:   list,
		Summary:   v.Summary,
		Cached:    v.Cached,
		FetchedAt: v.FetchedAt.UnixMilli(),
		Warning:   v.Warning,
		Timestamp: timestamp(),
	})
}
