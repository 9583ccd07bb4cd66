package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/yourorg/listings-api/internal/apierr"
	"github.com/yourorg/listings-api/internal/forms"
)

// form bodies are small; anything larger is not a form
const maxFormBody = 256 << 10

type ContactDeps struct {
	Forms *forms.Proxy
}

type submissionResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	SubmissionID string `json:"submissionId,omitempty"`
	Timestamp    string `json:"timestamp"`
}

func RegisterContact(r chi.Router, d ContactDeps) {
	r.Post("/api/contact", func(w http.ResponseWriter, req *http.Request) {
		submit(w, req, d, "")
	})
	r.Post("/api/contact/{kind}", func(w http.ResponseWriter, req *http.Request) {
		submit(w, req, d, chi.URLParam(req, "kind"))
	})
}

func submit(w http.ResponseWriter, req *http.Request, d ContactDeps, slug string) {
	desc, ok := forms.Lookup(slug)
	if !ok {
		writeError(w, req, apierr.NotFound("Unknown form "+slug))
		return
	}
	fields, err := forms.DecodeFields(http.MaxBytesReader(w, req.Body, maxFormBody))
	if err != nil {
		writeError(w, req, apierr.Validation("Request body must be a JSON object"))
		return
	}
	res, err := d.Forms.Submit(req.Context(), desc, sourceURL(req), fields)
	if err != nil {
		writeError(w, req, err)
		return
	}
	writeJSON(w, req, http.StatusCreated, submissionResponse{
		Success:      true,
		Message:      res.Message,
		SubmissionID: res.SubmissionID,
		Timestamp:    res.Timestamp.Format(time.RFC3339Nano),
	})
}

// sourceURL is the absolute URL the form was posted to.
func sourceURL(req *http.Request) string {
	scheme := "http"
	if req.TLS != nil {
		scheme = "https"
	}
	if p := req.Header.Get("X-Forwarded-Proto"); p == "http" || p == "https" {
		scheme = p
	}
	return scheme + "://" + req.Host + req.URL.RequestURI()
}
