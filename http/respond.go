package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/yourorg/listings-api/internal/apierr"
	"github.com/yourorg/listings-api/internal/logger"
	"github.com/yourorg/listings-api/renet"
)

// upstream bodies are logged, but not without bound
const maxLoggedBody = 2048

type errorBody struct {
	Success   bool        `json:"success"`
	Error     string      `json:"error"`
	Message   string      `json:"message"`
	Code      apierr.Code `json:"code"`
	Timestamp string      `json:"timestamp"`
	Fields    []string    `json:"fields,omitempty"`
}

func timestamp() string { return time.Now().UTC().Format(time.RFC3339Nano) }

// writeError classifies err, logs the cause and renders only the user message.
func writeError(w http.ResponseWriter, req *http.Request, err error) {
	ae := apierr.FromUpstream(err)
	fields := logger.Fields{
		"code":        string(ae.Code),
		"status_code": ae.Status,
		"path":        req.URL.Path,
	}
	if ue, ok := renet.AsUpstream(err); ok {
		fields["upstream_endpoint"] = ue.Endpoint
		fields["upstream_status"] = ue.Status
		if ue.Body != "" {
			body := ue.Body
			if len(body) > maxLoggedBody {
				body = body[:maxLoggedBody]
			}
			fields["upstream_body"] = body
		}
	}
	log := logger.FromContext(req.Context())
	if ae.Status >= http.StatusInternalServerError {
		log.Error("request failed", err, fields)
	} else {
		fields["reason"] = ae.Error()
		log.Warn("request rejected", fields)
	}

	render.Status(req, ae.Status)
	render.JSON(w, req, errorBody{
		Error:     ae.Message,
		Message:   ae.Message,
		Code:      ae.Code,
		Timestamp: timestamp(),
		Fields:    ae.Fields,
	})
}

func writeJSON(w http.ResponseWriter, req *http.Request, status int, v any) {
	if status != http.StatusOK {
		render.Status(req, status)
	}
	render.JSON(w, req, v)
}
