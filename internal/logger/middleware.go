package logger

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

const TraceHeader = "X-Trace-ID"

// Middleware attaches a trace id and a request-scoped logger to the context
// and logs the start and end of every request.
func Middleware(base Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			traceID := r.Header.Get(TraceHeader)
			if _, err := uuid.Parse(traceID); err != nil {
				traceID = uuid.New().String()
			}

			reqLogger := base.WithFields(Fields{"trace_id": traceID})
			httpLogger := reqLogger.WithFields(Fields{
				"http_method": r.Method,
				"http_path":   r.URL.Path,
				"remote_addr": r.RemoteAddr,
			})

			ctx := WithTraceID(WithContext(r.Context(), reqLogger), traceID)
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			ww.Header().Set(TraceHeader, traceID)
			start := time.Now()

			httpLogger.Debug("request started", nil)
			next.ServeHTTP(ww, r.WithContext(ctx))
			httpLogger.Info("request finished", Fields{
				"status_code":   ww.Status(),
				"bytes_written": ww.BytesWritten(),
				"duration_ms":   time.Since(start).Milliseconds(),
			})
		})
	}
}
