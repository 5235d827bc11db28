package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/imsolutions/chatdesk/internal/sessions"
	"github.com/imsolutions/chatdesk/pkg/logging"
)

// RequestLogger emits one structured log line per completed request,
// tagged with the chi request id and the widget session id when the
// caller sent one.
func RequestLogger(logger *logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				args := []any{
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration_ms", time.Since(start).Milliseconds(),
					"remote_ip", r.RemoteAddr,
				}
				if reqID := chimw.GetReqID(r.Context()); reqID != "" {
					args = append(args, "request_id", reqID)
				}
				if sid := r.Header.Get(sessions.SessionHeader); sid != "" {
					args = append(args, "session_id", sid)
				}
				logger.Info("http request", args...)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
