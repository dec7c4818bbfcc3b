// internal/middleware/accesslog.go
//
// Access log in the process logger.  One Info line per request with the
// chi request id, status, duration, and the operator's browser parsed by
// the ua package.  /metrics and /healthz are logged at Debug so scrapes do
// not drown the log.
package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/yanizio/dbconsole/internal/ua"
)

// AccessLog returns a middleware writing to log.
func AccessLog(log *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := []any{
				"req_id", chimw.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"dur_ms", time.Since(start).Milliseconds(),
				"ua", ua.Parse(r.UserAgent()).Summary(),
			}

			switch {
			case r.URL.Path == "/metrics" || r.URL.Path == "/healthz":
				log.Debugw("http", fields...)
			case status >= 500:
				log.Errorw("http", fields...)
			default:
				log.Infow("http", fields...)
			}
		})
	}
}
