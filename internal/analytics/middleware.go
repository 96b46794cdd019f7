package analytics

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/CSroseX/bisney/internal/tenant"
)

// Custom ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	status int
	wrote  bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wrote {
		rw.status = code
		rw.wrote = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.wrote {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// Middleware wraps a handler and records request analytics for each tenant:
// request count per endpoint, last latency and 4xx/5xx count. It must sit
// inside tenant.Middleware. A failed write is logged and otherwise ignored;
// analytics never fail a request.
func Middleware(a *Analytics, logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)

		t, ok := tenant.FromContext(r.Context())
		if !ok {
			return
		}
		if err := a.RecordRequest(r.Context(), t.ID, r.URL.Path, time.Since(start), ww.status); err != nil {
			logger.Warn("analytics write failed", zap.String("tenant_id", t.ID), zap.Error(err))
		}
	})
}
