package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/CSroseX/bisney/internal/decisionlog"
)

// RequestIDHeader carries the request id back to the caller. An incoming
// value is reused so ids survive a hop through a load balancer.
const RequestIDHeader = "X-Request-ID"

// Logging assigns every request an id and writes one access log line per
// request once it completes.
func Logging(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		r = r.WithContext(decisionlog.WithRequestID(r.Context(), id))

		sc := &statusCapture{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(sc, r)

		logger.Debug("request",
			zap.String("request_id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", sc.statusCode),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
