package middleware

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/CSroseX/bisney/internal/metrics"
	"github.com/CSroseX/bisney/internal/tenant"
)

// Observer is the slice of the metrics emitter the duration middleware needs.
type Observer interface {
	Observe(name string, labels prometheus.Labels, seconds float64)
}

// ResponseWriter wrapper to capture status code
type statusCapture struct {
	http.ResponseWriter
	statusCode int
	wrote      bool
}

func (sc *statusCapture) WriteHeader(code int) {
	if !sc.wrote {
		sc.statusCode = code
		sc.wrote = true
		sc.ResponseWriter.WriteHeader(code)
	}
}

func (sc *statusCapture) Write(b []byte) (int, error) {
	if !sc.wrote {
		sc.WriteHeader(http.StatusOK)
	}
	return sc.ResponseWriter.Write(b)
}

// Duration records how long each request took, injected delay included,
// in the request duration histogram under the request's tenant.
func Duration(obs Observer, endpoint string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		next.ServeHTTP(w, r)

		tenantID := "unknown"
		if t, ok := tenant.FromContext(r.Context()); ok {
			tenantID = t.ID
		}
		obs.Observe(metrics.RequestDuration, prometheus.Labels{
			metrics.LabelTenant:   tenantID,
			metrics.LabelEndpoint: endpoint,
		}, time.Since(start).Seconds())
	})
}
