// Package storefront serves the Bisney shop: a static catalog page and the
// cart and lookup actions whose outcomes the injector decides.
package storefront

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/CSroseX/bisney/internal/analytics"
	"github.com/CSroseX/bisney/internal/config"
	"github.com/CSroseX/bisney/internal/counter"
	"github.com/CSroseX/bisney/internal/decisionlog"
	"github.com/CSroseX/bisney/internal/inject"
	"github.com/CSroseX/bisney/internal/middleware"
	"github.com/CSroseX/bisney/internal/simulation"
	"github.com/CSroseX/bisney/internal/tenant"
)

// Emitter is what the storefront records its telemetry through.
type Emitter interface {
	IncCounter(name string, labels prometheus.Labels)
	Observe(name string, labels prometheus.Labels, seconds float64)
	SetGauge(name string, labels prometheus.Labels, value float64)
}

// Deps are the collaborators of a Server. Metrics, State, Counter and
// Policy are required.
type Deps struct {
	Variant        config.Variant
	State          *simulation.State
	Counter        counter.Counter
	Policy         inject.Policy
	Metrics        Emitter
	MetricsHandler http.Handler
	Log            *decisionlog.Logger
	Tracer         trace.Tracer
	Analytics      *analytics.Analytics // nil disables analytics
	Sleep          func(ctx context.Context, d time.Duration)
}

type Server struct {
	variant   config.Variant
	state     *simulation.State
	counter   counter.Counter
	policy    inject.Policy
	metrics   Emitter
	scrape    http.Handler
	log       *decisionlog.Logger
	tracer    trace.Tracer
	analytics *analytics.Analytics
	sleep     func(ctx context.Context, d time.Duration)
	catalog   []Product
}

func New(d Deps) *Server {
	s := &Server{
		variant:   d.Variant,
		state:     d.State,
		counter:   d.Counter,
		policy:    d.Policy,
		metrics:   d.Metrics,
		scrape:    d.MetricsHandler,
		log:       d.Log,
		tracer:    d.Tracer,
		analytics: d.Analytics,
		sleep:     d.Sleep,
		catalog:   Catalog(),
	}
	if s.log == nil {
		s.log = decisionlog.New(nil)
	}
	if s.tracer == nil {
		s.tracer = noop.NewTracerProvider().Tracer("")
	}
	if s.sleep == nil {
		s.sleep = SleepContext
	}
	return s
}

// tenantRoute stacks the per-tenant middleware around h.
func (s *Server) tenantRoute(t tenant.Tenant, endpoint string, h http.HandlerFunc) http.Handler {
	var next http.Handler = middleware.Duration(s.metrics, endpoint, h)
	if s.analytics != nil {
		next = analytics.Middleware(s.analytics, s.log.Zap(), next)
	}
	return tenant.Middleware(t, next)
}

// Handler assembles every route of the configured variant.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	admin := simulation.NewAdmin(s.state, s.log)

	mux.HandleFunc("GET /{$}", s.Index)
	mux.Handle("POST /cart", s.tenantRoute(tenant.Merch, "/cart", s.Cart))
	mux.Handle("POST "+s.variant.LookupPath(), s.tenantRoute(s.variant.LookupTenant, s.variant.LookupPath(), s.Lookup))

	for _, mode := range s.variant.LegacyToggles {
		mux.Handle("POST /"+mode, admin.LegacyToggle(mode))
	}
	mux.HandleFunc("POST /simulation/{mode}", admin.ModeHandler)
	mux.HandleFunc("GET /simulation/status", admin.StatusHandler)

	if s.scrape != nil {
		mux.Handle("GET /metrics", s.scrape)
	}
	if s.analytics != nil {
		mux.Handle("GET /analytics", analytics.Handler(s.analytics))
	}

	return middleware.Logging(s.log.Zap(), middleware.Tracing(s.tracer, mux))
}
