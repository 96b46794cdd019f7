package storefront

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/CSroseX/bisney/internal/counter"
	"github.com/CSroseX/bisney/internal/decisionlog"
	"github.com/CSroseX/bisney/internal/inject"
	"github.com/CSroseX/bisney/internal/metrics"
	"github.com/CSroseX/bisney/internal/tenant"
)

type cartRequest struct {
	ProductID   int    `json:"product_id"`
	ProductName string `json:"product_name"`
}

type lookupRequest struct {
	ProductID int `json:"product_id"`
}

// CheckoutResponse is the body of POST /cart. Exactly one of Message and
// Error is set.
type CheckoutResponse struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Clicks  int64  `json:"clicks"`
}

// LookupResponse is the body of POST /favorite and POST /coupon.
type LookupResponse struct {
	Message  string  `json:"message"`
	Cache    string  `json:"cache"`
	Duration float64 `json:"duration"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// decodeBody fills v from a JSON body. A missing or malformed body leaves v
// at its zero value; the storefront answers anyway.
func decodeBody(r *http.Request, v any) {
	if r.Body == nil {
		return
	}
	_ = json.NewDecoder(r.Body).Decode(v)
}

// SleepContext waits for d or until ctx is done.
func SleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (s *Server) nextCount(w http.ResponseWriter, r *http.Request, family string) (int64, bool) {
	n, err := s.counter.Incr(r.Context(), family)
	if err != nil {
		s.log.Error(r.Context(), decisionlog.EventCounterError, "Request counter unavailable",
			zap.String("family", family), zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "Request counter unavailable"})
		return 0, false
	}
	return n, true
}

// applyDelay sleeps for the injected delay, if any.
func (s *Server) applyDelay(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	s.state.RecordDelay()
	s.sleep(ctx, d)
}

// Cart handles checkout. Depending on the policy the payment fails and the
// handler answers 500; the inventory lag gauge is updated either way.
func (s *Server) Cart(w http.ResponseWriter, r *http.Request) {
	var req cartRequest
	decodeBody(r, &req)
	if req.ProductName == "" {
		req.ProductName = "Unknown Product"
	}

	clicks, ok := s.nextCount(w, r, counter.FamilyCart)
	if !ok {
		return
	}
	s.state.RecordRequest()
	degraded := s.state.Degraded()
	out := s.policy.Checkout(inject.Input{Count: clicks, Degraded: degraded})

	ctx, span := s.tracer.Start(r.Context(), "checkout_flow", trace.WithAttributes(
		attribute.String("tenant_id", tenant.Merch.ID),
		attribute.Int64("click_count", clicks),
		attribute.String("product", req.ProductName),
	))
	defer span.End()

	s.applyDelay(ctx, out.Delay)

	merch := prometheus.Labels{metrics.LabelTenant: tenant.Merch.ID}
	s.metrics.SetGauge(metrics.InventoryLag, merch, inject.InventoryLag(out.Succeeded, degraded))

	if !out.Succeeded {
		s.state.RecordFail()
		s.log.Error(ctx, decisionlog.EventPaymentFailure, "Payment processing failed",
			zap.Int64("clicks", clicks), zap.String("product", req.ProductName))
		span.SetStatus(codes.Error, "Payment processing failed")
		s.metrics.IncCounter(metrics.RequestsTotal, prometheus.Labels{
			metrics.LabelTenant: tenant.Merch.ID,
			metrics.LabelStatus: metrics.StatusError,
		})
		writeJSON(w, http.StatusInternalServerError, CheckoutResponse{Error: "Payment gateway timeout", Clicks: clicks})
		return
	}

	s.log.Info(ctx, decisionlog.EventCheckoutSuccess, "Cart checkout successful",
		zap.Int64("clicks", clicks), zap.String("product", req.ProductName))
	span.SetStatus(codes.Ok, "")
	s.metrics.IncCounter(metrics.RequestsTotal, prometheus.Labels{
		metrics.LabelTenant: tenant.Merch.ID,
		metrics.LabelStatus: metrics.StatusSuccess,
	})
	writeJSON(w, http.StatusOK, CheckoutResponse{Message: "Checkout successful", Clicks: clicks})
}

// Lookup handles the favorite or coupon endpoint: a read through a cache
// that does not exist, slow on a miss.
func (s *Server) Lookup(w http.ResponseWriter, r *http.Request) {
	var req lookupRequest
	decodeBody(r, &req)

	v := s.variant
	n, ok := s.nextCount(w, r, v.LookupFamily)
	if !ok {
		return
	}
	s.state.RecordRequest()
	out := s.policy.Lookup(inject.Input{Count: n, Degraded: s.state.Degraded()})

	ctx, span := s.tracer.Start(r.Context(), v.LookupFamily+"_lookup", trace.WithAttributes(
		attribute.String("tenant_id", v.LookupTenant.ID),
		attribute.Int("product_id", req.ProductID),
		attribute.String("cache_result", string(out.Cache)),
	))
	defer span.End()

	if out.Cache == inject.CacheMiss {
		s.log.Warn(ctx, decisionlog.EventCacheMiss, v.LookupLabel+" cache miss", zap.Int("product_id", req.ProductID))
	} else {
		s.log.Info(ctx, decisionlog.EventCacheHit, v.LookupLabel+" cache hit", zap.Int("product_id", req.ProductID))
	}
	s.metrics.IncCounter(metrics.CacheHits, prometheus.Labels{
		metrics.LabelTenant: v.LookupTenant.ID,
		metrics.LabelResult: string(out.Cache),
	})

	s.applyDelay(ctx, out.Delay)

	span.SetStatus(codes.Ok, "")
	s.metrics.IncCounter(metrics.RequestsTotal, prometheus.Labels{
		metrics.LabelTenant: v.LookupTenant.ID,
		metrics.LabelStatus: metrics.StatusSuccess,
	})
	writeJSON(w, http.StatusOK, LookupResponse{
		Message:  v.LookupMessage,
		Cache:    string(out.Cache),
		Duration: out.Delay.Seconds(),
	})
}
