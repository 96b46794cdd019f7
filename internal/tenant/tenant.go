package tenant

import (
	"context"
	"net/http"
)

// key type for context
type contextKey string

const tenantKey contextKey = "tenant"

// Tenant is a label dimension on emitted telemetry. It separates the logical
// sub-services of the storefront; it is not an isolation boundary.
type Tenant struct {
	ID   string
	Name string
}

var (
	Merch     = Tenant{ID: "merch", Name: "Merchandise"}
	Favorites = Tenant{ID: "favorites", Name: "Favorites"}
	Coupons   = Tenant{ID: "coupons", Name: "Coupons"}
)

// All lists the known tenants in a stable order.
func All() []Tenant {
	return []Tenant{Merch, Favorites, Coupons}
}

// Lookup resolves a tenant by ID.
func Lookup(id string) (Tenant, bool) {
	for _, t := range All() {
		if t.ID == id {
			return t, true
		}
	}
	return Tenant{}, false
}

// WithTenant returns a copy of ctx carrying t.
func WithTenant(ctx context.Context, t Tenant) context.Context {
	return context.WithValue(ctx, tenantKey, &t)
}

// FromContext returns tenant from request context
func FromContext(ctx context.Context) (*Tenant, bool) {
	t, ok := ctx.Value(tenantKey).(*Tenant)
	return t, ok
}

// Middleware tags every request reaching next with tenant t.
func Middleware(t Tenant, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithTenant(r.Context(), t)))
	})
}
