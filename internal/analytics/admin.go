package analytics

import (
	"encoding/json"
	"net/http"

	"github.com/CSroseX/bisney/internal/tenant"
)

// Handler serves GET /analytics?tenant=<id>.
func Handler(a *Analytics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID := r.URL.Query().Get("tenant")
		if tenantID == "" {
			http.Error(w, "tenant query missing", http.StatusBadRequest)
			return
		}
		if _, ok := tenant.Lookup(tenantID); !ok {
			http.Error(w, "unknown tenant "+tenantID, http.StatusBadRequest)
			return
		}

		data, err := a.FetchTenantAnalytics(r.Context(), tenantID)
		if err != nil {
			http.Error(w, "analytics unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(data)
	}
}
