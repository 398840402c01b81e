// Package health provides health checking functionality for the vignette
// resolution API.
package health

import (
	"math"
	"net/http"
	"time"

	"github.com/salahab839/prescription-api/interfaces"
)

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	catalogStore interfaces.CatalogStore
}

// NewHealthChecker creates a new health checker with injected dependencies
func NewHealthChecker(catalogStore interfaces.CatalogStore) interfaces.HealthChecker {
	return &HealthCheckerImpl{
		catalogStore: catalogStore,
	}
}

// HealthCheck returns HTTP-specific health data.
// The reference catalog is published a few times a year, so staleness
// thresholds are measured in days, not hours: the service degrades when a
// scheduled refresh has been missing for over a week.
func (h *HealthCheckerImpl) HealthCheck() (status string, data map[string]any, httpStatus int) {
	catalog := h.catalogStore.GetCatalog()
	index := h.catalogStore.GetIndex()
	lastUpdate := h.catalogStore.GetLastUpdated()
	isUpdating := h.catalogStore.IsUpdating()

	catalogAge := time.Since(lastUpdate)

	switch {
	case len(catalog) == 0 || index.Len() == 0:
		// Without a catalog every resolution fails closed
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case catalogAge > 30*24*time.Hour:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case catalogAge > 8*24*time.Hour:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable

	default:
		status = "healthy"
		httpStatus = http.StatusOK
	}

	data = map[string]any{
		"last_update":      lastUpdate.Format(time.RFC3339),
		"catalog_age_days": math.Round(catalogAge.Hours()/24*10) / 10,
		"catalog_entries":  len(catalog),
		"index_entries":    index.Len(),
		"is_updating":      isUpdating,
	}

	return status, data, httpStatus
}

// CalculateNextUpdate returns the next scheduled catalog refresh time.
// Refreshes run daily at 6:00 AM local time.
func (h *HealthCheckerImpl) CalculateNextUpdate() time.Time {
	now := time.Now()

	sixAM := time.Date(now.Year(), now.Month(), now.Day(), 6, 0, 0, 0, now.Location())

	if now.Before(sixAM) {
		return sixAM
	}

	return sixAM.AddDate(0, 0, 1)
}
